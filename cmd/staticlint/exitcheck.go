package main

import (
	"go/ast"
	"go/types"
	"strings"

	"golang.org/x/tools/go/analysis"
)

// NoDirectOsExit запрещает os.Exit в функции main пакета main, os.Exit не выполняет отложенные вызовы.
// Вызов распознается по типам, переименованный импорт os тоже ловится.
// nolint:gochecknoglobals
var NoDirectOsExit = &analysis.Analyzer{
	Name: "nodirectosexit",
	Doc:  "check for direct os.Exit calls in main function",
	Run:  runExitCheck,
}

func runExitCheck(pass *analysis.Pass) (interface{}, error) {
	if pass.Pkg.Name() != "main" {
		return nil, nil //nolint:nilnil
	}

	for _, file := range pass.Files {
		// Сгенерированные go test файлы из кэша сборки не проверяем.
		if strings.Contains(pass.Fset.Position(file.Pos()).Filename, "go-build") {
			continue
		}
		for _, decl := range file.Decls {
			fn, ok := decl.(*ast.FuncDecl)
			if !ok || fn.Recv != nil || fn.Name.Name != "main" || fn.Body == nil {
				continue
			}
			ast.Inspect(fn.Body, func(n ast.Node) bool {
				// Замыкания внутри main выполняются не обязательно в main.
				if _, isLit := n.(*ast.FuncLit); isLit {
					return false
				}
				call, isCall := n.(*ast.CallExpr)
				if isCall && isPkgFunc(pass, call.Fun, "os", "Exit") {
					pass.Reportf(call.Pos(), "direct call os.Exit is not allowed in main function")
				}
				return true
			})
		}
	}
	return nil, nil //nolint:nilnil
}

// isPkgFunc сообщает, ссылается ли выражение на функцию name из пакета pkgPath.
func isPkgFunc(pass *analysis.Pass, expr ast.Expr, pkgPath string, names ...string) bool {
	sel, ok := expr.(*ast.SelectorExpr)
	if !ok {
		return false
	}
	fn, ok := pass.TypesInfo.Uses[sel.Sel].(*types.Func)
	if !ok || fn.Pkg() == nil || fn.Pkg().Path() != pkgPath {
		return false
	}
	for _, name := range names {
		if fn.Name() == name {
			return true
		}
	}
	return false
}
