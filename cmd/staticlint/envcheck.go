package main

import (
	"go/ast"
	"strings"

	"golang.org/x/tools/go/analysis"
)

// NoAmbientEnv запрещает читать переменные окружения в обход пакета конфигурации.
// Допускаются пакеты internal/config и пакеты под cmd/.
// nolint:gochecknoglobals
var NoAmbientEnv = &analysis.Analyzer{
	Name: "noambientenv",
	Doc:  "check that environment variables are read only by the config package",
	Run:  runEnvCheck,
}

func envAllowed(pkgPath string) bool {
	return strings.HasSuffix(pkgPath, "/internal/config") ||
		strings.HasPrefix(pkgPath, "cmd/") ||
		strings.Contains(pkgPath, "/cmd/")
}

func runEnvCheck(pass *analysis.Pass) (interface{}, error) {
	if envAllowed(pass.Pkg.Path()) {
		return nil, nil //nolint:nilnil
	}

	for _, file := range pass.Files {
		ast.Inspect(file, func(n ast.Node) bool {
			sel, ok := n.(*ast.SelectorExpr)
			if !ok || !isPkgFunc(pass, sel, "os", "Getenv", "LookupEnv", "Environ") {
				return true
			}
			pass.Reportf(sel.Pos(), "os.%s outside of internal/config, pass the value through config.Config", sel.Sel.Name)
			return true
		})
	}
	return nil, nil //nolint:nilnil
}
