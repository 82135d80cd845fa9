// Command staticlint запускает набор анализаторов: стандартные проверки go vet,
// класс SA из staticcheck, отдельные проверки ST, S и QF, а также собственные
// анализаторы nodirectosexit и noambientenv.
//
// Запуск: go run ./cmd/staticlint ./...
package main

import (
	"golang.org/x/tools/go/analysis"
	"golang.org/x/tools/go/analysis/multichecker"
	"golang.org/x/tools/go/analysis/passes/asmdecl"
	"golang.org/x/tools/go/analysis/passes/assign"
	"golang.org/x/tools/go/analysis/passes/atomic"
	"golang.org/x/tools/go/analysis/passes/bools"
	"golang.org/x/tools/go/analysis/passes/buildtag"
	"golang.org/x/tools/go/analysis/passes/cgocall"
	"golang.org/x/tools/go/analysis/passes/composite"
	"golang.org/x/tools/go/analysis/passes/copylock"
	"golang.org/x/tools/go/analysis/passes/errorsas"
	"golang.org/x/tools/go/analysis/passes/httpresponse"
	"golang.org/x/tools/go/analysis/passes/ifaceassert"
	"golang.org/x/tools/go/analysis/passes/loopclosure"
	"golang.org/x/tools/go/analysis/passes/lostcancel"
	"golang.org/x/tools/go/analysis/passes/nilfunc"
	"golang.org/x/tools/go/analysis/passes/printf"
	"golang.org/x/tools/go/analysis/passes/shift"
	"golang.org/x/tools/go/analysis/passes/stdmethods"
	"golang.org/x/tools/go/analysis/passes/structtag"
	"golang.org/x/tools/go/analysis/passes/tests"
	"golang.org/x/tools/go/analysis/passes/unmarshal"
	"golang.org/x/tools/go/analysis/passes/unreachable"
	"golang.org/x/tools/go/analysis/passes/unsafeptr"
	"golang.org/x/tools/go/analysis/passes/unusedresult"
	"honnef.co/go/tools/analysis/lint"
	"honnef.co/go/tools/quickfix"
	"honnef.co/go/tools/simple"
	"honnef.co/go/tools/staticcheck"
	"honnef.co/go/tools/stylecheck"
)

// Проверки из классов ST, S и QF, которые включаются поверх всего SA.
//
//nolint:gochecknoglobals
var extraChecks = map[string]bool{
	"ST1000": true, // документация пакета
	"ST1005": true, // оформление текстов ошибок
	"S1002":  true, // лишнее сравнение с bool
	"QF1001": true, // закон де Моргана
}

func main() {
	multichecker.Main(analyzers()...)
}

func analyzers() []*analysis.Analyzer {
	list := []*analysis.Analyzer{
		asmdecl.Analyzer,
		assign.Analyzer,
		atomic.Analyzer,
		bools.Analyzer,
		buildtag.Analyzer,
		cgocall.Analyzer,
		composite.Analyzer,
		copylock.Analyzer,
		errorsas.Analyzer,
		httpresponse.Analyzer,
		ifaceassert.Analyzer,
		loopclosure.Analyzer,
		lostcancel.Analyzer,
		nilfunc.Analyzer,
		printf.Analyzer,
		shift.Analyzer,
		stdmethods.Analyzer,
		structtag.Analyzer,
		tests.Analyzer,
		unmarshal.Analyzer,
		unreachable.Analyzer,
		unsafeptr.Analyzer,
		unusedresult.Analyzer,
		NoDirectOsExit,
		NoAmbientEnv,
	}

	list = appendMatching(list, staticcheck.Analyzers, func(name string) bool { return name[:2] == "SA" })
	for _, group := range [][]*lint.Analyzer{stylecheck.Analyzers, simple.Analyzers, quickfix.Analyzers} {
		list = appendMatching(list, group, func(name string) bool { return extraChecks[name] })
	}
	return list
}

func appendMatching(dst []*analysis.Analyzer, src []*lint.Analyzer, match func(string) bool) []*analysis.Analyzer {
	for _, a := range src {
		if match(a.Analyzer.Name) {
			dst = append(dst, a.Analyzer)
		}
	}
	return dst
}
