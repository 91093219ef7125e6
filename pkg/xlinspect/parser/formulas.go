package parser

import (
	"sort"
	"strings"

	"github.com/xuri/efp"
)

// VolatileMatcher finds calls to volatile functions in formulas.
type VolatileMatcher struct {
	names map[string]struct{}
}

// NewVolatileMatcher creates a matcher for the given function names.
func NewVolatileMatcher(functions []string) *VolatileMatcher {
	names := make(map[string]struct{}, len(functions))
	for _, fn := range functions {
		if n := NormalizeFunctionName(fn); n != "" {
			names[n] = struct{}{}
		}
	}
	return &VolatileMatcher{names: names}
}

// Functions returns the matched function names, sorted.
func (m *VolatileMatcher) Functions() []string {
	out := make([]string, 0, len(m.names))
	for n := range m.names {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

// Match returns the distinct volatile functions called by formula, in call order.
func (m *VolatileMatcher) Match(formula string) []string {
	var found []string
	for _, fn := range FunctionCalls(formula) {
		if _, ok := m.names[fn]; !ok {
			continue
		}
		dup := false
		for _, f := range found {
			if f == fn {
				dup = true
				break
			}
		}
		if !dup {
			found = append(found, fn)
		}
	}
	return found
}

// IsVolatile reports whether formula calls at least one volatile function.
func (m *VolatileMatcher) IsVolatile(formula string) bool {
	for _, fn := range FunctionCalls(formula) {
		if _, ok := m.names[fn]; ok {
			return true
		}
	}
	return false
}

// FunctionCalls tokenizes formula and returns the normalized names of every
// function it calls. Text literals and sheet names never match.
func FunctionCalls(formula string) []string {
	if strings.TrimSpace(formula) == "" {
		return nil
	}
	ps := efp.ExcelParser()
	var calls []string
	for _, t := range ps.Parse(formula) {
		if t.TType == efp.TokenTypeFunction && t.TSubType == efp.TokenSubTypeStart {
			calls = append(calls, NormalizeFunctionName(t.TValue))
		}
	}
	return calls
}

// NormalizeFunctionName upper-cases a function name and strips the future
// function prefixes Excel writes to the file (_xlfn., _xlws.).
func NormalizeFunctionName(name string) string {
	n := strings.ToUpper(strings.TrimSpace(name))
	for {
		switch {
		case strings.HasPrefix(n, "_XLFN."):
			n = strings.TrimPrefix(n, "_XLFN.")
		case strings.HasPrefix(n, "_XLWS."):
			n = strings.TrimPrefix(n, "_XLWS.")
		default:
			return n
		}
	}
}

// IsFormulaText reports whether a stored text value looks like a formula
// that was typed as text ("=SUM(A1:A3)").
func IsFormulaText(value string) bool {
	return strings.HasPrefix(value, "=")
}
