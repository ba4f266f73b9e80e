// Package introspect derives a readable description of an asserted condition from the source
// of the call that asserted it.
//
// Given the file and line of a call such as
//
//	checkmate.SoftAssert(t, resp.StatusCode == 200, checkmate.With("resp", resp))
//
// Describe reassembles the call from the source file, extracts the condition argument and
// renders it with the runtime values of its operands, for example
// "resp.StatusCode == 200 (404 == 200)". Go cannot read a caller's local variables, so the
// values come from Bindings supplied at the call site; literals need no bindings.
//
// Every step is best effort. Describe never panics and never returns an empty description: if
// the source cannot be read or parsed it falls back to the condition's source text, and failing
// that to the string form of the condition's value.
package introspect

import (
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"os"
	"strconv"
	"strings"
)

// Tier says how much information a Description carries.
type Tier int

const (
	// Introspected descriptions include runtime values.
	Introspected Tier = iota
	// FallbackToSourceText descriptions contain only the condition's source text.
	FallbackToSourceText
	// FallbackToValueText descriptions contain only the condition's boolean value.
	FallbackToValueText
)

func (t Tier) String() string {
	switch t {
	case Introspected:
		return "introspected"
	case FallbackToSourceText:
		return "source text"
	case FallbackToValueText:
		return "value text"
	default:
		return "Tier(" + strconv.Itoa(int(t)) + ")"
	}
}

// Description is the outcome of Describe.
type Description struct {
	Tier Tier
	Text string
}

// Bindings maps names used in a condition to their values at the call site. A key may also be
// a qualified name such as "http.StatusOK".
type Bindings map[string]interface{}

// Site is the location of an assertion call.
type Site struct {
	File string
	Line int
	// Func is the name of the called function, without any package or receiver qualifier.
	Func string
	// ArgIndex is the position of the condition among the call's arguments.
	ArgIndex int
	// Source, if set, is used instead of reading File.
	Source []byte
}

func (s Site) source() ([]byte, error) {
	if s.Source != nil {
		return s.Source, nil
	}
	if s.File == "" {
		return nil, fmt.Errorf("no source location")
	}
	return os.ReadFile(s.File)
}

// Describe produces a description of the condition passed at site. value is the condition's
// already computed boolean; it is only used for the last fallback tier.
func Describe(site Site, vars Bindings, value bool) (desc Description) {
	desc = valueText(value)
	defer func() {
		if r := recover(); r != nil {
			desc = valueText(value)
		}
	}()

	src, err := site.source()
	if err != nil {
		return desc
	}
	calls, err := locateCalls(src, site.Line, site.Func)
	if err != nil {
		return desc
	}
	cond, ok := pickCondition(calls, site.ArgIndex, vars, value)
	if !ok {
		return desc
	}
	return describeCondition(cond, vars)
}

// pickCondition chooses the condition argument among candidate calls. With several calls on
// one line, the first whose condition evaluates to value is chosen; if none does, the call
// cannot be told apart and no condition is returned.
func pickCondition(calls []string, argIndex int, vars Bindings, value bool) (string, bool) {
	var conds []string
	for _, call := range calls {
		cond, err := conditionSource(call, argIndex)
		if err == nil && strings.TrimSpace(cond) != "" {
			conds = append(conds, cond)
		}
	}
	switch len(conds) {
	case 0:
		return "", false
	case 1:
		return conds[0], true
	}
	for _, cond := range conds {
		if evaluatesTo(cond, vars, value) {
			return cond, true
		}
	}
	return "", false
}

func evaluatesTo(cond string, vars Bindings, value bool) bool {
	expr, err := parser.ParseExpr(cond)
	if err != nil {
		return false
	}
	v, err := evaluate(expr, vars)
	if err != nil {
		return false
	}
	b, ok := asBool(v)
	return ok && b == value
}

// DescribeExpr describes a condition given directly as source text.
func DescribeExpr(cond string, vars Bindings) (desc Description) {
	cond = strings.TrimSpace(cond)
	desc = Description{Tier: FallbackToSourceText, Text: display(cond)}
	if cond == "" {
		return Description{Tier: FallbackToValueText, Text: "<empty condition>"}
	}
	defer func() {
		if r := recover(); r != nil {
			desc = Description{Tier: FallbackToSourceText, Text: display(cond)}
		}
	}()
	return describeCondition(cond, vars)
}

func describeCondition(cond string, vars Bindings) Description {
	shown := display(cond)
	fset := token.NewFileSet()
	expr, err := parser.ParseExprFrom(fset, "", cond, 0)
	if err != nil {
		return Description{Tier: FallbackToSourceText, Text: shown}
	}

	if cmp, ok := unparen(expr).(*ast.BinaryExpr); ok && isComparison(cmp.Op) {
		left, leftOK := operandText(fset, cond, cmp.X, vars)
		right, rightOK := operandText(fset, cond, cmp.Y, vars)
		tier := Introspected
		if !leftOK && !rightOK {
			tier = FallbackToSourceText
		}
		return Description{
			Tier: tier,
			Text: fmt.Sprintf("%s (%s %s %s)", shown, left, cmp.Op, right),
		}
	}

	v, err := evaluate(expr, vars)
	if err != nil {
		return Description{Tier: FallbackToSourceText, Text: shown}
	}
	return Description{Tier: Introspected, Text: fmt.Sprintf("%s (evaluates to %s)", shown, repr(v))}
}

func operandText(fset *token.FileSet, src string, expr ast.Expr, vars Bindings) (string, bool) {
	if v, err := evaluate(expr, vars); err == nil {
		return repr(v), true
	}
	return display(nodeSource(fset, src, expr)), false
}

func nodeSource(fset *token.FileSet, src string, node ast.Node) string {
	start := fset.Position(node.Pos()).Offset
	end := fset.Position(node.End()).Offset
	if start < 0 || end > len(src) || start > end {
		return ""
	}
	return src[start:end]
}

func unparen(expr ast.Expr) ast.Expr {
	for {
		p, ok := expr.(*ast.ParenExpr)
		if !ok {
			return expr
		}
		expr = p.X
	}
}

func isComparison(op token.Token) bool {
	switch op {
	case token.EQL, token.NEQ, token.LSS, token.LEQ, token.GTR, token.GEQ:
		return true
	}
	return false
}

func valueText(value bool) Description {
	return Description{Tier: FallbackToValueText, Text: strconv.FormatBool(value)}
}

// display collapses a condition that spans several lines onto one line.
func display(src string) string {
	if !strings.Contains(src, "\n") {
		return strings.TrimSpace(src)
	}
	return strings.Join(strings.Fields(src), " ")
}
