package introspect

import (
	"errors"
	"fmt"
	"go/ast"
	"go/token"
	"math/big"
	"reflect"
	"strconv"
	"strings"
)

// evaluate computes the value of expr using only vars. It supports a side-effect free subset
// of Go expressions: no function or method is ever called except the builtins len and cap.
func evaluate(expr ast.Expr, vars Bindings) (result interface{}, err error) {
	defer func() {
		if r := recover(); r != nil {
			result, err = nil, fmt.Errorf("evaluation failed: %v", r)
		}
	}()
	return evaluator{vars: vars}.eval(expr)
}

type evaluator struct {
	vars Bindings
}

func (e evaluator) eval(expr ast.Expr) (interface{}, error) {
	switch x := expr.(type) {
	case *ast.ParenExpr:
		return e.eval(x.X)
	case *ast.BasicLit:
		return literal(x)
	case *ast.Ident:
		return e.ident(x.Name)
	case *ast.SelectorExpr:
		if name, ok := qualifiedName(x); ok {
			if v, found := e.vars[name]; found {
				return v, nil
			}
		}
		base, err := e.eval(x.X)
		if err != nil {
			return nil, err
		}
		return selectMember(base, x.Sel.Name)
	case *ast.IndexExpr:
		base, err := e.eval(x.X)
		if err != nil {
			return nil, err
		}
		idx, err := e.eval(x.Index)
		if err != nil {
			return nil, err
		}
		return index(base, idx)
	case *ast.StarExpr:
		v, err := e.eval(x.X)
		if err != nil {
			return nil, err
		}
		rv := reflect.ValueOf(v)
		if rv.Kind() != reflect.Ptr || rv.IsNil() {
			return nil, errors.New("cannot dereference non-pointer or nil pointer")
		}
		return valueOf(rv.Elem())
	case *ast.UnaryExpr:
		v, err := e.eval(x.X)
		if err != nil {
			return nil, err
		}
		return unary(x.Op, v)
	case *ast.BinaryExpr:
		if x.Op == token.LAND || x.Op == token.LOR {
			return e.logical(x)
		}
		l, err := e.eval(x.X)
		if err != nil {
			return nil, err
		}
		r, err := e.eval(x.Y)
		if err != nil {
			return nil, err
		}
		if isComparison(x.Op) {
			return compare(x.Op, l, r)
		}
		return arithmetic(x.Op, l, r)
	case *ast.CallExpr:
		return e.builtin(x)
	}
	return nil, fmt.Errorf("unsupported expression %T", expr)
}

func (e evaluator) ident(name string) (interface{}, error) {
	if v, ok := e.vars[name]; ok {
		return v, nil
	}
	switch name {
	case "true":
		return true, nil
	case "false":
		return false, nil
	case "nil":
		return nil, nil
	}
	return nil, fmt.Errorf("no binding for %q", name)
}

func (e evaluator) logical(x *ast.BinaryExpr) (interface{}, error) {
	l, err := e.eval(x.X)
	if err != nil {
		return nil, err
	}
	lb, ok := asBool(l)
	if !ok {
		return nil, fmt.Errorf("operand of %s is not a bool", x.Op)
	}
	if (x.Op == token.LAND && !lb) || (x.Op == token.LOR && lb) {
		return lb, nil
	}
	r, err := e.eval(x.Y)
	if err != nil {
		return nil, err
	}
	rb, ok := asBool(r)
	if !ok {
		return nil, fmt.Errorf("operand of %s is not a bool", x.Op)
	}
	return rb, nil
}

func (e evaluator) builtin(call *ast.CallExpr) (interface{}, error) {
	fn, ok := call.Fun.(*ast.Ident)
	if !ok || (fn.Name != "len" && fn.Name != "cap") || len(call.Args) != 1 {
		return nil, errors.New("only the builtins len and cap can be evaluated")
	}
	if _, shadowed := e.vars[fn.Name]; shadowed {
		return nil, fmt.Errorf("%s is shadowed by a binding", fn.Name)
	}
	v, err := e.eval(call.Args[0])
	if err != nil {
		return nil, err
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Ptr && !rv.IsNil() && rv.Elem().Kind() == reflect.Array {
		rv = rv.Elem()
	}
	switch rv.Kind() {
	case reflect.String, reflect.Map:
		if fn.Name == "len" {
			return rv.Len(), nil
		}
	case reflect.Slice, reflect.Array, reflect.Chan:
		if fn.Name == "len" {
			return rv.Len(), nil
		}
		return rv.Cap(), nil
	}
	return nil, fmt.Errorf("invalid argument for %s: %T", fn.Name, v)
}

func qualifiedName(x *ast.SelectorExpr) (string, bool) {
	var parts []string
	var cur ast.Expr = x
	for {
		switch n := cur.(type) {
		case *ast.SelectorExpr:
			parts = append([]string{n.Sel.Name}, parts...)
			cur = n.X
		case *ast.Ident:
			return strings.Join(append([]string{n.Name}, parts...), "."), true
		default:
			return "", false
		}
	}
}

func literal(lit *ast.BasicLit) (interface{}, error) {
	text := lit.Value
	switch lit.Kind {
	case token.INT:
		digits := strings.ReplaceAll(text, "_", "")
		if i, err := strconv.ParseInt(digits, 0, 64); err == nil {
			return i, nil
		}
		return strconv.ParseUint(digits, 0, 64)
	case token.FLOAT:
		return strconv.ParseFloat(strings.ReplaceAll(text, "_", ""), 64)
	case token.STRING:
		return strconv.Unquote(text)
	case token.CHAR:
		s, err := strconv.Unquote(text)
		if err != nil {
			return nil, err
		}
		for _, r := range s {
			return r, nil
		}
		return nil, errors.New("empty rune literal")
	}
	return nil, fmt.Errorf("unsupported literal %s", text)
}

func valueOf(rv reflect.Value) (interface{}, error) {
	if !rv.IsValid() {
		return nil, nil
	}
	if !rv.CanInterface() {
		return nil, errors.New("value is not accessible")
	}
	return rv.Interface(), nil
}

func selectMember(base interface{}, name string) (interface{}, error) {
	rv := reflect.ValueOf(base)
	for rv.Kind() == reflect.Ptr || rv.Kind() == reflect.Interface {
		if rv.IsNil() {
			return nil, fmt.Errorf("nil value has no member %q", name)
		}
		rv = rv.Elem()
	}
	switch rv.Kind() {
	case reflect.Struct:
		sf, ok := rv.Type().FieldByName(name)
		if !ok || sf.PkgPath != "" {
			return nil, fmt.Errorf("no exported field %q", name)
		}
		return valueOf(rv.FieldByIndex(sf.Index))
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			return nil, fmt.Errorf("cannot select %q from map with non-string keys", name)
		}
		return mapLookup(rv, reflect.ValueOf(name).Convert(rv.Type().Key()))
	}
	return nil, fmt.Errorf("cannot select %q from %T", name, base)
}

func index(base, idx interface{}) (interface{}, error) {
	rv := reflect.ValueOf(base)
	if rv.Kind() == reflect.Ptr && !rv.IsNil() && rv.Elem().Kind() == reflect.Array {
		rv = rv.Elem()
	}
	switch rv.Kind() {
	case reflect.Slice, reflect.Array, reflect.String:
		n, ok := toNumber(idx)
		if !ok || n.isFloat || !n.i.IsInt64() {
			return nil, fmt.Errorf("invalid index %v", idx)
		}
		i := n.i.Int64()
		if i < 0 || i >= int64(rv.Len()) {
			return nil, fmt.Errorf("index %d out of range [0:%d]", i, rv.Len())
		}
		return valueOf(rv.Index(int(i)))
	case reflect.Map:
		key, err := mapKey(rv.Type().Key(), idx)
		if err != nil {
			return nil, err
		}
		return mapLookup(rv, key)
	}
	return nil, fmt.Errorf("cannot index %T", base)
}

func mapKey(keyType reflect.Type, idx interface{}) (reflect.Value, error) {
	if idx == nil {
		return reflect.Value{}, errors.New("nil map key")
	}
	k := reflect.ValueOf(idx)
	if k.Type().AssignableTo(keyType) {
		return k, nil
	}
	if isNumericKind(k.Kind()) && isNumericKind(keyType.Kind()) || k.Kind() == keyType.Kind() {
		if k.Type().ConvertibleTo(keyType) {
			return k.Convert(keyType), nil
		}
	}
	return reflect.Value{}, fmt.Errorf("key %v does not match map key type %s", idx, keyType)
}

func mapLookup(m, key reflect.Value) (interface{}, error) {
	v := m.MapIndex(key)
	if !v.IsValid() {
		v = reflect.Zero(m.Type().Elem())
	}
	return valueOf(v)
}

func unary(op token.Token, v interface{}) (interface{}, error) {
	switch op {
	case token.NOT:
		b, ok := asBool(v)
		if !ok {
			return nil, fmt.Errorf("operator ! not defined on %T", v)
		}
		return !b, nil
	case token.ADD, token.SUB:
		n, ok := toNumber(v)
		if !ok {
			return nil, fmt.Errorf("operator %s not defined on %T", op, v)
		}
		if op == token.ADD {
			return v, nil
		}
		if n.isFloat {
			return -n.f, nil
		}
		return (&number{i: new(big.Int).Neg(n.i)}).value(), nil
	}
	return nil, fmt.Errorf("unsupported operator %s", op)
}

func arithmetic(op token.Token, l, r interface{}) (interface{}, error) {
	if ls, ok := asString(l); ok {
		rs, ok := asString(r)
		if !ok || op != token.ADD {
			return nil, fmt.Errorf("operator %s not defined on %T and %T", op, l, r)
		}
		return ls + rs, nil
	}
	ln, lok := toNumber(l)
	rn, rok := toNumber(r)
	if !lok || !rok {
		return nil, fmt.Errorf("operator %s not defined on %T and %T", op, l, r)
	}
	if ln.isFloat || rn.isFloat {
		a, b := ln.float(), rn.float()
		switch op {
		case token.ADD:
			return a + b, nil
		case token.SUB:
			return a - b, nil
		case token.MUL:
			return a * b, nil
		case token.QUO:
			if b == 0 {
				return nil, errors.New("division by zero")
			}
			return a / b, nil
		}
		return nil, fmt.Errorf("operator %s not defined on floats", op)
	}
	res := new(big.Int)
	switch op {
	case token.ADD:
		res.Add(ln.i, rn.i)
	case token.SUB:
		res.Sub(ln.i, rn.i)
	case token.MUL:
		res.Mul(ln.i, rn.i)
	case token.QUO, token.REM:
		if rn.i.Sign() == 0 {
			return nil, errors.New("division by zero")
		}
		if op == token.QUO {
			res.Quo(ln.i, rn.i)
		} else {
			res.Rem(ln.i, rn.i)
		}
	default:
		return nil, fmt.Errorf("unsupported operator %s", op)
	}
	return (&number{i: res}).value(), nil
}

func compare(op token.Token, l, r interface{}) (bool, error) {
	if ln, ok := toNumber(l); ok {
		if rn, ok := toNumber(r); ok {
			return ordered(op, ln.cmp(rn))
		}
	}
	if ls, ok := asString(l); ok {
		if rs, ok := asString(r); ok {
			return ordered(op, strings.Compare(ls, rs))
		}
	}
	if op != token.EQL && op != token.NEQ {
		return false, fmt.Errorf("operator %s not defined on %T and %T", op, l, r)
	}
	eq := equal(l, r)
	if op == token.NEQ {
		return !eq, nil
	}
	return eq, nil
}

func ordered(op token.Token, c int) (bool, error) {
	switch op {
	case token.EQL:
		return c == 0, nil
	case token.NEQ:
		return c != 0, nil
	case token.LSS:
		return c < 0, nil
	case token.LEQ:
		return c <= 0, nil
	case token.GTR:
		return c > 0, nil
	case token.GEQ:
		return c >= 0, nil
	}
	return false, fmt.Errorf("unsupported operator %s", op)
}

func equal(l, r interface{}) bool {
	if l == nil || r == nil {
		return isNil(l) && isNil(r)
	}
	if lb, ok := asBool(l); ok {
		if rb, ok := asBool(r); ok {
			return lb == rb
		}
	}
	lt, rt := reflect.TypeOf(l), reflect.TypeOf(r)
	if lt == rt && lt.Comparable() {
		return l == r
	}
	return reflect.DeepEqual(l, r)
}

func isNil(v interface{}) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Ptr, reflect.Map, reflect.Slice, reflect.Func, reflect.Interface, reflect.Chan:
		return rv.IsNil()
	}
	return false
}

func asBool(v interface{}) (bool, bool) {
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Bool {
		return false, false
	}
	return rv.Bool(), true
}

func asString(v interface{}) (string, bool) {
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.String {
		return "", false
	}
	return rv.String(), true
}

// number holds an integer exactly, or a float.
type number struct {
	i       *big.Int
	f       float64
	isFloat bool
}

func toNumber(v interface{}) (number, bool) {
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return number{i: big.NewInt(rv.Int())}, true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return number{i: new(big.Int).SetUint64(rv.Uint())}, true
	case reflect.Float32, reflect.Float64:
		return number{f: rv.Float(), isFloat: true}, true
	}
	return number{}, false
}

func isNumericKind(k reflect.Kind) bool {
	return k >= reflect.Int && k <= reflect.Float64
}

func (n number) float() float64 {
	if n.isFloat {
		return n.f
	}
	f, _ := new(big.Float).SetInt(n.i).Float64()
	return f
}

func (n number) cmp(o number) int {
	if n.isFloat || o.isFloat {
		a, b := n.float(), o.float()
		switch {
		case a < b:
			return -1
		case a > b:
			return 1
		}
		return 0
	}
	return n.i.Cmp(o.i)
}

func (n *number) value() interface{} {
	if n.isFloat {
		return n.f
	}
	if n.i.IsInt64() {
		return n.i.Int64()
	}
	if n.i.IsUint64() {
		return n.i.Uint64()
	}
	return n.float()
}
