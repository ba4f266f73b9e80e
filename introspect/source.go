package introspect

import (
	"errors"
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"strings"
)

const (
	// maxLinesBack bounds the search for the start of a call when the reported line is not
	// the line the call begins on.
	maxLinesBack = 20
	// maxLinesForward bounds how far a call may extend past the line it begins on.
	maxLinesForward = 80
)

var errUnbalanced = errors.New("unbalanced brackets")

// locateCalls returns the source of each call to funcName that covers line, from funcName to
// its closing parenthesis. Calls beginning on the reported line are returned in order; if there
// are none, the nearest call above it is used.
func locateCalls(src []byte, line int, funcName string) ([]string, error) {
	lines := strings.Split(string(src), "\n")
	if line < 1 || line > len(lines) {
		return nil, fmt.Errorf("line %d out of range", line)
	}
	if funcName == "" {
		return nil, errors.New("no function name")
	}

	for l := line; l >= 1 && l > line-maxLinesBack; l-- {
		cols := callNameColumns(lines[l-1], funcName)
		if len(cols) == 0 {
			continue
		}
		if l != line {
			cols = cols[len(cols)-1:]
		}
		last := l - 1 + maxLinesForward
		if last > len(lines) {
			last = len(lines)
		}
		text := strings.Join(lines[l-1:last], "\n")
		var calls []string
		for i, col := range cols {
			call, err := callAt(text[col:], l, line, funcName)
			if err != nil {
				if i == 0 {
					return nil, err
				}
				break
			}
			calls = append(calls, call)
		}
		return calls, nil
	}
	return nil, fmt.Errorf("no call to %s near line %d", funcName, line)
}

// callAt returns the call that starts at the beginning of rest, which is on line start. The
// call must extend at least to line.
func callAt(rest string, start, line int, funcName string) (string, error) {
	end, err := matchClose(rest, strings.IndexByte(rest, '('))
	if err != nil {
		return "", err
	}
	if endLine := start + strings.Count(rest[:end], "\n"); endLine < line {
		return "", fmt.Errorf("call to %s at line %d ends before line %d", funcName, start, line)
	}
	return rest[:end], nil
}

// callNameColumns finds each offset in s where name appears as a whole identifier followed by
// an opening parenthesis.
func callNameColumns(s, name string) []int {
	var cols []int
	for from := 0; from < len(s); {
		i := strings.Index(s[from:], name)
		if i < 0 {
			break
		}
		i += from
		from = i + len(name)
		if i > 0 && isIdentByte(s[i-1]) {
			continue
		}
		j := from
		for j < len(s) && (s[j] == ' ' || s[j] == '\t') {
			j++
		}
		if j < len(s) && s[j] == '(' {
			cols = append(cols, i)
		}
	}
	return cols
}

func isIdentByte(c byte) bool {
	return c == '_' || c >= '0' && c <= '9' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= 0x80
}

// conditionSource extracts argument argIndex of a call. The call is parsed as a Go expression;
// if that fails the argument list is split by scanning.
func conditionSource(call string, argIndex int) (string, error) {
	fset := token.NewFileSet()
	if expr, err := parser.ParseExprFrom(fset, "", call, 0); err == nil {
		if c, ok := expr.(*ast.CallExpr); ok {
			if argIndex >= len(c.Args) {
				return "", fmt.Errorf("call has %d arguments, wanted index %d", len(c.Args), argIndex)
			}
			return nodeSource(fset, call, c.Args[argIndex]), nil
		}
	}

	open := strings.IndexByte(call, '(')
	if open < 0 || !strings.HasSuffix(call, ")") {
		return "", errors.New("not a call")
	}
	args, err := splitArgs(call[open+1 : len(call)-1])
	if err != nil {
		return "", err
	}
	if argIndex >= len(args) {
		return "", fmt.Errorf("call has %d arguments, wanted index %d", len(args), argIndex)
	}
	return strings.TrimSpace(args[argIndex]), nil
}

// matchClose returns the offset just past the bracket closing the one at s[open].
func matchClose(s string, open int) (int, error) {
	if open < 0 || open >= len(s) {
		return -1, errUnbalanced
	}
	depth := 0
	end := -1
	err := walkCode(s[open:], func(i int, c byte) bool {
		switch c {
		case '(', '[', '{':
			depth++
		case ')', ']', '}':
			depth--
			if depth == 0 {
				end = open + i + 1
				return false
			}
		}
		return true
	})
	if err != nil {
		return -1, err
	}
	if end < 0 {
		return -1, errUnbalanced
	}
	return end, nil
}

// splitArgs splits an argument list at its top-level commas.
func splitArgs(s string) ([]string, error) {
	var args []string
	depth, start := 0, 0
	err := walkCode(s, func(i int, c byte) bool {
		switch c {
		case '(', '[', '{':
			depth++
		case ')', ']', '}':
			depth--
		case ',':
			if depth == 0 {
				args = append(args, s[start:i])
				start = i + 1
			}
		}
		return depth >= 0
	})
	if err != nil {
		return nil, err
	}
	if depth != 0 {
		return nil, errUnbalanced
	}
	if tail := s[start:]; strings.TrimSpace(tail) != "" {
		args = append(args, tail)
	}
	return args, nil
}

// walkCode calls fn for every byte of s that is outside string literals, rune literals and
// comments, stopping early if fn returns false.
func walkCode(s string, fn func(i int, c byte) bool) error {
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c == '"' || c == '\'':
			j, err := skipQuoted(s, i)
			if err != nil {
				return err
			}
			i = j
		case c == '`':
			j := strings.IndexByte(s[i+1:], '`')
			if j < 0 {
				return errors.New("unterminated raw string")
			}
			i += j + 1
		case c == '/' && i+1 < len(s) && s[i+1] == '/':
			j := strings.IndexByte(s[i:], '\n')
			if j < 0 {
				return nil
			}
			i += j
		case c == '/' && i+1 < len(s) && s[i+1] == '*':
			j := strings.Index(s[i+2:], "*/")
			if j < 0 {
				return errors.New("unterminated comment")
			}
			i += j + 3
		default:
			if !fn(i, c) {
				return nil
			}
		}
	}
	return nil
}

func skipQuoted(s string, start int) (int, error) {
	quote := s[start]
	for j := start + 1; j < len(s); j++ {
		switch s[j] {
		case '\\':
			j++
		case '\n':
			return -1, errors.New("unterminated literal")
		case quote:
			return j, nil
		}
	}
	return -1, errors.New("unterminated literal")
}
