package introspect

import (
	"fmt"
	"reflect"
	"strconv"
)

// repr formats a value the way it would read in source: strings quoted, nil as nil.
func repr(v interface{}) string {
	if isNil(v) {
		return "nil"
	}
	switch x := v.(type) {
	case string:
		return strconv.Quote(x)
	case error:
		return x.Error()
	case fmt.Stringer:
		return x.String()
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.String:
		return strconv.Quote(rv.String())
	case reflect.Struct:
		return fmt.Sprintf("%+v", v)
	case reflect.Ptr:
		if rv.Elem().Kind() == reflect.Struct {
			return fmt.Sprintf("&%+v", rv.Elem().Interface())
		}
	}
	return fmt.Sprintf("%v", v)
}
