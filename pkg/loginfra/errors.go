package loginfra

import (
	"errors"
	"fmt"
	"reflect"
)

// ErrorKind names the type of err for the "kind" log key. Wrapping added by fmt.Errorf is looked
// through, so a wrapped *os.PathError is reported as such rather than as the wrapper.
func ErrorKind(err error) string {
	for err != nil {
		t := reflect.TypeOf(err)
		if t.Kind() == reflect.Ptr {
			t = t.Elem()
		}
		inner := errors.Unwrap(err)
		if t.PkgPath() != "fmt" || inner == nil {
			return fmt.Sprintf("%T", err)
		}
		err = inner
	}
	return ""
}
