package loginfra

import (
	"errors"
	"fmt"
	"testing"
)

type removeError struct {
	path string
	err  error
}

func (e *removeError) Error() string { return e.path + ": " + e.err.Error() }

func (e *removeError) Unwrap() error { return e.err }

func TestErrorKind(t *testing.T) {
	typed := &removeError{path: "/work/BuildTools/1.8/work", err: errors.New("permission denied")}

	testcases := []struct {
		err  error
		want string
	}{
		{nil, ""},
		{errors.New("exit status 1"), "*errors.errorString"},
		{typed, "*loginfra.removeError"},
		{fmt.Errorf("removing: %w", typed), "*loginfra.removeError"},
		{fmt.Errorf("preparing 1.8: %w", fmt.Errorf("removing: %w", typed)), "*loginfra.removeError"},
		{fmt.Errorf("both: %w, %w", typed, errors.New("x")), "*fmt.wrapErrors"},
		{fmt.Errorf("flattened: %v", typed), "*errors.errorString"},
	}

	for _, tc := range testcases {
		if got := ErrorKind(tc.err); got != tc.want {
			t.Errorf("unexpected kind of %v: expected=%s, got=%s", tc.err, tc.want, got)
		}
	}
}
