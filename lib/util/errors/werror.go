// Copyright 2023 RWProxy Authors
// SPDX-License-Identifier: Apache-2.0

package errors

import (
	"errors"
	"fmt"
)

var _ error = &WError{}

// WError annotates an underlying error with a cause error. Is/As match
// both the cause and the underlying error.
type WError struct {
	uerr error
	cerr error
}

// Wrap annotates uerr with cerr. It returns nil if uerr is nil, and uerr
// itself if cerr is nil.
func Wrap(cerr, uerr error) error {
	if uerr == nil {
		return nil
	}
	if cerr == nil {
		return uerr
	}
	return &WError{uerr: uerr, cerr: cerr}
}

// Wrapf annotates err with a formatted cause. The cause message is
// formatted eagerly here because the args may mutate later.
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return &WError{uerr: err, cerr: Errorf(format, args...)}
}

func (e *WError) Format(st fmt.State, verb rune) {
	switch verb {
	case 'v':
		if st.Flag('+') {
			fmt.Fprintf(st, "%+v: %+v", e.cerr, e.uerr)
		} else {
			fmt.Fprintf(st, "%v: %v", e.cerr, e.uerr)
		}
	case 's':
		fmt.Fprintf(st, "%s: %s", e.cerr, e.uerr)
	}
}

func (e *WError) Error() string {
	return fmt.Sprintf("%s", e)
}

func (e *WError) Is(target error) bool {
	return errors.Is(e.cerr, target) || errors.Is(e.uerr, target)
}

func (e *WError) As(target interface{}) bool {
	return errors.As(e.cerr, target) || errors.As(e.uerr, target)
}

func (e *WError) Unwrap() error {
	return e.uerr
}
