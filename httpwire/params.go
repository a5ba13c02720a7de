// File: httpwire/params.go
// Author: momentics <momentics@gmail.com>
// SPDX-License-Identifier: MIT
//
// Typed access to path parameters bound during routing, with a tagged
// error distinguishing not-found from invalid conversion.

package httpwire

import (
	"errors"
	"fmt"
	"strconv"
)

// ErrParamNotFound is wrapped by ParamError when name was never bound by
// the route tree.
var ErrParamNotFound = errors.New("path parameter not found")

// ErrParamInvalid is wrapped by ParamError when the bound value could not
// be converted to the requested type.
var ErrParamInvalid = errors.New("path parameter invalid")

// ParamError names the offending parameter alongside the underlying
// ErrParamNotFound/ErrParamInvalid sentinel.
type ParamError struct {
	Name string
	Err  error
}

func (e *ParamError) Error() string {
	return fmt.Sprintf("httpwire: path parameter %q: %v", e.Name, e.Err)
}

func (e *ParamError) Unwrap() error { return e.Err }

// GetPathParam parses the path parameter bound under name into T: string,
// []byte, int, int64, or float64. Handlers call this with an explicit type
// argument, e.g. httpwire.GetPathParam[int](req, "id").
func GetPathParam[T any](r *Request, name string) (T, error) {
	var zero T
	raw, ok := r.Param(name)
	if !ok {
		return zero, &ParamError{Name: name, Err: ErrParamNotFound}
	}
	switch any(zero).(type) {
	case string:
		return any(raw).(T), nil
	case []byte:
		return any([]byte(raw)).(T), nil
	case int:
		v, err := strconv.Atoi(raw)
		if err != nil {
			return zero, &ParamError{Name: name, Err: ErrParamInvalid}
		}
		return any(v).(T), nil
	case int64:
		v, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return zero, &ParamError{Name: name, Err: ErrParamInvalid}
		}
		return any(v).(T), nil
	case float64:
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return zero, &ParamError{Name: name, Err: ErrParamInvalid}
		}
		return any(v).(T), nil
	default:
		return zero, &ParamError{Name: name, Err: ErrParamInvalid}
	}
}
