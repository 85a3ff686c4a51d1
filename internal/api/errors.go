package api

import "fmt"

// Error is returned by method handlers to pick the JSON-RPC error code.
// Data, when set, is sent to the caller instead of the error text.
type Error struct {
	Code    int
	Message string
	Data    interface{}
}

// NewError creates a new API error
func NewError(code int, message string) *Error {
	return &Error{Code: code, Message: message}
}

func (e *Error) Error() string {
	if e.Data != nil {
		return fmt.Sprintf("rpc error %d: %s (%v)", e.Code, e.Message, e.Data)
	}
	return fmt.Sprintf("rpc error %d: %s", e.Code, e.Message)
}

func invalidParams(format string, args ...interface{}) *Error {
	return NewError(ErrInvalidParams, fmt.Sprintf(format, args...))
}

// missingParam names the absent parameter in the error data
func missingParam(name string) *Error {
	return &Error{
		Code:    ErrInvalidParams,
		Message: "missing required parameter: " + name,
		Data:    map[string]string{"param": name},
	}
}
