// Package awserr formats AWS SDK failures for log lines and user-facing
// messages.
package awserr

import (
	"errors"
	"fmt"

	"github.com/aws/smithy-go"
)

// Code returns the service error code carried by err, or "" when err did
// not come from an AWS API response.
func Code(err error) string {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		return apiErr.ErrorCode()
	}
	return ""
}

// IsClientFault reports whether the service blamed the request rather than
// itself.
func IsClientFault(err error) bool {
	var apiErr smithy.APIError
	return errors.As(err, &apiErr) && apiErr.ErrorFault() == smithy.FaultClient
}

// Wrap prefixes err with the operation that failed. API errors are
// rendered as "code: message" so the SDK's request metadata stays out of
// the message; err itself remains reachable through errors.Is and errors.As.
func Wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		return &opError{
			op:  op,
			msg: fmt.Sprintf("%s: %s", apiErr.ErrorCode(), apiErr.ErrorMessage()),
			err: err,
		}
	}
	return &opError{op: op, msg: err.Error(), err: err}
}

type opError struct {
	op  string
	msg string
	err error
}

func (e *opError) Error() string {
	return e.op + ": " + e.msg
}

func (e *opError) Unwrap() error {
	return e.err
}
