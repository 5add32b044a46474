package client

import (
	"errors"
	"fmt"
)

// ErrMalformedResponse 服务端响应缺字段或字段非法
var ErrMalformedResponse = errors.New("malformed response")

// StatusError is returned when the server answers with a non-2xx status.
type StatusError struct {
	Code   int
	Detail string
}

func (e *StatusError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("server returned status %d", e.Code)
	}
	return fmt.Sprintf("server returned status %d: %s", e.Code, e.Detail)
}

func malformed(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrMalformedResponse, fmt.Sprintf(format, args...))
}
