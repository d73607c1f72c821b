package apiclient

import (
	"errors"
	"fmt"
	"strings"
)

var errNotAnObject = errors.New("expected a JSON object")

type Kind string

const (
	// KindStatus: the upstream answered with a non-2xx status.
	KindStatus Kind = "status"
	// KindNetwork: no usable response (dial, timeout, cancellation, truncated body).
	KindNetwork Kind = "network"
	// KindDecode: a 2xx body that does not have the expected JSON shape.
	KindDecode Kind = "decode"
	// KindEncode: the outbound payload could not be serialised.
	KindEncode Kind = "encode"
)

type RemoteCallError struct {
	Method     string
	Path       string
	Kind       Kind
	StatusCode int
	Body       []byte
	Err        error
}

func (e *RemoteCallError) Error() string {
	target := strings.TrimSpace(e.Method + " " + e.Path)
	switch e.Kind {
	case KindStatus:
		return fmt.Sprintf("%s: upstream responded %d", target, e.StatusCode)
	case KindDecode:
		return fmt.Sprintf("%s: decode response: %v", target, e.Err)
	case KindEncode:
		return fmt.Sprintf("%s: encode request: %v", target, e.Err)
	default:
		return fmt.Sprintf("%s: %v", target, e.Err)
	}
}

func (e *RemoteCallError) Unwrap() error {
	return e.Err
}

// HasResponse reports whether the upstream produced an HTTP status.
func (e *RemoteCallError) HasResponse() bool {
	return e.StatusCode > 0
}
