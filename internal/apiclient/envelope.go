package apiclient

import (
	"bytes"

	"github.com/bytedance/sonic"
)

type listEnvelope[T any] struct {
	Results *[]T `json:"results"`
}

// DecodeList returns the collection carried by resp. A {"results": [...]}
// envelope yields the inner list and a bare list is returned unchanged. Any
// other JSON value yields an empty list.
func DecodeList[T any](resp Response) ([]T, error) {
	body := bytes.TrimSpace(resp.Body)

	switch leadingByte(body) {
	case '[':
		var items []T
		if err := sonic.Unmarshal(body, &items); err != nil {
			return nil, resp.decodeError(err)
		}
		return nonNil(items), nil
	case '{':
		var envelope listEnvelope[T]
		if err := sonic.Unmarshal(body, &envelope); err != nil {
			return nil, resp.decodeError(err)
		}
		if envelope.Results == nil {
			return []T{}, nil
		}
		return nonNil(*envelope.Results), nil
	default:
		if err := validJSON(body); err != nil {
			return nil, resp.decodeError(err)
		}
		return []T{}, nil
	}
}

// DecodeFirst returns the first element of a {"results": [...]} envelope,
// falling back to the first element of a bare list and then to the zero value.
func DecodeFirst[T any](resp Response) (T, error) {
	var zero T

	items, err := DecodeList[T](resp)
	if err != nil {
		return zero, err
	}
	if len(items) == 0 {
		return zero, nil
	}
	return items[0], nil
}

// DecodeObject decodes a plain JSON object. An empty body or null yields the
// zero value.
func DecodeObject[T any](resp Response) (T, error) {
	var value T

	body := bytes.TrimSpace(resp.Body)
	if len(body) == 0 || bytes.Equal(body, []byte("null")) {
		return value, nil
	}
	if leadingByte(body) != '{' {
		return value, resp.decodeError(errNotAnObject)
	}
	if err := sonic.Unmarshal(body, &value); err != nil {
		return value, resp.decodeError(err)
	}
	return value, nil
}

func (r Response) decodeError(err error) error {
	return &RemoteCallError{
		Method:     r.Method,
		Path:       r.Path,
		Kind:       KindDecode,
		StatusCode: r.StatusCode,
		Body:       r.Body,
		Err:        err,
	}
}

func leadingByte(body []byte) byte {
	if len(body) == 0 {
		return 0
	}
	return body[0]
}

func validJSON(body []byte) error {
	if len(body) == 0 {
		return nil
	}
	var discard any
	return sonic.Unmarshal(body, &discard)
}

func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}
