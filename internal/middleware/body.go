package middleware

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strconv"

	"github.com/bytedance/sonic"
)

const formValuesKey contextKey = "form-values"

var errNotAnObject = errors.New("json body must be an object")

// BodyParser reads url-encoded and JSON request bodies up to maxBytes and
// exposes their fields through FormValue. Other content types pass through
// untouched.
func BodyParser(maxBytes int64) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Body == nil || r.Body == http.NoBody || !hasBody(r.Method) {
				next.ServeHTTP(w, r)
				return
			}

			mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
			if mediaType != "application/x-www-form-urlencoded" && mediaType != "application/json" {
				next.ServeHTTP(w, r)
				return
			}

			raw, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBytes))
			if err != nil {
				var tooLarge *http.MaxBytesError
				if errors.As(err, &tooLarge) {
					http.Error(w, http.StatusText(http.StatusRequestEntityTooLarge), http.StatusRequestEntityTooLarge)
					return
				}
				http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
				return
			}

			var values url.Values
			if mediaType == "application/json" {
				values, err = parseJSONBody(raw)
			} else {
				values, err = url.ParseQuery(string(raw))
			}
			if err != nil {
				http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
				return
			}

			ctx := context.WithValue(r.Context(), formValuesKey, values)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// FormValue returns the first value for key from the parsed request body, or
// "" when the body had no such field.
func FormValue(r *http.Request, key string) string {
	values, ok := r.Context().Value(formValuesKey).(url.Values)
	if !ok {
		return ""
	}
	return values.Get(key)
}

func hasBody(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		return true
	default:
		return false
	}
}

func parseJSONBody(raw []byte) (url.Values, error) {
	values := url.Values{}
	if len(raw) == 0 {
		return values, nil
	}

	var fields map[string]any
	if err := sonic.Unmarshal(raw, &fields); err != nil {
		return nil, err
	}
	if fields == nil {
		return nil, errNotAnObject
	}

	for key, value := range fields {
		switch typed := value.(type) {
		case nil:
		case string:
			values.Set(key, typed)
		case bool:
			values.Set(key, strconv.FormatBool(typed))
		case float64:
			values.Set(key, strconv.FormatFloat(typed, 'f', -1, 64))
		case []any:
			for _, item := range typed {
				if s, ok := item.(string); ok {
					values.Add(key, s)
				}
			}
		default:
			values.Set(key, fmt.Sprint(typed))
		}
	}
	return values, nil
}
