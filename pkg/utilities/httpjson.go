package utilities

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strings"
)

const maxJSONBody = 1 << 20

// ErrUnknownField is returned by DecodeJSON in strict mode when the body
// names a key that is not exactly one of the target's json field names.
var ErrUnknownField = errors.New("unknown field")

// WriteJSON writes v as the JSON response body with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// DecodeJSON reads a single JSON object from the request body into v. An
// empty body leaves v untouched. In strict mode keys are matched against
// the json tags of v case-sensitively.
func DecodeJSON(w http.ResponseWriter, r *http.Request, v any, strict bool) error {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxJSONBody))
	if err != nil {
		return err
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return nil
	}
	if strict {
		var raw map[string]json.RawMessage
		if err := json.Unmarshal(body, &raw); err != nil {
			return err
		}
		allowed := fieldNames(v)
		for key := range raw {
			if _, ok := allowed[key]; !ok {
				return fmt.Errorf("%w: %q", ErrUnknownField, key)
			}
		}
	}
	return json.Unmarshal(body, v)
}

// fieldNames lists the exact json keys of the struct v points to.
func fieldNames(v any) map[string]struct{} {
	names := map[string]struct{}{}
	t := reflect.TypeOf(v)
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t == nil || t.Kind() != reflect.Struct {
		return names
	}
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !f.IsExported() {
			continue
		}
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		switch name {
		case "-":
			continue
		case "":
			name = f.Name
		}
		names[name] = struct{}{}
	}
	return names
}
