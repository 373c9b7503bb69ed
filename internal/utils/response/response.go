// Package response provides helpers for writing consistent JSON HTTP responses.
//
// Every handler in this application sends JSON back to the client.
// Rather than repeating the same three lines (set header, set status,
// encode JSON) in every handler, we centralise them here.
//
// Error responses always look like:
//
//	{ "message": "Student not found" }
package response

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// MsgInternal is the only text a client ever sees for an unexpected
// failure. The real error is logged server-side.
const MsgInternal = "Internal server error"

// Response is the standard envelope for errors and plain acknowledgements.
type Response struct {
	Message string `json:"message"`
}

// Message builds a Response from a fixed string.
func Message(msg string) Response {
	return Response{Message: msg}
}

// GeneralError wraps any Go error into the standard Response shape.
// Only use it for errors whose text is safe to show the client
// (decode errors, validation errors).
func GeneralError(err error) Response {
	return Response{Message: err.Error()}
}

// WriteJSON writes a JSON-encoded response with the given HTTP status code.
//
// IMPORTANT ORDER: Header() → WriteHeader() → body writes.
// Once WriteHeader is called (or the first Write), headers are locked.
func WriteJSON(w http.ResponseWriter, status int, data any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(data)
}

// ErrEmptyBody is returned by DecodeJSON when the request has no body.
var ErrEmptyBody = errors.New("request body is empty")

// DecodeJSON reads the request body into dst.
// An empty body yields ErrEmptyBody; malformed JSON yields the decoder
// error; a value of the wrong type is reported by its JSON field name.
// All are safe to echo back as a 400.
func DecodeJSON(r *http.Request, dst any) error {
	err := json.NewDecoder(r.Body).Decode(dst)
	if errors.Is(err, io.EOF) {
		return ErrEmptyBody
	}
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		if typeErr.Field == "" {
			return errors.New("invalid JSON body: expected a JSON object")
		}
		return fmt.Errorf("invalid JSON body: field %s must be %s", typeErr.Field, jsonKind(typeErr.Type))
	}
	if err != nil {
		return fmt.Errorf("invalid JSON body: %w", err)
	}
	return nil
}

// jsonKind names the JSON type a Go type decodes from.
func jsonKind(t reflect.Type) string {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	switch t.Kind() {
	case reflect.String:
		return "a string"
	case reflect.Bool:
		return "a boolean"
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return "a number"
	case reflect.Slice, reflect.Array:
		return "an array"
	default:
		return "an object"
	}
}

// ValidationError converts a slice of validator.FieldError values into
// a single human-readable Response.
//
// Field names are the JSON names (see NewValidator), so the client sees
//
//	{ "message": "Validation error: field studentId is required" }
func ValidationError(errs validator.ValidationErrors) Response {
	var errMessages []string

	for _, e := range errs {
		switch e.ActualTag() {
		case "required":
			errMessages = append(errMessages,
				fmt.Sprintf("field %s is required", e.Field()))
		case "email":
			errMessages = append(errMessages,
				fmt.Sprintf("field %s must be a valid email address", e.Field()))
		case "min":
			errMessages = append(errMessages,
				fmt.Sprintf("field %s must not be empty", e.Field()))
		default:
			errMessages = append(errMessages,
				fmt.Sprintf("field %s is invalid", e.Field()))
		}
	}

	return Response{
		Message: "Validation error: " + strings.Join(errMessages, ", "),
	}
}

// NewValidator returns a validator that reports fields by their json
// tag instead of the Go field name.
func NewValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Bind decodes the request body into dst and validates it.
// On failure it writes the 400 response itself and returns false, so a
// handler can simply `if !response.Bind(...) { return }`.
func Bind(w http.ResponseWriter, r *http.Request, v *validator.Validate, dst any) bool {
	if err := DecodeJSON(r, dst); err != nil {
		WriteJSON(w, http.StatusBadRequest, GeneralError(err))
		return false
	}

	if err := v.Struct(dst); err != nil {
		var validateErrs validator.ValidationErrors
		if errors.As(err, &validateErrs) {
			WriteJSON(w, http.StatusBadRequest, ValidationError(validateErrs))
			return false
		}
		WriteJSON(w, http.StatusBadRequest, GeneralError(err))
		return false
	}
	return true
}
