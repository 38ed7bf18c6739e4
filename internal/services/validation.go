package services

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"
	"github.com/go-playground/validator/v10/non-standard/validators"
)

const maxBodyBytes = 1_048_576 // 1 MB

// ErrorResponse represents error response structure
type ErrorResponse struct {
	Error     string         `json:"error"`             // Error message
	ErrorCode string         `json:"errorCode"`         // Machine-readable code
	Details   map[string]any `json:"details,omitempty"` // Validation or balance details
}

// ValidationHelper provides shared validation functionality
type ValidationHelper struct {
	validator *validator.Validate
}

// NewValidationHelper creates a validator that reports fields by their JSON names
func NewValidationHelper() *ValidationHelper {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			return fld.Name
		}
		return name
	})
	// Whitespace-only strings count as missing.
	if err := v.RegisterValidation("notblank", validators.NotBlank); err != nil {
		panic(err)
	}
	return &ValidationHelper{validator: v}
}

// ValidateStruct validates a struct and returns validation errors
func (vh *ValidationHelper) ValidateStruct(s any) error {
	return vh.validator.Struct(s)
}

// Validate validates s and converts a failure into a 400 APIError.
func (vh *ValidationHelper) Validate(s any) *APIError {
	err := vh.validator.Struct(s)
	if err == nil {
		return nil
	}
	return ValidationError(err)
}

// ValidationError maps validator errors to MISSING_<FIELD> or INVALID_<FIELD>,
// using the first failing field for the code and listing all fields in details.
func ValidationError(err error) *APIError {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return NewAPIError(http.StatusBadRequest, CodeInvalidRequest, "Invalid request")
	}

	details := make(map[string]any, len(verrs))
	for _, fe := range verrs {
		details[fe.Field()] = fmt.Sprintf("Field Validation Failed on '%s' tag", fe.Tag())
	}

	first := verrs[0]
	field := fieldCode(first.Field())
	if first.Tag() == "required" || first.Tag() == "notblank" {
		return &APIError{
			Status:  http.StatusBadRequest,
			Code:    "MISSING_" + field,
			Message: fmt.Sprintf("%s is required", first.Field()),
			Details: details,
		}
	}
	return &APIError{
		Status:  http.StatusBadRequest,
		Code:    "INVALID_" + field,
		Message: fmt.Sprintf("%s is invalid", first.Field()),
		Details: details,
	}
}

// fieldCode turns contentType into CONTENT_TYPE.
func fieldCode(name string) string {
	var b strings.Builder
	for i, r := range name {
		if unicode.IsUpper(r) && i > 0 {
			b.WriteByte('_')
		}
		b.WriteRune(unicode.ToUpper(r))
	}
	return b.String()
}

// ReadJSONBody reads a size-limited request body that must hold a single JSON object.
func ReadJSONBody(w http.ResponseWriter, r *http.Request) ([]byte, *APIError) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	body, err := io.ReadAll(r.Body)
	if err != nil {
		return nil, NewAPIError(http.StatusRequestEntityTooLarge, CodeInvalidRequest, "Request body too large")
	}

	dec := json.NewDecoder(bytes.NewReader(body))
	var obj map[string]json.RawMessage
	if err := dec.Decode(&obj); err != nil {
		return nil, NewAPIError(http.StatusBadRequest, CodeInvalidRequest, "Invalid request")
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		return nil, NewAPIError(http.StatusBadRequest, CodeInvalidRequest, "Request body must only contain a single JSON object")
	}
	return body, nil
}

// DecodeJSONBody strictly decodes a single JSON object into dst.
func DecodeJSONBody(w http.ResponseWriter, r *http.Request, dst any) *APIError {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	if err := dec.Decode(dst); err != nil {
		return NewAPIError(http.StatusBadRequest, CodeInvalidRequest, "Invalid request")
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		return NewAPIError(http.StatusBadRequest, CodeInvalidRequest, "Request body must only contain a single JSON object")
	}
	return nil
}

// SendErrorResponse sends a JSON error response
func SendErrorResponse(w http.ResponseWriter, apiErr *APIError) {
	SendJSON(w, apiErr.Status, ErrorResponse{
		Error:     apiErr.Message,
		ErrorCode: apiErr.Code,
		Details:   apiErr.Details,
	})
}

// SendJSON writes v as a JSON response with the given status.
func SendJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
