package calculator

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"calculator-api/internal/store"
)

// OperationRequest is the JSON body for the operation endpoints. A and B are
// pointers so that "field missing" and "field zero" stay distinguishable for
// the required check.
type OperationRequest struct {
	A        *float64 `json:"a" validate:"required"`
	B        *float64 `json:"b" validate:"required"`
	Username string   `json:"username" validate:"omitempty,max=50"`
}

// OperationResponse is the JSON response for the operation endpoints.
// CalculationID is null when the calculation could not be recorded.
type OperationResponse struct {
	Result        float64 `json:"result"`
	CalculationID *int64  `json:"calculation_id"`
	Message       string  `json:"message"`
}

// CalculationsResponse is the JSON response for GET /calculations.
type CalculationsResponse struct {
	Count        int                 `json:"count"`
	Calculations []store.Calculation `json:"calculations"`
}

// UsersResponse is the JSON response for GET /users.
type UsersResponse struct {
	Count int                   `json:"count"`
	Users []store.UserWithCount `json:"users"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	// Report field errors under the JSON names clients actually sent.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// decodeOperationRequest parses and validates an operation request body.
// The returned error text is client-facing: one "field: message" fragment per
// failed field, semicolon-joined.
func decodeOperationRequest(body io.Reader) (*OperationRequest, error) {
	var req OperationRequest
	if err := json.NewDecoder(body).Decode(&req); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) && typeErr.Field != "" {
			return nil, fmt.Errorf("%s: must be a number", typeErr.Field)
		}
		return nil, errors.New("invalid request body")
	}

	if err := validate.Struct(&req); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return nil, err
		}
		msgs := make([]string, 0, len(verrs))
		for _, fe := range verrs {
			msgs = append(msgs, fmt.Sprintf("%s: %s", fe.Field(), fieldMessage(fe)))
		}
		return nil, errors.New(strings.Join(msgs, "; "))
	}

	if !isFinite(*req.A) || !isFinite(*req.B) {
		return nil, errors.New("a and b must be finite numbers")
	}

	if req.Username == "" {
		req.Username = "anonymous"
	}
	return &req, nil
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "max":
		return fmt.Sprintf("must be at most %s characters", fe.Param())
	default:
		return fmt.Sprintf("failed %s validation", fe.Tag())
	}
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
