package httpx

import (
	"errors"

	"github.com/go-playground/validator/v10"
)

// ValidationFields flattens validator errors into a field-to-message map for
// the VALIDATION_ERROR response body.
func ValidationFields(err error) map[string]string {
	fields := make(map[string]string)
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		fields["_"] = "invalid request"
		return fields
	}
	for _, fe := range verrs {
		fields[fe.Field()] = "failed " + fe.Tag() + " validation"
	}
	return fields
}
