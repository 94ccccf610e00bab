// Package validator validates the typed request structure once at the engine
// boundary, before any filter resolution runs.
package validator

import (
	"fmt"
	"regexp"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	apperrors "github.com/zielaskowski/tradeDB/internal/errors"
)

var (
	validate *validator.Validate
	once     sync.Once
)

// fxTargetRegex matches an ISO 4217 currency code. The wildcard "%" (no
// conversion) is accepted separately.
var fxTargetRegex = regexp.MustCompile(`^[A-Za-z]{3}$`)

// Get returns the shared validator with all custom rules registered.
func Get() *validator.Validate {
	once.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		_ = validate.RegisterValidation("fx_target", validateFxTarget)
	})
	return validate
}

// Struct validates s and converts any violation into an INVALID_REQUEST
// error naming the offending fields.
func Struct(s interface{}) error {
	if err := Get().Struct(s); err != nil {
		var fieldErrs validator.ValidationErrors
		if ok := asValidationErrors(err, &fieldErrs); ok {
			fields := make([]string, 0, len(fieldErrs))
			for _, fe := range fieldErrs {
				fields = append(fields, fmt.Sprintf("%s (%s)", fe.Field(), fe.Tag()))
			}
			return apperrors.WithMessage(apperrors.ErrInvalidRequest,
				"Request failed validation: "+strings.Join(fields, ", "))
		}
		return apperrors.Wrap(apperrors.ErrInvalidRequest, err)
	}
	return nil
}

func asValidationErrors(err error, target *validator.ValidationErrors) bool {
	ve, ok := err.(validator.ValidationErrors)
	if ok {
		*target = ve
	}
	return ok
}

// validateFxTarget accepts the wildcard currency or an ISO 4217 code.
func validateFxTarget(fl validator.FieldLevel) bool {
	v := fl.Field().String()
	return v == "" || v == "%" || fxTargetRegex.MatchString(v)
}
