package accounts

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

var (
	usPhonePattern  = regexp.MustCompile(`^\+1\d{10}$`)
	usernamePattern = regexp.MustCompile(`^[A-Za-z0-9_]{3,32}$`)

	// MembershipTiers lists the accepted membership_tier values
	MembershipTiers = []string{"FREE", "PRO", "PROMAX"}
)

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

// Validator returns the process-wide validator with the account-specific
// tags registered. Field names in errors are the json names.
func Validator() *validator.Validate {
	validateOnce.Do(func() {
		v := validator.New(validator.WithRequiredStructEnabled())

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

		mustRegister(v, "usphone", func(fl validator.FieldLevel) bool {
			return usPhonePattern.MatchString(fl.Field().String())
		})
		mustRegister(v, "username", func(fl validator.FieldLevel) bool {
			return usernamePattern.MatchString(fl.Field().String())
		})
		mustRegister(v, "membership_tier", func(fl validator.FieldLevel) bool {
			return IsMembershipTier(fl.Field().String())
		})

		validate = v
	})
	return validate
}

func mustRegister(v *validator.Validate, tag string, fn validator.Func) {
	if err := v.RegisterValidation(tag, fn); err != nil {
		panic(fmt.Sprintf("failed to register validation %q: %v", tag, err))
	}
}

// IsMembershipTier reports whether tier is one of MembershipTiers
func IsMembershipTier(tier string) bool {
	for _, t := range MembershipTiers {
		if t == tier {
			return true
		}
	}
	return false
}

// ValidateStruct validates s against its `validate` tags and converts the first
// failure into a *ValidationError
func ValidateStruct(s interface{}) error {
	if err := Validator().Struct(s); err != nil {
		return translate("", err)
	}
	return nil
}

// ValidateField validates a single value against a tag expression, reporting
// failures under the given field name
func ValidateField(field string, value interface{}, tag string) error {
	if err := Validator().Var(value, tag); err != nil {
		return translate(field, err)
	}
	return nil
}

func translate(field string, err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return NewValidationErrorWithCause(field, nil, "invalid input", err)
	}

	fe := verrs[0]
	if field == "" {
		field = fe.Field()
	}
	return NewValidationError(field, fe.Value(), describe(field, fe))
}

func describe(field string, fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "email":
		return fmt.Sprintf("%s must be a valid email address", field)
	case "usphone":
		return fmt.Sprintf("%s must be a US phone number in the form +1XXXXXXXXXX", field)
	case "username":
		return fmt.Sprintf("%s must be 3-32 letters, digits or underscores", field)
	case "membership_tier":
		return fmt.Sprintf("%s must be one of %s", field, strings.Join(MembershipTiers, ", "))
	case "http_url":
		return fmt.Sprintf("%s must be an http or https URL", field)
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", field, fe.Param())
	case "uuid", "uuid4", "uuid_rfc4122", "uuid4_rfc4122":
		return fmt.Sprintf("%s must be a valid UUID", field)
	default:
		return fmt.Sprintf("%s is invalid", field)
	}
}
