package helper

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

var (
	orderIDPattern  = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)
	amountPattern   = regexp.MustCompile(`^\d+(\.\d{1,2})?$`)
	inPhonePattern  = regexp.MustCompile(`^[6-9]\d{9}$`)
	currencyPattern = regexp.MustCompile(`^[A-Z]{3}$`)

	// MaxOrderAmount is the inclusive ceiling accepted for a single order.
	MaxOrderAmount = decimal.NewFromInt(100000)
)

// FieldError is one failing field, named by its json tag.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

// Validator returns the shared validator with the custom tags registered.
func Validator() *validator.Validate {
	validateOnce.Do(func() {
		v := validator.New(validator.WithRequiredStructEnabled())
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
			if name == "-" || name == "" {
				return f.Name
			}
			return name
		})
		_ = v.RegisterValidation("orderid", func(fl validator.FieldLevel) bool {
			return orderIDPattern.MatchString(fl.Field().String())
		})
		_ = v.RegisterValidation("amount", func(fl validator.FieldLevel) bool {
			return ValidAmount(fl.Field().String())
		})
		_ = v.RegisterValidation("inphone", func(fl validator.FieldLevel) bool {
			return inPhonePattern.MatchString(fl.Field().String())
		})
		_ = v.RegisterValidation("currency", func(fl validator.FieldLevel) bool {
			return currencyPattern.MatchString(fl.Field().String())
		})
		validate = v
	})
	return validate
}

// ValidAmount accepts "100", "99.5", "99.50"; the value must lie in (0, MaxOrderAmount].
func ValidAmount(s string) bool {
	if !amountPattern.MatchString(s) {
		return false
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return false
	}
	return d.IsPositive() && d.LessThanOrEqual(MaxOrderAmount)
}

// Validate runs every rule on v and returns all failures, nil when v is valid.
func Validate(v any) []FieldError {
	err := Validator().Struct(v)
	if err == nil {
		return nil
	}
	var ves validator.ValidationErrors
	if !errors.As(err, &ves) {
		return []FieldError{{Field: "body", Message: err.Error()}}
	}
	out := make([]FieldError, 0, len(ves))
	for _, fe := range ves {
		out = append(out, FieldError{Field: fe.Field(), Message: fieldMessage(fe)})
	}
	return out
}

func fieldMessage(fe validator.FieldError) string {
	f := fe.Field()
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", f)
	case "min":
		if fe.Kind() == reflect.Slice {
			return fmt.Sprintf("%s must contain at least %s item(s)", f, fe.Param())
		}
		return fmt.Sprintf("%s must be at least %s characters", f, fe.Param())
	case "max":
		if fe.Kind() == reflect.Slice {
			return fmt.Sprintf("%s must contain at most %s item(s)", f, fe.Param())
		}
		return fmt.Sprintf("%s must be at most %s characters", f, fe.Param())
	case "email":
		return fmt.Sprintf("%s must be a valid email address", f)
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", f, strings.ReplaceAll(fe.Param(), " ", ", "))
	case "orderid":
		return fmt.Sprintf("%s may only contain letters, digits, '_' and '-'", f)
	case "amount":
		return fmt.Sprintf("%s must be a positive amount with at most 2 decimals, not above %s", f, MaxOrderAmount.String())
	case "inphone":
		return fmt.Sprintf("%s must be a 10-digit Indian mobile number starting with 6-9", f)
	case "currency":
		return fmt.Sprintf("%s must be a 3-letter uppercase currency code", f)
	case "uuid", "uuid4":
		return fmt.Sprintf("%s must be a valid UUID", f)
	}
	return fmt.Sprintf("%s is invalid (%s)", f, fe.Tag())
}
