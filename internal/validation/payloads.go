package validation

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/autokatalog/autokatalog/backend/go-services/internal/models"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// Result is the outcome of validating a simple payload.
type Result[T any] struct {
	Valid  bool
	Value  T
	Errors []string
}

func result[T any](v T, errs []string) Result[T] {
	return Result[T]{Valid: len(errs) == 0, Value: v, Errors: errs}
}

type UserInput struct {
	Username string `validate:"required"`
	Role     string `validate:"required,oneof=admin editor"`
	Password string
}

// User checks an account payload. The password is only mandatory when requirePassword is set.
func User(in UserInput, requirePassword bool) Result[UserInput] {
	in.Username = strings.TrimSpace(in.Username)
	in.Role = strings.TrimSpace(in.Role)
	in.Password = strings.TrimSpace(in.Password)
	errs := structErrors(validate.Struct(in))
	if requirePassword || in.Password != "" {
		if err := validate.Var(in.Password, "min=6"); err != nil {
			errs = append(errs, "password must be at least 6 characters")
		}
	}
	return result(in, errs)
}

// RoleValue returns the role of a validated UserInput.
func (u UserInput) RoleValue() models.Role { return models.Role(u.Role) }

type BrandInput struct {
	Name string `validate:"required"`
}

func Brand(in BrandInput) Result[BrandInput] {
	in.Name = strings.TrimSpace(in.Name)
	return result(in, structErrors(validate.Struct(in)))
}

type CategoryInput struct {
	Name string `validate:"required"`
	Icon string `validate:"required"`
}

func Category(in CategoryInput) Result[models.Category] {
	in.Name = strings.TrimSpace(in.Name)
	in.Icon = strings.TrimSpace(in.Icon)
	return result(models.Category{Name: in.Name, Icon: in.Icon}, structErrors(validate.Struct(in)))
}

type CredentialsInput struct {
	Username string `validate:"required"`
	Password string `validate:"required"`
}

func Credentials(in CredentialsInput) Result[CredentialsInput] {
	in.Username = strings.TrimSpace(in.Username)
	in.Password = strings.TrimSpace(in.Password)
	if err := validate.Struct(in); err != nil {
		return result(in, []string{"username and password are required"})
	}
	return result(in, nil)
}

func structErrors(err error) []string {
	if err == nil {
		return nil
	}
	var ves validator.ValidationErrors
	if !errors.As(err, &ves) {
		return []string{err.Error()}
	}
	out := make([]string, 0, len(ves))
	for _, fe := range ves {
		out = append(out, message(fe))
	}
	return out
}

func message(fe validator.FieldError) string {
	field := strings.ToLower(fe.Field())
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, strings.ReplaceAll(fe.Param(), " ", ", "))
	case "min":
		return fmt.Sprintf("%s must be at least %s characters", field, fe.Param())
	}
	return fmt.Sprintf("%s is invalid", field)
}
