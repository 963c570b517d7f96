package service

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// maxPasswordBytes is bcrypt's input limit.  It counts bytes, not runes.
const maxPasswordBytes = 72

// JoinRequest is the sign-up form.  Tags name the form fields; the validate
// tags hold the shape rules checked before any store access.
type JoinRequest struct {
	Account         string `form:"account" validate:"required,min=4,max=20,alphanum"`
	Password        string `form:"password" validate:"required,min=4,max=64,bcryptlen"`
	ConfirmPassword string `form:"confirmPassword" validate:"required,eqfield=Password"`
	Username        string `form:"username" validate:"omitempty,max=30"`
	Email           string `form:"email" validate:"required,email,max=100"`
	Phone           string `form:"phone" validate:"omitempty,max=20"`
}

// validate is built once; validator caches struct metadata internally.
var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		if name := f.Tag.Get("form"); name != "" && name != "-" {
			return name
		}
		return f.Name
	})
	_ = v.RegisterValidation("bcryptlen", func(fl validator.FieldLevel) bool {
		return len(fl.Field().String()) <= maxPasswordBytes
	})
	return v
}

// Normalize trims the text fields, lower-cases the email and defaults the
// display name to the account.  Passwords are left untouched.
func (r *JoinRequest) Normalize() {
	r.Account = strings.TrimSpace(r.Account)
	r.Username = strings.TrimSpace(r.Username)
	r.Email = strings.ToLower(strings.TrimSpace(r.Email))
	r.Phone = strings.TrimSpace(r.Phone)
	if r.Username == "" {
		r.Username = r.Account
	}
}

// Validate checks the form shape.  It returns a *ValidationError listing
// every offending field, or nil.
func (r *JoinRequest) Validate() error {
	err := validate.Struct(r)
	if err == nil {
		return nil
	}
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return err
	}
	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		if _, seen := fields[fe.Field()]; !seen {
			fields[fe.Field()] = message(fe)
		}
	}
	return &ValidationError{Fields: fields}
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "required"
	case "min":
		return fmt.Sprintf("must be at least %s characters", fe.Param())
	case "max":
		return fmt.Sprintf("must be at most %s characters", fe.Param())
	case "alphanum":
		return "letters and digits only"
	case "email":
		return "must be a valid email address"
	case "bcryptlen":
		return fmt.Sprintf("must be at most %d bytes", maxPasswordBytes)
	case "eqfield":
		return "passwords do not match"
	}
	return "invalid"
}
