package auth

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// フォーム項目名
const (
	FieldUsername        = "username"
	FieldEmail           = "email"
	FieldPassword        = "password"
	FieldConfirmPassword = "confirm_password"
)

// RegistrationInput は登録フォームの入力です。
type RegistrationInput struct {
	Username        string `form:"username" validate:"required,min=2,max=20"`
	Email           string `form:"email" validate:"required,email"`
	Password        string `form:"password" validate:"required"`
	ConfirmPassword string `form:"confirm_password" validate:"required,eqfield=Password"`
}

// LoginInput はログインフォームの入力です。
type LoginInput struct {
	Email    string `form:"email" validate:"required,email"`
	Password string `form:"password" validate:"required"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("form"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// validateStruct は構造体タグに従って入力を検証し、項目ごとのメッセージを返します。
func validateStruct(in any) *ValidationError {
	err := validate.Struct(in)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return &ValidationError{Fields: []FieldError{{Field: "form", Message: "Invalid submission."}}}
	}
	verr := &ValidationError{}
	for _, fe := range fieldErrs {
		verr.Add(fe.Field(), messageFor(fe))
	}
	return verr
}

func messageFor(fe validator.FieldError) string {
	switch fe.Field() {
	case FieldUsername:
		if fe.Tag() == "required" {
			return "Username is required."
		}
		return "Username must be between 2 and 20 characters."
	case FieldEmail:
		if fe.Tag() == "required" {
			return "Email is required."
		}
		return "Invalid email address."
	case FieldPassword:
		return "Password is required."
	case FieldConfirmPassword:
		if fe.Tag() == "required" {
			return "Please confirm your password."
		}
		return "Passwords must match."
	default:
		return "This field is invalid."
	}
}
