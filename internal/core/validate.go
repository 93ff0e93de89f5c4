package core

import (
	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	_ = v.RegisterValidation("objectid", func(fl validator.FieldLevel) bool {
		return ValidID(fl.Field().String())
	})
	return v
}

type privateMessageInput struct {
	RecipientID string `validate:"required,objectid"`
	Text        string `validate:"required"`
}

func validatePrivateMessage(cmd Command) error {
	return validate.Struct(privateMessageInput{
		RecipientID: cmd.RecipientID,
		Text:        cmd.Text,
	})
}
