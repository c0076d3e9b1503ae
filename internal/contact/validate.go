package contact

import (
	"errors"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Field names one of the three form inputs.
type Field string

const (
	FieldName    Field = "name"
	FieldEmail   Field = "email"
	FieldMessage Field = "message"
)

// AllFields lists the inputs in form order.
var AllFields = []Field{FieldName, FieldEmail, FieldMessage}

// ParseField maps a form input name onto a Field.
func ParseField(s string) (Field, bool) {
	for _, f := range AllFields {
		if string(f) == s {
			return f, true
		}
	}
	return "", false
}

// Fields are the form's current values.
type Fields struct {
	Name    string `form:"name" validate:"nonblank"`
	Email   string `form:"email" validate:"nonblank,emailpattern"`
	Message string `form:"message" validate:"nonblank"`
}

// Get returns the value of f.
func (f Fields) Get(field Field) string {
	switch field {
	case FieldName:
		return f.Name
	case FieldEmail:
		return f.Email
	case FieldMessage:
		return f.Message
	}
	return ""
}

// With returns a copy of f with field set to value.
func (f Fields) With(field Field, value string) Fields {
	switch field {
	case FieldName:
		f.Name = value
	case FieldEmail:
		f.Email = value
	case FieldMessage:
		f.Message = value
	}
	return f
}

// Errors maps each failing field to its message. Passing fields are absent.
type Errors map[Field]string

// Validation messages shown next to each input.
const (
	MsgNameRequired    = "Please enter your name."
	MsgEmailRequired   = "Please enter your email."
	MsgEmailInvalid    = "Please enter a valid email."
	MsgMessageRequired = "Please enter your message."
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

var messages = map[Field]map[string]string{
	FieldName:    {"nonblank": MsgNameRequired},
	FieldEmail:   {"nonblank": MsgEmailRequired, "emailpattern": MsgEmailInvalid},
	FieldMessage: {"nonblank": MsgMessageRequired},
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(sf reflect.StructField) string {
		return sf.Tag.Get("form")
	})
	// Registration only fails on an empty tag or nil func.
	_ = v.RegisterValidation("nonblank", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	})
	_ = v.RegisterValidation("emailpattern", func(fl validator.FieldLevel) bool {
		return emailPattern.MatchString(fl.Field().String())
	})
	return v
}

// Validate checks every field and returns the failures. It never mutates
// anything and never stops at the first failing field.
func Validate(fields Fields) Errors {
	out := Errors{}
	err := validate.Struct(fields)
	if err == nil {
		return out
	}
	var ves validator.ValidationErrors
	if !errors.As(err, &ves) {
		return out
	}
	for _, fe := range ves {
		field := Field(fe.Field())
		if _, seen := out[field]; seen {
			continue
		}
		if msg, ok := messages[field][fe.Tag()]; ok {
			out[field] = msg
		}
	}
	return out
}
