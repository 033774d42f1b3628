package validation

import (
	"errors"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/go-playground/validator/v10/non-standard/validators"
)

// FieldErrors maps a form field key to the message shown next to it.
type FieldErrors map[string]string

var (
	once     sync.Once
	validate *validator.Validate
)

func instance() *validator.Validate {
	once.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		// notblank rejects whitespace-only strings
		_ = validate.RegisterValidation("notblank", validators.NotBlank)
	})
	return validate
}

// Struct validates dst and returns one message per failing field, or nil.
// Field keys come from the `form` tag and messages are built from `label`.
func Struct(dst any) FieldErrors {
	err := instance().Struct(dst)
	if err == nil {
		return nil
	}

	out := FieldErrors{}
	var ve validator.ValidationErrors
	if errors.As(err, &ve) {
		for _, fe := range ve {
			key, label := fieldTags(dst, fe.StructField())
			if _, seen := out[key]; !seen {
				out[key] = messageForTag(label, fe.Tag(), fe.Param())
			}
		}
		return out
	}

	out["_"] = "The form data is invalid."
	return out
}

func fieldTags(dst any, structField string) (key, label string) {
	key = strings.ToLower(structField[:1]) + structField[1:]
	label = structField

	t := reflect.TypeOf(dst)
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		return key, label
	}
	f, ok := t.FieldByName(structField)
	if !ok {
		return key, label
	}
	if tag := f.Tag.Get("form"); tag != "" && tag != "-" {
		key = tag
	}
	if l := f.Tag.Get("label"); l != "" {
		label = l
	}
	return key, label
}

func messageForTag(label, tag, param string) string {
	switch tag {
	case "required", "notblank":
		return label + " is required"
	case "email":
		return "Please enter a valid email address"
	case "min":
		return label + " must be at least " + param + " characters long"
	case "max":
		return label + " must be at most " + param + " characters long"
	default:
		return label + " is invalid"
	}
}
