package http

import (
	"errors"
	"fmt"
	"reflect"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/cosmosuniversity/studentrecords/internal/entities"
)

// FieldErrors maps a form field name to the message shown beside it.
type FieldErrors map[string]string

// formFieldKey is used for binding failures that cannot be tied to a field.
const formFieldKey = "_form"

// bindStudent decodes the posted form into a Student. The returned student
// holds whatever could be decoded, so the form can be re-rendered with it.
func bindStudent(c *gin.Context) (entities.Student, FieldErrors) {
	var student entities.Student
	if err := c.ShouldBind(&student); err != nil {
		return student, fieldErrors(err, reflect.TypeOf(student))
	}
	return student, nil
}

func fieldErrors(err error, typ reflect.Type) FieldErrors {
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return FieldErrors{formFieldKey: "The form could not be read. Check that numbers are numbers."}
	}

	out := make(FieldErrors, len(validationErrors))
	for _, fe := range validationErrors {
		out[formName(typ, fe.StructField())] = fieldMessage(fe)
	}
	return out
}

// formName returns the form tag of a struct field, so errors line up with
// the input names in the templates.
func formName(typ reflect.Type, structField string) string {
	if field, ok := typ.FieldByName(structField); ok {
		if tag := field.Tag.Get("form"); tag != "" {
			return tag
		}
	}
	return structField
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "min":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("must be at least %s characters", fe.Param())
		}
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "max":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("must not exceed %s characters", fe.Param())
		}
		return fmt.Sprintf("must not exceed %s", fe.Param())
	case "excludesall":
		return "must not contain any of / \\ ? #"
	default:
		return "is invalid"
	}
}
