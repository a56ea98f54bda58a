package middleware

import (
	"net/http"
	"reflect"
	"strings"

	"github.com/erp/customer-risk/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// SetupValidator makes validation errors name fields after their json (or form) tag
func SetupValidator() {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return
	}
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		for _, tag := range []string{"json", "form", "uri"} {
			name, _, _ := strings.Cut(fld.Tag.Get(tag), ",")
			if name == "-" {
				return ""
			}
			if name != "" {
				return name
			}
		}
		return ""
	})
}

// FormatValidationErrors converts validator errors into the error envelope.
// Anything that is not a validator.ValidationErrors yields no details.
func FormatValidationErrors(err error, requestID string) dto.Response {
	var details []dto.ValidationDetail
	if fieldErrors, ok := err.(validator.ValidationErrors); ok {
		details = make([]dto.ValidationDetail, 0, len(fieldErrors))
		for _, fe := range fieldErrors {
			details = append(details, dto.ValidationDetail{
				Field:   fe.Field(),
				Message: validationMessage(fe),
			})
		}
	}
	return dto.NewValidationErrorResponse("Request validation failed", requestID, details)
}

// HandleValidationError writes a 400 validation error response
func HandleValidationError(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, FormatValidationErrors(err, GetRequestID(c)))
}

// dateLayoutNames renders Go reference layouts the way API clients write them
var dateLayoutNames = strings.NewReplacer("2006", "YYYY", "01", "MM", "02", "DD")

var validationMessages = map[string]func(fe validator.FieldError) string{
	"required": func(validator.FieldError) string { return "This field is required" },
	"uuid":     func(validator.FieldError) string { return "Invalid UUID format" },
	"datetime": func(fe validator.FieldError) string {
		return "Must be a date in the format " + dateLayoutNames.Replace(fe.Param())
	},
	"oneof": func(fe validator.FieldError) string {
		return "Must be one of: " + strings.Join(strings.Fields(fe.Param()), ", ")
	},
	"min": func(fe validator.FieldError) string { return "Must be at least " + fe.Param() + sizeUnit(fe) },
	"max": func(fe validator.FieldError) string { return "Must be at most " + fe.Param() + sizeUnit(fe) },
	"len": func(fe validator.FieldError) string { return "Must be exactly " + fe.Param() + sizeUnit(fe) },
	"gte": func(fe validator.FieldError) string { return "Must be greater than or equal to " + fe.Param() },
	"lte": func(fe validator.FieldError) string { return "Must be less than or equal to " + fe.Param() },
}

func validationMessage(fe validator.FieldError) string {
	if msg, ok := validationMessages[fe.Tag()]; ok {
		return msg(fe)
	}
	return "Invalid value"
}

// sizeUnit names what min/max/len count for the field's kind
func sizeUnit(fe validator.FieldError) string {
	switch fe.Kind() {
	case reflect.String:
		return " characters"
	case reflect.Slice, reflect.Array, reflect.Map:
		return " items"
	default:
		return ""
	}
}
