package utils

import (
	"encoding/json"
	"fmt"
	"net/http"
	"regexp"
	"unicode"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

// ValidationErrorDetail represents the structure of a single validation error.
type ValidationErrorDetail struct {
	Field    string      `json:"field"`
	Message  string      `json:"message"`
	Expected string      `json:"expected"`
	Received interface{} `json:"received"`
}

// BindAndValidate binds the request body to the given object and validates it.
// If validation fails, it sends a formatted error response and returns false.
func BindAndValidate(c *gin.Context, obj interface{}) bool {
	if err := c.ShouldBindJSON(obj); err != nil {
		var validationErrors []ValidationErrorDetail

		if errs, ok := err.(validator.ValidationErrors); ok {
			for _, e := range errs {
				detail := ValidationErrorDetail{
					Field:    e.Field(),
					Message:  fmt.Sprintf("Field validation for '%s' failed on the '%s' tag", e.Field(), e.Tag()),
					Expected: e.Param(),
					Received: e.Value(),
				}

				if detail.Expected == "" {
					detail.Expected = e.Tag()
				}

				switch e.Tag() {
				case "required":
					detail.Message = fmt.Sprintf("Field '%s' is required", e.Field())
					detail.Expected = "not null"
				case "email":
					detail.Message = fmt.Sprintf("Field '%s' must be a valid email address", e.Field())
					detail.Expected = "email format"
				case "min":
					detail.Message = fmt.Sprintf("Field '%s' must be at least %s", e.Field(), e.Param())
				case "max":
					detail.Message = fmt.Sprintf("Field '%s' must be at most %s", e.Field(), e.Param())
				}

				validationErrors = append(validationErrors, detail)
			}
		} else if jsonErr, ok := err.(*json.UnmarshalTypeError); ok {
			validationErrors = append(validationErrors, ValidationErrorDetail{
				Field:    jsonErr.Field,
				Message:  fmt.Sprintf("Field '%s' has invalid type", jsonErr.Field),
				Expected: jsonErr.Type.String(),
				Received: jsonErr.Value,
			})
		} else {
			validationErrors = append(validationErrors, ValidationErrorDetail{
				Field:    "body",
				Message:  "Malformed JSON or invalid request body",
				Expected: "valid JSON",
				Received: "invalid",
			})
		}

		c.JSON(http.StatusBadRequest, Response{
			Status:  http.StatusBadRequest,
			Message: "Invalid request parameters",
			Data:    gin.H{"errors": validationErrors},
		})
		return false
	}
	return true
}

var utoridPattern = regexp.MustCompile(`^[a-zA-Z0-9]{7,8}$`)

// ValidUTORid reports whether s is a well-formed 7-8 character alphanumeric utorid.
func ValidUTORid(s string) bool {
	return utoridPattern.MatchString(s)
}

var institutionalEmailPattern = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@mail\.utoronto\.ca$`)

// ValidInstitutionalEmail reports whether s is an address in the campus domain.
func ValidInstitutionalEmail(s string) bool {
	return institutionalEmailPattern.MatchString(s)
}

var birthdayPattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// ValidBirthday reports whether s is a YYYY-MM-DD date string.
func ValidBirthday(s string) bool {
	return birthdayPattern.MatchString(s)
}

// ValidPassword enforces the password policy: 8-20 characters with at least
// one uppercase letter, one lowercase letter, one digit and one special
// character.
func ValidPassword(s string) bool {
	if len(s) < 8 || len(s) > 20 {
		return false
	}
	var upper, lower, digit, special bool
	for _, r := range s {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsDigit(r):
			digit = true
		default:
			special = true
		}
	}
	return upper && lower && digit && special
}
