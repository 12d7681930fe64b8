package validators

import (
	"errors"
	"net/http"
	"reflect"
	"regexp"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

var (
	validate *validator.Validate

	nickPattern = regexp.MustCompile(`^[a-zA-Z0-9_]+$`)
	codePattern = regexp.MustCompile(`^[0-9]{6}$`)
)

func init() {
	validate = validator.New(validator.WithRequiredStructEnabled())
	validate.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	_ = validate.RegisterValidation("nick", func(fl validator.FieldLevel) bool {
		return nickPattern.MatchString(fl.Field().String())
	})
	_ = validate.RegisterValidation("mfacode", func(fl validator.FieldLevel) bool {
		return codePattern.MatchString(fl.Field().String())
	})
}

type ValidationError struct {
	Field string `json:"field"`
	Tag   string `json:"tag"`
	Value string `json:"value,omitempty"`
}

func Validate(data interface{}) []ValidationError {
	var validationErrors []ValidationError

	err := validate.Struct(data)
	var errs validator.ValidationErrors
	if errors.As(err, &errs) {
		for _, e := range errs {
			validationErrors = append(validationErrors, ValidationError{
				Field: e.Field(),
				Tag:   e.Tag(),
				Value: e.Param(),
			})
		}
	}

	return validationErrors
}

type RegisterRequest struct {
	Email           string `json:"email" validate:"required,email,max=254"`
	Nick            string `json:"nick" validate:"required,min=3,max=50,nick"`
	Password        string `json:"password" validate:"required,min=8,max=128"`
	PasswordConfirm string `json:"password_confirm" validate:"required,eqfield=Password"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type MFARequest struct {
	Code string `json:"code" validate:"required,mfacode"`
}

type EmailRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type ResetPasswordRequest struct {
	Password        string `json:"password" validate:"required,min=8,max=128"`
	PasswordConfirm string `json:"password_confirm" validate:"required,eqfield=Password"`
}

// bind decodes the JSON body into T and validates it. On failure it writes
// a 400 response and returns false.
func bind[T any](c *gin.Context) (*T, bool) {
	var req T
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"status":  http.StatusBadRequest,
			"message": "Invalid request payload",
			"error":   "malformed JSON body",
		})
		return nil, false
	}

	if errs := Validate(req); len(errs) > 0 {
		c.JSON(http.StatusBadRequest, gin.H{
			"status":  http.StatusBadRequest,
			"message": "Validation failed",
			"error":   errs,
		})
		return nil, false
	}

	return &req, true
}

func ValidateRegisterRequest(c *gin.Context) (*RegisterRequest, bool) {
	return bind[RegisterRequest](c)
}

func ValidateLoginRequest(c *gin.Context) (*LoginRequest, bool) {
	return bind[LoginRequest](c)
}

func ValidateMFARequest(c *gin.Context) (*MFARequest, bool) {
	return bind[MFARequest](c)
}

func ValidateEmailRequest(c *gin.Context) (*EmailRequest, bool) {
	return bind[EmailRequest](c)
}

func ValidateResetPasswordRequest(c *gin.Context) (*ResetPasswordRequest, bool) {
	return bind[ResetPasswordRequest](c)
}
