// Package handlers adapts the domain services to fiber. Every response uses
// the models.Envelope shape and domain errors map to statuses via apperr.
package handlers

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"reflect"
	"regexp"
	"strings"
	"unicode"

	"sportsmatch/internal/apperr"
	"sportsmatch/internal/models"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/valyala/fasthttp"
)

const maxImageSize = 5 * 1024 * 1024

var allowedImageExt = map[string]bool{".jpg": true, ".jpeg": true, ".png": true, ".webp": true}

var passwordChars = regexp.MustCompile(`^[A-Za-z\d!@#$%^&*(),.?":{}|<>]+$`)

const passwordSpecials = `!@#$%^&*(),.?":{}|<>`

// NewValidator returns a validator reporting json field names and knowing
// the "password" rule: upper and lower case letters plus a special character.
func NewValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})
	_ = v.RegisterValidation("password", func(fl validator.FieldLevel) bool {
		return validPassword(fl.Field().String())
	})
	return v
}

func validPassword(s string) bool {
	if !passwordChars.MatchString(s) {
		return false
	}
	var lower, upper bool
	for _, r := range s {
		lower = lower || unicode.IsLower(r)
		upper = upper || unicode.IsUpper(r)
	}
	return lower && upper && strings.ContainsAny(s, passwordSpecials)
}

func respond(c *fiber.Ctx, status int, result interface{}) error {
	return c.Status(status).JSON(models.Success(result))
}

// fail writes err as an error envelope. Internal errors are logged and
// reported without their cause.
func fail(c *fiber.Ctx, err error) error {
	e := apperr.From(err)
	status := apperr.Status(e)
	if status >= fiber.StatusInternalServerError {
		zerolog.Ctx(c.UserContext()).Error().Err(err).Str("path", c.Path()).Msg("request failed")
		e = apperr.ErrInternal
	}
	return c.Status(status).JSON(models.Failure(e.Code, e.Message))
}

// bind parses the body into dst and validates it
func bind(c *fiber.Ctx, v *validator.Validate, dst interface{}) error {
	if err := c.BodyParser(dst); err != nil {
		return apperr.ErrInvalidRequest.WithMessage("invalid request body")
	}
	return validate(v, dst)
}

func validate(v *validator.Validate, dst interface{}) error {
	if err := v.Struct(dst); err != nil {
		if verrs, ok := err.(validator.ValidationErrors); ok && len(verrs) > 0 {
			fe := verrs[0]
			return apperr.ErrInvalidRequest.WithMessage("%s failed on the '%s' rule", fe.Field(), fe.Tag())
		}
		return apperr.ErrInvalidRequest.Wrap(err)
	}
	return nil
}

// formImage reads the optional "image" file of a multipart request. Other
// content types carry no image.
func formImage(c *fiber.Ctx) (*models.Image, error) {
	if !strings.HasPrefix(c.Get(fiber.HeaderContentType), fiber.MIMEMultipartForm) {
		return nil, nil
	}
	file, err := c.FormFile("image")
	if errors.Is(err, fasthttp.ErrMissingFile) {
		return nil, nil
	}
	if err != nil {
		return nil, apperr.ErrInvalidRequest.Wrap(err)
	}

	ext := strings.ToLower(filepath.Ext(file.Filename))
	if !allowedImageExt[ext] {
		return nil, apperr.ErrInvalidRequest.WithMessage("only jpg/jpeg/png/webp images are allowed")
	}
	if file.Size > maxImageSize {
		return nil, apperr.ErrInvalidRequest.WithMessage("image too large (max 5MB)")
	}

	f, err := file.Open()
	if err != nil {
		return nil, fmt.Errorf("open upload: %w", err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}
	return &models.Image{Data: data, ContentType: file.Header.Get(fiber.HeaderContentType)}, nil
}
