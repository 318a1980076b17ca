package server

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"connectrpc.com/connect"
	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	enTranslations "github.com/go-playground/validator/v10/translations/en"
	"google.golang.org/genproto/googleapis/rpc/errdetails"

	"github.com/sanhsing/beidou-edu-server/internal/lock"
	"github.com/sanhsing/beidou-edu-server/internal/review"
)

type requestValidator struct {
	validate   *validator.Validate
	translator ut.Translator
}

var loadRequestValidator = sync.OnceValues(func() (*requestValidator, error) {
	validate := validator.New(validator.WithRequiredStructEnabled())

	enLocale := en.New()
	uni := ut.New(enLocale, enLocale)
	trans, _ := uni.GetTranslator("en")
	if err := enTranslations.RegisterDefaultTranslations(validate, trans); err != nil {
		return nil, fmt.Errorf("failed to register default translations: %w", err)
	}

	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return &requestValidator{validate: validate, translator: trans}, nil
})

// validateRequest checks msg against its validate tags. Violations are reported as
// InvalidArgument with a BadRequest detail listing each field.
func validateRequest(msg any) *connect.Error {
	v, err := loadRequestValidator()
	if err != nil {
		return connect.NewError(connect.CodeInternal, fmt.Errorf("create request validator: %w", err))
	}

	err = v.validate.Struct(msg)
	if err == nil {
		return nil
	}
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return connect.NewError(connect.CodeInvalidArgument, err)
	}

	var messages []string
	var fieldViolations []*errdetails.BadRequest_FieldViolation
	for _, e := range validationErrors {
		field := fieldPath(e.Namespace())
		description := e.Translate(v.translator)
		messages = append(messages, description)
		fieldViolations = append(fieldViolations, &errdetails.BadRequest_FieldViolation{
			Field:       field,
			Description: description,
		})
	}

	connectErr := connect.NewError(connect.CodeInvalidArgument, fmt.Errorf("invalid request: %s", strings.Join(messages, ", ")))
	if detail, detailErr := connect.NewErrorDetail(&errdetails.BadRequest{
		FieldViolations: fieldViolations,
	}); detailErr == nil {
		connectErr.AddDetail(detail)
	}
	return connectErr
}

// fieldPath drops the message type from a validator namespace like "GetStatsRequest.learnerId".
func fieldPath(namespace string) string {
	if _, path, ok := strings.Cut(namespace, "."); ok {
		return path
	}
	return namespace
}

// toConnectError maps service errors onto Connect codes.
func toConnectError(err error) *connect.Error {
	var connectErr *connect.Error
	if errors.As(err, &connectErr) {
		return connectErr
	}

	code := connect.CodeInternal
	switch {
	case errors.Is(err, review.ErrInvalidInput):
		code = connect.CodeInvalidArgument
	case errors.Is(err, review.ErrRetryExhausted), errors.Is(err, review.ErrConcurrencyConflict):
		code = connect.CodeAborted
	case errors.Is(err, review.ErrStorageUnavailable), errors.Is(err, lock.ErrLockTimeout):
		code = connect.CodeUnavailable
	case errors.Is(err, review.ErrNotFound):
		code = connect.CodeNotFound
	case errors.Is(err, context.Canceled):
		code = connect.CodeCanceled
	case errors.Is(err, context.DeadlineExceeded):
		code = connect.CodeDeadlineExceeded
	}
	return connect.NewError(code, err)
}
