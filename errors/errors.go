package errors

import (
	"SOCIAL_server/global"
	"SOCIAL_server/schemas"
	Errors "errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

// Domain failures, matched with errors.Is
var (
	ErrNotFound        = Errors.New("not found")
	ErrAlreadyExists   = Errors.New("already exists")
	ErrSelfRequest     = Errors.New("self request")
	ErrInvalidInput    = Errors.New("invalid input")
	ErrIndexOutOfRange = Errors.New("index out of range")
	ErrUnauthorized    = Errors.New("unauthorized")
	ErrForbidden       = Errors.New("forbidden")
	ErrInternal        = Errors.New("internal")
)

// StepError reports which step of a multi-document operation failed.
// Steps completed before it are not rolled back.
type StepError struct {
	Op   string
	Step string
	Err  error
}

func (e *StepError) Error() string {
	return e.Op + ": step " + e.Step + ": " + e.Err.Error()
}

func (e *StepError) Unwrap() error {
	return e.Err
}

// Step wraps err as a StepError, nil stays nil
func Step(op, step string, err error) error {
	if err == nil {
		return nil
	}
	return &StepError{Op: op, Step: step, Err: err}
}

// Wrap annotates a taxonomy error with a description
func Wrap(kind error, format string, args ...interface{}) error {
	return fmt.Errorf("%w: "+format, append([]interface{}{kind}, args...)...)
}

// Is reports whether any error in err's chain matches target
func Is(err, target error) bool {
	return Errors.Is(err, target)
}

// As finds the first error in err's chain that matches target
func As(err error, target interface{}) bool {
	return Errors.As(err, target)
}

// HandleFatalError handles global error
func HandleFatalError(err error) {
	if err != nil {
		global.Logger.Fatalln(err)
	}
}

// HandleBasicError handles basic error and logs
func HandleBasicError(err error) bool {
	if err != nil {
		global.InternalLogger.Errorln(err)
		return true
	}
	return false
}

// HandleInternalError handles internal errors (things that should never happen in normal circumstances)
func HandleInternalError(c *fiber.Ctx, problem string, err string) error {
	global.InternalLogger.WithFields(logrus.Fields{
		"ip":      c.IP(),
		"problem": problem,
	}).Error(err)
	return c.Status(fiber.StatusInternalServerError).JSON(schemas.ErrorResponse{
		Error: true,
	})
}

// HandleBadRequestError handles bad request errors (client error that is harmless to server and state)
func HandleBadRequestError(c *fiber.Ctx, problem string, description string) error {
	return handleClientError(c, fiber.StatusBadRequest, problem, description)
}

// HandleUnauthorizedError handles missing or invalid credentials
func HandleUnauthorizedError(c *fiber.Ctx) error {
	return handleClientError(c, fiber.StatusUnauthorized, "Authorization", "invalid")
}

func handleClientError(c *fiber.Ctx, status int, problem string, description string) error {
	global.MonitorLogger.WithFields(logrus.Fields{
		"status":  status,
		"problem": problem,
	}).Warn(description)
	return c.Status(status).JSON(schemas.ErrorResponse{
		Error:       true,
		Problem:     problem,
		Description: description,
	})
}

// HandleServiceError maps a domain error to its status
func HandleServiceError(c *fiber.Ctx, problem string, err error) error {
	var step *StepError
	if Errors.As(err, &step) {
		problem = problem + ":" + step.Step
	}
	switch {
	case Errors.Is(err, ErrNotFound):
		return handleClientError(c, fiber.StatusNotFound, problem, err.Error())
	case Errors.Is(err, ErrAlreadyExists):
		return handleClientError(c, fiber.StatusConflict, problem, err.Error())
	case Errors.Is(err, ErrSelfRequest), Errors.Is(err, ErrInvalidInput), Errors.Is(err, ErrIndexOutOfRange):
		return handleClientError(c, fiber.StatusBadRequest, problem, err.Error())
	case Errors.Is(err, ErrUnauthorized):
		return handleClientError(c, fiber.StatusUnauthorized, problem, err.Error())
	case Errors.Is(err, ErrForbidden):
		return handleClientError(c, fiber.StatusForbidden, problem, err.Error())
	}
	return HandleInternalError(c, problem, err.Error())
}

// HandleValidatorError handles errors when validating request
func HandleValidatorError(c *fiber.Ctx, err error) error {
	var validatorErrs validator.ValidationErrors
	if !Errors.As(err, &validatorErrs) || len(validatorErrs) == 0 {
		return HandleBadRequestError(c, "Body", "invalid")
	}
	return HandleBadRequestError(c, validatorErrs[0].StructField(), validatorErrs[0].Tag())
}

// HandleBadJsonError handles json request parser errors
func HandleBadJsonError(c *fiber.Ctx) error {
	return HandleBadRequestError(c, "JSON body", "invalid")
}
