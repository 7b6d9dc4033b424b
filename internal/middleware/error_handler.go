package middleware

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"qota_server/internal/apperror"
)

// errorResponse is the JSON body every failed request gets.
type errorResponse struct {
	Error string `json:"error"`
}

// CustomErrorHandler maps application errors to JSON responses. Business
// errors keep their kind-specific status and their exact message, since
// the message is part of the API contract. Anything unexpected collapses
// to an opaque 500.
func CustomErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	code := http.StatusInternalServerError
	message := "erro interno do servidor"

	if appErr, ok := apperror.As(err); ok {
		code = appErr.HTTPStatus()
		message = appErr.Message
	} else if he, ok := err.(*echo.HTTPError); ok {
		code = he.Code
		if msg, ok := he.Message.(string); ok && msg != "" {
			message = msg
		} else {
			message = http.StatusText(code)
		}
	} else if _, ok := err.(validator.ValidationErrors); ok {
		code = http.StatusBadRequest
		message = "dados da requisição inválidos"
	}

	if code >= http.StatusInternalServerError {
		c.Logger().Error(err)
	}

	if writeErr := c.JSON(code, errorResponse{Error: message}); writeErr != nil {
		c.Logger().Error(writeErr)
	}
}
