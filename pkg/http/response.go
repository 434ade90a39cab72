package http

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
)

// DataResponse writes the standard envelope. The message is the status text.
func DataResponse(c echo.Context, statusCode int, data interface{}) error {
	return c.JSON(statusCode, APIResponse{
		Status:  statusCode,
		Message: http.StatusText(statusCode),
		Data:    data,
	})
}

func SuccessResponse(c echo.Context, data interface{}) error {
	return DataResponse(c, http.StatusOK, data)
}

func CreatedResponse(c echo.Context, data interface{}) error {
	return DataResponse(c, http.StatusCreated, data)
}

// BadRequestResponse carries validation details, usually []ValidationError.
func BadRequestResponse(c echo.Context, details interface{}) error {
	return DataResponse(c, http.StatusBadRequest, details)
}

// AppErrorResponse writes err with its own status when it is an *AppError.
// Anything else is reported as a generic 500 so internals do not leak.
func AppErrorResponse(c echo.Context, err error) error {
	var appErr *AppError
	if !errors.As(err, &appErr) {
		appErr = InternalError("something went wrong")
	}
	return DataResponse(c, appErr.Status, []*AppError{appErr})
}
