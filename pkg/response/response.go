package response

import (
	"errors"
	"net/http"

	"github.com/alimikegami/nextrans-go/pkg/errs"
	"github.com/labstack/echo/v4"
)

type SuccessResponse struct {
	Status  string      `json:"status"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data"`
}

type ErrorResponse struct {
	Status  string      `json:"status"`
	Message string      `json:"message"`
	Errors  interface{} `json:"errors"`
}

func WriteSuccessResponse(c echo.Context, message string, data interface{}) error {
	resp := SuccessResponse{}
	resp.Status = "success"
	resp.Data = data
	resp.Message = message

	return c.JSON(http.StatusOK, resp)
}

// WriteErrorResponse maps err to its status code. Validation failures list
// the offending fields unless errors is given.
func WriteErrorResponse(c echo.Context, err error, errors interface{}) error {
	statusCode := errs.GetErrorStatusCode(err)
	resp := ErrorResponse{}
	resp.Status = "error"
	resp.Message = err.Error()
	resp.Errors = errors

	if resp.Errors == nil {
		if fields := validationFields(err); len(fields) > 0 {
			resp.Errors = fields
		}
	}

	if statusCode >= http.StatusInternalServerError {
		resp.Message = http.StatusText(statusCode)
	}

	return c.JSON(statusCode, resp)
}

func validationFields(err error) []errs.FieldError {
	var verr *errs.ValidationError
	if errors.As(err, &verr) {
		return verr.Fields
	}
	return nil
}
