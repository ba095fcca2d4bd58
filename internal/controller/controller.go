package controller

import (
	"fmt"
	"net/http"

	"github.com/alimikegami/nextrans-go/internal/dto"
	"github.com/alimikegami/nextrans-go/internal/service"
	"github.com/alimikegami/nextrans-go/pkg/errs"
	"github.com/alimikegami/nextrans-go/pkg/notification"
	"github.com/alimikegami/nextrans-go/pkg/response"
	"github.com/alimikegami/nextrans-go/pkg/utils"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
)

type Controller struct {
	service       service.PaymentService
	notifications *notification.Handler
}

func CreatePaymentController(e *echo.Group, service service.PaymentService, notifications *notification.Handler, isLoggedIn echo.MiddlewareFunc) {
	c := Controller{
		service:       service,
		notifications: notifications,
	}

	e.POST("/payments", c.CreatePayment, isLoggedIn)
	e.POST("/payments/notifications", c.PaymentNotification)
	e.GET("/payments/:order_id", c.GetPayment, isLoggedIn)
}

func (c *Controller) CreatePayment(e echo.Context) error {
	userID, _, ok := utils.ExtractTokenUser(e)
	if !ok {
		return invalidToken(e)
	}

	payload := dto.PaymentRequest{}
	err := e.Bind(&payload)
	if err != nil {
		log.Ctx(e.Request().Context()).Error().Err(err).Str("component", "CreatePayment").Msg("")
		return response.WriteErrorResponse(e, fmt.Errorf("%w: %s", errs.ErrClient, "invalid request body"), nil)
	}
	payload.UserID = userID

	resp, err := c.service.CreatePayment(e.Request().Context(), payload)
	if err != nil {
		return response.WriteErrorResponse(e, err, nil)
	}

	return response.WriteSuccessResponse(e, "payment created", resp)
}

// PaymentNotification hands the raw request to the notification handler,
// which writes its own plain-text answers.
func (c *Controller) PaymentNotification(e echo.Context) error {
	resp, err := c.notifications.Handle(e.Request())
	if err != nil {
		log.Ctx(e.Request().Context()).Error().Err(err).Str("component", "PaymentNotification").Msg("")
		return response.WriteErrorResponse(e, errs.ErrInternalServer, nil)
	}

	return resp.Write(e.Response())
}

func (c *Controller) GetPayment(e echo.Context) error {
	userID, _, ok := utils.ExtractTokenUser(e)
	if !ok {
		return invalidToken(e)
	}

	resp, err := c.service.GetPayment(e.Request().Context(), e.Param("order_id"), userID)
	if err != nil {
		return response.WriteErrorResponse(e, err, nil)
	}

	return response.WriteSuccessResponse(e, "successfully retrieved payment", resp)
}

// invalidToken answers like the JWT middleware does. errs.ErrUnauthorized is
// reserved for the gateway rejecting our server key.
func invalidToken(e echo.Context) error {
	return e.JSON(http.StatusUnauthorized, response.ErrorResponse{
		Status:  "error",
		Message: "Invalid or expired JWT",
	})
}
