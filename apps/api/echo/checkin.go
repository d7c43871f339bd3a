package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/festportal/backend/core"
	"github.com/festportal/backend/core/registration"
)

type checkInApi struct {
	svc *registration.Service
}

func registerCheckInAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc *registration.Service) {
	api := checkInApi{svc: svc}

	cg := g.Group("/checkin", jwt, staffOnly)
	cg.POST("/lookup", api.lookup)
	cg.POST("/confirm", api.confirm)
}

// checkInRequest carries the scanned QR payload. The event is optional.
type checkInRequest struct {
	RegistrationID string `json:"registrationId"`
	EventID        string `json:"eventId"`
}

func (req checkInRequest) validate() error {
	if core.CleanString(req.RegistrationID) == "" {
		return core.NewFieldError("registrationId", "this field is required")
	}
	return nil
}

func (api checkInApi) lookup(ctx echo.Context) error {
	var req checkInRequest
	if err := ctx.Bind(&req); err != nil {
		return errInvalidBody
	}
	if err := req.validate(); err != nil {
		return err
	}
	reg, err := api.svc.Lookup(ctx.Request().Context(), req.EventID, req.RegistrationID)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, reg)
}

func (api checkInApi) confirm(ctx echo.Context) error {
	var req checkInRequest
	if err := ctx.Bind(&req); err != nil {
		return errInvalidBody
	}
	if err := req.validate(); err != nil {
		return err
	}
	res, err := api.svc.CheckIn(ctx.Request().Context(), req.EventID, req.RegistrationID)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, res)
}
