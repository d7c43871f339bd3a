package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/festportal/backend/core/registration"
)

type registrationApi struct {
	svc *registration.Service
}

func registerRegistrationAPI(g *echo.Group, svc *registration.Service) {
	api := registrationApi{svc: svc}

	rg := g.Group("/register")
	rg.POST("", api.create)        // eventId in the body
	rg.POST("/:event", api.create) // eventId in the path
}

func (api registrationApi) create(ctx echo.Context) error {
	var sub registration.Submission
	if err := ctx.Bind(&sub); err != nil {
		return errInvalidBody
	}
	eventID := ctx.Param("event")
	if eventID == "" {
		eventID = sub.EventID
	}

	res, err := api.svc.Register(ctx.Request().Context(), eventID, sub)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, res)
}
