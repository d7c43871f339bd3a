package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/festportal/backend/core"
	"github.com/festportal/backend/core/event"
	"github.com/festportal/backend/core/registration"
)

type eventApi struct {
	svc *registration.Service
}

// eventView is the public description of an event, what the forms need to render it.
type eventView struct {
	event.Config
	RequiresPayment bool `json:"requires_payment"`
}

func registerEventAPI(g *echo.Group, svc *registration.Service) {
	api := eventApi{svc: svc}

	eg := g.Group("/events")
	eg.GET("", api.query)
	eg.GET("/:event", api.retrieve)
	eg.POST("/:event/quote", api.quote)
}

func (api eventApi) query(ctx echo.Context) error {
	cfgs := api.svc.Registry().All()
	views := make([]eventView, 0, len(cfgs))
	for _, cfg := range cfgs {
		views = append(views, eventView{Config: cfg, RequiresPayment: cfg.RequiresPayment()})
	}
	return ctx.JSON(http.StatusOK, views)
}

func (api eventApi) retrieve(ctx echo.Context) error {
	cfg, ok := api.svc.Registry().Lookup(core.CleanString(ctx.Param("event"), true /* lower */))
	if !ok {
		return echo.NewHTTPError(http.StatusNotFound, registration.ErrEventNotFound.Error())
	}
	return ctx.JSON(http.StatusOK, eventView{Config: cfg, RequiresPayment: cfg.RequiresPayment()})
}

func (api eventApi) quote(ctx echo.Context) error {
	var sub registration.Submission
	if err := ctx.Bind(&sub); err != nil {
		return errInvalidBody
	}
	q, err := api.svc.Quote(ctx.Param("event"), sub)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, q)
}
