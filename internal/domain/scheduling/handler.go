package scheduling

import (
	"errors"
	"net/http"

	"cloud.google.com/go/civil"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/clinicops/availability/internal/domain/availability"
	"github.com/clinicops/availability/pkg/pagination"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	g := api.Group("/doctors/:doctorId")

	g.GET("/slots", h.GetSlots)
	g.GET("/available-dates", h.GetAvailableDates)
	g.GET("/calendar", h.GetCalendar)

	g.PUT("/weekly-template", h.SaveWeeklyTemplate)
	g.GET("/slot-configuration", h.GetSlotConfiguration)
	g.PUT("/slot-configuration", h.SaveSlotConfiguration)

	g.GET("/overrides", h.ListOverrides)
	g.POST("/overrides", h.CreateOverride)
	g.DELETE("/overrides/:id", h.DeleteOverride)

	g.GET("/blocks", h.ListBlocks)
	g.POST("/blocks", h.CreateBlock)
	g.DELETE("/blocks/:id", h.DeleteBlock)
}

// -- Availability Handlers --

func (h *Handler) GetSlots(c echo.Context) error {
	doctorID, err := doctorParam(c)
	if err != nil {
		return err
	}
	date, err := dateQuery(c, "date")
	if err != nil {
		return err
	}
	slots, err := h.svc.GetSlots(c.Request().Context(), doctorID, date)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"doctor_id": doctorID,
		"date":      date,
		"slots":     slots,
	})
}

func (h *Handler) GetAvailableDates(c echo.Context) error {
	doctorID, err := doctorParam(c)
	if err != nil {
		return err
	}
	from, to, err := rangeQuery(c)
	if err != nil {
		return err
	}
	dates, err := h.svc.GetAvailableDates(c.Request().Context(), doctorID, from, to)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"doctor_id": doctorID,
		"from":      from,
		"to":        to,
		"dates":     dates,
	})
}

func (h *Handler) GetCalendar(c echo.Context) error {
	doctorID, err := doctorParam(c)
	if err != nil {
		return err
	}
	from, to, err := rangeQuery(c)
	if err != nil {
		return err
	}
	days, err := h.svc.GetCalendar(c.Request().Context(), doctorID, from, to)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"doctor_id": doctorID,
		"days":      days,
	})
}

// -- Schedule Handlers --

func (h *Handler) SaveWeeklyTemplate(c echo.Context) error {
	doctorID, err := doctorParam(c)
	if err != nil {
		return err
	}
	var tpl WeeklyTemplate
	if err := c.Bind(&tpl); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := h.svc.SaveWeeklyTemplate(c.Request().Context(), doctorID, &tpl); err != nil {
		return httpError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) GetSlotConfiguration(c echo.Context) error {
	doctorID, err := doctorParam(c)
	if err != nil {
		return err
	}
	cfg, err := h.svc.GetSlotConfiguration(c.Request().Context(), doctorID)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, cfg)
}

func (h *Handler) SaveSlotConfiguration(c echo.Context) error {
	doctorID, err := doctorParam(c)
	if err != nil {
		return err
	}
	var cfg availability.SlotConfiguration
	if err := c.Bind(&cfg); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := h.svc.SaveSlotConfiguration(c.Request().Context(), doctorID, cfg); err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, cfg)
}

// -- Override Handlers --

func (h *Handler) CreateOverride(c echo.Context) error {
	doctorID, err := doctorParam(c)
	if err != nil {
		return err
	}
	var o OverrideRow
	if err := c.Bind(&o); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	o.DoctorID = doctorID
	if err := h.svc.CreateOverride(c.Request().Context(), &o); err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, o)
}

func (h *Handler) ListOverrides(c echo.Context) error {
	doctorID, err := doctorParam(c)
	if err != nil {
		return err
	}
	from, to, err := h.optionalRange(c)
	if err != nil {
		return err
	}
	items, err := h.svc.ListOverrides(c.Request().Context(), doctorID, from, to)
	if err != nil {
		return httpError(err)
	}
	return pagination.Respond(c, http.StatusOK, items)
}

func (h *Handler) DeleteOverride(c echo.Context) error {
	doctorID, err := doctorParam(c)
	if err != nil {
		return err
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	if err := h.svc.DeleteOverride(c.Request().Context(), doctorID, id); err != nil {
		return httpError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

// -- Block Handlers --

func (h *Handler) CreateBlock(c echo.Context) error {
	doctorID, err := doctorParam(c)
	if err != nil {
		return err
	}
	var b BlockRow
	if err := c.Bind(&b); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	b.DoctorID = doctorID
	if err := h.svc.CreateBlock(c.Request().Context(), &b); err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, b)
}

func (h *Handler) ListBlocks(c echo.Context) error {
	doctorID, err := doctorParam(c)
	if err != nil {
		return err
	}
	from, to, err := h.optionalRange(c)
	if err != nil {
		return err
	}
	items, err := h.svc.ListBlocks(c.Request().Context(), doctorID, from, to)
	if err != nil {
		return httpError(err)
	}
	return pagination.Respond(c, http.StatusOK, items)
}

func (h *Handler) DeleteBlock(c echo.Context) error {
	doctorID, err := doctorParam(c)
	if err != nil {
		return err
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	if err := h.svc.DeleteBlock(c.Request().Context(), doctorID, id); err != nil {
		return httpError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

// -- helpers --

func doctorParam(c echo.Context) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param("doctorId"))
	if err != nil {
		return uuid.Nil, echo.NewHTTPError(http.StatusBadRequest, "invalid doctor id")
	}
	return id, nil
}

func dateQuery(c echo.Context, name string) (civil.Date, error) {
	raw := c.QueryParam(name)
	if raw == "" {
		return civil.Date{}, echo.NewHTTPError(http.StatusBadRequest, name+" is required")
	}
	d, err := civil.ParseDate(raw)
	if err != nil {
		return civil.Date{}, echo.NewHTTPError(http.StatusBadRequest, "invalid "+name+": expected YYYY-MM-DD")
	}
	return d, nil
}

func rangeQuery(c echo.Context) (civil.Date, civil.Date, error) {
	from, err := dateQuery(c, "from")
	if err != nil {
		return civil.Date{}, civil.Date{}, err
	}
	to, err := dateQuery(c, "to")
	if err != nil {
		return civil.Date{}, civil.Date{}, err
	}
	return from, to, nil
}

// optionalRange reads from/to for list endpoints. A missing from defaults to
// today and a missing to spans the maximum range from there.
func (h *Handler) optionalRange(c echo.Context) (civil.Date, civil.Date, error) {
	from := h.svc.Today()
	if c.QueryParam("from") != "" {
		d, err := dateQuery(c, "from")
		if err != nil {
			return civil.Date{}, civil.Date{}, err
		}
		from = d
	}
	to := from.AddDays(h.svc.maxRangeDays - 1)
	if c.QueryParam("to") != "" {
		d, err := dateQuery(c, "to")
		if err != nil {
			return civil.Date{}, civil.Date{}, err
		}
		to = d
	}
	return from, to, nil
}

// httpError maps service errors onto HTTP statuses.
func httpError(err error) error {
	var cfgErr *availability.InvalidConfigurationError
	var parseErr *availability.ParseError
	switch {
	case errors.As(err, &cfgErr):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.As(err, &parseErr), errors.Is(err, ErrCorruptSchedule):
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.Is(err, ErrInvalidInput),
		errors.Is(err, ErrDateInPast),
		errors.Is(err, ErrInvalidRange),
		errors.Is(err, ErrRangeTooLong):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
}
