package booking

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/vetcare/vetcare/internal/domain/ledger"
	"github.com/vetcare/vetcare/internal/platform/auth"
	"github.com/vetcare/vetcare/pkg/pagination"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(g, admin *echo.Group) {
	g.POST("/appointments", h.create)
	g.GET("/appointments", h.listMine)
	g.GET("/appointments/:id", h.get)
	g.POST("/appointments/:id/cancel", h.cancel)
	g.GET("/availability", h.availability)

	admin.GET("/appointments", h.listAll)
	admin.POST("/appointments/:id/start", h.start)
	admin.POST("/appointments/:id/complete", h.complete)
}

type createRequest struct {
	DoctorID uuid.UUID `json:"doctor_id"`
	PetID    uuid.UUID `json:"pet_id"`
	Date     string    `json:"date"`
	Time     string    `json:"time"`
	Service  string    `json:"service"`
	Cost     int       `json:"cost"`
}

func (h *Handler) create(c echo.Context) error {
	userID := auth.UserIDFromContext(c.Request().Context())

	var req createRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	a, err := h.svc.Create(c.Request().Context(), userID, CreateInput{
		DoctorID: req.DoctorID, PetID: req.PetID, Date: req.Date,
		Time: req.Time, Service: req.Service, Cost: req.Cost,
	})
	if err != nil {
		switch {
		case errors.Is(err, ErrValidation):
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		case errors.Is(err, ErrNotPetOwner):
			return echo.NewHTTPError(http.StatusForbidden, "pet belongs to another user")
		case errors.Is(err, ErrSlotConflict):
			return echo.NewHTTPError(http.StatusConflict, "slot not available")
		case errors.Is(err, ErrPetBusy):
			return echo.NewHTTPError(http.StatusConflict, "pet already has an active appointment")
		case errors.Is(err, ledger.ErrInsufficientPoints):
			return echo.NewHTTPError(http.StatusUnprocessableEntity, "insufficient points")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to create appointment")
	}
	return c.JSON(http.StatusCreated, a)
}

func (h *Handler) listMine(c echo.Context) error {
	userID := auth.UserIDFromContext(c.Request().Context())
	params := pagination.FromContext(c)

	appts, total, err := h.svc.ListByUser(c.Request().Context(), userID, params.Limit, params.Offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to list appointments")
	}
	if appts == nil {
		appts = []*Appointment{}
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(appts, total, params.Limit, params.Offset))
}

func (h *Handler) listAll(c echo.Context) error {
	params := pagination.FromContext(c)

	appts, total, err := h.svc.ListAll(c.Request().Context(),
		c.QueryParam("status"), c.QueryParam("date"), params.Limit, params.Offset)
	if err != nil {
		if errors.Is(err, ErrValidation) {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to list appointments")
	}
	if appts == nil {
		appts = []*Appointment{}
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(appts, total, params.Limit, params.Offset))
}

func (h *Handler) get(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid appointment id")
	}
	ctx := c.Request().Context()

	a, err := h.svc.Get(ctx, id, auth.UserIDFromContext(ctx), auth.IsAdminFromContext(ctx))
	if err != nil {
		return appointmentError(err)
	}
	return c.JSON(http.StatusOK, a)
}

func (h *Handler) cancel(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid appointment id")
	}
	ctx := c.Request().Context()

	refunded, err := h.svc.Cancel(ctx, id, auth.UserIDFromContext(ctx), auth.IsAdminFromContext(ctx))
	if err != nil {
		return appointmentError(err)
	}
	return c.JSON(http.StatusOK, map[string]int{"refunded_points": refunded})
}

type startRequest struct {
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
}

func (h *Handler) start(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid appointment id")
	}
	var req startRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	a, err := h.svc.SetInProgress(c.Request().Context(), id, req.StartTime, req.EndTime)
	if err != nil {
		if errors.Is(err, ErrBadTimeRange) {
			return echo.NewHTTPError(http.StatusBadRequest, "start_time must precede end_time")
		}
		return appointmentError(err)
	}
	return c.JSON(http.StatusOK, a)
}

type completeRequest struct {
	Note string `json:"note"`
}

func (h *Handler) complete(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid appointment id")
	}
	var req completeRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	a, err := h.svc.Complete(c.Request().Context(), id, req.Note)
	if err != nil {
		return appointmentError(err)
	}
	return c.JSON(http.StatusOK, a)
}

func (h *Handler) availability(c echo.Context) error {
	doctorID, err := uuid.Parse(c.QueryParam("doctor_id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid doctor_id")
	}

	slots, err := h.svc.Availability(c.Request().Context(), doctorID, c.QueryParam("date"))
	if err != nil {
		if errors.Is(err, ErrValidation) {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		return echo.NewHTTPError(http.StatusServiceUnavailable, "availability is temporarily unknown")
	}
	return c.JSON(http.StatusOK, map[string]any{
		"doctor_id": doctorID,
		"date":      c.QueryParam("date"),
		"slots":     slots,
	})
}

func appointmentError(err error) error {
	switch {
	case errors.Is(err, ErrAppointmentNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "appointment not found")
	case errors.Is(err, ErrNotAppointmentOwner):
		return echo.NewHTTPError(http.StatusForbidden, "appointment belongs to another user")
	case errors.Is(err, ErrInvalidStateTransition):
		return echo.NewHTTPError(http.StatusConflict, "appointment is not in the required state")
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, "appointment operation failed")
	}
}
