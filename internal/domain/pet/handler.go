package pet

import (
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/vetcare/vetcare/internal/platform/auth"
	"github.com/vetcare/vetcare/pkg/pagination"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(g *echo.Group) {
	g.POST("/pets", h.create)
	g.GET("/pets", h.list)
	g.GET("/pets/:id", h.get)
	g.PUT("/pets/:id", h.update)
	g.DELETE("/pets/:id", h.delete)
	g.GET("/pets/:id/records", h.listRecords)
}

type petRequest struct {
	Name      string     `json:"name"`
	Species   string     `json:"species"`
	Breed     string     `json:"breed"`
	BirthDate *time.Time `json:"birth_date"`
}

func (h *Handler) create(c echo.Context) error {
	userID := auth.UserIDFromContext(c.Request().Context())

	var req petRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	p, err := h.svc.Create(c.Request().Context(), userID, CreateInput{
		Name: req.Name, Species: req.Species, Breed: req.Breed, BirthDate: req.BirthDate,
	})
	if err != nil {
		if errors.Is(err, ErrInvalidPet) {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to create pet")
	}
	return c.JSON(http.StatusCreated, p)
}

func (h *Handler) list(c echo.Context) error {
	userID := auth.UserIDFromContext(c.Request().Context())
	params := pagination.FromContext(c)

	pets, total, err := h.svc.ListByOwner(c.Request().Context(), userID, params.Limit, params.Offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to list pets")
	}
	if pets == nil {
		pets = []*Pet{}
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(pets, total, params.Limit, params.Offset))
}

func (h *Handler) get(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid pet id")
	}
	ctx := c.Request().Context()

	p, err := h.svc.Get(ctx, id, auth.UserIDFromContext(ctx), auth.IsAdminFromContext(ctx))
	if err != nil {
		return petError(err)
	}
	return c.JSON(http.StatusOK, p)
}

func (h *Handler) update(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid pet id")
	}
	var req petRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	ctx := c.Request().Context()

	p, err := h.svc.Update(ctx, id, auth.UserIDFromContext(ctx), auth.IsAdminFromContext(ctx), CreateInput{
		Name: req.Name, Species: req.Species, Breed: req.Breed, BirthDate: req.BirthDate,
	})
	if err != nil {
		if errors.Is(err, ErrInvalidPet) {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		return petError(err)
	}
	return c.JSON(http.StatusOK, p)
}

func (h *Handler) delete(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid pet id")
	}
	ctx := c.Request().Context()

	if err := h.svc.Delete(ctx, id, auth.UserIDFromContext(ctx), auth.IsAdminFromContext(ctx)); err != nil {
		if errors.Is(err, ErrPetInUse) {
			return echo.NewHTTPError(http.StatusConflict, "pet has appointments or records")
		}
		return petError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) listRecords(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid pet id")
	}
	params := pagination.FromContext(c)
	ctx := c.Request().Context()

	records, total, err := h.svc.ListMedicalRecords(ctx, id,
		auth.UserIDFromContext(ctx), auth.IsAdminFromContext(ctx), params.Limit, params.Offset)
	if err != nil {
		return petError(err)
	}
	if records == nil {
		records = []*MedicalRecord{}
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(records, total, params.Limit, params.Offset))
}

func petError(err error) error {
	switch {
	case errors.Is(err, ErrPetNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "pet not found")
	case errors.Is(err, ErrNotOwner):
		return echo.NewHTTPError(http.StatusForbidden, "pet belongs to another user")
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, "pet operation failed")
	}
}
