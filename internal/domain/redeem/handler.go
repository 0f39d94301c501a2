package redeem

import (
	"errors"
	"net/http"

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

func (h *Handler) RegisterRoutes(g, admin *echo.Group) {
	g.POST("/redeem", h.redeem)
	admin.POST("/codes", h.create)
	admin.GET("/codes", h.list)
	admin.PATCH("/codes/:id", h.setActive)
	admin.DELETE("/codes/:id", h.delete)
}

type redeemRequest struct {
	Code string `json:"code"`
}

func (h *Handler) redeem(c echo.Context) error {
	userID := auth.UserIDFromContext(c.Request().Context())

	var req redeemRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	points, err := h.svc.Redeem(c.Request().Context(), userID, req.Code)
	if err != nil {
		if errors.Is(err, ErrInvalidCode) {
			return echo.NewHTTPError(http.StatusUnprocessableEntity, "invalid redeem code")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to redeem code")
	}
	return c.JSON(http.StatusOK, map[string]int{"credited_points": points})
}

type createCodeRequest struct {
	Code    string `json:"code"`
	Points  int    `json:"points"`
	MaxUses int    `json:"max_uses"`
}

func (h *Handler) create(c echo.Context) error {
	var req createCodeRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	code, err := h.svc.Create(c.Request().Context(), CreateInput{
		Code: req.Code, Points: req.Points, MaxUses: req.MaxUses,
	})
	if err != nil {
		switch {
		case errors.Is(err, ErrBadCodeInput):
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		case errors.Is(err, ErrDuplicateCode):
			return echo.NewHTTPError(http.StatusConflict, "redeem code already exists")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to create redeem code")
	}
	return c.JSON(http.StatusCreated, code)
}

func (h *Handler) list(c echo.Context) error {
	params := pagination.FromContext(c)

	codes, total, err := h.svc.List(c.Request().Context(), params.Limit, params.Offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to list redeem codes")
	}
	if codes == nil {
		codes = []*Code{}
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(codes, total, params.Limit, params.Offset))
}

type setActiveRequest struct {
	IsActive bool `json:"is_active"`
}

func (h *Handler) setActive(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid code id")
	}
	var req setActiveRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	if err := h.svc.SetActive(c.Request().Context(), id, req.IsActive); err != nil {
		if errors.Is(err, ErrCodeNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "redeem code not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to update redeem code")
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) delete(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid code id")
	}

	if err := h.svc.Delete(c.Request().Context(), id); err != nil {
		if errors.Is(err, ErrCodeNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "redeem code not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to delete redeem code")
	}
	return c.NoContent(http.StatusNoContent)
}
