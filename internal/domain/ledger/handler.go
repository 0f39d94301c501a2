package ledger

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

// RegisterRoutes mounts user routes on g and privileged routes on admin.
func (h *Handler) RegisterRoutes(g, admin *echo.Group) {
	g.GET("/points", h.getPoints)
	admin.POST("/points/adjust", h.adjustPoints)
	admin.POST("/points/set", h.setPoints)
}

type adjustRequest struct {
	UserID uuid.UUID `json:"user_id"`
	Delta  int       `json:"delta"`
	Reason string    `json:"reason"`
}

type setRequest struct {
	UserID uuid.UUID `json:"user_id"`
	Points int       `json:"points"`
	Reason string    `json:"reason"`
}

type balanceResponse struct {
	Balance int `json:"balance"`
}

func (h *Handler) getPoints(c echo.Context) error {
	userID := auth.UserIDFromContext(c.Request().Context())
	if userID == uuid.Nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
	}
	params := pagination.FromContext(c)

	balance, err := h.svc.Balance(c.Request().Context(), userID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to read balance")
	}
	entries, total, err := h.svc.History(c.Request().Context(), userID, params.Limit, params.Offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to read history")
	}
	if entries == nil {
		entries = []*Entry{}
	}

	return c.JSON(http.StatusOK, map[string]any{
		"balance": balance,
		"history": pagination.NewResponse(entries, total, params.Limit, params.Offset),
	})
}

func (h *Handler) adjustPoints(c echo.Context) error {
	var req adjustRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.UserID == uuid.Nil {
		return echo.NewHTTPError(http.StatusBadRequest, "user_id is required")
	}

	balance, err := h.svc.Adjust(c.Request().Context(), req.UserID, req.Delta, req.Reason)
	if err != nil {
		if errors.Is(err, ErrInsufficientPoints) {
			return echo.NewHTTPError(http.StatusConflict, "insufficient points")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to adjust points")
	}
	return c.JSON(http.StatusOK, balanceResponse{Balance: balance})
}

func (h *Handler) setPoints(c echo.Context) error {
	var req setRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.UserID == uuid.Nil {
		return echo.NewHTTPError(http.StatusBadRequest, "user_id is required")
	}

	balance, err := h.svc.AdminSet(c.Request().Context(), req.UserID, req.Points, req.Reason)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to set points")
	}
	return c.JSON(http.StatusOK, balanceResponse{Balance: balance})
}
