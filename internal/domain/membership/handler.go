package membership

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/vetcare/vetcare/internal/platform/auth"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(g, admin *echo.Group) {
	g.GET("/tier", h.getTier)
	g.GET("/levels", h.listLevels)
	admin.PUT("/levels", h.replaceLevels)
}

func (h *Handler) getTier(c echo.Context) error {
	userID := auth.UserIDFromContext(c.Request().Context())

	tier, err := h.svc.Tier(c.Request().Context(), userID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to compute tier")
	}
	return c.JSON(http.StatusOK, tier)
}

func (h *Handler) listLevels(c echo.Context) error {
	levels, err := h.svc.ListLevels(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to list levels")
	}
	if levels == nil {
		levels = []*MemberLevel{}
	}
	return c.JSON(http.StatusOK, levels)
}

type levelRequest struct {
	Order     int    `json:"order"`
	Name      string `json:"name"`
	MinPoints int    `json:"min_points"`
	MaxPoints *int   `json:"max_points"`
}

func (h *Handler) replaceLevels(c echo.Context) error {
	var reqs []levelRequest
	if err := c.Bind(&reqs); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	levels := make([]*MemberLevel, 0, len(reqs))
	for _, r := range reqs {
		levels = append(levels, &MemberLevel{
			Order: r.Order, Name: r.Name, MinPoints: r.MinPoints, MaxPoints: r.MaxPoints,
		})
	}

	if err := h.svc.ReplaceLevels(c.Request().Context(), levels); err != nil {
		if errors.Is(err, ErrInvalidLadder) {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to replace levels")
	}
	return c.JSON(http.StatusOK, levels)
}
