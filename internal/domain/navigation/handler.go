package navigation

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/pediacare/api/internal/platform/auth"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(public, api *echo.Group) {
	public.GET("/navigation/routes", h.ListRoutes)
	api.GET("/navigation/breadcrumbs", h.Breadcrumbs)
}

func (h *Handler) ListRoutes(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]interface{}{
		"data":              Routes(),
		"fallback_redirect": FallbackRedirect,
	})
}

func (h *Handler) Breadcrumbs(c echo.Context) error {
	path := c.QueryParam("path")
	if path == "" || path[0] != '/' {
		return echo.NewHTTPError(http.StatusBadRequest, "path query parameter must be an absolute path")
	}
	userID, err := uuid.Parse(auth.UserIDFromContext(c.Request().Context()))
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
	}
	trail := h.svc.Breadcrumbs(c.Request().Context(), path, userID)
	return c.JSON(http.StatusOK, map[string]interface{}{"data": trail})
}
