package testimonial

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/pediacare/api/internal/platform/auth"
	"github.com/pediacare/api/pkg/pagination"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(public, api *echo.Group) {
	public.GET("/testimonials", h.ListApproved)
	api.POST("/testimonials", h.Submit, auth.RequireRole(auth.RoleParent, auth.RoleDoctor))

	admin := api.Group("", auth.RequireRole(auth.RoleAdmin))
	admin.GET("/admin/testimonials", h.ListPending)
	admin.POST("/admin/testimonials/:id/moderate", h.Moderate)
}

func (h *Handler) ListApproved(c echo.Context) error {
	pg := pagination.FromContext(c)
	testimonials, total, average, err := h.svc.ListApproved(c.Request().Context(), pg.Limit, pg.Offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if testimonials == nil {
		testimonials = []*Testimonial{}
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"data":           testimonials,
		"total":          total,
		"average_rating": average,
	})
}

func (h *Handler) Submit(c echo.Context) error {
	userID, err := uuid.Parse(auth.UserIDFromContext(c.Request().Context()))
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
	}
	var req SubmitRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	t, err := h.svc.Submit(c.Request().Context(), userID, &req)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusCreated, t)
}

func (h *Handler) ListPending(c echo.Context) error {
	pg := pagination.FromContext(c)
	testimonials, total, err := h.svc.ListPending(c.Request().Context(), pg.Limit, pg.Offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(testimonials, total, pg.Limit, pg.Offset))
}

func (h *Handler) Moderate(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var req struct {
		Status string `json:"status"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	t, err := h.svc.Moderate(c.Request().Context(), id, req.Status)
	if err != nil {
		if errors.Is(err, ErrTestimonialNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "testimonial not found")
		}
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusOK, t)
}
