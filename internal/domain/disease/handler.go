package disease

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/pediacare/api/pkg/pagination"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterRoutes mounts catalog routes. The catalog is readable by any
// authenticated session; it carries no personal data.
func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.GET("/diseases", h.List)
	api.GET("/diseases/symptoms", h.CommonSymptoms)
	api.GET("/diseases/:id", h.Get)
}

func (h *Handler) List(c echo.Context) error {
	pg := pagination.FromContext(c)
	diseases, total, err := h.svc.List(c.Request().Context(), c.QueryParam("category"), pg.Limit, pg.Offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(diseases, total, pg.Limit, pg.Offset))
}

func (h *Handler) Get(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	d, err := h.svc.Get(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, ErrDiseaseNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "disease not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, d)
}

func (h *Handler) CommonSymptoms(c echo.Context) error {
	symptoms, err := h.svc.CommonSymptoms(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if symptoms == nil {
		symptoms = []string{}
	}
	return c.JSON(http.StatusOK, map[string][]string{"symptoms": symptoms})
}
