package prediction

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/pediacare/api/internal/domain/child"
	"github.com/pediacare/api/internal/platform/auth"
	"github.com/pediacare/api/pkg/pagination"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	parent := api.Group("", auth.RequireRole(auth.RoleParent))
	parent.POST("/predictions", h.Start)
	parent.GET("/predictions", h.ListMine)
	parent.GET("/predictions/:id", h.Get)
	parent.GET("/children/:child_id/predictions", h.ListByChild)
	parent.POST("/predictions/:id/report-downloaded", h.MarkReportDownloaded)

	doctor := api.Group("", auth.RequireRole(auth.RoleDoctor))
	doctor.GET("/predictions/:id/review", h.GetForReview)
	doctor.POST("/predictions/:id/review", h.Review)
}

type startRequest struct {
	ChildID uuid.UUID `json:"child_id"`
	SymptomForm
}

func currentUserID(c echo.Context) (uuid.UUID, error) {
	id, err := uuid.Parse(auth.UserIDFromContext(c.Request().Context()))
	if err != nil {
		return uuid.Nil, echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
	}
	return id, nil
}

func (h *Handler) Start(c echo.Context) error {
	parentID, err := currentUserID(c)
	if err != nil {
		return err
	}
	var req startRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	p, err := h.svc.Start(c.Request().Context(), parentID, req.ChildID, &req.SymptomForm)
	if err != nil {
		switch {
		case errors.Is(err, ErrNoChildren):
			return echo.NewHTTPError(http.StatusConflict, err.Error())
		case errors.Is(err, child.ErrChildNotFound), errors.Is(err, child.ErrNotOwner):
			return echo.NewHTTPError(http.StatusNotFound, "child not found")
		case errors.Is(err, ErrEmptyCatalog):
			return echo.NewHTTPError(http.StatusServiceUnavailable, err.Error())
		default:
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
	}
	return c.JSON(http.StatusCreated, p)
}

func (h *Handler) Get(c echo.Context) error {
	parentID, err := currentUserID(c)
	if err != nil {
		return err
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	p, err := h.svc.Get(c.Request().Context(), parentID, id)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "prediction not found")
	}
	return c.JSON(http.StatusOK, p)
}

func (h *Handler) ListMine(c echo.Context) error {
	parentID, err := currentUserID(c)
	if err != nil {
		return err
	}
	pg := pagination.FromContext(c)
	predictions, total, err := h.svc.ListMine(c.Request().Context(), parentID, pg.Limit, pg.Offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(predictions, total, pg.Limit, pg.Offset))
}

func (h *Handler) ListByChild(c echo.Context) error {
	parentID, err := currentUserID(c)
	if err != nil {
		return err
	}
	childID, err := uuid.Parse(c.Param("child_id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid child id")
	}
	pg := pagination.FromContext(c)
	predictions, total, err := h.svc.ListByChild(c.Request().Context(), parentID, childID, pg.Limit, pg.Offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "child not found")
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(predictions, total, pg.Limit, pg.Offset))
}

func (h *Handler) MarkReportDownloaded(c echo.Context) error {
	parentID, err := currentUserID(c)
	if err != nil {
		return err
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	if err := h.svc.MarkReportDownloaded(c.Request().Context(), parentID, id); err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "prediction not found")
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) GetForReview(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	p, err := h.svc.GetForReview(c.Request().Context(), id)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "prediction not found")
	}
	return c.JSON(http.StatusOK, p)
}

type reviewRequest struct {
	Status string `json:"status"`
}

func (h *Handler) Review(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var req reviewRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	p, err := h.svc.Review(c.Request().Context(), id, req.Status)
	if err != nil {
		if errors.Is(err, ErrPredictionNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "prediction not found")
		}
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusOK, p)
}
