package child

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/pediacare/api/internal/platform/auth"
	"github.com/pediacare/api/internal/platform/blobstore"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	g := api.Group("", auth.RequireRole(auth.RoleParent))
	g.POST("/children", h.Create)
	g.GET("/children", h.ListMine)
	g.GET("/children/:id", h.Get)
	g.PUT("/children/:id", h.Update)
	g.DELETE("/children/:id", h.Delete)
	g.POST("/children/:id/photo", h.SetPhoto)
	g.POST("/children/:id/growth", h.AddGrowthMeasurement)
}

func parentID(c echo.Context) (uuid.UUID, error) {
	uid := auth.UserIDFromContext(c.Request().Context())
	id, err := uuid.Parse(uid)
	if err != nil {
		return uuid.Nil, echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
	}
	return id, nil
}

func childErr(err error) error {
	switch {
	case errors.Is(err, ErrChildNotFound), errors.Is(err, ErrNotOwner):
		// Not-owner reads as not-found so child ids cannot be probed.
		return echo.NewHTTPError(http.StatusNotFound, "child not found")
	default:
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
}

func (h *Handler) Create(c echo.Context) error {
	pid, err := parentID(c)
	if err != nil {
		return err
	}
	var ch Child
	if err := c.Bind(&ch); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := h.svc.Create(c.Request().Context(), pid, &ch); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusCreated, ch)
}

func (h *Handler) ListMine(c echo.Context) error {
	pid, err := parentID(c)
	if err != nil {
		return err
	}
	children, err := h.svc.ListMine(c.Request().Context(), pid)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if children == nil {
		children = []*Child{}
	}
	return c.JSON(http.StatusOK, children)
}

func (h *Handler) Get(c echo.Context) error {
	pid, err := parentID(c)
	if err != nil {
		return err
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	ch, err := h.svc.Get(c.Request().Context(), id, pid)
	if err != nil {
		return childErr(err)
	}
	return c.JSON(http.StatusOK, ch)
}

func (h *Handler) Update(c echo.Context) error {
	pid, err := parentID(c)
	if err != nil {
		return err
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var upd Child
	if err := c.Bind(&upd); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	ch, err := h.svc.Update(c.Request().Context(), id, pid, &upd)
	if err != nil {
		return childErr(err)
	}
	return c.JSON(http.StatusOK, ch)
}

func (h *Handler) Delete(c echo.Context) error {
	pid, err := parentID(c)
	if err != nil {
		return err
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	if err := h.svc.Delete(c.Request().Context(), id, pid); err != nil {
		return childErr(err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) SetPhoto(c echo.Context) error {
	pid, err := parentID(c)
	if err != nil {
		return err
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	file, err := c.FormFile("photo")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "photo file is required")
	}
	src, err := file.Open()
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to open uploaded file")
	}
	defer src.Close()

	ch, err := h.svc.SetPhoto(c.Request().Context(), id, pid, file.Filename, file.Header.Get("Content-Type"), src)
	if err != nil {
		switch {
		case errors.Is(err, blobstore.ErrFileTooLarge):
			return echo.NewHTTPError(http.StatusRequestEntityTooLarge, err.Error())
		case errors.Is(err, blobstore.ErrInvalidContentType):
			return echo.NewHTTPError(http.StatusUnsupportedMediaType, err.Error())
		default:
			return childErr(err)
		}
	}
	return c.JSON(http.StatusOK, ch)
}

func (h *Handler) AddGrowthMeasurement(c echo.Context) error {
	pid, err := parentID(c)
	if err != nil {
		return err
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var m GrowthMeasurement
	if err := c.Bind(&m); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	ch, err := h.svc.AddGrowthMeasurement(c.Request().Context(), id, pid, &m)
	if err != nil {
		return childErr(err)
	}
	return c.JSON(http.StatusOK, ch)
}
