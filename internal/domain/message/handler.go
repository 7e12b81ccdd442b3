package message

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/pediacare/api/internal/domain/identity"
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
	g := api.Group("", auth.RequireRole(auth.RoleParent, auth.RoleDoctor))
	g.GET("/conversations", h.ListConversations)
	g.GET("/conversations/:partner_id/messages", h.History)
	g.POST("/conversations/:partner_id/read", h.MarkRead)
	g.POST("/messages", h.SendText)
	g.POST("/messages/attachment", h.SendAttachment)
	g.POST("/messages/gif", h.SendGIF)
	g.GET("/messages/unread-count", h.UnreadCount)
}

func currentUserID(c echo.Context) (uuid.UUID, error) {
	id, err := uuid.Parse(auth.UserIDFromContext(c.Request().Context()))
	if err != nil {
		return uuid.Nil, echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
	}
	return id, nil
}

func sendErr(err error) error {
	switch {
	case errors.Is(err, identity.ErrProfileNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "recipient not found")
	case errors.Is(err, ErrSelfMessage):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	default:
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
}

func (h *Handler) SendText(c echo.Context) error {
	senderID, err := currentUserID(c)
	if err != nil {
		return err
	}
	var req SendRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	m, err := h.svc.SendText(c.Request().Context(), senderID, &req)
	if err != nil {
		return sendErr(err)
	}
	return c.JSON(http.StatusCreated, m)
}

func (h *Handler) SendAttachment(c echo.Context) error {
	senderID, err := currentUserID(c)
	if err != nil {
		return err
	}
	receiverID, err := uuid.Parse(c.FormValue("receiver_id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "receiver_id is required")
	}
	fileHeader, err := c.FormFile("file")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "file is required")
	}
	file, err := fileHeader.Open()
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	defer file.Close()

	m, err := h.svc.SendAttachment(c.Request().Context(), senderID, receiverID,
		fileHeader.Filename, fileHeader.Header.Get("Content-Type"), file)
	if err != nil {
		return sendErr(err)
	}
	return c.JSON(http.StatusCreated, m)
}

func (h *Handler) SendGIF(c echo.Context) error {
	senderID, err := currentUserID(c)
	if err != nil {
		return err
	}
	var req GIFRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	m, err := h.svc.SendGIF(c.Request().Context(), senderID, &req)
	if err != nil {
		return sendErr(err)
	}
	return c.JSON(http.StatusCreated, m)
}

func (h *Handler) ListConversations(c echo.Context) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}
	conversations, err := h.svc.ListConversations(c.Request().Context(), userID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if conversations == nil {
		conversations = []*Conversation{}
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"data": conversations})
}

func (h *Handler) History(c echo.Context) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}
	partnerID, err := uuid.Parse(c.Param("partner_id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid partner id")
	}
	pg := pagination.FromContext(c)
	messages, total, err := h.svc.History(c.Request().Context(), userID, partnerID, pg.Limit, pg.Offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(messages, total, pg.Limit, pg.Offset))
}

func (h *Handler) MarkRead(c echo.Context) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}
	partnerID, err := uuid.Parse(c.Param("partner_id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid partner id")
	}
	count, err := h.svc.MarkConversationRead(c.Request().Context(), userID, partnerID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, map[string]int{"marked_read": count})
}

func (h *Handler) UnreadCount(c echo.Context) error {
	userID, err := currentUserID(c)
	if err != nil {
		return err
	}
	count, err := h.svc.UnreadCount(c.Request().Context(), userID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, map[string]int{"unread_count": count})
}
