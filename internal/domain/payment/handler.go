package payment

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/pediacare/api/internal/domain/appointment"
	"github.com/pediacare/api/internal/domain/child"
	"github.com/pediacare/api/internal/domain/identity"
	"github.com/pediacare/api/internal/platform/auth"
	"github.com/pediacare/api/internal/platform/paystack"
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
	parent.POST("/bookings/confirm", h.ConfirmBooking)
	parent.GET("/payments", h.ListPayments)
	parent.GET("/invoices", h.ListInvoices)
	parent.GET("/appointments/:id/invoice", h.GetInvoice)
}

func currentUserID(c echo.Context) (uuid.UUID, error) {
	id, err := uuid.Parse(auth.UserIDFromContext(c.Request().Context()))
	if err != nil {
		return uuid.Nil, echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
	}
	return id, nil
}

func (h *Handler) ConfirmBooking(c echo.Context) error {
	parentID, err := currentUserID(c)
	if err != nil {
		return err
	}
	var req appointment.BookingRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	result, err := h.svc.ConfirmBooking(c.Request().Context(), parentID, &req)
	if err != nil {
		switch {
		case errors.Is(err, child.ErrChildNotFound), errors.Is(err, child.ErrNotOwner),
			errors.Is(err, identity.ErrDoctorNotFound):
			return echo.NewHTTPError(http.StatusNotFound, err.Error())
		case errors.Is(err, paystack.ErrTransactionNotFound):
			return echo.NewHTTPError(http.StatusNotFound, "payment reference not found")
		case errors.Is(err, paystack.ErrTransactionFailed), errors.Is(err, ErrAmountMismatch):
			return echo.NewHTTPError(http.StatusPaymentRequired, err.Error())
		case errors.Is(err, appointment.ErrNotParticipant):
			return echo.NewHTTPError(http.StatusConflict, "payment reference belongs to another user")
		default:
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
	}
	return c.JSON(http.StatusCreated, result)
}

func (h *Handler) ListPayments(c echo.Context) error {
	parentID, err := currentUserID(c)
	if err != nil {
		return err
	}
	pg := pagination.FromContext(c)
	payments, total, err := h.svc.ListPayments(c.Request().Context(), parentID, pg.Limit, pg.Offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(payments, total, pg.Limit, pg.Offset))
}

func (h *Handler) ListInvoices(c echo.Context) error {
	parentID, err := currentUserID(c)
	if err != nil {
		return err
	}
	pg := pagination.FromContext(c)
	invoices, total, err := h.svc.ListInvoices(c.Request().Context(), parentID, pg.Limit, pg.Offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(invoices, total, pg.Limit, pg.Offset))
}

func (h *Handler) GetInvoice(c echo.Context) error {
	parentID, err := currentUserID(c)
	if err != nil {
		return err
	}
	appointmentID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	inv, err := h.svc.GetInvoiceForAppointment(c.Request().Context(), appointmentID, parentID)
	if err != nil {
		if errors.Is(err, ErrInvoiceNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "invoice not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, inv)
}
