package identity

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/pediacare/api/internal/platform/auth"
)

func newTestHandler(t *testing.T) (*Handler, *Service) {
	t.Helper()
	svc, _, _, _ := newTestService()
	return NewHandler(svc), svc
}

func jsonRequest(method, target, body string) (*http.Request, *httptest.ResponseRecorder) {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	return req, httptest.NewRecorder()
}

func authedContext(e *echo.Echo, req *http.Request, rec *httptest.ResponseRecorder, userID string) echo.Context {
	ctx := context.WithValue(req.Context(), auth.UserIDKey, userID)
	c := e.NewContext(req.WithContext(ctx), rec)
	return c
}

func TestHandler_SignUp(t *testing.T) {
	h, _ := newTestHandler(t)
	e := echo.New()

	body := `{"first_name":"Amina","last_name":"Nkolo","email":"amina@example.com",
		"password":"Str0ngPass","confirm_password":"Str0ngPass","role":"parent"}`
	req, rec := jsonRequest(http.MethodPost, "/auth/signup", body)
	if err := h.SignUp(e.NewContext(req, rec)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Errorf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	// Same email again conflicts.
	req, rec = jsonRequest(http.MethodPost, "/auth/signup", body)
	err := h.SignUp(e.NewContext(req, rec))
	var httpErr *echo.HTTPError
	if err == nil {
		t.Fatal("expected conflict error")
	}
	if ok := errorAs(err, &httpErr); !ok || httpErr.Code != http.StatusConflict {
		t.Errorf("expected 409, got %v", err)
	}
}

func TestHandler_SignIn_BadCredentials(t *testing.T) {
	h, _ := newTestHandler(t)
	e := echo.New()

	req, rec := jsonRequest(http.MethodPost, "/auth/signin",
		`{"email":"ghost@example.com","password":"Whatever1"}`)
	err := h.SignIn(e.NewContext(req, rec))
	var httpErr *echo.HTTPError
	if !errorAs(err, &httpErr) || httpErr.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %v", err)
	}
}

func TestHandler_GetMe(t *testing.T) {
	h, svc := newTestHandler(t)
	e := echo.New()

	session, err := svc.SignUp(context.Background(), validSignUp())
	if err != nil {
		t.Fatalf("signup: %v", err)
	}

	req, rec := jsonRequest(http.MethodGet, "/me", "")
	c := authedContext(e, req, rec, session.User.ID.String())
	if err := h.GetMe(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "amina@example.com") {
		t.Error("expected profile in response")
	}

	// No session on context.
	req, rec = jsonRequest(http.MethodGet, "/me", "")
	err = h.GetMe(e.NewContext(req, rec))
	var httpErr *echo.HTTPError
	if !errorAs(err, &httpErr) || httpErr.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 without a session, got %v", err)
	}
}

func TestHandler_ListDoctors(t *testing.T) {
	h, svc := newTestHandler(t)
	e := echo.New()

	req := validSignUp()
	req.Role = auth.RoleDoctor
	session, err := svc.SignUp(context.Background(), req)
	if err != nil {
		t.Fatalf("signup: %v", err)
	}
	available := true
	spec := "Pédiatrie"
	if _, err := svc.UpdateDoctorProfile(context.Background(), session.User.ID, &DoctorProfileUpdate{
		IsAvailable:    &available,
		Specialization: &spec,
	}); err != nil {
		t.Fatalf("update doctor: %v", err)
	}

	httpReq, rec := jsonRequest(http.MethodGet, "/doctors", "")
	if err := h.ListDoctors(e.NewContext(httpReq, rec)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "Pédiatrie") {
		t.Error("expected available doctor in the directory")
	}
}

func errorAs(err error, target **echo.HTTPError) bool {
	he, ok := err.(*echo.HTTPError)
	if ok {
		*target = he
	}
	return ok
}
