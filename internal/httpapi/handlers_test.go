package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"crm-platform/internal/activity"
	"crm-platform/internal/auth"
	"crm-platform/internal/calls"
	"crm-platform/internal/config"
	"crm-platform/internal/contacts"
	"crm-platform/internal/deals"

	"github.com/gin-gonic/gin"
)

type stubPlacer struct{}

func (stubPlacer) PlaceCall(ctx context.Context, from, to string) (string, error) {
	return "CA1", nil
}
func (stubPlacer) EndCall(ctx context.Context, sid string) error { return nil }

func newTestRouter(t *testing.T) (*gin.Engine, Handlers) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	m, err := auth.NewManager(config.AuthConfig{JWTSecret: "secret", AccessTokenTTL: time.Minute, RefreshTokenTTL: time.Hour})
	if err != nil {
		t.Fatal(err)
	}

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	actSvc := activity.NewService(activity.NewMemoryRepo())
	contactSvc := contacts.NewService(contacts.NewMemoryRepo())
	callSvc := calls.NewService(calls.NewMemoryRepo(), calls.NewMemoryNotifier(), stubPlacer{}, nil, actSvc, log)
	dealSvc := deals.NewService(deals.NewMemoryRepo(), deals.DefaultPipeline(), actSvc, log)

	h := Handlers{
		Auth:     m,
		Contacts: contactSvc,
		Deals:    dealSvc,
		Calls:    callSvc,
		Activity: actSvc,
	}

	r := gin.New()
	// Inject a fixed identity instead of a bearer token.
	r.Use(func(c *gin.Context) {
		ctx := auth.WithIdentity(c.Request.Context(), "u1", "agent")
		c.Request = c.Request.WithContext(ctx)
	})
	r.POST("/v1/contacts", h.CreateContact)
	r.GET("/v1/contacts/:id", h.GetContact)
	r.POST("/v1/calls", h.CreateCall)
	r.POST("/v1/deals", h.CreateDeal)
	r.POST("/v1/deals/:id/stage", h.MoveDeal)
	return r, h
}

func doJSON(t *testing.T, r *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatal(err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestCreateAndGetContact(t *testing.T) {
	r, _ := newTestRouter(t)

	w := doJSON(t, r, http.MethodPost, "/v1/contacts", gin.H{
		"first_name": "Dana", "last_name": "Reyes", "phone": "+15550001111",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("create: %d %s", w.Code, w.Body.String())
	}
	var created contacts.Contact
	if err := json.Unmarshal(w.Body.Bytes(), &created); err != nil {
		t.Fatal(err)
	}

	w = doJSON(t, r, http.MethodGet, "/v1/contacts/"+created.ID, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("get: %d", w.Code)
	}
}

func TestCreateContactRejectsUnreachable(t *testing.T) {
	r, _ := newTestRouter(t)
	w := doJSON(t, r, http.MethodPost, "/v1/contacts", gin.H{"first_name": "Ghost"})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}

func TestClickToCallUsesContactPhone(t *testing.T) {
	r, h := newTestRouter(t)

	ct, err := h.Contacts.Create(context.Background(), contacts.Contact{FirstName: "Dana", Phone: "+15550001111"})
	if err != nil {
		t.Fatal(err)
	}

	w := doJSON(t, r, http.MethodPost, "/v1/calls", gin.H{"contact_id": ct.ID})
	if w.Code != http.StatusCreated {
		t.Fatalf("create call: %d %s", w.Code, w.Body.String())
	}
	var created calls.Call
	if err := json.Unmarshal(w.Body.Bytes(), &created); err != nil {
		t.Fatal(err)
	}
	if created.To != "+15550001111" || created.Status != calls.CallStatusInitiated {
		t.Fatalf("unexpected call %+v", created)
	}
}

func TestMoveDealUnknownStageIs400(t *testing.T) {
	r, _ := newTestRouter(t)

	w := doJSON(t, r, http.MethodPost, "/v1/deals", gin.H{"title": "Acme", "owner_id": "u1"})
	if w.Code != http.StatusCreated {
		t.Fatalf("create deal: %d %s", w.Code, w.Body.String())
	}
	var d deals.Deal
	if err := json.Unmarshal(w.Body.Bytes(), &d); err != nil {
		t.Fatal(err)
	}

	w = doJSON(t, r, http.MethodPost, "/v1/deals/"+d.ID+"/stage", gin.H{"stage": "limbo"})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}

func TestGetMissingContactIs404(t *testing.T) {
	r, _ := newTestRouter(t)
	req := httptest.NewRequest(http.MethodGet, "/v1/contacts/nope", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
}
