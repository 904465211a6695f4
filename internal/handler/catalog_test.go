package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/idturva/subscription-portal/internal/config"
	"github.com/idturva/subscription-portal/internal/repository"
)

func doBreachCheck(t *testing.T, upstream http.HandlerFunc, email string) *httptest.ResponseRecorder {
	t.Helper()
	srv := httptest.NewServer(upstream)
	t.Cleanup(srv.Close)

	h := NewPublicHandler(config.Config{HIBPAPIKey: "test-key"}, repository.NewPackageRepo(nil))
	h.BreachAPIURL = srv.URL

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/v1/breach-check?email="+email, nil)
	rec := httptest.NewRecorder()
	if err := h.BreachCheck(e.NewContext(req, rec)); err != nil {
		t.Fatalf("BreachCheck returned error: %v", err)
	}
	return rec
}

func TestBreachCheckCleanAddress(t *testing.T) {
	var gotKey string
	rec := doBreachCheck(t, func(w http.ResponseWriter, r *http.Request) {
		gotKey = r.Header.Get("hibp-api-key")
		w.WriteHeader(http.StatusNotFound)
	}, "clean@example.fi")

	if gotKey != "test-key" {
		t.Errorf("upstream api key = %q, want server-held key", gotKey)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var resp struct {
		Breached bool `json:"breached"`
		Count    int  `json:"count"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("bad body: %v", err)
	}
	if resp.Breached || resp.Count != 0 {
		t.Errorf("clean address reported as breached: %+v", resp)
	}
}

func TestBreachCheckBreachedAddress(t *testing.T) {
	rec := doBreachCheck(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[{"Name":"Adobe"},{"Name":"LinkedIn"}]`))
	}, "victim@example.fi")

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var resp struct {
		Breached bool     `json:"breached"`
		Count    int      `json:"count"`
		Breaches []string `json:"breaches"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("bad body: %v", err)
	}
	if !resp.Breached || resp.Count != 2 || len(resp.Breaches) != 2 {
		t.Errorf("unexpected breach response: %+v", resp)
	}
}

func TestBreachCheckRequiresEmail(t *testing.T) {
	h := NewPublicHandler(config.Config{}, repository.NewPackageRepo(nil))
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/v1/breach-check?email=not-an-email", nil)
	rec := httptest.NewRecorder()
	if err := h.BreachCheck(e.NewContext(req, rec)); err != nil {
		t.Fatalf("BreachCheck returned error: %v", err)
	}
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}
