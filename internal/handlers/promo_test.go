package handlers_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/andybalholm/cascadia"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"golang.org/x/net/html"

	"github.com/example/storefront-promo/internal/config"
	"github.com/example/storefront-promo/internal/handlers"
	"github.com/example/storefront-promo/internal/logger"
	"github.com/example/storefront-promo/internal/routes"
	"github.com/example/storefront-promo/internal/services"
	"github.com/example/storefront-promo/internal/utils"
	"github.com/example/storefront-promo/internal/views"
)

const (
	testCollection = "settings"
	testKey        = "specialPromo"
)

type memStore struct {
	mu   sync.Mutex
	docs map[string]map[string]any
}

func newMemStore() *memStore {
	return &memStore{docs: make(map[string]map[string]any)}
}

func (s *memStore) Probe(ctx context.Context, collection string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for path := range s.docs {
		if strings.HasPrefix(path, collection+"/") {
			n++
		}
	}
	return n, nil
}

func (s *memStore) Get(ctx context.Context, collection, key string) (map[string]any, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fields, ok := s.docs[collection+"/"+key]
	return fields, ok, nil
}

func (s *memStore) Put(ctx context.Context, collection, key string, fields map[string]any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.docs[collection+"/"+key] = fields
	return nil
}

type recordingNotifier struct {
	mu        sync.Mutex
	published []services.PromoPublished
}

func (n *recordingNotifier) NotifyPromoPublished(p services.PromoPublished) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.published = append(n.published, p)
	return nil
}

type testServer struct {
	app      *fiber.App
	registry *services.BannerRegistry
	store    *memStore
}

func newTestServer(t *testing.T, cfg *config.Config, opts ...func(*routes.Deps)) *testServer {
	t.Helper()
	logger.Log.SetOutput(io.Discard)

	renderer, err := views.NewRenderer()
	if err != nil {
		t.Fatalf("NewRenderer: %v", err)
	}

	if cfg.PromoCollection == "" {
		cfg.PromoCollection = testCollection
	}
	if cfg.PromoDocument == "" {
		cfg.PromoDocument = testKey
	}
	if cfg.PromoMaxMounts == 0 {
		cfg.PromoMaxMounts = 8
	}

	store := newMemStore()
	registry := services.NewBannerRegistry(cfg.PromoMaxMounts)
	app := fiber.New(fiber.Config{ErrorHandler: handlers.ErrorHandler})
	deps := routes.Deps{
		Config:   cfg,
		Loader:   services.NewPromoLoader(store, cfg.PromoCollection, cfg.PromoDocument, logger.Log),
		Writer:   store,
		Registry: registry,
		Renderer: renderer,
	}
	for _, opt := range opts {
		opt(&deps)
	}
	routes.Register(app, deps)
	return &testServer{app: app, registry: registry, store: store}
}

func (s *testServer) do(t *testing.T, method, path, body string, headers map[string]string) (*http.Response, string) {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp, err := s.app.Test(req, -1)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return resp, string(raw)
}

// mountBanner renders the storefront page and waits for its banner to settle.
func (s *testServer) mountBanner(t *testing.T) string {
	t.Helper()
	resp, body := s.do(t, http.MethodGet, "/", "", nil)
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("GET / status = %d", resp.StatusCode)
	}

	doc, err := html.Parse(strings.NewReader(body))
	if err != nil {
		t.Fatalf("parse page: %v", err)
	}
	n := cascadia.MustCompile("main[data-promo-mount]").MatchFirst(doc)
	if n == nil {
		t.Fatal("page has no mounted banner")
	}
	var mountID string
	for _, a := range n.Attr {
		if a.Key == "data-promo-mount" {
			mountID = a.Val
		}
	}

	id, err := uuid.Parse(mountID)
	if err != nil {
		t.Fatalf("mount id %q: %v", mountID, err)
	}
	banner, ok := s.registry.Get(id)
	if !ok {
		t.Fatal("banner not registered")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if _, err := banner.Wait(ctx); err != nil {
		t.Fatalf("Wait: %v", err)
	}
	return mountID
}

type envelope struct {
	Success bool            `json:"success"`
	Error   string          `json:"error"`
	Token   string          `json:"token"`
	Data    json.RawMessage `json:"data"`
}

func decodeEnvelope(t *testing.T, body string) envelope {
	t.Helper()
	var env envelope
	if err := json.Unmarshal([]byte(body), &env); err != nil {
		t.Fatalf("decode %q: %v", body, err)
	}
	return env
}

func TestCurrentPromoDefaultsWhenDocumentMissing(t *testing.T) {
	s := newTestServer(t, &config.Config{Environment: "production"})

	resp, body := s.do(t, http.MethodGet, "/api/promo", "", nil)
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}

	var data struct {
		State      string         `json:"state"`
		Resolution string         `json:"resolution"`
		Config     map[string]any `json:"config"`
		Gradient   string         `json:"gradient"`
		Trace      []any          `json:"trace"`
	}
	if err := json.Unmarshal(decodeEnvelope(t, body).Data, &data); err != nil {
		t.Fatalf("decode data: %v", err)
	}
	if data.State != "active" || data.Resolution != "default" {
		t.Fatalf("state/resolution = %s/%s", data.State, data.Resolution)
	}
	if data.Config["title"] != "عرض خاص لفترة محدودة!" {
		t.Errorf("title = %v", data.Config["title"])
	}
	if !strings.HasPrefix(data.Gradient, "linear-gradient(135deg") {
		t.Errorf("gradient = %q", data.Gradient)
	}
	if data.Trace != nil {
		t.Error("trace exposed in production")
	}
}

func TestBannerFragmentShowsDefaultPromotion(t *testing.T) {
	s := newTestServer(t, &config.Config{Environment: "production"})
	id := s.mountBanner(t)

	resp, body := s.do(t, http.MethodGet, "/promo/"+id, "", nil)
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
		t.Errorf("content type = %q", ct)
	}
	for _, want := range []string{`data-state="active"`, "عرض خاص لفترة محدودة!", "اطلب الآن"} {
		if !strings.Contains(body, want) {
			t.Errorf("fragment missing %q", want)
		}
	}
}

func TestClickScrollsToOffers(t *testing.T) {
	s := newTestServer(t, &config.Config{Environment: "production"})
	id := s.mountBanner(t)

	resp, body := s.do(t, http.MethodPost, "/promo/"+id+"/click", "", nil)
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("status = %d body = %s", resp.StatusCode, body)
	}

	var trigger map[string]map[string]string
	if err := json.Unmarshal([]byte(resp.Header.Get("HX-Trigger")), &trigger); err != nil {
		t.Fatalf("decode HX-Trigger: %v", err)
	}
	if trigger["promo:scroll"]["target"] != "offers" {
		t.Errorf("HX-Trigger = %v", trigger)
	}

	var data struct {
		Outcome string `json:"outcome"`
	}
	if err := json.Unmarshal(decodeEnvelope(t, body).Data, &data); err != nil {
		t.Fatalf("decode data: %v", err)
	}
	if data.Outcome != string(services.ClickScrolled) {
		t.Errorf("outcome = %q", data.Outcome)
	}
}

func TestClickInternalLinkNavigates(t *testing.T) {
	s := newTestServer(t, &config.Config{Environment: "production"})
	_ = s.store.Put(context.Background(), testCollection, testKey, map[string]any{
		"enabled":      true,
		"title":        "Weekend menu",
		"linkType":     "internal",
		"internalLink": "/menu/weekend",
	})
	id := s.mountBanner(t)

	resp, _ := s.do(t, http.MethodPost, "/promo/"+id+"/click", "", nil)
	if got := resp.Header.Get("HX-Location"); got != "/menu/weekend" {
		t.Errorf("HX-Location = %q", got)
	}
	if got := resp.Header.Get("HX-Trigger"); got != "" {
		t.Errorf("unexpected HX-Trigger %q", got)
	}
}

func TestClickExternalLinkOpensWindow(t *testing.T) {
	s := newTestServer(t, &config.Config{Environment: "production"})
	_ = s.store.Put(context.Background(), testCollection, testKey, map[string]any{
		"enabled":      true,
		"linkType":     "external",
		"externalLink": "https://example.com/deal",
	})
	id := s.mountBanner(t)

	resp, _ := s.do(t, http.MethodPost, "/promo/"+id+"/click", "", nil)
	if got := resp.Header.Get("HX-Location"); got != "" {
		t.Errorf("external link navigated in place to %q", got)
	}
	var trigger map[string]map[string]string
	if err := json.Unmarshal([]byte(resp.Header.Get("HX-Trigger")), &trigger); err != nil {
		t.Fatalf("decode HX-Trigger: %v", err)
	}
	open := trigger["promo:open"]
	if open["url"] != "https://example.com/deal" || open["features"] != services.ExternalWindowFeatures {
		t.Errorf("promo:open = %v", open)
	}
}

func TestDisabledPromotionHiddenInProduction(t *testing.T) {
	s := newTestServer(t, &config.Config{Environment: "production"})
	_ = s.store.Put(context.Background(), testCollection, testKey, map[string]any{"enabled": false})
	id := s.mountBanner(t)

	resp, body := s.do(t, http.MethodGet, "/promo/"+id, "", nil)
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if strings.TrimSpace(body) != "" {
		t.Errorf("disabled banner rendered %q", body)
	}

	resp, _ = s.do(t, http.MethodPost, "/promo/"+id+"/click", "", nil)
	if resp.StatusCode != fiber.StatusConflict {
		t.Errorf("click on disabled banner status = %d, expected 409", resp.StatusCode)
	}
}

func TestRetryRoutes(t *testing.T) {
	t.Run("production", func(t *testing.T) {
		s := newTestServer(t, &config.Config{Environment: "production"})
		id := s.mountBanner(t)

		resp, body := s.do(t, http.MethodPost, "/promo/"+id+"/retry", "", nil)
		if resp.StatusCode != fiber.StatusNotFound {
			t.Fatalf("status = %d, expected 404", resp.StatusCode)
		}
		if decodeEnvelope(t, body).Success {
			t.Error("error envelope reports success")
		}
	})

	t.Run("development", func(t *testing.T) {
		s := newTestServer(t, &config.Config{Environment: "development", PromoRetryDelay: 10 * time.Millisecond})
		_ = s.store.Put(context.Background(), testCollection, testKey, map[string]any{"enabled": false})
		id := s.mountBanner(t)

		_, body := s.do(t, http.MethodGet, "/promo/"+id, "", nil)
		if !strings.Contains(body, `data-state="disabled"`) || !strings.Contains(body, "promo-retry") {
			t.Fatalf("debug fragment missing diagnostics: %s", body)
		}

		resp, body := s.do(t, http.MethodPost, "/promo/"+id+"/retry", "", nil)
		if resp.StatusCode != fiber.StatusOK {
			t.Fatalf("status = %d", resp.StatusCode)
		}
		if !strings.Contains(body, `data-state="loading"`) {
			t.Errorf("retry did not reset to loading: %s", body)
		}
	})
}

func TestUnmountBanner(t *testing.T) {
	s := newTestServer(t, &config.Config{Environment: "production"})
	id := s.mountBanner(t)

	resp, _ := s.do(t, http.MethodDelete, "/promo/"+id, "", nil)
	if resp.StatusCode != fiber.StatusNoContent {
		t.Fatalf("status = %d, expected 204", resp.StatusCode)
	}
	resp, body := s.do(t, http.MethodGet, "/promo/"+id, "", nil)
	if resp.StatusCode != handlers.StatusStopPolling || body != "" {
		t.Errorf("fragment after unmount = %d %q, expected an empty stop-polling response", resp.StatusCode, body)
	}
	resp, _ = s.do(t, http.MethodPost, "/promo/"+id+"/click", "", nil)
	if resp.StatusCode != fiber.StatusNotFound {
		t.Errorf("click after unmount status = %d, expected 404", resp.StatusCode)
	}
	resp, _ = s.do(t, http.MethodDelete, "/promo/not-a-uuid", "", nil)
	if resp.StatusCode != fiber.StatusBadRequest {
		t.Errorf("invalid id status = %d, expected 400", resp.StatusCode)
	}
}

func TestAdminUpdatesPromotion(t *testing.T) {
	hash, err := utils.HashPassword("s3cret")
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	notifier := &recordingNotifier{}
	s := newTestServer(t, &config.Config{
		Environment:       "production",
		JWTSecret:         "test-secret",
		TokenExpires:      time.Hour,
		AdminUsername:     "admin",
		AdminPasswordHash: hash,
	}, func(d *routes.Deps) { d.Notifier = notifier })

	resp, _ := s.do(t, http.MethodPost, "/api/auth/login", `{"username":"admin","password":"wrong"}`, nil)
	if resp.StatusCode != fiber.StatusUnauthorized {
		t.Fatalf("bad login status = %d", resp.StatusCode)
	}

	resp, body := s.do(t, http.MethodPost, "/api/auth/login", `{"username":"admin","password":"s3cret"}`, nil)
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("login status = %d body = %s", resp.StatusCode, body)
	}
	token := decodeEnvelope(t, body).Token
	if token == "" {
		t.Fatal("login returned no token")
	}

	update := `{"enabled":true,"title":"Ramadan offer","backgroundColor":"#123456","linkType":"scroll","scrollTarget":"delivery"}`
	resp, _ = s.do(t, http.MethodPut, "/api/admin/promo", update, nil)
	if resp.StatusCode != fiber.StatusUnauthorized {
		t.Fatalf("unauthenticated update status = %d", resp.StatusCode)
	}

	auth := map[string]string{"Authorization": "Bearer " + token}
	resp, body = s.do(t, http.MethodPut, "/api/admin/promo", `{"linkType":"teleport"}`, auth)
	if resp.StatusCode != fiber.StatusBadRequest {
		t.Fatalf("invalid update status = %d body = %s", resp.StatusCode, body)
	}

	resp, body = s.do(t, http.MethodPut, "/api/admin/promo", update, auth)
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("update status = %d body = %s", resp.StatusCode, body)
	}

	notifier.mu.Lock()
	if len(notifier.published) != 1 {
		t.Fatalf("announcements = %d, expected 1", len(notifier.published))
	}
	published := notifier.published[0]
	notifier.mu.Unlock()
	if published.Admin != "admin" || published.Document.Title == nil || *published.Document.Title != "Ramadan offer" {
		t.Errorf("announcement = %+v", published)
	}

	_, body = s.do(t, http.MethodGet, "/api/promo", "", nil)
	var data struct {
		Resolution string         `json:"resolution"`
		Config     map[string]any `json:"config"`
	}
	if err := json.Unmarshal(decodeEnvelope(t, body).Data, &data); err != nil {
		t.Fatalf("decode data: %v", err)
	}
	if data.Config["title"] != "Ramadan offer" || data.Config["scrollTarget"] != "delivery" {
		t.Errorf("config after update = %v", data.Config)
	}
	if data.Resolution != "merged" {
		t.Errorf("resolution = %q, expected merged", data.Resolution)
	}

	resp, body = s.do(t, http.MethodGet, "/api/admin/promo/diagnostics", "", auth)
	if resp.StatusCode != fiber.StatusOK || !strings.Contains(body, "document found") {
		t.Errorf("diagnostics status = %d body = %s", resp.StatusCode, body)
	}
}

func TestAdminRoutesDisabledWithoutSecret(t *testing.T) {
	s := newTestServer(t, &config.Config{Environment: "production"})
	resp, _ := s.do(t, http.MethodPost, "/api/auth/login", `{"username":"admin","password":"x"}`, nil)
	if resp.StatusCode != fiber.StatusNotFound {
		t.Errorf("login status = %d, expected 404", resp.StatusCode)
	}
}

func TestEvictedBannerStopsPolling(t *testing.T) {
	s := newTestServer(t, &config.Config{Environment: "production", PromoMaxMounts: 1})
	first := s.mountBanner(t)
	second := s.mountBanner(t)

	resp, body := s.do(t, http.MethodGet, "/promo/"+first, "", nil)
	if resp.StatusCode != handlers.StatusStopPolling || body != "" {
		t.Errorf("evicted banner poll = %d %q, expected an empty stop-polling response", resp.StatusCode, body)
	}
	resp, body = s.do(t, http.MethodGet, "/promo/"+second, "", nil)
	if resp.StatusCode != fiber.StatusOK || !strings.Contains(body, `data-state="active"`) {
		t.Errorf("current banner poll = %d %q", resp.StatusCode, body)
	}
	resp, _ = s.do(t, http.MethodGet, "/promo/not-a-uuid", "", nil)
	if resp.StatusCode != fiber.StatusBadRequest {
		t.Errorf("invalid id status = %d, expected 400", resp.StatusCode)
	}
}

func TestPageCarriesMountIDForEveryState(t *testing.T) {
	s := newTestServer(t, &config.Config{Environment: "production"})
	_ = s.store.Put(context.Background(), testCollection, testKey, map[string]any{"enabled": false})

	id := s.mountBanner(t)
	if _, err := uuid.Parse(id); err != nil {
		t.Fatalf("mount id %q: %v", id, err)
	}
	resp, body := s.do(t, http.MethodGet, "/promo/"+id, "", nil)
	if resp.StatusCode != fiber.StatusOK || strings.TrimSpace(body) != "" {
		t.Errorf("disabled banner poll = %d %q", resp.StatusCode, body)
	}
}
