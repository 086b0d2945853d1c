package gateway

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"fixflow/internal/pkg/constants"
	"fixflow/internal/pkg/discovery"
)

type staticResolver struct {
	urls map[string][]string
}

func (r *staticResolver) ResolveInstances(serviceName string) []string {
	return r.urls[serviceName]
}

// newBackend 起一个带 /health 的后端，把收到的业务请求回显出来。
func newBackend(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" {
			w.WriteHeader(http.StatusOK)
			return
		}
		body, _ := io.ReadAll(r.Body)
		w.Header().Set("X-Backend", "echo")
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(r.Method + " " + r.URL.RequestURI() + " " + string(body)))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newRouter(resolver *staticResolver) *Router {
	return NewRouter(discovery.NewSelector(resolver), nil)
}

func TestForwardStripsPrefixAndRelaysResponse(t *testing.T) {
	backend := newBackend(t)
	router := newRouter(&staticResolver{urls: map[string][]string{
		constants.OrdersService: {backend.URL},
	}})

	req := httptest.NewRequest(http.MethodPost, "/api/orders/orders?user_id=u1", strings.NewReader(`{"x":1}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	if got := rec.Body.String(); got != `POST /orders?user_id=u1 {"x":1}` {
		t.Errorf("forwarded request mismatch: %q", got)
	}
	if rec.Header().Get("X-Backend") != "echo" {
		t.Error("expected backend headers to be relayed")
	}
}

func TestForwardStripsHopByHopHeaders(t *testing.T) {
	var received http.Header
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		received = r.Header.Clone()
		w.Header().Set("Keep-Alive", "timeout=5")
		w.Header().Set("X-Backend", "echo")
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(srv.Close)

	router := newRouter(&staticResolver{urls: map[string][]string{
		constants.OrdersService: {srv.URL},
	}})

	req := httptest.NewRequest(http.MethodGet, "/api/orders/orders", nil)
	req.Header.Set("X-Keep", "yes")
	req.Header.Set("Keep-Alive", "timeout=5")
	req.Header.Set("Proxy-Connection", "keep-alive")
	req.Header.Set("Connection", "X-Drop")
	req.Header.Set("X-Drop", "1")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	if received.Get("X-Keep") != "yes" {
		t.Error("end-to-end header must be relayed to the backend")
	}
	for _, h := range []string{"Keep-Alive", "Proxy-Connection", "X-Drop"} {
		if received.Get(h) != "" {
			t.Errorf("hop-by-hop header %s leaked to the backend", h)
		}
	}
	if rec.Header().Get("X-Backend") != "echo" {
		t.Error("end-to-end response header must be relayed to the client")
	}
	if rec.Header().Get("Keep-Alive") != "" {
		t.Error("hop-by-hop response header leaked to the client")
	}
}

func TestUnknownPrefixIs404(t *testing.T) {
	router := newRouter(&staticResolver{})
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/unknown/thing", nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestNoLiveInstanceIs503(t *testing.T) {
	router := newRouter(&staticResolver{urls: map[string][]string{
		constants.RepairService: nil,
	}})
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/repairs/repairs", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", rec.Code)
	}
}

func TestDeadBackendIs503AfterProbe(t *testing.T) {
	// 实例注册在案但探活失败：强制重新解析后仍不可用 → 503
	router := newRouter(&staticResolver{urls: map[string][]string{
		constants.InventoryService: {"http://127.0.0.1:1"},
	}})
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/inventory/parts", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", rec.Code)
	}
}

func TestMatchLongestPrefixWins(t *testing.T) {
	router := NewRouter(discovery.NewSelector(&staticResolver{}), map[string]string{
		"/api/orders":       "short",
		"/api/orders/batch": "long",
	})
	service, rest, ok := router.match("/api/orders/batch/42")
	if !ok || service != "long" || rest != "/42" {
		t.Errorf("match = (%s, %s, %v)", service, rest, ok)
	}
	service, rest, ok = router.match("/api/orders/42")
	if !ok || service != "short" || rest != "/42" {
		t.Errorf("match = (%s, %s, %v)", service, rest, ok)
	}
	if _, _, ok := router.match("/api/ordersextra"); ok {
		t.Error("prefix must match on path segment boundary")
	}
}
