package discovery

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"fixflow/internal/pkg/apperrors"
)

type staticResolver struct {
	urls  []string
	calls int32
}

func (r *staticResolver) ResolveInstances(serviceName string) []string {
	atomic.AddInt32(&r.calls, 1)
	return r.urls
}

func newBackend(t *testing.T, healthy bool) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/health" {
			http.NotFound(w, r)
			return
		}
		if healthy {
			w.WriteHeader(http.StatusOK)
			return
		}
		w.WriteHeader(http.StatusInternalServerError)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestPickAliveReturnsFirstHealthy(t *testing.T) {
	down := newBackend(t, false)
	upB := newBackend(t, true)
	upC := newBackend(t, true)

	s := NewSelector(&staticResolver{})
	got, err := s.PickAlive(context.Background(), []string{down.URL, upB.URL, upC.URL})
	if err != nil {
		t.Fatalf("expected an alive endpoint, got error: %v", err)
	}
	if got != upB.URL {
		t.Errorf("expected earliest healthy endpoint %s, got %s", upB.URL, got)
	}
}

func TestPickAliveAllDown(t *testing.T) {
	down1 := newBackend(t, false)
	down2 := newBackend(t, false)

	s := NewSelector(&staticResolver{})
	_, err := s.PickAlive(context.Background(), []string{down1.URL, down2.URL})
	if err == nil {
		t.Fatal("expected error when all candidates are down")
	}
	if !apperrors.Is(err, apperrors.KindUnavailable) {
		t.Errorf("expected unavailable kind, got %v", apperrors.KindOf(err))
	}
}

func TestPickAliveUnreachableEndpoint(t *testing.T) {
	up := newBackend(t, true)

	s := NewSelector(&staticResolver{})
	// 第一个端点根本无人监听，应被超时/拒绝跳过
	got, err := s.PickAlive(context.Background(), []string{"http://127.0.0.1:1", up.URL})
	if err != nil {
		t.Fatalf("expected fallback to healthy endpoint, got error: %v", err)
	}
	if got != up.URL {
		t.Errorf("expected %s, got %s", up.URL, got)
	}
}

func TestPickForcesReresolutionBeforeGivingUp(t *testing.T) {
	resolver := &staticResolver{urls: nil}
	s := NewSelector(resolver)

	_, err := s.Pick(context.Background(), "orders-service")
	if err == nil {
		t.Fatal("expected unavailable error with no instances")
	}
	if !apperrors.Is(err, apperrors.KindUnavailable) {
		t.Errorf("expected unavailable kind, got %v", apperrors.KindOf(err))
	}
	// 初次解析一次 + 放弃前强制重新解析一次
	if got := atomic.LoadInt32(&resolver.calls); got != 2 {
		t.Errorf("expected 2 resolver calls (initial + forced refresh), got %d", got)
	}
}

func TestPickRecoversAfterRefresh(t *testing.T) {
	up := newBackend(t, true)
	resolver := &staticResolver{urls: []string{up.URL}}
	s := NewSelector(resolver)

	got, err := s.Pick(context.Background(), "orders-service")
	if err != nil {
		t.Fatalf("expected pick to succeed: %v", err)
	}
	if got != up.URL {
		t.Errorf("expected %s, got %s", up.URL, got)
	}

	// 第二次应命中缓存，不再触发解析
	before := atomic.LoadInt32(&resolver.calls)
	if _, err := s.Pick(context.Background(), "orders-service"); err != nil {
		t.Fatalf("cached pick failed: %v", err)
	}
	if after := atomic.LoadInt32(&resolver.calls); after != before {
		t.Errorf("expected cached endpoints to be reused, resolver calls went %d -> %d", before, after)
	}
}
