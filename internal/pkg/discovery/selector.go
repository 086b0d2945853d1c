// internal/pkg/discovery/selector.go
package discovery

import (
	"context"
	"net/http"
	"sync"
	"time"

	"fixflow/internal/pkg/apperrors"
	"fixflow/internal/pkg/logger"

	"golang.org/x/sync/singleflight"
)

const (
	// DefaultProbeTimeout 单次存活探测的超时
	DefaultProbeTimeout = 1 * time.Second
	// DefaultCacheTTL 端点缓存的有效期。过期后才会重新向注册中心解析，
	// 把"缓存能陈旧多久"变成一个显式参数而不是副作用。
	DefaultCacheTTL = 15 * time.Second
)

// ErrNoneAlive 表示候选列表里没有任何实例通过存活探测。
var ErrNoneAlive = apperrors.New(apperrors.KindUnavailable, "no instance passed the liveness probe")

// Resolver 是选择器对注册中心的最小依赖。
type Resolver interface {
	ResolveInstances(serviceName string) []string
}

type cacheEntry struct {
	urls      []string
	fetchedAt time.Time
}

// Selector 维护每进程的服务端点缓存，并按顺序探测出一个可用实例。
//
// 顺序探测（而不是并发扇出）让最坏延迟可预测，且总是偏向列表靠前的
// 健康实例；在实例数量不大的场景这是刻意的简单性取舍。
type Selector struct {
	resolver Resolver
	ttl      time.Duration
	probe    *http.Client

	mu    sync.RWMutex
	cache map[string]cacheEntry
	sf    singleflight.Group
}

// NewSelector 创建实例选择器。
func NewSelector(resolver Resolver) *Selector {
	return &Selector{
		resolver: resolver,
		ttl:      DefaultCacheTTL,
		probe:    &http.Client{Timeout: DefaultProbeTimeout},
		cache:    make(map[string]cacheEntry),
	}
}

// Endpoints 返回服务的端点列表，缓存过期或缺失时重新解析。
// 并发的刷新请求会被 singleflight 合并成一次注册中心调用。
func (s *Selector) Endpoints(serviceName string) []string {
	s.mu.RLock()
	entry, ok := s.cache[serviceName]
	s.mu.RUnlock()
	if ok && time.Since(entry.fetchedAt) < s.ttl {
		return entry.urls
	}
	return s.refresh(serviceName)
}

// Invalidate 显式丢弃一个服务的缓存端点。
func (s *Selector) Invalidate(serviceName string) {
	s.mu.Lock()
	delete(s.cache, serviceName)
	s.mu.Unlock()
}

func (s *Selector) refresh(serviceName string) []string {
	urls, _, _ := s.sf.Do(serviceName, func() (interface{}, error) {
		resolved := s.resolver.ResolveInstances(serviceName)
		s.mu.Lock()
		s.cache[serviceName] = cacheEntry{urls: resolved, fetchedAt: time.Now()}
		s.mu.Unlock()
		return resolved, nil
	})
	return urls.([]string)
}

// PickAlive 依次对候选端点发起 /health 探测，返回第一个应答成功的端点。
// 全部失败或超时则返回 ErrNoneAlive。
func (s *Selector) PickAlive(ctx context.Context, candidates []string) (string, error) {
	for _, base := range candidates {
		if s.isAlive(ctx, base) {
			return base, nil
		}
		logger.Ctx(ctx).Debug().Str("endpoint", base).Msg("Liveness probe failed, trying next candidate")
	}
	return "", ErrNoneAlive
}

func (s *Selector) isAlive(ctx context.Context, baseURL string) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, baseURL+"/health", nil)
	if err != nil {
		return false
	}
	resp, err := s.probe.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	return resp.StatusCode >= 200 && resp.StatusCode < 300
}

// Pick 解析并探测出一个可用端点。缓存列表探测全失败时，强制重新解析一次
// 再探测；仍然没有存活实例才上报 Unavailable。
func (s *Selector) Pick(ctx context.Context, serviceName string) (string, error) {
	endpoint, err := s.PickAlive(ctx, s.Endpoints(serviceName))
	if err == nil {
		return endpoint, nil
	}

	s.Invalidate(serviceName)
	endpoint, err = s.PickAlive(ctx, s.refresh(serviceName))
	if err == nil {
		return endpoint, nil
	}

	return "", apperrors.Newf(apperrors.KindUnavailable,
		"no live instance available for service '%s' after forced re-resolution", serviceName)
}
