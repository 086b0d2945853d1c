// internal/gateway/router.go
package gateway

import (
	"context"
	"io"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"fixflow/internal/pkg/apperrors"
	"fixflow/internal/pkg/constants"
	"fixflow/internal/pkg/discovery"
	"fixflow/internal/pkg/logger"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

// ForwardTimeout 转发到后端的整体超时
const ForwardTimeout = 5 * time.Second

var forwardCounter = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "gateway_forwards_total",
	Help: "Number of forwarded requests by backend service and outcome.",
}, []string{"service", "outcome"})

// DefaultRoutes 是网关的前缀路由表：URL 前缀 → 逻辑服务名。
// 剥掉前缀后的剩余路径原样转发给后端。
var DefaultRoutes = map[string]string{
	"/api/orders":      constants.OrdersService,
	"/api/repairs":     constants.RepairService,
	"/api/inventory":   constants.InventoryService,
	"/api/order-parts": constants.OrderPartsService,
}

// Router 把外部请求按前缀表转发到经服务发现挑选出的后端实例。
// 转发是透明的：方法、剩余路径、query、头和 body 原样传递，
// 后端的状态码和响应体原样回传。
type Router struct {
	selector *discovery.Selector
	routes   map[string]string
	prefixes []string // 按长度降序，最长前缀优先匹配
	client   *http.Client
	tracer   trace.Tracer
}

// NewRouter 创建网关路由器。routes 为 nil 时使用 DefaultRoutes。
func NewRouter(selector *discovery.Selector, routes map[string]string) *Router {
	if routes == nil {
		routes = DefaultRoutes
	}
	prefixes := make([]string, 0, len(routes))
	for prefix := range routes {
		prefixes = append(prefixes, prefix)
	}
	sort.Slice(prefixes, func(i, j int) bool { return len(prefixes[i]) > len(prefixes[j]) })

	return &Router{
		selector: selector,
		routes:   routes,
		prefixes: prefixes,
		client: &http.Client{
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 100,
			},
		},
		tracer: otel.Tracer(constants.APIGateway),
	}
}

// ServeHTTP 实现 http.Handler。
func (rt *Router) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	serviceName, rest, ok := rt.match(r.URL.Path)
	if !ok {
		writeError(w, apperrors.Newf(apperrors.KindNotFound, "no route for path %s", r.URL.Path))
		return
	}
	rt.forward(w, r, serviceName, rest)
}

// match 最长前缀匹配，返回目标服务名和剥掉前缀后的剩余路径。
func (rt *Router) match(path string) (serviceName, rest string, ok bool) {
	for _, prefix := range rt.prefixes {
		if path == prefix || strings.HasPrefix(path, prefix+"/") {
			rest = strings.TrimPrefix(path, prefix)
			if rest == "" {
				rest = "/"
			}
			return rt.routes[prefix], rest, true
		}
	}
	return "", "", false
}

func (rt *Router) forward(w http.ResponseWriter, r *http.Request, serviceName, rest string) {
	ctx := otel.GetTextMapPropagator().Extract(r.Context(), propagation.HeaderCarrier(r.Header))
	ctx, span := rt.tracer.Start(ctx, "gateway.Forward", trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()
	span.SetAttributes(
		attribute.String("peer.service", serviceName),
		attribute.String("http.method", r.Method),
		attribute.String("http.target", rest),
	)

	endpoint, err := rt.selector.Pick(ctx, serviceName)
	if err != nil {
		// 强制重新解析后仍然没有存活实例：503，和 404 明确区分开
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		forwardCounter.WithLabelValues(serviceName, "unavailable").Inc()
		writeError(w, err)
		return
	}

	ctx, cancel := context.WithTimeout(ctx, ForwardTimeout)
	defer cancel()

	url := strings.TrimSuffix(endpoint, "/") + rest
	if r.URL.RawQuery != "" {
		url += "?" + r.URL.RawQuery
	}
	req, err := http.NewRequestWithContext(ctx, r.Method, url, r.Body)
	if err != nil {
		span.RecordError(err)
		writeError(w, apperrors.Wrap(apperrors.KindValidation, err, "failed to build downstream request"))
		return
	}
	copyHeader(req.Header, r.Header)
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(req.Header))

	resp, err := rt.client.Do(req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		// 传输层失败视作实例不可用，下一次请求强制重新解析
		rt.selector.Invalidate(serviceName)
		forwardCounter.WithLabelValues(serviceName, "transport_error").Inc()
		logger.Ctx(ctx).Warn().Err(err).Str("service", serviceName).Msg("Forward failed")
		writeError(w, apperrors.Wrap(apperrors.KindDependency, err, "backend call failed"))
		return
	}
	defer resp.Body.Close()

	forwardCounter.WithLabelValues(serviceName, "ok").Inc()
	copyHeader(w.Header(), resp.Header)
	w.WriteHeader(resp.StatusCode)
	io.Copy(w, resp.Body)
}

// 只属于单个连接的逐跳头，不能跨转发传递（RFC 7230 §6.1）
var hopHeaders = map[string]bool{
	"Connection":          true,
	"Proxy-Connection":    true,
	"Keep-Alive":          true,
	"Proxy-Authenticate":  true,
	"Proxy-Authorization": true,
	"Te":                  true,
	"Trailer":             true,
	"Transfer-Encoding":   true,
	"Upgrade":             true,
}

// copyHeader 复制端到端的头，丢弃逐跳头以及 Connection 头里点名的字段。
func copyHeader(dst, src http.Header) {
	connOpts := map[string]bool{}
	for _, v := range src.Values("Connection") {
		for _, name := range strings.Split(v, ",") {
			if name = strings.TrimSpace(name); name != "" {
				connOpts[http.CanonicalHeaderKey(name)] = true
			}
		}
	}
	for key, values := range src {
		if hopHeaders[key] || connOpts[key] {
			continue
		}
		for _, value := range values {
			dst.Add(key, value)
		}
	}
}

func writeError(w http.ResponseWriter, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(apperrors.HTTPStatus(err))
	w.Write([]byte(`{"error":` + strconv.Quote(err.Error()) + `}`))
}
