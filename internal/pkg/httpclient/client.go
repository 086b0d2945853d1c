// internal/pkg/httpclient/client.go
package httpclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"fixflow/internal/pkg/apperrors"
	"fixflow/internal/pkg/discovery"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

// DefaultCallTimeout 网关到后端整条路径上单次调用的超时
const DefaultCallTimeout = 5 * time.Second

// Client 是带链路追踪与服务发现的 HTTP 客户端。
// 不在 http.Client 上设置全局 Timeout，超时完全由每次调用的 context 控制。
type Client struct {
	tracer     trace.Tracer
	httpClient *http.Client
	selector   *discovery.Selector
}

// NewClient 创建客户端实例。
func NewClient(tracer trace.Tracer, selector *discovery.Selector) *Client {
	return &Client{
		tracer: tracer,
		httpClient: &http.Client{
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 100,
			},
		},
		selector: selector,
	}
}

// CallJSON 解析服务名、探测出一个可用实例，然后发起一次 JSON 调用。
// in 为 nil 时不带请求体；out 为 nil 时丢弃响应体。
// 传输层失败会使该服务的端点缓存失效，让下一次调用强制重新解析。
func (c *Client) CallJSON(ctx context.Context, method, serviceName, path string, in, out interface{}) error {
	endpoint, err := c.selector.Pick(ctx, serviceName)
	if err != nil {
		return err
	}

	spanName := fmt.Sprintf("call-%s", serviceName)
	ctx, span := c.tracer.Start(ctx, spanName, trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()

	ctx, cancel := context.WithTimeout(ctx, DefaultCallTimeout)
	defer cancel()

	var body io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return apperrors.Wrap(apperrors.KindValidation, err, "failed to encode request body")
		}
		body = bytes.NewReader(payload)
	}

	url := strings.TrimSuffix(endpoint, "/") + path
	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		span.RecordError(err)
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	span.SetAttributes(
		attribute.String("http.url", url),
		attribute.String("http.method", method),
		attribute.String("peer.service", serviceName),
	)
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(req.Header))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		// 超时/连接失败一律视作"实例不可用"，下次调用强制重新解析
		c.selector.Invalidate(serviceName)
		return apperrors.Wrap(apperrors.KindDependency, err, fmt.Sprintf("call to %s failed", serviceName))
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		err := statusError(serviceName, resp)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			span.RecordError(err)
			return apperrors.Wrap(apperrors.KindDependency, err, fmt.Sprintf("failed to decode response from %s", serviceName))
		}
	}
	return nil
}

// statusError 把下游状态码翻译回本地错误分类。
func statusError(serviceName string, resp *http.Response) error {
	snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
	msg := fmt.Sprintf("service %s returned status %s: %s", serviceName, resp.Status, strings.TrimSpace(string(snippet)))

	switch resp.StatusCode {
	case http.StatusBadRequest:
		return apperrors.New(apperrors.KindValidation, msg)
	case http.StatusNotFound:
		return apperrors.New(apperrors.KindNotFound, msg)
	case http.StatusConflict:
		return apperrors.New(apperrors.KindIllegalTransition, msg)
	case http.StatusServiceUnavailable:
		return apperrors.New(apperrors.KindUnavailable, msg)
	default:
		return apperrors.New(apperrors.KindDependency, msg)
	}
}
