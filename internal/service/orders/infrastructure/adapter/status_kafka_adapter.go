// internal/service/orders/infrastructure/adapter/status_kafka_adapter.go
package adapter

import (
	"context"
	"encoding/json"

	"fixflow/internal/pkg/apperrors"
	"fixflow/internal/pkg/mq"
	"fixflow/internal/service/orders/domain/port"

	"github.com/segmentio/kafka-go"
)

// StatusKafkaAdapter 实现 port.StatusNotifier：把状态变更发到通知 topic，
// 推送网关消费后按用户分发。消息 key 用 UserID，同一用户的通知保序。
type StatusKafkaAdapter struct {
	writer *kafka.Writer
}

// NewStatusKafkaAdapter 创建通知适配器。
func NewStatusKafkaAdapter(writer *kafka.Writer) *StatusKafkaAdapter {
	return &StatusKafkaAdapter{writer: writer}
}

// NotifyStatusChange 发布一条状态变更通知。
func (a *StatusKafkaAdapter) NotifyStatusChange(ctx context.Context, n port.StatusNotification) error {
	payload, err := json.Marshal(n)
	if err != nil {
		return apperrors.Wrap(apperrors.KindValidation, err, "failed to encode status notification")
	}
	if err := mq.ProduceMessage(ctx, a.writer, []byte(n.UserID), payload); err != nil {
		return apperrors.Wrap(apperrors.KindDependency, err, "failed to publish status notification")
	}
	return nil
}

// Close 关闭底层生产者。
func (a *StatusKafkaAdapter) Close() error {
	return a.writer.Close()
}
