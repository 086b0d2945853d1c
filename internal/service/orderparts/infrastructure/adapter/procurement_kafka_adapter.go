// internal/service/orderparts/infrastructure/adapter/procurement_kafka_adapter.go
package adapter

import (
	"context"
	"encoding/json"

	"fixflow/internal/pkg/apperrors"
	"fixflow/internal/pkg/mq"
	"fixflow/internal/service/orderparts/domain"

	"github.com/segmentio/kafka-go"
)

// ProcurementKafkaAdapter 实现 port.ProcurementPublisher：把采购单发到
// 采购 topic，供应链侧消费后安排进货。
type ProcurementKafkaAdapter struct {
	writer *kafka.Writer
}

// NewProcurementKafkaAdapter 创建采购下单适配器。
func NewProcurementKafkaAdapter(writer *kafka.Writer) *ProcurementKafkaAdapter {
	return &ProcurementKafkaAdapter{writer: writer}
}

// Publish 发布一张采购单。
func (a *ProcurementKafkaAdapter) Publish(ctx context.Context, order *domain.ProcurementOrder) error {
	payload, err := json.Marshal(order)
	if err != nil {
		return apperrors.Wrap(apperrors.KindValidation, err, "failed to encode procurement order")
	}
	if err := mq.ProduceMessage(ctx, a.writer, []byte(order.ID), payload); err != nil {
		return apperrors.Wrap(apperrors.KindDependency, err, "failed to publish procurement order")
	}
	return nil
}

// Close 关闭底层生产者。
func (a *ProcurementKafkaAdapter) Close() error {
	return a.writer.Close()
}
