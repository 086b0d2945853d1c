// internal/service/inventory/interfaces/shipment_consumer.go
package interfaces

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"fixflow/internal/pkg/logger"
	"fixflow/internal/pkg/mq"
	"fixflow/internal/service/inventory/application"
	"fixflow/internal/service/inventory/domain"

	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel"
)

// ShipmentArrivedEvent 到货事件：采购的零件入库，补齐之前的缺口。
type ShipmentArrivedEvent struct {
	ShipmentID string `json:"shipment_id"`
	Parts      []struct {
		ID       string  `json:"id"`
		Name     string  `json:"name"`
		Category string  `json:"category"`
		Quantity int     `json:"quantity"`
		Price    float64 `json:"price"`
	} `json:"parts"`
}

// ShipmentConsumer 是驱动适配器：监听到货 topic，把到货零件合并入库。
type ShipmentConsumer struct {
	reader *kafka.Reader
	engine *application.ReservationEngine
	wg     sync.WaitGroup
}

// NewShipmentConsumer 创建到货事件消费者。
func NewShipmentConsumer(reader *kafka.Reader, engine *application.ReservationEngine) *ShipmentConsumer {
	return &ShipmentConsumer{reader: reader, engine: engine}
}

// Start 启动消费循环，长期运行直到 ctx 取消。
func (c *ShipmentConsumer) Start(ctx context.Context) {
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		logger.L().Info().Str("topic", c.reader.Config().Topic).Msg("✅ Shipment consumer started")
		for {
			msg, err := c.reader.FetchMessage(ctx)
			if err != nil {
				if ctx.Err() != nil {
					logger.L().Info().Msg("Shipment consumer shutting down")
					return
				}
				logger.L().Error().Err(err).Msg("Could not read shipment message, retrying")
				time.Sleep(time.Second) // 避免快速失败循环
				continue
			}

			c.processMessage(ctx, msg)

			if err := c.reader.CommitMessages(ctx, msg); err != nil {
				logger.L().Error().Err(err).Msg("Failed to commit shipment message")
			}
		}
	}()
}

// Stop 等待消费循环退出并关闭 reader。
func (c *ShipmentConsumer) Stop() {
	c.reader.Close()
	c.wg.Wait()
}

func (c *ShipmentConsumer) processMessage(parentCtx context.Context, msg kafka.Message) {
	var event ShipmentArrivedEvent
	if err := json.Unmarshal(msg.Value, &event); err != nil {
		logger.L().Error().Err(err).Msg("Failed to unmarshal shipment event, message skipped")
		return
	}

	carrier := mq.KafkaHeaderCarrier(msg.Headers)
	ctx := otel.GetTextMapPropagator().Extract(parentCtx, &carrier)

	records := make([]domain.PartRecord, 0, len(event.Parts))
	for _, p := range event.Parts {
		records = append(records, domain.PartRecord{
			ID:        p.ID,
			Name:      p.Name,
			Category:  p.Category,
			Total:     p.Quantity,
			UnitPrice: p.Price,
		})
	}

	if err := c.engine.Ingest(ctx, records); err != nil {
		logger.Ctx(ctx).Error().Err(err).
			Str("shipment_id", event.ShipmentID).
			Msg("Failed to ingest arrived shipment")
		return
	}
	logger.Ctx(ctx).Info().
		Str("shipment_id", event.ShipmentID).
		Int("parts", len(records)).
		Msg("Arrived shipment ingested")
}
