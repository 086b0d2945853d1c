// internal/pkg/constants/constants.go
package constants

// 逻辑服务名，注册与发现都以此为键
const (
	APIGateway        = "api-gateway"
	InventoryService  = "inventory-service"
	OrdersService     = "orders-service"
	RepairService     = "repair-service"
	OrderPartsService = "order-parts-service"
	PushGateway       = "push-gateway"
)

// 注册中心 KV 里分发的动态名称的键，以及取不到时的默认值。
// 对应原型里通过 Consul KV 下发 cluster/queue/map 名称的做法。
const (
	KVBacklogMapName      = "backlog-map"
	KVShipmentTopicName   = "shipment-topic"
	KVStatusTopicName     = "status-topic"
	KVProcurementTopic    = "procurement-topic"
	KVOrderReviewRuleName = "order-review-rule"

	DefaultBacklogMapName   = "backlog:parts"
	DefaultShipmentTopic    = "part-shipments-v1"
	DefaultStatusTopic      = "status-notifications-v1"
	DefaultProcurementTopic = "part-procurement-v1"
)
