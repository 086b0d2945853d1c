// internal/service/orders/domain/port/rules.go
package port

import "context"

// ReviewRules 评估一张新订单是否需要人工复核。规则文本由注册中心 KV
// 下发，命中只会在订单历史里追加一条备注，绝不拦截创建。
type ReviewRules interface {
	RequiresReview(ctx context.Context, fact map[string]interface{}) (bool, error)
}
