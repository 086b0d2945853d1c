// internal/service/orders/infrastructure/mapper.go
package infrastructure

import (
	"encoding/json"

	"fixflow/internal/service/orders/domain"

	"github.com/pkg/errors"
)

// FromDomainOrder 将领域模型转换为数据库模型。
func FromDomainOrder(o *domain.Order) (*OrderModel, error) {
	items, err := json.Marshal(o.Items)
	if err != nil {
		return nil, errors.Wrap(err, "marshal order items")
	}
	address, err := json.Marshal(o.ShippingAddress)
	if err != nil {
		return nil, errors.Wrap(err, "marshal shipping address")
	}
	history, err := json.Marshal(o.History)
	if err != nil {
		return nil, errors.Wrap(err, "marshal order history")
	}
	missing := ""
	if len(o.MissingItems) > 0 {
		raw, err := json.Marshal(o.MissingItems)
		if err != nil {
			return nil, errors.Wrap(err, "marshal missing items")
		}
		missing = string(raw)
	}
	return &OrderModel{
		ID:          o.ID,
		UserID:      o.UserID,
		Status:      string(o.Status),
		TotalPrice:  o.TotalPrice,
		ItemsJSON:   string(items),
		AddressJSON: string(address),
		MissingJSON: missing,
		HistoryJSON: string(history),
		CreatedAt:   o.CreatedAt,
		UpdatedAt:   o.UpdatedAt,
	}, nil
}

// ToDomainOrder 将数据库模型转换为领域模型。
func ToDomainOrder(m *OrderModel) (*domain.Order, error) {
	if m == nil {
		return nil, nil
	}
	o := &domain.Order{
		ID:         m.ID,
		UserID:     m.UserID,
		Status:     domain.Status(m.Status),
		TotalPrice: m.TotalPrice,
		CreatedAt:  m.CreatedAt,
		UpdatedAt:  m.UpdatedAt,
	}
	if err := json.Unmarshal([]byte(m.ItemsJSON), &o.Items); err != nil {
		return nil, errors.Wrap(err, "unmarshal order items")
	}
	if err := json.Unmarshal([]byte(m.AddressJSON), &o.ShippingAddress); err != nil {
		return nil, errors.Wrap(err, "unmarshal shipping address")
	}
	if err := json.Unmarshal([]byte(m.HistoryJSON), &o.History); err != nil {
		return nil, errors.Wrap(err, "unmarshal order history")
	}
	if m.MissingJSON != "" {
		if err := json.Unmarshal([]byte(m.MissingJSON), &o.MissingItems); err != nil {
			return nil, errors.Wrap(err, "unmarshal missing items")
		}
	}
	return o, nil
}
