package domain

import (
	"testing"

	"fixflow/internal/pkg/apperrors"
)

func validItems() []OrderItem {
	return []OrderItem{
		{ItemID: "phone-x1", Quantity: 1, Type: ItemTypePhone, UnitPrice: 999},
		{ItemID: "case-01", Quantity: 2, Type: ItemTypeComponent, UnitPrice: 19.5},
	}
}

func TestNewOrderComputesTotalAndHistory(t *testing.T) {
	order, err := NewOrder("user-1", validItems(), ShippingAddress{City: "Berlin"})
	if err != nil {
		t.Fatalf("NewOrder: %v", err)
	}
	if order.Status != StatusPending {
		t.Errorf("status = %s, want %s", order.Status, StatusPending)
	}
	if want := 999 + 2*19.5; order.TotalPrice != want {
		t.Errorf("total = %v, want %v", order.TotalPrice, want)
	}
	if len(order.History) != 1 || order.History[0].Note != "Order created" {
		t.Errorf("unexpected initial history: %+v", order.History)
	}
	if order.ID == "" {
		t.Error("expected generated order ID")
	}
}

func TestNewOrderValidation(t *testing.T) {
	tests := []struct {
		name   string
		userID string
		items  []OrderItem
	}{
		{"empty user", "", validItems()},
		{"no items", "user-1", nil},
		{"missing item id", "user-1", []OrderItem{{Quantity: 1, Type: ItemTypePhone}}},
		{"zero quantity", "user-1", []OrderItem{{ItemID: "x", Quantity: 0, Type: ItemTypePhone}}},
		{"unknown type", "user-1", []OrderItem{{ItemID: "x", Quantity: 1, Type: "gadget"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewOrder(tt.userID, tt.items, ShippingAddress{})
			if apperrors.KindOf(err) != apperrors.KindValidation {
				t.Errorf("err = %v, want validation kind", err)
			}
		})
	}
}

func TestCancelRejectedAfterShipment(t *testing.T) {
	for _, status := range []Status{StatusShipped, StatusDelivered} {
		order, _ := NewOrder("user-1", validItems(), ShippingAddress{})
		order.Status = status
		err := order.Cancel()
		if apperrors.KindOf(err) != apperrors.KindIllegalTransition {
			t.Errorf("cancel from %s: err = %v, want illegal transition", status, err)
		}
	}
}

func TestCancelAppendsHistory(t *testing.T) {
	order, _ := NewOrder("user-1", validItems(), ShippingAddress{})
	order.MarkProcessing()
	if err := order.Cancel(); err != nil {
		t.Fatalf("Cancel: %v", err)
	}
	if order.Status != StatusCancelled {
		t.Errorf("status = %s, want %s", order.Status, StatusCancelled)
	}
	last := order.History[len(order.History)-1]
	if last.Status != StatusCancelled || last.Note != "Order cancelled" {
		t.Errorf("unexpected last history entry: %+v", last)
	}
}

func TestMarkWaitingPartsKeepsMissingSnapshot(t *testing.T) {
	order, _ := NewOrder("user-1", validItems(), ShippingAddress{})
	order.MarkWaitingParts(map[string]int{"case-01": 1})
	if order.Status != StatusWaitingParts {
		t.Errorf("status = %s, want %s", order.Status, StatusWaitingParts)
	}
	if order.MissingItems["case-01"] != 1 {
		t.Errorf("missing snapshot = %v", order.MissingItems)
	}

	order.MarkProcessing()
	if order.MissingItems != nil {
		t.Error("expected missing snapshot cleared after processing")
	}
}

func TestSetStatusRejectsUnknownValue(t *testing.T) {
	order, _ := NewOrder("user-1", validItems(), ShippingAddress{})
	if err := order.SetStatus("TELEPORTED", ""); apperrors.KindOf(err) != apperrors.KindValidation {
		t.Errorf("err = %v, want validation kind", err)
	}
	if err := order.SetStatus(StatusShipped, ""); err != nil {
		t.Fatalf("SetStatus: %v", err)
	}
	last := order.History[len(order.History)-1]
	if last.Note == "" {
		t.Error("expected default note for status change")
	}
}

func TestMatchesFilter(t *testing.T) {
	order, _ := NewOrder("user-1", validItems(), ShippingAddress{})
	tests := []struct {
		userID string
		status Status
		want   bool
	}{
		{"", "", true},
		{"user-1", "", true},
		{"user-2", "", false},
		{"", StatusPending, true},
		{"", StatusShipped, false},
		{"user-1", StatusPending, true},
		{"user-1", StatusShipped, false},
	}
	for _, tt := range tests {
		if got := order.Matches(tt.userID, tt.status); got != tt.want {
			t.Errorf("Matches(%q, %q) = %v, want %v", tt.userID, tt.status, got, tt.want)
		}
	}
}
