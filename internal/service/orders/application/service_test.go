package application

import (
	"context"
	"testing"

	"fixflow/internal/pkg/apperrors"
	"fixflow/internal/service/orders/domain"
	"fixflow/internal/service/orders/domain/port"
	"fixflow/internal/service/orders/infrastructure"

	"go.opentelemetry.io/otel"
)

// fakeReservations 可编排的预留引擎替身。
type fakeReservations struct {
	result   *port.ReservationResult
	err      error
	reserves []string
	releases []string
}

func (f *fakeReservations) Reserve(_ context.Context, reservationID string, _ map[string]int) (*port.ReservationResult, error) {
	f.reserves = append(f.reserves, reservationID)
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

func (f *fakeReservations) Release(_ context.Context, reservationID string) error {
	f.releases = append(f.releases, reservationID)
	return nil
}

type recordingNotifier struct {
	sent []port.StatusNotification
}

func (n *recordingNotifier) NotifyStatusChange(_ context.Context, notification port.StatusNotification) error {
	n.sent = append(n.sent, notification)
	return nil
}

func newService(reservations *fakeReservations, notifier *recordingNotifier) (*OrderService, *infrastructure.MemoryOrderRepository) {
	repo := infrastructure.NewMemoryOrderRepository()
	return NewOrderService(repo, reservations, notifier, nil, otel.Tracer("test")), repo
}

func createRequest() *CreateOrderRequest {
	return &CreateOrderRequest{
		UserID: "user-1",
		Items: []domain.OrderItem{
			{ItemID: "phone-x1", Quantity: 1, Type: domain.ItemTypePhone, UnitPrice: 999},
			{ItemID: "screen-a", Quantity: 2, Type: domain.ItemTypeComponent, UnitPrice: 49},
		},
		ShippingAddress: domain.ShippingAddress{City: "Berlin"},
	}
}

func TestCreateFullReservationGoesProcessing(t *testing.T) {
	reservations := &fakeReservations{result: &port.ReservationResult{Success: true}}
	notifier := &recordingNotifier{}
	svc, repo := newService(reservations, notifier)

	order, err := svc.Create(context.Background(), createRequest())
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if order.Status != domain.StatusProcessing {
		t.Errorf("status = %s, want %s", order.Status, domain.StatusProcessing)
	}
	if len(reservations.reserves) != 1 || reservations.reserves[0] != order.ID {
		t.Errorf("reservation keyed %v, want [%s]", reservations.reserves, order.ID)
	}

	saved, err := repo.FindByID(context.Background(), order.ID)
	if err != nil {
		t.Fatalf("FindByID: %v", err)
	}
	if saved.Status != domain.StatusProcessing {
		t.Errorf("persisted status = %s", saved.Status)
	}
	if len(notifier.sent) != 1 || notifier.sent[0].Kind != "order" {
		t.Errorf("unexpected notifications: %+v", notifier.sent)
	}
}

func TestCreateShortageGoesWaitingParts(t *testing.T) {
	reservations := &fakeReservations{result: &port.ReservationResult{
		Success:  false,
		Reserved: map[string]int{"screen-a": 1},
		Missing:  map[string]int{"screen-a": 1},
	}}
	svc, _ := newService(reservations, &recordingNotifier{})

	order, err := svc.Create(context.Background(), createRequest())
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if order.Status != domain.StatusWaitingParts {
		t.Errorf("status = %s, want %s", order.Status, domain.StatusWaitingParts)
	}
	if order.MissingItems["screen-a"] != 1 {
		t.Errorf("missing snapshot = %v", order.MissingItems)
	}
}

func TestCreateSurvivesReservationEngineOutage(t *testing.T) {
	reservations := &fakeReservations{err: apperrors.New(apperrors.KindUnavailable, "no live instance")}
	svc, repo := newService(reservations, &recordingNotifier{})

	order, err := svc.Create(context.Background(), createRequest())
	if err != nil {
		t.Fatalf("Create should not fail on engine outage: %v", err)
	}
	if order.Status != domain.StatusPending {
		t.Errorf("status = %s, want %s", order.Status, domain.StatusPending)
	}

	saved, _ := repo.FindByID(context.Background(), order.ID)
	last := saved.History[len(saved.History)-1]
	if last.Status != domain.StatusPending || last.Note == "Order created" {
		t.Errorf("expected a failure note in history, got %+v", last)
	}
}

func TestCreateAggregatesDuplicateItems(t *testing.T) {
	reservations := &fakeReservations{result: &port.ReservationResult{Success: true}}
	svc, _ := newService(reservations, &recordingNotifier{})

	req := createRequest()
	req.Items = append(req.Items, domain.OrderItem{ItemID: "screen-a", Quantity: 3, Type: domain.ItemTypeComponent, UnitPrice: 49})
	if _, err := svc.Create(context.Background(), req); err != nil {
		t.Fatalf("Create: %v", err)
	}
	// 预留载荷按 item 聚合数量，这里只验证调用发生了一次
	if len(reservations.reserves) != 1 {
		t.Errorf("reserve calls = %d, want 1", len(reservations.reserves))
	}
}

func TestCancelReleasesReservation(t *testing.T) {
	reservations := &fakeReservations{result: &port.ReservationResult{Success: true}}
	svc, _ := newService(reservations, &recordingNotifier{})

	order, _ := svc.Create(context.Background(), createRequest())
	cancelled, err := svc.Cancel(context.Background(), order.ID)
	if err != nil {
		t.Fatalf("Cancel: %v", err)
	}
	if cancelled.Status != domain.StatusCancelled {
		t.Errorf("status = %s, want %s", cancelled.Status, domain.StatusCancelled)
	}
	if len(reservations.releases) != 1 || reservations.releases[0] != order.ID {
		t.Errorf("releases = %v, want [%s]", reservations.releases, order.ID)
	}
}

func TestCancelShippedOrderRejected(t *testing.T) {
	reservations := &fakeReservations{result: &port.ReservationResult{Success: true}}
	svc, _ := newService(reservations, &recordingNotifier{})

	order, _ := svc.Create(context.Background(), createRequest())
	if _, err := svc.SetStatus(context.Background(), order.ID, &SetStatusRequest{Status: string(domain.StatusShipped)}); err != nil {
		t.Fatalf("SetStatus: %v", err)
	}

	_, err := svc.Cancel(context.Background(), order.ID)
	if apperrors.KindOf(err) != apperrors.KindIllegalTransition {
		t.Errorf("err = %v, want illegal transition", err)
	}
	if len(reservations.releases) != 0 {
		t.Errorf("no release expected for rejected cancel, got %v", reservations.releases)
	}
}

func TestSetStatusUnknownValueRejected(t *testing.T) {
	reservations := &fakeReservations{result: &port.ReservationResult{Success: true}}
	svc, _ := newService(reservations, &recordingNotifier{})

	order, _ := svc.Create(context.Background(), createRequest())
	_, err := svc.SetStatus(context.Background(), order.ID, &SetStatusRequest{Status: "TELEPORTED"})
	if apperrors.KindOf(err) != apperrors.KindValidation {
		t.Errorf("err = %v, want validation kind", err)
	}
}

func TestGetUnknownOrderNotFound(t *testing.T) {
	svc, _ := newService(&fakeReservations{result: &port.ReservationResult{Success: true}}, &recordingNotifier{})
	_, err := svc.Get(context.Background(), "missing-id")
	if apperrors.KindOf(err) != apperrors.KindNotFound {
		t.Errorf("err = %v, want not found kind", err)
	}
}

func TestListFiltersByUserAndStatus(t *testing.T) {
	reservations := &fakeReservations{result: &port.ReservationResult{Success: true}}
	svc, _ := newService(reservations, &recordingNotifier{})

	first, _ := svc.Create(context.Background(), createRequest())
	other := createRequest()
	other.UserID = "user-2"
	svc.Create(context.Background(), other)

	orders, err := svc.List(context.Background(), domain.ListFilter{UserID: "user-1"})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(orders) != 1 || orders[0].ID != first.ID {
		t.Errorf("expected only user-1 order, got %d results", len(orders))
	}

	orders, _ = svc.List(context.Background(), domain.ListFilter{Status: domain.StatusCancelled})
	if len(orders) != 0 {
		t.Errorf("expected no cancelled orders, got %d", len(orders))
	}
}
