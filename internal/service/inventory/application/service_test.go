package application

import (
	"context"
	"sync"
	"testing"

	"fixflow/internal/pkg/apperrors"
	"fixflow/internal/service/inventory/domain"
	"fixflow/internal/service/inventory/infrastructure"

	"github.com/pkg/errors"
	"go.opentelemetry.io/otel"
)

type recordingNotifier struct {
	mu       sync.Mutex
	notified []map[string]int
	fail     bool
}

func (n *recordingNotifier) NotifyShortage(ctx context.Context, missing map[string]int) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.fail {
		return errors.New("backlog consumer unreachable")
	}
	copied := make(map[string]int, len(missing))
	for k, v := range missing {
		copied[k] = v
	}
	n.notified = append(n.notified, copied)
	return nil
}

func newEngine(t *testing.T, notifier *recordingNotifier) (*ReservationEngine, *infrastructure.MemoryStore) {
	t.Helper()
	store := infrastructure.NewMemoryStore()
	return NewReservationEngine(store, notifier, otel.Tracer("test")), store
}

func seed(t *testing.T, engine *ReservationEngine, parts ...domain.PartRecord) {
	t.Helper()
	if err := engine.Ingest(context.Background(), parts); err != nil {
		t.Fatalf("seed inventory: %v", err)
	}
}

func TestCheckAndReserveSplitsRequestedIntoReservedAndMissing(t *testing.T) {
	tests := []struct {
		name         string
		available    int
		requested    int
		wantReserved int
		wantMissing  int
	}{
		{name: "fully available", available: 10, requested: 4, wantReserved: 4, wantMissing: 0},
		{name: "partially available", available: 5, requested: 8, wantReserved: 5, wantMissing: 3},
		{name: "nothing available", available: 0, requested: 3, wantReserved: 0, wantMissing: 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			notifier := &recordingNotifier{}
			engine, _ := newEngine(t, notifier)
			seed(t, engine, domain.PartRecord{ID: "p1", Name: "screen", Category: "display", Total: tt.available, UnitPrice: 100})

			outcome, err := engine.CheckAndReserve(context.Background(), "order-1", domain.ReservationRequest{"p1": tt.requested})
			if err != nil {
				t.Fatalf("CheckAndReserve: %v", err)
			}

			if got := outcome.Reserved["p1"]; got != tt.wantReserved {
				t.Errorf("reserved = %d, want %d", got, tt.wantReserved)
			}
			if got := outcome.Missing["p1"]; got != tt.wantMissing {
				t.Errorf("missing = %d, want %d", got, tt.wantMissing)
			}
			// 请求里的每个 id：reserved + missing == requested
			if outcome.Reserved["p1"]+outcome.Missing["p1"] != tt.requested {
				t.Errorf("invariant violated: reserved %d + missing %d != requested %d",
					outcome.Reserved["p1"], outcome.Missing["p1"], tt.requested)
			}

			rec, err := engine.GetPart(context.Background(), "p1")
			if err != nil {
				t.Fatalf("GetPart: %v", err)
			}
			if rec.Available != tt.available-tt.wantReserved {
				t.Errorf("available = %d, want %d", rec.Available, tt.available-tt.wantReserved)
			}
			if rec.Available < 0 {
				t.Error("available must never go negative")
			}
		})
	}
}

func TestCheckAndReserveUnknownPartCountsAsMissing(t *testing.T) {
	notifier := &recordingNotifier{}
	engine, _ := newEngine(t, notifier)

	outcome, err := engine.CheckAndReserve(context.Background(), "order-1", domain.ReservationRequest{"ghost": 2})
	if err != nil {
		t.Fatalf("CheckAndReserve: %v", err)
	}
	if outcome.Missing["ghost"] != 2 {
		t.Errorf("missing = %d, want 2", outcome.Missing["ghost"])
	}
	if len(outcome.Reserved) != 0 {
		t.Errorf("nothing should be reserved for an unknown part, got %v", outcome.Reserved)
	}
}

func TestCheckAndReserveEscalatesShortageOnce(t *testing.T) {
	notifier := &recordingNotifier{}
	engine, _ := newEngine(t, notifier)
	seed(t, engine, domain.PartRecord{ID: "p1", Name: "screen", Category: "display", Total: 5, UnitPrice: 100})

	_, err := engine.CheckAndReserve(context.Background(), "order-1", domain.ReservationRequest{"p1": 8})
	if err != nil {
		t.Fatalf("CheckAndReserve: %v", err)
	}

	if len(notifier.notified) != 1 {
		t.Fatalf("expected exactly one escalation, got %d", len(notifier.notified))
	}
	if notifier.notified[0]["p1"] != 3 {
		t.Errorf("escalated deficit = %d, want 3", notifier.notified[0]["p1"])
	}
}

func TestCheckAndReserveSucceedsWhenEscalationFails(t *testing.T) {
	notifier := &recordingNotifier{fail: true}
	engine, _ := newEngine(t, notifier)
	seed(t, engine, domain.PartRecord{ID: "p1", Name: "screen", Category: "display", Total: 1, UnitPrice: 100})

	outcome, err := engine.CheckAndReserve(context.Background(), "order-1", domain.ReservationRequest{"p1": 5})
	if err != nil {
		t.Fatalf("escalation failure must not fail the reservation: %v", err)
	}
	if outcome.Reserved["p1"] != 1 || outcome.Missing["p1"] != 4 {
		t.Errorf("unexpected outcome: %+v", outcome)
	}
}

func TestCheckAndReserveRejectsInvalidRequests(t *testing.T) {
	engine, _ := newEngine(t, &recordingNotifier{})

	cases := []struct {
		name          string
		reservationID string
		req           domain.ReservationRequest
	}{
		{name: "empty reservation id", reservationID: "", req: domain.ReservationRequest{"p1": 1}},
		{name: "empty request", reservationID: "order-1", req: domain.ReservationRequest{}},
		{name: "zero quantity", reservationID: "order-1", req: domain.ReservationRequest{"p1": 0}},
		{name: "negative quantity", reservationID: "order-1", req: domain.ReservationRequest{"p1": -2}},
	}
	for _, tt := range cases {
		t.Run(tt.name, func(t *testing.T) {
			_, err := engine.CheckAndReserve(context.Background(), tt.reservationID, tt.req)
			if !apperrors.Is(err, apperrors.KindValidation) {
				t.Errorf("expected validation error, got %v", err)
			}
		})
	}
}

func TestConcurrentReservationsNeverOversell(t *testing.T) {
	const (
		stock   = 50
		callers = 40
		perCall = 3
	)

	notifier := &recordingNotifier{}
	engine, _ := newEngine(t, notifier)
	seed(t, engine, domain.PartRecord{ID: "p1", Name: "screen", Category: "display", Total: stock, UnitPrice: 100})

	var (
		wg            sync.WaitGroup
		mu            sync.Mutex
		totalReserved int
	)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			outcome, err := engine.CheckAndReserve(context.Background(),
				"order-"+string(rune('a'+n%26))+string(rune('0'+n/26)),
				domain.ReservationRequest{"p1": perCall})
			if err != nil {
				t.Errorf("CheckAndReserve: %v", err)
				return
			}
			if outcome.Reserved["p1"]+outcome.Missing["p1"] != perCall {
				t.Errorf("invariant violated for caller %d: %+v", n, outcome)
			}
			mu.Lock()
			totalReserved += outcome.Reserved["p1"]
			mu.Unlock()
		}(i)
	}
	wg.Wait()

	if totalReserved > stock {
		t.Errorf("oversold: total reserved %d exceeds initial stock %d", totalReserved, stock)
	}

	rec, err := engine.GetPart(context.Background(), "p1")
	if err != nil {
		t.Fatalf("GetPart: %v", err)
	}
	if rec.Available < 0 {
		t.Errorf("available went negative: %d", rec.Available)
	}
	if rec.Available+totalReserved != stock {
		t.Errorf("stock accounting broken: available %d + reserved %d != %d", rec.Available, totalReserved, stock)
	}
}

func TestReleaseRestoresAvailability(t *testing.T) {
	engine, _ := newEngine(t, &recordingNotifier{})
	seed(t, engine, domain.PartRecord{ID: "p1", Name: "screen", Category: "display", Total: 10, UnitPrice: 100})

	if _, err := engine.CheckAndReserve(context.Background(), "order-1", domain.ReservationRequest{"p1": 7}); err != nil {
		t.Fatalf("CheckAndReserve: %v", err)
	}
	if err := engine.Release(context.Background(), "order-1"); err != nil {
		t.Fatalf("Release: %v", err)
	}

	rec, err := engine.GetPart(context.Background(), "p1")
	if err != nil {
		t.Fatalf("GetPart: %v", err)
	}
	if rec.Available != 10 {
		t.Errorf("available = %d, want pre-reservation value 10", rec.Available)
	}

	// 重复释放与未知 ID 都是空操作
	if err := engine.Release(context.Background(), "order-1"); err != nil {
		t.Errorf("releasing an already-released reservation must be a no-op, got %v", err)
	}
	if err := engine.Release(context.Background(), "never-existed"); err != nil {
		t.Errorf("releasing an unknown reservation must be a no-op, got %v", err)
	}
	rec, _ = engine.GetPart(context.Background(), "p1")
	if rec.Available != 10 {
		t.Errorf("double release must not inflate stock, available = %d", rec.Available)
	}
}

func TestReleaseAfterPartialReservationRestoresReservedShare(t *testing.T) {
	engine, _ := newEngine(t, &recordingNotifier{})
	seed(t, engine, domain.PartRecord{ID: "p1", Name: "screen", Category: "display", Total: 5, UnitPrice: 100})

	// 要 8 只到手 5：释放后只加回实际扣掉的 5，而不是请求的 8
	outcome, err := engine.CheckAndReserve(context.Background(), "order-1", domain.ReservationRequest{"p1": 8})
	if err != nil {
		t.Fatalf("CheckAndReserve: %v", err)
	}
	if outcome.Reserved["p1"] != 5 || outcome.Missing["p1"] != 3 {
		t.Fatalf("unexpected outcome: %+v", outcome)
	}

	if err := engine.Release(context.Background(), "order-1"); err != nil {
		t.Fatalf("Release: %v", err)
	}

	rec, err := engine.GetPart(context.Background(), "p1")
	if err != nil {
		t.Fatalf("GetPart: %v", err)
	}
	if rec.Available != 5 {
		t.Errorf("available = %d, want the pre-reservation value 5", rec.Available)
	}
}

func TestIngestSumsQuantitiesOnConflict(t *testing.T) {
	engine, _ := newEngine(t, &recordingNotifier{})
	seed(t, engine, domain.PartRecord{ID: "p1", Name: "screen", Category: "display", Total: 4, UnitPrice: 100})
	seed(t, engine, domain.PartRecord{ID: "p1", Name: "screen", Category: "display", Total: 6, UnitPrice: 120})

	rec, err := engine.GetPart(context.Background(), "p1")
	if err != nil {
		t.Fatalf("GetPart: %v", err)
	}
	if rec.Total != 10 || rec.Available != 10 {
		t.Errorf("expected summed quantities 10/10, got %d/%d", rec.Total, rec.Available)
	}
	if rec.UnitPrice != 120 {
		t.Errorf("expected latest price 120, got %v", rec.UnitPrice)
	}
}
