package application

import (
	"context"
	"testing"

	"fixflow/internal/pkg/apperrors"
	"fixflow/internal/service/repairs/domain"
	"fixflow/internal/service/repairs/domain/port"
	"fixflow/internal/service/repairs/infrastructure"

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

func newService(reservations *fakeReservations) (*RepairService, *infrastructure.MemoryRepairRepository) {
	repo := infrastructure.NewMemoryRepairRepository()
	return NewRepairService(repo, reservations, nil, otel.Tracer("test")), repo
}

func registerRepair(t *testing.T, svc *RepairService) *domain.Repair {
	t.Helper()
	repair, err := svc.Create(context.Background(), &CreateRepairRequest{
		UserID:       "user-1",
		SubjectModel: "Phone X1",
		Description:  "screen flickers",
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	return repair
}

func TestDiagnoseWithoutPartsGoesInProgress(t *testing.T) {
	reservations := &fakeReservations{}
	svc, _ := newService(reservations)
	repair := registerRepair(t, svc)

	diagnosed, err := svc.Diagnose(context.Background(), repair.ID, &DiagnoseRequest{Diagnosis: "loose connector"})
	if err != nil {
		t.Fatalf("Diagnose: %v", err)
	}
	if diagnosed.Status != domain.StatusInProgress {
		t.Errorf("status = %s, want %s", diagnosed.Status, domain.StatusInProgress)
	}
	if len(reservations.reserves) != 0 {
		t.Errorf("no reservation expected for empty parts list, got %v", reservations.reserves)
	}
}

func TestDiagnoseFullReservationGoesInProgress(t *testing.T) {
	reservations := &fakeReservations{result: &port.ReservationResult{Success: true}}
	svc, _ := newService(reservations)
	repair := registerRepair(t, svc)

	diagnosed, err := svc.Diagnose(context.Background(), repair.ID, &DiagnoseRequest{
		Diagnosis:     "cracked screen",
		RequiredParts: []domain.RequiredPart{{PartID: "screen-a", Quantity: 1}},
	})
	if err != nil {
		t.Fatalf("Diagnose: %v", err)
	}
	if diagnosed.Status != domain.StatusInProgress {
		t.Errorf("status = %s, want %s", diagnosed.Status, domain.StatusInProgress)
	}
	if want := "repair_" + repair.ID; len(reservations.reserves) != 1 || reservations.reserves[0] != want {
		t.Errorf("reservation keyed %v, want [%s]", reservations.reserves, want)
	}
}

func TestDiagnoseShortageGoesWaitingParts(t *testing.T) {
	reservations := &fakeReservations{result: &port.ReservationResult{
		Success:  false,
		Reserved: map[string]int{"screen-a": 0},
		Missing:  map[string]int{"screen-a": 1},
	}}
	svc, repo := newService(reservations)
	repair := registerRepair(t, svc)

	diagnosed, err := svc.Diagnose(context.Background(), repair.ID, &DiagnoseRequest{
		Diagnosis:     "cracked screen",
		RequiredParts: []domain.RequiredPart{{PartID: "screen-a", Quantity: 1}},
	})
	if err != nil {
		t.Fatalf("Diagnose: %v", err)
	}
	if diagnosed.Status != domain.StatusWaitingParts {
		t.Errorf("status = %s, want %s", diagnosed.Status, domain.StatusWaitingParts)
	}

	saved, _ := repo.FindByID(context.Background(), repair.ID)
	if saved.MissingParts["screen-a"] != 1 {
		t.Errorf("missing snapshot = %v", saved.MissingParts)
	}
}

func TestDiagnoseSurvivesReservationEngineOutage(t *testing.T) {
	reservations := &fakeReservations{err: apperrors.New(apperrors.KindUnavailable, "no live instance")}
	svc, repo := newService(reservations)
	repair := registerRepair(t, svc)

	diagnosed, err := svc.Diagnose(context.Background(), repair.ID, &DiagnoseRequest{
		Diagnosis:     "cracked screen",
		RequiredParts: []domain.RequiredPart{{PartID: "screen-a", Quantity: 1}},
	})
	if err != nil {
		t.Fatalf("Diagnose should not fail on engine outage: %v", err)
	}
	if diagnosed.Status != domain.StatusPending {
		t.Errorf("status = %s, want %s", diagnosed.Status, domain.StatusPending)
	}

	saved, _ := repo.FindByID(context.Background(), repair.ID)
	if saved.Diagnosis != "cracked screen" {
		t.Error("diagnosis text must survive the revert")
	}
}

func TestCompleteFromWaitingParts(t *testing.T) {
	reservations := &fakeReservations{result: &port.ReservationResult{
		Success: false,
		Missing: map[string]int{"screen-a": 1},
	}}
	svc, _ := newService(reservations)
	repair := registerRepair(t, svc)
	svc.Diagnose(context.Background(), repair.ID, &DiagnoseRequest{
		Diagnosis:     "cracked screen",
		RequiredParts: []domain.RequiredPart{{PartID: "screen-a", Quantity: 1}},
	})

	completed, err := svc.Complete(context.Background(), repair.ID)
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if completed.Status != domain.StatusCompleted || completed.CompletedAt == nil {
		t.Errorf("status = %s, completedAt = %v", completed.Status, completed.CompletedAt)
	}
}

func TestCancelReleasesRepairReservation(t *testing.T) {
	reservations := &fakeReservations{result: &port.ReservationResult{Success: true}}
	svc, _ := newService(reservations)
	repair := registerRepair(t, svc)
	svc.Diagnose(context.Background(), repair.ID, &DiagnoseRequest{
		Diagnosis:     "cracked screen",
		RequiredParts: []domain.RequiredPart{{PartID: "screen-a", Quantity: 1}},
	})

	cancelled, err := svc.Cancel(context.Background(), repair.ID)
	if err != nil {
		t.Fatalf("Cancel: %v", err)
	}
	if cancelled.Status != domain.StatusCancelled {
		t.Errorf("status = %s, want %s", cancelled.Status, domain.StatusCancelled)
	}
	if want := "repair_" + repair.ID; len(reservations.releases) != 1 || reservations.releases[0] != want {
		t.Errorf("releases = %v, want [%s]", reservations.releases, want)
	}
}

func TestCancelCompletedRepairRejected(t *testing.T) {
	svc, _ := newService(&fakeReservations{})
	repair := registerRepair(t, svc)
	if _, err := svc.Complete(context.Background(), repair.ID); err != nil {
		t.Fatalf("Complete: %v", err)
	}
	_, err := svc.Cancel(context.Background(), repair.ID)
	if apperrors.KindOf(err) != apperrors.KindIllegalTransition {
		t.Errorf("err = %v, want illegal transition", err)
	}
}

func TestGetUnknownRepairNotFound(t *testing.T) {
	svc, _ := newService(&fakeReservations{})
	_, err := svc.Get(context.Background(), "missing-id")
	if apperrors.KindOf(err) != apperrors.KindNotFound {
		t.Errorf("err = %v, want not found kind", err)
	}
}

func TestListFiltersByUserAndStatus(t *testing.T) {
	svc, _ := newService(&fakeReservations{})
	first := registerRepair(t, svc)
	svc.Create(context.Background(), &CreateRepairRequest{UserID: "user-2", SubjectModel: "Phone Z"})

	repairs, err := svc.List(context.Background(), domain.ListFilter{UserID: "user-1"})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(repairs) != 1 || repairs[0].ID != first.ID {
		t.Errorf("expected only user-1 repair, got %d results", len(repairs))
	}

	repairs, _ = svc.List(context.Background(), domain.ListFilter{Status: domain.StatusCompleted})
	if len(repairs) != 0 {
		t.Errorf("expected no completed repairs, got %d", len(repairs))
	}
}
