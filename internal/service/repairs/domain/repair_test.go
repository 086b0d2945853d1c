package domain

import (
	"testing"

	"fixflow/internal/pkg/apperrors"
)

func newTestRepair(t *testing.T) *Repair {
	t.Helper()
	repair, err := NewRepair("user-1", "Phone X1", "screen flickers")
	if err != nil {
		t.Fatalf("NewRepair: %v", err)
	}
	return repair
}

func TestNewRepairStartsPending(t *testing.T) {
	repair := newTestRepair(t)
	if repair.Status != StatusPending {
		t.Errorf("status = %s, want %s", repair.Status, StatusPending)
	}
	if len(repair.RequiredParts) != 0 {
		t.Error("new repair must start with an empty parts list")
	}
	if len(repair.History) != 1 || repair.History[0].Note != "Repair registered" {
		t.Errorf("unexpected initial history: %+v", repair.History)
	}
}

func TestNewRepairValidation(t *testing.T) {
	if _, err := NewRepair("", "Phone X1", ""); apperrors.KindOf(err) != apperrors.KindValidation {
		t.Errorf("empty user: err = %v, want validation kind", err)
	}
	if _, err := NewRepair("user-1", "", ""); apperrors.KindOf(err) != apperrors.KindValidation {
		t.Errorf("empty model: err = %v, want validation kind", err)
	}
}

func TestDiagnoseOnlyFromPending(t *testing.T) {
	repair := newTestRepair(t)
	if err := repair.Diagnose("cracked cable", nil); err != nil {
		t.Fatalf("Diagnose: %v", err)
	}
	if repair.Status != StatusDiagnosis {
		t.Errorf("status = %s, want %s", repair.Status, StatusDiagnosis)
	}

	err := repair.Diagnose("second opinion", nil)
	if apperrors.KindOf(err) != apperrors.KindIllegalTransition {
		t.Errorf("re-diagnose: err = %v, want illegal transition", err)
	}
}

func TestDiagnoseValidatesParts(t *testing.T) {
	tests := []struct {
		name  string
		parts []RequiredPart
	}{
		{"empty part id", []RequiredPart{{Quantity: 1}}},
		{"zero quantity", []RequiredPart{{PartID: "p1", Quantity: 0}}},
		{"duplicate part", []RequiredPart{{PartID: "p1", Quantity: 1}, {PartID: "p1", Quantity: 2}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repair := newTestRepair(t)
			err := repair.Diagnose("diag", tt.parts)
			if apperrors.KindOf(err) != apperrors.KindValidation {
				t.Errorf("err = %v, want validation kind", err)
			}
		})
	}
}

func TestRevertToPendingAllowsRetry(t *testing.T) {
	repair := newTestRepair(t)
	if err := repair.Diagnose("diag", []RequiredPart{{PartID: "p1", Quantity: 2}}); err != nil {
		t.Fatalf("Diagnose: %v", err)
	}
	repair.RevertToPending("no live instance")
	if repair.Status != StatusPending {
		t.Errorf("status = %s, want %s", repair.Status, StatusPending)
	}
	if repair.Diagnosis != "diag" {
		t.Error("diagnosis text must survive the revert")
	}
	// 回退后允许再次诊断
	if err := repair.Diagnose("diag retry", []RequiredPart{{PartID: "p1", Quantity: 2}}); err != nil {
		t.Errorf("re-diagnose after revert: %v", err)
	}
}

func TestCompleteIsManualOverride(t *testing.T) {
	repair := newTestRepair(t)
	repair.Diagnose("diag", []RequiredPart{{PartID: "p1", Quantity: 1}})
	repair.MarkWaitingParts(map[string]int{"p1": 1})

	// 配件未到也允许人工终结
	if err := repair.Complete(); err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if repair.Status != StatusCompleted || repair.CompletedAt == nil {
		t.Errorf("status = %s, completedAt = %v", repair.Status, repair.CompletedAt)
	}

	if err := repair.Complete(); apperrors.KindOf(err) != apperrors.KindIllegalTransition {
		t.Errorf("double complete: err = %v, want illegal transition", err)
	}
	if err := repair.Cancel(); apperrors.KindOf(err) != apperrors.KindIllegalTransition {
		t.Errorf("cancel after complete: err = %v, want illegal transition", err)
	}
}

func TestCancelRejectedOnTerminal(t *testing.T) {
	repair := newTestRepair(t)
	if err := repair.Cancel(); err != nil {
		t.Fatalf("Cancel: %v", err)
	}
	if repair.Status != StatusCancelled {
		t.Errorf("status = %s, want %s", repair.Status, StatusCancelled)
	}
	if err := repair.Cancel(); apperrors.KindOf(err) != apperrors.KindIllegalTransition {
		t.Errorf("double cancel: err = %v, want illegal transition", err)
	}
}

func TestReservationKeyIsPrefixed(t *testing.T) {
	repair := newTestRepair(t)
	if got := repair.ReservationKey(); got != "repair_"+repair.ID {
		t.Errorf("ReservationKey = %s", got)
	}
}
