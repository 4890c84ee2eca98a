package core

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"hotlabcore/pkg/domain"
)

func addTestVial(t *testing.T, svc *Service, isotopeID string, activity float64) Vial {
	t.Helper()
	vial, _, err := svc.AddVial(context.Background(), Vial{
		IsotopeID:       isotopeID,
		InitialActivity: activity,
		InitialVolume:   5,
	})
	if err != nil {
		t.Fatalf("add vial: %v", err)
	}
	return vial
}

func addTestBin(t *testing.T, svc *Service, name string) WasteBin {
	t.Helper()
	bin, _, err := svc.AddWasteBin(context.Background(), WasteBin{Name: name})
	if err != nil {
		t.Fatalf("add waste bin: %v", err)
	}
	return bin
}

func TestAddVialValidation(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	_, _, err := svc.AddVial(ctx, Vial{IsotopeID: "tc-99m", InitialActivity: 0})
	var invalid domain.InvalidRequestError
	if !errors.As(err, &invalid) {
		t.Fatalf("zero-activity vial: got %v, want InvalidRequestError", err)
	}

	_, _, err = svc.AddVial(ctx, Vial{IsotopeID: "no-such", InitialActivity: 10})
	var unknown domain.UnknownEntityError
	if !errors.As(err, &unknown) {
		t.Fatalf("unknown-isotope vial: got %v, want UnknownEntityError", err)
	}
}

func TestVialActivityDecays(t *testing.T) {
	svc, _, clock := newTestService(t)
	ctx := context.Background()
	vial := addTestVial(t, svc, "tc-99m", 100)

	got, err := svc.VialActivity(ctx, vial.ID)
	if err != nil {
		t.Fatalf("activity: %v", err)
	}
	if got != 100 {
		t.Fatalf("activity at receipt = %g, want 100", got)
	}

	// One Tc-99m half-life.
	clock.Advance(time.Duration(6.01 * float64(time.Hour)))
	got, err = svc.VialActivity(ctx, vial.ID)
	if err != nil {
		t.Fatalf("activity: %v", err)
	}
	if math.Abs(got-50) > 1e-6 {
		t.Fatalf("activity after one half-life = %g, want 50", got)
	}
}

func TestDisposeVialCarriesDecayedActivity(t *testing.T) {
	svc, _, clock := newTestService(t)
	ctx := context.Background()
	vial := addTestVial(t, svc, "tc-99m", 100)
	bin := addTestBin(t, svc, "hot bin")

	clock.Advance(time.Duration(6.01 * float64(time.Hour)))
	item, _, err := svc.DisposeVial(ctx, vial.ID, bin.ID)
	if err != nil {
		t.Fatalf("dispose: %v", err)
	}
	if math.Abs(item.Activity-50) > 1e-6 {
		t.Fatalf("waste item activity = %g, want current (decayed) 50, not the initial 100", item.Activity)
	}
	if !item.DisposedAt.Equal(clock.Now()) {
		t.Fatalf("disposed at = %v, want %v", item.DisposedAt, clock.Now())
	}

	// The vial leaves the active inventory.
	_, err = svc.VialActivity(ctx, vial.ID)
	var unknown domain.UnknownEntityError
	if !errors.As(err, &unknown) {
		t.Fatalf("activity after disposal: got %v, want UnknownEntityError", err)
	}
}

func TestDisposeVialUnknownBin(t *testing.T) {
	svc, _, _ := newTestService(t)
	vial := addTestVial(t, svc, "tc-99m", 10)
	_, _, err := svc.DisposeVial(context.Background(), vial.ID, "no-such-bin")
	var unknown domain.UnknownEntityError
	if !errors.As(err, &unknown) {
		t.Fatalf("got %v, want UnknownEntityError", err)
	}
}

func TestTotalActiveInventory(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()
	addTestVial(t, svc, "tc-99m", 100)
	addTestVial(t, svc, "tc-99m", 40)
	addTestVial(t, svc, "f18-fdg", 25)

	total, err := svc.TotalActiveInventory(ctx, "tc-99m")
	if err != nil {
		t.Fatalf("inventory: %v", err)
	}
	if math.Abs(total-140) > 1e-9 {
		t.Fatalf("tc-99m inventory = %g, want 140", total)
	}

	total, err = svc.TotalActiveInventory(ctx, "")
	if err != nil {
		t.Fatalf("inventory: %v", err)
	}
	if math.Abs(total-165) > 1e-9 {
		t.Fatalf("total inventory = %g, want 165", total)
	}
}

// Tier classification is by the bin's aggregate activity: two individually
// low-tier items can add up to a medium-tier bin.
func TestSummarizeWasteBinAggregateTier(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()
	bin := addTestBin(t, svc, "sharps")

	for i := 0; i < 2; i++ {
		vial := addTestVial(t, svc, "tc-99m", 6)
		if _, _, err := svc.DisposeVial(ctx, vial.ID, bin.ID); err != nil {
			t.Fatalf("dispose: %v", err)
		}
	}

	summary, err := svc.SummarizeWasteBin(ctx, bin.ID)
	if err != nil {
		t.Fatalf("summarize: %v", err)
	}
	if summary.ItemCount != 2 {
		t.Fatalf("item count = %d, want 2", summary.ItemCount)
	}
	if math.Abs(summary.CurrentActivity-12) > 1e-9 {
		t.Fatalf("aggregate activity = %g, want 12", summary.CurrentActivity)
	}
	if summary.Tier != domain.TierMedium {
		t.Fatalf("tier = %s, want %s (aggregate, not per-item)", summary.Tier, domain.TierMedium)
	}
}

func TestSummarizeEmptyBinIsClearable(t *testing.T) {
	svc, _, clock := newTestService(t)
	bin := addTestBin(t, svc, "cold bin")
	summary, err := svc.SummarizeWasteBin(context.Background(), bin.ID)
	if err != nil {
		t.Fatalf("summarize: %v", err)
	}
	if summary.Tier != domain.TierClearable {
		t.Fatalf("tier = %s, want %s", summary.Tier, domain.TierClearable)
	}
	if !summary.DisposalReadyAt.Equal(clock.Now()) {
		t.Fatalf("empty bin ready-at = %v, want now", summary.DisposalReadyAt)
	}
}

func TestWasteItemDisposalReadyAt(t *testing.T) {
	svc, _, clock := newTestService(t)
	ctx := context.Background()
	bin := addTestBin(t, svc, "decay bin")
	vial := addTestVial(t, svc, "tc-99m", 100)
	item, _, err := svc.DisposeVial(ctx, vial.ID, bin.ID)
	if err != nil {
		t.Fatalf("dispose: %v", err)
	}

	readyAt, err := svc.WasteItemDisposalReadyAt(ctx, item.ID)
	if err != nil {
		t.Fatalf("ready-at: %v", err)
	}
	if !readyAt.After(clock.Now()) {
		t.Fatalf("ready-at %v not in the future", readyAt)
	}

	// At the projected instant the item has decayed to the clearance level.
	elapsed := readyAt.Sub(item.DisposedAt).Hours()
	at := 100 * math.Exp2(-elapsed/6.01)
	if math.Abs(at-domain.DefaultClearanceThreshold) > 1e-6 {
		t.Fatalf("activity at ready-at = %g, want %g", at, domain.DefaultClearanceThreshold)
	}
}

func TestWasteItemAlreadyClearable(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()
	bin := addTestBin(t, svc, "trace bin")
	vial := addTestVial(t, svc, "tc-99m", domain.DefaultClearanceThreshold/2)
	item, _, err := svc.DisposeVial(ctx, vial.ID, bin.ID)
	if err != nil {
		t.Fatalf("dispose: %v", err)
	}
	readyAt, err := svc.WasteItemDisposalReadyAt(ctx, item.ID)
	if err != nil {
		t.Fatalf("ready-at: %v", err)
	}
	if !readyAt.Equal(item.DisposedAt) {
		t.Fatalf("ready-at = %v, want disposal time %v", readyAt, item.DisposedAt)
	}
}

func TestEmptyWasteBin(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()
	bin := addTestBin(t, svc, "full bin")
	for i := 0; i < 3; i++ {
		vial := addTestVial(t, svc, "f18-fdg", 2)
		if _, _, err := svc.DisposeVial(ctx, vial.ID, bin.ID); err != nil {
			t.Fatalf("dispose: %v", err)
		}
	}

	removed, _, err := svc.EmptyWasteBin(ctx, bin.ID)
	if err != nil {
		t.Fatalf("empty: %v", err)
	}
	if removed != 3 {
		t.Fatalf("removed = %d, want 3", removed)
	}

	summary, err := svc.SummarizeWasteBin(ctx, bin.ID)
	if err != nil {
		t.Fatalf("summarize: %v", err)
	}
	if summary.ItemCount != 0 || summary.CurrentActivity != 0 {
		t.Fatalf("bin not empty after clearing: %+v", summary)
	}
}
