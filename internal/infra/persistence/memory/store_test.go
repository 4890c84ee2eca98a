package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"hotlabcore/pkg/domain"
)

// blockVialCreates is a rule that rejects any vial creation, used to exercise
// the commit/abort path.
type blockVialCreates struct{}

func (blockVialCreates) Name() string { return "block_vial_creates" }

func (blockVialCreates) Evaluate(_ context.Context, _ domain.RuleView, changes []domain.Change) (domain.Result, error) {
	var res domain.Result
	for _, change := range changes {
		if change.Entity == domain.EntityVial && change.Action == domain.ActionCreate {
			res.Violations = append(res.Violations, domain.Violation{
				Rule:     "block_vial_creates",
				Severity: domain.SeverityBlock,
				Message:  "vial creation rejected",
				Entity:   domain.EntityVial,
			})
		}
	}
	return res, nil
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func TestRunInTransactionCommits(t *testing.T) {
	store := NewStore(domain.NewRulesEngine())
	_, err := store.RunInTransaction(context.Background(), func(tx Transaction) error {
		_, err := tx.CreateVial(Vial{IsotopeID: "tc-99m", InitialActivity: 10})
		return err
	})
	if err != nil {
		t.Fatalf("transaction: %v", err)
	}
	if got := len(store.ListVials()); got != 1 {
		t.Fatalf("committed vials = %d, want 1", got)
	}
}

func TestRunInTransactionRollsBackOnError(t *testing.T) {
	store := NewStore(domain.NewRulesEngine())
	boom := errors.New("boom")
	_, err := store.RunInTransaction(context.Background(), func(tx Transaction) error {
		if _, err := tx.CreateVial(Vial{IsotopeID: "tc-99m", InitialActivity: 10}); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("got %v, want the callback error", err)
	}
	if got := len(store.ListVials()); got != 0 {
		t.Fatalf("vials after aborted transaction = %d, want 0", got)
	}
}

func TestBlockingRuleAbortsCommit(t *testing.T) {
	engine := domain.NewRulesEngine()
	engine.Register(blockVialCreates{})
	store := NewStore(engine)

	res, err := store.RunInTransaction(context.Background(), func(tx Transaction) error {
		_, err := tx.CreateVial(Vial{IsotopeID: "tc-99m", InitialActivity: 10})
		return err
	})
	var violation domain.RuleViolationError
	if !errors.As(err, &violation) {
		t.Fatalf("got %v, want RuleViolationError", err)
	}
	if !res.HasBlocking() {
		t.Fatal("result carries no blocking violation")
	}
	if got := len(store.ListVials()); got != 0 {
		t.Fatalf("vials after blocked transaction = %d, want 0", got)
	}

	// Non-vial mutations still pass through the same engine.
	if _, err := store.RunInTransaction(context.Background(), func(tx Transaction) error {
		_, err := tx.CreateRoom(Room{Name: "Room X"})
		return err
	}); err != nil {
		t.Fatalf("unrelated transaction blocked: %v", err)
	}
}

func TestCommittedReadsAreIsolatedCopies(t *testing.T) {
	store := NewStore(domain.NewRulesEngine())
	var created Vial
	if _, err := store.RunInTransaction(context.Background(), func(tx Transaction) error {
		var err error
		created, err = tx.CreateVial(Vial{IsotopeID: "tc-99m", InitialActivity: 10, Label: "original"})
		return err
	}); err != nil {
		t.Fatalf("transaction: %v", err)
	}

	got, ok := store.GetVial(created.ID)
	if !ok {
		t.Fatal("vial missing")
	}
	got.Label = "mutated copy"

	again, _ := store.GetVial(created.ID)
	if again.Label != "original" {
		t.Fatalf("store state mutated through a read copy: label = %s", again.Label)
	}
}

func TestViewSeesUncommittedNothing(t *testing.T) {
	store := NewStore(domain.NewRulesEngine())
	if _, err := store.RunInTransaction(context.Background(), func(tx Transaction) error {
		if _, err := tx.CreateVial(Vial{IsotopeID: "tc-99m", InitialActivity: 10}); err != nil {
			return err
		}
		// The transaction's own snapshot sees the pending vial.
		if got := len(tx.Snapshot().ListVials()); got != 1 {
			t.Fatalf("in-transaction vials = %d, want 1", got)
		}
		return errors.New("abort")
	}); err == nil {
		t.Fatal("expected abort error")
	}
	if err := store.View(context.Background(), func(view TransactionView) error {
		if got := len(view.ListVials()); got != 0 {
			t.Fatalf("view vials after abort = %d, want 0", got)
		}
		return nil
	}); err != nil {
		t.Fatalf("view: %v", err)
	}
}

func TestCreateVialDefaultsReceivedAtToClock(t *testing.T) {
	store := NewStore(domain.NewRulesEngine())
	at := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	store.SetNowFunc(fixedClock(at))

	var created Vial
	if _, err := store.RunInTransaction(context.Background(), func(tx Transaction) error {
		var err error
		created, err = tx.CreateVial(Vial{IsotopeID: "tc-99m", InitialActivity: 10})
		return err
	}); err != nil {
		t.Fatalf("transaction: %v", err)
	}
	if !created.ReceivedAt.Equal(at) {
		t.Fatalf("received at = %v, want the injected clock %v", created.ReceivedAt, at)
	}
	if created.ID == "" {
		t.Fatal("no id assigned")
	}
}

func TestCreateGeneratorReplacesExisting(t *testing.T) {
	store := NewStore(domain.NewRulesEngine())
	ctx := context.Background()
	var first Generator
	if _, err := store.RunInTransaction(ctx, func(tx Transaction) error {
		var err error
		first, err = tx.CreateGenerator(Generator{IsotopeID: "tc-99m", InitialParentActivity: 100, Efficiency: 0.9})
		return err
	}); err != nil {
		t.Fatalf("first: %v", err)
	}
	if _, err := store.RunInTransaction(ctx, func(tx Transaction) error {
		_, err := tx.CreateGenerator(Generator{IsotopeID: "tc-99m", InitialParentActivity: 80, Efficiency: 0.85})
		return err
	}); err != nil {
		t.Fatalf("second: %v", err)
	}

	generators := store.ListGenerators()
	if len(generators) != 1 {
		t.Fatalf("generators = %d, want 1", len(generators))
	}
	if generators[0].ID == first.ID {
		t.Fatal("replaced generator still active")
	}
}

func TestExportImportRoundTrip(t *testing.T) {
	source := NewStore(domain.NewRulesEngine())
	ctx := context.Background()
	var patient PatientCase
	if _, err := source.RunInTransaction(ctx, func(tx Transaction) error {
		if _, err := tx.CreateIsotope(Isotope{Base: domain.Base{ID: "tc-99m"}, Name: "Tc-99m", HalfLifeHours: 6.01}); err != nil {
			return err
		}
		if _, err := tx.CreateVial(Vial{IsotopeID: "tc-99m", InitialActivity: 10}); err != nil {
			return err
		}
		var err error
		patient, err = tx.CreatePatientCase(PatientCase{PatientName: "Round Trip", IsotopeID: "tc-99m"})
		if err != nil {
			return err
		}
		return tx.SetAlertFlags(patient.ID, domain.FlagReady)
	}); err != nil {
		t.Fatalf("populate: %v", err)
	}

	target := NewStore(domain.NewRulesEngine())
	target.ImportState(source.ExportState())

	if got := len(target.ListVials()); got != 1 {
		t.Fatalf("imported vials = %d, want 1", got)
	}
	restored, ok := target.GetPatientCase(patient.ID)
	if !ok {
		t.Fatal("patient missing after import")
	}
	if restored.PatientName != "Round Trip" {
		t.Fatalf("patient name = %s", restored.PatientName)
	}
	if err := target.View(ctx, func(view TransactionView) error {
		if flags := view.AlertFlagsFor(patient.ID); !flags.Has(domain.FlagReady) {
			t.Fatalf("alert flags lost in round trip: %v", flags)
		}
		return nil
	}); err != nil {
		t.Fatalf("view: %v", err)
	}
}
