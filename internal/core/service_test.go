package core

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"hotlabcore/internal/infra/persistence/memory"
	"hotlabcore/pkg/domain"
)

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func newTestClock() *testClock {
	return &testClock{now: time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)}
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

type recordingNotifier struct {
	mu     sync.Mutex
	alerts []Alert
}

func (n *recordingNotifier) Notify(_ context.Context, alert Alert) error {
	n.mu.Lock()
	n.alerts = append(n.alerts, alert)
	n.mu.Unlock()
	return nil
}

func (n *recordingNotifier) byKind(kind AlertKind) []Alert {
	n.mu.Lock()
	defer n.mu.Unlock()
	var out []Alert
	for _, a := range n.alerts {
		if a.Kind == kind {
			out = append(out, a)
		}
	}
	return out
}

func newTestService(t *testing.T, opts ...Option) (*Service, *memory.Store, *testClock) {
	t.Helper()
	store := memory.NewStore(NewDefaultRulesEngine())
	clock := newTestClock()
	store.SetNowFunc(clock.Now)
	svc := NewService(store, opts...)
	ctx := context.Background()
	if _, err := svc.SeedIsotopes(ctx, DefaultIsotopes()); err != nil {
		t.Fatalf("seed isotopes: %v", err)
	}
	if _, err := svc.SeedRooms(ctx, DefaultRooms()); err != nil {
		t.Fatalf("seed rooms: %v", err)
	}
	return svc, store, clock
}

func registerTestPatient(t *testing.T, svc *Service, name, isotopeID string) PatientCase {
	t.Helper()
	patient, _, err := svc.RegisterPatient(context.Background(), PatientCase{
		PatientName: name,
		IsotopeID:   isotopeID,
	})
	if err != nil {
		t.Fatalf("register patient %s: %v", name, err)
	}
	return patient
}

func TestSeedIsotopesIdempotent(t *testing.T) {
	svc, store, _ := newTestService(t)
	if _, err := svc.SeedIsotopes(context.Background(), DefaultIsotopes()); err != nil {
		t.Fatalf("second seed: %v", err)
	}
	if got := len(store.ListIsotopes()); got != 2 {
		t.Fatalf("isotope count after double seed = %d, want 2", got)
	}
	if got := len(store.ListRooms()); got != 7 {
		t.Fatalf("room count = %d, want 7", got)
	}
}

func TestRegisterPatientUnknownIsotope(t *testing.T) {
	svc, _, _ := newTestService(t)
	_, _, err := svc.RegisterPatient(context.Background(), PatientCase{
		PatientName: "Avery",
		IsotopeID:   "nope",
	})
	var unknown domain.UnknownEntityError
	if !errors.As(err, &unknown) {
		t.Fatalf("want UnknownEntityError, got %v", err)
	}
}

func TestAssignRoomExclusive(t *testing.T) {
	svc, store, _ := newTestService(t)
	ctx := context.Background()
	a := registerTestPatient(t, svc, "Patient A", "f18-fdg")
	b := registerTestPatient(t, svc, "Patient B", "f18-fdg")

	assignmentA, _, err := svc.AssignRoom(ctx, a.ID, "room-1")
	if err != nil {
		t.Fatalf("assign A: %v", err)
	}

	_, _, err = svc.AssignRoom(ctx, b.ID, "room-1")
	var unavailable domain.RoomUnavailableError
	if !errors.As(err, &unavailable) {
		t.Fatalf("want RoomUnavailableError, got %v", err)
	}
	if unavailable.OccupantID != a.ID {
		t.Fatalf("occupant = %s, want %s", unavailable.OccupantID, a.ID)
	}

	// A's assignment must be untouched by the failed attempt.
	assignments := store.ListRoomAssignments()
	if len(assignments) != 1 {
		t.Fatalf("assignment count = %d, want 1", len(assignments))
	}
	if assignments[0].PatientID != a.ID || assignments[0].RoomID != "room-1" {
		t.Fatalf("assignment altered: %+v", assignments[0])
	}
	if !assignments[0].StartedAt.Equal(assignmentA.StartedAt) {
		t.Fatalf("assignment start changed: %v -> %v", assignmentA.StartedAt, assignments[0].StartedAt)
	}
}

func TestAssignRoomReleasesPriorRoom(t *testing.T) {
	svc, store, _ := newTestService(t)
	ctx := context.Background()
	p := registerTestPatient(t, svc, "Mover", "f18-fdg")

	if _, _, err := svc.AssignRoom(ctx, p.ID, "room-1"); err != nil {
		t.Fatalf("first assign: %v", err)
	}
	if _, _, err := svc.AssignRoom(ctx, p.ID, "room-2"); err != nil {
		t.Fatalf("second assign: %v", err)
	}

	assignments := store.ListRoomAssignments()
	if len(assignments) != 1 {
		t.Fatalf("assignment count = %d, want 1", len(assignments))
	}
	if assignments[0].RoomID != "room-2" {
		t.Fatalf("room = %s, want room-2", assignments[0].RoomID)
	}
}

func TestReleaseRoomIdempotent(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()
	p := registerTestPatient(t, svc, "Idle", "f18-fdg")
	if _, err := svc.ReleaseRoom(ctx, p.ID); err != nil {
		t.Fatalf("release without room: %v", err)
	}
	if _, _, err := svc.AssignRoom(ctx, p.ID, "room-3"); err != nil {
		t.Fatalf("assign: %v", err)
	}
	for i := 0; i < 2; i++ {
		if _, err := svc.ReleaseRoom(ctx, p.ID); err != nil {
			t.Fatalf("release %d: %v", i, err)
		}
	}
}

func TestStartImagingFreesRoom(t *testing.T) {
	svc, store, _ := newTestService(t)
	ctx := context.Background()
	p := registerTestPatient(t, svc, "Scanner", "f18-fdg")
	if _, _, err := svc.AssignRoom(ctx, p.ID, "room-4"); err != nil {
		t.Fatalf("assign: %v", err)
	}
	if _, _, err := svc.StartImaging(ctx, p.ID); err != nil {
		t.Fatalf("start imaging: %v", err)
	}
	if got := len(store.ListRoomAssignments()); got != 0 {
		t.Fatalf("assignments after imaging start = %d, want 0", got)
	}
	if got := len(store.ListImagingSessions()); got != 1 {
		t.Fatalf("sessions = %d, want 1", got)
	}
}

func TestStartImagingConsumesAdditionalRequest(t *testing.T) {
	svc, store, _ := newTestService(t)
	ctx := context.Background()
	p := registerTestPatient(t, svc, "Returner", "f18-fdg")
	if _, _, err := svc.RequestAdditionalImaging(ctx, p.ID, "thorax", 90); err != nil {
		t.Fatalf("request additional: %v", err)
	}
	session, _, err := svc.StartImaging(ctx, p.ID)
	if err != nil {
		t.Fatalf("start imaging: %v", err)
	}
	if !session.Additional || session.Region != "thorax" {
		t.Fatalf("session not flagged additional: %+v", session)
	}
	if got := len(store.ListAdditionalImagingRequests()); got != 0 {
		t.Fatalf("pending requests = %d, want 0", got)
	}
}

func TestFinishImagingValidation(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()
	p := registerTestPatient(t, svc, "Checker", "f18-fdg")
	if _, _, err := svc.StartImaging(ctx, p.ID); err != nil {
		t.Fatalf("start imaging: %v", err)
	}

	cases := []struct {
		name    string
		region  string
		minutes int
	}{
		{"empty region", "", 90},
		{"off-list wait", "abdomen", 75},
		{"zero wait", "abdomen", 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.FinishImaging(ctx, p.ID, true, tc.region, tc.minutes)
			var invalid domain.InvalidRequestError
			if !errors.As(err, &invalid) {
				t.Fatalf("want InvalidRequestError, got %v", err)
			}
		})
	}
}

func TestFinishImagingArchivesCase(t *testing.T) {
	var archived []ArchivedEpisode
	archiver := archiverFunc(func(_ context.Context, ep ArchivedEpisode) error {
		archived = append(archived, ep)
		return nil
	})
	svc, store, clock := newTestService(t, WithArchiver(archiver))
	ctx := context.Background()
	p := registerTestPatient(t, svc, "Done", "f18-fdg")
	if _, _, err := svc.StartImaging(ctx, p.ID); err != nil {
		t.Fatalf("start imaging: %v", err)
	}
	clock.Advance(20 * time.Minute)
	if _, err := svc.FinishImaging(ctx, p.ID, false, "", 0); err != nil {
		t.Fatalf("finish imaging: %v", err)
	}

	got, ok := store.GetPatientCase(p.ID)
	if !ok {
		t.Fatal("patient case missing after completion")
	}
	if !got.Archived || got.CompletedAt == nil {
		t.Fatalf("case not archived: %+v", got)
	}
	if !got.CompletedAt.Equal(clock.Now()) {
		t.Fatalf("completed at %v, want %v", got.CompletedAt, clock.Now())
	}
	if len(archived) != 1 || archived[0].Episode.ID != p.ID {
		t.Fatalf("archiver calls = %+v, want one for %s", archived, p.ID)
	}
}

func TestFinishImagingSchedulesAdditional(t *testing.T) {
	svc, store, _ := newTestService(t)
	ctx := context.Background()
	p := registerTestPatient(t, svc, "Rescan", "f18-fdg")
	if _, _, err := svc.StartImaging(ctx, p.ID); err != nil {
		t.Fatalf("start imaging: %v", err)
	}
	if _, err := svc.FinishImaging(ctx, p.ID, true, "pelvis", 60); err != nil {
		t.Fatalf("finish imaging: %v", err)
	}
	requests := store.ListAdditionalImagingRequests()
	if len(requests) != 1 || requests[0].Region != "pelvis" || requests[0].ScheduledMinutes != 60 {
		t.Fatalf("requests = %+v", requests)
	}
	got, _ := store.GetPatientCase(p.ID)
	if got.Archived {
		t.Fatal("case archived despite pending additional imaging")
	}
}

func TestCancelAdditionalImaging(t *testing.T) {
	svc, store, _ := newTestService(t)
	ctx := context.Background()
	p := registerTestPatient(t, svc, "Changed Mind", "f18-fdg")
	if _, _, err := svc.RequestAdditionalImaging(ctx, p.ID, "skull", 120); err != nil {
		t.Fatalf("request: %v", err)
	}
	if _, err := svc.CancelAdditionalImaging(ctx, p.ID); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if got := len(store.ListAdditionalImagingRequests()); got != 0 {
		t.Fatalf("pending requests = %d, want 0", got)
	}
	_, err := svc.CancelAdditionalImaging(ctx, p.ID)
	var unknown domain.UnknownEntityError
	if !errors.As(err, &unknown) {
		t.Fatalf("second cancel: want UnknownEntityError, got %v", err)
	}
}

type archiverFunc func(context.Context, ArchivedEpisode) error

func (f archiverFunc) ArchiveEpisode(ctx context.Context, ep ArchivedEpisode) error {
	return f(ctx, ep)
}
