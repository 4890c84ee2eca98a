// Package memory provides the canonical in-memory transactional store for the
// hotlabcore domain. Durable backends snapshot this store rather than
// reimplementing transactional semantics. It lives under infra to keep domain
// dependencies one-way (domain -> nothing).
package memory

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"sync"
	"time"

	"hotlabcore/pkg/domain"
)

// Exported aliases keep method signatures concise while still exposing domain
// types from this infra package.
type (
	// Isotope is an alias of domain.Isotope.
	Isotope = domain.Isotope
	// Vial is an alias of domain.Vial.
	Vial = domain.Vial
	// Generator is an alias of domain.Generator.
	Generator = domain.Generator
	// WasteBin is an alias of domain.WasteBin.
	WasteBin = domain.WasteBin
	// WasteItem is an alias of domain.WasteItem.
	WasteItem = domain.WasteItem
	// PatientCase is an alias of domain.PatientCase.
	PatientCase = domain.PatientCase
	// Room is an alias of domain.Room.
	Room = domain.Room
	// RoomAssignment is an alias of domain.RoomAssignment.
	RoomAssignment = domain.RoomAssignment
	// ImagingSession is an alias of domain.ImagingSession.
	ImagingSession = domain.ImagingSession
	// AdditionalImagingRequest is an alias of domain.AdditionalImagingRequest.
	AdditionalImagingRequest = domain.AdditionalImagingRequest
	// AlertFlags is an alias of domain.AlertFlags.
	AlertFlags = domain.AlertFlags
	// Change is an alias of domain.Change.
	Change = domain.Change
	// Result is an alias of domain.Result.
	Result = domain.Result
	// RulesEngine is an alias of domain.RulesEngine.
	RulesEngine = domain.RulesEngine
	// Transaction is an alias of domain.Transaction.
	Transaction = domain.Transaction
	// TransactionView is an alias of domain.TransactionView.
	TransactionView = domain.TransactionView
	// PersistentStore is an alias of domain.PersistentStore.
	PersistentStore = domain.PersistentStore
)

// Compile-time contract assertion.
var _ domain.PersistentStore = (*Store)(nil)

type memoryState struct {
	isotopes    map[string]Isotope
	vials       map[string]Vial
	generators  map[string]Generator // keyed by isotope id
	wasteBins   map[string]WasteBin
	wasteItems  map[string]WasteItem
	patients    map[string]PatientCase
	rooms       map[string]Room
	assignments map[string]RoomAssignment // keyed by room id
	sessions    map[string]ImagingSession // keyed by patient id
	additional  map[string]AdditionalImagingRequest
	alertFlags  map[string]AlertFlags
}

// Snapshot is the serialisable representation of the in-memory state.
type Snapshot struct {
	Isotopes    map[string]Isotope                  `json:"isotopes"`
	Vials       map[string]Vial                     `json:"vials"`
	Generators  map[string]Generator                `json:"generators"`
	WasteBins   map[string]WasteBin                 `json:"waste_bins"`
	WasteItems  map[string]WasteItem                `json:"waste_items"`
	Patients    map[string]PatientCase              `json:"patients"`
	Rooms       map[string]Room                     `json:"rooms"`
	Assignments map[string]RoomAssignment           `json:"assignments"`
	Sessions    map[string]ImagingSession           `json:"sessions"`
	Additional  map[string]AdditionalImagingRequest `json:"additional"`
	AlertFlags  map[string]AlertFlags               `json:"alert_flags"`
}

func newMemoryState() memoryState {
	return memoryState{
		isotopes:    map[string]Isotope{},
		vials:       map[string]Vial{},
		generators:  map[string]Generator{},
		wasteBins:   map[string]WasteBin{},
		wasteItems:  map[string]WasteItem{},
		patients:    map[string]PatientCase{},
		rooms:       map[string]Room{},
		assignments: map[string]RoomAssignment{},
		sessions:    map[string]ImagingSession{},
		additional:  map[string]AdditionalImagingRequest{},
		alertFlags:  map[string]AlertFlags{},
	}
}

func cloneIsotope(i Isotope) Isotope {
	cp := i
	if i.ParentID != nil {
		v := *i.ParentID
		cp.ParentID = &v
	}
	return cp
}

func cloneVial(v Vial) Vial { return v }

func cloneGenerator(g Generator) Generator {
	cp := g
	if g.LastExtractionAt != nil {
		t := *g.LastExtractionAt
		cp.LastExtractionAt = &t
	}
	return cp
}

func cloneWasteBin(b WasteBin) WasteBin    { return b }
func cloneWasteItem(w WasteItem) WasteItem { return w }

func clonePatient(p PatientCase) PatientCase {
	cp := p
	if p.CompletedAt != nil {
		t := *p.CompletedAt
		cp.CompletedAt = &t
	}
	return cp
}

func cloneRoom(r Room) Room                                               { return r }
func cloneAssignment(a RoomAssignment) RoomAssignment                     { return a }
func cloneSession(s ImagingSession) ImagingSession                        { return s }
func cloneAdditional(r AdditionalImagingRequest) AdditionalImagingRequest { return r }

func (s memoryState) clone() memoryState {
	cloned := newMemoryState()
	for k, v := range s.isotopes {
		cloned.isotopes[k] = cloneIsotope(v)
	}
	for k, v := range s.vials {
		cloned.vials[k] = cloneVial(v)
	}
	for k, v := range s.generators {
		cloned.generators[k] = cloneGenerator(v)
	}
	for k, v := range s.wasteBins {
		cloned.wasteBins[k] = cloneWasteBin(v)
	}
	for k, v := range s.wasteItems {
		cloned.wasteItems[k] = cloneWasteItem(v)
	}
	for k, v := range s.patients {
		cloned.patients[k] = clonePatient(v)
	}
	for k, v := range s.rooms {
		cloned.rooms[k] = cloneRoom(v)
	}
	for k, v := range s.assignments {
		cloned.assignments[k] = cloneAssignment(v)
	}
	for k, v := range s.sessions {
		cloned.sessions[k] = cloneSession(v)
	}
	for k, v := range s.additional {
		cloned.additional[k] = cloneAdditional(v)
	}
	for k, v := range s.alertFlags {
		cloned.alertFlags[k] = v
	}
	return cloned
}

// Store provides an in-memory transactional store for the core domain.
type Store struct {
	mu     sync.RWMutex
	state  memoryState
	engine *RulesEngine
	nowFn  func() time.Time
}

// NewStore constructs an in-memory store backed by the provided rules engine.
func NewStore(engine *RulesEngine) *Store {
	if engine == nil {
		engine = domain.NewRulesEngine()
	}
	return &Store{
		state:  newMemoryState(),
		engine: engine,
		nowFn:  func() time.Time { return time.Now().UTC() },
	}
}

func (s *Store) newID() string {
	var b [16]byte
	if _, err := rand.Read(b[:]); err != nil {
		panic(err)
	}
	return hex.EncodeToString(b[:])
}

// NowFunc returns the store clock.
func (s *Store) NowFunc() func() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.nowFn
}

// SetNowFunc overrides the store clock; intended for deterministic tests.
func (s *Store) SetNowFunc(fn func() time.Time) {
	if fn == nil {
		return
	}
	s.mu.Lock()
	s.nowFn = fn
	s.mu.Unlock()
}

// RulesEngine exposes the engine for rule registration.
func (s *Store) RulesEngine() *RulesEngine {
	return s.engine
}

// ExportState clones the current store state for external persistence.
func (s *Store) ExportState() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	cloned := s.state.clone()
	return Snapshot{
		Isotopes:    cloned.isotopes,
		Vials:       cloned.vials,
		Generators:  cloned.generators,
		WasteBins:   cloned.wasteBins,
		WasteItems:  cloned.wasteItems,
		Patients:    cloned.patients,
		Rooms:       cloned.rooms,
		Assignments: cloned.assignments,
		Sessions:    cloned.sessions,
		Additional:  cloned.additional,
		AlertFlags:  cloned.alertFlags,
	}
}

// ImportState replaces the store state with the provided snapshot.
func (s *Store) ImportState(snapshot Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	state := newMemoryState()
	for k, v := range snapshot.Isotopes {
		state.isotopes[k] = cloneIsotope(v)
	}
	for k, v := range snapshot.Vials {
		state.vials[k] = cloneVial(v)
	}
	for k, v := range snapshot.Generators {
		state.generators[k] = cloneGenerator(v)
	}
	for k, v := range snapshot.WasteBins {
		state.wasteBins[k] = cloneWasteBin(v)
	}
	for k, v := range snapshot.WasteItems {
		state.wasteItems[k] = cloneWasteItem(v)
	}
	for k, v := range snapshot.Patients {
		state.patients[k] = clonePatient(v)
	}
	for k, v := range snapshot.Rooms {
		state.rooms[k] = cloneRoom(v)
	}
	for k, v := range snapshot.Assignments {
		state.assignments[k] = cloneAssignment(v)
	}
	for k, v := range snapshot.Sessions {
		state.sessions[k] = cloneSession(v)
	}
	for k, v := range snapshot.Additional {
		state.additional[k] = cloneAdditional(v)
	}
	for k, v := range snapshot.AlertFlags {
		state.alertFlags[k] = v
	}
	s.state = state
}

// transaction is a mutation set applied to the store state.
type transaction struct {
	store   *Store
	state   memoryState
	changes []Change
	now     time.Time
}

var _ domain.Transaction = (*transaction)(nil)

// view exposes a read-only snapshot of transactional state to rules.
type view struct {
	state *memoryState
}

var _ domain.TransactionView = view{}

// RunInTransaction executes fn within a transactional copy of the store state.
func (s *Store) RunInTransaction(ctx context.Context, fn func(tx Transaction) error) (Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx := &transaction{
		store: s,
		state: s.state.clone(),
		now:   s.nowFn(),
	}

	if err := fn(tx); err != nil {
		return Result{}, err
	}

	var result Result
	if s.engine != nil {
		res, err := s.engine.Evaluate(ctx, view{state: &tx.state}, tx.changes)
		if err != nil {
			return Result{}, err
		}
		result = res
		if res.HasBlocking() {
			return res, domain.RuleViolationError{Result: res}
		}
	}

	s.state = tx.state
	return result, nil
}

// View executes fn against a read-only snapshot of the store state.
func (s *Store) View(_ context.Context, fn func(TransactionView) error) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snapshot := s.state.clone()
	return fn(view{state: &snapshot})
}

func (tx *transaction) recordChange(change Change) {
	tx.changes = append(tx.changes, change)
}

// Snapshot returns a read-only view of the transactional state.
func (tx *transaction) Snapshot() TransactionView {
	return view{state: &tx.state}
}

// CreateIsotope stores a new isotope reference record.
func (tx *transaction) CreateIsotope(i Isotope) (Isotope, error) {
	if i.ID == "" {
		i.ID = tx.store.newID()
	}
	if _, exists := tx.state.isotopes[i.ID]; exists {
		return Isotope{}, fmt.Errorf("isotope %q already exists", i.ID)
	}
	if i.HalfLifeHours <= 0 {
		return Isotope{}, fmt.Errorf("isotope half-life must be positive")
	}
	i.CreatedAt = tx.now
	i.UpdatedAt = tx.now
	tx.state.isotopes[i.ID] = cloneIsotope(i)
	tx.recordChange(Change{Entity: domain.EntityIsotope, Action: domain.ActionCreate, After: cloneIsotope(i)})
	return cloneIsotope(i), nil
}

// CreateRoom stores a room from the fixed pool.
func (tx *transaction) CreateRoom(r Room) (Room, error) {
	if r.ID == "" {
		return Room{}, fmt.Errorf("room id is required")
	}
	if _, exists := tx.state.rooms[r.ID]; exists {
		return Room{}, fmt.Errorf("room %q already exists", r.ID)
	}
	r.CreatedAt = tx.now
	r.UpdatedAt = tx.now
	if r.Name == "" {
		r.Name = r.ID
	}
	tx.state.rooms[r.ID] = cloneRoom(r)
	tx.recordChange(Change{Entity: domain.EntityRoom, Action: domain.ActionCreate, After: cloneRoom(r)})
	return cloneRoom(r), nil
}

// CreateVial stores a new vial record.
func (tx *transaction) CreateVial(v Vial) (Vial, error) {
	if v.ID == "" {
		v.ID = tx.store.newID()
	}
	if _, exists := tx.state.vials[v.ID]; exists {
		return Vial{}, fmt.Errorf("vial %q already exists", v.ID)
	}
	v.CreatedAt = tx.now
	v.UpdatedAt = tx.now
	if v.ReceivedAt.IsZero() {
		v.ReceivedAt = tx.now
	}
	tx.state.vials[v.ID] = cloneVial(v)
	tx.recordChange(Change{Entity: domain.EntityVial, Action: domain.ActionCreate, After: cloneVial(v)})
	return cloneVial(v), nil
}

// DeleteVial removes a vial from the active set.
func (tx *transaction) DeleteVial(id string) error {
	current, ok := tx.state.vials[id]
	if !ok {
		return domain.UnknownEntityError{Entity: domain.EntityVial, ID: id}
	}
	delete(tx.state.vials, id)
	tx.recordChange(Change{Entity: domain.EntityVial, Action: domain.ActionDelete, Before: cloneVial(current)})
	return nil
}

// CreateWasteBin stores a new waste bin.
func (tx *transaction) CreateWasteBin(b WasteBin) (WasteBin, error) {
	if b.ID == "" {
		b.ID = tx.store.newID()
	}
	if _, exists := tx.state.wasteBins[b.ID]; exists {
		return WasteBin{}, fmt.Errorf("waste bin %q already exists", b.ID)
	}
	b.CreatedAt = tx.now
	b.UpdatedAt = tx.now
	tx.state.wasteBins[b.ID] = cloneWasteBin(b)
	tx.recordChange(Change{Entity: domain.EntityWasteBin, Action: domain.ActionCreate, After: cloneWasteBin(b)})
	return cloneWasteBin(b), nil
}

// CreateWasteItem stores a new waste item; items are append-only.
func (tx *transaction) CreateWasteItem(w WasteItem) (WasteItem, error) {
	if w.ID == "" {
		w.ID = tx.store.newID()
	}
	if _, exists := tx.state.wasteItems[w.ID]; exists {
		return WasteItem{}, fmt.Errorf("waste item %q already exists", w.ID)
	}
	if _, ok := tx.state.wasteBins[w.BinID]; !ok {
		return WasteItem{}, domain.UnknownEntityError{Entity: domain.EntityWasteBin, ID: w.BinID}
	}
	w.CreatedAt = tx.now
	w.UpdatedAt = tx.now
	if w.DisposedAt.IsZero() {
		w.DisposedAt = tx.now
	}
	tx.state.wasteItems[w.ID] = cloneWasteItem(w)
	tx.recordChange(Change{Entity: domain.EntityWasteItem, Action: domain.ActionCreate, After: cloneWasteItem(w)})
	return cloneWasteItem(w), nil
}

// EmptyWasteBin bulk-clears all items in a bin and returns the removed count.
// Individual waste items are never deleted any other way.
func (tx *transaction) EmptyWasteBin(binID string) (int, error) {
	if _, ok := tx.state.wasteBins[binID]; !ok {
		return 0, domain.UnknownEntityError{Entity: domain.EntityWasteBin, ID: binID}
	}
	removed := 0
	for id, item := range tx.state.wasteItems {
		if item.BinID != binID {
			continue
		}
		delete(tx.state.wasteItems, id)
		tx.recordChange(Change{Entity: domain.EntityWasteItem, Action: domain.ActionDelete, Before: cloneWasteItem(item)})
		removed++
	}
	return removed, nil
}

// CreateGenerator stores the single active generator for an isotope context.
// Any previous generator for the isotope is discarded.
func (tx *transaction) CreateGenerator(g Generator) (Generator, error) {
	if g.IsotopeID == "" {
		return Generator{}, fmt.Errorf("generator isotope id is required")
	}
	if g.ID == "" {
		g.ID = tx.store.newID()
	}
	if previous, exists := tx.state.generators[g.IsotopeID]; exists {
		tx.recordChange(Change{Entity: domain.EntityGenerator, Action: domain.ActionDelete, Before: cloneGenerator(previous)})
	}
	g.CreatedAt = tx.now
	g.UpdatedAt = tx.now
	if g.ReceivedAt.IsZero() {
		g.ReceivedAt = tx.now
	}
	tx.state.generators[g.IsotopeID] = cloneGenerator(g)
	tx.recordChange(Change{Entity: domain.EntityGenerator, Action: domain.ActionCreate, After: cloneGenerator(g)})
	return cloneGenerator(g), nil
}

// UpdateGenerator mutates the active generator for an isotope.
func (tx *transaction) UpdateGenerator(isotopeID string, mutator func(*Generator) error) (Generator, error) {
	current, ok := tx.state.generators[isotopeID]
	if !ok {
		return Generator{}, domain.UnknownEntityError{Entity: domain.EntityGenerator, ID: isotopeID}
	}
	before := cloneGenerator(current)
	if err := mutator(&current); err != nil {
		return Generator{}, err
	}
	current.IsotopeID = isotopeID
	current.UpdatedAt = tx.now
	tx.state.generators[isotopeID] = cloneGenerator(current)
	tx.recordChange(Change{Entity: domain.EntityGenerator, Action: domain.ActionUpdate, Before: before, After: cloneGenerator(current)})
	return cloneGenerator(current), nil
}

// DeleteGenerator removes the active generator for an isotope.
func (tx *transaction) DeleteGenerator(isotopeID string) error {
	current, ok := tx.state.generators[isotopeID]
	if !ok {
		return domain.UnknownEntityError{Entity: domain.EntityGenerator, ID: isotopeID}
	}
	delete(tx.state.generators, isotopeID)
	tx.recordChange(Change{Entity: domain.EntityGenerator, Action: domain.ActionDelete, Before: cloneGenerator(current)})
	return nil
}

// CreatePatientCase stores a new patient episode.
func (tx *transaction) CreatePatientCase(p PatientCase) (PatientCase, error) {
	if p.ID == "" {
		p.ID = tx.store.newID()
	}
	if _, exists := tx.state.patients[p.ID]; exists {
		return PatientCase{}, fmt.Errorf("patient case %q already exists", p.ID)
	}
	p.CreatedAt = tx.now
	p.UpdatedAt = tx.now
	if p.InjectedAt.IsZero() {
		p.InjectedAt = tx.now
	}
	tx.state.patients[p.ID] = clonePatient(p)
	tx.recordChange(Change{Entity: domain.EntityPatientCase, Action: domain.ActionCreate, After: clonePatient(p)})
	return clonePatient(p), nil
}

// UpdatePatientCase mutates a patient episode.
func (tx *transaction) UpdatePatientCase(id string, mutator func(*PatientCase) error) (PatientCase, error) {
	current, ok := tx.state.patients[id]
	if !ok {
		return PatientCase{}, domain.UnknownEntityError{Entity: domain.EntityPatientCase, ID: id}
	}
	before := clonePatient(current)
	if err := mutator(&current); err != nil {
		return PatientCase{}, err
	}
	current.ID = id
	current.UpdatedAt = tx.now
	tx.state.patients[id] = clonePatient(current)
	tx.recordChange(Change{Entity: domain.EntityPatientCase, Action: domain.ActionUpdate, Before: before, After: clonePatient(current)})
	return clonePatient(current), nil
}

// CreateRoomAssignment records room occupancy for a patient.
func (tx *transaction) CreateRoomAssignment(a RoomAssignment) (RoomAssignment, error) {
	if _, ok := tx.state.rooms[a.RoomID]; !ok {
		return RoomAssignment{}, domain.UnknownEntityError{Entity: domain.EntityRoom, ID: a.RoomID}
	}
	if occupant, exists := tx.state.assignments[a.RoomID]; exists {
		return RoomAssignment{}, domain.RoomUnavailableError{RoomID: a.RoomID, OccupantID: occupant.PatientID}
	}
	if a.StartedAt.IsZero() {
		a.StartedAt = tx.now
	}
	tx.state.assignments[a.RoomID] = cloneAssignment(a)
	tx.recordChange(Change{Entity: domain.EntityRoomAssignment, Action: domain.ActionCreate, After: cloneAssignment(a)})
	return cloneAssignment(a), nil
}

// DeleteRoomAssignment frees a room. Releasing an unoccupied room is a no-op
// because release is also invoked defensively during imaging transitions.
func (tx *transaction) DeleteRoomAssignment(roomID string) error {
	current, ok := tx.state.assignments[roomID]
	if !ok {
		return nil
	}
	delete(tx.state.assignments, roomID)
	tx.recordChange(Change{Entity: domain.EntityRoomAssignment, Action: domain.ActionDelete, Before: cloneAssignment(current)})
	return nil
}

// CreateImagingSession records imaging occupancy for a patient.
func (tx *transaction) CreateImagingSession(s ImagingSession) (ImagingSession, error) {
	if _, exists := tx.state.sessions[s.PatientID]; exists {
		return ImagingSession{}, fmt.Errorf("imaging session for patient %q already exists", s.PatientID)
	}
	if s.StartedAt.IsZero() {
		s.StartedAt = tx.now
	}
	tx.state.sessions[s.PatientID] = cloneSession(s)
	tx.recordChange(Change{Entity: domain.EntityImagingSession, Action: domain.ActionCreate, After: cloneSession(s)})
	return cloneSession(s), nil
}

// DeleteImagingSession removes a patient's imaging session.
func (tx *transaction) DeleteImagingSession(patientID string) error {
	current, ok := tx.state.sessions[patientID]
	if !ok {
		return domain.UnknownEntityError{Entity: domain.EntityImagingSession, ID: patientID}
	}
	delete(tx.state.sessions, patientID)
	tx.recordChange(Change{Entity: domain.EntityImagingSession, Action: domain.ActionDelete, Before: cloneSession(current)})
	return nil
}

// CreateAdditionalImagingRequest schedules a future re-scan.
func (tx *transaction) CreateAdditionalImagingRequest(r AdditionalImagingRequest) (AdditionalImagingRequest, error) {
	if _, exists := tx.state.additional[r.PatientID]; exists {
		return AdditionalImagingRequest{}, fmt.Errorf("additional imaging request for patient %q already exists", r.PatientID)
	}
	if r.AddedAt.IsZero() {
		r.AddedAt = tx.now
	}
	tx.state.additional[r.PatientID] = cloneAdditional(r)
	tx.recordChange(Change{Entity: domain.EntityAdditionalImaging, Action: domain.ActionCreate, After: cloneAdditional(r)})
	return cloneAdditional(r), nil
}

// DeleteAdditionalImagingRequest removes a scheduled re-scan.
func (tx *transaction) DeleteAdditionalImagingRequest(patientID string) error {
	current, ok := tx.state.additional[patientID]
	if !ok {
		return domain.UnknownEntityError{Entity: domain.EntityAdditionalImaging, ID: patientID}
	}
	delete(tx.state.additional, patientID)
	tx.recordChange(Change{Entity: domain.EntityAdditionalImaging, Action: domain.ActionDelete, Before: cloneAdditional(current)})
	return nil
}

// SetAlertFlags replaces the fired-threshold bitset for a patient.
func (tx *transaction) SetAlertFlags(patientID string, flags AlertFlags) error {
	if _, ok := tx.state.patients[patientID]; !ok {
		return domain.UnknownEntityError{Entity: domain.EntityPatientCase, ID: patientID}
	}
	tx.state.alertFlags[patientID] = flags
	return nil
}

// ClearAlertFlags drops the bitset for a patient; called on archive only.
func (tx *transaction) ClearAlertFlags(patientID string) error {
	delete(tx.state.alertFlags, patientID)
	return nil
}

// Transaction finders -------------------------------------------------------

func (tx *transaction) FindIsotope(id string) (Isotope, bool) {
	return view{state: &tx.state}.FindIsotope(id)
}

func (tx *transaction) FindVial(id string) (Vial, bool) {
	return view{state: &tx.state}.FindVial(id)
}

func (tx *transaction) FindGenerator(isotopeID string) (Generator, bool) {
	return view{state: &tx.state}.FindGenerator(isotopeID)
}

func (tx *transaction) FindWasteBin(id string) (WasteBin, bool) {
	return view{state: &tx.state}.FindWasteBin(id)
}

func (tx *transaction) FindPatientCase(id string) (PatientCase, bool) {
	return view{state: &tx.state}.FindPatientCase(id)
}

func (tx *transaction) FindRoom(id string) (Room, bool) {
	return view{state: &tx.state}.FindRoom(id)
}

func (tx *transaction) FindRoomAssignment(roomID string) (RoomAssignment, bool) {
	return view{state: &tx.state}.FindRoomAssignment(roomID)
}

func (tx *transaction) FindAssignmentForPatient(patientID string) (RoomAssignment, bool) {
	return view{state: &tx.state}.FindAssignmentForPatient(patientID)
}

func (tx *transaction) FindImagingSession(patientID string) (ImagingSession, bool) {
	return view{state: &tx.state}.FindImagingSession(patientID)
}

func (tx *transaction) FindAdditionalImagingRequest(patientID string) (AdditionalImagingRequest, bool) {
	return view{state: &tx.state}.FindAdditionalImagingRequest(patientID)
}

func (tx *transaction) AlertFlagsFor(patientID string) AlertFlags {
	return tx.state.alertFlags[patientID]
}

// View accessors -------------------------------------------------------------

func (v view) ListIsotopes() []Isotope {
	out := make([]Isotope, 0, len(v.state.isotopes))
	for _, i := range v.state.isotopes {
		out = append(out, cloneIsotope(i))
	}
	return out
}

func (v view) ListVials() []Vial {
	out := make([]Vial, 0, len(v.state.vials))
	for _, item := range v.state.vials {
		out = append(out, cloneVial(item))
	}
	return out
}

func (v view) ListGenerators() []Generator {
	out := make([]Generator, 0, len(v.state.generators))
	for _, g := range v.state.generators {
		out = append(out, cloneGenerator(g))
	}
	return out
}

func (v view) ListWasteBins() []WasteBin {
	out := make([]WasteBin, 0, len(v.state.wasteBins))
	for _, b := range v.state.wasteBins {
		out = append(out, cloneWasteBin(b))
	}
	return out
}

func (v view) ListWasteItems() []WasteItem {
	out := make([]WasteItem, 0, len(v.state.wasteItems))
	for _, w := range v.state.wasteItems {
		out = append(out, cloneWasteItem(w))
	}
	return out
}

func (v view) ListPatientCases() []PatientCase {
	out := make([]PatientCase, 0, len(v.state.patients))
	for _, p := range v.state.patients {
		out = append(out, clonePatient(p))
	}
	return out
}

func (v view) ListRooms() []Room {
	out := make([]Room, 0, len(v.state.rooms))
	for _, r := range v.state.rooms {
		out = append(out, cloneRoom(r))
	}
	return out
}

func (v view) ListRoomAssignments() []RoomAssignment {
	out := make([]RoomAssignment, 0, len(v.state.assignments))
	for _, a := range v.state.assignments {
		out = append(out, cloneAssignment(a))
	}
	return out
}

func (v view) ListImagingSessions() []ImagingSession {
	out := make([]ImagingSession, 0, len(v.state.sessions))
	for _, s := range v.state.sessions {
		out = append(out, cloneSession(s))
	}
	return out
}

func (v view) ListAdditionalImagingRequests() []AdditionalImagingRequest {
	out := make([]AdditionalImagingRequest, 0, len(v.state.additional))
	for _, r := range v.state.additional {
		out = append(out, cloneAdditional(r))
	}
	return out
}

func (v view) FindIsotope(id string) (Isotope, bool) {
	i, ok := v.state.isotopes[id]
	if !ok {
		return Isotope{}, false
	}
	return cloneIsotope(i), true
}

func (v view) FindVial(id string) (Vial, bool) {
	item, ok := v.state.vials[id]
	if !ok {
		return Vial{}, false
	}
	return cloneVial(item), true
}

func (v view) FindGenerator(isotopeID string) (Generator, bool) {
	g, ok := v.state.generators[isotopeID]
	if !ok {
		return Generator{}, false
	}
	return cloneGenerator(g), true
}

func (v view) FindWasteBin(id string) (WasteBin, bool) {
	b, ok := v.state.wasteBins[id]
	if !ok {
		return WasteBin{}, false
	}
	return cloneWasteBin(b), true
}

func (v view) FindPatientCase(id string) (PatientCase, bool) {
	p, ok := v.state.patients[id]
	if !ok {
		return PatientCase{}, false
	}
	return clonePatient(p), true
}

func (v view) FindRoom(id string) (Room, bool) {
	r, ok := v.state.rooms[id]
	if !ok {
		return Room{}, false
	}
	return cloneRoom(r), true
}

func (v view) FindRoomAssignment(roomID string) (RoomAssignment, bool) {
	a, ok := v.state.assignments[roomID]
	if !ok {
		return RoomAssignment{}, false
	}
	return cloneAssignment(a), true
}

func (v view) FindAssignmentForPatient(patientID string) (RoomAssignment, bool) {
	for _, a := range v.state.assignments {
		if a.PatientID == patientID {
			return cloneAssignment(a), true
		}
	}
	return RoomAssignment{}, false
}

func (v view) FindImagingSession(patientID string) (ImagingSession, bool) {
	s, ok := v.state.sessions[patientID]
	if !ok {
		return ImagingSession{}, false
	}
	return cloneSession(s), true
}

func (v view) FindAdditionalImagingRequest(patientID string) (AdditionalImagingRequest, bool) {
	r, ok := v.state.additional[patientID]
	if !ok {
		return AdditionalImagingRequest{}, false
	}
	return cloneAdditional(r), true
}

func (v view) AlertFlagsFor(patientID string) AlertFlags {
	return v.state.alertFlags[patientID]
}

// Committed-state read helpers ----------------------------------------------

// GetIsotope retrieves an isotope by ID from committed state.
func (s *Store) GetIsotope(id string) (Isotope, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return view{state: &s.state}.FindIsotope(id)
}

// ListIsotopes returns all isotope reference records.
func (s *Store) ListIsotopes() []Isotope {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return view{state: &s.state}.ListIsotopes()
}

// GetVial retrieves a vial by ID from committed state.
func (s *Store) GetVial(id string) (Vial, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return view{state: &s.state}.FindVial(id)
}

// ListVials returns all active vials.
func (s *Store) ListVials() []Vial {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return view{state: &s.state}.ListVials()
}

// GetGenerator retrieves the active generator for an isotope.
func (s *Store) GetGenerator(isotopeID string) (Generator, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return view{state: &s.state}.FindGenerator(isotopeID)
}

// ListGenerators returns all active generators.
func (s *Store) ListGenerators() []Generator {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return view{state: &s.state}.ListGenerators()
}

// GetWasteBin retrieves a waste bin by ID.
func (s *Store) GetWasteBin(id string) (WasteBin, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return view{state: &s.state}.FindWasteBin(id)
}

// ListWasteBins returns all waste bins.
func (s *Store) ListWasteBins() []WasteBin {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return view{state: &s.state}.ListWasteBins()
}

// ListWasteItems returns all waste items across bins.
func (s *Store) ListWasteItems() []WasteItem {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return view{state: &s.state}.ListWasteItems()
}

// GetPatientCase retrieves a patient episode by ID.
func (s *Store) GetPatientCase(id string) (PatientCase, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return view{state: &s.state}.FindPatientCase(id)
}

// ListPatientCases returns all patient episodes, archived included.
func (s *Store) ListPatientCases() []PatientCase {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return view{state: &s.state}.ListPatientCases()
}

// ListRooms returns the fixed room pool.
func (s *Store) ListRooms() []Room {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return view{state: &s.state}.ListRooms()
}

// ListRoomAssignments returns all current room assignments.
func (s *Store) ListRoomAssignments() []RoomAssignment {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return view{state: &s.state}.ListRoomAssignments()
}

// ListImagingSessions returns all active imaging sessions.
func (s *Store) ListImagingSessions() []ImagingSession {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return view{state: &s.state}.ListImagingSessions()
}

// ListAdditionalImagingRequests returns all pending re-scan requests.
func (s *Store) ListAdditionalImagingRequests() []AdditionalImagingRequest {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return view{state: &s.state}.ListAdditionalImagingRequests()
}
