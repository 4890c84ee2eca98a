package core

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"hotlabcore/internal/blob"
)

// ArchivedEpisode is the immutable record written out when a patient case
// completes. It captures the case as committed; nothing in it is re-derived
// later.
type ArchivedEpisode struct {
	Episode    PatientCase `json:"episode"`
	ArchivedAt time.Time   `json:"archived_at"`
}

// EpisodeArchiver receives completed episodes after the closing transaction
// commits. Failures are logged by the core, never retried, and never unwind
// the completed case.
type EpisodeArchiver interface {
	ArchiveEpisode(ctx context.Context, episode ArchivedEpisode) error
}

func (s *Service) archiveEpisode(ctx context.Context, episode PatientCase) {
	if s.archiver == nil {
		return
	}
	record := ArchivedEpisode{Episode: episode, ArchivedAt: s.now()}
	if err := s.archiver.ArchiveEpisode(ctx, record); err != nil {
		s.logger.Warn("episode archive failed",
			zap.String("patient_id", episode.ID),
			zap.Error(err),
		)
	}
}

// BlobEpisodeArchiver writes completed episodes as JSON objects into an
// archive store, one object per episode.
type BlobEpisodeArchiver struct {
	store blob.Store
}

// NewBlobEpisodeArchiver wraps an archive store.
func NewBlobEpisodeArchiver(store blob.Store) *BlobEpisodeArchiver {
	return &BlobEpisodeArchiver{store: store}
}

// ArchiveEpisode serialises the record under episodes/<date>/<uuid>.json.
func (a *BlobEpisodeArchiver) ArchiveEpisode(ctx context.Context, episode ArchivedEpisode) error {
	payload, err := json.MarshalIndent(episode, "", "  ")
	if err != nil {
		return err
	}
	key := fmt.Sprintf("episodes/%s/%s.json", episode.ArchivedAt.UTC().Format("2006-01-02"), uuid.NewString())
	_, err = a.store.Put(ctx, key, bytes.NewReader(payload), "application/json")
	return err
}

// InventorySnapshot is a point-in-time export of the hot-lab inventory,
// written alongside episode archives for audit.
type InventorySnapshot struct {
	TakenAt    time.Time   `json:"taken_at"`
	Isotopes   []Isotope   `json:"isotopes"`
	Vials      []Vial      `json:"vials"`
	Generators []Generator `json:"generators"`
	WasteBins  []WasteBin  `json:"waste_bins"`
	WasteItems []WasteItem `json:"waste_items"`
}

// ExportInventorySnapshot serialises the current inventory into the archive
// store under snapshots/<timestamp>.json and returns the object key.
func (s *Service) ExportInventorySnapshot(ctx context.Context, store blob.Store) (string, error) {
	start := time.Now()
	snapshot := InventorySnapshot{TakenAt: s.now()}
	err := s.store.View(ctx, func(view TransactionView) error {
		snapshot.Isotopes = view.ListIsotopes()
		snapshot.Vials = view.ListVials()
		snapshot.Generators = view.ListGenerators()
		snapshot.WasteBins = view.ListWasteBins()
		snapshot.WasteItems = view.ListWasteItems()
		return nil
	})
	if err != nil {
		s.observe(ctx, "export_inventory_snapshot", start, err)
		return "", err
	}
	payload, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		s.observe(ctx, "export_inventory_snapshot", start, err)
		return "", err
	}
	key := fmt.Sprintf("snapshots/%s.json", snapshot.TakenAt.UTC().Format("20060102T150405Z"))
	_, err = store.Put(ctx, key, bytes.NewReader(payload), "application/json")
	s.observe(ctx, "export_inventory_snapshot", start, err)
	if err != nil {
		return "", err
	}
	return key, nil
}
