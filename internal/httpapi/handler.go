// Package httpapi exposes the hot-lab core over HTTP. Handlers translate
// requests into service calls and typed domain errors into status codes; no
// domain logic lives here.
package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"hotlabcore/internal/blob"
	"hotlabcore/internal/core"
	"hotlabcore/pkg/domain"
)

// Handler bundles dependencies for the HTTP surface.
type Handler struct {
	service *core.Service
	archive blob.Store
	logger  *zap.Logger
}

// New constructs a Handler. The archive store is optional; without it the
// snapshot endpoint answers 503.
func New(service *core.Service, archive blob.Store, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{service: service, archive: archive, logger: logger}
}

// Router wires up the HTTP API.
func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", h.health)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/patients", func(r chi.Router) {
		r.Post("/", h.registerPatient)
		r.Get("/{id}/status", h.patientStatus)
		r.Post("/{id}/room", h.assignRoom)
		r.Delete("/{id}/room", h.releaseRoom)
		r.Post("/{id}/imaging/start", h.startImaging)
		r.Post("/{id}/imaging/finish", h.finishImaging)
		r.Post("/{id}/additional", h.requestAdditional)
		r.Delete("/{id}/additional", h.cancelAdditional)
	})

	r.Route("/rooms", func(r chi.Router) {
		r.Get("/", h.listRooms)
		r.Get("/available", h.availableRooms)
	})

	r.Route("/vials", func(r chi.Router) {
		r.Post("/", h.addVial)
		r.Get("/{id}/activity", h.vialActivity)
		r.Post("/{id}/dispose", h.disposeVial)
	})

	r.Get("/inventory/total", h.totalInventory)

	r.Route("/waste-bins", func(r chi.Router) {
		r.Post("/", h.addWasteBin)
		r.Get("/{id}", h.wasteBinSummary)
		r.Post("/{id}/empty", h.emptyWasteBin)
	})

	r.Get("/waste-items/{id}/ready-at", h.wasteItemReadyAt)

	r.Route("/generators", func(r chi.Router) {
		r.Post("/{isotopeID}", h.addGenerator)
		r.Delete("/{isotopeID}", h.removeGenerator)
		r.Post("/{isotopeID}/extractions", h.recordExtraction)
		r.Get("/{isotopeID}/available", h.accumulatedAvailable)
	})

	r.Post("/ticks", h.tick)
	r.Post("/snapshots", h.exportSnapshot)

	return r
}

func (h *Handler) health(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type registerPatientRequest struct {
	PatientName string `json:"patient_name"`
	Procedure   string `json:"procedure"`
	IsotopeID   string `json:"isotope_id"`
}

func (h *Handler) registerPatient(w http.ResponseWriter, r *http.Request) {
	var req registerPatientRequest
	if !h.decode(w, r, &req) {
		return
	}
	if req.PatientName == "" {
		respondError(w, http.StatusBadRequest, "patient_name is required")
		return
	}
	patient, _, err := h.service.RegisterPatient(r.Context(), core.PatientCase{
		PatientName: req.PatientName,
		Procedure:   req.Procedure,
		IsotopeID:   req.IsotopeID,
	})
	if err != nil {
		h.respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, patient)
}

func (h *Handler) patientStatus(w http.ResponseWriter, r *http.Request) {
	status, err := h.service.PatientStatus(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, status)
}

type assignRoomRequest struct {
	RoomID string `json:"room_id"`
}

func (h *Handler) assignRoom(w http.ResponseWriter, r *http.Request) {
	var req assignRoomRequest
	if !h.decode(w, r, &req) {
		return
	}
	assignment, _, err := h.service.AssignRoom(r.Context(), chi.URLParam(r, "id"), req.RoomID)
	if err != nil {
		h.respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, assignment)
}

func (h *Handler) releaseRoom(w http.ResponseWriter, r *http.Request) {
	if _, err := h.service.ReleaseRoom(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.respondDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) startImaging(w http.ResponseWriter, r *http.Request) {
	session, _, err := h.service.StartImaging(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, session)
}

type finishImagingRequest struct {
	NeedsAdditional  bool   `json:"needs_additional"`
	Region           string `json:"region"`
	ScheduledMinutes int    `json:"scheduled_minutes"`
}

func (h *Handler) finishImaging(w http.ResponseWriter, r *http.Request) {
	var req finishImagingRequest
	if !h.decode(w, r, &req) {
		return
	}
	_, err := h.service.FinishImaging(r.Context(), chi.URLParam(r, "id"), req.NeedsAdditional, req.Region, req.ScheduledMinutes)
	if err != nil {
		h.respondDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type additionalImagingRequest struct {
	Region           string `json:"region"`
	ScheduledMinutes int    `json:"scheduled_minutes"`
}

func (h *Handler) requestAdditional(w http.ResponseWriter, r *http.Request) {
	var req additionalImagingRequest
	if !h.decode(w, r, &req) {
		return
	}
	request, _, err := h.service.RequestAdditionalImaging(r.Context(), chi.URLParam(r, "id"), req.Region, req.ScheduledMinutes)
	if err != nil {
		h.respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, request)
}

func (h *Handler) cancelAdditional(w http.ResponseWriter, r *http.Request) {
	if _, err := h.service.CancelAdditionalImaging(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.respondDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) listRooms(w http.ResponseWriter, r *http.Request) {
	occupancies, err := h.service.RoomOccupancies(r.Context())
	if err != nil {
		h.respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, occupancies)
}

func (h *Handler) availableRooms(w http.ResponseWriter, r *http.Request) {
	rooms, err := h.service.AvailableRooms(r.Context())
	if err != nil {
		h.respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, rooms)
}

type addVialRequest struct {
	IsotopeID       string  `json:"isotope_id"`
	Label           string  `json:"label"`
	InitialActivity float64 `json:"initial_activity"`
	InitialVolume   float64 `json:"initial_volume"`
}

func (h *Handler) addVial(w http.ResponseWriter, r *http.Request) {
	var req addVialRequest
	if !h.decode(w, r, &req) {
		return
	}
	vial, _, err := h.service.AddVial(r.Context(), core.Vial{
		IsotopeID:       req.IsotopeID,
		Label:           req.Label,
		InitialActivity: req.InitialActivity,
		InitialVolume:   req.InitialVolume,
	})
	if err != nil {
		h.respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, vial)
}

func (h *Handler) vialActivity(w http.ResponseWriter, r *http.Request) {
	activity, err := h.service.VialActivity(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]float64{"activity": activity})
}

type disposeVialRequest struct {
	BinID string `json:"bin_id"`
}

func (h *Handler) disposeVial(w http.ResponseWriter, r *http.Request) {
	var req disposeVialRequest
	if !h.decode(w, r, &req) {
		return
	}
	item, _, err := h.service.DisposeVial(r.Context(), chi.URLParam(r, "id"), req.BinID)
	if err != nil {
		h.respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, item)
}

func (h *Handler) totalInventory(w http.ResponseWriter, r *http.Request) {
	total, err := h.service.TotalActiveInventory(r.Context(), r.URL.Query().Get("isotope_id"))
	if err != nil {
		h.respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]float64{"total_activity": total})
}

type addWasteBinRequest struct {
	Name string `json:"name"`
}

func (h *Handler) addWasteBin(w http.ResponseWriter, r *http.Request) {
	var req addWasteBinRequest
	if !h.decode(w, r, &req) {
		return
	}
	bin, _, err := h.service.AddWasteBin(r.Context(), core.WasteBin{Name: req.Name})
	if err != nil {
		h.respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, bin)
}

func (h *Handler) wasteBinSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.service.SummarizeWasteBin(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, summary)
}

func (h *Handler) emptyWasteBin(w http.ResponseWriter, r *http.Request) {
	removed, _, err := h.service.EmptyWasteBin(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]int{"removed": removed})
}

func (h *Handler) wasteItemReadyAt(w http.ResponseWriter, r *http.Request) {
	readyAt, err := h.service.WasteItemDisposalReadyAt(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"ready_at": readyAt})
}

type addGeneratorRequest struct {
	MeasuredActivity float64 `json:"measured_activity"`
	ExtractionVolume float64 `json:"extraction_volume"`
	Efficiency       float64 `json:"efficiency"`
}

func (h *Handler) addGenerator(w http.ResponseWriter, r *http.Request) {
	var req addGeneratorRequest
	if !h.decode(w, r, &req) {
		return
	}
	gen, vial, _, err := h.service.AddGenerator(r.Context(), chi.URLParam(r, "isotopeID"), req.MeasuredActivity, req.ExtractionVolume, req.Efficiency)
	if err != nil {
		h.respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, map[string]any{"generator": gen, "vial": vial})
}

func (h *Handler) removeGenerator(w http.ResponseWriter, r *http.Request) {
	if _, err := h.service.RemoveGenerator(r.Context(), chi.URLParam(r, "isotopeID")); err != nil {
		h.respondDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type recordExtractionRequest struct {
	MeasuredActivity float64 `json:"measured_activity"`
	ExtractionVolume float64 `json:"extraction_volume"`
}

func (h *Handler) recordExtraction(w http.ResponseWriter, r *http.Request) {
	var req recordExtractionRequest
	if !h.decode(w, r, &req) {
		return
	}
	vial, _, err := h.service.RecordExtraction(r.Context(), chi.URLParam(r, "isotopeID"), req.MeasuredActivity, req.ExtractionVolume)
	if err != nil {
		h.respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, vial)
}

func (h *Handler) accumulatedAvailable(w http.ResponseWriter, r *http.Request) {
	available, err := h.service.AccumulatedAvailable(r.Context(), chi.URLParam(r, "isotopeID"))
	if err != nil {
		h.respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]float64{"available_activity": available})
}

func (h *Handler) tick(w http.ResponseWriter, r *http.Request) {
	alerts, err := h.service.Tick(r.Context())
	if err != nil {
		h.respondDomainError(w, err)
		return
	}
	if alerts == nil {
		alerts = []core.Alert{}
	}
	respondJSON(w, http.StatusOK, alerts)
}

func (h *Handler) exportSnapshot(w http.ResponseWriter, r *http.Request) {
	if h.archive == nil {
		respondError(w, http.StatusServiceUnavailable, "no archive store configured")
		return
	}
	key, err := h.service.ExportInventorySnapshot(r.Context(), h.archive)
	if err != nil {
		h.respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, map[string]string{"key": key})
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON body")
		return false
	}
	return true
}

func (h *Handler) respondDomainError(w http.ResponseWriter, err error) {
	var (
		unknown      domain.UnknownEntityError
		invalid      domain.InvalidRequestError
		unavailable  domain.RoomUnavailableError
		precondition domain.ArithmeticPreconditionError
		violation    domain.RuleViolationError
	)
	switch {
	case errors.As(err, &unknown):
		respondError(w, http.StatusNotFound, unknown.Error())
	case errors.As(err, &invalid):
		respondError(w, http.StatusBadRequest, invalid.Error())
	case errors.As(err, &unavailable):
		respondError(w, http.StatusConflict, unavailable.Error())
	case errors.As(err, &precondition):
		respondError(w, http.StatusUnprocessableEntity, precondition.Error())
	case errors.As(err, &violation):
		respondError(w, http.StatusConflict, violation.Error())
	default:
		h.logger.Error("unhandled request error", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "internal error")
	}
}

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	encoder := json.NewEncoder(w)
	encoder.SetEscapeHTML(false)
	_ = encoder.Encode(payload)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}
