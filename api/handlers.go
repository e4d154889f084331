/*
handlers.go - HTTP request handlers for the utilization API

PURPOSE:
  Implements the REST API. Every read endpoint loads the latest import of
  each source table from the store, normalizes it under the active profile
  and reconciles on demand. Nothing computed is persisted.

ENDPOINTS:
  Employees:
    GET  /api/employees                 - Everyone with a contract or timesheet row
    GET  /api/employees/{name}/report   - Full report bundle for one employee
    GET  /api/employees/{name}/monthly  - Monthly hours trend by category

  Reports:
    GET  /api/reports                   - Reports for every employee
    GET  /api/rejected                  - Rows dropped by the normalizers

  Tables:
    POST /api/tables/{table}            - Upload a CSV/XLSX export (multipart "file")
    GET  /api/imports                   - Import run history
    GET  /api/imports/{id}              - One import run

  Profiles:
    GET  /api/profiles                  - Built-in and stored profiles
    POST /api/profiles                  - Store (and optionally activate) a profile
    GET  /api/profiles/{id}             - One profile

QUERY PARAMETERS (read endpoints):
  cutoff=YYYY-MM-DD   Overrides the profile cutoff
  profile=<id>        Uses a stored or built-in profile for this request

ERROR RESPONSES:
  400: Invalid input (bad table name, malformed profile, bad cutoff)
  404: Resource not found (unknown employee, table never imported)
  500: Internal error (database failure)

  Error format: {"error": "message", "details": "..."}

SEE ALSO:
  - server.go: Route definitions
  - dto.go: Request/response types
  - utilization/report.go: Prepare, Dataset.Report, Dataset.ComputeAll
*/
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/samber/lo"
	"github.com/warp/utilization-engine/calendar"
	"github.com/warp/utilization-engine/factory"
	"github.com/warp/utilization-engine/generic"
	"github.com/warp/utilization-engine/ingest"
	"github.com/warp/utilization-engine/store/sqlite"
	"github.com/warp/utilization-engine/utilization"
)

// maxUploadBytes bounds a multipart table upload.
const maxUploadBytes = 32 << 20

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Store          *sqlite.Store
	ProfileFactory *factory.ProfileFactory
	Logger         *slog.Logger

	// Now supplies the wall clock used to resolve an unset cutoff.
	Now func() time.Time

	mu              sync.RWMutex
	profile         utilization.Config
	currentScenario string
}

// NewHandler creates a handler that computes under profile until another
// one is activated.
func NewHandler(store *sqlite.Store, profile utilization.Config, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		Store:          store,
		ProfileFactory: factory.NewProfileFactory(),
		Logger:         logger,
		Now:            time.Now,
		profile:        profile,
	}
}

// ActiveProfile returns the profile used when a request names none.
func (h *Handler) ActiveProfile() utilization.Config {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.profile
}

func (h *Handler) setActiveProfile(cfg utilization.Config) {
	h.mu.Lock()
	h.profile = cfg
	h.mu.Unlock()
}

// requestConfig picks the profile and cutoff for a request and resolves it
// against the clock.
func (h *Handler) requestConfig(r *http.Request) (utilization.Config, error) {
	cfg := h.ActiveProfile()

	if id := r.URL.Query().Get("profile"); id != "" {
		found, err := h.lookupProfile(r.Context(), id)
		if err != nil {
			return utilization.Config{}, err
		}
		cfg = found
	}

	if s := r.URL.Query().Get("cutoff"); s != "" {
		cutoff, err := calendar.ParseDate(s)
		if err != nil {
			return utilization.Config{}, fmt.Errorf("%w: cutoff %q: %v", generic.ErrDataFormat, s, err)
		}
		cfg = cfg.WithCutoff(cutoff)
	}

	return cfg.Resolve(h.Now()), nil
}

// lookupProfile finds a stored profile, falling back to the built-in presets.
func (h *Handler) lookupProfile(ctx context.Context, id string) (utilization.Config, error) {
	record, err := h.Store.GetProfile(ctx, id)
	if err != nil {
		return utilization.Config{}, err
	}
	if record != nil {
		return h.ProfileFactory.ParseProfile(record.ConfigJSON)
	}
	cfg, err := h.ProfileFactory.Preset(id)
	if err != nil {
		return utilization.Config{}, fmt.Errorf("%w: profile %q", errProfileNotFound, id)
	}
	return cfg, nil
}

var errProfileNotFound = errors.New("profile not found")

// dataset loads the latest tables and normalizes them under the request's
// profile.
func (h *Handler) dataset(r *http.Request) (*utilization.Dataset, error) {
	cfg, err := h.requestConfig(r)
	if err != nil {
		return nil, err
	}

	latest, err := h.Store.LoadLatest(r.Context())
	if err != nil {
		return nil, err
	}

	start := time.Now()
	ds, err := utilization.Prepare(utilization.TablesFrom(latest), cfg, h.Logger)
	if err != nil {
		return nil, err
	}
	ComputeDuration.WithLabelValues("prepare").Observe(time.Since(start).Seconds())

	for _, rej := range ds.Rejected {
		RowsRejected.WithLabelValues(string(rej.Table)).Inc()
	}
	return ds, nil
}

// employeeParam returns the {name} URL parameter, unescaped.
func employeeParam(r *http.Request) string {
	raw := chi.URLParam(r, "name")
	if name, err := url.PathUnescape(raw); err == nil {
		return generic.CleanName(name)
	}
	return generic.CleanName(raw)
}

// findEmployee matches name against the dataset's employees, ignoring case
// and spacing.
func findEmployee(ds *utilization.Dataset, name string) (string, bool) {
	key := generic.NameKey(name)
	return lo.Find(ds.Employees(), func(e string) bool { return generic.NameKey(e) == key })
}

// =============================================================================
// EMPLOYEE HANDLERS
// =============================================================================

// ListEmployees returns everyone with a contract or a timesheet entry.
func (h *Handler) ListEmployees(w http.ResponseWriter, r *http.Request) {
	ds, err := h.dataset(r)
	if err != nil {
		writeDomainError(w, "Failed to load dataset", err)
		return
	}

	offices := make(map[string]string)
	for _, c := range ds.Contracts {
		key := generic.NameKey(c.Employee)
		if offices[key] == "" {
			offices[key] = c.Office
		}
	}

	dtos := lo.Map(ds.Employees(), func(name string, _ int) EmployeeDTO {
		return EmployeeDTO{Name: name, Office: offices[generic.NameKey(name)]}
	})
	writeJSON(w, http.StatusOK, dtos)
}

// GetReport returns the full report bundle for one employee.
func (h *Handler) GetReport(w http.ResponseWriter, r *http.Request) {
	ds, err := h.dataset(r)
	if err != nil {
		writeDomainError(w, "Failed to load dataset", err)
		return
	}

	name, ok := findEmployee(ds, employeeParam(r))
	if !ok {
		writeError(w, http.StatusNotFound, "Employee not found", nil)
		return
	}

	start := time.Now()
	report := ds.Report(name)
	ComputeDuration.WithLabelValues("report").Observe(time.Since(start).Seconds())
	ReportsComputed.WithLabelValues(ds.Config.Profile).Inc()

	writeJSON(w, http.StatusOK, ToReportDTO(report, ds.Config.Profile))
}

// GetMonthly returns the employee's settled hours by month and category.
func (h *Handler) GetMonthly(w http.ResponseWriter, r *http.Request) {
	ds, err := h.dataset(r)
	if err != nil {
		writeDomainError(w, "Failed to load dataset", err)
		return
	}

	name, ok := findEmployee(ds, employeeParam(r))
	if !ok {
		writeError(w, http.StatusNotFound, "Employee not found", nil)
		return
	}

	report := ds.Report(name)
	writeJSON(w, http.StatusOK, MonthlyDTO{Employee: name, Months: toMonthDTOs(report.Monthly)})
}

// =============================================================================
// REPORT HANDLERS
// =============================================================================

// ListReports reconciles every employee.
func (h *Handler) ListReports(w http.ResponseWriter, r *http.Request) {
	ds, err := h.dataset(r)
	if err != nil {
		writeDomainError(w, "Failed to load dataset", err)
		return
	}

	start := time.Now()
	reports, err := ds.ComputeAll(r.Context())
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, "Report computation cancelled", err)
		return
	}
	ComputeDuration.WithLabelValues("compute_all").Observe(time.Since(start).Seconds())
	ReportsComputed.WithLabelValues(ds.Config.Profile).Add(float64(len(reports)))

	dtos := lo.Map(reports, func(rep utilization.Report, _ int) ReportDTO {
		return ToReportDTO(rep, ds.Config.Profile)
	})
	writeJSON(w, http.StatusOK, dtos)
}

// ListRejected returns the rows the normalizers dropped from the latest
// imports.
func (h *Handler) ListRejected(w http.ResponseWriter, r *http.Request) {
	ds, err := h.dataset(r)
	if err != nil {
		writeDomainError(w, "Failed to load dataset", err)
		return
	}
	writeJSON(w, http.StatusOK, toRejectedRowDTOs(ds.Rejected))
}

// =============================================================================
// TABLE HANDLERS
// =============================================================================

// UploadTable stores an uploaded CSV or XLSX export as a new import run.
func (h *Handler) UploadTable(w http.ResponseWriter, r *http.Request) {
	name, err := generic.ParseTableName(chi.URLParam(r, "table"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Unknown table", err)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "Missing file upload", err)
		return
	}
	defer file.Close()

	table, err := ingest.ReadTable(name, file, header.Filename)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Failed to read table", err)
		return
	}

	run, err := h.Store.ImportTable(r.Context(), table, header.Filename)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to store table", err)
		return
	}

	TablesImported.WithLabelValues(string(name)).Inc()
	RowsImported.WithLabelValues(string(name)).Add(float64(run.Rows))
	h.Logger.Info("table imported", "table", name, "source", run.Source, "rows", run.Rows, "run_id", run.ID)

	writeJSON(w, http.StatusCreated, toImportRunDTO(run))
}

// ListImports returns import runs, newest first. ?limit=N bounds the list.
func (h *Handler) ListImports(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if s := r.URL.Query().Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "Invalid limit", err)
			return
		}
		limit = n
	}

	runs, err := h.Store.ListRuns(r.Context(), limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list imports", err)
		return
	}

	writeJSON(w, http.StatusOK, lo.Map(runs, func(run generic.ImportRun, _ int) ImportRunDTO {
		return toImportRunDTO(run)
	}))
}

// GetImport handles GET /api/imports/{id}
func (h *Handler) GetImport(w http.ResponseWriter, r *http.Request) {
	run, err := h.Store.GetRun(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, "Import run not found", err)
		return
	}
	writeJSON(w, http.StatusOK, toImportRunDTO(run))
}

// =============================================================================
// PROFILE HANDLERS
// =============================================================================

// ListProfiles returns the built-in presets followed by stored profiles.
func (h *Handler) ListProfiles(w http.ResponseWriter, r *http.Request) {
	active := h.ActiveProfile().Profile

	dtos := make([]ProfileDTO, 0)
	for _, id := range factory.PresetNames() {
		cfg, err := h.ProfileFactory.Preset(id)
		if err != nil {
			continue
		}
		dtos = append(dtos, ProfileDTO{
			ID:      id,
			Name:    id,
			Config:  h.ProfileFactory.ToJSON(cfg),
			Version: cfg.Version,
			Builtin: true,
			Active:  id == active,
		})
	}

	records, err := h.Store.ListProfiles(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list profiles", err)
		return
	}
	for _, p := range records {
		dtos = append(dtos, toProfileDTO(p, active))
	}

	writeJSON(w, http.StatusOK, dtos)
}

// CreateProfile validates and stores a profile. With "activate" set it
// becomes the default for subsequent requests.
func (h *Handler) CreateProfile(w http.ResponseWriter, r *http.Request) {
	var req CreateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.Config.ID == "" {
		writeError(w, http.StatusBadRequest, "Profile id is required", nil)
		return
	}

	cfg, err := h.ProfileFactory.FromJSON(req.Config)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid profile configuration", err)
		return
	}

	configJSON, err := json.Marshal(req.Config)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to encode profile", err)
		return
	}

	name := req.Config.Name
	if name == "" {
		name = req.Config.ID
	}
	if err := h.Store.SaveProfile(r.Context(), sqlite.ProfileRecord{
		ID:         req.Config.ID,
		Name:       name,
		ConfigJSON: string(configJSON),
	}); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save profile", err)
		return
	}

	if req.Activate {
		h.setActiveProfile(cfg)
	}

	record, err := h.Store.GetProfile(r.Context(), req.Config.ID)
	if err != nil || record == nil {
		writeError(w, http.StatusInternalServerError, "Failed to reload profile", err)
		return
	}
	writeJSON(w, http.StatusCreated, toProfileDTO(*record, h.ActiveProfile().Profile))
}

// GetProfile returns one stored or built-in profile.
func (h *Handler) GetProfile(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	active := h.ActiveProfile().Profile

	record, err := h.Store.GetProfile(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get profile", err)
		return
	}
	if record != nil {
		writeJSON(w, http.StatusOK, toProfileDTO(*record, active))
		return
	}

	cfg, err := h.ProfileFactory.Preset(id)
	if err != nil {
		writeError(w, http.StatusNotFound, "Profile not found", nil)
		return
	}
	writeJSON(w, http.StatusOK, ProfileDTO{
		ID:      id,
		Name:    id,
		Config:  h.ProfileFactory.ToJSON(cfg),
		Version: cfg.Version,
		Builtin: true,
		Active:  id == active,
	})
}

func toProfileDTO(p sqlite.ProfileRecord, active string) ProfileDTO {
	var config factory.ProfileJSON
	_ = json.Unmarshal([]byte(p.ConfigJSON), &config)
	return ProfileDTO{
		ID:        p.ID,
		Name:      p.Name,
		Config:    config,
		Version:   p.Version,
		Active:    p.ID == active,
		CreatedAt: p.CreatedAt.Format(time.RFC3339),
	}
}

// ResetDatabase clears every import run and stored profile.
func (h *Handler) ResetDatabase(w http.ResponseWriter, r *http.Request) {
	if err := h.Store.Reset(r.Context()); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to reset database", err)
		return
	}

	h.mu.Lock()
	h.currentScenario = ""
	h.mu.Unlock()

	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// =============================================================================
// HELPERS
// =============================================================================

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

// writeDomainError maps engine and store errors to a status code.
func writeDomainError(w http.ResponseWriter, message string, err error) {
	switch {
	case generic.IsClientError(err):
		writeError(w, http.StatusBadRequest, message, err)
	case generic.IsNotFound(err), errors.Is(err, errProfileNotFound):
		writeError(w, http.StatusNotFound, message, err)
	default:
		writeError(w, http.StatusInternalServerError, message, err)
	}
}
