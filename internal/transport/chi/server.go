package chi

import (
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/refdex/internal/domain"
	"github.com/kailas-cloud/refdex/internal/metrics"
	healthuc "github.com/kailas-cloud/refdex/internal/usecase/health"
	"github.com/kailas-cloud/refdex/internal/usecase/query"
	searchuc "github.com/kailas-cloud/refdex/internal/usecase/search"
	"github.com/kailas-cloud/refdex/internal/version"
)

// DefaultMaxUploadBytes bounds the search request body when no limit is configured.
const DefaultMaxUploadBytes = 16 << 20

// Server serves the refdex HTTP API.
type Server struct {
	search         *searchuc.Service
	health         *healthuc.Service
	logger         *zap.Logger
	maxUploadBytes int64
	errorHandlers  []errorHandler
}

// NewServer creates an HTTP API server. maxUploadBytes <= 0 selects DefaultMaxUploadBytes.
func NewServer(
	search *searchuc.Service,
	health *healthuc.Service,
	logger *zap.Logger,
	maxUploadBytes int64,
) *Server {
	if maxUploadBytes <= 0 {
		maxUploadBytes = DefaultMaxUploadBytes
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{
		search:         search,
		health:         health,
		logger:         logger,
		maxUploadBytes: maxUploadBytes,
		errorHandlers:  defaultErrorHandlers(),
	}
}

// Routes mounts the API on r.
func (s *Server) Routes(r chi.Router) {
	r.Get("/health", s.HealthCheck)
	r.Get("/metrics", s.Metrics)
	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/search", s.Search)
		r.Get("/results", s.ViewResults)
		r.Get("/categories", s.ListCategories)
		r.Get("/categories/{category}", s.ViewCategory)
		r.Get("/categories/{category}/items/{label}", s.ViewItem)
	})
}

// Search handles POST /api/v1/search.
func (s *Server) Search(w http.ResponseWriter, r *http.Request) {
	if r.ContentLength > 0 {
		metrics.UploadBytes.Observe(float64(r.ContentLength))
	}
	if r.ContentLength > s.maxUploadBytes {
		writeError(w, http.StatusRequestEntityTooLarge, codeFileTooLarge, "The uploaded file is too large")
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUploadBytes)

	raw, err := s.readSearchForm(r)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, codeFileTooLarge, "The uploaded file is too large")
			return
		}
		writeError(w, http.StatusBadRequest, codeBadRequest, "Malformed form data")
		return
	}

	handle, err := s.search.Search(r.Context(), raw)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, searchResponse{ResultsID: handle})
}

// readSearchForm parses a multipart or urlencoded search form.
func (s *Server) readSearchForm(r *http.Request) (query.Raw, error) {
	err := r.ParseMultipartForm(min(s.maxUploadBytes, 32<<20))
	if errors.Is(err, http.ErrNotMultipart) {
		err = r.ParseForm()
	}
	if err != nil {
		return query.Raw{}, err
	}

	raw := query.Raw{
		Text:          r.FormValue("text"),
		TextFilter:    formBool(r.FormValue("text_filter")),
		IncludeDigits: formBool(r.FormValue("include_digits")),
	}

	if r.MultipartForm == nil {
		return raw, nil
	}
	file, header, err := r.FormFile("file")
	switch {
	case err == nil:
		data, readErr := io.ReadAll(file)
		_ = file.Close()
		raw.Image = &query.Upload{Filename: header.Filename, Data: data, ReadErr: readErr}
	case errors.Is(err, http.ErrMissingFile):
		// Browsers send an unselected file input as a part without filename,
		// which lands in the value map.
		if _, ok := r.MultipartForm.Value["file"]; ok {
			raw.Image = &query.Upload{}
		}
	default:
		raw.Image = &query.Upload{ReadErr: err}
	}
	return raw, nil
}

// ViewResults handles GET /api/v1/results.
func (s *Server) ViewResults(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	var errs domain.Errors
	id, err := resultsIDParam(q, true)
	if err != nil {
		errs = append(errs, err)
	}
	page, err := pageParam(q)
	if err != nil {
		errs = append(errs, err)
	}
	if err := errs.Err(); err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	p, err := s.search.ViewResults(r.Context(), id, page)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	resp := pageToResponse(p, s.search.Catalog())
	resp.ResultsID = id
	writeJSON(w, http.StatusOK, resp)
}

// ListCategories handles GET /api/v1/categories.
func (s *Server) ListCategories(w http.ResponseWriter, _ *http.Request) {
	cat := s.search.Catalog()
	names := cat.Categories()
	out := make([]categoryResponse, len(names))
	for i, name := range names {
		items, _ := cat.Category(name)
		out[i] = categoryResponse{Name: name, Items: len(items)}
	}
	writeJSON(w, http.StatusOK, out)
}

// ViewCategory handles GET /api/v1/categories/{category}.
func (s *Server) ViewCategory(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	var errs domain.Errors
	category, err := pathParam(r, "category", codeMissingCategoryID, "Category is required")
	if err != nil {
		errs = append(errs, err)
	}
	id, err := resultsIDParam(q, false)
	if err != nil {
		errs = append(errs, err)
	}
	page, err := pageParam(q)
	if err != nil {
		errs = append(errs, err)
	}
	if len(errs) > 0 {
		// report an unknown category together with the parameter errors
		if category != "" && !s.search.Catalog().HasCategory(category) {
			errs = append(errs, domain.NewNotFound(domain.ReasonUnknownCategory, category))
		}
		s.handleDomainError(w, r, errs.Err())
		return
	}

	p, err := s.search.ViewCategory(r.Context(), category, page, id)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	resp := pageToResponse(p, s.search.Catalog())
	resp.ResultsID = id
	resp.Category = category
	writeJSON(w, http.StatusOK, resp)
}

// ViewItem handles GET /api/v1/categories/{category}/items/{label}.
func (s *Server) ViewItem(w http.ResponseWriter, r *http.Request) {
	var errs domain.Errors
	category, err := pathParam(r, "category", codeMissingCategoryID, "Category is required")
	if err != nil {
		errs = append(errs, err)
	}
	label, err := pathParam(r, "label", codeMissingItemID, "Item is required")
	if err != nil {
		errs = append(errs, err)
	}
	if err := errs.Err(); err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	item, err := s.search.ViewItem(r.Context(), category, label)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, itemToResponse(item))
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}

	status := http.StatusOK
	if report.Status == healthuc.Unhealthy {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, healthResponse{
		Status:  string(report.Status),
		Checks:  checks,
		Version: version.Version,
	})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}
