package chi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/b2bsearch/internal/domain"
	"github.com/kailas-cloud/b2bsearch/internal/domain/catalog"
	"github.com/kailas-cloud/b2bsearch/internal/domain/flags"
	domprof "github.com/kailas-cloud/b2bsearch/internal/domain/profile"
	"github.com/kailas-cloud/b2bsearch/internal/domain/search/request"
	"github.com/kailas-cloud/b2bsearch/internal/logger"
	healthuc "github.com/kailas-cloud/b2bsearch/internal/usecase/health"
	searchuc "github.com/kailas-cloud/b2bsearch/internal/usecase/search"
)

// maxBodyBytes caps request bodies.
const maxBodyBytes = 1 << 20

// SearchService is what the handlers need from the search use case.
type SearchService interface {
	Defaults() flags.FlagSet
	Search(ctx context.Context, req *request.Request) (searchuc.Response, error)
	Suggest(ctx context.Context, text string, size int) ([]catalog.Suggestion, error)
	Product(ctx context.Context, id string) (catalog.Document, error)
	Stats(ctx context.Context, vendors, categories int) (catalog.Stats, error)
}

// ProfileService is what the handlers need from the profile use case.
type ProfileService interface {
	Profile(userID string) (domprof.UserProfile, error)
	Rebuild(ctx context.Context) (domprof.Stats, error)
}

// HealthService reports component health.
type HealthService interface {
	Check(ctx context.Context) healthuc.Report
}

// Limits are the configured search page sizes.
type Limits struct {
	DefaultSize int
	MaxSize     int
}

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

// Server implements ServerInterface.
type Server struct {
	search        SearchService
	profiles      ProfileService
	health        HealthService
	limits        Limits
	logger        *zap.Logger
	now           func() time.Time
	errorHandlers []errorHandler
}

var _ ServerInterface = (*Server)(nil)

// NewServer creates an HTTP API server.
func NewServer(
	search SearchService,
	profiles ProfileService,
	health HealthService,
	limits Limits,
	l *zap.Logger,
) *Server {
	if l == nil {
		l = zap.NewNop()
	}
	s := &Server{
		search:   search,
		profiles: profiles,
		health:   health,
		limits:   limits,
		logger:   l,
		now:      time.Now,
	}
	s.errorHandlers = []errorHandler{
		validationHandler,
		retrievalHandler,
		sentinelHandler(domain.ErrSearchDisabled, http.StatusServiceUnavailable, ErrorResponseCodeSearchDisabled),
		sentinelHandler(domain.ErrNotFound, http.StatusNotFound, ErrorResponseCodeNotFound),
	}
	return s
}

// Search handles POST /search.
func (s *Server) Search(w http.ResponseWriter, r *http.Request) {
	// A disabled service answers 503 whatever the body holds.
	if !s.search.Defaults().SearchEnabled {
		s.handleDomainError(w, r, domain.ErrSearchDisabled)
		return
	}

	var body SearchRequest
	if err := decodeBody(w, r, &body); err != nil {
		writeError(w, http.StatusBadRequest, ErrorResponseCodeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	req, err := searchRequestFromBody(&body, s.limits)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	ctx, usage := domain.NewContextWithUsage(r.Context())
	resp, err := s.search.Search(ctx, &req)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	out, err := searchResponseToBody(&resp)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	logger.FromContextOr(ctx, s.logger).Debug("search served",
		zap.String("strategy", string(resp.Flags.Strategy)),
		zap.Int64("total", resp.Total.Value),
		zap.Int("hits", len(resp.Hits)),
		zap.Any("signals", resp.Signals),
	)
	setEmbeddingHeaders(w, usage)
	writeJSON(w, http.StatusOK, out)
}

// Suggest handles POST /search/suggestions.
func (s *Server) Suggest(w http.ResponseWriter, r *http.Request) {
	if !s.search.Defaults().SearchEnabled {
		s.handleDomainError(w, r, domain.ErrSearchDisabled)
		return
	}

	var body SuggestionsRequest
	if err := decodeBody(w, r, &body); err != nil {
		writeError(w, http.StatusBadRequest, ErrorResponseCodeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	size := 0
	if body.Size != nil {
		size = *body.Size
		if size == 0 {
			s.handleDomainError(w, r, domain.NewValidationError("size", "must be positive"))
			return
		}
	}

	out, err := s.search.Suggest(r.Context(), body.Query, size)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// GetProduct handles GET /search/product/{id}.
func (s *Server) GetProduct(w http.ResponseWriter, r *http.Request, id string) {
	doc, err := s.search.Product(r.Context(), id)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	out, err := withFields(doc.Source, map[string]any{"id": doc.ID})
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// GetStats handles GET /search/stats.
func (s *Server) GetStats(w http.ResponseWriter, r *http.Request, params StatsParams) {
	vendors, categories := 0, 0
	if params.Vendors != nil {
		vendors = *params.Vendors
	}
	if params.Categories != nil {
		categories = *params.Categories
	}

	st, err := s.search.Stats(r.Context(), vendors, categories)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

// GetProfile handles GET /profiles/{userId}.
func (s *Server) GetProfile(w http.ResponseWriter, r *http.Request, userID string) {
	p, err := s.profiles.Profile(userID)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// RebuildProfiles handles POST /profiles/rebuild.
func (s *Server) RebuildProfiles(w http.ResponseWriter, r *http.Request) {
	st, err := s.profiles.Rebuild(r.Context())
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())
	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}

	httpStatus := http.StatusOK
	if report.Status == healthuc.Unhealthy {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, HealthResponse{
		Status:       string(report.Status),
		Checks:       checks,
		FeatureFlags: s.search.Defaults(),
		Timestamp:    s.now().UTC().Format(time.RFC3339),
	})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

// WriteBindError is the ChiServerOptions.ErrorHandlerFunc for parameter binding failures.
func WriteBindError(w http.ResponseWriter, _ *http.Request, err error) {
	msg := "invalid request"
	var pe *InvalidParamFormatError
	if errors.As(err, &pe) {
		msg = fmt.Sprintf("invalid parameter %s", pe.ParamName)
	}
	writeError(w, http.StatusBadRequest, ErrorResponseCodeBadRequest, msg)
}

// decodeBody reads one JSON object and rejects unknown fields and trailing data.
// An empty body decodes as an empty object.
func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return err //nolint:wrapcheck // reported to the client as-is
	}
	if dec.More() {
		return errors.New("unexpected data after JSON object")
	}
	return nil
}

func setEmbeddingHeaders(w http.ResponseWriter, usage *domain.EmbeddingUsage) {
	if usage.Used() {
		w.Header().Set("X-Embedding-Tokens", strconv.Itoa(usage.Tokens()))
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code ErrorResponseCode, message string) {
	writeJSON(w, status, ErrorResponse{
		Code:    code,
		Message: message,
	})
}

// safeDomainMessage returns a sentinel error message for the client without exposing internals.
func safeDomainMessage(err error) string {
	sentinels := []error{
		domain.ErrSearchDisabled,
		domain.ErrRetrievalFailed,
		domain.ErrNotFound,
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "internal error"
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, code ErrorResponseCode) errorHandler {
	return func(w http.ResponseWriter, err error, msg string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, msg)
		return true
	}
}

// validationHandler reports the rejected field and reason.
func validationHandler(w http.ResponseWriter, err error, _ string) bool {
	var ve *domain.ValidationError
	if !errors.As(err, &ve) {
		return false
	}
	writeJSON(w, http.StatusBadRequest, ErrorResponse{
		Code:    ErrorResponseCodeValidationFailed,
		Message: ve.Error(),
		Field:   ve.Field,
	})
	return true
}

// retrievalHandler maps backend failures to 502, or 504 on timeout.
func retrievalHandler(w http.ResponseWriter, err error, msg string) bool {
	if !errors.Is(err, domain.ErrRetrievalFailed) {
		return false
	}
	status := http.StatusBadGateway
	var re *domain.RetrievalError
	if errors.As(err, &re) && re.Timeout {
		status = http.StatusGatewayTimeout
	}
	writeError(w, status, ErrorResponseCodeRetrievalFailed, msg)
	return true
}

func (s *Server) handleDomainError(w http.ResponseWriter, r *http.Request, err error) {
	l := logger.FromContextOr(r.Context(), s.logger)
	l.Warn("domain error", zap.Error(err))
	msg := safeDomainMessage(err)
	for _, h := range s.errorHandlers {
		if h(w, err, msg) {
			return
		}
	}
	l.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, ErrorResponseCodeInternalError, "internal error")
}
