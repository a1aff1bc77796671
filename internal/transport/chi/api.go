package chi

import (
	"encoding/json"
	"fmt"
	"net/http"

	chirouter "github.com/go-chi/chi/v5"
	"github.com/oapi-codegen/runtime"

	"github.com/kailas-cloud/b2bsearch/internal/domain/flags"
)

// ErrorResponseCode is the machine-readable error code of an ErrorResponse.
type ErrorResponseCode string

// Error codes.
const (
	ErrorResponseCodeBadRequest       ErrorResponseCode = "BAD_REQUEST"
	ErrorResponseCodeUnauthorized     ErrorResponseCode = "UNAUTHORIZED"
	ErrorResponseCodeValidationFailed ErrorResponseCode = "VALIDATION_FAILED"
	ErrorResponseCodeNotFound         ErrorResponseCode = "NOT_FOUND"
	ErrorResponseCodeSearchDisabled   ErrorResponseCode = "SEARCH_DISABLED"
	ErrorResponseCodeRetrievalFailed  ErrorResponseCode = "RETRIEVAL_FAILED"
	ErrorResponseCodeInternalError    ErrorResponseCode = "INTERNAL_ERROR"
)

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Code    ErrorResponseCode `json:"code"`
	Message string            `json:"message"`
	Field   string            `json:"field,omitempty"`
}

// SearchFilters narrows results without affecting scores.
type SearchFilters struct {
	Category        string   `json:"category,omitempty"`
	Vendor          string   `json:"vendor,omitempty"`
	Region          string   `json:"region,omitempty"`
	MinRating       *float64 `json:"minRating,omitempty"`
	InventoryStatus string   `json:"inventoryStatus,omitempty"`
}

// FeatureFlags holds per-request overrides. searchEnabled is not accepted.
type FeatureFlags struct {
	SearchStrategy          *string `json:"searchStrategy,omitempty"`
	HybridSearchEnabled     *bool   `json:"hybridSearchEnabled,omitempty"`
	PersonalizationEnabled  *bool   `json:"personalizationEnabled,omitempty"`
	FuzzyMatchingEnabled    *bool   `json:"fuzzyMatchingEnabled,omitempty"`
	SynonymExpansionEnabled *bool   `json:"synonymExpansionEnabled,omitempty"`
}

// SearchRequest is the body of POST /search.
type SearchRequest struct {
	Query       string          `json:"query"`
	UserID      string          `json:"userId,omitempty"`
	UserType    string          `json:"userType,omitempty"`
	Filters     *SearchFilters  `json:"filters,omitempty"`
	Size        *int            `json:"size,omitempty"`
	From        *int            `json:"from,omitempty"`
	SearchAfter json.RawMessage `json:"searchAfter,omitempty"`
	// Deprecated: use FeatureFlags.SearchStrategy.
	UseHybridSearch *bool         `json:"useHybridSearch,omitempty"`
	FeatureFlags    *FeatureFlags `json:"featureFlags,omitempty"`
}

// SearchTotal is the hit count and whether it is exact.
type SearchTotal struct {
	Value    int64  `json:"value"`
	Relation string `json:"relation"`
}

// Pagination describes either offset or cursor paging.
type Pagination struct {
	Size       int             `json:"size"`
	From       *int            `json:"from,omitempty"`
	TotalPages *int            `json:"totalPages,omitempty"`
	NextCursor json.RawMessage `json:"nextCursor,omitempty"`
	HasMore    *bool           `json:"hasMore,omitempty"`
}

// SearchResponse is the body of a successful POST /search.
type SearchResponse struct {
	Query      string            `json:"query"`
	Total      SearchTotal       `json:"total"`
	Results    []json.RawMessage `json:"results"`
	TookMS     int64             `json:"took_ms"`
	Pagination Pagination        `json:"pagination"`
}

// SuggestionsRequest is the body of POST /search/suggestions.
type SuggestionsRequest struct {
	Query string `json:"query"`
	Size  *int   `json:"size,omitempty"`
}

// StatsParams are the query parameters of GET /search/stats.
type StatsParams struct {
	Vendors    *int
	Categories *int
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status       string            `json:"status"`
	Checks       map[string]string `json:"checks"`
	FeatureFlags flags.FlagSet     `json:"featureFlags"`
	Timestamp    string            `json:"timestamp"`
}

// ServerInterface lists every HTTP operation.
type ServerInterface interface {
	// (POST /search)
	Search(w http.ResponseWriter, r *http.Request)
	// (POST /search/suggestions)
	Suggest(w http.ResponseWriter, r *http.Request)
	// (GET /search/product/{id})
	GetProduct(w http.ResponseWriter, r *http.Request, id string)
	// (GET /search/stats)
	GetStats(w http.ResponseWriter, r *http.Request, params StatsParams)
	// (GET /profiles/{userId})
	GetProfile(w http.ResponseWriter, r *http.Request, userID string)
	// (POST /profiles/rebuild)
	RebuildProfiles(w http.ResponseWriter, r *http.Request)
	// (GET /health)
	HealthCheck(w http.ResponseWriter, r *http.Request)
	// (GET /metrics)
	Metrics(w http.ResponseWriter, r *http.Request)
}

// MiddlewareFunc wraps a single operation handler.
type MiddlewareFunc func(http.Handler) http.Handler

// ChiServerOptions configures HandlerWithOptions.
type ChiServerOptions struct {
	BaseURL          string
	BaseRouter       chirouter.Router
	Middlewares      []MiddlewareFunc
	ErrorHandlerFunc func(w http.ResponseWriter, r *http.Request, err error)
}

// InvalidParamFormatError reports a path or query parameter that failed to bind.
type InvalidParamFormatError struct {
	ParamName string
	Err       error
}

func (e *InvalidParamFormatError) Error() string {
	return fmt.Sprintf("invalid format for parameter %s: %s", e.ParamName, e.Err.Error())
}

func (e *InvalidParamFormatError) Unwrap() error { return e.Err }

// serverInterfaceWrapper binds parameters before calling the handler.
type serverInterfaceWrapper struct {
	handler          ServerInterface
	middlewares      []MiddlewareFunc
	errorHandlerFunc func(w http.ResponseWriter, r *http.Request, err error)
}

func (siw *serverInterfaceWrapper) wrap(h http.Handler) http.Handler {
	for _, m := range siw.middlewares {
		h = m(h)
	}
	return h
}

func (siw *serverInterfaceWrapper) search(w http.ResponseWriter, r *http.Request) {
	siw.wrap(http.HandlerFunc(siw.handler.Search)).ServeHTTP(w, r)
}

func (siw *serverInterfaceWrapper) suggest(w http.ResponseWriter, r *http.Request) {
	siw.wrap(http.HandlerFunc(siw.handler.Suggest)).ServeHTTP(w, r)
}

func (siw *serverInterfaceWrapper) getProduct(w http.ResponseWriter, r *http.Request) {
	var id string
	err := runtime.BindStyledParameterWithOptions("simple", "id", chirouter.URLParam(r, "id"), &id,
		runtime.BindStyledParameterOptions{ParamLocation: runtime.ParamLocationPath, Explode: false, Required: true})
	if err != nil {
		siw.errorHandlerFunc(w, r, &InvalidParamFormatError{ParamName: "id", Err: err})
		return
	}
	siw.wrap(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		siw.handler.GetProduct(w, r, id)
	})).ServeHTTP(w, r)
}

func (siw *serverInterfaceWrapper) getStats(w http.ResponseWriter, r *http.Request) {
	var params StatsParams
	if err := runtime.BindQueryParameter("form", true, false, "vendors", r.URL.Query(), &params.Vendors); err != nil {
		siw.errorHandlerFunc(w, r, &InvalidParamFormatError{ParamName: "vendors", Err: err})
		return
	}
	if err := runtime.BindQueryParameter("form", true, false, "categories", r.URL.Query(), &params.Categories); err != nil {
		siw.errorHandlerFunc(w, r, &InvalidParamFormatError{ParamName: "categories", Err: err})
		return
	}
	siw.wrap(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		siw.handler.GetStats(w, r, params)
	})).ServeHTTP(w, r)
}

func (siw *serverInterfaceWrapper) getProfile(w http.ResponseWriter, r *http.Request) {
	var userID string
	err := runtime.BindStyledParameterWithOptions("simple", "userId", chirouter.URLParam(r, "userId"), &userID,
		runtime.BindStyledParameterOptions{ParamLocation: runtime.ParamLocationPath, Explode: false, Required: true})
	if err != nil {
		siw.errorHandlerFunc(w, r, &InvalidParamFormatError{ParamName: "userId", Err: err})
		return
	}
	siw.wrap(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		siw.handler.GetProfile(w, r, userID)
	})).ServeHTTP(w, r)
}

func (siw *serverInterfaceWrapper) rebuildProfiles(w http.ResponseWriter, r *http.Request) {
	siw.wrap(http.HandlerFunc(siw.handler.RebuildProfiles)).ServeHTTP(w, r)
}

func (siw *serverInterfaceWrapper) healthCheck(w http.ResponseWriter, r *http.Request) {
	siw.wrap(http.HandlerFunc(siw.handler.HealthCheck)).ServeHTTP(w, r)
}

func (siw *serverInterfaceWrapper) metrics(w http.ResponseWriter, r *http.Request) {
	siw.wrap(http.HandlerFunc(siw.handler.Metrics)).ServeHTTP(w, r)
}

// Handler creates an http.Handler with routing on a new chi router.
func Handler(si ServerInterface) http.Handler {
	return HandlerWithOptions(si, ChiServerOptions{})
}

// HandlerWithOptions registers every operation on options.BaseRouter.
func HandlerWithOptions(si ServerInterface, options ChiServerOptions) http.Handler {
	r := options.BaseRouter
	if r == nil {
		r = chirouter.NewRouter()
	}
	if options.ErrorHandlerFunc == nil {
		options.ErrorHandlerFunc = func(w http.ResponseWriter, _ *http.Request, err error) {
			http.Error(w, err.Error(), http.StatusBadRequest)
		}
	}
	wrapper := serverInterfaceWrapper{
		handler:          si,
		middlewares:      options.Middlewares,
		errorHandlerFunc: options.ErrorHandlerFunc,
	}

	r.Group(func(r chirouter.Router) {
		r.Post(options.BaseURL+"/search", wrapper.search)
		r.Post(options.BaseURL+"/search/suggestions", wrapper.suggest)
		r.Get(options.BaseURL+"/search/product/{id}", wrapper.getProduct)
		r.Get(options.BaseURL+"/search/stats", wrapper.getStats)
		r.Get(options.BaseURL+"/profiles/{userId}", wrapper.getProfile)
		r.Post(options.BaseURL+"/profiles/rebuild", wrapper.rebuildProfiles)
		r.Get(options.BaseURL+"/health", wrapper.healthCheck)
		r.Get(options.BaseURL+"/metrics", wrapper.metrics)
	})
	return r
}
