package rest

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/heartmarshall/leocli/internal/domain"
	"github.com/heartmarshall/leocli/internal/service/lookup"
)

// lookupService defines the minimal interface needed by LookupHandler.
type lookupService interface {
	Lookup(ctx context.Context, in lookup.Input) (*lookup.Result, error)
}

// LookupHandler serves GET /api/lookup.
type LookupHandler struct {
	svc         lookupService
	defaultLang string
	useCache    bool
	log         *slog.Logger
}

// NewLookupHandler creates a LookupHandler. defaultLang is used when the
// request carries no lang parameter; useCache is the default for cache.
func NewLookupHandler(svc lookupService, defaultLang string, useCache bool, logger *slog.Logger) *LookupHandler {
	return &LookupHandler{
		svc:         svc,
		defaultLang: defaultLang,
		useCache:    useCache,
		log:         logger.With("handler", "lookup"),
	}
}

type queryResponse struct {
	Terms []string `json:"terms"`
	Lang1 string   `json:"lang1"`
	Lang2 string   `json:"lang2"`
}

type lookupResponse struct {
	Query    queryResponse    `json:"query"`
	Source   lookup.Source    `json:"source"`
	Sections domain.ResultSet `json:"sections"`
}

type errorResponse struct {
	Error  string              `json:"error"`
	Fields []domain.FieldError `json:"fields,omitempty"`
}

// Lookup handles GET /api/lookup?q=word[&q=word...][&lang=en][&cache=false].
// Each q value may itself hold several whitespace-separated words.
func (h *LookupHandler) Lookup(w http.ResponseWriter, r *http.Request) {
	params := r.URL.Query()

	lang := params.Get("lang")
	if lang == "" {
		lang = h.defaultLang
	}

	useCache := h.useCache
	if raw := params.Get("cache"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "cache must be a boolean")
			return
		}
		useCache = v
	}

	res, err := h.svc.Lookup(r.Context(), lookup.Input{
		Words:    params["q"],
		Lang:     lang,
		UseCache: useCache,
	})
	if err != nil {
		h.writeLookupError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, lookupResponse{
		Query: queryResponse{
			Terms: res.Query.Terms,
			Lang1: res.Query.Lang1,
			Lang2: res.Query.Lang2,
		},
		Source:   res.Source,
		Sections: res.Sections,
	})
}

func (h *LookupHandler) writeLookupError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *domain.ValidationError
	switch {
	case errors.As(err, &verr):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: domain.ErrValidation.Error(), Fields: verr.Errors})
	case errors.Is(err, domain.ErrNoMatches):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		writeError(w, http.StatusGatewayTimeout, "dictionary request timed out")
	case errors.Is(err, context.Canceled):
		// Client went away; nobody reads the body.
		w.WriteHeader(http.StatusServiceUnavailable)
	default:
		h.log.ErrorContext(r.Context(), "lookup failed", slog.String("error", err.Error()))
		writeError(w, http.StatusBadGateway, "dictionary lookup failed")
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}
