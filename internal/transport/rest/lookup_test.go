package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/heartmarshall/leocli/internal/domain"
	"github.com/heartmarshall/leocli/internal/service/lookup"
)

type lookupServiceMock struct {
	LookupFunc func(ctx context.Context, in lookup.Input) (*lookup.Result, error)
}

func (m *lookupServiceMock) Lookup(ctx context.Context, in lookup.Input) (*lookup.Result, error) {
	return m.LookupFunc(ctx, in)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
}

func houseResult() *lookup.Result {
	return &lookup.Result{
		Query: domain.Query{Terms: []string{"house"}, Lang1: "en", Lang2: "de"},
		Sections: domain.ResultSet{{
			Name:  "subst",
			Title: "Nouns",
			Pairs: []domain.TranslationPair{{
				Source: domain.Side{domain.Text("the house")},
				Target: domain.Side{domain.Text("das Haus "), domain.Annotation("Pl.: die Häuser")},
			}},
		}},
		Source: lookup.SourceRemote,
	}
}

func TestLookup_Success(t *testing.T) {
	t.Parallel()

	var got lookup.Input
	svc := &lookupServiceMock{LookupFunc: func(_ context.Context, in lookup.Input) (*lookup.Result, error) {
		got = in
		return houseResult(), nil
	}}
	h := NewLookupHandler(svc, "en", true, discardLogger())

	rec := httptest.NewRecorder()
	h.Lookup(rec, httptest.NewRequest(http.MethodGet, "/api/lookup?q=house", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.Equal(t, lookup.Input{Words: []string{"house"}, Lang: "en", UseCache: true}, got)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "remote", body["source"])
	assert.Equal(t, map[string]any{"terms": []any{"house"}, "lang1": "en", "lang2": "de"}, body["query"])

	sections := body["sections"].([]any)
	require.Len(t, sections, 1)
	section := sections[0].(map[string]any)
	assert.Equal(t, "Nouns", section["title"])
	pair := section["translations"].([]any)[0].(map[string]any)
	assert.Equal(t, []any{
		map[string]any{"kind": "text", "text": "das Haus "},
		map[string]any{"kind": "annotation", "text": "Pl.: die Häuser"},
	}, pair["target"])
}

func TestLookup_Params(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		url  string
		want lookup.Input
	}{
		{
			name: "repeated q and lang",
			url:  "/api/lookup?q=to&q=run&lang=fr",
			want: lookup.Input{Words: []string{"to", "run"}, Lang: "fr", UseCache: true},
		},
		{
			name: "cache disabled",
			url:  "/api/lookup?q=house&cache=false",
			want: lookup.Input{Words: []string{"house"}, Lang: "en", UseCache: false},
		},
		{
			name: "no q",
			url:  "/api/lookup",
			want: lookup.Input{Lang: "en", UseCache: true},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var got lookup.Input
			svc := &lookupServiceMock{LookupFunc: func(_ context.Context, in lookup.Input) (*lookup.Result, error) {
				got = in
				return houseResult(), nil
			}}
			h := NewLookupHandler(svc, "en", true, discardLogger())

			h.Lookup(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, tt.url, nil))

			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLookup_BadCacheParam(t *testing.T) {
	t.Parallel()

	svc := &lookupServiceMock{LookupFunc: func(context.Context, lookup.Input) (*lookup.Result, error) {
		t.Error("service should not be called")
		return nil, nil
	}}
	h := NewLookupHandler(svc, "en", true, discardLogger())

	rec := httptest.NewRecorder()
	h.Lookup(rec, httptest.NewRequest(http.MethodGet, "/api/lookup?q=house&cache=maybe", nil))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestLookup_ErrorMapping(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		err      error
		wantCode int
	}{
		{name: "validation", err: domain.NewValidationError("lang", "unsupported language 'xx'"), wantCode: http.StatusBadRequest},
		{name: "no matches", err: domain.ErrNoMatches, wantCode: http.StatusNotFound},
		{name: "malformed", err: fmt.Errorf("leo: parse: %w", domain.Malformed("missing sectionlist", nil)), wantCode: http.StatusBadGateway},
		{name: "upstream status", err: errors.New("leo: unexpected status 503"), wantCode: http.StatusBadGateway},
		{name: "deadline", err: fmt.Errorf("leo: fetch: %w", context.DeadlineExceeded), wantCode: http.StatusGatewayTimeout},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			svc := &lookupServiceMock{LookupFunc: func(context.Context, lookup.Input) (*lookup.Result, error) {
				return nil, tt.err
			}}
			h := NewLookupHandler(svc, "en", true, discardLogger())

			rec := httptest.NewRecorder()
			h.Lookup(rec, httptest.NewRequest(http.MethodGet, "/api/lookup?q=house", nil))

			assert.Equal(t, tt.wantCode, rec.Code)
			var body errorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.NotEmpty(t, body.Error)
		})
	}
}

func TestLookup_ValidationFields(t *testing.T) {
	t.Parallel()

	svc := &lookupServiceMock{LookupFunc: func(_ context.Context, in lookup.Input) (*lookup.Result, error) {
		_, err := domain.NewQuery(in.Words, in.Lang)
		return nil, err
	}}
	h := NewLookupHandler(svc, "en", true, discardLogger())

	rec := httptest.NewRecorder()
	h.Lookup(rec, httptest.NewRequest(http.MethodGet, "/api/lookup?lang=xx", nil))

	require.Equal(t, http.StatusBadRequest, rec.Code)
	var body errorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	fields := make([]string, 0, len(body.Fields))
	for _, f := range body.Fields {
		fields = append(fields, f.Field)
	}
	assert.ElementsMatch(t, []string{"terms", "lang"}, fields)
}

func TestRouter(t *testing.T) {
	t.Parallel()

	svc := &lookupServiceMock{LookupFunc: func(context.Context, lookup.Input) (*lookup.Result, error) {
		return houseResult(), nil
	}}
	router := NewRouter(Routes{
		Lookup: NewLookupHandler(svc, "en", true, discardLogger()),
		Health: NewHealthHandler(nil, "v"),
		Metrics: http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte("metrics"))
		}),
	})

	tests := []struct {
		method string
		path   string
		want   int
	}{
		{http.MethodGet, "/api/lookup?q=house", http.StatusOK},
		{http.MethodGet, "/live", http.StatusOK},
		{http.MethodGet, "/ready", http.StatusOK},
		{http.MethodGet, "/health", http.StatusOK},
		{http.MethodGet, "/metrics", http.StatusOK},
		{http.MethodPost, "/api/lookup", http.StatusMethodNotAllowed},
		{http.MethodGet, "/nope", http.StatusNotFound},
	}
	for _, tt := range tests {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(tt.method, tt.path, nil))
		assert.Equal(t, tt.want, rec.Code, "%s %s", tt.method, tt.path)
	}
}
