package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/kalambet/silence/internal/catalog"
	"github.com/kalambet/silence/internal/metrics"
)

const maxRequestBodySize = 1 << 20 // 1MB

const (
	detailNotFound        = "Incident not found"
	detailIndexNotInteger = "index must be an integer"
)

// Catalog is the read-only incident service the HTTP and MCP layers call.
type Catalog interface {
	List() []catalog.View
	Get(index int) (catalog.View, error)
	Submit(index int, choice string) (catalog.AnswerResult, error)
	Len() int
}

// Deps holds dependencies for the incident HTTP handler.
type Deps struct {
	Catalog        Catalog
	AllowedOrigins []string
	Metrics        *metrics.Metrics // optional; nil disables /metrics and instrumentation
	Logger         *slog.Logger     // optional; defaults to slog.Default()
}

// AnswerRequest is the body of POST /incidents/{index}/answer.
type AnswerRequest struct {
	Choice string `json:"choice"`
}

// NewIncidentHandler returns the chi router serving the incident API.
func NewIncidentHandler(deps Deps) http.Handler {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(RequestLogger(logger))
	if deps.Metrics != nil {
		r.Use(deps.Metrics.Middleware)
	}
	r.Use(CORS(deps.AllowedOrigins))

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		httpError(w, http.StatusNotFound, "Not Found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		httpError(w, http.StatusMethodNotAllowed, "Method Not Allowed")
	})

	r.Get("/health", handleHealth(deps))
	if deps.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", deps.Metrics.Handler())
	}

	r.Get("/incidents", handleListIncidents(deps))
	r.Get("/incidents/{index}", handleGetIncident(deps))
	r.Post("/incidents/{index}/answer", handleAnswer(deps))

	return r
}

func handleHealth(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			"status":    "ok",
			"incidents": deps.Catalog.Len(),
		})
	}
}

func handleListIncidents(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, deps.Catalog.List())
	}
}

func handleGetIncident(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		index, ok := indexParam(w, r)
		if !ok {
			return
		}

		v, err := deps.Catalog.Get(index)
		if err != nil {
			catalogError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, v)
	}
}

func handleAnswer(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		index, ok := indexParam(w, r)
		if !ok {
			return
		}

		r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
		defer r.Body.Close()

		req, err := decodeAnswer(r.Body)
		if err != nil {
			var maxErr *http.MaxBytesError
			if errors.As(err, &maxErr) {
				httpError(w, http.StatusRequestEntityTooLarge, "request body too large")
				return
			}
			httpError(w, http.StatusUnprocessableEntity, "invalid request body")
			return
		}

		res, err := deps.Catalog.Submit(index, req.Choice)
		if err != nil {
			catalogError(w, err)
			return
		}

		if deps.Metrics != nil {
			deps.Metrics.ObserveAnswer(strconv.Itoa(index), res.Correct)
		}
		writeJSON(w, http.StatusOK, res)
	}
}

// decodeAnswer accepts an empty body as an empty choice.
func decodeAnswer(body io.Reader) (AnswerRequest, error) {
	var req AnswerRequest

	data, err := io.ReadAll(body)
	if err != nil {
		return req, err
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return req, nil
	}
	if err := json.Unmarshal(data, &req); err != nil {
		return req, err
	}
	return req, nil
}

// indexParam parses the {index} URL segment. An integer too large for int
// cannot name an incident, so it is reported as not found.
func indexParam(w http.ResponseWriter, r *http.Request) (int, bool) {
	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		if errors.Is(err, strconv.ErrRange) {
			httpError(w, http.StatusNotFound, detailNotFound)
			return 0, false
		}
		httpError(w, http.StatusUnprocessableEntity, detailIndexNotInteger)
		return 0, false
	}
	return index, true
}

func catalogError(w http.ResponseWriter, err error) {
	if errors.Is(err, catalog.ErrNotFound) {
		httpError(w, http.StatusNotFound, detailNotFound)
		return
	}
	httpError(w, http.StatusInternalServerError, err.Error())
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func httpError(w http.ResponseWriter, code int, detail string) {
	writeJSON(w, code, map[string]string{"detail": detail})
}
