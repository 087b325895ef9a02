package httpx

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ashwinsharma89/adlens/internal/engine"
	"github.com/ashwinsharma89/adlens/internal/errs"
	"github.com/ashwinsharma89/adlens/internal/ingest"
	"github.com/ashwinsharma89/adlens/internal/models"
	"github.com/ashwinsharma89/adlens/internal/utils"
)

func NewRouter(log *slog.Logger, eng *engine.Engine, fetcher *ingest.Fetcher) http.Handler {
	mux := chi.NewRouter()
	mux.Use(utils.RequestID)
	mux.Use(utils.Logger(log))

	mux.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200); w.Write([]byte("ok")) })
	mux.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if _, _, err := eng.Schema(); err != nil {
			http.Error(w, "no dataset loaded", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(200)
		w.Write([]byte("ready"))
	})
	mux.Method(http.MethodGet, "/metrics", promhttp.Handler())

	mux.Post("/dataset/load", func(w http.ResponseWriter, r *http.Request) {
		rows, err := ingest.DecodeRows(r.Body)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		snap := eng.LoadDataset(rows)
		writeJSON(w, http.StatusOK, map[string]any{"version": snap.Version, "rows": len(snap.Rows)})
	})

	mux.Post("/dataset/fetch", func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			URL string `json:"url"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.URL == "" {
			http.Error(w, "url required", http.StatusBadRequest)
			return
		}
		rows, err := fetcher.FetchRows(r.Context(), body.URL)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadGateway)
			return
		}
		snap := eng.LoadDataset(rows)
		writeJSON(w, http.StatusOK, map[string]any{"version": snap.Version, "rows": len(snap.Rows)})
	})

	mux.Post("/ask", func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Question string `json:"question"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Question == "" {
			http.Error(w, "question required", http.StatusBadRequest)
			return
		}
		res, err := eng.Ask(r.Context(), body.Question)
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, res)
	})

	mux.Post("/query", func(w http.ResponseWriter, r *http.Request) {
		var qi models.QueryIntent
		if err := json.NewDecoder(r.Body).Decode(&qi); err != nil {
			http.Error(w, "bad intent payload", http.StatusBadRequest)
			return
		}
		res, err := eng.ExecuteRaw(r.Context(), qi)
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, res)
	})

	mux.Get("/schema", func(w http.ResponseWriter, r *http.Request) {
		dims, mets, err := eng.Schema()
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"dimensions": dims, "metrics": mets})
	})

	mux.Get("/schema/filters", func(w http.ResponseWriter, r *http.Request) {
		dim := r.URL.Query().Get("dimension")
		if dim == "" {
			http.Error(w, "dimension required", http.StatusBadRequest)
			return
		}
		vals, err := eng.FilterOptions(dim)
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"dimension": dim, "values": vals})
	})

	mux.Post("/export", func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Question string `json:"question"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Question == "" {
			http.Error(w, "question required", http.StatusBadRequest)
			return
		}
		res, err := eng.Ask(r.Context(), body.Question)
		if err != nil {
			writeErr(w, err)
			return
		}
		data, err := engine.Export(res)
		if err != nil {
			writeErr(w, err)
			return
		}
		w.Header().Set("Content-Type", "text/csv")
		w.Header().Set("Content-Disposition", `attachment; filename="result.csv"`)
		w.Write(data)
	})

	mux.Get("/history", func(w http.ResponseWriter, r *http.Request) {
		n, _ := strconv.Atoi(r.URL.Query().Get("n"))
		entries, err := eng.Recent(r.Context(), n)
		if err != nil {
			writeErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, entries)
	})

	return mux
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetIndent("", " ")
	enc.Encode(v)
}

// writeErr maps the structured error taxonomy onto HTTP statuses. The
// payload always carries code, token and suggestion so a UI can render an
// actionable message.
func writeErr(w http.ResponseWriter, err error) {
	var se *errs.Error
	if !errors.As(err, &se) {
		writeJSON(w, http.StatusInternalServerError, map[string]any{
			"error": map[string]string{"code": errs.CodeExecution, "message": err.Error()},
		})
		return
	}
	status := http.StatusBadRequest
	switch se.Code {
	case errs.CodeAmbiguousIntent:
		status = http.StatusUnprocessableEntity
	case errs.CodeDatasetUnavailable:
		status = http.StatusServiceUnavailable
	case errs.CodeExecution:
		status = http.StatusInternalServerError
	}
	writeJSON(w, status, map[string]any{"error": se})
}
