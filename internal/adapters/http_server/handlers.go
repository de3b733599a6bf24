// internal/adapters/http_server/handlers.go
package httpserver

import (
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"hotel_churn/internal/app"
	"hotel_churn/internal/domain"
)

type Handlers struct{ Q *app.QueryService }

type problem struct {
	Type   string `json:"type"`
	Title  string `json:"title"`
	Status int    `json:"status"`
	Detail string `json:"detail,omitempty"`
}

func (s *Server) MountHandlers(h *Handlers) {
	s.mux.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200); _, _ = w.Write([]byte("ok")) })
	s.mux.Get("/v1/runs/latest", h.latestRun)
	s.mux.Get("/v1/customers/{email}/risk", h.customerRisk)
	s.mux.Get("/v1/risk", h.listRisk)
}

func writeProblem(w http.ResponseWriter, status int, title, detail string) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(problem{Type: "about:blank", Title: title, Status: status, Detail: detail}); err != nil {
		log.Error().Err(err).Msg("write JSON problem response failed")
	}
}

func writeLookupError(w http.ResponseWriter, err error, what string) {
	if errors.Is(err, domain.ErrNotFound) {
		writeProblem(w, http.StatusNotFound, "Not Found", what+" not found")
		return
	}
	log.Error().Err(err).Str("lookup", what).Msg("risk lookup failed")
	writeProblem(w, http.StatusInternalServerError, "Internal Server Error", "")
}

// calcETagAndBody marshals once and hashes once, returning both ETag and body.
func calcETagAndBody(v any) (string, []byte) {
	body, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Msg("failed to marshal object for ETag/body")
		return "", nil
	}
	sum := sha1.Sum(body)
	etag := `W/"` + hex.EncodeToString(sum[:]) + `"`
	return etag, body
}

// writeJSON answers 304 when the client already holds this representation.
func writeJSON(w http.ResponseWriter, r *http.Request, v any) {
	etag, body := calcETagAndBody(v)
	if inm := r.Header.Get("If-None-Match"); inm != "" && inm == etag {
		w.Header().Set("ETag", etag)
		w.WriteHeader(http.StatusNotModified)
		return
	}
	w.Header().Set("ETag", etag)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(body); err != nil {
		log.Error().Err(err).Str("path", r.URL.Path).Msg("failed to write body")
	}
}

func (h *Handlers) latestRun(w http.ResponseWriter, r *http.Request) {
	run, err := h.Q.LatestRun(r.Context())
	if err != nil {
		writeLookupError(w, err, "scoring run")
		return
	}
	writeJSON(w, r, toRunJSON(run))
}

func (h *Handlers) customerRisk(w http.ResponseWriter, r *http.Request) {
	email := chi.URLParam(r, "email")
	if email == "" {
		writeProblem(w, http.StatusBadRequest, "Invalid email", "email is required")
		return
	}
	cr, err := h.Q.GetCustomerRisk(r.Context(), email)
	if err != nil {
		writeLookupError(w, err, "customer")
		return
	}
	writeJSON(w, r, toRiskJSON(cr))
}

func (h *Handlers) listRisk(w http.ResponseWriter, r *http.Request) {
	q := domain.RiskQuery{Limit: 50}
	if ls := r.URL.Query().Get("limit"); ls != "" {
		l, err := strconv.Atoi(ls)
		if err != nil || l <= 0 || l > 500 {
			writeProblem(w, http.StatusBadRequest, "Invalid limit", "limit must be an integer between 1 and 500")
			return
		}
		q.Limit = l
	}
	if ts := r.URL.Query().Get("tier"); ts != "" {
		tier, ok := domain.ParseRiskTier(ts)
		if !ok {
			writeProblem(w, http.StatusBadRequest, "Invalid tier", "tier must be one of low, medium, high, critical")
			return
		}
		q.Tier = &tier
	}

	page, err := h.Q.ListRisk(r.Context(), q)
	if err != nil {
		writeLookupError(w, err, "scoring run")
		return
	}
	out := riskPageJSON{RunID: page.RunID, Items: make([]riskJSON, len(page.Items))}
	for i, cr := range page.Items {
		out.Items[i] = toRiskJSON(cr)
	}
	writeJSON(w, r, out)
}
