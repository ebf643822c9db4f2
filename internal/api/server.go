// Package api exposes the assessment engine over HTTP.
package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/sells-group/cci-engine/internal/engine"
	"github.com/sells-group/cci-engine/internal/model"
	"github.com/sells-group/cci-engine/internal/store"
)

// Server wires the assessor and optional audit store into an HTTP handler.
type Server struct {
	assessor *engine.Assessor
	store    store.Store
	limiter  *rate.Limiter
	router   chi.Router
}

// Options configures a Server.
type Options struct {
	// RateLimit is sustained requests per second; RateBurst is the burst
	// allowance. Zero values disable rate limiting.
	RateLimit float64
	RateBurst int

	// Store is the audit sink used when requests ask to persist. Nil
	// disables persistence endpoints' save behavior and listing.
	Store store.Store
}

// NewServer builds the HTTP surface around an assessor.
func NewServer(assessor *engine.Assessor, opts Options) *Server {
	s := &Server{
		assessor: assessor,
		store:    opts.Store,
	}
	if opts.RateLimit > 0 {
		burst := opts.RateBurst
		if burst < 1 {
			burst = 1
		}
		s.limiter = rate.NewLimiter(rate.Limit(opts.RateLimit), burst)
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))
	r.Use(s.throttle)

	r.Get("/health", s.handleHealth)
	r.Route("/v1", func(r chi.Router) {
		r.Post("/assess", s.handleAssess)
		r.Get("/tables", s.handleTables)
		r.Get("/assessments", s.handleListAssessments)
		r.Get("/assessments/{id}", s.handleGetAssessment)
	})
	s.router = r

	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) throttle(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.limiter != nil && !s.limiter.Allow() {
			writeError(w, http.StatusTooManyRequests, eris.New("rate limit exceeded"))
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":        "ok",
		"table_version": s.assessor.Tables().Version,
	})
}

// handleTables reports the active table set's version and methodology so
// clients can verify which rules scored their requests.
func (s *Server) handleTables(w http.ResponseWriter, _ *http.Request) {
	ts := s.assessor.Tables()
	writeJSON(w, http.StatusOK, map[string]any{
		"version":     ts.Version,
		"methodology": string(ts.Methodology),
		"weights": map[string]float64{
			"professional": ts.Weights.Professional,
			"industry":     ts.Weights.Industry,
		},
		"tiers": ts.Tiers,
	})
}

// AssessRequest is the POST /v1/assess body.
type AssessRequest struct {
	Professional model.ProfessionalProfile `json:"professional"`
	Company      model.CompanyProfile      `json:"company"`
	External     model.ExternalRiskContext `json:"external"`
	Save         bool                      `json:"save,omitempty"`
}

// AssessResponse wraps the result with the persisted record ID when saved.
type AssessResponse struct {
	ID     string                  `json:"id,omitempty"`
	Result *model.AssessmentResult `json:"result"`
}

func (s *Server) handleAssess(w http.ResponseWriter, r *http.Request) {
	var req AssessRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, eris.Wrap(err, "decode request body"))
		return
	}

	result, err := s.assessor.Assess(req.Professional, req.Company, req.External)
	if err != nil {
		var verr *model.ValidationError
		if eris.As(err, &verr) {
			writeJSON(w, http.StatusUnprocessableEntity, map[string]any{
				"error":  "validation failed",
				"fields": verr.Fields,
			})
			return
		}
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	resp := AssessResponse{Result: result}
	if req.Save {
		if s.store == nil {
			writeError(w, http.StatusConflict, eris.New("no audit store configured"))
			return
		}
		rec, err := s.store.SaveAssessment(r.Context(), store.AssessmentRecord{
			Professional: req.Professional,
			Company:      req.Company,
			External:     req.External,
			Result:       *result,
		})
		if err != nil {
			zap.L().Error("save assessment failed", zap.Error(err))
			writeError(w, http.StatusInternalServerError, eris.New("failed to persist assessment"))
			return
		}
		resp.ID = rec.ID
	}

	zap.L().Info("assessment served",
		zap.Float64("final_score", result.FinalScore),
		zap.String("risk_tier", string(result.RiskTier)),
		zap.Bool("saved", req.Save),
	)
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGetAssessment(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		writeError(w, http.StatusConflict, eris.New("no audit store configured"))
		return
	}
	id := chi.URLParam(r, "id")
	rec, err := s.store.GetAssessment(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusNotFound, eris.Errorf("assessment %s not found", id))
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (s *Server) handleListAssessments(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		writeError(w, http.StatusConflict, eris.New("no audit store configured"))
		return
	}

	filter, err := parseFilter(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	records, err := s.store.ListAssessments(r.Context(), filter)
	if err != nil {
		zap.L().Error("list assessments failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, eris.New("failed to list assessments"))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"assessments": records,
		"count":       len(records),
	})
}

func parseFilter(r *http.Request) (store.Filter, error) {
	var f store.Filter
	q := r.URL.Query()

	f.Tier = model.RiskTier(q.Get("tier"))
	f.TableVersion = q.Get("table_version")

	if v := q.Get("min_score"); v != "" {
		score, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return f, eris.Errorf("invalid min_score %q", v)
		}
		f.MinScore = score
	}
	if v := q.Get("limit"); v != "" {
		limit, err := strconv.Atoi(v)
		if err != nil {
			return f, eris.Errorf("invalid limit %q", v)
		}
		f.Limit = limit
	}
	if v := q.Get("offset"); v != "" {
		offset, err := strconv.Atoi(v)
		if err != nil {
			return f, eris.Errorf("invalid offset %q", v)
		}
		f.Offset = offset
	}
	return f, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
