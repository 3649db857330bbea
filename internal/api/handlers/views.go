package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/wonny/newsviews/internal/contracts"
	"github.com/wonny/newsviews/internal/pipeline"
	"github.com/wonny/newsviews/internal/viewconfig"
	"github.com/wonny/newsviews/pkg/logger"
)

// ViewsHandler serves view computation endpoints
// ⭐ SSOT: views API 핸들러는 여기서만
type ViewsHandler struct {
	orchestrator       *pipeline.Orchestrator
	defaultInstruments []string
	logger             *logger.Logger
}

// NewViewsHandler creates a new views handler
func NewViewsHandler(o *pipeline.Orchestrator, defaultInstruments []string, log *logger.Logger) *ViewsHandler {
	return &ViewsHandler{
		orchestrator:       o,
		defaultInstruments: defaultInstruments,
		logger:             log.WithComponent("api"),
	}
}

// EvaluateArticle is one pre-scored article in an evaluate request
type EvaluateArticle struct {
	Title         string                          `json:"title"`
	Text          string                          `json:"text,omitempty"`
	Link          string                          `json:"link,omitempty"`
	Source        string                          `json:"source,omitempty"`
	Date          *time.Time                      `json:"date,omitempty"`
	Distribution  contracts.SentimentDistribution `json:"distribution"`
	TitleFallback bool                            `json:"title_fallback,omitempty"`
}

// EvaluateRequest is the body of POST /api/views/evaluate
type EvaluateRequest struct {
	Now         *time.Time                   `json:"now,omitempty"`
	Instruments map[string][]EvaluateArticle `json:"instruments"`
}

// Scored converts the request into scored articles per instrument
func (req EvaluateRequest) Scored() map[string][]contracts.ScoredArticle {
	scored := make(map[string][]contracts.ScoredArticle, len(req.Instruments))
	for id, articles := range req.Instruments {
		list := make([]contracts.ScoredArticle, 0, len(articles))
		for _, a := range articles {
			list = append(list, contracts.ScoredArticle{
				Article: contracts.Article{
					Title:       a.Title,
					Text:        a.Text,
					Link:        a.Link,
					Source:      a.Source,
					PublishedAt: a.Date,
				},
				Distribution:  a.Distribution,
				TitleFallback: a.TitleFallback,
			})
		}
		scored[id] = list
	}
	return scored
}

// EvaluateResponse returns the sparse views and the dense report
type EvaluateResponse struct {
	Views       contracts.ViewSet                     `json:"views"`
	Instruments map[string]*pipeline.InstrumentResult `json:"instruments"`
	ConfigHash  string                                `json:"config_hash"`
}

// Evaluate aggregates caller-supplied distributions; no collaborators are called
// POST /api/views/evaluate
func (h *ViewsHandler) Evaluate(w http.ResponseWriter, r *http.Request) {
	var req EvaluateRequest
	if err := decodeBody(w, r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if len(req.Instruments) == 0 {
		respondError(w, http.StatusBadRequest, "instruments is required")
		return
	}

	now := time.Now().UTC()
	if req.Now != nil {
		now = *req.Now
	}

	scored := req.Scored()

	set, results, err := h.orchestrator.EvaluateAll(r.Context(), scored, now)
	if err != nil {
		if errors.Is(err, contracts.ErrMalformedDistribution) {
			respondError(w, http.StatusUnprocessableEntity, err.Error())
			return
		}
		h.logger.WithError(err).Error("Failed to evaluate views")
		respondError(w, http.StatusInternalServerError, "Failed to evaluate views")
		return
	}

	respondJSON(w, http.StatusOK, EvaluateResponse{
		Views:       set,
		Instruments: results,
		ConfigHash:  h.orchestrator.ConfigHash(),
	})
}

// RunRequest is the body of POST /api/views/run
type RunRequest struct {
	Instruments []string `json:"instruments"`
	Concurrency int      `json:"concurrency,omitempty"`
}

// Run executes the full pipeline synchronously
// POST /api/views/run
func (h *ViewsHandler) Run(w http.ResponseWriter, r *http.Request) {
	var req RunRequest
	if r.ContentLength != 0 {
		if err := decodeBody(w, r, &req); err != nil {
			respondError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
			return
		}
	}

	instruments := req.Instruments
	if len(instruments) == 0 {
		instruments = h.defaultInstruments
	}
	if len(pipeline.NormalizeInstruments(instruments)) == 0 {
		respondError(w, http.StatusBadRequest, "no instruments to run")
		return
	}

	result, err := h.orchestrator.Run(r.Context(), pipeline.RunConfig{
		Instruments: instruments,
		Concurrency: req.Concurrency,
	})
	if err != nil {
		h.logger.WithError(err).Error("Views run failed")
		respondError(w, http.StatusServiceUnavailable, "Views run failed")
		return
	}

	respondJSON(w, http.StatusOK, result)
}

// ConfigResponse exposes the active configuration
type ConfigResponse struct {
	Hash   string             `json:"hash"`
	Config *viewconfig.Config `json:"config"`
}

// GetConfig returns the active views configuration
// GET /api/config
func (h *ViewsHandler) GetConfig(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, ConfigResponse{
		Hash:   h.orchestrator.ConfigHash(),
		Config: h.orchestrator.Config(),
	})
}
