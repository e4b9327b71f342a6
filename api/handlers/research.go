package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/BaSui01/bioflow/api"
	"github.com/BaSui01/bioflow/engine"
	"github.com/BaSui01/bioflow/types"
)

// ResearchHandler serves the research pipeline over HTTP.
type ResearchHandler struct {
	engine    *engine.Engine
	clarifier *engine.Clarifier
	logger    *zap.Logger
}

// NewResearchHandler builds the handler. A nil logger is replaced
// with a nop logger.
func NewResearchHandler(eng *engine.Engine, clarifier *engine.Clarifier, logger *zap.Logger) *ResearchHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ResearchHandler{
		engine:    eng,
		clarifier: clarifier,
		logger:    logger.With(zap.String("component", "research_handler")),
	}
}

// HandleResearch runs the pipeline synchronously and returns the full
// research artifact.
func (h *ResearchHandler) HandleResearch(w http.ResponseWriter, r *http.Request) {
	var req api.ResearchRequest
	if err := decodeBody(r, &req); err != nil {
		WriteError(w, err, h.logger)
		return
	}
	res, err := h.engine.RunSync(r.Context(), engine.Request{
		Topic:         req.Topic,
		Clarification: req.Clarification,
		DebateRounds:  req.DebateRounds,
	})
	if err != nil {
		WriteError(w, err, h.logger)
		return
	}
	WriteSuccess(w, res)
}

// HandleResearchStream runs the pipeline and streams events over SSE.
// The synthesizer's agent message carries the brief; `done` (or
// `error`/`cancelled`) is always the final frame.
func (h *ResearchHandler) HandleResearchStream(w http.ResponseWriter, r *http.Request) {
	var req api.ResearchRequest
	if err := decodeBody(r, &req); err != nil {
		WriteError(w, err, h.logger)
		return
	}
	h.streamEvents(w, r, h.engine.Stream(r.Context(), engine.Request{
		Topic:         req.Topic,
		Clarification: req.Clarification,
		DebateRounds:  req.DebateRounds,
	}))
}

// HandleFollowUp runs the reduced follow-up graph synchronously.
func (h *ResearchHandler) HandleFollowUp(w http.ResponseWriter, r *http.Request) {
	var req api.FollowUpRequest
	if err := decodeBody(r, &req); err != nil {
		WriteError(w, err, h.logger)
		return
	}
	res, err := h.engine.FollowUpSync(r.Context(), engine.FollowUpRequest{
		Topic:        req.Topic,
		Question:     req.Question,
		PriorBrief:   req.PriorBrief,
		DebateRounds: req.DebateRounds,
	})
	if err != nil {
		WriteError(w, err, h.logger)
		return
	}
	WriteSuccess(w, res)
}

// HandleFollowUpStream streams the follow-up graph over SSE.
func (h *ResearchHandler) HandleFollowUpStream(w http.ResponseWriter, r *http.Request) {
	var req api.FollowUpRequest
	if err := decodeBody(r, &req); err != nil {
		WriteError(w, err, h.logger)
		return
	}
	bus := engine.NewBus(16)
	go func() {
		defer bus.Close()
		_, _ = h.engine.FollowUp(r.Context(), engine.FollowUpRequest{
			Topic:        req.Topic,
			Question:     req.Question,
			PriorBrief:   req.PriorBrief,
			DebateRounds: req.DebateRounds,
		}, bus)
	}()
	h.streamBus(w, r, bus.Events())
}

// HandleClarify returns a clarification form for a topic.
func (h *ResearchHandler) HandleClarify(w http.ResponseWriter, r *http.Request) {
	var req api.ClarifyRequest
	if err := decodeBody(r, &req); err != nil {
		WriteError(w, err, h.logger)
		return
	}
	form, err := h.clarifier.Propose(r.Context(), req.Topic)
	if err != nil {
		WriteError(w, err, h.logger)
		return
	}
	WriteSuccess(w, form)
}

// HandleHealthz reports liveness.
func (h *ResearchHandler) HandleHealthz(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, map[string]any{
		"status":    "healthy",
		"timestamp": time.Now(),
	})
}

func (h *ResearchHandler) streamEvents(w http.ResponseWriter, r *http.Request, x *engine.Execution) {
	h.streamBus(w, r, x.Events())
}

func (h *ResearchHandler) streamBus(w http.ResponseWriter, r *http.Request, events <-chan engine.Event) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		WriteError(w, types.NewError(types.ErrValidationFailure, "streaming unsupported by connection"), h.logger)
		return
	}
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	for ev := range events {
		data, err := json.Marshal(ev)
		if err != nil {
			h.logger.Error("marshal event", zap.Error(err))
			continue
		}
		if _, err := fmt.Fprintf(w, "data: %s\n\n", data); err != nil {
			// Client went away; the run context ends with the request.
			h.logger.Debug("stream write failed", zap.Error(err))
			return
		}
		flusher.Flush()
	}
}

// NewRouter wires the handler's routes onto a mux.
func NewRouter(h *ResearchHandler) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /research", h.HandleResearch)
	mux.HandleFunc("POST /research/stream", h.HandleResearchStream)
	mux.HandleFunc("GET /research/ws", h.HandleResearchWS)
	mux.HandleFunc("POST /research/followup", h.HandleFollowUp)
	mux.HandleFunc("POST /research/followup/stream", h.HandleFollowUpStream)
	mux.HandleFunc("POST /clarify", h.HandleClarify)
	mux.HandleFunc("GET /healthz", h.HandleHealthz)
	return mux
}
