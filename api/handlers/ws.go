package handlers

import (
	"net/http"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"go.uber.org/zap"

	"github.com/BaSui01/bioflow/api"
	"github.com/BaSui01/bioflow/engine"
)

// HandleResearchWS streams a run over a WebSocket. The client sends
// one ResearchRequest as the first text frame; the server answers
// with the event stream and closes after the terminal event.
func (h *ResearchHandler) HandleResearchWS(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket accept failed", zap.Error(err))
		return
	}
	defer conn.CloseNow()

	ctx := r.Context()

	var req api.ResearchRequest
	if err := wsjson.Read(ctx, conn, &req); err != nil {
		_ = conn.Close(websocket.StatusInvalidFramePayloadData, "expected a research request")
		return
	}

	x := h.engine.Stream(ctx, engine.Request{
		Topic:         req.Topic,
		Clarification: req.Clarification,
		DebateRounds:  req.DebateRounds,
	})
	for ev := range x.Events() {
		if err := wsjson.Write(ctx, conn, ev); err != nil {
			h.logger.Debug("websocket write failed", zap.Error(err))
			return
		}
	}

	_ = conn.Close(websocket.StatusNormalClosure, "run finished")
}
