package handlers

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BaSui01/bioflow/config"
	"github.com/BaSui01/bioflow/engine"
	"github.com/BaSui01/bioflow/evidence"
	"github.com/BaSui01/bioflow/testutil/mocks"
)

const hypothesisJSON = `[
  {"statement": "Sotorasib plus SHP2 inhibition overcomes adaptive resistance.", "supporting_evidence_refs": ["NCT00000001"]},
  {"statement": "Baseline KEAP1 status predicts response durability.", "supporting_evidence_refs": ["PMID:1"]},
  {"statement": "Intermittent dosing widens the therapeutic window.", "supporting_evidence_refs": []}
]`

const clarificationJSON = `{
  "focus_question": "What aspect of KRAS G12C interests you?",
  "focus_options": [
    {"id": "efficacy", "label": "Treatment efficacy", "description": "Compare outcomes."},
    {"id": "mechanism", "label": "Mechanism of action", "description": "Pathways and targets."}
  ],
  "target_question": "A specific intervention?"
}`

func scriptedClient() *mocks.MockInferenceClient {
	return mocks.NewMockInferenceClient().
		WithResponse("target analysis expert", "- **Gene/Target**: KRAS").
		WithResponse("clinical trials analyst", "one pivotal trial").
		WithResponse("literature analyst", "covalent inhibition").
		WithResponse("generating testable hypotheses", hypothesisJSON).
		WithResponse("research advocate", "supported").
		WithResponse("research skeptic", "small samples").
		WithResponse("neutral scientific mediator", "moderate evidence").
		WithResponse("senior biotech analyst", "## Target Overview\nKRAS G12C is druggable.").
		WithResponse("helpful research assistant", clarificationJSON)
}

func newTestHandler(t *testing.T) *ResearchHandler {
	t.Helper()
	client := scriptedClient()
	adapters := []evidence.Adapter{
		mocks.NewMockAdapter(evidence.SourceClinicalTrials).
			WithItems(evidence.Item{ID: "NCT00000001", Title: "Sotorasib in NSCLC"}),
		mocks.NewMockAdapter(evidence.SourcePubMed).
			WithItems(evidence.Item{ID: "PMID:1", Title: "Resistance mechanisms"}),
	}
	eng := engine.New(client, adapters, config.PipelineConfig{
		DefaultDebateRounds: 1,
		MaxDebateRounds:     5,
		HypothesisTarget:    3,
		ContextTokenBudget:  1200,
	})
	return NewResearchHandler(eng, engine.NewClarifier(client, nil), nil)
}

func postJSON(t *testing.T, h http.HandlerFunc, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h(rec, req)
	return rec
}

func TestHandleResearch(t *testing.T) {
	h := newTestHandler(t)
	rec := postJSON(t, h.HandleResearch, `{"topic": "KRAS G12C"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Success bool           `json:"success"`
		Data    *engine.Result `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	require.NotNil(t, resp.Data)
	assert.Equal(t, engine.StatusDone, resp.Data.Status)
	assert.Contains(t, resp.Data.Brief, "Target Overview")
	assert.Len(t, resp.Data.Hypotheses, 3)
}

func TestHandleResearchRejectsBadRequests(t *testing.T) {
	h := newTestHandler(t)

	rec := postJSON(t, h.HandleResearch, `{"topic":`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = postJSON(t, h.HandleResearch, `{"topic": ""}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = postJSON(t, h.HandleResearch, `{"topic": "x", "unknown_field": 1}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleResearchStream(t *testing.T) {
	srv := httptest.NewServer(NewRouter(newTestHandler(t)))
	defer srv.Close()

	resp, err := http.Post(srv.URL+"/research/stream", "application/json",
		strings.NewReader(`{"topic": "KRAS G12C", "debate_rounds": 1}`))
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	var events []engine.Event
	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		if !strings.HasPrefix(line, "data: ") {
			continue
		}
		var ev engine.Event
		require.NoError(t, json.Unmarshal([]byte(strings.TrimPrefix(line, "data: ")), &ev))
		events = append(events, ev)
	}
	require.NoError(t, scanner.Err())

	require.NotEmpty(t, events)
	assert.Equal(t, engine.EventStatus, events[0].Type)
	assert.Equal(t, engine.NodeAnalyzer, events[0].Node)
	assert.Equal(t, engine.EventDone, events[len(events)-1].Type)

	// The brief arrives as the synthesizer's agent message.
	var sawBrief bool
	for _, ev := range events {
		if ev.Type == engine.EventAgentMessage && ev.Node == engine.NodeSynthesizer {
			sawBrief = strings.Contains(ev.Content, "Target Overview")
		}
	}
	assert.True(t, sawBrief)
}

func TestHandleResearchWS(t *testing.T) {
	srv := httptest.NewServer(NewRouter(newTestHandler(t)))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/research/ws"
	conn, _, err := websocket.Dial(ctx, url, nil)
	require.NoError(t, err)
	defer conn.CloseNow()

	rounds := 1
	require.NoError(t, wsjson.Write(ctx, conn, map[string]any{
		"topic":         "KRAS G12C",
		"debate_rounds": rounds,
	}))

	var last engine.Event
	for {
		var ev engine.Event
		if err := wsjson.Read(ctx, conn, &ev); err != nil {
			break
		}
		last = ev
	}
	assert.Equal(t, engine.EventDone, last.Type)
}

func TestHandleFollowUp(t *testing.T) {
	h := newTestHandler(t)
	rec := postJSON(t, h.HandleFollowUp,
		`{"topic": "KRAS G12C", "question": "which combination?", "prior_brief": "## Target Overview\nprior"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Data *engine.Result `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotNil(t, resp.Data)
	assert.Equal(t, engine.StatusDone, resp.Data.Status)
	assert.Empty(t, resp.Data.Evidence)
}

func TestHandleClarify(t *testing.T) {
	h := newTestHandler(t)
	rec := postJSON(t, h.HandleClarify, `{"topic": "KRAS G12C"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Data *engine.Clarification `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotNil(t, resp.Data)
	assert.Len(t, resp.Data.FocusOptions, 2)
}

func TestHandleHealthz(t *testing.T) {
	srv := httptest.NewServer(NewRouter(newTestHandler(t)))
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
