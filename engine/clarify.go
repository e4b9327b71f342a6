package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/BaSui01/bioflow/llm"
	"github.com/BaSui01/bioflow/types"
)

const promptClarifier = `You are a helpful research assistant. The user wants to research a biomedical target and you must clarify their intent to provide better results.

Generate a structured clarification form with two parts:
1. Research Focus: multiple choice options with short descriptions.
2. Specific Target: an open-ended question about specific interventions or drugs.

Return ONLY a valid JSON object with keys:
- "focus_question" (string): e.g. "What aspect of <target> are you most interested in researching?"
- "focus_options" (array): 4 distinct options, each an object with "id", "label", and "description" strings
- "target_question" (string): e.g. "Do you have a specific intervention, drug, or trial you want to focus on?"`

// FocusOption is one selectable research direction.
type FocusOption struct {
	ID          string `json:"id"`
	Label       string `json:"label"`
	Description string `json:"description"`
}

// Clarification is the form a caller answers before starting a run.
type Clarification struct {
	FocusQuestion  string        `json:"focus_question"`
	FocusOptions   []FocusOption `json:"focus_options"`
	TargetQuestion string        `json:"target_question"`
}

// ClarifyAnswer is the caller's response to a Clarification.
type ClarifyAnswer struct {
	FocusID string `json:"focus_id"`
	Detail  string `json:"detail,omitempty"`
}

// Fold resolves the answer into the clarification string passed to
// Run. An unknown focus id is ignored rather than rejected: the
// free-text detail alone is still useful context.
func (c *Clarification) Fold(ans ClarifyAnswer) string {
	var parts []string
	for _, opt := range c.FocusOptions {
		if opt.ID == ans.FocusID {
			parts = append(parts, fmt.Sprintf("%s (%s)", opt.Label, opt.Description))
			break
		}
	}
	if detail := strings.TrimSpace(ans.Detail); detail != "" {
		parts = append(parts, "specific interest: "+detail)
	}
	return strings.Join(parts, "; ")
}

// Clarifier produces a clarification form from a single inference
// call. It sits outside the stage graph: no retries, no research
// state, no event stream.
type Clarifier struct {
	llm llm.Client
	log *zap.Logger
}

// NewClarifier builds a Clarifier. A nil logger is replaced with a
// nop logger.
func NewClarifier(client llm.Client, log *zap.Logger) *Clarifier {
	if log == nil {
		log = zap.NewNop()
	}
	return &Clarifier{llm: client, log: log.With(zap.String("component", "clarifier"))}
}

// Propose asks the model for focus options on the given topic.
func (c *Clarifier) Propose(ctx context.Context, topic string) (*Clarification, error) {
	if topic == "" {
		return nil, types.NewError(types.ErrValidationFailure, "topic must not be empty")
	}
	raw, err := c.llm.Complete(ctx, &llm.Request{
		System: promptClarifier,
		User:   "Research target: " + topic,
	})
	if err != nil {
		return nil, err
	}

	form, err := decodeClarification(raw)
	if err != nil {
		c.log.Warn("clarification output not parseable", zap.Error(err))
		return nil, types.NewError(types.ErrValidationFailure, "clarification response was not valid JSON").WithCause(err)
	}
	return form, nil
}

func decodeClarification(raw string) (*Clarification, error) {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start < 0 || end <= start {
		return nil, fmt.Errorf("no JSON object in response")
	}
	var form Clarification
	if err := json.Unmarshal([]byte(raw[start:end+1]), &form); err != nil {
		return nil, err
	}
	if form.FocusQuestion == "" || len(form.FocusOptions) == 0 {
		return nil, fmt.Errorf("clarification form missing focus options")
	}
	return &form, nil
}
