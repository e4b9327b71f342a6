package evidence

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/BaSui01/bioflow/types"
)

// SourceID identifies one evidence source. Each source owns exactly
// one slot in the research state's evidence map.
type SourceID string

const (
	SourceClinicalTrials SourceID = "clinicaltrials"
	SourcePubMed         SourceID = "pubmed"
	SourceEuropePMC      SourceID = "europepmc"
)

// Item is a single piece of evidence: a trial registration or a paper.
type Item struct {
	ID       string            `json:"id"`
	Title    string            `json:"title"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// Set is the result of one fetch against one source.
type Set struct {
	Source    SourceID  `json:"source"`
	Items     []Item    `json:"items"`
	FetchedAt time.Time `json:"fetched_at"`
}

// Adapter is the uniform fetch interface consumed by scout stages.
type Adapter interface {
	Source() SourceID
	Fetch(ctx context.Context, topic string) (*Set, error)
}

// IsAdapterError reports whether err carries one of the evidence
// source error codes. The engine absorbs these as partial evidence
// instead of failing the run.
func IsAdapterError(err error) bool {
	switch types.GetErrorCode(err) {
	case types.ErrSourceRateLimited, types.ErrSourceNotFound,
		types.ErrSourceTransient, types.ErrSourceMalformed:
		return true
	}
	return false
}

// statusError maps an HTTP response status to the typed taxonomy.
func statusError(source SourceID, status int) error {
	msg := fmt.Sprintf("unexpected status %d", status)
	switch {
	case status == http.StatusTooManyRequests:
		return types.NewError(types.ErrSourceRateLimited, msg).
			WithSource(string(source)).WithRetryable(true)
	case status >= 400 && status < 500:
		return types.NewError(types.ErrSourceNotFound, msg).
			WithSource(string(source))
	default:
		return types.NewError(types.ErrSourceTransient, msg).
			WithSource(string(source)).WithRetryable(true)
	}
}

// transportError wraps a network-level failure as transient.
func transportError(source SourceID, err error) error {
	return types.NewError(types.ErrSourceTransient, "request failed").
		WithSource(string(source)).WithRetryable(true).WithCause(err)
}

// decodeError wraps a malformed upstream payload. Not retryable: the
// payload will not get better on the next attempt.
func decodeError(source SourceID, err error) error {
	return types.NewError(types.ErrSourceMalformed, "decode response").
		WithSource(string(source)).WithCause(err)
}
