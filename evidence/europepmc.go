package evidence

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
)

const defaultEuropePMCBaseURL = "https://www.ebi.ac.uk/europepmc/webservices/rest"

// EuropePMCAdapter fetches literature from the Europe PMC REST API.
// It complements PubMed with preprints and non-MEDLINE sources.
type EuropePMCAdapter struct {
	baseURL  string
	client   *http.Client
	maxItems int
	logger   *zap.Logger
}

// NewEuropePMCAdapter creates an adapter.
func NewEuropePMCAdapter(client *http.Client, maxItems int, logger *zap.Logger) *EuropePMCAdapter {
	if client == nil {
		client = http.DefaultClient
	}
	if maxItems <= 0 {
		maxItems = 10
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EuropePMCAdapter{
		baseURL:  defaultEuropePMCBaseURL,
		client:   client,
		maxItems: maxItems,
		logger:   logger.With(zap.String("component", "europepmc_adapter")),
	}
}

// WithBaseURL overrides the API base URL, mainly for tests.
func (a *EuropePMCAdapter) WithBaseURL(base string) *EuropePMCAdapter {
	a.baseURL = strings.TrimRight(base, "/")
	return a
}

// Source implements Adapter.
func (a *EuropePMCAdapter) Source() SourceID { return SourceEuropePMC }

type epmcResponse struct {
	ResultList struct {
		Result []struct {
			ID           string `json:"id"`
			Source       string `json:"source"`
			Title        string `json:"title"`
			JournalTitle string `json:"journalTitle"`
			PubYear      string `json:"pubYear"`
		} `json:"result"`
	} `json:"resultList"`
}

// Fetch implements Adapter.
func (a *EuropePMCAdapter) Fetch(ctx context.Context, topic string) (*Set, error) {
	q := url.Values{}
	q.Set("query", topic)
	q.Set("format", "json")
	q.Set("pageSize", strconv.Itoa(a.maxItems))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		a.baseURL+"/search?"+q.Encode(), nil)
	if err != nil {
		return nil, transportError(SourceEuropePMC, err)
	}

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, transportError(SourceEuropePMC, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, statusError(SourceEuropePMC, resp.StatusCode)
	}

	var body epmcResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, decodeError(SourceEuropePMC, err)
	}

	set := &Set{Source: SourceEuropePMC, FetchedAt: time.Now().UTC()}
	for _, r := range body.ResultList.Result {
		if r.ID == "" {
			continue
		}
		id := r.ID
		if r.Source != "" {
			id = r.Source + ":" + r.ID
		}
		set.Items = append(set.Items, Item{
			ID:    id,
			Title: r.Title,
			Metadata: map[string]string{
				"journal": r.JournalTitle,
				"year":    r.PubYear,
			},
		})
	}

	a.logger.Debug("fetched europepmc results",
		zap.String("topic", topic),
		zap.Int("count", len(set.Items)),
	)
	return set, nil
}
