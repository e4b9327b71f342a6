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

const defaultEUtilsBaseURL = "https://eutils.ncbi.nlm.nih.gov/entrez/eutils"

// PubMedAdapter fetches literature via the NCBI E-utilities.
// Two-step search: esearch (find PMIDs) then esummary (titles and
// journal metadata).
type PubMedAdapter struct {
	baseURL  string
	apiKey   string
	client   *http.Client
	maxItems int
	logger   *zap.Logger
}

// NewPubMedAdapter creates an adapter. apiKey may be empty; NCBI then
// applies its stricter anonymous rate limit.
func NewPubMedAdapter(client *http.Client, apiKey string, maxItems int, logger *zap.Logger) *PubMedAdapter {
	if client == nil {
		client = http.DefaultClient
	}
	if maxItems <= 0 {
		maxItems = 10
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PubMedAdapter{
		baseURL:  defaultEUtilsBaseURL,
		apiKey:   apiKey,
		client:   client,
		maxItems: maxItems,
		logger:   logger.With(zap.String("component", "pubmed_adapter")),
	}
}

// WithBaseURL overrides the API base URL, mainly for tests.
func (a *PubMedAdapter) WithBaseURL(base string) *PubMedAdapter {
	a.baseURL = strings.TrimRight(base, "/")
	return a
}

// Source implements Adapter.
func (a *PubMedAdapter) Source() SourceID { return SourcePubMed }

type esearchResponse struct {
	ESearchResult struct {
		IDList []string `json:"idlist"`
	} `json:"esearchresult"`
}

type esummaryEntry struct {
	Title           string `json:"title"`
	PubDate         string `json:"pubdate"`
	FullJournalName string `json:"fulljournalname"`
}

type esummaryResponse struct {
	Result map[string]json.RawMessage `json:"result"`
}

// Fetch implements Adapter.
func (a *PubMedAdapter) Fetch(ctx context.Context, topic string) (*Set, error) {
	ids, err := a.search(ctx, topic)
	if err != nil {
		return nil, err
	}

	set := &Set{Source: SourcePubMed, FetchedAt: time.Now().UTC()}
	if len(ids) == 0 {
		return set, nil
	}

	summaries, err := a.summaries(ctx, ids)
	if err != nil {
		return nil, err
	}

	for _, id := range ids {
		entry, ok := summaries[id]
		if !ok {
			continue
		}
		set.Items = append(set.Items, Item{
			ID:    "PMID:" + id,
			Title: entry.Title,
			Metadata: map[string]string{
				"journal": entry.FullJournalName,
				"pubdate": entry.PubDate,
			},
		})
	}

	a.logger.Debug("fetched papers",
		zap.String("topic", topic),
		zap.Int("count", len(set.Items)),
	)
	return set, nil
}

func (a *PubMedAdapter) search(ctx context.Context, topic string) ([]string, error) {
	q := url.Values{}
	q.Set("db", "pubmed")
	q.Set("term", topic)
	q.Set("retmax", strconv.Itoa(a.maxItems))
	q.Set("retmode", "json")
	q.Set("sort", "relevance")
	if a.apiKey != "" {
		q.Set("api_key", a.apiKey)
	}

	var body esearchResponse
	if err := a.get(ctx, "/esearch.fcgi?"+q.Encode(), &body); err != nil {
		return nil, err
	}
	return body.ESearchResult.IDList, nil
}

func (a *PubMedAdapter) summaries(ctx context.Context, ids []string) (map[string]esummaryEntry, error) {
	q := url.Values{}
	q.Set("db", "pubmed")
	q.Set("id", strings.Join(ids, ","))
	q.Set("retmode", "json")
	if a.apiKey != "" {
		q.Set("api_key", a.apiKey)
	}

	var body esummaryResponse
	if err := a.get(ctx, "/esummary.fcgi?"+q.Encode(), &body); err != nil {
		return nil, err
	}

	// The result object mixes a "uids" array with per-PMID entries,
	// so each value has to be decoded individually.
	entries := make(map[string]esummaryEntry, len(ids))
	for key, raw := range body.Result {
		if key == "uids" {
			continue
		}
		var entry esummaryEntry
		if err := json.Unmarshal(raw, &entry); err != nil {
			continue
		}
		entries[key] = entry
	}
	return entries, nil
}

func (a *PubMedAdapter) get(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.baseURL+path, nil)
	if err != nil {
		return transportError(SourcePubMed, err)
	}

	resp, err := a.client.Do(req)
	if err != nil {
		return transportError(SourcePubMed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return statusError(SourcePubMed, resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return decodeError(SourcePubMed, err)
	}
	return nil
}
