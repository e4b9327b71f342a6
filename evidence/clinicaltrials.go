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

const defaultClinicalTrialsBaseURL = "https://clinicaltrials.gov/api/v2"

// ClinicalTrialsAdapter fetches trial registrations from the
// ClinicalTrials.gov v2 API.
type ClinicalTrialsAdapter struct {
	baseURL  string
	client   *http.Client
	maxItems int
	logger   *zap.Logger
}

// NewClinicalTrialsAdapter creates an adapter. A zero maxItems
// defaults to 10.
func NewClinicalTrialsAdapter(client *http.Client, maxItems int, logger *zap.Logger) *ClinicalTrialsAdapter {
	if client == nil {
		client = http.DefaultClient
	}
	if maxItems <= 0 {
		maxItems = 10
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ClinicalTrialsAdapter{
		baseURL:  defaultClinicalTrialsBaseURL,
		client:   client,
		maxItems: maxItems,
		logger:   logger.With(zap.String("component", "clinicaltrials_adapter")),
	}
}

// WithBaseURL overrides the API base URL, mainly for tests.
func (a *ClinicalTrialsAdapter) WithBaseURL(base string) *ClinicalTrialsAdapter {
	a.baseURL = strings.TrimRight(base, "/")
	return a
}

// Source implements Adapter.
func (a *ClinicalTrialsAdapter) Source() SourceID { return SourceClinicalTrials }

type ctgovResponse struct {
	Studies []struct {
		ProtocolSection struct {
			IdentificationModule struct {
				NCTID      string `json:"nctId"`
				BriefTitle string `json:"briefTitle"`
			} `json:"identificationModule"`
			StatusModule struct {
				OverallStatus string `json:"overallStatus"`
			} `json:"statusModule"`
			DesignModule struct {
				Phases []string `json:"phases"`
			} `json:"designModule"`
		} `json:"protocolSection"`
	} `json:"studies"`
}

// Fetch implements Adapter.
func (a *ClinicalTrialsAdapter) Fetch(ctx context.Context, topic string) (*Set, error) {
	q := url.Values{}
	q.Set("query.term", topic)
	q.Set("pageSize", strconv.Itoa(a.maxItems))
	q.Set("fields", "protocolSection.identificationModule,protocolSection.statusModule,protocolSection.designModule")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		a.baseURL+"/studies?"+q.Encode(), nil)
	if err != nil {
		return nil, transportError(SourceClinicalTrials, err)
	}

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, transportError(SourceClinicalTrials, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, statusError(SourceClinicalTrials, resp.StatusCode)
	}

	var body ctgovResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, decodeError(SourceClinicalTrials, err)
	}

	set := &Set{Source: SourceClinicalTrials, FetchedAt: time.Now().UTC()}
	for _, study := range body.Studies {
		ident := study.ProtocolSection.IdentificationModule
		if ident.NCTID == "" {
			continue
		}
		meta := map[string]string{
			"status": study.ProtocolSection.StatusModule.OverallStatus,
		}
		if phases := study.ProtocolSection.DesignModule.Phases; len(phases) > 0 {
			meta["phase"] = strings.Join(phases, ", ")
		}
		set.Items = append(set.Items, Item{
			ID:       ident.NCTID,
			Title:    ident.BriefTitle,
			Metadata: meta,
		})
	}

	a.logger.Debug("fetched trials",
		zap.String("topic", topic),
		zap.Int("count", len(set.Items)),
	)
	return set, nil
}
