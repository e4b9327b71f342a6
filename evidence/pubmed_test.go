package evidence

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BaSui01/bioflow/types"
)

func pubmedTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/esearch.fcgi":
			assert.Equal(t, "pubmed", r.URL.Query().Get("db"))
			w.Write([]byte(`{"esearchresult": {"idlist": ["38412345", "37651234"]}}`))
		case "/esummary.fcgi":
			assert.Equal(t, "38412345,37651234", r.URL.Query().Get("id"))
			w.Write([]byte(`{
  "result": {
    "uids": ["38412345", "37651234"],
    "38412345": {"title": "KRAS G12C inhibitor resistance mechanisms", "pubdate": "2024 Mar", "fulljournalname": "Nature Cancer"},
    "37651234": {"title": "Covalent inhibition of mutant KRAS", "pubdate": "2023 Sep", "fulljournalname": "Cell"}
  }
}`))
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	}))
}

func TestPubMedAdapter_Fetch(t *testing.T) {
	srv := pubmedTestServer(t)
	defer srv.Close()

	a := NewPubMedAdapter(srv.Client(), "", 10, nil).WithBaseURL(srv.URL)
	set, err := a.Fetch(context.Background(), "KRAS G12C")
	require.NoError(t, err)

	assert.Equal(t, SourcePubMed, set.Source)
	require.Len(t, set.Items, 2)
	// Order follows the esearch relevance ranking, not map order.
	assert.Equal(t, "PMID:38412345", set.Items[0].ID)
	assert.Equal(t, "KRAS G12C inhibitor resistance mechanisms", set.Items[0].Title)
	assert.Equal(t, "Nature Cancer", set.Items[0].Metadata["journal"])
	assert.Equal(t, "PMID:37651234", set.Items[1].ID)
}

func TestPubMedAdapter_NoResults(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/esearch.fcgi", r.URL.Path, "esummary must not be called for empty id list")
		w.Write([]byte(`{"esearchresult": {"idlist": []}}`))
	}))
	defer srv.Close()

	a := NewPubMedAdapter(srv.Client(), "", 10, nil).WithBaseURL(srv.URL)
	set, err := a.Fetch(context.Background(), "zzz-no-such-gene")
	require.NoError(t, err)
	assert.Empty(t, set.Items)
}

func TestPubMedAdapter_APIKeyForwarded(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "secret", r.URL.Query().Get("api_key"))
		w.Write([]byte(`{"esearchresult": {"idlist": []}}`))
	}))
	defer srv.Close()

	a := NewPubMedAdapter(srv.Client(), "secret", 10, nil).WithBaseURL(srv.URL)
	_, err := a.Fetch(context.Background(), "BRAF V600E")
	require.NoError(t, err)
}

func TestPubMedAdapter_RateLimited(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	a := NewPubMedAdapter(srv.Client(), "", 10, nil).WithBaseURL(srv.URL)
	_, err := a.Fetch(context.Background(), "EGFR")
	require.Error(t, err)
	assert.Equal(t, types.ErrSourceRateLimited, types.GetErrorCode(err))
	assert.True(t, types.IsRetryable(err))
}
