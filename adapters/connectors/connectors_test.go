package connectors

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"goscout/ports"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const arxivFeed = `<?xml version="1.0" encoding="UTF-8"?>
<feed xmlns="http://www.w3.org/2005/Atom">
  <entry>
    <id>http://arxiv.org/abs/2401.01234v1</id>
    <title>Intermittent fasting and
      insulin sensitivity</title>
    <summary>We study the effect of time-restricted eating on insulin response.</summary>
    <published>2024-01-03T18:00:00Z</published>
    <category term="q-bio.QM"/>
    <category term="stat.AP"/>
  </entry>
  <entry>
    <id></id>
    <title>Entry without an id is dropped</title>
  </entry>
</feed>`

func TestArxivConnector_Search(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Contains(t, r.URL.Query().Get("search_query"), "fasting")
		w.Header().Set("Content-Type", "application/atom+xml")
		_, _ = w.Write([]byte(arxivFeed))
	}))
	defer srv.Close()

	conn := NewArxivConnector(srv.Client())
	conn.baseURL = srv.URL
	conn.limiter.SetLimit(1000) // no 3s wait in tests

	items, err := conn.Search(context.Background(), "fasting", ports.SearchOptions{MaxResults: 10})
	require.NoError(t, err)
	require.Len(t, items, 1)

	item := items[0]
	assert.Equal(t, "arxiv", item.Source.Provider)
	assert.Equal(t, "2401.01234v1", item.Source.ExternalID)
	assert.Equal(t, "Intermittent fasting and insulin sensitivity", item.Title)
	assert.Equal(t, []string{"q-bio.QM", "stat.AP"}, []string(item.Tags))
	require.NotNil(t, item.PublishedAt)
	assert.Equal(t, 2024, item.PublishedAt.Year())
	assert.False(t, item.Processed)
}

func TestArxivConnector_DateFilter(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(arxivFeed))
	}))
	defer srv.Close()

	conn := NewArxivConnector(srv.Client())
	conn.baseURL = srv.URL
	conn.limiter.SetLimit(1000)

	minDate := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	items, err := conn.Search(context.Background(), "fasting", ports.SearchOptions{MinDate: &minDate})
	require.NoError(t, err)
	assert.Empty(t, items)
}

const crossrefBody = `{
  "message": {
    "items": [
      {
        "DOI": "10.1000/test.1",
        "title": ["Gut microbiome diversity and cardiovascular outcomes"],
        "abstract": "<jats:p>A cohort study of microbiome diversity.</jats:p>",
        "URL": "https://doi.org/10.1000/test.1",
        "subject": ["Cardiology"],
        "issued": {"date-parts": [[2023, 11, 5]]}
      },
      {
        "DOI": "",
        "title": ["Work without a DOI is dropped"]
      }
    ]
  }
}`

func TestCrossrefConnector_Search(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "microbiome", r.URL.Query().Get("query"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(crossrefBody))
	}))
	defer srv.Close()

	conn := NewCrossrefConnector(srv.Client(), "team@example.org")
	conn.baseURL = srv.URL
	conn.limiter.SetLimit(1000)

	items, err := conn.Search(context.Background(), "microbiome", ports.SearchOptions{MaxResults: 10})
	require.NoError(t, err)
	require.Len(t, items, 1)

	item := items[0]
	assert.Equal(t, "crossref", item.Source.Provider)
	assert.Equal(t, "10.1000/test.1", item.Source.ExternalID)
	assert.Equal(t, "A cohort study of microbiome diversity.", item.Body)
	require.NotNil(t, item.PublishedAt)
	assert.Equal(t, time.November, item.PublishedAt.Month())
}

func TestCrossrefConnector_HTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	conn := NewCrossrefConnector(srv.Client(), "")
	conn.baseURL = srv.URL
	conn.limiter.SetLimit(1000)

	_, err := conn.Search(context.Background(), "anything", ports.SearchOptions{})
	assert.Error(t, err)
}

func TestRegistry(t *testing.T) {
	reg := NewRegistry()
	reg.Register(NewArxivConnector(nil))
	reg.Register(NewCrossrefConnector(nil, ""))

	c, err := reg.Resolve("arxiv")
	require.NoError(t, err)
	assert.Equal(t, "arxiv", c.Name())

	_, err = reg.Resolve("pubmed")
	assert.Error(t, err)

	all := reg.All()
	require.Len(t, all, 2)
	assert.Equal(t, "arxiv", all[0].Name())
	assert.Equal(t, "crossref", all[1].Name())
}
