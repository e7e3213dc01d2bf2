package connectors

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"goscout/models"
	"goscout/ports"
)

const (
	crossrefAPIBase = "https://api.crossref.org/works"
	// polite-pool guidance caps anonymous clients around 1 req/s
	crossrefMinInterval = time.Second
)

// CrossrefConnector searches the Crossref works API.
type CrossrefConnector struct {
	client  *http.Client
	limiter *rate.Limiter
	baseURL string
	mailto  string
}

var _ ports.Connector = (*CrossrefConnector)(nil)

// NewCrossrefConnector wires an HTTP client; mailto joins the polite pool
// when set.
func NewCrossrefConnector(client *http.Client, mailto string) *CrossrefConnector {
	if client == nil {
		client = &http.Client{Timeout: 20 * time.Second}
	}
	return &CrossrefConnector{
		client:  client,
		limiter: rate.NewLimiter(rate.Every(crossrefMinInterval), 1),
		baseURL: crossrefAPIBase,
		mailto:  mailto,
	}
}

// Name identifies the provider inside the registry.
func (c *CrossrefConnector) Name() string {
	return "crossref"
}

type crossrefResponse struct {
	Message struct {
		Items []crossrefWork `json:"items"`
	} `json:"message"`
}

type crossrefWork struct {
	DOI      string     `json:"DOI"`
	Title    []string   `json:"title"`
	Abstract string     `json:"abstract"`
	URL      string     `json:"URL"`
	Subject  []string   `json:"subject"`
	Issued   struct {
		DateParts [][]int `json:"date-parts"`
	} `json:"issued"`
}

// Search queries Crossref for the given terms.
func (c *CrossrefConnector) Search(ctx context.Context, query string, opts ports.SearchOptions) ([]*models.Item, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	maxResults := opts.MaxResults
	if maxResults <= 0 || maxResults > 100 {
		maxResults = 25
	}

	params := url.Values{}
	params.Set("query", query)
	params.Set("rows", fmt.Sprintf("%d", maxResults))
	if opts.SortBy == "date" {
		params.Set("sort", "published")
		params.Set("order", "desc")
	}
	if c.mailto != "" {
		params.Set("mailto", c.mailto)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", "goscout/1.0")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("crossref request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("crossref returned %s", resp.Status)
	}

	var decoded crossrefResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	var items []*models.Item
	for _, work := range decoded.Message.Items {
		if work.DOI == "" || len(work.Title) == 0 || work.Title[0] == "" {
			continue
		}

		item := models.NewItem(models.SourceID{
			Provider:   c.Name(),
			ExternalID: work.DOI,
		}, work.Title[0], stripJATS(work.Abstract))
		item.URL = work.URL
		item.Tags = work.Subject

		if published := issuedDate(work.Issued.DateParts); published != nil {
			item.PublishedAt = published
		}
		if !withinDateRange(item.PublishedAt, opts) {
			continue
		}
		items = append(items, item)
	}
	return items, nil
}

// stripJATS removes the JATS XML tags Crossref embeds in abstracts.
func stripJATS(abstract string) string {
	if abstract == "" {
		return ""
	}
	var b strings.Builder
	inTag := false
	for _, r := range abstract {
		switch {
		case r == '<':
			inTag = true
		case r == '>':
			inTag = false
		case !inTag:
			b.WriteRune(r)
		}
	}
	return collapseWhitespace(b.String())
}

func issuedDate(dateParts [][]int) *time.Time {
	if len(dateParts) == 0 || len(dateParts[0]) == 0 {
		return nil
	}
	parts := dateParts[0]
	year, month, day := parts[0], 1, 1
	if len(parts) > 1 {
		month = parts[1]
	}
	if len(parts) > 2 {
		day = parts[2]
	}
	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	return &t
}
