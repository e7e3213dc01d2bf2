package connectors

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/time/rate"

	"goscout/models"
	"goscout/ports"
)

const (
	arxivAPIBase = "https://export.arxiv.org/api/query"
	// arXiv asks API clients for no more than one request every 3 seconds
	arxivMinInterval = 3 * time.Second
)

// ArxivConnector searches the arXiv Atom API and normalizes entries into
// items. The feed is parsed with goquery's lenient parser, which tolerates
// the namespaced Atom markup without a schema.
type ArxivConnector struct {
	client  *http.Client
	limiter *rate.Limiter
	baseURL string
}

var _ ports.Connector = (*ArxivConnector)(nil)

// NewArxivConnector wires an HTTP client; nil uses a 20s-timeout default.
func NewArxivConnector(client *http.Client) *ArxivConnector {
	if client == nil {
		client = &http.Client{Timeout: 20 * time.Second}
	}
	return &ArxivConnector{
		client:  client,
		limiter: rate.NewLimiter(rate.Every(arxivMinInterval), 1),
		baseURL: arxivAPIBase,
	}
}

// Name identifies the provider inside the registry.
func (a *ArxivConnector) Name() string {
	return "arxiv"
}

// Search queries the arXiv API for the given terms.
func (a *ArxivConnector) Search(ctx context.Context, query string, opts ports.SearchOptions) ([]*models.Item, error) {
	if err := a.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	maxResults := opts.MaxResults
	if maxResults <= 0 || maxResults > 100 {
		maxResults = 25
	}

	params := url.Values{}
	params.Set("search_query", "all:"+query)
	params.Set("max_results", fmt.Sprintf("%d", maxResults))
	sortBy := "relevance"
	if opts.SortBy == "date" {
		sortBy = "submittedDate"
	}
	params.Set("sortBy", sortBy)
	params.Set("sortOrder", "descending")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", "goscout/1.0")

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("arxiv request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("arxiv returned %s", resp.Status)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse feed: %w", err)
	}

	return a.extractItems(doc, opts), nil
}

func (a *ArxivConnector) extractItems(doc *goquery.Document, opts ports.SearchOptions) []*models.Item {
	var items []*models.Item

	doc.Find("entry").Each(func(i int, entry *goquery.Selection) {
		title := collapseWhitespace(entry.Find("title").First().Text())
		abstract := collapseWhitespace(entry.Find("summary").First().Text())
		rawID := strings.TrimSpace(entry.Find("id").First().Text())
		if title == "" || rawID == "" {
			return
		}

		item := models.NewItem(models.SourceID{
			Provider:   a.Name(),
			ExternalID: arxivIDFromURL(rawID),
		}, title, abstract)
		item.URL = rawID

		if published, err := time.Parse(time.RFC3339, strings.TrimSpace(entry.Find("published").First().Text())); err == nil {
			item.PublishedAt = &published
		}
		entry.Find("category").Each(func(_ int, cat *goquery.Selection) {
			if term, ok := cat.Attr("term"); ok && term != "" {
				item.Tags = append(item.Tags, term)
			}
		})

		if !withinDateRange(item.PublishedAt, opts) {
			return
		}
		items = append(items, item)
	})

	return items
}

// arxivIDFromURL turns "http://arxiv.org/abs/2401.01234v2" into "2401.01234v2".
func arxivIDFromURL(raw string) string {
	if idx := strings.LastIndex(raw, "/abs/"); idx >= 0 {
		return raw[idx+len("/abs/"):]
	}
	return raw
}

func collapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func withinDateRange(published *time.Time, opts ports.SearchOptions) bool {
	if published == nil {
		return true
	}
	if opts.MinDate != nil && published.Before(*opts.MinDate) {
		return false
	}
	if opts.MaxDate != nil && published.After(*opts.MaxDate) {
		return false
	}
	return true
}
