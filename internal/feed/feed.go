package feed

import (
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"jobpilot/internal/util"
)

// Candidate is one normalized posting pulled from a feed, before it is
// upserted into the posting store.
type Candidate struct {
	Title       string
	Company     string
	Location    string
	ApplyURL    string
	Source      string
	Description string
	ScrapedAt   time.Time
}

// Source describes one syndication feed endpoint and how to split its item
// titles into (role, company).
type Source struct {
	Name           string `mapstructure:"name"`
	URL            string `mapstructure:"url"`
	TitleDelimiter string `mapstructure:"title-delimiter"`
}

// DefaultSources are the two pre-agreed feed endpoints.
func DefaultSources() []Source {
	return []Source{
		{Name: "WeWorkRemotely", URL: "https://weworkremotely.com/remote-jobs.rss", TitleDelimiter: " at "},
		{Name: "RemoteOK", URL: "https://remoteok.com/remote-jobs.rss", TitleDelimiter: " - "},
	}
}

const (
	// maxItemsPerFeed bounds the cost of one ingestion run.
	maxItemsPerFeed = 25
	// maxDescriptionChars bounds the stored description length.
	maxDescriptionChars = 1500

	companySentinel = "Confidential"
	defaultLocation = "Remote"

	fetchTimeout = 15 * time.Second
	userAgent    = "Mozilla/5.0 (compatible; jobpilot/1.0)"
)

// Ingestor fetches and normalizes postings from all configured sources.
type Ingestor struct {
	sources []Source
	client  *http.Client
	logger  *zap.Logger
}

func NewIngestor(sources []Source, logger *zap.Logger) *Ingestor {
	if len(sources) == 0 {
		sources = DefaultSources()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Ingestor{
		sources: sources,
		client:  &http.Client{Timeout: fetchTimeout},
		logger:  logger,
	}
}

// FetchAll fetches every source concurrently and returns the deduplicated
// candidates. A failing source is logged and skipped; it never aborts the
// others, so an error is returned only when the context is cancelled.
func (i *Ingestor) FetchAll(ctx context.Context) ([]Candidate, error) {
	var mu sync.Mutex
	collected := make([]Candidate, 0)

	group, groupCtx := errgroup.WithContext(ctx)
	for _, source := range i.sources {
		group.Go(func() error {
			candidates, err := i.fetchSource(groupCtx, source)
			if err != nil {
				i.logger.Warn("feed unavailable, skipping",
					zap.String("source", source.Name),
					zap.Error(err),
				)
				return nil
			}

			i.logger.Info("feed fetched",
				zap.String("source", source.Name),
				zap.Int("items", len(candidates)),
			)

			mu.Lock()
			collected = append(collected, candidates...)
			mu.Unlock()
			return nil
		})
	}

	if err := group.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	deduped := dedupeByURL(collected)
	if len(deduped) != len(collected) {
		i.logger.Info("deduplicated feed items",
			zap.Int("initial", len(collected)),
			zap.Int("left", len(deduped)),
		)
	}

	return deduped, nil
}

func (i *Ingestor) fetchSource(ctx context.Context, source Source) ([]Candidate, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, source.URL, nil)
	if err != nil {
		return nil, err
	}
	// Some RSS endpoints reject requests without a browser-like agent.
	req.Header.Set("User-Agent", userAgent)

	resp, err := i.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", source.Name, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch %s: bad status: %s", source.Name, resp.Status)
	}

	return parseFeed(resp.Body, source)
}

type rssDocument struct {
	Channel struct {
		Items []rssItem `xml:"item"`
	} `xml:"channel"`
}

type rssItem struct {
	Title       string `xml:"title"`
	Link        string `xml:"link"`
	GUID        string `xml:"guid"`
	Description string `xml:"description"`
}

// parseFeed decodes the syndication document and normalizes its items.
func parseFeed(body io.Reader, source Source) ([]Candidate, error) {
	var doc rssDocument
	decoder := xml.NewDecoder(body)
	decoder.Strict = false
	if err := decoder.Decode(&doc); err != nil {
		return nil, fmt.Errorf("parse %s feed: %w", source.Name, err)
	}

	now := time.Now().UTC()
	var candidates []Candidate

	for idx, item := range doc.Channel.Items {
		if idx >= maxItemsPerFeed {
			break
		}

		title, company := splitTitle(item.Title, source.TitleDelimiter)

		link := strings.TrimSpace(item.Link)
		if link == "" && strings.HasPrefix(strings.TrimSpace(item.GUID), "http") {
			link = strings.TrimSpace(item.GUID)
		}
		if link == "" || title == "" {
			continue
		}

		description := util.Truncate(stripMarkup(item.Description), maxDescriptionChars)

		candidates = append(candidates, Candidate{
			Title:       title,
			Company:     company,
			Location:    defaultLocation,
			ApplyURL:    link,
			Source:      source.Name,
			Description: description,
			ScrapedAt:   now,
		})
	}

	return candidates, nil
}

// splitTitle separates a feed item title into (role, company) using the
// source's delimiter convention. When splitting fails the whole string is the
// title and the company falls back to the sentinel.
func splitTitle(fullTitle, delimiter string) (title, company string) {
	title = strings.TrimSpace(fullTitle)
	company = companySentinel

	if delimiter == "" {
		return title, company
	}

	if idx := strings.Index(fullTitle, delimiter); idx != -1 {
		role := strings.TrimSpace(fullTitle[:idx])
		org := strings.TrimSpace(fullTitle[idx+len(delimiter):])
		if role != "" {
			title = role
		}
		if org != "" {
			company = org
		}
	}

	return title, company
}

var tagPattern = regexp.MustCompile(`<[^>]*>?`)

// stripMarkup flattens the HTML fragments feeds embed in item descriptions.
func stripMarkup(s string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(s))
	if err != nil {
		return strings.TrimSpace(tagPattern.ReplaceAllString(s, ""))
	}
	return strings.TrimSpace(strings.Join(strings.Fields(doc.Text()), " "))
}

// dedupeByURL keeps the last-seen candidate for each apply URL.
func dedupeByURL(in []Candidate) []Candidate {
	byURL := make(map[string]Candidate, len(in))
	order := make([]string, 0, len(in))
	for _, c := range in {
		if _, seen := byURL[c.ApplyURL]; !seen {
			order = append(order, c.ApplyURL)
		}
		byURL[c.ApplyURL] = c
	}

	out := make([]Candidate, 0, len(byURL))
	for _, url := range order {
		out = append(out, byURL[url])
	}
	return out
}
