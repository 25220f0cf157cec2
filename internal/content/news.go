package content

import (
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/d60-Lab/social-publisher/pkg/logger"
)

const (
	defaultFeedURL = "https://news.google.com/rss/search"
	maxHeadlines   = 5
)

type rssFeed struct {
	Channel struct {
		Items []struct {
			Title string `xml:"title"`
		} `xml:"item"`
	} `xml:"channel"`
}

// HeadlineCache stores fetched headlines per industry.
type HeadlineCache interface {
	Get(ctx context.Context, industry string) ([]string, bool)
	Set(ctx context.Context, industry string, headlines []string)
}

// NewsFetcher reads industry headlines from an RSS search feed.
type NewsFetcher struct {
	http    *http.Client
	feedURL string
	cache   HeadlineCache
	sf      singleflight.Group
}

func NewNewsFetcher(feedURL string, timeout time.Duration, cache HeadlineCache) *NewsFetcher {
	if feedURL == "" {
		feedURL = defaultFeedURL
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &NewsFetcher{http: &http.Client{Timeout: timeout}, feedURL: feedURL, cache: cache}
}

// DefaultHeadlines stands in when the feed is unreachable or empty.
func DefaultHeadlines(industry string) []string {
	return []string{
		fmt.Sprintf("Latest %s trends and developments", industry),
		fmt.Sprintf("New innovations in %s sector", industry),
		fmt.Sprintf("Industry insights for %s professionals", industry),
		fmt.Sprintf("Breaking news in %s", industry),
		fmt.Sprintf("Expert analysis on %s market", industry),
	}
}

// Headlines returns up to five headlines for the industry, falling back to
// DefaultHeadlines so content generation never fails on news.
func (f *NewsFetcher) Headlines(ctx context.Context, industry string) []string {
	if f.cache != nil {
		if cached, ok := f.cache.Get(ctx, industry); ok {
			return cached
		}
	}
	// concurrent misses for one industry share a single feed request
	v, err, _ := f.sf.Do(strings.ToLower(industry), func() (any, error) {
		return f.Fetch(ctx, industry)
	})
	headlines, _ := v.([]string)
	if err != nil || len(headlines) == 0 {
		logger.Warn("no industry news, using default headlines", zap.String("industry", industry), zap.Error(err))
		return DefaultHeadlines(industry)
	}
	if f.cache != nil {
		f.cache.Set(ctx, industry, headlines)
	}
	return headlines
}

// Fetch reads the feed without fallback.
func (f *NewsFetcher) Fetch(ctx context.Context, industry string) ([]string, error) {
	u := f.feedURL + "?" + url.Values{"q": {industry}}.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	resp, err := f.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch news feed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch news feed: status %d", resp.StatusCode)
	}

	var feed rssFeed
	if err := xml.NewDecoder(io.LimitReader(resp.Body, 4<<20)).Decode(&feed); err != nil {
		return nil, fmt.Errorf("parse news feed: %w", err)
	}
	var out []string
	for _, item := range feed.Channel.Items {
		if t := strings.TrimSpace(item.Title); t != "" {
			out = append(out, t)
		}
		if len(out) == maxHeadlines {
			break
		}
	}
	return out, nil
}
