// Package scrape reduces web pages and YouTube videos to plain text
// suitable for memo generation.
package scrape

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/TrendDeskAI/trenddesk/pkg/fn"
)

// Kind selects the extraction path for a URL.
type Kind string

const (
	KindAuto    Kind = "auto"
	KindWebpage Kind = "webpage"
	KindYouTube Kind = "youtube"
)

// DetectKind classifies a URL as youtube or webpage by host.
func DetectKind(rawURL string) Kind {
	u, err := url.Parse(rawURL)
	if err != nil {
		return KindWebpage
	}
	host := strings.ToLower(u.Hostname())
	if host == "youtu.be" || host == "youtube.com" || strings.HasSuffix(host, ".youtube.com") {
		return KindYouTube
	}
	return KindWebpage
}

// Extractor fetches URLs and extracts their textual content.
type Extractor struct {
	client      *http.Client
	limiter     *rate.Limiter
	youtubeBase string // overridable for tests
}

// New creates an Extractor. A nil client gets a 10s timeout, matching
// the budget for all scrape fetches.
func New(client *http.Client) *Extractor {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &Extractor{
		client:      client,
		limiter:     rate.NewLimiter(rate.Every(200*time.Millisecond), 5),
		youtubeBase: "https://www.youtube.com",
	}
}

// Extract fetches url and returns its cleaned text. KindAuto resolves
// the path from the URL host.
func (e *Extractor) Extract(ctx context.Context, rawURL string, kind Kind) fn.Result[string] {
	if kind == KindAuto || kind == "" {
		kind = DetectKind(rawURL)
	}
	switch kind {
	case KindYouTube:
		return e.YouTube(ctx, rawURL)
	default:
		return e.Webpage(ctx, rawURL)
	}
}
