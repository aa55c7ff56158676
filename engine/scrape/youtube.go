package scrape

import (
	"context"
	"net/http"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/TrendDeskAI/trenddesk/pkg/fn"
)

// videoIDPatterns cover the accepted YouTube URL shapes.
var videoIDPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?:youtube\.com/watch\?v=|youtu\.be/)([^&\n?]+)`),
	regexp.MustCompile(`(?:youtube\.com/embed/)([^&\n?]+)`),
	regexp.MustCompile(`(?:youtube\.com/v/)([^&\n?]+)`),
}

// ExtractVideoID pulls the video identifier out of a YouTube URL.
func ExtractVideoID(rawURL string) (string, bool) {
	for _, pat := range videoIDPatterns {
		if m := pat.FindStringSubmatch(rawURL); m != nil {
			return m[1], true
		}
	}
	return "", false
}

// YouTube fetches a video's transcript, prefixed with the video title
// when the watch page can be fetched. Title failures are ignored; the
// transcript alone is still a success.
func (e *Extractor) YouTube(ctx context.Context, rawURL string) fn.Result[string] {
	videoID, ok := ExtractVideoID(rawURL)
	if !ok {
		return fn.Errf[string]("could not extract YouTube video id from %q", rawURL)
	}

	if err := e.limiter.Wait(ctx); err != nil {
		return fn.Err[string](err)
	}

	transcript, err := e.fetchTranscript(ctx, videoID)
	if err != nil {
		return fn.Errf[string]("retrieve transcript for %s: %w", videoID, err)
	}

	if title, ok := e.videoTitle(ctx, videoID); ok {
		return fn.Ok("Title: " + title + "\n\nTranscript:\n" + transcript)
	}
	return fn.Ok(transcript)
}

// videoTitle scrapes the <title> of the watch page, best effort.
func (e *Extractor) videoTitle(ctx context.Context, videoID string) (string, bool) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, e.youtubeBase+"/watch?v="+videoID, nil)
	if err != nil {
		return "", false
	}
	req.Header.Set("User-Agent", browserUA)

	resp, err := e.client.Do(req)
	if err != nil {
		return "", false
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", false
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return "", false
	}
	title := strings.TrimSpace(doc.Find("title").First().Text())
	title = strings.TrimSpace(strings.TrimSuffix(title, " - YouTube"))
	if title == "" {
		return "", false
	}
	return title, true
}
