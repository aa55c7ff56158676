package scrape

import (
	"context"
	"fmt"
	"net/http"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"github.com/TrendDeskAI/trenddesk/pkg/fn"
)

// browserUA is sent on page fetches; several news sites refuse the
// default Go user agent.
const browserUA = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36"

var mainContentAttr = regexp.MustCompile(`(?i)content|article|main`)

// Webpage fetches a page and extracts its main content as
// "Title: <title>\n\nContent:\n<text>".
func (e *Extractor) Webpage(ctx context.Context, rawURL string) fn.Result[string] {
	doc, err := e.Document(ctx, rawURL)
	if err != nil {
		return fn.Err[string](err)
	}
	return fn.Ok(ExtractReadable(doc))
}

// Document fetches a page with the browser user agent and parses it.
// Date inference fetches through here too.
func (e *Extractor) Document(ctx context.Context, rawURL string) (*goquery.Document, error) {
	if err := e.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request for %s: %w", rawURL, err)
	}
	req.Header.Set("User-Agent", browserUA)

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", rawURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("fetch %s: unexpected status %d", rawURL, resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", rawURL, err)
	}
	return doc, nil
}

// ExtractReadable reduces a parsed document to its title and main text.
func ExtractReadable(doc *goquery.Document) string {
	doc.Find("script,style,nav,footer,header").Remove()

	title := strings.TrimSpace(doc.Find("title").First().Text())
	if title == "" {
		title = "No title found"
	}

	text := flattenText(mainContent(doc))
	return "Title: " + title + "\n\nContent:\n" + collapse(text)
}

// mainContent picks the most article-like node: article, then main,
// then a div whose id or class looks like content, then the body.
func mainContent(doc *goquery.Document) *goquery.Selection {
	if sel := doc.Find("article").First(); sel.Length() > 0 {
		return sel
	}
	if sel := doc.Find("main").First(); sel.Length() > 0 {
		return sel
	}
	for _, attr := range []string{"id", "class"} {
		var found *goquery.Selection
		doc.Find("div").EachWithBreak(func(_ int, div *goquery.Selection) bool {
			if v, ok := div.Attr(attr); ok && mainContentAttr.MatchString(v) {
				found = div
				return false
			}
			return true
		})
		if found != nil {
			return found
		}
	}
	return doc.Find("body")
}

// flattenText joins every visible text node with newlines, preserving
// the document's line structure.
func flattenText(sel *goquery.Selection) string {
	var parts []string
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			if s := strings.TrimSpace(n.Data); s != "" {
				parts = append(parts, s)
			}
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	for _, n := range sel.Nodes {
		walk(n)
	}
	return strings.Join(parts, "\n")
}

// collapse splits lines on double-space runs, trims each fragment,
// drops the empty ones, and rejoins with single newlines.
func collapse(text string) string {
	var chunks []string
	for _, line := range strings.Split(text, "\n") {
		for _, phrase := range strings.Split(strings.TrimSpace(line), "  ") {
			if p := strings.TrimSpace(phrase); p != "" {
				chunks = append(chunks, p)
			}
		}
	}
	return strings.Join(chunks, "\n")
}
