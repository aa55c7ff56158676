// Package dateinfer guesses a publication date for a page using three
// ordered heuristics: URL patterns, HTML meta tags, then free text.
// Strategy order is load-bearing: reordering changes the answer on
// ambiguous inputs.
package dateinfer

import (
	"net/url"
	"regexp"
	"strconv"
	"time"

	"github.com/PuerkitoBio/goquery"
)

// urlPatterns match date shapes in a URL path or query string,
// tried in order; the first match wins.
var urlPatterns = []*regexp.Regexp{
	regexp.MustCompile(`/(\d{4})/(\d{1,2})/(\d{1,2})/`),
	regexp.MustCompile(`/(\d{4})-(\d{1,2})-(\d{1,2})/`),
	regexp.MustCompile(`[?&]date=(\d{4})-(\d{1,2})-(\d{1,2})`),
	regexp.MustCompile(`[?&]published=(\d{4})-(\d{1,2})-(\d{1,2})`),
}

// metaTags are probed by property first, then by name.
var metaTags = []string{
	"article:published_time",
	"article:modified_time",
	"og:published_time",
	"og:modified_time",
	"publication_date",
	"date",
	"pubdate",
}

// metaFormats are tried in order against a meta tag's content.
var metaFormats = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02",
	"2006/01/02",
	"02-01-2006",
	"02/01/2006",
}

// textPatterns match human-readable dates in page text.
var textPatterns = []*regexp.Regexp{
	regexp.MustCompile(`Published:?\s*(\w+\s+\d{1,2},\s+\d{4})`),
	regexp.MustCompile(`Posted:?\s*(\w+\s+\d{1,2},\s+\d{4})`),
	regexp.MustCompile(`Date:?\s*(\w+\s+\d{1,2},\s+\d{4})`),
	regexp.MustCompile(`(\d{1,2}\s+\w+\s+\d{4})`),
	regexp.MustCompile(`(\w+\s+\d{1,2}\s+\d{4})`),
	regexp.MustCompile(`(\d{4}-\d{2}-\d{2})`),
}

// textFormats are tried in order against a captured text date.
var textFormats = []string{
	"January 2, 2006",
	"2 January 2006",
	"January 2 2006",
	"2006-01-02",
}

// Infer runs the three strategies in order and returns the first hit.
// doc may be nil, in which case only the URL strategy runs.
func Infer(rawURL string, doc *goquery.Document) (time.Time, bool) {
	if d, ok := FromURL(rawURL); ok {
		return d, true
	}
	if doc == nil {
		return time.Time{}, false
	}
	if d, ok := FromMeta(doc); ok {
		return d, true
	}
	return FromContent(doc)
}

// FromURL scans the URL's path and query string for known date shapes.
// A shape that matches but names an impossible calendar date is treated
// as no match for that pattern.
func FromURL(rawURL string) (time.Time, bool) {
	target := rawURL
	if u, err := url.Parse(rawURL); err == nil {
		target = u.Path + "?" + u.RawQuery
	}

	for _, pat := range urlPatterns {
		m := pat.FindStringSubmatch(target)
		if m == nil {
			continue
		}
		year, _ := strconv.Atoi(m[1])
		month, _ := strconv.Atoi(m[2])
		day, _ := strconv.Atoi(m[3])
		if d, ok := validDate(year, month, day); ok {
			return d, true
		}
	}
	return time.Time{}, false
}

// validDate checks the bounds from the heuristic (year 1990..current,
// month 1..12, day 1..31) and that the triple is a real calendar date.
func validDate(year, month, day int) (time.Time, bool) {
	if year < 1990 || year > time.Now().Year() {
		return time.Time{}, false
	}
	if month < 1 || month > 12 || day < 1 || day > 31 {
		return time.Time{}, false
	}
	d := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	// time.Date normalizes Feb 30 into March; reject anything normalized.
	if d.Year() != year || d.Month() != time.Month(month) || d.Day() != day {
		return time.Time{}, false
	}
	return d, true
}

// FromMeta probes publication meta tags in order. A tag whose content
// does not parse is skipped in favor of the next tag.
func FromMeta(doc *goquery.Document) (time.Time, bool) {
	for _, tag := range metaTags {
		sel := doc.Find(`meta[property="` + tag + `"]`)
		if sel.Length() == 0 {
			sel = doc.Find(`meta[name="` + tag + `"]`)
		}
		content, _ := sel.First().Attr("content")
		if content == "" {
			continue
		}
		for _, layout := range metaFormats {
			if d, err := time.Parse(layout, content); err == nil {
				return d, true
			}
		}
	}
	return time.Time{}, false
}

// FromContent strips script/style, flattens the document to text, and
// searches for the first recognizable date phrase.
func FromContent(doc *goquery.Document) (time.Time, bool) {
	clone := goquery.CloneDocument(doc)
	clone.Find("script,style").Remove()
	text := clone.Text()

	for _, pat := range textPatterns {
		m := pat.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		for _, layout := range textFormats {
			if d, err := time.Parse(layout, m[1]); err == nil {
				return d, true
			}
		}
	}
	return time.Time{}, false
}
