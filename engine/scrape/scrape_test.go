package scrape

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func newTestExtractor(srv *httptest.Server) *Extractor {
	e := New(srv.Client())
	e.youtubeBase = srv.URL
	return e
}

func TestDetectKind(t *testing.T) {
	cases := map[string]Kind{
		"https://www.youtube.com/watch?v=abc": KindYouTube,
		"https://youtu.be/abc":                KindYouTube,
		"https://m.youtube.com/watch?v=abc":   KindYouTube,
		"https://example.com/article":         KindWebpage,
		"https://notyoutube.com/watch":        KindWebpage,
	}
	for u, want := range cases {
		if got := DetectKind(u); got != want {
			t.Errorf("DetectKind(%q) = %s, want %s", u, got, want)
		}
	}
}

func TestExtractVideoID(t *testing.T) {
	cases := map[string]string{
		"https://www.youtube.com/watch?v=dQw4w9WgXcQ":       "dQw4w9WgXcQ",
		"https://www.youtube.com/watch?v=abc123&t=42":       "abc123",
		"https://youtu.be/xyz789":                           "xyz789",
		"https://www.youtube.com/embed/embed42":             "embed42",
		"https://www.youtube.com/v/legacy7":                 "legacy7",
	}
	for u, want := range cases {
		got, ok := ExtractVideoID(u)
		if !ok || got != want {
			t.Errorf("ExtractVideoID(%q) = %q, %v; want %q", u, got, ok, want)
		}
	}
	if _, ok := ExtractVideoID("https://www.youtube.com/feed/subscriptions"); ok {
		t.Error("URL without a video id should not match")
	}
}

const articlePage = `<html>
<head><title>Edge Compute Trends</title>
<script>window.tracking = true;</script>
</head>
<body>
<nav>Home | About | Subscribe</nav>
<header>Site header</header>
<article>
  <h1>Edge computing grows up</h1>
  <p>Vendors shipped new runtimes this quarter.</p>
  <p>Adoption doubled  in regulated industries.</p>
</article>
<footer>Copyright footer text</footer>
</body></html>`

func TestWebpageExtractsArticleOnly(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(articlePage))
	}))
	defer srv.Close()

	text, err := New(srv.Client()).Webpage(context.Background(), srv.URL).Unwrap()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.HasPrefix(text, "Title: Edge Compute Trends\n\nContent:\n") {
		t.Fatalf("missing title prefix, got: %q", text)
	}
	for _, want := range []string{"Edge computing grows up", "Vendors shipped new runtimes"} {
		if !strings.Contains(text, want) {
			t.Errorf("missing %q in output", want)
		}
	}
	for _, banned := range []string{"Subscribe", "Copyright footer", "Site header", "window.tracking"} {
		if strings.Contains(text, banned) {
			t.Errorf("output should not contain %q", banned)
		}
	}
	// The double-space run inside the paragraph collapses to a newline.
	if !strings.Contains(text, "Adoption doubled\nin regulated industries.") {
		t.Errorf("double-space run not collapsed: %q", text)
	}
}

func TestWebpageFallsBackToDivByID(t *testing.T) {
	page := `<html><head><title>T</title></head><body>
	<div id="sidebar">side text</div>
	<div id="main-content"><p>the real story</p></div>
	</body></html>`
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(page))
	}))
	defer srv.Close()

	text, err := New(srv.Client()).Webpage(context.Background(), srv.URL).Unwrap()
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(text, "the real story") {
		t.Fatalf("expected div content, got %q", text)
	}
	if strings.Contains(text, "side text") {
		t.Fatalf("sidebar should be excluded, got %q", text)
	}
}

func TestWebpageFallsBackToBody(t *testing.T) {
	page := `<html><head><title>Plain</title></head><body><p>whole body text</p></body></html>`
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(page))
	}))
	defer srv.Close()

	text, err := New(srv.Client()).Webpage(context.Background(), srv.URL).Unwrap()
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(text, "whole body text") {
		t.Fatalf("got %q", text)
	}
}

func TestWebpageNon2xxFails(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer srv.Close()

	if New(srv.Client()).Webpage(context.Background(), srv.URL).IsOk() {
		t.Fatal("404 should fail extraction")
	}
}

func TestWebpageSendsBrowserUA(t *testing.T) {
	var gotUA string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		w.Write([]byte(`<html><head><title>x</title></head><body>y</body></html>`))
	}))
	defer srv.Close()

	New(srv.Client()).Webpage(context.Background(), srv.URL).Must()
	if !strings.Contains(gotUA, "Mozilla/5.0") {
		t.Fatalf("expected browser user agent, got %q", gotUA)
	}
}

// fakeYouTube serves the innertube player response, a caption track,
// and optionally the watch page.
func fakeYouTube(t *testing.T, withTitle bool) *httptest.Server {
	t.Helper()
	var srv *httptest.Server
	mux := http.NewServeMux()
	mux.HandleFunc("/youtubei/v1/player", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"captions":{"playerCaptionsTracklistRenderer":{"captionTracks":[
			{"baseUrl":"` + srv.URL + `/timedtext?lang=en","languageCode":"en","kind":""}
		]}}}`))
	})
	mux.HandleFunc("/timedtext", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<?xml version="1.0" encoding="utf-8"?>
<transcript>
  <text start="0.0" dur="2.0">Hello world</text>
  <text start="2.0" dur="1.5">[Music] this is   a test &amp;amp; more</text>
</transcript>`))
	})
	mux.HandleFunc("/watch", func(w http.ResponseWriter, r *http.Request) {
		if !withTitle {
			http.Error(w, "nope", http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte(`<html><head><title>Great Video - YouTube</title></head><body></body></html>`))
	})
	srv = httptest.NewServer(mux)
	return srv
}

func TestYouTubeTranscriptWithTitle(t *testing.T) {
	srv := fakeYouTube(t, true)
	defer srv.Close()

	text, err := newTestExtractor(srv).YouTube(context.Background(), "https://www.youtube.com/watch?v=abc123").Unwrap()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.HasPrefix(text, "Title: Great Video\n\nTranscript:\n") {
		t.Fatalf("missing title prefix: %q", text)
	}
	if !strings.Contains(text, "Hello world this is a test & more") {
		t.Fatalf("transcript not cleaned: %q", text)
	}
	if strings.Contains(text, "[Music]") {
		t.Fatalf("noise markers should be stripped: %q", text)
	}
}

func TestYouTubeTitleFailureStillReturnsTranscript(t *testing.T) {
	srv := fakeYouTube(t, false)
	defer srv.Close()

	text, err := newTestExtractor(srv).YouTube(context.Background(), "https://youtu.be/abc123").Unwrap()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if strings.HasPrefix(text, "Title:") {
		t.Fatalf("should not have a title prefix: %q", text)
	}
	if !strings.Contains(text, "Hello world") {
		t.Fatalf("got %q", text)
	}
}

func TestYouTubeBadURLFails(t *testing.T) {
	e := New(nil)
	r := e.YouTube(context.Background(), "https://www.youtube.com/feed/library")
	if r.IsOk() {
		t.Fatal("URL without video id should fail")
	}
	_, err := r.Unwrap()
	if !strings.Contains(err.Error(), "video id") {
		t.Fatalf("unexpected message: %v", err)
	}
}

func TestYouTubeNoCaptionsFails(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/youtubei/v1/player", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"captions":{}}`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	if newTestExtractor(srv).YouTube(context.Background(), "https://youtu.be/abc").IsOk() {
		t.Fatal("missing caption tracks should fail")
	}
}

func TestExtractAutoDispatch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html><head><title>page</title></head><body>plain page</body></html>`))
	}))
	defer srv.Close()

	text, err := New(srv.Client()).Extract(context.Background(), srv.URL, KindAuto).Unwrap()
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(text, "plain page") {
		t.Fatalf("got %q", text)
	}
}
