package dateinfer

import (
	"strings"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
)

func mustDoc(t *testing.T, html string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		t.Fatal(err)
	}
	return doc
}

func wantDate(t *testing.T, got time.Time, ok bool, y int, m time.Month, d int) {
	t.Helper()
	if !ok {
		t.Fatal("expected a date, got none")
	}
	if got.Year() != y || got.Month() != m || got.Day() != d {
		t.Fatalf("got %s, want %04d-%02d-%02d", got.Format("2006-01-02"), y, m, d)
	}
}

func TestFromURLSlashPattern(t *testing.T) {
	d, ok := FromURL("https://news.example.com/2023/07/14/launch-day/")
	wantDate(t, d, ok, 2023, time.July, 14)
}

func TestFromURLDashPattern(t *testing.T) {
	d, ok := FromURL("https://example.com/posts/2021-11-05/details")
	wantDate(t, d, ok, 2021, time.November, 5)
}

func TestFromURLQueryParams(t *testing.T) {
	d, ok := FromURL("https://example.com/article?date=2022-03-09")
	wantDate(t, d, ok, 2022, time.March, 9)

	d, ok = FromURL("https://example.com/article?published=2020-12-31")
	wantDate(t, d, ok, 2020, time.December, 31)
}

func TestFromURLSingleDigitComponents(t *testing.T) {
	d, ok := FromURL("https://example.com/2024/2/3/short/")
	wantDate(t, d, ok, 2024, time.February, 3)
}

func TestFromURLRejectsImpossibleDate(t *testing.T) {
	// Feb 30 passes the bounds check but is not a real date.
	if _, ok := FromURL("https://example.com/2024/02/30/ghost/"); ok {
		t.Fatal("2024/02/30 should not match")
	}
}

func TestFromURLRejectsYearOutOfRange(t *testing.T) {
	if _, ok := FromURL("https://example.com/1985/06/01/retro/"); ok {
		t.Fatal("years before 1990 should not match")
	}
	future := time.Now().Year() + 1
	if _, ok := FromURL("https://example.com/" + time.Date(future, 1, 2, 0, 0, 0, 0, time.UTC).Format("2006/01/02") + "/soon/"); ok {
		t.Fatal("future years should not match")
	}
}

func TestFromURLNoMatch(t *testing.T) {
	if _, ok := FromURL("https://example.com/about"); ok {
		t.Fatal("no date shape should mean no match")
	}
}

func TestFromMetaPublishedTime(t *testing.T) {
	doc := mustDoc(t, `<html><head>
		<meta property="article:published_time" content="2023-05-01T00:00:00Z">
	</head><body><p>Published: March 3, 2022</p></body></html>`)
	d, ok := FromMeta(doc)
	wantDate(t, d, ok, 2023, time.May, 1)

	// Meta beats the free-text strategy through Infer as well.
	d, ok = Infer("https://example.com/post", doc)
	wantDate(t, d, ok, 2023, time.May, 1)
}

func TestFromMetaNameAttribute(t *testing.T) {
	doc := mustDoc(t, `<html><head>
		<meta name="pubdate" content="2019/08/20">
	</head><body></body></html>`)
	d, ok := FromMeta(doc)
	wantDate(t, d, ok, 2019, time.August, 20)
}

func TestFromMetaTagPrecedence(t *testing.T) {
	doc := mustDoc(t, `<html><head>
		<meta name="date" content="2020-01-01">
		<meta property="article:published_time" content="2021-06-15">
	</head><body></body></html>`)
	d, ok := FromMeta(doc)
	wantDate(t, d, ok, 2021, time.June, 15)
}

func TestFromMetaUnparsableSkipsToNextTag(t *testing.T) {
	doc := mustDoc(t, `<html><head>
		<meta property="article:published_time" content="sometime last week">
		<meta name="date" content="15-04-2018">
	</head><body></body></html>`)
	d, ok := FromMeta(doc)
	wantDate(t, d, ok, 2018, time.April, 15)
}

func TestFromContentPublishedPhrase(t *testing.T) {
	doc := mustDoc(t, `<html><body>
		<script>var published = "never";</script>
		<p>Published: March 3, 2022</p>
	</body></html>`)
	d, ok := FromContent(doc)
	wantDate(t, d, ok, 2022, time.March, 3)
}

func TestFromContentDayMonthYear(t *testing.T) {
	doc := mustDoc(t, `<html><body><p>Updated 7 September 2021 by staff</p></body></html>`)
	d, ok := FromContent(doc)
	wantDate(t, d, ok, 2021, time.September, 7)
}

func TestFromContentISODate(t *testing.T) {
	doc := mustDoc(t, `<html><body><p>revision 2020-10-05</p></body></html>`)
	d, ok := FromContent(doc)
	wantDate(t, d, ok, 2020, time.October, 5)
}

func TestFromContentIgnoresScriptAndStyle(t *testing.T) {
	doc := mustDoc(t, `<html><body>
		<style>.date { content: "Published: January 1, 1999"; }</style>
		<p>no dates here</p>
	</body></html>`)
	if _, ok := FromContent(doc); ok {
		t.Fatal("dates inside style blocks should be ignored")
	}
}

func TestInferFallsThroughStrategies(t *testing.T) {
	doc := mustDoc(t, `<html><head></head><body><p>Posted: June 9, 2022</p></body></html>`)
	d, ok := Infer("https://example.com/no-date-here", doc)
	wantDate(t, d, ok, 2022, time.June, 9)
}

func TestInferNilDocURLOnly(t *testing.T) {
	if _, ok := Infer("https://example.com/plain", nil); ok {
		t.Fatal("nil doc with undated URL should yield nothing")
	}
	d, ok := Infer("https://example.com/2022/01/30/x/", nil)
	wantDate(t, d, ok, 2022, time.January, 30)
}
