// Package memo synthesizes structured research memos. Two generators
// exist: Claude calls the Anthropic API, Template builds a local
// deterministic memo used for stored-record analysis fields.
package memo

import (
	"context"
	"strings"

	"github.com/TrendDeskAI/trenddesk/pkg/fn"
)

// maxContentChars is the hard truncation applied to scraped content
// before it is embedded in a prompt. No summarization, just a cut.
const maxContentChars = 50000

// personaMarker flags a context that embeds an audience description.
const personaMarker = "This memo is prepared for"

// Request carries everything a generator needs.
type Request struct {
	Content      string
	ResearchTask string
	Context      string
	Theme        string
}

// Generator produces a Markdown memo from a request.
type Generator interface {
	Generate(ctx context.Context, req Request) fn.Result[string]
}

// truncate cuts s to at most maxContentChars characters.
func truncate(s string) string {
	runes := []rune(s)
	if len(runes) <= maxContentChars {
		return s
	}
	return string(runes[:maxContentChars])
}

// sectionHeadings are the six required memo sections, in order.
var sectionHeadings = []string{
	"What happened",
	"Why is this interesting",
	"Why we should be skeptical",
	"Enterprise Innovation POV",
	"Next Steps",
	"Relevant Risks",
}

// Template is a deterministic generator that fills the six sections
// from the request fields alone. It backs the analysis field of
// created and updated records, so no network call is needed there.
type Template struct{}

// Generate implements Generator.
func (Template) Generate(_ context.Context, req Request) fn.Result[string] {
	var sb strings.Builder

	sb.WriteString("## What happened\n\n")
	sb.WriteString("Based on the research task: " + req.ResearchTask + "\n\n")

	sb.WriteString("## Why is this interesting\n\n")
	if req.Context != "" {
		sb.WriteString(req.Context + "\n\n")
	} else {
		sb.WriteString("This development is relevant to the " + req.Theme + " theme.\n\n")
	}

	sb.WriteString("## Why we should be skeptical\n\n")
	sb.WriteString("This technology/approach is still evolving and may face implementation challenges or competition from established solutions.\n\n")

	sb.WriteString("## Enterprise Innovation POV\n\n")
	sb.WriteString("This represents a potential opportunity for innovation within the enterprise context. Further investigation is needed to determine specific applications and ROI.\n\n")

	sb.WriteString("## Next Steps\n\n")
	sb.WriteString("1. Conduct deeper research into specific use cases\n")
	sb.WriteString("2. Identify potential partners or vendors in this space\n")
	sb.WriteString("3. Evaluate implementation requirements and costs\n")
	sb.WriteString("4. Consider a small proof-of-concept to test viability\n\n")

	sb.WriteString("## Relevant Risks\n\n")
	sb.WriteString("1. Technology immaturity or rapid evolution\n")
	sb.WriteString("2. Integration challenges with existing systems\n")
	sb.WriteString("3. Potential regulatory or compliance issues\n")
	sb.WriteString("4. Skill gaps within the organization\n")
	sb.WriteString("5. Uncertain ROI or business case\n")

	return fn.Ok(sb.String())
}
