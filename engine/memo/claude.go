package memo

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/TrendDeskAI/trenddesk/pkg/fn"
)

// DefaultModel is the Claude model used for memo generation.
const DefaultModel = "claude-3-7-sonnet-20250219"

const anthropicVersion = "2023-06-01"

const systemPrompt = `Your task is to compose a comprehensive company memo based on the provided key points. The memo should be written in a professional tone, addressing all the relevant information in a clear and concise manner.

Format the memo with proper Markdown formatting:
- Use # for main headings
- Use ## for subheadings
- Use bullet points (- ) for lists
- Use numbered lists (1. ) where appropriate
- Use **bold** for emphasis
- Organize content with clear section breaks

The memo should include the following sections:
1. **What happened** - Summarize the key facts and developments
2. **Why is this interesting** - Explain the significance and relevance
3. **Why we should be skeptical** - Identify potential issues, limitations, or reasons for caution
4. **Enterprise Innovation POV** - Analyze implications for enterprise innovation
5. **Next Steps** - Recommend 3-5 concrete actions
6. **Relevant Risks** - List 4-6 key risks to consider

Make the memo visually structured and easy to scan. Do NOT include a disclaimer at the end about the memo being based on publicly available information.`

// Claude generates memos through the Anthropic API. The Messages API
// is tried first; a single deterministic fallback uses the legacy
// text-completion endpoint. No retries beyond that.
type Claude struct {
	apiKey    string
	model     string
	maxTokens int
	baseURL   string
	// No request timeout: generation time is unbounded by design and
	// a slow call stalls only its own request handler.
	client *http.Client
}

// NewClaude creates a Claude generator.
func NewClaude(apiKey, model string) *Claude {
	if model == "" {
		model = DefaultModel
	}
	return &Claude{
		apiKey:    apiKey,
		model:     model,
		maxTokens: 4000,
		baseURL:   "https://api.anthropic.com",
		client:    &http.Client{},
	}
}

// Configured reports whether an API key is present.
func (c *Claude) Configured() bool { return c.apiKey != "" }

// UserPrompt builds the user instruction, truncating content to the
// 50,000-character cap and appending the persona instruction when the
// context carries the marker phrase.
func UserPrompt(req Request) string {
	personaNote := ""
	if strings.Contains(req.Context, personaMarker) {
		personaNote = "Pay special attention to the persona information in the context section. Tailor your memo to address their specific interests, position, and background."
	}

	return fmt.Sprintf(`I need you to create a structured research memo based on the following information:

RESEARCH TASK: %s

THEME: %s

CONTEXT: %s

CONTENT TO ANALYZE:
%s

%s

Please be concise, factual, and analytical in your memo. Use proper Markdown formatting to make the memo visually structured and easy to read.

DO NOT include a disclaimer at the end about the memo being based on publicly available information.`,
		req.ResearchTask, req.Theme, req.Context, truncate(req.Content), personaNote)
}

// Generate implements Generator.
func (c *Claude) Generate(ctx context.Context, req Request) fn.Result[string] {
	if !c.Configured() {
		return fn.Errf[string]("claude API key is not configured")
	}

	prompt := UserPrompt(req)

	text, primaryErr := c.messages(ctx, prompt)
	if primaryErr == nil {
		return fn.Ok(text)
	}

	text, fallbackErr := c.complete(ctx, prompt)
	if fallbackErr == nil {
		return fn.Ok(text)
	}
	return fn.Errf[string]("generate memo: %w (fallback: %v)", primaryErr, fallbackErr)
}

type messagesRequest struct {
	Model     string           `json:"model"`
	MaxTokens int              `json:"max_tokens"`
	System    string           `json:"system"`
	Messages  []messageContent `json:"messages"`
}

type messageContent struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type messagesResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	Error *apiError `json:"error,omitempty"`
}

type apiError struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// messages calls the Anthropic Messages API.
func (c *Claude) messages(ctx context.Context, prompt string) (string, error) {
	body, err := json.Marshal(messagesRequest{
		Model:     c.model,
		MaxTokens: c.maxTokens,
		System:    systemPrompt,
		Messages:  []messageContent{{Role: "user", Content: prompt}},
	})
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	respBody, err := c.post(ctx, "/v1/messages", body)
	if err != nil {
		return "", err
	}

	var resp messagesResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return "", fmt.Errorf("parse response: %w", err)
	}
	if resp.Error != nil {
		return "", fmt.Errorf("API error: %s: %s", resp.Error.Type, resp.Error.Message)
	}
	if len(resp.Content) == 0 {
		return "", fmt.Errorf("empty response")
	}
	return resp.Content[0].Text, nil
}

type completeRequest struct {
	Model             string `json:"model"`
	Prompt            string `json:"prompt"`
	MaxTokensToSample int    `json:"max_tokens_to_sample"`
}

type completeResponse struct {
	Completion string    `json:"completion"`
	Error      *apiError `json:"error,omitempty"`
}

// complete calls the legacy text-completion endpoint, the one
// fallback calling convention.
func (c *Claude) complete(ctx context.Context, prompt string) (string, error) {
	body, err := json.Marshal(completeRequest{
		Model:             c.model,
		Prompt:            "\n\nHuman: " + systemPrompt + "\n\n" + prompt + "\n\nAssistant:",
		MaxTokensToSample: c.maxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	respBody, err := c.post(ctx, "/v1/complete", body)
	if err != nil {
		return "", err
	}

	var resp completeResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return "", fmt.Errorf("parse response: %w", err)
	}
	if resp.Error != nil {
		return "", fmt.Errorf("API error: %s: %s", resp.Error.Type, resp.Error.Message)
	}
	if resp.Completion == "" {
		return "", fmt.Errorf("empty completion")
	}
	return resp.Completion, nil
}

func (c *Claude) post(ctx context.Context, path string, body []byte) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", c.apiKey)
	req.Header.Set("anthropic-version", anthropicVersion)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(respBody)))
	}
	return respBody, nil
}
