package extractor

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/jokari/knowledgehub/schema"
)

const (
	defaultAnthropicBaseURL = "https://api.anthropic.com/v1/messages"
	anthropicModel          = "claude-sonnet-4-20250514"
	maxExtractRetries       = 2
)

// LLMExtractor calls the Anthropic Messages API to extract structured
// records from free text, following the schema's declared fields. There
// is no official Anthropic SDK in the dependency pack, so it speaks the
// HTTP API directly with the standard library client, in the same raw-HTTP
// style the rest of the pipeline's upstream integrations use.
type LLMExtractor struct {
	APIKey  string
	BaseURL string
	Client  *http.Client
}

func NewLLM(apiKey string) *LLMExtractor {
	return &LLMExtractor{
		APIKey:  apiKey,
		BaseURL: defaultAnthropicBaseURL,
		Client:  &http.Client{Timeout: 60 * time.Second},
	}
}

type anthropicRequest struct {
	Model     string             `json:"model"`
	MaxTokens int                `json:"max_tokens"`
	System    string             `json:"system"`
	Messages  []anthropicMessage `json:"messages"`
}

type anthropicMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type anthropicResponse struct {
	Content []struct {
		Text string `json:"text"`
	} `json:"content"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

func (e *LLMExtractor) Extract(ctx context.Context, text string, desc *schema.Descriptor, ectx Context) (Result, error) {
	systemPrompt := buildSystemPrompt(desc, ectx)
	userPrompt := buildUserPrompt(text)

	var lastResponse string
	var errs []string

	for attempt := 0; attempt <= maxExtractRetries; attempt++ {
		resp, err := e.call(ctx, systemPrompt, userPrompt)
		if err != nil {
			errs = append(errs, fmt.Sprintf("attempt %d: %v", attempt+1, err))
			continue
		}
		lastResponse = resp

		data := parseJSONResponse(resp)
		if data == nil {
			errs = append(errs, fmt.Sprintf("attempt %d: could not parse JSON from response", attempt+1))
			continue
		}

		missing := missingRequired(desc, data)
		if len(missing) == 0 {
			var evidence []Evidence
			for field, value := range data {
				evidence = append(evidence, anchorValue(text, field, value, ectx.ChunkIndex)...)
			}
			return Result{
				Records: []Record{{
					Data:       data,
					DocType:    desc.DocType,
					Evidence:   evidence,
					Confidence: 0.9,
				}},
				RawResponse: lastResponse,
			}, nil
		}

		errs = append(errs, fmt.Sprintf("attempt %d: missing required fields: %s", attempt+1, strings.Join(missing, ", ")))
		if attempt < maxExtractRetries {
			userPrompt = buildRetryPrompt(text, missing, lastResponse)
		}
	}

	return Result{
		NeedsReview: true,
		RawResponse: lastResponse,
	}, fmt.Errorf("extraction failed after %d attempts: %s", maxExtractRetries+1, strings.Join(errs, "; "))
}

func (e *LLMExtractor) call(ctx context.Context, system, user string) (string, error) {
	body, err := json.Marshal(anthropicRequest{
		Model:     anthropicModel,
		MaxTokens: 4096,
		System:    system,
		Messages:  []anthropicMessage{{Role: "user", Content: user}},
	})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.BaseURL, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", e.APIKey)
	req.Header.Set("anthropic-version", "2023-06-01")

	resp, err := e.Client.Do(req)
	if err != nil {
		return "", fmt.Errorf("calling anthropic: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}

	var parsed anthropicResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return "", fmt.Errorf("decoding anthropic response: %w", err)
	}
	if parsed.Error != nil {
		return "", fmt.Errorf("anthropic API error: %s", parsed.Error.Message)
	}
	if len(parsed.Content) == 0 {
		return "", fmt.Errorf("anthropic response had no content blocks")
	}
	return parsed.Content[0].Text, nil
}

func buildSystemPrompt(desc *schema.Descriptor, ectx Context) string {
	var b strings.Builder
	fmt.Fprintf(&b, "You are a precise data extraction assistant for the knowledge hub platform.\n\n")
	fmt.Fprintf(&b, "CONTEXT:\n- Department: %s\n- Doc type: %s\n- File: %s\n\n", ectx.Department, ectx.DocType, ectx.Filename)
	fmt.Fprintf(&b, "SCHEMA TO EXTRACT: %s\nFields:\n", desc.Name)
	for _, f := range desc.Fields {
		req := "optional"
		if f.Required {
			req = "required"
		}
		fmt.Fprintf(&b, "  - %s (%s, %s): %s\n", f.Name, f.Kind, req, f.Description)
	}
	b.WriteString("\nRULES:\n")
	b.WriteString("1. Extract ONLY information explicitly present in the text.\n")
	b.WriteString("2. Do not invent data; leave missing fields empty or null.\n")
	b.WriteString("3. Respond with ONLY a valid JSON object matching the schema fields.\n")
	return b.String()
}

func buildUserPrompt(text string) string {
	return "Extract the structured data from the following text:\n\n---\n" + text + "\n---\n\nRespond only with the JSON object."
}

func buildRetryPrompt(text string, missing []string, previous string) string {
	var b strings.Builder
	b.WriteString("The previous extraction was missing required fields: ")
	b.WriteString(strings.Join(missing, ", "))
	b.WriteString("\n\nYour previous response was:\n")
	b.WriteString(previous)
	b.WriteString("\n\nPlease correct the extraction. Here is the original text again:\n\n---\n")
	b.WriteString(text)
	b.WriteString("\n---\n\nRespond only with the corrected JSON object.")
	return b.String()
}

func missingRequired(desc *schema.Descriptor, data map[string]any) []string {
	var missing []string
	for _, name := range desc.RequiredFields() {
		v, ok := data[name]
		if !ok || v == nil {
			missing = append(missing, name)
			continue
		}
		if s, isStr := v.(string); isStr && strings.TrimSpace(s) == "" {
			missing = append(missing, name)
		}
	}
	return missing
}

var fencedJSONRe = regexp.MustCompile("(?s)```(?:json)?\\s*([\\s\\S]*?)\\s*```")
var bracedJSONRe = regexp.MustCompile(`(?s)\{[\s\S]*\}`)

// parseJSONResponse follows the reference extractor's fallback chain: try
// the raw response as JSON, then a fenced code block, then the outermost
// brace-delimited object — unwrapping a top-level "data" key if present.
func parseJSONResponse(response string) map[string]any {
	if data, ok := tryUnmarshalObject(response); ok {
		return data
	}

	if m := fencedJSONRe.FindStringSubmatch(response); m != nil {
		if data, ok := tryUnmarshalObject(m[1]); ok {
			return data
		}
	}

	if m := bracedJSONRe.FindString(response); m != "" {
		if data, ok := tryUnmarshalObject(m); ok {
			if inner, hasData := data["data"]; hasData {
				if innerMap, isMap := inner.(map[string]any); isMap {
					return innerMap
				}
			}
			return data
		}
	}

	return nil
}

func tryUnmarshalObject(s string) (map[string]any, bool) {
	var out map[string]any
	if err := json.Unmarshal([]byte(s), &out); err != nil {
		return nil, false
	}
	return out, true
}
