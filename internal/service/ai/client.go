package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/eshu30/AI-Stockbot/internal/config"
	"github.com/eshu30/AI-Stockbot/internal/model/chat"
)

// Client calls the Gemini generateContent endpoint with Google Search
// grounding enabled.
type Client struct {
	apiKey     string
	baseURL    string
	model      string
	maxRetries int
	httpClient *http.Client

	// sleep is swappable so retry timing is observable in tests.
	sleep func(time.Duration)
}

// NewClient builds a generation client from the AI configuration.
func NewClient(cfg config.AIConfig) *Client {
	return &Client{
		apiKey:     cfg.APIKey,
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		model:      cfg.Model,
		maxRetries: cfg.MaxRetries,
		httpClient: &http.Client{Timeout: cfg.RequestTimeout},
		sleep:      time.Sleep,
	}
}

type contentPart struct {
	Text string `json:"text"`
}

type content struct {
	Role  string        `json:"role,omitempty"`
	Parts []contentPart `json:"parts"`
}

// searchTool serializes to {"google_search": {}}, which switches on
// Google Search grounding for the call.
type searchTool struct {
	GoogleSearch struct{} `json:"google_search"`
}

type generateRequest struct {
	Contents          []content    `json:"contents"`
	SystemInstruction *content     `json:"systemInstruction,omitempty"`
	Tools             []searchTool `json:"tools"`
}

type generateResponse struct {
	Candidates []struct {
		Content struct {
			Parts []contentPart `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

// buildRequest maps conversation roles onto the wire format: the system
// message becomes the systemInstruction and assistant turns become role
// "model".
func buildRequest(messages []chat.Message) generateRequest {
	req := generateRequest{Tools: []searchTool{{}}}
	for _, msg := range messages {
		if msg.Role == chat.RoleSystem {
			req.SystemInstruction = &content{Parts: []contentPart{{Text: msg.Content}}}
			continue
		}
		role := "model"
		if msg.Role == chat.RoleUser {
			role = "user"
		}
		req.Contents = append(req.Contents, content{
			Role:  role,
			Parts: []contentPart{{Text: msg.Content}},
		})
	}
	return req
}

// Generate runs one generation call with bounded retries on rate
// limiting: after a 429 the client sleeps 1s, 2s, ... between attempts
// and gives up once maxRetries attempts are spent. Every other failure
// returns immediately. The returned error is always an *Error.
func (c *Client) Generate(ctx context.Context, messages []chat.Message) (string, error) {
	if c.apiKey == "" {
		return "", &Error{Kind: ErrKindConfig, Display: configErrorText}
	}

	payload, err := json.Marshal(buildRequest(messages))
	if err != nil {
		return "", &Error{Kind: ErrKindMalformed, Display: malformedResponseText, Err: err}
	}

	endpoint := fmt.Sprintf("%s/models/%s:generateContent?key=%s",
		c.baseURL, c.model, url.QueryEscape(c.apiKey))

	for attempt := 0; attempt < c.maxRetries; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
		if err != nil {
			return "", &Error{Kind: ErrKindTransport, Display: fmt.Sprintf(connectionErrorFormat, err), Err: err}
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return "", &Error{Kind: ErrKindTransport, Display: fmt.Sprintf(connectionErrorFormat, err), Err: err}
		}

		body, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			return "", &Error{Kind: ErrKindTransport, Display: fmt.Sprintf(connectionErrorFormat, err), Err: err}
		}

		if resp.StatusCode == http.StatusTooManyRequests {
			if attempt < c.maxRetries-1 {
				wait := time.Duration(1<<attempt) * time.Second
				log.Printf("[ai] rate limited, retrying in %s (attempt %d/%d)", wait, attempt+1, c.maxRetries)
				c.sleep(wait)
				continue
			}
			return "", &Error{Kind: ErrKindRateLimit, Display: retriesExhaustedText}
		}

		if resp.StatusCode != http.StatusOK {
			return "", &Error{
				Kind:    ErrKindHTTP,
				Display: fmt.Sprintf(httpErrorFormat, resp.StatusCode, string(body)),
			}
		}

		var parsed generateResponse
		if err := json.Unmarshal(body, &parsed); err != nil {
			return "", &Error{Kind: ErrKindMalformed, Display: malformedResponseText, Err: err}
		}
		if len(parsed.Candidates) == 0 || len(parsed.Candidates[0].Content.Parts) == 0 {
			return "", &Error{Kind: ErrKindMalformed, Display: malformedResponseText}
		}
		return parsed.Candidates[0].Content.Parts[0].Text, nil
	}

	return "", &Error{Kind: ErrKindRateLimit, Display: retriesExhaustedText}
}

// GenerateDisplay returns either the model reply or display-ready error
// text. Callers feeding the chat transcript never branch on failure;
// whatever comes back is appended as the assistant's message.
func (c *Client) GenerateDisplay(ctx context.Context, messages []chat.Message) string {
	text, err := c.Generate(ctx, messages)
	if err != nil {
		var aiErr *Error
		if errors.As(err, &aiErr) {
			return aiErr.Display
		}
		return err.Error()
	}
	return text
}
