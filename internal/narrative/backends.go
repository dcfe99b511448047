package narrative

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/valyala/fasthttp"

	"lol-reporter/internal/config"
)

const (
	groqEndpoint   = "https://api.groq.com/openai/v1/chat/completions"
	openaiEndpoint = "https://api.openai.com/v1/chat/completions"
)

// chatBackend speaks the OpenAI-compatible chat-completions wire format, which
// both configured providers share.
type chatBackend struct {
	name     string
	endpoint string
	apiKey   string
	model    string
	client   *fasthttp.Client
}

func newChatBackend(name, endpoint, apiKey, model string) *chatBackend {
	return &chatBackend{
		name:     name,
		endpoint: endpoint,
		apiKey:   apiKey,
		model:    model,
		client: &fasthttp.Client{
			MaxConnsPerHost: 10,
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    10 * time.Second,
		},
	}
}

func (b *chatBackend) Name() string { return b.name }

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

func (b *chatBackend) Complete(ctx context.Context, prompt string) (string, error) {
	body, err := json.Marshal(chatRequest{
		Model:    b.model,
		Messages: []chatMessage{{Role: "user", Content: prompt}},
	})
	if err != nil {
		return "", fmt.Errorf("encode request: %w", err)
	}

	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(b.endpoint)
	req.Header.SetMethod(fasthttp.MethodPost)
	req.Header.SetContentType("application/json")
	req.Header.Set("Authorization", "Bearer "+b.apiKey)
	req.SetBody(body)

	if deadline, ok := ctx.Deadline(); ok {
		err = b.client.DoDeadline(req, resp, deadline)
	} else {
		err = b.client.Do(req, resp)
	}
	if err != nil {
		return "", fmt.Errorf("request: %w", err)
	}

	if resp.StatusCode() != fasthttp.StatusOK {
		return "", fmt.Errorf("status %d", resp.StatusCode())
	}

	var parsed chatResponse
	if err := json.Unmarshal(resp.Body(), &parsed); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	if parsed.Error != nil {
		return "", fmt.Errorf("backend error: %s", parsed.Error.Message)
	}
	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("empty choices")
	}
	text := strings.TrimSpace(parsed.Choices[0].Message.Content)
	if text == "" {
		return "", fmt.Errorf("empty completion")
	}
	return text, nil
}

// BackendsFromConfig builds the fallback chain's backend list in configured
// order. A backend missing its API key is skipped; an empty chain just means
// every Narrate call returns ErrUnavailable. Unknown identifiers fail startup.
func BackendsFromConfig(cfg *config.Config) ([]Backend, error) {
	var backends []Backend
	for _, name := range cfg.NarrativeOrder {
		switch name {
		case "groq":
			if cfg.GroqAPIKey == "" {
				continue
			}
			backends = append(backends, newChatBackend("groq", groqEndpoint, cfg.GroqAPIKey, cfg.GroqModel))
		case "openai":
			if cfg.OpenAIAPIKey == "" {
				continue
			}
			backends = append(backends, newChatBackend("openai", openaiEndpoint, cfg.OpenAIAPIKey, cfg.OpenAIModel))
		default:
			return nil, fmt.Errorf("unknown narrative backend %q", name)
		}
	}
	return backends, nil
}
