package gemini

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"google.golang.org/genai"

	"github.com/nachoal/bolt-agent-go/config"
	"github.com/nachoal/bolt-agent-go/llm"
)

const (
	providerName   = "Gemini"
	defaultTimeout = 5 * time.Minute
	defaultModel   = "gemini-2.5-flash"
)

// Client implements llm.Client on top of the Gemini chat API
type Client struct {
	options llm.ClientOptions
	client  *genai.Client
}

// NewClient creates a new Gemini client
func NewClient(ctx context.Context, opts ...llm.ClientOption) (*Client, error) {
	options := llm.ClientOptions{
		Timeout:      defaultTimeout,
		DefaultModel: defaultModel,
		Headers:      make(map[string]string),
	}

	// Apply options
	for _, opt := range opts {
		opt(&options)
	}

	// Get API key from environment if not provided
	if options.APIKey == "" {
		options.APIKey = os.Getenv("GEMINI_API_KEY")
		if options.APIKey == "" {
			return nil, &config.ConfigError{Key: "GEMINI_API_KEY", Reason: "Gemini API key not provided"}
		}
	}

	cfg := &genai.ClientConfig{
		APIKey:     options.APIKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: &http.Client{Timeout: options.Timeout},
	}
	if options.BaseURL != "" || len(options.Headers) > 0 {
		headers := http.Header{}
		for k, v := range options.Headers {
			headers.Set(k, v)
		}
		cfg.HTTPOptions = genai.HTTPOptions{BaseURL: options.BaseURL, Headers: headers}
	}

	client, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, &config.ConfigError{Key: "GEMINI_API_KEY", Reason: fmt.Sprintf("failed to configure Gemini client: %v", err)}
	}

	return &Client{
		options: options,
		client:  client,
	}, nil
}

// StartDialogue creates a chat session seeded with the given turns
func (c *Client) StartDialogue(ctx context.Context, seed []llm.Message) (llm.Dialogue, error) {
	chat, err := c.client.Chats.Create(ctx, c.options.DefaultModel, nil, toContents(seed))
	if err != nil {
		return nil, llm.WrapAPIError(providerName, err)
	}
	return &dialogue{chat: chat}, nil
}

// Close cleans up resources
func (c *Client) Close() error {
	// Nothing to clean up for the genai client
	return nil
}

type dialogue struct {
	chat *genai.Chat
}

// SendStream sends one turn and forwards text chunks as they arrive
func (d *dialogue) SendStream(ctx context.Context, parts []llm.Part) (<-chan llm.StreamEvent, error) {
	if len(parts) == 0 {
		return nil, &llm.APIError{Provider: providerName, Message: "empty message"}
	}
	gparts := toParts(parts)

	events := make(chan llm.StreamEvent)

	go func() {
		defer close(events)

		for resp, err := range d.chat.SendMessageStream(ctx, gparts...) {
			if err != nil {
				select {
				case events <- llm.StreamEvent{Err: llm.WrapAPIError(providerName, err)}:
				case <-ctx.Done():
				}
				return
			}

			// Chunks without text parts (safety metadata, usage) are skipped
			text := resp.Text()
			if text == "" {
				continue
			}

			select {
			case events <- llm.StreamEvent{Text: text}:
			case <-ctx.Done():
				return
			}
		}
	}()

	return events, nil
}

func toContents(seed []llm.Message) []*genai.Content {
	contents := make([]*genai.Content, 0, len(seed))
	for _, m := range seed {
		role := genai.Role(genai.RoleUser)
		if m.Role == llm.RoleAssistant {
			role = genai.RoleModel
		}
		contents = append(contents, genai.NewContentFromText(m.Content, role))
	}
	return contents
}

func toParts(parts []llm.Part) []genai.Part {
	out := make([]genai.Part, 0, len(parts))
	for _, p := range parts {
		switch p.Kind {
		case llm.PartBinary:
			out = append(out, *genai.NewPartFromBytes(p.Data, p.MIMEType))
		default:
			out = append(out, *genai.NewPartFromText(p.Text))
		}
	}
	return out
}
