package ollama

import (
	"bufio"
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/nachoal/bolt-agent-go/llm"
)

const (
	providerName   = "Ollama"
	defaultBaseURL = "http://localhost:11434"
	defaultTimeout = 300 * time.Second // Longer timeout for local models
	defaultModel   = "llava"
)

// retryBackoff is the wait before the first connection retry; it grows linearly
var retryBackoff = 500 * time.Millisecond

// Client implements the llm.Client interface for Ollama
type Client struct {
	options    llm.ClientOptions
	httpClient *http.Client
}

// OllamaMessage represents a message in Ollama's format
type OllamaMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
	// Images holds base64-encoded images for vision-capable models
	Images []string `json:"images,omitempty"`
}

// OllamaRequest represents a request to Ollama's API
type OllamaRequest struct {
	Model    string                 `json:"model"`
	Messages []OllamaMessage        `json:"messages"`
	Stream   bool                   `json:"stream"`
	Options  map[string]interface{} `json:"options,omitempty"`
}

// OllamaStreamResponse is one NDJSON line of a streamed reply
type OllamaStreamResponse struct {
	Model     string        `json:"model"`
	CreatedAt time.Time     `json:"created_at"`
	Message   OllamaMessage `json:"message"`
	Done      bool          `json:"done"`
	Error     string        `json:"error,omitempty"`
}

// NewClient creates a new Ollama client
func NewClient(ctx context.Context, opts ...llm.ClientOption) (*Client, error) {
	options := llm.ClientOptions{
		BaseURL:      defaultBaseURL,
		Timeout:      defaultTimeout,
		MaxRetries:   3,
		DefaultModel: defaultModel,
		Headers:      make(map[string]string),
	}

	// Apply options
	for _, opt := range opts {
		opt(&options)
	}

	// Check for custom base URL from environment
	if options.BaseURL == defaultBaseURL {
		if envURL := os.Getenv("OLLAMA_URL"); envURL != "" {
			options.BaseURL = envURL
		}
	}
	options.BaseURL = strings.TrimRight(options.BaseURL, "/")

	client := &Client{
		options:    options,
		httpClient: &http.Client{Timeout: options.Timeout},
	}

	// Check connection, retrying while the server starts up
	if err := client.connect(ctx); err != nil {
		return nil, &llm.APIError{
			Provider: providerName,
			Message:  fmt.Sprintf("failed to connect to Ollama at %s", options.BaseURL),
			Err:      err,
		}
	}

	return client, nil
}

func (c *Client) connect(ctx context.Context) error {
	var err error
	for attempt := 0; attempt <= c.options.MaxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-time.After(time.Duration(attempt) * retryBackoff):
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		if err = c.checkConnection(ctx); err == nil {
			return nil
		}
	}
	return err
}

// checkConnection verifies the Ollama server is running
func (c *Client) checkConnection(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, "GET", c.options.BaseURL+"/api/tags", nil)
	if err != nil {
		return err
	}
	c.setHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("server not reachable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("server returned status %d", resp.StatusCode)
	}

	return nil
}

// StartDialogue returns a dialogue whose history starts with the seed.
// Ollama is stateless, so the history travels with every request.
func (c *Client) StartDialogue(_ context.Context, seed []llm.Message) (llm.Dialogue, error) {
	history := make([]OllamaMessage, 0, len(seed))
	for _, m := range seed {
		history = append(history, OllamaMessage{Role: toRole(m.Role), Content: m.Content})
	}
	return &dialogue{client: c, history: history}, nil
}

// Close cleans up resources
func (c *Client) Close() error {
	return nil
}

// setHeaders sets common headers for requests
func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("User-Agent", "bolt-agent-go/1.0")
	for k, v := range c.options.Headers {
		req.Header.Set(k, v)
	}
}

type dialogue struct {
	client  *Client
	mu      sync.Mutex
	history []OllamaMessage
}

// SendStream posts the whole history plus the new turn and streams the reply
func (d *dialogue) SendStream(ctx context.Context, parts []llm.Part) (<-chan llm.StreamEvent, error) {
	turn := toMessage(parts)

	d.mu.Lock()
	messages := make([]OllamaMessage, 0, len(d.history)+1)
	messages = append(messages, d.history...)
	d.mu.Unlock()
	messages = append(messages, turn)

	body, err := json.Marshal(&OllamaRequest{
		Model:    d.client.options.DefaultModel,
		Messages: messages,
		Stream:   true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", d.client.options.BaseURL+"/api/chat", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	d.client.setHeaders(req)
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.client.httpClient.Do(req)
	if err != nil {
		return nil, llm.WrapAPIError(providerName, err)
	}

	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		b, _ := io.ReadAll(resp.Body)
		return nil, &llm.APIError{
			Provider:   providerName,
			StatusCode: resp.StatusCode,
			Message:    errorMessage(b),
		}
	}

	events := make(chan llm.StreamEvent)

	go func() {
		defer close(events)
		defer resp.Body.Close()

		send := func(ev llm.StreamEvent) bool {
			select {
			case events <- ev:
				return true
			case <-ctx.Done():
				return false
			}
		}

		var reply strings.Builder
		scanner := bufio.NewScanner(resp.Body)
		scanner.Buffer(make([]byte, 64*1024), 1024*1024)
		for scanner.Scan() {
			var sResp OllamaStreamResponse
			if err := json.Unmarshal(scanner.Bytes(), &sResp); err != nil {
				continue
			}
			if sResp.Error != "" {
				send(llm.StreamEvent{Err: &llm.APIError{Provider: providerName, Message: sResp.Error}})
				return
			}
			if sResp.Message.Content != "" {
				reply.WriteString(sResp.Message.Content)
				if !send(llm.StreamEvent{Text: sResp.Message.Content}) {
					return
				}
			}
			if sResp.Done {
				d.mu.Lock()
				d.history = append(d.history, turn, OllamaMessage{Role: "assistant", Content: reply.String()})
				d.mu.Unlock()
				return
			}
		}

		err := scanner.Err()
		if err == nil {
			err = errors.New("stream ended before completion")
		}
		send(llm.StreamEvent{Err: llm.WrapAPIError(providerName, err)})
	}()

	return events, nil
}

func toRole(r llm.Role) string {
	if r == llm.RoleAssistant {
		return "assistant"
	}
	return "user"
}

// toMessage folds parts into one Ollama user message: text parts joined by
// newlines, binary parts carried as base64 images.
func toMessage(parts []llm.Part) OllamaMessage {
	msg := OllamaMessage{Role: "user"}
	var texts []string
	for _, p := range parts {
		switch p.Kind {
		case llm.PartBinary:
			msg.Images = append(msg.Images, base64.StdEncoding.EncodeToString(p.Data))
		default:
			texts = append(texts, p.Text)
		}
	}
	msg.Content = strings.Join(texts, "\n")
	return msg
}

func errorMessage(body []byte) string {
	var errResp struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(body, &errResp); err == nil && errResp.Error != "" {
		return errResp.Error
	}
	return strings.TrimSpace(string(body))
}
