package llm

import (
	"time"
)

// Role represents the role of a message
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is a plain-text turn used to seed a dialogue
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// PartKind identifies the variant held by a Part
type PartKind int

const (
	PartText PartKind = iota
	PartBinary
)

func (k PartKind) String() string {
	switch k {
	case PartText:
		return "text"
	case PartBinary:
		return "binary"
	default:
		return "unknown"
	}
}

// Part is one ordered piece of a user turn: either text or binary data with a MIME type.
type Part struct {
	Kind     PartKind
	Text     string
	MIMEType string
	Data     []byte
}

// TextPart builds a text part
func TextPart(text string) Part {
	return Part{Kind: PartText, Text: text}
}

// BinaryPart builds a binary part
func BinaryPart(mimeType string, data []byte) Part {
	return Part{Kind: PartBinary, MIMEType: mimeType, Data: data}
}

// ClientOptions contains options for creating a model client
type ClientOptions struct {
	APIKey       string
	BaseURL      string
	Timeout      time.Duration
	MaxRetries   int
	DefaultModel string
	Headers      map[string]string
}

// ClientOption is a functional option for configuring clients
type ClientOption func(*ClientOptions)

// WithAPIKey sets the API key
func WithAPIKey(key string) ClientOption {
	return func(o *ClientOptions) {
		o.APIKey = key
	}
}

// WithBaseURL sets the base URL
func WithBaseURL(url string) ClientOption {
	return func(o *ClientOptions) {
		o.BaseURL = url
	}
}

// WithTimeout sets the request timeout
func WithTimeout(timeout time.Duration) ClientOption {
	return func(o *ClientOptions) {
		o.Timeout = timeout
	}
}

// WithModel sets the default model
func WithModel(model string) ClientOption {
	return func(o *ClientOptions) {
		o.DefaultModel = model
	}
}

// WithMaxRetries sets the maximum number of retries
func WithMaxRetries(retries int) ClientOption {
	return func(o *ClientOptions) {
		o.MaxRetries = retries
	}
}

// WithHeaders sets additional headers
func WithHeaders(headers map[string]string) ClientOption {
	return func(o *ClientOptions) {
		if o.Headers == nil {
			o.Headers = make(map[string]string)
		}
		for k, v := range headers {
			o.Headers[k] = v
		}
	}
}
