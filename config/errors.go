package config

import "fmt"

// ConfigError reports missing or invalid startup configuration. It is fatal:
// the CLI reports it and exits before any interaction starts.
type ConfigError struct {
	Key    string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("configuration error (%s): %s", e.Key, e.Reason)
}

// Hint returns setup instructions for the error
func (e *ConfigError) Hint() string {
	switch e.Key {
	case "GEMINI_API_KEY":
		return `To fix this:
  1. Get a Gemini API key from https://aistudio.google.com/app/apikey
  2. Export it before starting:  export GEMINI_API_KEY="YOUR_KEY_HERE"
     or put GEMINI_API_KEY=YOUR_KEY_HERE in a .env file next to where you run bolt.`
	case "OLLAMA_URL":
		return "Set OLLAMA_URL (for example http://localhost:11434) or pass --provider gemini."
	default:
		return "Check your flags, environment and ~/.bolt/config.json."
	}
}
