// Package llm provides the chat-completion client shared by the classifier
// and the interview extractor.
//
// Two backends are available. "openrouter" speaks the OpenAI-compatible HTTP
// API directly and forwards the HTTP-Referer and X-Title attribution headers.
// "openai" uses github.com/sashabaranov/go-openai. Both implement Backend, so
// tests can substitute a fake.
//
// # Entry Points
//
// NewClient: construct a client from Config.
// Client.Complete: send system/user prompts, receive free text.
// Client.CompleteJSON: same, with JSON response mode requested.
// Client.WithTemperature: derive a client with another sampling temperature.
// Client.HealthCheck: list models to verify the key.
// DecodeObject, FieldText: lenient decoding of fenced or wrapped JSON object replies.
//
// # Rate Limiting
//
// When Config.RequestsPerMinute is positive, calls wait on a token bucket
// before being sent. Failed requests are returned to the caller as-is; there
// is no retry.
package llm
