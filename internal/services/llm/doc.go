// Package llm provides a chat-completions client for the synthesis pipeline.
//
// A single OpenAI-compatible endpoint (OpenRouter by default) fronts every
// model the pipeline calls, so the model name travels with each Request rather
// than living on the Client.
//
// Complete sends exactly one HTTP request. There is no automatic retry: a
// failure (non-2xx status, transport error, empty content) is returned to the
// caller, which records it against the item being processed and moves on.
// Token usage from the provider's usage block is surfaced on Completion for
// cost accounting; UsageReported tells callers when to fall back to an
// estimate.
//
// The client does not interpret response content. Callers validate JSON
// payloads themselves.
package llm
