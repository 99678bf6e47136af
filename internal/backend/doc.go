// Package backend defines the answer backend contract and its implementations.
//
// The gateway only ever calls Adapter.Answer with a normalized Request:
//
//	{ "id": "r1", "thread_id": "Public/7(t1)", "question": "hi" }
//
// Implementations:
//
//   - Stub: echoes the question (default)
//   - HTTP: posts the request to a remote answer service
//   - OpenAI: asks an OpenAI-compatible chat completion API
//
// The Adapter bounds each call with the configured timeout and reports every
// failure as ErrBackendUnavailable. It never retries.
package backend
