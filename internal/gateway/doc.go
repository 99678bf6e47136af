// Package gateway serves the rag-gateway HTTP API.
//
// # Overview
//
// The Gateway owns the SQLite store, the identity resolver, the answer
// backend adapter and the audit recorder, and exposes them over a single
// chi router. It listens on a plain TCP address or, when configured, on
// port 80 of an embedded Tailscale node.
//
// # Chat Pipeline
//
// The three chat channels share one handler. Each request goes through:
//
//  1. Resolve the caller identity from the channel proof
//  2. Decode {id, question, thread_id}
//  3. Build the thread key Tag/Scope(Fragment)
//  4. Call the answer backend (bounded by backend.timeout)
//  5. Record the exchange in every audit sink
//  6. Respond with {id, answer}
//
// A failure in step 1 returns 400, 401 or 404 without touching the backend.
// A backend failure returns 502 and nothing is recorded.
//
// # HTTP API
//
//   - POST /register - Create a user
//   - POST /token - Exchange credentials for a bearer token
//   - POST /public/chat - Chat as a bearer-token user (alias /chat/send-message)
//   - POST /web/session - Set the session_id cookie
//   - DELETE /web/session - Clear the session_id cookie
//   - POST /web/chat - Chat as a web session
//   - POST /bot/chat?chat_id= - Chat on behalf of a bot chat
//   - GET /health - Liveness check
//   - GET /health/ready - Store readiness check
//
// # Lifecycle
//
//	gw, err := gateway.New(cfg, logger)
//	ctx, cancel := context.WithCancel(context.Background())
//	go gw.Run(ctx)
//	cancel()
package gateway
