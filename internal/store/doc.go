// Package store provides persistent storage for rag-gateway using SQLite.
//
// # Architecture
//
// The package exposes small interfaces so consumers depend only on what they use:
//
//   - UserStore: registered users (credential store)
//   - ChatAuditStore: append-only record of completed chat exchanges
//   - BotThreadStore: bot chat id to thread fragment mapping
//
// Store combines all three. SQLiteStore implements it in a single struct;
// MockStore is an in-memory implementation for unit tests.
//
// # Data Models
//
//   - User: numeric ID, unique email, bcrypt password hash
//   - ChatAuditRecord: channel, thread key, question, answer and exactly one
//     of user id, chat id or session id
//   - BotThread: the thread a bot chat currently uses
//
// # SQLite Configuration
//
//	PRAGMA journal_mode=WAL;
//	PRAGMA busy_timeout=5000;
//
// The schema is created with CREATE TABLE IF NOT EXISTS on open. An in-memory
// database (":memory:") is pinned to a single connection.
//
// # Error Handling
//
//   - ErrNotFound: requested entity does not exist
//   - ErrEmailTaken: registration for an email that already has a user
//
// All methods accept context.Context for cancellation support.
package store
