// Package audit records every completed chat exchange.
//
// Recorder.Record is called once per successful backend answer, before the
// HTTP response is written. It writes to all sinks in parallel, each under its
// own timeout, and waits for them. A failing or slow sink is logged and
// skipped; the caller never sees an audit error.
//
// Sinks:
//
//   - StoreSink: chat_audit table in the gateway's SQLite database
//   - FileSink: JSON lines, one record per line
package audit
