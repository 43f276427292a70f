// Package usage persists terminal chat outcomes to a SQLite ledger.
//
// The Ledger implements routing.UsageRecorder; the routing manager treats
// recording as best-effort, so a ledger outage degrades to log noise, not
// failed requests. A cron-driven Scheduler prunes rows past the configured
// retention window.
package usage
