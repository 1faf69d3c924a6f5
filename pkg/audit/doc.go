// Package audit emits structured audit events for security-relevant
// operations: authentication, API key lifecycle, tool execution, and
// registry sync runs.
//
// Events are written to stdout in RFC5424 syslog format and optionally
// persisted to a dedicated audit database (AUDIT_DATABASE_URL).
package audit
