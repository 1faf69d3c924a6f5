// Package registry implements the background jobs that keep the catalog
// fresh: the npm keyword sync, the package health sweep, and the daily
// stats snapshot. Each job is one-shot; scheduling lives outside (cron
// hitting the sync endpoints, or the CLI).
package registry
