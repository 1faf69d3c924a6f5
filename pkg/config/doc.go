// Package config provides configuration management for the TPMJS server.
//
// Configuration is layered: built-in defaults, then an optional tpmjs.yml
// file, then environment variables. The source of each value is tracked so
// `tpmjsctl config show` can report where a setting came from.
//
// # Key Configuration Options
//
//   - DATABASE_URL: Database connection
//   - TPMJS_DATA_KEY: Encryption key for stored credentials
//   - TPMJS_EXECUTOR_URL / TPMJS_EXECUTOR_TOKEN: Remote executor service
//   - TPMJS_CRON_TOKEN: Bearer token for sync trigger endpoints
//   - PORT: Server listen port
package config
