// Package npm is a read-only client for the public npm registry and its
// downloads API. The registry discovers publishable tool packages through
// the keyword search endpoint, fetches packuments for version and metadata
// detail, and reads weekly download counts for popularity scoring.
package npm
