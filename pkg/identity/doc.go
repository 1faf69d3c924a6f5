// Package identity carries the authenticated caller through request context.
package identity
