package audit

import "fmt"

// FetchEvent records a read of a public resource, for traffic forensics.
type FetchEvent struct {
	ClientIP string
	Kind     string // "package" or "collection"
	Subject  string
}

func (e FetchEvent) MessageID() string {
	return "fetch"
}

func (e FetchEvent) Message() string {
	return fmt.Sprintf("fetched %s %s", e.Kind, e.Subject)
}

func (e FetchEvent) Severity() Severity {
	return SeverityInfo
}

func (e FetchEvent) Facility() int {
	return FacilityAuth
}

func (e FetchEvent) StructuredData() map[string]map[string]string {
	return map[string]map[string]string{
		SDIDSubject: {
			e.Kind: e.Subject,
		},
		SDIDClient: {
			"ip": e.ClientIP,
		},
		SDIDAction: {
			"operation": "fetch",
		},
	}
}
