package audit

import "fmt"

// AuthenticateEvent records an API key or session authentication attempt.
type AuthenticateEvent struct {
	UserID       string
	KeyID        string
	ClientIP     string
	Method       string // "api-key" or "session"
	Success      bool
	ErrorMessage string
}

func (e AuthenticateEvent) MessageID() string {
	return "authn"
}

func (e AuthenticateEvent) Message() string {
	if e.Success {
		return fmt.Sprintf("%s successfully authenticated via %s", e.UserID, e.Method)
	}
	msg := fmt.Sprintf("authentication via %s failed", e.Method)
	if e.ErrorMessage != "" {
		msg += ": " + e.ErrorMessage
	}
	return msg
}

func (e AuthenticateEvent) Severity() Severity {
	if e.Success {
		return SeverityInfo
	}
	return SeverityWarning
}

func (e AuthenticateEvent) Facility() int {
	return FacilityAuthPriv
}

func (e AuthenticateEvent) StructuredData() map[string]map[string]string {
	sd := map[string]map[string]string{
		SDIDAuth: {
			"method": e.Method,
			"user":   e.UserID,
		},
		SDIDClient: {
			"ip": e.ClientIP,
		},
	}
	if e.KeyID != "" {
		sd[SDIDAuth]["key"] = e.KeyID
	}
	if e.Success {
		sd[SDIDAuth]["result"] = "success"
	} else {
		sd[SDIDAuth]["result"] = "failure"
	}
	return sd
}
