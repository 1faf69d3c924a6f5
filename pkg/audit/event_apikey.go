package audit

import "fmt"

// APIKeyEvent records API key lifecycle operations.
type APIKeyEvent struct {
	UserID       string
	KeyID        string
	ClientIP     string
	Operation    string // "create" or "revoke"
	Success      bool
	ErrorMessage string
}

func (e APIKeyEvent) MessageID() string {
	return "api-key"
}

func (e APIKeyEvent) Message() string {
	if e.Success {
		return fmt.Sprintf("%s %sd API key %s", e.UserID, e.Operation, e.KeyID)
	}
	msg := fmt.Sprintf("%s failed to %s API key %s", e.UserID, e.Operation, e.KeyID)
	if e.ErrorMessage != "" {
		msg += ": " + e.ErrorMessage
	}
	return msg
}

func (e APIKeyEvent) Severity() Severity {
	if e.Success {
		return SeverityInfo
	}
	return SeverityWarning
}

func (e APIKeyEvent) Facility() int {
	return FacilityAuthPriv
}

func (e APIKeyEvent) StructuredData() map[string]map[string]string {
	result := "success"
	if !e.Success {
		result = "failure"
	}
	return map[string]map[string]string{
		SDIDAuth: {
			"user": e.UserID,
		},
		SDIDSubject: {
			"key": e.KeyID,
		},
		SDIDClient: {
			"ip": e.ClientIP,
		},
		SDIDAction: {
			"operation": e.Operation,
			"result":    result,
		},
	}
}
