package audit

import "fmt"

// ExecuteEvent records a tool execution on behalf of a user or agent.
type ExecuteEvent struct {
	UserID       string
	AgentID      string
	ClientIP     string
	Package      string
	Tool         string
	Builtin      bool
	Success      bool
	ErrorMessage string
}

func (e ExecuteEvent) MessageID() string {
	return "execute"
}

func (e ExecuteEvent) toolRef() string {
	if e.Builtin {
		return "builtin/" + e.Tool
	}
	return e.Package + "/" + e.Tool
}

func (e ExecuteEvent) Message() string {
	if e.Success {
		return fmt.Sprintf("%s executed tool %s", e.UserID, e.toolRef())
	}
	msg := fmt.Sprintf("%s failed to execute tool %s", e.UserID, e.toolRef())
	if e.ErrorMessage != "" {
		msg += ": " + e.ErrorMessage
	}
	return msg
}

func (e ExecuteEvent) Severity() Severity {
	if e.Success {
		return SeverityInfo
	}
	return SeverityWarning
}

func (e ExecuteEvent) Facility() int {
	return FacilityAuthPriv
}

func (e ExecuteEvent) StructuredData() map[string]map[string]string {
	sd := map[string]map[string]string{
		SDIDAuth: {
			"user": e.UserID,
		},
		SDIDSubject: {
			"tool": e.toolRef(),
		},
		SDIDClient: {
			"ip": e.ClientIP,
		},
		SDIDAction: {
			"operation": "execute",
		},
	}
	if e.AgentID != "" {
		sd[SDIDAuth]["agent"] = e.AgentID
	}
	if e.Success {
		sd[SDIDAction]["result"] = "success"
	} else {
		sd[SDIDAction]["result"] = "failure"
	}
	return sd
}
