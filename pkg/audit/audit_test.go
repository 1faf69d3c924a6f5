package audit

import (
	"bytes"
	"strings"
	"testing"
)

func TestLoggerFormat(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger()
	logger.SetWriter(&buf)

	event := AuthenticateEvent{
		UserID:   "user-1",
		KeyID:    "key-1",
		ClientIP: "192.168.1.1",
		Method:   "api-key",
		Success:  true,
	}

	logger.Log(event)

	output := buf.String()

	if !strings.Contains(output, "tpmjs") {
		t.Error("Expected app name 'tpmjs' in output")
	}
	if !strings.Contains(output, "authn") {
		t.Error("Expected message ID 'authn' in output")
	}
	if !strings.Contains(output, "user-1") {
		t.Error("Expected user ID in output")
	}
	if !strings.Contains(output, "192.168.1.1") {
		t.Error("Expected client IP in output")
	}
	if !strings.Contains(output, "successfully authenticated") {
		t.Error("Expected success message in output")
	}
}

func TestAuthenticateEvent(t *testing.T) {
	tests := []struct {
		name      string
		event     AuthenticateEvent
		wantMsg   string
		wantSev   Severity
		wantMsgID string
	}{
		{
			name: "successful authentication",
			event: AuthenticateEvent{
				UserID:   "user-1",
				ClientIP: "10.0.0.1",
				Method:   "api-key",
				Success:  true,
			},
			wantMsg:   "successfully authenticated",
			wantSev:   SeverityInfo,
			wantMsgID: "authn",
		},
		{
			name: "failed authentication",
			event: AuthenticateEvent{
				ClientIP:     "10.0.0.1",
				Method:       "session",
				Success:      false,
				ErrorMessage: "key revoked",
			},
			wantMsg:   "key revoked",
			wantSev:   SeverityWarning,
			wantMsgID: "authn",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.event.Message(); !strings.Contains(got, tt.wantMsg) {
				t.Errorf("Message() = %q, want substring %q", got, tt.wantMsg)
			}
			if got := tt.event.Severity(); got != tt.wantSev {
				t.Errorf("Severity() = %v, want %v", got, tt.wantSev)
			}
			if got := tt.event.MessageID(); got != tt.wantMsgID {
				t.Errorf("MessageID() = %q, want %q", got, tt.wantMsgID)
			}
		})
	}
}

func TestExecuteEventToolRef(t *testing.T) {
	registry := ExecuteEvent{UserID: "u", Package: "@acme/sitemap", Tool: "parse", Success: true}
	if !strings.Contains(registry.Message(), "@acme/sitemap/parse") {
		t.Errorf("expected package-qualified tool ref, got %q", registry.Message())
	}

	builtin := ExecuteEvent{UserID: "u", Tool: "nps_analyze", Builtin: true, Success: true}
	if !strings.Contains(builtin.Message(), "builtin/nps_analyze") {
		t.Errorf("expected builtin tool ref, got %q", builtin.Message())
	}
}

func TestSyncEvent(t *testing.T) {
	ok := SyncEvent{Trigger: "cron", PackagesScanned: 10, PackagesAdded: 2, Success: true}
	if ok.Severity() != SeverityInfo {
		t.Errorf("Severity() = %v, want info", ok.Severity())
	}
	if !strings.Contains(ok.Message(), "scanned 10 packages") {
		t.Errorf("unexpected message %q", ok.Message())
	}

	failed := SyncEvent{Trigger: "manual", Success: false, ErrorMessage: "npm unreachable"}
	if failed.Severity() != SeverityError {
		t.Errorf("Severity() = %v, want error", failed.Severity())
	}
	if !strings.Contains(failed.Message(), "npm unreachable") {
		t.Errorf("unexpected message %q", failed.Message())
	}
}

func TestFormatStructuredDataEscaping(t *testing.T) {
	sd := map[string]map[string]string{
		SDIDSubject: {
			"tool": `weird"name]`,
		},
	}
	out := formatStructuredData(sd)
	if !strings.Contains(out, `\"`) || !strings.Contains(out, `\]`) {
		t.Errorf("expected escaped value, got %q", out)
	}
}
