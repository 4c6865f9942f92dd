package audit

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
)

func newCapturedLogger() (*Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	return NewLogger(slog.New(slog.NewJSONHandler(&buf, nil))), &buf
}

func TestLogActionRecordsFields(t *testing.T) {
	al, buf := newCapturedLogger()

	al.LogAction(context.Background(), "user-1", "destroy", "workspace", "job-1", "success", "running")

	out := buf.String()
	for _, want := range []string{
		`"msg":"audit"`,
		`"action":"destroy"`,
		`"resource":"workspace"`,
		`"resource_id":"job-1"`,
		`"user_id":"user-1"`,
		`"status":"success"`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("audit record missing %s: %s", want, out)
		}
	}
}

func TestActionHelpers(t *testing.T) {
	cases := []struct {
		name   string
		log    func(al *Logger)
		action string
	}{
		{"registration", func(al *Logger) { al.LogRegistration(context.Background(), "u", "success", "") }, `"action":"register"`},
		{"login", func(al *Logger) { al.LogLogin(context.Background(), "u", "failure", "wrong password") }, `"action":"login"`},
		{"destroy", func(al *Logger) { al.LogWorkspaceDestroy(context.Background(), "u", "j", "success", "") }, `"action":"destroy"`},
		{"cancel", func(al *Logger) { al.LogSubscriptionCancel(context.Background(), "u", "s", "success", "") }, `"action":"cancel"`},
	}
	for _, tc := range cases {
		al, buf := newCapturedLogger()
		tc.log(al)
		if !strings.Contains(buf.String(), tc.action) {
			t.Errorf("%s: expected %s in %s", tc.name, tc.action, buf.String())
		}
	}
}
