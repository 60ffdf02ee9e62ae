package main

import (
	"strings"
	"testing"
)

func TestRootCmdRejectsBadConfig(t *testing.T) {
	t.Setenv("REDIS_DB", "not-a-number")

	cmd := newRootCmd()
	cmd.SetArgs([]string{"--port", "0", "--log-level", "error"})
	err := cmd.Execute()
	if err == nil || !strings.Contains(err.Error(), "REDIS_DB") {
		t.Fatalf("err=%v, want REDIS_DB error", err)
	}
}

func TestRootCmdFlags(t *testing.T) {
	cmd := newRootCmd()
	for _, name := range []string{"port", "env", "log-level", "redis-host", "require-auth"} {
		if cmd.Flags().Lookup(name) == nil {
			t.Fatalf("missing flag --%s", name)
		}
	}
	if err := cmd.Flags().Parse([]string{"-p", "9999"}); err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if got := cmd.Flags().Lookup("port").Value.String(); got != "9999" {
		t.Fatalf("port=%q, want 9999", got)
	}
}
