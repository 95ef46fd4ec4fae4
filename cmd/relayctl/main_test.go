package main

import (
	"bytes"
	"strings"
	"testing"
)

func TestRootRegistersSubcommands(t *testing.T) {
	root := buildRoot()
	want := []string{"start", "stop", "restart", "status", "logs", "history", "serve"}
	for _, name := range want {
		found := false
		for _, c := range root.Commands() {
			if c.Name() == name {
				found = true
				break
			}
		}
		if !found {
			t.Fatalf("missing subcommand %q", name)
		}
	}
}

func TestHelpMentionsServices(t *testing.T) {
	root := buildRoot()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs([]string{"--help"})
	if err := root.Execute(); err != nil {
		t.Fatalf("help should succeed: %v", err)
	}
	for _, want := range []string{"relayctl", "router", "provider"} {
		if !strings.Contains(out.String(), want) {
			t.Fatalf("help output missing %q:\n%s", want, out.String())
		}
	}
}

func TestLogsRejectsBadLineCount(t *testing.T) {
	root := buildRoot()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs([]string{"logs", "router", "zero"})
	if err := root.Execute(); err == nil {
		t.Fatalf("expected error for non-numeric line count")
	}
	root = buildRoot()
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs([]string{"logs", "router", "-5"})
	if err := root.Execute(); err == nil {
		t.Fatalf("expected error for non-positive line count")
	}
}

func TestStartRejectsExtraArgs(t *testing.T) {
	root := buildRoot()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs([]string{"start", "extra"})
	if err := root.Execute(); err == nil {
		t.Fatalf("start must not accept positional arguments")
	}
}
