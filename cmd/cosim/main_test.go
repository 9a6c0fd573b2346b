package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCommand()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestList(t *testing.T) {
	out, err := execute(t, "list")
	if err != nil {
		t.Fatal(err)
	}
	for _, n := range []string{"simple", "counter", "join_tasks", "nested"} {
		if !strings.Contains(out, n) {
			t.Errorf("example %s not listed:\n%s", n, out)
		}
	}
}

func TestPorts(t *testing.T) {
	out, err := execute(t, "ports", "counter")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(out, "entity counter\n") {
		t.Errorf("unexpected output:\n%s", out)
	}
	for _, n := range []string{"clk", "reset", "cnt"} {
		if !strings.Contains(out, "  "+n) {
			t.Errorf("port %s not listed:\n%s", n, out)
		}
	}
	if _, err = execute(t, "ports", "nope"); err == nil {
		t.Error("expected error for unknown example")
	}
}

func TestRun(t *testing.T) {
	cfg := filepath.Join(t.TempDir(), "cosim.yaml")
	if err := os.WriteFile(cfg, []byte("logging:\n  level: disabled\nmetrics:\n  namespace: cosimtest\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	out, err := execute(t, "-c", cfg, "run", "--metrics", "simple", "join_tasks")
	if err != nil {
		t.Fatalf("%v\n%s", err, out)
	}
	for _, l := range []string{"ok   simple/", "ok   join_tasks/join", "cosimtest_tests_total"} {
		if !strings.Contains(out, l) {
			t.Errorf("%q missing from output:\n%s", l, out)
		}
	}
	if _, err = execute(t, "-c", cfg, "run", "nope"); err == nil {
		t.Error("expected error for unknown example")
	}
}
