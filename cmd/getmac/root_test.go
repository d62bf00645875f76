package main

import (
	"bytes"
	"context"
	"log/slog"
	"net"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"getmac/internal/capture"
	macerrors "getmac/internal/errors"
	"getmac/internal/models"
	"getmac/internal/resolver"
)

// stubResolve replaces the resolver for the duration of a test and records
// the options it was called with.
func stubResolve(t *testing.T, res models.ResolveResult) *resolver.Options {
	t.Helper()
	origResolve, origCheck := resolve, privilegeCheck
	t.Cleanup(func() { resolve, privilegeCheck = origResolve, origCheck })

	privilegeCheck = func(*slog.Logger) bool { return true }
	got := &resolver.Options{}
	resolve = func(_ context.Context, opts resolver.Options, _ *slog.Logger, target string) models.ResolveResult {
		*got = opts
		res.Target = target
		return res
	}
	return got
}

func execute(args ...string) (string, string, error) {
	var stdout, stderr bytes.Buffer
	cmd := newRootCmd(&stdout, &stderr)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func TestRootPrintsHardwareAddr(t *testing.T) {
	mac := net.HardwareAddr{0x02, 0x42, 0xac, 0x11, 0x00, 0x02}
	stubResolve(t, models.ResolveResult{Status: models.StatusResolved, HardwareAddr: mac})

	stdout, _, err := execute("10.0.0.7")
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if stdout != "02:42:ac:11:00:02\n" {
		t.Errorf("stdout = %q", stdout)
	}
}

func TestRootFailureKeepsStdoutEmpty(t *testing.T) {
	stubResolve(t, models.ResolveResult{
		Status: models.StatusTimeout,
		Error:  macerrors.Timeout("10.0.0.7", 3, os.ErrDeadlineExceeded),
	})

	stdout, _, err := execute("--log-level", "ERROR", "10.0.0.7")
	if !macerrors.Is(err, macerrors.KindTimeout) {
		t.Fatalf("Execute() error = %v, want timeout", err)
	}
	if stdout != "" {
		t.Errorf("stdout = %q, want empty", stdout)
	}
}

func TestRootRequiresOneArgument(t *testing.T) {
	stubResolve(t, models.ResolveResult{})
	if _, _, err := execute(); err == nil {
		t.Error("expected error without target")
	}
	if _, _, err := execute("10.0.0.1", "10.0.0.2"); err == nil {
		t.Error("expected error with two targets")
	}
}

func TestRootFlagsOverrideConfigFile(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "getmac.yaml")
	yaml := "interface: eth1\nreceive_timeout: 5s\nmax_frames: 50\nbackend: pcap\n"
	if err := os.WriteFile(cfgPath, []byte(yaml), 0o644); err != nil {
		t.Fatal(err)
	}
	got := stubResolve(t, models.ResolveResult{Status: models.StatusResolved, HardwareAddr: net.HardwareAddr{1, 2, 3, 4, 5, 6}})

	_, _, err := execute("--config", cfgPath, "--timeout", "750ms", "--kernel-filter", "10.0.0.7")
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}

	want := resolver.Options{
		Interface:         "eth1",
		FallbackInterface: "eth0",
		ReceiveTimeout:    750 * time.Millisecond,
		SendTimeout:       2 * time.Second,
		MaxFrames:         50,
		Backend:           capture.BackendPcap,
		KernelFilter:      true,
	}
	if *got != want {
		t.Errorf("options = %+v, want %+v", *got, want)
	}
}

func TestRootRejectsInvalidConfig(t *testing.T) {
	stubResolve(t, models.ResolveResult{})
	tests := []struct {
		name string
		args []string
		want string
	}{
		{name: "backend", args: []string{"--backend", "afxdp", "10.0.0.7"}, want: "backend"},
		{name: "max frames", args: []string{"--max-frames", "0", "10.0.0.7"}, want: "max frames"},
		{name: "timeout", args: []string{"--timeout", "0s", "10.0.0.7"}, want: "receive timeout"},
		{name: "missing config", args: []string{"--config", "/nonexistent/getmac.yaml", "10.0.0.7"}, want: "config"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := execute(tt.args...)
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("Execute() error = %v, want mention of %q", err, tt.want)
			}
		})
	}
}

func TestRootWritesCSVOutput(t *testing.T) {
	out := filepath.Join(t.TempDir(), "results.csv")
	stubResolve(t, models.ResolveResult{
		Timestamp:    time.Now(),
		Status:       models.StatusResolved,
		Interface:    "eth0",
		HardwareAddr: net.HardwareAddr{0x02, 0x42, 0xac, 0x11, 0x00, 0x02},
	})

	if _, _, err := execute("--output", out, "10.0.0.7"); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 2 {
		t.Fatalf("CSV lines = %d, want 2: %q", len(lines), data)
	}
	if !strings.Contains(lines[1], "10.0.0.7") || !strings.Contains(lines[1], "02:42:ac:11:00:02") {
		t.Errorf("CSV row = %q", lines[1])
	}
}
