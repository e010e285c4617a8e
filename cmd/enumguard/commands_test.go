package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func runCLI(t *testing.T, args []string, configPath string) (string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	flags := []string{"--log-level", "error"}
	if configPath != "" {
		flags = append(flags, "--config", configPath)
	}
	cmd.SetArgs(append(flags, args...))
	err := cmd.Execute()
	return stdout.String(), err
}

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected %q to contain %q", output, substr)
	}
}

func sampleConfig(t *testing.T) string {
	t.Helper()
	target := filepath.Join(t.TempDir(), "config.json")
	out, err := runCLI(t, []string{"config", "init", "--path", target}, "")
	if err != nil {
		t.Fatalf("config init: %v", err)
	}
	requireContains(t, out, "Wrote sample configuration")
	return target
}

func TestConfigInitAndValidate(t *testing.T) {
	target := sampleConfig(t)

	if _, err := runCLI(t, []string{"config", "init", "--path", target}, ""); err == nil {
		t.Fatal("expected init to refuse overwriting")
	}
	out, err := runCLI(t, []string{"config", "validate"}, target)
	if err != nil {
		t.Fatalf("config validate: %v", err)
	}
	requireContains(t, out, "Configuration valid")
	requireContains(t, out, filepath.Join(filepath.Dir(target), "lock_list.json"))
}

func TestConfigValidateChecksReferencedFiles(t *testing.T) {
	target := sampleConfig(t)
	lockList := filepath.Join(filepath.Dir(target), "lock_list.json")
	if err := os.WriteFile(lockList, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	out, err := runCLI(t, []string{"config", "validate"}, target)
	if err == nil {
		t.Fatalf("expected validate to fail on a malformed lock list:\n%s", out)
	}
	requireContains(t, out, "FAIL")
	requireContains(t, out, "Failure journal")

	if _, err := runCLI(t, []string{"config", "init", "--path", filepath.Join(t.TempDir(), "config.toml")}, ""); err == nil {
		t.Fatal("expected init to refuse a non-JSON target")
	}
}

func TestLockAddAndList(t *testing.T) {
	target := sampleConfig(t)

	out, err := runCLI(t, []string{"lock", "add", "VID_05a6&PID_0a00"}, target)
	if err != nil {
		t.Fatalf("lock add: %v", err)
	}
	requireContains(t, out, "Locked 05A60A00")

	out, err = runCLI(t, []string{"lock", "add", "05a6:0a00"}, target)
	if err != nil {
		t.Fatalf("second lock add: %v", err)
	}
	requireContains(t, out, "already locked")

	out, err = runCLI(t, []string{"lock", "list"}, target)
	if err != nil {
		t.Fatalf("lock list: %v", err)
	}
	requireContains(t, out, "05A60A00")

	data, err := os.ReadFile(filepath.Join(filepath.Dir(target), "lock_list.json"))
	if err != nil {
		t.Fatalf("read lock list: %v", err)
	}
	requireContains(t, string(data), `"locked"`)
}

func TestCatalogAddListRemove(t *testing.T) {
	target := sampleConfig(t)

	out, err := runCLI(t, []string{"catalog", "add", "VID_1234&PID_ABCD", "--threshold", "75"}, target)
	if err != nil {
		t.Fatalf("catalog add: %v", err)
	}
	requireContains(t, out, "Monitoring 1234ABCD with threshold 75")

	out, err = runCLI(t, []string{"catalog", "list"}, target)
	if err != nil {
		t.Fatalf("catalog list: %v", err)
	}
	requireContains(t, out, "1234ABCD")
	requireContains(t, out, "05A60A00")
	requireContains(t, out, "Global threshold: 100")
	requireContains(t, out, "Enrollment threshold: 50")

	if _, err := runCLI(t, []string{"catalog", "remove", "1234abcd"}, target); err != nil {
		t.Fatalf("catalog remove: %v", err)
	}
	if _, err := runCLI(t, []string{"catalog", "remove", "1234abcd"}, target); err == nil {
		t.Fatal("expected error removing an unmonitored identifier")
	}
	data, _ := os.ReadFile(target)
	if strings.Contains(string(data), "1234ABCD") {
		t.Fatalf("identifier still persisted: %s", data)
	}
}

func TestCatalogEditRefusedOnDegradedConfig(t *testing.T) {
	target := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(target, []byte(`{"threshold": [}`), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := runCLI(t, []string{"catalog", "add", "AAAA1111"}, target); err == nil {
		t.Fatal("expected degraded config to refuse catalog edits")
	}
	data, _ := os.ReadFile(target)
	if string(data) != `{"threshold": [}` {
		t.Fatalf("degraded document was rewritten: %s", data)
	}
}

func TestGateReportsChecks(t *testing.T) {
	target := sampleConfig(t)
	out, err := runCLI(t, []string{"gate"}, target)
	if err != nil {
		t.Fatalf("gate: %v", err)
	}
	requireContains(t, out, "Weekday check:")
	requireContains(t, out, "Scheduled:     12:30")
}

func TestJournalEmpty(t *testing.T) {
	target := sampleConfig(t)
	out, err := runCLI(t, []string{"journal", "--date", "2026-03-02"}, target)
	if err != nil {
		t.Fatalf("journal: %v", err)
	}
	requireContains(t, out, "No failures recorded for 2026-03-02")
}
