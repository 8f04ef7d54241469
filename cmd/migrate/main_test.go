package main

import (
	"os"
	"path/filepath"
	"testing"
)

func TestResolveDSN_Precedence(t *testing.T) {
	dir := t.TempDir()

	got, err := resolveDSN("postgres://flag", "postgres://env", dir)
	if err != nil || got != "postgres://flag" {
		t.Errorf("flag should win, got %q (%v)", got, err)
	}
	got, err = resolveDSN("", "postgres://env", dir)
	if err != nil || got != "postgres://env" {
		t.Errorf("env should win over config, got %q (%v)", got, err)
	}
}

func TestResolveDSN_FromConfig(t *testing.T) {
	dir := t.TempDir()
	yaml := "database:\n  host: db.internal\n  port: 6543\n  name: relay\n  user: ${MIGRATE_TEST_DB_USER:svc}\n  password: pw\n"
	if err := os.WriteFile(filepath.Join(dir, "relay.yaml"), []byte(yaml), 0o644); err != nil {
		t.Fatal(err)
	}

	got, err := resolveDSN("", "", dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if want := "postgres://svc:pw@db.internal:6543/relay?sslmode=disable"; got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestResolveDSN_DefaultsWithoutConfigFile(t *testing.T) {
	got, err := resolveDSN("", "", t.TempDir())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if want := "postgres://debugrelay:@localhost:5432/debugrelay?sslmode=disable"; got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}
