package services

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeTestDBFile(t *testing.T, dir string, size int) string {
	t.Helper()
	path := filepath.Join(dir, "tracker.db")
	if err := os.WriteFile(path, bytes.Repeat([]byte{0xAB}, size), 0o644); err != nil {
		t.Fatalf("write db file: %v", err)
	}
	return path
}

func TestBackupRefusesTinyDatabase(t *testing.T) {
	dir := t.TempDir()
	dbPath := writeTestDBFile(t, dir, 100)
	svc := NewBackupService(testLogger(t), dbPath, filepath.Join(dir, "backups"), 7)

	if _, err := svc.Run(context.Background()); err == nil {
		t.Fatal("expected undersized database to be refused")
	}
}

func TestBackupRefusesInMemoryDatabase(t *testing.T) {
	svc := NewBackupService(testLogger(t), ":memory:", t.TempDir(), 7)
	if _, err := svc.Run(context.Background()); err == nil {
		t.Fatal("expected in-memory database to be refused")
	}
}

func TestBackupWritesTimestampedCopy(t *testing.T) {
	dir := t.TempDir()
	dbPath := writeTestDBFile(t, dir, 4096)
	backupDir := filepath.Join(dir, "backups")
	svc := NewBackupService(testLogger(t), dbPath, backupDir, 7)

	dest, err := svc.Run(context.Background())
	if err != nil {
		t.Fatalf("run backup: %v", err)
	}

	info, err := os.Stat(dest)
	if err != nil {
		t.Fatalf("stat backup: %v", err)
	}
	if info.Size() != 4096 {
		t.Fatalf("expected 4096 byte copy, got %d", info.Size())
	}
}

func TestBackupPruneKeepsNewestSeven(t *testing.T) {
	dir := t.TempDir()
	dbPath := writeTestDBFile(t, dir, 4096)
	backupDir := filepath.Join(dir, "backups")

	bs := &backupService{
		log:       testLogger(t).With("service", "BackupService"),
		dbPath:    dbPath,
		backupDir: backupDir,
		keep:      7,
		now:       time.Now,
	}

	base := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 10; i++ {
		stamp := base.AddDate(0, 0, i)
		bs.now = func() time.Time { return stamp }
		if _, err := bs.Run(context.Background()); err != nil {
			t.Fatalf("run backup %d: %v", i, err)
		}
	}

	names, err := bs.List()
	if err != nil {
		t.Fatalf("list backups: %v", err)
	}
	if len(names) != 7 {
		t.Fatalf("expected 7 retained backups, got %d", len(names))
	}
	// Newest first; the oldest three stamps must be gone.
	if names[0] != "tracker-20260810T000000.db" {
		t.Fatalf("unexpected newest backup %q", names[0])
	}
	if names[len(names)-1] != "tracker-20260804T000000.db" {
		t.Fatalf("unexpected oldest retained backup %q", names[len(names)-1])
	}
}
