package services

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/yungbote/activity-tracker-backend/internal/platform/logger"
)

// Backups below this size are almost certainly a truncated or empty database
// and are refused rather than silently kept.
const minBackupBytes = 1024

type BackupService interface {
	Run(ctx context.Context) (string, error)
	List() ([]string, error)
}

type backupService struct {
	log       *logger.Logger
	dbPath    string
	backupDir string
	keep      int
	now       func() time.Time
}

func NewBackupService(baseLog *logger.Logger, dbPath, backupDir string, keep int) BackupService {
	serviceLog := baseLog.With("service", "BackupService")
	return &backupService{
		log:       serviceLog,
		dbPath:    dbPath,
		backupDir: backupDir,
		keep:      keep,
		now:       time.Now,
	}
}

// Run copies the database file into the backup directory under a timestamped
// name and prunes old copies beyond the retention count.
func (bs *backupService) Run(ctx context.Context) (string, error) {
	if bs.dbPath == ":memory:" {
		return "", fmt.Errorf("cannot back up an in-memory database")
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	info, err := os.Stat(bs.dbPath)
	if err != nil {
		return "", fmt.Errorf("stat database: %w", err)
	}
	if info.Size() < minBackupBytes {
		return "", fmt.Errorf("database file is %d bytes, refusing to back up", info.Size())
	}

	if err := os.MkdirAll(bs.backupDir, 0o755); err != nil {
		return "", fmt.Errorf("create backup dir: %w", err)
	}

	stamp := bs.now().UTC().Format("20060102T150405")
	base := strings.TrimSuffix(filepath.Base(bs.dbPath), filepath.Ext(bs.dbPath))
	dest := filepath.Join(bs.backupDir, fmt.Sprintf("%s-%s.db", base, stamp))

	if err := copyFile(bs.dbPath, dest); err != nil {
		return "", fmt.Errorf("copy database: %w", err)
	}

	if err := bs.prune(); err != nil {
		bs.log.Warn("Backup pruning failed", "error", err)
	}

	bs.log.Info("Backup written", "path", dest, "bytes", info.Size())
	return dest, nil
}

func (bs *backupService) List() ([]string, error) {
	entries, err := os.ReadDir(bs.backupDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var names []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".db") {
			names = append(names, e.Name())
		}
	}
	// Timestamped names sort chronologically.
	sort.Sort(sort.Reverse(sort.StringSlice(names)))
	return names, nil
}

func (bs *backupService) prune() error {
	names, err := bs.List()
	if err != nil {
		return err
	}
	for _, name := range names[minInt(len(names), bs.keep):] {
		if err := os.Remove(filepath.Join(bs.backupDir, name)); err != nil {
			return err
		}
		bs.log.Debug("Pruned old backup", "name", name)
	}
	return nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
