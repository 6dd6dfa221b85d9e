package services

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"finman/internal/core"
	"finman/internal/log"
)

const (
	backupPrefix     = "finance_backup_"
	backupExt        = ".sql"
	backupTimeLayout = "20060102_150405"
)

// BackupFile is one dump on disk.
type BackupFile struct {
	Path      string
	Name      string
	CreatedAt time.Time
}

// BackupService writes and replays SQL dumps of the whole database. File
// names carry the username of the session that took the backup.
type BackupService struct {
	store  DumpStore
	dir    string
	logger *log.Logger
	now    func() time.Time
}

func NewBackupService(store DumpStore, dir string, logger *log.Logger) *BackupService {
	return &BackupService{
		store:  store,
		dir:    dir,
		logger: orDiscard(logger).WithComponent(log.ComponentBackup),
		now:    time.Now,
	}
}

// Backup dumps the database to <dir>/finance_backup_<username>_<YYYYMMDD_HHMMSS>.sql.
func (s *BackupService) Backup(ctx context.Context, sess core.Session) (BackupFile, error) {
	if err := requireSession(sess); err != nil {
		return BackupFile{}, err
	}
	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return BackupFile{}, fmt.Errorf("create backup directory: %w", err)
	}

	created := s.now().Truncate(time.Second)
	name := backupName(sess.Username, created)
	path := filepath.Join(s.dir, name)

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0600)
	if err != nil {
		return BackupFile{}, fmt.Errorf("create backup file: %w", err)
	}
	if err := s.store.Dump(ctx, f); err != nil {
		f.Close()
		os.Remove(path)
		return BackupFile{}, fmt.Errorf("dump database: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(path)
		return BackupFile{}, fmt.Errorf("write backup file: %w", err)
	}

	s.logger.InfoContext(ctx, "Backup created", log.FieldOperation, log.OpBackup, log.FieldUserID, sess.UserID, log.FieldPath, path)
	return BackupFile{Path: path, Name: name, CreatedAt: created}, nil
}

// ListBackups returns the session user's backups, newest first.
func (s *BackupService) ListBackups(ctx context.Context, sess core.Session) ([]BackupFile, error) {
	if err := requireSession(sess); err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(s.dir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read backup directory: %w", err)
	}

	prefix := backupPrefix + sanitizeUsername(sess.Username) + "_"
	var files []BackupFile
	for _, e := range entries {
		if e.IsDir() || !strings.HasPrefix(e.Name(), prefix) || !strings.HasSuffix(e.Name(), backupExt) {
			continue
		}
		stamp := strings.TrimSuffix(strings.TrimPrefix(e.Name(), prefix), backupExt)
		created, err := time.ParseInLocation(backupTimeLayout, stamp, time.Local)
		if err != nil {
			// another user's name that shares this prefix
			continue
		}
		files = append(files, BackupFile{Path: filepath.Join(s.dir, e.Name()), Name: e.Name(), CreatedAt: created})
	}
	sort.Slice(files, func(i, j int) bool { return files[i].CreatedAt.After(files[j].CreatedAt) })
	return files, nil
}

// Restore replaces the database with a dump. The caller's session may no
// longer be valid afterwards; see AuthService.Refresh.
func (s *BackupService) Restore(ctx context.Context, sess core.Session, path string) error {
	if err := requireSession(sess); err != nil {
		return err
	}
	if err := s.store.Restore(ctx, path); err != nil {
		s.logger.WarnContext(ctx, "Restore failed", log.FieldOperation, log.OpRestore, log.FieldPath, path, log.FieldError, err)
		return err
	}
	s.logger.InfoContext(ctx, "Database restored", log.FieldOperation, log.OpRestore, log.FieldUserID, sess.UserID, log.FieldPath, path)
	return nil
}

func backupName(username string, t time.Time) string {
	return backupPrefix + sanitizeUsername(username) + "_" + t.Format(backupTimeLayout) + backupExt
}

// sanitizeUsername keeps file names portable: anything but letters, digits,
// '-' and '_' becomes '_'.
func sanitizeUsername(username string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		}
		return '_'
	}, username)
}
