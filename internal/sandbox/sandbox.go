// Package sandbox provides scoped read and write access to files under a single root
// directory. Every write is preceded by a durable backup of the current content.
package sandbox

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/spigell/gig-assistant/internal/apperr"
)

const (
	// DefaultMaxFileSize is the size ceiling used when none is configured.
	DefaultMaxFileSize int64 = 50 << 20

	backupSuffix    = ".bak"
	timestampLayout = "20060102T150405.000000000Z"
)

// BackupRecord describes the copy taken before a write.
type BackupRecord struct {
	OriginalPath string    `json:"original_path"`
	BackupPath   string    `json:"backup_path"`
	CreatedAt    time.Time `json:"created_at"`
}

// Accessor reads and writes files confined to a root directory.
type Accessor struct {
	root    string
	given   string
	maxSize int64
	logger  *zap.Logger
	now     func() time.Time

	mu    sync.Mutex
	locks map[string]*pathLock
}

// pathLock serializes writers of one path. The entry lives while refs > 0.
type pathLock struct {
	sync.Mutex
	refs int
}

// New creates an Accessor rooted at root. The root must exist and be a directory.
func New(root string, maxSize int64, logger *zap.Logger) (*Accessor, error) {
	root = strings.TrimSpace(root)
	if root == "" {
		return nil, errors.New("sandbox root is required")
	}

	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve sandbox root: %w", err)
	}

	resolved, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return nil, fmt.Errorf("resolve sandbox root: %w", err)
	}

	info, err := os.Stat(resolved)
	if err != nil {
		return nil, fmt.Errorf("stat sandbox root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("sandbox root %q is not a directory", root)
	}

	if maxSize <= 0 {
		maxSize = DefaultMaxFileSize
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Accessor{
		root:    resolved,
		given:   abs,
		maxSize: maxSize,
		logger:  logger,
		now:     time.Now,
		locks:   make(map[string]*pathLock),
	}, nil
}

// Root returns the resolved sandbox root.
func (a *Accessor) Root() string {
	return a.root
}

// MaxSize returns the configured size ceiling in bytes.
func (a *Accessor) MaxSize() int64 {
	return a.maxSize
}

// Resolve maps path to an absolute location inside the sandbox. The lexical check
// runs before any filesystem access.
func (a *Accessor) Resolve(path string) (string, error) {
	const op = "resolve"

	if strings.TrimSpace(path) == "" {
		return "", apperr.E(op, apperr.NotFound, path, errors.New("path is empty"))
	}

	candidate := path
	if !filepath.IsAbs(candidate) {
		candidate = filepath.Join(a.root, candidate)
	}
	candidate = filepath.Clean(candidate)

	if !within(a.root, candidate) && !within(a.given, candidate) {
		return "", apperr.E(op, apperr.OutOfSandbox, path, errors.New("path escapes sandbox root"))
	}

	resolved, err := resolveExisting(candidate)
	if err != nil {
		return "", classify(op, path, err)
	}
	if !within(a.root, resolved) {
		return "", apperr.E(op, apperr.OutOfSandbox, path, errors.New("path resolves outside sandbox root"))
	}

	return resolved, nil
}

// Read returns the content of the file at path.
func (a *Accessor) Read(path string) (string, error) {
	const op = "read"

	resolved, err := a.Resolve(path)
	if err != nil {
		return "", apperr.WithOp(err, op)
	}

	info, err := os.Stat(resolved)
	if err != nil {
		return "", classify(op, path, err)
	}
	if info.IsDir() {
		return "", apperr.E(op, apperr.NotFound, path, errors.New("path is a directory"))
	}
	if info.Size() > a.maxSize {
		return "", apperr.Errorf(op, apperr.TooLarge, path, "file is %d bytes, limit is %d", info.Size(), a.maxSize)
	}

	file, err := os.Open(resolved)
	if err != nil {
		return "", classify(op, path, err)
	}
	defer file.Close()

	// The file may grow between stat and read.
	data, err := io.ReadAll(io.LimitReader(file, a.maxSize+1))
	if err != nil {
		return "", classify(op, path, err)
	}
	if int64(len(data)) > a.maxSize {
		return "", apperr.Errorf(op, apperr.TooLarge, path, "file exceeds limit of %d bytes", a.maxSize)
	}

	return string(data), nil
}

// Write replaces the content of an existing file after copying its current content
// to <name>.<timestamp>.bak next to it. Writers to the same path are serialized.
func (a *Accessor) Write(path, text string) (*BackupRecord, error) {
	const op = "write"

	resolved, err := a.Resolve(path)
	if err != nil {
		return nil, apperr.WithOp(err, op)
	}

	if int64(len(text)) > a.maxSize {
		return nil, apperr.Errorf(op, apperr.TooLarge, path, "content is %d bytes, limit is %d", len(text), a.maxSize)
	}

	a.lock(resolved)
	defer a.unlock(resolved)

	info, err := os.Stat(resolved)
	if err != nil {
		return nil, classify(op, path, err)
	}
	if info.IsDir() {
		return nil, apperr.E(op, apperr.NotFound, path, errors.New("path is a directory"))
	}
	if info.Mode().Perm()&0o200 == 0 {
		return nil, apperr.E(op, apperr.PermissionDenied, path, errors.New("file is read-only"))
	}

	record, err := a.backup(resolved, info.Mode().Perm())
	if err != nil {
		a.logger.Warn("backup failed", zap.String("path", path), zap.String("error_kind", string(apperr.BackupFailed)))
		return nil, apperr.E(op, apperr.BackupFailed, path, err)
	}

	if err := replace(resolved, text, info.Mode().Perm()); err != nil {
		return nil, classify(op, path, err)
	}

	a.logger.Debug("file written",
		zap.String("path", path),
		zap.String("backup", record.BackupPath),
		zap.Int("bytes", len(text)),
	)

	return record, nil
}

func (a *Accessor) lock(path string) {
	a.mu.Lock()
	l, ok := a.locks[path]
	if !ok {
		l = &pathLock{}
		a.locks[path] = l
	}
	l.refs++
	a.mu.Unlock()

	l.Lock()
}

func (a *Accessor) unlock(path string) {
	a.mu.Lock()
	defer a.mu.Unlock()

	l := a.locks[path]
	l.Unlock()
	l.refs--
	if l.refs == 0 {
		delete(a.locks, path)
	}
}

func (a *Accessor) backup(path string, perm fs.FileMode) (*BackupRecord, error) {
	created := a.now().UTC()
	base := fmt.Sprintf("%s.%s", path, created.Format(timestampLayout))

	src, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open original: %w", err)
	}
	defer src.Close()

	dst, backupPath, err := createExclusive(base, perm)
	if err != nil {
		return nil, fmt.Errorf("create backup: %w", err)
	}

	if err := copyAndSync(dst, src); err != nil {
		// A partial copy is not a backup.
		_ = os.Remove(backupPath)
		return nil, err
	}

	return &BackupRecord{
		OriginalPath: path,
		BackupPath:   backupPath,
		CreatedAt:    created,
	}, nil
}

func copyAndSync(dst *os.File, src io.Reader) error {
	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		return fmt.Errorf("copy to backup: %w", err)
	}
	if err := dst.Sync(); err != nil {
		dst.Close()
		return fmt.Errorf("flush backup: %w", err)
	}
	if err := dst.Close(); err != nil {
		return fmt.Errorf("close backup: %w", err)
	}
	return nil
}

// createExclusive never overwrites an earlier backup taken within the same instant.
func createExclusive(base string, perm fs.FileMode) (*os.File, string, error) {
	for attempt := 0; attempt < 100; attempt++ {
		name := base + backupSuffix
		if attempt > 0 {
			name = fmt.Sprintf("%s-%d%s", base, attempt, backupSuffix)
		}

		file, err := os.OpenFile(name, os.O_WRONLY|os.O_CREATE|os.O_EXCL, perm)
		if err == nil {
			return file, name, nil
		}
		if !errors.Is(err, fs.ErrExist) {
			return nil, "", err
		}
	}

	return nil, "", fmt.Errorf("no free backup name for %s", base)
}

func replace(path, text string, perm fs.FileMode) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	if _, err := io.WriteString(tmp, text); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Chmod(tmpName, perm); err != nil {
		os.Remove(tmpName)
		return err
	}

	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return err
	}

	return nil
}

func within(root, path string) bool {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return false
	}
	if rel == "." {
		return true
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)) && !filepath.IsAbs(rel)
}

// resolveExisting evaluates symlinks of the longest existing prefix of path.
func resolveExisting(path string) (string, error) {
	resolved, err := filepath.EvalSymlinks(path)
	if err == nil {
		return resolved, nil
	}
	if !errors.Is(err, fs.ErrNotExist) {
		return "", err
	}

	parent := filepath.Dir(path)
	if parent == path {
		return path, nil
	}

	resolvedParent, err := resolveExisting(parent)
	if err != nil {
		return "", err
	}
	return filepath.Join(resolvedParent, filepath.Base(path)), nil
}

func classify(op, subject string, err error) error {
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return apperr.E(op, apperr.NotFound, subject, err)
	case errors.Is(err, fs.ErrPermission), errors.Is(err, syscall.EACCES), errors.Is(err, syscall.EPERM):
		return apperr.E(op, apperr.PermissionDenied, subject, err)
	case errors.Is(err, syscall.ENOSPC):
		return apperr.E(op, apperr.DiskFull, subject, err)
	default:
		return apperr.E(op, apperr.Internal, subject, err)
	}
}
