// Package snapshot backs up a document before destructive edits such as
// garbage collection.
package snapshot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"

	"github.com/chazu/selvage/pkg/doc"
)

// Snapshotter stores a copy of a document and returns where it went.
type Snapshotter interface {
	Backup(ctx context.Context, d *doc.Document) (string, error)
}

// ErrNoPath is returned when a document has never been saved and there is
// nothing to name the backup after.
var ErrNoPath = errors.New("document has no path")

// Nop skips backups.
type Nop struct{}

func (Nop) Backup(context.Context, *doc.Document) (string, error) { return "", nil }

// BackupName returns the sidecar file name for a document path.
func BackupName(docPath string) string {
	return "." + filepath.Base(docPath) + ".gb.bak"
}

// File writes a hidden sidecar next to the document, or into Dir when set.
type File struct {
	Dir string
}

func (f File) Backup(ctx context.Context, d *doc.Document) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if d.Path() == "" {
		return "", ErrNoPath
	}
	dir := f.Dir
	if dir == "" {
		dir = filepath.Dir(d.Path())
	}
	data, err := d.Bytes()
	if err != nil {
		return "", fmt.Errorf("serialize document: %w", err)
	}

	target := filepath.Join(dir, BackupName(d.Path()))
	tmp, err := os.CreateTemp(dir, ".selvage-*.tmp")
	if err != nil {
		return "", fmt.Errorf("create backup: %w", err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return "", fmt.Errorf("write backup: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("close backup: %w", err)
	}
	if err := os.Rename(tmp.Name(), target); err != nil {
		return "", fmt.Errorf("rename backup: %w", err)
	}
	return target, nil
}

// Badger keeps every backup in a badger store under gc/<name>/<uuid>.
type Badger struct {
	db *badger.DB
}

// OpenBadger opens a store in dir. An empty dir opens an in-memory store.
func OpenBadger(dir string, logger *slog.Logger) (*Badger, error) {
	var opts badger.Options
	if dir == "" {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, fmt.Errorf("create snapshot directory %s: %w", dir, err)
		}
		opts = badger.DefaultOptions(dir).WithSyncWrites(true)
	}
	if logger != nil {
		opts = opts.WithLogger(&badgerLogger{logger: logger})
	} else {
		opts = opts.WithLogger(nil)
	}
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open snapshot store: %w", err)
	}
	return &Badger{db: db}, nil
}

func keyPrefix(d *doc.Document) string {
	name := "untitled"
	if d.Path() != "" {
		name = filepath.Base(d.Path())
	}
	return "gc/" + name + "/"
}

func (b *Badger) Backup(ctx context.Context, d *doc.Document) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	data, err := d.Bytes()
	if err != nil {
		return "", fmt.Errorf("serialize document: %w", err)
	}
	key := keyPrefix(d) + uuid.NewString()
	err = b.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), data)
	})
	if err != nil {
		return "", fmt.Errorf("store backup: %w", err)
	}
	return key, nil
}

// Keys returns the backup keys stored for d.
func (b *Badger) Keys(d *doc.Document) ([]string, error) {
	prefix := []byte(keyPrefix(d))
	var keys []string
	err := b.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			keys = append(keys, string(it.Item().KeyCopy(nil)))
		}
		return nil
	})
	return keys, err
}

// Load returns the document bytes stored under key.
func (b *Badger) Load(key string) ([]byte, error) {
	var data []byte
	err := b.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			return err
		}
		data, err = item.ValueCopy(nil)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("load backup %s: %w", key, err)
	}
	return data, nil
}

// Close closes the store.
func (b *Badger) Close() error { return b.db.Close() }

// badgerLogger adapts slog to badger's logger.
type badgerLogger struct {
	logger *slog.Logger
}

func (l *badgerLogger) Errorf(format string, args ...interface{}) {
	l.logger.Error(strings.TrimSpace(fmt.Sprintf(format, args...)))
}

func (l *badgerLogger) Warningf(format string, args ...interface{}) {
	l.logger.Warn(strings.TrimSpace(fmt.Sprintf(format, args...)))
}

func (l *badgerLogger) Infof(format string, args ...interface{}) {
	l.logger.Info(strings.TrimSpace(fmt.Sprintf(format, args...)))
}

func (l *badgerLogger) Debugf(format string, args ...interface{}) {
	l.logger.Debug(strings.TrimSpace(fmt.Sprintf(format, args...)))
}
