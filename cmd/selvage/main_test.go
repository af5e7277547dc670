package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chazu/selvage/pkg/config"
	"github.com/chazu/selvage/pkg/ident"
	"github.com/chazu/selvage/pkg/perr"
	"github.com/chazu/selvage/pkg/snapshot"
)

// copyFixture places a writable copy of the rectangle pattern in a temp dir.
func copyFixture(t *testing.T, edit func(string) string) string {
	t.Helper()
	data, err := os.ReadFile("testdata/rectangle.xml")
	require.NoError(t, err)
	src := string(data)
	if edit != nil {
		src = edit(src)
	}
	path := filepath.Join(t.TempDir(), "rectangle.xml")
	require.NoError(t, os.WriteFile(path, []byte(src), 0o644))
	return path
}

// run resets the flag variables and executes the root command.
func run(t *testing.T, args ...string) (int, string, string) {
	t.Helper()
	configPath, metricsAddr, logLevel = "", "", ""
	jsonOutput, writeBack, noGC = false, false, false
	gcPolicy = "always"

	var stdout, stderr bytes.Buffer
	code := execute(context.Background(), args, &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func TestParseCommandPrintsSummary(t *testing.T) {
	path := copyFixture(t, nil)
	code, out, errOut := run(t, "parse", "--json", path)
	require.Equal(t, 0, code, errOut)

	var s parseSummary
	require.NoError(t, json.Unmarshal([]byte(out), &s))
	assert.Equal(t, []string{"Front"}, s.Blocks)
	assert.Equal(t, []ident.ID{14}, s.Collected)
	assert.True(t, s.Modified)
	require.Len(t, s.Pieces, 1)
	assert.Equal(t, "front", s.Pieces[0].Name)
	assert.InDelta(t, 5000, s.Pieces[0].Area, 1e-6)

	// Collection backs up the document first.
	_, err := os.Stat(filepath.Join(filepath.Dir(path), snapshot.BackupName(path)))
	assert.NoError(t, err)

	// parse never writes the document.
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `id="14"`)
}

func TestParseCommandTextOutput(t *testing.T) {
	path := copyFixture(t, nil)
	code, out, errOut := run(t, "parse", "--no-gc", path)
	require.Equal(t, 0, code, errOut)
	assert.Contains(t, out, "blocks")
	assert.Contains(t, out, "collected  []")
	assert.Contains(t, out, "piece 20")
}

func TestParseCommandExitsWithNoInput(t *testing.T) {
	path := copyFixture(t, func(s string) string {
		return strings.Replace(s, `<line id="5"`, `<circle id="7"/><line id="5"`, 1)
	})
	code, _, errOut := run(t, "parse", path)
	assert.Equal(t, perr.ExitNoInput, code)
	assert.Contains(t, errOut, "Error parsing file")
}

func TestParseCommandMissingFile(t *testing.T) {
	code, _, errOut := run(t, "parse", filepath.Join(t.TempDir(), "missing.xml"))
	assert.Equal(t, 1, code)
	assert.Contains(t, errOut, "open document")
}

func TestGCCommandWritesDocument(t *testing.T) {
	path := copyFixture(t, nil)
	code, out, errOut := run(t, "gc", "--write", path)
	require.Equal(t, 0, code, errOut)
	assert.Contains(t, out, "collected 1: [14]")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(data), `id="14"`)
	assert.Contains(t, string(data), `id="13"`)
}

func TestGCCommandRejectsUnknownPolicy(t *testing.T) {
	path := copyFixture(t, nil)
	code, _, errOut := run(t, "gc", "--policy", "sometimes", path)
	assert.Equal(t, 1, code)
	assert.Contains(t, errOut, "invalid config")
}

func TestFormulasCommand(t *testing.T) {
	path := copyFixture(t, nil)
	code, out, errOut := run(t, "formulas", "--json", path)
	require.Equal(t, 0, code, errOut)

	var values []formulaValue
	require.NoError(t, json.Unmarshal([]byte(out), &values))
	byFormula := map[string]formulaValue{}
	for _, v := range values {
		byFormula[v.Formula] = v
	}
	half, ok := byFormula["Line_A_B / 2"]
	require.True(t, ok, "formulas: %+v", values)
	assert.True(t, half.OK)
	assert.InDelta(t, 50, half.Value, 1e-9)

	seam, ok := byFormula["1.5"]
	require.True(t, ok)
	assert.Equal(t, "#seam", seam.Name)
}

func TestUnknownCommandFails(t *testing.T) {
	code, _, errOut := run(t, "sew")
	assert.Equal(t, 1, code)
	assert.Contains(t, errOut, "unknown command")
}

func TestNewLoggerFormat(t *testing.T) {
	var buf bytes.Buffer
	newLogger(&buf, config.Log{Level: "info", Format: "auto"}).Info("hello", "id", "1")
	assert.True(t, strings.HasPrefix(buf.String(), "{"), buf.String())

	buf.Reset()
	newLogger(&buf, config.Log{Level: "info", Format: "text"}).Info("hello")
	assert.Contains(t, buf.String(), "msg=hello")

	buf.Reset()
	newLogger(&buf, config.Log{Level: "warn", Format: "text"}).Info("quiet")
	assert.Empty(t, buf.String())
}

func TestWatcherCoalescesChanges(t *testing.T) {
	w := newWatcher(nil, config.Default(), "/tmp/p.xml", 50*time.Millisecond)
	var reloads atomic.Int32
	w.reload = func(context.Context) error {
		reloads.Add(1)
		return nil
	}

	// A burst before the loop starts collapses into one reload.
	for i := 0; i < 10; i++ {
		w.markStale()
	}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.reloadLoop(ctx) }()

	require.Eventually(t, func() bool { return reloads.Load() == 1 }, 2*time.Second, 5*time.Millisecond)
	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, int32(1), reloads.Load())

	w.markStale()
	require.Eventually(t, func() bool { return reloads.Load() == 2 }, 2*time.Second, 5*time.Millisecond)

	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)
}

func TestWatcherRelevantEvents(t *testing.T) {
	w := newWatcher(nil, config.Default(), "/tmp/p.xml", time.Second)
	assert.True(t, w.relevant(fsnotify.Event{Name: "/tmp/p.xml", Op: fsnotify.Write}))
	assert.True(t, w.relevant(fsnotify.Event{Name: "/tmp/p.xml", Op: fsnotify.Create}))
	assert.False(t, w.relevant(fsnotify.Event{Name: "/tmp/p.xml", Op: fsnotify.Chmod}))
	assert.False(t, w.relevant(fsnotify.Event{Name: "/tmp/other.xml", Op: fsnotify.Write}))
}
