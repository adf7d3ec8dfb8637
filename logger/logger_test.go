package logger

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogger_FiltersBelowMinLevel(t *testing.T) {
	color.NoColor = true
	var buf bytes.Buffer
	l, err := New(Options{Output: &buf, MinLevel: WARN})
	require.NoError(t, err)

	l.Info("API", "hidden")
	l.Warn("tracking", "geo lookup failed")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "WARN")
	assert.Contains(t, out, "[TRACKING  ]")
	assert.Contains(t, out, "geo lookup failed")
}

func TestLogger_FileSink(t *testing.T) {
	dir := t.TempDir()
	var buf bytes.Buffer
	l, err := New(Options{Dir: dir, Prefix: "test", Output: &buf})
	require.NoError(t, err)

	l.LogDatabase("INSERT", "qr_code_bookings", "booking stored")
	l.Close()

	name := filepath.Join(dir, fmt.Sprintf("test-%s.log", time.Now().Format("2006-01-02")))
	f, err := os.Open(name)
	require.NoError(t, err)
	defer f.Close()

	var entries []LogEntry
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		var e LogEntry
		require.NoError(t, json.Unmarshal(sc.Bytes(), &e))
		entries = append(entries, e)
	}
	require.NotEmpty(t, entries)

	var found bool
	for _, e := range entries {
		if e.Category == "DATABASE" {
			found = true
			assert.Equal(t, "INFO", e.Level)
			assert.Equal(t, "[INSERT] qr_code_bookings - booking stored", e.Message)
		}
	}
	assert.True(t, found)
}

func TestWriter_TrimsNewlines(t *testing.T) {
	color.NoColor = true
	var buf bytes.Buffer
	l, err := New(Options{Output: &buf})
	require.NoError(t, err)

	n, err := fmt.Fprintln(l.Writer("gin"), "route registered")
	require.NoError(t, err)
	assert.Equal(t, len("route registered\n"), n)
	assert.Contains(t, buf.String(), "[GIN       ] route registered")
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, DEBUG, ParseLevel("debug"))
	assert.Equal(t, WARN, ParseLevel(" Warning "))
	assert.Equal(t, ERROR, ParseLevel("error"))
	assert.Equal(t, INFO, ParseLevel("verbose"))
}

func TestDiscard(t *testing.T) {
	var l *Logger
	assert.NotPanics(t, func() { l.Info("X", "nil logger") })
	assert.NotPanics(t, func() { Discard().Error("X", "dropped") })
}
