// Package testutil holds the assertion helpers shared by smspool tests.
// They are thin wrappers over testify with the argument order and
// fail-fast behavior the test suites expect.
package testutil

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// DiscardLogger returns a *slog.Logger that discards all output.
func DiscardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// LogRecorder collects JSON log lines written through its Logger.
type LogRecorder struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (r *LogRecorder) Write(p []byte) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.buf.Write(p)
}

// String returns everything logged so far.
func (r *LogRecorder) String() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.buf.String()
}

// Entries decodes each logged line into a map.
func (r *LogRecorder) Entries(t testing.TB) []map[string]any {
	t.Helper()
	var out []map[string]any
	for _, line := range bytes.Split(bytes.TrimSpace([]byte(r.String())), []byte("\n")) {
		if len(line) == 0 {
			continue
		}
		var entry map[string]any
		require.NoError(t, json.Unmarshal(line, &entry), "log line %q", line)
		out = append(out, entry)
	}
	return out
}

// RecordingLogger returns a debug-level JSON logger and the recorder it writes to.
func RecordingLogger() (*slog.Logger, *LogRecorder) {
	rec := &LogRecorder{}
	return slog.New(slog.NewJSONHandler(rec, &slog.HandlerOptions{Level: slog.LevelDebug})), rec
}

// Equal fails the test if want != got.
func Equal[T comparable](t testing.TB, want, got T) {
	t.Helper()
	assert.Equal(t, want, got)
}

// NotEqual fails the test if want == got.
func NotEqual[T comparable](t testing.TB, want, got T) {
	t.Helper()
	assert.NotEqual(t, want, got)
}

// NoError fails the test immediately if err is not nil.
func NoError(t testing.TB, err error) {
	t.Helper()
	require.NoError(t, err)
}

// ErrorContains fails the test if err is nil or doesn't contain substr.
// A nil error stops the test.
func ErrorContains(t testing.TB, err error, substr string) {
	t.Helper()
	require.Error(t, err)
	assert.ErrorContains(t, err, substr)
}

// True fails the test if condition is false.
func True(t testing.TB, condition bool, msgAndArgs ...any) {
	t.Helper()
	assert.True(t, condition, msgAndArgs...)
}

// False fails the test if condition is true.
func False(t testing.TB, condition bool, msgAndArgs ...any) {
	t.Helper()
	assert.False(t, condition, msgAndArgs...)
}

// NotNil fails the test immediately if val is nil, including typed nil pointers.
func NotNil(t testing.TB, val any) {
	t.Helper()
	require.NotNil(t, val)
}

// SliceLen fails the test if the slice doesn't have the expected length.
func SliceLen[T any](t testing.TB, slice []T, wantLen int) {
	t.Helper()
	assert.Len(t, slice, wantLen)
}

// MapLen fails the test if the map doesn't have the expected length.
func MapLen[K comparable, V any](t testing.TB, m map[K]V, wantLen int) {
	t.Helper()
	assert.Len(t, m, wantLen)
}

// StatusCode fails the test immediately if the HTTP status code doesn't match.
// A wrong status means the body has a different shape, so later assertions
// would only add noise.
func StatusCode(t testing.TB, want, got int) {
	t.Helper()
	require.Equal(t, want, got, "HTTP status")
}

// Contains fails the test if s does not contain substr.
func Contains(t testing.TB, s, substr string) {
	t.Helper()
	assert.Contains(t, s, substr)
}
