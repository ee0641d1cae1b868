// Package testutil provides helpers shared by csvconf tests.
package testutil

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"

	"github.com/ajitpratap0/csvconf/pkg/compression"
	"github.com/ajitpratap0/csvconf/pkg/logger"
)

// UseTestLogger routes the global logger to the test output until the test
// completes.
func UseTestLogger(t testing.TB) *zap.Logger {
	t.Helper()
	previous := logger.Get()
	l := zaptest.NewLogger(t, zaptest.Level(zap.WarnLevel))
	logger.Set(l)
	t.Cleanup(func() { logger.Set(previous) })
	return l
}

// TestContext creates a context with a 30-second timeout, canceled when the
// test completes.
func TestContext(t testing.TB) context.Context {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	t.Cleanup(cancel)
	return ctx
}

// WriteFile writes content to dir/name, creating parent directories, and
// returns the path.
func WriteFile(t testing.TB, dir, name string, content []byte) string {
	t.Helper()
	path := filepath.Join(dir, filepath.FromSlash(name))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, content, 0o600))
	return path
}

// Compress compresses text with alg.
func Compress(t testing.TB, alg compression.Algorithm, text string) []byte {
	t.Helper()
	comp, err := compression.NewCompressor(&compression.Config{Algorithm: alg})
	require.NoError(t, err)
	data, err := comp.Compress([]byte(text))
	require.NoError(t, err)
	return data
}
