package hook

import (
	"bytes"
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/font/gofont/gobold"
)

func TestFontLoader_EnsureDownloads(t *testing.T) {
	var gotUA string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		_, _ = w.Write(gobold.TTF)
	}))
	defer server.Close()

	dir := filepath.Join(t.TempDir(), "fonts")
	loader := NewFontLoader(dir, server.URL+"/NotoSerif-Bold.ttf")

	require.NoError(t, loader.Ensure(context.Background()))
	assert.Equal(t, fontUserAgent, gotUA)
	assert.Equal(t, filepath.Join(dir, DefaultFontFile), loader.Path())

	content, err := os.ReadFile(loader.Path())
	require.NoError(t, err)
	assert.Equal(t, gobold.TTF, content)

	// The downloaded file is loaded instead of the fallback.
	face := loader.Face(40)
	defer func() { _ = face.Close() }()
	fallback := FallbackFace(40)
	defer func() { _ = fallback.Close() }()

	w1, h1 := faceMeasurer{face: face}.Measure("Hook")
	w2, h2 := faceMeasurer{face: fallback}.Measure("Hook")
	assert.Equal(t, w2, w1)
	assert.Equal(t, h2, h1)
}

func TestFontLoader_EnsureSkipsExisting(t *testing.T) {
	var requests int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&requests, 1)
	}))
	defer server.Close()

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, DefaultFontFile), gobold.TTF, 0600))

	loader := NewFontLoader(dir, server.URL)
	require.NoError(t, loader.Ensure(context.Background()))
	assert.Equal(t, int32(0), atomic.LoadInt32(&requests))
}

func TestFontLoader_EnsureFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	dir := t.TempDir()
	loader := NewFontLoader(dir, server.URL)

	err := loader.Ensure(context.Background())
	require.ErrorIs(t, err, ErrFontDownload)
	assert.NoFileExists(t, loader.Path())

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries, "partial downloads must not be left behind")
}

func TestFontLoader_FaceFallsBack(t *testing.T) {
	loader := NewFontLoader(t.TempDir(), "http://unused.invalid")

	small := loader.Face(20)
	defer func() { _ = small.Close() }()
	large := loader.Face(60)
	defer func() { _ = large.Close() }()

	ws, hs := faceMeasurer{face: small}.Measure("Hook")
	wl, hl := faceMeasurer{face: large}.Measure("Hook")
	assert.Greater(t, ws, 0)
	assert.Greater(t, wl, ws)
	assert.Greater(t, hl, hs)
}

func TestFontLoader_FaceCorruptFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, DefaultFontFile), []byte("not a font"), 0600))

	face := NewFontLoader(dir, "").Face(30)
	defer func() { _ = face.Close() }()

	w, _ := faceMeasurer{face: face}.Measure("Hook")
	assert.Greater(t, w, 0)
}

func TestFontLoader_FaceWarnsOnce(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, DefaultFontFile), []byte("truncated"), 0600))

	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelWarn}))
	loader := NewFontLoader(dir, "", WithFontLogger(logger))

	for range 3 {
		face := loader.Face(30)
		_ = face.Close()
	}

	out := buf.String()
	assert.Equal(t, 1, strings.Count(out, "display font not loadable"))
	assert.Contains(t, out, "level=WARN")
}

func TestFaceMeasurer_Empty(t *testing.T) {
	face := FallbackFace(30)
	defer func() { _ = face.Close() }()

	w, h := faceMeasurer{face: face}.Measure("")
	assert.Zero(t, w)
	assert.Zero(t, h)
}
