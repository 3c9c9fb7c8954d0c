package upload_test

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"resolveit/backend/internal/apperr"
	"resolveit/backend/internal/upload"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var pngBytes = append([]byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR"), make([]byte, 64)...)

func newStore(t *testing.T, max int64) *upload.Store {
	t.Helper()
	s, err := upload.NewStore(filepath.Join(t.TempDir(), "uploads"), max)
	require.NoError(t, err)
	return s
}

func TestSaveAndOpen(t *testing.T) {
	s := newStore(t, 1<<20)

	stored, err := s.Save("C:\\Users\\me\\broken window.png", bytes.NewReader(pngBytes))
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(stored, "_broken_window.png"), stored)
	assert.Equal(t, "broken_window.png", upload.OriginalName(stored))

	f, contentType, err := s.Open(stored)
	require.NoError(t, err)
	defer f.Close()
	assert.Equal(t, "image/png", contentType)

	data, err := io.ReadAll(f)
	require.NoError(t, err)
	assert.Equal(t, pngBytes, data, "content is intact after sniffing")
}

func TestSaveDocuments(t *testing.T) {
	s := newStore(t, 1<<20)

	_, err := s.Save("report.pdf", strings.NewReader("%PDF-1.4\n1 0 obj\n<<>>\nendobj\n"))
	assert.NoError(t, err)

	_, err = s.Save("notes.txt", strings.NewReader("The heating in room 204 is off."))
	assert.NoError(t, err)
}

func TestSaveRejects(t *testing.T) {
	s := newStore(t, 32)

	tests := []struct {
		name    string
		file    string
		content []byte
	}{
		{"disallowed extension", "run.exe", []byte("MZ")},
		{"no name", "", pngBytes},
		{"empty", "a.png", nil},
		{"too large", "a.txt", bytes.Repeat([]byte("a"), 33)},
		{"text posing as image", "a.png", []byte("just some text")},
		{"binary posing as text", "a.txt", pngBytes[:32]},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.Save(tt.file, bytes.NewReader(tt.content))
			require.Error(t, err)
			assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
		})
	}

	entries, err := os.ReadDir(s.Dir)
	require.NoError(t, err)
	assert.Empty(t, entries, "rejected uploads leave nothing behind")
}

func TestOpenRejectsTraversal(t *testing.T) {
	s := newStore(t, 1<<20)
	require.NoError(t, os.WriteFile(filepath.Join(filepath.Dir(s.Dir), "secret.txt"), []byte("x"), 0o600))

	for _, name := range []string{"../secret.txt", "..", "a/b.png", `..\secret.txt`, "", ".hidden"} {
		_, _, err := s.Open(name)
		assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err), name)
	}

	_, _, err := s.Open("00000000-0000-0000-0000-000000000000_missing.png")
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
}

func TestRemove(t *testing.T) {
	s := newStore(t, 1<<20)
	stored, err := s.Save("a.png", bytes.NewReader(pngBytes))
	require.NoError(t, err)

	require.NoError(t, s.Remove(stored))
	require.NoError(t, s.Remove(stored), "removing twice is fine")
	_, _, err = s.Open(stored)
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
}

func TestSanitizeName(t *testing.T) {
	assert.Equal(t, "passwd", upload.SanitizeName("../../etc/passwd"))
	assert.Equal(t, "my_photo_1_.jpg", upload.SanitizeName("my photo (1).jpg"))
	assert.Equal(t, "htaccess", upload.SanitizeName(".htaccess"))
	assert.Equal(t, "", upload.SanitizeName(".."))
	assert.Equal(t, "plain.txt", upload.OriginalName("plain.txt"))
}
