// Package upload stores complaint attachments on local disk.
package upload

import (
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"github.com/m-mizutani/goerr/v2"

	"resolveit/backend/internal/apperr"
	"resolveit/backend/internal/config"
)

var unsafeChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// Store keeps files in Dir under the name "<uuid>_<original base name>".
type Store struct {
	Dir      string
	MaxBytes int64
}

// NewStore creates the directory if needed.
func NewStore(dir string, maxBytes int64) (*Store, error) {
	if dir == "" {
		dir = config.DefaultUploadDir
	}
	if maxBytes <= 0 {
		maxBytes = config.MaxAttachmentBytes
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, goerr.Wrap(err, "failed to create upload directory", goerr.V("dir", dir))
	}
	return &Store{Dir: dir, MaxBytes: maxBytes}, nil
}

// Save validates and writes the upload, returning the stored name.
// The extension must be allowed and the content must sniff as the same
// media family.
func (s *Store) Save(name string, r io.Reader) (string, error) {
	base := SanitizeName(name)
	if base == "" {
		return "", apperr.NewValidationError("file", "file name is required")
	}
	ext := strings.ToLower(filepath.Ext(base))
	kind, ok := config.AttachmentKinds[ext]
	if !ok {
		return "", apperr.NewValidationError("file", "unsupported file type "+ext)
	}

	tmp, err := os.CreateTemp(s.Dir, ".upload-*")
	if err != nil {
		return "", goerr.Wrap(err, "failed to create temp file", goerr.V("dir", s.Dir))
	}
	tmpName := tmp.Name()
	keep := false
	defer func() {
		if !keep {
			_ = os.Remove(tmpName)
		}
	}()

	n, err := io.Copy(tmp, io.LimitReader(r, s.MaxBytes+1))
	if closeErr := tmp.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return "", goerr.Wrap(err, "failed to write upload", goerr.V("name", base))
	}
	if n == 0 {
		return "", apperr.NewValidationError("file", "file is empty")
	}
	if n > s.MaxBytes {
		return "", apperr.NewValidationError("file", "file exceeds the size limit")
	}

	mt, err := mimetype.DetectFile(tmpName)
	if err != nil {
		return "", goerr.Wrap(err, "failed to detect content type", goerr.V("name", base))
	}
	if !matchesKind(kind, ext, mt) {
		return "", apperr.NewValidationError("file", "file content does not match its extension")
	}

	stored := uuid.NewString() + "_" + base
	if err := os.Rename(tmpName, filepath.Join(s.Dir, stored)); err != nil {
		return "", goerr.Wrap(err, "failed to store upload", goerr.V("name", stored))
	}
	keep = true
	return stored, nil
}

// Open returns the stored file and its content type.
func (s *Store) Open(stored string) (*os.File, string, error) {
	if !validStoredName(stored) {
		return nil, "", apperr.NewNotFoundError("file", stored)
	}
	path := filepath.Join(s.Dir, stored)

	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, "", apperr.NewNotFoundError("file", stored)
	}
	if err != nil {
		return nil, "", goerr.Wrap(err, "failed to open upload", goerr.V("name", stored))
	}

	mt, err := mimetype.DetectReader(f)
	if err != nil {
		f.Close()
		return nil, "", goerr.Wrap(err, "failed to detect content type", goerr.V("name", stored))
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		f.Close()
		return nil, "", goerr.Wrap(err, "failed to rewind upload", goerr.V("name", stored))
	}
	return f, mt.String(), nil
}

// Remove deletes a stored file. Missing files are ignored.
func (s *Store) Remove(stored string) error {
	if !validStoredName(stored) {
		return nil
	}
	err := os.Remove(filepath.Join(s.Dir, stored))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return goerr.Wrap(err, "failed to remove upload", goerr.V("name", stored))
	}
	return nil
}

// SanitizeName reduces a client-supplied file name to a safe base name.
func SanitizeName(name string) string {
	name = strings.ReplaceAll(name, `\`, "/")
	base := filepath.Base(strings.TrimSpace(name))
	if base == "." || base == "/" || base == ".." {
		return ""
	}
	base = unsafeChars.ReplaceAllString(base, "_")
	return strings.TrimLeft(base, ".")
}

// OriginalName strips the "<uuid>_" prefix from a stored name.
func OriginalName(stored string) string {
	if len(stored) > 37 && stored[36] == '_' {
		if _, err := uuid.Parse(stored[:36]); err == nil {
			return stored[37:]
		}
	}
	return stored
}

func validStoredName(name string) bool {
	return name != "" &&
		!strings.ContainsAny(name, `/\`) &&
		!strings.Contains(name, "..") &&
		!strings.HasPrefix(name, ".")
}

const (
	mimeDocx = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
)

func matchesKind(kind, ext string, mt *mimetype.MIME) bool {
	switch kind {
	case "image":
		return hasPrefix(mt, "image/")
	case "video":
		return hasPrefix(mt, "video/") || hasPrefix(mt, "audio/") || mt.Is("application/ogg")
	case "document":
		switch ext {
		case ".pdf":
			return mt.Is("application/pdf")
		case ".txt":
			return hasPrefix(mt, "text/plain")
		case ".doc":
			return mt.Is("application/msword") || mt.Is("application/x-ole-storage")
		case ".docx":
			return mt.Is(mimeDocx) || mt.Is("application/zip")
		}
	}
	return false
}

// hasPrefix walks the detected type and its parents.
func hasPrefix(mt *mimetype.MIME, prefix string) bool {
	for m := mt; m != nil; m = m.Parent() {
		if strings.HasPrefix(m.String(), prefix) {
			return true
		}
	}
	return false
}
