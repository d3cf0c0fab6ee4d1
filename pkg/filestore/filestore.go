// Package filestore keeps uploaded attachments and avatars.
package filestore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound is returned when no file is stored under a name
var ErrNotFound = errors.New("file not found")

// Store saves and serves uploaded files by their relative name
type Store interface {
	// Save stores the content and returns the name it was stored under, which
	// differs from the requested one when that name is taken.
	Save(ctx context.Context, name string, r io.Reader) (string, error)
	Open(ctx context.Context, name string) (io.ReadCloser, error)
	Delete(ctx context.Context, name string) error
}

// AttachmentPath places a post attachment under a dated directory
func AttachmentPath(now time.Time, filename string) string {
	return path.Join("attachments", now.Format("2006/01/02"), cleanName(filename))
}

// AvatarPath places a profile picture
func AvatarPath(filename string) string {
	return path.Join("profile_pics", cleanName(filename))
}

// CleanPath normalises a requested name and rejects anything escaping the
// storage root.
func CleanPath(name string) (string, error) {
	cleaned := path.Clean("/" + strings.ReplaceAll(name, "\\", "/"))
	cleaned = strings.TrimPrefix(cleaned, "/")
	if cleaned == "" || cleaned == "." {
		return "", fmt.Errorf("invalid file name %q", name)
	}
	return cleaned, nil
}

func cleanName(filename string) string {
	base := path.Base(strings.ReplaceAll(filename, "\\", "/"))
	base = strings.Map(func(r rune) rune {
		switch {
		case r == ' ':
			return '_'
		case r < 32 || r == '/' || r == ':':
			return -1
		}
		return r
	}, base)
	if base == "" || base == "." || base == ".." {
		base = "upload"
	}
	return base
}

// alternateName adds a short random suffix before the extension
func alternateName(name string) string {
	ext := path.Ext(name)
	stem := strings.TrimSuffix(name, ext)
	return fmt.Sprintf("%s_%s%s", stem, uuid.NewString()[:7], ext)
}
