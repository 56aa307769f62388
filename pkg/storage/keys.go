package storage

import (
	"path"
	"strings"
	"time"
)

// KeyBuilder places objects under a base directory, optionally grouped by media kind and month.
type KeyBuilder struct {
	BaseDir       string
	SortInStorage bool
}

// Build returns the object key for a file stored as hash+ext with the given mime type.
//
//	portfolio/images/2024/05/photo_a1b2c3.png  (SortInStorage)
//	portfolio/photo_a1b2c3.png
func (b KeyBuilder) Build(hash, ext, mime string, now time.Time) string {
	parts := make([]string, 0, 4)
	if base := strings.Trim(b.BaseDir, "/"); base != "" {
		parts = append(parts, base)
	}
	if b.SortInStorage {
		parts = append(parts, Kind(mime), now.UTC().Format("2006"), now.UTC().Format("01"))
	}
	parts = append(parts, hash+strings.ToLower(ext))
	return path.Join(parts...)
}

// Kind groups a mime type into images, videos or files.
func Kind(mime string) string {
	switch {
	case strings.HasPrefix(mime, "image/"):
		return "images"
	case strings.HasPrefix(mime, "video/"):
		return "videos"
	default:
		return "files"
	}
}

func validKey(key string) bool {
	if key == "" || strings.HasPrefix(key, "/") {
		return false
	}
	for _, seg := range strings.Split(key, "/") {
		if seg == "" || seg == "." || seg == ".." {
			return false
		}
	}
	return true
}
