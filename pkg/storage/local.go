package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// LocalProvider writes media under a directory served at publicPath. Used when no bucket is set.
type LocalProvider struct {
	baseDir    string
	publicPath string
}

// NewLocalProvider ensures baseDir exists.
func NewLocalProvider(baseDir, publicPath string) (*LocalProvider, error) {
	if baseDir == "" {
		baseDir = "./public/uploads"
	}
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload directory: %w", err)
	}
	if publicPath == "" {
		publicPath = "/uploads"
	}
	return &LocalProvider{baseDir: baseDir, publicPath: strings.TrimRight(publicPath, "/")}, nil
}

func (p *LocalProvider) Name() string { return "local" }

// Dir returns the directory holding stored objects.
func (p *LocalProvider) Dir() string { return p.baseDir }

// Put copies obj.Body into the target file.
func (p *LocalProvider) Put(_ context.Context, obj Object) (string, error) {
	if !validKey(obj.Key) {
		return "", ErrInvalidKey
	}
	path := filepath.Join(p.baseDir, filepath.FromSlash(obj.Key))
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("prepare upload directory: %w", err)
	}
	file, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create upload file: %w", err)
	}
	defer file.Close() //nolint:errcheck
	if _, err := io.Copy(file, obj.Body); err != nil {
		return "", fmt.Errorf("write upload file: %w", err)
	}
	return p.publicPath + "/" + obj.Key, nil
}

// Delete removes a stored file if present.
func (p *LocalProvider) Delete(_ context.Context, key string) error {
	if !validKey(key) {
		return ErrInvalidKey
	}
	path := filepath.Join(p.baseDir, filepath.FromSlash(key))
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("delete upload file: %w", err)
	}
	return nil
}
