package storage

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// ErrExists indicates a write targeted a key that already holds an object.
// Artifact keys embed a fresh UUID, so a collision means a logic error.
var ErrExists = errors.New("storage: key already exists")

// FileStore persists artifacts onto the local filesystem and issues
// time-limited signed URLs for them. It stands in for an object storage
// service in development and test environments.
type FileStore struct {
	basePath string
	baseURL  string
	secret   []byte
}

// NewFileStore initializes a FileStore rooted at basePath. baseURL is the
// public prefix signed URLs are built on; secret signs them.
func NewFileStore(basePath, baseURL string, secret []byte) (*FileStore, error) {
	basePath = strings.TrimSpace(basePath)
	if basePath == "" {
		return nil, errors.New("storage: base path is required")
	}
	if len(secret) == 0 {
		return nil, errors.New("storage: signing secret is required")
	}
	if err := os.MkdirAll(basePath, 0o755); err != nil {
		return nil, fmt.Errorf("storage: ensure base path: %w", err)
	}
	return &FileStore{
		basePath: basePath,
		baseURL:  strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		secret:   secret,
	}, nil
}

// BasePath returns the configured root directory.
func (s *FileStore) BasePath() string {
	if s == nil {
		return ""
	}
	return s.basePath
}

// Write persists the provided bytes at the given relative key and returns
// the canonicalized storage key. Keys are cleaned to prevent directory
// traversal. Writes never overwrite: an existing object yields ErrExists.
func (s *FileStore) Write(ctx context.Context, key string, data []byte) (string, error) {
	if s == nil {
		return "", errors.New("storage: no store configured")
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	cleanKey, err := sanitizeKey(key)
	if err != nil {
		return "", err
	}
	fullPath := filepath.Join(s.basePath, filepath.FromSlash(cleanKey))
	if err := os.MkdirAll(filepath.Dir(fullPath), 0o755); err != nil {
		return "", fmt.Errorf("storage: ensure directory: %w", err)
	}
	f, err := os.OpenFile(fullPath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		if errors.Is(err, os.ErrExist) {
			return "", fmt.Errorf("%w: %s", ErrExists, cleanKey)
		}
		return "", fmt.Errorf("storage: create file: %w", err)
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		return "", fmt.Errorf("storage: write file: %w", err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("storage: close file: %w", err)
	}
	return cleanKey, nil
}

// SignedURL returns a retrievable URL for key that stays valid for ttl.
func (s *FileStore) SignedURL(key string, ttl time.Duration) (string, error) {
	if s == nil {
		return "", errors.New("storage: no store configured")
	}
	cleanKey, err := sanitizeKey(key)
	if err != nil {
		return "", err
	}
	if ttl <= 0 {
		ttl = 7 * 24 * time.Hour
	}
	exp := time.Now().Add(ttl).Unix()
	sig := s.sign(cleanKey, exp)
	return fmt.Sprintf("%s/%s?exp=%d&sig=%s", s.baseURL, cleanKey, exp, sig), nil
}

// VerifyURL checks the signature and expiry embedded in a signed URL for the
// given key. Used by the media handler that serves stored artifacts.
func (s *FileStore) VerifyURL(key string, query url.Values) error {
	cleanKey, err := sanitizeKey(key)
	if err != nil {
		return err
	}
	exp, err := strconv.ParseInt(query.Get("exp"), 10, 64)
	if err != nil {
		return errors.New("storage: malformed expiry")
	}
	if time.Now().Unix() > exp {
		return errors.New("storage: url expired")
	}
	expected := s.sign(cleanKey, exp)
	if !hmac.Equal([]byte(expected), []byte(query.Get("sig"))) {
		return errors.New("storage: signature mismatch")
	}
	return nil
}

func (s *FileStore) sign(key string, exp int64) string {
	mac := hmac.New(sha256.New, s.secret)
	fmt.Fprintf(mac, "%s\n%d", key, exp)
	return hex.EncodeToString(mac.Sum(nil))
}

// sanitizeKey normalizes a key and prevents escaping the storage root.
func sanitizeKey(key string) (string, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return "", errors.New("storage: key is required")
	}
	key = strings.ReplaceAll(key, "\\", "/")
	key = strings.TrimPrefix(key, "./")
	key = strings.TrimLeft(key, "/")
	cleaned := filepath.Clean(key)
	cleaned = strings.ReplaceAll(cleaned, "\\", "/")
	if cleaned == "." || strings.HasPrefix(cleaned, "../") {
		return "", errors.New("storage: invalid key")
	}
	return cleaned, nil
}
