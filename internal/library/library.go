// Package library stores named scene snapshots in a local or remote
// backend.
package library

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path"
	"strings"
	"time"
)

// Driver identifies a storage backend.
type Driver string

const (
	DriverMemory Driver = "memory" // in-memory (tests)
	DriverFS     Driver = "fs"     // directory of files (default)
	DriverSQLite Driver = "sqlite" // single database file
	DriverS3     Driver = "s3"     // S3 / MinIO compatible bucket
)

var (
	// ErrNotFound is returned when a named snapshot does not exist.
	ErrNotFound = errors.New("library: not found")
	// ErrInvalidName is returned for empty or escaping names.
	ErrInvalidName = errors.New("library: invalid name")
	// ErrUnknownDriver is returned by Open for an unsupported driver.
	ErrUnknownDriver = errors.New("library: unknown driver")
)

// Entry describes a stored snapshot.
type Entry struct {
	Name     string    `json:"name"`
	Size     int64     `json:"size_bytes"`
	Modified time.Time `json:"modified"`
}

// Store persists snapshots by name. Put overwrites.
type Store interface {
	Put(ctx context.Context, name string, data []byte) (Entry, error)
	Get(ctx context.Context, name string) ([]byte, error)
	List(ctx context.Context) ([]Entry, error)
	Delete(ctx context.Context, name string) (bool, error)
	Driver() Driver
	Close() error
}

// Config selects and parameterizes a backend.
type Config struct {
	Driver    Driver `json:"driver"`
	Path      string `json:"path,omitempty"` // fs root or sqlite file
	Bucket    string `json:"bucket,omitempty"`
	Region    string `json:"region,omitempty"`
	Endpoint  string `json:"endpoint,omitempty"`
	Prefix    string `json:"prefix,omitempty"`
	PathStyle bool   `json:"path_style,omitempty"`

	// Static credentials, e.g. for MinIO. Empty uses the default AWS chain.
	AccessKey string `json:"-"`
	SecretKey string `json:"-"`
}

// Environment variables read by FromEnv.
const (
	EnvDriver    = "VORO_LIBRARY_DRIVER"
	EnvPath      = "VORO_LIBRARY_PATH"
	EnvBucket    = "VORO_LIBRARY_S3_BUCKET"
	EnvRegion    = "VORO_LIBRARY_S3_REGION"
	EnvEndpoint  = "VORO_LIBRARY_S3_ENDPOINT"
	EnvPathStyle = "VORO_LIBRARY_S3_PATH_STYLE"
	EnvAccessKey = "VORO_LIBRARY_S3_ACCESS_KEY"
	EnvSecretKey = "VORO_LIBRARY_S3_SECRET_KEY"
)

// FromEnv overlays any set environment variables on base.
func FromEnv(base Config) Config {
	if v := os.Getenv(EnvDriver); v != "" {
		base.Driver = Driver(v)
	}
	if v := os.Getenv(EnvPath); v != "" {
		base.Path = v
	}
	if v := os.Getenv(EnvBucket); v != "" {
		base.Bucket = v
	}
	if v := os.Getenv(EnvRegion); v != "" {
		base.Region = v
	}
	if v := os.Getenv(EnvEndpoint); v != "" {
		base.Endpoint = v
	}
	if v := os.Getenv(EnvPathStyle); v != "" {
		base.PathStyle = strings.EqualFold(v, "true")
	}
	if v := os.Getenv(EnvAccessKey); v != "" {
		base.AccessKey = v
	}
	if v := os.Getenv(EnvSecretKey); v != "" {
		base.SecretKey = v
	}
	return base
}

// Open constructs the store selected by cfg.Driver (default fs).
func Open(ctx context.Context, cfg Config) (Store, error) {
	switch cfg.Driver {
	case DriverFS, "":
		return NewFS(cfg.Path)
	case DriverMemory:
		return NewMemory(), nil
	case DriverSQLite:
		return NewSQLite(ctx, cfg.Path)
	case DriverS3:
		return NewS3(ctx, cfg)
	}
	return nil, fmt.Errorf("%w: %s", ErrUnknownDriver, cfg.Driver)
}

// CleanName validates a snapshot name and normalizes separators. Names are
// slash-separated relative paths that may not escape the store root.
func CleanName(name string) (string, error) {
	name = strings.ReplaceAll(strings.TrimSpace(name), "\\", "/")
	if name == "" {
		return "", fmt.Errorf("%w: empty", ErrInvalidName)
	}
	if strings.HasPrefix(name, "/") {
		return "", fmt.Errorf("%w: absolute name %q", ErrInvalidName, name)
	}
	for _, part := range strings.Split(name, "/") {
		if part == ".." {
			return "", fmt.Errorf("%w: %q escapes the library", ErrInvalidName, name)
		}
	}
	clean := path.Clean(name)
	if clean == "." {
		return "", fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return clean, nil
}
