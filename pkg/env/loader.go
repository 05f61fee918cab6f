// Package env reads settings from the process environment and from
// .env files.
package env

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/joho/godotenv"
)

// Prefix is prepended to every key looked up through a Loader
// created with NewLoader.
const Prefix = "SNIPPETCHECK_"

// Loader defines the interface for environment variable management.
type Loader interface {
	// Load reads variables from one or more .env files. Later
	// files override earlier ones.
	Load(paths ...string) error
	// Get retrieves a value; the process environment wins over
	// loaded files.
	Get(key string) string
	// Lookup is Get that reports whether the key was set at all.
	Lookup(key string) (string, bool)
	// GetRequired retrieves a required value or returns an error.
	GetRequired(key string) (string, error)
	// GetWithDefault retrieves a value with a fallback.
	GetWithDefault(key, defaultValue string) string
	// Set sets a variable in the process environment.
	Set(key, value string) error
	// All returns a copy of the variables read from files.
	All() map[string]string
}

// DefaultLoader implements Loader with .env file support. Keys are
// resolved under a fixed prefix.
type DefaultLoader struct {
	mu     sync.RWMutex
	vars   map[string]string
	prefix string
	loaded bool
}

// NewLoader creates a DefaultLoader resolving keys under Prefix.
func NewLoader() *DefaultLoader {
	return NewLoaderWithPrefix(Prefix)
}

// NewLoaderWithPrefix creates a DefaultLoader with a custom key
// prefix. An empty prefix looks keys up verbatim.
func NewLoaderWithPrefix(prefix string) *DefaultLoader {
	return &DefaultLoader{
		vars:   make(map[string]string),
		prefix: prefix,
	}
}

func (l *DefaultLoader) key(k string) string {
	if l.prefix == "" || strings.HasPrefix(k, l.prefix) {
		return k
	}
	return l.prefix + strings.ToUpper(k)
}

func (l *DefaultLoader) Load(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	for _, path := range paths {
		vars, err := godotenv.Read(path)
		if err != nil {
			return fmt.Errorf("read env file %s: %w", path, err)
		}
		for k, v := range vars {
			l.vars[k] = v
		}
	}
	l.loaded = true
	return nil
}

// Loaded reports whether at least one file was read.
func (l *DefaultLoader) Loaded() bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.loaded
}

func (l *DefaultLoader) Lookup(key string) (string, bool) {
	k := l.key(key)
	if v, ok := os.LookupEnv(k); ok {
		return v, true
	}
	l.mu.RLock()
	defer l.mu.RUnlock()
	v, ok := l.vars[k]
	return v, ok
}

func (l *DefaultLoader) Get(key string) string {
	v, _ := l.Lookup(key)
	return v
}

func (l *DefaultLoader) GetRequired(key string) (string, error) {
	v := l.Get(key)
	if v == "" {
		return "", fmt.Errorf(
			"required environment variable %s is not set", l.key(key),
		)
	}
	return v, nil
}

func (l *DefaultLoader) GetWithDefault(key, defaultValue string) string {
	if v := l.Get(key); v != "" {
		return v
	}
	return defaultValue
}

// GetBool parses a boolean value. ok is false when the key is
// unset; a malformed value is an error.
func (l *DefaultLoader) GetBool(key string) (v bool, ok bool, err error) {
	raw, ok := l.Lookup(key)
	if !ok || raw == "" {
		return false, false, nil
	}
	v, err = strconv.ParseBool(raw)
	if err != nil {
		return false, true, fmt.Errorf("%s: %w", l.key(key), err)
	}
	return v, true, nil
}

// GetInt parses an integer value.
func (l *DefaultLoader) GetInt(key string) (v int, ok bool, err error) {
	raw, ok := l.Lookup(key)
	if !ok || raw == "" {
		return 0, false, nil
	}
	v, err = strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, true, fmt.Errorf("%s: %w", l.key(key), err)
	}
	return v, true, nil
}

// GetMillis parses an integer count of milliseconds.
func (l *DefaultLoader) GetMillis(
	key string,
) (d time.Duration, ok bool, err error) {
	n, ok, err := l.GetInt(key)
	if !ok || err != nil {
		return 0, ok, err
	}
	return time.Duration(n) * time.Millisecond, true, nil
}

func (l *DefaultLoader) Set(key, value string) error {
	k := l.key(key)
	l.mu.Lock()
	defer l.mu.Unlock()
	l.vars[k] = value
	return os.Setenv(k, value)
}

func (l *DefaultLoader) All() map[string]string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	result := make(map[string]string, len(l.vars))
	for k, v := range l.vars {
		result[k] = v
	}
	return result
}
