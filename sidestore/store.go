// Package sidestore is a small key-value store for opaque session blobs.
//
// Access never fails from the caller's point of view: every backend logs
// its errors and carries on, so a broken or full store degrades into a
// store that forgets. Keys are namespaced with a configurable prefix.
package sidestore

import (
	"io"
	"log/slog"

	"github.com/alphadose/haxmap"
	"github.com/casualjim/parley/pkg/slogx"
)

// DefaultPrefix namespaces keys when no prefix is configured.
const DefaultPrefix = "parley:"

// Store is the side-store contract. Implementations must be safe for
// concurrent use and must not surface errors.
type Store interface {
	Get(key string) (string, bool)
	Set(key, value string)
	Remove(key string)
}

// Options selects and configures a backend.
type Options struct {
	// Enabled turns the store on. A disabled store ignores every call.
	Enabled bool
	// Prefix namespaces every key. Empty selects DefaultPrefix.
	Prefix string
	// Path is a bbolt database file. Empty keeps entries in memory.
	Path string
}

// New builds the store described by options. A bbolt file that cannot be
// opened is logged and replaced by the disabled store.
func New(options Options, logger *slog.Logger) Store {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With(slogx.LoggerName("sidestore"))

	if !options.Enabled {
		return Disabled{}
	}

	prefix := options.Prefix
	if prefix == "" {
		prefix = DefaultPrefix
	}

	var backend Store
	if options.Path == "" {
		backend = NewMemory()
	} else {
		b, err := OpenBolt(options.Path, logger)
		if err != nil {
			logger.Error("side-store unavailable, continuing without it", slog.String("path", options.Path), slogx.Error(err))
			return Disabled{}
		}
		backend = b
	}
	return Prefixed(backend, prefix)
}

// Close releases the backend behind s, if it holds anything.
func Close(s Store) error {
	if c, ok := s.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

// Disabled ignores writes and never finds anything.
type Disabled struct{}

func (Disabled) Get(string) (string, bool) { return "", false }
func (Disabled) Set(string, string)        {}
func (Disabled) Remove(string)             {}

// Memory keeps entries in a concurrent map for the life of the process.
type Memory struct {
	values *haxmap.Map[string, string]
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{values: haxmap.New[string, string]()}
}

func (m *Memory) Get(key string) (string, bool) { return m.values.Get(key) }
func (m *Memory) Set(key, value string)         { m.values.Set(key, value) }
func (m *Memory) Remove(key string)             { m.values.Del(key) }

// Len returns the number of stored entries.
func (m *Memory) Len() int { return int(m.values.Len()) }

type prefixed struct {
	inner  Store
	prefix string
}

// Prefixed namespaces every key of inner with prefix.
func Prefixed(inner Store, prefix string) Store {
	return &prefixed{inner: inner, prefix: prefix}
}

func (p *prefixed) Get(key string) (string, bool) { return p.inner.Get(p.prefix + key) }
func (p *prefixed) Set(key, value string)         { p.inner.Set(p.prefix+key, value) }
func (p *prefixed) Remove(key string)             { p.inner.Remove(p.prefix + key) }

func (p *prefixed) Close() error { return Close(p.inner) }
