// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 Oleg Tarasov

// Package prefs is a single-file store for small persistent device
// state. Values are CBOR-encoded and addressed by 32-bit keys; every
// save rewrites the file atomically, so a crash leaves either the old
// or the new contents, never a torn file.
package prefs

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/fxamacker/cbor/v2"
)

// Store is a keyed preference file. Safe for use from one goroutine.
type Store struct {
	path   string
	values map[uint32]cbor.RawMessage
}

// Open reads the store at path, creating an empty one when the file
// does not exist yet. Parent directories are created on first save.
func Open(path string) (*Store, error) {
	s := &Store{
		path:   path,
		values: make(map[uint32]cbor.RawMessage),
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read store: %w", err)
	}
	if len(data) == 0 {
		return s, nil
	}

	if err := cbor.Unmarshal(data, &s.values); err != nil {
		return nil, fmt.Errorf("failed to decode store %s: %w", path, err)
	}
	return s, nil
}

// Save encodes value under key and rewrites the file.
func (s *Store) Save(key uint32, value any) error {
	encoded, err := cbor.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to encode value: %w", err)
	}
	s.values[key] = encoded
	return s.flush()
}

// Load decodes the value stored under key into out. The first return
// value reports whether a decodable value was present.
func (s *Store) Load(key uint32, out any) (bool, error) {
	encoded, ok := s.values[key]
	if !ok {
		return false, nil
	}
	if err := cbor.Unmarshal(encoded, out); err != nil {
		return false, fmt.Errorf("failed to decode value for key 0x%08X: %w", key, err)
	}
	return true, nil
}

// Delete removes the value stored under key and rewrites the file.
// Deleting a missing key is a no-op.
func (s *Store) Delete(key uint32) error {
	if _, ok := s.values[key]; !ok {
		return nil
	}
	delete(s.values, key)
	return s.flush()
}

// Keys returns every key currently present, in no particular order.
func (s *Store) Keys() []uint32 {
	keys := make([]uint32, 0, len(s.values))
	for k := range s.values {
		keys = append(keys, k)
	}
	return keys
}

// Path returns the backing file path.
func (s *Store) Path() string { return s.path }

// flush writes the whole store to a temporary file in the same
// directory and renames it over the target.
func (s *Store) flush() error {
	data, err := cbor.Marshal(s.values)
	if err != nil {
		return fmt.Errorf("failed to encode store: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create store directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".prefs-*")
	if err != nil {
		return fmt.Errorf("failed to create temporary file: %w", err)
	}

	_, werr := tmp.Write(data)
	cerr := tmp.Close()
	if werr != nil || cerr != nil {
		os.Remove(tmp.Name())
		if werr != nil {
			return fmt.Errorf("failed to write store: %w", werr)
		}
		return fmt.Errorf("failed to write store: %w", cerr)
	}

	if err := os.Rename(tmp.Name(), s.path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to replace store: %w", err)
	}
	return nil
}
