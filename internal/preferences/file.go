package preferences

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/fxamacker/cbor/v2"
)

const (
	dirPermissions  = 0750
	filePermissions = 0600
)

// FileStore keeps every preference in a single CBOR-encoded file. The whole
// file is rewritten on each save.
type FileStore struct {
	path   string
	values map[uint32][]byte
	mutex  sync.Mutex
}

// OpenFileStore opens (or creates) the preference file at path.
func OpenFileStore(path string) (*FileStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), dirPermissions); err != nil {
		return nil, fmt.Errorf("%w %s: %v", ErrStoreOpen, path, err)
	}

	s := &FileStore{
		path:   path,
		values: make(map[uint32][]byte),
	}

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return s, nil
	case err != nil:
		return nil, fmt.Errorf("%w %s: %v", ErrStoreOpen, path, err)
	}

	if len(data) > 0 {
		if err := cbor.Unmarshal(data, &s.values); err != nil {
			return nil, fmt.Errorf("%w %s: %v", ErrDecode, path, err)
		}
	}

	return s, nil
}

func (s *FileStore) MakePreference(key uint32) Preference {
	return &preference{key: key, backend: s}
}

func (s *FileStore) Close() error {
	return nil
}

func (s *FileStore) get(key uint32) ([]byte, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	data, ok := s.values[key]
	if !ok {
		return nil, fmt.Errorf("%w: %08x", ErrNotFound, key)
	}
	return data, nil
}

func (s *FileStore) put(key uint32, data []byte) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	prev, existed := s.values[key]
	s.values[key] = append([]byte(nil), data...)

	if err := s.flush(); err != nil {
		if existed {
			s.values[key] = prev
		} else {
			delete(s.values, key)
		}
		return err
	}
	return nil
}

// flush writes the current contents to a temporary file and renames it over
// the store file. Callers hold the mutex.
func (s *FileStore) flush() error {
	data, err := cbor.Marshal(s.values)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrEncode, err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".preferences-*")
	if err != nil {
		return fmt.Errorf("%w %s: %v", ErrStoreWrite, s.path, err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) //nolint:errcheck

	if _, err := tmp.Write(data); err != nil {
		tmp.Close() //nolint:errcheck
		return fmt.Errorf("%w %s: %v", ErrStoreWrite, s.path, err)
	}
	if err := tmp.Chmod(filePermissions); err != nil {
		tmp.Close() //nolint:errcheck
		return fmt.Errorf("%w %s: %v", ErrStoreWrite, s.path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("%w %s: %v", ErrStoreWrite, s.path, err)
	}

	if err := os.Rename(tmpName, s.path); err != nil {
		return fmt.Errorf("%w %s: %v", ErrStoreWrite, s.path, err)
	}
	return nil
}
