// Package preferences persists small values across restarts. Values are
// addressed by a 32-bit key and encoded with CBOR.
package preferences

import (
	"fmt"
	"path/filepath"

	"github.com/adrg/xdg"
	"github.com/fxamacker/cbor/v2"
)

type (
	// Store hands out preference handles and owns the underlying storage.
	Store interface {
		MakePreference(key uint32) Preference
		Close() error
	}

	// Preference is a handle to a single stored value.
	Preference interface {
		// Load decodes the stored value into v, which must be a pointer.
		// It returns ErrNotFound if nothing was ever saved under the key.
		Load(v any) error
		// Save encodes v and stores it under the key.
		Save(v any) error
		Key() uint32
	}

	// backend is the raw byte storage behind a Store.
	backend interface {
		get(key uint32) ([]byte, error)
		put(key uint32, data []byte) error
	}
)

// Config selects and configures a Store.
type Config struct {
	Backend string `mapstructure:"backend"`
	Path    string `mapstructure:"path"`
}

const (
	BackendMemory = "memory"
	BackendFile   = "file"
	BackendSQLite = "sqlite"
)

// Open creates the Store described by cfg. When no path is given for a
// persistent backend, a file under the XDG state directory is used.
func Open(cfg Config) (Store, error) {
	switch cfg.Backend {
	case BackendMemory, "":
		return NewMemoryStore(), nil
	case BackendFile:
		path, err := resolvePath(cfg.Path, "preferences.cbor")
		if err != nil {
			return nil, err
		}
		return OpenFileStore(path)
	case BackendSQLite:
		path, err := resolvePath(cfg.Path, "preferences.db")
		if err != nil {
			return nil, err
		}
		return OpenSQLiteStore(path)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownBackend, cfg.Backend)
	}
}

func resolvePath(path, defaultName string) (string, error) {
	if path != "" {
		return path, nil
	}
	path, err := xdg.StateFile(filepath.Join("switchd", defaultName))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrStoreOpen, err)
	}
	return path, nil
}

type preference struct {
	key     uint32
	backend backend
}

func (p *preference) Key() uint32 {
	return p.key
}

func (p *preference) Load(v any) error {
	data, err := p.backend.get(p.key)
	if err != nil {
		return err
	}
	if err := cbor.Unmarshal(data, v); err != nil {
		return fmt.Errorf("%w %08x: %v", ErrDecode, p.key, err)
	}
	return nil
}

func (p *preference) Save(v any) error {
	data, err := cbor.Marshal(v)
	if err != nil {
		return fmt.Errorf("%w %08x: %v", ErrEncode, p.key, err)
	}
	return p.backend.put(p.key, data)
}
