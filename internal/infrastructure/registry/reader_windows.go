//go:build windows

package registry

import (
	"fmt"

	"golang.org/x/sys/windows/registry"

	"github.com/doeshing/wintool/internal/ports"
)

// Reader implements ports.RegistryReader with read-only key handles.
type Reader struct{}

// NewReader builds a registry reader.
func NewReader() *Reader {
	return &Reader{}
}

// ReadString returns a REG_SZ or REG_EXPAND_SZ value.
func (r *Reader) ReadString(key, name string) (string, error) {
	k, err := open(key)
	if err != nil {
		return "", err
	}
	defer k.Close()
	value, _, err := k.GetStringValue(name)
	if err != nil {
		return "", fmt.Errorf("read %s\\%s: %w", key, name, err)
	}
	return value, nil
}

// ReadInteger returns a REG_DWORD or REG_QWORD value.
func (r *Reader) ReadInteger(key, name string) (uint64, error) {
	k, err := open(key)
	if err != nil {
		return 0, err
	}
	defer k.Close()
	value, _, err := k.GetIntegerValue(name)
	if err != nil {
		return 0, fmt.Errorf("read %s\\%s: %w", key, name, err)
	}
	return value, nil
}

func open(key string) (registry.Key, error) {
	hive, path, err := SplitKey(key)
	if err != nil {
		return 0, err
	}
	var root registry.Key
	switch hive {
	case HiveLocalMachine:
		root = registry.LOCAL_MACHINE
	case HiveCurrentUser:
		root = registry.CURRENT_USER
	case HiveClassesRoot:
		root = registry.CLASSES_ROOT
	case HiveUsers:
		root = registry.USERS
	}
	k, err := registry.OpenKey(root, path, registry.QUERY_VALUE)
	if err != nil {
		return 0, fmt.Errorf("open %s: %w", key, err)
	}
	return k, nil
}

var _ ports.RegistryReader = (*Reader)(nil)
