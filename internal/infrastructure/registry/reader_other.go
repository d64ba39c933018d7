//go:build !windows

package registry

import (
	"errors"
	"fmt"

	"github.com/doeshing/wintool/internal/ports"
)

// Reader is a stub off Windows; every read fails with errors.ErrUnsupported
// after the key itself has been validated.
type Reader struct{}

// NewReader builds a registry reader.
func NewReader() *Reader {
	return &Reader{}
}

func (r *Reader) ReadString(key, name string) (string, error) {
	if _, _, err := SplitKey(key); err != nil {
		return "", err
	}
	return "", fmt.Errorf("read %s\\%s: %w", key, name, errors.ErrUnsupported)
}

func (r *Reader) ReadInteger(key, name string) (uint64, error) {
	if _, _, err := SplitKey(key); err != nil {
		return 0, err
	}
	return 0, fmt.Errorf("read %s\\%s: %w", key, name, errors.ErrUnsupported)
}

var _ ports.RegistryReader = (*Reader)(nil)
