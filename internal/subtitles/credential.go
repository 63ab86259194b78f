package subtitles

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sync"
)

// Credential is a cookie jar materialized on disk for one invocation.
type Credential struct {
	path string

	once sync.Once
	err  error
}

// ProvisionCredential writes material verbatim to path with owner-only
// permissions. Empty material means no authentication and yields a nil
// handle. The file must not already exist.
func ProvisionCredential(path, material string) (*Credential, error) {
	if material == "" {
		return nil, nil
	}
	file, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
	if err != nil {
		return nil, fmt.Errorf("create credential file: %w", err)
	}
	_, writeErr := file.WriteString(material)
	closeErr := file.Close()
	if err := errors.Join(writeErr, closeErr); err != nil {
		_ = os.Remove(path)
		return nil, fmt.Errorf("write credential file: %w", err)
	}
	return &Credential{path: path}, nil
}

// Path returns the cookie file location, or "" for a nil handle.
func (c *Credential) Path() string {
	if c == nil {
		return ""
	}
	return c.path
}

// Remove deletes the backing file. Only the first call touches the
// filesystem; later calls return the first result. A file that is already
// gone counts as removed.
func (c *Credential) Remove() error {
	if c == nil {
		return nil
	}
	c.once.Do(func() {
		if err := os.Remove(c.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			c.err = fmt.Errorf("remove credential file: %w", err)
		}
	})
	return c.err
}
