package payslip

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"payday/internal/platform/crypto"
)

// Cache keeps rendered payslip artifacts on disk so downloads can
// serve the original document instead of re-rendering. Artifacts are
// sealed at rest when an encryption key is configured.
type Cache struct {
	dir    string
	crypto *crypto.Service
}

func NewCache(dir string, cryptoService *crypto.Service) *Cache {
	return &Cache{dir: dir, crypto: cryptoService}
}

func (c *Cache) Put(payrollID string, document []byte) error {
	if err := os.MkdirAll(c.dir, 0o755); err != nil {
		return err
	}
	sealed, err := c.crypto.Seal(document)
	if err != nil {
		return err
	}
	return os.WriteFile(c.path(payrollID), sealed, 0o600)
}

// Get returns the cached document, or ok=false when none exists.
func (c *Cache) Get(payrollID string) ([]byte, bool, error) {
	sealed, err := os.ReadFile(c.path(payrollID))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	document, err := c.crypto.Open(sealed)
	if err != nil {
		return nil, false, err
	}
	return document, true, nil
}

func (c *Cache) path(payrollID string) string {
	name := payrollID + ".pdf"
	if c.crypto.Configured() {
		name += ".enc"
	}
	return filepath.Join(c.dir, name)
}
