// Package vault stores device credential material (username/password/key
// path) encrypted at rest, addressed by opaque reference strings. Material
// never crosses the store boundary: the database only ever sees the refs.
// A device's ref also appears in API responses, as its credential_ref field.
package vault

import (
	"crypto/rand"
	"encoding/json"
	"errors"

	"github.com/google/uuid"

	"netval/pkg/util"
)

// Material is the credential payload for one device. KeyPath, when set,
// names an SSH private key file instead of (or alongside) a password.
type Material struct {
	Username string `json:"username"`
	Password string `json:"password,omitempty"`
	KeyPath  string `json:"key_path,omitempty"`
}

// Backend is the storage contract a Vault encrypts against. FileBackend is
// the only implementation; the interface exists so pkg/httpapi and tests can
// substitute an in-memory backend without touching encryption logic.
type Backend interface {
	Load() (map[string]json.RawMessage, error)
	Save(map[string]json.RawMessage) error
}

// Vault stores encrypted Material blobs keyed by opaque reference, backed by
// a Backend and a passphrase-derived secretbox key.
type Vault struct {
	backend Backend
	key     [32]byte
}

// New derives an encryption key from passphrase via PBKDF2 and returns a
// Vault backed by backend. The service derives the passphrase from a key
// file under the same home directory as the database.
func New(backend Backend, passphrase []byte, salt []byte) *Vault {
	return &Vault{backend: backend, key: deriveKey(passphrase, salt)}
}

// Store encrypts material and returns an opaque reference to it.
func (v *Vault) Store(material *Material) (string, error) {
	plaintext, err := json.Marshal(material)
	if err != nil {
		return "", err
	}

	sealed, err := seal(plaintext, v.key)
	if err != nil {
		return "", err
	}

	entries, err := v.backend.Load()
	if err != nil {
		return "", err
	}
	if entries == nil {
		entries = make(map[string]json.RawMessage)
	}

	ref := uuid.NewString()
	entries[ref] = sealed
	if err := v.backend.Save(entries); err != nil {
		return "", err
	}
	return ref, nil
}

// Load decrypts and returns the material for ref.
func (v *Vault) Load(ref string) (*Material, error) {
	entries, err := v.backend.Load()
	if err != nil {
		return nil, err
	}
	sealed, ok := entries[ref]
	if !ok {
		return nil, util.ErrNotFound
	}

	plaintext, err := open(sealed, v.key)
	if err != nil {
		return nil, err
	}

	var m Material
	if err := json.Unmarshal(plaintext, &m); err != nil {
		return nil, err
	}
	return &m, nil
}

// Delete removes the credential entry for ref. Deleting an unknown ref is
// an idempotent no-op.
func (v *Vault) Delete(ref string) error {
	entries, err := v.backend.Load()
	if err != nil {
		return err
	}
	delete(entries, ref)
	return v.backend.Save(entries)
}

// randomSalt returns 16 bytes of cryptographically random salt, used when
// bootstrapping a new vault key file.
func randomSalt() ([]byte, error) {
	salt := make([]byte, 16)
	if _, err := rand.Read(salt); err != nil {
		return nil, errors.New("vault: failed to generate salt: " + err.Error())
	}
	return salt, nil
}
