package vault

import (
	"crypto/rand"
	"encoding/json"
	"os"
	"path/filepath"
)

// FileBackend persists the encrypted entry map as a single JSON file.
type FileBackend struct {
	path string
}

// NewFileBackend returns a Backend backed by a JSON file at path.
func NewFileBackend(path string) *FileBackend {
	return &FileBackend{path: path}
}

// Load reads the entry map, returning an empty map if the file doesn't exist yet.
func (f *FileBackend) Load() (map[string]json.RawMessage, error) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		if os.IsNotExist(err) {
			return make(map[string]json.RawMessage), nil
		}
		return nil, err
	}

	entries := make(map[string]json.RawMessage)
	if len(data) == 0 {
		return entries, nil
	}
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

// Save writes the entry map, creating parent directories as needed.
func (f *FileBackend) Save(entries map[string]json.RawMessage) error {
	dir := filepath.Dir(f.path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return err
	}

	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(f.path, data, 0600)
}

// keyFilePath is the salt file sitting alongside the vault's entry file.
func keyFilePath(vaultPath string) string {
	return vaultPath + ".salt"
}

// LoadOrCreateSalt returns the salt used to derive the vault's encryption
// key, generating and persisting a new one on first run.
func LoadOrCreateSalt(vaultPath string) ([]byte, error) {
	path := keyFilePath(vaultPath)

	if data, err := os.ReadFile(path); err == nil {
		return data, nil
	} else if !os.IsNotExist(err) {
		return nil, err
	}

	salt, err := randomSalt()
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, err
	}
	if err := os.WriteFile(path, salt, 0600); err != nil {
		return nil, err
	}
	return salt, nil
}

// passphraseFilePath is where a generated passphrase is persisted so the
// vault remains decryptable across service restarts.
func passphraseFilePath(vaultPath string) string {
	return vaultPath + ".key"
}

// LoadOrCreatePassphrase returns the passphrase used to derive the vault's
// encryption key, generating and persisting a new random one on first run.
// There is no operator-supplied passphrase prompt — the service runs as a
// single local user — so the passphrase file's filesystem permissions
// (0600) are the sole access control.
func LoadOrCreatePassphrase(vaultPath string) ([]byte, error) {
	path := passphraseFilePath(vaultPath)

	if data, err := os.ReadFile(path); err == nil {
		return data, nil
	} else if !os.IsNotExist(err) {
		return nil, err
	}

	passphrase, err := randomPassphrase()
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, err
	}
	if err := os.WriteFile(path, passphrase, 0600); err != nil {
		return nil, err
	}
	return passphrase, nil
}

func randomPassphrase() ([]byte, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return nil, err
	}
	return buf, nil
}
