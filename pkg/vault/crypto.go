package vault

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/json"
	"errors"

	"golang.org/x/crypto/nacl/secretbox"
	"golang.org/x/crypto/pbkdf2"
)

const pbkdf2Iterations = 100000

// deriveKey stretches passphrase into a 32-byte secretbox key via PBKDF2-SHA256.
func deriveKey(passphrase, salt []byte) [32]byte {
	derived := pbkdf2.Key(passphrase, salt, pbkdf2Iterations, 32, sha256.New)
	var key [32]byte
	copy(key[:], derived)
	return key
}

// sealedBlob is the on-disk shape of one encrypted vault entry.
type sealedBlob struct {
	Nonce      []byte `json:"nonce"`
	Ciphertext []byte `json:"ciphertext"`
}

// seal encrypts plaintext under key, returning a JSON-encoded sealedBlob.
func seal(plaintext []byte, key [32]byte) (json.RawMessage, error) {
	var nonce [24]byte
	if _, err := rand.Read(nonce[:]); err != nil {
		return nil, errors.New("vault: failed to generate nonce: " + err.Error())
	}

	ciphertext := secretbox.Seal(nil, plaintext, &nonce, &key)
	return json.Marshal(sealedBlob{Nonce: nonce[:], Ciphertext: ciphertext})
}

// open decrypts a JSON-encoded sealedBlob under key.
func open(blob json.RawMessage, key [32]byte) ([]byte, error) {
	var sb sealedBlob
	if err := json.Unmarshal(blob, &sb); err != nil {
		return nil, err
	}
	if len(sb.Nonce) != 24 {
		return nil, errors.New("vault: malformed nonce")
	}

	var nonce [24]byte
	copy(nonce[:], sb.Nonce)

	plaintext, ok := secretbox.Open(nil, sb.Ciphertext, &nonce, &key)
	if !ok {
		return nil, errors.New("vault: decryption failed (wrong key or corrupted entry)")
	}
	return plaintext, nil
}
