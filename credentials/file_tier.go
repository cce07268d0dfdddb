package credentials

import (
	"bytes"
	"crypto/rand"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/chacha20poly1305"

	"github.com/jrsteele09/go-schooltracker-client/internal/errors"
)

const (
	saltSize = 16

	argonTime    = 1
	argonMemory  = 64 * 1024
	argonThreads = 4
)

// FileTier is a durable tier for hosts without a keychain. Values are kept as
// one JSON document sealed with XChaCha20-Poly1305 under an argon2id key
// derived from the passphrase.
//
// File layout: salt(16) | nonce(24) | ciphertext.
type FileTier struct {
	path       string
	passphrase []byte
	mu         sync.Mutex

	// last derived key and its salt; argon2id is too slow to run per read
	salt        []byte
	key         []byte
	derivations int
}

var _ Tier = (*FileTier)(nil)

func NewFileTier(path, passphrase string) (*FileTier, error) {
	if passphrase == "" {
		return nil, fmt.Errorf("credential file passphrase is required")
	}
	return &FileTier{path: path, passphrase: []byte(passphrase)}, nil
}

func (f *FileTier) Get(key string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	values, err := f.load()
	if err != nil {
		return "", err
	}
	v, ok := values[key]
	if !ok {
		return "", errors.ErrNotFound
	}
	return v, nil
}

func (f *FileTier) Set(key, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	values, err := f.load()
	if err != nil {
		return err
	}
	values[key] = value
	return f.save(values)
}

func (f *FileTier) Delete(key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	values, err := f.load()
	if err != nil {
		return err
	}
	if _, ok := values[key]; !ok {
		return errors.ErrNotFound
	}
	delete(values, key)
	if len(values) == 0 {
		if err := os.Remove(f.path); err != nil && !os.IsNotExist(err) {
			return errors.Wrapf(err, "FileTier.Delete remove")
		}
		return nil
	}
	return f.save(values)
}

func (f *FileTier) load() (map[string]string, error) {
	values := make(map[string]string)

	data, err := os.ReadFile(f.path)
	if os.IsNotExist(err) {
		return values, nil
	}
	if err != nil {
		return nil, errors.Wrapf(err, "FileTier read")
	}
	if len(data) < saltSize+chacha20poly1305.NonceSizeX {
		return nil, fmt.Errorf("credential file %s is truncated", f.path)
	}

	salt := data[:saltSize]
	nonce := data[saltSize : saltSize+chacha20poly1305.NonceSizeX]
	sealed := data[saltSize+chacha20poly1305.NonceSizeX:]

	aead, err := chacha20poly1305.NewX(f.deriveKey(salt))
	if err != nil {
		return nil, err
	}
	plain, err := aead.Open(nil, nonce, sealed, nil)
	if err != nil {
		return nil, fmt.Errorf("credential file %s: cannot decrypt (wrong passphrase?)", f.path)
	}
	if err := json.Unmarshal(plain, &values); err != nil {
		return nil, errors.Wrapf(err, "FileTier decode")
	}
	return values, nil
}

func (f *FileTier) save(values map[string]string) error {
	plain, err := json.Marshal(values)
	if err != nil {
		return err
	}

	salt := f.salt
	if salt == nil {
		salt = make([]byte, saltSize)
		if _, err := rand.Read(salt); err != nil {
			return errors.Wrapf(err, "FileTier salt")
		}
	}
	nonce := make([]byte, chacha20poly1305.NonceSizeX)
	if _, err := rand.Read(nonce); err != nil {
		return errors.Wrapf(err, "FileTier nonce")
	}

	aead, err := chacha20poly1305.NewX(f.deriveKey(salt))
	if err != nil {
		return err
	}

	out := make([]byte, 0, saltSize+len(nonce)+len(plain)+aead.Overhead())
	out = append(out, salt...)
	out = append(out, nonce...)
	out = aead.Seal(out, nonce, plain, nil)

	if err := os.MkdirAll(filepath.Dir(f.path), 0o700); err != nil {
		return errors.Wrapf(err, "FileTier mkdir")
	}
	tmp := f.path + ".tmp"
	if err := os.WriteFile(tmp, out, 0o600); err != nil {
		return errors.Wrapf(err, "FileTier write")
	}
	return errors.Wrapf(os.Rename(tmp, f.path), "FileTier rename")
}

// deriveKey returns the key for salt, reusing the last derivation when the
// salt is unchanged. Must hold mu.
func (f *FileTier) deriveKey(salt []byte) []byte {
	if f.key != nil && bytes.Equal(salt, f.salt) {
		return f.key
	}
	f.salt = bytes.Clone(salt)
	f.key = argon2.IDKey(f.passphrase, salt, argonTime, argonMemory, argonThreads, chacha20poly1305.KeySize)
	f.derivations++
	return f.key
}
