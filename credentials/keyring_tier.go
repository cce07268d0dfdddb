package credentials

import (
	"github.com/zalando/go-keyring"

	"github.com/jrsteele09/go-schooltracker-client/internal/errors"
)

// KeyringTier is the durable tier backed by the OS keychain.
type KeyringTier struct {
	service string
}

var _ Tier = KeyringTier{}

func NewKeyringTier(service string) KeyringTier {
	return KeyringTier{service: service}
}

func (k KeyringTier) Get(key string) (string, error) {
	v, err := keyring.Get(k.service, key)
	if errors.Is(err, keyring.ErrNotFound) {
		return "", errors.ErrNotFound
	}
	if err != nil {
		return "", errors.Wrapf(err, "keyring.Get %s", key)
	}
	return v, nil
}

func (k KeyringTier) Set(key, value string) error {
	return errors.Wrapf(keyring.Set(k.service, key, value), "keyring.Set %s", key)
}

func (k KeyringTier) Delete(key string) error {
	err := keyring.Delete(k.service, key)
	if errors.Is(err, keyring.ErrNotFound) {
		return errors.ErrNotFound
	}
	return errors.Wrapf(err, "keyring.Delete %s", key)
}
