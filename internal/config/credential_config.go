package config

import "github.com/spf13/viper"

const (
	credentialTierKey       = "credentials.tier"
	keyringServiceKey       = "credentials.keyring_service"
	credentialFileKey       = "credentials.file_path"
	credentialPassphraseKey = "credentials.passphrase"

	TierKeyring = "keyring"
	TierFile    = "file"
)

type Credentials struct {
	v *viper.Viper
}

var _ CredentialConfig = Credentials{}

// GetCredentialTier selects the durable tier: "keyring" or "file".
func (c Credentials) GetCredentialTier() string {
	return c.v.GetString(credentialTierKey)
}

func (c Credentials) GetKeyringService() string {
	return c.v.GetString(keyringServiceKey)
}

func (c Credentials) GetCredentialFile() string {
	return c.v.GetString(credentialFileKey)
}

func (c Credentials) GetCredentialPassphrase() string {
	return c.v.GetString(credentialPassphraseKey)
}
