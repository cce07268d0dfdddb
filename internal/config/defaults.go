package config

import (
	"time"

	"github.com/spf13/viper"
)

func setDefaults(v *viper.Viper) {
	v.SetDefault(appNameKey, "School Tracker")
	v.SetDefault(envKey, "DEV")
	v.SetDefault(logLevelKey, "info")

	v.SetDefault(baseURLKey, "http://localhost:8000/api")
	v.SetDefault(authBaseURLKey, "")
	v.SetDefault(refreshPathKey, "/token/refresh/")
	v.SetDefault(httpTimeoutKey, 15*time.Second)
	v.SetDefault(requestsPerMinuteKey, 0) // unlimited
	v.SetDefault(requestBurstKey, 10)

	v.SetDefault(stalenessWindowKey, 5*time.Minute)
	v.SetDefault(detailCacheSizeKey, 256)
	v.SetDefault(detailCacheTTLKey, 5*time.Minute)
	v.SetDefault(snapshotPathKey, "")

	v.SetDefault(credentialTierKey, TierKeyring)
	v.SetDefault(keyringServiceKey, "schooltracker")
	v.SetDefault(credentialFileKey, "./data/credentials.enc")
	v.SetDefault(credentialPassphraseKey, "")

	v.SetDefault(telemetryEndpointKey, "")
	v.SetDefault(telemetryProtocolKey, "grpc")
	v.SetDefault(telemetryInsecureKey, false)
	v.SetDefault(telemetryServiceNameKey, "schooltracker-cli")
}
