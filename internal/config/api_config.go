package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	baseURLKey           = "api.base_url"
	authBaseURLKey       = "api.auth_base_url"
	refreshPathKey       = "api.refresh_path"
	httpTimeoutKey       = "api.timeout"
	requestsPerMinuteKey = "api.requests_per_minute"
	requestBurstKey      = "api.burst"
)

type API struct {
	v *viper.Viper
}

var _ APIConfig = API{}

func (a API) GetBaseURL() string {
	return strings.TrimRight(a.v.GetString(baseURLKey), "/")
}

// GetAuthBaseURL falls back to <base url>/auth when no dedicated auth host is set.
func (a API) GetAuthBaseURL() string {
	if u := strings.TrimRight(a.v.GetString(authBaseURLKey), "/"); u != "" {
		return u
	}
	return a.GetBaseURL() + "/auth"
}

func (a API) GetRefreshPath() string {
	return a.v.GetString(refreshPathKey)
}

func (a API) GetHTTPTimeout() time.Duration {
	return a.v.GetDuration(httpTimeoutKey)
}

func (a API) GetRequestsPerMinute() int {
	return a.v.GetInt(requestsPerMinuteKey)
}

func (a API) GetRequestBurst() int {
	return a.v.GetInt(requestBurstKey)
}
