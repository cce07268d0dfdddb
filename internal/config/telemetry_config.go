package config

import "github.com/spf13/viper"

const (
	telemetryEndpointKey    = "telemetry.endpoint"
	telemetryProtocolKey    = "telemetry.protocol"
	telemetryInsecureKey    = "telemetry.insecure"
	telemetryServiceNameKey = "telemetry.service_name"
)

type Telemetry struct {
	v *viper.Viper
}

var _ TelemetryConfig = Telemetry{}

// GetOTLPEndpoint is empty when trace export is disabled.
func (t Telemetry) GetOTLPEndpoint() string {
	return t.v.GetString(telemetryEndpointKey)
}

// GetOTLPProtocol is "grpc" or "http".
func (t Telemetry) GetOTLPProtocol() string {
	return t.v.GetString(telemetryProtocolKey)
}

func (t Telemetry) GetOTLPInsecure() bool {
	return t.v.GetBool(telemetryInsecureKey)
}

func (t Telemetry) GetServiceName() string {
	return t.v.GetString(telemetryServiceNameKey)
}
