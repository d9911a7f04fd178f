// SPDX-License-Identifier: Apache-2.0

/*
 * NEF QoS Configuration Factory
 */

package factory

type Config struct {
	Info          *Info          `yaml:"info"`
	Configuration *Configuration `yaml:"configuration"`
	Logger        *Logger        `yaml:"logger"`
}

type Info struct {
	Version     string `yaml:"version,omitempty"`
	Description string `yaml:"description,omitempty"`
}

type Configuration struct {
	WebServer *WebServer `yaml:"webServer"`
	// NefBaseUrl is the externally reachable address of this service. It is
	// embedded in notification transaction URLs and in the callback URI
	// handed to the PCF.
	NefBaseUrl           string                 `yaml:"nefBaseUrl"`
	Pcf                  *Pcf                   `yaml:"pcf"`
	MetricsPort          int                    `yaml:"metricsPort,omitempty"`
	Notifier             *Notifier              `yaml:"notifier,omitempty"`
	QosProfiles          map[string]*QosProfile `yaml:"qosProfiles"`
	Capif                *Capif                 `yaml:"capif,omitempty"`
	EnableAuthentication bool                   `yaml:"enableAuthentication,omitempty"`
}

type WebServer struct {
	Scheme string `yaml:"scheme"`
	IP     string `yaml:"ipv4Address"`
	Port   string `yaml:"port"`
}

// Pcf describes the policy controller endpoint. The PCF speaks cleartext
// HTTP/2 on this interface, so there is no TLS block here.
type Pcf struct {
	Host           string `yaml:"host"`
	Port           int    `yaml:"port"`
	DialTimeout    int    `yaml:"dialTimeoutSeconds,omitempty"`
	RequestTimeout int    `yaml:"requestTimeoutSeconds,omitempty"`
}

type Notifier struct {
	QueueSize     int `yaml:"queueSize,omitempty"`
	MaxRetries    int `yaml:"maxRetries,omitempty"`
	RetryInterval int `yaml:"retryIntervalSeconds,omitempty"`
}

// QosProfile maps an opaque qosReference to the bit rates and media type sent
// to the PCF. Bit-rate strings are forwarded verbatim, never renormalized.
type QosProfile struct {
	MediaType string `yaml:"mediaType"`
	MarBwUl   string `yaml:"marBwUl"`
	MarBwDl   string `yaml:"marBwDl"`
}

type Capif struct {
	Enabled      bool   `yaml:"enabled,omitempty"`
	CcfUrl       string `yaml:"ccfUrl,omitempty"`
	ProviderName string `yaml:"providerName,omitempty"`
	// CertPath is where the CAPIF-issued verification certificate is stored.
	// The auth middleware reads the JWT verification key from it.
	CertPath string `yaml:"certPath,omitempty"`
}

type Logger struct {
	NEF *LogSetting `yaml:"NEF"`
}

type LogSetting struct {
	DebugLevel string `yaml:"debugLevel,omitempty"`
}
