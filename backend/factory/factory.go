// SPDX-License-Identifier: Apache-2.0

/*
 * NEF QoS Configuration Factory
 */

package factory

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v2"

	"github.com/opennetsys/nefqos/qosmodels"
)

const (
	defaultDialTimeout    = 5
	defaultRequestTimeout = 10
	defaultQueueSize      = 64
	defaultMaxRetries     = 3
	defaultRetryInterval  = 2
	defaultMetricsPort    = 9090
)

var NefConfig Config

func InitConfigFactory(f string) error {
	content, err := os.ReadFile(f)
	if err != nil {
		return fmt.Errorf("[Configuration] %+v", err)
	}

	NefConfig = Config{}
	if yamlErr := yaml.Unmarshal(content, &NefConfig); yamlErr != nil {
		return fmt.Errorf("[Configuration] %+v", yamlErr)
	}

	return validateConfig(&NefConfig)
}

func validateConfig(cfg *Config) error {
	c := cfg.Configuration
	if c == nil {
		return fmt.Errorf("[Configuration] configuration section is missing")
	}
	if c.Pcf == nil || c.Pcf.Host == "" || c.Pcf.Port == 0 {
		return fmt.Errorf("[Configuration] pcf host and port are required")
	}
	if c.NefBaseUrl == "" {
		return fmt.Errorf("[Configuration] nefBaseUrl is required")
	}
	if c.Pcf.DialTimeout == 0 {
		c.Pcf.DialTimeout = defaultDialTimeout
	}
	if c.Pcf.RequestTimeout == 0 {
		c.Pcf.RequestTimeout = defaultRequestTimeout
	}
	if c.MetricsPort == 0 {
		c.MetricsPort = defaultMetricsPort
	}
	if c.Notifier == nil {
		c.Notifier = &Notifier{}
	}
	if c.Notifier.QueueSize == 0 {
		c.Notifier.QueueSize = defaultQueueSize
	}
	if c.Notifier.MaxRetries == 0 {
		c.Notifier.MaxRetries = defaultMaxRetries
	}
	if c.Notifier.RetryInterval == 0 {
		c.Notifier.RetryInterval = defaultRetryInterval
	}
	for ref, profile := range c.QosProfiles {
		if !qosmodels.ValidBitRate(profile.MarBwUl) || !qosmodels.ValidBitRate(profile.MarBwDl) {
			return fmt.Errorf("[Configuration] qos profile %q has malformed bit rate", ref)
		}
		if !qosmodels.ValidMediaType(profile.MediaType) {
			return fmt.Errorf("[Configuration] qos profile %q has unknown media type %q", ref, profile.MediaType)
		}
	}
	return nil
}
