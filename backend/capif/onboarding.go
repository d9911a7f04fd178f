// SPDX-License-Identifier: Apache-2.0

// Package capif onboards this service as an API provider at the CAPIF core
// function and publishes the AsSessionWithQoS service API, per TS 29.222.
// Onboarding yields the certificate the auth middleware later verifies
// invoker tokens against.
package capif

import (
	"bytes"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/opennetsys/nefqos/backend/factory"
	"github.com/opennetsys/nefqos/backend/logger"
)

const (
	registrationsPath = "/api-provider-management/v1/registrations"
	serviceApisPath   = "/published-apis/v1/%s/service-apis"
)

type Connector struct {
	ccfUrl       string
	providerName string
	certPath     string
	client       *http.Client

	registrationId string
	apfId          string
	aefId          string
	serviceApiId   string
}

func NewConnector(cfg *factory.Capif) *Connector {
	return &Connector{
		ccfUrl:       cfg.CcfUrl,
		providerName: cfg.ProviderName,
		certPath:     cfg.CertPath,
		client: &http.Client{
			Timeout: 10 * time.Second,
			Transport: &http.Transport{
				// the CCF presents a self-signed certificate in lab deployments
				TLSClientConfig: &tls.Config{InsecureSkipVerify: true},
			},
		},
	}
}

type providerFunc struct {
	ApiProvFuncId   string `json:"apiProvFuncId,omitempty"`
	ApiProvFuncRole string `json:"apiProvFuncRole"`
	ApiProvFuncInfo string `json:"apiProvFuncInfo,omitempty"`
}

type providerRegistration struct {
	ApiProvDomId     string         `json:"apiProvDomId,omitempty"`
	ApiProvDomInfo   string         `json:"apiProvDomInfo"`
	ApiProvFuncs     []providerFunc `json:"apiProvFuncs"`
	ProviderCertPem  string         `json:"providerCertPem,omitempty"`
	SuppFeat         string         `json:"suppFeat"`
}

type serviceApiDescription struct {
	ApiId          string `json:"apiId,omitempty"`
	ApiName        string `json:"apiName"`
	AefId          string `json:"aefId"`
	ApiVersion     string `json:"apiVersion"`
	Protocol       string `json:"protocol"`
	DataFormat     string `json:"dataFormat"`
	ApiSuppFeats   string `json:"apiSuppFeats"`
	InterfaceDescr string `json:"interfaceDescr,omitempty"`
}

// OnboardProvider registers the provider domain at the core function, stores
// the certificate it issues, and publishes the service API description.
func (c *Connector) OnboardProvider(apiBaseUrl string) error {
	registration := providerRegistration{
		ApiProvDomInfo: c.providerName,
		ApiProvFuncs: []providerFunc{
			{ApiProvFuncRole: "APF", ApiProvFuncInfo: c.providerName + "-apf"},
			{ApiProvFuncRole: "AEF", ApiProvFuncInfo: c.providerName + "-aef"},
		},
		SuppFeat: "0",
	}
	var created providerRegistration
	if err := c.post(c.ccfUrl+registrationsPath, registration, &created); err != nil {
		return fmt.Errorf("provider registration: %w", err)
	}
	c.registrationId = created.ApiProvDomId
	for _, fn := range created.ApiProvFuncs {
		switch fn.ApiProvFuncRole {
		case "APF":
			c.apfId = fn.ApiProvFuncId
		case "AEF":
			c.aefId = fn.ApiProvFuncId
		}
	}
	if c.apfId == "" || c.aefId == "" {
		return fmt.Errorf("registration response missing APF/AEF function ids")
	}
	if created.ProviderCertPem == "" {
		return fmt.Errorf("registration response carried no certificate")
	}
	if err := os.WriteFile(c.certPath, []byte(created.ProviderCertPem), 0o600); err != nil {
		return fmt.Errorf("store provider certificate: %w", err)
	}
	logger.CapifLog.Infof("registered provider domain %s (apf=%s aef=%s)",
		c.registrationId, c.apfId, c.aefId)

	description := serviceApiDescription{
		ApiName:        "3gpp-as-session-with-qos",
		AefId:          c.aefId,
		ApiVersion:     "v1",
		Protocol:       "HTTP_1_1",
		DataFormat:     "JSON",
		ApiSuppFeats:   "0",
		InterfaceDescr: apiBaseUrl + "/3gpp-as-session-with-qos/v1",
	}
	var published serviceApiDescription
	if err := c.post(c.ccfUrl+fmt.Sprintf(serviceApisPath, c.apfId), description, &published); err != nil {
		return fmt.Errorf("publish service API: %w", err)
	}
	c.serviceApiId = published.ApiId
	logger.CapifLog.Infof("published service API %s", c.serviceApiId)
	return nil
}

// OffboardProvider withdraws the published API and the provider registration.
// Failures are logged, not returned: offboarding runs on shutdown where
// nothing can act on the error.
func (c *Connector) OffboardProvider() {
	if c.serviceApiId != "" {
		url := c.ccfUrl + fmt.Sprintf(serviceApisPath, c.apfId) + "/" + c.serviceApiId
		if err := c.delete(url); err != nil {
			logger.CapifLog.Warnf("withdraw service API: %v", err)
		}
	}
	if c.registrationId != "" {
		if err := c.delete(c.ccfUrl + registrationsPath + "/" + c.registrationId); err != nil {
			logger.CapifLog.Warnf("deregister provider: %v", err)
		}
	}
	logger.CapifLog.Infoln("provider offboarding completed")
}

func (c *Connector) post(url string, in, out interface{}) error {
	body, err := json.Marshal(in)
	if err != nil {
		return err
	}
	resp, err := c.client.Post(url, "application/json", bytes.NewReader(body))
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode/100 != 2 {
		return fmt.Errorf("core function answered %d: %s", resp.StatusCode, raw)
	}
	return json.Unmarshal(raw, out)
}

func (c *Connector) delete(url string) error {
	req, err := http.NewRequest(http.MethodDelete, url, nil)
	if err != nil {
		return err
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode/100 != 2 && resp.StatusCode != http.StatusNotFound {
		return fmt.Errorf("core function answered %d", resp.StatusCode)
	}
	return nil
}
