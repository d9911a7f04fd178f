// SPDX-License-Identifier: Apache-2.0

// Package auth validates the OAuth2 bearer tokens invoking AFs present on the
// northbound API. Tokens are issued by the CAPIF core function and verified
// against the certificate obtained during provider onboarding.
package auth

import (
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt"

	"github.com/opennetsys/nefqos/backend/logger"
	"github.com/opennetsys/nefqos/qosmodels"
)

type invokerClaims struct {
	Scope string `json:"scope"`
	jwt.StandardClaims
}

// LoadVerificationKey reads a PEM certificate and returns its RSA public key.
func LoadVerificationKey(certPath string) (*rsa.PublicKey, error) {
	raw, err := os.ReadFile(certPath)
	if err != nil {
		return nil, fmt.Errorf("read certificate: %w", err)
	}
	block, _ := pem.Decode(raw)
	if block == nil {
		return nil, fmt.Errorf("no PEM block in %s", certPath)
	}
	cert, err := x509.ParseCertificate(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("parse certificate: %w", err)
	}
	pub, ok := cert.PublicKey.(*rsa.PublicKey)
	if !ok {
		return nil, fmt.Errorf("certificate key is %T, want RSA", cert.PublicKey)
	}
	return pub, nil
}

// Middleware rejects northbound requests that do not carry a valid bearer
// token. The PCF callback endpoint is left open: the PCF is not a CAPIF
// invoker.
func Middleware(pub *rsa.PublicKey) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !strings.HasPrefix(c.Request.URL.Path, "/3gpp-as-session-with-qos/") {
			c.Next()
			return
		}
		if _, err := getClaimsFromAuthorizationHeader(c.Request.Header.Get("Authorization"), pub); err != nil {
			logger.AuthLog.Errorln(err.Error())
			c.JSON(http.StatusUnauthorized, qosmodels.ProblemDetails{
				Title:    http.StatusText(http.StatusUnauthorized),
				Status:   http.StatusUnauthorized,
				Detail:   err.Error(),
				Instance: c.Request.URL.String(),
				Cause:    "UNAUTHORIZED",
			})
			c.Abort()
			return
		}
		c.Next()
	}
}

func getClaimsFromAuthorizationHeader(header string, pub *rsa.PublicKey) (*invokerClaims, error) {
	if header == "" {
		return nil, fmt.Errorf("authorization header not found")
	}
	bearerToken := strings.Split(header, " ")
	if len(bearerToken) != 2 || bearerToken[0] != "Bearer" {
		return nil, fmt.Errorf("authorization header couldn't be processed. The expected format is 'Bearer token'")
	}
	claims, err := getClaimsFromJWT(bearerToken[1], pub)
	if err != nil {
		return nil, fmt.Errorf("token is not valid")
	}
	return claims, nil
}

func getClaimsFromJWT(bearerToken string, pub *rsa.PublicKey) (*invokerClaims, error) {
	claims := invokerClaims{}
	token, err := jwt.ParseWithClaims(bearerToken, &claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodRSA); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return pub, nil
	})
	if err != nil || !token.Valid {
		return nil, err
	}
	return &claims, nil
}
