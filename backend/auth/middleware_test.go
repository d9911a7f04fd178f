// SPDX-License-Identifier: Apache-2.0

package auth

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/json"
	"encoding/pem"
	"math/big"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt"

	"github.com/opennetsys/nefqos/qosmodels"
)

func writeTestCert(t *testing.T, key *rsa.PrivateKey) string {
	t.Helper()
	template := x509.Certificate{
		SerialNumber: big.NewInt(1),
		Subject:      pkix.Name{CommonName: "capif-test"},
		NotBefore:    time.Now().Add(-time.Hour),
		NotAfter:     time.Now().Add(time.Hour),
	}
	der, err := x509.CreateCertificate(rand.Reader, &template, &template, &key.PublicKey, key)
	if err != nil {
		t.Fatalf("create certificate: %v", err)
	}
	certPath := filepath.Join(t.TempDir(), "capif.pem")
	out := pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: der})
	if err := os.WriteFile(certPath, out, 0o600); err != nil {
		t.Fatalf("write certificate: %v", err)
	}
	return certPath
}

func signToken(t *testing.T, key *rsa.PrivateKey) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodRS256, invokerClaims{
		Scope: "3gpp-as-session-with-qos",
		StandardClaims: jwt.StandardClaims{
			Subject:   "invoker-1",
			ExpiresAt: time.Now().Add(time.Hour).Unix(),
		},
	})
	signed, err := token.SignedString(key)
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return signed
}

func setUpRouter(t *testing.T, key *rsa.PrivateKey) *gin.Engine {
	t.Helper()
	pub, err := LoadVerificationKey(writeTestCert(t, key))
	if err != nil {
		t.Fatalf("LoadVerificationKey: %v", err)
	}
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(Middleware(pub))
	router.GET("/3gpp-as-session-with-qos/v1/af1/subscriptions", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"Result": "Operation Executed"})
	})
	router.POST("/nefcallbacks/v1/app-sessions/166", func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})
	return router
}

func newKey(t *testing.T) *rsa.PrivateKey {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	return key
}

func TestMiddlewareValidToken(t *testing.T) {
	key := newKey(t)
	router := setUpRouter(t, key)

	req := httptest.NewRequest(http.MethodGet, "/3gpp-as-session-with-qos/v1/af1/subscriptions", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, key))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Errorf("status = %d, body %s", w.Code, w.Body.String())
	}
}

func TestMiddlewareRejections(t *testing.T) {
	key := newKey(t)
	router := setUpRouter(t, key)
	otherKey := newKey(t)

	tests := []struct {
		name   string
		header string
	}{
		{"no header", ""},
		{"not bearer", "Basic abc"},
		{"garbage token", "Bearer not.a.token"},
		{"wrong key", "Bearer " + signToken(t, otherKey)},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/3gpp-as-session-with-qos/v1/af1/subscriptions", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)
			if w.Code != http.StatusUnauthorized {
				t.Errorf("status = %d, want 401", w.Code)
			}
			var pd qosmodels.ProblemDetails
			if err := json.Unmarshal(w.Body.Bytes(), &pd); err != nil {
				t.Fatalf("401 body is not ProblemDetails: %v", err)
			}
			if pd.Instance != "/3gpp-as-session-with-qos/v1/af1/subscriptions" {
				t.Errorf("401 instance = %q, want the triggering URL", pd.Instance)
			}
		})
	}
}

func TestMiddlewareLeavesCallbackPathOpen(t *testing.T) {
	key := newKey(t)
	router := setUpRouter(t, key)

	req := httptest.NewRequest(http.MethodPost, "/nefcallbacks/v1/app-sessions/166", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusNoContent {
		t.Errorf("callback path blocked: status = %d", w.Code)
	}
}

func TestLoadVerificationKeyErrors(t *testing.T) {
	if _, err := LoadVerificationKey(filepath.Join(t.TempDir(), "missing.pem")); err == nil {
		t.Error("expected error for missing file")
	}
	badPath := filepath.Join(t.TempDir(), "bad.pem")
	if err := os.WriteFile(badPath, []byte("not pem at all"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadVerificationKey(badPath); err == nil {
		t.Error("expected error for non-PEM content")
	}
}
