/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package httpsig

import (
	"context"
	"crypto"
	"crypto/x509"
	"encoding/pem"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/go-fed/httpsig"
)

// LegacyConfig configures the draft-cavage signer/verifier.
type LegacyConfig struct {
	Algorithms      []httpsig.Algorithm
	DigestAlgorithm httpsig.DigestAlgorithm
	Headers         []string
	Expiration      time.Duration
}

// DefaultLegacyGetConfig is the default configuration for signing GET requests.
func DefaultLegacyGetConfig() LegacyConfig {
	return LegacyConfig{
		Algorithms: []httpsig.Algorithm{"ed25519", "rsa-sha256", "rsa-sha512"},
		Headers:    []string{"(request-target)", "Date"},
	}
}

// DefaultLegacyPostConfig is the default configuration for signing POST requests.
func DefaultLegacyPostConfig() LegacyConfig {
	return LegacyConfig{
		Algorithms:      []httpsig.Algorithm{"ed25519", "rsa-sha256", "rsa-sha512"},
		DigestAlgorithm: "SHA-256",
		Headers:         []string{"(request-target)", "Date", "Digest"},
	}
}

// LegacySigner signs HTTP requests using the draft-cavage dialect.
type LegacySigner struct {
	cfg LegacyConfig
}

// NewLegacySigner returns a new LegacySigner.
func NewLegacySigner(cfg LegacyConfig) *LegacySigner {
	if cfg.Expiration == 0 {
		cfg.Expiration = defaultExpiration
	}

	return &LegacySigner{cfg: cfg}
}

// Sign implements Signer.
func (s *LegacySigner) Sign(req *http.Request, pKey crypto.PrivateKey, keyID string, body []byte) error {
	signer, _, err := httpsig.NewSigner(s.cfg.Algorithms, s.cfg.DigestAlgorithm, s.cfg.Headers,
		httpsig.Signature, int64(s.cfg.Expiration.Seconds()))
	if err != nil {
		return fmt.Errorf("new legacy signer: %w", err)
	}

	if req.Header.Get("Date") == "" {
		req.Header.Set("Date", date())
	}

	if err := signer.SignRequest(pKey, keyID, req, body); err != nil {
		return fmt.Errorf("sign request: %w", err)
	}

	return nil
}

// LegacyVerifier verifies draft-cavage signatures.
type LegacyVerifier struct {
	Algorithms []httpsig.Algorithm
}

// NewLegacyVerifier returns a new LegacyVerifier.
func NewLegacyVerifier(algorithms ...httpsig.Algorithm) *LegacyVerifier {
	if len(algorithms) == 0 {
		algorithms = []httpsig.Algorithm{httpsig.ED25519, "rsa-sha256", "rsa-sha512"}
	}

	return &LegacyVerifier{Algorithms: algorithms}
}

// Verify implements Verifier.
func (v *LegacyVerifier) Verify(ctx context.Context, req *http.Request, resolver KeyResolver) (string, error) {
	verifier, err := httpsig.NewVerifier(req)
	if err != nil {
		return "", fmt.Errorf("new legacy verifier: %w", err)
	}

	keyID := verifier.KeyId()

	keyIRI, err := url.Parse(keyID)
	if err != nil {
		return "", fmt.Errorf("parse key ID [%s]: %w", keyID, err)
	}

	pub, err := resolver.ResolveKey(ctx, keyIRI)
	if err != nil {
		return "", fmt.Errorf("resolve key [%s]: %w", keyID, err)
	}

	pub, err = normalizePublicKey(pub)
	if err != nil {
		return "", fmt.Errorf("normalize key [%s]: %w", keyID, err)
	}

	var lastErr error

	for _, algo := range v.Algorithms {
		lastErr = verifier.Verify(pub, algo)
		if lastErr == nil {
			return keyID, nil
		}
	}

	return "", fmt.Errorf("verify signature for key [%s]: %w", keyID, lastErr)
}

// normalizePublicKey accepts either a crypto.PublicKey or PEM-encoded SPKI bytes,
// matching the two shapes KeyResolver implementations tend to return.
func normalizePublicKey(pub crypto.PublicKey) (crypto.PublicKey, error) {
	der, ok := pub.([]byte)
	if !ok {
		return pub, nil
	}

	block, _ := pem.Decode(der)
	if block != nil {
		der = block.Bytes
	}

	parsed, err := x509.ParsePKIXPublicKey(der)
	if err != nil {
		return nil, fmt.Errorf("parse PKIX public key: %w", err)
	}

	return parsed, nil
}
