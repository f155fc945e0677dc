/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package httpsig

import (
	"context"
	"crypto"
	"fmt"
	"net/http"
	"time"

	"github.com/fedcore/federation/pkg/kv"
)

const memoryNamespace = "httpsigDialect"

// memoryTTL bounds how long a peer's remembered dialect is trusted before
// it is re-probed; peers do upgrade from legacy to RFC 9421 over time.
const memoryTTL = 30 * 24 * time.Hour

type dialectRecord struct {
	Dialect Dialect `json:"dialect"`
}

// DoubleKnockSigner signs outgoing requests with RFC 9421 first and falls back to
// the legacy dialect, remembering which dialect worked for a given key ID so
// subsequent requests to the same peer skip the probe.
type DoubleKnockSigner struct {
	rfc9421 Signer
	legacy  Signer
	memory  kv.Store
}

// NewDoubleKnockSigner returns a new DoubleKnockSigner.
func NewDoubleKnockSigner(rfc9421, legacy Signer, memory kv.Store) *DoubleKnockSigner {
	return &DoubleKnockSigner{rfc9421: rfc9421, legacy: legacy, memory: memory}
}

// Sign signs req, preferring the dialect previously remembered for keyID, defaulting
// to RFC 9421 when nothing is remembered yet.
func (s *DoubleKnockSigner) Sign(ctx context.Context, req *http.Request, pKey crypto.PrivateKey, keyID string, body []byte) (Dialect, error) {
	dialect := s.rememberedDialect(ctx, keyID)

	signer := s.rfc9421
	if dialect == DialectLegacy {
		signer = s.legacy
	}

	if err := signer.Sign(req, pKey, keyID, body); err != nil {
		return "", fmt.Errorf("sign with dialect %s: %w", dialect, err)
	}

	return dialect, nil
}

// RememberOutcome records which dialect a peer actually accepted, so future requests
// to the same key ID skip straight to it.
func (s *DoubleKnockSigner) RememberOutcome(ctx context.Context, keyID string, dialect Dialect) {
	if s.memory == nil {
		return
	}

	if err := s.memory.Set(ctx, []string{memoryNamespace, keyID}, &dialectRecord{Dialect: dialect}, memoryTTL); err != nil {
		logger.Warnf("failed to remember httpsig dialect for [%s]: %s", keyID, err)
	}
}

func (s *DoubleKnockSigner) rememberedDialect(ctx context.Context, keyID string) Dialect {
	if s.memory == nil {
		return DialectRFC9421
	}

	var rec dialectRecord

	if err := s.memory.Get(ctx, []string{memoryNamespace, keyID}, &rec); err != nil {
		return DialectRFC9421
	}

	return rec.Dialect
}

// DoubleKnockVerifier verifies incoming requests by detecting which dialect they
// were signed with and dispatching to the matching Verifier.
type DoubleKnockVerifier struct {
	rfc9421 Verifier
	legacy  Verifier
}

// NewDoubleKnockVerifier returns a new DoubleKnockVerifier.
func NewDoubleKnockVerifier(rfc9421, legacy Verifier) *DoubleKnockVerifier {
	return &DoubleKnockVerifier{rfc9421: rfc9421, legacy: legacy}
}

// Verify detects the signature dialect present on req and verifies it, returning
// the key ID the request was signed with along with the dialect that succeeded.
func (v *DoubleKnockVerifier) Verify(ctx context.Context, req *http.Request, resolver KeyResolver) (string, Dialect, error) {
	if CanVerify(DialectRFC9421, req) {
		keyID, err := v.rfc9421.Verify(ctx, req, resolver)
		if err == nil {
			return keyID, DialectRFC9421, nil
		}

		if !CanVerify(DialectLegacy, req) {
			return "", "", fmt.Errorf("verify rfc9421 signature: %w", err)
		}

		logger.Debugf("RFC 9421 verification failed, falling back to legacy dialect: %s", err)
	}

	if !CanVerify(DialectLegacy, req) {
		return "", "", fmt.Errorf("request carries no recognized HTTP signature")
	}

	keyID, err := v.legacy.Verify(ctx, req, resolver)
	if err != nil {
		return "", "", fmt.Errorf("verify legacy signature: %w", err)
	}

	return keyID, DialectLegacy, nil
}
