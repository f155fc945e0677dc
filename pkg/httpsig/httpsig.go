/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package httpsig signs and verifies HTTP requests exchanged between federated
// servers. Two signature dialects are supported: the legacy draft-cavage
// scheme (the teacher's original pkg/activitypub/httpsig, generalized here)
// and RFC 9421 ("HTTP Message Signatures"). Package doubleknock negotiates
// between them per peer and remembers the outcome in a pkg/kv store so a
// given peer is only probed once.
package httpsig

import (
	"context"
	"crypto"
	"net/http"
	"net/url"
	"time"

	"github.com/trustbloc/edge-core/pkg/log"
)

var logger = log.New("httpsig")

// Dialect identifies which signature scheme produced or should verify a signature.
type Dialect string

const (
	// DialectLegacy is the draft-cavage-http-signatures scheme (go-fed/httpsig).
	DialectLegacy Dialect = "legacy"
	// DialectRFC9421 is the structured-field scheme defined by RFC 9421.
	DialectRFC9421 Dialect = "rfc9421"
)

const defaultExpiration = 60 * time.Second

// KeyResolver resolves the signing/verification key for an actor's key ID IRI.
type KeyResolver interface {
	ResolveKey(ctx context.Context, keyID *url.URL) (crypto.PublicKey, error)
}

// Signer signs an HTTP request with the given private key, key ID, and body.
type Signer interface {
	Sign(req *http.Request, pKey crypto.PrivateKey, keyID string, body []byte) error
}

// Verifier verifies the signature on an HTTP request and returns the key ID it was signed with.
type Verifier interface {
	Verify(ctx context.Context, req *http.Request, resolver KeyResolver) (string, error)
}

// CanVerify reports whether req carries a signature in this dialect.
func CanVerify(dialect Dialect, req *http.Request) bool {
	switch dialect {
	case DialectRFC9421:
		return req.Header.Get(signatureInputHeader) != "" && req.Header.Get(signatureHeader) != ""
	case DialectLegacy:
		return req.Header.Get("Signature") != "" || req.Header.Get("Authorization") != ""
	default:
		return false
	}
}

func date() string {
	return time.Now().UTC().Format(http.TimeFormat)
}
