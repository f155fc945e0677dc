/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package federation

import (
	"context"
	"crypto"
	"crypto/x509"
	"encoding/json"
	"encoding/pem"
	"fmt"
	"net/url"

	ferrors "github.com/fedcore/federation/pkg/errors"
	"github.com/fedcore/federation/pkg/docloader"
)

// actorPublicKey is the subset of an actor document's publicKey property this
// resolver needs; the remainder of the actor document is ignored.
type actorPublicKey struct {
	PublicKey struct {
		ID           string `json:"id"`
		PublicKeyPem string `json:"publicKeyPem"`
	} `json:"publicKey"`
}

// DocumentKeyResolver resolves a key ID IRI to a public key by fetching the
// owning actor's document through a docloader.Loader and PEM-decoding its
// publicKeyPem property, adapting the teacher's KMS-backed
// pkg/activitypub/httpsig.KeyResolver from a locally-retrieved actor store
// into one that fetches remote actors over the wire.
type DocumentKeyResolver struct {
	loader *docloader.Loader
}

// NewDocumentKeyResolver returns a DocumentKeyResolver that fetches actor
// documents through loader.
func NewDocumentKeyResolver(loader *docloader.Loader) *DocumentKeyResolver {
	return &DocumentKeyResolver{loader: loader}
}

// ResolveKey fetches the actor document owning keyID and returns its public key.
func (r *DocumentKeyResolver) ResolveKey(_ context.Context, keyID *url.URL) (crypto.PublicKey, error) {
	actorURI := *keyID
	actorURI.Fragment = ""

	doc, err := r.loader.LoadDocument(actorURI.String())
	if err != nil {
		return nil, fmt.Errorf("load actor document for key %s: %w", keyID, err)
	}

	body, ok := doc.Document.(string)
	if !ok {
		return nil, ferrors.NewBadRequestf("unexpected actor document shape at %s", actorURI.String())
	}

	var actor actorPublicKey

	if err := json.Unmarshal([]byte(body), &actor); err != nil {
		return nil, ferrors.NewBadRequestf("parse actor document at %s: %w", actorURI.String(), err)
	}

	if actor.PublicKey.PublicKeyPem == "" {
		return nil, ferrors.NewNotFoundf("actor %s has no publicKeyPem", actorURI.String())
	}

	block, _ := pem.Decode([]byte(actor.PublicKey.PublicKeyPem))
	if block == nil {
		return nil, ferrors.NewBadRequestf("invalid public key for actor %s: no PEM block", actorURI.String())
	}

	pub, err := x509.ParsePKIXPublicKey(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("parse public key for actor %s: %w", actorURI.String(), err)
	}

	return pub, nil
}
