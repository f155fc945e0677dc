/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package keystore imports and exports the asymmetric keys used to sign and
// verify HTTP Message Signatures, across PEM (SPKI/PKCS#1), JWK, and
// Multibase/Multicodec encodings.
package keystore

import (
	"crypto"
	"crypto/ed25519"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"fmt"

	"github.com/multiformats/go-multibase"
	josejwk "github.com/square/go-jose/v3"

	ferrors "github.com/fedcore/federation/pkg/errors"
)

// Algorithm identifies a signing/verification algorithm and digest.
type Algorithm string

// Supported algorithms.
const (
	RSAPKCS1SHA256  Algorithm = "rsassa-pkcs1-v1_5-sha256"
	RSAPKCS1SHA512  Algorithm = "rsassa-pkcs1-v1_5-sha512"
	RSAPSSSHA512    Algorithm = "rsa-pss-sha512"
	ECDSAP256SHA256 Algorithm = "ecdsa-p256-sha256"
	ECDSAP384SHA384 Algorithm = "ecdsa-p384-sha384"
	Ed25519         Algorithm = "ed25519"
)

// Multicodec prefixes for the public-key encodings this store understands.
const (
	codecRSAPub     = 0x1205
	codecEd25519Pub = 0xed
)

// Usage distinguishes a signing key from a verification-only key.
type Usage int

// Key usages.
const (
	UsageSign Usage = iota
	UsageVerify
)

// Key is an asymmetric key pair or public key with an associated algorithm and URL identifier.
type Key struct {
	ID        string
	Algorithm Algorithm
	Public    crypto.PublicKey
	Private   crypto.PrivateKey
}

// ImportPEM auto-detects whether pemBytes is an SPKI ("PUBLIC KEY") or PKCS#1
// ("RSA PUBLIC KEY" / "RSA PRIVATE KEY") block and imports it.
func ImportPEM(id string, pemBytes []byte) (*Key, error) {
	block, _ := pem.Decode(pemBytes)
	if block == nil {
		return nil, ferrors.NewBadRequestf("invalid encoding: no PEM block found")
	}

	switch block.Type {
	case "PUBLIC KEY":
		return importSPKI(id, block.Bytes)
	case "RSA PUBLIC KEY":
		return importPKCS1Public(id, block.Bytes)
	case "RSA PRIVATE KEY":
		return importPKCS1Private(id, block.Bytes)
	case "PRIVATE KEY":
		return importPKCS8Private(id, block.Bytes)
	default:
		return nil, ferrors.NewBadRequestf("invalid encoding: unsupported PEM block type %q", block.Type)
	}
}

// ImportSPKI imports a public key encoded as ASN.1 SubjectPublicKeyInfo.
func ImportSPKI(id string, der []byte) (*Key, error) {
	return importSPKI(id, der)
}

func importSPKI(id string, der []byte) (*Key, error) {
	pub, err := x509.ParsePKIXPublicKey(der)
	if err != nil {
		return nil, ferrors.NewBadRequestf("invalid encoding: %v", err)
	}

	return newPublicKey(id, pub)
}

// ImportPKCS1 imports an RSA public or private key encoded as PKCS#1.
func ImportPKCS1(id string, der []byte, private bool) (*Key, error) {
	if private {
		return importPKCS1Private(id, der)
	}

	return importPKCS1Public(id, der)
}

func importPKCS1Public(id string, der []byte) (*Key, error) {
	pub, err := x509.ParsePKCS1PublicKey(der)
	if err != nil {
		return nil, ferrors.NewBadRequestf("invalid encoding: %v", err)
	}

	return newPublicKey(id, pub)
}

func importPKCS1Private(id string, der []byte) (*Key, error) {
	priv, err := x509.ParsePKCS1PrivateKey(der)
	if err != nil {
		return nil, ferrors.NewBadRequestf("invalid encoding: %v", err)
	}

	return &Key{ID: id, Algorithm: RSAPKCS1SHA256, Public: &priv.PublicKey, Private: priv}, nil
}

func importPKCS8Private(id string, der []byte) (*Key, error) {
	priv, err := x509.ParsePKCS8PrivateKey(der)
	if err != nil {
		return nil, ferrors.NewBadRequestf("invalid encoding: %v", err)
	}

	switch k := priv.(type) {
	case *rsa.PrivateKey:
		return &Key{ID: id, Algorithm: RSAPKCS1SHA256, Public: &k.PublicKey, Private: k}, nil
	case ed25519.PrivateKey:
		return &Key{ID: id, Algorithm: Ed25519, Public: k.Public(), Private: k}, nil
	default:
		return nil, ferrors.NewBadRequestf("unsupported algorithm: unrecognized private key type %T", priv)
	}
}

func newPublicKey(id string, pub crypto.PublicKey) (*Key, error) {
	switch k := pub.(type) {
	case *rsa.PublicKey:
		return &Key{ID: id, Algorithm: RSAPKCS1SHA256, Public: k}, nil
	case ed25519.PublicKey:
		return &Key{ID: id, Algorithm: Ed25519, Public: k}, nil
	default:
		return nil, ferrors.NewBadRequestf("unsupported algorithm: unrecognized public key type %T", pub)
	}
}

// ImportJWK imports a key encoded as a JSON Web Key.
func ImportJWK(id string, jwkBytes []byte) (*Key, error) {
	var jwk josejwk.JSONWebKey

	if err := jwk.UnmarshalJSON(jwkBytes); err != nil {
		return nil, ferrors.NewBadRequestf("invalid encoding: %v", err)
	}

	if !jwk.Valid() {
		return nil, ferrors.NewBadRequestf("invalid encoding: invalid jwk")
	}

	key, err := newPublicKey(id, jwk.Public().Key)
	if err != nil {
		return nil, err
	}

	if jwk.IsPublic() {
		return key, nil
	}

	key.Private = jwk.Key

	return key, nil
}

// ImportMultibase imports a public key encoded as a multibase-encoded multicodec value,
// mapping the multicodec prefix (0x1205 RSA-pub, 0xed Ed25519-pub) to the appropriate algorithm.
func ImportMultibase(id string, encoded string) (*Key, error) {
	_, data, err := multibase.Decode(encoded)
	if err != nil {
		return nil, ferrors.NewBadRequestf("invalid encoding: %v", err)
	}

	codec, n := decodeVarint(data)
	if n == 0 {
		return nil, ferrors.NewBadRequestf("invalid encoding: missing multicodec prefix")
	}

	switch codec {
	case codecRSAPub:
		return importSPKI(id, data[n:])
	case codecEd25519Pub:
		if len(data[n:]) != ed25519.PublicKeySize {
			return nil, ferrors.NewBadRequestf("invalid encoding: wrong ed25519 key length")
		}

		return newPublicKey(id, ed25519.PublicKey(data[n:]))
	default:
		return nil, ferrors.NewBadRequestf("unsupported algorithm: unrecognized multicodec prefix 0x%x", codec)
	}
}

// decodeVarint decodes an unsigned LEB128 varint, as used by multicodec prefixes.
func decodeVarint(data []byte) (uint64, int) {
	var value uint64

	var shift uint

	for i, b := range data {
		value |= uint64(b&0x7f) << shift
		if b&0x80 == 0 {
			return value, i + 1
		}

		shift += 7
	}

	return 0, 0
}

// ExportPEM exports the key's public half as 64-column-wrapped PEM-SPKI.
func ExportPEM(k *Key) ([]byte, error) {
	der, err := x509.MarshalPKIXPublicKey(k.Public)
	if err != nil {
		return nil, fmt.Errorf("marshal public key: %w", err)
	}

	return pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: der}), nil
}

// ExportJWK exports the key's public half as a JSON Web Key.
func ExportJWK(k *Key) ([]byte, error) {
	jwk := josejwk.JSONWebKey{Key: k.Public, KeyID: k.ID}

	return jwk.MarshalJSON()
}

// ExportMultibase exports an RSA or Ed25519 public key as a base58btc-encoded multicodec value.
func ExportMultibase(k *Key) (string, error) {
	var codec uint64

	var body []byte

	switch pub := k.Public.(type) {
	case *rsa.PublicKey:
		der, err := x509.MarshalPKIXPublicKey(pub)
		if err != nil {
			return "", fmt.Errorf("marshal public key: %w", err)
		}

		codec, body = codecRSAPub, der
	case ed25519.PublicKey:
		codec, body = codecEd25519Pub, pub
	default:
		return "", ferrors.NewBadRequestf("unsupported algorithm: unrecognized public key type %T", k.Public)
	}

	return multibase.Encode(multibase.Base58BTC, append(encodeVarint(codec), body...))
}

func encodeVarint(v uint64) []byte {
	var buf []byte

	for v >= 0x80 {
		buf = append(buf, byte(v)|0x80)
		v >>= 7
	}

	return append(buf, byte(v))
}

// Validate enforces that a key intended for the given usage carries the appropriate
// half (signing requires a private key) and that its algorithm is supported.
func Validate(k *Key, usage Usage) error {
	switch k.Algorithm {
	case RSAPKCS1SHA256, RSAPKCS1SHA512, RSAPSSSHA512, ECDSAP256SHA256, ECDSAP384SHA384, Ed25519:
	default:
		return ferrors.NewBadRequestf("unsupported algorithm: %s", k.Algorithm)
	}

	if usage == UsageSign && k.Private == nil {
		return ferrors.NewBadRequestf("invalid encoding: key %s has no private half for signing", k.ID)
	}

	return nil
}
