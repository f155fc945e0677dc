/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package httpsig

import (
	"context"
	"crypto"
	"crypto/ecdsa"
	"crypto/ed25519"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/dunglas/httpsfv"
)

const (
	signatureInputHeader = "Signature-Input"
	signatureHeader      = "Signature"
	defaultLabel         = "sig1"
)

// RFC9421Config configures the structured-field signer/verifier.
type RFC9421Config struct {
	// Components are the covered component identifiers, e.g. "@method", "@target-uri", "date", "digest".
	Components []string
	Expiration time.Duration
}

// DefaultRFC9421Config is the default set of covered components for federation requests.
func DefaultRFC9421Config() RFC9421Config {
	return RFC9421Config{
		Components: []string{"@method", "@target-uri", "date", "content-digest"},
		Expiration: defaultExpiration,
	}
}

// RFC9421Signer signs requests using RFC 9421 structured-field signatures.
type RFC9421Signer struct {
	cfg RFC9421Config
}

// NewRFC9421Signer returns a new RFC9421Signer.
func NewRFC9421Signer(cfg RFC9421Config) *RFC9421Signer {
	if cfg.Expiration == 0 {
		cfg.Expiration = defaultExpiration
	}

	if len(cfg.Components) == 0 {
		cfg = DefaultRFC9421Config()
	}

	return &RFC9421Signer{cfg: cfg}
}

// Sign implements Signer.
func (s *RFC9421Signer) Sign(req *http.Request, pKey crypto.PrivateKey, keyID string, body []byte) error {
	if req.Header.Get("Date") == "" {
		req.Header.Set("Date", date())
	}

	if len(body) > 0 {
		sum := sha256.Sum256(body)

		digestDict := httpsfv.NewDictionary()
		digestDict.Add("sha-256", *httpsfv.NewItem(sum[:]))

		digestHeader, err := httpsfv.Marshal(digestDict)
		if err != nil {
			return fmt.Errorf("marshal content-digest: %w", err)
		}

		req.Header.Set("Content-Digest", digestHeader)
	}

	created := time.Now().Unix()
	expires := created + int64(s.cfg.Expiration.Seconds())

	components := &httpsfv.InnerList{Params: httpsfv.NewParams()}

	for _, c := range s.cfg.Components {
		components.Items = append(components.Items, *httpsfv.NewItem(c))
	}

	components.Params.Add("created", created)
	components.Params.Add("expires", expires)
	components.Params.Add("keyid", keyID)
	components.Params.Add("alg", algorithmName(pKey))

	sigInput := httpsfv.NewDictionary()
	sigInput.Add(defaultLabel, *components)

	sigInputHeader, err := httpsfv.Marshal(sigInput)
	if err != nil {
		return fmt.Errorf("marshal signature-input: %w", err)
	}

	base, err := signatureBase(req, components)
	if err != nil {
		return fmt.Errorf("build signature base: %w", err)
	}

	signature, err := signBase(pKey, base)
	if err != nil {
		return fmt.Errorf("sign base: %w", err)
	}

	sigDict := httpsfv.NewDictionary()
	sigDict.Add(defaultLabel, *httpsfv.NewItem(signature))

	sigHeader, err := httpsfv.Marshal(sigDict)
	if err != nil {
		return fmt.Errorf("marshal signature: %w", err)
	}

	req.Header.Set(signatureInputHeader, sigInputHeader)
	req.Header.Set(signatureHeader, sigHeader)

	return nil
}

// RFC9421Verifier verifies RFC 9421 structured-field signatures.
type RFC9421Verifier struct{}

// NewRFC9421Verifier returns a new RFC9421Verifier.
func NewRFC9421Verifier() *RFC9421Verifier {
	return &RFC9421Verifier{}
}

// Verify implements Verifier.
func (v *RFC9421Verifier) Verify(ctx context.Context, req *http.Request, resolver KeyResolver) (string, error) {
	sigInputValues := req.Header.Values(signatureInputHeader)
	if len(sigInputValues) == 0 {
		return "", fmt.Errorf("missing %s header", signatureInputHeader)
	}

	sigInput, err := httpsfv.UnmarshalDictionary(sigInputValues)
	if err != nil {
		return "", fmt.Errorf("parse %s: %w", signatureInputHeader, err)
	}

	member, ok := sigInput.Get(defaultLabel)
	if !ok {
		return "", fmt.Errorf("missing signature label %q", defaultLabel)
	}

	components, ok := member.(httpsfv.InnerList)
	if !ok {
		return "", fmt.Errorf("signature-input member %q is not an inner list", defaultLabel)
	}

	expiresRaw, ok := components.Params.Get("expires")
	if ok {
		if expires, ok := toInt64(expiresRaw); ok && time.Now().Unix() > expires {
			return "", fmt.Errorf("signature expired")
		}
	}

	keyIDRaw, ok := components.Params.Get("keyid")
	if !ok {
		return "", fmt.Errorf("missing keyid parameter")
	}

	keyID, ok := keyIDRaw.(string)
	if !ok {
		return "", fmt.Errorf("keyid parameter is not a string")
	}

	keyIRI, err := parseKeyID(keyID)
	if err != nil {
		return "", err
	}

	pub, err := resolver.ResolveKey(ctx, keyIRI)
	if err != nil {
		return "", fmt.Errorf("resolve key [%s]: %w", keyID, err)
	}

	base, err := signatureBase(req, &components)
	if err != nil {
		return "", fmt.Errorf("build signature base: %w", err)
	}

	sigValues := req.Header.Values(signatureHeader)
	if len(sigValues) == 0 {
		return "", fmt.Errorf("missing %s header", signatureHeader)
	}

	sigDict, err := httpsfv.UnmarshalDictionary(sigValues)
	if err != nil {
		return "", fmt.Errorf("parse %s: %w", signatureHeader, err)
	}

	sigMember, ok := sigDict.Get(defaultLabel)
	if !ok {
		return "", fmt.Errorf("missing signature value for label %q", defaultLabel)
	}

	sigItem, ok := sigMember.(httpsfv.Item)
	if !ok {
		return "", fmt.Errorf("signature member %q is not a byte sequence", defaultLabel)
	}

	signature, ok := sigItem.Value.([]byte)
	if !ok {
		return "", fmt.Errorf("signature value is not a byte sequence")
	}

	if err := verifyBase(pub, base, signature); err != nil {
		return "", fmt.Errorf("verify signature for key [%s]: %w", keyID, err)
	}

	return keyID, nil
}

// signatureBase builds the RFC 9421 signature base string for the given covered components.
func signatureBase(req *http.Request, components *httpsfv.InnerList) (string, error) {
	var lines []string

	for _, item := range components.Items {
		name, ok := item.Value.(string)
		if !ok {
			return "", fmt.Errorf("component identifier is not a string")
		}

		value, err := resolveComponentValue(req, name)
		if err != nil {
			return "", err
		}

		line, err := httpsfv.Marshal(httpsfv.NewItem(name))
		if err != nil {
			return "", fmt.Errorf("marshal component identifier %q: %w", name, err)
		}

		lines = append(lines, fmt.Sprintf("%s: %s", line, value))
	}

	paramLine, err := httpsfv.Marshal(*components)
	if err != nil {
		return "", fmt.Errorf("marshal signature params: %w", err)
	}

	lines = append(lines, fmt.Sprintf("\"@signature-params\": %s", paramLine))

	return strings.Join(lines, "\n"), nil
}

func resolveComponentValue(req *http.Request, name string) (string, error) {
	switch name {
	case "@method":
		return req.Method, nil
	case "@target-uri":
		return req.URL.String(), nil
	case "@authority":
		return req.Host, nil
	case "@path":
		return req.URL.Path, nil
	default:
		v := req.Header.Get(name)
		if v == "" {
			return "", fmt.Errorf("covered component %q absent from request", name)
		}

		return v, nil
	}
}

func algorithmName(pKey crypto.PrivateKey) string {
	switch pKey.(type) {
	case ed25519.PrivateKey, *ed25519.PrivateKey:
		return "ed25519"
	case *ecdsa.PrivateKey:
		return "ecdsa-p256-sha256"
	case *rsa.PrivateKey:
		return "rsa-pss-sha512"
	default:
		return "unknown"
	}
}

func signBase(pKey crypto.PrivateKey, base string) ([]byte, error) {
	switch k := pKey.(type) {
	case ed25519.PrivateKey:
		return ed25519.Sign(k, []byte(base)), nil
	case *ecdsa.PrivateKey:
		digest := sha256.Sum256([]byte(base))

		return ecdsa.SignASN1(rand.Reader, k, digest[:]) //nolint:wrapcheck
	case *rsa.PrivateKey:
		digest := sha256.Sum256([]byte(base))

		return rsa.SignPSS(rand.Reader, k, crypto.SHA256, digest[:], nil) //nolint:wrapcheck
	default:
		return nil, fmt.Errorf("unsupported private key type %T", pKey)
	}
}

func verifyBase(pub crypto.PublicKey, base string, signature []byte) error {
	switch k := pub.(type) {
	case ed25519.PublicKey:
		if !ed25519.Verify(k, []byte(base), signature) {
			return fmt.Errorf("ed25519 verification failed")
		}

		return nil
	case *ecdsa.PublicKey:
		digest := sha256.Sum256([]byte(base))

		if !ecdsa.VerifyASN1(k, digest[:], signature) {
			return fmt.Errorf("ecdsa verification failed")
		}

		return nil
	case *rsa.PublicKey:
		digest := sha256.Sum256([]byte(base))

		return rsa.VerifyPSS(k, crypto.SHA256, digest[:], signature, nil) //nolint:wrapcheck
	default:
		return fmt.Errorf("unsupported public key type %T", pub)
	}
}

func toInt64(v interface{}) (int64, bool) {
	switch n := v.(type) {
	case int64:
		return n, true
	case int:
		return int64(n), true
	default:
		return 0, false
	}
}

func parseKeyID(keyID string) (*url.URL, error) {
	keyIRI, err := url.Parse(keyID)
	if err != nil {
		return nil, fmt.Errorf("parse key ID [%s]: %w", keyID, err)
	}

	return keyIRI, nil
}
