/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package docloader is the authenticated, caching JSON-LD document loader used
// to dereference remote activities, actors, and contexts. It implements
// github.com/piprate/json-gold/ld.DocumentLoader so it can be handed directly
// to json-gold's normalization and expansion routines, the same contract the
// teacher's vocabulary package expects of a document loader.
package docloader

import (
	"context"
	"crypto"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/piprate/json-gold/ld"
	"github.com/trustbloc/edge-core/pkg/log"
	"golang.org/x/net/html"

	ferrors "github.com/fedcore/federation/pkg/errors"
	"github.com/fedcore/federation/pkg/kv"
	"github.com/fedcore/federation/pkg/urlguard"
)

var logger = log.New("docloader")

const (
	cacheNamespace     = "remote_document"
	defaultTimeout     = 30 * time.Second
	defaultMaxRedirect = 5
	acceptHeader       = `application/ld+json, application/activity+json, application/json;q=0.9`
)

type httpClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Config holds the document loader's tunables.
type Config struct {
	Timeout         time.Duration
	MaxRedirects    int
	CacheTTL        time.Duration
	AllowPrivateNet bool
}

// DefaultConfig returns the document loader's default configuration.
func DefaultConfig() Config {
	return Config{
		Timeout:      defaultTimeout,
		MaxRedirects: defaultMaxRedirect,
		CacheTTL:     time.Hour,
	}
}

// Loader fetches and caches remote JSON-LD documents, enforcing the URL
// guard's public/private classification before every dial.
type Loader struct {
	cfg    Config
	client httpClient
	guard  *urlguard.Guard
	cache  kv.Store
}

// New returns a new Loader. cache may be nil, in which case documents are
// never cached between calls.
func New(cfg Config, client httpClient, guard *urlguard.Guard, cache kv.Store) *Loader {
	if client == nil {
		client = &http.Client{Timeout: cfg.Timeout}
	}

	return &Loader{cfg: cfg, client: client, guard: guard, cache: cache}
}

// cachedDocument is the shape persisted in the KV cache.
type cachedDocument struct {
	DocumentURL string
	ContextURL  string
	Document    string
}

// LoadDocument implements ld.DocumentLoader. It resolves u, following
// redirects up to Config.MaxRedirects, discovers an alternate JSON-LD
// representation via a Link header or an HTML <link>/<a> alternate when the
// response isn't already JSON-LD, and caches the result keyed by u for
// Config.CacheTTL.
func (l *Loader) LoadDocument(u string) (*ld.RemoteDocument, error) {
	ctx, cancel := context.WithTimeout(context.Background(), l.cfg.Timeout)
	defer cancel()

	if cached, ok := l.fromCache(ctx, u); ok {
		return cached, nil
	}

	doc, err := l.fetch(ctx, u, l.cfg.MaxRedirects)
	if err != nil {
		return nil, err
	}

	l.toCache(ctx, u, doc)

	return doc, nil
}

func (l *Loader) fromCache(ctx context.Context, u string) (*ld.RemoteDocument, bool) {
	if l.cache == nil {
		return nil, false
	}

	var cd cachedDocument

	if err := l.cache.Get(ctx, []string{cacheNamespace, u}, &cd); err != nil {
		return nil, false
	}

	return &ld.RemoteDocument{DocumentURL: cd.DocumentURL, ContextURL: cd.ContextURL, Document: cd.Document}, true
}

func (l *Loader) toCache(ctx context.Context, u string, doc *ld.RemoteDocument) {
	if l.cache == nil {
		return
	}

	body, ok := doc.Document.(string)
	if !ok {
		return
	}

	cd := cachedDocument{DocumentURL: doc.DocumentURL, ContextURL: doc.ContextURL, Document: body}

	if err := l.cache.Set(ctx, []string{cacheNamespace, u}, cd, l.cfg.CacheTTL); err != nil {
		logger.Warnf("Unable to cache remote document [%s]: %s", u, err)
	}
}

func (l *Loader) fetch(ctx context.Context, rawURL string, redirectsLeft int) (*ld.RemoteDocument, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return nil, ferrors.NewBadRequestf("parse document url %s: %w", rawURL, err)
	}

	if l.guard != nil {
		if err := l.guard.Allow(ctx, parsed, false); err != nil {
			return nil, err
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, ferrors.NewBadRequestf("build document request: %w", err)
	}

	req.Header.Set("Accept", acceptHeader)

	resp, err := l.client.Do(req)
	if err != nil {
		return nil, ferrors.NewTransientf("fetch document %s: %w", rawURL, err)
	}

	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode >= http.StatusMultipleChoices && resp.StatusCode < http.StatusBadRequest {
		location := resp.Header.Get("Location")
		if location == "" || redirectsLeft == 0 {
			return nil, ferrors.NewNotFoundf("document %s redirected without a usable Location header", rawURL)
		}

		next, err := parsed.Parse(location)
		if err != nil {
			return nil, ferrors.NewBadRequestf("parse redirect location %s: %w", location, err)
		}

		return l.fetch(ctx, next.String(), redirectsLeft-1)
	}

	if resp.StatusCode == http.StatusNotFound {
		return nil, ferrors.NewNotFoundf("document not found: %s", rawURL)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, ferrors.NewTransientf("document %s returned status %d", rawURL, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read document body for %s: %w", rawURL, err)
	}

	contentType, _, _ := mime.ParseMediaType(resp.Header.Get("Content-Type")) //nolint:errcheck

	if isJSONLD(contentType) {
		return &ld.RemoteDocument{
			DocumentURL: resp.Request.URL.String(),
			ContextURL:  linkedContext(resp.Header.Get("Link")),
			Document:    string(body),
		}, nil
	}

	if alt := alternateLink(contentType, body); alt != "" {
		next, err := parsed.Parse(alt)
		if err == nil && redirectsLeft > 0 {
			return l.fetch(ctx, next.String(), redirectsLeft-1)
		}
	}

	return &ld.RemoteDocument{
		DocumentURL: resp.Request.URL.String(),
		ContextURL:  linkedContext(resp.Header.Get("Link")),
		Document:    string(body),
	}, nil
}

func isJSONLD(contentType string) bool {
	return strings.Contains(contentType, "json")
}

// linkedContext extracts a JSON-LD context URL from a Link header of the form
// `<https://example.com/context>; rel="http://www.w3.org/ns/json-ld#context"`.
func linkedContext(linkHeader string) string {
	for _, part := range strings.Split(linkHeader, ",") {
		part = strings.TrimSpace(part)

		if !strings.Contains(part, `rel="http://www.w3.org/ns/json-ld#context"`) {
			continue
		}

		start := strings.Index(part, "<")
		end := strings.Index(part, ">")

		if start >= 0 && end > start {
			return part[start+1 : end]
		}
	}

	return ""
}

// alternateLink scans an HTML document for a <link rel="alternate"
// type="application/activity+json"> (or ...ld+json) element and returns its
// href, so that a human-facing HTML page can be dereferenced to its
// machine-readable JSON-LD counterpart.
func alternateLink(contentType string, body []byte) string {
	if !strings.Contains(contentType, "html") {
		return ""
	}

	doc, err := html.Parse(strings.NewReader(string(body)))
	if err != nil {
		return ""
	}

	var href string

	var walk func(*html.Node)

	walk = func(n *html.Node) {
		if href != "" {
			return
		}

		if n.Type == html.ElementNode && n.Data == "link" {
			var rel, typ, h string

			for _, a := range n.Attr {
				switch a.Key {
				case "rel":
					rel = a.Val
				case "type":
					typ = a.Val
				case "href":
					h = a.Val
				}
			}

			if rel == "alternate" && (strings.Contains(typ, "activity+json") || strings.Contains(typ, "ld+json")) {
				href = h

				return
			}
		}

		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}

	walk(doc)

	return href
}

// Signer signs an outgoing GET with the identity's HTTP signature so that
// private documents gated behind authorized-fetch can be retrieved.
type Signer interface {
	Sign(req *http.Request, pKey crypto.PrivateKey, keyID string, body []byte) error
}

// authenticatedLoader wraps client.Do to sign every outgoing request before
// it reaches the underlying Loader's fetch logic.
type authenticatedLoader struct {
	httpClient
	signer Signer
	pKey   crypto.PrivateKey
	keyID  string
}

func (a *authenticatedLoader) Do(req *http.Request) (*http.Response, error) {
	if err := a.signer.Sign(req, a.pKey, a.keyID, nil); err != nil {
		return nil, fmt.Errorf("sign authenticated fetch of %s: %w", req.URL, err)
	}

	return a.httpClient.Do(req)
}

// NewAuthenticatedLoader returns a Loader that signs every outbound GET with
// the given identity's key, for retrieving documents gated behind an
// authorized-fetch policy, composing §4.4's signer with this package's
// caching/discovery logic per the integration note.
func NewAuthenticatedLoader(cfg Config, client httpClient, signer Signer, pKey crypto.PrivateKey, keyID string,
	guard *urlguard.Guard, cache kv.Store) *Loader {
	if client == nil {
		client = &http.Client{Timeout: cfg.Timeout}
	}

	return New(cfg, &authenticatedLoader{httpClient: client, signer: signer, pKey: pKey, keyID: keyID}, guard, cache)
}
