/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package client resolves acct: and actor-profile WebFinger resources on
// remote federation peers, the discovery step a server performs before an
// actor IRI can be dereferenced for the first time.
package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/bluele/gcache"
	"github.com/trustbloc/edge-core/pkg/log"

	orberrors "github.com/fedcore/federation/pkg/errors"
	"github.com/fedcore/federation/pkg/urlguard"
	"github.com/fedcore/federation/pkg/webfinger/model"
)

var logger = log.New("webfinger-client")

const (
	defaultCacheLifetime = 300 * time.Second // five minutes
	defaultCacheSize     = 100
)

// httpClient represents HTTP client.
type httpClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client resolves WebFinger resources on remote hosts, caching results and
// refusing to dial hosts urlguard classifies as private unless configured
// to allow it.
type Client struct {
	httpClient   httpClient
	guard        *urlguard.Guard
	allowPrivate bool

	cacheLifetime time.Duration
	cacheSize     int

	resourceCache gcache.Cache
}

type cacheKey struct {
	domainWithScheme string
	resource         string
}

// New creates a new webfinger client.
func New(opts ...Option) *Client {
	client := &Client{
		httpClient:    &http.Client{},
		guard:         urlguard.New(nil),
		cacheLifetime: defaultCacheLifetime,
		cacheSize:     defaultCacheSize,
	}

	for _, opt := range opts {
		opt(client)
	}

	client.resourceCache = gcache.New(client.cacheSize).
		Expiration(client.cacheLifetime).
		LoaderFunc(func(key interface{}) (interface{}, error) {
			k := key.(cacheKey) //nolint:errcheck,forcetypeassert

			r, err := client.resolveResource(k.domainWithScheme, k.resource)
			if err != nil {
				return nil, err
			}

			logger.Debugf("Loaded webfinger resource for domain [%s] and resource [%s] into cache: %+v",
				k.domainWithScheme, k.resource, r)

			return r, nil
		}).Build()

	return client
}

// ResolveWebFingerResource attempts to resolve the given WebFinger resource from domainWithScheme.
func (c *Client) ResolveWebFingerResource(domainWithScheme, resource string) (model.JRD, error) {
	r, err := c.resourceCache.Get(cacheKey{
		domainWithScheme: domainWithScheme,
		resource:         resource,
	})
	if err != nil {
		return model.JRD{}, fmt.Errorf("get webfinger resource for domain [%s] and resource [%s]: %w",
			domainWithScheme, resource, err)
	}

	return *r.(*model.JRD), nil //nolint:forcetypeassert
}

func (c *Client) resolveResource(domainWithScheme, resource string) (*model.JRD, error) {
	webFingerURL := fmt.Sprintf("%s/.well-known/webfinger?resource=%s", domainWithScheme, url.QueryEscape(resource))

	u, err := url.Parse(webFingerURL)
	if err != nil {
		return nil, fmt.Errorf("parse webfinger URL [%s]: %w", webFingerURL, err)
	}

	if err := c.guard.Allow(context.Background(), u, c.allowPrivate); err != nil {
		return nil, fmt.Errorf("refused webfinger URL [%s]: %w", webFingerURL, err)
	}

	req, err := http.NewRequest(http.MethodGet, webFingerURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create new request for WebFinger URL [%s]: %w",
			webFingerURL, err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, orberrors.NewTransientf("failed to get response (URL: %s): %w", webFingerURL, err)
	}

	defer func() {
		err = resp.Body.Close()
		if err != nil {
			logger.Errorf("failed to close response body after getting WebFinger response: %s", err.Error())
		}
	}()

	respBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, orberrors.NewTransientf("failed to read response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		if resp.StatusCode == http.StatusNotFound {
			return nil, model.ErrResourceNotFound
		}

		e := fmt.Errorf("received unexpected status code. URL [%s], "+
			"status code [%d], response body [%s]", webFingerURL, resp.StatusCode, string(respBytes))

		if resp.StatusCode >= http.StatusInternalServerError {
			return nil, orberrors.NewTransient(e)
		}

		return nil, e
	}

	webFingerResponse := &model.JRD{}

	err = json.Unmarshal(respBytes, webFingerResponse)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal WebFinger response: %w", err)
	}

	return webFingerResponse, nil
}

// ResolveActorID resolves the actor IRI for an acct: or https: resource
// identifier (e.g. "acct:alice@example.com" or "https://example.com/") by
// looking up its "self" link of type application/activity+json.
func (c *Client) ResolveActorID(resource string) (string, error) {
	domain, err := domainOf(resource)
	if err != nil {
		return "", fmt.Errorf("resolve domain for [%s]: %w", resource, err)
	}

	jrd, err := c.ResolveWebFingerResource(domain, resource)
	if err != nil {
		return "", fmt.Errorf("resolve webfinger resource [%s]: %w", resource, err)
	}

	for _, link := range jrd.Links {
		if link.Rel == "self" && link.Type == model.ActivityPubLinkType && link.Href != "" {
			return link.Href, nil
		}
	}

	return "", model.ErrResourceNotFound
}

func domainOf(resource string) (string, error) {
	if acct := strings.TrimPrefix(resource, "acct:"); acct != resource {
		at := strings.LastIndex(acct, "@")
		if at < 0 {
			return "", errors.New("acct resource missing host")
		}

		return "https://" + acct[at+1:], nil
	}

	u, err := url.Parse(resource)
	if err != nil {
		return "", fmt.Errorf("parse URI [%s]: %w", resource, err)
	}

	return fmt.Sprintf("%s://%s", u.Scheme, u.Host), nil
}

// Option is a webfinger client instance option.
type Option func(opts *Client)

// WithHTTPClient option is for custom http client.
func WithHTTPClient(httpClient httpClient) Option {
	return func(opts *Client) {
		opts.httpClient = httpClient
	}
}

// WithGuard overrides the default urlguard.Guard used to refuse fetches of
// private/loopback hosts.
func WithGuard(guard *urlguard.Guard) Option {
	return func(opts *Client) {
		opts.guard = guard
	}
}

// WithAllowPrivateNetworks permits resolving resources on hosts urlguard
// classifies as private, intended for local development/testing only.
func WithAllowPrivateNetworks(allow bool) Option {
	return func(opts *Client) {
		opts.allowPrivate = allow
	}
}

// WithCacheLifetime option defines the lifetime of an object in the cache.
// If we end-up with multiple caches that require different lifetime
// we may have to add different cache lifetime options.
func WithCacheLifetime(lifetime time.Duration) Option {
	return func(opts *Client) {
		opts.cacheLifetime = lifetime
	}
}

// WithCacheSize option defines the cache size.
func WithCacheSize(size int) Option {
	return func(opts *Client) {
		opts.cacheSize = size
	}
}
