/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package federation

import (
	"context"
	"fmt"

	ferrors "github.com/fedcore/federation/pkg/errors"
	"github.com/fedcore/federation/pkg/keystore"
)

// KeyPairProvider resolves the signing key pair for an actor so that the
// per-request Context can hand it to an outgoing delivery.
type KeyPairProvider func(ctx context.Context, actorID string) (*keystore.Key, error)

// Context is handed to every dispatcher invocation. It wraps a
// context.Context (so it can be passed anywhere a ctx parameter is expected)
// and adds the federation-specific helpers named in the middleware
// component: URI builders that reuse the router, sendActivity, lookupObject,
// parseUri, and getActorKeyPairs.
type Context struct {
	context.Context

	fed  *Federation
	data interface{}
}

// Data returns the contextData value supplied to Federation.Fetch, letting
// request-scoped state (a correlation ID, an authenticated caller, ...) flow
// into dispatcher calls without a global.
func (c *Context) Data() interface{} {
	return c.data
}

// GetActorURI builds the URI of the actor identified by id.
func (c *Context) GetActorURI(id string) (string, error) {
	return c.fed.router.Build(routeActor, "id", id)
}

// GetInboxURI builds the URI of the inbox belonging to the actor identified by id.
func (c *Context) GetInboxURI(id string) (string, error) {
	return c.fed.router.Build(routeInbox, "id", id)
}

// GetOutboxURI builds the URI of the outbox belonging to the actor identified by id.
func (c *Context) GetOutboxURI(id string) (string, error) {
	return c.fed.router.Build(routeOutbox, "id", id)
}

// GetSharedInboxURI builds the URI of the server-wide shared inbox, if one is registered.
func (c *Context) GetSharedInboxURI() (string, error) {
	return c.fed.router.Build(routeSharedInbox)
}

// ParseURI reverse-routes uri, returning the matched route's name and path
// parameters (e.g. {"id": "alice"} for an actor URI). It returns a 'not
// found' error if uri does not match any registered route.
func (c *Context) ParseURI(uri string) (string, map[string]string, error) {
	return c.fed.parseURI(uri)
}

// SendActivity enqueues activity for outbound delivery via the fan-out stage
// of the delivery pipeline.
func (c *Context) SendActivity(activity []byte) error {
	if c.fed.pipeline == nil {
		return ferrors.NewBuilderMisusef("federation was built without a delivery pipeline")
	}

	return c.fed.pipeline.Fanout(c, activity)
}

// LookupObject resolves a bare https:// URL or an acct: handle (via WebFinger
// first) to its vocabulary entity through the authenticated document loader.
func (c *Context) LookupObject(uriOrHandle string) ([]byte, error) {
	if c.fed.loader == nil {
		return nil, ferrors.NewBuilderMisusef("federation was built without a document loader")
	}

	doc, err := c.fed.loader.LoadDocument(uriOrHandle)
	if err != nil {
		return nil, err
	}

	body, ok := doc.Document.(string)
	if !ok {
		return nil, fmt.Errorf("unexpected document shape for %s", uriOrHandle) //nolint:goerr113
	}

	return []byte(body), nil
}

// GetActorKeyPairs resolves the signing key pair registered for the actor
// identified by id.
func (c *Context) GetActorKeyPairs(id string) (*keystore.Key, error) {
	if c.fed.keyPairs == nil {
		return nil, ferrors.NewBuilderMisusef("federation was built without a key pair provider")
	}

	return c.fed.keyPairs(c, id)
}
