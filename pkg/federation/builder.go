/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package federation

import (
	"net/http"

	ferrors "github.com/fedcore/federation/pkg/errors"
	"github.com/fedcore/federation/pkg/delivery"
	"github.com/fedcore/federation/pkg/docloader"
	"github.com/fedcore/federation/pkg/httpsig"
	"github.com/fedcore/federation/pkg/kv"
	"github.com/fedcore/federation/pkg/router"
)

// Builder accepts dispatcher registrations during configuration and compiles
// them, along with the runtime collaborators supplied to Build, into an
// immutable Federation. Mirrors the teacher's once-configured,
// then-immutable service wiring in its server command tree, generalized from
// a fixed Orb handler set into a registry of user-supplied dispatchers.
type Builder struct {
	router *router.Router

	actorDispatcher       ActorDispatcher
	objectDispatchers     map[string]ObjectDispatcher
	collectionDispatchers map[string]CollectionDispatcher
	inboxListener         InboxListener
	nodeInfoDispatcher    NodeInfoDispatcher

	registered map[string]bool
}

// NewBuilder returns a new Builder that registers routes on r.
func NewBuilder(r *router.Router) *Builder {
	return &Builder{
		router:                r,
		objectDispatchers:     make(map[string]ObjectDispatcher),
		collectionDispatchers: make(map[string]CollectionDispatcher),
		registered:            make(map[string]bool),
	}
}

func (b *Builder) register(name string) error {
	if b.registered[name] {
		return ferrors.NewBuilderMisusef("dispatcher %q already registered", name)
	}

	b.registered[name] = true

	return nil
}

func noopHandler(http.ResponseWriter, *http.Request) {}

// SetActorDispatcher registers fn to resolve actors matched at path (e.g.
// "/actors/{id}") and returns a BuilderMisuse error if an actor dispatcher is
// already registered.
func (b *Builder) SetActorDispatcher(path string, fn ActorDispatcher) error {
	if err := b.register(routeActor); err != nil {
		return err
	}

	b.actorDispatcher = fn

	return b.router.Handle(routeActor, http.MethodGet, path, noopHandler)
}

// SetObjectDispatcher registers fn to resolve objects of typeID matched at path.
func (b *Builder) SetObjectDispatcher(typeID, path string, fn ObjectDispatcher) error {
	name := objectRoutePrefix + typeID

	if err := b.register(name); err != nil {
		return err
	}

	b.objectDispatchers[typeID] = fn

	return b.router.Handle(name, http.MethodGet, path, noopHandler)
}

// SetInboxListener registers fn as the single inbox listener, and registers
// both the per-actor inbox and the server-wide shared inbox routes.
func (b *Builder) SetInboxListener(inboxPath, sharedInboxPath string, fn InboxListener) error {
	if err := b.register(routeInbox); err != nil {
		return err
	}

	b.inboxListener = fn

	if err := b.router.Handle(routeInbox, http.MethodPost, inboxPath, noopHandler); err != nil {
		return err
	}

	if sharedInboxPath == "" {
		return nil
	}

	return b.router.Handle(routeSharedInbox, http.MethodPost, sharedInboxPath, noopHandler)
}

// SetCollectionDispatcher registers fn to resolve pages of the named
// collection matched at path. name is an opaque key; two distinct keys that
// happen to stringify identically are still treated as distinct since the
// map is keyed by the Go string value supplied here, not by any external
// identity.
func (b *Builder) SetCollectionDispatcher(name, path string, fn CollectionDispatcher) error {
	routeName := collectionRoutePfx + name

	if err := b.register(routeName); err != nil {
		return err
	}

	b.collectionDispatchers[name] = fn

	return b.router.Handle(routeName, http.MethodGet, path, noopHandler)
}

// SetNodeInfoDispatcher registers fn to produce the NodeInfo document served
// at path (e.g. "/nodeinfo/{version}").
func (b *Builder) SetNodeInfoDispatcher(path string, fn NodeInfoDispatcher) error {
	if err := b.register(routeNodeInfo); err != nil {
		return err
	}

	b.nodeInfoDispatcher = fn

	return b.router.Handle(routeNodeInfo, http.MethodGet, path, noopHandler)
}

// Options holds the runtime collaborators Build wires into the Federation.
type Options struct {
	Pipeline    *delivery.Pipeline
	Loader      *docloader.Loader
	Verifier    *httpsig.DoubleKnockVerifier
	KeyResolver httpsig.KeyResolver
	Idempotence kv.Store
	KeyPairs    KeyPairProvider
	Origin      string
}

// Build compiles the registered dispatchers and the given Options into an
// immutable Federation. Build may be called only once per Builder; the
// Builder itself can be discarded afterwards.
func (b *Builder) Build(opts Options) (*Federation, error) {
	return &Federation{
		router:                b.router,
		pipeline:              opts.Pipeline,
		loader:                opts.Loader,
		verifier:              opts.Verifier,
		resolver:              opts.KeyResolver,
		idempo:                opts.Idempotence,
		keyPairs:              opts.KeyPairs,
		actorDispatcher:       b.actorDispatcher,
		objectDispatchers:     b.objectDispatchers,
		collectionDispatchers: b.collectionDispatchers,
		inboxListener:         b.inboxListener,
		nodeInfoDispatcher:    b.nodeInfoDispatcher,
		origin:                opts.Origin,
	}, nil
}
