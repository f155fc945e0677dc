/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package federation is the request/activity dispatch fabric: it routes
// incoming HTTP requests to user-registered dispatchers, verifies and
// de-duplicates incoming activities, serializes outgoing entities with
// content negotiation, and exposes a per-request Context for building URIs,
// sending activities, and looking up remote objects. It is the runtime that
// Builder.Build compiles once into an immutable Federation value, generalized
// from the teacher's fixed Orb-specific REST handler set
// (pkg/activitypub/resthandler) into a builder-driven registry of dispatchers.
package federation

import "encoding/json"

// Entity is anything a dispatcher may return for serialization: an actor, an
// object, a collection page, or a NodeInfo document. The vocabulary package's
// types already satisfy this through their existing MarshalJSON methods, so
// the federation middleware never type-switches on a concrete vocabulary
// struct, matching the "external interface only" vocabulary contract.
type Entity interface {
	json.Marshaler
}

// ActorDispatcher resolves the actor identified by id.
type ActorDispatcher func(ctx *Context, id string) (Entity, error)

// ObjectDispatcher resolves the object identified by id for a registered object type.
type ObjectDispatcher func(ctx *Context, id string) (Entity, error)

// CollectionDispatcher resolves a page of a named collection belonging to actorID.
// page is the opaque cursor extracted from the request's "page" query parameter,
// or the empty string for the collection's first page.
type CollectionDispatcher func(ctx *Context, actorID, page string) (Entity, error)

// InboxListener handles a verified, de-duplicated incoming activity.
type InboxListener func(ctx *Context, activity []byte) error

// NodeInfoDispatcher produces the NodeInfo document for the given version ("2.0" or "2.1").
type NodeInfoDispatcher func(ctx *Context, version string) (Entity, error)
