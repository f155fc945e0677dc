/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package startcmd

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"

	ferrors "github.com/fedcore/federation/pkg/errors"
	"github.com/fedcore/federation/pkg/federation"
	"github.com/fedcore/federation/pkg/kv"
)

const (
	actorPath       = "/actors/{id}"
	inboxPath       = "/actors/{id}/inbox"
	sharedInboxPath = "/inbox"
	followersPath   = "/actors/{id}/followers"
	nodeInfoPath    = "/nodeinfo/{version}"

	actorNamespace     = "actor_document"
	followersNamespace = "actor_followers"
)

// rawEntity adapts an already-serialized JSON-LD document to federation.Entity.
type rawEntity json.RawMessage

func (e rawEntity) MarshalJSON() ([]byte, error) {
	return e, nil
}

// wireDispatchers registers the actor, inbox, followers, and NodeInfo
// dispatchers backed by the given actor document store. This is a minimal,
// single-process actor directory; a deployment with durable actor storage
// would back it with the same kv.Store contract against a persistent store
// instead of an in-memory one.
func wireDispatchers(b *federation.Builder, actors kv.Store, origin string) error {
	if err := b.SetActorDispatcher(actorPath, func(_ *federation.Context, id string) (federation.Entity, error) {
		return lookupActor(actors, id)
	}); err != nil {
		return err
	}

	if err := b.SetInboxListener(inboxPath, sharedInboxPath,
		func(_ *federation.Context, activity []byte) error {
			logger.Debugf("Received activity on inbox: %s", activity)

			return nil
		}); err != nil {
		return err
	}

	if err := b.SetCollectionDispatcher("followers", followersPath,
		func(_ *federation.Context, id, _ string) (federation.Entity, error) {
			return followersCollection(actors, origin, id)
		}); err != nil {
		return err
	}

	return b.SetNodeInfoDispatcher(nodeInfoPath, func(_ *federation.Context, version string) (federation.Entity, error) {
		return nodeInfoDocument(version)
	})
}

func lookupActor(actors kv.Store, id string) (federation.Entity, error) {
	var doc json.RawMessage

	if err := actors.Get(context.Background(), []string{actorNamespace, id}, &doc); err != nil {
		if ferrors.IsNotFound(err) {
			return nil, ferrors.NewNotFoundf("no such actor %q", id)
		}

		return nil, fmt.Errorf("look up actor %q: %w", id, err)
	}

	return rawEntity(doc), nil
}

func followersCollection(actors kv.Store, origin, id string) (federation.Entity, error) {
	var followerInboxes []string

	if err := actors.Get(context.Background(), []string{followersNamespace, id}, &followerInboxes); err != nil &&
		!ferrors.IsNotFound(err) {
		return nil, fmt.Errorf("look up followers for %q: %w", id, err)
	}

	collection := map[string]interface{}{
		"@context":     "https://www.w3.org/ns/activitystreams",
		"id":           origin + followersPathFor(id),
		"type":         "OrderedCollection",
		"totalItems":   len(followerInboxes),
		"orderedItems": followerInboxes,
	}

	doc, err := json.Marshal(collection)
	if err != nil {
		return nil, fmt.Errorf("marshal followers collection for %q: %w", id, err)
	}

	return rawEntity(doc), nil
}

func followersPathFor(id string) string {
	return "/actors/" + id + "/followers"
}

func nodeInfoDocument(version string) (federation.Entity, error) {
	doc, err := json.Marshal(map[string]interface{}{
		"version": version,
		"software": map[string]string{
			"name": "fedcore",
		},
		"protocols": []string{"activitypub"},
	})
	if err != nil {
		return nil, fmt.Errorf("marshal nodeinfo document: %w", err)
	}

	return rawEntity(doc), nil
}

// newFollowersResolver expands an outgoing activity's "to"/"cc" addressing
// into concrete recipient inbox URLs, following a locally-registered
// followers collection to each follower's stored inbox URL and otherwise
// treating the address as a direct actor inbox IRI.
func newFollowersResolver(actors kv.Store) func(ctx context.Context, activity []byte) ([]*url.URL, error) {
	return func(ctx context.Context, activity []byte) ([]*url.URL, error) {
		var envelope struct {
			To []string `json:"to"`
			CC []string `json:"cc"`
		}

		if err := json.Unmarshal(activity, &envelope); err != nil {
			return nil, ferrors.NewBadRequestf("parse activity addressing: %w", err)
		}

		var recipients []*url.URL

		for _, iri := range append(envelope.To, envelope.CC...) {
			if iri == "https://www.w3.org/ns/activitystreams#Public" {
				continue
			}

			actorID, isFollowers := followersActorID(iri)
			if isFollowers {
				var inboxes []string

				if err := actors.Get(ctx, []string{followersNamespace, actorID}, &inboxes); err != nil &&
					!ferrors.IsNotFound(err) {
					return nil, fmt.Errorf("expand followers for %q: %w", actorID, err)
				}

				for _, inbox := range inboxes {
					u, err := url.Parse(inbox)
					if err == nil {
						recipients = append(recipients, u)
					}
				}

				continue
			}

			u, err := url.Parse(iri)
			if err != nil {
				logger.Infof("Skipping unparseable recipient %q: %s", iri, err)

				continue
			}

			recipients = append(recipients, u)
		}

		return recipients, nil
	}
}

// followersActorID reports whether iri is a local followers collection IRI
// and, if so, the actor ID it belongs to.
func followersActorID(iri string) (string, bool) {
	u, err := url.Parse(iri)
	if err != nil {
		return "", false
	}

	const prefix = "/actors/"

	const suffix = "/followers"

	path := u.Path
	if len(path) <= len(prefix)+len(suffix) || path[:len(prefix)] != prefix || path[len(path)-len(suffix):] != suffix {
		return "", false
	}

	return path[len(prefix) : len(path)-len(suffix)], true
}
