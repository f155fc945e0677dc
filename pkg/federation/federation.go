/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package federation

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/trustbloc/edge-core/pkg/log"

	ferrors "github.com/fedcore/federation/pkg/errors"
	"github.com/fedcore/federation/pkg/delivery"
	"github.com/fedcore/federation/pkg/docloader"
	"github.com/fedcore/federation/pkg/httpsig"
	"github.com/fedcore/federation/pkg/kv"
	"github.com/fedcore/federation/pkg/router"
)

var logger = log.New("federation")

// Route names, registered in this fixed priority order by Builder.Build, the
// first-registered match winning ties the same way the underlying router does.
const (
	routeWebFinger     = "webfinger"
	routeNodeInfo      = "nodeInfo"
	routeNodeInfoJRD   = "nodeInfoJrd"
	routeActor         = "actor"
	routeInbox         = "inbox"
	routeOutbox        = "outbox"
	routeFollowing     = "following"
	routeFollowers     = "followers"
	routeLiked         = "liked"
	routeFeatured      = "featured"
	routeFeaturedTags  = "featuredTags"
	routeSharedInbox   = "sharedInbox"
	objectRoutePrefix  = "object:"
	collectionRoutePfx = "collection:"
)

const contentTypeActivityJSON = "application/activity+json"

// Federation is the immutable, once-built request/activity dispatch fabric.
// It is constructed exclusively through Builder.Build.
type Federation struct {
	router   *router.Router
	pipeline *delivery.Pipeline
	loader   *docloader.Loader
	verifier *httpsig.DoubleKnockVerifier
	resolver httpsig.KeyResolver
	idempo   kv.Store
	keyPairs KeyPairProvider

	actorDispatcher       ActorDispatcher
	objectDispatchers     map[string]ObjectDispatcher
	collectionDispatchers map[string]CollectionDispatcher
	inboxListener         InboxListener
	nodeInfoDispatcher    NodeInfoDispatcher

	origin string
}

// FetchOptions customizes a single call to Fetch.
type FetchOptions struct {
	// ContextData is made available to every dispatcher invoked while
	// handling this request via Context.Data.
	ContextData interface{}
	// OnNotFound is invoked when no route matches the request. Defaults to a bare 404.
	OnNotFound http.HandlerFunc
	// OnNotAcceptable is invoked when content negotiation rejects the
	// client's Accept header. Defaults to 406 with Vary: Accept.
	OnNotAcceptable http.HandlerFunc
}

func (o *FetchOptions) notFound(w http.ResponseWriter, req *http.Request) {
	if o.OnNotFound != nil {
		o.OnNotFound(w, req)

		return
	}

	http.NotFound(w, req)
}

func (o *FetchOptions) notAcceptable(w http.ResponseWriter, req *http.Request) {
	if o.OnNotAcceptable != nil {
		o.OnNotAcceptable(w, req)

		return
	}

	w.Header().Set("Vary", "Accept")
	w.WriteHeader(http.StatusNotAcceptable)
}

// Fetch is the single request entry point: it routes req, runs content
// negotiation for AS2 GETs, dispatches to the registered actor/object/
// collection/NodeInfo handler, or, for an inbox POST, verifies the
// signature, checks idempotence, and enqueues the activity for asynchronous
// processing.
func (f *Federation) Fetch(w http.ResponseWriter, req *http.Request, opts FetchOptions) {
	name, vars, ok := f.router.Route(req)
	if !ok {
		opts.notFound(w, req)

		return
	}

	ctx := &Context{Context: req.Context(), fed: f, data: opts.ContextData}

	switch {
	case req.Method == http.MethodPost && name == routeInbox:
		f.handleInbox(ctx, w, req, vars)
	case req.Method == http.MethodPost && name == routeSharedInbox:
		f.handleInbox(ctx, w, req, vars)
	case req.Method == http.MethodGet && name == routeActor:
		f.dispatchEntity(ctx, w, req, opts, func() (Entity, error) {
			if f.actorDispatcher == nil {
				return nil, ferrors.NewNotFoundf("no actor dispatcher registered")
			}

			return f.actorDispatcher(ctx, vars["id"])
		})
	case req.Method == http.MethodGet && strings.HasPrefix(name, objectRoutePrefix):
		typeID := strings.TrimPrefix(name, objectRoutePrefix)
		f.dispatchEntity(ctx, w, req, opts, func() (Entity, error) {
			dispatcher, registered := f.objectDispatchers[typeID]
			if !registered {
				return nil, ferrors.NewNotFoundf("no object dispatcher registered for type %q", typeID)
			}

			return dispatcher(ctx, vars["id"])
		})
	case req.Method == http.MethodGet && strings.HasPrefix(name, collectionRoutePfx):
		collectionName := strings.TrimPrefix(name, collectionRoutePfx)
		f.dispatchEntity(ctx, w, req, opts, func() (Entity, error) {
			dispatcher, registered := f.collectionDispatchers[collectionName]
			if !registered {
				return nil, ferrors.NewNotFoundf("no collection dispatcher registered for %q", collectionName)
			}

			return dispatcher(ctx, vars["id"], req.URL.Query().Get("page"))
		})
	case req.Method == http.MethodGet && name == routeNodeInfo:
		f.dispatchEntity(ctx, w, req, opts, func() (Entity, error) {
			if f.nodeInfoDispatcher == nil {
				return nil, ferrors.NewNotFoundf("no nodeinfo dispatcher registered")
			}

			return f.nodeInfoDispatcher(ctx, vars["version"])
		})
	default:
		opts.notFound(w, req)
	}
}

func (f *Federation) dispatchEntity(ctx *Context, w http.ResponseWriter, req *http.Request,
	opts FetchOptions, resolve func() (Entity, error)) {
	if req.Method == http.MethodGet && !negotiateAS2(req.Header.Get("Accept")) {
		opts.notAcceptable(w, req)

		return
	}

	entity, err := resolve()
	if err != nil {
		writeError(w, err)

		return
	}

	body, err := entity.MarshalJSON()
	if err != nil {
		logger.Errorf("Marshal entity for [%s]: %s", req.URL, err)
		http.Error(w, "internal error", http.StatusInternalServerError)

		return
	}

	w.Header().Set("Content-Type", contentTypeActivityJSON)
	w.WriteHeader(http.StatusOK)

	if _, err := w.Write(body); err != nil {
		logger.Warnf("Write response for [%s]: %s", req.URL, err)
	}
}

func (f *Federation) handleInbox(ctx *Context, w http.ResponseWriter, req *http.Request, vars map[string]string) {
	body, err := io.ReadAll(req.Body)
	if err != nil {
		http.Error(w, "unable to read request body", http.StatusBadRequest)

		return
	}

	if f.verifier != nil {
		keyID, _, err := f.verifier.Verify(ctx, req, f.resolver)
		if err != nil {
			logger.Infof("Rejecting inbox POST to [%s]: %s", req.URL, err)
			http.Error(w, "signature verification failed", http.StatusUnauthorized)

			return
		}

		logger.Debugf("Verified inbox POST to [%s] signed by [%s]", req.URL, keyID)
	}

	var envelope struct {
		ID string `json:"id"`
	}

	if err := json.Unmarshal(body, &envelope); err != nil || envelope.ID == "" {
		http.Error(w, "activity is missing an id", http.StatusBadRequest)

		return
	}

	deliver := func(ctx2 context.Context, _ string, activity []byte) error {
		if f.inboxListener == nil {
			return nil
		}

		return f.inboxListener(&Context{Context: ctx2, fed: f, data: ctx.data}, activity)
	}

	switch {
	case f.pipeline != nil:
		if err := f.pipeline.HandleInbound(ctx, envelope.ID, body, deliver); err != nil {
			writeError(w, err)

			return
		}
	case f.idempo != nil:
		if err := f.handleInboundDirect(ctx, envelope.ID, body, deliver); err != nil {
			writeError(w, err)

			return
		}
	default:
		if err := deliver(ctx, envelope.ID, body); err != nil {
			writeError(w, err)

			return
		}
	}

	w.WriteHeader(http.StatusAccepted)
}

const (
	idempotenceNamespace = "inbox_idempotence"
	idempotenceTTL       = 7 * 24 * time.Hour
)

// handleInboundDirect applies the idempotence check named in the queue
// abstraction's inbox stage without going through a full delivery.Pipeline,
// for federations built with an idempotence store but no configured queue.
func (f *Federation) handleInboundDirect(ctx context.Context, activityID string, body []byte,
	deliver func(context.Context, string, []byte) error) error {
	key := []string{idempotenceNamespace, activityID}

	var seen bool

	if err := f.idempo.Get(ctx, key, &seen); err == nil {
		return nil
	} else if !ferrors.IsNotFound(err) {
		return err
	}

	if err := deliver(ctx, activityID, body); err != nil {
		return err
	}

	return f.idempo.Set(ctx, key, true, idempotenceTTL)
}

// parseURI reverse-routes a fully-qualified or path-only URI to the name and
// path parameters of the route it matches.
func (f *Federation) parseURI(uri string) (string, map[string]string, error) {
	u, err := url.Parse(uri)
	if err != nil {
		return "", nil, ferrors.NewBadRequestf("parse uri %s: %w", uri, err)
	}

	req := &http.Request{Method: http.MethodGet, URL: &url.URL{Path: u.Path}}

	name, vars, ok := f.router.Route(req)
	if !ok {
		return "", nil, ferrors.NewNotFoundf("uri %s does not match any registered route", uri)
	}

	return name, vars, nil
}

func writeError(w http.ResponseWriter, err error) {
	switch {
	case ferrors.IsNotFound(err):
		http.Error(w, err.Error(), http.StatusNotFound)
	case ferrors.IsBadRequest(err):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case ferrors.IsUnauthorized(err):
		http.Error(w, err.Error(), http.StatusUnauthorized)
	case ferrors.IsPrivateAddress(err):
		http.Error(w, err.Error(), http.StatusForbidden)
	default:
		http.Error(w, fmt.Sprintf("internal error: %s", err), http.StatusInternalServerError)
	}
}
