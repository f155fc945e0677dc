/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package router is a standalone, embeddable wrapper around gorilla/mux that
// adds named-route registration with first-registration-wins priority and a
// Build step that turns a route name plus path parameters back into a URL,
// the inverse of routing a request. It generalizes the mux.Router the
// teacher's HTTP server wires up directly into a component the federation
// middleware can register routes on without depending on gorilla/mux itself.
package router

import (
	"net/http"

	"github.com/gorilla/mux"

	ferrors "github.com/fedcore/federation/pkg/errors"
)

// Router wraps a gorilla/mux.Router, tracking named routes for Build and
// enforcing that a name is registered at most once.
type Router struct {
	mux                      *mux.Router
	names                    map[string]*mux.Route
	trailingSlashInsensitive bool
}

// Option customizes a Router at construction time.
type Option func(*Router)

// WithTrailingSlashInsensitive makes the router treat "/path" and "/path/" as
// the same route, matching gorilla/mux's StrictSlash behavior.
func WithTrailingSlashInsensitive() Option {
	return func(r *Router) {
		r.trailingSlashInsensitive = true
	}
}

// New returns a new, empty Router.
func New(opts ...Option) *Router {
	r := &Router{
		mux:   mux.NewRouter(),
		names: make(map[string]*mux.Route),
	}

	for _, opt := range opts {
		opt(r)
	}

	r.mux.StrictSlash(r.trailingSlashInsensitive)

	return r
}

// Handle registers handler under the given name to match requests for method
// and path (a gorilla/mux pattern, e.g. "/actors/{id}"). Routes are matched
// in registration order, the same priority policy gorilla/mux itself
// implements. Registering the same name twice returns a 'builder misuse'
// error (see pkg/errors.IsBuilderMisuse) rather than silently shadowing the
// first registration.
func (r *Router) Handle(name, method, path string, handler http.HandlerFunc) error {
	if _, exists := r.names[name]; exists {
		return ferrors.NewBuilderMisusef("route %q already registered", name)
	}

	route := r.mux.Handle(path, handler).Methods(method).Name(name)
	r.names[name] = route

	return nil
}

// ServeHTTP implements http.Handler by delegating to the wrapped mux.Router.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.mux.ServeHTTP(w, req)
}

// Route reports the name and path variables of the route that matches req,
// without invoking its handler. This is the lookup the federation middleware
// uses ahead of dispatch, since it must branch on which route matched (actor,
// inbox, collection, ...) before deciding how to render a response.
func (r *Router) Route(req *http.Request) (name string, vars map[string]string, ok bool) {
	var match mux.RouteMatch

	if !r.mux.Match(req, &match) || match.Route == nil {
		return "", nil, false
	}

	return match.Route.GetName(), match.Vars, true
}

// Build returns the URL for the named route substituting pairs as
// alternating key/value path parameters (the same calling convention as
// gorilla/mux's Route.URL), e.g. Build("actor", "id", "alice").
func (r *Router) Build(name string, pairs ...string) (string, error) {
	route, ok := r.names[name]
	if !ok {
		return "", ferrors.NewNotFoundf("route %q is not registered", name)
	}

	u, err := route.URL(pairs...)
	if err != nil {
		return "", ferrors.NewBadRequestf("build url for route %q: %w", name, err)
	}

	return u.String(), nil
}

// Use appends HTTP middleware to the router, applied to every registered route.
func (r *Router) Use(mw ...mux.MiddlewareFunc) {
	r.mux.Use(mw...)
}
