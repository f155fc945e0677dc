/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package urlguard classifies URLs as public or private so that the document
// loader and the outbound delivery path can refuse to dial addresses that
// are not routable on the public internet.
package urlguard

import (
	"context"
	"fmt"
	"net"
	"net/url"

	ferrors "github.com/fedcore/federation/pkg/errors"
)

// Classification is the result of classifying a URL's destination.
type Classification int

const (
	// Public indicates the URL resolves only to publicly routable addresses.
	Public Classification = iota
	// Private indicates the URL resolves to a loopback, link-local, or
	// private-use address.
	Private
	// NonHTTP indicates the URL's scheme is neither http nor https.
	NonHTTP
)

func (c Classification) String() string {
	switch c {
	case Public:
		return "public"
	case Private:
		return "private"
	case NonHTTP:
		return "non-http"
	default:
		return "unknown"
	}
}

// Resolver resolves a hostname to its IP addresses. net.DefaultResolver satisfies this.
type Resolver interface {
	LookupIPAddr(ctx context.Context, host string) ([]net.IPAddr, error)
}

//nolint:gochecknoglobals
var privateBlocks = mustParseCIDRs(
	"127.0.0.0/8",    // loopback IPv4
	"::1/128",        // loopback IPv6
	"10.0.0.0/8",     // RFC1918
	"172.16.0.0/12",  // RFC1918
	"192.168.0.0/16", // RFC1918
	"169.254.0.0/16", // link-local IPv4
	"fe80::/10",      // link-local IPv6
	"fc00::/7",       // IPv6 ULA
)

func mustParseCIDRs(cidrs ...string) []*net.IPNet {
	nets := make([]*net.IPNet, len(cidrs))

	for i, cidr := range cidrs {
		_, n, err := net.ParseCIDR(cidr)
		if err != nil {
			panic(err)
		}

		nets[i] = n
	}

	return nets
}

// Guard classifies URLs as public or private.
type Guard struct {
	resolver Resolver
}

// New returns a new Guard that resolves hostnames using the given Resolver.
// If resolver is nil, net.DefaultResolver is used.
func New(resolver Resolver) *Guard {
	if resolver == nil {
		resolver = net.DefaultResolver
	}

	return &Guard{resolver: resolver}
}

// Classify parses u's host and reports whether it is public, private, or non-HTTP.
// If u's host is a literal IP address, no DNS lookup is performed.
func (g *Guard) Classify(ctx context.Context, u *url.URL) (Classification, error) {
	if u.Scheme != "http" && u.Scheme != "https" {
		return NonHTTP, nil
	}

	host := u.Hostname()
	if host == "" {
		return NonHTTP, ferrors.NewBadRequestf("url has no host: %s", u)
	}

	if ip := net.ParseIP(host); ip != nil {
		return classifyIP(ip), nil
	}

	addrs, err := g.resolver.LookupIPAddr(ctx, host)
	if err != nil {
		return Public, fmt.Errorf("lookup host %s: %w", host, err)
	}

	for _, addr := range addrs {
		if classifyIP(addr.IP) == Private {
			return Private, nil
		}
	}

	return Public, nil
}

func classifyIP(ip net.IP) Classification {
	for _, block := range privateBlocks {
		if block.Contains(ip) {
			return Private
		}
	}

	return Public
}

// Allow returns nil if u is safe to dial: it must be http(s), and, unless allowPrivate
// is set, it must not resolve to a private address.
func (g *Guard) Allow(ctx context.Context, u *url.URL, allowPrivate bool) error {
	class, err := g.Classify(ctx, u)
	if err != nil {
		return err
	}

	switch class {
	case NonHTTP:
		return ferrors.NewBadRequestf("unsupported scheme in url: %s", u)
	case Private:
		if !allowPrivate {
			return ferrors.NewPrivateAddressf("url refers to a private address: %s", u)
		}

		return nil
	default:
		return nil
	}
}
