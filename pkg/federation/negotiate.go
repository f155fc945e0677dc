/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package federation

import (
	"sort"
	"strconv"
	"strings"
)

// as2MediaTypes are the media types this middleware will serve for an actor,
// object, or collection GET; anything else (in particular text/html) is
// rejected by content negotiation.
var as2MediaTypes = []string{
	"application/activity+json",
	"application/ld+json",
}

type acceptEntry struct {
	typ, subtype string
	q            float64
	params       int
	pos          int
}

// negotiateAS2 reports whether header's Accept value has at least one
// AS2-compatible media type ranked at or above any non-AS2 candidate, using
// the standard q-value/specificity ordering: parameters present over absent,
// a concrete subtype over a wildcard, higher q over lower q, and earlier
// position in the header over later for exact ties.
func negotiateAS2(header string) bool {
	if header == "" {
		return true
	}

	entries := parseAccept(header)
	if len(entries) == 0 {
		return true
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return higherPriority(entries[i], entries[j])
	})

	best := entries[0]

	return matchesAS2(best)
}

func parseAccept(header string) []acceptEntry {
	parts := strings.Split(header, ",")
	entries := make([]acceptEntry, 0, len(parts))

	for i, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}

		segments := strings.Split(part, ";")
		mediaRange := strings.TrimSpace(segments[0])

		typ, subtype, ok := splitMediaType(mediaRange)
		if !ok {
			continue
		}

		entry := acceptEntry{typ: typ, subtype: subtype, q: 1.0, pos: i}

		for _, param := range segments[1:] {
			param = strings.TrimSpace(param)

			if strings.HasPrefix(param, "q=") {
				if q, err := strconv.ParseFloat(strings.TrimPrefix(param, "q="), 64); err == nil {
					entry.q = q
				}

				continue
			}

			entry.params++
		}

		entries = append(entries, entry)
	}

	return entries
}

func splitMediaType(mediaRange string) (typ, subtype string, ok bool) {
	idx := strings.Index(mediaRange, "/")
	if idx < 0 {
		return "", "", false
	}

	return mediaRange[:idx], mediaRange[idx+1:], true
}

func higherPriority(a, b acceptEntry) bool {
	if (a.params > 0) != (b.params > 0) {
		return a.params > 0
	}

	aSpecific := a.subtype != "*"
	bSpecific := b.subtype != "*"

	if aSpecific != bSpecific {
		return aSpecific
	}

	if a.q != b.q {
		return a.q > b.q
	}

	return a.pos < b.pos
}

func matchesAS2(e acceptEntry) bool {
	if e.q == 0 {
		return false
	}

	if e.typ == "*" && e.subtype == "*" {
		return true
	}

	for _, mt := range as2MediaTypes {
		typ, subtype, _ := splitMediaType(mt)

		if e.typ == typ && (e.subtype == "*" || e.subtype == subtype) {
			return true
		}
	}

	return false
}
