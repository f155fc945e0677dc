/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package federation

import (
	"context"
	"encoding/json"

	ferrors "github.com/fedcore/federation/pkg/errors"
	"github.com/fedcore/federation/pkg/docloader"
)

// collectionPage is the subset of an (Ordered)CollectionPage's wire shape
// this package needs in order to traverse to the next page; the full page
// document is still returned to the caller verbatim.
type collectionPage struct {
	Next interface{} `json:"next"`
}

// CollectionIterator lazily traverses a paginated collection (CollectionPage
// or OrderedCollectionPage) by following its "next" link through the
// document loader, one page at a time, adapting the teacher's store-cursor
// pagination idiom (ReadReferences/ReadActivities over a store.Iterator)
// from a storage-pagination concern into a network-pagination concern.
type CollectionIterator struct {
	loader  *docloader.Loader
	nextURL string
	done    bool
}

// NewCollectionIterator returns an iterator that starts at firstPageURL.
func NewCollectionIterator(loader *docloader.Loader, firstPageURL string) *CollectionIterator {
	return &CollectionIterator{loader: loader, nextURL: firstPageURL}
}

// Next fetches and returns the next page's raw JSON-LD document. The second
// return value is false once there are no more pages to fetch.
func (it *CollectionIterator) Next(_ context.Context) ([]byte, bool, error) {
	if it.done || it.nextURL == "" {
		return nil, false, nil
	}

	doc, err := it.loader.LoadDocument(it.nextURL)
	if err != nil {
		return nil, false, err
	}

	body, ok := doc.Document.(string)
	if !ok {
		return nil, false, ferrors.NewBadRequestf("unexpected document shape at %s", it.nextURL)
	}

	var page collectionPage

	if err := json.Unmarshal([]byte(body), &page); err != nil {
		return nil, false, ferrors.NewBadRequestf("parse collection page at %s: %w", it.nextURL, err)
	}

	switch next := page.Next.(type) {
	case string:
		it.nextURL = next
	default:
		it.nextURL = ""
		it.done = true
	}

	return []byte(body), true, nil
}
