/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package nodeinfo

import (
	"fmt"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/trustbloc/edge-core/pkg/log"

	apstore "github.com/fedcore/federation/pkg/activitypub/store/spi"
	"github.com/fedcore/federation/pkg/activitypub/vocab"
	"github.com/fedcore/federation/pkg/internal/aptestutil"
	"github.com/fedcore/federation/pkg/internal/testutil"
)

type stringLogger struct {
	log string
}

func (s *stringLogger) Debugf(msg string, args ...interface{}) {
	s.log = fmt.Sprintf(msg, args...)
}

func (s *stringLogger) Infof(msg string, args ...interface{}) {
	s.log = fmt.Sprintf(msg, args...)
}

func (s *stringLogger) Warnf(msg string, args ...interface{}) {
	s.log = fmt.Sprintf(msg, args...)
}

func (s *stringLogger) Errorf(msg string, args ...interface{}) {
	s.log = fmt.Sprintf(msg, args...)
}

// fakeOutboxStore is a minimal spi.Store that only backs outbox activity
// queries, the only thing the NodeInfo service reads from the store.
type fakeOutboxStore struct {
	mutex      sync.RWMutex
	activities []*vocab.ActivityType
}

func (f *fakeOutboxStore) PutActor(*vocab.ActorType) error { return nil }

func (f *fakeOutboxStore) GetActor(*url.URL) (*vocab.ActorType, error) {
	return nil, apstore.ErrNotFound
}

func (f *fakeOutboxStore) AddActivity(storeType apstore.ActivityStoreType, activity *vocab.ActivityType) error {
	if storeType != apstore.Outbox {
		return nil
	}

	f.mutex.Lock()
	defer f.mutex.Unlock()

	f.activities = append(f.activities, activity)

	return nil
}

func (f *fakeOutboxStore) GetActivity(apstore.ActivityStoreType, string) (*vocab.ActivityType, error) {
	return nil, apstore.ErrNotFound
}

func (f *fakeOutboxStore) QueryActivities(storeType apstore.ActivityStoreType,
	query *apstore.Criteria) (apstore.ActivityResultsIterator, error) {
	if storeType != apstore.Outbox {
		return &fakeIterator{}, nil
	}

	f.mutex.RLock()
	defer f.mutex.RUnlock()

	var matched []*vocab.ActivityType

	for _, a := range f.activities {
		if a.Type().Is(query.Types...) {
			matched = append(matched, a)
		}
	}

	return &fakeIterator{items: matched}, nil
}

func (f *fakeOutboxStore) AddReference(apstore.ReferenceType, *url.URL, *url.URL) error { return nil }

func (f *fakeOutboxStore) DeleteReference(apstore.ReferenceType, *url.URL, *url.URL) error { return nil }

func (f *fakeOutboxStore) GetReferences(apstore.ReferenceType, *url.URL) ([]*url.URL, error) {
	return nil, nil
}

type fakeIterator struct {
	items []*vocab.ActivityType
	pos   int
}

func (it *fakeIterator) Next() (*vocab.ActivityType, error) {
	if it.pos >= len(it.items) {
		return nil, apstore.ErrNotFound
	}

	a := it.items[it.pos]
	it.pos++

	return a, nil
}

func (it *fakeIterator) Close() {}

func TestService(t *testing.T) {
	log.SetLevel("nodeinfo", log.DEBUG)

	softwareVersion = "0.999"

	serviceIRI := testutil.MustParseURL("https://example.com/services/fedcore")

	const (
		numCreates = 10
		numLikes   = 5
	)

	apStore := &fakeOutboxStore{}

	for _, a := range append(aptestutil.NewMockCreateActivities(numCreates),
		aptestutil.NewMockLikeActivities(numLikes)...) {
		require.NoError(t, apStore.AddActivity(apstore.Outbox, a))
	}

	s := NewService(serviceIRI, 50*time.Millisecond, apStore, nil)
	require.NotNil(t, s)

	s.Start()
	defer s.Stop()

	time.Sleep(500 * time.Millisecond)

	nodeInfo := s.GetNodeInfo(V2_0)
	require.NotNil(t, nodeInfo)

	require.Equal(t, serverSoftwareName, nodeInfo.Software.Name)
	require.Equal(t, "0.999", nodeInfo.Software.Version)
	require.Equal(t, "", nodeInfo.Software.Repository)
	require.False(t, nodeInfo.OpenRegistrations)
	require.Empty(t, nodeInfo.Services.Inbound)
	require.Empty(t, nodeInfo.Services.Outbound)
	require.Len(t, nodeInfo.Protocols, 1)
	require.Equal(t, activityPubProtocol, nodeInfo.Protocols[0])
	require.Empty(t, nodeInfo.Metadata)
	require.Equal(t, 1, nodeInfo.Usage.Users.Total)
	require.Equal(t, numCreates, nodeInfo.Usage.LocalPosts)
	require.Equal(t, numLikes, nodeInfo.Usage.LocalComments)

	nodeInfo = s.GetNodeInfo(V2_1)
	require.NotNil(t, nodeInfo)
	require.Equal(t, serverSoftwareName, nodeInfo.Software.Name)
	require.Equal(t, "0.999", nodeInfo.Software.Version)
	require.Equal(t, serverRepository, nodeInfo.Software.Repository)
	require.Equal(t, numCreates, nodeInfo.Usage.LocalPosts)
	require.Equal(t, numLikes, nodeInfo.Usage.LocalComments)
}
