/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package nodeinfo

import (
	"errors"
	"fmt"
	"net/url"
	"sync"
	"sync/atomic"
	"time"

	"github.com/trustbloc/edge-core/pkg/log"

	apstore "github.com/fedcore/federation/pkg/activitypub/store/spi"
	"github.com/fedcore/federation/pkg/activitypub/vocab"
	"github.com/fedcore/federation/pkg/lifecycle"
)

type logger interface {
	Infof(msg string, args ...interface{})
	Debugf(msg string, args ...interface{})
	Warnf(msg string, args ...interface{})
	Errorf(msg string, args ...interface{})
}

type stats struct {
	Posts uint64
	Likes uint64
}

func (s *stats) String() string {
	return fmt.Sprintf("posts: %d, likes: %d", s.Posts, s.Likes)
}

// Service periodically scans the local outbox for Create and Like activities
// and produces NodeInfo usage stats from the counts.
type Service struct {
	*lifecycle.Lifecycle

	done       chan struct{}
	interval   time.Duration
	serviceIRI *url.URL
	apStore    apstore.Store
	stats      *stats
	mutex      sync.RWMutex
	logger     logger
}

// NewService returns a new NodeInfo service that refreshes its stats every
// refreshInterval by querying apStore's outbox.
// If logger is nil, then a default will be used.
func NewService(serviceIRI *url.URL, refreshInterval time.Duration, apStore apstore.Store, logger logger) *Service {
	if logger == nil {
		logger = log.New("nodeinfo")
	}

	r := &Service{
		apStore:    apStore,
		serviceIRI: serviceIRI,
		done:       make(chan struct{}),
		interval:   refreshInterval,
		stats:      &stats{},
		logger:     logger,
	}

	r.Lifecycle = lifecycle.New("nodeinfo",
		lifecycle.WithStart(r.start),
		lifecycle.WithStop(r.stop))

	return r
}

// GetNodeInfo returns a NodeInfo struct compatible with the given version.
func (r *Service) GetNodeInfo(version Version) *NodeInfo {
	var repository string

	if version == V2_1 {
		repository = serverRepository
	}

	r.mutex.RLock()

	stats := r.stats

	r.mutex.RUnlock()

	return &NodeInfo{
		Version:   version,
		Protocols: []string{activityPubProtocol},
		Software: Software{
			Name:       serverSoftwareName,
			Version:    softwareVersion,
			Repository: repository,
		},
		Services: Services{
			Inbound:  []string{},
			Outbound: []string{},
		},
		OpenRegistrations: false,
		Usage: Usage{
			Users: Users{
				Total: 1,
			},
			LocalPosts:    int(stats.Posts),
			LocalComments: int(stats.Likes),
		},
	}
}

func (r *Service) start() {
	go r.refresh()

	r.logger.Infof("Started NodeInfo service")
}

func (r *Service) stop() {
	close(r.done)

	r.logger.Infof("Stopped NodeInfo service")
}

func (r *Service) refresh() {
	for {
		select {
		case <-time.After(r.interval):
			r.retrieve()
		case <-r.done:
			r.logger.Debugf("Exiting stats retriever.")

			return
		}
	}
}

func (r *Service) retrieve() {
	posts, err := r.countOutboxActivities(vocab.TypeCreate)
	if err != nil {
		r.logger.Errorf("count Create activities in outbox: %s", err.Error())

		return
	}

	likes, err := r.countOutboxActivities(vocab.TypeLike)
	if err != nil {
		r.logger.Errorf("count Like activities in outbox: %s", err.Error())

		return
	}

	s := &stats{Posts: posts, Likes: likes}

	r.logger.Debugf("Updated stats: %s", s)

	r.mutex.Lock()
	r.stats = s
	r.mutex.Unlock()
}

func (r *Service) countOutboxActivities(activityType vocab.Type) (uint64, error) {
	it, err := r.apStore.QueryActivities(apstore.Outbox, apstore.NewCriteria(apstore.WithType(activityType)))
	if err != nil {
		return 0, fmt.Errorf("query outbox for %s activities: %w", activityType, err)
	}

	defer it.Close()

	var count uint64

	for {
		_, err := it.Next()
		if err != nil {
			if errors.Is(err, apstore.ErrNotFound) {
				return count, nil
			}

			return 0, fmt.Errorf("iterate outbox for %s activities: %w", activityType, err)
		}

		atomic.AddUint64(&count, 1)
	}
}
