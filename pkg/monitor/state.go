/*
 * Copyright 2025 Carver Automation Corporation.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package monitor

import (
	"sort"
	"sync"
	"time"

	"github.com/carverauto/pulsewatch/pkg/logger"
	"github.com/carverauto/pulsewatch/pkg/models"
)

// Transition is one service's record before and after a refresh.
type Transition struct {
	Before models.ServiceRecord
	After  models.ServiceRecord
}

// StateStore is the authoritative in-memory table of service records. The
// poll loop and the summary scheduler run on separate goroutines, so all
// access goes through the mutex.
type StateStore struct {
	mu              sync.Mutex
	records         map[string]*models.ServiceRecord
	defaultInterval time.Duration
	evictAfter      time.Duration
	logger          logger.Logger
}

// NewStateStore creates an empty store. defaultInterval applies to services
// that do not declare their own expected interval. evictAfter of zero
// disables eviction.
func NewStateStore(defaultInterval, evictAfter time.Duration, log logger.Logger) *StateStore {
	return &StateStore{
		records:         make(map[string]*models.ServiceRecord),
		defaultInterval: defaultInterval,
		evictAfter:      evictAfter,
		logger:          log,
	}
}

// Refresh folds a snapshot of observations into the table and recomputes
// every record's status. It returns one transition per surviving key in the
// union of previously known and newly observed keys, sorted by key.
//
// A key absent from observations keeps its existing record: no new heartbeat
// simply means the service ages toward down. Records are only removed by the
// eviction rule, never by absence alone.
func (s *StateStore) Refresh(observations map[string]models.Observation, now time.Time) []Transition {
	s.mu.Lock()
	defer s.mu.Unlock()

	for key, obs := range observations {
		rec, ok := s.records[key]
		if !ok {
			rec = &models.ServiceRecord{
				Key:         key,
				Status:      models.StatusUnknown,
				StatusSince: now,
				FirstSeen:   now,
			}
			s.records[key] = rec
		}

		if obs.LastHeartbeat.After(rec.LastHeartbeat) {
			rec.LastHeartbeat = obs.LastHeartbeat
		}

		if obs.ExpectedInterval > 0 {
			rec.ExpectedInterval = obs.ExpectedInterval
		}
	}

	transitions := make([]Transition, 0, len(s.records))

	for key, rec := range s.records {
		if _, observed := observations[key]; !observed && s.shouldEvict(rec, now) {
			s.logger.Info().
				Str("service", key).
				Time("last_heartbeat", rec.LastHeartbeat).
				Msg("Evicting stale service record")

			delete(s.records, key)

			continue
		}

		before := *rec

		status := Classify(rec.LastHeartbeat, s.intervalFor(rec), now)
		if status != rec.Status {
			rec.Status = status
			rec.StatusSince = now
		}

		transitions = append(transitions, Transition{Before: before, After: *rec})
	}

	sort.Slice(transitions, func(i, j int) bool {
		return transitions[i].After.Key < transitions[j].After.Key
	})

	return transitions
}

// Snapshot returns a copy of all records ordered for reporting: down first,
// then unknown, then alive, keys sorted within each group.
func (s *StateStore) Snapshot() []models.ServiceRecord {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]models.ServiceRecord, 0, len(s.records))
	for _, rec := range s.records {
		out = append(out, *rec)
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Status != out[j].Status {
			return out[i].Status.Worse(out[j].Status)
		}

		return out[i].Key < out[j].Key
	})

	return out
}

// Counts returns the number of services per status.
func (s *StateStore) Counts() map[models.Status]int {
	s.mu.Lock()
	defer s.mu.Unlock()

	counts := make(map[models.Status]int, 3)
	for _, rec := range s.records {
		counts[rec.Status]++
	}

	return counts
}

// MarkAlerted records the status an alert was just sent for. Only the
// dispatcher calls this.
func (s *StateStore) MarkAlerted(key string, status models.Status) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if rec, ok := s.records[key]; ok {
		rec.LastAlertedStatus = status
	}
}

func (s *StateStore) intervalFor(rec *models.ServiceRecord) time.Duration {
	if rec.ExpectedInterval > 0 {
		return rec.ExpectedInterval
	}

	return s.defaultInterval
}

// shouldEvict reports whether a record whose key is absent from the source
// output has been stale longer than the eviction TTL.
func (s *StateStore) shouldEvict(rec *models.ServiceRecord, now time.Time) bool {
	if s.evictAfter == 0 {
		return false
	}

	anchor := rec.LastHeartbeat
	if anchor.IsZero() {
		anchor = rec.FirstSeen
	}

	return now.Sub(anchor) > s.evictAfter
}
