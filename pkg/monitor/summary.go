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
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/carverauto/pulsewatch/pkg/alerts"
	"github.com/carverauto/pulsewatch/pkg/logger"
	"github.com/carverauto/pulsewatch/pkg/models"
)

const dayFormat = "2006-01-02"

// SummaryScheduler produces the once-a-day full status report. The fired-day
// guard makes it idempotent per calendar day: however often MaybeFire is
// invoked, the report goes out at most once between midnights.
type SummaryScheduler struct {
	store       *StateStore
	notifier    alerts.Notifier
	destination string
	at          models.TimeOfDay
	logger      logger.Logger

	mu       sync.Mutex
	firedDay string
}

// NewSummaryScheduler creates a scheduler that fires at the given wall-clock
// time. If the trigger time on the day of now has already passed, that day is
// treated as fired so a restart does not produce a second report.
func NewSummaryScheduler(store *StateStore, notifier alerts.Notifier, destination string, at models.TimeOfDay, now time.Time, log logger.Logger) *SummaryScheduler {
	s := &SummaryScheduler{
		store:       store,
		notifier:    notifier,
		destination: destination,
		at:          at,
		logger:      log,
	}

	if !now.Before(at.On(now)) {
		s.firedDay = now.Format(dayFormat)
	}

	return s
}

// MaybeFire sends the daily summary if the trigger time for now's calendar
// day has been reached and no report has gone out that day. It reports
// whether a summary was sent.
func (s *SummaryScheduler) MaybeFire(ctx context.Context, now time.Time) bool {
	s.mu.Lock()

	day := now.Format(dayFormat)
	if s.firedDay == day || now.Before(s.at.On(now)) {
		s.mu.Unlock()
		return false
	}

	s.firedDay = day
	s.mu.Unlock()

	summary := s.buildSummary(now)

	if err := s.notifier.Notify(ctx, summary); err != nil {
		// The day still counts as fired: the summary is best-effort and a
		// broken notifier must not turn into a send loop.
		s.logger.Error().Err(err).Msg("Failed to deliver daily summary")
		return true
	}

	s.logger.Info().Str("day", day).Msg("Daily summary sent")

	return true
}

// buildSummary renders counts per status plus the problem services. Alive
// services are only counted to keep the report short.
func (s *SummaryScheduler) buildSummary(now time.Time) *alerts.Alert {
	snapshot := s.store.Snapshot()

	counts := map[models.Status]int{}
	for i := range snapshot {
		counts[snapshot[i].Status]++
	}

	var b strings.Builder

	fmt.Fprintf(&b, "Services: %d down, %d unknown, %d alive\n",
		counts[models.StatusDown], counts[models.StatusUnknown], counts[models.StatusAlive])

	for i := range snapshot {
		rec := &snapshot[i]

		switch rec.Status {
		case models.StatusDown:
			fmt.Fprintf(&b, "down: %s (last heartbeat %s ago)\n",
				rec.Key, now.Sub(rec.LastHeartbeat).Round(time.Second))
		case models.StatusUnknown:
			fmt.Fprintf(&b, "unknown: %s (never seen)\n", rec.Key)
		case models.StatusAlive:
			// counted above
		}
	}

	level := alerts.Info
	if counts[models.StatusDown] > 0 {
		level = alerts.Warning
	}

	return &alerts.Alert{
		ID:          uuid.New().String(),
		Level:       level,
		Title:       fmt.Sprintf("Daily Services Summary (%s)", now.Format("2006-01-02 15:04:05")),
		Message:     strings.TrimRight(b.String(), "\n"),
		Destination: s.destination,
		Timestamp:   now.UTC().Format(time.RFC3339),
		Details: map[string]any{
			"down":    counts[models.StatusDown],
			"unknown": counts[models.StatusUnknown],
			"alive":   counts[models.StatusAlive],
		},
	}
}
