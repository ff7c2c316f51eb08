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
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carverauto/pulsewatch/pkg/alerts"
	"github.com/carverauto/pulsewatch/pkg/logger"
	"github.com/carverauto/pulsewatch/pkg/models"
)

// recordingNotifier captures delivered alerts and optionally fails.
type recordingNotifier struct {
	mu   sync.Mutex
	sent []*alerts.Alert
	err  error
}

func (r *recordingNotifier) Notify(_ context.Context, alert *alerts.Alert) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.sent = append(r.sent, alert)

	return r.err
}

func (r *recordingNotifier) alerts() []*alerts.Alert {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]*alerts.Alert, len(r.sent))
	copy(out, r.sent)

	return out
}

func newDispatcherUnderTest(notifier alerts.Notifier) (*AlertDispatcher, *StateStore) {
	store := newTestStore(0)
	d := NewAlertDispatcher(notifier, store, "ops-channel", logger.NewTestLogger())

	return d, store
}

func TestDispatch_DownAlertOnce(t *testing.T) {
	notifier := &recordingNotifier{}
	d, store := newDispatcherUnderTest(notifier)

	start := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	// Tick 1: heartbeat at t=60, alive.
	obs := map[string]models.Observation{"db": {LastHeartbeat: start.Add(60 * time.Second), ExpectedInterval: 90 * time.Second}}
	d.Dispatch(context.Background(), store.Refresh(obs, start.Add(60*time.Second)), start.Add(60*time.Second))
	assert.Empty(t, notifier.alerts())

	// Tick 2: down, one alert.
	now := start.Add(200 * time.Second)
	d.Dispatch(context.Background(), store.Refresh(obs, now), now)

	sent := notifier.alerts()
	require.Len(t, sent, 1)
	assert.Equal(t, alerts.Error, sent[0].Level)
	assert.Equal(t, "db", sent[0].ServiceKey)
	assert.Equal(t, "ops-channel", sent[0].Destination)
	assert.Contains(t, sent[0].Message, `"db"`)
	assert.Contains(t, sent[0].Message, "2m20s") // 140s since last heartbeat

	// N more ticks while still down: no further alerts.
	for i := 1; i <= 5; i++ {
		tick := now.Add(time.Duration(i) * time.Minute)
		d.Dispatch(context.Background(), store.Refresh(obs, tick), tick)
	}

	assert.Len(t, notifier.alerts(), 1)
}

func TestDispatch_RecoveryAlert(t *testing.T) {
	notifier := &recordingNotifier{}
	d, store := newDispatcherUnderTest(notifier)

	start := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	obs := map[string]models.Observation{"db": {LastHeartbeat: start, ExpectedInterval: 90 * time.Second}}

	down := start.Add(200 * time.Second)
	d.Dispatch(context.Background(), store.Refresh(obs, down), down)
	require.Len(t, notifier.alerts(), 1)

	// A heartbeat arrives at t=260: recovery alert.
	obs["db"] = models.Observation{LastHeartbeat: start.Add(260 * time.Second), ExpectedInterval: 90 * time.Second}
	recovered := start.Add(260 * time.Second)
	d.Dispatch(context.Background(), store.Refresh(obs, recovered), recovered)

	sent := notifier.alerts()
	require.Len(t, sent, 2)
	assert.Equal(t, alerts.Info, sent[1].Level)
	assert.Contains(t, sent[1].Message, `"db"`)
	assert.Contains(t, sent[1].Message, "back online")
	assert.Contains(t, sent[1].Message, "1m0s") // down since t=200

	// Suppression is per-status, not permanent: going down again re-alerts.
	downAgain := recovered.Add(5 * time.Minute)
	d.Dispatch(context.Background(), store.Refresh(obs, downAgain), downAgain)
	require.Len(t, notifier.alerts(), 3)
	assert.Equal(t, alerts.Error, notifier.alerts()[2].Level)
}

func TestDispatch_UnknownTransitionsAreSilent(t *testing.T) {
	notifier := &recordingNotifier{}
	d, store := newDispatcherUnderTest(notifier)

	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	// New never-seen service: unknown, no alert.
	d.Dispatch(context.Background(), store.Refresh(map[string]models.Observation{"new": {}}, now), now)
	assert.Empty(t, notifier.alerts())

	// First heartbeat: unknown -> alive is not a recovery, still no alert.
	later := now.Add(time.Minute)
	d.Dispatch(context.Background(), store.Refresh(map[string]models.Observation{
		"new": {LastHeartbeat: later},
	}, later), later)
	assert.Empty(t, notifier.alerts())
}

func TestDispatch_NotifierFailureStillMarksAlerted(t *testing.T) {
	notifier := &recordingNotifier{err: errors.New("sink exploded")}
	d, store := newDispatcherUnderTest(notifier)

	start := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	obs := map[string]models.Observation{"db": {LastHeartbeat: start, ExpectedInterval: 90 * time.Second}}

	down := start.Add(200 * time.Second)
	d.Dispatch(context.Background(), store.Refresh(obs, down), down)
	require.Len(t, notifier.alerts(), 1)

	// The attempt counts as sent: no retry storm on the next tick.
	next := down.Add(time.Minute)
	d.Dispatch(context.Background(), store.Refresh(obs, next), next)
	assert.Len(t, notifier.alerts(), 1)
}
