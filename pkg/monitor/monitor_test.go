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
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carverauto/pulsewatch/pkg/alerts"
	"github.com/carverauto/pulsewatch/pkg/logger"
	"github.com/carverauto/pulsewatch/pkg/models"
	"github.com/carverauto/pulsewatch/pkg/registry"
)

// fakeClock provides a settable now and a manually driven ticker.
type fakeClock struct {
	mu   sync.Mutex
	now  time.Time
	tick chan time.Time
}

func newFakeClock(now time.Time) *fakeClock {
	return &fakeClock{now: now, tick: make(chan time.Time, 1)}
}

func (f *fakeClock) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.now
}

func (f *fakeClock) Set(now time.Time) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.now = now
}

func (f *fakeClock) Ticker(_ time.Duration) Ticker {
	return &fakeTicker{c: f.tick}
}

type fakeTicker struct {
	c chan time.Time
}

func (f *fakeTicker) Chan() <-chan time.Time { return f.c }

func (*fakeTicker) Stop() {}

// fakeRegistry serves canned observations or a canned error.
type fakeRegistry struct {
	mu      sync.Mutex
	obs     map[string]models.Observation
	err     error
	fetches int
}

func (f *fakeRegistry) Fetch(_ context.Context) (map[string]models.Observation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.fetches++

	if f.err != nil {
		return nil, f.err
	}

	out := make(map[string]models.Observation, len(f.obs))
	for k, v := range f.obs {
		out[k] = v
	}

	return out, nil
}

func (f *fakeRegistry) set(obs map[string]models.Observation, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.obs = obs
	f.err = err
}

func testConfig() *Config {
	return &Config{
		Registry:                registry.Config{Type: "http", URL: "http://registry.local:8765"},
		CheckInterval:           models.Duration(time.Minute),
		DefaultExpectedInterval: models.Duration(90 * time.Second),
		DailySummaryTime:        "09:00",
		AlertDestination:        "ops-channel",
	}
}

func newMonitorUnderTest(t *testing.T, reg registry.Registry, notifier alerts.Notifier, clock Clock) *Monitor {
	t.Helper()

	m, err := New(testConfig(), reg, notifier, clock, logger.NewTestLogger())
	require.NoError(t, err)

	return m
}

func TestPoll_SourceUnavailableKeepsState(t *testing.T) {
	start := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	clock := newFakeClock(start)
	reg := &fakeRegistry{}
	notifier := &recordingNotifier{}

	m := newMonitorUnderTest(t, reg, notifier, clock)

	reg.set(map[string]models.Observation{"api": {LastHeartbeat: start}}, nil)
	require.NoError(t, m.poll(context.Background()))

	before := m.Store().Snapshot()
	require.Len(t, before, 1)
	assert.Equal(t, models.StatusAlive, before[0].Status)

	// The source goes away for ten minutes of ticks. The store must be
	// byte-for-byte what it was before the outage: no spurious down
	// transitions, no alerts.
	reg.set(nil, registry.ErrSourceUnavailable)
	clock.Set(start.Add(10 * time.Minute))
	require.NoError(t, m.poll(context.Background()))

	assert.Equal(t, before, m.Store().Snapshot())
	assert.Empty(t, notifier.alerts())
}

func TestPoll_DownAndRecoveryScenario(t *testing.T) {
	start := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	clock := newFakeClock(start)
	reg := &fakeRegistry{}
	notifier := &recordingNotifier{}

	m := newMonitorUnderTest(t, reg, notifier, clock)

	beat := models.Observation{LastHeartbeat: start, ExpectedInterval: 90 * time.Second}
	reg.set(map[string]models.Observation{"db": beat}, nil)

	// t=60: alive, quiet.
	clock.Set(start.Add(60 * time.Second))
	require.NoError(t, m.poll(context.Background()))
	assert.Equal(t, models.StatusAlive, m.Store().Snapshot()[0].Status)
	assert.Empty(t, notifier.alerts())

	// t=200: no new heartbeat, down, exactly one alert naming db.
	clock.Set(start.Add(200 * time.Second))
	require.NoError(t, m.poll(context.Background()))

	sent := notifier.alerts()
	require.Len(t, sent, 1)
	assert.Contains(t, sent[0].Message, `"db"`)

	// t=260: heartbeat arrives, alive again, one recovery alert.
	reg.set(map[string]models.Observation{"db": {
		LastHeartbeat:    start.Add(260 * time.Second),
		ExpectedInterval: 90 * time.Second,
	}}, nil)
	clock.Set(start.Add(260 * time.Second))
	require.NoError(t, m.poll(context.Background()))

	sent = notifier.alerts()
	require.Len(t, sent, 2)
	assert.Equal(t, alerts.Info, sent[1].Level)
	assert.Equal(t, models.StatusAlive, m.Store().Snapshot()[0].Status)
}

func TestMonitor_StartPollsOnTickAndStops(t *testing.T) {
	start := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	clock := newFakeClock(start)
	reg := &fakeRegistry{}
	notifier := &recordingNotifier{}

	reg.set(map[string]models.Observation{"api": {LastHeartbeat: start}}, nil)

	m := newMonitorUnderTest(t, reg, notifier, clock)

	errCh := make(chan error, 1)

	go func() {
		errCh <- m.Start(context.Background())
	}()

	// Initial poll plus one ticked poll.
	clock.tick <- start.Add(time.Minute)

	assert.Eventually(t, func() bool {
		reg.mu.Lock()
		defer reg.mu.Unlock()

		return reg.fetches >= 2
	}, time.Second, 5*time.Millisecond)

	require.NoError(t, m.Stop(context.Background()))
	require.NoError(t, <-errCh)
}

func TestNew_InvalidConfig(t *testing.T) {
	cfg := testConfig()
	cfg.DailySummaryTime = "25:99"

	_, err := New(cfg, &fakeRegistry{}, &recordingNotifier{}, newFakeClock(time.Now()), logger.NewTestLogger())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "daily_summary_time")
}
