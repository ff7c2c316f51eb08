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

// Package monitor implements the pulsewatch health-state engine: heartbeat
// classification, transition detection, deduplicated alerting and the daily
// summary, all driven by a single poll loop.
package monitor

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/robfig/cron/v3"

	"github.com/carverauto/pulsewatch/pkg/alerts"
	"github.com/carverauto/pulsewatch/pkg/logger"
	"github.com/carverauto/pulsewatch/pkg/metrics"
	"github.com/carverauto/pulsewatch/pkg/registry"
)

const stopTimeout = 10 * time.Second

// Monitor is the top-level driver. It ticks the registry fetch, state
// refresh and alert dispatch on a fixed interval, and fires the daily
// summary on its own cron schedule. Both activities share the StateStore.
type Monitor struct {
	config     Config
	registry   registry.Registry
	store      *StateStore
	dispatcher *AlertDispatcher
	summary    *SummaryScheduler
	notifier   alerts.Notifier
	cron       *cron.Cron
	clock      Clock
	ticker     Ticker
	metricsSrv *http.Server
	done       chan struct{}
	closeOnce  sync.Once
	wg         sync.WaitGroup
	logger     logger.Logger
}

// New creates a monitor instance. A nil clock defaults to the real clock.
func New(config *Config, reg registry.Registry, notifier alerts.Notifier, clock Clock, log logger.Logger) (*Monitor, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid monitor config: %w", err)
	}

	if clock == nil {
		clock = realClock{}
	}

	store := NewStateStore(
		time.Duration(config.DefaultExpectedInterval),
		time.Duration(config.EvictAfter),
		log,
	)

	m := &Monitor{
		config:     *config,
		registry:   reg,
		store:      store,
		dispatcher: NewAlertDispatcher(notifier, store, config.AlertDestination, log),
		summary:    NewSummaryScheduler(store, notifier, config.AlertDestination, config.SummaryAt, clock.Now(), log),
		notifier:   notifier,
		clock:      clock,
		done:       make(chan struct{}),
		logger:     log,
	}

	m.cron = cron.New(cron.WithLocation(time.Local))

	if _, err := m.cron.AddFunc(config.SummaryAt.CronSpec(), m.runSummary); err != nil {
		return nil, fmt.Errorf("failed to schedule daily summary: %w", err)
	}

	return m, nil
}

// Start implements the lifecycle.Service interface. It blocks until the
// context is canceled or Stop is called.
func (m *Monitor) Start(ctx context.Context) error {
	interval := time.Duration(m.config.CheckInterval)
	m.ticker = m.clock.Ticker(interval)

	defer m.ticker.Stop()

	m.logger.Info().
		Dur("interval", interval).
		Str("summary_at", m.config.SummaryAt.String()).
		Msg("Starting monitor")

	m.startMetricsServer()
	m.cron.Start()

	if m.config.StartupNotice {
		m.sendLifecycleNotice(ctx, "Monitor Started", alerts.Info)
	}

	m.wg.Add(1)
	defer m.wg.Done()

	if err := m.poll(ctx); err != nil {
		m.logger.Error().Err(err).Msg("Error during initial poll")
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-m.done:
			return nil
		case <-m.ticker.Chan():
			if err := m.poll(ctx); err != nil {
				m.logger.Error().Err(err).Msg("Error during poll")
			}
		}
	}
}

// Stop implements the lifecycle.Service interface.
func (m *Monitor) Stop(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, stopTimeout)
	defer cancel()

	m.closeOnce.Do(func() {
		close(m.done)
	})

	cronCtx := m.cron.Stop()

	select {
	case <-cronCtx.Done():
	case <-ctx.Done():
		m.logger.Warn().Msg("Timed out waiting for summary job")
	}

	m.wg.Wait()

	if m.config.StartupNotice {
		m.sendLifecycleNotice(ctx, "Monitor Stopping", alerts.Warning)
	}

	if m.metricsSrv != nil {
		if err := m.metricsSrv.Shutdown(ctx); err != nil {
			m.logger.Error().Err(err).Msg("Error shutting down metrics server")
		}
	}

	return nil
}

// poll runs one tick: fetch, refresh, dispatch. A source failure skips the
// tick and leaves the store untouched.
func (m *Monitor) poll(ctx context.Context) error {
	now := m.clock.Now()

	observations, err := m.registry.Fetch(ctx)
	if err != nil {
		metrics.PollsTotal.WithLabelValues("error").Inc()

		if errors.Is(err, registry.ErrSourceUnavailable) {
			metrics.SourceFailures.Inc()
			m.logger.Warn().Err(err).Msg("Heartbeat source unavailable, skipping tick")

			return nil
		}

		return err
	}

	transitions := m.store.Refresh(observations, now)
	m.dispatcher.Dispatch(ctx, transitions, now)

	for status, count := range m.store.Counts() {
		metrics.ServicesByStatus.WithLabelValues(string(status)).Set(float64(count))
	}

	metrics.PollsTotal.WithLabelValues("ok").Inc()
	m.logger.Debug().Int("services", len(transitions)).Msg("Poll tick complete")

	return nil
}

// runSummary is the cron entrypoint for the daily report.
func (m *Monitor) runSummary() {
	ctx, cancel := context.WithTimeout(context.Background(), stopTimeout)
	defer cancel()

	m.summary.MaybeFire(ctx, m.clock.Now())
}

func (m *Monitor) startMetricsServer() {
	if m.config.ListenAddr == "" {
		return
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{}))

	m.metricsSrv = &http.Server{
		Addr:              m.config.ListenAddr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		if err := m.metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			m.logger.Error().Err(err).Msg("Metrics server failed")
		}
	}()
}

func (m *Monitor) sendLifecycleNotice(ctx context.Context, title string, level alerts.Severity) {
	hostname, _ := os.Hostname()

	alert := &alerts.Alert{
		ID:          uuid.New().String(),
		Level:       level,
		Title:       title,
		Message:     fmt.Sprintf("pulsewatch monitor on %s at %s", hostname, m.clock.Now().Format(time.RFC3339)),
		Destination: m.config.AlertDestination,
		Timestamp:   m.clock.Now().UTC().Format(time.RFC3339),
		Details: map[string]any{
			"hostname": hostname,
		},
	}

	if err := m.notifier.Notify(ctx, alert); err != nil {
		m.logger.Error().Err(err).Msg("Failed to send lifecycle notice")
	}
}

// Store exposes the state table for read-only callers such as status APIs.
func (m *Monitor) Store() *StateStore {
	return m.store
}
