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

package registry

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carverauto/pulsewatch/pkg/logger"
)

func newTestRegistry(url string) *HTTPRegistry {
	return NewHTTPRegistry(&Config{Type: "http", URL: url}, logger.NewTestLogger())
}

func TestHTTPRegistryFetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/status", r.URL.Path)

		_, _ = w.Write([]byte(`{
			"services": {
				"api":    {"last_heartbeat": "2025-06-01T12:00:00Z", "expected_interval_seconds": 120},
				"worker": {"last_heartbeat": 1748779200},
				"ghost":  {"last_heartbeat": null}
			}
		}`))
	}))
	defer srv.Close()

	reg := newTestRegistry(srv.URL)

	observations, err := reg.Fetch(context.Background())
	require.NoError(t, err)
	require.Len(t, observations, 3)

	api := observations["api"]
	assert.Equal(t, time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC), api.LastHeartbeat)
	assert.Equal(t, 2*time.Minute, api.ExpectedInterval)

	worker := observations["worker"]
	assert.Equal(t, time.Unix(1748779200, 0).UTC(), worker.LastHeartbeat)
	assert.Zero(t, worker.ExpectedInterval)

	ghost := observations["ghost"]
	assert.True(t, ghost.LastHeartbeat.IsZero())
}

func TestHTTPRegistryFetch_Non200(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	reg := newTestRegistry(srv.URL)

	_, err := reg.Fetch(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrSourceUnavailable)
}

func TestHTTPRegistryFetch_MalformedBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"services": "not a map"`))
	}))
	defer srv.Close()

	reg := newTestRegistry(srv.URL)

	_, err := reg.Fetch(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrSourceUnavailable)
}

func TestHTTPRegistryFetch_ConnectionRefused(t *testing.T) {
	// Server closed before the fetch: network error, not a crash.
	srv := httptest.NewServer(http.HandlerFunc(func(_ http.ResponseWriter, _ *http.Request) {}))
	srv.Close()

	reg := newTestRegistry(srv.URL)

	_, err := reg.Fetch(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrSourceUnavailable)
}

func TestHTTPRegistryFetch_BadTimestamp(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"services": {"api": {"last_heartbeat": "yesterday-ish"}}}`))
	}))
	defer srv.Close()

	reg := newTestRegistry(srv.URL)

	_, err := reg.Fetch(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrSourceUnavailable)
}
