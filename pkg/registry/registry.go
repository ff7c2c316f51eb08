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

// Package registry fetches heartbeat snapshots from an external heartbeat
// source and normalizes them for the monitor. Transport failures of any kind
// surface as ErrSourceUnavailable so a transient outage is never mistaken for
// every service being down.
package registry

import (
	"context"
	"errors"

	"github.com/carverauto/pulsewatch/pkg/models"
)

// ErrSourceUnavailable indicates the heartbeat source could not be queried or
// returned a response we could not understand. Callers skip the tick and keep
// their prior state.
var ErrSourceUnavailable = errors.New("heartbeat source unavailable")

// Registry is a heartbeat source.
type Registry interface {
	// Fetch returns the current snapshot of known service keys with their
	// last-seen timestamps.
	Fetch(ctx context.Context) (map[string]models.Observation, error)
}

// Config selects and configures a registry backend.
type Config struct {
	Type         string          `json:"type"` // "http" or "nats"
	URL          string          `json:"url,omitempty"`
	Bucket       string          `json:"bucket,omitempty"`
	FetchTimeout models.Duration `json:"fetch_timeout,omitempty"`
}
