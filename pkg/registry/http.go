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
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/carverauto/pulsewatch/pkg/logger"
	"github.com/carverauto/pulsewatch/pkg/models"
)

const defaultFetchTimeout = 30 * time.Second

// HTTPRegistry queries a heartbeat registry service over HTTP. The service
// exposes GET <base>/status returning the full set of known services.
type HTTPRegistry struct {
	baseURL string
	client  *http.Client
	logger  logger.Logger
}

// NewHTTPRegistry creates an HTTP registry client.
func NewHTTPRegistry(cfg *Config, log logger.Logger) *HTTPRegistry {
	timeout := time.Duration(cfg.FetchTimeout)
	if timeout == 0 {
		timeout = defaultFetchTimeout
	}

	return &HTTPRegistry{
		baseURL: strings.TrimSuffix(cfg.URL, "/"),
		client:  &http.Client{Timeout: timeout},
		logger:  log,
	}
}

// statusResponse is the registry's wire format. Timestamps arrive as RFC3339
// strings or epoch seconds depending on the registry version.
type statusResponse struct {
	Services map[string]serviceStatus `json:"services"`
}

type serviceStatus struct {
	LastHeartbeat   *flexTime `json:"last_heartbeat"`
	IntervalSeconds float64   `json:"expected_interval_seconds,omitempty"`
}

// flexTime unmarshals either an RFC3339 string or a float64 of epoch seconds.
type flexTime struct {
	time.Time
}

func (f *flexTime) UnmarshalJSON(b []byte) error {
	var v interface{}
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}

	switch value := v.(type) {
	case nil:
		f.Time = time.Time{}
	case float64:
		sec := int64(value)
		nsec := int64((value - float64(sec)) * float64(time.Second))
		f.Time = time.Unix(sec, nsec).UTC()
	case string:
		parsed, err := time.Parse(time.RFC3339, value)
		if err != nil {
			return fmt.Errorf("unparsable timestamp %q: %w", value, err)
		}

		f.Time = parsed
	default:
		return fmt.Errorf("unsupported timestamp type %T", v)
	}

	return nil
}

// Fetch implements Registry.
func (r *HTTPRegistry) Fetch(ctx context.Context) (map[string]models.Observation, error) {
	url := r.baseURL + "/status"

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSourceUnavailable, err)
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSourceUnavailable, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: unexpected status %d from %s", ErrSourceUnavailable, resp.StatusCode, url)
	}

	var body statusResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("%w: malformed response body: %w", ErrSourceUnavailable, err)
	}

	observations := make(map[string]models.Observation, len(body.Services))

	for key, svc := range body.Services {
		obs := models.Observation{}

		if svc.LastHeartbeat != nil {
			obs.LastHeartbeat = svc.LastHeartbeat.Time
		}

		if svc.IntervalSeconds > 0 {
			obs.ExpectedInterval = time.Duration(svc.IntervalSeconds * float64(time.Second))
		}

		observations[key] = obs
	}

	r.logger.Debug().Int("services", len(observations)).Msg("Fetched heartbeat snapshot")

	return observations, nil
}
