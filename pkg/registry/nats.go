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
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/carverauto/pulsewatch/pkg/logger"
	"github.com/carverauto/pulsewatch/pkg/models"
)

// NATSRegistry reads heartbeat documents from a JetStream KV bucket. Each key
// in the bucket is a service key whose value is a JSON heartbeat document in
// the same shape the HTTP registry serves per service.
type NATSRegistry struct {
	nc      *nats.Conn
	kv      jetstream.KeyValue
	bucket  string
	timeout time.Duration
	logger  logger.Logger
}

// NewNATSRegistry connects to the given NATS URL and binds the KV bucket,
// creating it when absent.
func NewNATSRegistry(ctx context.Context, cfg *Config, log logger.Logger) (*NATSRegistry, error) {
	nc, err := nats.Connect(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	js, err := jetstream.New(nc)
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("failed to create JetStream context: %w", err)
	}

	kvStore, err := js.CreateOrUpdateKeyValue(ctx, jetstream.KeyValueConfig{
		Bucket: cfg.Bucket,
	})
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("failed to bind KV bucket %q: %w", cfg.Bucket, err)
	}

	timeout := time.Duration(cfg.FetchTimeout)
	if timeout == 0 {
		timeout = defaultFetchTimeout
	}

	return &NATSRegistry{
		nc:      nc,
		kv:      kvStore,
		bucket:  cfg.Bucket,
		timeout: timeout,
		logger:  log,
	}, nil
}

// Fetch implements Registry.
func (r *NATSRegistry) Fetch(ctx context.Context) (map[string]models.Observation, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	lister, err := r.kv.ListKeys(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSourceUnavailable, err)
	}

	observations := make(map[string]models.Observation)

	for key := range lister.Keys() {
		entry, err := r.kv.Get(ctx, key)
		if err != nil {
			if ctx.Err() != nil {
				return nil, fmt.Errorf("%w: %w", ErrSourceUnavailable, ctx.Err())
			}

			// Key deleted between list and get, skip it.
			r.logger.Debug().Str("key", key).Err(err).Msg("Skipping KV key")

			continue
		}

		var svc serviceStatus
		if err := json.Unmarshal(entry.Value(), &svc); err != nil {
			return nil, fmt.Errorf("%w: malformed heartbeat document for %q: %w", ErrSourceUnavailable, key, err)
		}

		obs := models.Observation{}

		if svc.LastHeartbeat != nil {
			obs.LastHeartbeat = svc.LastHeartbeat.Time
		}

		if svc.IntervalSeconds > 0 {
			obs.ExpectedInterval = time.Duration(svc.IntervalSeconds * float64(time.Second))
		}

		observations[key] = obs
	}

	r.logger.Debug().
		Str("bucket", r.bucket).
		Int("services", len(observations)).
		Msg("Fetched heartbeat snapshot from KV")

	return observations, nil
}

// Close releases the NATS connection.
func (r *NATSRegistry) Close() {
	r.nc.Close()
}
