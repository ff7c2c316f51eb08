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

package models

import "time"

// Observation is one service's heartbeat data as reported by a registry
// source. A zero LastHeartbeat means the source knows the key but has never
// seen a beat.
type Observation struct {
	LastHeartbeat    time.Time     `json:"last_heartbeat"`
	ExpectedInterval time.Duration `json:"expected_interval,omitempty"`
}

// ServiceRecord is the monitor's view of one service. Records are created the
// first time a key is observed and survive the key disappearing from the
// source's output; a stale LastHeartbeat is what ages a service into down.
type ServiceRecord struct {
	Key              string        `json:"key"`
	LastHeartbeat    time.Time     `json:"last_heartbeat"`
	ExpectedInterval time.Duration `json:"expected_interval"`
	Status           Status        `json:"status"`
	StatusSince      time.Time     `json:"status_since"`

	// LastAlertedStatus is the status the dispatcher most recently sent an
	// alert for. Empty until the first alert. Only the dispatcher writes it.
	LastAlertedStatus Status `json:"last_alerted_status,omitempty"`

	// FirstSeen anchors eviction for keys that never produce a heartbeat.
	FirstSeen time.Time `json:"first_seen"`
}
