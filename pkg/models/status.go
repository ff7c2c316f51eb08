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

// Package models defines the data model shared by the pulsewatch packages.
package models

// Status is the derived health classification of a monitored service.
type Status string

const (
	// StatusUnknown means no heartbeat has ever been observed for the service.
	StatusUnknown Status = "unknown"
	// StatusAlive means the most recent heartbeat is within the expected interval.
	StatusAlive Status = "alive"
	// StatusDown means the most recent heartbeat is older than the expected interval.
	StatusDown Status = "down"
)

// rank orders statuses for reporting, problems first.
func (s Status) rank() int {
	switch s {
	case StatusDown:
		return 0
	case StatusUnknown:
		return 1
	case StatusAlive:
		return 2
	default:
		return 3
	}
}

// Worse reports whether s sorts before other in a problems-first listing.
func (s Status) Worse(other Status) bool {
	return s.rank() < other.rank()
}
