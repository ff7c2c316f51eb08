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
	"time"

	"github.com/carverauto/pulsewatch/pkg/models"
)

// Classify derives a service status from its last heartbeat. It is pure: the
// same inputs always produce the same status.
//
// A zero lastHeartbeat means the service has never been seen and is unknown,
// never down. A heartbeat exactly at the interval boundary counts as alive.
func Classify(lastHeartbeat time.Time, interval time.Duration, now time.Time) models.Status {
	if lastHeartbeat.IsZero() {
		return models.StatusUnknown
	}

	if now.Sub(lastHeartbeat) <= interval {
		return models.StatusAlive
	}

	return models.StatusDown
}
