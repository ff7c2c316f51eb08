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
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/carverauto/pulsewatch/pkg/alerts"
	"github.com/carverauto/pulsewatch/pkg/logger"
	"github.com/carverauto/pulsewatch/pkg/metrics"
	"github.com/carverauto/pulsewatch/pkg/models"
)

// AlertDispatcher turns qualifying status transitions into notifications.
// Delivery is at-most-one-attempt per transition: a record is marked alerted
// once a send has been tried, whatever the outcome, so a broken notifier can
// never cause a retry storm.
type AlertDispatcher struct {
	notifier    alerts.Notifier
	store       *StateStore
	destination string
	logger      logger.Logger
}

// NewAlertDispatcher creates a dispatcher bound to a notifier and store.
func NewAlertDispatcher(notifier alerts.Notifier, store *StateStore, destination string, log logger.Logger) *AlertDispatcher {
	return &AlertDispatcher{
		notifier:    notifier,
		store:       store,
		destination: destination,
		logger:      log,
	}
}

// Dispatch examines the transitions of one refresh and sends at most one
// notification per qualifying transition. Transitions into or through unknown
// are informational only.
func (d *AlertDispatcher) Dispatch(ctx context.Context, transitions []Transition, now time.Time) {
	for _, tr := range transitions {
		if tr.After.Status == tr.Before.Status {
			continue
		}

		if tr.After.Status == tr.After.LastAlertedStatus {
			d.logger.Debug().
				Str("service", tr.After.Key).
				Str("status", string(tr.After.Status)).
				Msg("Suppressing duplicate alert")

			continue
		}

		var alert *alerts.Alert

		switch tr.After.Status {
		case models.StatusDown:
			alert = d.downAlert(&tr, now)
		case models.StatusAlive:
			if tr.Before.Status != models.StatusDown {
				// First heartbeat of a new service, not a recovery.
				d.logger.Info().
					Str("service", tr.After.Key).
					Msg("Service came alive")

				continue
			}

			alert = d.recoveryAlert(&tr, now)
		case models.StatusUnknown:
			d.logger.Info().
				Str("service", tr.After.Key).
				Str("previous", string(tr.Before.Status)).
				Msg("Service status became unknown")

			continue
		default:
			continue
		}

		if err := d.notifier.Notify(ctx, alert); err != nil {
			metrics.NotifierFailures.Inc()
			d.logger.Error().
				Err(err).
				Str("service", tr.After.Key).
				Str("alert_id", alert.ID).
				Msg("Failed to deliver alert")
		}

		// Marked regardless of delivery outcome, see type comment.
		d.store.MarkAlerted(tr.After.Key, tr.After.Status)
		metrics.AlertsSent.WithLabelValues(string(tr.After.Status)).Inc()
	}
}

func (d *AlertDispatcher) downAlert(tr *Transition, now time.Time) *alerts.Alert {
	elapsed := now.Sub(tr.After.LastHeartbeat).Round(time.Second)

	return &alerts.Alert{
		ID:          uuid.New().String(),
		Level:       alerts.Error,
		Title:       "Service Down",
		Message:     fmt.Sprintf("Service %q missed its heartbeat: last seen %s ago", tr.After.Key, elapsed),
		ServiceKey:  tr.After.Key,
		Destination: d.destination,
		Timestamp:   now.UTC().Format(time.RFC3339),
		Details: map[string]any{
			"last_heartbeat":  tr.After.LastHeartbeat.UTC().Format(time.RFC3339),
			"elapsed_seconds": int64(elapsed / time.Second),
			"previous_status": string(tr.Before.Status),
		},
	}
}

func (d *AlertDispatcher) recoveryAlert(tr *Transition, now time.Time) *alerts.Alert {
	downtime := now.Sub(tr.Before.StatusSince).Round(time.Second)

	return &alerts.Alert{
		ID:          uuid.New().String(),
		Level:       alerts.Info,
		Title:       "Service Recovered",
		Message:     fmt.Sprintf("Service %q is back online after %s of downtime", tr.After.Key, downtime),
		ServiceKey:  tr.After.Key,
		Destination: d.destination,
		Timestamp:   now.UTC().Format(time.RFC3339),
		Details: map[string]any{
			"down_since":       tr.Before.StatusSince.UTC().Format(time.RFC3339),
			"downtime_seconds": int64(downtime / time.Second),
		},
	}
}
