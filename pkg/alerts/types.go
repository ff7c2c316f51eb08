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

// Package alerts delivers notifications to external sinks. Delivery is
// best-effort: a failed send is reported to the caller but never retried here.
package alerts

import (
	"context"
	"errors"
)

// Severity of an alert.
type Severity string

const (
	Info    Severity = "info"
	Warning Severity = "warning"
	Error   Severity = "error"
)

// Alert is one notification payload.
type Alert struct {
	ID          string         `json:"id"`
	Level       Severity       `json:"level"`
	Title       string         `json:"title"`
	Message     string         `json:"message"`
	ServiceKey  string         `json:"service_key,omitempty"`
	Destination string         `json:"destination,omitempty"`
	Timestamp   string         `json:"timestamp"`
	Details     map[string]any `json:"details,omitempty"`
}

// Notifier delivers an alert to one sink.
type Notifier interface {
	Notify(ctx context.Context, alert *Alert) error
}

var (
	// ErrWebhookDisabled indicates a notifier was constructed without a URL.
	ErrWebhookDisabled = errors.New("webhook notifier is disabled")
	// ErrNotifyFailed wraps per-sink delivery failures from a fan-out send.
	ErrNotifyFailed = errors.New("failed to deliver alert")
)
