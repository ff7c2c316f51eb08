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

package alerts

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/carverauto/pulsewatch/pkg/logger"
	"github.com/carverauto/pulsewatch/pkg/models"
)

const defaultWebhookTimeout = 10 * time.Second

// WebhookConfig configures one webhook sink.
type WebhookConfig struct {
	URL     string            `json:"url"`
	Timeout models.Duration   `json:"timeout,omitempty"`
	Headers map[string]string `json:"headers,omitempty"`
}

// WebhookNotifier posts alerts as JSON to a configured URL. The HTTP client
// timeout bounds every delivery so a slow sink cannot stall the poll loop.
type WebhookNotifier struct {
	url     string
	headers map[string]string
	client  *http.Client
	logger  logger.Logger
}

// NewWebhookNotifier creates a webhook notifier from config.
func NewWebhookNotifier(cfg *WebhookConfig, log logger.Logger) (*WebhookNotifier, error) {
	if cfg.URL == "" {
		return nil, ErrWebhookDisabled
	}

	timeout := time.Duration(cfg.Timeout)
	if timeout == 0 {
		timeout = defaultWebhookTimeout
	}

	return &WebhookNotifier{
		url:     cfg.URL,
		headers: cfg.Headers,
		client:  &http.Client{Timeout: timeout},
		logger:  log,
	}, nil
}

// Notify implements Notifier.
func (w *WebhookNotifier) Notify(ctx context.Context, alert *Alert) error {
	body, err := json.Marshal(alert)
	if err != nil {
		return fmt.Errorf("failed to marshal alert: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")

	for k, v := range w.headers {
		req.Header.Set(k, v)
	}

	resp, err := w.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrNotifyFailed, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return fmt.Errorf("%w: unexpected status %d", ErrNotifyFailed, resp.StatusCode)
	}

	w.logger.Debug().
		Str("alert_id", alert.ID).
		Str("url", w.url).
		Msg("Delivered alert")

	return nil
}
