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
	"fmt"
	"time"

	"github.com/carverauto/pulsewatch/pkg/alerts"
	"github.com/carverauto/pulsewatch/pkg/logger"
	"github.com/carverauto/pulsewatch/pkg/models"
	"github.com/carverauto/pulsewatch/pkg/registry"
)

var (
	errRegistryURLRequired = fmt.Errorf("registry url is required")
	errRegistryBucket      = fmt.Errorf("registry bucket is required for the nats backend")
	errRegistryType        = fmt.Errorf("unknown registry type")
)

const (
	defaultCheckInterval    = time.Minute
	defaultExpectedInterval = 5 * time.Minute
	defaultSummaryTime      = "09:00"

	registryTypeHTTP = "http"
	registryTypeNATS = "nats"
)

// Config represents monitor configuration.
type Config struct {
	ListenAddr              string                 `json:"listen_addr,omitempty"`
	Registry                registry.Config        `json:"registry"`
	CheckInterval           models.Duration        `json:"check_interval,omitempty"`
	DefaultExpectedInterval models.Duration        `json:"default_expected_interval,omitempty"`
	DailySummaryTime        string                 `json:"daily_summary_time,omitempty"`
	EvictAfter              models.Duration        `json:"evict_after,omitempty"`
	AlertDestination        string                 `json:"alert_destination,omitempty"`
	Webhooks                []alerts.WebhookConfig `json:"webhooks,omitempty"`
	StartupNotice           bool                   `json:"startup_notice,omitempty"`
	Logging                 *logger.Config         `json:"logging,omitempty"`

	// SummaryAt is the parsed DailySummaryTime, populated by Validate.
	SummaryAt models.TimeOfDay `json:"-"`
}

// Validate implements config.Validator. It applies defaults and rejects
// anything the monitor cannot safely run with; a validation error here is
// fatal at startup.
func (c *Config) Validate() error {
	if c.Registry.Type == "" {
		c.Registry.Type = registryTypeHTTP
	}

	switch c.Registry.Type {
	case registryTypeHTTP:
		if c.Registry.URL == "" {
			return errRegistryURLRequired
		}
	case registryTypeNATS:
		if c.Registry.URL == "" {
			return errRegistryURLRequired
		}

		if c.Registry.Bucket == "" {
			return errRegistryBucket
		}
	default:
		return fmt.Errorf("%w: %q", errRegistryType, c.Registry.Type)
	}

	if time.Duration(c.CheckInterval) == 0 {
		c.CheckInterval = models.Duration(defaultCheckInterval)
	}

	if time.Duration(c.DefaultExpectedInterval) == 0 {
		c.DefaultExpectedInterval = models.Duration(defaultExpectedInterval)
	}

	if c.DailySummaryTime == "" {
		c.DailySummaryTime = defaultSummaryTime
	}

	at, err := models.ParseTimeOfDay(c.DailySummaryTime)
	if err != nil {
		return fmt.Errorf("invalid daily_summary_time: %w", err)
	}

	c.SummaryAt = at

	return nil
}
