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

package main

import (
	"context"
	"flag"
	"fmt"
	"log"

	"github.com/carverauto/pulsewatch/pkg/alerts"
	"github.com/carverauto/pulsewatch/pkg/config"
	"github.com/carverauto/pulsewatch/pkg/lifecycle"
	"github.com/carverauto/pulsewatch/pkg/logger"
	"github.com/carverauto/pulsewatch/pkg/monitor"
	"github.com/carverauto/pulsewatch/pkg/registry"
)

var errFailedToLoadConfig = fmt.Errorf("failed to load config")

func main() {
	if err := run(); err != nil {
		log.Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	configPath := flag.String("config", "/etc/pulsewatch/monitor.json", "Path to monitor config file")
	flag.Parse()

	ctx := context.Background()

	cfgLoader := config.NewConfig(nil)

	var cfg monitor.Config

	if err := cfgLoader.LoadAndValidate(ctx, *configPath, &cfg); err != nil {
		return fmt.Errorf("%w: %w", errFailedToLoadConfig, err)
	}

	monitorLogger, err := lifecycle.CreateComponentLogger(cfg.Logging, "monitor")
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	reg, cleanup, err := buildRegistry(ctx, &cfg, monitorLogger)
	if err != nil {
		return err
	}

	if cleanup != nil {
		defer cleanup()
	}

	notifier := buildNotifier(&cfg, monitorLogger)

	m, err := monitor.New(&cfg, reg, notifier, nil, monitorLogger)
	if err != nil {
		return err
	}

	return lifecycle.Run(ctx, m, monitorLogger)
}

func buildRegistry(ctx context.Context, cfg *monitor.Config, log logger.Logger) (registry.Registry, func(), error) {
	switch cfg.Registry.Type {
	case "nats":
		reg, err := registry.NewNATSRegistry(ctx, &cfg.Registry, log)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create NATS registry: %w", err)
		}

		return reg, reg.Close, nil
	default:
		return registry.NewHTTPRegistry(&cfg.Registry, log), nil, nil
	}
}

func buildNotifier(cfg *monitor.Config, log logger.Logger) alerts.Notifier {
	sinks := []alerts.Notifier{alerts.NewLogNotifier(log)}

	for i := range cfg.Webhooks {
		webhook, err := alerts.NewWebhookNotifier(&cfg.Webhooks[i], log)
		if err != nil {
			log.Warn().Err(err).Str("url", cfg.Webhooks[i].URL).Msg("Skipping webhook")
			continue
		}

		sinks = append(sinks, webhook)
	}

	if len(sinks) == 1 {
		return sinks[0]
	}

	return alerts.NewMultiNotifier(sinks...)
}
