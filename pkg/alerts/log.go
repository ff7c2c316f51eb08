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
	"context"

	"github.com/carverauto/pulsewatch/pkg/logger"
)

// LogNotifier writes alerts to the structured log. It is the fallback sink
// when no webhook is configured, and never fails.
type LogNotifier struct {
	logger logger.Logger
}

func NewLogNotifier(log logger.Logger) *LogNotifier {
	return &LogNotifier{logger: log}
}

// Notify implements Notifier.
func (l *LogNotifier) Notify(_ context.Context, alert *Alert) error {
	event := l.logger.Info()
	if alert.Level == Error {
		event = l.logger.Error()
	} else if alert.Level == Warning {
		event = l.logger.Warn()
	}

	event.
		Str("alert_id", alert.ID).
		Str("title", alert.Title).
		Str("service", alert.ServiceKey).
		Str("destination", alert.Destination).
		Msg(alert.Message)

	return nil
}
