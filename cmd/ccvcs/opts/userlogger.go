// Copyright 2025 walteh LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package opts

import (
	"context"

	"github.com/pterm/pterm"
	"github.com/rs/zerolog"
	"github.com/walteh/ccvcs/pkg/config"
	"github.com/walteh/ccvcs/pkg/reconcile"
	"github.com/walteh/ccvcs/pkg/views"
	"gitlab.com/tozd/go/errors"
)

// 🗣️ UserLogger prints messages meant for the person at the terminal and
// mirrors them to zerolog.
type UserLogger struct {
	log zerolog.Logger
}

func NewUserLogger(ctx context.Context) *UserLogger {
	return &UserLogger{
		log: *zerolog.Ctx(ctx),
	}
}

// LogWarnings prints view and configuration warnings.
func (u *UserLogger) LogWarnings(warnings []error) {
	for _, w := range warnings {
		prefix := "⚠️"
		switch {
		case errors.Is(w, config.ErrUCMMismatch):
			prefix = "⚙️"
		case errors.Is(w, views.ErrNoCurrentActivity):
			prefix = "🏷️"
		}
		pterm.Warning.WithPrefix(pterm.Prefix{Text: prefix}).Println(w.Error())
		u.log.Warn().Err(w).Msg("warning")
	}
}

// LogStateChange prints a one-line status message.
func (u *UserLogger) LogStateChange(description string) {
	printer := pterm.Info.WithPrefix(pterm.Prefix{Text: "📦"})
	printer.Println(description)
	u.log.Info().Msg(description)
}

// LogValidation prints the outcome of a step; a nil err with valid false is a warning.
func (u *UserLogger) LogValidation(valid bool, description string, err error) {
	if valid {
		pterm.Success.WithPrefix(pterm.Prefix{Text: "✅"}).Println(description)
		u.log.Info().Msg(description)
		return
	}
	if err == nil {
		pterm.Warning.WithPrefix(pterm.Prefix{Text: "⚠️"}).Println(description)
		u.log.Warn().Msg(description)
		return
	}
	if errors.Is(err, reconcile.ErrOffline) {
		pterm.Warning.WithPrefix(pterm.Prefix{Text: "🔌"}).Println(description + ": ClearCase server unreachable, working offline")
		u.log.Warn().Err(err).Msg(description)
		return
	}
	pterm.Error.WithPrefix(pterm.Prefix{Text: "❌"}).Println(description)
	pterm.Error.Println(err)
	u.log.Error().Err(err).Msg(description)
}
