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

	"github.com/walteh/ccvcs/pkg/config"
	"github.com/walteh/ccvcs/pkg/log"
	"github.com/walteh/ccvcs/pkg/vcs"
	"gitlab.com/tozd/go/errors"
)

// RootOpts carries what every command needs. It is filled in before a command
// runs, once the persistent flags are parsed.
type RootOpts struct {
	ConfigFile string
	Debug      bool

	Config     *config.Config
	VCS        *vcs.VCS
	Console    *log.Logger
	UserLogger *UserLogger
}

// 🏗️ Load finds and loads the config and opens the project.
func (o *RootOpts) Load(ctx context.Context) error {
	path := o.ConfigFile
	if path == "" {
		found, err := config.Find(".")
		if err != nil {
			return errors.Errorf("finding config: %w", err)
		}
		path = found
	}

	cfg, err := config.Load(ctx, path)
	if err != nil {
		return errors.Errorf("loading config: %w", err)
	}

	v, err := vcs.New(ctx, vcs.Options{Config: cfg})
	if err != nil {
		return errors.Errorf("opening project: %w", err)
	}

	o.Config = cfg
	o.VCS = v
	return nil
}

// Save persists the session, reporting failures through the user logger.
func (o *RootOpts) Save(ctx context.Context) error {
	if o.VCS == nil {
		return nil
	}
	if err := o.VCS.Save(ctx); err != nil {
		return errors.Errorf("saving state: %w", err)
	}
	return nil
}
