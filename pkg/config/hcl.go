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


package config

import (
	"context"
	"os"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/zclconf/go-cty/cty"
	"gitlab.com/tozd/go/errors"
)

func init() {
	Register(&HCLParser{})
}

// 🔧 HCLParser implements the Parser interface for HCL files
type HCLParser struct{}

// 🔍 CanParse checks if this parser can handle the given file
func (p *HCLParser) CanParse(filename string) bool {
	return strings.HasSuffix(filename, ".hcl")
}

// 📝 Parse parses the config from HCL. Expressions can read environment
// variables through env, e.g. roots = [env.VIEW_ROOT].
func (p *HCLParser) Parse(ctx context.Context, data []byte) (*Config, error) {
	parser := hclparse.NewParser()
	hclFile, diags := parser.ParseHCL(data, "config.hcl")
	if diags.HasErrors() {
		return nil, errors.Errorf("parsing HCL: %s", diags.Error())
	}

	evalCtx := &hcl.EvalContext{
		Variables: map[string]cty.Value{
			"env": environment(),
		},
	}

	// Define HCL schema
	type hclConfig struct {
		Executable            string   `hcl:"executable,optional"`
		Timeout               string   `hcl:"timeout,optional"`
		StatusCeiling         int      `hcl:"status_ceiling,optional"`
		DescribeCeiling       int      `hcl:"describe_ceiling,optional"`
		CheckoutListThreshold int      `hcl:"checkout_list_threshold,optional"`
		UseUCM                bool     `hcl:"use_ucm,optional"`
		Roots                 []string `hcl:"roots"`
		Ignore                []string `hcl:"ignore,optional"`
		StateFile             string   `hcl:"state_file,optional"`
		HistoryLimit          int      `hcl:"history_limit,optional"`
	}

	var hclCfg hclConfig
	diags = gohcl.DecodeBody(hclFile.Body, evalCtx, &hclCfg)
	if diags.HasErrors() {
		return nil, errors.Errorf("decoding HCL: %s", diags.Error())
	}

	return &Config{
		Executable:            hclCfg.Executable,
		Timeout:               hclCfg.Timeout,
		StatusCeiling:         hclCfg.StatusCeiling,
		DescribeCeiling:       hclCfg.DescribeCeiling,
		CheckoutListThreshold: hclCfg.CheckoutListThreshold,
		UseUCM:                hclCfg.UseUCM,
		Roots:                 hclCfg.Roots,
		Ignore:                hclCfg.Ignore,
		StateFile:             hclCfg.StateFile,
		HistoryLimit:          hclCfg.HistoryLimit,
	}, nil
}

func environment() cty.Value {
	vars := make(map[string]cty.Value)
	for _, kv := range os.Environ() {
		k, v, ok := strings.Cut(kv, "=")
		if !ok || k == "" {
			continue
		}
		vars[k] = cty.StringVal(v)
	}
	if len(vars) == 0 {
		return cty.EmptyObjectVal
	}
	return cty.ObjectVal(vars)
}
