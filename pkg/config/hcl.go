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
	return strings.HasSuffix(strings.ToLower(filename), ".hcl")
}

// hclConfig mirrors Config with every attribute optional so absent
// attributes keep their defaults
type hclConfig struct {
	Retries    *int     `hcl:"retries,optional"`
	RetryDelay *string  `hcl:"retry_delay,optional"`
	Hash       *string  `hcl:"hash,optional"`
	Symlinks   *string  `hcl:"symlinks,optional"`
	Exclude    []string `hcl:"exclude,optional"`
	Interval   *string  `hcl:"interval,optional"`
	Progress   *string  `hcl:"progress,optional"`
	QuickCheck *bool    `hcl:"quick_check,optional"`
}

// 📝 Parse overlays HCL values onto cfg
func (p *HCLParser) Parse(ctx context.Context, data []byte, cfg *Config) error {
	parser := hclparse.NewParser()
	hclFile, diags := parser.ParseHCL(data, "smartcopy.hcl")
	if diags.HasErrors() {
		return errors.Errorf("parsing HCL: %s", diags.Error())
	}

	// Create evaluation context
	evalCtx := &hcl.EvalContext{
		Variables: map[string]cty.Value{},
	}

	var hclCfg hclConfig
	diags = gohcl.DecodeBody(hclFile.Body, evalCtx, &hclCfg)
	if diags.HasErrors() {
		return errors.Errorf("decoding HCL: %s", diags.Error())
	}

	if hclCfg.Retries != nil {
		cfg.Retries = *hclCfg.Retries
	}
	if hclCfg.RetryDelay != nil {
		if err := cfg.RetryDelay.UnmarshalText([]byte(*hclCfg.RetryDelay)); err != nil {
			return errors.Errorf("retry_delay: %w", err)
		}
	}
	if hclCfg.Hash != nil {
		cfg.Hash = *hclCfg.Hash
	}
	if hclCfg.Symlinks != nil {
		cfg.Symlinks = *hclCfg.Symlinks
	}
	if hclCfg.Exclude != nil {
		cfg.Exclude = hclCfg.Exclude
	}
	if hclCfg.Interval != nil {
		if err := cfg.Interval.UnmarshalText([]byte(*hclCfg.Interval)); err != nil {
			return errors.Errorf("interval: %w", err)
		}
	}
	if hclCfg.Progress != nil {
		cfg.Progress = *hclCfg.Progress
	}
	if hclCfg.QuickCheck != nil {
		cfg.QuickCheck = *hclCfg.QuickCheck
	}

	return nil
}
