/*
 * Copyright 2025 tomoncle.
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

package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/tomoncle/vbforumquery/database"
	"github.com/tomoncle/vbforumquery/types"
)

const DefaultPermalinkBase = "https://valkurianblades.info/viewtopic.php"

// SearchSettings tunes the two forum searches.
type SearchSettings struct {
	PermalinkBase  string           `yaml:"permalink_base" validate:"required,url"`
	ExcludedForums []int64          `yaml:"excluded_forums"`
	Search         types.PageLimits `yaml:"search"`
	Zone           types.PageLimits `yaml:"zone"`
}

func DefaultSearchSettings() *SearchSettings {
	return &SearchSettings{
		PermalinkBase:  DefaultPermalinkBase,
		ExcludedForums: []int64{197, 196, 192, 149, 150},
		Search:         types.PageLimits{DefaultLimit: 20, MaxLimit: 100},
		Zone:           types.PageLimits{DefaultLimit: 200, MaxLimit: 200},
	}
}

// LoadSearchSettings reads the YAML file at path over the defaults. Keys
// absent from the file keep their default; a missing file yields the
// defaults unchanged.
func LoadSearchSettings(path string, logger database.Logger) (*SearchSettings, error) {
	settings := DefaultSearchSettings()
	if path == "" {
		return settings, nil
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		if logger != nil {
			logger.Debug("Search settings file not found, using defaults", "config_path", path)
		}
		return settings, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read search settings: %w", err)
	}

	if err := yaml.Unmarshal(data, settings); err != nil {
		return nil, fmt.Errorf("failed to parse search settings: %w", err)
	}
	if err := validate.Struct(settings); err != nil {
		return nil, fmt.Errorf("invalid search settings: %w", err)
	}

	if logger != nil {
		logger.Info("Search settings loaded",
			"config_path", path,
			"excluded_forums", settings.ExcludedForums,
		)
	}
	return settings, nil
}
