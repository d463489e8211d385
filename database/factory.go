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

package database

import (
	"fmt"
	"slices"
)

var supportedTypes = []string{"mysql", "postgres", "postgresql", "sqlite", "sqlite3"}

// NewPool validates cfg and returns a Pool that opens its connections on
// first use. A nil logger selects the shared DATABASE logger.
func NewPool(cfg *ConnectionConfig, logger Logger) (*Pool, error) {
	if cfg == nil {
		return nil, fmt.Errorf("database configuration cannot be empty")
	}
	if !slices.Contains(supportedTypes, cfg.Type) {
		return nil, fmt.Errorf("unsupported database type: %s, supported types: %v", cfg.Type, supportedTypes)
	}
	if cfg.MaxOpenConns < 1 {
		return nil, fmt.Errorf("connection pool size must be at least 1, got %d", cfg.MaxOpenConns)
	}
	if logger == nil {
		logger = GetLogger()
	}

	manager := NewDatabaseManager(cfg)
	manager.SetLogger(logger)

	return &Pool{
		manager: manager,
		config:  cfg,
		logger:  logger,
	}, nil
}
