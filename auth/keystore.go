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

package auth

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"os"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/tomoncle/vbforumquery/utils"
)

const (
	HeaderName = "X-API-Key"
	QueryParam = "api_key"

	MsgKeyRequired = "API key required. Provide X-API-Key header or api_key query parameter."
	MsgKeyInvalid  = "Invalid API key"
)

// Options names where each key set comes from. A non-empty inline list
// wins over the file.
type Options struct {
	APIKeys          string
	AdminAPIKeys     string
	APIKeysFile      string
	AdminAPIKeysFile string
}

// KeyStore holds the regular and admin key sets. It is read-only after
// construction and safe for concurrent use.
type KeyStore struct {
	regular map[string]struct{}
	admin   map[string]struct{}
}

func NewKeyStore(regular, admin []string) *KeyStore {
	return &KeyStore{regular: toSet(regular), admin: toSet(admin)}
}

// Load builds a KeyStore from opts. A missing key file is logged and
// leaves that set empty; any other read failure is returned.
func Load(opts Options, logger logrus.FieldLogger) (*KeyStore, error) {
	if logger == nil {
		logger = utils.NewLogger("AUTH")
	}

	regular, err := loadKeys("API_KEYS", opts.APIKeys, opts.APIKeysFile, logger)
	if err != nil {
		return nil, err
	}
	admin, err := loadKeys("ADMIN_API_KEYS", opts.AdminAPIKeys, opts.AdminAPIKeysFile, logger)
	if err != nil {
		return nil, err
	}

	ks := NewKeyStore(regular, admin)
	logger.WithFields(logrus.Fields{
		"regular_keys": len(ks.regular),
		"admin_keys":   len(ks.admin),
	}).Info("API keys loaded")
	return ks, nil
}

func loadKeys(envName, inline, path string, logger logrus.FieldLogger) ([]string, error) {
	if keys := ParseKeyList(inline); len(keys) > 0 {
		return keys, nil
	}
	if path == "" {
		return nil, nil
	}

	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		logger.WithFields(logrus.Fields{"env": envName, "file": path}).
			Warn("No API keys configured and key file not found")
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open key file %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	keys, err := ParseKeyFile(f)
	if err != nil {
		return nil, fmt.Errorf("failed to read key file %s: %w", path, err)
	}
	return keys, nil
}

// ParseKeyList splits a comma-separated key list, dropping blanks.
func ParseKeyList(s string) []string {
	var keys []string
	for _, k := range strings.Split(s, ",") {
		if k = strings.TrimSpace(k); k != "" {
			keys = append(keys, k)
		}
	}
	return keys
}

// ParseKeyFile reads one key per line. Text after '#' is a comment.
func ParseKeyFile(r io.Reader) ([]string, error) {
	var keys []string
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := scanner.Text()
		if i := strings.IndexByte(line, '#'); i >= 0 {
			line = line[:i]
		}
		if line = strings.TrimSpace(line); line != "" {
			keys = append(keys, line)
		}
	}
	return keys, scanner.Err()
}

// IsAuthorized checks key against tier. Admin keys pass every tier.
func (ks *KeyStore) IsAuthorized(key string, tier Tier) Decision {
	if key == "" {
		return Missing
	}
	if _, ok := ks.admin[key]; ok {
		return Allowed
	}
	if tier == TierQuery {
		if _, ok := ks.regular[key]; ok {
			return Allowed
		}
	}
	return Invalid
}

// Len reports the number of regular and admin keys.
func (ks *KeyStore) Len() (regular, admin int) {
	return len(ks.regular), len(ks.admin)
}

// KeyFromRequest returns the X-API-Key header, else the api_key query
// parameter.
func KeyFromRequest(r *http.Request) string {
	if key := strings.TrimSpace(r.Header.Get(HeaderName)); key != "" {
		return key
	}
	return strings.TrimSpace(r.URL.Query().Get(QueryParam))
}

// MaskKey keeps the first four characters of key for logging.
func MaskKey(key string) string {
	switch {
	case key == "":
		return "none"
	case len(key) <= 4:
		return key[:1] + "***"
	default:
		return key[:4] + "***"
	}
}

func toSet(keys []string) map[string]struct{} {
	set := make(map[string]struct{}, len(keys))
	for _, k := range keys {
		set[k] = struct{}{}
	}
	return set
}
