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
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tomoncle/vbforumquery/types"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestIsAuthorized(t *testing.T) {
	ks := NewKeyStore([]string{"reg-1"}, []string{"adm-1"})

	tests := []struct {
		name string
		key  string
		tier Tier
		want Decision
	}{
		{"no key on query route", "", TierQuery, Missing},
		{"no key on admin route", "", TierAdmin, Missing},
		{"regular key on query route", "reg-1", TierQuery, Allowed},
		{"admin key on query route", "adm-1", TierQuery, Allowed},
		{"admin key on admin route", "adm-1", TierAdmin, Allowed},
		{"regular key on admin route", "reg-1", TierAdmin, Invalid},
		{"unknown key", "nope", TierQuery, Invalid},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ks.IsAuthorized(tt.key, tt.tier))
		})
	}
}

func TestDecisionErr(t *testing.T) {
	assert.Nil(t, Allowed.Err())

	err := Missing.Err()
	assert.Equal(t, types.ErrMissingCredential, err.Kind)
	assert.Equal(t, 401, err.Kind.StatusCode())
	assert.Equal(t, MsgKeyRequired, err.Message)

	err = Invalid.Err()
	assert.Equal(t, 403, err.Kind.StatusCode())
	assert.Equal(t, "Invalid API key", err.Message)
}

func TestParseKeyFile(t *testing.T) {
	keys, err := ParseKeyFile(strings.NewReader("# header\nkey-a\n\n  key-b  # trailing\n#key-c\n"))
	require.NoError(t, err)
	assert.Equal(t, []string{"key-a", "key-b"}, keys)
}

func TestParseKeyList(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, ParseKeyList(" a , ,b,"))
	assert.Nil(t, ParseKeyList(""))
}

func TestLoad_EnvWinsOverFile(t *testing.T) {
	file := writeFile(t, "api-keys.txt", "from-file\n")

	ks, err := Load(Options{APIKeys: "from-env", APIKeysFile: file}, nil)
	require.NoError(t, err)
	assert.Equal(t, Allowed, ks.IsAuthorized("from-env", TierQuery))
	assert.Equal(t, Invalid, ks.IsAuthorized("from-file", TierQuery))
}

func TestLoad_FallsBackToFiles(t *testing.T) {
	ks, err := Load(Options{
		APIKeys:          " , ",
		APIKeysFile:      writeFile(t, "api-keys.txt", "reg # comment\n"),
		AdminAPIKeysFile: writeFile(t, "admin-api-keys.txt", "adm\n"),
	}, nil)
	require.NoError(t, err)

	assert.Equal(t, Allowed, ks.IsAuthorized("reg", TierQuery))
	assert.Equal(t, Allowed, ks.IsAuthorized("adm", TierAdmin))
	regular, admin := ks.Len()
	assert.Equal(t, 1, regular)
	assert.Equal(t, 1, admin)
}

func TestLoad_MissingFileIsNotFatal(t *testing.T) {
	ks, err := Load(Options{APIKeysFile: filepath.Join(t.TempDir(), "absent.txt")}, nil)
	require.NoError(t, err)

	regular, admin := ks.Len()
	assert.Zero(t, regular)
	assert.Zero(t, admin)
	assert.Equal(t, Invalid, ks.IsAuthorized("anything", TierQuery))
}

func TestKeyFromRequest(t *testing.T) {
	r := httptest.NewRequest("GET", "/query/search?api_key=from-query", nil)
	assert.Equal(t, "from-query", KeyFromRequest(r))

	r.Header.Set(HeaderName, "from-header")
	assert.Equal(t, "from-header", KeyFromRequest(r))

	r = httptest.NewRequest("GET", "/query/search", nil)
	assert.Equal(t, "", KeyFromRequest(r))
}

func TestMaskKey(t *testing.T) {
	assert.Equal(t, "none", MaskKey(""))
	assert.Equal(t, "a***", MaskKey("ab"))
	assert.Equal(t, "abcd***", MaskKey("abcdefgh"))
}

func TestTierEnum(t *testing.T) {
	tier, ok := types.EnumByName(Tiers(), "ADMIN")
	require.True(t, ok)
	assert.Equal(t, TierAdmin, tier)
	assert.False(t, Tier(9).IsValid())
	assert.Equal(t, types.IllegalValue, Tier(9).Number())
}
