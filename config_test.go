/*
	Copyright NetFoundry Inc.

	Licensed under the Apache License, Version 2.0 (the "License");
	you may not use this file except in compliance with the License.
	You may obtain a copy of the License at

	https://www.apache.org/licenses/LICENSE-2.0

	Unless required by applicable law or agreed to in writing, software
	distributed under the License is distributed on an "AS IS" BASIS,
	WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
	See the License for the specific language governing permissions and
	limitations under the License.
*/

package xboot

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func Test_SettingsValidate(t *testing.T) {

	t.Run("default settings are valid", func(t *testing.T) {
		require.NoError(t, DefaultSettings().Validate())
	})

	t.Run("port zero is valid and means an ephemeral port", func(t *testing.T) {
		settings := DefaultSettings()
		settings.Server.Port = 0

		require.NoError(t, settings.Validate())
	})

	t.Run("a port above 65535 is invalid", func(t *testing.T) {
		settings := DefaultSettings()
		settings.Server.Port = 65536

		require.Error(t, settings.Validate())
	})

	t.Run("an unknown forwarded header strategy is invalid", func(t *testing.T) {
		settings := DefaultSettings()
		settings.Server.ForwardHeadersStrategy = "filter"

		require.Error(t, settings.Validate())
	})

	t.Run("every known strategy value is valid", func(t *testing.T) {
		for _, strategy := range []string{"framework", "native", "none", ""} {
			settings := DefaultSettings()
			settings.Server.ForwardHeadersStrategy = strategy

			require.NoError(t, settings.Validate())
		}
	})

	t.Run("an unparseable timeout is invalid", func(t *testing.T) {
		settings := DefaultSettings()
		settings.Server.ReadTimeout = "fast"

		require.Error(t, settings.Validate())
	})

	t.Run("an unknown tls version is invalid", func(t *testing.T) {
		settings := DefaultSettings()
		settings.Server.MinTLSVersion = "TLS0.9"

		require.Error(t, settings.Validate())
	})
}

func Test_SettingsAccessors(t *testing.T) {

	t.Run("timeouts parse configured durations", func(t *testing.T) {
		settings := DefaultSettings()
		settings.Server.ReadTimeout = "1m"
		settings.Server.WriteTimeout = "30s"
		settings.Server.IdleTimeout = "90s"

		timeouts := settings.Timeouts()

		req := require.New(t)
		req.Equal(time.Minute, timeouts.ReadTimeout)
		req.Equal(30*time.Second, timeouts.WriteTimeout)
		req.Equal(90*time.Second, timeouts.IdleTimeout)
	})

	t.Run("timeouts fall back to defaults for unset values", func(t *testing.T) {
		settings := &Settings{}

		timeouts := settings.Timeouts()

		req := require.New(t)
		req.Equal(DefaultHttpReadTimeout, timeouts.ReadTimeout)
		req.Equal(DefaultHttpWriteTimeout, timeouts.WriteTimeout)
		req.Equal(DefaultHttpIdleTimeout, timeouts.IdleTimeout)
	})

	t.Run("strategy parses the configured value", func(t *testing.T) {
		settings := DefaultSettings()
		settings.Server.ForwardHeadersStrategy = "framework"

		strategy, err := settings.Strategy()

		req := require.New(t)
		req.NoError(err)
		req.Equal(ForwardedHeaderStrategyFramework, strategy)
	})

	t.Run("no identity section means no tls config", func(t *testing.T) {
		settings := DefaultSettings()

		tlsConfig, err := settings.TLSConfig()

		req := require.New(t)
		req.NoError(err)
		req.Nil(tlsConfig)
	})
}

func writeConfigFile(t *testing.T, content string) string {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "xboot.yaml"), []byte(content), 0o600))
	return dir
}

func Test_LoadSettings(t *testing.T) {

	t.Run("a missing config file falls back to defaults", func(t *testing.T) {
		settings, err := loadSettings(t.TempDir())

		req := require.New(t)
		req.NoError(err)
		req.Equal(8080, settings.Server.Port)
		req.Equal(string(ForwardedHeaderStrategyNone), settings.Server.ForwardHeadersStrategy)
		req.Equal(DefaultHttpReadTimeout.String(), settings.Server.ReadTimeout)
	})

	t.Run("values are read from the config file", func(t *testing.T) {
		dir := writeConfigFile(t, "server:\n  port: 9443\n  forward-headers-strategy: framework\n")

		settings, err := loadSettings(dir)

		req := require.New(t)
		req.NoError(err)
		req.Equal(9443, settings.Server.Port)
		req.Equal("framework", settings.Server.ForwardHeadersStrategy)
		req.Equal(DefaultHttpReadTimeout.String(), settings.Server.ReadTimeout)
	})

	t.Run("environment variables override defaults", func(t *testing.T) {
		t.Setenv("SERVER_PORT", "7070")
		t.Setenv("SERVER_FORWARD_HEADERS_STRATEGY", "native")

		settings, err := loadSettings(t.TempDir())

		req := require.New(t)
		req.NoError(err)
		req.Equal(7070, settings.Server.Port)
		req.Equal("native", settings.Server.ForwardHeadersStrategy)
	})

	t.Run("an out of range port in the config file fails validation", func(t *testing.T) {
		dir := writeConfigFile(t, "server:\n  port: 70000\n")

		_, err := loadSettings(dir)
		require.Error(t, err)
	})

	t.Run("a malformed config file fails the load", func(t *testing.T) {
		dir := writeConfigFile(t, "server: [not a map\n")

		_, err := loadSettings(dir)
		require.Error(t, err)
	})
}
