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
	"crypto/tls"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/michaelquigley/pfxlog"
	"github.com/openziti/identity"
	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

const (
	MinTLSVersion = tls.VersionTLS12
	MaxTLSVersion = tls.VersionTLS13

	DefaultHttpWriteTimeout = time.Second * 10
	DefaultHttpReadTimeout  = time.Second * 5
	DefaultHttpIdleTimeout  = time.Second * 5
)

// TlsVersionMap is a map of configuration strings to TLS version identifiers
var TlsVersionMap = map[string]uint16{
	"TLS1.0": tls.VersionTLS10,
	"TLS1.1": tls.VersionTLS11,
	"TLS1.2": tls.VersionTLS12,
	"TLS1.3": tls.VersionTLS13,
}

// Settings is the root configuration for a bootstrap run.
type Settings struct {
	Server ServerSettings `mapstructure:"server"`
}

// ServerSettings carries the server configuration keys.
type ServerSettings struct {
	Port                   int                    `mapstructure:"port"`
	Address                string                 `mapstructure:"address"`
	ForwardHeadersStrategy string                 `mapstructure:"forward-headers-strategy"`
	ReadTimeout            string                 `mapstructure:"read-timeout"`
	WriteTimeout           string                 `mapstructure:"write-timeout"`
	IdleTimeout            string                 `mapstructure:"idle-timeout"`
	MinTLSVersion          string                 `mapstructure:"min-tls-version"`
	MaxTLSVersion          string                 `mapstructure:"max-tls-version"`
	Identity               map[string]interface{} `mapstructure:"identity"`
}

// TimeoutSettings are the parsed http timeout values.
type TimeoutSettings struct {
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

// LoadSettings reads settings from an optional xboot config file and the
// environment, applying defaults for everything unset.
func LoadSettings() (*Settings, error) {
	return loadSettings("./config", ".")
}

func loadSettings(configPaths ...string) (*Settings, error) {
	v := viper.New()

	v.SetDefault("server.port", 8080)
	v.SetDefault("server.address", "")
	v.SetDefault("server.forward-headers-strategy", string(ForwardedHeaderStrategyNone))
	v.SetDefault("server.read-timeout", DefaultHttpReadTimeout.String())
	v.SetDefault("server.write-timeout", DefaultHttpWriteTimeout.String())
	v.SetDefault("server.idle-timeout", DefaultHttpIdleTimeout.String())

	v.SetConfigName("xboot")
	v.SetConfigType("yaml")

	for _, configPath := range configPaths {
		v.AddConfigPath(configPath)
	}

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, errors.Wrap(err, "could not read config file")
		}
	} else {
		pfxlog.Logger().Infof("loaded config file: %s", v.ConfigFileUsed())
	}

	settings := &Settings{}
	if err := v.Unmarshal(settings); err != nil {
		return nil, errors.Wrap(err, "could not unmarshal settings")
	}

	if err := settings.Validate(); err != nil {
		return nil, err
	}

	return settings, nil
}

// DefaultSettings returns settings with every value defaulted.
func DefaultSettings() *Settings {
	return &Settings{
		Server: ServerSettings{
			Port:                   8080,
			ForwardHeadersStrategy: string(ForwardedHeaderStrategyNone),
			ReadTimeout:            DefaultHttpReadTimeout.String(),
			WriteTimeout:           DefaultHttpWriteTimeout.String(),
			IdleTimeout:            DefaultHttpIdleTimeout.String(),
		},
	}
}

// Validate validates all settings and returns nil or an error.
func (settings *Settings) Validate() error {
	server := &settings.Server

	return validation.ValidateStruct(server,
		validation.Field(&server.Port,
			validation.Min(0),
			validation.Max(65535),
		),
		validation.Field(&server.ForwardHeadersStrategy,
			validation.By(validateStrategy),
		),
		validation.Field(&server.ReadTimeout, validation.By(validateDuration)),
		validation.Field(&server.WriteTimeout, validation.By(validateDuration)),
		validation.Field(&server.IdleTimeout, validation.By(validateDuration)),
		validation.Field(&server.MinTLSVersion, validation.By(validateTlsVersion)),
		validation.Field(&server.MaxTLSVersion, validation.By(validateTlsVersion)),
	)
}

// Strategy returns the parsed forwarded header strategy.
func (settings *Settings) Strategy() (ForwardedHeaderStrategy, error) {
	return ParseForwardedHeaderStrategy(settings.Server.ForwardHeadersStrategy)
}

// Timeouts returns the parsed timeout values, defaulting anything unset or
// non-positive.
func (settings *Settings) Timeouts() TimeoutSettings {
	timeouts := TimeoutSettings{
		ReadTimeout:  DefaultHttpReadTimeout,
		WriteTimeout: DefaultHttpWriteTimeout,
		IdleTimeout:  DefaultHttpIdleTimeout,
	}

	if d, err := time.ParseDuration(settings.Server.ReadTimeout); err == nil && d > 0 {
		timeouts.ReadTimeout = d
	}

	if d, err := time.ParseDuration(settings.Server.WriteTimeout); err == nil && d > 0 {
		timeouts.WriteTimeout = d
	}

	if d, err := time.ParseDuration(settings.Server.IdleTimeout); err == nil && d > 0 {
		timeouts.IdleTimeout = d
	}

	return timeouts
}

// TLSConfig loads the identity section, if present, and returns the server
// side TLS configuration for it. Returns nil when no identity is configured.
func (settings *Settings) TLSConfig() (*tls.Config, error) {
	if len(settings.Server.Identity) == 0 {
		return nil, nil
	}

	identityMap := map[interface{}]interface{}{}
	for key, value := range settings.Server.Identity {
		identityMap[key] = value
	}

	identityConfig, err := parseIdentityConfig(identityMap, "server.identity")
	if err != nil {
		return nil, err
	}

	id, err := identity.LoadIdentity(*identityConfig)
	if err != nil {
		return nil, errors.Wrap(err, "could not load server identity")
	}

	if err := id.WatchFiles(); err != nil {
		pfxlog.Logger().Warnf("could not enable file watching on server identity: %v", err)
	}

	tlsConfig := id.ServerTLSConfig()
	tlsConfig.ClientAuth = tls.RequestClientCert
	tlsConfig.MinVersion = MinTLSVersion
	tlsConfig.MaxVersion = MaxTLSVersion

	if version, ok := TlsVersionMap[settings.Server.MinTLSVersion]; ok {
		tlsConfig.MinVersion = version
	}

	if version, ok := TlsVersionMap[settings.Server.MaxTLSVersion]; ok {
		tlsConfig.MaxVersion = version
	}

	if tlsConfig.MinVersion > tlsConfig.MaxVersion {
		return nil, errors.Errorf("min TLS version [%s] must be less than or equal to max TLS version [%s]",
			settings.Server.MinTLSVersion, settings.Server.MaxTLSVersion)
	}

	return tlsConfig, nil
}

func validateStrategy(value interface{}) error {
	strategy, ok := value.(string)
	if !ok {
		return validation.NewError("validation_invalid_type", "must be a string")
	}

	if _, err := ParseForwardedHeaderStrategy(strategy); err != nil {
		return validation.NewError("validation_invalid_strategy", "must be one of framework, native, none")
	}

	return nil
}

func validateDuration(value interface{}) error {
	durationStr, ok := value.(string)
	if !ok {
		return validation.NewError("validation_invalid_type", "must be a string")
	}

	if durationStr == "" {
		return nil
	}

	if _, err := time.ParseDuration(durationStr); err != nil {
		return validation.NewError("validation_invalid_duration", "must be a valid duration (e.g. 5s, 1m)")
	}

	return nil
}

func validateTlsVersion(value interface{}) error {
	versionStr, ok := value.(string)
	if !ok {
		return validation.NewError("validation_invalid_type", "must be a string")
	}

	if versionStr == "" {
		return nil
	}

	if _, ok := TlsVersionMap[versionStr]; !ok {
		return validation.NewError("validation_invalid_tls_version", "must be one of TLS1.0, TLS1.1, TLS1.2, TLS1.3")
	}

	return nil
}

func parseIdentityConfig(identityMap map[interface{}]interface{}, pathContext string) (*identity.Config, error) {
	idConfig, err := identity.NewConfigFromMap(identityMap)

	if err != nil {
		return nil, errors.Wrap(err, "error parsing identity")
	}

	if err = idConfig.ValidateWithPathContext(pathContext); err != nil {
		return nil, errors.Wrap(err, "error parsing identity")
	}

	return idConfig, nil
}
