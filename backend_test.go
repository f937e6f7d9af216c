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
	"testing"

	"github.com/stretchr/testify/require"
)

func probeFor(available ...string) AvailabilityProbe {
	return func(backend string) bool {
		for _, name := range available {
			if name == backend {
				return true
			}
		}
		return false
	}
}

func Test_BackendRegistrySelect(t *testing.T) {

	t.Run("no available backend results in an error", func(t *testing.T) {
		registry := NewDefaultBackendRegistry(probeFor())

		descriptor, err := registry.Select()

		req := require.New(t)
		req.ErrorIs(err, ErrNoBackendAvailable)
		req.Nil(descriptor)
	})

	t.Run("a single available backend is selected", func(t *testing.T) {
		for _, name := range []string{BackendTomcat, BackendJetty, BackendUndertow, BackendNetty} {
			registry := NewDefaultBackendRegistry(probeFor(name))

			descriptor, err := registry.Select()

			req := require.New(t)
			req.NoError(err)
			req.Equal(name, descriptor.Name)
		}
	})

	t.Run("tomcat wins over every other backend", func(t *testing.T) {
		registry := NewDefaultBackendRegistry(probeFor(BackendNetty, BackendUndertow, BackendJetty, BackendTomcat))

		descriptor, err := registry.Select()

		req := require.New(t)
		req.NoError(err)
		req.Equal(BackendTomcat, descriptor.Name)
	})

	t.Run("jetty wins over undertow and netty", func(t *testing.T) {
		registry := NewDefaultBackendRegistry(probeFor(BackendNetty, BackendUndertow, BackendJetty))

		descriptor, err := registry.Select()

		req := require.New(t)
		req.NoError(err)
		req.Equal(BackendJetty, descriptor.Name)
	})

	t.Run("undertow wins over netty", func(t *testing.T) {
		registry := NewDefaultBackendRegistry(probeFor(BackendNetty, BackendUndertow))

		descriptor, err := registry.Select()

		req := require.New(t)
		req.NoError(err)
		req.Equal(BackendUndertow, descriptor.Name)
	})

	t.Run("availability is evaluated fresh on every call", func(t *testing.T) {
		available := map[string]bool{BackendTomcat: true, BackendNetty: true}
		registry := NewDefaultBackendRegistry(func(backend string) bool {
			return available[backend]
		})

		descriptor, err := registry.Select()

		req := require.New(t)
		req.NoError(err)
		req.Equal(BackendTomcat, descriptor.Name)

		available[BackendTomcat] = false

		descriptor, err = registry.Select()

		req.NoError(err)
		req.Equal(BackendNetty, descriptor.Name)
	})
}

func Test_BackendRegistryAdd(t *testing.T) {

	t.Run("adding a duplicate name results in an error", func(t *testing.T) {
		registry := NewDefaultBackendRegistry(probeFor())

		err := registry.Add(&BackendDescriptor{
			Name:       BackendTomcat,
			Priority:   999,
			Available:  func() bool { return true },
			NewFactory: func() ConfigurableServerFactory { return NewTomcatServerFactory() },
		})

		require.Error(t, err)
	})

	t.Run("a descriptor without an availability check results in an error", func(t *testing.T) {
		registry := NewBackendRegistry()

		err := registry.Add(&BackendDescriptor{
			Name:       "custom",
			NewFactory: func() ConfigurableServerFactory { return NewNettyServerFactory() },
		})

		require.Error(t, err)
	})

	t.Run("a descriptor without a factory constructor results in an error", func(t *testing.T) {
		registry := NewBackendRegistry()

		err := registry.Add(&BackendDescriptor{
			Name:      "custom",
			Available: func() bool { return true },
		})

		require.Error(t, err)
	})

	t.Run("get retrieves descriptors by name", func(t *testing.T) {
		registry := NewDefaultBackendRegistry(probeFor())

		req := require.New(t)
		req.NotNil(registry.Get(BackendJetty))
		req.Equal(PriorityJetty, registry.Get(BackendJetty).Priority)
		req.Nil(registry.Get("unknown"))
	})
}
