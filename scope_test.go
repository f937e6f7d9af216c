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

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func Test_ScopeRegistrationLedger(t *testing.T) {

	t.Run("registrations are enumerated in insertion order", func(t *testing.T) {
		req := require.New(t)

		scope := NewScope()
		req.NoError(scope.RegisterHandler("httpHandler", noopHandler()))
		scope.RegisterServerFactory(NewJettyServerFactory())
		RegisterFactoryCustomizer(scope, func(factory *JettyServerFactory) {})
		scope.RegisterConnectorCustomizer(&countingConnectorCustomizer{})

		registrations := scope.Registrations()
		req.Len(registrations, 4)

		req.Equal(RegistrationKindHandler, registrations[0].Kind)
		req.Equal("httpHandler", registrations[0].Name)

		req.Equal(RegistrationKindServerFactory, registrations[1].Kind)
		req.Equal(BackendJetty, registrations[1].Name)

		req.Equal(RegistrationKindFactoryCustomizer, registrations[2].Kind)
		req.Equal("*xboot.JettyServerFactory", registrations[2].Name)

		req.Equal(RegistrationKindConnectorCustomizer, registrations[3].Kind)
	})

	t.Run("every registration gets a distinct token", func(t *testing.T) {
		req := require.New(t)

		scope := NewScope()
		req.NoError(scope.RegisterHandler("httpHandler", noopHandler()))
		req.NoError(scope.RegisterHandler("additionalHttpHandler", noopHandler()))
		scope.RegisterContextCustomizer(&countingContextCustomizer{})

		seen := map[uuid.UUID]struct{}{}
		for _, registration := range scope.Registrations() {
			req.NotEqual(uuid.Nil, registration.Token)
			_, duplicate := seen[registration.Token]
			req.False(duplicate)
			seen[registration.Token] = struct{}{}
		}
	})

	t.Run("a token looks up its registration", func(t *testing.T) {
		req := require.New(t)

		scope := NewScope()
		req.NoError(scope.RegisterHandler("httpHandler", noopHandler()))
		scope.RegisterProtocolHandlerCustomizer(&countingProtocolHandlerCustomizer{})

		token := scope.Registrations()[1].Token
		registration, found := scope.GetRegistration(token)

		req.True(found)
		req.Equal(RegistrationKindProtocolHandlerCustomizer, registration.Kind)
	})

	t.Run("an unknown token is not found", func(t *testing.T) {
		scope := NewScope()

		_, found := scope.GetRegistration(uuid.New())
		require.False(t, found)
	})
}
