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
	"fmt"
	"net/http"
	"reflect"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Scope is an explicit, typed registration scope. It replaces runtime bean
// scanning: everything the bootstrap wires (request handlers, factories,
// customizers, the forwarded header transformer) is registered here by
// explicit calls instead of discovered by reflection. Registrations preserve
// insertion order and each receives a token that serves as its stable handle
// in the registration ledger.
type Scope struct {
	registrations              []Registration
	handlers                   []*handlerRegistration
	factories                  []ConfigurableServerFactory
	factoryCustomizers         []*factoryCustomizerRegistration
	connectorCustomizers       []ConnectorCustomizer
	contextCustomizers         []ContextCustomizer
	protocolHandlerCustomizers []ProtocolHandlerCustomizer
	builderCustomizers         []BuilderCustomizer
	deploymentInfoCustomizers  []DeploymentInfoCustomizer
	serverCustomizers          []ServerCustomizer
	headerTransformers         []*ForwardedHeaderTransformer
}

// RegistrationKind identifies what a Scope registration carries.
type RegistrationKind string

const (
	RegistrationKindHandler                    RegistrationKind = "handler"
	RegistrationKindServerFactory              RegistrationKind = "serverFactory"
	RegistrationKindFactoryCustomizer          RegistrationKind = "factoryCustomizer"
	RegistrationKindConnectorCustomizer        RegistrationKind = "connectorCustomizer"
	RegistrationKindContextCustomizer          RegistrationKind = "contextCustomizer"
	RegistrationKindProtocolHandlerCustomizer  RegistrationKind = "protocolHandlerCustomizer"
	RegistrationKindBuilderCustomizer          RegistrationKind = "builderCustomizer"
	RegistrationKindDeploymentInfoCustomizer   RegistrationKind = "deploymentInfoCustomizer"
	RegistrationKindServerCustomizer           RegistrationKind = "serverCustomizer"
	RegistrationKindForwardedHeaderTransformer RegistrationKind = "forwardedHeaderTransformer"
)

// Registration is one entry in the Scope's registration ledger. Name is the
// handler name, the factory's backend, or the registered value's type,
// depending on the kind.
type Registration struct {
	Token uuid.UUID
	Kind  RegistrationKind
	Name  string
}

type handlerRegistration struct {
	token   uuid.UUID
	name    string
	handler http.Handler
}

type factoryCustomizerRegistration struct {
	token      uuid.UUID
	targetType reflect.Type
	apply      func(factory ServerFactory)
}

// NewScope creates an empty Scope.
func NewScope() *Scope {
	return &Scope{}
}

// record appends a ledger entry for a new registration and returns its token.
func (scope *Scope) record(kind RegistrationKind, name string) uuid.UUID {
	registration := Registration{
		Token: uuid.New(),
		Kind:  kind,
		Name:  name,
	}

	logrus.Debugf("registering %s [%s] with token: %v", kind, name, registration.Token)
	scope.registrations = append(scope.registrations, registration)

	return registration.Token
}

// Registrations returns the full registration ledger in insertion order.
func (scope *Scope) Registrations() []Registration {
	return scope.registrations
}

// GetRegistration looks up a single registration by its token.
func (scope *Scope) GetRegistration(token uuid.UUID) (Registration, bool) {
	for _, registration := range scope.registrations {
		if registration.Token == token {
			return registration, true
		}
	}

	return Registration{}, false
}

// RegisterHandler registers a named request handler. Errors if a previous
// handler with the same name is registered.
func (scope *Scope) RegisterHandler(name string, handler http.Handler) error {
	for _, present := range scope.handlers {
		if present.name == name {
			return fmt.Errorf("handler [%s] already registered", name)
		}
	}

	registration := &handlerRegistration{
		token:   scope.record(RegistrationKindHandler, name),
		name:    name,
		handler: handler,
	}

	scope.handlers = append(scope.handlers, registration)

	return nil
}

// RegisterServerFactory registers a server factory directly. A directly
// registered factory takes precedence over backend selection; registering
// more than one makes the bootstrap fail.
func (scope *Scope) RegisterServerFactory(factory ConfigurableServerFactory) {
	scope.record(RegistrationKindServerFactory, factory.Backend())
	scope.factories = append(scope.factories, factory)
}

// RegisterFactoryCustomizer registers fn against the exact concrete factory
// type T. Dispatch is type-exact: fn runs once per bootstrap run against a
// factory whose concrete type is T and never against any other factory type,
// including interfaces T happens to satisfy.
func RegisterFactoryCustomizer[T ServerFactory](scope *Scope, fn func(factory T)) {
	targetType := reflect.TypeOf((*T)(nil)).Elem()

	registration := &factoryCustomizerRegistration{
		token:      scope.record(RegistrationKindFactoryCustomizer, targetType.String()),
		targetType: targetType,
		apply: func(factory ServerFactory) {
			fn(factory.(T))
		},
	}

	scope.factoryCustomizers = append(scope.factoryCustomizers, registration)
}

// RegisterConnectorCustomizer registers a connector customizer bean.
func (scope *Scope) RegisterConnectorCustomizer(customizer ConnectorCustomizer) {
	scope.record(RegistrationKindConnectorCustomizer, reflect.TypeOf(customizer).String())
	scope.connectorCustomizers = append(scope.connectorCustomizers, customizer)
}

// RegisterContextCustomizer registers an engine context customizer bean.
func (scope *Scope) RegisterContextCustomizer(customizer ContextCustomizer) {
	scope.record(RegistrationKindContextCustomizer, reflect.TypeOf(customizer).String())
	scope.contextCustomizers = append(scope.contextCustomizers, customizer)
}

// RegisterProtocolHandlerCustomizer registers a protocol handler customizer bean.
func (scope *Scope) RegisterProtocolHandlerCustomizer(customizer ProtocolHandlerCustomizer) {
	scope.record(RegistrationKindProtocolHandlerCustomizer, reflect.TypeOf(customizer).String())
	scope.protocolHandlerCustomizers = append(scope.protocolHandlerCustomizers, customizer)
}

// RegisterBuilderCustomizer registers a builder customizer bean.
func (scope *Scope) RegisterBuilderCustomizer(customizer BuilderCustomizer) {
	scope.record(RegistrationKindBuilderCustomizer, reflect.TypeOf(customizer).String())
	scope.builderCustomizers = append(scope.builderCustomizers, customizer)
}

// RegisterDeploymentInfoCustomizer registers a deployment info customizer bean.
func (scope *Scope) RegisterDeploymentInfoCustomizer(customizer DeploymentInfoCustomizer) {
	scope.record(RegistrationKindDeploymentInfoCustomizer, reflect.TypeOf(customizer).String())
	scope.deploymentInfoCustomizers = append(scope.deploymentInfoCustomizers, customizer)
}

// RegisterServerCustomizer registers a whole-server customizer bean.
func (scope *Scope) RegisterServerCustomizer(customizer ServerCustomizer) {
	scope.record(RegistrationKindServerCustomizer, reflect.TypeOf(customizer).String())
	scope.serverCustomizers = append(scope.serverCustomizers, customizer)
}

// RegisterForwardedHeaderTransformer registers a user supplied forwarded
// header transformer. When one is present the bootstrap backs off and keeps
// the user's instance.
func (scope *Scope) RegisterForwardedHeaderTransformer(transformer *ForwardedHeaderTransformer) {
	scope.record(RegistrationKindForwardedHeaderTransformer, reflect.TypeOf(transformer).String())
	scope.headerTransformers = append(scope.headerTransformers, transformer)
}

// ForwardedHeaderTransformers returns the registered transformers in
// registration order.
func (scope *Scope) ForwardedHeaderTransformers() []*ForwardedHeaderTransformer {
	return scope.headerTransformers
}
