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
	"reflect"

	"github.com/michaelquigley/pfxlog"
	"github.com/pkg/errors"
)

// Bootstrap runs the one-shot server configuration sequence: resolve a
// factory, apply settings and customizers, wire forwarded header handling,
// bind the request handler, and build the Server. All of it happens
// synchronously on the calling goroutine; a failure at any stage aborts the
// whole run and leaves no partially started server behind.
type Bootstrap struct {
	Scope    *Scope
	Registry *BackendRegistry
	Settings *Settings

	factory ConfigurableServerFactory
}

// NewBootstrap creates a Bootstrap over the given scope, registry, and
// settings.
func NewBootstrap(scope *Scope, registry *BackendRegistry, settings *Settings) *Bootstrap {
	return &Bootstrap{
		Scope:    scope,
		Registry: registry,
		Settings: settings,
	}
}

// Run executes the bootstrap sequence and returns an unstarted Server bound
// to the single registered request handler.
func (boot *Bootstrap) Run() (*Server, error) {
	factory, err := boot.resolveFactory()
	if err != nil {
		return nil, err
	}
	boot.factory = factory

	if err := boot.applySettings(factory); err != nil {
		return nil, err
	}

	boot.applyFactoryCustomizers(factory)
	boot.collectCustomizers(factory)

	transformer, err := boot.resolveForwardedHeaderTransformer()
	if err != nil {
		return nil, err
	}

	handler, err := bindHandler(boot.Scope)
	if err != nil {
		return nil, err
	}

	if transformer != nil {
		handler = transformer.Wrap(handler)
	}

	server, err := factory.NewServer(handler)
	if err != nil {
		return nil, errors.Wrap(err, "error building server")
	}

	pfxlog.Logger().Infof("bootstrapped %s server on port %d", factory.Backend(), factory.GetPort())

	return server, nil
}

// Factory returns the factory the last Run resolved, for inspection.
func (boot *Bootstrap) Factory() ConfigurableServerFactory {
	return boot.factory
}

// resolveFactory uses a directly registered factory when present, otherwise
// selects a backend from the registry and constructs its factory. More than
// one directly registered factory is a fatal configuration error.
func (boot *Bootstrap) resolveFactory() (ConfigurableServerFactory, error) {
	if count := len(boot.Scope.factories); count > 0 {
		if count > 1 {
			var backends []string
			for _, factory := range boot.Scope.factories {
				backends = append(backends, factory.Backend())
			}
			return nil, &AmbiguousFactoryError{Backends: backends}
		}

		return boot.Scope.factories[0], nil
	}

	descriptor, err := boot.Registry.Select()
	if err != nil {
		return nil, err
	}

	pfxlog.Logger().Debugf("selected backend: %s", descriptor.Name)

	return descriptor.NewFactory(), nil
}

func (boot *Bootstrap) applySettings(factory ConfigurableServerFactory) error {
	factory.SetPort(boot.Settings.Server.Port)
	factory.SetAddress(boot.Settings.Server.Address)
	factory.SetTimeouts(boot.Settings.Timeouts())

	tlsConfig, err := boot.Settings.TLSConfig()
	if err != nil {
		return err
	}

	if tlsConfig != nil {
		factory.SetTLSConfig(tlsConfig)
	}

	return nil
}

// applyFactoryCustomizers invokes registered factory customizers whose target
// type is exactly the factory's concrete type, in registration order. A
// customizer registered against an interface or a different factory type is
// skipped.
func (boot *Bootstrap) applyFactoryCustomizers(factory ConfigurableServerFactory) {
	factoryType := reflect.TypeOf(factory)

	for _, registration := range boot.Scope.factoryCustomizers {
		if registration.targetType == factoryType {
			registration.apply(factory)
		}
	}
}

// collectCustomizers adds every scope registered category customizer to the
// factory stages the factory exposes. This runs after the factory customizers,
// so a customizer some factory customizer already added directly collapses to
// a single application; one registered only in the scope is added here exactly
// once.
func (boot *Bootstrap) collectCustomizers(factory ConfigurableServerFactory) {
	if target, ok := factory.(ConnectorCustomizable); ok {
		target.AddConnectorCustomizers(boot.Scope.connectorCustomizers...)
	}

	if target, ok := factory.(ContextCustomizable); ok {
		target.AddContextCustomizers(boot.Scope.contextCustomizers...)
	}

	if target, ok := factory.(ProtocolHandlerCustomizable); ok {
		target.AddProtocolHandlerCustomizers(boot.Scope.protocolHandlerCustomizers...)
	}

	if target, ok := factory.(BuilderCustomizable); ok {
		target.AddBuilderCustomizers(boot.Scope.builderCustomizers...)
	}

	if target, ok := factory.(DeploymentInfoCustomizable); ok {
		target.AddDeploymentInfoCustomizers(boot.Scope.deploymentInfoCustomizers...)
	}

	if target, ok := factory.(ServerCustomizable); ok {
		target.AddServerCustomizers(boot.Scope.serverCustomizers...)
	}
}

// resolveForwardedHeaderTransformer wires forwarded header handling per the
// configured strategy. The framework strategy registers a transformer unless
// the user already registered one, in which case the user's instance is kept.
func (boot *Bootstrap) resolveForwardedHeaderTransformer() (*ForwardedHeaderTransformer, error) {
	strategy, err := boot.Settings.Strategy()
	if err != nil {
		return nil, err
	}

	if strategy != ForwardedHeaderStrategyFramework {
		return nil, nil
	}

	if len(boot.Scope.headerTransformers) == 0 {
		boot.Scope.RegisterForwardedHeaderTransformer(NewForwardedHeaderTransformer())
	}

	return boot.Scope.headerTransformers[0], nil
}
