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
	"net/http"

	"github.com/pkg/errors"
)

// A customizer is a user supplied unit of configuration applied to a server
// factory stage before the factory builds a Server. Customizers are collapsed
// by reference identity, not structural equality: the same customizer instance
// reachable via two registration paths executes once per server build. The
// Func adapters below return a fresh pointer per call so every adapted
// function has a stable identity of its own.

// ConnectorCustomizer customizes the Connector stage of a factory.
type ConnectorCustomizer interface {
	Customize(connector *Connector)
}

// ConnectorCustomizerFunc adapts a function to a ConnectorCustomizer.
func ConnectorCustomizerFunc(f func(connector *Connector)) ConnectorCustomizer {
	return &connectorCustomizerFunc{f: f}
}

type connectorCustomizerFunc struct {
	f func(connector *Connector)
}

func (c *connectorCustomizerFunc) Customize(connector *Connector) {
	c.f(connector)
}

// ContextCustomizer customizes the EngineContext stage of a factory.
type ContextCustomizer interface {
	Customize(engineContext *EngineContext)
}

// ContextCustomizerFunc adapts a function to a ContextCustomizer.
func ContextCustomizerFunc(f func(engineContext *EngineContext)) ContextCustomizer {
	return &contextCustomizerFunc{f: f}
}

type contextCustomizerFunc struct {
	f func(engineContext *EngineContext)
}

func (c *contextCustomizerFunc) Customize(engineContext *EngineContext) {
	c.f(engineContext)
}

// ProtocolHandlerCustomizer customizes the ProtocolHandler stage of a factory.
type ProtocolHandlerCustomizer interface {
	Customize(protocolHandler *ProtocolHandler)
}

// ProtocolHandlerCustomizerFunc adapts a function to a ProtocolHandlerCustomizer.
func ProtocolHandlerCustomizerFunc(f func(protocolHandler *ProtocolHandler)) ProtocolHandlerCustomizer {
	return &protocolHandlerCustomizerFunc{f: f}
}

type protocolHandlerCustomizerFunc struct {
	f func(protocolHandler *ProtocolHandler)
}

func (c *protocolHandlerCustomizerFunc) Customize(protocolHandler *ProtocolHandler) {
	c.f(protocolHandler)
}

// BuilderCustomizer customizes the Builder stage of a factory.
type BuilderCustomizer interface {
	Customize(builder *Builder)
}

// BuilderCustomizerFunc adapts a function to a BuilderCustomizer.
func BuilderCustomizerFunc(f func(builder *Builder)) BuilderCustomizer {
	return &builderCustomizerFunc{f: f}
}

type builderCustomizerFunc struct {
	f func(builder *Builder)
}

func (c *builderCustomizerFunc) Customize(builder *Builder) {
	c.f(builder)
}

// DeploymentInfoCustomizer customizes the DeploymentInfo stage of a factory.
type DeploymentInfoCustomizer interface {
	Customize(deploymentInfo *DeploymentInfo)
}

// DeploymentInfoCustomizerFunc adapts a function to a DeploymentInfoCustomizer.
func DeploymentInfoCustomizerFunc(f func(deploymentInfo *DeploymentInfo)) DeploymentInfoCustomizer {
	return &deploymentInfoCustomizerFunc{f: f}
}

type deploymentInfoCustomizerFunc struct {
	f func(deploymentInfo *DeploymentInfo)
}

func (c *deploymentInfoCustomizerFunc) Customize(deploymentInfo *DeploymentInfo) {
	c.f(deploymentInfo)
}

// ServerCustomizer customizes the assembled http.Server before it is handed
// to the Server runtime.
type ServerCustomizer interface {
	Customize(server *http.Server)
}

// ServerCustomizerFunc adapts a function to a ServerCustomizer.
func ServerCustomizerFunc(f func(server *http.Server)) ServerCustomizer {
	return &serverCustomizerFunc{f: f}
}

type serverCustomizerFunc struct {
	f func(server *http.Server)
}

func (c *serverCustomizerFunc) Customize(server *http.Server) {
	c.f(server)
}

// Capability interfaces per customizer category. A factory implements the
// capabilities for the stages its backend exposes; the bootstrap collector
// matches registered customizers to factories through these.

type ConnectorCustomizable interface {
	AddConnectorCustomizers(customizers ...ConnectorCustomizer)
	ConnectorCustomizers() []ConnectorCustomizer
}

type ContextCustomizable interface {
	AddContextCustomizers(customizers ...ContextCustomizer)
	ContextCustomizers() []ContextCustomizer
}

type ProtocolHandlerCustomizable interface {
	AddProtocolHandlerCustomizers(customizers ...ProtocolHandlerCustomizer)
	ProtocolHandlerCustomizers() []ProtocolHandlerCustomizer
}

type BuilderCustomizable interface {
	AddBuilderCustomizers(customizers ...BuilderCustomizer)
	BuilderCustomizers() []BuilderCustomizer
}

type DeploymentInfoCustomizable interface {
	AddDeploymentInfoCustomizers(customizers ...DeploymentInfoCustomizer)
	DeploymentInfoCustomizers() []DeploymentInfoCustomizer
}

type ServerCustomizable interface {
	AddServerCustomizers(customizers ...ServerCustomizer)
	ServerCustomizers() []ServerCustomizer
}

// appendCustomizers appends customizers in insertion order, skipping any
// already present in the existing list by reference identity.
func appendCustomizers[T comparable](existing []T, add []T) []T {
	for _, customizer := range add {
		duplicate := false
		for _, present := range existing {
			if present == customizer {
				duplicate = true
				break
			}
		}

		if !duplicate {
			existing = append(existing, customizer)
		}
	}

	return existing
}

// applyCustomizers runs every customizer in list against the given stage
// exactly once. The list is expected to already be identity-deduplicated by
// appendCustomizers; a duplicate encountered here is an invariant violation.
func applyCustomizers[T comparable, S any](list []T, stage S, apply func(customizer T, stage S)) error {
	seen := make(map[T]struct{}, len(list))

	for _, customizer := range list {
		if _, dup := seen[customizer]; dup {
			return errors.WithStack(ErrDuplicateCustomizer)
		}
		seen[customizer] = struct{}{}

		apply(customizer, stage)
	}

	return nil
}
