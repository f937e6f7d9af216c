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
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// Connector describes the listener a Server binds. Connector customizers run
// against it before the listener is created.
type Connector struct {
	Address string
	Port    int
	TLS     *tls.Config
}

// Addr returns the <address>:<port> form used for listening.
func (connector *Connector) Addr() string {
	return net.JoinHostPort(connector.Address, strconv.Itoa(connector.Port))
}

// EngineContext describes the root context handlers are mounted under.
type EngineContext struct {
	BasePath   string
	Attributes map[string]string
}

// ProtocolHandler holds the HTTP protocol level knobs applied to the
// assembled http.Server.
type ProtocolHandler struct {
	EnableH2       bool
	MaxHeaderBytes int
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	IdleTimeout    time.Duration
}

// Builder holds worker and buffer sizing applied by builder customizers.
type Builder struct {
	IOThreads  int
	BufferSize int
}

// DeploymentInfo holds deployment metadata applied by deployment info
// customizers.
type DeploymentInfo struct {
	Name        string
	ContextPath string
}

// ServerFactory produces a Server bound to a single request handler.
type ServerFactory interface {
	Backend() string
	NewServer(handler http.Handler) (*Server, error)
}

// ConfigurableServerFactory is a mutable ServerFactory. It is created per
// bootstrap run, mutated by settings and customizers, then asked to build a
// Server, all on a single goroutine.
type ConfigurableServerFactory interface {
	ServerFactory
	SetPort(port int)
	GetPort() int
	SetAddress(address string)
	GetAddress() string
	SetTLSConfig(tlsConfig *tls.Config)
	SetTimeouts(timeouts TimeoutSettings)
}

// baseFactory carries the configuration shared by every backend factory.
type baseFactory struct {
	backend   string
	port      int
	address   string
	tlsConfig *tls.Config
	timeouts  TimeoutSettings
}

func newBaseFactory(backend string) baseFactory {
	return baseFactory{
		backend: backend,
		timeouts: TimeoutSettings{
			ReadTimeout:  DefaultHttpReadTimeout,
			WriteTimeout: DefaultHttpWriteTimeout,
			IdleTimeout:  DefaultHttpIdleTimeout,
		},
	}
}

func (factory *baseFactory) Backend() string {
	return factory.backend
}

func (factory *baseFactory) SetPort(port int) {
	factory.port = port
}

func (factory *baseFactory) GetPort() int {
	return factory.port
}

func (factory *baseFactory) SetAddress(address string) {
	factory.address = address
}

func (factory *baseFactory) GetAddress() string {
	return factory.address
}

func (factory *baseFactory) SetTLSConfig(tlsConfig *tls.Config) {
	factory.tlsConfig = tlsConfig
}

func (factory *baseFactory) SetTimeouts(timeouts TimeoutSettings) {
	factory.timeouts = timeouts
}

func (factory *baseFactory) newConnector() *Connector {
	return &Connector{
		Address: factory.address,
		Port:    factory.port,
		TLS:     factory.tlsConfig,
	}
}

func (factory *baseFactory) newProtocolHandler() *ProtocolHandler {
	return &ProtocolHandler{
		EnableH2:       true,
		MaxHeaderBytes: http.DefaultMaxHeaderBytes,
		ReadTimeout:    factory.timeouts.ReadTimeout,
		WriteTimeout:   factory.timeouts.WriteTimeout,
		IdleTimeout:    factory.timeouts.IdleTimeout,
	}
}

func newEngineContext() *EngineContext {
	return &EngineContext{
		BasePath:   "/",
		Attributes: map[string]string{},
	}
}

// mountHandler mounts the handler under the context base path. A base path of
// "/" or empty leaves the handler unwrapped.
func mountHandler(basePath string, handler http.Handler) http.Handler {
	if basePath == "" || basePath == "/" {
		return handler
	}

	basePath = strings.TrimSuffix(basePath, "/")

	mux := http.NewServeMux()
	mux.Handle(basePath+"/", http.StripPrefix(basePath, handler))
	return mux
}

func buildHttpServer(connector *Connector, protocolHandler *ProtocolHandler, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:           connector.Addr(),
		Handler:        handler,
		ReadTimeout:    protocolHandler.ReadTimeout,
		WriteTimeout:   protocolHandler.WriteTimeout,
		IdleTimeout:    protocolHandler.IdleTimeout,
		MaxHeaderBytes: protocolHandler.MaxHeaderBytes,
		TLSConfig:      connector.TLS,
	}
}

// TomcatServerFactory is the connector oriented backend factory. It exposes
// connector, context, and protocol handler customization stages.
type TomcatServerFactory struct {
	baseFactory
	connectorCustomizers       []ConnectorCustomizer
	contextCustomizers         []ContextCustomizer
	protocolHandlerCustomizers []ProtocolHandlerCustomizer
}

var _ ConfigurableServerFactory = (*TomcatServerFactory)(nil)
var _ ConnectorCustomizable = (*TomcatServerFactory)(nil)
var _ ContextCustomizable = (*TomcatServerFactory)(nil)
var _ ProtocolHandlerCustomizable = (*TomcatServerFactory)(nil)

func NewTomcatServerFactory() *TomcatServerFactory {
	return &TomcatServerFactory{
		baseFactory: newBaseFactory(BackendTomcat),
	}
}

// AddConnectorCustomizers appends customizers in insertion order. A customizer
// instance already present is not added again.
func (factory *TomcatServerFactory) AddConnectorCustomizers(customizers ...ConnectorCustomizer) {
	factory.connectorCustomizers = appendCustomizers(factory.connectorCustomizers, customizers)
}

// ConnectorCustomizers returns the applied connector customizers in order.
func (factory *TomcatServerFactory) ConnectorCustomizers() []ConnectorCustomizer {
	return factory.connectorCustomizers
}

func (factory *TomcatServerFactory) AddContextCustomizers(customizers ...ContextCustomizer) {
	factory.contextCustomizers = appendCustomizers(factory.contextCustomizers, customizers)
}

func (factory *TomcatServerFactory) ContextCustomizers() []ContextCustomizer {
	return factory.contextCustomizers
}

func (factory *TomcatServerFactory) AddProtocolHandlerCustomizers(customizers ...ProtocolHandlerCustomizer) {
	factory.protocolHandlerCustomizers = appendCustomizers(factory.protocolHandlerCustomizers, customizers)
}

func (factory *TomcatServerFactory) ProtocolHandlerCustomizers() []ProtocolHandlerCustomizer {
	return factory.protocolHandlerCustomizers
}

func (factory *TomcatServerFactory) NewServer(handler http.Handler) (*Server, error) {
	connector := factory.newConnector()
	if err := applyCustomizers(factory.connectorCustomizers, connector, func(customizer ConnectorCustomizer, stage *Connector) {
		customizer.Customize(stage)
	}); err != nil {
		return nil, err
	}

	engineContext := newEngineContext()
	if err := applyCustomizers(factory.contextCustomizers, engineContext, func(customizer ContextCustomizer, stage *EngineContext) {
		customizer.Customize(stage)
	}); err != nil {
		return nil, err
	}

	protocolHandler := factory.newProtocolHandler()
	if err := applyCustomizers(factory.protocolHandlerCustomizers, protocolHandler, func(customizer ProtocolHandlerCustomizer, stage *ProtocolHandler) {
		customizer.Customize(stage)
	}); err != nil {
		return nil, err
	}

	httpServer := buildHttpServer(connector, protocolHandler, mountHandler(engineContext.BasePath, handler))

	return newServer(factory.Backend(), connector, httpServer), nil
}

// JettyServerFactory exposes whole-server customization only.
type JettyServerFactory struct {
	baseFactory
	serverCustomizers []ServerCustomizer
}

var _ ConfigurableServerFactory = (*JettyServerFactory)(nil)
var _ ServerCustomizable = (*JettyServerFactory)(nil)

func NewJettyServerFactory() *JettyServerFactory {
	return &JettyServerFactory{
		baseFactory: newBaseFactory(BackendJetty),
	}
}

func (factory *JettyServerFactory) AddServerCustomizers(customizers ...ServerCustomizer) {
	factory.serverCustomizers = appendCustomizers(factory.serverCustomizers, customizers)
}

func (factory *JettyServerFactory) ServerCustomizers() []ServerCustomizer {
	return factory.serverCustomizers
}

func (factory *JettyServerFactory) NewServer(handler http.Handler) (*Server, error) {
	connector := factory.newConnector()
	httpServer := buildHttpServer(connector, factory.newProtocolHandler(), handler)

	if err := applyCustomizers(factory.serverCustomizers, httpServer, func(customizer ServerCustomizer, stage *http.Server) {
		customizer.Customize(stage)
	}); err != nil {
		return nil, err
	}

	return newServer(factory.Backend(), connector, httpServer), nil
}

// UndertowServerFactory exposes builder and deployment info customization
// stages.
type UndertowServerFactory struct {
	baseFactory
	builderCustomizers        []BuilderCustomizer
	deploymentInfoCustomizers []DeploymentInfoCustomizer
}

var _ ConfigurableServerFactory = (*UndertowServerFactory)(nil)
var _ BuilderCustomizable = (*UndertowServerFactory)(nil)
var _ DeploymentInfoCustomizable = (*UndertowServerFactory)(nil)

func NewUndertowServerFactory() *UndertowServerFactory {
	return &UndertowServerFactory{
		baseFactory: newBaseFactory(BackendUndertow),
	}
}

func (factory *UndertowServerFactory) AddBuilderCustomizers(customizers ...BuilderCustomizer) {
	factory.builderCustomizers = appendCustomizers(factory.builderCustomizers, customizers)
}

func (factory *UndertowServerFactory) BuilderCustomizers() []BuilderCustomizer {
	return factory.builderCustomizers
}

func (factory *UndertowServerFactory) AddDeploymentInfoCustomizers(customizers ...DeploymentInfoCustomizer) {
	factory.deploymentInfoCustomizers = appendCustomizers(factory.deploymentInfoCustomizers, customizers)
}

func (factory *UndertowServerFactory) DeploymentInfoCustomizers() []DeploymentInfoCustomizer {
	return factory.deploymentInfoCustomizers
}

func (factory *UndertowServerFactory) NewServer(handler http.Handler) (*Server, error) {
	builder := &Builder{
		IOThreads:  1,
		BufferSize: http.DefaultMaxHeaderBytes,
	}
	if err := applyCustomizers(factory.builderCustomizers, builder, func(customizer BuilderCustomizer, stage *Builder) {
		customizer.Customize(stage)
	}); err != nil {
		return nil, err
	}

	deploymentInfo := &DeploymentInfo{
		Name:        factory.Backend(),
		ContextPath: "/",
	}
	if err := applyCustomizers(factory.deploymentInfoCustomizers, deploymentInfo, func(customizer DeploymentInfoCustomizer, stage *DeploymentInfo) {
		customizer.Customize(stage)
	}); err != nil {
		return nil, err
	}

	connector := factory.newConnector()
	protocolHandler := factory.newProtocolHandler()
	protocolHandler.MaxHeaderBytes = builder.BufferSize

	httpServer := buildHttpServer(connector, protocolHandler, mountHandler(deploymentInfo.ContextPath, handler))

	return newServer(factory.Backend(), connector, httpServer), nil
}

// NettyServerFactory is the reactive fallback backend. Like Jetty it exposes
// whole-server customization only.
type NettyServerFactory struct {
	baseFactory
	serverCustomizers []ServerCustomizer
}

var _ ConfigurableServerFactory = (*NettyServerFactory)(nil)
var _ ServerCustomizable = (*NettyServerFactory)(nil)

func NewNettyServerFactory() *NettyServerFactory {
	return &NettyServerFactory{
		baseFactory: newBaseFactory(BackendNetty),
	}
}

func (factory *NettyServerFactory) AddServerCustomizers(customizers ...ServerCustomizer) {
	factory.serverCustomizers = appendCustomizers(factory.serverCustomizers, customizers)
}

func (factory *NettyServerFactory) ServerCustomizers() []ServerCustomizer {
	return factory.serverCustomizers
}

func (factory *NettyServerFactory) NewServer(handler http.Handler) (*Server, error) {
	connector := factory.newConnector()
	httpServer := buildHttpServer(connector, factory.newProtocolHandler(), handler)

	if err := applyCustomizers(factory.serverCustomizers, httpServer, func(customizer ServerCustomizer, stage *http.Server) {
		customizer.Customize(stage)
	}); err != nil {
		return nil, err
	}

	return newServer(factory.Backend(), connector, httpServer), nil
}
