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
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net"
	"net/http"
	"sync"

	"github.com/michaelquigley/pfxlog"
	"github.com/openfab/xboot/middleware"
	"github.com/openziti/foundation/v2/debugz"
	transporttls "github.com/openziti/transport/v2/tls"
)

// Server is a runnable server produced by a ServerFactory, bound to exactly
// one request handler. The factory/server pair is all or nothing: a Server is
// only handed out once the whole bootstrap sequence succeeded.
type Server struct {
	backend        string
	connector      *Connector
	httpServer     *http.Server
	logWriter      *io.PipeWriter
	OnHandlerPanic func(writer http.ResponseWriter, request *http.Request, panicVal interface{})

	lock     sync.Mutex
	listener net.Listener
}

func newServer(backend string, connector *Connector, httpServer *http.Server) *Server {
	logWriter := pfxlog.Logger().Writer()

	server := &Server{
		backend:    backend,
		connector:  connector,
		httpServer: httpServer,
		logWriter:  logWriter,
	}

	httpServer.Handler = server.wrapHandler(httpServer.Handler)
	httpServer.ErrorLog = log.New(logWriter, "", 0)
	httpServer.BaseContext = server.newBaseContext

	return server
}

// Backend returns the name of the backend that produced this server.
func (server *Server) Backend() string {
	return server.backend
}

func (server *Server) newBaseContext(_ net.Listener) context.Context {
	info := &ServerInfo{
		Backend:   server.backend,
		Connector: server.connector,
	}

	return context.WithValue(context.Background(), ServerInfoContextKey, info)
}

func (server *Server) wrapHandler(handler http.Handler) http.Handler {
	//innermost/bottom -> outermost/top
	handler = server.wrapPanicRecovery(handler)
	handler = middleware.NewCompressionHandler(handler)
	return handler
}

// wrapPanicRecovery wraps a http.Handler with another http.Handler that provides recovery.
func (server *Server) wrapPanicRecovery(handler http.Handler) http.Handler {
	wrappedHandler := http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		defer func() {
			if panicVal := recover(); panicVal != nil {
				if server.OnHandlerPanic != nil {
					server.OnHandlerPanic(writer, request, panicVal)
					return
				}
				pfxlog.Logger().Errorf("panic caught by server handler: %v\n%v", panicVal, debugz.GenerateLocalStack())
			}
		}()

		handler.ServeHTTP(writer, request)
	})

	return wrappedHandler
}

// Start listens and serves until Shutdown is called or serving fails. The
// listener is TLS when the connector carries a TLS configuration, plain TCP
// otherwise.
func (server *Server) Start() error {
	logger := pfxlog.Logger()

	var listener net.Listener
	var err error

	if cfg := server.httpServer.TLSConfig; cfg != nil {
		// make sure to listen to the expected protocols
		cfg.NextProtos = append(cfg.NextProtos, "h2", "http/1.1", "")
		listener, err = transporttls.ListenTLS(server.httpServer.Addr, server.backend, cfg)
	} else {
		listener, err = net.Listen("tcp", server.httpServer.Addr)
	}

	if err != nil {
		return fmt.Errorf("error listening: %s", err)
	}

	server.lock.Lock()
	server.listener = listener
	server.lock.Unlock()

	logger.Infof("starting %s server to listen and serve on %s", server.backend, listener.Addr())

	err = server.httpServer.Serve(listener)

	if !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("error serving: %s", err)
	}

	return nil
}

// Port returns the port the server is listening on. Before Start it is the
// configured connector port; after Start it is the bound port, which differs
// when port 0 requested an ephemeral port.
func (server *Server) Port() int {
	server.lock.Lock()
	defer server.lock.Unlock()

	if server.listener != nil {
		if tcpAddr, ok := server.listener.Addr().(*net.TCPAddr); ok {
			return tcpAddr.Port
		}
	}

	return server.connector.Port
}

// Shutdown stops the server.
func (server *Server) Shutdown(ctx context.Context) {
	_ = server.logWriter.Close()
	_ = server.httpServer.Shutdown(ctx)
}
