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
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func Test_ParseForwardedHeaderStrategy(t *testing.T) {

	t.Run("known values parse case insensitively", func(t *testing.T) {
		req := require.New(t)

		strategy, err := ParseForwardedHeaderStrategy("framework")
		req.NoError(err)
		req.Equal(ForwardedHeaderStrategyFramework, strategy)

		strategy, err = ParseForwardedHeaderStrategy("NATIVE")
		req.NoError(err)
		req.Equal(ForwardedHeaderStrategyNative, strategy)

		strategy, err = ParseForwardedHeaderStrategy(" none ")
		req.NoError(err)
		req.Equal(ForwardedHeaderStrategyNone, strategy)
	})

	t.Run("an absent value means none", func(t *testing.T) {
		strategy, err := ParseForwardedHeaderStrategy("")

		req := require.New(t)
		req.NoError(err)
		req.Equal(ForwardedHeaderStrategyNone, strategy)
	})

	t.Run("an unknown value results in an error", func(t *testing.T) {
		_, err := ParseForwardedHeaderStrategy("filter")

		require.Error(t, err)
	})
}

func Test_ForwardedHeaderTransformer(t *testing.T) {

	t.Run("a request without forwarded headers passes through unchanged", func(t *testing.T) {
		transformer := NewForwardedHeaderTransformer()
		request := httptest.NewRequest(http.MethodGet, "http://internal:8080/path", nil)

		out := transformer.Transform(request)

		require.Same(t, request, out)
	})

	t.Run("x-forwarded headers rewrite host, scheme, and remote address", func(t *testing.T) {
		transformer := NewForwardedHeaderTransformer()
		request := httptest.NewRequest(http.MethodGet, "http://internal:8080/path", nil)
		request.Header.Set("X-Forwarded-Host", "example.com")
		request.Header.Set("X-Forwarded-Proto", "https")
		request.Header.Set("X-Forwarded-For", "203.0.113.7")

		out := transformer.Transform(request)

		req := require.New(t)
		req.Equal("example.com", out.Host)
		req.Equal("example.com", out.URL.Host)
		req.Equal("https", out.URL.Scheme)
		req.Equal("203.0.113.7:0", out.RemoteAddr)
	})

	t.Run("x-forwarded-port is joined with the forwarded host", func(t *testing.T) {
		transformer := NewForwardedHeaderTransformer()
		request := httptest.NewRequest(http.MethodGet, "http://internal:8080/path", nil)
		request.Header.Set("X-Forwarded-Host", "example.com")
		request.Header.Set("X-Forwarded-Port", "8443")

		out := transformer.Transform(request)

		require.Equal(t, "example.com:8443", out.Host)
	})

	t.Run("only the first value of a multi hop header applies", func(t *testing.T) {
		transformer := NewForwardedHeaderTransformer()
		request := httptest.NewRequest(http.MethodGet, "http://internal:8080/path", nil)
		request.Header.Set("X-Forwarded-For", "203.0.113.7, 10.0.0.1, 10.0.0.2")

		out := transformer.Transform(request)

		require.Equal(t, "203.0.113.7:0", out.RemoteAddr)
	})

	t.Run("an rfc7239 forwarded header applies", func(t *testing.T) {
		transformer := NewForwardedHeaderTransformer()
		request := httptest.NewRequest(http.MethodGet, "http://internal:8080/path", nil)
		request.Header.Set("Forwarded", `for=203.0.113.7;host=example.com;proto=https`)

		out := transformer.Transform(request)

		req := require.New(t)
		req.Equal("example.com", out.Host)
		req.Equal("https", out.URL.Scheme)
		req.Equal("203.0.113.7:0", out.RemoteAddr)
	})

	t.Run("x-forwarded headers win over the forwarded header", func(t *testing.T) {
		transformer := NewForwardedHeaderTransformer()
		request := httptest.NewRequest(http.MethodGet, "http://internal:8080/path", nil)
		request.Header.Set("Forwarded", `host=other.example.com`)
		request.Header.Set("X-Forwarded-Host", "example.com")

		out := transformer.Transform(request)

		require.Equal(t, "example.com", out.Host)
	})

	t.Run("forwarded headers are stripped from the transformed request", func(t *testing.T) {
		transformer := NewForwardedHeaderTransformer()
		request := httptest.NewRequest(http.MethodGet, "http://internal:8080/path", nil)
		request.Header.Set("X-Forwarded-Host", "example.com")
		request.Header.Set("X-Forwarded-Proto", "https")
		request.Header.Set("Forwarded", `host=example.com`)

		out := transformer.Transform(request)

		req := require.New(t)
		for _, name := range forwardedHeaderNames {
			req.Empty(out.Header.Get(name))
		}
		//the original request is left alone
		req.Equal("example.com", request.Header.Get("X-Forwarded-Host"))
	})

	t.Run("wrap transforms the request seen by the wrapped handler", func(t *testing.T) {
		transformer := NewForwardedHeaderTransformer()

		var seenHost string
		handler := transformer.Wrap(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			seenHost = request.Host
		}))

		request := httptest.NewRequest(http.MethodGet, "http://internal:8080/path", nil)
		request.Header.Set("X-Forwarded-Host", "example.com")

		handler.ServeHTTP(httptest.NewRecorder(), request)

		require.Equal(t, "example.com", seenHost)
	})
}
