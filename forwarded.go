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
	"net"
	"net/http"
	"strings"
)

// ForwardedHeaderStrategy selects how forwarded address headers from proxies
// are handled.
type ForwardedHeaderStrategy string

const (
	// ForwardedHeaderStrategyNone ignores forwarded headers entirely.
	ForwardedHeaderStrategyNone ForwardedHeaderStrategy = "none"

	// ForwardedHeaderStrategyNative leaves forwarded header handling to the
	// underlying server; no transformer is registered.
	ForwardedHeaderStrategyNative ForwardedHeaderStrategy = "native"

	// ForwardedHeaderStrategyFramework registers a ForwardedHeaderTransformer
	// unless the user already registered one.
	ForwardedHeaderStrategyFramework ForwardedHeaderStrategy = "framework"
)

// ParseForwardedHeaderStrategy maps a configuration value to a strategy. An
// absent value means none.
func ParseForwardedHeaderStrategy(value string) (ForwardedHeaderStrategy, error) {
	switch ForwardedHeaderStrategy(strings.ToLower(strings.TrimSpace(value))) {
	case "":
		return ForwardedHeaderStrategyNone, nil
	case ForwardedHeaderStrategyNone:
		return ForwardedHeaderStrategyNone, nil
	case ForwardedHeaderStrategyNative:
		return ForwardedHeaderStrategyNative, nil
	case ForwardedHeaderStrategyFramework:
		return ForwardedHeaderStrategyFramework, nil
	}

	return "", fmt.Errorf("invalid forwarded header strategy [%s], must be one of framework, native, none", value)
}

// forwardedHeaderNames are the headers consumed, and then removed, by the
// transformer.
var forwardedHeaderNames = []string{
	"Forwarded",
	"X-Forwarded-Host",
	"X-Forwarded-Port",
	"X-Forwarded-Proto",
	"X-Forwarded-For",
}

// ForwardedHeaderTransformer rewrites a request's host, scheme, and remote
// address from proxy supplied forwarded headers, then strips those headers so
// downstream handlers never observe them.
type ForwardedHeaderTransformer struct {
}

// NewForwardedHeaderTransformer creates a ForwardedHeaderTransformer.
func NewForwardedHeaderTransformer() *ForwardedHeaderTransformer {
	return &ForwardedHeaderTransformer{}
}

// Transform returns a copy of the request with forwarded header values
// applied and the forwarded headers removed. Requests carrying no forwarded
// headers are returned unchanged.
func (transformer *ForwardedHeaderTransformer) Transform(request *http.Request) *http.Request {
	if !hasForwardedHeaders(request) {
		return request
	}

	out := request.Clone(request.Context())

	host, proto, forPeer := parseForwarded(request.Header.Get("Forwarded"))

	if v := request.Header.Get("X-Forwarded-Host"); v != "" {
		host = firstValue(v)
	}

	if v := request.Header.Get("X-Forwarded-Proto"); v != "" {
		proto = firstValue(v)
	}

	if v := request.Header.Get("X-Forwarded-For"); v != "" {
		forPeer = firstValue(v)
	}

	if host != "" {
		if port := firstValue(request.Header.Get("X-Forwarded-Port")); port != "" {
			if h, _, err := net.SplitHostPort(host); err == nil {
				host = net.JoinHostPort(h, port)
			} else {
				host = net.JoinHostPort(host, port)
			}
		}

		out.Host = host
		out.URL.Host = host
	}

	if proto != "" {
		out.URL.Scheme = proto
	}

	if forPeer != "" {
		if _, _, err := net.SplitHostPort(forPeer); err != nil {
			forPeer = net.JoinHostPort(forPeer, "0")
		}
		out.RemoteAddr = forPeer
	}

	for _, name := range forwardedHeaderNames {
		out.Header.Del(name)
	}

	return out
}

// Wrap returns a handler that transforms each request before delegating to
// next.
func (transformer *ForwardedHeaderTransformer) Wrap(next http.Handler) http.Handler {
	return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		next.ServeHTTP(writer, transformer.Transform(request))
	})
}

func hasForwardedHeaders(request *http.Request) bool {
	for _, name := range forwardedHeaderNames {
		if request.Header.Get(name) != "" {
			return true
		}
	}

	return false
}

// parseForwarded extracts host, proto, and for from the first element of an
// RFC 7239 Forwarded header value.
func parseForwarded(value string) (host string, proto string, forPeer string) {
	if value == "" {
		return "", "", ""
	}

	first := firstValue(value)

	for _, pair := range strings.Split(first, ";") {
		parts := strings.SplitN(strings.TrimSpace(pair), "=", 2)
		if len(parts) != 2 {
			continue
		}

		v := strings.Trim(parts[1], `"`)
		switch strings.ToLower(parts[0]) {
		case "host":
			host = v
		case "proto":
			proto = v
		case "for":
			forPeer = v
		}
	}

	return host, proto, forPeer
}

// firstValue returns the first element of a comma separated header value.
func firstValue(value string) string {
	if idx := strings.Index(value, ","); idx >= 0 {
		value = value[:idx]
	}

	return strings.TrimSpace(value)
}
