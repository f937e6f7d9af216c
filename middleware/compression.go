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

// Package middleware provides http.Handler wrappers shared by the servers
// xboot builds.
package middleware

import (
	"compress/gzip"
	"io"
	"net/http"
	"strings"

	"github.com/andybalholm/brotli"
)

const (
	encodingBrotli   = "br"
	encodingGzip     = "gzip"
	encodingIdentity = "identity"
)

// NewCompressionHandler wraps a http.Handler with response compression
// negotiated from the request's Accept-Encoding header. Brotli is preferred
// over gzip; requests accepting neither pass through untouched.
func NewCompressionHandler(handler http.Handler) http.Handler {
	return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		encoding := negotiateEncoding(request.Header.Get("Accept-Encoding"))

		if encoding == encodingIdentity {
			handler.ServeHTTP(writer, request)
			return
		}

		writer.Header().Add("Vary", "Accept-Encoding")

		compressed := &compressedResponseWriter{
			ResponseWriter: writer,
			encoding:       encoding,
		}

		defer func() {
			_ = compressed.Close()
		}()

		handler.ServeHTTP(compressed, request)
	})
}

// compressedResponseWriter withholds the status line, the Content-Encoding
// header, and the compressor until the first body write. A response without a
// body keeps its original headers and gains no compressed stream framing.
type compressedResponseWriter struct {
	http.ResponseWriter
	encoding    string
	compressor  io.WriteCloser
	statusCode  int
	wroteHeader bool
}

func (writer *compressedResponseWriter) Write(data []byte) (int, error) {
	if writer.compressor == nil {
		writer.Header().Set("Content-Encoding", writer.encoding)
		writer.Header().Del("Content-Length")
		writer.flushHeader()

		switch writer.encoding {
		case encodingBrotli:
			writer.compressor = brotli.NewWriter(writer.ResponseWriter)
		default:
			writer.compressor = gzip.NewWriter(writer.ResponseWriter)
		}
	}

	return writer.compressor.Write(data)
}

func (writer *compressedResponseWriter) WriteHeader(statusCode int) {
	writer.statusCode = statusCode
}

// Close finishes the compressed stream, or forwards a withheld status code
// when the handler produced no body.
func (writer *compressedResponseWriter) Close() error {
	if writer.compressor != nil {
		return writer.compressor.Close()
	}

	writer.flushHeader()

	return nil
}

func (writer *compressedResponseWriter) flushHeader() {
	if !writer.wroteHeader && writer.statusCode != 0 {
		writer.wroteHeader = true
		writer.ResponseWriter.WriteHeader(writer.statusCode)
	}
}

// negotiateEncoding picks the strongest supported encoding the client
// accepts. Quality values other than an explicit q=0 are ignored.
func negotiateEncoding(acceptEncoding string) string {
	accepted := map[string]bool{}

	for _, part := range strings.Split(acceptEncoding, ",") {
		fields := strings.Split(strings.TrimSpace(part), ";")
		name := strings.ToLower(strings.TrimSpace(fields[0]))

		if name == "" {
			continue
		}

		refused := false
		for _, field := range fields[1:] {
			if strings.TrimSpace(field) == "q=0" {
				refused = true
				break
			}
		}

		accepted[name] = !refused
	}

	if accepted[encodingBrotli] {
		return encodingBrotli
	}

	if accepted[encodingGzip] {
		return encodingGzip
	}

	return encodingIdentity
}
