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
	"strings"

	"github.com/pkg/errors"
)

// Bootstrap failures are deterministic configuration errors. Retrying without
// changing the registered scope or settings reproduces the same failure, so
// none of these are retried internally.
var (
	// ErrNoBackendAvailable is returned by BackendRegistry.Select when no
	// registered backend reports itself available.
	ErrNoBackendAvailable = errors.New("no web server backend available")

	// ErrMissingHandler is returned when a server is to be started but no
	// request handler was registered.
	ErrMissingHandler = errors.New("unable to start server, missing HttpHandler bean")

	// ErrDuplicateCustomizer indicates a customizer was about to be applied
	// more than once to the same factory. Factories collapse duplicate
	// registrations by reference identity before applying, so this surfacing
	// means that invariant was broken.
	ErrDuplicateCustomizer = errors.New("customizer applied more than once to the same factory")
)

// AmbiguousHandlerError is returned when more than one request handler is
// registered. Binding is fail-fast: ambiguity is never resolved by an
// arbitrary pick.
type AmbiguousHandlerError struct {
	Names []string
}

func (e *AmbiguousHandlerError) Error() string {
	return "unable to start server, multiple HttpHandler beans : " + strings.Join(e.Names, ",")
}

// AmbiguousFactoryError is returned when more than one server factory is
// registered directly in the scope.
type AmbiguousFactoryError struct {
	Backends []string
}

func (e *AmbiguousFactoryError) Error() string {
	return "unable to start server, multiple ServerFactory beans : " + strings.Join(e.Backends, ",")
}
