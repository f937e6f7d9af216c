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

// bindHandler determines the single request handler the server starts with.
// Exactly one handler must be registered in the scope:
//  1. zero handlers is a fatal configuration error naming the expected
//     capability
//  2. more than one is a fatal configuration error enumerating every
//     candidate by registration name
//
// Ambiguity is never resolved by an arbitrary pick.
func bindHandler(scope *Scope) (http.Handler, error) {
	if len(scope.handlers) == 0 {
		return nil, errors.WithStack(ErrMissingHandler)
	}

	if len(scope.handlers) > 1 {
		var names []string
		for _, registration := range scope.handlers {
			names = append(names, registration.name)
		}

		return nil, &AmbiguousHandlerError{Names: names}
	}

	return scope.handlers[0].handler, nil
}
