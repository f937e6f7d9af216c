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

/*
Package xboot bootstraps a web server from a set of interchangeable backends
and explicit, typed registrations.

Basics

xboot stands up a single http.Server style server from three inputs: a
BackendRegistry of selectable backends, a Scope of registered components, and
Settings loaded from configuration.

The BackendRegistry holds one BackendDescriptor per backend. Each descriptor
carries a priority and an availability check; Bootstrap selects the highest
priority available backend and constructs its ConfigurableServerFactory. The
built-in set orders tomcat over jetty over undertow over netty, with netty as
the reactive fallback. Availability is an injected predicate rather than any
runtime probing, so the embedding application decides what is usable.

The Scope replaces dependency-injection style bean scanning with explicit
registration calls. Request handlers, customizers, server factories, and the
forwarded header transformer are all registered up front; Bootstrap only ever
reads them back in registration order. Exactly one request handler must be
registered: zero or several fail the run with an error naming the expected
capability or enumerating the conflicting registrations.

Customizers configure a factory before it builds its Server. Factory
customizers target one exact concrete factory type and run first; category
customizers (connector, context, protocol handler, builder, deployment info,
server) are then collected from the Scope into whichever stages the selected
factory exposes. Factories collapse duplicate customizer instances by
reference identity, so a customizer registered in the Scope and also added
directly by a factory customizer still runs exactly once per server build.

Settings are loaded with viper from an optional config file and the
environment. The server.forward-headers-strategy key selects how proxy
forwarded headers are treated: framework installs a ForwardedHeaderTransformer
around the handler (keeping a user registered one when present), native leaves
the headers to the server, none ignores them.
*/
package xboot
