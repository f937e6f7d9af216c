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

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// Backend names for the built-in descriptor set.
const (
	BackendTomcat   = "tomcat"
	BackendJetty    = "jetty"
	BackendUndertow = "undertow"
	BackendNetty    = "netty"
)

// Selection priorities for the built-in descriptor set, highest wins.
const (
	PriorityTomcat   = 400
	PriorityJetty    = 300
	PriorityUndertow = 200
	PriorityNetty    = 100
)

// AvailabilityProbe reports whether the named backend can be used in the
// current process. It replaces classpath checks with an explicit predicate
// supplied by the embedding application.
type AvailabilityProbe func(backend string) bool

// BackendDescriptor describes one selectable backend. Descriptors are
// immutable once added to a BackendRegistry.
type BackendDescriptor struct {
	Name       string
	Priority   int
	Available  func() bool
	NewFactory func() ConfigurableServerFactory
}

// BackendRegistry holds the set of known BackendDescriptor's. The set is
// static per process: descriptors are added during program initialization and
// never removed.
type BackendRegistry struct {
	descriptors []*BackendDescriptor
}

// NewBackendRegistry creates an empty BackendRegistry.
func NewBackendRegistry() *BackendRegistry {
	return &BackendRegistry{}
}

// Add adds a descriptor to the registry. Errors if a previous descriptor with
// the same name is registered or if the descriptor is incomplete.
func (registry *BackendRegistry) Add(descriptor *BackendDescriptor) error {
	logrus.Debugf("adding backend descriptor with name: %v", descriptor.Name)

	if descriptor.Name == "" {
		return errors.New("descriptor name must not be empty")
	}

	if descriptor.Available == nil {
		return fmt.Errorf("descriptor [%s] has no availability check", descriptor.Name)
	}

	if descriptor.NewFactory == nil {
		return fmt.Errorf("descriptor [%s] has no factory constructor", descriptor.Name)
	}

	for _, present := range registry.descriptors {
		if present.Name == descriptor.Name {
			return fmt.Errorf("backend [%s] already registered", descriptor.Name)
		}
	}

	registry.descriptors = append(registry.descriptors, descriptor)

	return nil
}

// Get retrieves a descriptor by name or nil if no descriptor with the name is
// registered.
func (registry *BackendRegistry) Get(name string) *BackendDescriptor {
	for _, descriptor := range registry.descriptors {
		if descriptor.Name == name {
			return descriptor
		}
	}

	return nil
}

// Select returns the highest priority descriptor whose availability check
// passes. Availability is evaluated fresh on every call, nothing is cached
// across runs. Ties on priority resolve to the earlier registration.
func (registry *BackendRegistry) Select() (*BackendDescriptor, error) {
	var selected *BackendDescriptor

	for _, descriptor := range registry.descriptors {
		if !descriptor.Available() {
			continue
		}

		if selected == nil || descriptor.Priority > selected.Priority {
			selected = descriptor
		}
	}

	if selected == nil {
		return nil, errors.WithStack(ErrNoBackendAvailable)
	}

	return selected, nil
}

// NewDefaultBackendRegistry creates a registry populated with the built-in
// backend set, in priority order tomcat > jetty > undertow > netty, each
// consulting the supplied probe for availability.
func NewDefaultBackendRegistry(probe AvailabilityProbe) *BackendRegistry {
	registry := NewBackendRegistry()

	descriptors := []*BackendDescriptor{
		{
			Name:       BackendTomcat,
			Priority:   PriorityTomcat,
			Available:  func() bool { return probe(BackendTomcat) },
			NewFactory: func() ConfigurableServerFactory { return NewTomcatServerFactory() },
		},
		{
			Name:       BackendJetty,
			Priority:   PriorityJetty,
			Available:  func() bool { return probe(BackendJetty) },
			NewFactory: func() ConfigurableServerFactory { return NewJettyServerFactory() },
		},
		{
			Name:       BackendUndertow,
			Priority:   PriorityUndertow,
			Available:  func() bool { return probe(BackendUndertow) },
			NewFactory: func() ConfigurableServerFactory { return NewUndertowServerFactory() },
		},
		{
			Name:       BackendNetty,
			Priority:   PriorityNetty,
			Available:  func() bool { return probe(BackendNetty) },
			NewFactory: func() ConfigurableServerFactory { return NewNettyServerFactory() },
		},
	}

	for _, descriptor := range descriptors {
		//can only fail on duplicates or incomplete descriptors, neither occurs here
		_ = registry.Add(descriptor)
	}

	return registry
}
