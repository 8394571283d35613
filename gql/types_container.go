package gql

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/GannettDigital/graphql"
)

// ErrTypeNotFound is returned by a TypesContainer for unknown type names.
var ErrTypeNotFound = errors.New("type not found")

// TypesContainer holds the named GraphQL types built so far.
type TypesContainer interface {
	Has(name string) bool
	Get(name string) (graphql.Type, error)
	Set(name string, gtype graphql.Type)
	All() []graphql.Type
}

// TypeRegistry is the default TypesContainer, it is safe for concurrent use.
type TypeRegistry struct {
	mu    sync.RWMutex
	types map[string]graphql.Type
}

// NewTypeRegistry creates a TypeRegistry holding the given types under their own names.
func NewTypeRegistry(types ...graphql.Type) *TypeRegistry {
	tr := &TypeRegistry{types: make(map[string]graphql.Type)}
	for _, gtype := range types {
		tr.types[gtype.Name()] = gtype
	}
	return tr
}

// Has reports whether a type is registered under the name.
func (tr *TypeRegistry) Has(name string) bool {
	tr.mu.RLock()
	defer tr.mu.RUnlock()

	_, ok := tr.types[name]
	return ok
}

// Get returns the type registered under the name.
func (tr *TypeRegistry) Get(name string) (graphql.Type, error) {
	tr.mu.RLock()
	defer tr.mu.RUnlock()

	gtype, ok := tr.types[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrTypeNotFound, name)
	}
	return gtype, nil
}

// Set registers the type under the name, replacing any type already registered under it.
func (tr *TypeRegistry) Set(name string, gtype graphql.Type) {
	tr.mu.Lock()
	defer tr.mu.Unlock()

	tr.types[name] = gtype
}

// All returns every registered type sorted by the name it is registered under.
func (tr *TypeRegistry) All() []graphql.Type {
	tr.mu.RLock()
	defer tr.mu.RUnlock()

	names := make([]string, 0, len(tr.types))
	for name := range tr.types {
		names = append(names, name)
	}
	sort.Strings(names)

	gtypes := make([]graphql.Type, len(names))
	for i, name := range names {
		gtypes[i] = tr.types[name]
	}
	return gtypes
}
