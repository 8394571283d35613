// Package metadata describes the API resources, operations and properties which are converted into GraphQL types by
// the gql package.
//
// The types here are plain data. They can be built in code or loaded from YAML using a Registry.
package metadata

import (
	"errors"
	"strings"
)

// Builtin is the builtin kind of a property type.
type Builtin string

// The builtin kinds a property type may have.
const (
	BuiltinBool     Builtin = "bool"
	BuiltinInt      Builtin = "int"
	BuiltinFloat    Builtin = "float"
	BuiltinString   Builtin = "string"
	BuiltinArray    Builtin = "array"
	BuiltinIterable Builtin = "iterable"
	BuiltinObject   Builtin = "object"
	BuiltinCallable Builtin = "callable"
	BuiltinNull     Builtin = "null"
	BuiltinResource Builtin = "resource"
)

// OperationKind identifies the GraphQL operation an Operation is exposed as.
type OperationKind string

const (
	KindQuery           OperationKind = "query"
	KindQueryCollection OperationKind = "query_collection"
	KindMutation        OperationKind = "mutation"
	KindSubscription    OperationKind = "subscription"
)

// Names of the default operations used when a root operation does not exist on a related resource.
const (
	ItemQuery       = "item_query"
	CollectionQuery = "collection_query"
)

var (
	// ErrResourceClassNotFound is returned by a ResourceCollectionFactory for classes it knows nothing about.
	ErrResourceClassNotFound = errors.New("resource class not found")

	// ErrOperationNotFound is returned when a named operation does not exist on any resource of a collection.
	ErrOperationNotFound = errors.New("operation not found")

	// ErrPropertyNotFound is returned by a PropertyFactory for unknown properties.
	ErrPropertyNotFound = errors.New("property not found")

	// ErrEnumNotFound is returned by an EnumFactory for classes which are not enums.
	ErrEnumNotFound = errors.New("enum not found")
)

// Type describes the type of a property.
// For collections CollectionValueTypes holds the types of the items, only the first one is considered when converting.
type Type struct {
	Builtin              Builtin `yaml:"builtin"`
	Nullable             bool    `yaml:"nullable,omitempty"`
	Class                string  `yaml:"class,omitempty"`
	Collection           bool    `yaml:"collection,omitempty"`
	CollectionKeyTypes   []*Type `yaml:"key_types,omitempty"`
	CollectionValueTypes []*Type `yaml:"value_types,omitempty"`
}

// NewType returns a non-collection type with the given builtin kind and optional class.
func NewType(builtin Builtin, nullable bool, class string) *Type {
	return &Type{Builtin: builtin, Nullable: nullable, Class: class}
}

// NewCollectionType returns a collection type holding values of the given type.
func NewCollectionType(builtin Builtin, nullable bool, value *Type) *Type {
	t := &Type{Builtin: builtin, Nullable: nullable, Collection: true}
	if value != nil {
		t.CollectionValueTypes = []*Type{value}
	}
	return t
}

// CollectionValueType returns the first collection value type or nil if there is none.
func (t *Type) CollectionValueType() *Type {
	if t == nil || len(t.CollectionValueTypes) == 0 {
		return nil
	}
	return t.CollectionValueTypes[0]
}

// Operation is a GraphQL operation exposed for a resource.
type Operation struct {
	Name                  string        `yaml:"-"`
	Kind                  OperationKind `yaml:"kind"`
	Class                 string        `yaml:"-"`
	ShortName             string        `yaml:"-"`
	Description           string        `yaml:"description,omitempty"`
	NormalizationGroups   []string      `yaml:"normalization_groups,omitempty"`
	DenormalizationGroups []string      `yaml:"denormalization_groups,omitempty"`
}

// IsQuery is true for both item and collection queries. An operation without a kind is a query.
func (o *Operation) IsQuery() bool {
	return o != nil && (o.Kind == KindQuery || o.Kind == KindQueryCollection || o.Kind == "")
}

// IsCollection is true for collection queries.
func (o *Operation) IsCollection() bool {
	return o != nil && o.Kind == KindQueryCollection
}

// Resource is one declaration of an API resource for a class.
// A nil GraphQLOperations map means the resource is not exposed through GraphQL at all.
type Resource struct {
	Class             string
	ShortName         string
	Description       string
	GraphQLOperations map[string]*Operation
}

// ResourceCollection holds every Resource declared for a class.
type ResourceCollection struct {
	Class     string
	Resources []*Resource
}

// NewResourceCollection creates a ResourceCollection and fills in the operation names, classes and short names which
// are implied by the resources.
func NewResourceCollection(class string, resources ...*Resource) *ResourceCollection {
	for _, r := range resources {
		if r.Class == "" {
			r.Class = class
		}
		if r.ShortName == "" {
			r.ShortName = ShortName(r.Class)
		}
		for name, op := range r.GraphQLOperations {
			if op.Name == "" {
				op.Name = name
			}
			if op.Class == "" {
				op.Class = r.Class
			}
			if op.ShortName == "" {
				op.ShortName = r.ShortName
			}
		}
	}
	return &ResourceCollection{Class: class, Resources: resources}
}

// HasGraphQL reports whether at least one resource of the collection is exposed through GraphQL.
func (rc *ResourceCollection) HasGraphQL() bool {
	return rc.graphQLResource() != nil
}

// ShortName is the short name of the first resource exposed through GraphQL, or the short class name.
func (rc *ResourceCollection) ShortName() string {
	if r := rc.graphQLResource(); r != nil {
		return r.ShortName
	}
	return ShortName(rc.Class)
}

// Description is the description of the first resource exposed through GraphQL.
func (rc *ResourceCollection) Description() string {
	if r := rc.graphQLResource(); r != nil {
		return r.Description
	}
	return ""
}

func (rc *ResourceCollection) graphQLResource() *Resource {
	if rc == nil {
		return nil
	}
	for _, r := range rc.Resources {
		if r.GraphQLOperations != nil {
			return r
		}
	}
	return nil
}

// GraphQLOperation finds the named operation across all resources of the collection.
// An empty name returns the first operation found, preferring item queries.
func (rc *ResourceCollection) GraphQLOperation(name string) (*Operation, error) {
	if rc == nil {
		return nil, ErrOperationNotFound
	}
	if name == "" {
		name = ItemQuery
		for _, r := range rc.Resources {
			if op, ok := r.GraphQLOperations[name]; ok {
				return op, nil
			}
		}
		for _, r := range rc.Resources {
			if names := sortedKeys(r.GraphQLOperations); len(names) > 0 {
				return r.GraphQLOperations[names[0]], nil
			}
		}
		return nil, ErrOperationNotFound
	}
	for _, r := range rc.Resources {
		if op, ok := r.GraphQLOperations[name]; ok {
			return op, nil
		}
	}
	return nil, ErrOperationNotFound
}

// Property is the metadata of one property of a class.
type Property struct {
	Type         *Type    `yaml:"type"`
	Description  string   `yaml:"description,omitempty"`
	Readable     bool     `yaml:"readable"`
	Writable     bool     `yaml:"writable"`
	ReadableLink bool     `yaml:"readable_link,omitempty"`
	WritableLink bool     `yaml:"writable_link,omitempty"`
	Required     bool     `yaml:"required,omitempty"`
	Identifier   bool     `yaml:"identifier,omitempty"`
	Groups       []string `yaml:"groups,omitempty"`
	Deprecation  string   `yaml:"deprecation_reason,omitempty"`
}

// PropertyOptions narrows the property metadata to the given serialization groups.
type PropertyOptions struct {
	NormalizationGroups   []string
	DenormalizationGroups []string
}

// EnumCase is one case of an enum.
type EnumCase struct {
	Name        string `yaml:"name"`
	Value       string `yaml:"value"`
	Description string `yaml:"description,omitempty"`
}

// Enum is the metadata of an enum class.
type Enum struct {
	Class       string     `yaml:"-"`
	ShortName   string     `yaml:"short_name,omitempty"`
	Description string     `yaml:"description,omitempty"`
	Cases       []EnumCase `yaml:"cases"`
}

// ResourceCollectionFactory creates the resource metadata of a class.
type ResourceCollectionFactory interface {
	ResourceCollection(class string) (*ResourceCollection, error)
}

// PropertyFactory creates the metadata of a single property.
type PropertyFactory interface {
	Property(class, property string, opts PropertyOptions) (*Property, error)
}

// PropertyNameFactory lists the property names of a class in declaration order.
type PropertyNameFactory interface {
	PropertyNames(class string) ([]string, error)
}

// EnumFactory creates the metadata of an enum class.
type EnumFactory interface {
	Enum(class string) (*Enum, error)
}

// ClassInspector answers questions about classes which are not resources.
type ClassInspector interface {
	IsEnum(class string) bool
	IsDateTime(class string) bool
}

// ShortName returns the last segment of a class name, segments are split on '\', '.' and '/'.
func ShortName(class string) string {
	if i := strings.LastIndexAny(class, `\./`); i >= 0 {
		return class[i+1:]
	}
	return class
}
