package gql

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/GannettDigital/graphql"
	"github.com/GannettDigital/graphql/language/ast"

	"github.com/GannettDigital/graphql-typeconv/metadata"
)

// relayNodeType is the name reserved by the Relay specification for the Node interface.
const relayNodeType = "Node"

// ErrRelayNodeCollision is returned when a resource exposed through GraphQL is named like the Relay Node interface.
var ErrRelayNodeCollision = errors.New(`A "Node" resource cannot be used with GraphQL because the type is already used by the Relay specification.`)

var graphqlBuiltins = map[metadata.Builtin]graphql.Type{
	metadata.BuiltinBool:   graphql.Boolean,
	metadata.BuiltinInt:    graphql.Int,
	metadata.BuiltinFloat:  graphql.Float,
	metadata.BuiltinString: graphql.String,
}

// IterableType is used for arrays and iterables which are not a collection of a known resource or enum.
// Values pass through unchanged.
var IterableType = graphql.NewScalar(graphql.ScalarConfig{
	Name:         "Iterable",
	Description:  "The `Iterable` scalar type represents an array or a Traversable with any kind of data.",
	Serialize:    func(value interface{}) interface{} { return value },
	ParseValue:   func(value interface{}) interface{} { return value },
	ParseLiteral: func(valueAST ast.Value) interface{} { return valueAST.GetValue() },
})

// TypeBuilder builds the GraphQL types the TypeConverter can not derive from a property type alone.
// ObjectBuilder is the default implementation.
type TypeBuilder interface {
	// IsCollection reports whether the type is a collection of values having a class.
	IsCollection(t *metadata.Type) bool
	// EnumType returns the GraphQL enum of the class of the operation.
	EnumType(op *metadata.Operation) (graphql.Type, error)
	// ResourceObjectType returns the GraphQL object, or input object, of a resource for the operation.
	ResourceObjectType(resources *metadata.ResourceCollection, op *metadata.Operation, property *metadata.Property, ctx ResourceTypeContext) (graphql.Type, error)
}

// ResourceTypeContext describes where a resource object type is used.
type ResourceTypeContext struct {
	Input   bool
	Wrapped bool
	Depth   int
}

// TypeConverter converts property types into GraphQL types.
type TypeConverter struct {
	typeBuilder TypeBuilder
	types       TypesContainer
	resources   metadata.ResourceCollectionFactory
	properties  metadata.PropertyFactory
	classes     metadata.ClassInspector
	logger      *slog.Logger
}

// NewTypeConverter creates a TypeConverter. A nil logger uses slog.Default().
func NewTypeConverter(
	typeBuilder TypeBuilder,
	types TypesContainer,
	resources metadata.ResourceCollectionFactory,
	properties metadata.PropertyFactory,
	classes metadata.ClassInspector,
	logger *slog.Logger,
) *TypeConverter {
	if logger == nil {
		logger = slog.Default()
	}
	return &TypeConverter{
		typeBuilder: typeBuilder,
		types:       types,
		resources:   resources,
		properties:  properties,
		classes:     classes,
		logger:      logger,
	}
}

// ConvertType returns the GraphQL type of a property type.
//
// input is true when the type is used in an input object. rootOperation and rootResource are the operation and class
// being built, property the optional name of the property having the type and depth the nesting level of the
// property within the root resource.
//
// A nil type with a nil error means the property type has no GraphQL representation, this is also the case for
// classes without resource metadata or without GraphQL operations.
func (tc *TypeConverter) ConvertType(t *metadata.Type, input bool, rootOperation *metadata.Operation, resourceClass, rootResource, property string, depth int) (graphql.Type, error) {
	if t == nil {
		return nil, nil
	}
	if gtype, ok := graphqlBuiltins[t.Builtin]; ok {
		return gtype, nil
	}

	switch t.Builtin {
	case metadata.BuiltinArray, metadata.BuiltinIterable:
		gtype, err := tc.resourceType(t, input, rootOperation, resourceClass, rootResource, property, depth)
		if err != nil || gtype != nil {
			return gtype, err
		}
		return IterableType, nil
	case metadata.BuiltinObject:
		if t.Class != "" && tc.classes != nil && tc.classes.IsDateTime(t.Class) {
			return graphql.String, nil
		}
		return tc.resourceType(t, input, rootOperation, resourceClass, rootResource, property, depth)
	default:
		return nil, nil
	}
}

// resourceType returns the type of an enum or resource class, or of the items for a collection of them.
func (tc *TypeConverter) resourceType(t *metadata.Type, input bool, rootOperation *metadata.Operation, resourceClass, rootResource, property string, depth int) (graphql.Type, error) {
	isCollection := tc.typeBuilder.IsCollection(t)
	class := t.Class
	if isCollection {
		if vt := t.CollectionValueType(); vt != nil {
			class = vt.Class
		}
	}
	if class == "" {
		return nil, nil
	}

	resources, err := tc.resources.ResourceCollection(class)
	if errors.Is(err, metadata.ErrResourceClassNotFound) {
		tc.logger.Debug("no resource metadata, property type has no GraphQL representation",
			slog.String("class", class),
			slog.String("resource_class", resourceClass),
			slog.String("property", property),
		)
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create resource metadata of %q: %w", class, err)
	}

	if tc.classes != nil && tc.classes.IsEnum(class) {
		op, err := resources.GraphQLOperation("")
		if err != nil {
			op = &metadata.Operation{Kind: metadata.KindQuery, Class: class, ShortName: metadata.ShortName(class)}
		}
		return tc.typeBuilder.EnumType(op)
	}

	if !resources.HasGraphQL() {
		tc.logger.Debug("resource has no GraphQL operations",
			slog.String("class", class),
			slog.String("property", property),
		)
		return nil, nil
	}
	for _, r := range resources.Resources {
		if r.GraphQLOperations != nil && r.ShortName == relayNodeType {
			return nil, ErrRelayNodeCollision
		}
	}

	var propertyMetadata *metadata.Property
	if input && property != "" {
		var opts metadata.PropertyOptions
		if rootOperation != nil {
			opts.NormalizationGroups = rootOperation.NormalizationGroups
			opts.DenormalizationGroups = rootOperation.DenormalizationGroups
		}
		propertyMetadata, err = tc.properties.Property(rootResource, property, opts)
		if err != nil {
			return nil, fmt.Errorf("failed to create property metadata of %s::%s: %w", rootResource, property, err)
		}
	}

	// A nested resource which is not a writable link is referenced by its IRI.
	if input && depth > 0 && (propertyMetadata == nil || !propertyMetadata.WritableLink) {
		return graphql.String, nil
	}

	defaultOperation := metadata.ItemQuery
	if isCollection {
		defaultOperation = metadata.CollectionQuery
	}

	var operationName string
	if rootOperation != nil {
		operationName = rootOperation.Name
	}
	// The property is a relation of the root resource, the related resource is queried with its own operations.
	if class != rootResource && property != "" && rootOperation.IsQuery() {
		operationName = defaultOperation
	}

	op, err := resources.GraphQLOperation(operationName)
	if errors.Is(err, metadata.ErrOperationNotFound) {
		op, err = resources.GraphQLOperation(defaultOperation)
	}
	if err != nil {
		return nil, fmt.Errorf("resource %q has no GraphQL operation %q: %w", class, defaultOperation, err)
	}

	return tc.typeBuilder.ResourceObjectType(resources, op, propertyMetadata, ResourceTypeContext{
		Input:   input,
		Wrapped: false,
		Depth:   depth,
	})
}

// Types returns the container used to resolve custom type names.
func (tc *TypeConverter) Types() TypesContainer {
	return tc.types
}
