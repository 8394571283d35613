// Package gql provides tooling for converting API resource metadata into GraphQL types.
// Most notably it includes TypeConverter which maps the type of a resource property to a GraphQL type and resolves
// type references such as "[Int!]!", and ObjectBuilder which builds the GraphQL objects, input objects and enums of
// the resources described by the metadata package.
//
// The tooling in this package builds types for the GraphQL server implementation from
// github.com/GannettDigital/graphql.
package gql

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/GannettDigital/graphql"

	"github.com/GannettDigital/graphql-typeconv/metadata"
)

const (
	createOperation   = "create"
	deprecationPrefix = "DEPRECATED:"
	idFieldName       = "id"
	// identifierFieldName is used for a property named like the id field which is always the IRI of the resource.
	identifierFieldName = "_id"
)

var namePattern = regexp.MustCompile(`^[_A-Za-z][_0-9A-Za-z]*$`)

// Metadata combines every metadata source needed by an ObjectBuilder, metadata.Registry implements it.
type Metadata interface {
	metadata.ResourceCollectionFactory
	metadata.PropertyFactory
	metadata.PropertyNameFactory
	metadata.EnumFactory
	metadata.ClassInspector

	// ResourceClasses returns the classes having resources exposed through GraphQL.
	ResourceClasses() []string
}

// ObjectBuilder is used to build GraphQL types based on resource metadata. It is the TypeBuilder of the TypeConverter
// it creates, every type built is registered in the TypesContainer of that converter so the types can be referenced
// by name with TypeConverter.ResolveType.
//
// Resources are built as a graphql.Object for output and as a graphql.InputObject for input. The name of the type is
// the short name of the resource, prefixed with the capitalized operation name for mutations and subscriptions.
// Input types are suffixed with "Input", or "NestedInput" when they are used for a nested writable link. Wrapped
// output types are suffixed with "Payload" and hold the resource object in a single field named after the resource.
//
// Fields are built lazily from the properties of the resource class using the serialization groups of the
// operation. Output objects only contain readable properties plus an "id" field, input objects only contain writable
// properties plus a required "id" field for mutations other than "create". Each property type is converted with the TypeConverter one level deeper than the type being built.
// Collections of resources or enums become lists. Non-nullable scalar and enum output fields, and required
// non-nullable input fields, are NonNull. Since types are registered before their fields are built, resources
// referencing each other are handled.
//
// Property descriptions become field descriptions. If a property has a deprecation reason, or a description which
// begins with "DEPRECATED:", it is set as the DeprecationReason of output fields.
type ObjectBuilder struct {
	converter *TypeConverter
	metadata  Metadata
	types     TypesContainer
	prefix    string
	logger    *slog.Logger
}

// NewObjectBuilder creates an ObjectBuilder for the given metadata along with the TypeConverter using it.
//
// namePrefix is an optional string to prefix the name of each generated type with, it must be a valid GraphQL name.
// A nil logger uses slog.Default().
func NewObjectBuilder(md Metadata, namePrefix string, logger *slog.Logger) (*ObjectBuilder, error) {
	if namePrefix != "" && !namePattern.MatchString(namePrefix) {
		return nil, fmt.Errorf("namePrefix %q is not a valid GraphQL name", namePrefix)
	}
	if logger == nil {
		logger = slog.Default()
	}

	ob := &ObjectBuilder{
		metadata: md,
		types:    NewTypeRegistry(IterableType),
		prefix:   namePrefix,
		logger:   logger,
	}
	ob.converter = NewTypeConverter(ob, ob.types, md, md, md, logger)
	return ob, nil
}

// TypeConverter returns the TypeConverter using this builder.
func (ob *ObjectBuilder) TypeConverter() *TypeConverter {
	return ob.converter
}

// Metadata returns the metadata types are built from.
func (ob *ObjectBuilder) Metadata() Metadata {
	return ob.metadata
}

// Types returns the container holding every type built.
func (ob *ObjectBuilder) Types() TypesContainer {
	return ob.types
}

// BuildTypes creates the GraphQL types of every resource exposed through GraphQL. For queries the output object is
// built, for mutations and subscriptions the input object and the wrapped payload object.
// The output of this method is suitable for directly including in graphql.SchemaConfig.
func (ob *ObjectBuilder) BuildTypes() ([]graphql.Type, error) {
	for _, class := range ob.metadata.ResourceClasses() {
		resources, err := ob.metadata.ResourceCollection(class)
		if err != nil {
			return nil, fmt.Errorf("failed to create resource metadata of %q: %w", class, err)
		}
		resourceType := metadata.NewType(metadata.BuiltinObject, false, class)

		for _, r := range resources.Resources {
			for _, name := range sortedOperationNames(r.GraphQLOperations) {
				op := r.GraphQLOperations[name]

				if _, err := ob.converter.ConvertType(resourceType, false, op, class, class, "", 0); err != nil {
					return nil, fmt.Errorf("failed to build type of %q for operation %q: %w", class, name, err)
				}
				if op.IsQuery() {
					continue
				}
				if _, err := ob.converter.ConvertType(resourceType, true, op, class, class, "", 0); err != nil {
					return nil, fmt.Errorf("failed to build input type of %q for operation %q: %w", class, name, err)
				}
				if _, err := ob.ResourceObjectType(resources, op, nil, ResourceTypeContext{Wrapped: true}); err != nil {
					return nil, fmt.Errorf("failed to build payload type of %q for operation %q: %w", class, name, err)
				}
			}
		}
	}

	// Fields are built lazily and may register more types, build them until no new type appears.
	for seen := -1; ; {
		gtypes := ob.types.All()
		if len(gtypes) == seen {
			return gtypes, nil
		}
		seen = len(gtypes)
		for _, gtype := range gtypes {
			switch gtype := gtype.(type) {
			case *graphql.Object:
				gtype.Fields()
			case *graphql.InputObject:
				gtype.Fields()
			}
			if err := gtype.Error(); err != nil {
				return nil, fmt.Errorf("invalid type %q: %w", gtype.Name(), err)
			}
		}
	}
}

// IsCollection is true for collection types whose values have a class.
func (ob *ObjectBuilder) IsCollection(t *metadata.Type) bool {
	if t == nil || !t.Collection {
		return false
	}
	vt := t.CollectionValueType()
	return vt != nil && vt.Class != ""
}

// EnumType returns the GraphQL enum for the class of the operation, building it on first use.
func (ob *ObjectBuilder) EnumType(op *metadata.Operation) (graphql.Type, error) {
	shortName := op.ShortName
	if shortName == "" {
		shortName = metadata.ShortName(op.Class)
	}
	name := ob.prefix + shortName
	if ob.types.Has(name) {
		return ob.types.Get(name)
	}

	enum, err := ob.metadata.Enum(op.Class)
	if err != nil {
		return nil, fmt.Errorf("failed to create enum metadata of %q: %w", op.Class, err)
	}

	values := graphql.EnumValueConfigMap{}
	for _, c := range enum.Cases {
		value := c.Value
		if value == "" {
			value = c.Name
		}
		values[c.Name] = &graphql.EnumValueConfig{
			Value:       value,
			Description: c.Description,
		}
	}
	description := op.Description
	if description == "" {
		description = enum.Description
	}

	gtype := graphql.NewEnum(graphql.EnumConfig{
		Name:        name,
		Values:      values,
		Description: description,
	})
	ob.types.Set(name, gtype)
	return gtype, nil
}

// ResourceObjectType returns the GraphQL object or input object of a resource for the operation, building it on first
// use. The property is the metadata of the property of the root resource referencing this resource, if any.
func (ob *ObjectBuilder) ResourceObjectType(resources *metadata.ResourceCollection, op *metadata.Operation, property *metadata.Property, ctx ResourceTypeContext) (graphql.Type, error) {
	shortName := op.ShortName
	if shortName == "" {
		shortName = resources.ShortName()
	}
	name := ob.typeName(shortName, op, ctx)
	if ob.types.Has(name) {
		return ob.types.Get(name)
	}

	description := op.Description
	if description == "" {
		description = resources.Description()
	}
	if description == "" && property != nil {
		description = property.Description
	}

	if ctx.Input {
		gtype := graphql.NewInputObject(graphql.InputObjectConfig{
			Name:        name,
			Description: description,
			Fields: graphql.InputObjectConfigFieldMapThunk(func() graphql.InputObjectConfigFieldMap {
				return ob.buildInputFields(resources.Class, op, ctx.Depth)
			}),
		})
		ob.types.Set(name, gtype)
		return gtype, nil
	}

	if ctx.Wrapped {
		item, err := ob.ResourceObjectType(resources, op, property, ResourceTypeContext{Depth: ctx.Depth})
		if err != nil {
			return nil, err
		}
		itemOutput, ok := item.(graphql.Output)
		if !ok {
			return nil, fmt.Errorf("type %q can not be used as output", item.Name())
		}
		fieldName := lcfirst(shortName)
		gtype := graphql.NewObject(graphql.ObjectConfig{
			Name:        name,
			Description: description,
			Fields: graphql.Fields{
				fieldName: &graphql.Field{Name: fieldName, Type: itemOutput},
			},
		})
		ob.types.Set(name, gtype)
		return gtype, nil
	}

	gtype := graphql.NewObject(graphql.ObjectConfig{
		Name:        name,
		Description: description,
		Fields: graphql.FieldsThunk(func() graphql.Fields {
			return ob.buildFields(resources.Class, op, ctx.Depth)
		}),
	})
	ob.types.Set(name, gtype)
	return gtype, nil
}

// typeName derives the name of a resource type from the operation and the context it is used in.
func (ob *ObjectBuilder) typeName(shortName string, op *metadata.Operation, ctx ResourceTypeContext) string {
	name := shortName
	if op.Kind == metadata.KindMutation || op.Kind == metadata.KindSubscription {
		name = ucfirst(op.Name) + name
	}
	switch {
	case ctx.Input && ctx.Depth > 0:
		name += "NestedInput"
	case ctx.Input:
		name += "Input"
	case ctx.Wrapped:
		name += "Payload"
	}
	return ob.prefix + name
}

// buildFields creates the GraphQL fields of the readable properties of a class.
// Properties which can not be converted are logged and skipped as fields are built lazily and can not fail.
func (ob *ObjectBuilder) buildFields(class string, op *metadata.Operation, depth int) graphql.Fields {
	gfields := graphql.Fields{
		idFieldName: &graphql.Field{Name: idFieldName, Type: graphql.NewNonNull(graphql.ID)},
	}

	names, err := ob.metadata.PropertyNames(class)
	if err != nil {
		ob.logger.Warn("failed to list properties", slog.String("class", class), slog.String("error", err.Error()))
		return gfields
	}

	opts := metadata.PropertyOptions{
		NormalizationGroups:   op.NormalizationGroups,
		DenormalizationGroups: op.DenormalizationGroups,
	}
	for _, property := range names {
		prop, err := ob.metadata.Property(class, property, opts)
		if err != nil {
			ob.logSkipped(class, property, err)
			continue
		}
		if !prop.Readable {
			continue
		}

		gtype, err := ob.fieldGraphQLType(prop, false, op, class, property, depth)
		if err != nil {
			ob.logSkipped(class, property, err)
			continue
		}
		output, ok := gtype.(graphql.Output)
		if !ok {
			continue
		}

		name := fieldName(property)
		if name == idFieldName {
			name = identifierFieldName
		}
		f := &graphql.Field{
			Name: name,
			Type: output,
		}
		switch {
		case prop.Deprecation != "":
			f.Description = prop.Description
			f.DeprecationReason = prop.Deprecation
		case strings.HasPrefix(prop.Description, deprecationPrefix):
			f.DeprecationReason = prop.Description
		default:
			f.Description = prop.Description
		}

		gfields[name] = f
	}

	return gfields
}

// buildInputFields creates the GraphQL input fields of the writable properties of a class.
// Nested input objects have an optional id field referencing an existing resource.
func (ob *ObjectBuilder) buildInputFields(class string, op *metadata.Operation, depth int) graphql.InputObjectConfigFieldMap {
	fields := graphql.InputObjectConfigFieldMap{}
	switch {
	case depth > 0:
		fields[idFieldName] = &graphql.InputObjectFieldConfig{Type: graphql.ID}
	case op.Name != createOperation:
		// Mutations other than create act on an existing resource.
		fields[idFieldName] = &graphql.InputObjectFieldConfig{Type: graphql.NewNonNull(graphql.ID)}
	}

	names, err := ob.metadata.PropertyNames(class)
	if err != nil {
		ob.logger.Warn("failed to list properties", slog.String("class", class), slog.String("error", err.Error()))
		return fields
	}

	opts := metadata.PropertyOptions{
		NormalizationGroups:   op.NormalizationGroups,
		DenormalizationGroups: op.DenormalizationGroups,
	}
	for _, property := range names {
		prop, err := ob.metadata.Property(class, property, opts)
		if err != nil {
			ob.logSkipped(class, property, err)
			continue
		}
		if !prop.Writable || prop.Identifier {
			continue
		}

		gtype, err := ob.fieldGraphQLType(prop, true, op, class, property, depth)
		if err != nil {
			ob.logSkipped(class, property, err)
			continue
		}
		input, ok := gtype.(graphql.Input)
		if !ok {
			continue
		}

		name := fieldName(property)
		if name == idFieldName {
			name = identifierFieldName
		}
		fields[name] = &graphql.InputObjectFieldConfig{
			Type:        input,
			Description: prop.Description,
		}
	}

	return fields
}

// fieldGraphQLType returns the graphql.Type of a property of the class, nil if the property type has no GraphQL
// representation. Collections of resources and enums are wrapped in a List. Output fields are NonNull when the type
// is not nullable and is not an object, input fields when the type is not nullable and the property is required.
func (ob *ObjectBuilder) fieldGraphQLType(prop *metadata.Property, input bool, op *metadata.Operation, class, property string, depth int) (graphql.Type, error) {
	gtype, err := ob.converter.ConvertType(prop.Type, input, op, class, class, property, depth+1)
	if err != nil {
		return nil, err
	}
	if gtype == nil {
		return nil, nil
	}

	if ob.IsCollection(prop.Type) && gtype != IterableType {
		gtype = graphql.NewList(gtype)
	}

	if prop.Type.Nullable {
		return gtype, nil
	}
	if input && prop.Required {
		return graphql.NewNonNull(gtype), nil
	}
	if _, isObject := resolveGraphQLObject(gtype); !input && !isObject {
		return graphql.NewNonNull(gtype), nil
	}
	return gtype, nil
}

func (ob *ObjectBuilder) logSkipped(class, property string, err error) {
	level := slog.LevelWarn
	if errors.Is(err, metadata.ErrPropertyNotFound) {
		level = slog.LevelDebug
	}
	ob.logger.Log(context.Background(), level, "skipping field",
		slog.String("class", class),
		slog.String("property", property),
		slog.String("error", err.Error()),
	)
}

// resolveGraphQLObject attempts to return an underlying graphql.Object found in the graphql.Type.
// It continues digging deeper past graphql.NonNull and graphql.List wrappers.
func resolveGraphQLObject(gtype interface{}) (*graphql.Object, bool) {
	switch gtype := gtype.(type) {
	case *graphql.Object:
		return gtype, true
	case *graphql.NonNull:
		return resolveGraphQLObject(gtype.OfType)
	case *graphql.List:
		return resolveGraphQLObject(gtype.OfType)
	default:
		return nil, false
	}
}
