package gql

import (
	"github.com/GannettDigital/graphql"
	"github.com/stretchr/testify/mock"

	"github.com/GannettDigital/graphql-typeconv/metadata"
)

type mockTypeBuilder struct {
	mock.Mock
}

func (m *mockTypeBuilder) IsCollection(t *metadata.Type) bool {
	return m.Called(t).Bool(0)
}

func (m *mockTypeBuilder) EnumType(op *metadata.Operation) (graphql.Type, error) {
	args := m.Called(op)
	gtype, _ := args.Get(0).(graphql.Type)
	return gtype, args.Error(1)
}

func (m *mockTypeBuilder) ResourceObjectType(resources *metadata.ResourceCollection, op *metadata.Operation, property *metadata.Property, ctx ResourceTypeContext) (graphql.Type, error) {
	args := m.Called(resources, op, property, ctx)
	gtype, _ := args.Get(0).(graphql.Type)
	return gtype, args.Error(1)
}

type mockResourceCollectionFactory struct {
	mock.Mock
}

func (m *mockResourceCollectionFactory) ResourceCollection(class string) (*metadata.ResourceCollection, error) {
	args := m.Called(class)
	rc, _ := args.Get(0).(*metadata.ResourceCollection)
	return rc, args.Error(1)
}

type mockPropertyFactory struct {
	mock.Mock
}

func (m *mockPropertyFactory) Property(class, property string, opts metadata.PropertyOptions) (*metadata.Property, error) {
	args := m.Called(class, property, opts)
	p, _ := args.Get(0).(*metadata.Property)
	return p, args.Error(1)
}

// fakeClasses is a metadata.ClassInspector backed by sets of class names.
type fakeClasses struct {
	enums     map[string]bool
	dateTimes map[string]bool
}

func (f fakeClasses) IsEnum(class string) bool {
	return f.enums[class]
}

func (f fakeClasses) IsDateTime(class string) bool {
	return f.dateTimes[class]
}
