package metadata

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testMetadata = `
datetime_classes: [App\Type\Instant]
enums:
  App\Enum\GenderTypeEnum:
    description: The gender of a person.
    cases:
      - {name: MALE, value: male}
      - {name: FEMALE, value: female, description: Female.}
classes:
  App\Entity\Book:
    resources:
      - short_name: Book
        description: A book.
        graphql_operations:
          item_query: {kind: query}
          collection_query: {kind: query_collection}
          create: {kind: mutation, denormalization_groups: ["book:write"]}
    properties:
      - {name: title, type: {builtin: string}, groups: ["book:read", "book:write"]}
      - {name: isbn, type: {builtin: string, nullable: true}, writable: false, groups: ["book:read"]}
      - name: author
        type: {builtin: object, class: App\Entity\Person, nullable: true}
        writable_link: true
        groups: ["book:read", "book:write"]
  App\Entity\Person:
    resources:
      - graphql_operations:
          item_query:
  App\Entity\Hidden:
    resources:
      - short_name: Hidden
`

func loadTestRegistry(t *testing.T) *Registry {
	t.Helper()
	r, err := Load(strings.NewReader(testMetadata))
	require.NoError(t, err)
	return r
}

func TestLoad(t *testing.T) {
	r := loadTestRegistry(t)

	assert.Equal(t, []string{`App\Entity\Book`, `App\Entity\Person`}, r.ResourceClasses())
	assert.True(t, r.IsDateTime(`App\Type\Instant`))
	assert.True(t, r.IsDateTime("time.Time"))
	assert.False(t, r.IsDateTime(`App\Entity\Book`))
	assert.True(t, r.IsEnum(`App\Enum\GenderTypeEnum`))
	assert.False(t, r.IsEnum(`App\Entity\Book`))

	names, err := r.PropertyNames(`App\Entity\Book`)
	require.NoError(t, err)
	assert.Equal(t, []string{"title", "isbn", "author"}, names)

	enum, err := r.Enum(`App\Enum\GenderTypeEnum`)
	require.NoError(t, err)
	want := &Enum{
		Class:       `App\Enum\GenderTypeEnum`,
		ShortName:   "GenderTypeEnum",
		Description: "The gender of a person.",
		Cases: []EnumCase{
			{Name: "MALE", Value: "male"},
			{Name: "FEMALE", Value: "female", Description: "Female."},
		},
	}
	if diff := cmp.Diff(want, enum); diff != "" {
		t.Errorf("enum mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadOperations(t *testing.T) {
	r := loadTestRegistry(t)

	rc, err := r.ResourceCollection(`App\Entity\Book`)
	require.NoError(t, err)
	assert.True(t, rc.HasGraphQL())
	assert.Equal(t, "Book", rc.ShortName())
	assert.Equal(t, "A book.", rc.Description())

	create, err := rc.GraphQLOperation("create")
	require.NoError(t, err)
	want := &Operation{
		Name:                  "create",
		Kind:                  KindMutation,
		Class:                 `App\Entity\Book`,
		ShortName:             "Book",
		DenormalizationGroups: []string{"book:write"},
	}
	if diff := cmp.Diff(want, create); diff != "" {
		t.Errorf("operation mismatch (-want +got):\n%s", diff)
	}

	_, err = rc.GraphQLOperation("delete")
	assert.True(t, errors.Is(err, ErrOperationNotFound))

	first, err := rc.GraphQLOperation("")
	require.NoError(t, err)
	assert.Equal(t, ItemQuery, first.Name)

	person, err := r.ResourceCollection(`App\Entity\Person`)
	require.NoError(t, err)
	item, err := person.GraphQLOperation(ItemQuery)
	require.NoError(t, err)
	assert.True(t, item.IsQuery())
	assert.Equal(t, "Person", item.ShortName)

	hidden, err := r.ResourceCollection(`App\Entity\Hidden`)
	require.NoError(t, err)
	assert.False(t, hidden.HasGraphQL())
}

func TestResourceCollection_GraphQLOperationDefault(t *testing.T) {
	tests := []struct {
		description string
		resources   []*Resource
		want        string
		wantErr     bool
	}{
		{
			description: "item query preferred",
			resources: []*Resource{
				{GraphQLOperations: map[string]*Operation{"create": {}}},
				{GraphQLOperations: map[string]*Operation{"update": {}, ItemQuery: {}}},
			},
			want: ItemQuery,
		},
		{
			description: "first operation by name",
			resources: []*Resource{
				{GraphQLOperations: map[string]*Operation{"update": {}, "create": {}, "delete": {}}},
			},
			want: "create",
		},
		{
			description: "resource without operations is skipped",
			resources: []*Resource{
				{GraphQLOperations: map[string]*Operation{}},
				{GraphQLOperations: map[string]*Operation{"delete": {}}},
			},
			want: "delete",
		},
		{
			description: "no operations",
			resources:   []*Resource{{}},
			wantErr:     true,
		},
	}

	for _, test := range tests {
		t.Run(test.description, func(t *testing.T) {
			op, err := NewResourceCollection("A", test.resources...).GraphQLOperation("")
			if test.wantErr {
				assert.True(t, errors.Is(err, ErrOperationNotFound))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, test.want, op.Name)
		})
	}
}

func TestRegistry_ResourceCollection(t *testing.T) {
	r := loadTestRegistry(t)

	_, err := r.ResourceCollection("Unknown")
	assert.True(t, errors.Is(err, ErrResourceClassNotFound))

	rc, err := r.ResourceCollection(`App\Enum\GenderTypeEnum`)
	require.NoError(t, err)
	assert.Empty(t, rc.Resources)
	assert.False(t, rc.HasGraphQL())
}

func TestRegistry_Property(t *testing.T) {
	r := loadTestRegistry(t)

	tests := []struct {
		description  string
		property     string
		opts         PropertyOptions
		wantReadable bool
		wantWritable bool
	}{
		{
			description:  "no groups requested",
			property:     "title",
			wantReadable: true,
			wantWritable: true,
		},
		{
			description:  "writable false in metadata",
			property:     "isbn",
			wantReadable: true,
			wantWritable: false,
		},
		{
			description:  "matching denormalization group",
			property:     "author",
			opts:         PropertyOptions{DenormalizationGroups: []string{"book:write"}},
			wantReadable: true,
			wantWritable: true,
		},
		{
			description:  "outside denormalization group",
			property:     "isbn",
			opts:         PropertyOptions{DenormalizationGroups: []string{"book:write"}},
			wantReadable: true,
			wantWritable: false,
		},
		{
			description:  "outside normalization group",
			property:     "title",
			opts:         PropertyOptions{NormalizationGroups: []string{"other"}},
			wantReadable: false,
			wantWritable: true,
		},
	}

	for _, test := range tests {
		t.Run(test.description, func(t *testing.T) {
			got, err := r.Property(`App\Entity\Book`, test.property, test.opts)
			require.NoError(t, err)
			assert.Equal(t, test.wantReadable, got.Readable)
			assert.Equal(t, test.wantWritable, got.Writable)
		})
	}

	// group filtering works on a copy
	original, err := r.Property(`App\Entity\Book`, "title", PropertyOptions{})
	require.NoError(t, err)
	assert.True(t, original.Readable)

	author, err := r.Property(`App\Entity\Book`, "author", PropertyOptions{})
	require.NoError(t, err)
	assert.True(t, author.WritableLink)
	assert.Equal(t, NewType(BuiltinObject, true, `App\Entity\Person`), author.Type)

	_, err = r.Property(`App\Entity\Book`, "missing", PropertyOptions{})
	assert.True(t, errors.Is(err, ErrPropertyNotFound))
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		description string
		input       string
		wantErr     string
	}{
		{
			description: "unknown key",
			input:       "resources: {}",
			wantErr:     "field resources not found",
		},
		{
			description: "unknown builtin",
			input:       "classes: {A: {properties: [{name: a, type: {builtin: decimal}}]}}",
			wantErr:     `unknown builtin type "decimal"`,
		},
		{
			description: "missing type",
			input:       "classes: {A: {properties: [{name: a}]}}",
			wantErr:     "missing type",
		},
		{
			description: "unknown collection value builtin",
			input:       "classes: {A: {properties: [{name: a, type: {builtin: array, collection: true, value_types: [{builtin: x}]}}]}}",
			wantErr:     `unknown builtin type "x"`,
		},
		{
			description: "unknown operation kind",
			input:       "classes: {A: {resources: [{graphql_operations: {create: {kind: mutaton}}}]}}",
			wantErr:     `operation "create": unknown operation kind "mutaton"`,
		},
		{
			description: "property without name",
			input:       "classes: {A: {properties: [{type: {builtin: int}}]}}",
			wantErr:     "property without a name",
		},
	}

	for _, test := range tests {
		t.Run(test.description, func(t *testing.T) {
			_, err := Load(strings.NewReader(test.input))
			require.Error(t, err)
			assert.Contains(t, err.Error(), test.wantErr)
		})
	}
}

func TestLoadEmpty(t *testing.T) {
	r, err := Load(strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, r.ResourceClasses())
	assert.True(t, r.IsDateTime("DateTimeInterface"))
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "metadata.yaml")
	require.NoError(t, os.WriteFile(path, []byte(testMetadata), 0o600))

	r, err := LoadFile(path)
	require.NoError(t, err)
	assert.Len(t, r.ResourceClasses(), 2)

	_, err = LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestShortName(t *testing.T) {
	tests := map[string]string{
		`App\Entity\Book`: "Book",
		"time.Time":       "Time",
		"pkg/model/User":  "User",
		"Plain":           "Plain",
		"":                "",
	}
	for class, want := range tests {
		if got := ShortName(class); got != want {
			t.Errorf("ShortName(%q) = %q, want %q", class, got, want)
		}
	}
}

func TestNewCollectionType(t *testing.T) {
	value := NewType(BuiltinObject, false, "dummyValue")
	ct := NewCollectionType(BuiltinArray, false, value)

	assert.True(t, ct.Collection)
	assert.Same(t, value, ct.CollectionValueType())
	assert.Nil(t, NewCollectionType(BuiltinArray, false, nil).CollectionValueType())
	assert.Nil(t, (*Type)(nil).CollectionValueType())
}
