package metadata

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"sync"

	"gopkg.in/yaml.v3"
)

// dateTimeClasses are always treated as date/time classes by a Registry.
var dateTimeClasses = []string{"time.Time", "DateTime", "DateTimeImmutable", "DateTimeInterface"}

// Registry is an in-memory store of resource, property and enum metadata. It implements every factory interface of
// this package and is safe for concurrent use.
type Registry struct {
	mu         sync.RWMutex
	dateTimes  map[string]bool
	enums      map[string]*Enum
	resources  map[string]*ResourceCollection
	properties map[string][]namedProperty
}

type namedProperty struct {
	name     string
	property *Property
}

// NewRegistry creates an empty Registry which only knows the builtin date/time classes.
func NewRegistry() *Registry {
	r := &Registry{
		dateTimes:  make(map[string]bool),
		enums:      make(map[string]*Enum),
		resources:  make(map[string]*ResourceCollection),
		properties: make(map[string][]namedProperty),
	}
	for _, class := range dateTimeClasses {
		r.dateTimes[class] = true
	}
	return r
}

// AddResources declares resources for the class, adding to any already declared.
func (r *Registry) AddResources(class string, resources ...*Resource) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.resources[class]; ok {
		resources = append(existing.Resources, resources...)
	}
	r.resources[class] = NewResourceCollection(class, resources...)
}

// AddProperty declares a property of the class. Declaring the same name twice replaces the earlier property but
// keeps its position.
func (r *Registry) AddProperty(class, name string, property *Property) {
	r.mu.Lock()
	defer r.mu.Unlock()

	props := r.properties[class]
	for i, np := range props {
		if np.name == name {
			props[i].property = property
			return
		}
	}
	r.properties[class] = append(props, namedProperty{name: name, property: property})
}

// AddEnum declares an enum class.
func (r *Registry) AddEnum(enum *Enum) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if enum.ShortName == "" {
		enum.ShortName = ShortName(enum.Class)
	}
	r.enums[enum.Class] = enum
}

// AddDateTimeClass declares a class which represents a date and time.
func (r *Registry) AddDateTimeClass(class string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.dateTimes[class] = true
}

// ResourceClasses returns the classes having resources exposed through GraphQL, sorted.
func (r *Registry) ResourceClasses() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var classes []string
	for class, rc := range r.resources {
		if rc.HasGraphQL() {
			classes = append(classes, class)
		}
	}
	sort.Strings(classes)
	return classes
}

// ResourceCollection implements ResourceCollectionFactory.
// Enum classes without resources yield an empty collection, any other unknown class ErrResourceClassNotFound.
func (r *Registry) ResourceCollection(class string) (*ResourceCollection, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if rc, ok := r.resources[class]; ok {
		return rc, nil
	}
	if _, ok := r.enums[class]; ok {
		return NewResourceCollection(class), nil
	}
	return nil, fmt.Errorf("%w: %q", ErrResourceClassNotFound, class)
}

// Property implements PropertyFactory.
// The returned property is a copy, when groups are requested a property outside of them is neither readable (for
// normalization groups) nor writable (for denormalization groups).
func (r *Registry) Property(class, property string, opts PropertyOptions) (*Property, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, np := range r.properties[class] {
		if np.name != property {
			continue
		}
		p := *np.property
		if len(opts.NormalizationGroups) > 0 && !intersects(p.Groups, opts.NormalizationGroups) {
			p.Readable = false
		}
		if len(opts.DenormalizationGroups) > 0 && !intersects(p.Groups, opts.DenormalizationGroups) {
			p.Writable = false
		}
		return &p, nil
	}
	return nil, fmt.Errorf("%w: %s::%s", ErrPropertyNotFound, class, property)
}

// PropertyNames implements PropertyNameFactory.
func (r *Registry) PropertyNames(class string) ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	props, ok := r.properties[class]
	if !ok {
		if _, ok := r.resources[class]; !ok {
			return nil, fmt.Errorf("%w: %q", ErrResourceClassNotFound, class)
		}
	}
	names := make([]string, len(props))
	for i, np := range props {
		names[i] = np.name
	}
	return names, nil
}

// Enum implements EnumFactory.
func (r *Registry) Enum(class string) (*Enum, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if e, ok := r.enums[class]; ok {
		return e, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrEnumNotFound, class)
}

// IsEnum implements ClassInspector.
func (r *Registry) IsEnum(class string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.enums[class]
	return ok
}

// IsDateTime implements ClassInspector.
func (r *Registry) IsDateTime(class string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.dateTimes[class]
}

// registryFile is the YAML layout read by Load.
type registryFile struct {
	DateTimeClasses []string             `yaml:"datetime_classes"`
	Enums           map[string]*Enum     `yaml:"enums"`
	Classes         map[string]classFile `yaml:"classes"`
}

type classFile struct {
	Resources  []resourceFile `yaml:"resources"`
	Properties []propertyFile `yaml:"properties"`
}

type resourceFile struct {
	ShortName         string                `yaml:"short_name"`
	Description       string                `yaml:"description"`
	GraphQLOperations map[string]*Operation `yaml:"graphql_operations"`
}

// propertyFile differs from Property so that readable and writable default to true when omitted.
type propertyFile struct {
	Name         string   `yaml:"name"`
	Type         *Type    `yaml:"type"`
	Description  string   `yaml:"description"`
	Readable     *bool    `yaml:"readable"`
	Writable     *bool    `yaml:"writable"`
	ReadableLink bool     `yaml:"readable_link"`
	WritableLink bool     `yaml:"writable_link"`
	Required     bool     `yaml:"required"`
	Identifier   bool     `yaml:"identifier"`
	Groups       []string `yaml:"groups"`
	Deprecation  string   `yaml:"deprecation_reason"`
}

// LoadFile reads a Registry from the YAML file at path.
func LoadFile(path string) (*Registry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open metadata file: %w", err)
	}
	defer f.Close()

	r, err := Load(f)
	if err != nil {
		return nil, fmt.Errorf("metadata file %q: %w", path, err)
	}
	return r, nil
}

// Load reads a Registry from YAML. Unknown keys are rejected.
//
// Example:
//
//	datetime_classes: [App\Type\Instant]
//	enums:
//	  App\Enum\Gender:
//	    cases: [{name: MALE, value: male}, {name: FEMALE, value: female}]
//	classes:
//	  App\Entity\Book:
//	    resources:
//	      - short_name: Book
//	        graphql_operations:
//	          item_query: {kind: query}
//	          collection_query: {kind: query_collection}
//	    properties:
//	      - {name: title, type: {builtin: string}}
//	      - {name: author, type: {builtin: object, class: App\Entity\Person, nullable: true}, writable_link: true}
func Load(in io.Reader) (*Registry, error) {
	var file registryFile
	dec := yaml.NewDecoder(in)
	dec.KnownFields(true)
	if err := dec.Decode(&file); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to decode metadata: %w", err)
	}

	r := NewRegistry()
	for _, class := range file.DateTimeClasses {
		r.AddDateTimeClass(class)
	}
	for _, class := range sortedKeys(file.Enums) {
		enum := file.Enums[class]
		if enum == nil {
			enum = &Enum{}
		}
		enum.Class = class
		r.AddEnum(enum)
	}
	for _, class := range sortedKeys(file.Classes) {
		cf := file.Classes[class]
		var resources []*Resource
		for _, rf := range cf.Resources {
			for name, op := range rf.GraphQLOperations {
				if op == nil {
					rf.GraphQLOperations[name] = &Operation{}
					continue
				}
				if err := validateKind(op.Kind); err != nil {
					return nil, fmt.Errorf("class %q operation %q: %w", class, name, err)
				}
			}
			resources = append(resources, &Resource{
				Class:             class,
				ShortName:         rf.ShortName,
				Description:       rf.Description,
				GraphQLOperations: rf.GraphQLOperations,
			})
		}
		if len(resources) > 0 {
			r.AddResources(class, resources...)
		}

		for _, pf := range cf.Properties {
			if pf.Name == "" {
				return nil, fmt.Errorf("class %q: property without a name", class)
			}
			if err := validateType(pf.Type); err != nil {
				return nil, fmt.Errorf("class %q property %q: %w", class, pf.Name, err)
			}
			r.AddProperty(class, pf.Name, &Property{
				Type:         pf.Type,
				Description:  pf.Description,
				Readable:     pf.Readable == nil || *pf.Readable,
				Writable:     pf.Writable == nil || *pf.Writable,
				ReadableLink: pf.ReadableLink,
				WritableLink: pf.WritableLink,
				Required:     pf.Required,
				Identifier:   pf.Identifier,
				Groups:       pf.Groups,
				Deprecation:  pf.Deprecation,
			})
		}
	}

	return r, nil
}

func validateKind(kind OperationKind) error {
	switch kind {
	case "", KindQuery, KindQueryCollection, KindMutation, KindSubscription:
		return nil
	default:
		return fmt.Errorf("unknown operation kind %q", kind)
	}
}

func validateType(t *Type) error {
	if t == nil {
		return errors.New("missing type")
	}
	switch t.Builtin {
	case BuiltinBool, BuiltinInt, BuiltinFloat, BuiltinString, BuiltinArray, BuiltinIterable,
		BuiltinObject, BuiltinCallable, BuiltinNull, BuiltinResource:
	default:
		return fmt.Errorf("unknown builtin type %q", t.Builtin)
	}
	for _, kt := range t.CollectionKeyTypes {
		if err := validateType(kt); err != nil {
			return err
		}
	}
	for _, vt := range t.CollectionValueTypes {
		if err := validateType(vt); err != nil {
			return err
		}
	}
	return nil
}

func intersects(a, b []string) bool {
	for _, x := range a {
		for _, y := range b {
			if x == y {
				return true
			}
		}
	}
	return false
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
