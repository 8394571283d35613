package gql

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/GannettDigital/graphql"
)

// PrintTypes writes the GraphQL schema definition language of the named types to w.
// Scalars, enums, objects and input objects are printed, wrapping types are ignored. Fields and enum values are
// sorted by name. An error is returned if a type failed to define its fields.
func PrintTypes(w io.Writer, types []graphql.Type) error {
	var b strings.Builder
	for i, gtype := range types {
		if i > 0 {
			b.WriteString("\n")
		}
		if err := printType(&b, gtype); err != nil {
			return err
		}
	}
	_, err := io.WriteString(w, b.String())
	return err
}

func printType(b *strings.Builder, gtype graphql.Type) error {
	switch gtype := gtype.(type) {
	case *graphql.Scalar:
		printDescription(b, "", gtype.Description())
		fmt.Fprintf(b, "scalar %s\n", gtype.Name())
	case *graphql.Enum:
		values := gtype.Values()
		names := make([]string, len(values))
		deprecations := make(map[string]string)
		for i, v := range values {
			names[i] = v.Name
			deprecations[v.Name] = v.DeprecationReason
		}
		sort.Strings(names)

		printDescription(b, "", gtype.Description())
		fmt.Fprintf(b, "enum %s {\n", gtype.Name())
		for _, name := range names {
			fmt.Fprintf(b, "  %s%s\n", name, deprecated(deprecations[name]))
		}
		b.WriteString("}\n")
	case *graphql.Object:
		fields := gtype.Fields()
		if err := gtype.Error(); err != nil {
			return fmt.Errorf("type %q: %w", gtype.Name(), err)
		}
		names := make([]string, 0, len(fields))
		for name := range fields {
			names = append(names, name)
		}
		sort.Strings(names)

		printDescription(b, "", gtype.Description())
		fmt.Fprintf(b, "type %s {\n", gtype.Name())
		for _, name := range names {
			f := fields[name]
			printDescription(b, "  ", f.Description)
			fmt.Fprintf(b, "  %s: %s%s\n", name, f.Type.String(), deprecated(f.DeprecationReason))
		}
		b.WriteString("}\n")
	case *graphql.InputObject:
		fields := gtype.Fields()
		if err := gtype.Error(); err != nil {
			return fmt.Errorf("type %q: %w", gtype.Name(), err)
		}
		names := make([]string, 0, len(fields))
		for name := range fields {
			names = append(names, name)
		}
		sort.Strings(names)

		printDescription(b, "", gtype.Description())
		fmt.Fprintf(b, "input %s {\n", gtype.Name())
		for _, name := range names {
			fmt.Fprintf(b, "  %s: %s\n", name, fields[name].Type.String())
		}
		b.WriteString("}\n")
	}
	return nil
}

func printDescription(b *strings.Builder, indent, description string) {
	if description == "" {
		return
	}
	fmt.Fprintf(b, "%s%s\n", indent, quote(description))
}

func deprecated(reason string) string {
	if reason == "" {
		return ""
	}
	return fmt.Sprintf(" @deprecated(reason: %s)", quote(reason))
}

// quote returns s as a GraphQL string literal. Control characters without a short escape are written as \uXXXX.
// http://facebook.github.io/graphql/October2016/#sec-String-Value
func quote(s string) string {
	var b strings.Builder
	b.WriteByte('"')
	for _, r := range s {
		switch r {
		case '"':
			b.WriteString(`\"`)
		case '\\':
			b.WriteString(`\\`)
		case '\b':
			b.WriteString(`\b`)
		case '\f':
			b.WriteString(`\f`)
		case '\n':
			b.WriteString(`\n`)
		case '\r':
			b.WriteString(`\r`)
		case '\t':
			b.WriteString(`\t`)
		default:
			if r < 0x20 {
				fmt.Fprintf(&b, `\u%04X`, r)
				continue
			}
			b.WriteRune(r)
		}
	}
	b.WriteByte('"')
	return b.String()
}
