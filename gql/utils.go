package gql

import (
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/GannettDigital/graphql-typeconv/metadata"
)

// fieldName returns the GraphQL field name of a property.
// Characters not allowed in GraphQL names are replaced by '_' and a leading digit is prefixed with '_'.
// http://facebook.github.io/graphql/October2016/#sec-Names
func fieldName(property string) string {
	name := strings.Map(func(r rune) rune {
		if r == '_' || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			return r
		}
		return '_'
	}, property)
	if name != "" && name[0] >= '0' && name[0] <= '9' {
		name = "_" + name
	}
	return name
}

// ucfirst upper cases the first letter of s.
func ucfirst(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}

// lcfirst lower cases the first letter of s.
func lcfirst(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToLower(r)) + s[size:]
}

// sortedOperationNames returns the names of the operations sorted so types are always built in the same order.
func sortedOperationNames(ops map[string]*metadata.Operation) []string {
	names := make([]string, 0, len(ops))
	for name := range ops {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
