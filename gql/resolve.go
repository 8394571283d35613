package gql

import (
	"errors"
	"fmt"

	"github.com/GannettDigital/graphql"
	"github.com/GannettDigital/graphql/gqlerrors"
	"github.com/GannettDigital/graphql/language/lexer"
	"github.com/GannettDigital/graphql/language/source"
)

// InvalidTypeError is returned by ResolveType for a string which is not a GraphQL type reference.
type InvalidTypeError struct {
	Type   string
	Offset int
	Reason string
}

func (e *InvalidTypeError) Error() string {
	return fmt.Sprintf(`"%s" is not a valid GraphQL type.`, e.Type)
}

// UnresolvedTypeError is returned by ResolveType when a named type is neither builtin nor in the TypesContainer.
type UnresolvedTypeError struct {
	Type string
}

func (e *UnresolvedTypeError) Error() string {
	return fmt.Sprintf(`The type "%s" was not resolved.`, e.Type)
}

// ResolveType returns the GraphQL type referenced by a string such as "String", "[Int!]!" or "[DateTime]".
// Builtin scalars are used for String, Int, Float, Boolean and ID, any other name is looked up in the TypesContainer.
func (tc *TypeConverter) ResolveType(typeName string) (graphql.Type, error) {
	ref, err := parseTypeRef(typeName)
	if err != nil {
		return nil, err
	}

	if gtype := tc.resolveTypeRef(ref); gtype != nil {
		return gtype, nil
	}
	return nil, &UnresolvedTypeError{Type: typeName}
}

func (tc *TypeConverter) resolveTypeRef(ref *typeRef) graphql.Type {
	var gtype graphql.Type
	if ref.ofType != nil {
		elem := tc.resolveTypeRef(ref.ofType)
		if elem == nil {
			return nil
		}
		gtype = graphql.NewList(elem)
	} else {
		gtype = tc.resolveNamedType(ref.name)
		if gtype == nil {
			return nil
		}
	}

	if ref.nonNull {
		return graphql.NewNonNull(gtype)
	}
	return gtype
}

func (tc *TypeConverter) resolveNamedType(name string) graphql.Type {
	switch name {
	case "String":
		return graphql.String
	case "Int":
		return graphql.Int
	case "Float":
		return graphql.Float
	case "Boolean":
		return graphql.Boolean
	case "ID":
		return graphql.ID
	}

	if tc.types == nil || !tc.types.Has(name) {
		return nil
	}
	gtype, err := tc.types.Get(name)
	if err != nil {
		return nil
	}
	return gtype
}

// typeRef is a parsed type reference, either a named type or a list of ofType.
type typeRef struct {
	name    string
	ofType  *typeRef
	nonNull bool
}

// typeParser is a recursive descent parser for the type reference grammar:
//
//	Type: NamedType | ListType | NonNullType
//	NamedType: Name
//	ListType: [ Type ]
//	NonNullType: NamedType ! | ListType !
//
// Tokens come from the GraphQL lexer so white space, commas and comments are ignored as in any GraphQL document.
type typeParser struct {
	input string
	lex   lexer.Lexer
	token lexer.Token
}

func parseTypeRef(input string) (*typeRef, error) {
	p := &typeParser{
		input: input,
		lex:   lexer.Lex(source.NewSource(&source.Source{Body: []byte(input)})),
	}
	if err := p.advance(); err != nil {
		return nil, err
	}

	ref, err := p.parseType()
	if err != nil {
		return nil, err
	}
	if p.token.Kind != lexer.EOF {
		return nil, p.unexpected()
	}
	return ref, nil
}

func (p *typeParser) parseType() (*typeRef, error) {
	var ref *typeRef
	switch p.token.Kind {
	case lexer.BRACKET_L:
		if err := p.advance(); err != nil {
			return nil, err
		}
		ofType, err := p.parseType()
		if err != nil {
			return nil, err
		}
		if p.token.Kind != lexer.BRACKET_R {
			return nil, p.unexpected()
		}
		ref = &typeRef{ofType: ofType}
	case lexer.NAME:
		ref = &typeRef{name: p.token.Value}
	default:
		return nil, p.unexpected()
	}
	if err := p.advance(); err != nil {
		return nil, err
	}

	if p.token.Kind == lexer.BANG {
		ref.nonNull = true
		if err := p.advance(); err != nil {
			return nil, err
		}
	}
	return ref, nil
}

// advance reads the next token. Lexer syntax errors are reported at the position the lexer gives.
func (p *typeParser) advance() error {
	token, err := p.lex(0)
	if err != nil {
		offset := p.token.End
		var syntaxErr *gqlerrors.Error
		if errors.As(err, &syntaxErr) && len(syntaxErr.Positions) > 0 {
			offset = syntaxErr.Positions[0]
		}
		return &InvalidTypeError{Type: p.input, Offset: offset, Reason: err.Error()}
	}
	p.token = token
	return nil
}

func (p *typeParser) unexpected() error {
	reason := "unexpected end of type"
	if p.token.Kind != lexer.EOF {
		reason = fmt.Sprintf("unexpected %q", p.token.Value)
		if p.token.Value == "" && p.token.Start < p.token.End && p.token.End <= len(p.input) {
			reason = fmt.Sprintf("unexpected %q", p.input[p.token.Start:p.token.End])
		}
	}
	return &InvalidTypeError{Type: p.input, Offset: p.token.Start, Reason: reason}
}
