package parser

import (
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
)

// TokenKind classifies a lexical token at a language-neutral level.
type TokenKind int

const (
	TokenOther TokenKind = iota
	TokenIdentifier
	TokenStringLit
	TokenNumberLit
	TokenComment
)

// Token is one lexical token from a unit's source, classified by the
// grammar's leaf node type rather than by language-specific rules.
type Token struct {
	Text string
	Kind TokenKind
}

// TokenStream collects the lexical tokens of a subtree in source order.
// Comments are included with TokenComment so callers decide whether to
// drop them.
func TokenStream(node *sitter.Node, source []byte) []Token {
	var tokens []Token

	Walk(node, source, func(n *sitter.Node, src []byte) bool {
		nodeType := n.Type()

		// String literals keep escape/interpolation children in some
		// grammars; treat the whole literal as one token.
		if isStringNode(nodeType) {
			tokens = append(tokens, Token{Text: GetNodeText(n, src), Kind: TokenStringLit})
			return false
		}

		if n.ChildCount() > 0 {
			return true
		}

		text := GetNodeText(n, src)
		if text == "" {
			return true
		}

		tokens = append(tokens, Token{Text: text, Kind: classifyLeaf(nodeType)})
		return true
	})

	return tokens
}

// isStringNode matches string-literal node types across grammars.
func isStringNode(nodeType string) bool {
	switch nodeType {
	case "interpreted_string_literal", "raw_string_literal", "string_literal",
		"string", "template_string", "char_literal", "rune_literal":
		return true
	}
	return false
}

// classifyLeaf maps a leaf node type to a token kind.
func classifyLeaf(nodeType string) TokenKind {
	switch nodeType {
	case "identifier", "field_identifier", "type_identifier", "property_identifier",
		"shorthand_property_identifier", "package_identifier", "constant", "simple_identifier":
		return TokenIdentifier
	case "int_literal", "float_literal", "integer", "float", "number",
		"decimal_integer_literal", "decimal_floating_point_literal", "hex_integer_literal",
		"imaginary_literal":
		return TokenNumberLit
	case "comment", "line_comment", "block_comment", "documentation_comment":
		return TokenComment
	}
	if strings.Contains(nodeType, "comment") {
		return TokenComment
	}
	if strings.Contains(nodeType, "string") {
		return TokenStringLit
	}
	return TokenOther
}
