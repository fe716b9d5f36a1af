package parser

import (
	sitter "github.com/smacker/go-tree-sitter"
)

// UnitKind categorizes a structural unit.
type UnitKind string

const (
	UnitFunction  UnitKind = "function"
	UnitMethod    UnitKind = "method"
	UnitComponent UnitKind = "component"
)

// Unit is one structural comparison unit: a function, method, or UI
// component definition, together with the structural cues downstream
// classification needs. The raw AST node is retained so callers can walk
// the unit's token stream without re-locating it.
type Unit struct {
	Kind       UnitKind
	Name       string
	StartLine  int
	EndLine    int
	Decorators []string
	ParamCount int
	HasReturn  bool
	Node       *sitter.Node
}

// GetUnits extracts all structural units from a parsed file.
func GetUnits(result *ParseResult) []Unit {
	var units []Unit
	root := result.Tree.RootNode()
	unitTypes := unitNodeTypes(result.Language)
	if len(unitTypes) == 0 {
		return nil
	}

	Walk(root, result.Source, func(node *sitter.Node, source []byte) bool {
		nodeType := node.Type()
		for _, ut := range unitTypes {
			if nodeType == ut {
				if u := extractUnit(node, source, result.Language); u != nil {
					units = append(units, *u)
				}
				// Nested functions (closures, inner defs) are part of their
				// enclosing unit's token stream, not units of their own.
				return false
			}
		}
		return true
	})

	return units
}

// unitNodeTypes returns the AST node types treated as units per language.
func unitNodeTypes(lang Language) []string {
	switch lang {
	case LangGo:
		return []string{"function_declaration", "method_declaration"}
	case LangRust:
		return []string{"function_item"}
	case LangPython:
		return []string{"function_definition"}
	case LangTypeScript, LangJavaScript, LangTSX:
		return []string{"function_declaration", "method_definition", "arrow_function", "function"}
	case LangJava:
		return []string{"method_declaration", "constructor_declaration"}
	case LangRuby:
		return []string{"method", "singleton_method"}
	default:
		return nil
	}
}

// extractUnit builds a Unit from an AST node, or nil for nodes that are
// not meaningful comparison units (e.g. anonymous inline callbacks).
func extractUnit(node *sitter.Node, source []byte, lang Language) *Unit {
	u := &Unit{
		Kind:      UnitFunction,
		StartLine: int(node.StartPoint().Row) + 1,
		EndLine:   int(node.EndPoint().Row) + 1,
		Node:      node,
	}

	switch node.Type() {
	case "method_declaration", "method_definition", "method", "singleton_method", "constructor_declaration":
		u.Kind = UnitMethod
	}

	u.Name = unitName(node, source, lang)
	if u.Name == "" {
		// Anonymous short closures generate noise; named units only.
		return nil
	}

	if params := node.ChildByFieldName("parameters"); params != nil {
		u.ParamCount = int(params.NamedChildCount())
	}
	u.HasReturn = hasReturnType(node)
	u.Decorators = unitDecorators(node, source, lang)

	// Python methods are function_definitions nested inside a class body.
	if lang == LangPython && insideClass(node) {
		u.Kind = UnitMethod
	}

	// JSX-producing functions in TSX/JSX files are components.
	if (lang == LangTSX || lang == LangJavaScript) && producesJSX(node) {
		u.Kind = UnitComponent
	}

	return u
}

// unitName resolves the declared name of a unit. Arrow functions take the
// name of the variable they are assigned to.
func unitName(node *sitter.Node, source []byte, lang Language) string {
	if nameNode := node.ChildByFieldName("name"); nameNode != nil {
		return GetNodeText(nameNode, source)
	}

	if node.Type() == "arrow_function" || node.Type() == "function" {
		parent := node.Parent()
		for parent != nil {
			switch parent.Type() {
			case "variable_declarator":
				return GetNodeText(parent.ChildByFieldName("name"), source)
			case "pair":
				return GetNodeText(parent.ChildByFieldName("key"), source)
			case "statement_block", "program", "module":
				return ""
			}
			parent = parent.Parent()
		}
	}

	return ""
}

// hasReturnType reports whether the unit declares a return type. The field
// name varies by grammar.
func hasReturnType(node *sitter.Node) bool {
	for _, field := range []string{"result", "return_type", "type"} {
		if node.ChildByFieldName(field) != nil {
			return true
		}
	}
	return false
}

// unitDecorators collects decorators, annotations, or attributes attached
// to the unit, normalized to their source text.
func unitDecorators(node *sitter.Node, source []byte, lang Language) []string {
	var decorators []string

	switch lang {
	case LangPython:
		// Decorated functions are wrapped in a decorated_definition node
		// whose leading children are the decorators.
		if parent := node.Parent(); parent != nil && parent.Type() == "decorated_definition" {
			for i := range int(parent.NamedChildCount()) {
				child := parent.NamedChild(i)
				if child.Type() == "decorator" {
					decorators = append(decorators, GetNodeText(child, source))
				}
			}
		}
	case LangJava:
		// Annotations live inside the modifiers child.
		for i := range int(node.ChildCount()) {
			child := node.Child(i)
			if child.Type() != "modifiers" {
				continue
			}
			for j := range int(child.ChildCount()) {
				mod := child.Child(j)
				if mod.Type() == "annotation" || mod.Type() == "marker_annotation" {
					decorators = append(decorators, GetNodeText(mod, source))
				}
			}
		}
	case LangRust:
		// Attributes are preceding siblings of the function item.
		for sib := node.PrevNamedSibling(); sib != nil && sib.Type() == "attribute_item"; sib = sib.PrevNamedSibling() {
			decorators = append(decorators, GetNodeText(sib, source))
		}
	case LangTypeScript, LangTSX, LangJavaScript:
		for i := range int(node.ChildCount()) {
			child := node.Child(i)
			if child.Type() == "decorator" {
				decorators = append(decorators, GetNodeText(child, source))
			}
		}
	}

	return decorators
}

// insideClass reports whether a node sits within a class definition.
func insideClass(node *sitter.Node) bool {
	for parent := node.Parent(); parent != nil; parent = parent.Parent() {
		switch parent.Type() {
		case "class_definition", "class_declaration", "class_body", "class":
			return true
		}
	}
	return false
}

// producesJSX reports whether the unit's subtree contains JSX markup.
func producesJSX(node *sitter.Node) bool {
	found := false
	Walk(node, nil, func(n *sitter.Node, _ []byte) bool {
		if found {
			return false
		}
		switch n.Type() {
		case "jsx_element", "jsx_self_closing_element", "jsx_fragment":
			found = true
			return false
		}
		return true
	})
	return found
}
