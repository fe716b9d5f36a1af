package patterns

import (
	"strings"

	"github.com/caopengau/aiready/pkg/parser"
)

// classifyUnit infers the structural role of a unit from language-neutral
// cues: decorators, kind, parameter/return shape, and naming pattern. It
// never inspects language-specific AST node types.
func classifyUnit(unit parser.Unit) PatternType {
	if unit.Name == "" {
		return PatternUnknown
	}

	if unit.Kind == parser.UnitComponent {
		return PatternComponent
	}

	if hasRouteDecorator(unit.Decorators) || hasHandlerName(unit.Name, unit.ParamCount) {
		return PatternAPIHandler
	}

	if isValidatorName(unit.Name) {
		return PatternValidator
	}

	if unit.Kind == parser.UnitMethod {
		return PatternClassMethod
	}

	if isUtilityName(unit.Name, unit.HasReturn) {
		return PatternUtility
	}

	return PatternFunction
}

// routeMarkers are decorator/annotation fragments that mark HTTP endpoints
// across frameworks (Flask/FastAPI, Spring, NestJS, actix).
var routeMarkers = []string{
	"route", "get", "post", "put", "delete", "patch",
	"mapping", "controller", "api", "endpoint", "http",
}

func hasRouteDecorator(decorators []string) bool {
	for _, d := range decorators {
		lower := strings.ToLower(d)
		for _, marker := range routeMarkers {
			if strings.Contains(lower, marker) {
				return true
			}
		}
	}
	return false
}

// hasHandlerName recognizes undecorated handlers by naming convention and
// the (request, response)-style parameter shape.
func hasHandlerName(name string, paramCount int) bool {
	lower := strings.ToLower(name)
	if strings.HasPrefix(lower, "handle") || strings.HasSuffix(lower, "handler") {
		return true
	}
	if paramCount == 2 && (strings.HasSuffix(lower, "endpoint") || strings.HasPrefix(lower, "serve")) {
		return true
	}
	return false
}

var validatorPrefixes = []string{"validate", "isvalid", "is_valid", "check", "verify", "assert"}

func isValidatorName(name string) bool {
	lower := strings.ToLower(name)
	for _, prefix := range validatorPrefixes {
		if strings.HasPrefix(lower, prefix) {
			return true
		}
	}
	return false
}

var utilityPrefixes = []string{
	"get", "set", "format", "parse", "convert", "to_", "from_",
	"build", "make", "calc", "calculate", "normalize", "sanitize", "is", "has",
}

// isUtilityName recognizes small value-returning helpers.
func isUtilityName(name string, hasReturn bool) bool {
	if !hasReturn {
		return false
	}
	lower := strings.ToLower(name)
	for _, prefix := range utilityPrefixes {
		if strings.HasPrefix(lower, prefix) {
			return true
		}
	}
	return false
}

// dominantType picks the group-level pattern type: the most frequent
// non-unknown member type, ties broken lexicographically for determinism.
// A group of only unknowns stays unknown.
func dominantType(types []PatternType) PatternType {
	counts := make(map[PatternType]int, len(types))
	for _, t := range types {
		if t != PatternUnknown {
			counts[t]++
		}
	}
	if len(counts) == 0 {
		return PatternUnknown
	}

	best := PatternUnknown
	bestCount := 0
	for t, n := range counts {
		if n > bestCount || (n == bestCount && string(t) < string(best)) {
			best = t
			bestCount = n
		}
	}
	return best
}
