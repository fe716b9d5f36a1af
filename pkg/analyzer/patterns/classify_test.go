package patterns

import (
	"testing"

	"github.com/caopengau/aiready/pkg/parser"
)

func TestClassifyUnit(t *testing.T) {
	tests := []struct {
		name string
		unit parser.Unit
		want PatternType
	}{
		{
			name: "anonymous unit is unknown",
			unit: parser.Unit{Kind: parser.UnitFunction},
			want: PatternUnknown,
		},
		{
			name: "component kind wins over naming",
			unit: parser.Unit{Kind: parser.UnitComponent, Name: "validateForm"},
			want: PatternComponent,
		},
		{
			name: "route decorator marks handler",
			unit: parser.Unit{Kind: parser.UnitFunction, Name: "listUsers", Decorators: []string{"@app.get"}},
			want: PatternAPIHandler,
		},
		{
			name: "spring annotation marks handler",
			unit: parser.Unit{Kind: parser.UnitMethod, Name: "users", Decorators: []string{"@GetMapping"}},
			want: PatternAPIHandler,
		},
		{
			name: "handle prefix marks handler",
			unit: parser.Unit{Kind: parser.UnitFunction, Name: "handleLogin"},
			want: PatternAPIHandler,
		},
		{
			name: "Handler suffix marks handler",
			unit: parser.Unit{Kind: parser.UnitFunction, Name: "loginHandler"},
			want: PatternAPIHandler,
		},
		{
			name: "serve prefix with two params marks handler",
			unit: parser.Unit{Kind: parser.UnitFunction, Name: "serveIndex", ParamCount: 2},
			want: PatternAPIHandler,
		},
		{
			name: "validate prefix marks validator",
			unit: parser.Unit{Kind: parser.UnitFunction, Name: "validateEmail"},
			want: PatternValidator,
		},
		{
			name: "snake case validator prefix",
			unit: parser.Unit{Kind: parser.UnitFunction, Name: "is_valid_email"},
			want: PatternValidator,
		},
		{
			name: "check prefix beats method kind",
			unit: parser.Unit{Kind: parser.UnitMethod, Name: "checkQuota"},
			want: PatternValidator,
		},
		{
			name: "method kind",
			unit: parser.Unit{Kind: parser.UnitMethod, Name: "save"},
			want: PatternClassMethod,
		},
		{
			name: "utility prefix needs return value",
			unit: parser.Unit{Kind: parser.UnitFunction, Name: "formatDate", HasReturn: true},
			want: PatternUtility,
		},
		{
			name: "utility prefix without return is plain function",
			unit: parser.Unit{Kind: parser.UnitFunction, Name: "setDefaults"},
			want: PatternFunction,
		},
		{
			name: "plain function",
			unit: parser.Unit{Kind: parser.UnitFunction, Name: "run"},
			want: PatternFunction,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := classifyUnit(tt.unit); got != tt.want {
				t.Errorf("classifyUnit(%q) = %v, want %v", tt.unit.Name, got, tt.want)
			}
		})
	}
}

func TestDominantType(t *testing.T) {
	tests := []struct {
		name  string
		types []PatternType
		want  PatternType
	}{
		{
			name:  "majority wins",
			types: []PatternType{PatternValidator, PatternValidator, PatternFunction},
			want:  PatternValidator,
		},
		{
			name:  "unknown never counted",
			types: []PatternType{PatternUnknown, PatternUnknown, PatternUtility},
			want:  PatternUtility,
		},
		{
			name:  "all unknown stays unknown",
			types: []PatternType{PatternUnknown, PatternUnknown},
			want:  PatternUnknown,
		},
		{
			name:  "tie broken lexicographically",
			types: []PatternType{PatternValidator, PatternFunction},
			want:  PatternFunction,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := dominantType(tt.types); got != tt.want {
				t.Errorf("dominantType(%v) = %v, want %v", tt.types, got, tt.want)
			}
		})
	}
}
