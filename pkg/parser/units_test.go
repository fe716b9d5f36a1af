package parser

import "testing"

func parseUnits(t *testing.T, code string, lang Language) []Unit {
	t.Helper()

	p := New()
	defer p.Close()

	result, err := p.Parse([]byte(code), lang, "sample")
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	return GetUnits(result)
}

func findUnit(t *testing.T, units []Unit, name string) Unit {
	t.Helper()
	for _, u := range units {
		if u.Name == name {
			return u
		}
	}
	t.Fatalf("unit %q not found in %d units", name, len(units))
	return Unit{}
}

func TestGetUnits_Go(t *testing.T) {
	code := `package sample

func add(a, b int) int {
	return a + b
}

func (s *Server) Start() error {
	return s.listen()
}

func fire() {
	println("done")
}
`
	units := parseUnits(t, code, LangGo)
	if len(units) != 3 {
		t.Fatalf("got %d units, want 3", len(units))
	}

	add := findUnit(t, units, "add")
	if add.Kind != UnitFunction {
		t.Errorf("add.Kind = %v, want function", add.Kind)
	}
	if !add.HasReturn {
		t.Error("add should have a return type")
	}
	if add.StartLine != 3 || add.EndLine != 5 {
		t.Errorf("add lines = %d-%d, want 3-5", add.StartLine, add.EndLine)
	}

	start := findUnit(t, units, "Start")
	if start.Kind != UnitMethod {
		t.Errorf("Start.Kind = %v, want method", start.Kind)
	}
	if !start.HasReturn {
		t.Error("Start should have a return type")
	}

	fire := findUnit(t, units, "fire")
	if fire.HasReturn {
		t.Error("fire has no return type")
	}
}

func TestGetUnits_PythonDecoratorsAndMethods(t *testing.T) {
	code := `@app.route("/users")
def list_users():
    return db.users()

class Repo:
    def save(self, item):
        self.items.append(item)
`
	units := parseUnits(t, code, LangPython)
	if len(units) != 2 {
		t.Fatalf("got %d units, want 2", len(units))
	}

	listUsers := findUnit(t, units, "list_users")
	if len(listUsers.Decorators) != 1 {
		t.Fatalf("decorators = %v, want 1", listUsers.Decorators)
	}
	if listUsers.Decorators[0] != `@app.route("/users")` {
		t.Errorf("decorator = %q", listUsers.Decorators[0])
	}

	save := findUnit(t, units, "save")
	if save.Kind != UnitMethod {
		t.Errorf("save.Kind = %v, want method (inside class)", save.Kind)
	}
}

func TestGetUnits_ArrowFunctionTakesVariableName(t *testing.T) {
	code := `const formatName = (user) => {
	return user.first + " " + user.last;
};
`
	units := parseUnits(t, code, LangJavaScript)
	if len(units) != 1 {
		t.Fatalf("got %d units, want 1", len(units))
	}
	if units[0].Name != "formatName" {
		t.Errorf("name = %q, want formatName", units[0].Name)
	}
}

func TestGetUnits_TSXComponent(t *testing.T) {
	code := `const UserCard = (props: Props) => {
	return <div className="card">{props.name}</div>;
};
`
	units := parseUnits(t, code, LangTSX)
	if len(units) != 1 {
		t.Fatalf("got %d units, want 1", len(units))
	}
	if units[0].Kind != UnitComponent {
		t.Errorf("kind = %v, want component for JSX-producing function", units[0].Kind)
	}
	if units[0].Name != "UserCard" {
		t.Errorf("name = %q, want UserCard", units[0].Name)
	}
}

func TestGetUnits_NestedFunctionsBelongToEnclosingUnit(t *testing.T) {
	code := `def outer():
    def inner():
        return 1
    return inner
`
	units := parseUnits(t, code, LangPython)
	if len(units) != 1 {
		t.Fatalf("got %d units, want 1 (inner folded into outer)", len(units))
	}
	if units[0].Name != "outer" {
		t.Errorf("name = %q, want outer", units[0].Name)
	}
}

func TestGetUnits_JavaAnnotations(t *testing.T) {
	code := `class UserController {
    @GetMapping("/users")
    public List<User> listUsers() {
        return repo.findAll();
    }
}
`
	units := parseUnits(t, code, LangJava)
	if len(units) != 1 {
		t.Fatalf("got %d units, want 1", len(units))
	}

	u := units[0]
	if u.Kind != UnitMethod {
		t.Errorf("kind = %v, want method", u.Kind)
	}
	if len(u.Decorators) != 1 || u.Decorators[0] != `@GetMapping("/users")` {
		t.Errorf("decorators = %v", u.Decorators)
	}
	if !u.HasReturn {
		t.Error("listUsers should have a return type")
	}
}
