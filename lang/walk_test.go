package lang

import (
	"errors"
	"slices"
	"testing"
)

const shipRules = `// Small thruster part.
Part : <base.rules>/Part, ^/Common
{
	ID = cosmoteer.thruster
	Mass = .5 * &../BaseMass
	Rotation = 90d
	Name = "Small Thruster"
	Icon = @"icons\thruster.png"
	Enabled = true
	Description = 5 apples, 3 pears
	Cost = max(10, &~/Prices/Base * 2)
	Components
	[
		{ Type = Sprite; Texture = thruster.png }
		Shadow : ./Base { Offset = -1 }
	]
	Nested { X = 50% }
}

BaseMass = 2
`

func shipDocument(t *testing.T) *Document {
	t.Helper()

	doc := parse(t, shipRules)
	if len(doc.Diagnostics) > 0 {
		t.Fatalf("unexpected diagnostics: %v", doc.Diagnostics)
	}

	return doc
}

func TestDocument_Paths(t *testing.T) {
	doc := shipDocument(t)

	var paths []string
	for path := range doc.Paths() {
		paths = append(paths, path)
	}

	want := []string{
		"Part",
		"Part/ID",
		"Part/Mass",
		"Part/Rotation",
		"Part/Name",
		"Part/Icon",
		"Part/Enabled",
		"Part/Description",
		"Part/Cost",
		"Part/Components",
		"Part/Components/Type",
		"Part/Components/Texture",
		"Part/Components/Shadow",
		"Part/Components/Shadow/Offset",
		"Part/Nested",
		"Part/Nested/X",
		"BaseMass",
	}

	if !slices.Equal(paths, want) {
		t.Errorf("paths =\n%q\nwant\n%q", paths, want)
	}
}

func TestDocument_Lookup(t *testing.T) {
	doc := shipDocument(t)

	for _, path := range []string{"Part/Nested/X", "/Part/Nested/X/"} {
		stmt, err := doc.Lookup(path)
		if err != nil {
			t.Fatalf("Lookup(%q): %v", path, err)
		}

		a, ok := stmt.(*Assignment)
		if !ok {
			t.Fatalf("Lookup(%q) = %T, want *Assignment", path, stmt)
		}

		if n, ok := a.Value.(*Number); !ok || n.Unit != "%" || n.Value != 50 {
			t.Errorf("Lookup(%q) value = %#v", path, a.Value)
		}
	}

	_, err := doc.Lookup("Part/Missing")
	if !errors.Is(err, ErrPathNotFound) {
		t.Errorf("Lookup(missing) error = %v, want ErrPathNotFound", err)
	}
}

func TestDocument_References(t *testing.T) {
	doc := shipDocument(t)

	var paths, owners []string
	for c, ref := range doc.References() {
		paths = append(paths, ref.Path())
		owners = append(owners, c.Path)
	}

	want := []string{"<base.rules>/Part", "^/Common", "../BaseMass", "~/Prices/Base", "./Base"}
	if !slices.Equal(paths, want) {
		t.Errorf("references = %q, want %q", paths, want)
	}

	wantOwners := []string{"Part", "Part", "Part/Mass", "Part/Cost", "Part/Components/Shadow"}
	if !slices.Equal(owners, wantOwners) {
		t.Errorf("owners = %q, want %q", owners, wantOwners)
	}
}

func TestDocument_Walk_Depth(t *testing.T) {
	doc := parse(t, "a { b = -1 }")

	var got []string
	for c := range doc.Walk() {
		got = append(got, describe(c.Node)+"@"+string(rune('0'+c.Depth)))
	}

	want := []string{
		"Block@0",
		"Identifier a@1",
		"Assignment@1",
		"Identifier b@2",
		"UnaryExpr -@2",
		"Number 1@3",
	}

	if !slices.Equal(got, want) {
		t.Errorf("walk = %q, want %q", got, want)
	}
}

func TestDocument_Walk_Stop(t *testing.T) {
	doc := shipDocument(t)

	n := 0
	for range doc.Walk() {
		n++
		if n == 3 {
			break
		}
	}

	if n != 3 {
		t.Errorf("visited %d nodes after break, want 3", n)
	}
}

func TestInspect(t *testing.T) {
	v := assigned(t, "a = f(1, -&x)")

	var kinds []string
	for n := range Inspect(v) {
		kinds = append(kinds, NodeKind(n))
	}

	want := []string{"Call", "Identifier", "Number", "UnaryExpr", "Reference"}
	if !slices.Equal(kinds, want) {
		t.Errorf("kinds = %q, want %q", kinds, want)
	}
}
