package pattern

import (
	"errors"
	"testing"
)

func TestKey_OptionalMarker(t *testing.T) {
	tests := []struct {
		in       string
		key      string
		optional bool
		any      bool
	}{
		{"a", "a", false, false},
		{"b?", "b", true, false},
		{"?", "", true, false},
		{AnyKey, AnyKey, false, true},
	}

	for _, tt := range tests {
		f := Key(tt.in, String)
		if f.Key != tt.key || f.Optional != tt.optional || f.Any != tt.any {
			t.Errorf("Key(%q) = {%q, optional=%v, any=%v}; want {%q, %v, %v}",
				tt.in, f.Key, f.Optional, f.Any, tt.key, tt.optional, tt.any)
		}
	}
}

func TestTag_Kind(t *testing.T) {
	for _, tag := range []Tag{TagString, TagNumber, TagBoolean, TagObject, TagArray} {
		if _, ok := tag.Kind(); !ok {
			t.Errorf("%s.Kind() not ok", tag)
		}
	}
	if _, ok := ParseTag("Null"); ok {
		t.Error("ParseTag(Null) should fail: null is matched by literal")
	}
}

func TestQuantifier_Validate(t *testing.T) {
	tests := []struct {
		q       Quantifier
		wantErr bool
	}{
		{Between(0, 0), false},
		{Between(1, 2), false},
		{AtLeast(3), false},
		{Between(-1, 2), true},
		{Between(3, 2), true},
	}

	for _, tt := range tests {
		err := tt.q.Validate()
		if (err != nil) != tt.wantErr {
			t.Errorf("%s.Validate() = %v; wantErr %v", tt.q, err, tt.wantErr)
		}
		if err != nil && !errors.Is(err, ErrBadBounds) {
			t.Errorf("%s.Validate() error %v should wrap ErrBadBounds", tt.q, err)
		}
	}
}

func TestQuantifier_Allows(t *testing.T) {
	q := Between(1, 2)
	for n, want := range map[int]bool{0: false, 1: true, 2: true, 3: false} {
		if got := q.Allows(n); got != want {
			t.Errorf("Between(1,2).Allows(%d) = %v; want %v", n, got, want)
		}
	}
	if !ZeroOrMore().Allows(1 << 20) {
		t.Error("ZeroOrMore should allow large counts")
	}
	if ZeroOrMore().Bounded() {
		t.Error("ZeroOrMore should be unbounded")
	}
}

func TestEtcBounds(t *testing.T) {
	tests := []struct {
		bounds  []int
		want    Quantifier
		wantErr bool
	}{
		{nil, ZeroOrMore(), false},
		{[]int{2}, AtLeast(2), false},
		{[]int{1, 3}, Between(1, 3), false},
		{[]int{1, -1}, AtLeast(1), false},
		{[]int{3, 1}, Quantifier{}, true},
		{[]int{1, 2, 3}, Quantifier{}, true},
		{[]int{-2}, Quantifier{}, true},
	}

	for _, tt := range tests {
		got, err := EtcBounds(tt.bounds)
		if (err != nil) != tt.wantErr {
			t.Errorf("EtcBounds(%v) error = %v; wantErr %v", tt.bounds, err, tt.wantErr)
			continue
		}
		if !tt.wantErr && got != tt.want {
			t.Errorf("EtcBounds(%v) = %s; want %s", tt.bounds, got, tt.want)
		}
	}
}

func TestRender(t *testing.T) {
	tests := []struct {
		node Node
		want string
	}{
		{String, "String"},
		{Str("none"), `"none"`},
		{Null(), "null"},
		{Seq(String, Number), "[String, Number]"},
		{Seq(String, Etc(1, 2)), "[String, ...etc(1, 2)]"},
		{Repeat([]Node{String}, Number, Between(1, 2)), "[String, ...Number(1..2)]"},
		{Obj(Key("a", Number), Key("b?", String)), "{a: Number, b?: String}"},
		{Obj(Key("two words", Number)), `{"two words": Number}`},
		{Open(ZeroOrMore(), Key("a", Number)), "{a: Number, ...(0..*)}"},
		{Each(Number), "{[Any]: Number}"},
		{Each(Number, Between(0, 3)), "{[Any]: Number, ...(0..3)}"},
		{Or(Number, Str("none")), `Or(Number, "none")`},
		{RefTo("S"), "<S>"},
		{Self("S", func(self Node) Node { return Or(Number, Seq(self)) }), "Recursive(<S> = Or(Number, [<S>]); <S>)"},
		{Import("address"), `use("address")`},
	}

	for _, tt := range tests {
		if got := tt.node.String(); got != tt.want {
			t.Errorf("String() = %s; want %s", got, tt.want)
		}
	}
}

func TestRender_NilChild(t *testing.T) {
	if got := Seq(nil).String(); got != "[<nil>]" {
		t.Errorf("String() = %s; want [<nil>]", got)
	}
}

func TestUses(t *testing.T) {
	n := Obj(
		Key("a", Import("x")),
		Key("b", Or(Import("y"), Seq(Import("x"), Etc()))),
		Key("c", Rec(RefTo("R"), Def("R", Import("z")))),
	)
	got := Uses(n)
	want := []string{"x", "y", "z"}
	if len(got) != len(want) {
		t.Fatalf("Uses() = %v; want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Uses()[%d] = %q; want %q", i, got[i], want[i])
		}
	}
}

func TestWalk_SkipChildren(t *testing.T) {
	n := Seq(Obj(Key("a", Number)), String)
	var visited []string
	err := Walk(n, func(n Node) error {
		visited = append(visited, n.String())
		if _, ok := n.(*Mapping); ok {
			return SkipChildren
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Walk() error = %v", err)
	}
	want := []string{"[{a: Number}, String]", "{a: Number}", "String"}
	if len(visited) != len(want) {
		t.Fatalf("visited %v; want %v", visited, want)
	}
	for i := range want {
		if visited[i] != want[i] {
			t.Errorf("visited[%d] = %s; want %s", i, visited[i], want[i])
		}
	}
}

func TestWalk_StopsOnError(t *testing.T) {
	stop := errors.New("stop")
	count := 0
	err := Walk(Seq(String, Number, Boolean), func(n Node) error {
		count++
		if n == Number {
			return stop
		}
		return nil
	})
	if !errors.Is(err, stop) {
		t.Errorf("Walk() error = %v; want stop", err)
	}
	if count != 3 {
		t.Errorf("visited %d nodes; want 3", count)
	}
}
