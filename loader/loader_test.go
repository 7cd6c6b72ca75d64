package loader

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"testing/fstest"

	. "github.com/onsi/gomega"
	"go.uber.org/multierr"

	"github.com/dgoffredo/tisch/diag"
	"github.com/dgoffredo/tisch/pattern"
	"github.com/dgoffredo/tisch/unit"
	"github.com/dgoffredo/tisch/value"
)

func TestParseNode_Encodings(t *testing.T) {
	g := NewWithT(t)

	tests := []struct {
		doc  string
		want string
	}{
		{`"x"`, `"x"`},
		{`42`, `42`},
		{`null`, `null`},
		{`true`, `true`},
		{`{literal: "String"}`, `"String"`},
		{`{type: Number}`, `Number`},
		{`{array: [{type: String}, {type: Number}]}`, `[String, Number]`},
		{`{array: [{type: String}, {type: Number}, {etc: [1, 2]}]}`, `[String, Number, ...etc(1, 2)]`},
		{`{array: [{type: Number}, {etc: [1, .inf]}]}`, `[Number, ...etc(1, -1)]`},
		{`{array: [{type: Number}, {etc: [0, "*"]}]}`, `[Number, ...etc(0, -1)]`},
		{`{array: [{type: Number}, {etc: 3}]}`, `[Number, ...etc(3)]`},
		{`{array: [{type: Number}, {etc: null}]}`, `[Number, ...etc()]`},
		{`{object: {a: {type: Number}, b?: {type: String}}}`, `{a: Number, b?: String}`},
		{`{object: {a: {type: Number}, "...": {etc: [0, 2]}}}`, `{a: Number, ...(0..2)}`},
		{`{object: {"[Any]": {type: Number}}}`, `{[Any]: Number}`},
		{`{union: [{type: Number}, none]}`, `Or(Number, "none")`},
		{`{ref: Tree}`, `<Tree>`},
		{`{use: address}`, `use("address")`},
		{`{recursive: {define: {S: {union: [{type: Number}, {array: [{ref: S}]}]}}, pattern: {ref: S}}}`,
			`Recursive(<S> = Or(Number, [<S>]); <S>)`},
	}

	for _, tt := range tests {
		n, err := ParseNode("test", []byte(tt.doc))
		g.Expect(err).NotTo(HaveOccurred(), tt.doc)
		g.Expect(n.String()).To(Equal(tt.want), tt.doc)
	}
}

func TestParseNode_Variants(t *testing.T) {
	g := NewWithT(t)

	n, err := ParseNode("test", []byte(`{object: {a: {type: Number}, "...": {etc: []}}}`))
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(n).To(BeAssignableToTypeOf(&pattern.OpenMapping{}))
	g.Expect(n.(*pattern.OpenMapping).Rest).To(Equal(pattern.ZeroOrMore()))

	n, err = ParseNode("test", []byte(`{type: Boolean}`))
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(n).To(BeAssignableToTypeOf(&pattern.Type{}))

	n, err = ParseNode("test", []byte(`1.50`))
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(value.Equal(n.(*pattern.Literal).Value, value.Float(1.5))).To(BeTrue())
}

func TestParseNode_ErrorsCarryLines(t *testing.T) {
	g := NewWithT(t)

	doc := `
union:
  - {type: Date}
  - [1, 2]
  - {frob: 1}
  - {array: [{type: Number}, {etc: [1, 2, 3]}]}
`
	_, err := ParseNode("bad.yaml", []byte(doc))
	g.Expect(err).To(HaveOccurred())

	errs := multierr.Errors(err)
	g.Expect(errs).To(HaveLen(4))

	lines := make([]int, len(errs))
	for i, e := range errs {
		var pe *ParseError
		g.Expect(errors.As(e, &pe)).To(BeTrue())
		g.Expect(pe.Source).To(Equal("bad.yaml"))
		lines[i] = pe.Line
	}
	g.Expect(lines).To(Equal([]int{3, 4, 5, 6}))
	g.Expect(err.Error()).To(ContainSubstring("bad.yaml:3: $.union[0].type: expected one of String"))
}

func TestParseNode_Rejects(t *testing.T) {
	g := NewWithT(t)

	for _, doc := range []string{
		`{type: String, array: []}`,
		`{literal: [1]}`,
		`{object: {a: 1, a?: 2}}`,
		`{object: {"...": 3}}`,
		`{array: [{etc: [.inf]}]}`,
		`{array: [{etc: [-1]}]}`,
		`{ref: null}`,
		`{recursive: {define: {}}}`,
		`.inf`,
		`{a: [`,
	} {
		_, err := ParseNode("test", []byte(doc))
		g.Expect(err).To(HaveOccurred(), doc)
	}
}

func TestParse_Document(t *testing.T) {
	g := NewWithT(t)

	doc := `
id: tree
requires: [leaf]
define:
  Tree:
    union:
      - use: leaf
      - object: {"+": {array: [{ref: Tree}, {etc: []}]}}
pattern: {ref: Tree}
`
	u, err := Parse("tree.yaml", []byte(doc))
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(u.ID).To(Equal("tree"))
	g.Expect(u.Requires).To(Equal([]string{"leaf"}))
	g.Expect(u.Pattern).To(BeAssignableToTypeOf(&pattern.Recursive{}))
	g.Expect(pattern.Uses(u.Pattern)).To(Equal([]string{"leaf"}))
}

func TestParse_DocumentErrors(t *testing.T) {
	g := NewWithT(t)

	_, err := Parse("x", []byte("id: x\n"))
	g.Expect(err).To(MatchError(ContainSubstring("document has no pattern")))

	_, err = Parse("x", []byte("- 1\n"))
	g.Expect(err).To(MatchError(ContainSubstring("must be a mapping")))

	_, err = Parse("x", []byte("pattern: 1\nextra: 2\n"))
	g.Expect(err).To(MatchError(ContainSubstring("unknown document key")))

	_, err = Parse("x", []byte("pattern: 1\nrequires: leaf\n"))
	g.Expect(err).To(MatchError(ContainSubstring("expected a list of unit IDs")))

	_, err = Parse("x", []byte(""))
	g.Expect(err).To(MatchError(ContainSubstring("empty document")))
}

func TestParse_JSONDocument(t *testing.T) {
	g := NewWithT(t)

	u, err := Parse("point.json", []byte(`{"pattern": {"object": {"x": {"type": "Number"}, "y": {"type": "Number"}}}}`))
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(u.ID).To(Equal("point.json"))
	g.Expect(u.Pattern.String()).To(Equal("{x: Number, y: Number}"))
}

var testFS = fstest.MapFS{
	"leaf.yaml": {Data: []byte("pattern: {type: String}\n")},
	"tree.yml": {Data: []byte(`
requires: [leaf]
define:
  Tree:
    union:
      - use: leaf
      - array: [{ref: Tree}, {etc: []}]
pattern: {ref: Tree}
`)},
	"shapes/point.json": {Data: []byte(`{"pattern": {"object": {"x": {"type": "Number"}}}}`)},
	"wrong.yaml":        {Data: []byte("id: other\npattern: 1\n")},
	"README.md":         {Data: []byte("not a pattern")},
}

func TestFSSource_Load(t *testing.T) {
	g := NewWithT(t)
	src := FS(testFS)

	u, err := src.Load("tree")
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(u.ID).To(Equal("tree"))
	g.Expect(u.Requires).To(Equal([]string{"leaf"}))

	u, err = src.Load("shapes/point")
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(u.ID).To(Equal("shapes/point"))

	_, err = src.Load("missing")
	g.Expect(errors.Is(err, unit.ErrNotFound)).To(BeTrue())

	_, err = src.Load("../etc/passwd")
	g.Expect(errors.Is(err, unit.ErrNotFound)).To(BeTrue())

	_, err = src.Load("wrong")
	g.Expect(err).To(MatchError(ContainSubstring(`declares id "other"`)))
}

func TestFSSource_List(t *testing.T) {
	g := NewWithT(t)

	ids, err := FS(testFS).List()
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(ids).To(Equal([]string{"leaf", "shapes/point", "tree", "wrong"}))
}

func TestFSSource_Resolve(t *testing.T) {
	g := NewWithT(t)

	m, err := unit.NewResolver(FS(testFS)).Compile("tree")
	g.Expect(err).NotTo(HaveOccurred())

	v, err := value.ParseJSON([]byte(`["a", ["b", []], "c"]`))
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(m.Match(v, diag.New())).To(BeTrue())

	v, err = value.ParseJSON([]byte(`["a", [1]]`))
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(m.Match(v, diag.New())).To(BeFalse())
}

func TestDir(t *testing.T) {
	g := NewWithT(t)
	dir := t.TempDir()
	g.Expect(os.WriteFile(filepath.Join(dir, "name.yaml"), []byte("pattern: {type: String}\n"), 0o644)).To(Succeed())

	u, err := Dir(dir).Load("name")
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(u.Pattern.String()).To(Equal("String"))
}

func TestMemory(t *testing.T) {
	g := NewWithT(t)
	src := Memory{
		"a": []byte("pattern: {array: [{use: b}]}\nrequires: [b]\n"),
		"b": []byte("id: b\npattern: {type: Number}\n"),
	}

	m, err := unit.NewResolver(src).Compile("a")
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(m.Match(value.Arr(value.Int(1)), diag.New())).To(BeTrue())

	_, err = src.Load("c")
	g.Expect(errors.Is(err, unit.ErrNotFound)).To(BeTrue())
}
