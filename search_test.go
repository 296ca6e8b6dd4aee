package obfmap

import (
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func displayNames(syms []*Symbol, side Side) []string {
	var out []string
	for _, s := range syms {
		out = append(out, s.DisplayName(side))
	}
	return out
}

func TestSearch_RenamedToOriginal(t *testing.T) {
	t.Parallel()
	m := openBasic(t)
	sub := SearchOptions{Substitute: true}

	tests := []struct {
		name  string
		query string
		opts  SearchOptions
		want  []string
	}{
		{"class", "a.b", SearchOptions{}, []string{"Foo.Bar"}},
		{"field", "a.b.d", SearchOptions{}, []string{"Foo.Bar.count"}},
		{"property", "a.b.f", SearchOptions{}, []string{"Foo.Bar.Title"}},
		{"name shared by event and nested class", "a.b.g", SearchOptions{}, []string{"Foo.Bar.Changed", "Foo.Bar.Inner"}},
		{"nested class", "a.b.g.i", SearchOptions{}, []string{"Foo.Bar.Inner.Deep"}},
		{"nested method", "a.b.g.h()", SearchOptions{}, []string{"Foo.Bar.Inner.Run()"}},
		{"owner given by renamed name", "a.f.j", SearchOptions{}, []string{"Foo.Baz.Helper"}},
		{"method exact params", "a.b.c(System.String)", sub, []string{"Foo.Bar.DoWork(System.String)"}},
		{"method substituted params", "a.b.c(a.d)", sub, []string{"Foo.Bar.DoWork(System.String)"}},
		{"substitution by simple name", "a.b.c(d, System.Int32)", sub, []string{"Foo.Bar.DoWork(System.String, System.Int32)"}},
		{"return type prefix", "System.Boolean a.b.e()", SearchOptions{}, []string{"Foo.Bar.Reset()"}},
		{"constructor", "a.b..ctor()", SearchOptions{}, []string{"Foo.Bar..ctor()"}},
		{"stack trace nesting", "a.b+g.h()", SearchOptions{}, []string{"Foo.Bar.Inner.Run()"}},
		{"other module", "b.a.a(System.String)", sub, []string{"Util.Strings.Trim(System.String)"}},
		{"skipped class keeps identity", "Foo.Api.Call()", SearchOptions{}, []string{"Foo.Api.Call()"}},
		{"no match", "z.z", SearchOptions{}, nil},
		{"namespace only", "a", SearchOptions{}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			res := m.Search(tt.query, tt.opts)
			require.NoError(t, res.Err)
			assert.Equal(t, tt.want, displayNames(res.All(), Original))
		})
	}
}

func TestSearch_SubstitutionRequired(t *testing.T) {
	t.Parallel()
	m := openBasic(t)

	res := m.Search("a.b.c(a.d)", SearchOptions{})
	assert.Empty(t, res.All(), "renamed parameter types do not match without substitution")

	res = m.Search("a.b.c(a.d)", SearchOptions{Substitute: true})
	assert.Len(t, res.All(), 1)
}

func TestSearch_OverloadArity(t *testing.T) {
	t.Parallel()
	m := openBasic(t)
	sub := SearchOptions{Substitute: true}

	one := m.Search("a.b.c(System.String)", sub).All()
	two := m.Search("a.b.c(System.String, System.Int32)", sub).All()
	three := m.Search("a.b.c(System.String, System.Int32, System.Boolean)", sub).All()
	require.Len(t, one, 1)
	require.Len(t, two, 1)
	require.Len(t, three, 1)
	assert.Len(t, one[0].Params, 1)
	assert.Len(t, two[0].Params, 2)
	assert.Len(t, three[0].Params, 3)

	assert.Empty(t, m.Search("a.b.c(System.Int32, System.String)", sub).All(), "order matters")
	assert.Empty(t, m.Search("a.b.c()", sub).All())
	assert.Empty(t, m.Search("a.b.c(System.String, System.Int32, System.Boolean, System.Boolean)", sub).All())
}

func TestSearch_FilterPrefix(t *testing.T) {
	t.Parallel()
	m := openBasic(t)

	res := m.Search("  at a.b.c(a.d p)", SearchOptions{Substitute: true, FilterPrefix: true})
	require.NoError(t, res.Err)
	assert.Equal(t, []string{"Foo.Bar.DoWork(System.String)"}, displayNames(res.All(), Original))

	// A parameter list before the first space leaves the text intact.
	res = m.Search("a.b.c(a.d p)", SearchOptions{Substitute: true, FilterPrefix: true})
	assert.Len(t, res.All(), 1)

	res = m.Search("Exception: a.b", SearchOptions{FilterPrefix: true})
	assert.Equal(t, "Foo.Bar", res.First().FullName(Original))
}

func TestSearch_InvalidQueries(t *testing.T) {
	t.Parallel()
	m := openBasic(t)

	res := m.Search("", SearchOptions{})
	assert.ErrorIs(t, res.Err, ErrEmptyQuery)
	assert.Nil(t, res.Entity)
	assert.Empty(t, res.All())

	res = m.Search("a.b.c(System.String", SearchOptions{Substitute: true})
	assert.ErrorIs(t, res.Err, ErrMalformedQuery)
	assert.Empty(t, res.All())
	assert.Equal(t, "a.b.c(System.String", res.String())

	res = m.SearchOriginal("(")
	assert.ErrorIs(t, res.Err, ErrMalformedQuery)
}

func TestSearchOriginal_OriginalToRenamed(t *testing.T) {
	t.Parallel()
	m := openBasic(t)

	res := m.SearchOriginal("Foo.Bar.DoWork(System.String)")
	assert.Equal(t, "a.b.c(a.d)", res.String())

	res = m.SearchOriginal("Foo.Bar.Inner")
	assert.Equal(t, "a.b.g", res.String())

	// Original search compares parameters as given and never substitutes.
	assert.Empty(t, m.SearchOriginal("Foo.Bar.DoWork(a.d)").All())
	assert.Empty(t, m.SearchOriginal("a.b").All())
}

func TestSearch_InverseDirections(t *testing.T) {
	t.Parallel()
	idx := openBasic(t).Index()

	for _, c := range idx.Classes() {
		byRenamed := idx.Search(c.FullName(Renamed), SearchOptions{}).All()
		byOriginal := idx.SearchOriginal(c.FullName(Original)).All()
		assert.Contains(t, byRenamed, c, "search %s", c.FullName(Renamed))
		assert.Contains(t, byOriginal, c, "search original %s", c.FullName(Original))
	}
}

func TestSearchResults_LazyAndRestartable(t *testing.T) {
	t.Parallel()
	m := openBasic(t)

	res := m.Search("a.b.g", SearchOptions{})
	first := res.All()
	second := res.All()
	assert.Equal(t, first, second)
	assert.Len(t, first, 2)

	// Stopping early yields just the first match.
	assert.Same(t, first[0], res.First())
	assert.Equal(t, "Foo.Bar.Changed | Foo.Bar.Inner", res.String())
}

func TestSearch_CompareParamsRenamedView(t *testing.T) {
	t.Parallel()
	idx := openBasic(t).Index()

	m := idx.SearchOriginal("Foo.Bar.DoWork(System.String)").First()
	require.NotNil(t, m)
	assert.True(t, m.CompareParams([]QualifiedName{{Namespace: "a", Name: "d"}}, Renamed))
	assert.False(t, m.CompareParams([]QualifiedName{{Namespace: "a", Name: "d"}}, Original))
	assert.False(t, m.CompareParams([]QualifiedName{{Name: "string"}}, Original), "comparison is case-sensitive")
}

func TestSearch_LargeIndex(t *testing.T) {
	t.Parallel()
	var sb strings.Builder
	sb.WriteString("<mapping><renamedTypes>")
	for i := range 200 {
		sb.WriteString(`<renamedClass oldName="Ns.C` + strconv.Itoa(i) + `" newName="x.c` + strconv.Itoa(i) + `">`)
		sb.WriteString(`<renamedMethod oldName="System.Void Ns.C` + strconv.Itoa(i) + `::M(System.String)" newName="m"/>`)
		sb.WriteString(`</renamedClass>`)
	}
	sb.WriteString("</renamedTypes></mapping>")
	idx := loadIndex(t, sb.String())

	res := idx.Search("x.c150.m(System.String)", SearchOptions{Substitute: true})
	assert.Equal(t, "Ns.C150.M(System.String)", res.String())
	assert.Equal(t, 200, idx.Stats().Methods)
}

