package xmltree

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_BuildsTree(t *testing.T) {
	t.Parallel()
	doc := `<?xml version="1.0"?>
<mapping module="M">
  <!-- comment -->
  <renamedTypes>
    <renamedClass oldName="[A]Foo.Bar" newName="a.b">
      <renamedMethod oldName="System.Void Foo.Bar::Do()" newName="c"/>
    </renamedClass>
  </renamedTypes>
  <skippedTypes/>
</mapping>`

	root, err := Parse(strings.NewReader(doc))
	require.NoError(t, err)
	assert.Equal(t, "mapping", root.Name)
	v, ok := root.Attr("module")
	assert.True(t, ok)
	assert.Equal(t, "M", v)
	require.Len(t, root.Children, 2)

	types := root.Child("renamedTypes")
	require.NotNil(t, types)
	require.Len(t, types.Children, 1)
	cls := types.Children[0]
	assert.Equal(t, "renamedClass", cls.Name)
	assert.Equal(t, "[A]Foo.Bar", cls.Attrs["oldName"])
	require.Len(t, cls.Children, 1)
	assert.Equal(t, "c", cls.Children[0].Attrs["newName"])

	assert.Nil(t, root.Child("missing"))
}

func TestParse_Errors(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		doc  string
	}{
		{"empty", ""},
		{"unclosed", "<mapping><renamedTypes></mapping>"},
		{"garbage", "not xml at all <"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(strings.NewReader(tt.doc))
			assert.Error(t, err)
		})
	}
}
