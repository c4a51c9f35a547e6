package symbols

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMergeDefinitionWins(t *testing.T) {
	decl := Symbol{
		USR: "c:@F@m#", File: "fwd.h", Line: 1, StartLine: 1, EndLine: 1,
	}
	def := Symbol{
		USR: "c:@F@m#", File: "foo.h", Line: 1, StartLine: 1, EndLine: 3,
		Brief: "does a thing",
	}

	merged := MergeDefinitionWins(decl, def)
	assert.Equal(t, "foo.h", merged.File)
	assert.Equal(t, 3, merged.EndLine)
	assert.Equal(t, "fwd.h", merged.HeaderFile)
	assert.Equal(t, 1, merged.HeaderLine)
	assert.Equal(t, "does a thing", merged.Brief)

	// Order independence: same inputs, reversed argument order.
	merged2 := MergeDefinitionWins(def, decl)
	assert.Equal(t, merged.File, merged2.File)
	assert.Equal(t, merged.HeaderFile, merged2.HeaderFile)
	assert.Equal(t, merged.EndLine, merged2.EndLine)
}

func TestMergeDefinitionWinsNeitherHasBody(t *testing.T) {
	a := Symbol{USR: "c:@F@m#", File: "a.h", Line: 1, StartLine: 1, EndLine: 1}
	b := Symbol{USR: "c:@F@m#", File: "b.h", Line: 2, StartLine: 2, EndLine: 2, Brief: "b brief"}

	merged := MergeDefinitionWins(a, b)
	require.Equal(t, "a.h", merged.File)
	assert.Equal(t, "b brief", merged.Brief, "blank fields fill in from the other record")
}

func TestNormalizeBaseClassName(t *testing.T) {
	cases := map[string]string{
		"class Foo":        "Foo",
		"struct  Bar":       "Bar",
		"  Baz<int>  ":      "Baz<int>",
		"class ns::Widget":  "ns::Widget",
	}
	for in, want := range cases {
		assert.Equal(t, want, NormalizeBaseClassName(in), in)
	}
}

func TestLooksLikeFullSpecialization(t *testing.T) {
	assert.True(t, LooksLikeFullSpecialization("c:@S@Foo>#I"))
	assert.False(t, LooksLikeFullSpecialization("c:@S@Foo"))
}

func TestTruncateDocComment(t *testing.T) {
	long := make([]byte, MaxDocCommentLen+50)
	for i := range long {
		long[i] = 'a'
	}
	out := TruncateDocComment(string(long))
	require.Len(t, out, MaxDocCommentLen)
	assert.Equal(t, "...", out[len(out)-3:])
}
