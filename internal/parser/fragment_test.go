package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/cxxindex/cxxindex/internal/symbols"
)

func TestAppendFragmentRoutesByKind(t *testing.T) {
	var rec symbols.FileRecord

	appendFragment(&rec, Fragment{Kind: CursorClass, Symbol: symbols.Symbol{Name: "Widget"}})
	appendFragment(&rec, Fragment{Kind: CursorFunction, Symbol: symbols.Symbol{Name: "doThing"}})
	appendFragment(&rec, Fragment{Kind: CursorUsingAlias, Alias: symbols.TypeAlias{AliasName: "WidgetPtr"}})
	appendFragment(&rec, Fragment{Kind: CursorOther})

	assert.Len(t, rec.Symbols, 2)
	assert.Len(t, rec.Aliases, 1)
	assert.Equal(t, "Widget", rec.Symbols[0].Name)
	assert.Equal(t, "WidgetPtr", rec.Aliases[0].AliasName)
}
