//go:build clang

package parser

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cxxindex/cxxindex/internal/symbols"
)

func writeSource(t *testing.T, body string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "widget.cpp")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

const widgetSource = `
class Widget {
public:
	void Spin();
};

void helper();

void Widget::Spin() {
	helper();
}

void helper() {}

using WidgetPtr = Widget*;
`

func TestParseExtractsClassAndFunction(t *testing.T) {
	path := writeSource(t, widgetSource)
	p, err := New("", "")
	require.NoError(t, err)
	defer p.Close()

	rec, err := p.Parse(context.Background(), Request{File: path, Argv: []string{"-std=c++17"}, IsProject: true})
	require.NoError(t, err)
	assert.Empty(t, rec.ParseErrors)

	var names []string
	for _, sym := range rec.Symbols {
		names = append(names, sym.Name)
	}
	assert.Contains(t, names, "Widget")
	assert.Contains(t, names, "helper")

	var aliasNames []string
	for _, a := range rec.Aliases {
		aliasNames = append(aliasNames, a.AliasName)
	}
	assert.Contains(t, aliasNames, "WidgetPtr")
}

func TestParseRecordsCallSiteFromDefinition(t *testing.T) {
	path := writeSource(t, widgetSource)
	p, err := New("", "")
	require.NoError(t, err)
	defer p.Close()

	rec, err := p.Parse(context.Background(), Request{File: path, Argv: []string{"-std=c++17"}, IsProject: true})
	require.NoError(t, err)

	found := false
	for _, c := range rec.CallSites {
		if c.CallerUSR != "" && c.CalleeUSR != "" {
			found = true
		}
	}
	assert.True(t, found, "expected at least one resolved call site from Widget::Spin to helper")
}

func TestParseSetsParentClassToQualifiedName(t *testing.T) {
	path := writeSource(t, widgetSource)
	p, err := New("", "")
	require.NoError(t, err)
	defer p.Close()

	rec, err := p.Parse(context.Background(), Request{File: path, Argv: []string{"-std=c++17"}, IsProject: true})
	require.NoError(t, err)

	var spin *symbols.Symbol
	for i, sym := range rec.Symbols {
		if sym.Name == "Spin" {
			spin = &rec.Symbols[i]
		}
	}
	require.NotNil(t, spin, "expected to find Widget::Spin")
	assert.Equal(t, "Widget", spin.ParentClass, "ParentClass must be the parent's qualified name, not its USR")
}

const templateSpecializationSource = `
template <typename T>
void convert(T value) {}

template <>
void convert<int>(int value) {}
`

func TestParseLinksFullSpecializationToPrimaryTemplate(t *testing.T) {
	path := writeSource(t, templateSpecializationSource)
	p, err := New("", "")
	require.NoError(t, err)
	defer p.Close()

	rec, err := p.Parse(context.Background(), Request{File: path, Argv: []string{"-std=c++17"}, IsProject: true})
	require.NoError(t, err)

	var primary, specialization *symbols.Symbol
	for i, sym := range rec.Symbols {
		if sym.Name != "convert" {
			continue
		}
		if sym.TemplateKind == symbols.TemplateKindPrimary {
			primary = &rec.Symbols[i]
		}
		if sym.TemplateKind == symbols.TemplateKindFullSpecialization {
			specialization = &rec.Symbols[i]
		}
	}
	require.NotNil(t, primary, "expected the primary function template")
	require.NotNil(t, specialization, "expected the full specialization to be recorded")
	assert.True(t, specialization.IsTemplate)
	assert.Equal(t, primary.USR, specialization.PrimaryTemplateUSR)
}

func TestParseReturnsPartialRecordOnBadArgv(t *testing.T) {
	path := writeSource(t, widgetSource)
	p, err := New("", "")
	require.NoError(t, err)
	defer p.Close()

	rec, err := p.Parse(context.Background(), Request{File: path, Argv: []string{"-this-flag-does-not-exist-xyz"}, IsProject: true})
	require.NoError(t, err) // parser errors never fail the call; they land in ParseErrors
	_ = rec
}
