package symbols

import (
	"regexp"
	"strings"
)

// fullSpecializationUSR matches the libclang USR pattern for an explicit
// full specialization of a class template, e.g. "c:@S@Foo>#I" for
// Foo<int>. Declared once at package scope since it is consulted on every
// class-like cursor during extraction.
var fullSpecializationUSR = regexp.MustCompile(`S@[^@]*>#`)

// LooksLikeFullSpecialization reports whether a USR matches the pattern
// libclang produces for explicit full specializations, the signal the
// parser worker uses to distinguish them from ordinary class declarations
// since both arrive as Cursor_ClassDecl/Cursor_StructDecl cursors.
func LooksLikeFullSpecialization(usr string) bool {
	return fullSpecializationUSR.MatchString(usr)
}

// NormalizeBaseClassName strips the "class "/"struct " elaborated-type
// prefixes libclang sometimes includes in a base-specifier's spelling and
// collapses internal whitespace, satisfying the base_classes invariant.
func NormalizeBaseClassName(name string) string {
	name = strings.TrimSpace(name)
	for _, prefix := range []string{"class ", "struct "} {
		if strings.HasPrefix(name, prefix) {
			name = name[len(prefix):]
			break
		}
	}
	fields := strings.Fields(name)
	return strings.Join(fields, " ")
}

// NormalizeBaseClasses applies NormalizeBaseClassName to an ordered list,
// preserving order and dropping entries that normalize to empty.
func NormalizeBaseClasses(names []string) []string {
	out := make([]string, 0, len(names))
	for _, n := range names {
		if norm := NormalizeBaseClassName(n); norm != "" {
			out = append(out, norm)
		}
	}
	return out
}

// MergeDefinitionWins merges two records for the same USR, preferring the
// one that carries a body. The merged record keeps the definition's file
// and line range and demotes the declaration's location into the
// header_* fields. If neither or both have a body (two forward
// declarations, or two definitions — which C++ forbids for one USR within
// a valid program), the first argument wins and its location is kept
// as-is; the second only fills fields the first left blank.
func MergeDefinitionWins(existing, incoming Symbol) Symbol {
	existingHasBody := existing.HasBody()
	incomingHasBody := incoming.HasBody()

	switch {
	case existingHasBody && !incomingHasBody:
		return mergeKeepingDefinition(existing, incoming)
	case incomingHasBody && !existingHasBody:
		return mergeKeepingDefinition(incoming, existing)
	default:
		// Either both or neither carry a body: keep the existing
		// location but let the incoming record fill in any fields the
		// existing one left blank (e.g. a forward decl seen before a
		// same-shape redeclaration that added documentation).
		merged := existing
		fillBlanks(&merged, incoming)
		return merged
	}
}

// mergeKeepingDefinition builds the merged Symbol with def's location as
// the primary location and decl's location recorded as the header_*
// fields, unless def already carries header fields (it was itself
// already a merge result).
func mergeKeepingDefinition(def, decl Symbol) Symbol {
	merged := def
	if merged.HeaderFile == "" {
		merged.HeaderFile = decl.File
		merged.HeaderLine = decl.Line
		merged.HeaderStartLine = decl.StartLine
		merged.HeaderEndLine = decl.EndLine
	}
	fillBlanks(&merged, decl)
	return merged
}

// fillBlanks copies documentation and template metadata from src into dst
// wherever dst left the field at its zero value, without touching
// location fields (those are owned by the definition-wins decision).
func fillBlanks(dst *Symbol, src Symbol) {
	if dst.Brief == "" {
		dst.Brief = src.Brief
	}
	if dst.DocComment == "" {
		dst.DocComment = src.DocComment
	}
	if dst.Signature == "" {
		dst.Signature = src.Signature
	}
	if len(dst.BaseClasses) == 0 {
		dst.BaseClasses = src.BaseClasses
	}
	if dst.QualifiedName == "" {
		dst.QualifiedName = src.QualifiedName
	}
	if !dst.IsTemplate && src.IsTemplate {
		dst.IsTemplate = src.IsTemplate
		dst.TemplateParameters = src.TemplateParameters
		dst.TemplateKind = src.TemplateKind
		dst.PrimaryTemplateUSR = src.PrimaryTemplateUSR
	}
}
