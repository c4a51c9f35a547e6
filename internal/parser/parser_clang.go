//go:build clang

// Parses translation units with libclang, mirroring the teacher's
// clang.go cursor-walk but extracting the cache's full symbol model
// (USR, extent, template metadata, documentation) instead of requirement
// tags.
package parser

import (
	"context"
	"strings"

	"github.com/go-clang/clang-v14/clang"

	"github.com/cxxindex/cxxindex/internal/discovery"
	"github.com/cxxindex/cxxindex/internal/symbols"
)

// clangParser owns one libclang index for its worker's lifetime.
type clangParser struct {
	index   clang.Index
	libPath string
}

// New creates an index-backed Parser. The go-clang binding links against
// the host's default libclang at build time, so libPath/searchTool can't
// redirect which library cgo calls reach; when libPath is empty and
// searchTool names a discovery tool, New still runs it so a
// misconfigured CXXINDEX_LIBCLANG_DISCOVERY_TOOL is reported here rather
// than surfacing as an opaque parse failure later, and the resolved path
// is kept to annotate parse errors.
func New(libPath, searchTool string) (Parser, error) {
	if libPath == "" {
		resolved, err := discovery.Path(searchTool)
		if err != nil {
			return nil, err
		}
		libPath = resolved
	}
	idx := clang.NewIndex(0, 0)
	return &clangParser{index: idx, libPath: libPath}, nil
}

func (p *clangParser) Close() error {
	p.index.Dispose()
	return nil
}

func (p *clangParser) Parse(ctx context.Context, req Request) (symbols.FileRecord, error) {
	rec := symbols.FileRecord{File: req.File}

	var tu clang.TranslationUnit
	clangErr := p.index.ParseTranslationUnit2(req.File, req.Argv, nil, clang.TranslationUnit_DetailedPreprocessingRecord, &tu)
	if clangErr != clang.Error_Success {
		rec.ParseErrors = append(rec.ParseErrors, symbols.ParseError{
			FilePath:        req.File,
			ErrorKind:       "parse_failure",
			Message:         p.annotatedError(clangErr),
			CompileArgsHash: req.CompileArgsHash,
		})
		return rec, nil
	}
	defer tu.Dispose()

	for _, d := range tu.Diagnostics() {
		if d.Severity() >= clang.Diagnostic_Error {
			rec.ParseErrors = append(rec.ParseErrors, symbols.ParseError{
				FilePath:        req.File,
				ErrorKind:       "diagnostic",
				Message:         d.Spelling(),
				CompileArgsHash: req.CompileArgsHash,
			})
		}
	}

	w := &walker{req: req, rec: &rec}
	w.walk(tu.TranslationUnitCursor())
	return rec, nil
}

// annotatedError reports which discovered libclang produced a failure,
// since a host with more than one libclang install makes that the first
// thing worth knowing.
func (p *clangParser) annotatedError(e clang.ErrorCode) string {
	msg := clangErrorMessage(e)
	if p.libPath == "" {
		return msg
	}
	return msg + " (libclang: " + p.libPath + ")"
}

func clangErrorMessage(e clang.ErrorCode) string {
	switch e {
	case clang.Error_Failure:
		return "generic libclang failure"
	case clang.Error_Crashed:
		return "libclang crashed while parsing"
	case clang.Error_InvalidArguments:
		return "invalid compiler arguments"
	case clang.Error_ASTReadError:
		return "AST deserialization failed"
	default:
		return "unknown libclang error"
	}
}

// walker carries per-file extraction state across the recursive cursor
// visit: which headers have already been claimed by another source file
// so their cursors are skipped (the spec's header-dedup rule).
type walker struct {
	req *Request
	rec *symbols.FileRecord
}

func (w *walker) walk(root clang.Cursor) {
	root.Visit(func(cursor, parent clang.Cursor) clang.ChildVisitResult {
		if cursor.IsNull() {
			return clang.ChildVisit_Continue
		}
		if w.shouldSkipHeaderCursor(cursor) {
			return clang.ChildVisit_Continue
		}

		switch cursor.Kind() {
		case clang.Cursor_ClassDecl, clang.Cursor_StructDecl:
			w.emitClassLike(cursor, symbols.KindClass, symbols.TemplateKind(""))
			if cursor.Kind() == clang.Cursor_StructDecl {
				w.rec.Symbols[len(w.rec.Symbols)-1].Kind = symbols.KindStruct
			}
			return clang.ChildVisit_Recurse

		case clang.Cursor_ClassTemplate:
			w.emitClassLike(cursor, symbols.KindClassTemplate, symbols.TemplateKindPrimary)
			return clang.ChildVisit_Recurse

		case clang.Cursor_ClassTemplatePartialSpecialization:
			w.emitClassLike(cursor, symbols.KindPartialSpecialization, symbols.TemplateKindPartialSpecialization)
			return clang.ChildVisit_Recurse

		case clang.Cursor_FunctionDecl, clang.Cursor_CXXMethod, clang.Cursor_Constructor, clang.Cursor_Destructor, clang.Cursor_ConversionFunction:
			w.emitFunctionLike(cursor, symbols.KindMethod, symbols.TemplateKind(""))
			if cursor.Kind() == clang.Cursor_FunctionDecl {
				w.rec.Symbols[len(w.rec.Symbols)-1].Kind = symbols.KindFunction
			}
			w.walkCallSites(cursor)

		case clang.Cursor_FunctionTemplate:
			w.emitFunctionLike(cursor, symbols.KindFunctionTemplate, symbols.TemplateKindPrimary)
			w.walkCallSites(cursor)

		case clang.Cursor_TypeAliasDecl:
			w.emitAlias(cursor, "using")

		case clang.Cursor_TypedefDecl:
			w.emitAlias(cursor, "typedef")

		case clang.Cursor_Namespace:
			return clang.ChildVisit_Recurse
		}

		return clang.ChildVisit_Continue
	})
}

// shouldSkipHeaderCursor implements the spec's header-claim rule: a
// cursor located in a header already processed (for the same compile-args
// hash) by a different source file is skipped here to avoid duplicate
// extraction work across translation units that share the header.
func (w *walker) shouldSkipHeaderCursor(cursor clang.Cursor) bool {
	file, _, _, _ := cursor.Location().FileLocation()
	path := file.FileName()
	if path == "" || path == w.req.File {
		return false
	}
	return w.req.HeaderAlreadyClaimed(path)
}

func (w *walker) emitClassLike(cursor clang.Cursor, kind symbols.Kind, templateKind symbols.TemplateKind) {
	sym := w.baseSymbol(cursor, kind)
	sym.BaseClasses = symbols.NormalizeBaseClasses(collectBaseClasses(cursor))
	sym.IsTemplate = templateKind != ""
	sym.TemplateKind = templateKind
	if templateKind == symbols.TemplateKindPartialSpecialization || symbols.LooksLikeFullSpecialization(sym.USR) {
		if symbols.LooksLikeFullSpecialization(sym.USR) && templateKind == "" {
			sym.TemplateKind = symbols.TemplateKindFullSpecialization
			sym.IsTemplate = true
		}
		primary := cursor.SpecializedCursorTemplate()
		if !primary.IsNull() {
			sym.PrimaryTemplateUSR = primary.USR()
		}
	}
	if templateKind != "" {
		sym.TemplateParameters = collectTemplateParameters(cursor)
	}
	appendFragment(w.rec, Fragment{Kind: classLikeCursorKind(kind), Symbol: sym})
}

func (w *walker) emitFunctionLike(cursor clang.Cursor, kind symbols.Kind, templateKind symbols.TemplateKind) {
	sym := w.baseSymbol(cursor, kind)
	sym.Signature = cursor.Type().Spelling()
	sym.IsTemplate = templateKind != ""
	sym.TemplateKind = templateKind
	primary := cursor.SpecializedCursorTemplate()
	specializesFunctionTemplate := !primary.IsNull() && primary.Kind() == clang.Cursor_FunctionTemplate
	if templateKind == "" && (symbols.LooksLikeFullSpecialization(sym.USR) || specializesFunctionTemplate) {
		sym.TemplateKind = symbols.TemplateKindFullSpecialization
		sym.IsTemplate = true
	}
	if sym.TemplateKind == symbols.TemplateKindFullSpecialization {
		if !primary.IsNull() {
			sym.PrimaryTemplateUSR = primary.USR()
		}
	}
	if templateKind != "" {
		sym.TemplateParameters = collectTemplateParameters(cursor)
	}
	parent := cursor.SemanticParent()
	if !parent.IsNull() && isRecordCursorKind(parent.Kind()) {
		sym.ParentClass = qualifiedName(parent)
	}
	appendFragment(w.rec, Fragment{Kind: functionLikeCursorKind(kind), Symbol: sym})
}

func classLikeCursorKind(kind symbols.Kind) CursorKind {
	switch kind {
	case symbols.KindStruct:
		return CursorStruct
	case symbols.KindClassTemplate:
		return CursorClassTemplate
	case symbols.KindPartialSpecialization:
		return CursorPartialSpecialization
	default:
		return CursorClass
	}
}

func functionLikeCursorKind(kind symbols.Kind) CursorKind {
	if kind == symbols.KindFunctionTemplate {
		return CursorFunctionTemplate
	}
	return CursorMethod
}

func (w *walker) emitAlias(cursor clang.Cursor, kind string) {
	alias := symbols.TypeAlias{
		AliasName:     cursor.Spelling(),
		QualifiedName: qualifiedName(cursor),
		AliasKind:     kind,
		Namespace:     namespaceOf(cursor),
		File:          w.req.File,
	}
	file, line, col, _ := cursor.Location().FileLocation()
	_ = file
	alias.Line = int(line)
	alias.Column = int(col)

	underlying := cursor.TypedefDeclUnderlyingType()
	alias.TargetType = underlying.Spelling()
	alias.CanonicalType = underlying.CanonicalType().Spelling()

	fragKind := CursorTypedefAlias
	if kind == "using" {
		fragKind = CursorUsingAlias
	}
	appendFragment(w.rec, Fragment{Kind: fragKind, Alias: alias})
}

// walkCallSites records a CallSite for each CALL_EXPR reachable from a
// function/method definition's body, resolved to the callee's USR.
func (w *walker) walkCallSites(defCursor clang.Cursor) {
	if defCursor.Definition().IsNull() {
		return // declaration only, no body to walk
	}
	callerUSR := defCursor.USR()

	defCursor.Visit(func(cursor, parent clang.Cursor) clang.ChildVisitResult {
		if cursor.Kind() == clang.Cursor_CallExpr {
			callee := cursor.Referenced()
			if !callee.IsNull() {
				file, line, col, _ := cursor.Location().FileLocation()
				w.rec.CallSites = append(w.rec.CallSites, symbols.CallSite{
					CallerUSR: callerUSR,
					CalleeUSR: callee.USR(),
					File:      file.FileName(),
					Line:      int(line),
					Column:    int(col),
				})
			}
		}
		return clang.ChildVisit_Recurse
	})
}

func (w *walker) baseSymbol(cursor clang.Cursor, kind symbols.Kind) symbols.Symbol {
	sym := symbols.Symbol{
		USR:           cursor.USR(),
		Name:          cursor.Spelling(),
		QualifiedName: qualifiedName(cursor),
		Kind:          kind,
		IsProject:     w.req.IsProject,
		Namespace:     namespaceOf(cursor),
		Access:        accessOf(cursor),
		File:          w.req.File,
	}

	file, line, col, _ := cursor.Location().FileLocation()
	_ = file
	sym.Line = int(line)
	sym.Column = int(col)

	start := cursor.Extent().Start()
	end := cursor.Extent().End()
	_, startLine, _, _ := start.FileLocation()
	_, endLine, _, _ := end.FileLocation()
	sym.StartLine = int(startLine)
	sym.EndLine = int(endLine)

	parent := cursor.SemanticParent()
	if isRecordKind(kind) {
		// leave ParentClass unset for top-level class-likes
	} else if !parent.IsNull() && isRecordCursorKind(parent.Kind()) {
		sym.ParentClass = qualifiedName(parent)
	}

	sym.Brief = symbols.TruncateBrief(cursor.BriefCommentText())
	sym.DocComment = symbols.TruncateDocComment(deriveDocComment(cursor))

	return sym
}

func deriveDocComment(cursor clang.Cursor) string {
	raw := cursor.RawCommentText()
	if raw != "" {
		return raw
	}
	return ""
}

func qualifiedName(cursor clang.Cursor) string {
	name := cursor.DisplayName()
	if name == "" {
		name = cursor.Spelling()
	}
	var parts []string
	for p := cursor.SemanticParent(); !p.IsNull() && isNamedScopeKind(p.Kind()); p = p.SemanticParent() {
		if p.Spelling() != "" {
			parts = append([]string{p.Spelling()}, parts...)
		}
	}
	if len(parts) == 0 {
		return name
	}
	return strings.Join(parts, "::") + "::" + name
}

func namespaceOf(cursor clang.Cursor) string {
	var parts []string
	for p := cursor.SemanticParent(); !p.IsNull(); p = p.SemanticParent() {
		if p.Kind() == clang.Cursor_Namespace && p.Spelling() != "" {
			parts = append([]string{p.Spelling()}, parts...)
		}
	}
	return strings.Join(parts, "::")
}

func accessOf(cursor clang.Cursor) symbols.Access {
	switch cursor.AccessSpecifier() {
	case clang.AccessSpecifier_Private:
		return symbols.AccessPrivate
	case clang.AccessSpecifier_Protected:
		return symbols.AccessProtected
	default:
		return symbols.AccessPublic
	}
}

func isRecordKind(k symbols.Kind) bool {
	switch k {
	case symbols.KindClass, symbols.KindStruct, symbols.KindClassTemplate, symbols.KindPartialSpecialization:
		return true
	}
	return false
}

func isRecordCursorKind(k clang.CursorKind) bool {
	switch k {
	case clang.Cursor_ClassDecl, clang.Cursor_StructDecl, clang.Cursor_ClassTemplate, clang.Cursor_ClassTemplatePartialSpecialization:
		return true
	}
	return false
}

func isNamedScopeKind(k clang.CursorKind) bool {
	return k == clang.Cursor_Namespace || isRecordCursorKind(k)
}

func collectBaseClasses(cursor clang.Cursor) []string {
	var bases []string
	cursor.Visit(func(c, _ clang.Cursor) clang.ChildVisitResult {
		if c.Kind() == clang.Cursor_CXXBaseSpecifier {
			bases = append(bases, c.Spelling())
		}
		return clang.ChildVisit_Continue
	})
	return bases
}

func collectTemplateParameters(cursor clang.Cursor) []symbols.TemplateParameter {
	var params []symbols.TemplateParameter
	cursor.Visit(func(c, _ clang.Cursor) clang.ChildVisitResult {
		var kind symbols.TemplateParamKind
		switch c.Kind() {
		case clang.Cursor_TemplateTypeParameter:
			kind = symbols.TemplateParamType
		case clang.Cursor_NonTypeTemplateParameter:
			kind = symbols.TemplateParamNonType
		case clang.Cursor_TemplateTemplateParameter:
			kind = symbols.TemplateParamTemplate
		default:
			return clang.ChildVisit_Continue
		}
		params = append(params, symbols.TemplateParameter{
			Name:       c.Spelling(),
			Kind:       kind,
			IsVariadic: c.IsVariadic(),
		})
		return clang.ChildVisit_Continue
	})
	return params
}
