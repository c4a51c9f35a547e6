// Package symbols defines the data model extracted from translation units:
// Symbol, TypeAlias, CallSite, and the bookkeeping rows (FileMetadata,
// HeaderRecord, ParseError) that let the coordinator decide what needs
// re-parsing. It also owns the definition-wins merge rule and the other
// normalization invariants that keep a Store snapshot internally
// consistent.
package symbols

// Kind enumerates the cursor kinds the parser worker extracts into Symbol
// rows. Declared as a string type so it round-trips through JSON and the
// SQLite `kind` column without a lookup table.
type Kind string

const (
	KindClass                Kind = "class"
	KindStruct               Kind = "struct"
	KindFunction             Kind = "function"
	KindMethod               Kind = "method"
	KindClassTemplate        Kind = "class_template"
	KindPartialSpecialization Kind = "partial_specialization"
	KindFunctionTemplate      Kind = "function_template"
	KindUsing                Kind = "using"
	KindTypedef              Kind = "typedef"
)

// Access mirrors the C++ access specifiers relevant to a Symbol.
type Access string

const (
	AccessPublic    Access = "public"
	AccessPrivate   Access = "private"
	AccessProtected Access = "protected"
)

// TemplateKind distinguishes a template's role in a specialization family.
type TemplateKind string

const (
	TemplateKindPrimary             TemplateKind = "primary"
	TemplateKindFullSpecialization   TemplateKind = "full_specialization"
	TemplateKindPartialSpecialization TemplateKind = "partial_specialization"
)

// TemplateParamKind classifies one entry of a template parameter list.
type TemplateParamKind string

const (
	TemplateParamType     TemplateParamKind = "type"
	TemplateParamNonType  TemplateParamKind = "non_type"
	TemplateParamTemplate TemplateParamKind = "template"
)

// TemplateParameter is one ordered entry of Symbol.TemplateParameters.
type TemplateParameter struct {
	Name       string            `json:"name"`
	Kind       TemplateParamKind `json:"kind"`
	IsVariadic bool              `json:"isVariadic"`
}

// MaxBriefLen and MaxDocCommentLen bound the documentation fields per the
// cache's size invariants; truncation always leaves the literal "..." as
// the final three characters so length is exactly the bound.
const (
	MaxBriefLen      = 200
	MaxDocCommentLen = 4000
)

// Symbol represents one extracted declaration or definition, identified
// across translation units by USR.
type Symbol struct {
	USR              string `json:"usr"`
	Name             string `json:"name"`
	QualifiedName    string `json:"qualifiedName"`
	Kind             Kind   `json:"kind"`
	Signature        string `json:"signature"`
	IsProject        bool   `json:"isProject"`
	Namespace        string `json:"namespace"`
	Access           Access `json:"access"`
	ParentClass      string `json:"parentClass,omitempty"`
	BaseClasses      []string `json:"baseClasses,omitempty"`

	File      string `json:"file"`
	Line      int    `json:"line"`
	Column    int    `json:"column"`
	StartLine int    `json:"startLine"`
	EndLine   int    `json:"endLine"`

	HeaderFile      string `json:"headerFile,omitempty"`
	HeaderLine      int    `json:"headerLine,omitempty"`
	HeaderStartLine int    `json:"headerStartLine,omitempty"`
	HeaderEndLine   int    `json:"headerEndLine,omitempty"`

	Brief       string `json:"brief,omitempty"`
	DocComment  string `json:"docComment,omitempty"`

	IsTemplate          bool                `json:"isTemplate"`
	TemplateParameters  []TemplateParameter `json:"templateParameters,omitempty"`
	TemplateKind        TemplateKind        `json:"templateKind,omitempty"`
	PrimaryTemplateUSR  string              `json:"primaryTemplateUsr,omitempty"`
}

// HasBody reports whether this record carries a definition's extent (more
// than one line and the defining cursor's span) rather than a bare
// declaration. Used by the definition-wins merge.
func (s *Symbol) HasBody() bool {
	return s.EndLine > s.StartLine && s.StartLine > 0
}

// TypeAlias represents a `using` or `typedef` declaration.
type TypeAlias struct {
	AliasName       string `json:"aliasName"`
	QualifiedName   string `json:"qualifiedName"`
	TargetType      string `json:"targetType"`
	CanonicalType   string `json:"canonicalType"`
	Namespace       string `json:"namespace"`
	AliasKind       string `json:"aliasKind"` // "using" | "typedef"
	IsTemplateAlias bool   `json:"isTemplateAlias"`

	File   string `json:"file"`
	Line   int    `json:"line"`
	Column int    `json:"column"`
}

// CallSite is a directed edge from a caller symbol to a callee symbol.
type CallSite struct {
	CallerUSR string `json:"callerUsr"`
	CalleeUSR string `json:"calleeUsr"`
	File      string `json:"file"`
	Line      int    `json:"line"`
	Column    int    `json:"column"`
}

// FileMetadata is the per-file cache-validity row.
type FileMetadata struct {
	Path            string `json:"path"`
	Hash            string `json:"hash"`
	CompileArgsHash string `json:"compileArgsHash"`
	IndexedAt       int64  `json:"indexedAt"` // unix seconds, stamped by caller
	SymbolCount     int    `json:"symbolCount"`
}

// HeaderRecord tracks which source file first processed a header under
// which compile-args hash, so that later translation units that merely
// include the same unchanged header don't re-extract it.
type HeaderRecord struct {
	HeaderPath          string `json:"headerPath"`
	ProcessedBy         string `json:"processedBy"`
	FileHash            string `json:"fileHash"`
	CompileCommandsHash string `json:"compileCommandsHash"`
	ProcessedAt         int64  `json:"processedAt"`
}

// ParseError is one row of the parse-error log.
type ParseError struct {
	ID              int64  `json:"id,omitempty"`
	FilePath        string `json:"filePath"`
	ErrorKind       string `json:"errorKind"`
	Message         string `json:"message"`
	Stack           string `json:"stack,omitempty"`
	FileHash        string `json:"fileHash"`
	CompileArgsHash string `json:"compileArgsHash"`
	RetryCount      int    `json:"retryCount"`
	Timestamp       int64  `json:"timestamp"`
}

// Progress is the snapshot returned by get_indexing_status.
type Progress struct {
	TotalFiles   int    `json:"totalFiles"`
	IndexedFiles int    `json:"indexedFiles"`
	FailedFiles  int    `json:"failedFiles"`
	CacheHits    int    `json:"cacheHits"`
	CurrentFile  string `json:"currentFile,omitempty"`
	StartTime    int64  `json:"startTime"`
	RunID        string `json:"runId,omitempty"`
}

// AnalyzerState is the coordinator's tagged state.
type AnalyzerState string

const (
	StateUninitialized  AnalyzerState = "uninitialized"
	StateLoadingCache    AnalyzerState = "loading_cache"
	StateReadyFromCache  AnalyzerState = "ready_from_cache"
	StateIndexing        AnalyzerState = "indexing"
	StateIndexed         AnalyzerState = "indexed"
	StateError           AnalyzerState = "error"
)

// FileRecord is the unit of work a Parser Worker produces for one file.
type FileRecord struct {
	File        string
	Symbols     []Symbol
	Aliases     []TypeAlias
	CallSites   []CallSite
	ParseErrors []ParseError
}

// TruncateBrief enforces the ≤200-char bound, appending "..." as the final
// three characters when truncation occurs.
func TruncateBrief(s string) string {
	return truncate(s, MaxBriefLen)
}

// TruncateDocComment enforces the ≤4000-char bound with the same rule.
func TruncateDocComment(s string) string {
	return truncate(s, MaxDocCommentLen)
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	if max < 3 {
		return s[:max]
	}
	return s[:max-3] + "..."
}
