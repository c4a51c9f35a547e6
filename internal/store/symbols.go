package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"strings"

	"github.com/cxxindex/cxxindex/internal/diagnostics"
	"github.com/cxxindex/cxxindex/internal/symbols"
)

// SaveSymbolsBatch replaces everything the cache knows about rec.File in a
// single transaction: its symbols, aliases, call sites, parse errors, and
// file-metadata row. The whole-file replace keeps stale rows from a
// previous parse (a deleted overload, a renamed class) from lingering.
func (s *Store) SaveSymbolsBatch(ctx context.Context, rec symbols.FileRecord, meta symbols.FileMetadata) error {
	return withBusyRetry(ctx, func() error {
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return diagnostics.Wrap(diagnostics.StoreIO, err, "beginning save transaction")
		}
		defer tx.Rollback()

		if err := deleteFileRows(tx, rec.File); err != nil {
			return err
		}
		if err := insertSymbols(tx, rec.Symbols); err != nil {
			return err
		}
		if err := insertAliases(tx, rec.Aliases); err != nil {
			return err
		}
		if err := insertCallSites(tx, rec.CallSites); err != nil {
			return err
		}
		if err := insertParseErrors(tx, rec.ParseErrors); err != nil {
			return err
		}
		if err := upsertFileMetadata(tx, meta); err != nil {
			return err
		}

		if err := tx.Commit(); err != nil {
			return diagnostics.Wrap(diagnostics.StoreIO, err, "committing save transaction")
		}
		return nil
	})
}

// UpdateFileSymbols is an alias for SaveSymbolsBatch used by the refresh
// path, where the semantics (whole-file replace) are identical to an
// initial index.
func (s *Store) UpdateFileSymbols(ctx context.Context, rec symbols.FileRecord, meta symbols.FileMetadata) error {
	return s.SaveSymbolsBatch(ctx, rec, meta)
}

func deleteFileRows(tx *sql.Tx, file string) error {
	stmts := []struct {
		query string
		args  []any
	}{
		{`DELETE FROM symbols WHERE file = ?`, []any{file}},
		{`DELETE FROM type_aliases WHERE file = ?`, []any{file}},
		{`DELETE FROM call_sites WHERE file = ?`, []any{file}},
		{`DELETE FROM parse_errors WHERE file_path = ?`, []any{file}},
	}
	for _, st := range stmts {
		if _, err := tx.Exec(st.query, st.args...); err != nil {
			return diagnostics.Wrap(diagnostics.StoreIO, err, "clearing previous rows for %s", file)
		}
	}
	return nil
}

func insertSymbols(tx *sql.Tx, rows []symbols.Symbol) error {
	stmt, err := tx.Prepare(`
		INSERT INTO symbols (
			usr, name, qualified_name, kind, signature, is_project, namespace, access,
			parent_class, base_classes, file, line, column, start_line, end_line,
			header_file, header_line, header_start_line, header_end_line,
			brief, doc_comment, is_template, template_parameters, template_kind, primary_template_usr
		) VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)
		ON CONFLICT(usr) DO UPDATE SET
			name=excluded.name, qualified_name=excluded.qualified_name, kind=excluded.kind,
			signature=excluded.signature, is_project=excluded.is_project, namespace=excluded.namespace,
			access=excluded.access, parent_class=excluded.parent_class, base_classes=excluded.base_classes,
			file=excluded.file, line=excluded.line, column=excluded.column,
			start_line=excluded.start_line, end_line=excluded.end_line,
			header_file=excluded.header_file, header_line=excluded.header_line,
			header_start_line=excluded.header_start_line, header_end_line=excluded.header_end_line,
			brief=excluded.brief, doc_comment=excluded.doc_comment,
			is_template=excluded.is_template, template_parameters=excluded.template_parameters,
			template_kind=excluded.template_kind, primary_template_usr=excluded.primary_template_usr
	`)
	if err != nil {
		return diagnostics.Wrap(diagnostics.StoreIO, err, "preparing symbol upsert")
	}
	defer stmt.Close()

	for _, sym := range rows {
		params, err := json.Marshal(sym.TemplateParameters)
		if err != nil {
			return diagnostics.Wrap(diagnostics.StoreIO, err, "encoding template parameters for %s", sym.USR)
		}
		_, err = stmt.Exec(
			sym.USR, sym.Name, sym.QualifiedName, string(sym.Kind), sym.Signature, boolToInt(sym.IsProject),
			sym.Namespace, string(sym.Access), sym.ParentClass, strings.Join(sym.BaseClasses, "\x1f"),
			sym.File, sym.Line, sym.Column, sym.StartLine, sym.EndLine,
			sym.HeaderFile, sym.HeaderLine, sym.HeaderStartLine, sym.HeaderEndLine,
			symbols.TruncateBrief(sym.Brief), symbols.TruncateDocComment(sym.DocComment),
			boolToInt(sym.IsTemplate), string(params), string(sym.TemplateKind), sym.PrimaryTemplateUSR,
		)
		if err != nil {
			return diagnostics.Wrap(diagnostics.StoreIO, err, "upserting symbol %s", sym.USR)
		}
	}
	return nil
}

func insertAliases(tx *sql.Tx, rows []symbols.TypeAlias) error {
	stmt, err := tx.Prepare(`
		INSERT INTO type_aliases (
			alias_name, qualified_name, target_type, canonical_type, namespace,
			alias_kind, is_template_alias, file, line, column
		) VALUES (?,?,?,?,?,?,?,?,?,?)
		ON CONFLICT(qualified_name, file, line) DO UPDATE SET
			alias_name=excluded.alias_name, target_type=excluded.target_type,
			canonical_type=excluded.canonical_type, namespace=excluded.namespace,
			alias_kind=excluded.alias_kind, is_template_alias=excluded.is_template_alias,
			column=excluded.column
	`)
	if err != nil {
		return diagnostics.Wrap(diagnostics.StoreIO, err, "preparing alias upsert")
	}
	defer stmt.Close()

	for _, a := range rows {
		_, err := stmt.Exec(
			a.AliasName, a.QualifiedName, a.TargetType, a.CanonicalType, a.Namespace,
			a.AliasKind, boolToInt(a.IsTemplateAlias), a.File, a.Line, a.Column,
		)
		if err != nil {
			return diagnostics.Wrap(diagnostics.StoreIO, err, "upserting alias %s", a.QualifiedName)
		}
	}
	return nil
}

func insertCallSites(tx *sql.Tx, rows []symbols.CallSite) error {
	stmt, err := tx.Prepare(`
		INSERT OR IGNORE INTO call_sites (caller_usr, callee_usr, file, line, column)
		VALUES (?,?,?,?,?)
	`)
	if err != nil {
		return diagnostics.Wrap(diagnostics.StoreIO, err, "preparing call site insert")
	}
	defer stmt.Close()

	for _, c := range rows {
		if _, err := stmt.Exec(c.CallerUSR, c.CalleeUSR, c.File, c.Line, c.Column); err != nil {
			return diagnostics.Wrap(diagnostics.StoreIO, err, "inserting call site %s->%s", c.CallerUSR, c.CalleeUSR)
		}
	}
	return nil
}

func insertParseErrors(tx *sql.Tx, rows []symbols.ParseError) error {
	stmt, err := tx.Prepare(`
		INSERT INTO parse_errors (
			file_path, error_kind, message, stack, file_hash, compile_args_hash, retry_count, timestamp
		) VALUES (?,?,?,?,?,?,?,?)
	`)
	if err != nil {
		return diagnostics.Wrap(diagnostics.StoreIO, err, "preparing parse error insert")
	}
	defer stmt.Close()

	for _, pe := range rows {
		_, err := stmt.Exec(pe.FilePath, pe.ErrorKind, pe.Message, pe.Stack, pe.FileHash, pe.CompileArgsHash, pe.RetryCount, pe.Timestamp)
		if err != nil {
			return diagnostics.Wrap(diagnostics.StoreIO, err, "inserting parse error for %s", pe.FilePath)
		}
	}
	return nil
}

// DeleteFile removes every row associated with file — symbols, aliases,
// call sites, parse errors, and its file_metadata row — used by refresh
// when a previously-indexed file has been deleted from disk.
func (s *Store) DeleteFile(ctx context.Context, file string) error {
	return withBusyRetry(ctx, func() error {
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return diagnostics.Wrap(diagnostics.StoreIO, err, "beginning delete transaction")
		}
		defer tx.Rollback()

		if err := deleteFileRows(tx, file); err != nil {
			return err
		}
		if _, err := tx.Exec(`DELETE FROM file_metadata WHERE path = ?`, file); err != nil {
			return diagnostics.Wrap(diagnostics.StoreIO, err, "deleting file metadata for %s", file)
		}
		if err := tx.Commit(); err != nil {
			return diagnostics.Wrap(diagnostics.StoreIO, err, "committing delete transaction")
		}
		return nil
	})
}

func upsertFileMetadata(tx *sql.Tx, m symbols.FileMetadata) error {
	_, err := tx.Exec(`
		INSERT INTO file_metadata (path, hash, compile_args_hash, indexed_at, symbol_count)
		VALUES (?,?,?,?,?)
		ON CONFLICT(path) DO UPDATE SET
			hash=excluded.hash, compile_args_hash=excluded.compile_args_hash,
			indexed_at=excluded.indexed_at, symbol_count=excluded.symbol_count
	`, m.Path, m.Hash, m.CompileArgsHash, m.IndexedAt, m.SymbolCount)
	if err != nil {
		return diagnostics.Wrap(diagnostics.StoreIO, err, "upserting file metadata for %s", m.Path)
	}
	return nil
}

// FileMetadataFor returns the cached validity row for path, if any.
func (s *Store) FileMetadataFor(path string) (symbols.FileMetadata, bool, error) {
	var m symbols.FileMetadata
	row := s.db.QueryRow(`SELECT path, hash, compile_args_hash, indexed_at, symbol_count FROM file_metadata WHERE path = ?`, path)
	err := row.Scan(&m.Path, &m.Hash, &m.CompileArgsHash, &m.IndexedAt, &m.SymbolCount)
	if err == sql.ErrNoRows {
		return symbols.FileMetadata{}, false, nil
	}
	if err != nil {
		return symbols.FileMetadata{}, false, diagnostics.Wrap(diagnostics.StoreIO, err, "reading file metadata for %s", path)
	}
	return m, true, nil
}

// HeaderRecordFor returns the tracked processing record for a header under
// the given compile-commands hash, if any.
func (s *Store) HeaderRecordFor(headerPath, compileCommandsHash string) (symbols.HeaderRecord, bool, error) {
	var h symbols.HeaderRecord
	row := s.db.QueryRow(`
		SELECT header_path, processed_by, file_hash, compile_commands_hash, processed_at
		FROM header_tracker WHERE header_path = ? AND compile_commands_hash = ?`,
		headerPath, compileCommandsHash)
	err := row.Scan(&h.HeaderPath, &h.ProcessedBy, &h.FileHash, &h.CompileCommandsHash, &h.ProcessedAt)
	if err == sql.ErrNoRows {
		return symbols.HeaderRecord{}, false, nil
	}
	if err != nil {
		return symbols.HeaderRecord{}, false, diagnostics.Wrap(diagnostics.StoreIO, err, "reading header record for %s", headerPath)
	}
	return h, true, nil
}

// RecordHeaderProcessed upserts a header-tracker row inside its own
// transaction — called once per header the parser claims while walking a
// translation unit.
func (s *Store) RecordHeaderProcessed(ctx context.Context, rec symbols.HeaderRecord) error {
	return withBusyRetry(ctx, func() error {
		_, err := s.db.ExecContext(ctx, `
			INSERT INTO header_tracker (header_path, processed_by, file_hash, compile_commands_hash, processed_at)
			VALUES (?,?,?,?,?)
			ON CONFLICT(header_path, compile_commands_hash) DO UPDATE SET
				processed_by=excluded.processed_by, file_hash=excluded.file_hash, processed_at=excluded.processed_at
		`, rec.HeaderPath, rec.ProcessedBy, rec.FileHash, rec.CompileCommandsHash, rec.ProcessedAt)
		if err != nil {
			return diagnostics.Wrap(diagnostics.StoreIO, err, "recording header processed for %s", rec.HeaderPath)
		}
		return nil
	})
}

// LoadSymbolsByName returns every symbol whose unqualified name matches
// exactly.
func (s *Store) LoadSymbolsByName(name string) ([]symbols.Symbol, error) {
	return s.querySymbols(`SELECT `+symbolColumns+` FROM symbols WHERE name = ? ORDER BY qualified_name`, name)
}

// LoadSymbolByUSR returns the single symbol row for usr, if present.
func (s *Store) LoadSymbolByUSR(usr string) (symbols.Symbol, bool, error) {
	rows, err := s.querySymbols(`SELECT `+symbolColumns+` FROM symbols WHERE usr = ?`, usr)
	if err != nil || len(rows) == 0 {
		return symbols.Symbol{}, false, err
	}
	return rows[0], true, nil
}

// LoadSymbolsInFile returns every symbol recorded against path, ordered by
// source position.
func (s *Store) LoadSymbolsInFile(path string) ([]symbols.Symbol, error) {
	return s.querySymbols(`SELECT `+symbolColumns+` FROM symbols WHERE file = ? ORDER BY line, column`, path)
}

// LoadSymbolsByParentClass returns every member symbol of parentClass,
// ordered by line.
func (s *Store) LoadSymbolsByParentClass(parentClass string) ([]symbols.Symbol, error) {
	return s.querySymbols(`SELECT `+symbolColumns+` FROM symbols WHERE parent_class = ? ORDER BY line`, parentClass)
}

const symbolColumns = `
	usr, name, qualified_name, kind, signature, is_project, namespace, access,
	parent_class, base_classes, file, line, column, start_line, end_line,
	header_file, header_line, header_start_line, header_end_line,
	brief, doc_comment, is_template, template_parameters, template_kind, primary_template_usr`

func (s *Store) querySymbols(query string, args ...any) ([]symbols.Symbol, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, diagnostics.Wrap(diagnostics.StoreIO, err, "querying symbols")
	}
	defer rows.Close()

	var out []symbols.Symbol
	for rows.Next() {
		sym, err := scanSymbol(rows)
		if err != nil {
			return nil, diagnostics.Wrap(diagnostics.StoreIO, err, "scanning symbol row")
		}
		out = append(out, sym)
	}
	return out, rows.Err()
}

func scanSymbol(rows *sql.Rows) (symbols.Symbol, error) {
	var sym symbols.Symbol
	var isProject, isTemplate int
	var kind, access, templateKind, baseClasses, templateParams string

	err := rows.Scan(
		&sym.USR, &sym.Name, &sym.QualifiedName, &kind, &sym.Signature, &isProject, &sym.Namespace, &access,
		&sym.ParentClass, &baseClasses, &sym.File, &sym.Line, &sym.Column, &sym.StartLine, &sym.EndLine,
		&sym.HeaderFile, &sym.HeaderLine, &sym.HeaderStartLine, &sym.HeaderEndLine,
		&sym.Brief, &sym.DocComment, &isTemplate, &templateParams, &templateKind, &sym.PrimaryTemplateUSR,
	)
	if err != nil {
		return symbols.Symbol{}, err
	}

	sym.Kind = symbols.Kind(kind)
	sym.Access = symbols.Access(access)
	sym.TemplateKind = symbols.TemplateKind(templateKind)
	sym.IsProject = isProject != 0
	sym.IsTemplate = isTemplate != 0
	if baseClasses != "" {
		sym.BaseClasses = strings.Split(baseClasses, "\x1f")
	}
	if templateParams != "" && templateParams != "null" {
		_ = json.Unmarshal([]byte(templateParams), &sym.TemplateParameters)
	}
	return sym, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
