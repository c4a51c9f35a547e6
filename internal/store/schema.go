package store

import "database/sql"

// migrations is the ordered list of schema steps applied to a fresh
// database. Each entry runs inside the same transaction as the ones
// before it; a failure midway rolls the whole migration back.
var migrations = []func(*sql.Tx) error{
	migration0001CreateSchema,
}

func (s *Store) ensureSchema() error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var version int
	row := tx.QueryRow(`SELECT value FROM cache_metadata WHERE key = 'schema_version'`)
	err = row.Scan(&version)
	if err != nil {
		// No cache_metadata table yet: fresh database, run every migration.
		version = 0
	}

	if version == CurrentSchemaVersion {
		return nil
	}
	if version != 0 {
		// Stored version is neither fresh (0) nor current: caller recreates.
		return errSchemaMismatch
	}

	for i, step := range migrations {
		if err := step(tx); err != nil {
			return err
		}
		_ = i
	}

	if _, err := tx.Exec(
		`INSERT INTO cache_metadata(key, value) VALUES ('schema_version', ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		CurrentSchemaVersion,
	); err != nil {
		return err
	}

	return tx.Commit()
}

var errSchemaMismatch = sqliteSchemaMismatch{}

type sqliteSchemaMismatch struct{}

func (sqliteSchemaMismatch) Error() string { return "cache schema version mismatch" }

func migration0001CreateSchema(tx *sql.Tx) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS cache_metadata (
			key   TEXT PRIMARY KEY,
			value TEXT NOT NULL
		)`,

		`CREATE TABLE IF NOT EXISTS file_metadata (
			path              TEXT PRIMARY KEY,
			hash              TEXT NOT NULL,
			compile_args_hash TEXT NOT NULL,
			indexed_at        INTEGER NOT NULL,
			symbol_count      INTEGER NOT NULL DEFAULT 0
		)`,

		`CREATE TABLE IF NOT EXISTS header_tracker (
			header_path           TEXT NOT NULL,
			processed_by          TEXT NOT NULL,
			file_hash             TEXT NOT NULL,
			compile_commands_hash TEXT NOT NULL,
			processed_at          INTEGER NOT NULL,
			PRIMARY KEY (header_path, compile_commands_hash)
		)`,

		`CREATE TABLE IF NOT EXISTS symbols (
			usr                   TEXT PRIMARY KEY,
			name                  TEXT NOT NULL,
			qualified_name        TEXT NOT NULL,
			kind                  TEXT NOT NULL,
			signature             TEXT NOT NULL DEFAULT '',
			is_project            INTEGER NOT NULL DEFAULT 1,
			namespace             TEXT NOT NULL DEFAULT '',
			access                TEXT NOT NULL DEFAULT '',
			parent_class          TEXT NOT NULL DEFAULT '',
			base_classes          TEXT NOT NULL DEFAULT '',
			file                  TEXT NOT NULL,
			line                  INTEGER NOT NULL DEFAULT 0,
			column                INTEGER NOT NULL DEFAULT 0,
			start_line            INTEGER NOT NULL DEFAULT 0,
			end_line              INTEGER NOT NULL DEFAULT 0,
			header_file           TEXT NOT NULL DEFAULT '',
			header_line           INTEGER NOT NULL DEFAULT 0,
			header_start_line     INTEGER NOT NULL DEFAULT 0,
			header_end_line       INTEGER NOT NULL DEFAULT 0,
			brief                 TEXT NOT NULL DEFAULT '',
			doc_comment           TEXT NOT NULL DEFAULT '',
			is_template           INTEGER NOT NULL DEFAULT 0,
			template_parameters   TEXT NOT NULL DEFAULT '',
			template_kind         TEXT NOT NULL DEFAULT '',
			primary_template_usr  TEXT NOT NULL DEFAULT ''
		)`,
		`CREATE INDEX IF NOT EXISTS idx_symbols_name ON symbols(name)`,
		`CREATE INDEX IF NOT EXISTS idx_symbols_kind ON symbols(kind)`,
		`CREATE INDEX IF NOT EXISTS idx_symbols_file ON symbols(file)`,
		`CREATE INDEX IF NOT EXISTS idx_symbols_parent_class ON symbols(parent_class)`,

		`CREATE VIRTUAL TABLE IF NOT EXISTS symbols_fts USING fts5(
			usr UNINDEXED, name, qualified_name,
			content='symbols', content_rowid='rowid'
		)`,
		`CREATE TRIGGER IF NOT EXISTS symbols_ai AFTER INSERT ON symbols BEGIN
			INSERT INTO symbols_fts(rowid, usr, name, qualified_name)
			VALUES (new.rowid, new.usr, new.name, new.qualified_name);
		END`,
		`CREATE TRIGGER IF NOT EXISTS symbols_ad AFTER DELETE ON symbols BEGIN
			INSERT INTO symbols_fts(symbols_fts, rowid, usr, name, qualified_name)
			VALUES ('delete', old.rowid, old.usr, old.name, old.qualified_name);
		END`,
		`CREATE TRIGGER IF NOT EXISTS symbols_au AFTER UPDATE ON symbols BEGIN
			INSERT INTO symbols_fts(symbols_fts, rowid, usr, name, qualified_name)
			VALUES ('delete', old.rowid, old.usr, old.name, old.qualified_name);
			INSERT INTO symbols_fts(rowid, usr, name, qualified_name)
			VALUES (new.rowid, new.usr, new.name, new.qualified_name);
		END`,

		`CREATE TABLE IF NOT EXISTS type_aliases (
			alias_name        TEXT NOT NULL,
			qualified_name    TEXT NOT NULL,
			target_type       TEXT NOT NULL,
			canonical_type    TEXT NOT NULL,
			namespace         TEXT NOT NULL DEFAULT '',
			alias_kind        TEXT NOT NULL,
			is_template_alias INTEGER NOT NULL DEFAULT 0,
			file              TEXT NOT NULL,
			line              INTEGER NOT NULL DEFAULT 0,
			column            INTEGER NOT NULL DEFAULT 0,
			PRIMARY KEY (qualified_name, file, line)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_type_aliases_file ON type_aliases(file)`,
		`CREATE INDEX IF NOT EXISTS idx_type_aliases_alias_name ON type_aliases(alias_name)`,
		`CREATE INDEX IF NOT EXISTS idx_type_aliases_canonical_type ON type_aliases(canonical_type)`,

		`CREATE TABLE IF NOT EXISTS call_sites (
			caller_usr TEXT NOT NULL,
			callee_usr TEXT NOT NULL,
			file       TEXT NOT NULL,
			line       INTEGER NOT NULL,
			column     INTEGER NOT NULL,
			PRIMARY KEY (caller_usr, callee_usr, file, line, column)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_call_sites_caller ON call_sites(caller_usr)`,
		`CREATE INDEX IF NOT EXISTS idx_call_sites_callee ON call_sites(callee_usr)`,
		`CREATE INDEX IF NOT EXISTS idx_call_sites_file ON call_sites(file)`,

		`CREATE TABLE IF NOT EXISTS parse_errors (
			id                INTEGER PRIMARY KEY AUTOINCREMENT,
			file_path         TEXT NOT NULL,
			error_kind        TEXT NOT NULL,
			message           TEXT NOT NULL,
			stack             TEXT NOT NULL DEFAULT '',
			file_hash         TEXT NOT NULL DEFAULT '',
			compile_args_hash TEXT NOT NULL DEFAULT '',
			retry_count       INTEGER NOT NULL DEFAULT 0,
			timestamp         INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_parse_errors_file ON parse_errors(file_path)`,
	}

	for _, stmt := range stmts {
		if _, err := tx.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}
