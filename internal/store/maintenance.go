package store

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/cxxindex/cxxindex/internal/diagnostics"
)

// HealthStatus summarizes the cache's physical condition for
// get_health_status.
type HealthStatus struct {
	Healthy       bool   `json:"healthy"`
	SchemaVersion int    `json:"schemaVersion"`
	SizeBytes     int64  `json:"sizeBytes"`
	HumanSize     string `json:"humanSize"`
	IntegrityMsg  string `json:"integrityMessage"`
}

// CacheStats is the summary returned by get_cache_stats.
type CacheStats struct {
	SymbolCount   int    `json:"symbolCount"`
	FileCount     int    `json:"fileCount"`
	CallSiteCount int    `json:"callSiteCount"`
	AliasCount    int    `json:"aliasCount"`
	SizeBytes     int64  `json:"sizeBytes"`
	HumanSize     string `json:"humanSize"`
}

// Vacuum rebuilds the database file, reclaiming space left by deleted
// rows. Expensive; callers run it outside the hot indexing path.
func (s *Store) Vacuum() error {
	if _, err := s.db.Exec(`VACUUM`); err != nil {
		return diagnostics.Wrap(diagnostics.StoreIO, err, "vacuuming cache database")
	}
	return nil
}

// Analyze refreshes the query planner's statistics tables.
func (s *Store) Analyze() error {
	if _, err := s.db.Exec(`ANALYZE`); err != nil {
		return diagnostics.Wrap(diagnostics.StoreIO, err, "analyzing cache database")
	}
	return nil
}

// Optimize runs SQLite's incremental PRAGMA optimize, the cheap
// maintenance step recommended after a batch of writes.
func (s *Store) Optimize() error {
	if _, err := s.db.Exec(`PRAGMA optimize`); err != nil {
		return diagnostics.Wrap(diagnostics.StoreIO, err, "optimizing cache database")
	}
	return nil
}

// CheckIntegrity runs SQLite's built-in integrity check and returns its
// verdict string ("ok" when healthy).
func (s *Store) CheckIntegrity() (string, error) {
	var msg string
	if err := s.db.QueryRow(`PRAGMA integrity_check`).Scan(&msg); err != nil {
		return "", diagnostics.Wrap(diagnostics.StoreCorrupt, err, "running integrity check")
	}
	return msg, nil
}

// GetHealthStatus reports the cache's schema version, on-disk size, and
// integrity verdict in one call.
func (s *Store) GetHealthStatus() (HealthStatus, error) {
	msg, err := s.CheckIntegrity()
	if err != nil {
		return HealthStatus{}, err
	}

	size, err := fileSize(s.path)
	if err != nil {
		return HealthStatus{}, diagnostics.Wrap(diagnostics.StoreIO, err, "statting cache file")
	}

	return HealthStatus{
		Healthy:       msg == "ok",
		SchemaVersion: CurrentSchemaVersion,
		SizeBytes:     size,
		HumanSize:     humanize.Bytes(uint64(size)),
		IntegrityMsg:  msg,
	}, nil
}

// GetCacheStats summarizes row counts and on-disk footprint for the
// status/diagnostics surface.
func (s *Store) GetCacheStats() (CacheStats, error) {
	var stats CacheStats
	counts := []struct {
		query string
		dest  *int
	}{
		{`SELECT COUNT(*) FROM symbols`, &stats.SymbolCount},
		{`SELECT COUNT(*) FROM file_metadata`, &stats.FileCount},
		{`SELECT COUNT(*) FROM call_sites`, &stats.CallSiteCount},
		{`SELECT COUNT(*) FROM type_aliases`, &stats.AliasCount},
	}
	for _, c := range counts {
		if err := s.db.QueryRow(c.query).Scan(c.dest); err != nil {
			return CacheStats{}, diagnostics.Wrap(diagnostics.StoreIO, err, "counting rows for cache stats")
		}
	}

	size, err := fileSize(s.path)
	if err != nil {
		return CacheStats{}, diagnostics.Wrap(diagnostics.StoreIO, err, "statting cache file")
	}
	stats.SizeBytes = size
	stats.HumanSize = humanize.Bytes(uint64(size))
	return stats, nil
}

// AutoMaintenance runs the lightweight maintenance steps (optimize,
// analyze) that are safe to run on every coordinator idle tick, and the
// heavier vacuum only when the database file is at least thresholdBytes
// in size.
func (s *Store) AutoMaintenance(thresholdBytes int64) error {
	if err := s.Optimize(); err != nil {
		return err
	}
	if err := s.Analyze(); err != nil {
		return err
	}

	size, err := fileSize(s.path)
	if err != nil {
		return diagnostics.Wrap(diagnostics.StoreIO, err, "statting cache file for auto maintenance")
	}
	if size >= thresholdBytes {
		return s.Vacuum()
	}
	return nil
}

// Backup checkpoints the WAL into the main database file and copies that
// file (the WAL/SHM siblings are not copied) to destDir, timestamped so
// repeated backups don't collide.
func (s *Store) Backup(destDir string) (string, error) {
	if _, err := s.db.Exec(`PRAGMA wal_checkpoint(TRUNCATE)`); err != nil {
		return "", diagnostics.Wrap(diagnostics.StoreIO, err, "checkpointing before backup")
	}
	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return "", diagnostics.Wrap(diagnostics.StoreIO, err, "creating backup directory")
	}

	dest := filepath.Join(destDir, fmt.Sprintf("symbols-%s.db", time.Now().UTC().Format("20060102T150405Z")))
	if err := copyFile(s.path, dest); err != nil {
		return "", diagnostics.Wrap(diagnostics.StoreIO, err, "copying cache database to backup")
	}
	return dest, nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()

	_, err = io.Copy(out, in)
	return err
}

func fileSize(path string) (int64, error) {
	info, err := os.Stat(path)
	if err != nil {
		return 0, err
	}
	return info.Size(), nil
}
