package storage

import (
	"fmt"
	"os"
)

// SQLiteFiles returns the database file at dbPath followed by its WAL and
// shared-memory sidecars. An in-memory database has no files.
func SQLiteFiles(dbPath string) []string {
	if dbPath == "" || isMemoryPath(dbPath) {
		return nil
	}
	return []string{dbPath, dbPath + "-wal", dbPath + "-shm"}
}

// DiskUsageBytes returns the summed size of the given files. Missing files
// count as zero, since SQLite creates its sidecars lazily.
func DiskUsageBytes(paths ...string) (int64, error) {
	var total int64
	for _, p := range paths {
		info, err := os.Stat(p)
		if os.IsNotExist(err) {
			continue
		}
		if err != nil {
			return 0, err
		}
		if info.IsDir() {
			return 0, fmt.Errorf("disk usage: %s is a directory", p)
		}
		total += info.Size()
	}
	return total, nil
}
