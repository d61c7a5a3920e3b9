package health

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

const databaseItemID = "sqlite"

// Pinger verifies the database connection.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// RootDirLister lists the configured library root directories.
type RootDirLister interface {
	RootDirs(ctx context.Context) (int, []string, error)
}

// Checker runs the periodic health checks.
type Checker struct {
	service *Service
	db      Pinger
	roots   RootDirLister
}

// NewChecker creates a checker reporting into service.
func NewChecker(service *Service, db Pinger, roots RootDirLister) *Checker {
	return &Checker{service: service, db: db, roots: roots}
}

// Run checks the database and every root directory.
func (c *Checker) Run(ctx context.Context) error {
	if err := c.db.PingContext(ctx); err != nil {
		c.service.Set(CategoryDatabase, databaseItemID, "Database", StatusError, err.Error())
		return fmt.Errorf("database ping: %w", err)
	}
	c.service.Set(CategoryDatabase, databaseItemID, "Database", StatusOK, "")

	_, dirs, err := c.roots.RootDirs(ctx)
	if err != nil {
		return fmt.Errorf("list root dirs: %w", err)
	}

	for _, dir := range dirs {
		if ok, msg := CheckFolderHealth(dir); ok {
			c.service.Set(CategoryRootDirs, dir, dir, StatusOK, "")
		} else {
			c.service.Set(CategoryRootDirs, dir, dir, StatusError, msg)
		}
	}
	c.service.Retain(CategoryRootDirs, dirs)
	return nil
}

// CheckFolderAccessible verifies that a path exists and is a directory.
func CheckFolderAccessible(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("path does not exist: %s", path)
		}
		if os.IsPermission(err) {
			return fmt.Errorf("permission denied: %s", path)
		}
		return fmt.Errorf("cannot access path: %w", err)
	}

	if !info.IsDir() {
		return fmt.Errorf("path is not a directory: %s", path)
	}
	return nil
}

// CheckFolderWritable verifies that a directory is writable by creating and
// removing a temp file.
func CheckFolderWritable(path string) error {
	tempPath := filepath.Join(path, ".marquee_health_check_"+uuid.NewString()[:8])

	file, err := os.Create(tempPath)
	if err != nil {
		if os.IsPermission(err) {
			return fmt.Errorf("folder is read-only: %s", path)
		}
		return fmt.Errorf("cannot write to folder: %w", err)
	}
	if err := file.Close(); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("cannot close file: %w", err)
	}
	if err := os.Remove(tempPath); err != nil {
		return fmt.Errorf("cannot remove test file: %w", err)
	}
	return nil
}

// CheckFolderHealth combines the accessibility and writability checks.
func CheckFolderHealth(path string) (bool, string) {
	if err := CheckFolderAccessible(path); err != nil {
		return false, err.Error()
	}
	if err := CheckFolderWritable(path); err != nil {
		return false, err.Error()
	}
	return true, ""
}
