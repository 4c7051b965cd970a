// =============================================================================
// Expense to Invoice Converter - File Manager Utility
// =============================================================================
//
// File management utilities shared by the commands and the receipt locator:
//   - Input export discovery
//   - Archival of processed exports
//   - Copy/move primitives that survive cross-device renames
//
// ARCHIVAL STRATEGY:
//   - Input exports are moved to the input archive after successful
//     processing; failed exports remain in place for another attempt.
//   - Output files are never archived automatically; the output directory
//     is the upload staging area.
//
// =============================================================================

package utils

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// =============================================================================
// FILE MANAGER
// =============================================================================

// FileManager handles file discovery and archival for the converter.
type FileManager struct {
	// InputDir is scanned for expense exports.
	InputDir string

	// InputArchiveDir receives successfully processed exports.
	InputArchiveDir string
}

// NewFileManager creates a FileManager over the configured directories.
func NewFileManager(inputDir, inputArchiveDir string) *FileManager {
	return &FileManager{
		InputDir:        inputDir,
		InputArchiveDir: inputArchiveDir,
	}
}

// DiscoverInputFiles returns the expense exports in the input directory,
// newest first so the file most likely wanted comes up first in listings.
func (fm *FileManager) DiscoverInputFiles() ([]string, error) {
	entries, err := os.ReadDir(fm.InputDir)
	if err != nil {
		return nil, fmt.Errorf("failed to scan input directory: %w", err)
	}

	var files []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(entry.Name())) {
		case ".csv", ".xlsx":
			files = append(files, filepath.Join(fm.InputDir, entry.Name()))
		}
	}

	sort.Slice(files, func(i, j int) bool {
		return FileModTime(files[i]).After(FileModTime(files[j]))
	})

	return files, nil
}

// ArchiveInputFile moves a processed export into the archive directory and
// returns the archived path.
func (fm *FileManager) ArchiveInputFile(filePath string) (string, error) {
	if err := os.MkdirAll(fm.InputArchiveDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create archive directory: %w", err)
	}

	archivePath := filepath.Join(fm.InputArchiveDir, filepath.Base(filePath))
	if err := MoveFile(filePath, archivePath); err != nil {
		return "", fmt.Errorf("failed to archive input file: %w", err)
	}

	return archivePath, nil
}

// =============================================================================
// COPY / MOVE PRIMITIVES
// =============================================================================

// CopyFile copies a file from src to dst, syncing the destination.
func CopyFile(src, dst string) error {
	sourceFile, err := os.Open(src)
	if err != nil {
		return err
	}
	defer sourceFile.Close()

	destFile, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer destFile.Close()

	if _, err := io.Copy(destFile, sourceFile); err != nil {
		return err
	}

	return destFile.Sync()
}

// MoveFile renames src to dst, falling back to copy-and-delete when the
// rename crosses filesystems (download folder and output directory are
// often on different mounts).
func MoveFile(src, dst string) error {
	if err := os.Rename(src, dst); err == nil {
		return nil
	}

	if err := CopyFile(src, dst); err != nil {
		return err
	}
	return os.Remove(src)
}

// FileExists checks if a file exists.
func FileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// FileModTime returns the modification time of a file, or the zero time
// when it cannot be stat'ed.
func FileModTime(path string) time.Time {
	info, err := os.Stat(path)
	if err != nil {
		return time.Time{}
	}
	return info.ModTime()
}
