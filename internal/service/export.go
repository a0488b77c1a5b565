package service

import (
	"archive/zip"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/jask/signalfromnoise/internal/database/repository"
)

var (
	// ErrNoFiles rejects an export with an empty selection.
	ErrNoFiles = errors.New("no files selected")
	// ErrMissingFiles rejects an export naming ids the catalog does not hold.
	ErrMissingFiles = errors.New("selected files not found")
)

// ExportService writes production zips.
type ExportService struct {
	Files *repository.FileRepo
	Dir   string
	// Now is overridable for tests; nil means time.Now.
	Now func() time.Time
	Log *slog.Logger
}

// Manifest is written as manifest.json into every zip.
type Manifest struct {
	ExportID            string    `json:"export_id"`
	ProductionRequestID int64     `json:"production_request_id"`
	CreatedAt           time.Time `json:"created_at"`
	FileCount           int       `json:"file_count"`
	TotalSize           int64     `json:"total_size"`
	Files               []string  `json:"files"`
}

func (s *ExportService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// CreateZip archives the metadata of the given files as
// <request>_<yyyymmdd_hhmmss>.zip in Dir and returns its path. The zip is
// written under a temporary name and renamed once complete.
func (s *ExportService) CreateZip(ctx context.Context, requestID int64, ids []int64) (string, error) {
	if len(ids) == 0 {
		return "", ErrNoFiles
	}
	files, err := s.Files.GetByIDs(ctx, ids)
	if err != nil {
		return "", fmt.Errorf("load files: %w", err)
	}
	if missing := len(uniqueIDs(ids)) - len(files); missing > 0 {
		return "", fmt.Errorf("%w: %d of %d", ErrMissingFiles, missing, len(uniqueIDs(ids)))
	}
	if err := os.MkdirAll(s.Dir, 0o755); err != nil {
		return "", fmt.Errorf("create export dir: %w", err)
	}

	created := s.now()
	name := fmt.Sprintf("%d_%s.zip", requestID, created.Format("20060102_150405"))
	final := filepath.Join(s.Dir, name)
	tmp, err := os.CreateTemp(s.Dir, name+".*.tmp")
	if err != nil {
		return "", fmt.Errorf("create zip: %w", err)
	}
	defer os.Remove(tmp.Name())

	manifest := Manifest{
		ExportID:            uuid.NewString(),
		ProductionRequestID: requestID,
		CreatedAt:           created.UTC(),
		FileCount:           len(files),
	}
	zw := zip.NewWriter(tmp)
	for _, f := range files {
		if err := ctx.Err(); err != nil {
			tmp.Close()
			return "", err
		}
		w, err := zw.Create(f.Path)
		if err != nil {
			tmp.Close()
			return "", fmt.Errorf("zip entry %s: %w", f.Path, err)
		}
		if _, err := w.Write([]byte(fileMetadata(f))); err != nil {
			tmp.Close()
			return "", fmt.Errorf("write zip entry %s: %w", f.Path, err)
		}
		manifest.TotalSize += f.Size
		manifest.Files = append(manifest.Files, f.Path)
	}
	w, err := zw.Create("manifest.json")
	if err == nil {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		err = enc.Encode(manifest)
	}
	if err == nil {
		err = zw.Close()
	}
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return "", fmt.Errorf("write zip: %w", err)
	}
	if err := os.Rename(tmp.Name(), final); err != nil {
		return "", fmt.Errorf("finalize zip: %w", err)
	}
	if s.Log != nil {
		s.Log.Info("created zip", "path", final, "files", len(files), "bytes", manifest.TotalSize, "export_id", manifest.ExportID)
	}
	return final, nil
}

func fileMetadata(f repository.File) string {
	return fmt.Sprintf("File: %s\nDirectory: %s\nCategory: %s\nDate: %s\nSize: %d bytes\nPrivileged: %v\nDuplicate Hash: %s\n",
		f.FileName, f.Directory, f.Category, f.Date.Format(time.RFC3339), f.Size, f.Privileged, f.DuplicateHash)
}

func uniqueIDs(ids []int64) map[int64]struct{} {
	out := make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		out[id] = struct{}{}
	}
	return out
}
