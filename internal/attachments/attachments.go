// Package attachments manages the physical storage of source documents
// linked to transactions. Files are filed under a category/subcategory
// directory tree; metadata lives in the transaction store and is managed
// independently of the files so one missing side never blocks the other.
package attachments

import (
	"context"
	"fmt"
	"io"
	"mime"
	"os"
	"path/filepath"
	"strings"
	"time"

	"mlaurent/scanledger/internal/logging"
	"mlaurent/scanledger/internal/models"
	"mlaurent/scanledger/internal/parsererror"
	"mlaurent/scanledger/internal/txstore"
)

// Service files attachments and keeps their metadata in sync.
type Service struct {
	store   *txstore.Store
	baseDir string
	log     logging.Logger
	now     func() time.Time
}

// NewService creates a service storing files under baseDir.
func NewService(store *txstore.Store, baseDir string, log logging.Logger) *Service {
	if log == nil {
		log = logging.GetLogger()
	}
	return &Service{store: store, baseDir: baseDir, log: log, now: time.Now}
}

// Attach moves the file at sourcePath into the tree under the transaction's
// category and records its metadata. The stored name is timestamped and
// de-duplicated so repeated scans of same-named receipts never collide.
func (s *Service) Attach(ctx context.Context, transactionID int64, sourcePath string) (*models.Attachment, error) {
	if _, err := os.Stat(sourcePath); err != nil {
		if os.IsNotExist(err) {
			return nil, &parsererror.NotFoundError{Path: sourcePath}
		}
		return nil, err
	}

	tx, err := s.store.GetTransaction(ctx, transactionID)
	if err != nil {
		return nil, err
	}

	destDir := filepath.Join(s.baseDir, slug(tx.Category))
	if tx.Subcategory != "" {
		destDir = filepath.Join(destDir, slug(tx.Subcategory))
	}
	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating attachment directory: %w", err)
	}

	destPath, err := s.uniqueDest(destDir, filepath.Base(sourcePath))
	if err != nil {
		return nil, err
	}
	if err := moveFile(sourcePath, destPath); err != nil {
		return nil, fmt.Errorf("storing attachment: %w", err)
	}

	info, err := os.Stat(destPath)
	if err != nil {
		return nil, err
	}

	att := &models.Attachment{
		TransactionID: transactionID,
		FileName:      filepath.Base(sourcePath),
		StoredPath:    destPath,
		ContentType:   mime.TypeByExtension(filepath.Ext(sourcePath)),
		SizeBytes:     info.Size(),
	}
	if _, err := s.store.AddAttachment(ctx, att); err != nil {
		return nil, err
	}

	s.log.Info("attachment stored",
		logging.Field{Key: logging.FieldFile, Value: destPath},
		logging.Field{Key: logging.FieldCategory, Value: tx.Category})
	return att, nil
}

// Delete removes the metadata row and, when removeFile is set, the stored
// file. A file already gone is logged, not an error.
func (s *Service) Delete(ctx context.Context, id int64, removeFile bool) error {
	att, err := s.store.GetAttachment(ctx, id)
	if err != nil {
		return err
	}

	if err := s.store.DeleteAttachment(ctx, id); err != nil {
		return err
	}

	if removeFile {
		if err := os.Remove(att.StoredPath); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("removing attachment file: %w", err)
		} else if os.IsNotExist(err) {
			s.log.Warn("attachment file already missing",
				logging.Field{Key: logging.FieldFile, Value: att.StoredPath})
		}
	}
	return nil
}

// FindFile returns the stored path of an attachment, verifying the file is
// still there.
func (s *Service) FindFile(ctx context.Context, id int64) (string, error) {
	att, err := s.store.GetAttachment(ctx, id)
	if err != nil {
		return "", err
	}
	if _, err := os.Stat(att.StoredPath); err != nil {
		if os.IsNotExist(err) {
			return "", &parsererror.NotFoundError{Path: att.StoredPath}
		}
		return "", err
	}
	return att.StoredPath, nil
}

// uniqueDest builds a timestamped destination name, suffixing a counter
// until it does not collide.
func (s *Service) uniqueDest(dir, name string) (string, error) {
	ext := filepath.Ext(name)
	base := strings.TrimSuffix(name, ext)
	stamp := s.now().Format("20060102-150405")

	candidate := filepath.Join(dir, fmt.Sprintf("%s_%s%s", stamp, base, ext))
	for i := 1; ; i++ {
		if _, err := os.Stat(candidate); os.IsNotExist(err) {
			return candidate, nil
		} else if err != nil && !os.IsNotExist(err) {
			return "", err
		}
		candidate = filepath.Join(dir, fmt.Sprintf("%s_%s_%d%s", stamp, base, i, ext))
	}
}

// moveFile renames, falling back to copy-and-remove across filesystems.
func moveFile(src, dst string) error {
	if err := os.Rename(src, dst); err == nil {
		return nil
	}

	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		os.Remove(dst)
		return err
	}
	if err := out.Close(); err != nil {
		return err
	}
	return os.Remove(src)
}

// slug makes a category name safe for use as a directory component.
func slug(name string) string {
	cleaned := strings.ToLower(strings.TrimSpace(name))
	cleaned = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			return r
		case r == ' ', r == '-', r == '_':
			return '-'
		}
		return -1
	}, cleaned)
	if cleaned == "" {
		return "misc"
	}
	return cleaned
}
