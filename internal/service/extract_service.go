package service

import (
	"bytes"
	"errors"
	"fmt"
	"html"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/ledongthuc/pdf"
	"github.com/nguyenthenguyen/docx"
	"github.com/nxquan/prepmate/config"
	"github.com/rs/zerolog/log"
)

var (
	ErrUnsupportedFileType = errors.New("unsupported resume file type")
	ErrExtractionFailed    = errors.New("failed to extract text from resume file")
)

// ResumeExtractor turns an uploaded resume file into plain text and owns
// the upload directory housekeeping.
type ResumeExtractor interface {
	ExtractText(path string, originalName string) (string, error)
	UploadDir() string
	// PruneUploads removes stored files older than the configured
	// retention window and reports how many were deleted.
	PruneUploads() (int, error)
}

type resumeExtractor struct {
	uploadDir string
	retention time.Duration
}

func NewResumeExtractor(cfg *config.Config) (ResumeExtractor, error) {
	if err := os.MkdirAll(cfg.Upload.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create upload directory %s: %w", cfg.Upload.Dir, err)
	}
	return &resumeExtractor{uploadDir: cfg.Upload.Dir, retention: cfg.Upload.Retention}, nil
}

func (e *resumeExtractor) UploadDir() string {
	return e.uploadDir
}

func (e *resumeExtractor) ExtractText(path string, originalName string) (string, error) {
	var (
		text string
		err  error
	)
	switch strings.ToLower(filepath.Ext(originalName)) {
	case ".pdf":
		text, err = extractPDF(path)
	case ".docx":
		text, err = extractDocx(path)
	case ".txt":
		var data []byte
		data, err = os.ReadFile(path)
		text = string(data)
	default:
		return "", ErrUnsupportedFileType
	}

	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrExtractionFailed, err)
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return "", fmt.Errorf("%w: file contained no extractable text", ErrExtractionFailed)
	}
	return text, nil
}

func (e *resumeExtractor) PruneUploads() (int, error) {
	entries, err := os.ReadDir(e.uploadDir)
	if err != nil {
		return 0, fmt.Errorf("failed to read upload directory: %w", err)
	}

	cutoff := time.Now().Add(-e.retention)
	removed := 0
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if info.ModTime().Before(cutoff) {
			if err := os.Remove(filepath.Join(e.uploadDir, entry.Name())); err != nil {
				log.Warn().Err(err).Str("file", entry.Name()).Msg("Failed to prune upload")
				continue
			}
			removed++
		}
	}
	if removed > 0 {
		log.Info().Int("removed", removed).Msg("Pruned expired resume uploads")
	}
	return removed, nil
}

func extractPDF(path string) (string, error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	reader, err := r.GetPlainText()
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if _, err := buf.ReadFrom(reader); err != nil {
		return "", err
	}
	return buf.String(), nil
}

var (
	docxParagraphPattern = regexp.MustCompile(`</w:p>`)
	docxTagPattern       = regexp.MustCompile(`<[^>]+>`)
)

func extractDocx(path string) (string, error) {
	r, err := docx.ReadDocxFile(path)
	if err != nil {
		return "", err
	}
	defer r.Close()

	// GetContent returns the raw document XML; keep paragraph breaks and
	// drop the rest of the markup.
	content := r.Editable().GetContent()
	content = docxParagraphPattern.ReplaceAllString(content, "\n")
	content = docxTagPattern.ReplaceAllString(content, "")
	return html.UnescapeString(content), nil
}
