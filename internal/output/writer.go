package output

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const (
	FormatJSON  = "json"
	FormatSARIF = "sarif"
	FormatText  = "text"

	sarifFile   = "loadscript.sarif"
	summaryFile = "summary.txt"
)

// Writer writes reports for converted documents into Dir. Root anchors the
// relative paths used in report names and URIs.
type Writer struct {
	Dir     string
	Root    string
	Formats []string
}

func (w *Writer) enabled(format string) bool {
	for _, f := range w.Formats {
		if strings.EqualFold(strings.TrimSpace(f), format) {
			return true
		}
	}
	return false
}

// WriteDocument writes the per-document JSON report and returns the paths
// written. Failed documents produce no per-document report.
func (w *Writer) WriteDocument(doc Document) ([]string, error) {
	if !w.enabled(FormatJSON) || doc.Result == nil {
		return nil, nil
	}
	data, err := GenerateJSON(w.Root, doc)
	if err != nil {
		return nil, err
	}
	path := filepath.Join(w.Dir, reportName(w.Root, doc.Path)+".report.json")
	if err := writeAtomic(path, data); err != nil {
		return nil, err
	}
	return []string{path}, nil
}

// WriteBatch writes the SARIF log and text summary covering docs.
func (w *Writer) WriteBatch(docs []Document) ([]string, error) {
	var written []string
	if w.enabled(FormatSARIF) {
		data, err := GenerateSARIF(w.Root, docs)
		if err != nil {
			return written, err
		}
		path := filepath.Join(w.Dir, sarifFile)
		if err := writeAtomic(path, data); err != nil {
			return written, err
		}
		written = append(written, path)
	}
	if w.enabled(FormatText) {
		path := filepath.Join(w.Dir, summaryFile)
		if err := writeAtomic(path, []byte(GenerateText(w.Root, docs))); err != nil {
			return written, err
		}
		written = append(written, path)
	}
	return written, nil
}

// writeAtomic replaces path via a temp file in the same directory so that
// readers never observe a partial report.
func writeAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create output directory %q: %w", dir, err)
	}
	tmp, err := os.CreateTemp(dir, ".loadscript-report-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file for %q: %w", path, err)
	}
	tmpName := tmp.Name()

	writeErr := error(nil)
	if _, err := tmp.Write(data); err != nil {
		writeErr = fmt.Errorf("write temp report %q: %w", tmpName, err)
	}
	if err := tmp.Close(); err != nil && writeErr == nil {
		writeErr = fmt.Errorf("close temp report %q: %w", tmpName, err)
	}
	if writeErr != nil {
		_ = os.Remove(tmpName)
		return writeErr
	}

	if err := os.Rename(tmpName, path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("replace report %q: %w", path, err)
	}
	return nil
}
