// Package output renders conversion results as JSON reports, SARIF logs and
// plain text summaries.
package output

import (
	"path/filepath"
	"strings"
	"time"

	"loadscript/internal/engine/passes"
)

// Document is the outcome of converting one test document. Err is set when
// conversion failed. Result is set whenever the pipeline ran, including
// when a policy rejected the converted document afterwards.
type Document struct {
	Path     string
	Result   *passes.TestResult
	Err      error
	Duration time.Duration
}

func (d Document) Failed() bool {
	return d.Err != nil
}

func (d Document) IssueCount() int {
	if d.Result == nil {
		return 0
	}
	return len(d.Result.Issues())
}

// reportName derives a flat, collision-free file stem from a document path
// relative to root: "tests/api/login.json" becomes "tests__api__login".
func reportName(root, path string) string {
	rel := relativeURI(root, path)
	rel = strings.TrimPrefix(rel, "./")
	rel = strings.TrimSuffix(rel, filepath.Ext(rel))
	rel = strings.ReplaceAll(rel, "../", "")
	return strings.ReplaceAll(rel, "/", "__")
}

// relativeURI converts an absolute file path to a forward-slash relative URI
// anchored at root. If the path is already relative or root is empty, the
// original path (with forward slashes) is returned.
func relativeURI(root, path string) string {
	if root != "" && filepath.IsAbs(path) {
		rel, err := filepath.Rel(root, path)
		if err == nil {
			path = rel
		}
	}
	return filepath.ToSlash(path)
}
