package app

import (
	"context"
	stderrors "errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"loadscript/internal/core/errors"
	"loadscript/internal/data/history"
	"loadscript/internal/engine/ir"
	"loadscript/internal/engine/passes"
	"loadscript/internal/output"
	"loadscript/internal/shared/observability"
)

// Convert decodes one test document and runs the pipeline over every
// scenario. With the fail-on-issues policy a converted document that has
// issues yields both its result and a VALIDATION_ERROR.
func (a *App) Convert(ctx context.Context, data []byte) (*passes.TestResult, error) {
	a.mu.RLock()
	pipeline := a.pipeline
	failOnIssues := a.Config.Policy.FailOnIssues
	a.mu.RUnlock()

	_, decodeSpan := observability.Tracer.Start(ctx, "ir.DecodeTest")
	test, err := ir.DecodeTest(data)
	endSpan(decodeSpan, err)
	if err != nil {
		return nil, err
	}

	label := strings.Join(pipeline.Names(), ",")
	_, passSpan := observability.Tracer.Start(ctx, "passes.ApplyToTest",
		trace.WithAttributes(attribute.String("pipeline", label)))
	started := time.Now()
	res, err := passes.ApplyToTest(pipeline, test)
	observability.PassDuration.WithLabelValues(label).Observe(time.Since(started).Seconds())
	if res != nil {
		passSpan.SetAttributes(
			attribute.Int("issues", len(res.Issues())),
			attribute.Int("rewrites", res.Rewrites()),
		)
	}
	endSpan(passSpan, err)
	if err != nil {
		return nil, err
	}

	for _, issue := range res.Issues() {
		observability.IssuesTotal.WithLabelValues(string(issue.Kind)).Inc()
	}
	observability.RewritesTotal.Add(float64(res.Rewrites()))
	observability.DeclarationsTracked.Set(float64(res.Declarations()))

	if n := len(res.Issues()); failOnIssues && n > 0 {
		return res, errors.New(errors.CodeValidationError, fmt.Sprintf("%d issue(s) found and policy.fail_on_issues is set", n))
	}
	return res, nil
}

// ConvertFile converts the document at path, writes its per-document
// report and records the run. Failures are carried in the returned
// Document, never returned.
func (a *App) ConvertFile(ctx context.Context, path string) output.Document {
	ctx, span := observability.Tracer.Start(ctx, "app.ConvertFile",
		trace.WithAttributes(attribute.String("path", path)))
	defer span.End()

	started := time.Now()
	doc := output.Document{Path: path}

	data, err := os.ReadFile(path)
	if err != nil {
		code := errors.CodeInternal
		if stderrors.Is(err, fs.ErrNotExist) {
			code = errors.CodeNotFound
		}
		doc.Err = errors.Wrap(err, code, "read test document")
	} else {
		doc.Result, doc.Err = a.Convert(ctx, data)
	}
	if doc.Err != nil {
		doc.Err = errors.AddContext(doc.Err, errors.CtxFile, path)
	}
	doc.Duration = time.Since(started)

	outcome := documentOutcome(doc)
	observability.ConversionDuration.WithLabelValues(outcome).Observe(doc.Duration.Seconds())
	observability.DocumentsTotal.WithLabelValues(outcome).Inc()

	if doc.Err != nil {
		span.RecordError(doc.Err)
		span.SetStatus(codes.Error, string(errors.CodeOf(doc.Err)))
		slog.Warn("conversion failed", "path", path, "code", errors.CodeOf(doc.Err), "error", doc.Err)
	} else {
		slog.Info("converted", "path", path, "issues", doc.IssueCount(), "rewrites", doc.Result.Rewrites(), "duration", doc.Duration)
	}

	a.mu.RLock()
	writer := a.writer
	a.mu.RUnlock()
	if written, err := writer.WriteDocument(doc); err != nil {
		slog.Error("failed to write report", "path", path, "error", err)
	} else {
		for _, p := range written {
			slog.Debug("wrote report", "path", p)
		}
	}

	a.record(doc)
	return doc
}

func documentOutcome(doc output.Document) string {
	switch {
	case doc.Err != nil && doc.Result != nil:
		return history.OutcomeRejected
	case doc.Err != nil:
		return history.OutcomeFailed
	case doc.IssueCount() > 0:
		return history.OutcomeIssues
	}
	return history.OutcomeOK
}

func (a *App) record(doc output.Document) {
	if a.history == nil {
		return
	}
	run := history.Run{
		Path:     doc.Path,
		Outcome:  documentOutcome(doc),
		Duration: doc.Duration,
	}
	if doc.Err != nil {
		run.Error = doc.Err.Error()
	}
	if doc.Result != nil {
		run.ScenarioCount = len(doc.Result.Scenarios)
		run.DeclarationCount = doc.Result.Declarations()
		run.IssueCount = doc.IssueCount()
		run.RewriteCount = doc.Result.Rewrites()
	}
	if _, err := a.history.Record(run); err != nil {
		observability.HistoryWriteErrorsTotal.Inc()
		slog.Warn("failed to record run", "path", doc.Path, "error", err)
	}
}

// Discover lists the documents below paths that match the input globs. With
// no paths the configured input paths are used.
func (a *App) Discover(paths []string) ([]string, error) {
	a.mu.RLock()
	matcher := a.matcher
	if len(paths) == 0 {
		paths = a.Config.Input.Paths
	}
	a.mu.RUnlock()
	if len(paths) == 0 {
		return nil, errors.New(errors.CodeValidationError, "no input paths given")
	}
	return matcher.Discover(paths)
}

// RunOnce converts every document found below paths, writes the batch
// reports and publishes an update. The error reports discovery or report
// writing problems; per-document failures are in the returned documents.
func (a *App) RunOnce(ctx context.Context, paths []string) ([]output.Document, error) {
	files, err := a.Discover(paths)
	if err != nil {
		return nil, err
	}
	slog.Info("converting documents", "count", len(files))

	docs := make([]output.Document, 0, len(files))
	for _, path := range files {
		if err := ctx.Err(); err != nil {
			return docs, err
		}
		docs = append(docs, a.ConvertFile(ctx, path))
	}
	a.remember(docs)

	a.mu.RLock()
	writer := a.writer
	a.mu.RUnlock()
	if _, err := writer.WriteBatch(docs); err != nil {
		return docs, fmt.Errorf("write batch reports: %w", err)
	}

	a.emitUpdate(Update{Documents: docs, Totals: output.Summarize(docs), Changed: files, At: time.Now().UTC()})
	return docs, nil
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
