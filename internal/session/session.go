// Package session runs one import: ingest files, fetch the target schema,
// propose a mapping, accept overrides, project and submit records.
package session

import (
	"context"
	"fmt"

	"github.com/nconklindev/sheetsync/internal/ingest"
	"github.com/nconklindev/sheetsync/internal/mapping"
	"github.com/nconklindev/sheetsync/internal/match"
	"github.com/nconklindev/sheetsync/internal/projector"
	"github.com/nconklindev/sheetsync/internal/types"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// FieldLister supplies the target table's fields.
type FieldLister interface {
	ListFields(ctx context.Context) ([]types.TargetField, error)
}

// RecordCreator submits projected records to the target table.
type RecordCreator interface {
	CreateRecords(ctx context.Context, records []types.ProjectedRecord) (int, error)
}

// SchemaFetchError wraps a failed field listing. The session carries on
// with an empty field list when it happens.
type SchemaFetchError struct {
	Err error
}

func (e *SchemaFetchError) Error() string { return "fetch schema: " + e.Err.Error() }

func (e *SchemaFetchError) Unwrap() error { return e.Err }

// Options configures Start.
type Options struct {
	Locations []string
	Load      ingest.Options
	Fields    FieldLister
	Logger    *zap.Logger
}

// Session is the state of one import.
type Session struct {
	ID          string
	Files       []string
	Rows        []types.SourceRow
	Columns     types.ColumnSet
	Fields      []types.TargetField
	Suggestions []match.Suggestion
	Warnings    []ingest.Warning
	// SchemaErr is set when the field list could not be fetched.
	SchemaErr error
	Mapping   *mapping.Store

	logger *zap.Logger
}

// Start loads the files and the field list concurrently, then seeds the
// mapping from the Auto-Mapper's suggestions.
func Start(ctx context.Context, opts Options) (*Session, error) {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	s := &Session{ID: uuid.NewString()}
	s.logger = logger.With(zap.String("session", s.ID))

	loadOpts := opts.Load
	loadOpts.Logger = s.logger

	var res ingest.Result
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		var err error
		res, err = ingest.LoadAndIngest(gctx, opts.Locations, loadOpts, s.warn)
		return err
	})
	g.Go(func() error {
		s.Fields, s.SchemaErr = fetchFields(gctx, opts.Fields)
		if s.SchemaErr != nil {
			s.logger.Warn("Field list unavailable, continuing without fields", zap.Error(s.SchemaErr))
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}

	s.Files = res.Files
	s.Rows = res.Rows
	s.Columns = res.Columns
	s.Suggestions = match.Suggest(s.Columns, s.Fields)
	s.Mapping = mapping.New(s.Columns)
	if err := s.Mapping.Seed(match.FromSuggestions(s.Suggestions)); err != nil {
		return nil, err
	}

	s.logger.Info("Session ready",
		zap.Int("files", len(s.Files)),
		zap.Int("rows", len(s.Rows)),
		zap.Int("columns", len(s.Columns)),
		zap.Int("fields", len(s.Fields)),
		zap.Int("mapped", s.Mapping.Len()),
		zap.Int("warnings", len(s.Warnings)),
	)
	return s, nil
}

func fetchFields(ctx context.Context, fl FieldLister) ([]types.TargetField, error) {
	if fl == nil {
		return nil, nil
	}
	fields, err := fl.ListFields(ctx)
	if err != nil {
		return nil, &SchemaFetchError{Err: err}
	}
	return fields, nil
}

func (s *Session) warn(w ingest.Warning) {
	s.Warnings = append(s.Warnings, w)
	s.logger.Warn("Skipping file", zap.String("file", w.File), zap.Error(w.Err))
}

// Suggestion returns the Auto-Mapper's verdict for column.
func (s *Session) Suggestion(column string) (match.Suggestion, bool) {
	for _, sg := range s.Suggestions {
		if sg.Column == column {
			return sg, true
		}
	}
	return match.Suggestion{}, false
}

// FieldName returns the display name of the field with id, or id itself
// when the field is not in the list.
func (s *Session) FieldName(id string) string {
	for _, f := range s.Fields {
		if f.ID == id {
			return f.Name
		}
	}
	return id
}

// Override assigns fieldID to column.
func (s *Session) Override(column, fieldID string) error {
	if err := s.Mapping.Set(column, fieldID); err != nil {
		return err
	}
	s.logger.Debug("Mapping overridden", zap.String("column", column), zap.String("field", fieldID))
	return nil
}

// Records projects every ingested row through the current mapping.
func (s *Session) Records() []types.ProjectedRecord {
	return projector.Project(s.Rows, s.Mapping.Mapping())
}

// Result summarises the session without submitting.
func (s *Session) Result() types.ImportResult {
	return types.ImportResult{
		SessionID:     s.ID,
		Files:         s.Files,
		ColumnsFound:  s.Columns,
		ColumnsMapped: s.Mapping.Len(),
		RowsProcessed: len(s.Rows),
		DryRun:        true,
	}
}

// Submit projects the rows and hands them to rc in a single call.
func (s *Session) Submit(ctx context.Context, rc RecordCreator) (types.ImportResult, error) {
	records := s.Records()
	res := s.Result()
	res.DryRun = false

	n, err := rc.CreateRecords(ctx, records)
	if err != nil {
		s.logger.Error("Submission failed", zap.Int("records", len(records)), zap.Error(err))
		return res, fmt.Errorf("submit %d records: %w", len(records), err)
	}

	res.RecordsCreated = n
	s.logger.Info("Submission complete", zap.Int("records", len(records)), zap.Int("created", n))
	return res, nil
}
