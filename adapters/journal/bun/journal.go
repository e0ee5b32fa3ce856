package journalbun

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/uptrace/bun"

	"github.com/docfold/go-docgen/docgen"
)

// Journal stores generation runs in a Bun-backed database. It implements
// docgen.RunJournal: one row per run, inserted when the run starts and
// updated when it completes or fails.
type Journal struct {
	DB          *bun.DB
	Now         func() time.Time
	IDGenerator func() string
}

// NewJournal creates a Bun-backed run journal.
func NewJournal(db *bun.DB) *Journal {
	return &Journal{DB: db, Now: time.Now, IDGenerator: defaultIDGenerator()}
}

// Init creates the journal table when it does not exist yet.
func (j *Journal) Init(ctx context.Context) error {
	if j == nil || j.DB == nil {
		return docgen.NewError(docgen.KindInternal, "journal database not configured", nil)
	}
	_, err := j.DB.NewCreateTable().Model((*runModel)(nil)).IfNotExists().Exec(ctx)
	return err
}

// Start inserts a new run record and returns its ID.
func (j *Journal) Start(ctx context.Context, rec docgen.RunRecord) (string, error) {
	if j == nil || j.DB == nil {
		return "", docgen.NewError(docgen.KindInternal, "journal database not configured", nil)
	}
	if rec.ID == "" {
		rec.ID = j.nextID()
	}
	if rec.State == "" {
		rec.State = docgen.RunStateQueued
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = j.now()
	}

	model := modelFromRun(rec)
	if _, err := j.DB.NewInsert().Model(&model).Exec(ctx); err != nil {
		return "", err
	}
	return rec.ID, nil
}

// Complete marks the run as completed and records the written output.
func (j *Journal) Complete(ctx context.Context, id string, outputPath string, bytes int64) error {
	if j == nil || j.DB == nil {
		return docgen.NewError(docgen.KindInternal, "journal database not configured", nil)
	}
	if id == "" {
		return docgen.NewError(docgen.KindValidation, "run ID is required", nil)
	}

	res, err := j.DB.NewUpdate().Model((*runModel)(nil)).
		Set("state = ?", docgen.RunStateCompleted).
		Set("output_path = ?", outputPath).
		Set("bytes_written = ?", bytes).
		Set("completed_at = COALESCE(completed_at, ?)", j.now()).
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return err
	}
	affected, _ := res.RowsAffected()
	if affected == 0 {
		return docgen.NewError(docgen.KindNotFound, fmt.Sprintf("run %q not found", id), nil)
	}
	return nil
}

// Fail marks the run as failed and records the cause.
func (j *Journal) Fail(ctx context.Context, id string, cause error) error {
	if j == nil || j.DB == nil {
		return docgen.NewError(docgen.KindInternal, "journal database not configured", nil)
	}
	if id == "" {
		return docgen.NewError(docgen.KindValidation, "run ID is required", nil)
	}

	msg := ""
	if cause != nil {
		msg = cause.Error()
	}
	res, err := j.DB.NewUpdate().Model((*runModel)(nil)).
		Set("state = ?", docgen.RunStateFailed).
		Set("error = ?", msg).
		Set("completed_at = COALESCE(completed_at, ?)", j.now()).
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return err
	}
	affected, _ := res.RowsAffected()
	if affected == 0 {
		return docgen.NewError(docgen.KindNotFound, fmt.Sprintf("run %q not found", id), nil)
	}
	return nil
}

// Status returns a run by ID.
func (j *Journal) Status(ctx context.Context, id string) (docgen.RunRecord, error) {
	if j == nil || j.DB == nil {
		return docgen.RunRecord{}, docgen.NewError(docgen.KindInternal, "journal database not configured", nil)
	}
	if id == "" {
		return docgen.RunRecord{}, docgen.NewError(docgen.KindValidation, "run ID is required", nil)
	}

	model := new(runModel)
	err := j.DB.NewSelect().Model(model).Where("id = ?", id).Limit(1).Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return docgen.RunRecord{}, docgen.NewError(docgen.KindNotFound, fmt.Sprintf("run %q not found", id), nil)
		}
		return docgen.RunRecord{}, err
	}
	return model.toRun(), nil
}

// List returns runs newest first. A limit of zero or less returns all.
func (j *Journal) List(ctx context.Context, limit int) ([]docgen.RunRecord, error) {
	if j == nil || j.DB == nil {
		return nil, docgen.NewError(docgen.KindInternal, "journal database not configured", nil)
	}

	models := make([]runModel, 0)
	query := j.DB.NewSelect().Model(&models).Order("created_at DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Scan(ctx); err != nil {
		return nil, err
	}

	runs := make([]docgen.RunRecord, 0, len(models))
	for _, model := range models {
		runs = append(runs, model.toRun())
	}
	return runs, nil
}

type runModel struct {
	bun.BaseModel `bun:"table:generation_runs,alias:generation_runs"`

	ID           string    `bun:",pk"`
	Dataset      string    `bun:",notnull"`
	Template     string    `bun:",notnull"`
	DocumentType string    `bun:"document_type"`
	Identifier   string    `bun:"identifier"`
	Filename     string    `bun:"filename"`
	OutputPath   string    `bun:"output_path"`
	State        string    `bun:",notnull"`
	Records      int64     `bun:"records"`
	Bytes        int64     `bun:"bytes_written"`
	Error        string    `bun:"error"`
	CreatedAt    time.Time `bun:"created_at"`
	CompletedAt  time.Time `bun:"completed_at,nullzero"`
}

func modelFromRun(rec docgen.RunRecord) runModel {
	return runModel{
		ID:           rec.ID,
		Dataset:      rec.Dataset,
		Template:     rec.Template,
		DocumentType: string(rec.DocumentType),
		Identifier:   rec.Identifier,
		Filename:     rec.Filename,
		OutputPath:   rec.OutputPath,
		State:        string(rec.State),
		Records:      int64(rec.Records),
		Bytes:        rec.Bytes,
		Error:        rec.Error,
		CreatedAt:    rec.CreatedAt,
		CompletedAt:  rec.CompletedAt,
	}
}

func (m runModel) toRun() docgen.RunRecord {
	return docgen.RunRecord{
		ID:           m.ID,
		Dataset:      m.Dataset,
		Template:     m.Template,
		DocumentType: docgen.DocumentType(m.DocumentType),
		Identifier:   m.Identifier,
		Filename:     m.Filename,
		OutputPath:   m.OutputPath,
		State:        docgen.RunState(m.State),
		Records:      int(m.Records),
		Bytes:        m.Bytes,
		Error:        m.Error,
		CreatedAt:    m.CreatedAt,
		CompletedAt:  m.CompletedAt,
	}
}

func (j *Journal) now() time.Time {
	if j.Now != nil {
		return j.Now()
	}
	return time.Now()
}

func (j *Journal) nextID() string {
	if j.IDGenerator != nil {
		return j.IDGenerator()
	}
	return defaultIDGenerator()()
}

func defaultIDGenerator() func() string {
	var counter uint64
	return func() string {
		id := atomic.AddUint64(&counter, 1)
		return fmt.Sprintf("run-%d", id)
	}
}
