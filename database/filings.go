package database

import (
	"context"
	stdsql "database/sql"
	"fmt"
	"log"
	"time"

	"github.com/amiralpert/SmartReach-sub000/helper"
	"github.com/amiralpert/SmartReach-sub000/model"
	"github.com/amiralpert/SmartReach-sub000/sql"
	"github.com/lib/pq"
)

// FilingsDBHandlerFunctions defines the interface for filing queue database operations.
type FilingsDBHandlerFunctions interface {
	InsertFiling(filing *model.Filing) error
	SelectFiling(accessionNumber string) (*model.Filing, error)
	SelectUnprocessedFilings(limit int, denylist []string) ([]*model.Filing, error)
	MarkFilingProcessed(accessionNumber string) (*model.Filing, error)
	DeleteFiling(accessionNumber string) error
}

// FilingsDBHandler handles filing queue database operations
type FilingsDBHandler struct {
	db *helper.Database
}

// NewFilingsDBHandler creates a new filings database handler.
// It initializes the database connection and loads filing-related SQL functions.
// If force is true, it will reload the SQL functions even if they already exist.
func NewFilingsDBHandler(db *helper.Database, force bool) (*FilingsDBHandler, error) {
	if db == nil {
		return nil, helper.NewError("database connection validation", fmt.Errorf("database connection is nil"))
	}

	filingsDbHandler := &FilingsDBHandler{
		db: db,
	}

	err := sql.LoadFilingsSql(filingsDbHandler.db.Instance, force)
	if err != nil {
		return nil, helper.NewError("load filings sql", err)
	}

	err = filingsDbHandler.CreateTable()
	if err != nil {
		return nil, helper.NewError("create table", err)
	}

	db.Logger.Info("Initialized FilingsDBHandler")

	return filingsDbHandler, nil
}

// CreateTable creates the 'sec_filings' table in the database.
// If the table already exists, it does not create it again.
// It also creates all necessary indexes.
func (h *FilingsDBHandler) CreateTable() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_, err := h.db.Instance.ExecContext(ctx, `SELECT init_filings();`)
	if err != nil {
		log.Panicf("error initializing sec_filings table: %#v", err)
	}

	h.db.Logger.Info("Checked/created table sec_filings")

	return nil
}

// InsertFiling enqueues a filing for processing. If the accession number is
// already known, the existing row is kept and its metadata refreshed.
func (h *FilingsDBHandler) InsertFiling(filing *model.Filing) error {
	row := h.db.Instance.QueryRow(
		`SELECT * FROM insert_filing($1, $2, $3, $4, $5)`,
		filing.AccessionNumber,
		filing.CompanyDomain,
		filing.FilingType,
		filing.FilingDate,
		filing.Metadata,
	)

	err := scanFiling(row, filing)
	if err != nil {
		return helper.NewError("scan", err)
	}

	return nil
}

// SelectFiling retrieves a filing by accession number
func (h *FilingsDBHandler) SelectFiling(accessionNumber string) (*model.Filing, error) {
	filing := &model.Filing{}
	row := h.db.Instance.QueryRow(
		`SELECT * FROM select_filing($1)`,
		accessionNumber,
	)

	err := scanFiling(row, filing)
	if err != nil {
		return nil, helper.NewError("scan", err)
	}

	return filing, nil
}

// SelectUnprocessedFilings retrieves queued filings oldest first. Denylisted
// accession numbers are excluded before the limit applies, so a permanently
// skipped filing never occupies a fetch slot.
func (h *FilingsDBHandler) SelectUnprocessedFilings(limit int, denylist []string) ([]*model.Filing, error) {
	rows, err := h.db.Instance.Query(
		`SELECT * FROM select_unprocessed_filings($1, $2)`,
		limit,
		pq.Array(denylist),
	)
	if err != nil {
		return nil, helper.NewError("query", err)
	}
	defer rows.Close()

	return scanFilings(rows)
}

// MarkFilingProcessed marks a filing as processed and stamps the time
func (h *FilingsDBHandler) MarkFilingProcessed(accessionNumber string) (*model.Filing, error) {
	filing := &model.Filing{}
	row := h.db.Instance.QueryRow(
		`SELECT * FROM mark_filing_processed($1)`,
		accessionNumber,
	)

	err := scanFiling(row, filing)
	if err != nil {
		return nil, helper.NewError("scan", err)
	}

	return filing, nil
}

// DeleteFiling deletes a filing by accession number
func (h *FilingsDBHandler) DeleteFiling(accessionNumber string) error {
	_, err := h.db.Instance.Exec(
		`SELECT delete_filing($1)`,
		accessionNumber,
	)
	if err != nil {
		return helper.NewError("exec", err)
	}
	return nil
}

func scanFiling(row rowScanner, filing *model.Filing) error {
	return row.Scan(
		&filing.ID,
		&filing.AccessionNumber,
		&filing.CompanyDomain,
		&filing.FilingType,
		&filing.FilingDate,
		&filing.Processed,
		&filing.ProcessedAt,
		&filing.Metadata,
		&filing.CreatedAt,
	)
}

func scanFilings(rows *stdsql.Rows) ([]*model.Filing, error) {
	var filings []*model.Filing
	for rows.Next() {
		filing := &model.Filing{}
		err := scanFiling(rows, filing)
		if err != nil {
			return nil, helper.NewError("scan", err)
		}

		filings = append(filings, filing)
	}

	err := rows.Err()
	if err != nil {
		return nil, helper.NewError("rows error", err)
	}

	return filings, nil
}
