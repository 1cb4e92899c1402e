package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/goccy/go-json"

	"github.com/kibunbook/kibun-server/internal/catalog"
)

// bookColumns is the ordered list of columns selected in book queries.
// Must match the scan order in scanRecord.
const bookColumns = `id, isbn, title, authors, publisher, publish_year,
	summary, ndc, subjects, cover_image, page_count, detail_url`

// Name implements catalog.Source.
func (s *Store) Name() string {
	return "sqlite:" + s.path
}

// Records implements catalog.Source. Records come back in import order.
func (s *Store) Records(ctx context.Context) ([]catalog.Record, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+bookColumns+` FROM books ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("query books: %w", err)
	}
	defer rows.Close()

	var records []catalog.Record
	index := make(map[string]int)
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan book: %w", err)
		}
		index[rec.ID] = len(records)
		records = append(records, *rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate books: %w", err)
	}

	if err := s.attachHoldings(ctx, records, index); err != nil {
		return nil, err
	}
	if records == nil {
		records = []catalog.Record{}
	}
	return records, nil
}

// scanRecord scans a sql.Row (or sql.Rows via its Scan method) into a catalog.Record.
func scanRecord(scanner interface{ Scan(dest ...any) error }) (*catalog.Record, error) {
	var (
		r          catalog.Record
		isbn       sql.NullString
		authors    string
		publisher  sql.NullString
		year       sql.NullInt64
		summary    sql.NullString
		ndc        sql.NullString
		subjects   string
		coverImage sql.NullString
		pages      sql.NullInt64
		detailURL  sql.NullString
	)

	err := scanner.Scan(
		&r.ID,
		&isbn,
		&r.Title,
		&authors,
		&publisher,
		&year,
		&summary,
		&ndc,
		&subjects,
		&coverImage,
		&pages,
		&detailURL,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(authors), &r.Authors); err != nil {
		return nil, fmt.Errorf("unmarshal authors: %w", err)
	}
	if err := json.Unmarshal([]byte(subjects), &r.Subjects); err != nil {
		return nil, fmt.Errorf("unmarshal subjects: %w", err)
	}

	r.ISBN = isbn.String
	r.Publisher = publisher.String
	r.PublishYear = intPtr(year)
	r.Summary = summary.String
	r.NDC = ndc.String
	r.CoverImage = coverImage.String
	r.PageCount = intPtr(pages)
	r.DetailURL = detailURL.String

	return &r, nil
}

func (s *Store) attachHoldings(ctx context.Context, records []catalog.Record, index map[string]int) error {
	rows, err := s.db.QueryContext(ctx, `
		SELECT book_id, id, location, call_number, status
		FROM holdings
		ORDER BY book_id, position`)
	if err != nil {
		return fmt.Errorf("query holdings: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			bookID     string
			h          catalog.HoldingRecord
			location   sql.NullString
			callNumber sql.NullString
		)
		if err := rows.Scan(&bookID, &h.ID, &location, &callNumber, &h.Status); err != nil {
			return fmt.Errorf("scan holding: %w", err)
		}
		h.Location = location.String
		h.CallNumber = callNumber.String

		if i, ok := index[bookID]; ok {
			records[i].Holdings = append(records[i].Holdings, h)
		}
	}
	return rows.Err()
}

// ReplaceCatalog deletes every stored book and inserts records in order,
// in a single transaction. It returns the number of books written.
func (s *Store) ReplaceCatalog(ctx context.Context, records []catalog.Record) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM holdings`); err != nil {
		return 0, fmt.Errorf("delete holdings: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM books`); err != nil {
		return 0, fmt.Errorf("delete books: %w", err)
	}

	for i := range records {
		if err := insertRecord(ctx, tx, i, &records[i]); err != nil {
			return 0, err
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}

	s.logger.Info("catalog imported",
		"path", s.path,
		"books", len(records),
	)
	return len(records), nil
}

func insertRecord(ctx context.Context, tx *sql.Tx, position int, r *catalog.Record) error {
	authors, err := json.Marshal(nonNil(r.Authors))
	if err != nil {
		return fmt.Errorf("marshal authors: %w", err)
	}
	subjects, err := json.Marshal(nonNil(r.Subjects))
	if err != nil {
		return fmt.Errorf("marshal subjects: %w", err)
	}

	year := r.PublishYear
	if year == nil {
		year = r.PubYear
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO books (id, position, isbn, title, authors, publisher, publish_year,
			summary, ndc, subjects, cover_image, page_count, detail_url)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID,
		position,
		nullString(r.ISBN),
		r.Title,
		string(authors),
		nullString(r.Publisher),
		nullIntPtr(year),
		nullString(r.Summary),
		nullString(r.NDC),
		string(subjects),
		nullString(r.CoverImage),
		nullIntPtr(r.PageCount),
		nullString(r.DetailURL),
	)
	if err != nil {
		return fmt.Errorf("insert book %s: %w", r.ID, err)
	}

	for j, h := range r.Holdings {
		status := h.Status
		if status == "" {
			status = "available"
		}
		_, err := tx.ExecContext(ctx, `
			INSERT INTO holdings (id, book_id, position, location, call_number, status)
			VALUES (?, ?, ?, ?, ?, ?)`,
			h.ID,
			r.ID,
			j,
			nullString(h.Location),
			nullString(h.CallNumber),
			status,
		)
		if err != nil {
			return fmt.Errorf("insert holding %s/%d: %w", r.ID, j, err)
		}
	}
	return nil
}

// Count returns the number of stored books.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM books`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count books: %w", err)
	}
	return n, nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
