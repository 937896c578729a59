// Package store is the persistence layer: a single SQLite database holding
// documents, their chunks and embeddings, extracted records, evidence,
// proposed updates, audit log entries, and reviewer attachments.
package store

import (
	"context"
	"database/sql"
	"encoding/binary"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"time"

	sqlite_vec "github.com/asg017/sqlite-vec-go-bindings/cgo"
	_ "github.com/mattn/go-sqlite3"
)

func init() {
	sqlite_vec.Auto()
}

// Document is a row in the documents table.
type Document struct {
	ID              int64
	Filename        string
	StoragePath     string
	Department      string
	DocType         string
	Confidentiality string
	ContentHash     string
	Status          string
	ErrorMessage    string
	UploadedBy      string
	Metadata        string
	CreatedAt       string
	UpdatedAt       string
}

// Chunk is a row in the chunks table.
type Chunk struct {
	ID           int64
	DocumentID   int64
	ChunkIndex   int
	SectionTitle string
	SectionPath  string
	Content      string
	TokenCount   int
	ContentHash  string
	StartOffset  int
	EndOffset    int
	Confidence   float64
}

// Record is a row in the records table: one extracted candidate, pending
// or past review.
type Record struct {
	ID                 int64
	DocumentID         int64
	SchemaType         string
	Department         string
	PrimaryKey         string
	DataJSON           string
	CompletenessScore  float64
	Status             string
	Version            int
	CreatedAt          string
	UpdatedAt          string
}

// Evidence is a row in the evidence table.
type Evidence struct {
	ID          int64
	RecordID    int64
	FieldPath   string
	Excerpt     string
	ChunkID     *int64
	StartOffset int
	EndOffset   int
}

// ProposedUpdate is a row in the proposed_updates table.
type ProposedUpdate struct {
	ID                int64
	RecordID          int64
	SourceDocumentID  int64
	NewDataJSON       string
	DiffJSON          string
	Status            string
	ReviewedBy        string
	ReviewedAt        string
	CreatedAt         string
}

// AuditLog is a row in the audit_logs table.
type AuditLog struct {
	ID         int64
	Actor      string
	Action     string
	EntityType string
	EntityID   int64
	Details    string
	CreatedAt  string
}

// Attachment is a row in the record_attachments table.
type Attachment struct {
	ID          int64
	RecordID    int64
	Filename    string
	StoragePath string
	MimeType    string
	SizeBytes   int64
	UploadedBy  string
	CreatedAt   string
}

// Store wraps the SQLite database for all knowledgehub persistence.
type Store struct {
	db           *sql.DB
	embeddingDim int
}

// New opens (or creates) a SQLite database at the given path and
// initializes the schema including the sqlite-vec virtual table.
func New(dbPath string, embeddingDim int) (*Store, error) {
	dir := filepath.Dir(dbPath)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("creating db directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=on&_busy_timeout=30000")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	if _, err := db.Exec(schemaSQL(embeddingDim)); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(30 * time.Minute)

	s := &Store{db: db, embeddingDim: embeddingDim}

	if err := s.Migrate(context.Background()); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

func (s *Store) Close() error { return s.db.Close() }

func (s *Store) DB() *sql.DB { return s.db }

func (s *Store) EmbeddingDim() int { return s.embeddingDim }

func (s *Store) inTx(ctx context.Context, fn func(*sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}
	return tx.Commit()
}

// --- Document operations ---

func (s *Store) InsertDocument(ctx context.Context, doc Document) (int64, error) {
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO documents (filename, storage_path, department, doc_type, confidentiality,
			content_hash, status, uploaded_by, metadata)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, doc.Filename, doc.StoragePath, doc.Department, doc.DocType, doc.Confidentiality,
		doc.ContentHash, doc.Status, doc.UploadedBy, doc.Metadata)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func (s *Store) GetDocument(ctx context.Context, id int64) (*Document, error) {
	d := &Document{}
	var errMsg, uploadedBy, metadata sql.NullString
	err := s.db.QueryRowContext(ctx, `
		SELECT id, filename, storage_path, department, doc_type, confidentiality,
			content_hash, status, error_message, uploaded_by, metadata, created_at, updated_at
		FROM documents WHERE id = ?
	`, id).Scan(&d.ID, &d.Filename, &d.StoragePath, &d.Department, &d.DocType, &d.Confidentiality,
		&d.ContentHash, &d.Status, &errMsg, &uploadedBy, &metadata, &d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		return nil, err
	}
	d.ErrorMessage, d.UploadedBy, d.Metadata = errMsg.String, uploadedBy.String, metadata.String
	return d, nil
}

func (s *Store) GetDocumentByHash(ctx context.Context, hash string) (*Document, error) {
	var id int64
	err := s.db.QueryRowContext(ctx, "SELECT id FROM documents WHERE content_hash = ?", hash).Scan(&id)
	if err != nil {
		return nil, err
	}
	return s.GetDocument(ctx, id)
}

func (s *Store) ListDocuments(ctx context.Context) ([]Document, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, filename, storage_path, department, doc_type, confidentiality,
			content_hash, status, error_message, uploaded_by, metadata, created_at, updated_at
		FROM documents ORDER BY created_at DESC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var docs []Document
	for rows.Next() {
		var d Document
		var errMsg, uploadedBy, metadata sql.NullString
		if err := rows.Scan(&d.ID, &d.Filename, &d.StoragePath, &d.Department, &d.DocType, &d.Confidentiality,
			&d.ContentHash, &d.Status, &errMsg, &uploadedBy, &metadata, &d.CreatedAt, &d.UpdatedAt); err != nil {
			return nil, err
		}
		d.ErrorMessage, d.UploadedBy, d.Metadata = errMsg.String, uploadedBy.String, metadata.String
		docs = append(docs, d)
	}
	return docs, rows.Err()
}

func (s *Store) UpdateDocumentStatus(ctx context.Context, id int64, status string) error {
	_, err := s.db.ExecContext(ctx,
		"UPDATE documents SET status = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?",
		status, id)
	return err
}

func (s *Store) FailDocument(ctx context.Context, id int64, status, errMsg string) error {
	_, err := s.db.ExecContext(ctx,
		"UPDATE documents SET status = ?, error_message = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?",
		status, errMsg, id)
	return err
}

func (s *Store) DeleteDocument(ctx context.Context, id int64) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `
			DELETE FROM vec_chunks WHERE chunk_id IN (SELECT id FROM chunks WHERE document_id = ?)
		`, id); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, "DELETE FROM chunks WHERE document_id = ?", id); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, "DELETE FROM documents WHERE id = ?", id); err != nil {
			return err
		}
		return nil
	})
}

// --- Chunk operations ---

func (s *Store) InsertChunks(ctx context.Context, chunks []Chunk) ([]int64, error) {
	ids := make([]int64, len(chunks))

	err := s.inTx(ctx, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO chunks (document_id, chunk_index, section_title, section_path,
				content, token_count, content_hash, start_offset, end_offset, confidence)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`)
		if err != nil {
			return err
		}
		defer stmt.Close()

		for i, c := range chunks {
			res, err := stmt.ExecContext(ctx, c.DocumentID, c.ChunkIndex, c.SectionTitle,
				c.SectionPath, c.Content, c.TokenCount, c.ContentHash,
				c.StartOffset, c.EndOffset, c.Confidence)
			if err != nil {
				return err
			}
			ids[i], err = res.LastInsertId()
			if err != nil {
				return err
			}
		}
		return nil
	})

	return ids, err
}

func (s *Store) GetChunksByDocument(ctx context.Context, docID int64) ([]Chunk, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, document_id, chunk_index, section_title, section_path, content, token_count,
			content_hash, start_offset, end_offset, confidence
		FROM chunks WHERE document_id = ? ORDER BY chunk_index
	`, docID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var chunks []Chunk
	for rows.Next() {
		var c Chunk
		if err := rows.Scan(&c.ID, &c.DocumentID, &c.ChunkIndex, &c.SectionTitle,
			&c.SectionPath, &c.Content, &c.TokenCount, &c.ContentHash,
			&c.StartOffset, &c.EndOffset, &c.Confidence); err != nil {
			return nil, err
		}
		chunks = append(chunks, c)
	}
	return chunks, rows.Err()
}

func (s *Store) InsertEmbedding(ctx context.Context, chunkID int64, embedding []float32) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT OR REPLACE INTO vec_chunks (chunk_id, embedding) VALUES (?, ?)",
		chunkID, serializeFloat32(embedding))
	return err
}

// --- Record operations ---

func (s *Store) InsertRecord(ctx context.Context, r Record) (int64, error) {
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO records (document_id, schema_type, department, primary_key, data_json,
			completeness_score, status, version)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, r.DocumentID, r.SchemaType, r.Department, r.PrimaryKey, r.DataJSON,
		r.CompletenessScore, r.Status, r.Version)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func (s *Store) GetRecord(ctx context.Context, id int64) (*Record, error) {
	r := &Record{}
	err := s.db.QueryRowContext(ctx, `
		SELECT id, document_id, schema_type, department, primary_key, data_json,
			completeness_score, status, version, created_at, updated_at
		FROM records WHERE id = ?
	`, id).Scan(&r.ID, &r.DocumentID, &r.SchemaType, &r.Department, &r.PrimaryKey, &r.DataJSON,
		&r.CompletenessScore, &r.Status, &r.Version, &r.CreatedAt, &r.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return r, nil
}

// FindApprovedRecord looks up the single approved record of schemaType
// with the given primary key, the target of a ProposedUpdate.
func (s *Store) FindApprovedRecord(ctx context.Context, schemaType, primaryKey string) (*Record, error) {
	var id int64
	err := s.db.QueryRowContext(ctx, `
		SELECT id FROM records WHERE schema_type = ? AND primary_key = ? AND status = 'approved'
	`, schemaType, primaryKey).Scan(&id)
	if err != nil {
		return nil, err
	}
	return s.GetRecord(ctx, id)
}

func (s *Store) ListRecordsByDocument(ctx context.Context, docID int64) ([]Record, error) {
	return s.queryRecords(ctx, "WHERE document_id = ? ORDER BY id", docID)
}

func (s *Store) ListRecordsByStatus(ctx context.Context, status string) ([]Record, error) {
	return s.queryRecords(ctx, "WHERE status = ? ORDER BY created_at", status)
}

func (s *Store) ListRecordsByDepartment(ctx context.Context, department string) ([]Record, error) {
	return s.queryRecords(ctx, "WHERE department = ? ORDER BY created_at DESC", department)
}

func (s *Store) queryRecords(ctx context.Context, whereClause string, args ...any) ([]Record, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, document_id, schema_type, department, primary_key, data_json,
			completeness_score, status, version, created_at, updated_at
		FROM records `+whereClause, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		var r Record
		if err := rows.Scan(&r.ID, &r.DocumentID, &r.SchemaType, &r.Department, &r.PrimaryKey, &r.DataJSON,
			&r.CompletenessScore, &r.Status, &r.Version, &r.CreatedAt, &r.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *Store) UpdateRecordStatus(ctx context.Context, id int64, status string) error {
	_, err := s.db.ExecContext(ctx,
		"UPDATE records SET status = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?", status, id)
	return err
}

// UpdateRecordData overwrites a record's data and completeness score,
// used both by reviewer edits and by applying an approved ProposedUpdate.
// It increments version.
func (s *Store) UpdateRecordData(ctx context.Context, id int64, dataJSON string, completeness float64) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE records SET data_json = ?, completeness_score = ?, version = version + 1,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`, dataJSON, completeness, id)
	return err
}

// --- Evidence operations ---

func (s *Store) InsertEvidence(ctx context.Context, ev []Evidence) error {
	if len(ev) == 0 {
		return nil
	}
	return s.inTx(ctx, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx,
			"INSERT INTO evidence (record_id, field_path, excerpt, chunk_id, start_offset, end_offset) VALUES (?, ?, ?, ?, ?, ?)")
		if err != nil {
			return err
		}
		defer stmt.Close()
		for _, e := range ev {
			if _, err := stmt.ExecContext(ctx, e.RecordID, e.FieldPath, e.Excerpt, e.ChunkID,
				e.StartOffset, e.EndOffset); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *Store) GetEvidenceByRecord(ctx context.Context, recordID int64) ([]Evidence, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, record_id, field_path, excerpt, chunk_id, start_offset, end_offset FROM evidence WHERE record_id = ?", recordID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Evidence
	for rows.Next() {
		var e Evidence
		if err := rows.Scan(&e.ID, &e.RecordID, &e.FieldPath, &e.Excerpt, &e.ChunkID,
			&e.StartOffset, &e.EndOffset); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// --- Proposed update operations ---

func (s *Store) InsertProposedUpdate(ctx context.Context, u ProposedUpdate) (int64, error) {
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO proposed_updates (record_id, source_document_id, new_data_json, diff_json, status)
		VALUES (?, ?, ?, ?, ?)
	`, u.RecordID, u.SourceDocumentID, u.NewDataJSON, u.DiffJSON, u.Status)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func (s *Store) GetProposedUpdate(ctx context.Context, id int64) (*ProposedUpdate, error) {
	u := &ProposedUpdate{}
	var reviewedBy, reviewedAt sql.NullString
	err := s.db.QueryRowContext(ctx, `
		SELECT id, record_id, source_document_id, new_data_json, diff_json, status,
			reviewed_by, reviewed_at, created_at
		FROM proposed_updates WHERE id = ?
	`, id).Scan(&u.ID, &u.RecordID, &u.SourceDocumentID, &u.NewDataJSON, &u.DiffJSON, &u.Status,
		&reviewedBy, &reviewedAt, &u.CreatedAt)
	if err != nil {
		return nil, err
	}
	u.ReviewedBy, u.ReviewedAt = reviewedBy.String, reviewedAt.String
	return u, nil
}

func (s *Store) ListProposedUpdatesByRecord(ctx context.Context, recordID int64) ([]ProposedUpdate, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, record_id, source_document_id, new_data_json, diff_json, status,
			reviewed_by, reviewed_at, created_at
		FROM proposed_updates WHERE record_id = ? ORDER BY created_at
	`, recordID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ProposedUpdate
	for rows.Next() {
		var u ProposedUpdate
		var reviewedBy, reviewedAt sql.NullString
		if err := rows.Scan(&u.ID, &u.RecordID, &u.SourceDocumentID, &u.NewDataJSON, &u.DiffJSON, &u.Status,
			&reviewedBy, &reviewedAt, &u.CreatedAt); err != nil {
			return nil, err
		}
		u.ReviewedBy, u.ReviewedAt = reviewedBy.String, reviewedAt.String
		out = append(out, u)
	}
	return out, rows.Err()
}

func (s *Store) ListPendingProposedUpdates(ctx context.Context) ([]ProposedUpdate, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, record_id, source_document_id, new_data_json, diff_json, status,
			reviewed_by, reviewed_at, created_at
		FROM proposed_updates WHERE status = 'pending' ORDER BY created_at
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ProposedUpdate
	for rows.Next() {
		var u ProposedUpdate
		var reviewedBy, reviewedAt sql.NullString
		if err := rows.Scan(&u.ID, &u.RecordID, &u.SourceDocumentID, &u.NewDataJSON, &u.DiffJSON, &u.Status,
			&reviewedBy, &reviewedAt, &u.CreatedAt); err != nil {
			return nil, err
		}
		u.ReviewedBy, u.ReviewedAt = reviewedBy.String, reviewedAt.String
		out = append(out, u)
	}
	return out, rows.Err()
}

func (s *Store) SetProposedUpdateStatus(ctx context.Context, id int64, status, reviewer string) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE proposed_updates SET status = ?, reviewed_by = ?, reviewed_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`, status, reviewer, id)
	return err
}

// --- Audit log operations ---

func (s *Store) InsertAuditLog(ctx context.Context, a AuditLog) (int64, error) {
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO audit_logs (actor, action, entity_type, entity_id, details)
		VALUES (?, ?, ?, ?, ?)
	`, a.Actor, a.Action, a.EntityType, a.EntityID, a.Details)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func (s *Store) ListRecentAuditLogs(ctx context.Context, limit int) ([]AuditLog, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, actor, action, entity_type, entity_id, details, created_at
		FROM audit_logs ORDER BY created_at DESC LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []AuditLog
	for rows.Next() {
		var a AuditLog
		var details sql.NullString
		if err := rows.Scan(&a.ID, &a.Actor, &a.Action, &a.EntityType, &a.EntityID, &details, &a.CreatedAt); err != nil {
			return nil, err
		}
		a.Details = details.String
		out = append(out, a)
	}
	return out, rows.Err()
}

// --- Attachment operations ---

func (s *Store) InsertAttachment(ctx context.Context, a Attachment) (int64, error) {
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO record_attachments (record_id, filename, storage_path, mime_type, size_bytes, uploaded_by)
		VALUES (?, ?, ?, ?, ?, ?)
	`, a.RecordID, a.Filename, a.StoragePath, a.MimeType, a.SizeBytes, a.UploadedBy)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func (s *Store) ListAttachmentsByRecord(ctx context.Context, recordID int64) ([]Attachment, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, record_id, filename, storage_path, mime_type, size_bytes, uploaded_by, created_at
		FROM record_attachments WHERE record_id = ? ORDER BY created_at
	`, recordID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Attachment
	for rows.Next() {
		var a Attachment
		var uploadedBy sql.NullString
		if err := rows.Scan(&a.ID, &a.RecordID, &a.Filename, &a.StoragePath, &a.MimeType, &a.SizeBytes,
			&uploadedBy, &a.CreatedAt); err != nil {
			return nil, err
		}
		a.UploadedBy = uploadedBy.String
		out = append(out, a)
	}
	return out, rows.Err()
}

func (s *Store) GetAttachment(ctx context.Context, id int64) (*Attachment, error) {
	a := &Attachment{}
	var uploadedBy sql.NullString
	err := s.db.QueryRowContext(ctx, `
		SELECT id, record_id, filename, storage_path, mime_type, size_bytes, uploaded_by, created_at
		FROM record_attachments WHERE id = ?
	`, id).Scan(&a.ID, &a.RecordID, &a.Filename, &a.StoragePath, &a.MimeType, &a.SizeBytes, &uploadedBy, &a.CreatedAt)
	if err != nil {
		return nil, err
	}
	a.UploadedBy = uploadedBy.String
	return a, nil
}

func (s *Store) DeleteAttachment(ctx context.Context, id int64) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM record_attachments WHERE id = ?", id)
	return err
}

// --- Stats ---

// Stats is the aggregate counts backing the dashboard endpoints.
type Stats struct {
	TotalDocuments     int
	DocumentsByStatus  map[string]int
	TotalRecords       int
	RecordsByStatus    map[string]int
	PendingUpdates     int
	RecordsByDepartment map[string]int
}

func (s *Store) GetStats(ctx context.Context) (*Stats, error) {
	stats := &Stats{
		DocumentsByStatus:   map[string]int{},
		RecordsByStatus:     map[string]int{},
		RecordsByDepartment: map[string]int{},
	}

	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM documents").Scan(&stats.TotalDocuments); err != nil {
		return nil, err
	}
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM records").Scan(&stats.TotalRecords); err != nil {
		return nil, err
	}
	if err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM proposed_updates WHERE status = 'pending'").Scan(&stats.PendingUpdates); err != nil {
		return nil, err
	}

	if err := scanGroupCounts(ctx, s.db, "SELECT status, COUNT(*) FROM documents GROUP BY status", stats.DocumentsByStatus); err != nil {
		return nil, err
	}
	if err := scanGroupCounts(ctx, s.db, "SELECT status, COUNT(*) FROM records GROUP BY status", stats.RecordsByStatus); err != nil {
		return nil, err
	}
	if err := scanGroupCounts(ctx, s.db, "SELECT department, COUNT(*) FROM records GROUP BY department", stats.RecordsByDepartment); err != nil {
		return nil, err
	}

	return stats, nil
}

func scanGroupCounts(ctx context.Context, db *sql.DB, query string, into map[string]int) error {
	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var key string
		var count int
		if err := rows.Scan(&key, &count); err != nil {
			return err
		}
		into[key] = count
	}
	return rows.Err()
}

// serializeFloat32 converts a float32 slice to little-endian bytes for sqlite-vec.
func serializeFloat32(v []float32) []byte {
	buf := make([]byte, len(v)*4)
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}
