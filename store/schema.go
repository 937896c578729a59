package store

import "fmt"

// schemaSQL returns the DDL for all tables. embeddingDim controls the
// vec0 virtual table dimension.
func schemaSQL(embeddingDim int) string {
	return fmt.Sprintf(`
-- Uploaded documents, tracked through parse/extract/review.
CREATE TABLE IF NOT EXISTS documents (
    id INTEGER PRIMARY KEY,
    filename TEXT NOT NULL,
    storage_path TEXT NOT NULL,
    department TEXT NOT NULL,
    doc_type TEXT NOT NULL,
    confidentiality TEXT NOT NULL DEFAULT 'internal',
    content_hash TEXT NOT NULL,
    status TEXT NOT NULL DEFAULT 'uploading',
    error_message TEXT,
    uploaded_by TEXT,
    metadata JSON,
    created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
    updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
);

-- Flat, densely-indexed chunks of a document's parsed text.
CREATE TABLE IF NOT EXISTS chunks (
    id INTEGER PRIMARY KEY,
    document_id INTEGER NOT NULL REFERENCES documents(id) ON DELETE CASCADE,
    chunk_index INTEGER NOT NULL,
    section_title TEXT,
    section_path TEXT,
    content TEXT NOT NULL,
    token_count INTEGER NOT NULL,
    content_hash TEXT NOT NULL,
    start_offset INTEGER NOT NULL DEFAULT 0,
    end_offset INTEGER NOT NULL DEFAULT 0,
    confidence REAL NOT NULL DEFAULT 1.0
);

-- Vector embeddings via sqlite-vec. Write-only: the pipeline populates
-- this table for future retrieval tooling, but no vector query runs in
-- the ingestion or review path.
CREATE VIRTUAL TABLE IF NOT EXISTS vec_chunks USING vec0(
    chunk_id INTEGER PRIMARY KEY,
    embedding float[%d]
);

-- Extracted records pending or past review, one row per candidate record
-- (never overwritten in place except through the review/merge flow).
CREATE TABLE IF NOT EXISTS records (
    id INTEGER PRIMARY KEY,
    document_id INTEGER NOT NULL REFERENCES documents(id) ON DELETE CASCADE,
    schema_type TEXT NOT NULL,
    department TEXT NOT NULL,
    primary_key TEXT NOT NULL,
    data_json JSON NOT NULL,
    completeness_score REAL NOT NULL DEFAULT 0,
    status TEXT NOT NULL DEFAULT 'pending',
    version INTEGER NOT NULL DEFAULT 1,
    created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
    updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
);

-- Field-level provenance: where in the source text an extracted value
-- came from.
CREATE TABLE IF NOT EXISTS evidence (
    id INTEGER PRIMARY KEY,
    record_id INTEGER NOT NULL REFERENCES records(id) ON DELETE CASCADE,
    field_path TEXT NOT NULL,
    excerpt TEXT NOT NULL,
    chunk_id INTEGER REFERENCES chunks(id) ON DELETE SET NULL,
    start_offset INTEGER NOT NULL DEFAULT 0,
    end_offset INTEGER NOT NULL DEFAULT 0
);

-- Proposed updates to an already-approved record, awaiting review.
CREATE TABLE IF NOT EXISTS proposed_updates (
    id INTEGER PRIMARY KEY,
    record_id INTEGER NOT NULL REFERENCES records(id) ON DELETE CASCADE,
    source_document_id INTEGER NOT NULL REFERENCES documents(id) ON DELETE CASCADE,
    new_data_json JSON NOT NULL,
    diff_json JSON NOT NULL,
    status TEXT NOT NULL DEFAULT 'pending',
    reviewed_by TEXT,
    reviewed_at DATETIME,
    created_at DATETIME DEFAULT CURRENT_TIMESTAMP
);

-- Append-only log of every review action.
CREATE TABLE IF NOT EXISTS audit_logs (
    id INTEGER PRIMARY KEY,
    actor TEXT NOT NULL,
    action TEXT NOT NULL,
    entity_type TEXT NOT NULL,
    entity_id INTEGER NOT NULL,
    details JSON,
    created_at DATETIME DEFAULT CURRENT_TIMESTAMP
);

-- Files attached to a record during review (e.g. supporting evidence
-- uploaded by a reviewer, distinct from the source document).
CREATE TABLE IF NOT EXISTS record_attachments (
    id INTEGER PRIMARY KEY,
    record_id INTEGER NOT NULL REFERENCES records(id) ON DELETE CASCADE,
    filename TEXT NOT NULL,
    storage_path TEXT NOT NULL,
    mime_type TEXT NOT NULL,
    size_bytes INTEGER NOT NULL,
    uploaded_by TEXT,
    created_at DATETIME DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_chunks_document ON chunks(document_id);
CREATE INDEX IF NOT EXISTS idx_documents_hash ON documents(content_hash);
CREATE INDEX IF NOT EXISTS idx_records_schema_pk ON records(schema_type, primary_key);
CREATE INDEX IF NOT EXISTS idx_records_department ON records(department);
CREATE INDEX IF NOT EXISTS idx_records_status ON records(status);
CREATE INDEX IF NOT EXISTS idx_evidence_record ON evidence(record_id);
CREATE INDEX IF NOT EXISTS idx_proposed_updates_record ON proposed_updates(record_id);
CREATE INDEX IF NOT EXISTS idx_proposed_updates_status ON proposed_updates(status);
CREATE INDEX IF NOT EXISTS idx_audit_logs_entity ON audit_logs(entity_type, entity_id);
CREATE INDEX IF NOT EXISTS idx_record_attachments_record ON record_attachments(record_id);
`, embeddingDim)
}
