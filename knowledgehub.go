// Package knowledgehub wires the schema registry, parser set, chunker,
// extractor, completeness scorer, and merge engine into the ingestion
// pipeline (C7) and review controller (C8) described by the core spec.
package knowledgehub

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/jokari/knowledgehub/chunker"
	"github.com/jokari/knowledgehub/completeness"
	"github.com/jokari/knowledgehub/extractor"
	"github.com/jokari/knowledgehub/merge"
	"github.com/jokari/knowledgehub/parser"
	"github.com/jokari/knowledgehub/schema"
	"github.com/jokari/knowledgehub/store"
)

const maxEvidenceExcerpt = 1000

// Engine is the ingestion and review entry point.
type Engine interface {
	// Upload stores a document blob, creates its Document row in status
	// "uploading", and returns its id. It does not run the pipeline.
	Upload(ctx context.Context, filename string, content []byte, meta UploadMeta) (int64, error)

	// RunPipeline executes the full parse/chunk/extract/merge pipeline for
	// a document already created by Upload. Any stage failure is caught,
	// recorded on the Document row, audited, and returned to the caller.
	RunPipeline(ctx context.Context, documentID int64) error

	// GetDocument, ListDocuments, DeleteDocument expose document state.
	GetDocument(ctx context.Context, id int64) (*store.Document, error)
	ListDocuments(ctx context.Context) ([]store.Document, error)
	DeleteDocument(ctx context.Context, id int64) error

	Store() *store.Store
	Close() error
}

// UploadMeta carries the declared metadata every upload must supply.
type UploadMeta struct {
	Department      schema.Department
	DocType         schema.DocType
	Owner           string
	VersionDate     string
	Confidentiality schema.Confidentiality
	UploadedBy      string
}

type engine struct {
	cfg      Config
	store    *store.Store
	blobs    *blobStore
	parsers  *parser.Registry
	chunkr   *chunker.Chunker
	extract  extractor.Extractor
	registry *schema.Registry
}

// New builds an Engine from cfg: opens the store, the blob directory, the
// parser registry, the chunker, and the configured extractor.
func New(cfg Config) (Engine, error) {
	dbPath := cfg.resolveDBPath()
	if cfg.EmbeddingDim == 0 {
		cfg.EmbeddingDim = chunker.EmbeddingDim
	}

	s, err := store.New(dbPath, cfg.EmbeddingDim)
	if err != nil {
		return nil, fmt.Errorf("opening store: %w", err)
	}

	blobs, err := newBlobStore(cfg.StorageDir)
	if err != nil {
		s.Close()
		return nil, fmt.Errorf("opening blob store: %w", err)
	}

	ex, err := extractor.New(extractor.Provider(cfg.LLMProvider), cfg.AnthropicAPIKey)
	if err != nil {
		s.Close()
		return nil, fmt.Errorf("creating extractor: %w", err)
	}

	chunkCfg := chunker.DefaultConfig()
	if cfg.MaxChunkTokens > 0 {
		chunkCfg.MaxChunkTokens = cfg.MaxChunkTokens
	}
	if cfg.MinChunkTokens > 0 {
		chunkCfg.MinChunkTokens = cfg.MinChunkTokens
	}
	if cfg.ChunkOverlap > 0 {
		chunkCfg.OverlapTokens = cfg.ChunkOverlap
	}

	return &engine{
		cfg:      cfg,
		store:    s,
		blobs:    blobs,
		parsers:  parser.NewRegistry(),
		chunkr:   chunker.New(chunkCfg),
		extract:  ex,
		registry: schema.Default(),
	}, nil
}

func (e *engine) Store() *store.Store { return e.store }

func (e *engine) Close() error { return e.store.Close() }

// Upload validates the department/doc_type pair, stores the blob, and
// creates the Document row. The pipeline itself is run separately by
// RunPipeline so the HTTP handler can respond immediately after upload.
func (e *engine) Upload(ctx context.Context, filename string, content []byte, meta UploadMeta) (int64, error) {
	if !e.registry.IsPermitted(meta.Department, meta.DocType) {
		return 0, E("Upload", KindValidation,
			fmt.Errorf("doc_type %q not permitted for department %q: %w", meta.DocType, meta.Department, ErrUnpermittedDocType))
	}

	ext := strings.ToLower(filepath.Ext(filename))
	hash, path, err := e.blobs.put(strings.NewReader(string(content)), ext)
	if err != nil {
		return 0, E("Upload", KindInternal, fmt.Errorf("storing blob: %w", err))
	}

	metaJSON, _ := json.Marshal(map[string]string{
		"owner":        meta.Owner,
		"version_date": meta.VersionDate,
	})

	docID, err := e.store.InsertDocument(ctx, store.Document{
		Filename:        filename,
		StoragePath:     path,
		Department:      string(meta.Department),
		DocType:         string(meta.DocType),
		Confidentiality: string(meta.Confidentiality),
		ContentHash:     hash,
		Status:          "uploading",
		UploadedBy:      meta.UploadedBy,
		Metadata:        string(metaJSON),
	})
	if err != nil {
		return 0, E("Upload", KindInternal, fmt.Errorf("creating document row: %w", err))
	}

	e.audit(ctx, meta.UploadedBy, "upload", "document", docID, nil)
	return docID, nil
}

// RunPipeline implements the C7 pipeline algorithm: parse, chunk,
// extract, merge, in strict stage order. Every stage transition is
// persisted before the next stage begins so a suspended pipeline's
// Document status always reflects the furthest committed stage.
func (e *engine) RunPipeline(ctx context.Context, documentID int64) error {
	doc, err := e.store.GetDocument(ctx, documentID)
	if err != nil {
		return E("RunPipeline", KindNotFound, fmt.Errorf("%w: %d", ErrDocumentNotFound, documentID))
	}

	desc, err := e.registry.SchemaFor(schema.DocType(doc.DocType))
	if err != nil {
		e.fail(ctx, doc.ID, "extraction_failed", err.Error())
		return E("RunPipeline", KindValidation, err)
	}

	parsed, parseErr := e.runParse(ctx, doc)
	if parseErr != nil {
		e.fail(ctx, doc.ID, "parse_failed", parseErr.Error())
		return E("RunPipeline", KindUpstreamFailure, fmt.Errorf("%w: %v", ErrParsingFailed, parseErr))
	}

	chunkIDs, chunks, chunkErr := e.runChunk(ctx, doc.ID, parsed)
	if chunkErr != nil {
		e.fail(ctx, doc.ID, "parse_failed", chunkErr.Error())
		return E("RunPipeline", KindInternal, chunkErr)
	}

	if err := e.store.UpdateDocumentStatus(ctx, doc.ID, "extracting"); err != nil {
		return E("RunPipeline", KindInternal, err)
	}

	created, extractErr := e.runExtract(ctx, doc, desc, parsed, chunks, chunkIDs)
	if extractErr != nil {
		e.fail(ctx, doc.ID, "extraction_failed", extractErr.Error())
		return E("RunPipeline", KindUpstreamFailure, fmt.Errorf("%w: %v", ErrExtractionFailed, extractErr))
	}

	if err := e.store.UpdateDocumentStatus(ctx, doc.ID, "pending_review"); err != nil {
		return E("RunPipeline", KindInternal, err)
	}
	e.audit(ctx, "pipeline", "ingestion_complete", "document", doc.ID, map[string]any{"records_created": created})

	return nil
}

// runParse downloads the blob to a temp file, dispatches to the parser
// selected by extension, and deletes the temp file regardless of outcome.
func (e *engine) runParse(ctx context.Context, doc *store.Document) (*parser.ParsedDocument, error) {
	if err := e.store.UpdateDocumentStatus(ctx, doc.ID, "parsing"); err != nil {
		return nil, err
	}

	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(doc.Filename), "."))
	p, err := e.parsers.Get(ext)
	if err != nil {
		return nil, err
	}

	tmp, err := e.downloadToTemp(doc.StoragePath, ext)
	if err != nil {
		return nil, fmt.Errorf("downloading blob: %w", err)
	}
	defer os.Remove(tmp)

	parsed, err := p.Parse(ctx, tmp)
	if err != nil {
		return nil, err
	}
	return parsed, nil
}

func (e *engine) downloadToTemp(blobPath, ext string) (string, error) {
	src, err := os.Open(blobPath)
	if err != nil {
		return "", err
	}
	defer src.Close()

	tmp, err := os.CreateTemp("", "parse-*"+ext)
	if err != nil {
		return "", err
	}
	defer tmp.Close()

	if _, err := tmp.ReadFrom(src); err != nil {
		os.Remove(tmp.Name())
		return "", err
	}
	return tmp.Name(), nil
}

func (e *engine) runChunk(ctx context.Context, docID int64, parsed *parser.ParsedDocument) ([]int64, []chunker.Chunk, error) {
	chunks := e.chunkr.Chunk(parsed)

	rows := make([]store.Chunk, len(chunks))
	for i, c := range chunks {
		rows[i] = store.Chunk{
			DocumentID:   docID,
			ChunkIndex:   c.Index,
			SectionTitle: c.SectionTitle,
			SectionPath:  c.SectionPath,
			Content:      c.Content,
			TokenCount:   c.TokenCount,
			ContentHash:  c.ContentHash,
			StartOffset:  c.StartOffset,
			EndOffset:    c.EndOffset,
			Confidence:   c.Confidence,
		}
	}

	ids, err := e.store.InsertChunks(ctx, rows)
	if err != nil {
		return nil, nil, fmt.Errorf("inserting chunks: %w", err)
	}

	for i, id := range ids {
		if err := e.store.InsertEmbedding(ctx, id, chunks[i].Embedding); err != nil {
			slog.Warn("storing embedding failed", "chunk_id", id, "error", err)
		}
	}

	return ids, chunks, nil
}

// runExtract calls the Extractor on the whole parsed text, then runs the
// Merge Engine for each candidate record: new records persist with their
// evidence; duplicates materialize as proposed updates.
func (e *engine) runExtract(ctx context.Context, doc *store.Document, desc *schema.Descriptor,
	parsed *parser.ParsedDocument, chunks []chunker.Chunk, chunkIDs []int64) (int, error) {

	ectx := extractor.Context{
		Department: schema.Department(doc.Department),
		DocType:    schema.DocType(doc.DocType),
		DocumentID: doc.ID,
		Filename:   doc.Filename,
		ChunkIndex: 0,
	}

	result, err := e.extract.Extract(ctx, parsed.RawText, desc, ectx)
	if err != nil {
		return 0, err
	}

	created := 0
	for _, rec := range result.Records {
		n, err := e.mergeRecord(ctx, doc, desc, rec, result.NeedsReview, chunks, chunkIDs)
		if err != nil {
			slog.Warn("merging candidate record failed", "document_id", doc.ID, "error", err)
			continue
		}
		created += n
	}

	e.audit(ctx, "pipeline", "records_extracted", "document", doc.ID, map[string]any{"count": len(result.Records)})
	return created, nil
}

// mergeRecord applies the Merge Engine's find-or-create logic for one
// candidate record: looks up an existing approved record at the same
// (schema_type, primary_key); if none exists, inserts a new Record with
// its evidence, routed to needs_review when the extractor flagged the
// whole result or the candidate's own confidence is below 0.5; if one
// exists, computes a diff and inserts a ProposedUpdate instead. Returns
// 1 if a new Record was created, 0 if a ProposedUpdate was created.
func (e *engine) mergeRecord(ctx context.Context, doc *store.Document, desc *schema.Descriptor,
	rec extractor.Record, resultNeedsReview bool, chunks []chunker.Chunk, chunkIDs []int64) (int, error) {

	pk := desc.ComputePrimaryKey(rec.Data)
	status := "pending"
	if resultNeedsReview || rec.Confidence < 0.5 {
		status = "needs_review"
	}

	existing, err := e.store.FindApprovedRecord(ctx, desc.Name, pk)
	if err == nil {
		return 0, e.proposeUpdate(ctx, doc, desc, existing, rec.Data)
	}

	dataJSON, err := json.Marshal(rec.Data)
	if err != nil {
		return 0, fmt.Errorf("encoding record data: %w", err)
	}

	recordID, err := e.store.InsertRecord(ctx, store.Record{
		DocumentID:        doc.ID,
		SchemaType:        desc.Name,
		Department:        string(desc.Department),
		PrimaryKey:        pk,
		DataJSON:          string(dataJSON),
		CompletenessScore: completeness.Score(desc, rec.Data),
		Status:            status,
		Version:           1,
	})
	if err != nil {
		return 0, fmt.Errorf("inserting record: %w", err)
	}

	ev := make([]store.Evidence, 0, len(rec.Evidence))
	for _, e2 := range rec.Evidence {
		excerpt := e2.Excerpt
		if len(excerpt) > maxEvidenceExcerpt {
			excerpt = excerpt[:maxEvidenceExcerpt]
		}
		var chunkID *int64
		if id, ok := chunkIDForIndex(chunks, chunkIDs, e2.ChunkIndex); ok {
			chunkID = &id
		} else if len(chunkIDs) > 0 {
			chunkID = &chunkIDs[0]
		}
		ev = append(ev, store.Evidence{
			RecordID:    recordID,
			FieldPath:   e2.FieldPath,
			Excerpt:     excerpt,
			ChunkID:     chunkID,
			StartOffset: e2.StartOffset,
			EndOffset:   e2.EndOffset,
		})
	}
	if err := e.store.InsertEvidence(ctx, ev); err != nil {
		return 0, fmt.Errorf("inserting evidence: %w", err)
	}

	return 1, nil
}

func chunkIDForIndex(chunks []chunker.Chunk, chunkIDs []int64, index int) (int64, bool) {
	for i, c := range chunks {
		if c.Index == index {
			return chunkIDs[i], true
		}
	}
	return 0, false
}

func (e *engine) proposeUpdate(ctx context.Context, doc *store.Document, desc *schema.Descriptor,
	existing *store.Record, newData map[string]any) error {

	var oldData map[string]any
	if err := json.Unmarshal([]byte(existing.DataJSON), &oldData); err != nil {
		return fmt.Errorf("decoding existing record data: %w", err)
	}

	diff := merge.ComputeDiff(oldData, newData)
	diffJSON, err := json.Marshal(diff)
	if err != nil {
		return fmt.Errorf("encoding diff: %w", err)
	}
	newDataJSON, err := json.Marshal(newData)
	if err != nil {
		return fmt.Errorf("encoding new data: %w", err)
	}

	_, err = e.store.InsertProposedUpdate(ctx, store.ProposedUpdate{
		RecordID:         existing.ID,
		SourceDocumentID: doc.ID,
		NewDataJSON:      string(newDataJSON),
		DiffJSON:         string(diffJSON),
		Status:           "pending",
	})
	return err
}

func (e *engine) fail(ctx context.Context, docID int64, status, message string) {
	if err := e.store.FailDocument(ctx, docID, status, message); err != nil {
		slog.Error("recording pipeline failure failed", "document_id", docID, "error", err)
	}
	e.audit(ctx, "pipeline", "ingestion_failed", "document", docID, map[string]any{"error": message})
}

func (e *engine) audit(ctx context.Context, actor, action, entityType string, entityID int64, details map[string]any) {
	var detailsJSON string
	if details != nil {
		if b, err := json.Marshal(details); err == nil {
			detailsJSON = string(b)
		}
	}
	if _, err := e.store.InsertAuditLog(ctx, store.AuditLog{
		Actor:      actor,
		Action:     action,
		EntityType: entityType,
		EntityID:   entityID,
		Details:    detailsJSON,
	}); err != nil {
		slog.Error("writing audit log failed", "action", action, "entity_type", entityType, "entity_id", entityID, "error", err)
	}
}

func (e *engine) GetDocument(ctx context.Context, id int64) (*store.Document, error) {
	doc, err := e.store.GetDocument(ctx, id)
	if err != nil {
		return nil, E("GetDocument", KindNotFound, fmt.Errorf("%w: %d", ErrDocumentNotFound, id))
	}
	return doc, nil
}

func (e *engine) ListDocuments(ctx context.Context) ([]store.Document, error) {
	return e.store.ListDocuments(ctx)
}

func (e *engine) DeleteDocument(ctx context.Context, id int64) error {
	doc, err := e.store.GetDocument(ctx, id)
	if err != nil {
		return E("DeleteDocument", KindNotFound, fmt.Errorf("%w: %d", ErrDocumentNotFound, id))
	}
	if err := e.store.DeleteDocument(ctx, id); err != nil {
		return E("DeleteDocument", KindInternal, err)
	}
	if err := e.blobs.delete(doc.StoragePath); err != nil {
		slog.Warn("deleting blob failed", "document_id", id, "path", doc.StoragePath, "error", err)
	}
	return nil
}
