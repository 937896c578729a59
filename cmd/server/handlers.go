package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/jokari/knowledgehub"
	"github.com/jokari/knowledgehub/merge"
	"github.com/jokari/knowledgehub/review"
	"github.com/jokari/knowledgehub/schema"
	"github.com/jokari/knowledgehub/store"
)

// permittedExtensions is the closed upload extension list from §6.
var permittedExtensions = map[string]bool{
	".docx": true, ".doc": true, ".md": true, ".markdown": true,
	".csv": true, ".xlsx": true, ".xls": true, ".pdf": true,
}

type handler struct {
	engine knowledgehub.Engine
	review *review.Controller
	cfg    knowledgehub.Config
}

func newHandler(e knowledgehub.Engine, r *review.Controller, cfg knowledgehub.Config) *handler {
	return &handler{engine: e, review: r, cfg: cfg}
}

// --- Upload ---

type uploadResult struct {
	DocumentID int64  `json:"document_id,omitempty"`
	Filename   string `json:"filename"`
	Status     string `json:"status,omitempty"`
	Error      string `json:"error,omitempty"`
}

// POST /upload
func (h *handler) handleUpload(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Minute)
	defer cancel()

	if err := r.ParseMultipartForm(200 << 20); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}

	meta := knowledgehub.UploadMeta{
		Department:      schema.Department(r.FormValue("department")),
		DocType:         schema.DocType(r.FormValue("doc_type")),
		Owner:           r.FormValue("owner"),
		VersionDate:     r.FormValue("version_date"),
		Confidentiality: schema.Confidentiality(r.FormValue("confidentiality")),
		UploadedBy:      r.FormValue("owner"),
	}
	if meta.Confidentiality == "" {
		meta.Confidentiality = schema.ConfidentialityInternal
	}

	files := r.MultipartForm.File["files[]"]
	if len(files) == 0 {
		writeError(w, http.StatusBadRequest, "files[] is required")
		return
	}

	results := make([]uploadResult, 0, len(files))
	for _, fh := range files {
		ext := strings.ToLower(extOf(fh.Filename))
		if !permittedExtensions[ext] {
			results = append(results, uploadResult{Filename: fh.Filename, Error: "unsupported file extension"})
			continue
		}

		f, err := fh.Open()
		if err != nil {
			results = append(results, uploadResult{Filename: fh.Filename, Error: "failed to read upload"})
			continue
		}
		content, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			results = append(results, uploadResult{Filename: fh.Filename, Error: "failed to read upload"})
			continue
		}

		docID, err := h.engine.Upload(ctx, fh.Filename, content, meta)
		if err != nil {
			results = append(results, uploadResult{Filename: fh.Filename, Error: errorDetail(err)})
			continue
		}

		go h.runPipelineAsync(docID)
		results = append(results, uploadResult{DocumentID: docID, Filename: fh.Filename, Status: "uploading"})
	}

	writeJSON(w, http.StatusOK, results)
}

// runPipelineAsync runs the ingestion pipeline in the background so the
// upload handler can respond immediately; each ingestion is one
// asynchronous unit of work per §5.
func (h *handler) runPipelineAsync(documentID int64) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Minute)
	defer cancel()
	if err := h.engine.RunPipeline(ctx, documentID); err != nil {
		slog.Error("pipeline failed", "document_id", documentID, "error", err)
	}
}

func extOf(filename string) string {
	if i := strings.LastIndexByte(filename, '.'); i >= 0 {
		return filename[i:]
	}
	return ""
}

// GET /upload/doc-types
func (h *handler) handleDocTypes(w http.ResponseWriter, r *http.Request) {
	reg := schema.Default()
	out := make(map[string][]string)
	for _, dept := range []schema.Department{
		schema.DepartmentSales, schema.DepartmentSupport, schema.DepartmentProduct,
		schema.DepartmentMarketing, schema.DepartmentLegal,
	} {
		var types []string
		for _, t := range reg.TypesFor(dept) {
			types = append(types, string(t))
		}
		out[string(dept)] = types
	}
	writeJSON(w, http.StatusOK, out)
}

// --- Documents ---

type documentDTO struct {
	ID              int64  `json:"id"`
	Filename        string `json:"filename"`
	Department      string `json:"department"`
	DocType         string `json:"doc_type"`
	Confidentiality string `json:"confidentiality"`
	Status          string `json:"status"`
	ErrorMessage    string `json:"error_message,omitempty"`
	UploadedBy      string `json:"uploaded_by,omitempty"`
	CreatedAt       string `json:"created_at"`
	UpdatedAt       string `json:"updated_at"`
}

func toDocumentDTO(d store.Document) documentDTO {
	return documentDTO{
		ID: d.ID, Filename: d.Filename, Department: d.Department, DocType: d.DocType,
		Confidentiality: d.Confidentiality, Status: d.Status, ErrorMessage: d.ErrorMessage,
		UploadedBy: d.UploadedBy, CreatedAt: d.CreatedAt, UpdatedAt: d.UpdatedAt,
	}
}

// GET /documents?department=&status=&page=&limit=
func (h *handler) handleListDocuments(w http.ResponseWriter, r *http.Request) {
	docs, err := h.engine.ListDocuments(r.Context())
	if err != nil {
		writeEngineError(w, err)
		return
	}

	department := r.URL.Query().Get("department")
	status := r.URL.Query().Get("status")

	var filtered []store.Document
	for _, d := range docs {
		if department != "" && d.Department != department {
			continue
		}
		if status != "" && d.Status != status {
			continue
		}
		filtered = append(filtered, d)
	}

	page, limit := parsePagination(r)
	paged := paginate(filtered, page, limit)

	out := make([]documentDTO, len(paged))
	for i, d := range paged {
		out[i] = toDocumentDTO(d)
	}
	writeJSON(w, http.StatusOK, map[string]any{"documents": out, "total": len(filtered), "page": page, "limit": limit})
}

// GET /documents/{id}
func (h *handler) handleGetDocument(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid document id")
		return
	}
	doc, err := h.engine.GetDocument(r.Context(), id)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toDocumentDTO(*doc))
}

// GET /documents/{id}/status
func (h *handler) handleDocumentStatus(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid document id")
		return
	}
	doc, err := h.engine.GetDocument(r.Context(), id)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": doc.Status, "error_message": doc.ErrorMessage})
}

type chunkDTO struct {
	ID           int64   `json:"id"`
	ChunkIndex   int     `json:"chunk_index"`
	SectionTitle string  `json:"section_title,omitempty"`
	SectionPath  string  `json:"section_path,omitempty"`
	Content      string  `json:"content"`
	TokenCount   int     `json:"token_count"`
	StartOffset  int     `json:"start_offset"`
	EndOffset    int     `json:"end_offset"`
	Confidence   float64 `json:"confidence"`
}

// GET /documents/{id}/chunks
func (h *handler) handleDocumentChunks(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid document id")
		return
	}
	chunks, err := h.engine.Store().GetChunksByDocument(r.Context(), id)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	out := make([]chunkDTO, len(chunks))
	for i, c := range chunks {
		out[i] = chunkDTO{
			ID: c.ID, ChunkIndex: c.ChunkIndex, SectionTitle: c.SectionTitle, SectionPath: c.SectionPath,
			Content: c.Content, TokenCount: c.TokenCount,
			StartOffset: c.StartOffset, EndOffset: c.EndOffset, Confidence: c.Confidence,
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{"chunks": out})
}

// GET /documents/{id}/records
func (h *handler) handleDocumentRecords(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid document id")
		return
	}
	recs, err := h.engine.Store().ListRecordsByDocument(r.Context(), id)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	out := make([]recordDTO, len(recs))
	for i, rec := range recs {
		out[i] = toRecordDTO(rec)
	}
	writeJSON(w, http.StatusOK, map[string]any{"records": out})
}

// DELETE /documents/{id}
func (h *handler) handleDeleteDocument(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid document id")
		return
	}
	if err := h.engine.DeleteDocument(r.Context(), id); err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// --- Review ---

type recordDTO struct {
	ID                int64          `json:"id"`
	DocumentID        int64          `json:"document_id"`
	SchemaType        string         `json:"schema_type"`
	Department        string         `json:"department"`
	PrimaryKey        string         `json:"primary_key"`
	Data              map[string]any `json:"data"`
	CompletenessScore float64        `json:"completeness_score"`
	Status            string         `json:"status"`
	Version           int            `json:"version"`
	CreatedAt         string         `json:"created_at"`
	UpdatedAt         string         `json:"updated_at"`
}

func toRecordDTO(r store.Record) recordDTO {
	var data map[string]any
	_ = json.Unmarshal([]byte(r.DataJSON), &data)
	return recordDTO{
		ID: r.ID, DocumentID: r.DocumentID, SchemaType: r.SchemaType, Department: r.Department,
		PrimaryKey: r.PrimaryKey, Data: data, CompletenessScore: r.CompletenessScore,
		Status: r.Status, Version: r.Version, CreatedAt: r.CreatedAt, UpdatedAt: r.UpdatedAt,
	}
}

// GET /review?department=&schema_type=&status=&sort_by=completeness|created|updated&page=&limit=
func (h *handler) handleListReview(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	department := q.Get("department")
	schemaType := q.Get("schema_type")
	status := q.Get("status")
	sortBy := q.Get("sort_by")
	if sortBy == "" {
		sortBy = "completeness"
	}

	var all []store.Record
	var err error
	switch {
	case department != "":
		all, err = h.engine.Store().ListRecordsByDepartment(r.Context(), department)
	case status != "":
		all, err = h.engine.Store().ListRecordsByStatus(r.Context(), status)
	default:
		pending, e1 := h.engine.Store().ListRecordsByStatus(r.Context(), "pending")
		needsReview, e2 := h.engine.Store().ListRecordsByStatus(r.Context(), "needs_review")
		err = firstErr(e1, e2)
		all = append(pending, needsReview...)
	}
	if err != nil {
		writeEngineError(w, err)
		return
	}

	var filtered []store.Record
	for _, rec := range all {
		if schemaType != "" && rec.SchemaType != schemaType {
			continue
		}
		if department != "" && status != "" && rec.Status != status {
			continue
		}
		if department == "" && status == "" && rec.Status != "pending" && rec.Status != "needs_review" {
			continue
		}
		filtered = append(filtered, rec)
	}

	sort.Slice(filtered, func(i, j int) bool {
		switch sortBy {
		case "created":
			return filtered[i].CreatedAt < filtered[j].CreatedAt
		case "updated":
			return filtered[i].UpdatedAt < filtered[j].UpdatedAt
		default:
			return filtered[i].CompletenessScore < filtered[j].CompletenessScore
		}
	})

	page, limit := parsePagination(r)
	paged := paginate(filtered, page, limit)
	out := make([]recordDTO, len(paged))
	for i, rec := range paged {
		out[i] = toRecordDTO(rec)
	}
	writeJSON(w, http.StatusOK, map[string]any{"records": out, "total": len(filtered), "page": page, "limit": limit})
}

type evidenceDTO struct {
	FieldPath   string `json:"field_path"`
	Excerpt     string `json:"excerpt"`
	ChunkID     *int64 `json:"chunk_id,omitempty"`
	StartOffset int    `json:"start_offset"`
	EndOffset   int    `json:"end_offset"`
}

type attachmentDTO struct {
	ID        int64  `json:"id"`
	Filename  string `json:"filename"`
	MimeType  string `json:"mime_type"`
	SizeBytes int64  `json:"size_bytes"`
	URL       string `json:"url"`
}

// GET /review/{id}
func (h *handler) handleGetReviewRecord(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid record id")
		return
	}
	rec, err := h.engine.Store().GetRecord(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusNotFound, "record not found")
		return
	}
	ev, err := h.engine.Store().GetEvidenceByRecord(r.Context(), id)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	atts, err := h.engine.Store().ListAttachmentsByRecord(r.Context(), id)
	if err != nil {
		writeEngineError(w, err)
		return
	}

	evOut := make([]evidenceDTO, len(ev))
	for i, e := range ev {
		evOut[i] = evidenceDTO{FieldPath: e.FieldPath, Excerpt: e.Excerpt, ChunkID: e.ChunkID, StartOffset: e.StartOffset, EndOffset: e.EndOffset}
	}
	attOut := make([]attachmentDTO, len(atts))
	for i, a := range atts {
		attOut[i] = attachmentDTO{ID: a.ID, Filename: a.Filename, MimeType: a.MimeType, SizeBytes: a.SizeBytes, URL: signedAttachmentURL(a.ID)}
	}

	resp := struct {
		recordDTO
		Evidence    []evidenceDTO   `json:"evidence"`
		Attachments []attachmentDTO `json:"attachments"`
	}{toRecordDTO(*rec), evOut, attOut}
	writeJSON(w, http.StatusOK, resp)
}

// signedAttachmentURL returns a short-lived URL for an attachment: its path
// plus an expiry timestamp 15 minutes ahead. The URL carries no signature.
// The signing scheme itself is out of core per §3; this stands in for it.
func signedAttachmentURL(attachmentID int64) string {
	expires := time.Now().Add(15 * time.Minute).Unix()
	return fmt.Sprintf("/attachments/%d?expires=%d", attachmentID, expires)
}

type actorReasonRequest struct {
	Actor  string `json:"actor"`
	Reason string `json:"reason,omitempty"`
}

// POST /review/{id}/approve
func (h *handler) handleApproveRecord(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid record id")
		return
	}
	var req actorReasonRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if err := h.review.Approve(r.Context(), id, req.Actor, req.Reason); err != nil {
		writeReviewError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "approved"})
}

// POST /review/{id}/reject
func (h *handler) handleRejectRecord(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid record id")
		return
	}
	var req actorReasonRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if err := h.review.Reject(r.Context(), id, req.Actor, req.Reason); err != nil {
		writeReviewError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "rejected"})
}

// PUT /review/{id}
func (h *handler) handleEditRecord(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid record id")
		return
	}
	var req struct {
		Actor    string         `json:"actor"`
		DataJSON map[string]any `json:"data_json"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if err := h.review.Edit(r.Context(), id, req.Actor, req.DataJSON); err != nil {
		writeReviewError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "edited"})
}

type proposedUpdateDTO struct {
	ID               int64  `json:"id"`
	RecordID         int64  `json:"record_id"`
	SourceDocumentID int64  `json:"source_document_id"`
	Status           string `json:"status"`
	ReviewedBy       string `json:"reviewed_by,omitempty"`
	CreatedAt        string `json:"created_at"`
	NewData          any    `json:"new_data"`
	Diff             any    `json:"diff"`
}

func toProposedUpdateDTO(u store.ProposedUpdate) proposedUpdateDTO {
	var newData, diff any
	_ = json.Unmarshal([]byte(u.NewDataJSON), &newData)
	_ = json.Unmarshal([]byte(u.DiffJSON), &diff)
	return proposedUpdateDTO{
		ID: u.ID, RecordID: u.RecordID, SourceDocumentID: u.SourceDocumentID, Status: u.Status,
		ReviewedBy: u.ReviewedBy, CreatedAt: u.CreatedAt, NewData: newData, Diff: diff,
	}
}

// GET /review/updates/pending
func (h *handler) handleListPendingUpdates(w http.ResponseWriter, r *http.Request) {
	updates, err := h.engine.Store().ListPendingProposedUpdates(r.Context())
	if err != nil {
		writeEngineError(w, err)
		return
	}
	out := make([]proposedUpdateDTO, len(updates))
	for i, u := range updates {
		out[i] = toProposedUpdateDTO(u)
	}
	writeJSON(w, http.StatusOK, map[string]any{"updates": out})
}

// GET /review/updates/{id}
func (h *handler) handleGetUpdate(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid update id")
		return
	}
	upd, err := h.engine.Store().GetProposedUpdate(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusNotFound, "proposed update not found")
		return
	}
	writeJSON(w, http.StatusOK, toProposedUpdateDTO(*upd))
}

// POST /review/updates/{id}/approve
func (h *handler) handleApproveUpdate(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid update id")
		return
	}
	var req actorReasonRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if err := h.review.ApproveUpdate(r.Context(), id, req.Actor); err != nil {
		writeReviewError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "approved"})
}

// POST /review/updates/{id}/reject
func (h *handler) handleRejectUpdate(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid update id")
		return
	}
	var req actorReasonRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if err := h.review.RejectUpdate(r.Context(), id, req.Actor); err != nil {
		writeReviewError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "rejected"})
}

// --- Knowledge ---

type searchResultDTO struct {
	recordDTO
	RelevanceScore float64 `json:"relevance_score"`
}

// GET /knowledge/search?q=&department=&schema=&limit=
func (h *handler) handleKnowledgeSearch(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	query := strings.ToLower(strings.TrimSpace(q.Get("q")))
	department := q.Get("department")
	schemaType := q.Get("schema")
	limit := 20
	if v, err := strconv.Atoi(q.Get("limit")); err == nil && v > 0 {
		limit = v
	}

	if query == "" {
		writeJSON(w, http.StatusOK, map[string]any{"results": []searchResultDTO{}})
		return
	}

	var candidates []store.Record
	var err error
	if department != "" {
		candidates, err = h.engine.Store().ListRecordsByDepartment(r.Context(), department)
	} else {
		candidates, err = h.engine.Store().ListRecordsByStatus(r.Context(), "approved")
	}
	if err != nil {
		writeEngineError(w, err)
		return
	}

	var results []searchResultDTO
	for _, rec := range candidates {
		if rec.Status != "approved" {
			continue
		}
		if schemaType != "" && rec.SchemaType != schemaType {
			continue
		}
		score := searchScore(query, rec)
		if score <= 0 {
			continue
		}
		results = append(results, searchResultDTO{recordDTO: toRecordDTO(rec), RelevanceScore: score})
	}

	sort.Slice(results, func(i, j int) bool { return results[i].RelevanceScore > results[j].RelevanceScore })
	if len(results) > limit {
		results = results[:limit]
	}
	writeJSON(w, http.StatusOK, map[string]any{"results": results})
}

// searchScore implements §6's fixed scoring rule:
// score = (2·I[q in primary_key] + min(0.5·count(q in data), 3)) · (0.5 + 0.5·completeness)
func searchScore(query string, rec store.Record) float64 {
	pkMatch := 0.0
	if strings.Contains(strings.ToLower(rec.PrimaryKey), query) {
		pkMatch = 2.0
	}

	count := strings.Count(strings.ToLower(rec.DataJSON), query)
	dataScore := 0.5 * float64(count)
	if dataScore > 3 {
		dataScore = 3
	}

	return (pkMatch + dataScore) * (0.5 + 0.5*rec.CompletenessScore)
}

// GET /knowledge/schemas
func (h *handler) handleKnowledgeSchemas(w http.ResponseWriter, r *http.Request) {
	all := schema.Default().All()
	out := make(map[string]any, len(all))
	for name, d := range all {
		fields := make([]map[string]any, len(d.Fields))
		for i, f := range d.Fields {
			fields[i] = map[string]any{"name": f.Name, "kind": f.Kind, "required": f.Required, "description": f.Description}
		}
		out[name] = map[string]any{
			"doc_type":           d.DocType,
			"department":         d.Department,
			"fields":             fields,
			"primary_key_fields": d.PrimaryKeyFields,
		}
	}
	writeJSON(w, http.StatusOK, out)
}

// GET /knowledge/stats
func (h *handler) handleKnowledgeStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.engine.Store().GetStats(r.Context())
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// --- Dashboard ---

// GET /dashboard/stats
func (h *handler) handleDashboardStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.engine.Store().GetStats(r.Context())
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

type activityDTO struct {
	ID         int64  `json:"id"`
	Actor      string `json:"actor"`
	Action     string `json:"action"`
	EntityType string `json:"entity_type"`
	EntityID   int64  `json:"entity_id"`
	CreatedAt  string `json:"created_at"`
}

// GET /dashboard/activity?limit=
func (h *handler) handleDashboardActivity(w http.ResponseWriter, r *http.Request) {
	limit := 20
	if v, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && v > 0 {
		limit = v
	}
	logs, err := h.engine.Store().ListRecentAuditLogs(r.Context(), limit)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	out := make([]activityDTO, len(logs))
	for i, l := range logs {
		out[i] = activityDTO{ID: l.ID, Actor: l.Actor, Action: l.Action, EntityType: l.EntityType, EntityID: l.EntityID, CreatedAt: l.CreatedAt}
	}
	writeJSON(w, http.StatusOK, map[string]any{"activity": out})
}

// GET /health
func (h *handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// --- helpers ---

func pathID(r *http.Request) (int64, error) {
	return strconv.ParseInt(r.PathValue("id"), 10, 64)
}

func parsePagination(r *http.Request) (page, limit int) {
	page = 1
	limit = 50
	if v, err := strconv.Atoi(r.URL.Query().Get("page")); err == nil && v > 0 {
		page = v
	}
	if v, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && v > 0 && v <= 100 {
		limit = v
	}
	return page, limit
}

func paginate[T any](items []T, page, limit int) []T {
	start := (page - 1) * limit
	if start >= len(items) {
		return nil
	}
	end := start + limit
	if end > len(items) {
		end = len(items)
	}
	return items[start:end]
}

func firstErr(errs ...error) error {
	for _, e := range errs {
		if e != nil {
			return e
		}
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}

func errorDetail(err error) string {
	return err.Error()
}

// writeEngineError maps a knowledgehub.Error's Kind to an HTTP status, per
// §7: NotFound→404, Validation→400, Conflict→409, UpstreamFailure→502,
// Internal→500.
func writeEngineError(w http.ResponseWriter, err error) {
	switch knowledgehub.KindOf(err) {
	case knowledgehub.KindNotFound:
		writeError(w, http.StatusNotFound, errorDetail(err))
	case knowledgehub.KindValidation:
		writeError(w, http.StatusBadRequest, errorDetail(err))
	case knowledgehub.KindConflict:
		writeError(w, http.StatusConflict, errorDetail(err))
	case knowledgehub.KindUpstreamFailure:
		writeError(w, http.StatusBadGateway, errorDetail(err))
	default:
		slog.Error("internal error", "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}

// writeReviewError maps review.Controller errors: illegal transitions are
// a Conflict, not-found lookups are NotFound, everything else is Internal.
func writeReviewError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, review.ErrIllegalTransition):
		writeError(w, http.StatusConflict, "illegal status transition")
	case errors.Is(err, merge.ErrStaleUpdate):
		writeError(w, http.StatusConflict, "update conflicts with a more recent approved change")
	case errors.Is(err, sql.ErrNoRows):
		writeError(w, http.StatusNotFound, "not found")
	default:
		slog.Error("review operation failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}
