//go:build cgo

package review

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/jokari/knowledgehub/merge"
	"github.com/jokari/knowledgehub/schema"
	"github.com/jokari/knowledgehub/store"
)

func newTestController(t *testing.T) *Controller {
	t.Helper()
	s, err := store.New(filepath.Join(t.TempDir(), "test.db"), 4)
	if err != nil {
		t.Fatalf("opening store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return New(s, schema.NewRegistry())
}

func insertRecord(t *testing.T, c *Controller, status string) int64 {
	t.Helper()
	dataJSON, _ := json.Marshal(map[string]any{"question": "q", "answer": "a"})
	id, err := c.store.InsertRecord(context.Background(), store.Record{
		DocumentID: 1, SchemaType: "FAQ", Department: "support", PrimaryKey: "q",
		DataJSON: string(dataJSON), CompletenessScore: 1.0, Status: status, Version: 1,
	})
	if err != nil {
		t.Fatalf("inserting record: %v", err)
	}
	return id
}

func TestApproveFromPendingSucceeds(t *testing.T) {
	c := newTestController(t)
	ctx := context.Background()
	id := insertRecord(t, c, "pending")

	if err := c.Approve(ctx, id, "reviewer", "looks correct"); err != nil {
		t.Fatalf("Approve: %v", err)
	}

	rec, err := c.store.GetRecord(ctx, id)
	if err != nil {
		t.Fatalf("GetRecord: %v", err)
	}
	if rec.Status != "approved" {
		t.Fatalf("expected status approved, got %q", rec.Status)
	}

	logs, err := c.store.ListRecentAuditLogs(ctx, 10)
	if err != nil {
		t.Fatalf("ListRecentAuditLogs: %v", err)
	}
	if len(logs) != 1 || logs[0].Action != "approve" {
		t.Fatalf("expected exactly one approve audit entry, got %+v", logs)
	}
}

func TestApproveFromApprovedIsConflict(t *testing.T) {
	c := newTestController(t)
	ctx := context.Background()
	id := insertRecord(t, c, "approved")

	err := c.Approve(ctx, id, "reviewer", "")
	if err != ErrIllegalTransition {
		t.Fatalf("expected ErrIllegalTransition, got %v", err)
	}

	logs, err := c.store.ListRecentAuditLogs(ctx, 10)
	if err != nil {
		t.Fatalf("ListRecentAuditLogs: %v", err)
	}
	if len(logs) != 0 {
		t.Fatalf("expected no audit entry for an illegal transition, got %d", len(logs))
	}
}

func TestRejectFromRejectedIsIdempotent(t *testing.T) {
	c := newTestController(t)
	ctx := context.Background()
	id := insertRecord(t, c, "rejected")

	if err := c.Reject(ctx, id, "reviewer", ""); err != nil {
		t.Fatalf("Reject on already-rejected record should be idempotent, got %v", err)
	}

	logs, err := c.store.ListRecentAuditLogs(ctx, 10)
	if err != nil {
		t.Fatalf("ListRecentAuditLogs: %v", err)
	}
	if len(logs) != 0 {
		t.Fatalf("expected no audit entry for an idempotent no-op reject, got %d", len(logs))
	}
}

func TestRejectFromApprovedIsConflict(t *testing.T) {
	c := newTestController(t)
	ctx := context.Background()
	id := insertRecord(t, c, "approved")

	if err := c.Reject(ctx, id, "reviewer", ""); err != ErrIllegalTransition {
		t.Fatalf("expected ErrIllegalTransition, got %v", err)
	}
}

func TestEditRecomputesCompleteness(t *testing.T) {
	c := newTestController(t)
	ctx := context.Background()
	id := insertRecord(t, c, "pending")

	if err := c.Edit(ctx, id, "reviewer", map[string]any{"question": "q"}); err != nil {
		t.Fatalf("Edit: %v", err)
	}

	rec, err := c.store.GetRecord(ctx, id)
	if err != nil {
		t.Fatalf("GetRecord: %v", err)
	}
	if rec.Version != 2 {
		t.Fatalf("expected version bumped to 2, got %d", rec.Version)
	}
	if rec.CompletenessScore >= 1.0 {
		t.Fatalf("expected completeness to drop after dropping the answer field, got %v", rec.CompletenessScore)
	}
	if rec.Status != "pending" {
		t.Fatalf("expected edit to leave status unchanged, got %q", rec.Status)
	}
}

func TestEditOnApprovedIsConflict(t *testing.T) {
	c := newTestController(t)
	ctx := context.Background()
	id := insertRecord(t, c, "approved")

	if err := c.Edit(ctx, id, "reviewer", map[string]any{"question": "q"}); err != ErrIllegalTransition {
		t.Fatalf("expected ErrIllegalTransition, got %v", err)
	}
}

func insertPendingUpdate(t *testing.T, c *Controller, recordID int64, newData map[string]any, diff merge.Diff) int64 {
	t.Helper()
	newDataJSON, _ := json.Marshal(newData)
	diffJSON, _ := json.Marshal(diff)
	id, err := c.store.InsertProposedUpdate(context.Background(), store.ProposedUpdate{
		RecordID: recordID, SourceDocumentID: 1,
		NewDataJSON: string(newDataJSON), DiffJSON: string(diffJSON), Status: "pending",
	})
	if err != nil {
		t.Fatalf("inserting proposed update: %v", err)
	}
	return id
}

func TestApproveUpdateMergesIntoRecord(t *testing.T) {
	c := newTestController(t)
	ctx := context.Background()
	recordID := insertRecord(t, c, "approved")

	newData := map[string]any{"question": "q", "answer": "a new and better answer"}
	diff := merge.ComputeDiff(map[string]any{"question": "q", "answer": "a"}, newData)
	updateID := insertPendingUpdate(t, c, recordID, newData, diff)

	if err := c.ApproveUpdate(ctx, updateID, "reviewer"); err != nil {
		t.Fatalf("ApproveUpdate: %v", err)
	}

	rec, err := c.store.GetRecord(ctx, recordID)
	if err != nil {
		t.Fatalf("GetRecord: %v", err)
	}
	var data map[string]any
	if err := json.Unmarshal([]byte(rec.DataJSON), &data); err != nil {
		t.Fatalf("unmarshalling merged data: %v", err)
	}
	if data["answer"] != "a new and better answer" {
		t.Fatalf("expected merged answer, got %v", data["answer"])
	}

	upd, err := c.store.GetProposedUpdate(ctx, updateID)
	if err != nil {
		t.Fatalf("GetProposedUpdate: %v", err)
	}
	if upd.Status != "approved" {
		t.Fatalf("expected proposed update status approved, got %q", upd.Status)
	}
}

func TestApproveUpdateRejectsStaleDiff(t *testing.T) {
	c := newTestController(t)
	ctx := context.Background()
	recordID := insertRecord(t, c, "approved")

	// Compute the diff against data the record no longer has: the
	// "category" field it claims is unchanged has since drifted.
	staleOld := map[string]any{"question": "q", "answer": "a", "category": "general"}
	newData := map[string]any{"question": "q", "answer": "a new answer", "category": "general"}
	diff := merge.ComputeDiff(staleOld, newData)
	updateID := insertPendingUpdate(t, c, recordID, newData, diff)

	// A second update already landed, changing category underneath it.
	if err := c.store.UpdateRecordData(ctx, recordID, `{"question":"q","answer":"a","category":"hardware"}`, 1.0); err != nil {
		t.Fatalf("simulating a racing update: %v", err)
	}

	err := c.ApproveUpdate(ctx, updateID, "reviewer")
	if err != merge.ErrStaleUpdate {
		t.Fatalf("expected merge.ErrStaleUpdate, got %v", err)
	}
}

func TestRejectUpdateLeavesRecordUntouched(t *testing.T) {
	c := newTestController(t)
	ctx := context.Background()
	recordID := insertRecord(t, c, "approved")

	newData := map[string]any{"question": "q", "answer": "a different answer"}
	diff := merge.ComputeDiff(map[string]any{"question": "q", "answer": "a"}, newData)
	updateID := insertPendingUpdate(t, c, recordID, newData, diff)

	if err := c.RejectUpdate(ctx, updateID, "reviewer"); err != nil {
		t.Fatalf("RejectUpdate: %v", err)
	}

	rec, err := c.store.GetRecord(ctx, recordID)
	if err != nil {
		t.Fatalf("GetRecord: %v", err)
	}
	var data map[string]any
	json.Unmarshal([]byte(rec.DataJSON), &data)
	if data["answer"] != "a" {
		t.Fatalf("expected record data untouched by a rejected update, got %v", data["answer"])
	}

	upd, err := c.store.GetProposedUpdate(ctx, updateID)
	if err != nil {
		t.Fatalf("GetProposedUpdate: %v", err)
	}
	if upd.Status != "rejected" {
		t.Fatalf("expected status rejected, got %q", upd.Status)
	}
}

func TestApproveUpdateOnNonPendingIsConflict(t *testing.T) {
	c := newTestController(t)
	ctx := context.Background()
	recordID := insertRecord(t, c, "approved")

	newData := map[string]any{"question": "q", "answer": "a"}
	diff := merge.ComputeDiff(map[string]any{"question": "q", "answer": "a"}, newData)
	updateID := insertPendingUpdate(t, c, recordID, newData, diff)

	if err := c.store.SetProposedUpdateStatus(ctx, updateID, "approved", "someone-else"); err != nil {
		t.Fatalf("seeding already-approved update: %v", err)
	}

	if err := c.ApproveUpdate(ctx, updateID, "reviewer"); err != ErrIllegalTransition {
		t.Fatalf("expected ErrIllegalTransition, got %v", err)
	}
}

func TestAttachmentLifecycleWritesNoAuditEntry(t *testing.T) {
	c := newTestController(t)
	ctx := context.Background()
	recordID := insertRecord(t, c, "pending")

	attID, err := c.UploadAttachment(ctx, recordID, "reviewer", "notes.pdf", "/blobs/abc.pdf", "application/pdf", 1024)
	if err != nil {
		t.Fatalf("UploadAttachment: %v", err)
	}

	att, err := c.DeleteAttachment(ctx, attID)
	if err != nil {
		t.Fatalf("DeleteAttachment: %v", err)
	}
	if att.Filename != "notes.pdf" {
		t.Fatalf("expected returned attachment to be the deleted one, got %q", att.Filename)
	}

	logs, err := c.store.ListRecentAuditLogs(ctx, 10)
	if err != nil {
		t.Fatalf("ListRecentAuditLogs: %v", err)
	}
	if len(logs) != 0 {
		t.Fatalf("attachment operations must not write audit entries, found %d", len(logs))
	}
}
