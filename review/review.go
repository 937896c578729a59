// Package review implements the Review Controller (C8): the moderator
// operations on Records and ProposedUpdates, each audited exactly once.
package review

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jokari/knowledgehub/completeness"
	"github.com/jokari/knowledgehub/merge"
	"github.com/jokari/knowledgehub/schema"
	"github.com/jokari/knowledgehub/store"
)

// ErrIllegalTransition is returned when a review operation is attempted
// from a status that does not permit it.
var ErrIllegalTransition = fmt.Errorf("review: illegal status transition")

// Controller wraps the store with the audited review operations.
type Controller struct {
	store    *store.Store
	registry *schema.Registry
}

// New builds a Controller over s, using reg to resolve a Record's schema
// descriptor for completeness recomputation on edit.
func New(s *store.Store, reg *schema.Registry) *Controller {
	return &Controller{store: s, registry: reg}
}

// Approve sets a Record's status to approved. Allowed only from pending
// or needs_review; any other starting status is a conflict.
func (c *Controller) Approve(ctx context.Context, recordID int64, actor, reason string) error {
	rec, err := c.store.GetRecord(ctx, recordID)
	if err != nil {
		return err
	}
	if rec.Status != "pending" && rec.Status != "needs_review" {
		return ErrIllegalTransition
	}
	if err := c.store.UpdateRecordStatus(ctx, recordID, "approved"); err != nil {
		return err
	}
	c.audit(ctx, actor, "approve", "record", recordID, reason)
	return nil
}

// Reject sets a Record's status to rejected. Idempotent from the
// terminal rejected state; illegal from approved.
func (c *Controller) Reject(ctx context.Context, recordID int64, actor, reason string) error {
	rec, err := c.store.GetRecord(ctx, recordID)
	if err != nil {
		return err
	}
	if rec.Status == "approved" {
		return ErrIllegalTransition
	}
	if rec.Status == "rejected" {
		return nil // idempotent
	}
	if err := c.store.UpdateRecordStatus(ctx, recordID, "rejected"); err != nil {
		return err
	}
	c.audit(ctx, actor, "reject", "record", recordID, reason)
	return nil
}

// Edit overwrites a Record's data and recomputes its completeness score.
// Allowed in any non-terminal state (pending, needs_review); status is
// unchanged.
func (c *Controller) Edit(ctx context.Context, recordID int64, actor string, newData map[string]any) error {
	rec, err := c.store.GetRecord(ctx, recordID)
	if err != nil {
		return err
	}
	if rec.Status == "approved" || rec.Status == "rejected" {
		return ErrIllegalTransition
	}

	desc, err := c.registry.SchemaByName(rec.SchemaType)
	if err != nil {
		return err
	}

	dataJSON, err := json.Marshal(newData)
	if err != nil {
		return fmt.Errorf("encoding record data: %w", err)
	}

	score := completeness.Score(desc, newData)
	if err := c.store.UpdateRecordData(ctx, recordID, string(dataJSON), score); err != nil {
		return err
	}
	c.audit(ctx, actor, "edit", "record", recordID, "")
	return nil
}

// ApproveUpdate applies a pending ProposedUpdate to its target Record.
// The update must be pending. Before merging, ApproveUpdate re-checks
// the diff's unchanged fields against the record's current data and
// fails with merge.ErrStaleUpdate if another approved change moved them
// in the meantime — see the concurrent-update open question.
func (c *Controller) ApproveUpdate(ctx context.Context, updateID int64, actor string) error {
	upd, err := c.store.GetProposedUpdate(ctx, updateID)
	if err != nil {
		return err
	}
	if upd.Status != "pending" {
		return ErrIllegalTransition
	}

	rec, err := c.store.GetRecord(ctx, upd.RecordID)
	if err != nil {
		return err
	}

	var currentData, newData map[string]any
	if err := json.Unmarshal([]byte(rec.DataJSON), &currentData); err != nil {
		return fmt.Errorf("decoding current record data: %w", err)
	}
	if err := json.Unmarshal([]byte(upd.NewDataJSON), &newData); err != nil {
		return fmt.Errorf("decoding proposed update data: %w", err)
	}

	var diff merge.Diff
	if err := json.Unmarshal([]byte(upd.DiffJSON), &diff); err != nil {
		return fmt.Errorf("decoding update diff: %w", err)
	}

	merged, err := merge.ApplyUpdate(currentData, diff, newData)
	if err != nil {
		return err
	}

	desc, err := c.registry.SchemaByName(rec.SchemaType)
	if err != nil {
		return err
	}
	mergedJSON, err := json.Marshal(merged)
	if err != nil {
		return fmt.Errorf("encoding merged data: %w", err)
	}

	if err := c.store.UpdateRecordData(ctx, rec.ID, string(mergedJSON), completeness.Score(desc, merged)); err != nil {
		return err
	}
	if err := c.store.SetProposedUpdateStatus(ctx, updateID, "approved", actor); err != nil {
		return err
	}
	c.audit(ctx, actor, "approve_update", "proposed_update", updateID, "")
	return nil
}

// RejectUpdate marks a pending ProposedUpdate rejected without touching
// its target Record.
func (c *Controller) RejectUpdate(ctx context.Context, updateID int64, actor string) error {
	upd, err := c.store.GetProposedUpdate(ctx, updateID)
	if err != nil {
		return err
	}
	if upd.Status != "pending" {
		return ErrIllegalTransition
	}
	if err := c.store.SetProposedUpdateStatus(ctx, updateID, "rejected", actor); err != nil {
		return err
	}
	c.audit(ctx, actor, "reject_update", "proposed_update", updateID, "")
	return nil
}

// UploadAttachment attaches a reviewer-supplied file to a Record. Per
// §3, attachments are out of core except for their ownership and
// cascade semantics: this operation is not part of the audited action
// vocabulary and writes no audit entry.
func (c *Controller) UploadAttachment(ctx context.Context, recordID int64, actor, filename, storagePath, mimeType string, size int64) (int64, error) {
	if _, err := c.store.GetRecord(ctx, recordID); err != nil {
		return 0, err
	}
	return c.store.InsertAttachment(ctx, store.Attachment{
		RecordID:    recordID,
		Filename:    filename,
		StoragePath: storagePath,
		MimeType:    mimeType,
		SizeBytes:   size,
		UploadedBy:  actor,
	})
}

// DeleteAttachment removes an attachment. The caller is responsible for
// best-effort removal of the underlying blob; a blob-store failure is
// logged there and never blocks the row deletion.
func (c *Controller) DeleteAttachment(ctx context.Context, attachmentID int64) (*store.Attachment, error) {
	att, err := c.store.GetAttachment(ctx, attachmentID)
	if err != nil {
		return nil, err
	}
	if err := c.store.DeleteAttachment(ctx, attachmentID); err != nil {
		return nil, err
	}
	return att, nil
}

func (c *Controller) audit(ctx context.Context, actor, action, entityType string, entityID int64, reason string) {
	var details string
	if reason != "" {
		if b, err := json.Marshal(map[string]string{"reason": reason}); err == nil {
			details = string(b)
		}
	}
	_, _ = c.store.InsertAuditLog(ctx, store.AuditLog{
		Actor:      actor,
		Action:     action,
		EntityType: entityType,
		EntityID:   entityID,
		Details:    details,
	})
}
