package regions

import (
	"context"
	"fmt"

	"github.com/ppiankov/depicta/internal/identity"
)

// DeleteStatement removes a local statement right away and then asks the
// server to delete it. A failed request is reported; the statement is not
// put back.
func (e *Editor) DeleteStatement(ctx context.Context, statementID string) error {
	e.mu.Lock()
	if _, ok := e.statements[statementID]; !ok {
		e.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrUnknownStatement, statementID)
	}
	if !identity.CanDelete(statementID) {
		e.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrPublished, statementID)
	}
	if e.session != nil && e.session.statementID == statementID {
		e.mu.Unlock()
		return ErrSessionActive
	}
	e.remove(statementID)
	e.log.Info("statement removed", "statement", statementID)
	e.mu.Unlock()

	if err := e.syncer.DeleteStatement(ctx, statementID); err != nil {
		e.log.Warn("delete statement failed", "statement", statementID, "error", err)
		return fmt.Errorf("delete statement: %w", err)
	}
	return nil
}

// CheckApproval asks the server whether the annotations were approved and
// remembers the answer. Only approved annotations can be uploaded.
func (e *Editor) CheckApproval(ctx context.Context) (bool, error) {
	e.mu.Lock()
	entityID := e.entity.ID
	e.mu.Unlock()

	approved, err := e.syncer.Approved(ctx, entityID, e.username)
	if err != nil {
		return false, fmt.Errorf("check approval: %w", err)
	}

	e.mu.Lock()
	e.approved = approved
	e.mu.Unlock()
	return approved, nil
}

// Upload publishes the annotations. On success every statement of
// propertyID leaves both the overlay and the without-region list, and the
// upload control goes away.
func (e *Editor) Upload(ctx context.Context, propertyID string) error {
	e.mu.Lock()
	if !e.approved {
		e.mu.Unlock()
		return ErrNotApproved
	}
	if e.state != Idle {
		e.mu.Unlock()
		return ErrSessionActive
	}
	entityID := e.entity.ID
	e.mu.Unlock()

	if err := e.syncer.Upload(ctx, entityID); err != nil {
		return fmt.Errorf("upload: %w", err)
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	var removed int
	for _, id := range append([]string(nil), e.order...) {
		if e.statements[id].PropertyID == propertyID {
			e.remove(id)
			removed++
		}
	}
	e.approved = false
	e.log.Info("annotations uploaded", "property", propertyID, "removed", removed)
	return nil
}
