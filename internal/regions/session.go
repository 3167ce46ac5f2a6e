package regions

import (
	"context"
	"fmt"
	"sort"

	"github.com/ppiankov/depicta/internal/geometry"
	"github.com/ppiankov/depicta/internal/identity"
	"github.com/ppiankov/depicta/internal/imagesrc"
)

// KeyEscape cancels a selecting or adjusting session.
const KeyEscape = "Escape"

// session holds everything that exists only while a session is open. It is
// dropped as a whole when the session ends.
type session struct {
	mode        Mode
	statementID string
	crop        geometry.Crop
	targets     []string
	subst       *imagesrc.Substitution
}

func (s *session) view(state State) *SessionView {
	v := &SessionView{
		Mode:          s.mode,
		State:         state,
		StatementID:   s.statementID,
		Crop:          s.crop,
		CancelControl: state == SelectingSource || state == Adjusting,
		KeyHandler:    state == SelectingSource || state == Adjusting,
		SourceSwapped: s.subst != nil && s.subst.Swapped(),
	}
	if state == SelectingSource {
		v.ClickTargets = append([]string(nil), s.targets...)
	}
	return v
}

// end restores the image and drops the session. Callers hold e.mu.
func (e *Editor) end() {
	if e.session != nil && e.session.subst != nil {
		e.session.subst.Restore()
	}
	e.session = nil
	e.state = Idle
}

func (e *Editor) begin(mode Mode) error {
	if e.state != Idle {
		return ErrSessionActive
	}
	e.session = &session{mode: mode}
	return nil
}

// StartAdd opens the crop tool for a statement that has no region yet.
func (e *Editor) StartAdd(statementID string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state != Idle {
		return ErrSessionActive
	}
	s, ok := e.statements[statementID]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownStatement, statementID)
	}
	if s.HasRegion() {
		return fmt.Errorf("%w: %s", ErrHasRegion, statementID)
	}
	if !identity.CanEditRegion(statementID) {
		return fmt.Errorf("%w: %s", ErrWrongState, statementID)
	}

	if err := e.begin(ModeAdd); err != nil {
		return err
	}
	e.session.statementID = statementID
	e.session.subst = imagesrc.Substitute(&e.entity.Image)
	e.state = Adjusting
	e.log.Debug("region session started", "mode", ModeAdd, "statement", statementID, "swapped", e.session.subst.Swapped())
	return nil
}

// StartEdit waits for the user to pick the region to move.
func (e *Editor) StartEdit() error {
	return e.startSelecting(ModeEdit)
}

// StartDelete waits for the user to pick the region to remove.
func (e *Editor) StartDelete() error {
	return e.startSelecting(ModeDelete)
}

func (e *Editor) startSelecting(mode Mode) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state != Idle {
		return ErrSessionActive
	}
	if !e.regionControls {
		return ErrControlsDisabled
	}
	if e.regionCount() == 0 {
		return ErrNoRegions
	}

	if err := e.begin(mode); err != nil {
		return err
	}
	for _, id := range e.order {
		if e.statements[id].HasRegion() {
			e.session.targets = append(e.session.targets, id)
		}
	}
	sort.SliceStable(e.session.targets, func(i, j int) bool {
		// smaller regions sit on top and are hit first
		return e.statements[e.session.targets[i]].Region.ZIndex() > e.statements[e.session.targets[j]].Region.ZIndex()
	})
	e.state = SelectingSource
	e.log.Debug("region session started", "mode", mode, "targets", len(e.session.targets))
	return nil
}

// Select picks a region while selecting. In edit mode the crop tool opens on
// the current rectangle. In delete mode the region is removed at once, the
// session ends, and the removal stands even if the server call fails.
func (e *Editor) Select(ctx context.Context, statementID string) error {
	e.mu.Lock()
	if e.state != SelectingSource {
		e.mu.Unlock()
		return ErrWrongState
	}
	s, ok := e.statements[statementID]
	if !ok {
		e.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrUnknownStatement, statementID)
	}
	if !s.HasRegion() {
		e.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrNoRegion, statementID)
	}

	if e.session.mode == ModeEdit {
		e.session.statementID = statementID
		e.session.targets = nil
		e.session.crop = geometry.FromPercentageRegion(*s.Region, e.entity.Image.Size())
		e.session.subst = imagesrc.Substitute(&e.entity.Image)
		e.state = Adjusting
		e.log.Debug("region selected", "mode", ModeEdit, "statement", statementID)
		e.mu.Unlock()
		return nil
	}

	removed := s.Region.String()
	s.Region = nil
	e.end()
	e.log.Info("region removed", "statement", statementID, "region", removed)
	e.mu.Unlock()

	echo, err := e.syncer.DeleteQualifier(ctx, statementID)
	if err != nil {
		e.log.Warn("delete region failed", "statement", statementID, "error", err)
		return fmt.Errorf("delete region: %w", err)
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if cur, ok := e.statements[statementID]; ok {
		cur.QualifierToken = ""
		if echo.PropertyID != "" {
			cur.PropertyID = echo.PropertyID
		}
		if echo.Label.Value != "" {
			cur.Label = echo.Label
		}
	}
	return nil
}

// Adjust updates the crop rectangle while adjusting.
func (e *Editor) Adjust(crop geometry.Crop) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state != Adjusting {
		return ErrWrongState
	}
	e.session.crop = crop
	return nil
}

// Commit saves the adjusted region. An added region shows in the overlay
// while saving and is taken back if the server rejects it; an edited region
// changes only once the server accepted it. The qualifier token of an
// earlier save is sent along so the server updates instead of duplicating.
func (e *Editor) Commit(ctx context.Context) error {
	e.mu.Lock()
	if e.state != Adjusting {
		e.mu.Unlock()
		return ErrWrongState
	}
	if e.session.crop.Empty() {
		e.mu.Unlock()
		return ErrEmptySelection
	}

	mode := e.session.mode
	id := e.session.statementID
	s := e.statements[id]
	region := geometry.ToPercentageRegion(e.session.crop, e.entity.Image.Size())
	token := s.QualifierToken
	if mode == ModeAdd {
		r := region
		s.Region = &r
	}
	e.state = Saving
	e.log.Debug("saving region", "mode", mode, "statement", id, "region", region.String(), "token", token)
	e.mu.Unlock()

	newToken, err := e.syncer.AddQualifier(ctx, id, token, region.String())

	e.mu.Lock()
	defer e.mu.Unlock()
	defer e.end()

	cur, exists := e.statements[id]
	if err != nil {
		if mode == ModeAdd && exists {
			cur.Region = nil
		}
		e.log.Warn("save region failed", "mode", mode, "statement", id, "error", err)
		return fmt.Errorf("save region: %w", err)
	}
	if !exists {
		e.log.Warn("saved region for a statement that is gone", "statement", id)
		return nil
	}

	r := region
	cur.Region = &r
	cur.QualifierToken = newToken
	if !e.regionControls {
		e.regionControls = true
		e.log.Info("region controls enabled")
	}
	e.log.Info("region saved", "mode", mode, "statement", id, "region", region.String())
	return nil
}

// Cancel ends a selecting or adjusting session without saving.
func (e *Editor) Cancel() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	switch e.state {
	case Idle:
		return ErrNoSession
	case Saving:
		return ErrSaving
	}
	mode := e.session.mode
	e.end()
	e.log.Debug("region session cancelled", "mode", mode)
	return nil
}

// HandleKey reacts to a key press. Only Escape during an open session has an
// effect; it reports whether the key was handled.
func (e *Editor) HandleKey(key string) bool {
	if key != KeyEscape {
		return false
	}
	return e.Cancel() == nil
}

// Crop returns the crop of the open session.
func (e *Editor) Crop() (geometry.Crop, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.session == nil {
		return geometry.Crop{}, false
	}
	return e.session.crop, true
}
