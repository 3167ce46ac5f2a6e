package regions

import "errors"

// State is the phase of the entity's region session.
type State int

const (
	Idle State = iota
	SelectingSource
	Adjusting
	Saving
)

func (s State) String() string {
	switch s {
	case SelectingSource:
		return "selecting"
	case Adjusting:
		return "adjusting"
	case Saving:
		return "saving"
	default:
		return "idle"
	}
}

// Mode is the kind of region session.
type Mode int

const (
	ModeNone Mode = iota
	ModeAdd
	ModeEdit
	ModeDelete
)

func (m Mode) String() string {
	switch m {
	case ModeAdd:
		return "add"
	case ModeEdit:
		return "edit"
	case ModeDelete:
		return "delete"
	default:
		return "none"
	}
}

var (
	ErrSessionActive    = errors.New("another region session is active")
	ErrNoSession        = errors.New("no region session is active")
	ErrSaving           = errors.New("region is being saved")
	ErrWrongState       = errors.New("action not allowed in the current session state")
	ErrEmptySelection   = errors.New("select an area of the image first")
	ErrUnknownStatement = errors.New("unknown statement")
	ErrHasRegion        = errors.New("statement already has a region")
	ErrNoRegion         = errors.New("statement has no region")
	ErrNoRegions        = errors.New("entity has no regions")
	ErrControlsDisabled = errors.New("region controls are not enabled")
	ErrPublished        = errors.New("published statements cannot be deleted locally")
	ErrNotApproved      = errors.New("annotations are not approved for upload")
)
