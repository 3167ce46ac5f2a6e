package store

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/ppiankov/depicta/internal/model"
)

// LocalPrefix starts every local statement id.
const LocalPrefix = "L-"

// StatementRecord is a statement saved locally and not yet published.
type StatementRecord struct {
	ID             uint   `gorm:"primaryKey"`
	EntityID       string `gorm:"index:idx_statement_owner"`
	Username       string `gorm:"index:idx_statement_owner"`
	PropertyID     string
	SnakType       string
	ItemID         string
	LabelValue     string
	LabelLanguage  string
	ReferenceType  string
	ReferenceValue string
	PagesValue     string
	CreatedAt      time.Time
}

func (StatementRecord) TableName() string { return "statements" }

// StatementID is the public id of the record.
func (r StatementRecord) StatementID() string {
	return LocalPrefix + strconv.FormatUint(uint64(r.ID), 10)
}

// Model converts the record without its region.
func (r StatementRecord) Model() model.Statement {
	s := model.Statement{
		ID:         r.StatementID(),
		PropertyID: r.PropertyID,
		SnakType:   model.SnakType(r.SnakType),
		ItemID:     r.ItemID,
		Label:      model.Label{Value: r.LabelValue, Language: r.LabelLanguage},
	}
	if r.ReferenceType != "" && r.ReferenceValue != "" {
		s.Reference = &model.Reference{Type: model.ReferenceType(r.ReferenceType), Value: r.ReferenceValue, Pages: r.PagesValue}
	}
	return s
}

// parseLocalID returns the primary key of a local statement id.
func parseLocalID(statementID string) (uint, error) {
	raw, ok := strings.CutPrefix(statementID, LocalPrefix)
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrNotLocal, statementID)
	}
	n, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || n == 0 {
		return 0, fmt.Errorf("%w: %s", ErrNotFound, statementID)
	}
	return uint(n), nil
}

// QualifierRecord is the region qualifier of a statement, local or
// published. A statement has at most one.
type QualifierRecord struct {
	ID          uint   `gorm:"primaryKey"`
	StatementID string `gorm:"uniqueIndex"`
	IIIFRegion  string
	Hash        string
	UpdatedAt   time.Time
}

func (QualifierRecord) TableName() string { return "qualifiers" }

// CommentRecord is a project lead's remark on a contributor's statement.
type CommentRecord struct {
	ID                  uint   `gorm:"primaryKey"`
	StatementID         string `gorm:"index"`
	EntityID            string `gorm:"index:idx_comment_owner"`
	Username            string `gorm:"index:idx_comment_owner"` // owner of the annotations
	ProjectLeadUsername string
	Text                string
	CreatedAt           time.Time
}

func (CommentRecord) TableName() string { return "comments" }

// Model converts the record.
func (r CommentRecord) Model() model.Comment {
	return model.Comment{StatementID: r.StatementID, Author: r.ProjectLeadUsername, Text: r.Text}
}

// ApprovalRecord marks a user's annotations of an entity as approved.
type ApprovalRecord struct {
	ID        uint   `gorm:"primaryKey"`
	EntityID  string `gorm:"uniqueIndex:idx_approval"`
	Username  string `gorm:"uniqueIndex:idx_approval"`
	Approved  bool
	UpdatedAt time.Time
}

func (ApprovalRecord) TableName() string { return "approvals" }

// PublishedRecord is a statement that went through an upload.
type PublishedRecord struct {
	ID            uint   `gorm:"primaryKey"`
	StatementID   string `gorm:"uniqueIndex"`
	EntityID      string `gorm:"index"`
	PropertyID    string
	SnakType      string
	ItemID        string
	LabelValue    string
	LabelLanguage string
	Uploader      string
	CreatedAt     time.Time
}

func (PublishedRecord) TableName() string { return "published" }

// Model converts the record without its region.
func (r PublishedRecord) Model() model.Statement {
	return model.Statement{
		ID:         r.StatementID,
		PropertyID: r.PropertyID,
		SnakType:   model.SnakType(r.SnakType),
		ItemID:     r.ItemID,
		Label:      model.Label{Value: r.LabelValue, Language: r.LabelLanguage},
	}
}
