// Package store keeps local annotations in sqlite: statements that are not
// yet published, region qualifiers, comments, approvals, and the statements
// published by an upload.
package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormLogger "gorm.io/gorm/logger"

	"github.com/ppiankov/depicta/internal/logger"
	"github.com/ppiankov/depicta/internal/model"
)

var (
	ErrNotFound = errors.New("statement not found")
	ErrNotLocal = errors.New("statement is not local")
)

// Annotation is a statement together with its region qualifier, if any.
type Annotation struct {
	Statement     model.Statement
	IIIFRegion    string
	QualifierHash string
}

// Publisher sends local statements to the external database and reports the
// ids they were published under, in the same order.
type Publisher interface {
	Publish(ctx context.Context, entityID string, statements []model.Statement) ([]string, error)
}

// IDPublisher publishes nothing remotely; it assigns ids of the form
// "<entity>$<uuid>".
type IDPublisher struct{}

func (IDPublisher) Publish(ctx context.Context, entityID string, statements []model.Statement) ([]string, error) {
	ids := make([]string, len(statements))
	for i := range statements {
		ids[i] = entityID + "$" + uuid.NewString()
	}
	return ids, nil
}

// Store is the sqlite-backed annotation store.
type Store struct {
	db        *gorm.DB
	publisher Publisher
	log       *logger.Logger
}

// Open connects to dsn and migrates the schema. Use "file::memory:?cache=shared"
// style DSNs for throwaway stores.
func Open(dsn string, publisher Publisher, log *logger.Logger) (*Store, error) {
	if log == nil {
		log = logger.Nop()
	}
	if publisher == nil {
		publisher = IDPublisher{}
	}
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormLogger.Default.LogMode(gormLogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	if err := db.AutoMigrate(&StatementRecord{}, &QualifierRecord{}, &CommentRecord{}, &ApprovalRecord{}, &PublishedRecord{}); err != nil {
		return nil, fmt.Errorf("migrate store: %w", err)
	}
	return &Store{db: db, publisher: publisher, log: log.With("component", "store")}, nil
}

// Close releases the database.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// AddStatement saves a new local statement and returns it with its id.
func (s *Store) AddStatement(ctx context.Context, rec *StatementRecord) (model.Statement, error) {
	rec.ID = 0
	if err := s.db.WithContext(ctx).Create(rec).Error; err != nil {
		return model.Statement{}, fmt.Errorf("add statement: %w", err)
	}
	s.log.Debug("statement added", "statement", rec.StatementID(), "entity", rec.EntityID, "user", rec.Username)
	return rec.Model(), nil
}

// Statement loads one statement, local or published, with its qualifier.
func (s *Store) Statement(ctx context.Context, statementID string) (Annotation, error) {
	st, err := s.statement(ctx, statementID)
	if err != nil {
		return Annotation{}, err
	}
	out, err := s.withQualifiers(ctx, []model.Statement{st})
	if err != nil {
		return Annotation{}, err
	}
	return out[0], nil
}

func (s *Store) statement(ctx context.Context, statementID string) (model.Statement, error) {
	var err error
	var st model.Statement
	if id, perr := parseLocalID(statementID); perr == nil {
		var rec StatementRecord
		err = s.db.WithContext(ctx).First(&rec, id).Error
		st = rec.Model()
	} else if errors.Is(perr, ErrNotLocal) {
		var rec PublishedRecord
		err = s.db.WithContext(ctx).Where("statement_id = ?", statementID).First(&rec).Error
		st = rec.Model()
	} else {
		return st, perr
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return st, fmt.Errorf("%w: %s", ErrNotFound, statementID)
	}
	if err != nil {
		return st, fmt.Errorf("load statement: %w", err)
	}
	return st, nil
}

// Annotations returns the published statements of an entity followed by the
// local ones of username, each with its qualifier.
func (s *Store) Annotations(ctx context.Context, entityID, username string) ([]Annotation, error) {
	var published []PublishedRecord
	if err := s.db.WithContext(ctx).Where("entity_id = ?", entityID).Order("id").Find(&published).Error; err != nil {
		return nil, fmt.Errorf("load published: %w", err)
	}
	var local []StatementRecord
	if err := s.db.WithContext(ctx).Where("entity_id = ? AND username = ?", entityID, username).Order("id").Find(&local).Error; err != nil {
		return nil, fmt.Errorf("load statements: %w", err)
	}

	statements := make([]model.Statement, 0, len(published)+len(local))
	for _, p := range published {
		statements = append(statements, p.Model())
	}
	for _, l := range local {
		statements = append(statements, l.Model())
	}
	return s.withQualifiers(ctx, statements)
}

func (s *Store) withQualifiers(ctx context.Context, statements []model.Statement) ([]Annotation, error) {
	ids := make([]string, len(statements))
	for i, st := range statements {
		ids[i] = st.ID
	}
	var quals []QualifierRecord
	if len(ids) > 0 {
		if err := s.db.WithContext(ctx).Where("statement_id IN ?", ids).Find(&quals).Error; err != nil {
			return nil, fmt.Errorf("load qualifiers: %w", err)
		}
	}
	byStatement := make(map[string]QualifierRecord, len(quals))
	for _, q := range quals {
		byStatement[q.StatementID] = q
	}

	out := make([]Annotation, len(statements))
	for i, st := range statements {
		out[i] = Annotation{Statement: st}
		if q, ok := byStatement[st.ID]; ok {
			out[i].IIIFRegion = q.IIIFRegion
			out[i].QualifierHash = q.Hash
		}
	}
	return out, nil
}

// DeleteStatement removes a local statement, its qualifier and its comments.
func (s *Store) DeleteStatement(ctx context.Context, statementID string) error {
	id, err := parseLocalID(statementID)
	if err != nil {
		return err
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(&StatementRecord{}, id).Error; err != nil {
			return fmt.Errorf("delete statement: %w", err)
		}
		if err := tx.Where("statement_id = ?", statementID).Delete(&QualifierRecord{}).Error; err != nil {
			return fmt.Errorf("delete qualifier: %w", err)
		}
		if err := tx.Where("statement_id = ?", statementID).Delete(&CommentRecord{}).Error; err != nil {
			return fmt.Errorf("delete comments: %w", err)
		}
		return nil
	})
}

// SetQualifier saves the region of a statement, replacing an earlier one.
// The returned token identifies the qualifier; hash is kept when given.
func (s *Store) SetQualifier(ctx context.Context, statementID, region, hash string) (string, error) {
	if _, err := s.statement(ctx, statementID); err != nil {
		return "", err
	}
	if hash == "" {
		hash = uuid.NewString()
	}
	rec := QualifierRecord{StatementID: statementID, IIIFRegion: region, Hash: hash}
	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "statement_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"iiif_region", "hash", "updated_at"}),
		}).
		Create(&rec).Error
	if err != nil {
		return "", fmt.Errorf("set qualifier: %w", err)
	}
	return hash, nil
}

// DeleteQualifier removes the region of a statement and returns the
// statement as it now stands.
func (s *Store) DeleteQualifier(ctx context.Context, statementID string) (Annotation, error) {
	if err := s.db.WithContext(ctx).Where("statement_id = ?", statementID).Delete(&QualifierRecord{}).Error; err != nil {
		return Annotation{}, fmt.Errorf("delete qualifier: %w", err)
	}
	return s.Statement(ctx, statementID)
}

// AddComment saves a comment.
func (s *Store) AddComment(ctx context.Context, rec *CommentRecord) error {
	rec.ID = 0
	if err := s.db.WithContext(ctx).Create(rec).Error; err != nil {
		return fmt.Errorf("add comment: %w", err)
	}
	return nil
}

// Comments returns the comments on username's annotations of an entity in
// the order they were made.
func (s *Store) Comments(ctx context.Context, entityID, username string) ([]model.Comment, error) {
	var recs []CommentRecord
	if err := s.db.WithContext(ctx).Where("entity_id = ? AND username = ?", entityID, username).Order("id").Find(&recs).Error; err != nil {
		return nil, fmt.Errorf("load comments: %w", err)
	}
	out := make([]model.Comment, len(recs))
	for i, r := range recs {
		out[i] = r.Model()
	}
	return out, nil
}

// Approved reports whether username's annotations of an entity are approved.
func (s *Store) Approved(ctx context.Context, entityID, username string) (bool, error) {
	var rec ApprovalRecord
	err := s.db.WithContext(ctx).Where("entity_id = ? AND username = ?", entityID, username).First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("load approval: %w", err)
	}
	return rec.Approved, nil
}

// Approve marks username's annotations of an entity as approved.
func (s *Store) Approve(ctx context.Context, entityID, username string) error {
	rec := ApprovalRecord{EntityID: entityID, Username: username, Approved: true}
	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "entity_id"}, {Name: "username"}},
			DoUpdates: clause.AssignmentColumns([]string{"approved", "updated_at"}),
		}).
		Create(&rec).Error
	if err != nil {
		return fmt.Errorf("approve: %w", err)
	}
	return nil
}

// Upload publishes username's local statements of an entity. Regions move to
// the published ids; the local statements, their comments and the approval
// are removed. It returns the published ids.
func (s *Store) Upload(ctx context.Context, entityID, username string) ([]string, error) {
	var local []StatementRecord
	if err := s.db.WithContext(ctx).Where("entity_id = ? AND username = ?", entityID, username).Order("id").Find(&local).Error; err != nil {
		return nil, fmt.Errorf("load statements: %w", err)
	}
	statements := make([]model.Statement, len(local))
	for i, l := range local {
		statements[i] = l.Model()
	}

	ids, err := s.publisher.Publish(ctx, entityID, statements)
	if err != nil {
		return nil, fmt.Errorf("publish: %w", err)
	}
	if len(ids) != len(statements) {
		return nil, fmt.Errorf("publish: got %d ids for %d statements", len(ids), len(statements))
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for i, l := range local {
			pub := PublishedRecord{
				StatementID:   ids[i],
				EntityID:      entityID,
				PropertyID:    l.PropertyID,
				SnakType:      l.SnakType,
				ItemID:        l.ItemID,
				LabelValue:    l.LabelValue,
				LabelLanguage: l.LabelLanguage,
				Uploader:      username,
			}
			if err := tx.Create(&pub).Error; err != nil {
				return fmt.Errorf("record published: %w", err)
			}
			if err := tx.Model(&QualifierRecord{}).Where("statement_id = ?", l.StatementID()).Update("statement_id", ids[i]).Error; err != nil {
				return fmt.Errorf("move qualifier: %w", err)
			}
			if err := tx.Delete(&StatementRecord{}, l.ID).Error; err != nil {
				return fmt.Errorf("delete statement: %w", err)
			}
		}
		if err := tx.Where("entity_id = ? AND username = ?", entityID, username).Delete(&CommentRecord{}).Error; err != nil {
			return fmt.Errorf("delete comments: %w", err)
		}
		if err := tx.Where("entity_id = ? AND username = ?", entityID, username).Delete(&ApprovalRecord{}).Error; err != nil {
			return fmt.Errorf("delete approval: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.log.Info("annotations uploaded", "entity", entityID, "user", username, "count", len(ids))
	return ids, nil
}
