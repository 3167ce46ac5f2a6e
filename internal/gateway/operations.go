package gateway

import (
	"context"
	"fmt"
	"net/url"

	"github.com/ppiankov/depicta/internal/geometry"
	"github.com/ppiankov/depicta/internal/labels"
	"github.com/ppiankov/depicta/internal/model"
)

// Depicted is a statement as the server encodes it.
type Depicted struct {
	SnakType      model.SnakType      `json:"snaktype"`
	StatementID   string              `json:"statement_id"`
	PropertyID    string              `json:"property_id"`
	ItemID        string              `json:"item_id,omitempty"`
	Label         model.Label         `json:"label"`
	IIIFRegion    string              `json:"iiif_region,omitempty"`
	QualifierHash string              `json:"qualifier_hash,omitempty"`
	ReferenceType model.ReferenceType `json:"reference_type,omitempty"`
	ReferenceVal  string              `json:"reference_value,omitempty"`
	PagesValue    string              `json:"pages_value,omitempty"`
}

// StatementResponse pairs a depicted with its rendered item link.
type StatementResponse struct {
	Depicted Depicted `json:"depicted"`
	ItemLink string   `json:"depicted_item_link"`
}

// Statement converts the response into the core model. The image size is
// only needed for pixel-form regions.
func (r StatementResponse) Statement(size geometry.Size) (model.Statement, error) {
	d := r.Depicted
	s := model.Statement{
		ID:             d.StatementID,
		PropertyID:     d.PropertyID,
		SnakType:       d.SnakType,
		ItemID:         d.ItemID,
		Label:          d.Label,
		QualifierToken: d.QualifierHash,
	}
	if s.Label.Value == "" && r.ItemLink != "" {
		if link, err := labels.Parse(r.ItemLink); err == nil {
			s.Label = link.Label
			if s.ItemID == "" {
				s.ItemID = link.ItemID
			}
		}
	}
	if d.ReferenceType != model.ReferenceNone && d.ReferenceVal != "" {
		s.Reference = &model.Reference{Type: d.ReferenceType, Value: d.ReferenceVal, Pages: d.PagesValue}
	}
	if d.IIIFRegion != "" {
		region, err := geometry.ParseRegionString(d.IIIFRegion, size)
		if err != nil {
			return s, fmt.Errorf("statement %s: %w", d.StatementID, err)
		}
		s.Region = &region
	}
	return s, nil
}

type sessionResponse struct {
	CSRFToken string `json:"csrf_token"`
}

// Open starts a server session for username. The session cookie is kept in
// the client's jar and the anti-forgery token is remembered for later calls.
func (c *Client) Open(ctx context.Context, username string) error {
	var resp sessionResponse
	if err := c.post(ctx, "open session", "/api/v2/session", url.Values{"username": {username}}, &resp); err != nil {
		return err
	}
	c.mu.Lock()
	c.csrfToken = resp.CSRFToken
	c.mu.Unlock()
	return nil
}

type depictedsResponse struct {
	Depicteds []StatementResponse `json:"depicteds"`
}

// Depicteds loads the statements of an entity: published ones and the local
// ones of username (the session user when empty).
func (c *Client) Depicteds(ctx context.Context, entity model.Entity, username string) ([]model.Statement, error) {
	form := url.Values{"item_id": {entity.ID}}
	if username != "" {
		form.Set("username", username)
	}
	var resp depictedsResponse
	if err := c.post(ctx, "load statements", "/api/v2/depicteds", form, &resp); err != nil {
		return nil, err
	}

	statements := make([]model.Statement, 0, len(resp.Depicteds))
	for _, r := range resp.Depicteds {
		s, err := r.Statement(entity.Image.Size())
		if err != nil {
			return nil, fmt.Errorf("load statements: %w", err)
		}
		statements = append(statements, s)
	}
	return statements, nil
}

// ListComments returns every comment on username's annotations of an entity.
func (c *Client) ListComments(ctx context.Context, entityID, username string) ([]model.Comment, error) {
	var comments []model.Comment
	form := url.Values{"item_id": {entityID}, "username": {username}}
	if err := c.post(ctx, "list comments", "/api/v2/get_comments", form, &comments); err != nil {
		return nil, err
	}
	return comments, nil
}

// ListOwnComments returns the comments on the session user's annotations.
func (c *Client) ListOwnComments(ctx context.Context, entityID string) ([]model.Comment, error) {
	var comments []model.Comment
	if err := c.post(ctx, "list own comments", "/api/v2/get_comments_own_user", url.Values{"item_id": {entityID}}, &comments); err != nil {
		return nil, err
	}
	return comments, nil
}

// AddComment posts a comment and returns the comment as the server stored it.
func (c *Client) AddComment(ctx context.Context, statementID, entityID, username, text string) (model.Comment, error) {
	var comment model.Comment
	form := url.Values{
		"statement_id": {statementID},
		"comment":      {text},
		"item_id":      {entityID},
		"username":     {username},
	}
	if err := c.post(ctx, "add comment", "/api/v2/add_comment", form, &comment); err != nil {
		return model.Comment{}, err
	}
	return comment, nil
}

type qualifierResponse struct {
	QualifierHash *string `json:"qualifier_hash"`
}

// AddQualifier saves region on a statement. A non-empty token updates the
// existing region qualifier instead of adding a second one. The returned
// token identifies the saved qualifier.
func (c *Client) AddQualifier(ctx context.Context, statementID, token, region string) (string, error) {
	form := url.Values{
		"statement_id": {statementID},
		"iiif_region":  {region},
		"_csrf_token":  {c.CSRFToken()},
	}
	if token != "" {
		form.Set("qualifier_hash", token)
	}
	var resp qualifierResponse
	if err := c.post(ctx, "add qualifier", "/api/v2/add_qualifier_local/"+url.PathEscape(c.domain), form, &resp); err != nil {
		return "", err
	}
	if resp.QualifierHash == nil {
		return "", nil
	}
	return *resp.QualifierHash, nil
}

// DeleteQualifier removes the region of a statement and returns the statement
// as it now stands (without region).
func (c *Client) DeleteQualifier(ctx context.Context, statementID string) (model.Statement, error) {
	var resp StatementResponse
	if err := c.post(ctx, "delete qualifier", "/api/v2/delete_qualifier_local", url.Values{"statement_id": {statementID}}, &resp); err != nil {
		return model.Statement{}, err
	}
	return resp.Statement(geometry.Size{})
}

// CreateStatementRequest holds the fields of a new statement.
type CreateStatementRequest struct {
	EntityID   string
	PropertyID string
	SnakType   model.SnakType
	ItemID     string
	Reference  *model.Reference
}

// Form encodes the request, without the anti-forgery token.
func (r CreateStatementRequest) Form() url.Values {
	form := url.Values{
		"entity_id":   {r.EntityID},
		"snaktype":    {string(r.SnakType)},
		"property_id": {r.PropertyID},
	}
	if r.SnakType == model.SnakValue {
		form.Set("item_id", r.ItemID)
	}
	if ref := r.Reference; ref != nil && ref.Type != model.ReferenceNone {
		form.Set("reference_type", string(ref.Type))
		form.Set("reference_value", ref.Value)
		if ref.Pages != "" {
			form.Set("pages_value", ref.Pages)
		}
	}
	return form
}

// CreateStatement creates a local statement.
func (c *Client) CreateStatement(ctx context.Context, req CreateStatementRequest) (model.Statement, error) {
	form := req.Form()
	form.Set("_csrf_token", c.CSRFToken())

	var resp StatementResponse
	if err := c.post(ctx, "create statement", "/api/v1/add_statement_local/"+url.PathEscape(c.domain), form, &resp); err != nil {
		return model.Statement{}, err
	}
	return resp.Statement(geometry.Size{})
}

// DeleteStatement deletes a local statement and its comments.
func (c *Client) DeleteStatement(ctx context.Context, statementID string) error {
	return c.post(ctx, "delete statement", "/api/v1/delete_statement_local", url.Values{"statement_id": {statementID}}, nil)
}

type approvalRow struct {
	Approved int `json:"approved"`
}

// Approved reports whether a project lead approved username's annotations of
// the entity (the session user when username is empty).
func (c *Client) Approved(ctx context.Context, entityID, username string) (bool, error) {
	form := url.Values{"item_id": {entityID}}
	if username != "" {
		form.Set("username", username)
	}
	var rows []approvalRow
	if err := c.post(ctx, "check approval", "/api/v2/get_approved", form, &rows); err != nil {
		return false, err
	}
	return len(rows) > 0 && rows[0].Approved != 0, nil
}

// Approve marks username's annotations of the entity as approved.
func (c *Client) Approve(ctx context.Context, entityID, username string) error {
	return c.post(ctx, "approve", "/api/v2/approve", url.Values{"item_id": {entityID}, "username": {username}}, nil)
}

// Upload publishes the session user's local annotations of the entity.
func (c *Client) Upload(ctx context.Context, entityID string) error {
	_, err := c.postRaw(ctx, "upload", "/api/v2/upload_annotations", url.Values{"item_id": {entityID}})
	return err
}
