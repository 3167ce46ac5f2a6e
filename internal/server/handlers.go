package server

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/ppiankov/depicta/internal/gateway"
	"github.com/ppiankov/depicta/internal/geometry"
	"github.com/ppiankov/depicta/internal/labels"
	"github.com/ppiankov/depicta/internal/model"
	"github.com/ppiankov/depicta/internal/store"
)

// regionProbe stands in for the image size when a region is only validated.
var regionProbe = geometry.Size{Width: 1, Height: 1}

func response(a store.Annotation) gateway.StatementResponse {
	st := a.Statement
	d := gateway.Depicted{
		SnakType:      st.SnakType,
		StatementID:   st.ID,
		PropertyID:    st.PropertyID,
		ItemID:        st.ItemID,
		Label:         st.Label,
		IIIFRegion:    a.IIIFRegion,
		QualifierHash: a.QualifierHash,
	}
	if ref := st.Reference; ref != nil {
		d.ReferenceType = ref.Type
		d.ReferenceVal = ref.Value
		d.PagesValue = ref.Pages
	}
	return gateway.StatementResponse{Depicted: d, ItemLink: labels.Render(st)}
}

// owner picks the username form field, falling back to the session user.
func (s *Server) owner(c *gin.Context) (string, bool) {
	if u := c.PostForm("username"); u != "" {
		return u, true
	}
	sess, ok := s.currentSession(c)
	if !ok {
		fail(c, http.StatusForbidden, "Not logged in")
		return "", false
	}
	return sess.Username, true
}

func (s *Server) storeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		fail(c, http.StatusNotFound, "Statement not found")
	case errors.Is(err, store.ErrNotLocal):
		fail(c, http.StatusBadRequest, "Published statements cannot be changed locally")
	default:
		s.log.Error("store failed", "path", c.FullPath(), "error", err)
		fail(c, http.StatusInternalServerError, "Internal error")
	}
}

func (s *Server) depicteds(c *gin.Context) {
	itemID := c.PostForm("item_id")
	if itemID == "" {
		fail(c, http.StatusBadRequest, "Incomplete form data")
		return
	}
	username, ok := s.owner(c)
	if !ok {
		return
	}
	annotations, err := s.store.Annotations(c.Request.Context(), itemID, username)
	if err != nil {
		s.storeError(c, err)
		return
	}
	out := make([]gateway.StatementResponse, 0, len(annotations))
	for _, a := range annotations {
		out = append(out, response(a))
	}
	c.JSON(http.StatusOK, gin.H{"depicteds": out})
}

func (s *Server) label(c *gin.Context, snak model.SnakType, itemID string) model.Label {
	switch snak {
	case model.SnakSomeValue:
		return model.Label{Value: "unknown value", Language: s.language}
	case model.SnakNoValue:
		return model.Label{Value: "no value", Language: s.language}
	}
	if s.labels != nil {
		l, err := s.labels.Label(c.Request.Context(), itemID)
		if err == nil {
			return l
		}
		s.log.Warn("label lookup failed", "item", itemID, "error", err)
	}
	return model.Label{Value: itemID, Language: s.language}
}

func (s *Server) addStatement(c *gin.Context) {
	sess := c.MustGet(sessionKey).(session)
	entityID := c.PostForm("entity_id")
	snak := model.SnakType(c.PostForm("snaktype"))
	itemID, hasItem := c.GetPostForm("item_id")
	propertyID := c.DefaultPostForm("property_id", "P180")

	if entityID == "" || snak == "" || c.PostForm("_csrf_token") == "" {
		fail(c, http.StatusBadRequest, "Incomplete form data")
		return
	}
	if (snak == model.SnakValue) != hasItem {
		fail(c, http.StatusBadRequest, "Inconsistent form data")
		return
	}
	if !snak.Valid() {
		fail(c, http.StatusBadRequest, "Bad snaktype")
		return
	}
	if !s.properties[propertyID] {
		fail(c, http.StatusBadRequest, "Bad property ID")
		return
	}
	if !s.checkMutation(c, sess) {
		return
	}

	label := s.label(c, snak, itemID)
	rec := &store.StatementRecord{
		EntityID:      entityID,
		Username:      sess.Username,
		PropertyID:    propertyID,
		SnakType:      string(snak),
		ItemID:        itemID,
		LabelValue:    label.Value,
		LabelLanguage: label.Language,
	}
	if refType, refValue := c.PostForm("reference_type"), c.PostForm("reference_value"); refType != "" && refValue != "" {
		rec.ReferenceType = refType
		rec.ReferenceValue = refValue
		rec.PagesValue = c.PostForm("pages_value")
	}

	st, err := s.store.AddStatement(c.Request.Context(), rec)
	if err != nil {
		s.storeError(c, err)
		return
	}
	s.log.Info("statement added", "statement", st.ID, "entity", entityID, "user", sess.Username)
	c.JSON(http.StatusOK, response(store.Annotation{Statement: st}))
}

func (s *Server) deleteStatement(c *gin.Context) {
	id := c.PostForm("statement_id")
	if id == "" {
		fail(c, http.StatusBadRequest, "Incomplete form data")
		return
	}
	if err := s.store.DeleteStatement(c.Request.Context(), id); err != nil {
		s.storeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (s *Server) addQualifier(c *gin.Context) {
	sess := c.MustGet(sessionKey).(session)
	id := c.PostForm("statement_id")
	region := c.PostForm("iiif_region")
	if id == "" || region == "" || c.PostForm("_csrf_token") == "" {
		fail(c, http.StatusBadRequest, "Incomplete form data")
		return
	}
	if !s.checkMutation(c, sess) {
		return
	}
	if _, err := geometry.ParseRegionString(region, regionProbe); err != nil {
		fail(c, http.StatusBadRequest, fmt.Sprintf("Invalid IIIF region %s", region))
		return
	}

	hash, err := s.store.SetQualifier(c.Request.Context(), id, region, c.PostForm("qualifier_hash"))
	if err != nil {
		s.storeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"qualifier_hash": hash})
}

func (s *Server) deleteQualifier(c *gin.Context) {
	id := c.PostForm("statement_id")
	if id == "" {
		fail(c, http.StatusBadRequest, "Incomplete form data")
		return
	}
	a, err := s.store.DeleteQualifier(c.Request.Context(), id)
	if err != nil {
		s.storeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response(a))
}

func (s *Server) addComment(c *gin.Context) {
	sess := c.MustGet(sessionKey).(session)
	rec := &store.CommentRecord{
		StatementID:         c.PostForm("statement_id"),
		EntityID:            c.PostForm("item_id"),
		Username:            c.PostForm("username"),
		ProjectLeadUsername: sess.Username,
		Text:                strings.TrimSpace(c.PostForm("comment")),
	}
	if rec.StatementID == "" || rec.EntityID == "" || rec.Text == "" {
		fail(c, http.StatusBadRequest, "Incomplete form data")
		return
	}
	if rec.Username == "" {
		rec.Username = sess.Username
	}
	if err := s.store.AddComment(c.Request.Context(), rec); err != nil {
		s.storeError(c, err)
		return
	}
	c.JSON(http.StatusOK, rec.Model())
}

func (s *Server) comments(c *gin.Context, username string) {
	itemID := c.PostForm("item_id")
	if itemID == "" {
		fail(c, http.StatusBadRequest, "Incomplete form data")
		return
	}
	comments, err := s.store.Comments(c.Request.Context(), itemID, username)
	if err != nil {
		s.storeError(c, err)
		return
	}
	c.JSON(http.StatusOK, comments)
}

func (s *Server) getComments(c *gin.Context) {
	username, ok := s.owner(c)
	if !ok {
		return
	}
	s.comments(c, username)
}

func (s *Server) getOwnComments(c *gin.Context) {
	s.comments(c, c.MustGet(sessionKey).(session).Username)
}

func (s *Server) getApproved(c *gin.Context) {
	username, ok := s.owner(c)
	if !ok {
		return
	}
	approved, err := s.store.Approved(c.Request.Context(), c.PostForm("item_id"), username)
	if err != nil {
		s.storeError(c, err)
		return
	}
	flag := 0
	if approved {
		flag = 1
	}
	c.JSON(http.StatusOK, []gin.H{{"approved": flag}})
}

func (s *Server) approve(c *gin.Context) {
	itemID, username := c.PostForm("item_id"), c.PostForm("username")
	if itemID == "" || username == "" {
		fail(c, http.StatusBadRequest, "Incomplete form data")
		return
	}
	if err := s.store.Approve(c.Request.Context(), itemID, username); err != nil {
		s.storeError(c, err)
		return
	}
	s.log.Info("annotations approved", "entity", itemID, "user", username, "by", c.MustGet(sessionKey).(session).Username)
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (s *Server) upload(c *gin.Context) {
	sess := c.MustGet(sessionKey).(session)
	itemID := c.PostForm("item_id")
	if itemID == "" {
		fail(c, http.StatusBadRequest, "Incomplete form data")
		return
	}
	approved, err := s.store.Approved(c.Request.Context(), itemID, sess.Username)
	if err != nil {
		s.storeError(c, err)
		return
	}
	if !approved {
		fail(c, http.StatusForbidden, "Annotations have not been approved")
		return
	}
	ids, err := s.store.Upload(c.Request.Context(), itemID, sess.Username)
	if err != nil {
		s.log.Warn("upload failed", "entity", itemID, "user", sess.Username, "error", err)
		fail(c, http.StatusBadGateway, err.Error())
		return
	}
	c.String(http.StatusOK, "Uploaded %d statements", len(ids))
}
