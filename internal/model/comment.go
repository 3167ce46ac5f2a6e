package model

// Comment is a remark attached to a statement. Comments are never edited or
// deleted locally, and their order is the order the server returned them in.
type Comment struct {
	StatementID string `json:"statement_id"`
	Author      string `json:"project_lead_username"`
	Text        string `json:"comment"`
}
