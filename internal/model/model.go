package model

import "time"

// Todo is one entry in the list. Sub-todos carry their parent's id.
type Todo struct {
	ID       string  `json:"id"`
	ParentID *string `json:"parentId,omitempty"`
	Rank     int     `json:"rank"`

	Title string `json:"title"`
	Notes string `json:"notes,omitempty"`
	Done  bool   `json:"done"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (t Todo) IsSub() bool {
	return t.ParentID != nil && *t.ParentID != ""
}

// Parent returns the parent id, or "" for a top-level todo.
func (t Todo) Parent() string {
	if t.ParentID == nil {
		return ""
	}
	return *t.ParentID
}
