package domain

import "github.com/uptrace/bun"

// BlogPost is a single post written by a user. Posts are never deleted.
type BlogPost struct {
	bun.BaseModel `bun:"table:blogposts,alias:bp"`

	ID       int64  `bun:"id,pk,autoincrement" json:"id"`
	Text     string `bun:"text,notnull" json:"text"`
	AuthorID int64  `bun:"authorid,notnull" json:"authorId"`

	Author *User `bun:"rel:belongs-to,join:authorid=id" json:"-"`
}
