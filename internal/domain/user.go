package domain

import "github.com/uptrace/bun"

// User represents a registered account.
type User struct {
	bun.BaseModel `bun:"table:users,alias:u"`

	ID           int64  `bun:"id,pk,autoincrement" json:"id"`
	Username     string `bun:"username,notnull,unique" json:"username"`
	PasswordHash string `bun:"passwordhash,notnull" json:"passwordHash"`
}
