// AngelaMos | 2026
// entity.go

package user

import (
	"time"
)

type User struct {
	ID           int64     `db:"user_id"`
	Username     string    `db:"username"`
	Email        string    `db:"email"`
	PasswordHash string    `db:"password_hash"`
	CreatedOn    time.Time `db:"created_on"`
}

type Role struct {
	ID          int64     `db:"role_id"`
	Name        string    `db:"name"`
	Description string    `db:"description"`
	AssignedOn  time.Time `db:"assigned_on"`
}

// LikedEntity is one row of a user's likes joined to its entity.
type LikedEntity struct {
	EntityID   int64     `db:"entity_id"`
	EntityType string    `db:"type"`
	CreatedOn  time.Time `db:"created_on"`
	LikedOn    time.Time `db:"liked_on"`
}

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)
