package entity

import "time"

const (
	RoleParticipant = "PARTICIPANT"
	RoleMentor      = "MENTOR"
)

type User struct {
	Id        int64     `bson:"_id" json:"id"`
	Email     string    `bson:"email" json:"email"`
	Password  string    `bson:"password" json:"-"` // Don't expose password in JSON
	FirstName string    `bson:"firstName" json:"firstName"`
	LastName  string    `bson:"lastName" json:"lastName"`
	Role      string    `bson:"role" json:"role"`
	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
}

// FullName is the display name attached to outbound chat messages.
func (u User) FullName() string {
	return u.FirstName + " " + u.LastName
}
