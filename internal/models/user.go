package models

import "time"

// Role is the ordered privilege level of a user.
// regular < cashier < manager < superuser.
type Role string

const (
	RoleRegular   Role = "regular"
	RoleCashier   Role = "cashier"
	RoleManager   Role = "manager"
	RoleSuperuser Role = "superuser"
)

var roleRanks = map[Role]int{
	RoleRegular:   0,
	RoleCashier:   1,
	RoleManager:   2,
	RoleSuperuser: 3,
}

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	_, ok := roleRanks[r]
	return ok
}

// Rank returns the integer rank of the role, -1 for unknown roles.
func (r Role) Rank() int {
	if rank, ok := roleRanks[r]; ok {
		return rank
	}
	return -1
}

// AtLeast reports whether r has at least the privileges of min.
func (r Role) AtLeast(min Role) bool {
	return r.Rank() >= 0 && r.Rank() >= min.Rank()
}

type User struct {
	ID        uint `gorm:"primarykey"`
	CreatedAt time.Time
	UpdatedAt time.Time
	UTORid    string `gorm:"column:utorid;uniqueIndex;not null"`
	Name      string `gorm:"not null"`
	Email     string `gorm:"uniqueIndex;not null"`
	// Password is empty until the account is activated through a reset token.
	Password   string
	Birthday   *string // YYYY-MM-DD
	Role       Role    `gorm:"not null;default:'regular'"`
	Points     int     `gorm:"not null;default:0"`
	Verified   bool    `gorm:"not null;default:false"`
	Suspicious bool    `gorm:"not null;default:false"`
	LastLogin  *time.Time
	AvatarURL  string
}

// Activated reports whether the user has completed the reset-token
// activation flow and can log in.
func (u *User) Activated() bool {
	return u.Password != ""
}
