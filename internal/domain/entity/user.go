package entity

// Role names used by the registration and activation flows.
const (
	// RoleCommon is assigned to every user on registration.
	RoleCommon = "common"
	// RoleAuthors is granted when the account is activated.
	RoleAuthors = "authors"
)

// User is the account identity behind authors and subscribers.
type User struct {
	ID       int64
	Username string
	Email    string
}
