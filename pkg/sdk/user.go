package sdk

import "slices"

// User is the identity record of an authenticated principal.
type User struct {
	ID          string   `json:"id"`
	Email       string   `json:"email"`
	Name        string   `json:"name"`
	Avatar      string   `json:"avatar,omitempty"`
	Role        Role     `json:"role,omitempty"`
	Permissions []string `json:"permissions,omitempty"`
}

// Clone returns a deep copy of the user. Cloning nil returns nil.
func (u *User) Clone() *User {
	if u == nil {
		return nil
	}
	c := *u
	c.Permissions = slices.Clone(u.Permissions)
	return &c
}

// DisplayLabel returns the name used to label the user's account,
// falling back to the email when the name is empty.
func (u *User) DisplayLabel() string {
	if u == nil {
		return ""
	}
	if u.Name != "" {
		return u.Name
	}
	return u.Email
}

// Account pairs a previously authenticated user with the token that
// authenticated it. Account.ID always equals Account.User.ID.
type Account struct {
	ID    string `json:"id"`
	Label string `json:"label"`
	Token string `json:"token"`
	User  User   `json:"user"`
}

// NewAccount builds the account snapshot for a token/user pair.
func NewAccount(token string, user *User) Account {
	return Account{
		ID:    user.ID,
		Label: user.DisplayLabel(),
		Token: token,
		User:  *user.Clone(),
	}
}

func (a Account) clone() Account {
	a.User.Permissions = slices.Clone(a.User.Permissions)
	return a
}
