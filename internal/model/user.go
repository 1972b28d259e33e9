package model

// User is a phonebook account holder.
type User struct {
	ID           string `json:"id"`
	Username     string `json:"username"`
	Name         string `json:"name"`
	PasswordHash string `json:"-"`
}

// ToUserData converts a user object to a user data object for sharing.
func (u *User) ToUserData() *UserData {
	return &UserData{
		ID:       u.ID,
		Username: u.Username,
		Name:     u.Name,
	}
}

// UserData holds the public fields of a user, safe to embed in
// API responses.
type UserData struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Name     string `json:"name,omitempty"`
}
