package admin

import (
	"golang.org/x/crypto/bcrypt"
)

// Admin is a dashboard account stored under admin-dashboard/admin/{id}.
type Admin struct {
	ID           string `json:"-"`
	Username     string `json:"username"`
	PasswordHash string `json:"password"`
	CreatedAt    int64  `json:"createdAt,omitempty"`
}

// NewAdmin contains information needed to create or reset an Admin.
type NewAdmin struct {
	Username string `json:"username" validate:"required,alphanum_,max=50"`
	Password string `json:"password" validate:"required"`
}

// APIKey is a key allowed to trigger the dispatcher, stored under api-keys/{key}.
type APIKey struct {
	UserID    string `json:"userId"`
	CreatedAt int64  `json:"createdAt"`
}

// adminAPIKey is the admin's own copy of a key, stored under admin-dashboard/admin/{id}/apikeys/{keyID}.
type adminAPIKey struct {
	Key       string `json:"key"`
	UserID    string `json:"userId"`
	CreatedAt int64  `json:"createdAt"`
	Active    bool   `json:"active"`
}

func (a *Admin) SetPassword(pwd string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(pwd), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	a.PasswordHash = string(hash)
	return nil
}

func (a *Admin) CheckPassword(pwd string) error {
	return bcrypt.CompareHashAndPassword([]byte(a.PasswordHash), []byte(pwd))
}
