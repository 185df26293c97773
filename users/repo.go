package users

import "context"

// Repo is the credential store. Implementations return
// errors.ErrUserNotFound for missing rows and errors.ErrDuplicateEmail when
// Create collides with an existing email.
type Repo interface {
	// Create assigns ID, CreatedAt and UpdatedAt on success.
	Create(ctx context.Context, user *User) error
	// Update persists Name and PasswordHash and refreshes UpdatedAt. Role is never written.
	Update(ctx context.Context, user *User) error
	GetByEmail(ctx context.Context, email string) (*User, error)
	GetByID(ctx context.Context, id int64) (*User, error)
	List(ctx context.Context, offset, limit int) (UsersListResponse, error)
}

type UsersListResponse struct {
	Users  []*User
	Total  int
	Offset int
	Limit  int
}
