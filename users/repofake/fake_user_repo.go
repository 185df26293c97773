package fakeuserrepo

import (
	"context"
	"sort"
	"sync"
	"time"

	apperrors "github.com/jrsteele09/go-bookstore-server/internal/errors"
	"github.com/jrsteele09/go-bookstore-server/users"
)

var _ users.Repo = (*FakeUserRepo)(nil)

type FakeUserRepo struct {
	users    map[int64]*users.User
	emailIds map[string]int64 // email to user id
	nextID   int64
	lock     sync.RWMutex
}

func NewFakeUserRepo() *FakeUserRepo {
	return &FakeUserRepo{
		users:    make(map[int64]*users.User),
		emailIds: make(map[string]int64),
	}
}

func (ur *FakeUserRepo) Create(_ context.Context, user *users.User) error {
	ur.lock.Lock()
	defer ur.lock.Unlock()

	if _, ok := ur.emailIds[user.Email]; ok {
		return apperrors.ErrDuplicateEmail
	}
	ur.nextID++
	now := time.Now().UTC()
	user.ID = ur.nextID
	user.CreatedAt = now
	user.UpdatedAt = now
	if user.Role == "" {
		user.Role = users.RoleUser
	}

	stored := *user
	ur.users[user.ID] = &stored
	ur.emailIds[user.Email] = user.ID
	return nil
}

func (ur *FakeUserRepo) Update(_ context.Context, user *users.User) error {
	ur.lock.Lock()
	defer ur.lock.Unlock()

	stored, ok := ur.users[user.ID]
	if !ok {
		return apperrors.ErrUserNotFound
	}
	stored.Name = user.Name
	stored.PasswordHash = user.PasswordHash
	stored.UpdatedAt = time.Now().UTC()
	user.UpdatedAt = stored.UpdatedAt
	return nil
}

func (ur *FakeUserRepo) GetByEmail(_ context.Context, email string) (*users.User, error) {
	ur.lock.RLock()
	defer ur.lock.RUnlock()

	id, ok := ur.emailIds[email]
	if !ok {
		return nil, apperrors.ErrUserNotFound
	}
	u := *ur.users[id]
	return &u, nil
}

func (ur *FakeUserRepo) GetByID(_ context.Context, id int64) (*users.User, error) {
	ur.lock.RLock()
	defer ur.lock.RUnlock()

	stored, ok := ur.users[id]
	if !ok {
		return nil, apperrors.ErrUserNotFound
	}
	u := *stored
	return &u, nil
}

// Delete exists for tests that simulate an account disappearing mid-session.
func (ur *FakeUserRepo) Delete(id int64) {
	ur.lock.Lock()
	defer ur.lock.Unlock()

	if u, ok := ur.users[id]; ok {
		delete(ur.emailIds, u.Email)
		delete(ur.users, id)
	}
}

func (ur *FakeUserRepo) List(_ context.Context, offset, limit int) (users.UsersListResponse, error) {
	ur.lock.RLock()
	defer ur.lock.RUnlock()

	userList := make([]*users.User, 0, len(ur.users))
	for _, v := range ur.users {
		u := *v
		userList = append(userList, &u)
	}

	sort.Slice(userList, func(i, j int) bool {
		return userList[i].ID < userList[j].ID
	})

	total := len(userList)
	if offset >= total {
		return users.UsersListResponse{Users: []*users.User{}, Total: total, Offset: offset, Limit: limit}, nil
	}
	end := offset + limit
	if end > total {
		end = total
	}

	return users.UsersListResponse{
		Users:  userList[offset:end],
		Total:  total,
		Offset: offset,
		Limit:  limit,
	}, nil
}
