package memory

import (
	"context"
	"sort"

	"github.com/geocoder89/recipehub/internal/domain/user"
)

type UsersRepo struct {
	s *Store
}

func NewUsersRepo(s *Store) *UsersRepo {
	return &UsersRepo{s: s}
}

// emailTaken must be called with mu held.
func (r *UsersRepo) emailTaken(email string, except int64) bool {
	for _, u := range r.s.users {
		if u.Email == email && u.ID != except {
			return true
		}
	}
	return false
}

func (r *UsersRepo) Create(_ context.Context, name, email, passwordHash, role string) (user.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if r.emailTaken(email, 0) {
		return user.User{}, user.ErrEmailTaken
	}

	r.s.userSeq++
	now := r.s.now()
	u := user.User{
		ID:           r.s.userSeq,
		Name:         name,
		Email:        email,
		PasswordHash: passwordHash,
		Role:         user.NormalizeRole(role),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	r.s.users[u.ID] = u

	return u, nil
}

func (r *UsersRepo) List(_ context.Context) ([]user.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := make([]user.User, 0, len(r.s.users))
	for _, u := range r.s.users {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })

	return out, nil
}

func (r *UsersRepo) GetByID(_ context.Context, id int64) (user.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	u, ok := r.s.users[id]
	if !ok {
		return user.User{}, user.ErrNotFound
	}
	return u, nil
}

func (r *UsersRepo) GetByEmail(_ context.Context, email string) (user.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	for _, u := range r.s.users {
		if u.Email == email {
			return u, nil
		}
	}
	return user.User{}, user.ErrNotFound
}

func (r *UsersRepo) Update(_ context.Context, id int64, name, email, passwordHash, role string) (user.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	u, ok := r.s.users[id]
	if !ok {
		return user.User{}, user.ErrNotFound
	}

	if r.emailTaken(email, id) {
		return user.User{}, user.ErrEmailTaken
	}

	u.Name = name
	u.Email = email
	u.PasswordHash = passwordHash
	if role != "" {
		u.Role = role
	}
	u.UpdatedAt = r.s.now()
	r.s.users[id] = u

	return u, nil
}

func (r *UsersRepo) Delete(_ context.Context, id int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.users[id]; !ok {
		return user.ErrNotFound
	}

	for _, rc := range r.s.recipes {
		if rc.AuthorID == id {
			return user.ErrHasContent
		}
	}
	for _, c := range r.s.comments {
		if c.AuthorID == id {
			return user.ErrHasContent
		}
	}

	delete(r.s.users, id)
	return nil
}
