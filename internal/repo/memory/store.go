// Package memory holds in-process stores with the same contracts as the
// postgres ones. A single Store backs all three repos so ownership joins,
// cascades and the has-content check see one consistent snapshot.
package memory

import (
	"sync"
	"time"

	"github.com/geocoder89/recipehub/internal/domain/comment"
	"github.com/geocoder89/recipehub/internal/domain/recipe"
	"github.com/geocoder89/recipehub/internal/domain/user"
)

type Store struct {
	mu sync.RWMutex

	users    map[int64]user.User
	recipes  map[int64]recipe.Recipe
	comments map[int64]comment.Comment

	userSeq    int64
	recipeSeq  int64
	commentSeq int64

	now func() time.Time
}

func NewStore() *Store {
	return &Store{
		users:    make(map[int64]user.User),
		recipes:  make(map[int64]recipe.Recipe),
		comments: make(map[int64]comment.Comment),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// authorName must be called with mu held.
func (s *Store) authorName(id int64) string {
	return s.users[id].Name
}
