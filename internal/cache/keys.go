package cache

import (
	"strconv"
	"strings"
)

const (
	RecipesPrefix  = "recipes:v1:"
	CommentsPrefix = "comments:v1:"
)

func RecipesListKey() string {
	return RecipesPrefix + "list"
}

func RecipeKey(id int64) string {
	return RecipesPrefix + "id=" + strconv.FormatInt(id, 10)
}

func RecipeCommentsKey(recipeID int64) string {
	return CommentsPrefix + "recipe=" + strconv.FormatInt(recipeID, 10)
}

// Family is the invalidation family a key or prefix belongs to.
func Family(key string) string {
	switch {
	case strings.HasPrefix(key, RecipesPrefix):
		return RecipesPrefix
	case strings.HasPrefix(key, CommentsPrefix):
		return CommentsPrefix
	default:
		return key
	}
}

// Versioned pins key to a family generation. The suffix keeps prefix
// deletes working on the unversioned key.
func Versioned(key string, gen uint64) string {
	return key + "@g" + strconv.FormatUint(gen, 10)
}
