package cache

import (
	"crypto/md5"
	"encoding/hex"
	"sort"
	"strings"
)

// CategoriesKey is the cache key for the full upstream category list.
func CategoriesKey() string {
	return "olx:categories"
}

// CategoryFieldsKey derives a stable cache key for a set of category
// external ids. The set is sorted before hashing so callers do not have to
// agree on ordering.
func CategoryFieldsKey(externalIDs []string) string {
	ids := make([]string, len(externalIDs))
	copy(ids, externalIDs)
	sort.Strings(ids)

	sum := md5.Sum([]byte(strings.Join(ids, ",")))
	return "olx:category_fields:" + hex.EncodeToString(sum[:])
}
