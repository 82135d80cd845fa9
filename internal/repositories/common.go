package repositories

import (
	"cmp"
	"slices"
	"strings"

	"github.com/fsdevblog/shortlinks/internal/models"
)

// SortNewestFirst сортирует ссылки по дате создания (новые первыми), при равенстве по коду.
// Тот же порядок sql хранилища задают через ORDER BY created_at DESC, code ASC.
func SortNewestFirst(links []models.Link) {
	slices.SortFunc(links, func(a, b models.Link) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(a.Code, b.Code)
	})
}

// MatchesSearch проверяет, содержит ли код или целевой URL подстроку term без учета регистра.
// Пустой term подходит под любую ссылку.
func MatchesSearch(link models.Link, term string) bool {
	if term == "" {
		return true
	}
	term = strings.ToLower(term)
	return strings.Contains(strings.ToLower(link.Code), term) ||
		strings.Contains(strings.ToLower(link.TargetURL), term)
}
