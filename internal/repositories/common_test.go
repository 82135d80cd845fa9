package repositories

import (
	"testing"
	"time"

	"github.com/fsdevblog/shortlinks/internal/models"
	"github.com/stretchr/testify/assert"
)

func TestSortNewestFirst(t *testing.T) {
	now := time.Now()
	links := []models.Link{
		{Code: "old111", CreatedAt: now.Add(-time.Hour)},
		{Code: "bbbbbb", CreatedAt: now},
		{Code: "aaaaaa", CreatedAt: now},
		{Code: "mid111", CreatedAt: now.Add(-time.Minute)},
	}
	SortNewestFirst(links)

	got := make([]string, 0, len(links))
	for _, l := range links {
		got = append(got, l.Code)
	}
	assert.Equal(t, []string{"aaaaaa", "bbbbbb", "mid111", "old111"}, got)
}

func TestMatchesSearch(t *testing.T) {
	link := models.Link{Code: "AbC123", TargetURL: "https://Example.com/Path"}

	tests := []struct {
		name string
		term string
		want bool
	}{
		{name: "empty", term: "", want: true},
		{name: "code case insensitive", term: "abc", want: true},
		{name: "url case insensitive", term: "EXAMPLE", want: true},
		{name: "path", term: "/path", want: true},
		{name: "no match", term: "foo", want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, MatchesSearch(link, tt.term))
		})
	}
}
