// Package repotest содержит общий набор тестов, которому обязана соответствовать
// каждая реализация репозитория ссылок.
package repotest

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"github.com/fsdevblog/shortlinks/internal/models"
	"github.com/fsdevblog/shortlinks/internal/repositories"
)

// LinkRepository методы репозитория, которые проверяет набор.
type LinkRepository interface {
	Create(ctx context.Context, link *models.Link) error
	ExistsByCode(ctx context.Context, code string) (bool, error)
	GetByCode(ctx context.Context, code string) (*models.Link, error)
	List(ctx context.Context, search string) ([]models.Link, error)
	DeleteByCode(ctx context.Context, code string) error
	IncrementClicks(ctx context.Context, code string, at time.Time) (*models.Link, error)
	Ping(ctx context.Context) error
}

// LinkRepoSuite набор тестов репозитория. NewRepo вызывается перед каждым тестом
// и должен возвращать репозиторий поверх пустого хранилища.
type LinkRepoSuite struct {
	suite.Suite
	NewRepo func(t *testing.T) LinkRepository

	repo LinkRepository
	base time.Time
}

// Run запускает набор для конкретной реализации.
func Run(t *testing.T, newRepo func(t *testing.T) LinkRepository) {
	t.Helper()
	suite.Run(t, &LinkRepoSuite{NewRepo: newRepo})
}

func (s *LinkRepoSuite) SetupTest() {
	s.repo = s.NewRepo(s.T())
	s.base = time.Now().UTC().Truncate(time.Microsecond)
}

func (s *LinkRepoSuite) newLink(code, target string, createdAt time.Time) *models.Link {
	return &models.Link{
		ID:        uuid.NewString(),
		Code:      code,
		TargetURL: target,
		CreatedAt: createdAt,
	}
}

func (s *LinkRepoSuite) TestPing() {
	s.Require().NoError(s.repo.Ping(context.Background()))
}

func (s *LinkRepoSuite) TestCreateAndGet() {
	ctx := context.Background()
	link := s.newLink("abc123", "https://example.com/a", s.base)
	s.Require().NoError(s.repo.Create(ctx, link))

	got, err := s.repo.GetByCode(ctx, "abc123")
	s.Require().NoError(err)
	s.Equal(link.ID, got.ID)
	s.Equal("abc123", got.Code)
	s.Equal("https://example.com/a", got.TargetURL)
	s.Equal(int64(0), got.ClickCount)
	s.Nil(got.LastClickedAt)
	s.True(link.CreatedAt.Equal(got.CreatedAt), "createdAt %s != %s", got.CreatedAt, link.CreatedAt)
}

func (s *LinkRepoSuite) TestGetByCode_CaseSensitive() {
	ctx := context.Background()
	s.Require().NoError(s.repo.Create(ctx, s.newLink("AbCdEf", "https://example.com", s.base)))

	_, err := s.repo.GetByCode(ctx, "abcdef")
	s.Require().ErrorIs(err, repositories.ErrNotFound)
}

func (s *LinkRepoSuite) TestGetByCode_NotFound() {
	_, err := s.repo.GetByCode(context.Background(), "nope00")
	s.Require().ErrorIs(err, repositories.ErrNotFound)
}

func (s *LinkRepoSuite) TestCreate_Duplicate() {
	ctx := context.Background()
	s.Require().NoError(s.repo.Create(ctx, s.newLink("dup123", "https://a.com", s.base)))

	err := s.repo.Create(ctx, s.newLink("dup123", "https://b.com", s.base))
	s.Require().ErrorIs(err, repositories.ErrDuplicateKey)

	got, getErr := s.repo.GetByCode(ctx, "dup123")
	s.Require().NoError(getErr)
	s.Equal("https://a.com", got.TargetURL, "existing link must not be overwritten")
}

func (s *LinkRepoSuite) TestCreate_ConcurrentSameCode() {
	const workers = 20
	var (
		wg        sync.WaitGroup
		succeeded atomic.Int32
		conflicts atomic.Int32
	)
	for i := range workers {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			err := s.repo.Create(
				context.Background(),
				s.newLink("race01", fmt.Sprintf("https://example.com/%d", i), s.base),
			)
			switch {
			case err == nil:
				succeeded.Add(1)
			case errors.Is(err, repositories.ErrDuplicateKey):
				conflicts.Add(1)
			}
		}(i)
	}
	wg.Wait()

	s.Equal(int32(1), succeeded.Load())
	s.Equal(int32(workers-1), conflicts.Load())
}

func (s *LinkRepoSuite) TestExistsByCode() {
	ctx := context.Background()
	s.Require().NoError(s.repo.Create(ctx, s.newLink("exists", "https://a.com", s.base)))

	ok, err := s.repo.ExistsByCode(ctx, "exists")
	s.Require().NoError(err)
	s.True(ok)

	ok, err = s.repo.ExistsByCode(ctx, "absent")
	s.Require().NoError(err)
	s.False(ok)
}

func (s *LinkRepoSuite) TestList() {
	ctx := context.Background()
	s.Require().NoError(s.repo.Create(ctx, s.newLink("old001", "https://foo.com/x", s.base.Add(-2*time.Hour))))
	s.Require().NoError(s.repo.Create(ctx, s.newLink("mid001", "https://bar.com/y", s.base.Add(-time.Hour))))
	s.Require().NoError(s.repo.Create(ctx, s.newLink("FOOnew", "https://baz.com/z", s.base)))

	s.Run("all newest first", func() {
		links, err := s.repo.List(ctx, "")
		s.Require().NoError(err)
		s.Equal([]string{"FOOnew", "mid001", "old001"}, codes(links))
	})

	s.Run("search matches code and url case insensitive", func() {
		links, err := s.repo.List(ctx, "foo")
		s.Require().NoError(err)
		s.Equal([]string{"FOOnew", "old001"}, codes(links))
	})

	s.Run("search by url", func() {
		links, err := s.repo.List(ctx, "BAR.COM")
		s.Require().NoError(err)
		s.Equal([]string{"mid001"}, codes(links))
	})

	s.Run("wildcard characters are literal", func() {
		links, err := s.repo.List(ctx, "%")
		s.Require().NoError(err)
		s.Empty(links)

		links, err = s.repo.List(ctx, "_")
		s.Require().NoError(err)
		s.Empty(links)
	})

	s.Run("no match is empty not nil", func() {
		links, err := s.repo.List(ctx, "qwerty")
		s.Require().NoError(err)
		s.NotNil(links)
		s.Empty(links)
	})
}

func (s *LinkRepoSuite) TestList_EmptyStore() {
	links, err := s.repo.List(context.Background(), "")
	s.Require().NoError(err)
	s.NotNil(links)
	s.Empty(links)
}

func (s *LinkRepoSuite) TestDeleteByCode() {
	ctx := context.Background()
	s.Require().NoError(s.repo.Create(ctx, s.newLink("del001", "https://a.com", s.base)))

	s.Require().NoError(s.repo.DeleteByCode(ctx, "del001"))
	s.Require().ErrorIs(s.repo.DeleteByCode(ctx, "del001"), repositories.ErrNotFound)

	_, err := s.repo.GetByCode(ctx, "del001")
	s.Require().ErrorIs(err, repositories.ErrNotFound)

	links, err := s.repo.List(ctx, "")
	s.Require().NoError(err)
	s.Empty(links)

	// код снова можно занять
	s.Require().NoError(s.repo.Create(ctx, s.newLink("del001", "https://b.com", s.base)))
}

func (s *LinkRepoSuite) TestIncrementClicks() {
	ctx := context.Background()
	s.Require().NoError(s.repo.Create(ctx, s.newLink("clk001", "https://a.com", s.base)))

	at := s.base.Add(time.Second)
	link, err := s.repo.IncrementClicks(ctx, "clk001", at)
	s.Require().NoError(err)
	s.Equal(int64(1), link.ClickCount)
	s.Equal("https://a.com", link.TargetURL)
	s.Require().NotNil(link.LastClickedAt)
	s.True(at.Equal(*link.LastClickedAt), "lastClickedAt %s != %s", link.LastClickedAt, at)
}

func (s *LinkRepoSuite) TestIncrementClicks_NotFound() {
	_, err := s.repo.IncrementClicks(context.Background(), "none00", s.base)
	s.Require().ErrorIs(err, repositories.ErrNotFound)
}

func (s *LinkRepoSuite) TestIncrementClicks_LastClickedAtNeverMovesBack() {
	ctx := context.Background()
	s.Require().NoError(s.repo.Create(ctx, s.newLink("mono01", "https://a.com", s.base)))

	later := s.base.Add(time.Minute)
	_, err := s.repo.IncrementClicks(ctx, "mono01", later)
	s.Require().NoError(err)

	link, err := s.repo.IncrementClicks(ctx, "mono01", s.base.Add(time.Second))
	s.Require().NoError(err)
	s.Equal(int64(2), link.ClickCount)
	s.Require().NotNil(link.LastClickedAt)
	s.True(later.Equal(*link.LastClickedAt), "lastClickedAt %s != %s", link.LastClickedAt, later)
}

func (s *LinkRepoSuite) TestIncrementClicks_Concurrent() {
	ctx := context.Background()
	s.Require().NoError(s.repo.Create(ctx, s.newLink("conc01", "https://a.com", s.base)))

	const workers = 50
	var wg sync.WaitGroup
	for i := range workers {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := s.repo.IncrementClicks(context.Background(), "conc01", s.base.Add(time.Duration(i)*time.Millisecond))
			s.NoError(err)
		}(i)
	}
	wg.Wait()

	link, err := s.repo.GetByCode(ctx, "conc01")
	s.Require().NoError(err)
	s.Equal(int64(workers), link.ClickCount)
	s.Require().NotNil(link.LastClickedAt)
	want := s.base.Add(time.Duration(workers-1) * time.Millisecond)
	s.True(want.Equal(*link.LastClickedAt), "lastClickedAt %s != %s", link.LastClickedAt, want)
}

func codes(links []models.Link) []string {
	result := make([]string, 0, len(links))
	for _, l := range links {
		result = append(result, l.Code)
	}
	return result
}
