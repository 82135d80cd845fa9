package services

import (
	"context"
	"errors"
	"regexp"
	"sync/atomic"
	"testing"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/fsdevblog/shortlinks/internal/db"
	"github.com/fsdevblog/shortlinks/internal/models"
	"github.com/fsdevblog/shortlinks/internal/repositories"
	"github.com/fsdevblog/shortlinks/internal/repositories/memstore"
	"github.com/fsdevblog/shortlinks/internal/services/mocks"
)

var generatedCodeRegex = regexp.MustCompile(`^[A-Za-z0-9]{6}$`)

func fixedClock(t time.Time) func(*LinkServiceOptions) {
	return func(o *LinkServiceOptions) {
		o.Clock = func() time.Time { return t }
	}
}

// sequenceGenerator отдает коды по очереди, последний повторяется.
func sequenceGenerator(codes ...string) func(*LinkServiceOptions) {
	var i atomic.Int32
	return func(o *LinkServiceOptions) {
		o.CodeGenerator = func(int) (string, error) {
			n := int(i.Add(1)) - 1
			if n >= len(codes) {
				n = len(codes) - 1
			}
			return codes[n], nil
		}
	}
}

func newMemoryService(opts ...func(*LinkServiceOptions)) *LinkService {
	return NewLinkService(memstore.NewLinkRepo(db.NewMemStorage()), opts...)
}

func TestLinkService_CreateGenerated(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	svc := newMemoryService(fixedClock(now))

	target := gofakeit.URL()
	link, err := svc.Create(t.Context(), target, "")
	require.NoError(t, err)

	assert.Regexp(t, generatedCodeRegex, link.Code)
	assert.Equal(t, target, link.TargetURL)
	assert.Equal(t, int64(0), link.ClickCount)
	assert.Nil(t, link.LastClickedAt)
	assert.True(t, now.Equal(link.CreatedAt))
	assert.NotEmpty(t, link.ID)
}

func TestLinkService_CreateCustom(t *testing.T) {
	svc := newMemoryService()

	link, err := svc.Create(t.Context(), "https://example.com/a", "  promo1  ")
	require.NoError(t, err)
	assert.Equal(t, "promo1", link.Code)

	got, err := svc.GetByCode(t.Context(), "promo1")
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/a", got.TargetURL)

	_, err = svc.Create(t.Context(), "https://example.com/b", "promo1")
	require.ErrorIs(t, err, ErrCodeConflict)

	got, err = svc.GetByCode(t.Context(), "promo1")
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/a", got.TargetURL)
}

func TestLinkService_CreateInvalidInput(t *testing.T) {
	tests := []struct {
		name       string
		targetURL  string
		customCode string
		field      string
	}{
		{name: "not a url", targetURL: "not-a-url", field: "targetUrl"},
		{name: "empty url", targetURL: "   ", field: "targetUrl"},
		{name: "ftp scheme", targetURL: "ftp://example.com/file", field: "targetUrl"},
		{name: "javascript scheme", targetURL: "javascript:alert(1)", field: "targetUrl"},
		{name: "no host", targetURL: "http://", field: "targetUrl"},
		{name: "short code", targetURL: "https://example.com", customCode: "ab", field: "customCode"},
		{name: "long code", targetURL: "https://example.com", customCode: "abcdefghi", field: "customCode"},
		{name: "code with dash", targetURL: "https://example.com", customCode: "abc-12", field: "customCode"},
		{name: "non ascii code", targetURL: "https://example.com", customCode: "абвгде", field: "customCode"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			svc := NewLinkService(mocks.NewMockLinkRepository(ctrl))

			_, err := svc.Create(t.Context(), tt.targetURL, tt.customCode)
			require.ErrorIs(t, err, ErrInvalidInput)

			var vErr *ValidationError
			require.ErrorAs(t, err, &vErr)
			require.Len(t, vErr.Violations, 1)
			assert.Equal(t, tt.field, vErr.Violations[0].Field)
		})
	}
}

func TestLinkService_CreateInvalidInputMessages(t *testing.T) {
	tests := []struct {
		targetURL string
		want      string
	}{
		{targetURL: "", want: "targetUrl is required"},
		{targetURL: "not-a-url", want: "Invalid URL format"},
		{targetURL: "ftp://example.com/file", want: "URL must have http or https scheme"},
		{targetURL: "http://", want: "URL must have a valid host"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			_, err := newMemoryService().Create(t.Context(), tt.targetURL, "")

			var vErr *ValidationError
			require.ErrorAs(t, err, &vErr)
			assert.Equal(t, []FieldViolation{{Field: "targetUrl", Message: tt.want}}, vErr.Violations)
		})
	}
}

func TestLinkService_CreateReportsEveryInvalidField(t *testing.T) {
	_, err := newMemoryService().Create(t.Context(), "ftp://example.com", "ab")
	require.ErrorIs(t, err, ErrInvalidInput)

	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, []FieldViolation{
		{Field: "targetUrl", Message: "URL must have http or https scheme"},
		{Field: "customCode", Message: "Code must be 6-8 alphanumeric characters"},
	}, vErr.Violations)
	assert.Equal(t,
		"targetUrl: URL must have http or https scheme; customCode: Code must be 6-8 alphanumeric characters",
		vErr.Error(),
	)
}

func TestLinkService_CreateAcceptedHosts(t *testing.T) {
	svc := newMemoryService()
	for _, target := range []string{
		"http://localhost:3000/x",
		"http://127.0.0.1/x",
		"http://[::1]:8080/x",
		"https://sub.example.co.uk/path?q=1#frag",
		"http://intranet/path",
		"http://intranet:8080/x",
		"https://münchen.de/",
		"https://example.com./path",
	} {
		_, err := svc.Create(t.Context(), target, "")
		assert.NoError(t, err, target)
	}
}

func TestLinkService_CreateRetriesOnCollision(t *testing.T) {
	ctrl := gomock.NewController(t)
	repo := mocks.NewMockLinkRepository(ctrl)
	metrics := mocks.NewMockMetricsRecorder(ctrl)
	svc := NewLinkService(repo,
		sequenceGenerator("aaaaaa", "bbbbbb", "cccccc"),
		func(o *LinkServiceOptions) { o.Metrics = metrics },
	)

	gomock.InOrder(
		repo.EXPECT().ExistsByCode(gomock.Any(), "aaaaaa").Return(true, nil),
		metrics.EXPECT().CodeCollision(),
		repo.EXPECT().ExistsByCode(gomock.Any(), "bbbbbb").Return(false, nil),
		// код заняли между проверкой и вставкой
		repo.EXPECT().Create(gomock.Any(), gomock.Any()).Return(repositories.ErrDuplicateKey),
		metrics.EXPECT().CodeCollision(),
		repo.EXPECT().ExistsByCode(gomock.Any(), "cccccc").Return(false, nil),
		repo.EXPECT().Create(gomock.Any(), gomock.Any()).Return(nil),
		metrics.EXPECT().LinkCreated(false),
	)

	link, err := svc.Create(t.Context(), "https://example.com", "")
	require.NoError(t, err)
	assert.Equal(t, "cccccc", link.Code)
}

func TestLinkService_CreateExhausted(t *testing.T) {
	ctrl := gomock.NewController(t)
	repo := mocks.NewMockLinkRepository(ctrl)
	svc := NewLinkService(repo, sequenceGenerator("aaaaaa"))

	repo.EXPECT().ExistsByCode(gomock.Any(), "aaaaaa").Return(true, nil).Times(defaultMaxAttempts)

	_, err := svc.Create(t.Context(), "https://example.com", "")
	require.ErrorIs(t, err, ErrCodeExhausted)
}

func TestLinkService_CreateRepositoryFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	repo := mocks.NewMockLinkRepository(ctrl)
	svc := NewLinkService(repo)

	repo.EXPECT().Create(gomock.Any(), gomock.Any()).Return(repositories.ErrUnknown)

	_, err := svc.Create(t.Context(), "https://example.com", "custom1")
	require.ErrorIs(t, err, ErrUnknown)
}

func TestLinkService_ConcurrentCustomCreate(t *testing.T) {
	svc := newMemoryService()

	const workers = 20
	var created, conflicts atomic.Int32
	var g errgroup.Group
	for range workers {
		g.Go(func() error {
			_, err := svc.Create(context.Background(), gofakeit.URL(), "racer1")
			switch {
			case err == nil:
				created.Add(1)
			case errors.Is(err, ErrCodeConflict):
				conflicts.Add(1)
			default:
				return err
			}
			return nil
		})
	}
	require.NoError(t, g.Wait())

	assert.Equal(t, int32(1), created.Load())
	assert.Equal(t, int32(workers-1), conflicts.Load())
}

func TestLinkService_List(t *testing.T) {
	svc := newMemoryService()
	_, err := svc.Create(t.Context(), "https://foo.example.com", "")
	require.NoError(t, err)

	links, err := svc.List(t.Context(), "  FOO  ")
	require.NoError(t, err)
	assert.Len(t, links, 1)

	links, err = svc.List(t.Context(), "nomatch")
	require.NoError(t, err)
	assert.NotNil(t, links)
	assert.Empty(t, links)
}

func TestLinkService_ListNilFromRepository(t *testing.T) {
	ctrl := gomock.NewController(t)
	repo := mocks.NewMockLinkRepository(ctrl)
	svc := NewLinkService(repo)

	repo.EXPECT().List(gomock.Any(), "foo").Return(nil, nil)

	links, err := svc.List(t.Context(), "foo")
	require.NoError(t, err)
	assert.NotNil(t, links)
}

func TestLinkService_MalformedCodeSkipsStorage(t *testing.T) {
	ctrl := gomock.NewController(t)
	// без ожиданий: любой вызов репозитория провалит тест
	svc := NewLinkService(mocks.NewMockLinkRepository(ctrl))

	_, err := svc.GetByCode(t.Context(), "ab")
	require.ErrorIs(t, err, ErrRecordNotFound)

	require.ErrorIs(t, svc.Delete(t.Context(), "bad-code"), ErrRecordNotFound)

	_, err = svc.ResolveAndRecordClick(t.Context(), "favicon.ico")
	require.ErrorIs(t, err, ErrRecordNotFound)
}

func TestLinkService_Delete(t *testing.T) {
	svc := newMemoryService()
	link, err := svc.Create(t.Context(), "https://example.com", "")
	require.NoError(t, err)

	require.NoError(t, svc.Delete(t.Context(), link.Code))
	require.ErrorIs(t, svc.Delete(t.Context(), link.Code), ErrRecordNotFound)

	_, err = svc.GetByCode(t.Context(), link.Code)
	require.ErrorIs(t, err, ErrRecordNotFound)

	_, err = svc.ResolveAndRecordClick(t.Context(), link.Code)
	require.ErrorIs(t, err, ErrRecordNotFound)
}

func TestLinkService_ResolveAndRecordClick(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	svc := newMemoryService(fixedClock(now))

	link, err := svc.Create(t.Context(), "https://example.com/landing", "")
	require.NoError(t, err)

	target, err := svc.ResolveAndRecordClick(t.Context(), link.Code)
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/landing", target)

	got, err := svc.GetByCode(t.Context(), link.Code)
	require.NoError(t, err)
	assert.Equal(t, int64(1), got.ClickCount)
	require.NotNil(t, got.LastClickedAt)
	assert.True(t, now.Equal(*got.LastClickedAt))
}

func TestLinkService_ResolveConcurrent(t *testing.T) {
	svc := newMemoryService()
	link, err := svc.Create(t.Context(), "https://example.com", "")
	require.NoError(t, err)

	const clicks = 200
	var g errgroup.Group
	for range clicks {
		g.Go(func() error {
			_, resolveErr := svc.ResolveAndRecordClick(context.Background(), link.Code)
			return resolveErr
		})
	}
	require.NoError(t, g.Wait())

	got, err := svc.GetByCode(t.Context(), link.Code)
	require.NoError(t, err)
	assert.Equal(t, int64(clicks), got.ClickCount)
}

func TestLinkService_ResolveRepositoryFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	repo := mocks.NewMockLinkRepository(ctrl)
	metrics := mocks.NewMockMetricsRecorder(ctrl)
	svc := NewLinkService(repo, func(o *LinkServiceOptions) { o.Metrics = metrics })

	repo.EXPECT().
		IncrementClicks(gomock.Any(), "abc123", gomock.Any()).
		Return(nil, repositories.ErrUnknown)

	_, err := svc.ResolveAndRecordClick(t.Context(), "abc123")
	require.ErrorIs(t, err, ErrUnknown)
}

func TestRandomCode(t *testing.T) {
	seen := make(map[byte]struct{})
	for range 1000 {
		code, err := RandomCode(models.GeneratedCodeLength)
		require.NoError(t, err)
		require.Regexp(t, generatedCodeRegex, code)
		for i := range len(code) {
			seen[code[i]] = struct{}{}
		}
	}
	// 6000 символов почти наверняка покрывают весь алфавит
	assert.Len(t, seen, len(codeAlphabet))
}

func TestIsValidCode(t *testing.T) {
	for code, want := range map[string]bool{
		"abc123":    true,
		"ABCdef12":  true,
		"ab12":      false,
		"abcdefghi": false,
		"abc-12":    false,
		"абвгде":    false,
		"":          false,
	} {
		assert.Equal(t, want, IsValidCode(code), code)
	}
}
