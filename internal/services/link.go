package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/fsdevblog/shortlinks/internal/models"
	"github.com/fsdevblog/shortlinks/internal/repositories"
)

const defaultMaxAttempts = 10

// LinkServiceOptions опции сервиса ссылок.
type LinkServiceOptions struct {
	CodeGenerator CodeGenerator    // Источник сгенерированных кодов, по умолчанию RandomCode.
	Clock         func() time.Time // Текущее время, по умолчанию time.Now.
	Logger        *zap.Logger
	Metrics       MetricsRecorder
	MaxAttempts   int // Число попыток подобрать свободный код.
}

// LinkService реестр коротких ссылок: выдает уникальные коды, хранит соответствие код -> URL
// и считает переходы.
type LinkService struct {
	repo        LinkRepository
	genCode     CodeGenerator
	now         func() time.Time
	logger      *zap.Logger
	metrics     MetricsRecorder
	maxAttempts int
}

// NewLinkService создает сервис ссылок.
//
// Параметры:
//   - repo: хранилище ссылок
//   - opts: функции настройки LinkServiceOptions
//
// Возвращает:
//   - *LinkService: инициализированный сервис
func NewLinkService(repo LinkRepository, opts ...func(*LinkServiceOptions)) *LinkService {
	options := LinkServiceOptions{
		CodeGenerator: RandomCode,
		Clock:         time.Now,
		Logger:        zap.NewNop(),
		MaxAttempts:   defaultMaxAttempts,
	}
	for _, opt := range opts {
		opt(&options)
	}
	if options.Metrics == nil {
		options.Metrics = noopMetrics{}
	}
	return &LinkService{
		repo:        repo,
		genCode:     options.CodeGenerator,
		now:         options.Clock,
		logger:      options.Logger.Named("link_service"),
		metrics:     options.Metrics,
		maxAttempts: options.MaxAttempts,
	}
}

// Create создает короткую ссылку. Пустой customCode означает, что код будет сгенерирован.
//
// Параметры:
//   - ctx: контекст выполнения
//   - targetURL: абсолютный http(s) URL
//   - customCode: желаемый код или пустая строка
//
// Возвращает:
//   - *models.Link: созданная ссылка
//   - error: ErrInvalidInput, ErrCodeConflict, ErrCodeExhausted или ErrUnknown
func (s *LinkService) Create(ctx context.Context, targetURL, customCode string) (*models.Link, error) {
	in, err := validateCreate(targetURL, customCode)
	if err != nil {
		if errors.Is(err, ErrInvalidInput) {
			return nil, err
		}
		return nil, s.unknown("validate input", err)
	}

	if in.CustomCode != "" {
		return s.createCustom(ctx, in.TargetURL, in.CustomCode)
	}
	return s.createGenerated(ctx, in.TargetURL)
}

func (s *LinkService) createCustom(ctx context.Context, target, code string) (*models.Link, error) {
	link := s.newLink(code, target)
	if err := s.repo.Create(ctx, link); err != nil {
		if errors.Is(err, repositories.ErrDuplicateKey) {
			return nil, fmt.Errorf("%w: %s", ErrCodeConflict, code)
		}
		return nil, s.unknown("create custom link", err)
	}
	s.metrics.LinkCreated(true)
	return link, nil
}

func (s *LinkService) createGenerated(ctx context.Context, target string) (*models.Link, error) {
	for attempt := 1; attempt <= s.maxAttempts; attempt++ {
		code, genErr := s.genCode(models.GeneratedCodeLength)
		if genErr != nil {
			return nil, s.unknown("generate code", genErr)
		}

		// Уникальность гарантирует Create, ExistsByCode только отсеивает занятые коды.
		exists, existsErr := s.repo.ExistsByCode(ctx, code)
		if existsErr != nil {
			return nil, s.unknown("check code", existsErr)
		}
		if exists {
			s.collision(code, attempt)
			continue
		}

		link := s.newLink(code, target)
		if err := s.repo.Create(ctx, link); err != nil {
			if errors.Is(err, repositories.ErrDuplicateKey) {
				s.collision(code, attempt)
				continue
			}
			return nil, s.unknown("create link", err)
		}
		s.metrics.LinkCreated(false)
		return link, nil
	}
	return nil, fmt.Errorf("%w after %d attempts", ErrCodeExhausted, s.maxAttempts)
}

// List возвращает ссылки, код или URL которых содержит search без учета регистра.
func (s *LinkService) List(ctx context.Context, search string) ([]models.Link, error) {
	links, err := s.repo.List(ctx, strings.TrimSpace(search))
	if err != nil {
		return nil, s.unknown("list links", err)
	}
	if links == nil {
		links = make([]models.Link, 0)
	}
	return links, nil
}

// GetByCode возвращает ссылку по коду.
func (s *LinkService) GetByCode(ctx context.Context, code string) (*models.Link, error) {
	if !IsValidCode(code) {
		return nil, fmt.Errorf("%w: code %s", ErrRecordNotFound, code)
	}
	link, err := s.repo.GetByCode(ctx, code)
	if err != nil {
		return nil, s.mapLookupErr("get link", code, err)
	}
	return link, nil
}

// Delete безвозвратно удаляет ссылку, освобождая код.
func (s *LinkService) Delete(ctx context.Context, code string) error {
	if !IsValidCode(code) {
		return fmt.Errorf("%w: code %s", ErrRecordNotFound, code)
	}
	if err := s.repo.DeleteByCode(ctx, code); err != nil {
		return s.mapLookupErr("delete link", code, err)
	}
	return nil
}

// ResolveAndRecordClick возвращает целевой URL и засчитывает переход одной атомарной операцией.
//
// Параметры:
//   - ctx: контекст выполнения
//   - code: короткий код
//
// Возвращает:
//   - string: целевой URL
//   - error: ErrRecordNotFound или ErrUnknown
func (s *LinkService) ResolveAndRecordClick(ctx context.Context, code string) (string, error) {
	if !IsValidCode(code) {
		return "", fmt.Errorf("%w: code %s", ErrRecordNotFound, code)
	}
	link, err := s.repo.IncrementClicks(ctx, code, s.now().UTC())
	if err != nil {
		return "", s.mapLookupErr("record click", code, err)
	}
	s.metrics.Redirect()
	return link.TargetURL, nil
}

func (s *LinkService) newLink(code, target string) *models.Link {
	return &models.Link{
		ID:        uuid.NewString(),
		Code:      code,
		TargetURL: target,
		CreatedAt: s.now().UTC(),
	}
}

func (s *LinkService) collision(code string, attempt int) {
	s.metrics.CodeCollision()
	s.logger.Debug("generated code collision", zap.String("code", code), zap.Int("attempt", attempt))
}

func (s *LinkService) mapLookupErr(op, code string, err error) error {
	if errors.Is(err, repositories.ErrNotFound) {
		return fmt.Errorf("%w: code %s", ErrRecordNotFound, code)
	}
	return s.unknown(op, err)
}

func (s *LinkService) unknown(op string, err error) error {
	s.logger.Error(op+" failed", zap.Error(err))
	return fmt.Errorf("%w: %s: %w", ErrUnknown, op, err)
}

type noopMetrics struct{}

func (noopMetrics) LinkCreated(bool) {}
func (noopMetrics) CodeCollision()   {}
func (noopMetrics) Redirect()        {}
