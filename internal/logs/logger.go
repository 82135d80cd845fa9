package logs

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// EncodingType определяет формат вывода логов.
type EncodingType string

// LevelType определяет уровень логирования, значения совпадают с именами уровней zap.
type LevelType string

const (
	EncodingTypeConsole EncodingType = "console"
	EncodingTypeJSON    EncodingType = "json"
)

const (
	LevelTypeDebug LevelType = "debug"
	LevelTypeInfo  LevelType = "info"
	LevelTypeWarn  LevelType = "warn"
	LevelTypeError LevelType = "error"
)

// LoggerOptions настройки логгера.
type LoggerOptions struct {
	Level            LevelType      // Уровень логирования, пустой - по режиму
	Encoding         EncodingType   // Формат вывода, пустой - по режиму
	OutputPaths      []string       // Пути вывода логов
	ErrorOutputPaths []string       // Пути вывода ошибок
	InitialFields    map[string]any // Начальные поля для каждой записи
	Production       bool           // Релизный режим: JSON и уровень info, если не заданы явно
}

// New создает логгер. За основу берется пресет zap для выбранного режима,
// поверх него применяются явно заданные опции.
//
// Параметры:
//   - opts: функции для настройки логгера
//
// Возвращает:
//   - *zap.Logger: настроенный логгер
//   - error: ошибка создания логгера
func New(opts ...func(*LoggerOptions)) (*zap.Logger, error) {
	options := LoggerOptions{
		OutputPaths:      []string{"stdout"},
		ErrorOutputPaths: []string{"stderr"},
	}
	for _, opt := range opts {
		opt(&options)
	}

	conf := zap.NewDevelopmentConfig()
	if options.Production {
		conf = zap.NewProductionConfig()
		conf.Sampling = nil
	}
	conf.EncoderConfig.TimeKey = "ts"
	conf.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	conf.EncoderConfig.EncodeDuration = zapcore.StringDurationEncoder

	if options.Encoding != "" {
		conf.Encoding = string(options.Encoding)
	}
	if options.Level != "" {
		lvl, err := zap.ParseAtomicLevel(string(options.Level))
		if err != nil {
			return nil, fmt.Errorf("parse level: %w", err)
		}
		conf.Level = lvl
	}
	conf.OutputPaths = options.OutputPaths
	conf.ErrorOutputPaths = options.ErrorOutputPaths
	conf.InitialFields = options.InitialFields

	log, err := conf.Build(zap.AddStacktrace(zap.ErrorLevel))
	if err != nil {
		return nil, fmt.Errorf("build logger: %w", err)
	}
	return log, nil
}

// MustNew то же, что New, но паникует при ошибке.
func MustNew(opts ...func(*LoggerOptions)) *zap.Logger {
	log, err := New(opts...)
	if err != nil {
		panic(err)
	}
	return log
}
