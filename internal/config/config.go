package config

import (
	"flag"
	"net/url"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/pkg/errors"
)

type StorageType string

const (
	StorageTypePostgres StorageType = "postgres"
	StorageTypeSQLite   StorageType = "sqlite"
	StorageTypeInMemory StorageType = "inMemory"
)

const (
	defaultServerAddress   = "localhost:8080"
	defaultFileStoragePath = "links_backup.json"
	defaultTLSCertPath     = "cert.pem"
	defaultTLSKeyPath      = "key.pem"
	releaseMode            = "release"
)

type Config struct {
	// Адрес, на котором запустится сервер
	ServerAddress string `env:"SERVER_ADDRESS"`
	// Базовый адрес результирующего сокращенного URL (Scheme://Host)
	BaseURL string `env:"BASE_URL"`
	// Строка подключения к PostgreSQL
	DatabaseDSN string `env:"DATABASE_DSN"`
	// Путь к файлу SQLite
	SQLitePath string `env:"SQLITE_PATH"`
	// Файл бекапа хранилища в памяти
	FileStoragePath string `env:"FILE_STORAGE_PATH"`
	// Запуск сервера по https
	EnableHTTPS bool `env:"ENABLE_HTTPS"`
	// Пути к сертификату и приватному ключу
	TLSCertPath string `env:"TLS_CERT_PATH"`
	TLSKeyPath  string `env:"TLS_KEY_PATH"`
	// Разрешенные источники CORS
	CORSAllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envSeparator:","`
	// Уровень логирования, по умолчанию зависит от режима
	LogLevel string `env:"LOG_LEVEL"`
	// Режим gin (debug, release, test)
	GinMode string `env:"GIN_MODE"`
}

// IsRelease сообщает, запущено ли приложение в релизном режиме.
func (c *Config) IsRelease() bool {
	return c.GinMode == releaseMode
}

// StorageType выбирает хранилище: DSN -> postgres, иначе путь SQLite -> sqlite, иначе память.
func (c *Config) StorageType() StorageType {
	switch {
	case c.DatabaseDSN != "":
		return StorageTypePostgres
	case c.SQLitePath != "":
		return StorageTypeSQLite
	default:
		return StorageTypeInMemory
	}
}

// LoadConfig читает конфигурацию из ENV и флагов командной строки. ENV имеет приоритет.
//
// Параметры:
//   - args: аргументы командной строки без имени программы
//
// Возвращает:
//   - *Config: итоговая конфигурация
//   - error: ошибка разбора
func LoadConfig(args []string) (*Config, error) {
	var flagsConfig, envConfig Config

	if err := env.Parse(&envConfig); err != nil {
		return nil, errors.Wrapf(err, "parse ENV config error")
	}

	if err := loadFlags(&flagsConfig, args); err != nil {
		return nil, errors.Wrap(err, "parse flags error")
	}

	conf := mergeConfig(&envConfig, &flagsConfig)

	baseURL, err := normalizeBaseURL(conf.BaseURL)
	if err != nil {
		return nil, err
	}
	conf.BaseURL = baseURL
	return conf, nil
}

// MustLoadConfig то же, что LoadConfig, но паникует при ошибке.
func MustLoadConfig(args []string) *Config {
	conf, err := LoadConfig(args)
	if err != nil {
		panic(err)
	}
	return conf
}

// loadFlags парсит флаги командной строки.
func loadFlags(flagsConfig *Config, args []string) error {
	fs := flag.NewFlagSet("shortlinks", flag.ContinueOnError)

	fs.StringVar(&flagsConfig.ServerAddress, "a", defaultServerAddress, "Адрес сервера")
	fs.StringVar(&flagsConfig.BaseURL, "b", "",
		"Базовый адрес результирующего сокращенного URL (по умолчанию Scheme://Host запущенного сервера)")
	fs.StringVar(&flagsConfig.DatabaseDSN, "d", "", "Строка подключения к PostgreSQL")
	fs.StringVar(&flagsConfig.SQLitePath, "l", "", "Путь к файлу SQLite")
	fs.StringVar(&flagsConfig.FileStoragePath, "f", defaultFileStoragePath, "Файл бекапа хранилища в памяти")
	fs.BoolVar(&flagsConfig.EnableHTTPS, "s", false, "Запустить сервер по https")

	if err := fs.Parse(args); err != nil {
		return err //nolint:wrapcheck
	}
	flagsConfig.TLSCertPath = defaultTLSCertPath
	flagsConfig.TLSKeyPath = defaultTLSKeyPath
	flagsConfig.CORSAllowedOrigins = []string{"*"}
	return nil
}

// mergeConfig сливает структуры для env и флагов.
func mergeConfig(envConfig, flagsConfig *Config) *Config {
	return &Config{
		ServerAddress:      defaultIfBlank(envConfig.ServerAddress, flagsConfig.ServerAddress),
		BaseURL:            defaultIfBlank(envConfig.BaseURL, flagsConfig.BaseURL),
		DatabaseDSN:        defaultIfBlank(envConfig.DatabaseDSN, flagsConfig.DatabaseDSN),
		SQLitePath:         defaultIfBlank(envConfig.SQLitePath, flagsConfig.SQLitePath),
		FileStoragePath:    defaultIfBlank(envConfig.FileStoragePath, flagsConfig.FileStoragePath),
		EnableHTTPS:        envConfig.EnableHTTPS || flagsConfig.EnableHTTPS,
		TLSCertPath:        defaultIfBlank(envConfig.TLSCertPath, flagsConfig.TLSCertPath),
		TLSKeyPath:         defaultIfBlank(envConfig.TLSKeyPath, flagsConfig.TLSKeyPath),
		CORSAllowedOrigins: defaultIfBlank(envConfig.CORSAllowedOrigins, flagsConfig.CORSAllowedOrigins),
		LogLevel:           envConfig.LogLevel,
		GinMode:            envConfig.GinMode,
	}
}

func defaultIfBlank[T any](value T, defaultValue T) T {
	if v, ok := any(value).(string); ok && v == "" {
		return defaultValue
	}
	if v, ok := any(value).([]string); ok && len(v) == 0 {
		return defaultValue
	}
	return value
}

// normalizeBaseURL проверяет базовый адрес и отсекает Path и Query, если они заданы.
func normalizeBaseURL(rawURL string) (string, error) {
	rawURL = strings.TrimSpace(rawURL)
	if rawURL == "" {
		return "", nil
	}
	parsedURL, err := url.ParseRequestURI(rawURL)
	if err != nil {
		return "", errors.Wrap(err, "failed to parse base url")
	}
	if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
		return "", errors.Errorf("base url must have http or https scheme, got `%s`", parsedURL.Scheme)
	}
	if parsedURL.Host == "" {
		return "", errors.New("base url must have a host")
	}
	return (&url.URL{Scheme: parsedURL.Scheme, Host: parsedURL.Host}).String(), nil
}
