// Package dbtest содержит помощники для интеграционных тестов с настоящей PostgreSQL.
package dbtest

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	tc "github.com/testcontainers/testcontainers-go"
	tclog "github.com/testcontainers/testcontainers-go/log"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
)

type nopLogger struct{}

func (*nopLogger) Printf(_ string, _ ...any) {}

var _ tclog.Logger = (*nopLogger)(nil)

const (
	dbName = "shortlinks"
	dbUser = "shortlinks"
	dbPass = "shortlinks"
)

// SetupPostgres поднимает контейнер PostgreSQL и возвращает DSN к пустой базе.
// Тест пропускается, если docker недоступен. Контейнер удаляется по завершении теста.
func SetupPostgres(t *testing.T) string {
	t.Helper()
	tc.SkipIfProviderIsNotHealthy(t)

	ctx := context.Background()
	container, err := postgres.Run(
		ctx,
		"postgres:16-alpine",
		postgres.WithDatabase(dbName),
		postgres.WithUsername(dbUser),
		postgres.WithPassword(dbPass),
		postgres.BasicWaitStrategies(),
		tc.WithLogger(&nopLogger{}),
	)
	tc.CleanupContainer(t, container)
	require.NoError(t, err)

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)
	return dsn
}
