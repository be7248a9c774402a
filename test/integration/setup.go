// Package integration runs the HTTP and live API against a real postgres
// started with testcontainers.
package integration

import (
	"context"
	"database/sql"
	"fmt"
	"net/http/httptest"
	"testing"
	"time"

	_ "github.com/lib/pq"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"github.com/vncsmyrnk/livepoll/internal/adapters/broadcast"
	handler "github.com/vncsmyrnk/livepoll/internal/adapters/handler/http"
	repo "github.com/vncsmyrnk/livepoll/internal/adapters/repository/postgres"
	"github.com/vncsmyrnk/livepoll/internal/core/ports"
	"github.com/vncsmyrnk/livepoll/internal/core/services"
)

type TestApp struct {
	DB          *sql.DB
	Server      *httptest.Server
	Hub         *broadcast.Hub
	TallySvc    ports.TallyService
	DBContainer testcontainers.Container
}

func setupPostgresContainer(ctx context.Context) (testcontainers.Container, string, error) {
	dbName := "testdb"
	user := "user"
	password := "password"

	pgContainer, err := postgres.Run(ctx, "postgres:15-alpine",
		postgres.WithDatabase(dbName),
		postgres.WithUsername(user),
		postgres.WithPassword(password),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	if err != nil {
		return nil, "", fmt.Errorf("failed to start postgres container: %w", err)
	}

	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		return nil, "", err
	}

	return pgContainer, connStr, nil
}

func setupTestApp(t *testing.T) *TestApp {
	t.Helper()
	ctx := context.Background()

	dbContainer, dbURL, err := setupPostgresContainer(ctx)
	require.NoError(t, err)

	db, err := sql.Open("postgres", dbURL)
	require.NoError(t, err)
	require.NoError(t, repo.Migrate(ctx, db))

	pollRepo := repo.NewPollRepository(db)
	userSvc := services.NewUserService(repo.NewUserRepository(db))
	hub := broadcast.NewHub(nil)

	router := handler.NewHandler(
		handler.NewPollHandler(services.NewPollService(pollRepo, userSvc), hub),
		handler.NewVoteHandler(services.NewVoteService(pollRepo, userSvc), hub),
		handler.NewUserHandler(userSvc),
		handler.NewLiveHandler(hub, handler.LiveConfig{
			AllowedOrigins: []string{"*"},
			WriteTimeout:   2 * time.Second,
			PingInterval:   time.Second,
			ReadLimit:      4096,
		}),
		[]string{"*"},
	)

	return &TestApp{
		DB:          db,
		Server:      httptest.NewServer(router),
		Hub:         hub,
		TallySvc:    services.NewTallyService(repo.NewTallyRepository(db)),
		DBContainer: dbContainer,
	}
}

func (app *TestApp) Teardown(t *testing.T) {
	app.Hub.Close()
	app.Server.Close()
	app.DB.Close()
	if err := app.DBContainer.Terminate(context.Background()); err != nil {
		t.Logf("failed to terminate container: %v", err)
	}
}
