package ledger_test

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/ory/dockertest/v3"
	"github.com/ory/dockertest/v3/docker"
	"github.com/stretchr/testify/suite"

	"mailtriage/internal/ledger"
)

// PostgresLedgerSuite exercises the ledger against a disposable Postgres container.
type PostgresLedgerSuite struct {
	suite.Suite
	pool     *dockertest.Pool
	resource *dockertest.Resource
	store    *ledger.Store
}

func TestPostgresLedgerSuite(t *testing.T) {
	if os.Getenv("MAILTRIAGE_DOCKER_TESTS") != "1" {
		t.Skip("set MAILTRIAGE_DOCKER_TESTS=1 to run Postgres integration tests")
	}
	suite.Run(t, new(PostgresLedgerSuite))
}

func (s *PostgresLedgerSuite) SetupSuite() {
	pool, err := dockertest.NewPool("")
	s.Require().NoError(err, "could not construct pool")
	s.Require().NoError(pool.Client.Ping(), "could not connect to docker")
	s.pool = pool

	resource, err := pool.RunWithOptions(&dockertest.RunOptions{
		Repository: "postgres",
		Tag:        "16-alpine",
		Env: []string{
			"POSTGRES_PASSWORD=secret",
			"POSTGRES_USER=mailtriage",
			"POSTGRES_DB=mailtriage",
		},
	}, func(hc *docker.HostConfig) {
		hc.AutoRemove = true
		hc.RestartPolicy = docker.RestartPolicy{Name: "no"}
	})
	s.Require().NoError(err, "could not start postgres")
	s.resource = resource
	_ = resource.Expire(120)

	dsn := fmt.Sprintf("postgres://mailtriage:secret@%s/mailtriage?sslmode=disable", resource.GetHostPort("5432/tcp"))
	pool.MaxWait = 60 * time.Second
	err = pool.Retry(func() error {
		store, openErr := ledger.OpenDSN(context.Background(), "postgres", dsn)
		if openErr != nil {
			return openErr
		}
		s.store = store
		return nil
	})
	s.Require().NoError(err, "could not connect to postgres")
}

func (s *PostgresLedgerSuite) TearDownSuite() {
	if s.store != nil {
		_ = s.store.Close()
	}
	if s.pool != nil && s.resource != nil {
		_ = s.pool.Purge(s.resource)
	}
}

func (s *PostgresLedgerSuite) TestMarkProcessedIsIdempotent() {
	ctx := context.Background()
	s.Require().NoError(s.store.MarkProcessed(ctx, "pg-1", "Interview", "hr@acme.com"))
	s.Require().NoError(s.store.MarkProcessed(ctx, "pg-1", "Other", "x@acme.com"))

	entry, err := s.store.Get(ctx, "pg-1")
	s.Require().NoError(err)
	s.Equal("Interview", entry.Subject)
	s.False(entry.Moved)
}

func (s *PostgresLedgerSuite) TestMarkMovedRemovesFromUnmoved() {
	ctx := context.Background()
	s.Require().NoError(s.store.MarkProcessed(ctx, "pg-spam", "Deal", "promo@x.com"))
	s.Require().NoError(s.store.MarkMoved(ctx, "pg-spam"))

	entries, err := s.store.ListUnmoved(ctx)
	s.Require().NoError(err)
	for _, entry := range entries {
		s.NotEqual("pg-spam", entry.MessageID)
	}

	entry, err := s.store.Get(ctx, "pg-spam")
	s.Require().NoError(err)
	s.True(entry.Moved)
	s.NotNil(entry.MovedAt)
}

func (s *PostgresLedgerSuite) TestMarkMovedUnknown() {
	err := s.store.MarkMoved(context.Background(), "pg-missing")
	s.ErrorIs(err, ledger.ErrEntryNotFound)
}
