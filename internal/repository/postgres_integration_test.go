package repository_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"

	"github.com/spec-kit/issue-tracker/internal/config"
	"github.com/spec-kit/issue-tracker/internal/domain"
	"github.com/spec-kit/issue-tracker/internal/persistence"
	"github.com/spec-kit/issue-tracker/internal/repository"
)

// setupPostgres starts a disposable Postgres, applies migrations and returns
// a pool against it.
func setupPostgres(t *testing.T) *pgxpool.Pool {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping postgres integration test in short mode")
	}
	testcontainers.SkipIfProviderIsNotHealthy(t)

	ctx := context.Background()
	req := testcontainers.ContainerRequest{
		Image:        "postgres:16-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "tracker",
			"POSTGRES_PASSWORD": "tracker",
			"POSTGRES_DB":       "tracker",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(60 * time.Second),
	}
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := container.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	})

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "5432")
	require.NoError(t, err)

	logger := zap.NewNop()
	pg, err := persistence.NewPostgres(ctx, config.PostgresConfig{
		DSN:      fmt.Sprintf("postgres://tracker:tracker@%s:%s/tracker?sslmode=disable", host, port.Port()),
		MaxConns: 4,
	}, logger)
	require.NoError(t, err)
	t.Cleanup(pg.Close)

	require.NoError(t, persistence.RunMigrations(pg.Pool, logger))
	return pg.Pool
}

func TestPostgresRepositories(t *testing.T) {
	pool := setupPostgres(t)
	ctx := context.Background()
	users := repository.NewUserRepository(pool)
	issues := repository.NewIssueRepository(pool)

	hash := "hash"
	creator := &domain.User{Email: "creator@example.com", PasswordHash: &hash, Role: domain.RoleAdmin, Status: domain.UserStatusActive}
	require.NoError(t, users.Create(ctx, creator))
	assignee := &domain.User{Email: "assignee@example.com", PasswordHash: &hash, Role: domain.RoleUser, Status: domain.UserStatusActive}
	require.NoError(t, users.Create(ctx, assignee))

	t.Run("duplicate email", func(t *testing.T) {
		err := users.Create(ctx, &domain.User{Email: "creator@example.com", Role: domain.RoleUser, Status: domain.UserStatusInvited})
		assert.ErrorIs(t, err, repository.ErrDuplicate)
	})

	t.Run("malformed id is not found", func(t *testing.T) {
		_, err := users.GetByID(ctx, "not-a-uuid")
		assert.ErrorIs(t, err, repository.ErrNotFound)
	})

	t.Run("reset token is single use and strictly bounded", func(t *testing.T) {
		now := time.Now().UTC().Truncate(time.Second)
		require.NoError(t, users.SetResetToken(ctx, assignee.ID, "tok-boundary", now))

		_, err := users.ConsumeResetToken(ctx, "tok-boundary", "new", now)
		assert.ErrorIs(t, err, repository.ErrNotFound)

		require.NoError(t, users.SetResetToken(ctx, assignee.ID, "tok-live", now.Add(time.Hour)))
		id, err := users.ConsumeResetToken(ctx, "tok-live", "new", now)
		require.NoError(t, err)
		assert.Equal(t, assignee.ID, id)

		_, err = users.ConsumeResetToken(ctx, "tok-live", "again", now)
		assert.ErrorIs(t, err, repository.ErrNotFound)
	})

	t.Run("invitation consumption activates", func(t *testing.T) {
		token := "invite-token"
		expiry := time.Now().Add(time.Hour)
		invited := &domain.User{
			Email:            "invited@example.com",
			Role:             domain.RoleUser,
			Status:           domain.UserStatusInvited,
			ResetToken:       &token,
			ResetTokenExpiry: &expiry,
			InvitedBy:        &creator.ID,
		}
		require.NoError(t, users.Create(ctx, invited))

		found, err := users.GetInvitedByToken(ctx, token)
		require.NoError(t, err)
		require.NoError(t, users.ConsumeInvitation(ctx, found.ID, token, "hashed"))
		assert.ErrorIs(t, users.ConsumeInvitation(ctx, found.ID, token, "hashed"), repository.ErrNotFound)

		activated, err := users.GetByID(ctx, found.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.UserStatusActive, activated.Status)
		assert.Nil(t, activated.ResetToken)
		require.NotNil(t, activated.PasswordHash)
	})

	t.Run("issue filters sort and counts", func(t *testing.T) {
		due := func(day int) *time.Time {
			d := time.Date(2030, 1, day, 0, 0, 0, 0, time.UTC)
			return &d
		}
		seed := []domain.Issue{
			{Title: "no due", Severity: domain.SeverityLow, Priority: domain.PriorityLow, Status: domain.IssueStatusOpen, CreatedBy: creator.ID},
			{Title: "late", Severity: domain.SeverityHigh, Priority: domain.PriorityHigh, Status: domain.IssueStatusOpen, CreatedBy: creator.ID, DueDate: due(20), AssignedTo: &assignee.ID},
			{Title: "early", Severity: domain.SeverityMedium, Priority: domain.PriorityMedium, Status: domain.IssueStatusClosed, CreatedBy: creator.ID, DueDate: due(5)},
		}
		for i := range seed {
			require.NoError(t, issues.Create(ctx, &seed[i]))
		}

		list, total, err := issues.List(ctx, repository.IssueFilter{},
			repository.IssueSort{Field: repository.SortByDueDate, Order: repository.SortAsc},
			repository.Page{Limit: 10})
		require.NoError(t, err)
		assert.Equal(t, 3, total)
		require.Len(t, list, 3)
		assert.Equal(t, []string{"early", "late", "no due"}, []string{list[0].Title, list[1].Title, list[2].Title})
		require.NotNil(t, list[1].AssignedToEmail)
		assert.Equal(t, "assignee@example.com", *list[1].AssignedToEmail)
		require.NotNil(t, list[0].CreatedByEmail)

		unassigned, total, err := issues.List(ctx, repository.IssueFilter{Unassigned: true}, repository.IssueSort{}, repository.Page{Limit: 10})
		require.NoError(t, err)
		assert.Equal(t, 2, total)
		for _, is := range unassigned {
			assert.Nil(t, is.AssignedTo)
		}

		counts, err := issues.StatusCounts(ctx)
		require.NoError(t, err)
		assert.Equal(t, 2, counts[domain.IssueStatusOpen])
		assert.Equal(t, 1, counts[domain.IssueStatusClosed])
		assert.Equal(t, 0, counts[domain.IssueStatusResolved])

		desc := "details"
		require.NoError(t, issues.Update(ctx, seed[0].ID, domain.IssuePatch{
			Description: domain.SetTo(desc),
			DueDate:     domain.SetTo(*due(1)),
		}))
		require.NoError(t, issues.Update(ctx, seed[0].ID, domain.IssuePatch{DueDate: domain.Clear[time.Time]()}))
		updated, err := issues.GetByID(ctx, seed[0].ID)
		require.NoError(t, err)
		assert.Nil(t, updated.DueDate)
		require.NotNil(t, updated.Description)
		assert.Equal(t, desc, *updated.Description)

		today := time.Now().UTC()
		exported, err := issues.Export(ctx, repository.IssueFilter{FromDate: &today, ToDate: &today})
		require.NoError(t, err)
		assert.Len(t, exported, 3)

		require.NoError(t, issues.Delete(ctx, seed[2].ID))
		assert.ErrorIs(t, issues.Delete(ctx, seed[2].ID), repository.ErrNotFound)
	})
}
