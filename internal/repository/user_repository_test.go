package repository_test

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/auth-service/internal/model"
	"github.com/iliyamo/auth-service/internal/repository"
)

func newTestUserRepo(t *testing.T) (*repository.UserRepo, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return repository.NewUserRepo(db), mock
}

func TestCreateUser(t *testing.T) {
	repo, mock := newTestUserRepo(t)

	mock.ExpectExec("INSERT INTO users").
		WithArgs("A", "B", "a@example.com", "$2a$10$digest", "CUSTOMER").
		WillReturnResult(sqlmock.NewResult(7, 1))

	id, err := repo.Create(context.Background(), "A", "B", "a@example.com", "$2a$10$digest", model.RoleCustomer)
	require.NoError(t, err)
	assert.Equal(t, uint64(7), id)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateUserNormalizesEmail(t *testing.T) {
	repo, mock := newTestUserRepo(t)

	// The repository lowercases and trims before the insert so the unique
	// index only ever sees one spelling of an address.
	mock.ExpectExec("INSERT INTO users").
		WithArgs("A", "B", "a@example.com", "$2a$10$digest", "CUSTOMER").
		WillReturnResult(sqlmock.NewResult(1, 1))

	_, err := repo.Create(context.Background(), "A", "B", "  A@Example.COM ", "$2a$10$digest", model.RoleCustomer)
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateUserDuplicateEmail(t *testing.T) {
	repo, mock := newTestUserRepo(t)

	mock.ExpectExec("INSERT INTO users").
		WillReturnError(&mysql.MySQLError{Number: 1062, Message: "Duplicate entry 'a@example.com' for key 'uq_users_email'"})

	_, err := repo.Create(context.Background(), "A", "B", "a@example.com", "$2a$10$digest", model.RoleCustomer)
	require.ErrorIs(t, err, repository.ErrEmailExists)
}

func TestCreateUserStorageErrorIsNotDuplicate(t *testing.T) {
	repo, mock := newTestUserRepo(t)

	mock.ExpectExec("INSERT INTO users").
		WillReturnError(&mysql.MySQLError{Number: 1205, Message: "Lock wait timeout exceeded"})

	_, err := repo.Create(context.Background(), "A", "B", "a@example.com", "$2a$10$digest", model.RoleCustomer)
	require.Error(t, err)
	assert.NotErrorIs(t, err, repository.ErrEmailExists)
}

func TestGetByEmailExcludesHash(t *testing.T) {
	repo, mock := newTestUserRepo(t)
	now := time.Now()

	rows := sqlmock.NewRows([]string{"id", "first_name", "last_name", "email", "role", "is_active", "created_at", "updated_at"}).
		AddRow(7, "A", "B", "a@example.com", "CUSTOMER", true, now, now)
	mock.ExpectQuery("SELECT id,first_name,last_name,email,role,is_active,created_at,updated_at FROM users WHERE email=").
		WithArgs("a@example.com").
		WillReturnRows(rows)

	u, err := repo.GetByEmail(context.Background(), "A@Example.com ")
	require.NoError(t, err)
	assert.Equal(t, uint64(7), u.ID)
	assert.Equal(t, model.RoleCustomer, u.Role)
	assert.Empty(t, u.PasswordHash, "default projection must not carry the hash")
}

func TestGetByEmailWithHash(t *testing.T) {
	repo, mock := newTestUserRepo(t)
	now := time.Now()

	rows := sqlmock.NewRows([]string{"id", "first_name", "last_name", "email", "password_hash", "role", "is_active", "created_at", "updated_at"}).
		AddRow(7, "A", "B", "a@example.com", "$2a$10$digest", "ADMIN", true, now, now)
	mock.ExpectQuery("SELECT id,first_name,last_name,email,password_hash,role,is_active,created_at,updated_at FROM users WHERE email=").
		WithArgs("a@example.com").
		WillReturnRows(rows)

	u, err := repo.GetByEmailWithHash(context.Background(), "a@example.com")
	require.NoError(t, err)
	assert.Equal(t, "$2a$10$digest", u.PasswordHash)
	assert.Equal(t, model.RoleAdmin, u.Role)
}

func TestGetByEmailNoRows(t *testing.T) {
	repo, mock := newTestUserRepo(t)

	mock.ExpectQuery("SELECT id,first_name,last_name,email,role,is_active,created_at,updated_at FROM users WHERE email=").
		WithArgs("missing@example.com").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.GetByEmail(context.Background(), "missing@example.com")
	require.ErrorIs(t, err, sql.ErrNoRows)
}

func TestCountByEmail(t *testing.T) {
	repo, mock := newTestUserRepo(t)

	mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM users WHERE email=").
		WithArgs("a@example.com").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	n, err := repo.CountByEmail(context.Background(), "A@example.com")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}
