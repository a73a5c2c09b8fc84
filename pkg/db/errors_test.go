package db

import (
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"github.com/stretchr/testify/require"
)

func TestIsUniqueViolationPgx(t *testing.T) {
	err := &pgconn.PgError{Code: "23505", ConstraintName: "categories_slug_key"}

	require.True(t, IsUniqueViolation(err))
	require.True(t, IsUniqueViolation(err, "categories_slug_key"))
	require.False(t, IsUniqueViolation(err, "brands_slug_key"))
}

func TestIsUniqueViolationPgxWrapped(t *testing.T) {
	err := fmt.Errorf("creating category: %w", &pgconn.PgError{Code: "23505"})
	require.True(t, IsUniqueViolation(err))
}

func TestIsUniqueViolationPgxOtherCode(t *testing.T) {
	require.False(t, IsUniqueViolation(&pgconn.PgError{Code: "23503"}))
}

func TestIsUniqueViolationPq(t *testing.T) {
	err := &pq.Error{Code: "23505", Constraint: "products_external_id_key"}

	require.True(t, IsUniqueViolation(err))
	require.True(t, IsUniqueViolation(err, "products_external_id_key"))
	require.False(t, IsUniqueViolation(err, "categories_slug_key"))
}

func TestIsUniqueViolationSQLite(t *testing.T) {
	err := fmt.Errorf("UNIQUE constraint failed: categories.slug")

	require.True(t, IsUniqueViolation(err))
	require.True(t, IsUniqueViolation(err, "categories.slug"))
	require.False(t, IsUniqueViolation(err, "brands.slug"))
}

func TestIsUniqueViolationUnrelated(t *testing.T) {
	require.False(t, IsUniqueViolation(nil))
	require.False(t, IsUniqueViolation(fmt.Errorf("connection refused")))
}
