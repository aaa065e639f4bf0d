package database

import (
	"testing"

	"github.com/jackc/pgconn"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
)

func TestDuplicateKey(t *testing.T) {
	violation := &pgconn.PgError{Code: "23505", Message: "duplicate key value violates unique constraint"}

	err := wrapError(errors.Wrap(violation, "insert"))
	require.True(t, IsDuplicateKey(err))
	require.ErrorIs(t, err, violation)

	other := &pgconn.PgError{Code: "23503"}
	require.False(t, IsDuplicateKey(wrapError(other)))
	require.NoError(t, wrapError(nil))
}
