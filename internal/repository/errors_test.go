package repository

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
)

func TestDuplicateKey(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		wantIndex string
		wantOK    bool
	}{
		{name: "unique violation", err: &pgconn.PgError{Code: "23505", ConstraintName: UsersEmailIndex}, wantIndex: UsersEmailIndex, wantOK: true},
		{name: "wrapped", err: fmt.Errorf("create user: %w", &pgconn.PgError{Code: "23505", ConstraintName: GenresNameIndex}), wantIndex: GenresNameIndex, wantOK: true},
		{name: "other postgres error", err: &pgconn.PgError{Code: "23503", ConstraintName: "fk_reservations_user"}},
		{name: "plain error", err: errors.New("connection reset")},
		{name: "nil", err: nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			index, ok := DuplicateKey(tt.err)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.wantIndex, index)
		})
	}
}
