package dbx

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"net"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/v2/mongo"

	"github.com/truthmate/truthmate/internal/common"
)

func TestClassify(t *testing.T) {
	plain := errors.New("syntax error at or near")

	tests := []struct {
		name        string
		err         error
		unavailable bool
	}{
		{"nil", nil, false},
		{"bad conn", driver.ErrBadConn, true},
		{"conn done", fmt.Errorf("query: %w", sql.ErrConnDone), true},
		{"deadline", context.DeadlineExceeded, true},
		{"net op error", &net.OpError{Op: "dial", Net: "tcp", Err: errors.New("connection refused")}, true},
		{"plain", plain, false},
		{"no rows", sql.ErrNoRows, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Classify(tt.err)
			if tt.err == nil {
				assert.NoError(t, got)
				return
			}
			assert.Equal(t, tt.unavailable, errors.Is(got, common.ErrStorageUnavailable))
			assert.ErrorIs(t, got, tt.err)
		})
	}
}

func TestIsUniqueViolation(t *testing.T) {
	assert.True(t, IsUniqueViolation(fmt.Errorf("insert: %w", &pgconn.PgError{Code: "23505"})))
	assert.False(t, IsUniqueViolation(&pgconn.PgError{Code: "23503"}))
	assert.False(t, IsUniqueViolation(errors.New("x")))
}

func TestClassifyMongo(t *testing.T) {
	assert.NoError(t, ClassifyMongo(nil))
	assert.ErrorIs(t, ClassifyMongo(mongo.ErrNoDocuments), common.ErrorNotFound)
	assert.ErrorIs(t, ClassifyMongo(mongo.ErrClientDisconnected), common.ErrStorageUnavailable)
	assert.ErrorIs(t, ClassifyMongo(context.DeadlineExceeded), common.ErrStorageUnavailable)

	dup := mongo.WriteException{WriteErrors: []mongo.WriteError{{Code: 11000, Message: "E11000 duplicate key"}}}
	assert.ErrorIs(t, ClassifyMongo(dup), common.ErrorConflict)

	other := errors.New("bad filter")
	assert.Equal(t, other, ClassifyMongo(other))
}
