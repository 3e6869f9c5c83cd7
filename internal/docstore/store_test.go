package docstore

import (
	"errors"
	"fmt"
	"testing"

	"github.com/LhacenMed/admin-dashboard/internal/domain"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

type sample struct {
	Name  string `bson:"name" json:"name"`
	Count int    `bson:"count" json:"count"`
}

func TestNewMongoStore(t *testing.T) {
	store := NewMongoStore(&mongo.Database{})
	assert.NotNil(t, store)
}

func TestNewPostgresStore(t *testing.T) {
	pool := &pgxpool.Pool{}
	store := NewPostgresStore(pool)
	assert.NotNil(t, store)
}

func TestSnapshot_Decode(t *testing.T) {
	snap := jsonSnapshot("a1", []byte(`{"name":"bus","count":3}`))

	var out sample
	require.NoError(t, snap.Decode(&out))
	assert.True(t, snap.Exists)
	assert.Equal(t, sample{Name: "bus", Count: 3}, out)
}

func TestSnapshot_DecodeMissingAndFailed(t *testing.T) {
	var out sample
	assert.Error(t, Missing("a1").Decode(&out))

	boom := errors.New("boom")
	assert.ErrorIs(t, Failed("a1", boom).Decode(&out), boom)
}

func TestWithID(t *testing.T) {
	body, err := withID("trip-1", sample{Name: "bus", Count: 2})
	require.NoError(t, err)
	assert.Equal(t, "trip-1", body["_id"])
	assert.Equal(t, "bus", body["name"])
}

func TestRawSnapshot(t *testing.T) {
	raw, err := bson.Marshal(bson.M{"_id": "c1", "name": "bus", "count": 4})
	require.NoError(t, err)

	snap := rawSnapshot(raw)
	var out sample
	require.NoError(t, snap.Decode(&out))
	assert.Equal(t, "c1", snap.ID)
	assert.Equal(t, 4, out.Count)
}

func TestJSONFilter(t *testing.T) {
	all, err := jsonFilter(nil)
	require.NoError(t, err)
	assert.JSONEq(t, `{}`, string(all))

	match, err := jsonFilter(Filter{"companyId": "c1"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"companyId":"c1"}`, string(match))
}

func TestIsUniqueViolation(t *testing.T) {
	assert.True(t, isUniqueViolation(fmt.Errorf("insert: %w", &pgconn.PgError{Code: "23505"})))
	assert.False(t, isUniqueViolation(&pgconn.PgError{Code: "23503"}))
	assert.False(t, isUniqueViolation(domain.ErrConflict))
}

func TestCheckIdentifier(t *testing.T) {
	assert.NoError(t, checkIdentifier("field", "companyId"))
	assert.Error(t, checkIdentifier("field", "body'; DROP TABLE documents;--"))
}
