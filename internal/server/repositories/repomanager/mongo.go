package repomanager

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.mongodb.org/mongo-driver/v2/mongo/readpref"

	"github.com/truthmate/truthmate/internal/dbx"
	"github.com/truthmate/truthmate/internal/server/repositories/bookmarks"
	"github.com/truthmate/truthmate/internal/server/repositories/users"
	"github.com/truthmate/truthmate/internal/server/repositories/verifications"
)

// MongoRepositoryManager vends MongoDB-backed repositories sharing one client.
type MongoRepositoryManager struct {
	client        *mongo.Client
	users         *users.MongoRepository
	verifications *verifications.MongoRepository
	bookmarks     *bookmarks.MongoRepository
}

func (m *MongoRepositoryManager) Users() users.Repository {
	return m.users
}

func (m *MongoRepositoryManager) Verifications() verifications.Repository {
	return m.verifications
}

func (m *MongoRepositoryManager) Bookmarks() bookmarks.Repository {
	return m.bookmarks
}

func (m *MongoRepositoryManager) Ping(ctx context.Context) error {
	return dbx.ClassifyMongo(m.client.Ping(ctx, readpref.Primary()))
}

func (m *MongoRepositoryManager) Close(ctx context.Context) error {
	return m.client.Disconnect(ctx)
}

// EnsureIndexes creates the indexes of every collection.
func (m *MongoRepositoryManager) EnsureIndexes(ctx context.Context) error {
	for _, ensure := range []func(context.Context) error{
		m.users.EnsureIndexes,
		m.verifications.EnsureIndexes,
		m.bookmarks.EnsureIndexes,
	} {
		if err := ensure(ctx); err != nil {
			return err
		}
	}
	return nil
}

// NewMongoRepositoryManager wraps a connected client.
func NewMongoRepositoryManager(client *mongo.Client, database string) *MongoRepositoryManager {
	db := client.Database(database)
	return &MongoRepositoryManager{
		client:        client,
		users:         users.NewMongoRepository(db),
		verifications: verifications.NewMongoRepository(db),
		bookmarks:     bookmarks.NewMongoRepository(db),
	}
}

// OpenMongo connects to uri and creates indexes in database.
func OpenMongo(ctx context.Context, uri, database string) (*MongoRepositoryManager, error) {
	client, err := mongo.Connect(options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}

	m := NewMongoRepositoryManager(client, database)
	if err := m.EnsureIndexes(ctx); err != nil {
		_ = client.Disconnect(ctx)
		return nil, err
	}
	return m, nil
}
