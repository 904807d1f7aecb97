package bookmarks

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/truthmate/truthmate/internal/common"
	"github.com/truthmate/truthmate/internal/dbx"
	"github.com/truthmate/truthmate/internal/server/models"
)

const CollectionName = "bookmarks"

type bookmarkDocument struct {
	ID             bson.ObjectID `bson:"_id,omitempty"`
	UserID         string        `bson:"userId"`
	VerificationID string        `bson:"verificationId"`
	Notes          string        `bson:"notes"`
	Tags           []string      `bson:"tags"`
	CreatedAt      time.Time     `bson:"createdAt"`
}

func (d *bookmarkDocument) toModel() *models.Bookmark {
	tags := d.Tags
	if tags == nil {
		tags = []string{}
	}
	return &models.Bookmark{
		ID:             d.ID.Hex(),
		UserID:         d.UserID,
		VerificationID: d.VerificationID,
		Notes:          d.Notes,
		Tags:           tags,
		CreatedAt:      d.CreatedAt,
	}
}

type MongoRepository struct {
	coll *mongo.Collection
}

func NewMongoRepository(db *mongo.Database) *MongoRepository {
	return &MongoRepository{coll: db.Collection(CollectionName)}
}

// EnsureIndexes creates the lookup indexes. The (userId, verificationId)
// index is intentionally not unique.
func (r *MongoRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "userId", Value: 1}, {Key: "verificationId", Value: 1}}},
		{Keys: bson.D{{Key: "userId", Value: 1}, {Key: "createdAt", Value: -1}}},
	})
	if err != nil {
		return fmt.Errorf("create bookmarks indexes: %w", dbx.ClassifyMongo(err))
	}
	return nil
}

func (r *MongoRepository) Create(ctx context.Context, b *models.Bookmark) (*models.Bookmark, error) {
	if b.CreatedAt.IsZero() {
		b.CreatedAt = time.Now().UTC()
	}
	tags := b.Tags
	if tags == nil {
		tags = []string{}
	}

	doc := bookmarkDocument{
		ID:             bson.NewObjectID(),
		UserID:         b.UserID,
		VerificationID: b.VerificationID,
		Notes:          b.Notes,
		Tags:           tags,
		CreatedAt:      b.CreatedAt.Truncate(time.Millisecond),
	}
	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		return nil, dbx.ClassifyMongo(err)
	}
	return doc.toModel(), nil
}

func (r *MongoRepository) GetByID(ctx context.Context, id string) (*models.Bookmark, error) {
	oid, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return nil, common.ErrorNotFound
	}
	return r.findOne(ctx, bson.D{{Key: "_id", Value: oid}})
}

func (r *MongoRepository) FindByUserAndVerification(ctx context.Context, userID, verificationID string) (*models.Bookmark, error) {
	return r.findOne(ctx, bson.D{
		{Key: "userId", Value: userID},
		{Key: "verificationId", Value: verificationID},
	})
}

func (r *MongoRepository) Delete(ctx context.Context, id string) error {
	oid, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return common.ErrorNotFound
	}
	res, err := r.coll.DeleteOne(ctx, bson.D{{Key: "_id", Value: oid}})
	if err != nil {
		return dbx.ClassifyMongo(err)
	}
	if res.DeletedCount == 0 {
		return common.ErrorNotFound
	}
	return nil
}

func (r *MongoRepository) ListByUser(ctx context.Context, userID string, limit, offset int) ([]*models.Bookmark, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}}).
		SetLimit(int64(limit)).
		SetSkip(int64(offset))

	cur, err := r.coll.Find(ctx, bson.D{{Key: "userId", Value: userID}}, opts)
	if err != nil {
		return nil, dbx.ClassifyMongo(err)
	}

	var docs []bookmarkDocument
	if err := cur.All(ctx, &docs); err != nil {
		return nil, dbx.ClassifyMongo(err)
	}

	out := make([]*models.Bookmark, 0, len(docs))
	for i := range docs {
		out = append(out, docs[i].toModel())
	}
	return out, nil
}

func (r *MongoRepository) BookmarkedAmong(ctx context.Context, userID string, verificationIDs []string) (map[string]bool, error) {
	out := make(map[string]bool)

	// Stored ids are lowercase hex; the result keeps the caller's spelling.
	spellings := make(map[string][]string, len(verificationIDs))
	canonical := make([]string, 0, len(verificationIDs))
	for _, id := range verificationIDs {
		oid, err := bson.ObjectIDFromHex(id)
		if err != nil {
			continue
		}
		hex := oid.Hex()
		if _, seen := spellings[hex]; !seen {
			canonical = append(canonical, hex)
		}
		spellings[hex] = append(spellings[hex], id)
	}
	if len(canonical) == 0 {
		return out, nil
	}

	var ids []string
	err := r.coll.Distinct(ctx, "verificationId", bson.D{
		{Key: "userId", Value: userID},
		{Key: "verificationId", Value: bson.D{{Key: "$in", Value: canonical}}},
	}).Decode(&ids)
	if err != nil {
		return nil, dbx.ClassifyMongo(err)
	}

	for _, id := range ids {
		for _, spelled := range spellings[id] {
			out[spelled] = true
		}
	}
	return out, nil
}

func (r *MongoRepository) findOne(ctx context.Context, filter bson.D) (*models.Bookmark, error) {
	var doc bookmarkDocument
	if err := r.coll.FindOne(ctx, filter).Decode(&doc); err != nil {
		return nil, dbx.ClassifyMongo(err)
	}
	return doc.toModel(), nil
}
