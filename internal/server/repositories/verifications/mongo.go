package verifications

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/truthmate/truthmate/internal/common"
	"github.com/truthmate/truthmate/internal/dbx"
	"github.com/truthmate/truthmate/internal/server/models"
)

const CollectionName = "verifications"

type verificationDocument struct {
	ID                bson.ObjectID     `bson:"_id,omitempty"`
	UserID            string            `bson:"userId"`
	Claim             string            `bson:"claim"`
	ClaimType         string            `bson:"claimType"`
	Verdict           string            `bson:"verdict"`
	Confidence        int               `bson:"confidence"`
	Explanation       string            `bson:"explanation"`
	SourceCredibility int               `bson:"sourceCredibility"`
	HarmIndex         string            `bson:"harmIndex"`
	Evidence          []models.Evidence `bson:"evidence"`
	IsPublic          bool              `bson:"isPublic"`
	Views             int64             `bson:"views"`
	Bookmarks         []string          `bson:"bookmarks"`
	Flags             []models.Flag     `bson:"flags"`
	Category          string            `bson:"category"`
	Metadata          models.Metadata   `bson:"metadata"`
	CreatedAt         time.Time         `bson:"createdAt"`
	UpdatedAt         time.Time         `bson:"updatedAt"`
}

func newDocument(v *models.Verification) verificationDocument {
	return verificationDocument{
		ID:                bson.NewObjectID(),
		UserID:            v.UserID,
		Claim:             v.Claim,
		ClaimType:         string(v.ClaimType),
		Verdict:           string(v.Verdict),
		Confidence:        v.Confidence,
		Explanation:       v.Explanation,
		SourceCredibility: v.SourceCredibility,
		HarmIndex:         string(v.HarmIndex),
		Evidence:          nonNil(v.Evidence),
		IsPublic:          v.IsPublic,
		Views:             v.Views,
		Bookmarks:         nonNil(v.Bookmarks),
		Flags:             nonNil(v.Flags),
		Category:          string(v.Category),
		Metadata:          v.Metadata,
		CreatedAt:         v.CreatedAt,
		UpdatedAt:         v.UpdatedAt,
	}
}

func (d *verificationDocument) toModel() *models.Verification {
	return &models.Verification{
		ID:                d.ID.Hex(),
		UserID:            d.UserID,
		Claim:             d.Claim,
		ClaimType:         models.ClaimType(d.ClaimType),
		Verdict:           models.Verdict(d.Verdict),
		Confidence:        d.Confidence,
		Explanation:       d.Explanation,
		SourceCredibility: d.SourceCredibility,
		HarmIndex:         models.HarmIndex(d.HarmIndex),
		Evidence:          d.Evidence,
		IsPublic:          d.IsPublic,
		Views:             d.Views,
		Bookmarks:         d.Bookmarks,
		Flags:             d.Flags,
		Category:          models.Category(d.Category),
		Metadata:          d.Metadata,
		CreatedAt:         d.CreatedAt,
		UpdatedAt:         d.UpdatedAt,
	}
}

func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}

type MongoRepository struct {
	coll *mongo.Collection
}

func NewMongoRepository(db *mongo.Database) *MongoRepository {
	return &MongoRepository{coll: db.Collection(CollectionName)}
}

// EnsureIndexes creates the indexes backing history, explore and dedup
// queries.
func (r *MongoRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "userId", Value: 1}, {Key: "createdAt", Value: -1}}},
		{Keys: bson.D{{Key: "isPublic", Value: 1}, {Key: "createdAt", Value: -1}}},
		{Keys: bson.D{{Key: "isPublic", Value: 1}, {Key: "views", Value: -1}}},
		{Keys: bson.D{{Key: "userId", Value: 1}, {Key: "claim", Value: 1}, {Key: "createdAt", Value: -1}}},
	})
	if err != nil {
		return fmt.Errorf("create verifications indexes: %w", dbx.ClassifyMongo(err))
	}
	return nil
}

func (r *MongoRepository) Create(ctx context.Context, v *models.Verification) (*models.Verification, error) {
	if v.CreatedAt.IsZero() {
		v.CreatedAt = time.Now().UTC()
	}
	v.CreatedAt = v.CreatedAt.Truncate(time.Millisecond)
	v.UpdatedAt = v.CreatedAt

	doc := newDocument(v)
	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		return nil, dbx.ClassifyMongo(err)
	}
	return doc.toModel(), nil
}

func (r *MongoRepository) GetByID(ctx context.Context, id string) (*models.Verification, error) {
	oid, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return nil, common.ErrorNotFound
	}
	return r.findOne(ctx, bson.D{{Key: "_id", Value: oid}}, nil)
}

func (r *MongoRepository) FindRecentDuplicate(ctx context.Context, userID, claim string, since time.Time) (*models.Verification, error) {
	filter := bson.D{
		{Key: "userId", Value: userID},
		{Key: "claim", Value: claim},
		{Key: "createdAt", Value: bson.D{{Key: "$gte", Value: since}}},
	}
	return r.findOne(ctx, filter, options.FindOne().SetSort(bson.D{{Key: "createdAt", Value: -1}}))
}

func (r *MongoRepository) IncrementViews(ctx context.Context, id string) (int64, error) {
	oid, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return 0, common.ErrorNotFound
	}

	opts := options.FindOneAndUpdate().
		SetReturnDocument(options.After).
		SetProjection(bson.D{{Key: "views", Value: 1}})
	var out struct {
		Views int64 `bson:"views"`
	}
	err = r.coll.FindOneAndUpdate(ctx,
		bson.D{{Key: "_id", Value: oid}},
		bson.D{{Key: "$inc", Value: bson.D{{Key: "views", Value: 1}}}},
		opts,
	).Decode(&out)
	if err != nil {
		return 0, dbx.ClassifyMongo(err)
	}
	return out.Views, nil
}

func (r *MongoRepository) ListByUser(ctx context.Context, userID string, filter models.VerificationFilter, limit, offset int) ([]*models.Verification, error) {
	f := withFilter(bson.D{{Key: "userId", Value: userID}}, filter, true)
	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}}).
		SetLimit(int64(limit)).
		SetSkip(int64(offset))
	return r.find(ctx, f, opts)
}

func (r *MongoRepository) CountByUser(ctx context.Context, userID string, filter models.VerificationFilter) (int64, error) {
	f := withFilter(bson.D{{Key: "userId", Value: userID}}, filter, true)
	n, err := r.coll.CountDocuments(ctx, f)
	return n, dbx.ClassifyMongo(err)
}

func (r *MongoRepository) ListPublic(ctx context.Context, filter models.VerificationFilter, sort models.SortOrder, limit, offset int) ([]*models.Verification, error) {
	f := withFilter(bson.D{{Key: "isPublic", Value: true}}, filter, false)

	order := bson.D{{Key: "createdAt", Value: -1}}
	if sort == models.SortTrending {
		order = bson.D{{Key: "views", Value: -1}, {Key: "createdAt", Value: -1}}
	}

	opts := options.Find().SetSort(order).SetLimit(int64(limit)).SetSkip(int64(offset))
	return r.find(ctx, f, opts)
}

func (r *MongoRepository) CountPublic(ctx context.Context, filter models.VerificationFilter) (int64, error) {
	f := withFilter(bson.D{{Key: "isPublic", Value: true}}, filter, false)
	n, err := r.coll.CountDocuments(ctx, f)
	return n, dbx.ClassifyMongo(err)
}

func (r *MongoRepository) Stats(ctx context.Context, since time.Time) (models.ExploreStats, error) {
	var (
		s     models.ExploreStats
		err   error
		today = bson.D{{Key: "createdAt", Value: bson.D{{Key: "$gte", Value: since}}}}
	)

	if s.TotalVerifications, err = r.coll.CountDocuments(ctx, bson.D{{Key: "isPublic", Value: true}}); err != nil {
		return models.ExploreStats{}, dbx.ClassifyMongo(err)
	}
	if s.TodayVerifications, err = r.coll.CountDocuments(ctx, today); err != nil {
		return models.ExploreStats{}, dbx.ClassifyMongo(err)
	}

	fake := append(bson.D{}, today...)
	fake = append(fake, bson.E{Key: "verdict", Value: bson.D{{Key: "$in", Value: bson.A{"false", "misleading"}}}})
	if s.FakeNewsToday, err = r.coll.CountDocuments(ctx, fake); err != nil {
		return models.ExploreStats{}, dbx.ClassifyMongo(err)
	}

	var users []string
	if err := r.coll.Distinct(ctx, "userId", today).Decode(&users); err != nil {
		return models.ExploreStats{}, dbx.ClassifyMongo(err)
	}
	s.ActiveUsersToday = int64(len(users))

	return s, nil
}

func (r *MongoRepository) UserStats(ctx context.Context, userID string, since time.Time) (models.HistoryStats, error) {
	var (
		s   models.HistoryStats
		err error
	)
	if s.Total, err = r.coll.CountDocuments(ctx, bson.D{{Key: "userId", Value: userID}}); err != nil {
		return models.HistoryStats{}, dbx.ClassifyMongo(err)
	}
	s.Today, err = r.coll.CountDocuments(ctx, bson.D{
		{Key: "userId", Value: userID},
		{Key: "createdAt", Value: bson.D{{Key: "$gte", Value: since}}},
	})
	if err != nil {
		return models.HistoryStats{}, dbx.ClassifyMongo(err)
	}
	return s, nil
}

func (r *MongoRepository) AddBookmark(ctx context.Context, id, userID string) error {
	return r.updateByID(ctx, id, bson.D{
		{Key: "$addToSet", Value: bson.D{{Key: "bookmarks", Value: userID}}},
		{Key: "$set", Value: bson.D{{Key: "updatedAt", Value: time.Now().UTC()}}},
	}, false)
}

func (r *MongoRepository) RemoveBookmark(ctx context.Context, id, userID string) error {
	return r.updateByID(ctx, id, bson.D{
		{Key: "$pull", Value: bson.D{{Key: "bookmarks", Value: userID}}},
		{Key: "$set", Value: bson.D{{Key: "updatedAt", Value: time.Now().UTC()}}},
	}, false)
}

func (r *MongoRepository) GetSummaries(ctx context.Context, ids []string) (map[string]models.VerificationSummary, error) {
	out := make(map[string]models.VerificationSummary, len(ids))

	oids := make(bson.A, 0, len(ids))
	for _, id := range ids {
		if oid, err := bson.ObjectIDFromHex(id); err == nil {
			oids = append(oids, oid)
		}
	}
	if len(oids) == 0 {
		return out, nil
	}

	projection := bson.D{
		{Key: "claim", Value: 1}, {Key: "verdict", Value: 1}, {Key: "confidence", Value: 1},
		{Key: "category", Value: 1}, {Key: "createdAt", Value: 1}, {Key: "views", Value: 1},
	}
	docs, err := r.find(ctx, bson.D{{Key: "_id", Value: bson.D{{Key: "$in", Value: oids}}}},
		options.Find().SetProjection(projection))
	if err != nil {
		return nil, err
	}

	for _, v := range docs {
		out[v.ID] = models.VerificationSummary{
			ID:         v.ID,
			Claim:      v.Claim,
			Verdict:    v.Verdict,
			Confidence: v.Confidence,
			Category:   v.Category,
			CreatedAt:  v.CreatedAt,
			Views:      v.Views,
		}
	}
	return out, nil
}

func (r *MongoRepository) findOne(ctx context.Context, filter bson.D, opts *options.FindOneOptionsBuilder) (*models.Verification, error) {
	var doc verificationDocument
	var res *mongo.SingleResult
	if opts != nil {
		res = r.coll.FindOne(ctx, filter, opts)
	} else {
		res = r.coll.FindOne(ctx, filter)
	}
	if err := res.Decode(&doc); err != nil {
		return nil, dbx.ClassifyMongo(err)
	}
	return doc.toModel(), nil
}

func (r *MongoRepository) find(ctx context.Context, filter bson.D, opts *options.FindOptionsBuilder) ([]*models.Verification, error) {
	cur, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, dbx.ClassifyMongo(err)
	}

	var docs []verificationDocument
	if err := cur.All(ctx, &docs); err != nil {
		return nil, dbx.ClassifyMongo(err)
	}

	out := make([]*models.Verification, 0, len(docs))
	for i := range docs {
		out = append(out, docs[i].toModel())
	}
	return out, nil
}

func (r *MongoRepository) updateByID(ctx context.Context, id string, update bson.D, mustMatch bool) error {
	oid, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return common.ErrorNotFound
	}

	res, err := r.coll.UpdateOne(ctx, bson.D{{Key: "_id", Value: oid}}, update)
	if err != nil {
		return dbx.ClassifyMongo(err)
	}
	if mustMatch && res.MatchedCount == 0 {
		return common.ErrorNotFound
	}
	return nil
}

func withFilter(base bson.D, f models.VerificationFilter, withVerdict bool) bson.D {
	if f.Category != "" {
		base = append(base, bson.E{Key: "category", Value: string(f.Category)})
	}
	if withVerdict && f.Verdict != "" {
		base = append(base, bson.E{Key: "verdict", Value: string(f.Verdict)})
	}
	if f.Search != "" {
		base = append(base, bson.E{Key: "claim", Value: bson.Regex{
			Pattern: regexp.QuoteMeta(f.Search),
			Options: "i",
		}})
	}
	return base
}
