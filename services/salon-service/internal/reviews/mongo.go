package reviews

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/md-rashed-zaman/salonbook/libs/mongox"
	"github.com/md-rashed-zaman/salonbook/services/salon-service/internal/model"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const Collection = "reviews"

type reviewDoc struct {
	ID        string    `bson:"_id"`
	Name      string    `bson:"name"`
	Rating    int       `bson:"rating"`
	Comment   string    `bson:"comment"`
	Service   string    `bson:"service"`
	Approved  bool      `bson:"isApproved"`
	CreatedAt time.Time `bson:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt"`
}

type MongoStore struct {
	coll *mongo.Collection
}

func NewMongoStore(db *mongo.Database) *MongoStore {
	return &MongoStore{coll: db.Collection(Collection)}
}

func (s *MongoStore) EnsureIndexes(ctx context.Context) error {
	_, err := s.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "isApproved", Value: 1}, {Key: "createdAt", Value: -1}},
		Options: options.Index().SetName("reviews_approved_created"),
	})
	return err
}

func (s *MongoStore) List(ctx context.Context, approvedOnly bool) ([]model.Review, error) {
	filter := bson.M{}
	if approvedOnly {
		filter["isApproved"] = true
	}
	cur, err := s.coll.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}))
	if err != nil {
		return nil, fmt.Errorf("list reviews: %w", err)
	}
	var docs []reviewDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode reviews: %w", err)
	}
	out := make([]model.Review, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.toModel())
	}
	return out, nil
}

func (s *MongoStore) Create(ctx context.Context, r model.Review) (model.Review, error) {
	now := time.Now().UTC()
	r.ID = uuid.NewString()
	r.Approved = false
	r.CreatedAt, r.UpdatedAt = now, now
	doc := reviewDoc{
		ID:        r.ID,
		Name:      r.Name,
		Rating:    r.Rating,
		Comment:   r.Comment,
		Service:   r.Service,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
	if _, err := s.coll.InsertOne(ctx, doc); err != nil {
		return model.Review{}, fmt.Errorf("insert review: %w", err)
	}
	return r, nil
}

func (s *MongoStore) SetApproved(ctx context.Context, id string, approved bool) (model.Review, error) {
	var doc reviewDoc
	err := s.coll.FindOneAndUpdate(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{"isApproved": approved, "updatedAt": time.Now().UTC()}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&doc)
	if err != nil {
		if mongox.IsNoDocuments(err) {
			return model.Review{}, model.ErrNotFound
		}
		return model.Review{}, fmt.Errorf("approve review: %w", err)
	}
	return doc.toModel(), nil
}

func (s *MongoStore) Delete(ctx context.Context, id string) error {
	res, err := s.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("delete review: %w", err)
	}
	if res.DeletedCount == 0 {
		return model.ErrNotFound
	}
	return nil
}

func (d reviewDoc) toModel() model.Review {
	return model.Review{
		ID:        d.ID,
		Name:      d.Name,
		Rating:    d.Rating,
		Comment:   d.Comment,
		Service:   d.Service,
		Approved:  d.Approved,
		CreatedAt: d.CreatedAt,
		UpdatedAt: d.UpdatedAt,
	}
}
