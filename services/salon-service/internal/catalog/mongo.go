package catalog

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

const Collection = "services"

type serviceDoc struct {
	ID              string    `bson:"_id"`
	Name            string    `bson:"name"`
	Description     string    `bson:"description"`
	Price           float64   `bson:"price"`
	DurationMinutes int       `bson:"duration"`
	Category        string    `bson:"category"`
	Image           string    `bson:"image,omitempty"`
	CreatedAt       time.Time `bson:"createdAt"`
	UpdatedAt       time.Time `bson:"updatedAt"`
}

type MongoStore struct {
	coll *mongo.Collection
}

func NewMongoStore(db *mongo.Database) *MongoStore {
	return &MongoStore{coll: db.Collection(Collection)}
}

func (s *MongoStore) EnsureIndexes(ctx context.Context) error {
	_, err := s.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "category", Value: 1}, {Key: "name", Value: 1}},
		Options: options.Index().SetName("services_category_name"),
	})
	return err
}

func (s *MongoStore) List(ctx context.Context, category model.Category) ([]model.Service, error) {
	filter := bson.M{}
	if category != "" {
		filter["category"] = string(category)
	}
	cur, err := s.coll.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "category", Value: 1}, {Key: "name", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("list services: %w", err)
	}
	var docs []serviceDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode services: %w", err)
	}
	out := make([]model.Service, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.toModel())
	}
	return out, nil
}

func (s *MongoStore) Get(ctx context.Context, id string) (model.Service, error) {
	var doc serviceDoc
	if err := s.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&doc); err != nil {
		if mongox.IsNoDocuments(err) {
			return model.Service{}, model.ErrNotFound
		}
		return model.Service{}, fmt.Errorf("get service: %w", err)
	}
	return doc.toModel(), nil
}

func (s *MongoStore) Create(ctx context.Context, svc model.Service) (model.Service, error) {
	now := time.Now().UTC()
	svc.ID = uuid.NewString()
	svc.CreatedAt, svc.UpdatedAt = now, now
	if _, err := s.coll.InsertOne(ctx, fromModel(svc)); err != nil {
		return model.Service{}, fmt.Errorf("insert service: %w", err)
	}
	return svc, nil
}

func (s *MongoStore) Update(ctx context.Context, id string, svc model.Service) (model.Service, error) {
	update := bson.M{"$set": bson.M{
		"name":        svc.Name,
		"description": svc.Description,
		"price":       svc.Price,
		"duration":    svc.DurationMinutes,
		"category":    string(svc.Category),
		"image":       svc.Image,
		"updatedAt":   time.Now().UTC(),
	}}
	var doc serviceDoc
	err := s.coll.FindOneAndUpdate(ctx, bson.M{"_id": id}, update,
		options.FindOneAndUpdate().SetReturnDocument(options.After)).Decode(&doc)
	if err != nil {
		if mongox.IsNoDocuments(err) {
			return model.Service{}, model.ErrNotFound
		}
		return model.Service{}, fmt.Errorf("update service: %w", err)
	}
	return doc.toModel(), nil
}

func (s *MongoStore) Delete(ctx context.Context, id string) error {
	res, err := s.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("delete service: %w", err)
	}
	if res.DeletedCount == 0 {
		return model.ErrNotFound
	}
	return nil
}

func fromModel(s model.Service) serviceDoc {
	return serviceDoc{
		ID:              s.ID,
		Name:            s.Name,
		Description:     s.Description,
		Price:           s.Price,
		DurationMinutes: s.DurationMinutes,
		Category:        string(s.Category),
		Image:           s.Image,
		CreatedAt:       s.CreatedAt,
		UpdatedAt:       s.UpdatedAt,
	}
}

func (d serviceDoc) toModel() model.Service {
	return model.Service{
		ID:              d.ID,
		Name:            d.Name,
		Description:     d.Description,
		Price:           d.Price,
		DurationMinutes: d.DurationMinutes,
		Category:        model.Category(d.Category),
		Image:           d.Image,
		CreatedAt:       d.CreatedAt,
		UpdatedAt:       d.UpdatedAt,
	}
}
