package slotboard

import (
	"context"
	"fmt"
	"time"

	"github.com/md-rashed-zaman/salonbook/libs/mongox"
	"github.com/md-rashed-zaman/salonbook/services/salon-service/internal/model"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const Collection = "slotboards"

type boardDoc struct {
	ID        string    `bson:"_id"`
	Date      time.Time `bson:"date"`
	Slots     []slotDoc `bson:"slots"`
	CreatedAt time.Time `bson:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt"`
}

type slotDoc struct {
	Time      string `bson:"time"`
	Available bool   `bson:"available"`
	BookingID string `bson:"bookingId,omitempty"`
}

// MongoStore keeps one document per day, keyed by the YYYY-MM-DD string.
type MongoStore struct {
	coll *mongo.Collection
}

func NewMongoStore(db *mongo.Database) *MongoStore {
	return &MongoStore{coll: db.Collection(Collection)}
}

func (s *MongoStore) Get(ctx context.Context, day time.Time) (model.SlotBoard, error) {
	var doc boardDoc
	err := s.coll.FindOne(ctx, bson.M{"_id": model.FormatDay(day)}).Decode(&doc)
	if err != nil {
		if mongox.IsNoDocuments(err) {
			return model.SlotBoard{}, model.ErrNotFound
		}
		return model.SlotBoard{}, fmt.Errorf("get slot board: %w", err)
	}
	return doc.toModel(), nil
}

func (s *MongoStore) GetOrCreate(ctx context.Context, day time.Time, gen Generator) (model.SlotBoard, bool, error) {
	now := time.Now().UTC()
	res, err := s.coll.UpdateOne(ctx,
		bson.M{"_id": model.FormatDay(day)},
		bson.M{"$setOnInsert": bson.M{
			"date":      day,
			"slots":     toSlotDocs(gen(day)),
			"createdAt": now,
			"updatedAt": now,
		}},
		options.Update().SetUpsert(true),
	)
	// Two concurrent first reads race on the upsert; the loser sees E11000 and reads the winner's board.
	if err != nil && !mongox.IsDuplicateKey(err) {
		return model.SlotBoard{}, false, fmt.Errorf("materialize slot board: %w", err)
	}
	created := err == nil && res.UpsertedCount == 1

	board, err := s.Get(ctx, day)
	if err != nil {
		return model.SlotBoard{}, false, err
	}
	return board, created, nil
}

func (s *MongoStore) MarkUnavailable(ctx context.Context, day time.Time, slotTime, bookingID string) error {
	return s.updateSlot(ctx, day, slotTime, bson.M{
		"$set": bson.M{"slots.$.available": false, "slots.$.bookingId": bookingID, "updatedAt": time.Now().UTC()},
	})
}

func (s *MongoStore) MarkAvailable(ctx context.Context, day time.Time, slotTime, bookingID string) error {
	update := bson.M{
		"$set":   bson.M{"slots.$.available": true, "updatedAt": time.Now().UTC()},
		"$unset": bson.M{"slots.$.bookingId": ""},
	}
	if bookingID == "" {
		return s.updateSlot(ctx, day, slotTime, update)
	}

	key := model.FormatDay(day)
	res, err := s.coll.UpdateOne(ctx, bson.M{
		"_id":   key,
		"slots": bson.M{"$elemMatch": bson.M{
			"time": slotTime,
			"$or":  bson.A{bson.M{"bookingId": bookingID}, bson.M{"available": true}},
		}},
	}, update)
	if err != nil {
		return fmt.Errorf("release slot %s %s: %w", key, slotTime, err)
	}
	if res.MatchedCount > 0 {
		return nil
	}
	n, err := s.coll.CountDocuments(ctx, bson.M{"_id": key, "slots.time": slotTime})
	if err != nil {
		return fmt.Errorf("release slot %s %s: %w", key, slotTime, err)
	}
	if n == 0 {
		return ErrNoSlot
	}
	return ErrHeldByOther
}

func (s *MongoStore) BlockManually(ctx context.Context, day time.Time, slotTime string) error {
	return s.updateSlot(ctx, day, slotTime, bson.M{
		"$set":   bson.M{"slots.$.available": false, "updatedAt": time.Now().UTC()},
		"$unset": bson.M{"slots.$.bookingId": ""},
	})
}

func (s *MongoStore) Replace(ctx context.Context, board model.SlotBoard) error {
	now := time.Now().UTC()
	key := model.FormatDay(board.Date)
	_, err := s.coll.UpdateOne(ctx,
		bson.M{"_id": key},
		bson.M{
			"$set":         bson.M{"date": board.Date, "slots": toSlotDocs(board.Slots), "updatedAt": now},
			"$setOnInsert": bson.M{"createdAt": now},
		},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		return fmt.Errorf("replace slot board %s: %w", key, err)
	}
	return nil
}

// EnsureIndexes creates the secondary index used by date range scans.
func (s *MongoStore) EnsureIndexes(ctx context.Context) error {
	_, err := s.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "date", Value: 1}},
		Options: options.Index().SetName("slotboards_date"),
	})
	return err
}

func (s *MongoStore) updateSlot(ctx context.Context, day time.Time, slotTime string, update bson.M) error {
	res, err := s.coll.UpdateOne(ctx, bson.M{"_id": model.FormatDay(day), "slots.time": slotTime}, update)
	if err != nil {
		return fmt.Errorf("update slot %s %s: %w", model.FormatDay(day), slotTime, err)
	}
	if res.MatchedCount == 0 {
		return ErrNoSlot
	}
	return nil
}

func (d boardDoc) toModel() model.SlotBoard {
	slots := make([]model.Slot, 0, len(d.Slots))
	for _, s := range d.Slots {
		slots = append(slots, model.Slot{Time: s.Time, Available: s.Available, BookingID: s.BookingID})
	}
	return model.SlotBoard{Date: d.Date.UTC(), Slots: slots, CreatedAt: d.CreatedAt, UpdatedAt: d.UpdatedAt}
}

func toSlotDocs(slots []model.Slot) []slotDoc {
	docs := make([]slotDoc, 0, len(slots))
	for _, s := range slots {
		docs = append(docs, slotDoc{Time: s.Time, Available: s.Available, BookingID: s.BookingID})
	}
	return docs
}
