package ledger

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"github.com/google/uuid"
	"github.com/md-rashed-zaman/salonbook/libs/mongox"
	"github.com/md-rashed-zaman/salonbook/services/salon-service/internal/model"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const Collection = "bookings"

// bookingDoc is the stored shape. ActiveSlot ("2026-01-28 14:00") is present
// only while the booking is not cancelled; a unique partial index on it is
// what makes double-booking impossible.
type bookingDoc struct {
	ID         string    `bson:"_id"`
	Name       string    `bson:"name"`
	Phone      string    `bson:"phone"`
	Email      string    `bson:"email,omitempty"`
	Service    string    `bson:"service"`
	ServiceID  string    `bson:"serviceId,omitempty"`
	Date       time.Time `bson:"date"`
	Time       string    `bson:"time"`
	TimeSlot   string    `bson:"timeSlot"`
	Status     string    `bson:"status"`
	Notes      string    `bson:"notes,omitempty"`
	UserID     string    `bson:"userId,omitempty"`
	ActiveSlot string    `bson:"activeSlot,omitempty"`
	CreatedAt  time.Time `bson:"createdAt"`
	UpdatedAt  time.Time `bson:"updatedAt"`
}

type MongoStore struct {
	coll *mongo.Collection
}

func NewMongoStore(db *mongo.Database) *MongoStore {
	return &MongoStore{coll: db.Collection(Collection)}
}

// EnsureIndexes creates the uniqueness guard and the listing indexes.
func (s *MongoStore) EnsureIndexes(ctx context.Context) error {
	_, err := s.coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "activeSlot", Value: 1}},
			Options: options.Index().
				SetName("bookings_active_slot_unique").
				SetUnique(true).
				SetPartialFilterExpression(bson.M{"activeSlot": bson.M{"$exists": true}}),
		},
		{
			Keys:    bson.D{{Key: "date", Value: 1}, {Key: "status", Value: 1}},
			Options: options.Index().SetName("bookings_date_status"),
		},
		{
			Keys:    bson.D{{Key: "createdAt", Value: -1}},
			Options: options.Index().SetName("bookings_created_at"),
		},
	})
	return err
}

func (s *MongoStore) FindConflict(ctx context.Context, day time.Time, effectiveTime string) (model.Booking, bool, error) {
	var doc bookingDoc
	err := s.coll.FindOne(ctx, bson.M{"activeSlot": model.SlotKey(day, effectiveTime)}).Decode(&doc)
	if err != nil {
		if mongox.IsNoDocuments(err) {
			return model.Booking{}, false, nil
		}
		return model.Booking{}, false, fmt.Errorf("find conflict: %w", err)
	}
	return doc.toModel(), true, nil
}

func (s *MongoStore) Insert(ctx context.Context, b model.Booking) (model.Booking, error) {
	b = prepareInsert(b, uuid.NewString(), time.Now().UTC())
	if _, err := s.coll.InsertOne(ctx, fromModel(b)); err != nil {
		if mongox.IsDuplicateKey(err) {
			return model.Booking{}, model.ErrConflict
		}
		return model.Booking{}, fmt.Errorf("insert booking: %w", err)
	}
	return b, nil
}

func (s *MongoStore) Get(ctx context.Context, id string) (model.Booking, error) {
	var doc bookingDoc
	if err := s.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&doc); err != nil {
		if mongox.IsNoDocuments(err) {
			return model.Booking{}, model.ErrNotFound
		}
		return model.Booking{}, fmt.Errorf("get booking: %w", err)
	}
	return doc.toModel(), nil
}

// UpdateStatus is a compare-and-swap on the current status so the returned
// previous status is exact even under concurrent updates.
func (s *MongoStore) UpdateStatus(ctx context.Context, id string, status model.Status, notes *string) (model.Booking, model.Status, error) {
	const attempts = 3
	for i := 0; i < attempts; i++ {
		current, err := s.Get(ctx, id)
		if err != nil {
			return model.Booking{}, "", err
		}

		next := current
		next.Status = status
		if notes != nil {
			next.Notes = *notes
		}
		next.Normalize()
		next.UpdatedAt = time.Now().UTC()

		set := bson.M{
			"status":    string(next.Status),
			"notes":     next.Notes,
			"time":      next.Time,
			"timeSlot":  next.TimeSlot,
			"updatedAt": next.UpdatedAt,
		}
		update := bson.M{"$set": set}
		if next.Active() {
			set["activeSlot"] = model.SlotKey(next.Date, next.EffectiveTime())
		} else {
			update["$unset"] = bson.M{"activeSlot": ""}
		}

		res, err := s.coll.UpdateOne(ctx, bson.M{"_id": id, "status": string(current.Status)}, update)
		if err != nil {
			if mongox.IsDuplicateKey(err) {
				return model.Booking{}, "", model.ErrConflict
			}
			return model.Booking{}, "", fmt.Errorf("update booking status: %w", err)
		}
		if res.MatchedCount == 1 {
			return next, current.Status, nil
		}
	}
	return model.Booking{}, "", fmt.Errorf("update booking %s: modified concurrently", id)
}

func (s *MongoStore) Cancel(ctx context.Context, id string, today time.Time) (model.Booking, error) {
	filter := bson.M{
		"_id":    id,
		"status": bson.M{"$ne": string(model.StatusCancelled)},
		"date":   bson.M{"$gte": today},
	}
	update := bson.M{
		"$set":   bson.M{"status": string(model.StatusCancelled), "updatedAt": time.Now().UTC()},
		"$unset": bson.M{"activeSlot": ""},
	}
	var doc bookingDoc
	err := s.coll.FindOneAndUpdate(ctx, filter, update, options.FindOneAndUpdate().SetReturnDocument(options.After)).Decode(&doc)
	if err == nil {
		return doc.toModel(), nil
	}
	if !mongox.IsNoDocuments(err) {
		return model.Booking{}, fmt.Errorf("cancel booking: %w", err)
	}
	current, getErr := s.Get(ctx, id)
	return model.Booking{}, cancelFailure(id, current, getErr, today)
}

func (s *MongoStore) Delete(ctx context.Context, id string) error {
	res, err := s.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("delete booking: %w", err)
	}
	if res.DeletedCount == 0 {
		return model.ErrNotFound
	}
	return nil
}

func (s *MongoStore) ListBookedTimes(ctx context.Context, day time.Time) ([]string, error) {
	active, err := s.ListActive(ctx, day)
	if err != nil {
		return nil, err
	}
	return uniqueTimes(active), nil
}

func (s *MongoStore) ListActive(ctx context.Context, day time.Time) ([]model.Booking, error) {
	filter := bson.M{"date": day, "status": bson.M{"$ne": string(model.StatusCancelled)}}
	opts := options.Find().SetSort(bson.D{{Key: "timeSlot", Value: 1}})
	return s.find(ctx, filter, opts)
}

func (s *MongoStore) List(ctx context.Context, f Filter) (Page, error) {
	f = f.Normalize()
	filter := bson.M{}
	if !f.Day.IsZero() {
		filter["date"] = f.Day
	}
	if f.Status != "" {
		filter["status"] = string(f.Status)
	}
	if f.Search != "" {
		pattern := primitiveRegex(f.Search)
		filter["$or"] = bson.A{
			bson.M{"name": pattern},
			bson.M{"phone": pattern},
			bson.M{"email": pattern},
			bson.M{"service": pattern},
		}
	}

	total, err := s.coll.CountDocuments(ctx, filter)
	if err != nil {
		return Page{}, fmt.Errorf("count bookings: %w", err)
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}}).
		SetSkip(int64(f.Offset())).
		SetLimit(int64(f.Limit))
	bookings, err := s.find(ctx, filter, opts)
	if err != nil {
		return Page{}, err
	}
	return Page{Bookings: bookings, Total: total}, nil
}

func (s *MongoStore) find(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]model.Booking, error) {
	cur, err := s.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("find bookings: %w", err)
	}
	var docs []bookingDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode bookings: %w", err)
	}
	out := make([]model.Booking, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.toModel())
	}
	return out, nil
}

func primitiveRegex(q string) bson.M {
	return bson.M{"$regex": regexp.QuoteMeta(q), "$options": "i"}
}

func fromModel(b model.Booking) bookingDoc {
	doc := bookingDoc{
		ID:        b.ID,
		Name:      b.Name,
		Phone:     b.Phone,
		Email:     b.Email,
		Service:   b.Service,
		ServiceID: b.ServiceID,
		Date:      b.Date,
		Time:      b.Time,
		TimeSlot:  b.TimeSlot,
		Status:    string(b.Status),
		Notes:     b.Notes,
		UserID:    b.UserID,
		CreatedAt: b.CreatedAt,
		UpdatedAt: b.UpdatedAt,
	}
	if b.Active() {
		doc.ActiveSlot = model.SlotKey(b.Date, b.EffectiveTime())
	}
	return doc
}

func (d bookingDoc) toModel() model.Booking {
	b := model.Booking{
		ID:        d.ID,
		Name:      d.Name,
		Phone:     d.Phone,
		Email:     d.Email,
		Service:   d.Service,
		ServiceID: d.ServiceID,
		Date:      d.Date.UTC(),
		Time:      d.Time,
		TimeSlot:  d.TimeSlot,
		Status:    model.Status(d.Status),
		Notes:     d.Notes,
		UserID:    d.UserID,
		CreatedAt: d.CreatedAt,
		UpdatedAt: d.UpdatedAt,
	}
	// Records written before timeSlot existed only carry time.
	b.Normalize()
	return b
}

