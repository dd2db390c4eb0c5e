package mongo

import (
	"context"
	"errors"

	"voyago/travel-planner/internal/domain"
	"voyago/travel-planner/internal/repository"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const tripCollectionName = "trips"

// mongoTripRepository implements repository.TripRepository
type mongoTripRepository struct {
	collection *mongo.Collection
}

// NewMongoTripRepository creates a new Trip repository.
func NewMongoTripRepository(db *mongo.Database) repository.TripRepository {
	return &mongoTripRepository{
		collection: db.Collection(tripCollectionName),
	}
}

// Create inserts a new trip document under its pre-generated id.
func (r *mongoTripRepository) Create(ctx context.Context, trip *domain.Trip) error {
	if trip.ID == "" || trip.CreatedBy == "" {
		return errors.New("trip requires an id and a creator")
	}
	_, err := r.collection.InsertOne(ctx, trip)
	if err != nil {
		return translateErr(err)
	}
	return nil
}

// GetByID retrieves a single trip by its id.
func (r *mongoTripRepository) GetByID(ctx context.Context, id string) (*domain.Trip, error) {
	var trip domain.Trip
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&trip)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, translateErr(err)
	}
	return &trip, nil
}

// tripChange is the slice of a change-stream event this repository needs.
type tripChange struct {
	OperationType string       `bson:"operationType"`
	FullDocument  *domain.Trip `bson:"fullDocument"`
}

// Watch subscribes to one trip document. The current value is delivered
// immediately, then every remote change in the order the store applied
// them. The channel closes when ctx is canceled or the stream fails.
func (r *mongoTripRepository) Watch(ctx context.Context, id string) (<-chan repository.TripEvent, error) {
	stream, err := r.collection.Watch(ctx, singleDocPipeline(id), streamOptions())
	if err != nil {
		return nil, translateErr(err)
	}

	events := make(chan repository.TripEvent)
	go func() {
		defer close(events)
		defer stream.Close(context.Background())

		// Initial snapshot: the stream only reports changes made after
		// subscribe time, so deliver the current value first.
		trip, err := r.GetByID(ctx, id)
		switch {
		case err == nil:
			send(ctx, events, repository.TripEvent{Trip: trip, Exists: true})
		case errors.Is(err, repository.ErrNotFound):
			send(ctx, events, repository.TripEvent{Exists: false})
		default:
			send(ctx, events, repository.TripEvent{Err: err})
			return
		}

		for stream.Next(ctx) {
			var change tripChange
			if err := stream.Decode(&change); err != nil {
				send(ctx, events, repository.TripEvent{Err: err})
				return
			}
			if change.OperationType == "delete" || change.FullDocument == nil {
				send(ctx, events, repository.TripEvent{Exists: false})
				continue
			}
			send(ctx, events, repository.TripEvent{Trip: change.FullDocument, Exists: true})
		}
		if err := stream.Err(); err != nil && ctx.Err() == nil {
			send(ctx, events, repository.TripEvent{Err: translateErr(err)})
		}
	}()
	return events, nil
}

// WatchAll subscribes to the whole trips collection. Each delivery carries
// the full member list as of that change, unsorted; presentation order is
// the consumer's concern.
func (r *mongoTripRepository) WatchAll(ctx context.Context) (<-chan repository.CatalogEvent, error) {
	stream, err := r.collection.Watch(ctx, mongo.Pipeline{}, streamOptions())
	if err != nil {
		return nil, translateErr(err)
	}

	events := make(chan repository.CatalogEvent)
	go func() {
		defer close(events)
		defer stream.Close(context.Background())

		emit := func() bool {
			trips, err := r.listAll(ctx)
			if err != nil {
				send(ctx, events, repository.CatalogEvent{Err: err})
				return false
			}
			send(ctx, events, repository.CatalogEvent{Trips: trips})
			return true
		}

		if !emit() {
			return
		}
		for stream.Next(ctx) {
			// The event itself is only a change signal; re-list so every
			// delivery is the complete membership.
			if !emit() {
				return
			}
		}
		if err := stream.Err(); err != nil && ctx.Err() == nil {
			send(ctx, events, repository.CatalogEvent{Err: translateErr(err)})
		}
	}()
	return events, nil
}

func (r *mongoTripRepository) listAll(ctx context.Context) ([]domain.Trip, error) {
	cursor, err := r.collection.Find(ctx, bson.M{})
	if err != nil {
		return nil, translateErr(err)
	}
	defer cursor.Close(ctx)

	var trips []domain.Trip
	if err = cursor.All(ctx, &trips); err != nil {
		return nil, err
	}
	return trips, nil
}

// send delivers an event unless the subscriber has already canceled.
func send[T any](ctx context.Context, ch chan<- T, ev T) {
	select {
	case ch <- ev:
	case <-ctx.Done():
	}
}

// EnsureTripIndexes creates necessary indexes. Call during startup.
func EnsureTripIndexes(ctx context.Context, collection *mongo.Collection) {
	indexes := []mongo.IndexModel{
		{
			// Catalog ordering: newest trips first.
			Keys:    bson.D{{Key: "createdAt", Value: -1}},
			Options: options.Index(),
		},
		{
			Keys:    bson.D{{Key: "createdBy", Value: 1}},
			Options: options.Index(),
		},
	}
	if _, err := collection.Indexes().CreateMany(ctx, indexes); err != nil {
		// Index creation is best-effort; queries still work without them.
	}
}
