package mongo

import (
	"context"
	"errors"

	"voyago/travel-planner/internal/domain"
	"voyago/travel-planner/internal/repository"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

const itineraryCollectionName = "itineraries"

// mongoItineraryRepository implements repository.ItineraryRepository
type mongoItineraryRepository struct {
	collection *mongo.Collection
}

// NewMongoItineraryRepository creates a new Itinerary repository.
func NewMongoItineraryRepository(db *mongo.Database) repository.ItineraryRepository {
	return &mongoItineraryRepository{
		collection: db.Collection(itineraryCollectionName),
	}
}

// Create inserts a new itinerary document. The id must match the id of the
// trip it belongs to.
func (r *mongoItineraryRepository) Create(ctx context.Context, itinerary *domain.Itinerary) error {
	if itinerary.ID == "" {
		return errors.New("itinerary requires an id")
	}
	_, err := r.collection.InsertOne(ctx, itinerary)
	if err != nil {
		return translateErr(err)
	}
	return nil
}

// GetByID retrieves a single itinerary by its id.
func (r *mongoItineraryRepository) GetByID(ctx context.Context, id string) (*domain.Itinerary, error) {
	var itinerary domain.Itinerary
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&itinerary)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, translateErr(err)
	}
	return &itinerary, nil
}

// SetField overwrites exactly the field at the given dotted path, leaving
// sibling fields untouched server-side. There is no version check: whatever
// write the store applies last wins at this path.
func (r *mongoItineraryRepository) SetField(ctx context.Context, id string, path repository.FieldPath, value interface{}) error {
	if len(path) == 0 {
		return errors.New("field path must not be empty")
	}
	update := bson.M{"$set": bson.M{path.String(): value}}
	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, update)
	if err != nil {
		return translateErr(err)
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

type itineraryChange struct {
	OperationType string            `bson:"operationType"`
	FullDocument  *domain.Itinerary `bson:"fullDocument"`
}

// Watch subscribes to one itinerary document: current value first, then
// every remote change in store order, full value each time. The channel
// closes when ctx is canceled or the stream fails.
func (r *mongoItineraryRepository) Watch(ctx context.Context, id string) (<-chan repository.ItineraryEvent, error) {
	stream, err := r.collection.Watch(ctx, singleDocPipeline(id), streamOptions())
	if err != nil {
		return nil, translateErr(err)
	}

	events := make(chan repository.ItineraryEvent)
	go func() {
		defer close(events)
		defer stream.Close(context.Background())

		itinerary, err := r.GetByID(ctx, id)
		switch {
		case err == nil:
			send(ctx, events, repository.ItineraryEvent{Itinerary: itinerary, Exists: true})
		case errors.Is(err, repository.ErrNotFound):
			send(ctx, events, repository.ItineraryEvent{Exists: false})
		default:
			send(ctx, events, repository.ItineraryEvent{Err: err})
			return
		}

		for stream.Next(ctx) {
			var change itineraryChange
			if err := stream.Decode(&change); err != nil {
				send(ctx, events, repository.ItineraryEvent{Err: err})
				return
			}
			if change.OperationType == "delete" || change.FullDocument == nil {
				send(ctx, events, repository.ItineraryEvent{Exists: false})
				continue
			}
			send(ctx, events, repository.ItineraryEvent{Itinerary: change.FullDocument, Exists: true})
		}
		if err := stream.Err(); err != nil && ctx.Err() == nil {
			send(ctx, events, repository.ItineraryEvent{Err: translateErr(err)})
		}
	}()
	return events, nil
}
