package mongo

import (
	"errors"

	"voyago/travel-planner/internal/repository"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoDB error code for Unauthorized.
const codeUnauthorized = 13

// translateErr maps driver-level authorization failures onto the
// repository's distinguished permission-denied error so callers can tell
// an access-rule mismatch apart from a transient failure.
func translateErr(err error) error {
	var cmdErr mongo.CommandError
	if errors.As(err, &cmdErr) && cmdErr.Code == codeUnauthorized {
		return repository.ErrPermissionDenied
	}
	var srvErr mongo.ServerError
	if errors.As(err, &srvErr) && srvErr.HasErrorCode(codeUnauthorized) {
		return repository.ErrPermissionDenied
	}
	return err
}

// singleDocPipeline matches change events for exactly one document id.
func singleDocPipeline(id string) mongo.Pipeline {
	return mongo.Pipeline{
		bson.D{{Key: "$match", Value: bson.D{{Key: "documentKey._id", Value: id}}}},
	}
}

// streamOptions asks the server to attach the post-image of the document
// to every update event, so subscribers always receive the full value.
func streamOptions() *options.ChangeStreamOptions {
	return options.ChangeStream().SetFullDocument(options.UpdateLookup)
}
