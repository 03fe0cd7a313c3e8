package mongodb

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/trezcool/shule/core"
)

// collection names
const (
	usersCollection    = "users"
	rolesCollection    = "roles"
	subjectsCollection = "subjects"
	gradesCollection   = "grades"
	marksCollection    = "marks"
)

var errInvalidID = errors.New("invalid id")

func Open(ctx context.Context, conf *core.Config) (*mongo.Database, error) {
	client, err := mongo.Connect(ctx, options.Client().
		ApplyURI(conf.Database.URI).
		SetConnectTimeout(conf.Database.Timeout))
	if err != nil {
		return nil, errors.Wrap(err, "connecting to database")
	}
	if err := ping(ctx, client); err != nil {
		return nil, err
	}
	return client.Database(conf.Database.Name), nil
}

// ping waits for the database to be ready. Waits 100ms longer between each attempt.
func ping(ctx context.Context, client *mongo.Client) error {
	var err error
	maxAttempts := 30
	for attempts := 1; attempts <= maxAttempts; attempts++ {
		err = client.Ping(ctx, readpref.Primary())
		if err == nil {
			break
		}
		time.Sleep(time.Duration(attempts) * 100 * time.Millisecond)
	}

	if err != nil {
		return errors.Wrap(err, "DB ping timeout")
	}
	return nil
}

// EnsureIndexes creates the indexes the domain relies on; in particular
// the unique (student_id, subject_id, grade_id) natural key on marks
// that serializes concurrent upserts.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	unique := options.Index().SetUnique(true)

	indexes := map[string][]mongo.IndexModel{
		usersCollection: {
			{Keys: bson.D{{Key: "email", Value: 1}}, Options: unique},
		},
		rolesCollection: {
			{Keys: bson.D{{Key: "name", Value: 1}}, Options: unique},
		},
		subjectsCollection: {
			{Keys: bson.D{{Key: "name", Value: 1}}, Options: unique},
		},
		marksCollection: {
			{Keys: bson.D{{Key: "student_id", Value: 1}}},
			{Keys: bson.D{{Key: "subject_id", Value: 1}}},
			{Keys: bson.D{{Key: "grade_id", Value: 1}}},
			{
				Keys: bson.D{
					{Key: "student_id", Value: 1},
					{Key: "subject_id", Value: 1},
					{Key: "grade_id", Value: 1},
				},
				Options: unique,
			},
		},
	}

	for coll, models := range indexes {
		if _, err := db.Collection(coll).Indexes().CreateMany(ctx, models); err != nil {
			return errors.Wrapf(err, "creating %s indexes", coll)
		}
	}
	return nil
}

func oid(id string) (primitive.ObjectID, error) {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, errInvalidID
	}
	return objID, nil
}

func oids(ids []string) ([]primitive.ObjectID, error) {
	objIDs := make([]primitive.ObjectID, 0, len(ids))
	for _, id := range ids {
		objID, err := oid(id)
		if err != nil {
			return nil, errors.Wrapf(err, "%q", id)
		}
		objIDs = append(objIDs, objID)
	}
	return objIDs, nil
}

func hexes(objIDs []primitive.ObjectID) []string {
	ids := make([]string, 0, len(objIDs))
	for _, objID := range objIDs {
		ids = append(ids, objID.Hex())
	}
	return ids
}
