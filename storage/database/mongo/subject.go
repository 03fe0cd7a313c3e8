package mongodb

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/trezcool/shule/core/subject"
)

type (
	subjectDoc struct {
		ID          primitive.ObjectID `bson:"_id,omitempty"`
		Name        string             `bson:"name"`
		Description string             `bson:"description"`
		CreatedAt   time.Time          `bson:"created_at"`
		UpdatedAt   time.Time          `bson:"updated_at"`
	}

	subjectRepository struct {
		subjects *mongo.Collection
	}
)

var _ subject.Repository = (*subjectRepository)(nil) // interface compliance check

func NewSubjectRepository(db *mongo.Database) *subjectRepository {
	return &subjectRepository{subjects: db.Collection(subjectsCollection)}
}

func (repo subjectRepository) doc(subj subject.Subject) (subjectDoc, error) {
	d := subjectDoc{
		Name:        subj.Name,
		Description: subj.Description,
		CreatedAt:   subj.CreatedAt.UTC(),
		UpdatedAt:   subj.UpdatedAt.UTC(),
	}
	if subj.ID != "" {
		var err error
		if d.ID, err = oid(subj.ID); err != nil {
			return subjectDoc{}, err
		}
	}
	return d, nil
}

func (repo subjectRepository) undoc(d subjectDoc) subject.Subject {
	return subject.Subject{
		ID:          d.ID.Hex(),
		Name:        d.Name,
		Description: d.Description,
		CreatedAt:   d.CreatedAt,
		UpdatedAt:   d.UpdatedAt,
	}
}

func (repo subjectRepository) CheckNameUniqueness(ctx context.Context, name string, excludedSubjects ...subject.Subject) error {
	filter := bson.M{"name": name}
	if len(excludedSubjects) > 0 {
		exclIDs := make([]primitive.ObjectID, 0, len(excludedSubjects))
		for _, s := range excludedSubjects {
			objID, err := oid(s.ID)
			if err != nil {
				return err
			}
			exclIDs = append(exclIDs, objID)
		}
		filter["_id"] = bson.M{"$nin": exclIDs}
	}

	n, err := repo.subjects.CountDocuments(ctx, filter)
	if err != nil {
		return errors.Wrap(err, "checking subject name uniqueness")
	}
	if n > 0 {
		return subject.ErrNameExists
	}
	return nil
}

func (repo subjectRepository) CreateSubject(ctx context.Context, subj subject.Subject) (subject.Subject, error) {
	subj.ID = primitive.NewObjectID().Hex()
	d, err := repo.doc(subj)
	if err != nil {
		return subject.Subject{}, err
	}
	if _, err := repo.subjects.InsertOne(ctx, d); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return subject.Subject{}, subject.ErrNameExists
		}
		return subject.Subject{}, errors.Wrap(err, "inserting subject")
	}
	return repo.undoc(d), nil
}

func (repo subjectRepository) QuerySubjects(ctx context.Context) ([]subject.Subject, error) {
	cursor, err := repo.subjects.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "name", Value: 1}}))
	if err != nil {
		return nil, errors.Wrap(err, "querying subjects")
	}
	defer cursor.Close(ctx)

	var subjects []subject.Subject
	for cursor.Next(ctx) {
		var d subjectDoc
		if err := cursor.Decode(&d); err != nil {
			return nil, errors.Wrap(err, "decoding subject")
		}
		subjects = append(subjects, repo.undoc(d))
	}
	return subjects, errors.Wrap(cursor.Err(), "iterating subjects")
}

func (repo subjectRepository) GetSubjectByID(ctx context.Context, id string) (subject.Subject, error) {
	objID, err := oid(id)
	if err != nil {
		return subject.Subject{}, subject.ErrNotFound
	}

	var d subjectDoc
	if err := repo.subjects.FindOne(ctx, bson.M{"_id": objID}).Decode(&d); err != nil {
		if err == mongo.ErrNoDocuments {
			return subject.Subject{}, subject.ErrNotFound
		}
		return subject.Subject{}, errors.Wrap(err, "finding subject")
	}
	return repo.undoc(d), nil
}

func (repo subjectRepository) UpdateSubject(ctx context.Context, subj subject.Subject) (subject.Subject, error) {
	d, err := repo.doc(subj)
	if err != nil {
		return subject.Subject{}, subject.ErrNotFound
	}
	res, err := repo.subjects.ReplaceOne(ctx, bson.M{"_id": d.ID}, d)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return subject.Subject{}, subject.ErrNameExists
		}
		return subject.Subject{}, errors.Wrap(err, "updating subject")
	}
	if res.MatchedCount == 0 {
		return subject.Subject{}, subject.ErrNotFound
	}
	return repo.undoc(d), nil
}

func (repo subjectRepository) UpdateOrCreateSubject(ctx context.Context, subj subject.Subject) (subject.Subject, error) {
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)
	update := bson.M{
		"$set": bson.M{
			"name":        subj.Name,
			"description": subj.Description,
			"updated_at":  time.Now().UTC(),
		},
		"$setOnInsert": bson.M{"created_at": time.Now().UTC()},
	}

	var saved subjectDoc
	if err := repo.subjects.FindOneAndUpdate(ctx, bson.M{"name": subj.Name}, update, opts).Decode(&saved); err != nil {
		return subject.Subject{}, errors.Wrap(err, "upserting subject")
	}
	return repo.undoc(saved), nil
}

func (repo subjectRepository) DeleteSubject(ctx context.Context, id string) error {
	objID, err := oid(id)
	if err != nil {
		return subject.ErrNotFound
	}
	res, err := repo.subjects.DeleteOne(ctx, bson.M{"_id": objID})
	if err != nil {
		return errors.Wrap(err, "deleting subject")
	}
	if res.DeletedCount == 0 {
		return subject.ErrNotFound
	}
	return nil
}
