package mongodb

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/trezcool/shule/core/grade"
)

type (
	gradeDoc struct {
		ID          primitive.ObjectID   `bson:"_id,omitempty"`
		Name        string               `bson:"name"`
		Description string               `bson:"description"`
		TeacherIDs  []primitive.ObjectID `bson:"teacher_ids"`
		StudentIDs  []primitive.ObjectID `bson:"student_ids"`
		SubjectIDs  []primitive.ObjectID `bson:"subject_ids"`
		CreatedAt   time.Time            `bson:"created_at"`
		UpdatedAt   time.Time            `bson:"updated_at"`
	}

	gradeRepository struct {
		grades *mongo.Collection
	}
)

var _ grade.Repository = (*gradeRepository)(nil) // interface compliance check

func NewGradeRepository(db *mongo.Database) *gradeRepository {
	return &gradeRepository{grades: db.Collection(gradesCollection)}
}

func (repo gradeRepository) doc(g grade.Grade) (gradeDoc, error) {
	d := gradeDoc{
		Name:        g.Name,
		Description: g.Description,
		CreatedAt:   g.CreatedAt.UTC(),
		UpdatedAt:   g.UpdatedAt.UTC(),
	}
	var err error
	if g.ID != "" {
		if d.ID, err = oid(g.ID); err != nil {
			return gradeDoc{}, err
		}
	}
	if d.TeacherIDs, err = oids(g.TeacherIDs); err != nil {
		return gradeDoc{}, err
	}
	if d.StudentIDs, err = oids(g.StudentIDs); err != nil {
		return gradeDoc{}, err
	}
	if d.SubjectIDs, err = oids(g.SubjectIDs); err != nil {
		return gradeDoc{}, err
	}
	return d, nil
}

func (repo gradeRepository) undoc(d gradeDoc) grade.Grade {
	return grade.Grade{
		ID:          d.ID.Hex(),
		Name:        d.Name,
		Description: d.Description,
		TeacherIDs:  hexes(d.TeacherIDs),
		StudentIDs:  hexes(d.StudentIDs),
		SubjectIDs:  hexes(d.SubjectIDs),
		CreatedAt:   d.CreatedAt,
		UpdatedAt:   d.UpdatedAt,
	}
}

func (repo gradeRepository) CreateGrade(ctx context.Context, g grade.Grade) (grade.Grade, error) {
	g.ID = primitive.NewObjectID().Hex()
	d, err := repo.doc(g)
	if err != nil {
		return grade.Grade{}, err
	}
	if _, err := repo.grades.InsertOne(ctx, d); err != nil {
		return grade.Grade{}, errors.Wrap(err, "inserting grade")
	}
	return repo.undoc(d), nil
}

func (repo gradeRepository) QueryGrades(ctx context.Context, filter grade.QueryFilter) ([]grade.Grade, error) {
	query := bson.M{}
	if filter.TeacherID != "" {
		objID, err := oid(filter.TeacherID)
		if err != nil {
			return nil, err
		}
		query["teacher_ids"] = objID
	}
	if filter.StudentID != "" {
		objID, err := oid(filter.StudentID)
		if err != nil {
			return nil, err
		}
		query["student_ids"] = objID
	}

	cursor, err := repo.grades.Find(ctx, query, options.Find().SetSort(bson.D{{Key: "name", Value: 1}}))
	if err != nil {
		return nil, errors.Wrap(err, "querying grades")
	}
	defer cursor.Close(ctx)

	var grades []grade.Grade
	for cursor.Next(ctx) {
		var d gradeDoc
		if err := cursor.Decode(&d); err != nil {
			return nil, errors.Wrap(err, "decoding grade")
		}
		grades = append(grades, repo.undoc(d))
	}
	return grades, errors.Wrap(cursor.Err(), "iterating grades")
}

func (repo gradeRepository) GetGradeByID(ctx context.Context, id string) (grade.Grade, error) {
	objID, err := oid(id)
	if err != nil {
		return grade.Grade{}, grade.ErrNotFound
	}

	var d gradeDoc
	if err := repo.grades.FindOne(ctx, bson.M{"_id": objID}).Decode(&d); err != nil {
		if err == mongo.ErrNoDocuments {
			return grade.Grade{}, grade.ErrNotFound
		}
		return grade.Grade{}, errors.Wrap(err, "finding grade")
	}
	return repo.undoc(d), nil
}

func (repo gradeRepository) UpdateGrade(ctx context.Context, g grade.Grade) (grade.Grade, error) {
	d, err := repo.doc(g)
	if err != nil {
		return grade.Grade{}, grade.ErrNotFound
	}
	res, err := repo.grades.ReplaceOne(ctx, bson.M{"_id": d.ID}, d)
	if err != nil {
		return grade.Grade{}, errors.Wrap(err, "updating grade")
	}
	if res.MatchedCount == 0 {
		return grade.Grade{}, grade.ErrNotFound
	}
	return repo.undoc(d), nil
}

func (repo gradeRepository) UpdateOrCreateGrade(ctx context.Context, g grade.Grade) (grade.Grade, error) {
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)
	update := bson.M{
		"$set": bson.M{
			"name":        g.Name,
			"description": g.Description,
			"updated_at":  time.Now().UTC(),
		},
		"$setOnInsert": bson.M{
			"teacher_ids": []primitive.ObjectID{},
			"student_ids": []primitive.ObjectID{},
			"subject_ids": []primitive.ObjectID{},
			"created_at":  time.Now().UTC(),
		},
	}

	var saved gradeDoc
	if err := repo.grades.FindOneAndUpdate(ctx, bson.M{"name": g.Name}, update, opts).Decode(&saved); err != nil {
		return grade.Grade{}, errors.Wrap(err, "upserting grade")
	}
	return repo.undoc(saved), nil
}

func (repo gradeRepository) DeleteGrade(ctx context.Context, id string) error {
	objID, err := oid(id)
	if err != nil {
		return grade.ErrNotFound
	}
	res, err := repo.grades.DeleteOne(ctx, bson.M{"_id": objID})
	if err != nil {
		return errors.Wrap(err, "deleting grade")
	}
	if res.DeletedCount == 0 {
		return grade.ErrNotFound
	}
	return nil
}

func (repo gradeRepository) ReplaceMembers(ctx context.Context, gradeID string, a grade.Assignment) (grade.Grade, error) {
	objID, err := oid(gradeID)
	if err != nil {
		return grade.Grade{}, grade.ErrNotFound
	}

	set := bson.M{"updated_at": time.Now().UTC()}
	if a.TeacherIDs != nil {
		if set["teacher_ids"], err = oids(a.TeacherIDs); err != nil {
			return grade.Grade{}, err
		}
	}
	if a.StudentIDs != nil {
		if set["student_ids"], err = oids(a.StudentIDs); err != nil {
			return grade.Grade{}, err
		}
	}
	if a.SubjectIDs != nil {
		if set["subject_ids"], err = oids(a.SubjectIDs); err != nil {
			return grade.Grade{}, err
		}
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var saved gradeDoc
	if err := repo.grades.FindOneAndUpdate(ctx, bson.M{"_id": objID}, bson.M{"$set": set}, opts).Decode(&saved); err != nil {
		if err == mongo.ErrNoDocuments {
			return grade.Grade{}, grade.ErrNotFound
		}
		return grade.Grade{}, errors.Wrap(err, "replacing grade members")
	}
	return repo.undoc(saved), nil
}
