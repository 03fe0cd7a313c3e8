package mongodb

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/trezcool/shule/core/mark"
)

type (
	markDoc struct {
		ID          primitive.ObjectID `bson:"_id,omitempty"`
		StudentID   primitive.ObjectID `bson:"student_id"`
		SubjectID   primitive.ObjectID `bson:"subject_id"`
		GradeID     primitive.ObjectID `bson:"grade_id"`
		TeacherID   primitive.ObjectID `bson:"teacher_id"`
		Marks       float64            `bson:"marks"`
		LetterGrade string             `bson:"letter_grade,omitempty"`
		CreatedAt   time.Time          `bson:"created_at"`
		UpdatedAt   time.Time          `bson:"updated_at"`
	}

	markRepository struct {
		marks *mongo.Collection
	}
)

var _ mark.Repository = (*markRepository)(nil) // interface compliance check

func NewMarkRepository(db *mongo.Database) *markRepository {
	return &markRepository{marks: db.Collection(marksCollection)}
}

func (repo markRepository) undoc(d markDoc) mark.Mark {
	return mark.Mark{
		ID:          d.ID.Hex(),
		StudentID:   d.StudentID.Hex(),
		SubjectID:   d.SubjectID.Hex(),
		GradeID:     d.GradeID.Hex(),
		TeacherID:   d.TeacherID.Hex(),
		Marks:       d.Marks,
		LetterGrade: mark.LetterGrade(d.LetterGrade),
		CreatedAt:   d.CreatedAt,
		UpdatedAt:   d.UpdatedAt,
	}
}

// UpsertMark saves by the natural key; the unique compound index on
// (student_id, subject_id, grade_id) keeps concurrent writers from
// committing two records for the same key.
func (repo markRepository) UpsertMark(ctx context.Context, m mark.Mark) (mark.Mark, error) {
	studentID, err := oid(m.StudentID)
	if err != nil {
		return mark.Mark{}, err
	}
	subjectID, err := oid(m.SubjectID)
	if err != nil {
		return mark.Mark{}, err
	}
	gradeID, err := oid(m.GradeID)
	if err != nil {
		return mark.Mark{}, err
	}
	teacherID, err := oid(m.TeacherID)
	if err != nil {
		return mark.Mark{}, err
	}

	key := bson.M{
		"student_id": studentID,
		"subject_id": subjectID,
		"grade_id":   gradeID,
	}
	update := bson.M{
		"$set": bson.M{
			"marks":        m.Marks,
			"letter_grade": string(m.LetterGrade),
			"teacher_id":   teacherID,
			"updated_at":   time.Now().UTC(),
		},
		"$setOnInsert": bson.M{"created_at": time.Now().UTC()},
	}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)

	var saved markDoc
	if err := repo.marks.FindOneAndUpdate(ctx, key, update, opts).Decode(&saved); err != nil {
		return mark.Mark{}, errors.Wrap(err, "upserting mark")
	}
	return repo.undoc(saved), nil
}

func (repo markRepository) query(ctx context.Context, filter bson.M) ([]mark.Mark, error) {
	cursor, err := repo.marks.Find(ctx, filter)
	if err != nil {
		return nil, errors.Wrap(err, "querying marks")
	}
	defer cursor.Close(ctx)

	var marks []mark.Mark
	for cursor.Next(ctx) {
		var d markDoc
		if err := cursor.Decode(&d); err != nil {
			return nil, errors.Wrap(err, "decoding mark")
		}
		marks = append(marks, repo.undoc(d))
	}
	return marks, errors.Wrap(cursor.Err(), "iterating marks")
}

func (repo markRepository) QueryMarksByGrade(ctx context.Context, gradeID string) ([]mark.Mark, error) {
	objID, err := oid(gradeID)
	if err != nil {
		return nil, err
	}
	return repo.query(ctx, bson.M{"grade_id": objID})
}

func (repo markRepository) QueryMarksByStudent(ctx context.Context, studentID string, gradeIDs []string) ([]mark.Mark, error) {
	studentObjID, err := oid(studentID)
	if err != nil {
		return nil, err
	}
	gradeObjIDs, err := oids(gradeIDs)
	if err != nil {
		return nil, err
	}
	return repo.query(ctx, bson.M{
		"student_id": studentObjID,
		"grade_id":   bson.M{"$in": gradeObjIDs},
	})
}
