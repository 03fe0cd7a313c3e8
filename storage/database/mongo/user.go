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
	"github.com/trezcool/shule/core/user"
)

type (
	userDoc struct {
		ID               primitive.ObjectID   `bson:"_id,omitempty"`
		Name             string               `bson:"name"`
		Email            string               `bson:"email"`
		PasswordHash     []byte               `bson:"password_hash"`
		RoleID           primitive.ObjectID   `bson:"role_id"`
		Section          string               `bson:"section,omitempty"`
		AssignedGradeIDs []primitive.ObjectID `bson:"assigned_grade_ids"`
		EnrolledGradeIDs []primitive.ObjectID `bson:"enrolled_grade_ids"`
		CreatedAt        time.Time            `bson:"created_at"`
		UpdatedAt        time.Time            `bson:"updated_at"`
		LastLogin        time.Time            `bson:"last_login"`
	}

	roleDoc struct {
		ID          primitive.ObjectID `bson:"_id,omitempty"`
		Name        string             `bson:"name"`
		Permissions []string           `bson:"permissions"`
		CreatedAt   time.Time          `bson:"created_at"`
		UpdatedAt   time.Time          `bson:"updated_at"`
	}

	userRepository struct {
		users *mongo.Collection
		roles *mongo.Collection
	}
)

var (
	_ user.Repository         = (*userRepository)(nil) // interface compliance check
	_ grade.UserRefRepository = (*userRepository)(nil)
)

func NewUserRepository(db *mongo.Database) *userRepository {
	return &userRepository{
		users: db.Collection(usersCollection),
		roles: db.Collection(rolesCollection),
	}
}

func (repo userRepository) doc(usr user.User) (userDoc, error) {
	d := userDoc{
		Name:         usr.Name,
		Email:        usr.Email,
		PasswordHash: usr.PasswordHash,
		Section:      usr.Section,
		CreatedAt:    usr.CreatedAt.UTC(),
		UpdatedAt:    usr.UpdatedAt.UTC(),
		LastLogin:    usr.LastLogin.UTC(),
	}
	var err error
	if usr.ID != "" {
		if d.ID, err = oid(usr.ID); err != nil {
			return userDoc{}, err
		}
	}
	if usr.RoleID != "" {
		if d.RoleID, err = oid(usr.RoleID); err != nil {
			return userDoc{}, err
		}
	}
	if d.AssignedGradeIDs, err = oids(usr.AssignedGradeIDs); err != nil {
		return userDoc{}, err
	}
	if d.EnrolledGradeIDs, err = oids(usr.EnrolledGradeIDs); err != nil {
		return userDoc{}, err
	}
	return d, nil
}

func (repo userRepository) undoc(d userDoc) user.User {
	return user.User{
		ID:               d.ID.Hex(),
		Name:             d.Name,
		Email:            d.Email,
		PasswordHash:     d.PasswordHash,
		RoleID:           d.RoleID.Hex(),
		Section:          d.Section,
		AssignedGradeIDs: hexes(d.AssignedGradeIDs),
		EnrolledGradeIDs: hexes(d.EnrolledGradeIDs),
		CreatedAt:        d.CreatedAt,
		UpdatedAt:        d.UpdatedAt,
		LastLogin:        d.LastLogin,
	}
}

func (repo userRepository) undocRole(d roleDoc) user.Role {
	return user.Role{
		ID:          d.ID.Hex(),
		Name:        d.Name,
		Permissions: d.Permissions,
		CreatedAt:   d.CreatedAt,
		UpdatedAt:   d.UpdatedAt,
	}
}

func (repo userRepository) CheckEmailUniqueness(ctx context.Context, email string, excludedUsers ...user.User) error {
	filter := bson.M{"email": email}
	if len(excludedUsers) > 0 {
		exclIDs := make([]primitive.ObjectID, 0, len(excludedUsers))
		for _, u := range excludedUsers {
			objID, err := oid(u.ID)
			if err != nil {
				return err
			}
			exclIDs = append(exclIDs, objID)
		}
		filter["_id"] = bson.M{"$nin": exclIDs}
	}

	n, err := repo.users.CountDocuments(ctx, filter)
	if err != nil {
		return errors.Wrap(err, "checking email uniqueness")
	}
	if n > 0 {
		return user.ErrEmailExists
	}
	return nil
}

func (repo userRepository) CreateUser(ctx context.Context, usr user.User) (user.User, error) {
	usr.ID = primitive.NewObjectID().Hex()
	d, err := repo.doc(usr)
	if err != nil {
		return user.User{}, err
	}
	if _, err := repo.users.InsertOne(ctx, d); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return user.User{}, user.ErrEmailExists
		}
		return user.User{}, errors.Wrap(err, "inserting user")
	}
	return repo.undoc(d), nil
}

func (repo userRepository) QueryUsers(ctx context.Context, filter user.QueryFilter) ([]user.User, error) {
	query := bson.M{}
	if filter.RoleID != "" {
		roleID, err := oid(filter.RoleID)
		if err != nil {
			return nil, err
		}
		query["role_id"] = roleID
	}

	cursor, err := repo.users.Find(ctx, query, options.Find().SetSort(bson.D{{Key: "name", Value: 1}}))
	if err != nil {
		return nil, errors.Wrap(err, "querying users")
	}
	defer cursor.Close(ctx)

	var users []user.User
	for cursor.Next(ctx) {
		var d userDoc
		if err := cursor.Decode(&d); err != nil {
			return nil, errors.Wrap(err, "decoding user")
		}
		users = append(users, repo.undoc(d))
	}
	return users, errors.Wrap(cursor.Err(), "iterating users")
}

func (repo userRepository) getUser(ctx context.Context, filter bson.M) (user.User, error) {
	var d userDoc
	if err := repo.users.FindOne(ctx, filter).Decode(&d); err != nil {
		if err == mongo.ErrNoDocuments {
			return user.User{}, user.ErrNotFound
		}
		return user.User{}, errors.Wrap(err, "finding user")
	}
	return repo.undoc(d), nil
}

func (repo userRepository) GetUserByID(ctx context.Context, id string) (user.User, error) {
	objID, err := oid(id)
	if err != nil {
		return user.User{}, user.ErrNotFound
	}
	return repo.getUser(ctx, bson.M{"_id": objID})
}

func (repo userRepository) GetUserByEmail(ctx context.Context, email string) (user.User, error) {
	return repo.getUser(ctx, bson.M{"email": email})
}

func (repo userRepository) UpdateUser(ctx context.Context, usr user.User) (user.User, error) {
	d, err := repo.doc(usr)
	if err != nil {
		return user.User{}, user.ErrNotFound
	}
	res, err := repo.users.ReplaceOne(ctx, bson.M{"_id": d.ID}, d)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return user.User{}, user.ErrEmailExists
		}
		return user.User{}, errors.Wrap(err, "updating user")
	}
	if res.MatchedCount == 0 {
		return user.User{}, user.ErrNotFound
	}
	return repo.undoc(d), nil
}

func (repo userRepository) UpdateOrCreateUser(ctx context.Context, usr user.User) (user.User, error) {
	d, err := repo.doc(usr)
	if err != nil {
		return user.User{}, err
	}

	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)
	update := bson.M{
		"$set": bson.M{
			"name":          d.Name,
			"email":         d.Email,
			"password_hash": d.PasswordHash,
			"role_id":       d.RoleID,
			"section":       d.Section,
			"updated_at":    time.Now().UTC(),
		},
		"$setOnInsert": bson.M{
			"assigned_grade_ids": []primitive.ObjectID{},
			"enrolled_grade_ids": []primitive.ObjectID{},
			"created_at":         time.Now().UTC(),
		},
	}

	var saved userDoc
	if err := repo.users.FindOneAndUpdate(ctx, bson.M{"email": d.Email}, update, opts).Decode(&saved); err != nil {
		return user.User{}, errors.Wrap(err, "upserting user")
	}
	return repo.undoc(saved), nil
}

func (repo userRepository) DeleteUser(ctx context.Context, id string) error {
	objID, err := oid(id)
	if err != nil {
		return user.ErrNotFound
	}
	res, err := repo.users.DeleteOne(ctx, bson.M{"_id": objID})
	if err != nil {
		return errors.Wrap(err, "deleting user")
	}
	if res.DeletedCount == 0 {
		return user.ErrNotFound
	}
	return nil
}

// Roles

func (repo userRepository) getRole(ctx context.Context, filter bson.M) (user.Role, error) {
	var d roleDoc
	if err := repo.roles.FindOne(ctx, filter).Decode(&d); err != nil {
		if err == mongo.ErrNoDocuments {
			return user.Role{}, user.ErrRoleNotFound
		}
		return user.Role{}, errors.Wrap(err, "finding role")
	}
	return repo.undocRole(d), nil
}

func (repo userRepository) GetRoleByID(ctx context.Context, id string) (user.Role, error) {
	objID, err := oid(id)
	if err != nil {
		return user.Role{}, user.ErrRoleNotFound
	}
	return repo.getRole(ctx, bson.M{"_id": objID})
}

func (repo userRepository) GetRoleByName(ctx context.Context, name string) (user.Role, error) {
	return repo.getRole(ctx, bson.M{"name": name})
}

func (repo userRepository) QueryRoles(ctx context.Context) ([]user.Role, error) {
	cursor, err := repo.roles.Find(ctx, bson.M{})
	if err != nil {
		return nil, errors.Wrap(err, "querying roles")
	}
	defer cursor.Close(ctx)

	var roles []user.Role
	for cursor.Next(ctx) {
		var d roleDoc
		if err := cursor.Decode(&d); err != nil {
			return nil, errors.Wrap(err, "decoding role")
		}
		roles = append(roles, repo.undocRole(d))
	}
	return roles, errors.Wrap(cursor.Err(), "iterating roles")
}

func (repo userRepository) UpdateOrCreateRole(ctx context.Context, role user.Role) (user.Role, error) {
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)
	update := bson.M{
		"$set": bson.M{
			"name":        role.Name,
			"permissions": role.Permissions,
			"updated_at":  time.Now().UTC(),
		},
		"$setOnInsert": bson.M{"created_at": time.Now().UTC()},
	}

	var saved roleDoc
	if err := repo.roles.FindOneAndUpdate(ctx, bson.M{"name": role.Name}, update, opts).Decode(&saved); err != nil {
		return user.Role{}, errors.Wrap(err, "upserting role")
	}
	return repo.undocRole(saved), nil
}

// Grade back-references

func (repo userRepository) GradeRefHolders(ctx context.Context, field grade.RefField, gradeID string) ([]string, error) {
	objID, err := oid(gradeID)
	if err != nil {
		return nil, err
	}

	opts := options.Find().SetProjection(bson.M{"_id": 1})
	cursor, err := repo.users.Find(ctx, bson.M{string(field): objID}, opts)
	if err != nil {
		return nil, errors.Wrap(err, "querying back-reference holders")
	}
	defer cursor.Close(ctx)

	var holders []string
	for cursor.Next(ctx) {
		var d struct {
			ID primitive.ObjectID `bson:"_id"`
		}
		if err := cursor.Decode(&d); err != nil {
			return nil, errors.Wrap(err, "decoding back-reference holder")
		}
		holders = append(holders, d.ID.Hex())
	}
	return holders, errors.Wrap(cursor.Err(), "iterating back-reference holders")
}

func (repo userRepository) AddGradeRef(ctx context.Context, field grade.RefField, gradeID string, userIDs []string) error {
	return repo.updateGradeRef(ctx, "$addToSet", field, gradeID, userIDs)
}

func (repo userRepository) RemoveGradeRef(ctx context.Context, field grade.RefField, gradeID string, userIDs []string) error {
	return repo.updateGradeRef(ctx, "$pull", field, gradeID, userIDs)
}

func (repo userRepository) updateGradeRef(ctx context.Context, op string, field grade.RefField, gradeID string, userIDs []string) error {
	gradeObjID, err := oid(gradeID)
	if err != nil {
		return err
	}
	userObjIDs, err := oids(userIDs)
	if err != nil {
		return err
	}

	_, err = repo.users.UpdateMany(
		ctx,
		bson.M{"_id": bson.M{"$in": userObjIDs}},
		bson.M{op: bson.M{string(field): gradeObjID}},
	)
	return errors.Wrap(err, "updating back-references")
}
