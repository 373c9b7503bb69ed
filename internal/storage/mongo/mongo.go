// Package mongo implements storage.Storage on a MongoDB database.
//
// Records live in two collections, "admins" and "students". Document ids
// are ObjectIDs; they cross the storage boundary as their hex string.
package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/aanand-mishra/student-portal/internal/config"
	"github.com/aanand-mishra/student-portal/internal/storage"
	"github.com/aanand-mishra/student-portal/internal/types"
)

type adminDoc struct {
	ID       primitive.ObjectID `bson:"_id,omitempty"`
	Username string             `bson:"username"`
	Password string             `bson:"password"`
	Name     string             `bson:"name"`
}

type studentDoc struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	StudentID string             `bson:"studentId"`
	Password  string             `bson:"password"`
	Name      string             `bson:"name"`
	Email     string             `bson:"email"`
	Phone     *string            `bson:"phone,omitempty"`
	Age       *string            `bson:"age,omitempty"`
	IsActive  bool               `bson:"isActive"`
	CreatedAt time.Time          `bson:"createdAt"`
	UpdatedAt time.Time          `bson:"updatedAt"`
}

func (d adminDoc) record() types.Admin {
	return types.Admin{
		ID:       d.ID.Hex(),
		Username: d.Username,
		Password: d.Password,
		Name:     d.Name,
	}
}

func (d studentDoc) record() types.Student {
	return types.Student{
		ID:        d.ID.Hex(),
		StudentID: d.StudentID,
		Name:      d.Name,
		Email:     d.Email,
		Phone:     d.Phone,
		Age:       d.Age,
		Password:  d.Password,
		IsActive:  d.IsActive,
		CreatedAt: d.CreatedAt,
		UpdatedAt: d.UpdatedAt,
	}
}

// Store is the MongoDB backend.
type Store struct {
	client   *mongo.Client
	admins   *mongo.Collection
	students *mongo.Collection
}

var _ storage.Storage = (*Store)(nil)

// New connects to cfg.Storage.MongoURI and makes sure the unique indexes
// exist before the first request is served.
func New(ctx context.Context, cfg *config.Config) (*Store, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.Storage.MongoURI))
	if err != nil {
		return nil, fmt.Errorf("mongo.New: connect: %w", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("mongo.New: ping: %w", err)
	}

	db := client.Database(cfg.Storage.MongoDatabase)
	s := &Store{
		client:   client,
		admins:   db.Collection("admins"),
		students: db.Collection("students"),
	}
	if err := s.ensureIndexes(ctx); err != nil {
		_ = client.Disconnect(ctx)
		return nil, err
	}
	return s, nil
}

func (s *Store) ensureIndexes(ctx context.Context) error {
	unique := func(field string) mongo.IndexModel {
		return mongo.IndexModel{
			Keys:    bson.D{{Key: field, Value: 1}},
			Options: options.Index().SetUnique(true),
		}
	}

	if _, err := s.admins.Indexes().CreateOne(ctx, unique("username")); err != nil {
		return fmt.Errorf("mongo.New: admins index: %w", err)
	}
	if _, err := s.students.Indexes().CreateMany(ctx, []mongo.IndexModel{
		unique("studentId"),
		unique("email"),
	}); err != nil {
		return fmt.Errorf("mongo.New: students indexes: %w", err)
	}
	return nil
}

func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, readpref.Primary())
}

func (s *Store) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}

// objectID parses a hex id. A malformed id cannot match any document,
// so it is reported as not found rather than as a failure.
func objectID(id string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, storage.ErrNotFound
	}
	return oid, nil
}

func (s *Store) findAdmin(ctx context.Context, filter bson.M) (types.Admin, error) {
	var doc adminDoc
	err := s.admins.FindOne(ctx, filter).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return types.Admin{}, storage.ErrNotFound
	}
	if err != nil {
		return types.Admin{}, fmt.Errorf("find admin: %w", err)
	}
	return doc.record(), nil
}

func (s *Store) GetAdmin(ctx context.Context, id string) (types.Admin, error) {
	oid, err := objectID(id)
	if err != nil {
		return types.Admin{}, err
	}
	return s.findAdmin(ctx, bson.M{"_id": oid})
}

func (s *Store) GetAdminByUsername(ctx context.Context, username string) (types.Admin, error) {
	return s.findAdmin(ctx, bson.M{"username": username})
}

func (s *Store) CreateAdmin(ctx context.Context, admin types.Admin) (types.Admin, error) {
	doc := adminDoc{
		ID:       primitive.NewObjectID(),
		Username: admin.Username,
		Password: admin.Password,
		Name:     admin.Name,
	}
	if _, err := s.admins.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return types.Admin{}, fmt.Errorf("create admin %q: %w", admin.Username, storage.ErrDuplicate)
		}
		return types.Admin{}, fmt.Errorf("CreateAdmin: insert: %w", err)
	}
	return doc.record(), nil
}

func (s *Store) findStudent(ctx context.Context, filter bson.M) (types.Student, error) {
	var doc studentDoc
	err := s.students.FindOne(ctx, filter).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return types.Student{}, storage.ErrNotFound
	}
	if err != nil {
		return types.Student{}, fmt.Errorf("find student: %w", err)
	}
	return doc.record(), nil
}

func (s *Store) GetStudent(ctx context.Context, id string) (types.Student, error) {
	oid, err := objectID(id)
	if err != nil {
		return types.Student{}, err
	}
	return s.findStudent(ctx, bson.M{"_id": oid})
}

func (s *Store) GetStudentByStudentID(ctx context.Context, studentID string) (types.Student, error) {
	return s.findStudent(ctx, bson.M{"studentId": studentID})
}

func (s *Store) GetStudentByEmail(ctx context.Context, email string) (types.Student, error) {
	return s.findStudent(ctx, bson.M{"email": email})
}

// GetStudents returns every student in insertion order.
func (s *Store) GetStudents(ctx context.Context) ([]types.Student, error) {
	cur, err := s.students.Find(ctx, bson.D{}, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("GetStudents: find: %w", err)
	}

	var docs []studentDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("GetStudents: decode: %w", err)
	}

	students := make([]types.Student, 0, len(docs))
	for _, d := range docs {
		students = append(students, d.record())
	}
	return students, nil
}

func (s *Store) CreateStudent(ctx context.Context, in types.CreateStudent) (types.Student, error) {
	// Mongo keeps millisecond precision; truncate so the returned record
	// matches what a later read decodes.
	now := time.Now().UTC().Truncate(time.Millisecond)
	doc := studentDoc{
		ID:        primitive.NewObjectID(),
		StudentID: in.StudentID,
		Password:  in.Password,
		Name:      in.Name,
		Email:     in.Email,
		Phone:     in.Phone,
		Age:       in.Age,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if _, err := s.students.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return types.Student{}, fmt.Errorf("create student %q: %w", in.StudentID, storage.ErrDuplicate)
		}
		return types.Student{}, fmt.Errorf("CreateStudent: insert: %w", err)
	}
	return doc.record(), nil
}

func (s *Store) UpdateStudent(ctx context.Context, id string, patch types.UpdateStudent) (types.Student, error) {
	oid, err := objectID(id)
	if err != nil {
		return types.Student{}, err
	}

	set := bson.M{"updatedAt": time.Now().UTC()}
	if patch.Name != nil {
		set["name"] = *patch.Name
	}
	if patch.Email != nil {
		set["email"] = *patch.Email
	}
	if patch.Phone != nil {
		set["phone"] = *patch.Phone
	}
	if patch.Age != nil {
		set["age"] = *patch.Age
	}

	var doc studentDoc
	err = s.students.FindOneAndUpdate(ctx,
		bson.M{"_id": oid},
		bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&doc)
	switch {
	case errors.Is(err, mongo.ErrNoDocuments):
		return types.Student{}, storage.ErrNotFound
	case mongo.IsDuplicateKeyError(err):
		return types.Student{}, fmt.Errorf("update student %s: %w", id, storage.ErrDuplicate)
	case err != nil:
		return types.Student{}, fmt.Errorf("UpdateStudent: find and update: %w", err)
	}
	return doc.record(), nil
}

func (s *Store) DeleteStudent(ctx context.Context, id string) (bool, error) {
	oid, err := objectID(id)
	if errors.Is(err, storage.ErrNotFound) {
		return false, nil
	}

	res, err := s.students.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return false, fmt.Errorf("DeleteStudent: delete: %w", err)
	}
	return res.DeletedCount > 0, nil
}
