// Package mongostore implements auth.Store on MongoDB.
//
// Users live in one collection with a unique index on email. UpdateUser is
// an optimistic read-modify-write: the replace only matches the version that
// was read, and a lost race is retried.
package mongostore

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/dmitrymomot/accountkit/pkg/auth"
)

const (
	DefaultCollection = "users"
	emailIndexName    = "users_email_key"
	maxUpdateAttempts = 5
)

// ErrConcurrentUpdate is returned when UpdateUser keeps losing races.
var ErrConcurrentUpdate = errors.New("user was modified concurrently")

type userDocument struct {
	ID           string    `bson:"_id"`
	Email        string    `bson:"email"`
	PasswordHash []byte    `bson:"password_hash"`
	Confirmed    bool      `bson:"confirmed"`
	CreatedAt    time.Time `bson:"created_at"`
	UpdatedAt    time.Time `bson:"updated_at"`
	Version      int64     `bson:"version"`
}

// Store is an auth.Store backed by a MongoDB collection.
type Store struct {
	coll *mongo.Collection
}

var _ auth.Store = (*Store)(nil)

// New uses db's "users" collection. Call EnsureIndexes once at startup.
func New(db *mongo.Database) *Store {
	return &Store{coll: db.Collection(DefaultCollection)}
}

// EnsureIndexes creates the unique email index.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	_, err := s.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true).SetName(emailIndexName),
	})
	if err != nil {
		return fmt.Errorf("failed to create email index: %w", err)
	}
	return nil
}

func (s *Store) CreateUser(ctx context.Context, u *auth.User) error {
	if _, err := s.coll.InsertOne(ctx, toDocument(u, 1)); err != nil {
		return mapWriteErr(err)
	}
	return nil
}

func (s *Store) GetUserByID(ctx context.Context, id uuid.UUID) (*auth.User, error) {
	doc, err := s.find(ctx, bson.D{{Key: "_id", Value: id.String()}})
	if err != nil {
		return nil, err
	}
	return doc.user()
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (*auth.User, error) {
	doc, err := s.find(ctx, bson.D{{Key: "email", Value: email}})
	if err != nil {
		return nil, err
	}
	return doc.user()
}

func (s *Store) UpdateUser(ctx context.Context, id uuid.UUID, fn func(*auth.User) error) (*auth.User, error) {
	for range maxUpdateAttempts {
		doc, err := s.find(ctx, bson.D{{Key: "_id", Value: id.String()}})
		if err != nil {
			return nil, err
		}
		u, err := doc.user()
		if err != nil {
			return nil, err
		}

		if err := fn(u); err != nil {
			return nil, err
		}
		u.ID = id

		res, err := s.coll.ReplaceOne(ctx,
			bson.D{{Key: "_id", Value: doc.ID}, {Key: "version", Value: doc.Version}},
			toDocument(u, doc.Version+1),
		)
		if err != nil {
			return nil, mapWriteErr(err)
		}
		if res.MatchedCount == 1 {
			return u, nil
		}
	}
	return nil, ErrConcurrentUpdate
}

func (s *Store) DeleteUser(ctx context.Context, id uuid.UUID) error {
	res, err := s.coll.DeleteOne(ctx, bson.D{{Key: "_id", Value: id.String()}})
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	if res.DeletedCount == 0 {
		return auth.ErrUserNotFound
	}
	return nil
}

func (s *Store) find(ctx context.Context, filter bson.D) (*userDocument, error) {
	var doc userDocument
	if err := s.coll.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, auth.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	return &doc, nil
}

func toDocument(u *auth.User, version int64) userDocument {
	return userDocument{
		ID:           u.ID.String(),
		Email:        u.Email,
		PasswordHash: u.PasswordHash,
		Confirmed:    u.Confirmed,
		CreatedAt:    u.CreatedAt.UTC(),
		UpdatedAt:    u.UpdatedAt.UTC(),
		Version:      version,
	}
}

func (d *userDocument) user() (*auth.User, error) {
	id, err := uuid.Parse(d.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to parse user id %q: %w", d.ID, err)
	}
	return &auth.User{
		ID:           id,
		Email:        d.Email,
		PasswordHash: d.PasswordHash,
		Confirmed:    d.Confirmed,
		CreatedAt:    d.CreatedAt,
		UpdatedAt:    d.UpdatedAt,
	}, nil
}

func mapWriteErr(err error) error {
	if mongo.IsDuplicateKeyError(err) {
		if strings.Contains(err.Error(), emailIndexName) {
			return errors.Join(auth.ErrEmailTaken, err)
		}
		return errors.Join(auth.ErrUserExists, err)
	}
	return fmt.Errorf("failed to write user: %w", err)
}
