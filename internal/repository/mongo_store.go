package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/eaglebank/bank-api/shared/models"
)

const (
	usersCollection    = "users"
	accountsCollection = "accounts"
)

type userDocument struct {
	ID        primitive.ObjectID   `bson:"_id,omitempty"`
	Name      string               `bson:"name"`
	Email     string               `bson:"email"`
	IsActive  bool                 `bson:"isActive"`
	Accounts  []primitive.ObjectID `bson:"accounts"`
	CreatedAt time.Time            `bson:"createdAt"`
	UpdatedAt time.Time            `bson:"updatedAt"`
}

type accountDocument struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	Owner     primitive.ObjectID `bson:"owner"`
	Cash      float64            `bson:"cash"`
	Credit    float64            `bson:"credit"`
	CreatedAt time.Time          `bson:"createdAt"`
	UpdatedAt time.Time          `bson:"updatedAt"`
}

// MongoStore keeps users and accounts as documents; ids are ObjectIDs rendered as hex.
type MongoStore struct {
	client   *mongo.Client
	users    *mongo.Collection
	accounts *mongo.Collection
}

// OpenMongo connects to uri and binds the store to database.
func OpenMongo(ctx context.Context, uri, database string) (*MongoStore, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongo: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping mongo: %w", err)
	}

	db := client.Database(database)
	s := &MongoStore{
		client:   client,
		users:    db.Collection(usersCollection),
		accounts: db.Collection(accountsCollection),
	}
	if _, err := s.accounts.Indexes().CreateOne(ctx, mongo.IndexModel{Keys: bson.D{{Key: "owner", Value: 1}}}); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to create owner index: %w", err)
	}
	return s, nil
}

func (s *MongoStore) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}

func (s *MongoStore) CreateUser(ctx context.Context, u *models.User) error {
	now := time.Now().UTC()
	doc := userDocument{
		ID:        primitive.NewObjectID(),
		Name:      u.Name,
		Email:     u.Email,
		IsActive:  u.IsActive,
		CreatedAt: now,
		UpdatedAt: now,
	}
	accounts, err := toObjectIDs(u.Accounts)
	if err != nil {
		return err
	}
	doc.Accounts = accounts
	if _, err := s.users.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	*u = *doc.toModel()
	return nil
}

func (s *MongoStore) GetUser(ctx context.Context, id string) (*models.User, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrNotFound
	}
	var doc userDocument
	err = s.users.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return doc.toModel(), nil
}

func (s *MongoStore) FindUsers(ctx context.Context, filter UserFilter) ([]models.User, error) {
	query := bson.M{}
	if filter.IsActive != nil {
		query["isActive"] = *filter.IsActive
	}
	cursor, err := s.users.Find(ctx, query, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	var docs []userDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode users: %w", err)
	}
	users := make([]models.User, 0, len(docs))
	for i := range docs {
		users = append(users, *docs[i].toModel())
	}
	return users, nil
}

func (s *MongoStore) UpdateUser(ctx context.Context, u *models.User) error {
	oid, err := primitive.ObjectIDFromHex(u.ID)
	if err != nil {
		return ErrNotFound
	}
	accounts, err := toObjectIDs(u.Accounts)
	if err != nil {
		return err
	}
	u.UpdatedAt = time.Now().UTC()
	update := bson.M{"$set": bson.M{
		"name":      u.Name,
		"email":     u.Email,
		"isActive":  u.IsActive,
		"accounts":  accounts,
		"updatedAt": u.UpdatedAt,
	}}
	result, err := s.users.UpdateByID(ctx, oid, update)
	if err != nil {
		return fmt.Errorf("failed to update user: %w", err)
	}
	if result.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *MongoStore) DeleteUser(ctx context.Context, id string) error {
	return deleteByID(ctx, s.users, id, "user")
}

func (s *MongoStore) CreateAccount(ctx context.Context, a *models.Account) error {
	owner, err := primitive.ObjectIDFromHex(a.Owner)
	if err != nil {
		return fmt.Errorf("invalid owner id %q: %w", a.Owner, err)
	}
	now := time.Now().UTC()
	doc := accountDocument{
		ID:        primitive.NewObjectID(),
		Owner:     owner,
		Cash:      a.Cash,
		Credit:    a.Credit,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if _, err := s.accounts.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("failed to create account: %w", err)
	}
	*a = *doc.toModel()
	return nil
}

func (s *MongoStore) GetAccount(ctx context.Context, id string) (*models.Account, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrNotFound
	}
	var doc accountDocument
	err = s.accounts.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get account: %w", err)
	}
	return doc.toModel(), nil
}

func (s *MongoStore) FindAccounts(ctx context.Context, filter AccountFilter) ([]models.Account, error) {
	query, err := accountQuery(filter)
	if err != nil {
		return []models.Account{}, nil
	}
	cursor, err := s.accounts.Find(ctx, query, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("failed to list accounts: %w", err)
	}
	var docs []accountDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode accounts: %w", err)
	}
	accounts := make([]models.Account, 0, len(docs))
	for i := range docs {
		accounts = append(accounts, *docs[i].toModel())
	}
	return accounts, nil
}

// accountQuery renders filter as a Mongo query. Conditions on different fields are implicitly ANDed.
// An owner that is not a valid ObjectID cannot match anything and is reported as an error.
func accountQuery(filter AccountFilter) (bson.M, error) {
	query := bson.M{}
	if filter.Owner != "" {
		owner, err := primitive.ObjectIDFromHex(filter.Owner)
		if err != nil {
			return nil, err
		}
		query["owner"] = owner
	}
	if t := filter.Threshold; t != nil {
		op := "$gt"
		if t.Direction == models.LessThan {
			op = "$lt"
		}
		if t.Cash != nil {
			query["cash"] = bson.M{op: *t.Cash}
		}
		if t.Credit != nil {
			query["credit"] = bson.M{op: *t.Credit}
		}
	}
	return query, nil
}

func (s *MongoStore) UpdateAccount(ctx context.Context, a *models.Account) error {
	oid, err := primitive.ObjectIDFromHex(a.ID)
	if err != nil {
		return ErrNotFound
	}
	a.UpdatedAt = time.Now().UTC()
	update := bson.M{"$set": bson.M{
		"cash":      a.Cash,
		"credit":    a.Credit,
		"updatedAt": a.UpdatedAt,
	}}
	result, err := s.accounts.UpdateByID(ctx, oid, update)
	if err != nil {
		return fmt.Errorf("failed to update account: %w", err)
	}
	if result.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *MongoStore) DeleteAccount(ctx context.Context, id string) error {
	return deleteByID(ctx, s.accounts, id, "account")
}

func (s *MongoStore) DeleteAccountsByOwner(ctx context.Context, owner string) (int64, error) {
	oid, err := primitive.ObjectIDFromHex(owner)
	if err != nil {
		return 0, nil
	}
	result, err := s.accounts.DeleteMany(ctx, bson.M{"owner": oid})
	if err != nil {
		return 0, fmt.Errorf("failed to delete accounts of %s: %w", owner, err)
	}
	return result.DeletedCount, nil
}

func deleteByID(ctx context.Context, coll *mongo.Collection, id, kind string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return ErrNotFound
	}
	result, err := coll.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return fmt.Errorf("failed to delete %s: %w", kind, err)
	}
	if result.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func toObjectIDs(ids []string) ([]primitive.ObjectID, error) {
	out := make([]primitive.ObjectID, 0, len(ids))
	for _, id := range ids {
		oid, err := primitive.ObjectIDFromHex(id)
		if err != nil {
			return nil, fmt.Errorf("invalid account id %q: %w", id, err)
		}
		out = append(out, oid)
	}
	return out, nil
}

func (d *userDocument) toModel() *models.User {
	accounts := make([]string, 0, len(d.Accounts))
	for _, oid := range d.Accounts {
		accounts = append(accounts, oid.Hex())
	}
	return &models.User{
		ID:        d.ID.Hex(),
		Name:      d.Name,
		Email:     d.Email,
		IsActive:  d.IsActive,
		Accounts:  accounts,
		CreatedAt: d.CreatedAt,
		UpdatedAt: d.UpdatedAt,
	}
}

func (d *accountDocument) toModel() *models.Account {
	return &models.Account{
		ID:        d.ID.Hex(),
		Owner:     d.Owner.Hex(),
		Cash:      d.Cash,
		Credit:    d.Credit,
		CreatedAt: d.CreatedAt,
		UpdatedAt: d.UpdatedAt,
	}
}
