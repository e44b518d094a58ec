// Package mongo stores billing state in MongoDB. Transactions need a replica
// set or sharded cluster.
package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/noah-isme/billing-service/internal/billing"
)

const (
	collProducts = "products"
	collServices = "services"
	collUsers    = "users"
	collOrders   = "orders"
)

// Store implements billing.Store on top of a mongo database.
type Store struct {
	client  *mongo.Client
	db      *mongo.Database
	session mongo.Session
}

// Connect dials MongoDB and verifies the primary is reachable.
func Connect(ctx context.Context, uri, database string) (*Store, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongo: %w", err)
	}
	return New(client, database), nil
}

// New wraps an existing client.
func New(client *mongo.Client, database string) *Store {
	return &Store{client: client, db: client.Database(database)}
}

// EnsureIndexes creates the secondary indexes the queries rely on.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	_, err := s.db.Collection(collOrders).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "userId", Value: 1}, {Key: "createdAt", Value: -1}},
	})
	if err != nil {
		return fmt.Errorf("create orders index: %w", err)
	}
	return nil
}

// Close disconnects the client.
func (s *Store) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

// Ping checks connectivity.
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, readpref.Primary())
}

// ctx binds the operation to the active transaction when there is one.
func (s *Store) ctx(ctx context.Context) context.Context {
	if s.session == nil {
		return ctx
	}
	return mongo.NewSessionContext(ctx, s.session)
}

// Catalog implements billing.Store.
func (s *Store) Catalog() billing.CatalogStore { return catalogStore{s} }

// Users implements billing.Store.
func (s *Store) Users() billing.UserStore { return userStore{s} }

// Orders implements billing.Store.
func (s *Store) Orders() billing.OrderStore { return orderStore{s} }

// InTx implements billing.Store. The driver may re-run fn on transient
// transaction errors, so fn must not keep state between attempts.
func (s *Store) InTx(ctx context.Context, fn func(tx billing.Store) error) error {
	if s.session != nil {
		return fn(s)
	}
	sess, err := s.client.StartSession()
	if err != nil {
		return fmt.Errorf("start session: %w", err)
	}
	defer sess.EndSession(context.Background())
	tx := &Store{client: s.client, db: s.db, session: sess}
	_, err = sess.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		return nil, fn(tx)
	})
	return translate(err)
}

func translate(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, billing.ErrNotFound) || errors.Is(err, billing.ErrConflict) || errors.Is(err, billing.ErrValidation) {
		return err
	}
	var se mongo.ServerError
	if errors.As(err, &se) && (se.HasErrorLabel("TransientTransactionError") || se.HasErrorCode(112)) {
		return fmt.Errorf("%v: %w", err, billing.ErrConflict)
	}
	if mongo.IsDuplicateKeyError(err) {
		return fmt.Errorf("%v: %w", err, billing.ErrConflict)
	}
	return err
}

type itemDoc struct {
	ID    string               `bson:"_id"`
	Name  string               `bson:"name"`
	Price primitive.Decimal128 `bson:"price"`
}

func (d itemDoc) item(kind billing.Kind) (billing.Item, error) {
	price, err := decimal.NewFromString(d.Price.String())
	if err != nil {
		return billing.Item{}, fmt.Errorf("decode price of %s: %w", d.ID, err)
	}
	return billing.Item{ID: d.ID, Kind: kind, Name: d.Name, Price: price}, nil
}

func kindCollection(kind billing.Kind) (string, error) {
	switch kind {
	case billing.KindProduct:
		return collProducts, nil
	case billing.KindService:
		return collServices, nil
	default:
		return "", fmt.Errorf("unknown item kind %q: %w", kind, billing.ErrValidation)
	}
}

type catalogStore struct{ s *Store }

// Resolve looks in the products collection first, then services.
func (c catalogStore) Resolve(ctx context.Context, id string) (billing.Item, error) {
	ctx = c.s.ctx(ctx)
	for _, kind := range []billing.Kind{billing.KindProduct, billing.KindService} {
		coll, _ := kindCollection(kind)
		var doc itemDoc
		err := c.s.db.Collection(coll).FindOne(ctx, bson.M{"_id": id}).Decode(&doc)
		if errors.Is(err, mongo.ErrNoDocuments) {
			continue
		}
		if err != nil {
			return billing.Item{}, translate(err)
		}
		return doc.item(kind)
	}
	return billing.Item{}, fmt.Errorf("item %s: %w", id, billing.ErrNotFound)
}

func (c catalogStore) ListByKind(ctx context.Context, kind billing.Kind) ([]billing.Item, error) {
	coll, err := kindCollection(kind)
	if err != nil {
		return nil, err
	}
	ctx = c.s.ctx(ctx)
	cursor, err := c.s.db.Collection(coll).Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "name", Value: 1}, {Key: "_id", Value: 1}}))
	if err != nil {
		return nil, translate(err)
	}
	defer cursor.Close(ctx)
	items := []billing.Item{}
	for cursor.Next(ctx) {
		var doc itemDoc
		if err := cursor.Decode(&doc); err != nil {
			return nil, err
		}
		it, err := doc.item(kind)
		if err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, translate(cursor.Err())
}

func (c catalogStore) Create(ctx context.Context, item billing.Item) (billing.Item, error) {
	if err := item.Validate(); err != nil {
		return billing.Item{}, err
	}
	coll, err := kindCollection(item.Kind)
	if err != nil {
		return billing.Item{}, err
	}
	if item.ID == "" {
		item.ID = uuid.NewString()
	}
	price, err := primitive.ParseDecimal128(item.Price.String())
	if err != nil {
		return billing.Item{}, fmt.Errorf("encode price: %w", billing.ErrValidation)
	}
	if _, err := c.s.db.Collection(coll).InsertOne(c.s.ctx(ctx), itemDoc{ID: item.ID, Name: item.Name, Price: price}); err != nil {
		return billing.Item{}, translate(err)
	}
	return item, nil
}

type userDoc struct {
	ID        string    `bson:"_id"`
	Name      string    `bson:"name"`
	Email     string    `bson:"email"`
	Cart      []string  `bson:"cart"`
	Version   int64     `bson:"version"`
	CreatedAt time.Time `bson:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt"`
}

func (d userDoc) user() billing.User {
	cart := d.Cart
	if cart == nil {
		cart = []string{}
	}
	return billing.User{
		ID:        d.ID,
		Name:      d.Name,
		Email:     d.Email,
		Cart:      cart,
		Version:   d.Version,
		CreatedAt: d.CreatedAt,
		UpdatedAt: d.UpdatedAt,
	}
}

type userStore struct{ s *Store }

func (u userStore) Get(ctx context.Context, id string) (billing.User, error) {
	var doc userDoc
	err := u.s.db.Collection(collUsers).FindOne(u.s.ctx(ctx), bson.M{"_id": id}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return billing.User{}, billing.UserNotFound(id)
	}
	if err != nil {
		return billing.User{}, translate(err)
	}
	return doc.user(), nil
}

func (u userStore) Create(ctx context.Context, user billing.User) (billing.User, error) {
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	if user.Cart == nil {
		user.Cart = []string{}
	}
	now := time.Now().UTC().Truncate(time.Millisecond)
	user.Version = 1
	user.CreatedAt = now
	user.UpdatedAt = now
	doc := userDoc{ID: user.ID, Name: user.Name, Email: user.Email, Cart: user.Cart, Version: user.Version, CreatedAt: now, UpdatedAt: now}
	if _, err := u.s.db.Collection(collUsers).InsertOne(u.s.ctx(ctx), doc); err != nil {
		return billing.User{}, translate(err)
	}
	return user, nil
}

func (u userStore) Save(ctx context.Context, user billing.User) (billing.User, error) {
	ctx = u.s.ctx(ctx)
	if user.Cart == nil {
		user.Cart = []string{}
	}
	now := time.Now().UTC().Truncate(time.Millisecond)
	res, err := u.s.db.Collection(collUsers).UpdateOne(ctx,
		bson.M{"_id": user.ID, "version": user.Version},
		bson.M{
			"$set": bson.M{"name": user.Name, "email": user.Email, "cart": user.Cart, "updatedAt": now},
			"$inc": bson.M{"version": 1},
		})
	if err != nil {
		return billing.User{}, translate(err)
	}
	if res.MatchedCount == 0 {
		n, err := u.s.db.Collection(collUsers).CountDocuments(ctx, bson.M{"_id": user.ID})
		if err != nil {
			return billing.User{}, translate(err)
		}
		if n == 0 {
			return billing.User{}, billing.UserNotFound(user.ID)
		}
		return billing.User{}, fmt.Errorf("user %s changed concurrently: %w", user.ID, billing.ErrConflict)
	}
	user.Version++
	user.UpdatedAt = now
	return user, nil
}

type orderDoc struct {
	ID        string               `bson:"_id"`
	UserID    string               `bson:"userId"`
	Items     []string             `bson:"items"`
	TotalBill primitive.Decimal128 `bson:"totalBill"`
	CreatedAt time.Time            `bson:"createdAt"`
}

type orderStore struct{ s *Store }

func (o orderStore) Create(ctx context.Context, order billing.Order) (billing.Order, error) {
	order.ID = uuid.NewString()
	if order.Items == nil {
		order.Items = []string{}
	}
	if order.CreatedAt.IsZero() {
		order.CreatedAt = time.Now().UTC().Truncate(time.Millisecond)
	}
	total, err := primitive.ParseDecimal128(order.TotalBill.String())
	if err != nil {
		return billing.Order{}, fmt.Errorf("encode total: %w", err)
	}
	doc := orderDoc{ID: order.ID, UserID: order.UserID, Items: order.Items, TotalBill: total, CreatedAt: order.CreatedAt}
	if _, err := o.s.db.Collection(collOrders).InsertOne(o.s.ctx(ctx), doc); err != nil {
		return billing.Order{}, translate(err)
	}
	return order, nil
}

func (o orderStore) ListByUser(ctx context.Context, userID string) ([]billing.Order, error) {
	ctx = o.s.ctx(ctx)
	cursor, err := o.s.db.Collection(collOrders).Find(ctx, bson.M{"userId": userID},
		options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}))
	if err != nil {
		return nil, translate(err)
	}
	defer cursor.Close(ctx)
	orders := []billing.Order{}
	for cursor.Next(ctx) {
		var doc orderDoc
		if err := cursor.Decode(&doc); err != nil {
			return nil, err
		}
		total, err := decimal.NewFromString(doc.TotalBill.String())
		if err != nil {
			return nil, fmt.Errorf("decode total of order %s: %w", doc.ID, err)
		}
		orders = append(orders, billing.Order{ID: doc.ID, UserID: doc.UserID, Items: doc.Items, TotalBill: total, CreatedAt: doc.CreatedAt})
	}
	return orders, translate(cursor.Err())
}
