package mongo

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/CameronXie/prosthesis-orders/internal/domain"
	"github.com/CameronXie/prosthesis-orders/internal/repository"
)

const mongoIDField = "_id"

// Connect opens a client for uri and verifies connectivity.
func Connect(ctx context.Context, uri string) (*mongo.Client, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("ping mongo: %w", err)
	}

	return client, nil
}

// OrderRepository provides order operations backed by a MongoDB collection.
// Bulk updates run in a multi-document transaction and need a replica set.
type OrderRepository struct {
	client     *mongo.Client
	collection *mongo.Collection
}

// NewOrderRepository creates a new OrderRepository instance
func NewOrderRepository(client *mongo.Client, database, collection string) *OrderRepository {
	return &OrderRepository{
		client:     client,
		collection: client.Database(database).Collection(collection),
	}
}

// ListOrders returns every order, newest order date first.
func (r *OrderRepository) ListOrders(ctx context.Context) ([]*domain.Order, error) {
	opts := options.Find().SetSort(bson.D{{Key: domain.FieldOrderDate, Value: -1}})
	cursor, err := r.collection.Find(ctx, bson.D{}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	defer cursor.Close(ctx)

	orders := make([]*domain.Order, 0)
	for cursor.Next(ctx) {
		var doc bson.M
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("decode order: %w", err)
		}
		orders = append(orders, toOrder(doc))
	}

	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}

	return orders, nil
}

// CreateOrder inserts fields as a new document and returns it with the generated ID.
func (r *OrderRepository) CreateOrder(ctx context.Context, fields map[string]any) (*domain.Order, error) {
	doc := toDocument(fields)

	res, err := r.collection.InsertOne(ctx, doc)
	if err != nil {
		return nil, fmt.Errorf("failed to create order: %w", err)
	}

	oid, ok := res.InsertedID.(primitive.ObjectID)
	if !ok {
		return nil, fmt.Errorf("unexpected inserted id type %T", res.InsertedID)
	}

	return domain.NewOrder(oid.Hex(), doc), nil
}

// UpdateOrder sets fields on the order with the given ID.
func (r *OrderRepository) UpdateOrder(ctx context.Context, id string, fields map[string]any) error {
	return r.update(ctx, id, fields)
}

// BulkUpdateOrders sets fields on every listed order inside one transaction.
func (r *OrderRepository) BulkUpdateOrders(ctx context.Context, ids []string, fields map[string]any) error {
	session, err := r.client.StartSession()
	if err != nil {
		return fmt.Errorf("start session: %w", err)
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sc mongo.SessionContext) (any, error) {
		for _, id := range ids {
			if err := r.update(sc, id, fields); err != nil {
				return nil, err
			}
		}
		return nil, nil
	})
	if err != nil {
		return fmt.Errorf("failed to bulk update orders: %w", err)
	}

	return nil
}

// DeleteOrder removes the order with the given ID. Deleting a missing order is not an error.
func (r *OrderRepository) DeleteOrder(ctx context.Context, id string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil
	}

	if _, err := r.collection.DeleteOne(ctx, bson.M{mongoIDField: oid}); err != nil {
		return fmt.Errorf("failed to delete order %s: %w", id, err)
	}

	return nil
}

// Close disconnects the client.
func (r *OrderRepository) Close() error {
	return r.client.Disconnect(context.Background())
}

func (r *OrderRepository) update(ctx context.Context, id string, fields map[string]any) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return repository.OrderNotFound(id)
	}

	set := toDocument(fields)
	if len(set) == 0 {
		return r.ensureExists(ctx, oid, id)
	}

	res, err := r.collection.UpdateOne(ctx, bson.M{mongoIDField: oid}, bson.M{"$set": set})
	if err != nil {
		return fmt.Errorf("failed to update order %s: %w", id, err)
	}

	if res.MatchedCount == 0 {
		return repository.OrderNotFound(id)
	}

	return nil
}

func (r *OrderRepository) ensureExists(ctx context.Context, oid primitive.ObjectID, id string) error {
	err := r.collection.FindOne(ctx, bson.M{mongoIDField: oid}).Err()
	if errors.Is(err, mongo.ErrNoDocuments) {
		return repository.OrderNotFound(id)
	}
	if err != nil {
		return fmt.Errorf("failed to load order %s: %w", id, err)
	}

	return nil
}

// toDocument copies fields without the "id" and "_id" keys.
func toDocument(fields map[string]any) bson.M {
	doc := bson.M(domain.WithoutID(fields))
	delete(doc, mongoIDField)

	return doc
}

func toOrder(doc bson.M) *domain.Order {
	id := ""
	if oid, ok := doc[mongoIDField].(primitive.ObjectID); ok {
		id = oid.Hex()
	}
	delete(doc, mongoIDField)

	return domain.NewOrder(id, doc)
}
