package firestore

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"cloud.google.com/go/firestore"
	firebase "firebase.google.com/go/v4"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/CameronXie/prosthesis-orders/internal/domain"
	"github.com/CameronXie/prosthesis-orders/internal/repository"
)

// NewClient initializes a Firebase app from service-account credentials and returns its
// Firestore client. An empty projectID is taken from the credentials.
func NewClient(ctx context.Context, projectID string, credentialsJSON []byte) (*firestore.Client, error) {
	app, err := firebase.NewApp(
		ctx,
		&firebase.Config{ProjectID: projectID},
		option.WithCredentialsJSON(credentialsJSON),
	)
	if err != nil {
		return nil, fmt.Errorf("init firebase app: %w", err)
	}

	client, err := app.Firestore(ctx)
	if err != nil {
		return nil, fmt.Errorf("init firestore client: %w", err)
	}

	return client, nil
}

// OrderRepository provides order operations on a Firestore collection
type OrderRepository struct {
	client     *firestore.Client
	collection string
}

// NewOrderRepository creates a new OrderRepository instance
func NewOrderRepository(client *firestore.Client, collection string) *OrderRepository {
	return &OrderRepository{
		client:     client,
		collection: collection,
	}
}

// ListOrders returns the orders of the collection sorted by fecha_pedido, newest first.
// Firestore leaves documents without fecha_pedido out of ordered queries.
func (r *OrderRepository) ListOrders(ctx context.Context) ([]*domain.Order, error) {
	docs, err := r.client.Collection(r.collection).
		OrderBy(domain.FieldOrderDate, firestore.Desc).
		Documents(ctx).
		GetAll()
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}

	orders := make([]*domain.Order, 0, len(docs))
	for _, doc := range docs {
		orders = append(orders, domain.NewOrder(doc.Ref.ID, doc.Data()))
	}

	return orders, nil
}

// CreateOrder adds fields as a new document with an auto-generated ID.
func (r *OrderRepository) CreateOrder(ctx context.Context, fields map[string]any) (*domain.Order, error) {
	order := domain.NewOrder("", fields)

	ref, _, err := r.client.Collection(r.collection).Add(ctx, order.Fields)
	if err != nil {
		return nil, fmt.Errorf("failed to create order: %w", err)
	}

	order.ID = ref.ID
	return order, nil
}

// UpdateOrder updates the given top-level fields of an existing order.
func (r *OrderRepository) UpdateOrder(ctx context.Context, id string, fields map[string]any) error {
	ref := r.client.Collection(r.collection).Doc(id)
	updates := toUpdates(fields)

	var err error
	if len(updates) == 0 {
		_, err = ref.Get(ctx)
	} else {
		_, err = ref.Update(ctx, updates)
	}

	if err != nil {
		if status.Code(err) == codes.NotFound {
			return repository.OrderNotFound(id)
		}
		return fmt.Errorf("failed to update order %s: %w", id, err)
	}

	return nil
}

// BulkUpdateOrders applies fields to every listed order in a single transaction.
// If any order does not exist nothing is written.
func (r *OrderRepository) BulkUpdateOrders(ctx context.Context, ids []string, fields map[string]any) error {
	updates := toUpdates(fields)
	coll := r.client.Collection(r.collection)

	err := r.client.RunTransaction(ctx, func(_ context.Context, tx *firestore.Transaction) error {
		for _, id := range ids {
			ref := coll.Doc(id)
			if len(updates) == 0 {
				if _, err := tx.Get(ref); err != nil {
					return err
				}
				continue
			}

			if err := tx.Update(ref, updates); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return &repository.NotFoundError{
				Resource: repository.OrderResource,
				Key:      "ids",
				Value:    strings.Join(ids, ","),
			}
		}
		return fmt.Errorf("failed to bulk update orders: %w", err)
	}

	return nil
}

// DeleteOrder removes the order with the given ID. Deleting a missing order is not an error.
func (r *OrderRepository) DeleteOrder(ctx context.Context, id string) error {
	if _, err := r.client.Collection(r.collection).Doc(id).Delete(ctx); err != nil {
		return fmt.Errorf("failed to delete order %s: %w", id, err)
	}

	return nil
}

// Close closes the Firestore client.
func (r *OrderRepository) Close() error {
	return r.client.Close()
}

// toUpdates converts fields into top-level updates in key order, skipping "id".
// Keys are used as literal field names, never parsed as dotted paths.
func toUpdates(fields map[string]any) []firestore.Update {
	keys := make([]string, 0, len(fields))
	for k := range domain.WithoutID(fields) {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	updates := make([]firestore.Update, 0, len(keys))
	for _, k := range keys {
		updates = append(updates, firestore.Update{
			FieldPath: firestore.FieldPath{k},
			Value:     fields[k],
		})
	}

	return updates
}
