package sqlite

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/CameronXie/prosthesis-orders/internal/domain"
	"github.com/CameronXie/prosthesis-orders/internal/repository"
)

// Sort ranks of the fecha_pedido value type. Descending order lists strings before
// numbers before booleans, and orders without a date last.
const (
	orderDateRankNone = iota
	orderDateRankBool
	orderDateRankNumber
	orderDateRankString
	orderDateRankOther
)

// orderDocument is the row shape of an order document. The OrderDate* columns mirror
// the fecha_pedido field so listings can be sorted in SQL.
type orderDocument struct {
	ID            string            `gorm:"primaryKey;column:id"`
	Collection    string            `gorm:"column:collection;index:idx_orders_collection_date,priority:1"`
	OrderDateRank int               `gorm:"column:order_date_rank;index:idx_orders_collection_date,priority:2"`
	OrderDateNum  float64           `gorm:"column:order_date_num;index:idx_orders_collection_date,priority:3"`
	OrderDate     string            `gorm:"column:order_date;index:idx_orders_collection_date,priority:4"`
	Fields        datatypes.JSONMap `gorm:"column:fields"`
	CreatedAt     time.Time         `gorm:"column:created_at"`
	UpdatedAt     time.Time         `gorm:"column:updated_at"`
}

func (orderDocument) TableName() string {
	return "order_documents"
}

// Open opens the SQLite database at dsn and migrates the order schema.
func Open(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", dsn, err)
	}

	if err := db.AutoMigrate(&orderDocument{}); err != nil {
		return nil, fmt.Errorf("migrate order documents: %w", err)
	}

	return db, nil
}

// OrderRepository stores orders of one collection as JSON documents in SQLite
type OrderRepository struct {
	db         *gorm.DB
	collection string
}

// NewOrderRepository creates a new OrderRepository instance
func NewOrderRepository(db *gorm.DB, collection string) *OrderRepository {
	return &OrderRepository{
		db:         db,
		collection: collection,
	}
}

// ListOrders returns every order of the collection, newest order date first.
func (r *OrderRepository) ListOrders(ctx context.Context) ([]*domain.Order, error) {
	var docs []orderDocument
	err := r.db.WithContext(ctx).
		Where("collection = ?", r.collection).
		Order("order_date_rank DESC").
		Order("order_date_num DESC").
		Order("order_date DESC").
		Order("created_at DESC").
		Find(&docs).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}

	orders := make([]*domain.Order, 0, len(docs))
	for i := range docs {
		orders = append(orders, domain.NewOrder(docs[i].ID, docs[i].Fields))
	}

	return orders, nil
}

// CreateOrder stores fields as a new order under a generated ID.
func (r *OrderRepository) CreateOrder(ctx context.Context, fields map[string]any) (*domain.Order, error) {
	order := domain.NewOrder(uuid.NewString(), fields)
	doc := orderDocument{
		ID:         order.ID,
		Collection: r.collection,
		Fields:     datatypes.JSONMap(order.Fields),
	}
	doc.setOrderDate()

	if err := r.db.WithContext(ctx).Create(&doc).Error; err != nil {
		return nil, fmt.Errorf("failed to create order: %w", err)
	}

	return order, nil
}

// UpdateOrder merges fields into the order with the given ID.
func (r *OrderRepository) UpdateOrder(ctx context.Context, id string, fields map[string]any) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return r.merge(tx, id, fields)
	})
}

// BulkUpdateOrders merges fields into every listed order in one transaction.
// A missing order rolls back the whole batch.
func (r *OrderRepository) BulkUpdateOrders(ctx context.Context, ids []string, fields map[string]any) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, id := range ids {
			if err := r.merge(tx, id, fields); err != nil {
				return err
			}
		}

		return nil
	})
}

// DeleteOrder removes the order with the given ID. Deleting a missing order is not an error.
func (r *OrderRepository) DeleteOrder(ctx context.Context, id string) error {
	err := r.db.WithContext(ctx).
		Where("id = ? AND collection = ?", id, r.collection).
		Delete(&orderDocument{}).Error
	if err != nil {
		return fmt.Errorf("failed to delete order %s: %w", id, err)
	}

	return nil
}

// Close releases the underlying database handle.
func (r *OrderRepository) Close() error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}

	return sqlDB.Close()
}

func (r *OrderRepository) merge(tx *gorm.DB, id string, fields map[string]any) error {
	var doc orderDocument
	err := tx.Where("id = ? AND collection = ?", id, r.collection).Take(&doc).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return repository.OrderNotFound(id)
		}
		return fmt.Errorf("failed to load order %s: %w", id, err)
	}

	merged := make(datatypes.JSONMap, len(doc.Fields)+len(fields))
	for k, v := range doc.Fields {
		merged[k] = v
	}
	for k, v := range domain.WithoutID(fields) {
		merged[k] = v
	}

	doc.Fields = merged
	doc.setOrderDate()
	if err := tx.Save(&doc).Error; err != nil {
		return fmt.Errorf("failed to update order %s: %w", id, err)
	}

	return nil
}

// setOrderDate derives the sort columns from the fecha_pedido field.
func (d *orderDocument) setOrderDate() {
	d.OrderDateRank, d.OrderDateNum, d.OrderDate = orderDateKey(d.Fields[domain.FieldOrderDate])
}

// orderDateKey returns the type rank, numeric key and text key of an order date value.
func orderDateKey(v any) (int, float64, string) {
	switch date := v.(type) {
	case nil:
		return orderDateRankNone, 0, ""
	case bool:
		if date {
			return orderDateRankBool, 1, ""
		}
		return orderDateRankBool, 0, ""
	case float64:
		return orderDateRankNumber, date, ""
	case float32:
		return orderDateRankNumber, float64(date), ""
	case int:
		return orderDateRankNumber, float64(date), ""
	case int64:
		return orderDateRankNumber, float64(date), ""
	case json.Number:
		f, err := date.Float64()
		if err != nil {
			return orderDateRankString, 0, date.String()
		}
		return orderDateRankNumber, f, ""
	case string:
		return orderDateRankString, 0, date
	default:
		return orderDateRankOther, 0, fmt.Sprint(date)
	}
}
