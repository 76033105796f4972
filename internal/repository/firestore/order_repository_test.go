package firestore

import (
	"context"
	"errors"
	"os"
	"testing"

	"cloud.google.com/go/firestore"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/CameronXie/prosthesis-orders/internal/repository"
)

func TestToUpdates(t *testing.T) {
	testCases := map[string]struct {
		fields   map[string]any
		expected []firestore.Update
	}{
		"should sort keys and drop id": {
			fields: map[string]any{"notas": "x", "id": "abc", "estado": "listo"},
			expected: []firestore.Update{
				{FieldPath: firestore.FieldPath{"estado"}, Value: "listo"},
				{FieldPath: firestore.FieldPath{"notas"}, Value: "x"},
			},
		},
		"should keep dotted keys literal": {
			fields: map[string]any{"a.b": float64(1)},
			expected: []firestore.Update{
				{FieldPath: firestore.FieldPath{"a.b"}, Value: float64(1)},
			},
		},
		"should return no updates for empty fields": {
			fields:   map[string]any{},
			expected: []firestore.Update{},
		},
	}

	for name, tc := range testCases {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, tc.expected, toUpdates(tc.fields))
		})
	}
}

// setupTestRepository returns a repository on a fresh collection of the Firestore
// emulator at FIRESTORE_EMULATOR_HOST.
func setupTestRepository(t *testing.T) *OrderRepository {
	t.Helper()

	if os.Getenv("FIRESTORE_EMULATOR_HOST") == "" {
		t.Skip("FIRESTORE_EMULATOR_HOST is not set")
	}

	client, err := firestore.NewClient(context.Background(), "demo-prosthesis-orders")
	require.NoError(t, err)

	repo := NewOrderRepository(client, "protesis_"+uuid.NewString()[:8])
	t.Cleanup(func() { _ = repo.Close() })

	return repo
}

func TestOrderRepository_Emulator(t *testing.T) {
	repo := setupTestRepository(t)
	ctx := context.Background()

	older, err := repo.CreateOrder(ctx, map[string]any{"paciente": "A", "fecha_pedido": "2024-01-01"})
	require.NoError(t, err)
	newer, err := repo.CreateOrder(ctx, map[string]any{"paciente": "B", "fecha_pedido": "2024-06-01", "id": "ignored"})
	require.NoError(t, err)
	assert.NotEmpty(t, older.ID)
	assert.NotEqual(t, older.ID, newer.ID)

	orders, err := repo.ListOrders(ctx)
	require.NoError(t, err)
	require.Len(t, orders, 2)
	assert.Equal(t, newer.ID, orders[0].ID)
	assert.NotContains(t, orders[0].Fields, "id")

	require.NoError(t, repo.UpdateOrder(ctx, older.ID, map[string]any{"recibe": "M. Paz"}))

	var notFoundErr *repository.NotFoundError
	err = repo.UpdateOrder(ctx, "missing", map[string]any{"recibe": "x"})
	assert.True(t, errors.As(err, &notFoundErr))

	err = repo.BulkUpdateOrders(ctx, []string{older.ID, "missing"}, map[string]any{"estado": "x"})
	assert.True(t, errors.As(err, &notFoundErr))

	require.NoError(t, repo.BulkUpdateOrders(ctx, []string{older.ID, newer.ID}, map[string]any{"estado": "listo"}))

	orders, err = repo.ListOrders(ctx)
	require.NoError(t, err)
	for _, o := range orders {
		assert.Equal(t, "listo", o.Fields["estado"])
	}
	assert.Equal(t, "M. Paz", orders[1].Fields["recibe"])

	require.NoError(t, repo.DeleteOrder(ctx, older.ID))
	orders, err = repo.ListOrders(ctx)
	require.NoError(t, err)
	require.Len(t, orders, 1)
	assert.Equal(t, newer.ID, orders[0].ID)
}
