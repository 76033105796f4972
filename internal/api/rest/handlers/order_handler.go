package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"slices"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/CameronXie/prosthesis-orders/internal/api/rest/response"
	"github.com/CameronXie/prosthesis-orders/internal/authn"
	"github.com/CameronXie/prosthesis-orders/internal/domain"
	"github.com/CameronXie/prosthesis-orders/internal/repository"
)

const (
	invalidRequestBodyMessage    = "Cuerpo de la petición inválido"
	requestBodyTooLargeMessage   = "Cuerpo de la petición demasiado grande"
	listFailedMessage            = "Error al obtener datos"
	missingRequiredFieldsMessage = "Faltan datos requeridos (paciente, empresa, medico)"
	createFailedMessage          = "Error al guardar datos"
	updatedMessage               = "Prótesis actualizada"
	updateFailedMessage          = "Error al actualizar datos"
	incorrectPINMessage          = "PIN incorrecto. Operación denegada."
	deletedMessage               = "Prótesis eliminada"
	deleteFailedMessage          = "Error al eliminar datos"
	idsRequiredMessage           = "Se requiere un arreglo de IDs"
	updateDataRequiredMessage    = "Se requiere updateData"
	bulkUpdatedMessageFormat     = "%d registros actualizados"
	bulkUpdateFailedMessage      = "Error al actualizar datos masivamente"

	idParam = "id"

	// MaxBodyBytes caps every request body.
	MaxBodyBytes = 100 << 10
)

var (
	errNotAnObject  = errors.New("request body must be a JSON object")
	errTrailingData = errors.New("request body has data after the JSON value")
)

// OrderRepository persists prosthesis orders.
type OrderRepository interface {
	ListOrders(ctx context.Context) ([]*domain.Order, error)
	CreateOrder(ctx context.Context, fields map[string]any) (*domain.Order, error)
	UpdateOrder(ctx context.Context, id string, fields map[string]any) error
	BulkUpdateOrders(ctx context.Context, ids []string, fields map[string]any) error
	DeleteOrder(ctx context.Context, id string) error
}

// NotificationDispatcher announces newly created orders without blocking the caller.
type NotificationDispatcher interface {
	Dispatch(order *domain.Order)
}

type deleteRequest struct {
	PIN string `json:"pin"`
}

type bulkUpdateRequest struct {
	IDs        json.RawMessage `json:"ids"`
	UpdateData json.RawMessage `json:"updateData"`
}

// OrderHandler serves the CRUD and bulk update endpoints of the order collection.
type OrderHandler struct {
	repo       OrderRepository
	authorizer authn.Authorizer
	dispatcher NotificationDispatcher
	logger     *slog.Logger
}

// ListOrders returns every order, most recent fecha_pedido first.
func (h *OrderHandler) ListOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := h.repo.ListOrders(r.Context())
	if err != nil {
		h.log(r).ErrorContext(r.Context(), "failed to list orders", "error", err)
		response.JSONErrorResponse(w, http.StatusInternalServerError, listFailedMessage)
		return
	}

	if orders == nil {
		orders = []*domain.Order{}
	}

	response.JSONResponse(w, http.StatusOK, orders)
}

// CreateOrder validates and stores a new order, then dispatches its notification.
func (h *OrderHandler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	fields, err := decodeObject(w, r)
	if err != nil {
		h.log(r).WarnContext(r.Context(), "invalid create request", "error", err)
		writeDecodeError(w, err, invalidRequestBodyMessage)
		return
	}

	if err := domain.ValidateNewOrder(fields); err != nil {
		h.log(r).WarnContext(r.Context(), "order rejected", "error", err)
		response.JSONErrorResponse(w, http.StatusBadRequest, missingRequiredFieldsMessage)
		return
	}

	order, err := h.repo.CreateOrder(r.Context(), fields)
	if err != nil {
		h.log(r).ErrorContext(r.Context(), "failed to create order", "error", err)
		response.JSONErrorResponse(w, http.StatusInternalServerError, createFailedMessage)
		return
	}

	h.log(r).InfoContext(r.Context(), "order created", "order_id", order.ID)
	h.dispatcher.Dispatch(order)
	response.JSONResponse(w, http.StatusCreated, order)
}

// UpdateOrder merges the request body into an existing order.
func (h *OrderHandler) UpdateOrder(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, idParam)
	fields, err := decodeObject(w, r)
	if err != nil {
		h.log(r).WarnContext(r.Context(), "invalid update request", "order_id", id, "error", err)
		writeDecodeError(w, err, invalidRequestBodyMessage)
		return
	}

	if err := h.repo.UpdateOrder(r.Context(), id, domain.WithoutID(fields)); err != nil {
		h.logStoreError(r, "failed to update order", err, "order_id", id)
		response.JSONErrorResponse(w, http.StatusInternalServerError, updateFailedMessage)
		return
	}

	response.JSONSuccessResponse(w, updatedMessage)
}

// DeleteOrder removes an order when the request carries the correct PIN.
// An unreadable body is treated as an empty PIN.
func (h *OrderHandler) DeleteOrder(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, idParam)

	req := new(deleteRequest)
	if err := decodeJSON(w, r, req); err != nil {
		req.PIN = ""
	}

	if err := h.authorizer.Authorize(req.PIN); err != nil {
		h.log(r).WarnContext(r.Context(), "delete denied", "order_id", id, "error", err)
		response.JSONErrorResponse(w, http.StatusForbidden, incorrectPINMessage)
		return
	}

	if err := h.repo.DeleteOrder(r.Context(), id); err != nil {
		h.log(r).ErrorContext(r.Context(), "failed to delete order", "order_id", id, "error", err)
		response.JSONErrorResponse(w, http.StatusInternalServerError, deleteFailedMessage)
		return
	}

	h.log(r).InfoContext(r.Context(), "order deleted", "order_id", id)
	response.JSONSuccessResponse(w, deletedMessage)
}

// BulkUpdateOrders applies one partial update to every listed order, all or nothing.
func (h *OrderHandler) BulkUpdateOrders(w http.ResponseWriter, r *http.Request) {
	req := new(bulkUpdateRequest)
	if err := decodeJSON(w, r, req); err != nil {
		h.log(r).WarnContext(r.Context(), "invalid bulk update request", "error", err)
		writeDecodeError(w, err, idsRequiredMessage)
		return
	}

	ids, ok := parseIDs(req.IDs)
	if !ok {
		response.JSONErrorResponse(w, http.StatusBadRequest, idsRequiredMessage)
		return
	}

	var fields map[string]any
	if err := json.Unmarshal(req.UpdateData, &fields); err != nil || fields == nil {
		response.JSONErrorResponse(w, http.StatusBadRequest, updateDataRequiredMessage)
		return
	}

	if err := h.repo.BulkUpdateOrders(r.Context(), unique(ids), domain.WithoutID(fields)); err != nil {
		h.logStoreError(r, "failed to bulk update orders", err, "order_count", len(ids))
		response.JSONErrorResponse(w, http.StatusInternalServerError, bulkUpdateFailedMessage)
		return
	}

	h.log(r).InfoContext(r.Context(), "orders bulk updated", "order_count", len(ids))
	response.JSONSuccessResponse(w, fmt.Sprintf(bulkUpdatedMessageFormat, len(ids)))
}

func (h *OrderHandler) log(r *http.Request) *slog.Logger {
	return h.logger.With("request_id", middleware.GetReqID(r.Context()))
}

// logStoreError logs missing orders at warn level and every other store failure at error level.
func (h *OrderHandler) logStoreError(r *http.Request, msg string, err error, args ...any) {
	args = append(args, "error", err)

	var notFound *repository.NotFoundError
	if errors.As(err, &notFound) {
		h.log(r).WarnContext(r.Context(), msg, args...)
		return
	}

	h.log(r).ErrorContext(r.Context(), msg, args...)
}

// decodeJSON decodes a single JSON value of at most MaxBodyBytes from the request body.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, MaxBodyBytes))
	if err := dec.Decode(v); err != nil {
		return err
	}

	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			return err
		}
		return errTrailingData
	}

	return nil
}

// writeDecodeError answers 413 for oversized bodies and 400 with message otherwise.
func writeDecodeError(w http.ResponseWriter, err error, message string) {
	var maxBytesErr *http.MaxBytesError
	if errors.As(err, &maxBytesErr) {
		response.JSONErrorResponse(w, http.StatusRequestEntityTooLarge, requestBodyTooLargeMessage)
		return
	}

	response.JSONErrorResponse(w, http.StatusBadRequest, message)
}

// decodeObject decodes the request body, which must be a single JSON object.
func decodeObject(w http.ResponseWriter, r *http.Request) (map[string]any, error) {
	var fields map[string]any
	if err := decodeJSON(w, r, &fields); err != nil {
		return nil, err
	}

	if fields == nil {
		return nil, errNotAnObject
	}

	return fields, nil
}

// parseIDs accepts a non-empty array of non-empty document IDs.
func parseIDs(raw json.RawMessage) ([]string, bool) {
	var ids []string
	if err := json.Unmarshal(raw, &ids); err != nil || len(ids) == 0 {
		return nil, false
	}

	for _, id := range ids {
		if strings.TrimSpace(id) == "" || strings.Contains(id, "/") {
			return nil, false
		}
	}

	return ids, true
}

func unique(ids []string) []string {
	out := slices.Clone(ids)
	slices.Sort(out)

	return slices.Compact(out)
}

// NewOrderHandler creates an OrderHandler.
func NewOrderHandler(
	repo OrderRepository,
	authorizer authn.Authorizer,
	dispatcher NotificationDispatcher,
	logger *slog.Logger,
) *OrderHandler {
	return &OrderHandler{
		repo:       repo,
		authorizer: authorizer,
		dispatcher: dispatcher,
		logger:     logger,
	}
}
