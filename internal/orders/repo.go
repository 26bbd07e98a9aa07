package orders

import (
	"context"

	"github.com/angelmondragon/tristore-backend/pkg/db/models"
	"github.com/angelmondragon/tristore-backend/pkg/enums"
	"github.com/angelmondragon/tristore-backend/pkg/pagination"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

const vendorLineExists = "EXISTS (SELECT 1 FROM order_line_items li WHERE li.order_id = orders.id AND li.vendor_id = ?)"

type repository struct {
	db *gorm.DB
}

// NewRepository builds an orders repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, order *models.Order) error {
	return r.db.WithContext(ctx).Create(order).Error
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("position ASC") }).
		First(&order, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *repository) OrderNumberExists(ctx context.Context, number string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("order_number = ?", number).
		Count(&count).Error
	return count > 0, err
}

func (r *repository) TransitionStatus(ctx context.Context, id uuid.UUID, from enums.OrderStatus, updates map[string]any) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ? AND order_status = ?", id, from).
		Updates(updates)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *repository) TransitionTryAtHome(ctx context.Context, id uuid.UUID, from, to enums.TryAtHomeStatus) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ? AND is_try_at_home = ? AND try_at_home_status = ? AND order_status <> ?", id, true, from, enums.OrderStatusCancelled).
		Update("try_at_home_status", to)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *repository) AssignDeliveryAgent(ctx context.Context, id uuid.UUID, agentID uuid.UUID) error {
	res := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ?", id).
		Update("delivery_agent_id", agentID)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *repository) MarkLineReturned(ctx context.Context, lineID uuid.UUID, quantity int, reason *string) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.OrderLineItem{}).
		Where("id = ? AND is_returned = ?", lineID, false).
		Updates(map[string]any{
			"is_returned":       true,
			"returned_quantity": quantity,
			"return_reason":     reason,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *repository) List(ctx context.Context, filters Filters, params pagination.Params) (*OrderPage, error) {
	return r.list(ctx, r.db.WithContext(ctx).Model(&models.Order{}), filters, params)
}

func (r *repository) ListForVendor(ctx context.Context, vendorID uuid.UUID, filters Filters, params pagination.Params) (*OrderPage, error) {
	query := r.db.WithContext(ctx).Model(&models.Order{}).Where(vendorLineExists, vendorID)
	return r.list(ctx, query, filters, params)
}

func (r *repository) list(ctx context.Context, query *gorm.DB, filters Filters, params pagination.Params) (*OrderPage, error) {
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, err
	}

	query = applyFilters(query, filters)
	if cursor != nil {
		query = query.Where("(orders.created_at < ?) OR (orders.created_at = ? AND orders.id < ?)", cursor.CreatedAt, cursor.CreatedAt, cursor.ID)
	}

	var rows []models.Order
	err = query.
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("position ASC") }).
		Order("orders.created_at DESC").
		Order("orders.id DESC").
		Limit(pagination.LimitWithBuffer(params.Limit)).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	page := &OrderPage{}
	page.Orders, page.NextCursor = pagination.Trim(rows, params.Limit, func(o models.Order) pagination.Cursor {
		return pagination.Cursor{CreatedAt: o.CreatedAt, ID: o.ID}
	})
	return page, nil
}

func applyFilters(query *gorm.DB, filters Filters) *gorm.DB {
	if filters.UserID != nil {
		query = query.Where("orders.user_id = ?", *filters.UserID)
	}
	if filters.DeliveryAgentID != nil {
		query = query.Where("orders.delivery_agent_id = ?", *filters.DeliveryAgentID)
	}
	if filters.Status != nil {
		query = query.Where("orders.order_status = ?", *filters.Status)
	}
	if filters.DateFrom != nil {
		query = query.Where("orders.created_at >= ?", *filters.DateFrom)
	}
	if filters.DateTo != nil {
		query = query.Where("orders.created_at <= ?", *filters.DateTo)
	}
	return query
}
