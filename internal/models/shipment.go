package models

import "time"

// Shipment statuses
const (
	ShipmentPending   = "pending"
	ShipmentPreparing = "preparing"
	ShipmentReady     = "ready"
	ShipmentShipped   = "shipped"
	ShipmentDelivered = "delivered"
	ShipmentCancelled = "cancelled"
)

// shipmentRank orders the forward-only pipeline.
var shipmentRank = map[string]int{
	ShipmentPending:   0,
	ShipmentPreparing: 1,
	ShipmentReady:     2,
	ShipmentShipped:   3,
	ShipmentDelivered: 4,
}

// ShipmentTransitionAllowed enforces the forward-only chain
// pending -> preparing -> ready -> shipped -> delivered, one step at a time,
// with cancel reachable from any state before shipped.
func ShipmentTransitionAllowed(from, to string) bool {
	if to == ShipmentCancelled {
		return shipmentRank[from] < shipmentRank[ShipmentShipped] && from != ShipmentCancelled
	}
	fr, ok1 := shipmentRank[from]
	tr, ok2 := shipmentRank[to]
	return ok1 && ok2 && tr == fr+1
}

// ShipmentDocuments tracks paperwork readiness before dispatch.
type ShipmentDocuments struct {
	Waybill bool `json:"waybill"`
	Invoice bool `json:"invoice"`
	Packing bool `json:"packing"`
	Quality bool `json:"quality"`
}

type Shipment struct {
	ID              int               `json:"id"`
	OrderID         string            `json:"order_id"`
	ChecklistID     int               `json:"checklist_id"`
	CustomerID      int               `json:"customer_id"`
	DriverName      string            `json:"driver_name"`
	DriverPhone     string            `json:"driver_phone"`
	VehicleNumber   string            `json:"vehicle_number"`
	WaybillNumber   string            `json:"waybill_number"`
	Documents       ShipmentDocuments `json:"documents"`
	Status          string            `json:"status"`
	Notes           *string           `json:"notes,omitempty"`
	TotalItems      int               `json:"total_items"`  // frozen from checklist summary
	TotalWeight     float64           `json:"total_weight"` // frozen from checklist summary
	ShippedByUserID int               `json:"shipped_by_user_id"`
	DeliveredAt     *time.Time        `json:"delivered_at,omitempty"`
	RecipientName   *string           `json:"recipient_name,omitempty"`
	ProofKey        *string           `json:"proof_key,omitempty"` // object key of the uploaded signature
	CreatedAt       time.Time         `json:"created_at"`
	UpdatedAt       time.Time         `json:"updated_at"`
}

// CreateShipmentRequest represents the request body for dispatching a locked checklist
type CreateShipmentRequest struct {
	OrderID       string `json:"order_id"`
	ChecklistID   int    `json:"checklist_id"`
	DriverName    string `json:"driver_name"`
	DriverPhone   string `json:"driver_phone"`
	VehicleNumber string `json:"vehicle_number"`
	WaybillNumber string `json:"waybill_number"`
}

// UpdateShipmentStatusRequest represents a shipment status move
type UpdateShipmentStatusRequest struct {
	Status string `json:"status"`
	Notes  string `json:"notes"`
}

// SetShipmentDocumentRequest flips one paperwork-readiness flag
type SetShipmentDocumentRequest struct {
	Document string `json:"document"` // waybill, invoice, packing or quality
	Ready    bool   `json:"ready"`
}

// CompleteShipmentRequest represents the delivery confirmation
type CompleteShipmentRequest struct {
	RecipientName string `json:"recipient_name"`
	Signature     []byte `json:"signature,omitempty"` // base64 PNG from the driver terminal
}
