package service

// --- DTOs ---

// SubmitRequestDTO is the payload of a new item request
type SubmitRequestDTO struct {
	ItemName          string `json:"item_name" binding:"required"`
	RequestedQuantity int    `json:"requested_quantity" binding:"required,gt=0"`
	Notes             string `json:"notes"`
}

// SubmitResult reports the created request and the item's stock at submission time
type SubmitResult struct {
	RequestID    string          `json:"request_id"`
	CurrentStock int             `json:"current_stock"`
	Request      RequestResponse `json:"request"`
}

// TransitionDTO asks for a status change. FulfilledQuantity is required for
// "fulfilled" and RejectionReason for "rejected".
type TransitionDTO struct {
	Status            string `json:"status" binding:"required"`
	FulfilledQuantity int    `json:"fulfilled_quantity"`
	RejectionReason   string `json:"rejection_reason"`
	AdminNotes        string `json:"admin_notes"`
}

// RequestListFilter narrows a projection. Status may be empty for all.
type RequestListFilter struct {
	Status string
	Page   int
	Limit  int
}

// ActorRef names the user behind an approval, rejection or fulfillment
type ActorRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Role string `json:"role"`
}

// RequestResponse is the projection returned by every request endpoint
type RequestResponse struct {
	ID                      string    `json:"id"`
	ItemID                  string    `json:"item_id"`
	ItemName                string    `json:"item_name"`
	RequestedQuantity       int       `json:"requested_quantity"`
	FulfilledQuantity       int       `json:"fulfilled_quantity"`
	RemainingQuantity       int       `json:"remaining_quantity"`
	RequesterID             string    `json:"requester_id"`
	RequesterName           string    `json:"requester_name"`
	RequesterDepartmentID   *string   `json:"requester_department_id"`
	RequesterDepartmentName string    `json:"requester_department_name"`
	Status                  string    `json:"status"`
	Notes                   string    `json:"notes"`
	AdminNotes              string    `json:"admin_notes"`
	RejectionReason         string    `json:"rejection_reason"`
	ApprovedBy              *ActorRef `json:"approved_by"`
	RejectedBy              *ActorRef `json:"rejected_by"`
	FulfilledBy             *ActorRef `json:"fulfilled_by"`
	RequestDate             string    `json:"request_date"`
	ResponseDate            *string   `json:"response_date"`
	CurrentStock            int       `json:"current_stock"`
	InsufficientStock       bool      `json:"insufficient_stock"`
	EstimatedValue          string    `json:"estimated_value"`
	AllowedTransitions      []string  `json:"allowed_transitions,omitempty"`
}

// StockEvent is broadcast when fulfillment changes an item's quantity
type StockEvent struct {
	ItemID    string `json:"item_id"`
	ItemName  string `json:"item_name"`
	Quantity  int    `json:"quantity"`
	RequestID string `json:"request_id"`
}
