package domain

import (
	"strings"
	"time"
)

// Resource is any record managed by an admin screen.
type Resource interface {
	Key() string
	SearchFields() []string
}

// Statused resources expose the enum used by status filters.
type Statused interface {
	StatusKey() string
}

// Category represents a product category. Parent is nil for root categories.
type Category struct {
	ID          string    `json:"_id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Image       string    `json:"image,omitempty"`
	Parent      *Ref      `json:"parentCategory,omitempty"`
	IsActive    bool      `json:"isActive"`
	CreatedAt   time.Time `json:"createdAt,omitempty"`
}

func (c Category) Key() string { return c.ID }

func (c Category) SearchFields() []string {
	return []string{c.Name, c.Description}
}

// Municipality represents a service area sellers can deliver to.
type Municipality struct {
	ID        string    `json:"_id"`
	Name      string    `json:"name"`
	Province  string    `json:"province,omitempty"`
	ZipCode   string    `json:"zipCode,omitempty"`
	IsActive  bool      `json:"isActive"`
	CreatedAt time.Time `json:"createdAt,omitempty"`
}

func (m Municipality) Key() string { return m.ID }

func (m Municipality) SearchFields() []string {
	return []string{m.Name, m.Province, m.ZipCode}
}

func (m Municipality) StatusKey() string {
	if m.IsActive {
		return "active"
	}
	return "inactive"
}

// Refund statuses.
const (
	RefundPending   = "pending"
	RefundApproved  = "approved"
	RefundProcessed = "processed"
	RefundRejected  = "rejected"
)

// RefundStatuses lists refund statuses in display order.
var RefundStatuses = []string{RefundPending, RefundApproved, RefundProcessed, RefundRejected}

// Refund represents a customer refund request against an order.
type Refund struct {
	ID          string     `json:"_id"`
	Order       *Ref       `json:"order,omitempty"`
	Customer    *Ref       `json:"customer,omitempty"`
	Seller      *Ref       `json:"seller,omitempty"`
	Amount      *float64   `json:"amount,omitempty"`
	Reason      string     `json:"reason,omitempty"`
	Status      string     `json:"status"`
	AdminNote   string     `json:"adminNote,omitempty"`
	CreatedAt   time.Time  `json:"createdAt,omitempty"`
	ProcessedAt *time.Time `json:"processedAt,omitempty"`
}

func (r Refund) Key() string { return r.ID }

func (r Refund) StatusKey() string { return r.Status }

// OrderNumber is the short order label shown to admins.
func (r Refund) OrderNumber() string {
	return OrderNumber(RefID(r.Order))
}

// CustomerName falls back to the identifier when the customer is not populated.
func (r Refund) CustomerName() string {
	return r.Customer.Label()
}

func (r Refund) SearchFields() []string {
	return []string{r.OrderNumber(), r.CustomerName(), r.Customer.Field("email"), r.Seller.Label(), r.Reason}
}

// AmountValue treats a missing amount as zero.
func (r Refund) AmountValue() float64 {
	if r.Amount == nil {
		return 0
	}
	return *r.Amount
}

// OrderNumber formats an order identifier as "#" + its last 8 characters.
func OrderNumber(id string) string {
	if id == "" {
		return ""
	}
	if len(id) > 8 {
		id = id[len(id)-8:]
	}
	return "#" + strings.ToUpper(id)
}

// Plan represents a seller subscription plan.
type Plan struct {
	ID              string   `json:"_id"`
	Code            string   `json:"code"`
	Name            string   `json:"name"`
	Description     string   `json:"description,omitempty"`
	Price           float64  `json:"price"`
	BillingCycle    string   `json:"billingCycle,omitempty"`
	DiscountPercent float64  `json:"discountPercent"`
	Features        []string `json:"features,omitempty"`
	IsActive        bool     `json:"isActive"`
}

func (p Plan) Key() string { return p.ID }

func (p Plan) SearchFields() []string {
	return []string{p.Name, p.Code, p.Description}
}

func (p Plan) StatusKey() string {
	if p.IsActive {
		return "active"
	}
	return "inactive"
}

// Subscription statuses.
const (
	SubscriptionActive    = "active"
	SubscriptionPending   = "pending"
	SubscriptionExpired   = "expired"
	SubscriptionCancelled = "cancelled"
)

// SubscriptionStatuses lists subscription statuses in display order.
var SubscriptionStatuses = []string{SubscriptionActive, SubscriptionPending, SubscriptionExpired, SubscriptionCancelled}

// Subscription binds a seller to a plan.
type Subscription struct {
	ID        string     `json:"_id"`
	Seller    *Ref       `json:"seller,omitempty"`
	Plan      *Ref       `json:"plan,omitempty"`
	Status    string     `json:"status"`
	StartDate *time.Time `json:"startDate,omitempty"`
	EndDate   *time.Time `json:"endDate,omitempty"`
}

func (s Subscription) Key() string { return s.ID }

func (s Subscription) StatusKey() string { return s.Status }

func (s Subscription) SearchFields() []string {
	return []string{s.Seller.Label(), s.Seller.Field("email"), s.Plan.Label(), s.Plan.Field("code")}
}
