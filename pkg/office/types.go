package office

// Customer is an office CRM record.
type Customer struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	Phone     string `json:"phone,omitempty"`
	Company   string `json:"company,omitempty"`
	Status    string `json:"status"` // active or inactive
	CreatedAt string `json:"created_at,omitempty"`
	UpdatedAt string `json:"updated_at,omitempty"`
}

// CustomerCreate is the payload for creating a customer.
type CustomerCreate struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Phone   string `json:"phone,omitempty"`
	Company string `json:"company,omitempty"`
}

// CustomerUpdate is a partial update; nil fields are left untouched by the
// server.
type CustomerUpdate struct {
	Name    *string `json:"name,omitempty"`
	Email   *string `json:"email,omitempty"`
	Phone   *string `json:"phone,omitempty"`
	Company *string `json:"company,omitempty"`
	Status  *string `json:"status,omitempty"`
}

// Sale is one recorded sale.
type Sale struct {
	ID           string  `json:"id"`
	CustomerID   string  `json:"customer_id"`
	CustomerName string  `json:"customer_name"`
	Product      string  `json:"product"`
	Amount       float64 `json:"amount"`
	Status       string  `json:"status"` // completed, pending or cancelled
	CreatedAt    string  `json:"created_at,omitempty"`
}

// SaleCreate is the payload for recording a sale. An empty Status defaults
// to completed server-side.
type SaleCreate struct {
	CustomerID   string  `json:"customer_id"`
	CustomerName string  `json:"customer_name"`
	Product      string  `json:"product"`
	Amount       float64 `json:"amount"`
	Status       string  `json:"status,omitempty"`
}

// Refund is a refund request tied to a sale.
type Refund struct {
	ID           string  `json:"id"`
	SaleID       string  `json:"sale_id"`
	CustomerID   string  `json:"customer_id"`
	CustomerName string  `json:"customer_name"`
	Amount       float64 `json:"amount"`
	Reason       string  `json:"reason"`
	Status       string  `json:"status"` // pending, approved, rejected or completed
	CreatedAt    string  `json:"created_at,omitempty"`
	UpdatedAt    string  `json:"updated_at,omitempty"`
}

// RefundCreate is the payload for opening a refund request.
type RefundCreate struct {
	SaleID       string  `json:"sale_id"`
	CustomerID   string  `json:"customer_id"`
	CustomerName string  `json:"customer_name"`
	Amount       float64 `json:"amount"`
	Reason       string  `json:"reason"`
}

// Issue is a support ticket.
type Issue struct {
	ID           string `json:"id"`
	Title        string `json:"title"`
	Description  string `json:"description"`
	CustomerID   string `json:"customer_id,omitempty"`
	CustomerName string `json:"customer_name,omitempty"`
	Priority     string `json:"priority"` // low, medium or high
	Status       string `json:"status"`   // open, in_progress, resolved or closed
	CreatedAt    string `json:"created_at,omitempty"`
	UpdatedAt    string `json:"updated_at,omitempty"`
}

// IssueCreate is the payload for opening an issue. An empty Priority
// defaults to medium server-side.
type IssueCreate struct {
	Title        string `json:"title"`
	Description  string `json:"description"`
	CustomerID   string `json:"customer_id,omitempty"`
	CustomerName string `json:"customer_name,omitempty"`
	Priority     string `json:"priority,omitempty"`
}

// IssueUpdate is a partial update; nil fields are left untouched by the
// server.
type IssueUpdate struct {
	Title       *string `json:"title,omitempty"`
	Description *string `json:"description,omitempty"`
	Priority    *string `json:"priority,omitempty"`
	Status      *string `json:"status,omitempty"`
}

// Activity is one entry of the office audit trail.
type Activity struct {
	ID          string `json:"id"`
	Type        string `json:"type"`   // customer, sale, refund, issue or chat
	Action      string `json:"action"` // created, updated, completed, ...
	Description string `json:"description"`
	EntityID    string `json:"entity_id,omitempty"`
	CreatedAt   string `json:"created_at,omitempty"`
}

// ProductRevenue is one row of the revenue-by-product breakdown.
type ProductRevenue struct {
	Product string  `json:"product"`
	Revenue float64 `json:"revenue"`
	Count   int     `json:"count"`
}

// DashboardStats is the aggregate the dashboard renders from.
type DashboardStats struct {
	TotalCustomers            int              `json:"total_customers"`
	NewCustomersThisMonth     int              `json:"new_customers_this_month"`
	PendingRefunds            int              `json:"pending_refunds"`
	RefundsRequiringAttention int              `json:"refunds_requiring_attention"`
	OpenIssues                int              `json:"open_issues"`
	IssuesNeedingReview       int              `json:"issues_needing_review"`
	TotalRevenue30Days        float64          `json:"total_revenue_30_days"`
	RevenueByProduct          []ProductRevenue `json:"revenue_by_product"`
	RecentActivities          []Activity       `json:"recent_activities"`
}

// Health reports backend liveness and whether the remote agent is ready.
type Health struct {
	Status   string `json:"status"`
	Database string `json:"database"`
	AIAgent  string `json:"ai_agent"`
}
