package email

import (
	"context"
	"fmt"
)

// WelcomeData fills the welcome template.
type WelcomeData struct {
	FullName  string
	Username  string
	StoreName string
	Role      string
}

// SendWelcomeEmail greets a newly created employee.
func (c *Client) SendWelcomeEmail(ctx context.Context, to string, data WelcomeData) error {
	return c.SendEmail(ctx, []string{to}, "Welcome to StoreOps", TemplateWelcome, data)
}

// OrderReviewData fills the order review template.
type OrderReviewData struct {
	OrderID     int64
	StoreName   string
	ProductName string
	Quantity    int
	Total       string
	Anomaly     string
	DaysSince   string
	RequestedBy string
}

// SendOrderReviewEmail asks the store managers to decide on an anomalous order.
func (c *Client) SendOrderReviewEmail(ctx context.Context, to []string, data OrderReviewData) error {
	subject := fmt.Sprintf("[%s] Order #%d needs review (%s)", data.StoreName, data.OrderID, data.Anomaly)
	return c.SendEmail(ctx, to, subject, TemplateOrderReview, data)
}

// MaintenanceData fills the maintenance template.
type MaintenanceData struct {
	RequestID   int64
	StoreName   string
	Title       string
	Description string
	Priority    string
	ReportedBy  string
}

// SendMaintenanceEmail notifies the store managers of a new maintenance request.
func (c *Client) SendMaintenanceEmail(ctx context.Context, to []string, data MaintenanceData) error {
	subject := fmt.Sprintf("[%s] Maintenance #%d: %s", data.StoreName, data.RequestID, data.Title)
	return c.SendEmail(ctx, to, subject, TemplateMaintenance, data)
}
