package email

// PreviewData contains sample template data for local preview and tests.
var PreviewData = map[Template]any{
	TemplateWelcome: WelcomeData{
		FullName:  "Siti Rahma",
		Username:  "siti",
		StoreName: "Kemang",
		Role:      "staff",
	},
	TemplateOrderReview: OrderReviewData{
		OrderID:     42,
		StoreName:   "Kemang",
		ProductName: "Fresh milk 1L",
		Quantity:    24,
		Total:       "312.00",
		Anomaly:     "frequent",
		DaysSince:   "1",
		RequestedBy: "Budi",
	},
	TemplateMaintenance: MaintenanceData{
		RequestID:   7,
		StoreName:   "Kemang",
		Title:       "Freezer not cooling",
		Description: "Display freezer at aisle 3 is at -2C.",
		Priority:    "urgent",
		ReportedBy:  "Siti Rahma",
	},
}
