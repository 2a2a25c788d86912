package email

// Template names an embedded templates/<name>.html file.
type Template string

const (
	TemplateWelcome     Template = "welcome"
	TemplateOrderReview Template = "order_review"
	TemplateMaintenance Template = "maintenance"
)
