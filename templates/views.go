// Package templates renders the HTMX partials of the import and BOQ screens.
package templates

// CategorySummary is one category of an import preview.
type CategorySummary struct {
	Name  string `json:"name"`
	Items int    `json:"items"`
	Price string `json:"price"`
}

// BOQPreviewData is shown after a BOQ upload, before the commit.
type BOQPreviewData struct {
	ProjectID  string            `json:"project_id"`
	SessionID  string            `json:"session_id"`
	FileName   string            `json:"file_name"`
	Mode       string            `json:"mode"`
	Reference  string            `json:"reference"`
	Margin     float64           `json:"margin_percent"`
	Categories []CategorySummary `json:"categories,omitempty"`
	ItemCount  int               `json:"item_count"`
	Skipped    int               `json:"skipped"`
	// Manual mode only.
	Headers   []string            `json:"headers,omitempty"`
	Suggested map[string]string   `json:"suggested_mapping,omitempty"`
	Sample    []map[string]string `json:"sample,omitempty"`
}

// BOQImportResultData summarises a committed BOQ import.
type BOQImportResultData struct {
	ProjectID   string `json:"project_id"`
	BOQID       string `json:"boq_id"`
	Reference   string `json:"reference"`
	Version     int    `json:"version"`
	Categories  int    `json:"categories"`
	Items       int    `json:"items"`
	Superseded  int    `json:"superseded"`
	TotalCost   string `json:"total_cost"`
	ClientPrice string `json:"client_price"`
	Margin      string `json:"margin_percent"`
}

// ItemView is a formatted BOQ line item.
type ItemView struct {
	ID            string  `json:"id"`
	Code          string  `json:"item_code,omitempty"`
	Description   string  `json:"description"`
	Quantity      float64 `json:"quantity"`
	Unit          string  `json:"unit"`
	UnitCost      float64 `json:"unit_cost"`
	UnitPrice     float64 `json:"unit_price"`
	Cost          float64 `json:"cost"`
	Price         float64 `json:"price"`
	PriceIsManual bool    `json:"price_is_manual"`
	Optional      bool    `json:"is_optional"`
	Inhouse       bool    `json:"is_inhouse"`
	PriceLabel    string  `json:"-"`
}

// CategoryView is a category with its items and subtotals.
type CategoryView struct {
	ID            string     `json:"id"`
	Name          string     `json:"name"`
	SubtotalCost  float64    `json:"subtotal_cost"`
	SubtotalPrice float64    `json:"subtotal_price"`
	PriceLabel    string     `json:"-"`
	Items         []ItemView `json:"items"`
}

// BOQViewData is a full BOQ.
type BOQViewData struct {
	ProjectID     string         `json:"project_id"`
	ID            string         `json:"id"`
	Reference     string         `json:"reference"`
	Status        string         `json:"status"`
	Version       int            `json:"version"`
	MarginPercent float64        `json:"margin_percent"`
	TotalCost     float64        `json:"total_cost"`
	ClientPrice   float64        `json:"client_price"`
	Effective     float64        `json:"effective_margin_percent"`
	Categories    []CategoryView `json:"categories"`
	TotalLabel    string         `json:"-"`
	CostLabel     string         `json:"-"`
	Locked        bool           `json:"locked"`
}

// PhasePreview is one phase of a parsed schedule.
type PhasePreview struct {
	Prefix    string        `json:"prefix"`
	Name      string        `json:"name"`
	StartDate string        `json:"start_date,omitempty"`
	EndDate   string        `json:"end_date,omitempty"`
	Tasks     []TaskPreview `json:"tasks"`
}

// TaskPreview is one parsed activity.
type TaskPreview struct {
	Code      string `json:"code"`
	Name      string `json:"name"`
	StartDate string `json:"start_date,omitempty"`
	EndDate   string `json:"end_date,omitempty"`
}

// SchedulePreviewData is shown after a schedule upload.
type SchedulePreviewData struct {
	ProjectID string         `json:"project_id"`
	SessionID string         `json:"session_id"`
	FileName  string         `json:"file_name"`
	StartDate string         `json:"start_date,omitempty"`
	EndDate   string         `json:"end_date,omitempty"`
	Phases    []PhasePreview `json:"phases"`
	TaskCount int            `json:"task_count"`
	Skipped   int            `json:"skipped"`
}

// ScheduleImportResultData summarises a committed schedule import.
type ScheduleImportResultData struct {
	ProjectID     string `json:"project_id"`
	ScheduleID    string `json:"schedule_id"`
	Phases        int    `json:"phases"`
	Tasks         int    `json:"tasks"`
	StartDate     string `json:"start_date"`
	EndDate       string `json:"end_date,omitempty"`
	ReplacedTasks int    `json:"replaced_tasks"`
}
