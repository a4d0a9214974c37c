// Package model defines the core types shared across the harvest pipeline.
package model

import "time"

// Entity is one registered taxpayer to harvest. The registry supplies the
// full set at startup; entities are immutable for the lifetime of a run.
type Entity struct {
	PIB  string `yaml:"pib" json:"pib"`
	Name string `yaml:"name" json:"name"`
}

// StatementRef identifies one published financial statement for an entity.
// The statement number is unique within an entity's listing, not globally.
type StatementRef struct {
	StatementID string `json:"FinStatementNumber"`
	Year        string `json:"Year"`
}

// ExtractedFields holds the raw numeric fields pulled from a statement's
// markup. A zero value means "no pattern matched", not a confirmed zero;
// misses are surfaced separately as diagnostics.
type ExtractedFields struct {
	TotalIncome   int64 `json:"total_income"`
	Profit        int64 `json:"profit"`
	EmployeeCount int64 `json:"employee_count"`
	NetPayCosts   int64 `json:"net_pay_costs"`
}

// ResultRecord is one finished row of the results dataset.
type ResultRecord struct {
	Name          string  `json:"name"`
	Year          string  `json:"year"`
	TotalIncome   int64   `json:"total_income"`
	Profit        int64   `json:"profit"`
	EmployeeCount int64   `json:"employee_count"`
	NetPayCosts   int64   `json:"net_pay_costs"`
	AveragePay    float64 `json:"average_pay"`
}

// RunStatus tracks the lifecycle of a harvest run.
type RunStatus string

// Run statuses.
const (
	RunStatusRunning  RunStatus = "running"
	RunStatusComplete RunStatus = "complete"
	RunStatusFailed   RunStatus = "failed"
)

// HarvestSummary aggregates the outcome of one harvest run.
type HarvestSummary struct {
	EntitiesProcessed int `json:"entities_processed"`
	EntitiesSkipped   int `json:"entities_skipped"`
	StatementsOK      int `json:"statements_ok"`
	StatementsSkipped int `json:"statements_skipped"`
	CacheHits         int `json:"cache_hits"`
	RemoteFetches     int `json:"remote_fetches"`
	ExtractionMisses  int `json:"extraction_misses"`
	RowsWritten       int `json:"rows_written"`
}

// Run is one recorded harvest run.
type Run struct {
	ID        string          `json:"id"`
	Status    RunStatus       `json:"status"`
	Summary   *HarvestSummary `json:"summary,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}
