package contracts

import "time"

// FailureType classifies a ground-truth failure event
type FailureType string

const (
	FailureDelisted          FailureType = "DELISTED"
	FailureBankruptcy        FailureType = "BANKRUPTCY"
	FailureRehabilitation    FailureType = "REHABILITATION"
	FailureAuditDisclaimer   FailureType = "AUDIT_DISCLAIMER"
	FailureDefault           FailureType = "DEFAULT"
	FailureCapitalImpairment FailureType = "CAPITAL_IMPAIRMENT"
	FailureZombie            FailureType = "ZOMBIE"
)

// LabelSource tells which screen produced a label
type LabelSource string

const (
	SourceTextual   LabelSource = "textual"
	SourceFinancial LabelSource = "financial"
	SourceManual    LabelSource = "manual"
)

// FailureLabel is one curated "company failed" observation.
// Multiple labels per company are normal; scoring never mutates them.
type FailureLabel struct {
	CompanyID   string      `json:"company_id"`
	FailureType FailureType `json:"failure_type"`
	Evidence    string      `json:"evidence"`
	Confidence  float64     `json:"confidence"`
	Date        time.Time   `json:"date"`
	Source      LabelSource `json:"source"`
	CreatedAt   time.Time   `json:"created_at"`
}

// Disclosure is a regulatory filing title used by the textual screen
type Disclosure struct {
	CompanyID  string    `json:"company_id"`
	ReceiptNo  string    `json:"receipt_no"`
	ReportName string    `json:"report_name"`
	FiledAt    time.Time `json:"filed_at"`
}
