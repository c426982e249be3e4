package contracts

import (
	"fmt"
	"time"
)

// StatementRecord is one company-period of parsed financial statement line items.
// Every line item is optional: nil means "not reported", never zero.
// ⭐ SSOT: 재무제표 입력 스키마는 여기서만 정의
type StatementRecord struct {
	CompanyID   string    `json:"company_id"`
	CompanyName string    `json:"company_name,omitempty"`
	FiscalYear  int       `json:"fiscal_year"`
	Quarter     int       `json:"quarter"` // 0 = 연간
	Items       LineItems `json:"items"`
	ReportedAt  time.Time `json:"reported_at,omitempty"`
}

// LineItems holds the raw numeric fields of a statement period
type LineItems struct {
	// Income statement
	Revenue             *float64 `json:"revenue,omitempty"`
	CostOfSales         *float64 `json:"cost_of_sales,omitempty"`
	SellingGeneralAdmin *float64 `json:"selling_general_admin,omitempty"`
	OperatingIncome     *float64 `json:"operating_income,omitempty"`
	InterestExpense     *float64 `json:"interest_expense,omitempty"`
	PretaxIncome        *float64 `json:"pretax_income,omitempty"`
	NetIncome           *float64 `json:"net_income,omitempty"`
	Depreciation        *float64 `json:"depreciation,omitempty"`

	// Balance sheet
	CashAndEquivalents     *float64 `json:"cash_and_equivalents,omitempty"`
	ShortTermInvestments   *float64 `json:"short_term_investments,omitempty"`
	AccountsReceivable     *float64 `json:"accounts_receivable,omitempty"`
	Inventory              *float64 `json:"inventory,omitempty"`
	CurrentAssets          *float64 `json:"current_assets,omitempty"`
	PropertyPlantEquipment *float64 `json:"property_plant_equipment,omitempty"`
	TotalAssets            *float64 `json:"total_assets,omitempty"`
	AccountsPayable        *float64 `json:"accounts_payable,omitempty"`
	CurrentLiabilities     *float64 `json:"current_liabilities,omitempty"`
	ShortTermDebt          *float64 `json:"short_term_debt,omitempty"`
	LongTermDebt           *float64 `json:"long_term_debt,omitempty"`
	TotalLiabilities       *float64 `json:"total_liabilities,omitempty"`
	TotalEquity            *float64 `json:"total_equity,omitempty"`
	RetainedEarnings       *float64 `json:"retained_earnings,omitempty"`
	PaidInCapital          *float64 `json:"paid_in_capital,omitempty"`

	// Cash flow statement
	OperatingCashFlow   *float64 `json:"operating_cash_flow,omitempty"`
	CapitalExpenditure  *float64 `json:"capital_expenditure,omitempty"` // 양수 = 지출
	DividendsPaid       *float64 `json:"dividends_paid,omitempty"`
	ShareBuybacks       *float64 `json:"share_buybacks,omitempty"`
	InvestingCashFlow   *float64 `json:"investing_cash_flow,omitempty"`
	ResearchDevelopment *float64 `json:"research_development,omitempty"`
}

// PeriodKey identifies one statement period
type PeriodKey struct {
	CompanyID  string
	FiscalYear int
	Quarter    int
}

// Key returns the record's period key
func (s *StatementRecord) Key() PeriodKey {
	return PeriodKey{CompanyID: s.CompanyID, FiscalYear: s.FiscalYear, Quarter: s.Quarter}
}

// String formats the key as company/year/Qn
func (k PeriodKey) String() string {
	return fmt.Sprintf("%s/%d/Q%d", k.CompanyID, k.FiscalYear, k.Quarter)
}

// Prior returns the key of the same period one fiscal year earlier
func (k PeriodKey) Prior() PeriodKey {
	return PeriodKey{CompanyID: k.CompanyID, FiscalYear: k.FiscalYear - 1, Quarter: k.Quarter}
}

// Validate rejects structurally malformed records. Missing line items are fine.
func (s *StatementRecord) Validate() error {
	if s.CompanyID == "" {
		return &MalformedRecordError{Field: "company_id", Message: "required"}
	}
	if s.FiscalYear <= 0 {
		return &MalformedRecordError{Field: "fiscal_year", Message: fmt.Sprintf("must be > 0, got %d", s.FiscalYear)}
	}
	if s.Quarter < 0 || s.Quarter > 4 {
		return &MalformedRecordError{Field: "quarter", Message: fmt.Sprintf("must be in [0, 4], got %d", s.Quarter)}
	}
	return nil
}

// F is a convenience constructor for optional line items
func F(v float64) *float64 {
	return &v
}
