package labels

import (
	"strings"
	"time"

	"github.com/wonny/aegis-credit/internal/contracts"
)

// KeywordRule maps filing-title keywords to a failure type
type KeywordRule struct {
	Type       contracts.FailureType
	Keywords   []string // any match
	Confidence float64
}

// DefaultRules are the disclosure-title rules of the textual screen.
// Keywords are compared with whitespace removed.
var DefaultRules = []KeywordRule{
	{Type: contracts.FailureDelisted, Keywords: []string{"상장폐지결정", "상장폐지", "delisting"}, Confidence: 0.95},
	{Type: contracts.FailureBankruptcy, Keywords: []string{"파산선고", "파산신청", "bankruptcy"}, Confidence: 0.95},
	{Type: contracts.FailureRehabilitation, Keywords: []string{"회생절차개시", "회생절차", "rehabilitation"}, Confidence: 0.9},
	{Type: contracts.FailureDefault, Keywords: []string{"부도발생", "당좌거래정지", "부도", "default"}, Confidence: 0.9},
	{Type: contracts.FailureAuditDisclaimer, Keywords: []string{"감사의견거절", "의견거절", "부적정의견", "disclaimerofopinion"}, Confidence: 0.85},
}

// excludeKeywords mark a title as resolving or withdrawing an event
var excludeKeywords = []string{"해소", "철회", "취소", "기각", "withdraw"}

func normalizeTitle(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), ""))
}

// MatchDisclosure applies rules to one filing title.
// At most one label per failure type is produced.
func MatchDisclosure(d contracts.Disclosure, rules []KeywordRule) []contracts.FailureLabel {
	title := normalizeTitle(d.ReportName)
	if title == "" {
		return nil
	}
	for _, ex := range excludeKeywords {
		if strings.Contains(title, ex) {
			return nil
		}
	}

	var out []contracts.FailureLabel
	for _, rule := range rules {
		for _, kw := range rule.Keywords {
			if !strings.Contains(title, normalizeTitle(kw)) {
				continue
			}
			out = append(out, contracts.FailureLabel{
				CompanyID:   d.CompanyID,
				FailureType: rule.Type,
				Evidence:    "disclosure " + d.ReceiptNo + ": " + d.ReportName,
				Confidence:  rule.Confidence,
				Date:        d.FiledAt,
				Source:      contracts.SourceTextual,
			})
			break
		}
	}
	return out
}

// yearEnd is the label date of a financial-screen hit
func yearEnd(year int) time.Time {
	return time.Date(year, time.December, 31, 0, 0, 0, 0, time.UTC)
}
