package enum

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
)

// QuotationStatus represents where a quotation is in its review lifecycle
type QuotationStatus int

const (
	QuotationStatusDraft    QuotationStatus = 0
	QuotationStatusSent     QuotationStatus = 1
	QuotationStatusApproved QuotationStatus = 2
	QuotationStatusRejected QuotationStatus = 3
)

var quotationStatusNames = [...]string{"Draft", "Sent", "Approved", "Rejected"}

func (s QuotationStatus) String() string {
	if !s.IsValid() {
		return fmt.Sprintf("QuotationStatus(%d)", int(s))
	}
	return quotationStatusNames[s]
}

func (s QuotationStatus) IsValid() bool {
	return s >= QuotationStatusDraft && s <= QuotationStatusRejected
}

// IsEditable reports whether items and terms may still change.
func (s QuotationStatus) IsEditable() bool {
	return s == QuotationStatusDraft
}

// CanTransitionTo reports whether moving from s to next is allowed.
func (s QuotationStatus) CanTransitionTo(next QuotationStatus) bool {
	switch s {
	case QuotationStatusDraft:
		return next == QuotationStatusSent
	case QuotationStatusSent:
		return next == QuotationStatusApproved || next == QuotationStatusRejected
	default:
		return false
	}
}

// ParseQuotationStatus accepts the display name in any case.
func ParseQuotationStatus(str string) (QuotationStatus, error) {
	for i, name := range quotationStatusNames {
		if strings.EqualFold(name, str) {
			return QuotationStatus(i), nil
		}
	}
	return 0, fmt.Errorf("unknown quotation status %q", str)
}

func (s QuotationStatus) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

func (s *QuotationStatus) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		var i int
		if err := json.Unmarshal(data, &i); err != nil {
			return err
		}
		if !QuotationStatus(i).IsValid() {
			return fmt.Errorf("unknown quotation status %d", i)
		}
		*s = QuotationStatus(i)
		return nil
	}
	parsed, err := ParseQuotationStatus(str)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

func (s QuotationStatus) Value() (driver.Value, error) {
	return int64(s), nil
}

func (s *QuotationStatus) Scan(value interface{}) error {
	if value == nil {
		*s = QuotationStatusDraft
		return nil
	}
	switch v := value.(type) {
	case int64:
		*s = QuotationStatus(v)
	case int:
		*s = QuotationStatus(v)
	}
	return nil
}
