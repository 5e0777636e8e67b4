package enums

// LedgerEntryKind names the order event that moved a customer's aggregates.
type LedgerEntryKind string

const (
	LedgerEntryOrderCreated LedgerEntryKind = "ORDER_CREATED"
	LedgerEntryOrderEdited  LedgerEntryKind = "ORDER_EDITED"
	LedgerEntryOrderDeleted LedgerEntryKind = "ORDER_DELETED"
)

func (k LedgerEntryKind) IsValid() bool {
	switch k {
	case LedgerEntryOrderCreated, LedgerEntryOrderEdited, LedgerEntryOrderDeleted:
		return true
	}
	return false
}
