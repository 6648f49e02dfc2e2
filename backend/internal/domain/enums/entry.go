package enums

type EntryType string

const (
	EntryTypeApply EntryType = "Apply"
	EntryTypeOffer EntryType = "Offer"
)

type EntryStatus string

const (
	EntryStatusPending  EntryStatus = "Pending"
	EntryStatusAccepted EntryStatus = "Accepted"
	EntryStatusRejected EntryStatus = "Rejected"
)
