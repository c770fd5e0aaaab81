package model

type NotificationKind string

const (
	NotifyPurchasesAwaitingApproval NotificationKind = "PURCHASES_AWAITING_APPROVAL"
	NotifyImportsAwaitingReview     NotificationKind = "IMPORTS_AWAITING_REVIEW"
	NotifyContractsEndingSoon       NotificationKind = "CONTRACTS_ENDING_SOON"
)

type Notification struct {
	Kind    NotificationKind `json:"kind"`
	Count   int64            `json:"count"`
	Message string           `json:"message"`
}

// Bootstrap is the one-time startup payload for the console.
type Bootstrap struct {
	User          UserSummary    `json:"user"`
	Permissions   []string       `json:"permissions"`
	Notifications []Notification `json:"notifications"`
}
