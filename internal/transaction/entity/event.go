package entity

type ChangeAction string

const (
	ChangeActionCreated ChangeAction = "CREATED"
	ChangeActionUpdated ChangeAction = "UPDATED"
	ChangeActionDeleted ChangeAction = "DELETED"
)

// ChangeEvent records one committed mutation for the audit trail.
type ChangeEvent struct {
	EventID int64
	Action  ChangeAction
	Tx      Transaction
}
