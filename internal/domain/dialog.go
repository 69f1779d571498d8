package domain

import (
	"time"

	"github.com/google/uuid"
)

type DialogStatus string

const (
	DialogOpen   DialogStatus = "open"
	DialogClosed DialogStatus = "closed"
)

// Direction tags who authored a dialog message.
type Direction string

const (
	DirectionUser     Direction = "user"
	DirectionOperator Direction = "operator"
)

// Dialog is a persistent two-way thread between one user and the
// operator side. A user has at most one open dialog at a time.
type Dialog struct {
	ID          uuid.UUID
	UserID      int64
	DisplayName string
	Status      DialogStatus
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// DialogMessage is an ordered, append-only entry in a dialog. At least
// one of Text/FileID is set.
type DialogMessage struct {
	ID        int64
	DialogID  uuid.UUID
	Direction Direction
	Text      string
	FileID    *string
	CreatedAt time.Time
}
