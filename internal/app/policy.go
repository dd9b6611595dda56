package app

import "github.com/counselpoint/gateway/internal/core"

type BackpressureAction int

const (
	DropFrame BackpressureAction = iota
	KickMember
)

// Policy decides what happens to a member whose send buffer is full.
type Policy interface {
	OnBackPressure(conn *core.Connection) BackpressureAction
}

// SimplePolicy drops the frame. Signaling and chat tolerate loss; one
// bad consumer must not terminate a live call.
type SimplePolicy struct{}

func (SimplePolicy) OnBackPressure(conn *core.Connection) BackpressureAction {
	return DropFrame
}
