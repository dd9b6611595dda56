package core

import "github.com/counselpoint/gateway/internal/domain"

// Connection binds an authorized participant to its transport endpoint.
// Created on successful authorization, destroyed on disconnect. The
// registry owns it exclusively; no other component keeps a long-lived
// reference.
type Connection struct {
	id       ConnID
	userID   domain.UserID
	role     domain.Role
	ref      domain.SessionRef
	strategy domain.MediaStrategy
	sig      SignalConnection
}

func NewConnection(
	id ConnID,
	userID domain.UserID,
	role domain.Role,
	ref domain.SessionRef,
	strategy domain.MediaStrategy,
	sig SignalConnection,
) *Connection {
	return &Connection{
		id:       id,
		userID:   userID,
		role:     role,
		ref:      ref,
		strategy: strategy,
		sig:      sig,
	}
}

func (c *Connection) ID() ConnID                     { return c.id }
func (c *Connection) UserID() domain.UserID          { return c.userID }
func (c *Connection) Role() domain.Role              { return c.role }
func (c *Connection) Ref() domain.SessionRef         { return c.ref }
func (c *Connection) Strategy() domain.MediaStrategy { return c.strategy }
func (c *Connection) Signal() SignalConnection       { return c.sig }
func (c *Connection) Key() SessionKey                { return SessionKey(c.ref.Key()) }
