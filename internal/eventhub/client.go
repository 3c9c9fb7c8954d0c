// Package eventhub pushes complaint events to connected dashboards.
package eventhub

import (
	"resolveit/backend/internal/auth"
	"resolveit/backend/internal/models"
)

// Client is one live connection. The hub only writes to it; clients do
// not send events back.
type Client interface {
	// ID identifies the connection, not the account behind it.
	ID() string
	// Actor is the authenticated identity the connection was opened with.
	Actor() auth.Actor
	// SendChannel receives the events this client may see.
	SendChannel() chan<- models.ComplaintEvent

	// Run starts the client's pumps.
	Run()
	// Close shuts the connection down. The hub calls it once, after
	// unregistering the client.
	Close()
}

// Visible reports whether actor may receive ev. Staff see everything;
// submitters see the public events of their own complaints.
func Visible(actor auth.Actor, ev models.ComplaintEvent) bool {
	if actor.Role.IsStaff() {
		return true
	}
	if !actor.IsAuthenticated() || ev.Internal || ev.SubmitterID == nil {
		return false
	}
	return *ev.SubmitterID == actor.ID
}
