package interfaces

// -----------------------------------------------------------------------------
// IBroadcaster interface so the pipeline can fan out without importing the
// server package. Both calls are fire-and-forget: delivery failures evict the
// offending connection and never surface to the caller.
// -----------------------------------------------------------------------------

type IBroadcaster interface {

	// BroadcastToRoom delivers a message to every connection in one room
	BroadcastToRoom(room string, message interface{})

	// -----------------------------------------------------------------------------

	// BroadcastAll delivers a message to every connection
	BroadcastAll(message interface{})
}
