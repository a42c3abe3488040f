// Package websocket pushes live Set game updates to browser clients.
//
// Architecture:
//
// A central Hub owns every connection. Each client gets a read goroutine,
// which only watches for disconnects and pongs, and a write goroutine that
// drains the client's queue. Game actions still go through the REST API;
// the socket is one-way.
//
// Message Protocol:
//
// Outgoing messages are JSON:
//
//	{"session_id": "a1b2", "event": "state_update", "game_state": {...}}
//	{"session_id": "a1b2", "event": "set_found", "data": {...}}
//
// A freshly connected client first receives a "state" message with the
// current snapshot.
//
// Session Integration:
//
// Clients name their session with ?session=a1b2 when connecting. Session IDs
// are matched case-insensitively, like the session store.
//
// Usage:
//
//	hub := websocket.NewHub()
//	go hub.Run(ctx)
//
//	hub.ServeWS(w, r, sessionID, state)
//	hub.BroadcastToSession(sessionID, state)
//
// Concurrency:
//
// Broadcasts are queued and never block the caller. A full hub queue drops
// the message; a client whose own queue is full is disconnected.
package websocket
