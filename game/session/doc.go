// Package session provides in-memory session storage for the Set game server.
//
// The session package implements:
//   - Thread-safe session storage and retrieval
//   - Unique session ID generation
//   - Session cleanup and expiration
//
// Core Types:
//
// Manager implements service.SessionManager. Each stored service.Session
// holds the engine.Game the player is working on plus its creation and last
// access times.
//
// Session Identifiers:
//
// Sessions use 4-character hex IDs for easy reference. IDs come from
// crypto/rand and are redrawn on collision. Lookups ignore case.
//
// Usage:
//
//	manager := session.NewManager()
//
//	game, _ := engine.NewGame()
//	sess, err := manager.Create("", game)
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	sess, err = manager.Get(sessionID)
//
// Cleanup:
//
// Sessions live only as long as the process. CleanupExpiredSessions drops
// sessions that have not been touched within a given age and is meant to be
// called from a ticker.
package session
