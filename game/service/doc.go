// Package service provides the business logic layer for the Set game server.
//
// The service package implements:
//   - Multi-session game management
//   - The select, test and add-three operations on a session's game
//   - Set hints with a per-session action history
//   - Human readable explanations of failed selections
//
// Core Interfaces:
//
// GameService is the main service interface providing high-level game operations.
// SessionManager handles session creation, retrieval, and lifecycle.
// GameFactory deals the games handed to sessions.
//
// Architecture:
//
// The service layer sits between the transport layer (HTTP/WebSocket/MCP) and
// the game engine. The engine is single threaded, so every operation holds
// the service mutex while it touches a session's game.
//
// Usage:
//
//	sessionMgr := session.NewManager()
//	gameService := service.NewGameService(sessionMgr, func() (*engine.Game, error) {
//		return engine.NewGame(engine.WithMaxCards(18))
//	})
//
//	sessionInfo, err := gameService.CreateSession(ctx)
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	result, err := gameService.SubmitSet(ctx, sessionInfo.ID, []engine.Position{
//		{Row: 0, Col: 0}, {Row: 1, Col: 2}, {Row: 2, Col: 3},
//	})
//
// New Games:
//
// A session keeps one game at a time. NewGame replaces it with a freshly
// dealt game; the history keeps running across games and tags each entry
// with the game number.
package service
