// Package mcp exposes the Set game to AI agents over the Model Context
// Protocol.
//
// Client is a thin proxy: every game tool calls the REST API served by
// package api, so agents and browser players share the same sessions and
// websocket updates. Only game_instructions and describe_card run locally.
//
// MCP Tools:
//   - create_session, list_sessions, get_session
//   - game_state: board rendered as a grid of card codes, selection in brackets
//   - new_game: deal again in the same session
//   - select_card, deselect_card, test_selection
//   - submit_set: three positions ("1,3") or three card codes ("GSO1")
//   - add_three, find_set
//   - action_history: paginated action log
//   - game_instructions: rules and the card code legend
//   - describe_card: spell out codes, explain a triple attribute by attribute
//
// Transport Modes:
//
// The same MCPServer is served over stdio (server.ServeStdio) or mounted on
// the HTTP server at /mcp.
//
// Usage:
//
//	client := mcp.NewClient("http://localhost:8080")
//	server.ServeStdio(client.GetMCPServer())
package mcp
