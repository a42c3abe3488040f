// Package api provides the HTTP REST API for the Set game server.
//
// Endpoints:
//
// Session Management:
//   - POST   /api/sessions              - Create a session with a fresh deal
//   - GET    /api/sessions              - List sessions (?sort=created|accessed&order=asc|desc&limit=N)
//   - GET    /api/sessions/{id}         - Get a session
//   - DELETE /api/sessions/{id}         - Delete a session
//
// Game Operations:
//   - GET  /api/sessions/{id}/state     - Current board, selection and deck size
//   - POST /api/sessions/{id}/new-game  - Deal a new game in the same session
//   - POST /api/sessions/{id}/select    - {"row":0,"col":2}
//   - POST /api/sessions/{id}/deselect  - {"row":0,"col":2}
//   - POST /api/sessions/{id}/test      - Test the three selected cards
//   - POST /api/sessions/{id}/submit    - {"positions":[{"row":0,"col":0},...]}
//   - POST /api/sessions/{id}/add3      - Lay out three more cards
//   - GET  /api/sessions/{id}/hint      - Find a set on the board
//   - GET  /api/sessions/{id}/history   - Action log (?page=1&limit=20&order=desc)
//
// Other:
//   - GET /api/health
//   - GET /ws?session={id}              - Live updates, see package websocket
//
// Error Handling:
//
// Errors are returned as JSON:
//
//	{"error": "session zz99: session not found", "code": 404}
//
// Unknown sessions map to 404. Out-of-range positions and wrong selection
// sizes map to 400. Drawing from an empty deck or past the board cap maps
// to 409.
package api
