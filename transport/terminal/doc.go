// Package terminal plays Set in a text terminal.
//
// Cards are drawn with colored symbols, one symbol per count:
//
//	a.[  ● ●  ]   ● ■ ◆ solid   ◉ ▣ ◈ striped   ○ □ ◇ outlined
//
// and labelled a-z, A-Z in row-major order. Typing three labels tests them
// as a set. The player talks to a service.GameService, so the terminal game
// runs the same rules as the HTTP server.
package terminal
