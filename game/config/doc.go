// Package config loads server settings for the Set game.
//
// Settings come from the environment, optionally seeded from .env files:
//
//	SET_HOST              listen host (localhost)
//	SET_PORT              listen port (8080)
//	SET_DEBUG             file:line in log output
//	SET_MAX_BOARD_CARDS   board size cap for "add three", 0 for none (18)
//	SET_SESSION_TTL       idle time before a session is dropped (24h)
//	SET_CLEANUP_INTERVAL  how often idle sessions are swept (1h)
//	SET_API_URL           REST base URL used by the MCP proxy
//	NGROK_ENABLED         open an ngrok tunnel when serving
//	NGROK_AUTHTOKEN       ngrok token, NGROK_AUTH_TOKEN is also accepted
//	NGROK_DOMAIN          reserved ngrok domain
//
// Usage:
//
//	cfg, err := config.Load()
//	if err != nil {
//		log.Fatal(err)
//	}
//	gameService := service.NewGameService(session.NewManager(), cfg.NewGame)
//
// Validation:
//
// Load rejects ports outside 1-65535, non-positive durations and a board
// cap that is not a whole number of columns of at least a full board. Every
// such failure wraps ErrInvalidConfig.
package config
