// Command setgame serves the Set card game.
//
// It supports three modes:
//  1. "serve" (default) – runs the HTTP server exposing REST API, WebSocket, and an /mcp HTTP endpoint
//  2. "mcp" – runs an MCP stdio server and spins up an internal HTTP API if none is available
//  3. "play" – plays a game in the terminal
//
// Settings come from the environment (see package config) and can be
// overridden with flags. An ngrok tunnel can expose the server during
// development.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/mark3labs/mcp-go/server"
	"github.com/urfave/cli/v3"
	"go.uber.org/zap"
	"golang.ngrok.com/ngrok"
	ngrokConfig "golang.ngrok.com/ngrok/config"

	"github.com/wricardo/set-game/api"
	"github.com/wricardo/set-game/game/config"
	"github.com/wricardo/set-game/game/service"
	"github.com/wricardo/set-game/game/session"
	"github.com/wricardo/set-game/transport/mcp"
	"github.com/wricardo/set-game/transport/terminal"
	"github.com/wricardo/set-game/transport/websocket"
)

// Version information
const (
	Version = "1.0.0"
	AppName = "Set Game Server"
)

// runners are the entry points behind each subcommand.
type runners struct {
	serve func(ctx context.Context, cfg *config.Config) error
	mcp   func(ctx context.Context, cfg *config.Config) error
	play  func(ctx context.Context, cfg *config.Config, in io.Reader, out io.Writer, colors bool) error
}

func defaultRunners() runners {
	return runners{
		serve: runHTTPServer,
		mcp:   runStdioMCPWithInternalServer,
		play:  runTerminal,
	}
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newCommand(cfg, defaultRunners()).Run(ctx, os.Args); err != nil {
		log.Fatal(err)
	}
}

// newCommand builds the CLI. Flag defaults come from cfg, and flag values
// are written back into cfg before any subcommand runs.
func newCommand(cfg *config.Config, r runners) *cli.Command {
	serve := func(ctx context.Context, cmd *cli.Command) error {
		return r.serve(ctx, cfg)
	}

	return &cli.Command{
		Name:    "setgame",
		Usage:   "Play Set over HTTP, WebSocket, MCP or in a terminal",
		Version: Version,
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "host", Value: cfg.Host, Usage: "HTTP server host"},
			&cli.IntFlag{Name: "port", Value: cfg.Port, Usage: "HTTP server port"},
			&cli.BoolFlag{Name: "debug", Value: cfg.Debug, Usage: "Enable debug logging"},
			&cli.IntFlag{Name: "max-board-cards", Value: cfg.MaxBoardCards, Usage: "Largest board \"add three\" may build, 0 for no limit"},
			&cli.DurationFlag{Name: "session-ttl", Value: cfg.SessionTTL, Usage: "Drop sessions idle for this long"},
			&cli.BoolFlag{Name: "ngrok", Value: cfg.Ngrok.Enabled, Usage: "Enable ngrok tunnel"},
			&cli.StringFlag{Name: "ngrok-auth", Value: cfg.Ngrok.AuthToken, Usage: "Ngrok auth token (or NGROK_AUTHTOKEN)"},
			&cli.StringFlag{Name: "ngrok-domain", Value: cfg.Ngrok.Domain, Usage: "Custom ngrok domain (optional)"},
		},
		Before: func(ctx context.Context, cmd *cli.Command) (context.Context, error) {
			if err := applyFlags(cmd, cfg); err != nil {
				return ctx, err
			}
			if cfg.Debug {
				log.SetFlags(log.LstdFlags | log.Lshortfile)
			} else {
				log.SetFlags(log.LstdFlags)
			}
			return ctx, nil
		},
		Action: serve,
		Commands: []*cli.Command{
			{
				Name:    "serve",
				Aliases: []string{"server", "http"},
				Usage:   "Run HTTP server with API, WebSocket, and MCP endpoint",
				Action:  serve,
			},
			{
				Name:    "mcp",
				Aliases: []string{"stdio-mcp", "mcp-stdio"},
				Usage:   "Run MCP stdio server, with an internal HTTP server if none is running",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "api-url", Value: cfg.APIURL, Usage: "REST API to proxy to when it is reachable"},
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					cfg.APIURL = cmd.String("api-url")
					return r.mcp(ctx, cfg)
				},
			},
			{
				Name:  "play",
				Usage: "Play in the terminal",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "no-color", Usage: "Draw cards as codes instead of colored symbols"},
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return r.play(ctx, cfg, os.Stdin, cmd.Root().Writer, !cmd.Bool("no-color"))
				},
			},
		},
	}
}

// applyFlags copies flag values into cfg and re-validates it.
func applyFlags(cmd *cli.Command, cfg *config.Config) error {
	cfg.Host = cmd.String("host")
	cfg.Port = cmd.Int("port")
	cfg.Debug = cmd.Bool("debug")
	cfg.MaxBoardCards = cmd.Int("max-board-cards")
	cfg.SessionTTL = cmd.Duration("session-ttl")
	cfg.Ngrok.Enabled = cmd.Bool("ngrok")
	cfg.Ngrok.AuthToken = cmd.String("ngrok-auth")
	cfg.Ngrok.Domain = cmd.String("ngrok-domain")
	return cfg.Validate()
}

// newLogger builds the game event logger: development output with debug
// events when cfg.Debug is set, JSON at info level otherwise. Both write to
// stderr.
func newLogger(cfg *config.Config) *zap.Logger {
	build := zap.NewProduction
	if cfg.Debug {
		build = zap.NewDevelopment
	}
	logger, err := build()
	if err != nil {
		log.Printf("Falling back to a silent game logger: %v", err)
		return zap.NewNop()
	}
	return logger
}

// initializeServices wires the session manager and the game service.
func initializeServices(cfg *config.Config, logger *zap.Logger) (service.GameService, *session.Manager) {
	sessionManager := session.NewManager()
	return service.NewGameService(sessionManager, cfg.NewGame, service.WithLogger(logger)), sessionManager
}

// sessionCleanupRoutine periodically removes sessions that have not been
// accessed within ttl.
func sessionCleanupRoutine(ctx context.Context, manager *session.Manager, ttl, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if removed := manager.CleanupExpiredSessions(ttl); removed > 0 {
				log.Printf("Cleaned up %d expired sessions", removed)
			}
		}
	}
}

// newHandler mounts the API server at the root and the MCP endpoint at /mcp.
func newHandler(apiServer http.Handler, mcpClient *mcp.Client) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/", apiServer)
	mux.HandleFunc("/mcp", mcpHandler(mcpClient))
	return mux
}

// mcpHandler answers single JSON-RPC MCP messages over HTTP POST.
func mcpHandler(mcpClient *mcp.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		body, err := io.ReadAll(r.Body)
		if err != nil {
			http.Error(w, "Failed to read request", http.StatusBadRequest)
			return
		}
		defer r.Body.Close()

		response := mcpClient.GetMCPServer().HandleMessage(r.Context(), body)

		responseData, err := json.Marshal(response)
		if err != nil {
			http.Error(w, "Failed to marshal response", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write(responseData)
	}
}

// runHTTPServer starts the HTTP server with REST API, WebSocket hub, and an
// /mcp proxy endpoint, and blocks until ctx is cancelled. If ngrok is
// enabled it also provisions a public tunnel.
func runHTTPServer(ctx context.Context, cfg *config.Config) error {
	log.Printf("Starting %s v%s", AppName, Version)

	logger := newLogger(cfg)
	defer func() { _ = logger.Sync() }()

	gameService, sessionManager := initializeServices(cfg, logger)
	go sessionCleanupRoutine(ctx, sessionManager, cfg.SessionTTL, cfg.CleanupInterval)

	hub := websocket.NewHub()
	go hub.Run(ctx)

	addr := cfg.Addr()
	handler := newHandler(api.NewServer(gameService, hub), mcp.NewClient("http://"+addr))

	httpServer := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	var wg sync.WaitGroup
	errCh := make(chan error, 1)

	wg.Add(1)
	go func() {
		defer wg.Done()

		log.Printf("HTTP server listening on %s", addr)
		log.Printf("REST API: http://%s/api", addr)
		log.Printf("WebSocket: ws://%s/ws?session=<session_id>", addr)
		log.Printf("MCP endpoint: http://%s/mcp", addr)

		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("HTTP server failed: %w", err)
		}
	}()

	if cfg.Ngrok.Enabled {
		wg.Add(1)
		go func() {
			defer wg.Done()
			runNgrokTunnel(ctx, cfg.Ngrok, handler)
		}()
	}

	var runErr error
	select {
	case <-ctx.Done():
		log.Println("Shutting down...")
	case runErr = <-errCh:
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("HTTP server shutdown error: %v", err)
	}

	wg.Wait()
	log.Println("Server stopped")
	return runErr
}

// runNgrokTunnel serves handler through an ngrok tunnel until ctx is done.
func runNgrokTunnel(ctx context.Context, cfg config.Ngrok, handler http.Handler) {
	if cfg.AuthToken == "" {
		log.Println("WARNING: Ngrok enabled but no auth token provided (use --ngrok-auth, NGROK_AUTHTOKEN, or NGROK_AUTH_TOKEN env var)")
		return
	}

	log.Println("Starting ngrok tunnel...")

	var tunnel ngrokConfig.Tunnel
	if cfg.Domain != "" {
		tunnel = ngrokConfig.HTTPEndpoint(ngrokConfig.WithDomain(cfg.Domain))
		log.Printf("Using custom ngrok domain: %s", cfg.Domain)
	} else {
		tunnel = ngrokConfig.HTTPEndpoint()
	}

	tun, err := ngrok.Listen(ctx, tunnel, ngrok.WithAuthtoken(cfg.AuthToken))
	if err != nil {
		log.Printf("Failed to start ngrok tunnel: %v", err)
		return
	}

	ngrokURL := tun.URL()
	log.Printf("Ngrok tunnel established: %s", ngrokURL)
	log.Printf("  REST API (ngrok): %s/api", ngrokURL)
	log.Printf("  WebSocket (ngrok): %s/ws?session=<session_id>", ngrokURL)
	log.Printf("  MCP endpoint (ngrok): %s/mcp", ngrokURL)

	srv := &http.Server{Handler: handler}
	go func() {
		<-ctx.Done()
		srv.Close()
	}()

	if err := srv.Serve(tun); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Printf("Ngrok server error: %v", err)
	}
	log.Println("Ngrok tunnel closed")
}

// apiAvailable reports whether a Set API answers its health check at baseURL.
func apiAvailable(baseURL string) bool {
	client := &http.Client{Timeout: 2 * time.Second}
	resp, err := client.Get(baseURL + "/api/health")
	if err != nil {
		return false
	}
	resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

// startInternalAPI serves the REST API on a random loopback port and returns
// its base URL. The server stops when ctx is cancelled.
func startInternalAPI(ctx context.Context, cfg *config.Config) (string, error) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return "", fmt.Errorf("failed to get available port: %w", err)
	}

	gameService, sessionManager := initializeServices(cfg, newLogger(cfg))
	go sessionCleanupRoutine(ctx, sessionManager, cfg.SessionTTL, cfg.CleanupInterval)

	hub := websocket.NewHub()
	go hub.Run(ctx)

	httpServer := &http.Server{Handler: api.NewServer(gameService, hub)}
	go func() {
		if err := httpServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("Internal HTTP server error: %v", err)
		}
	}()
	go func() {
		<-ctx.Done()
		httpServer.Close()
	}()

	return "http://" + listener.Addr().String(), nil
}

// runStdioMCPWithInternalServer runs an MCP stdio server. It reuses the API
// at cfg.APIURL when one answers; otherwise it starts an internal API bound
// to a random loopback port and targets that.
func runStdioMCPWithInternalServer(ctx context.Context, cfg *config.Config) error {
	// stdout carries the MCP protocol.
	log.SetOutput(os.Stderr)

	baseURL := cfg.APIURL
	log.Printf("Checking for external API server at %s...", baseURL)

	if apiAvailable(baseURL) {
		log.Printf("External API server found at %s, using it for MCP", baseURL)
	} else {
		log.Printf("No external API server found, starting internal HTTP server")
		internalURL, err := startInternalAPI(ctx, cfg)
		if err != nil {
			return err
		}
		baseURL = internalURL
		log.Printf("Internal HTTP server for MCP stdio on %s", baseURL)
	}

	mcpClient := mcp.NewClient(baseURL)
	log.Println("MCP stdio server ready")

	if err := server.ServeStdio(mcpClient.GetMCPServer()); err != nil {
		return fmt.Errorf("MCP stdio server error: %w", err)
	}
	return nil
}

// runTerminal plays one game in the terminal against an in-process service.
// Game events are not logged so they do not interleave with the board.
func runTerminal(ctx context.Context, cfg *config.Config, in io.Reader, out io.Writer, colors bool) error {
	gameService, _ := initializeServices(cfg, zap.NewNop())
	return terminal.NewPlayer(gameService, in, out, terminal.WithColor(colors)).Run(ctx)
}
