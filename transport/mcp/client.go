package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/wricardo/set-game/game/engine"
	"github.com/wricardo/set-game/game/service"
)

const (
	serverName    = "Set Card Game"
	serverVersion = "1.0.0"
)

// Client is a thin MCP client that proxies to the REST API
type Client struct {
	baseURL    string
	httpClient *http.Client
	mcpServer  *server.MCPServer
}

// NewClient creates a new MCP client that calls the REST API
func NewClient(baseURL string) *Client {
	c := &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}

	c.initMCPServer()
	return c
}

func (c *Client) initMCPServer() {
	c.mcpServer = server.NewMCPServer(
		serverName,
		serverVersion,
		server.WithToolCapabilities(true),
		server.WithInstructions(`Set Card Game - MCP Interface

This is a thin client that proxies all requests to the REST API server.

GAME OBJECTIVE:
Find sets of three cards on the board until the deck runs out and no set remains.

AVAILABLE TOOLS:
- create_session / list_sessions / get_session: manage games
- game_state: show the board with card codes
- select_card / deselect_card / test_selection: pick cards one at a time
- submit_set: test three cards in one call, by position or card code
- add_three: lay out three more cards when you see no set
- find_set: hint, reveals one set on the board
- new_game: deal a fresh game in the same session
- action_history: past actions
- describe_card: spell out card codes, or check three cards locally
- game_instructions: full rules and card code legend`),
	)

	c.registerTools()
}

func sessionParam() mcp.ToolOption {
	return mcp.WithString("session_id", mcp.Required(), mcp.Description("Session ID"))
}

func (c *Client) registerTools() {
	// Session management
	c.mcpServer.AddTool(mcp.NewTool("create_session",
		mcp.WithDescription("Create a new game session with a freshly dealt board"),
	), c.handleCreateSession)

	c.mcpServer.AddTool(mcp.NewTool("list_sessions",
		mcp.WithDescription("List all active game sessions"),
	), c.handleListSessions)

	c.mcpServer.AddTool(mcp.NewTool("get_session",
		mcp.WithDescription("Get details of a specific session"),
		sessionParam(),
	), c.handleGetSession)

	// Game operations
	c.mcpServer.AddTool(mcp.NewTool("game_state",
		mcp.WithDescription("Show the board, the selection and how many cards are left"),
		sessionParam(),
	), c.handleGameState)

	c.mcpServer.AddTool(mcp.NewTool("new_game",
		mcp.WithDescription("Deal a new game in the session, discarding the current one"),
		sessionParam(),
	), c.handleNewGame)

	c.mcpServer.AddTool(mcp.NewTool("select_card",
		mcp.WithDescription("Add the card at a board position to the selection"),
		sessionParam(),
		mcp.WithNumber("row", mcp.Required(), mcp.Description("Row, 0-2"), mcp.Min(0)),
		mcp.WithNumber("col", mcp.Required(), mcp.Description("Column, from 0"), mcp.Min(0)),
	), c.handleSelectCard)

	c.mcpServer.AddTool(mcp.NewTool("deselect_card",
		mcp.WithDescription("Remove the card at a board position from the selection"),
		sessionParam(),
		mcp.WithNumber("row", mcp.Required(), mcp.Description("Row, 0-2"), mcp.Min(0)),
		mcp.WithNumber("col", mcp.Required(), mcp.Description("Column, from 0"), mcp.Min(0)),
	), c.handleDeselectCard)

	c.mcpServer.AddTool(mcp.NewTool("test_selection",
		mcp.WithDescription("Test the three selected cards. A set is removed and replaced, any other selection is just cleared"),
		sessionParam(),
	), c.handleTestSelection)

	c.mcpServer.AddTool(mcp.NewTool("submit_set",
		mcp.WithDescription("Test three cards at once. Give either positions like \"1,3\" (row,col) or card codes like \"RSO1\""),
		sessionParam(),
		mcp.WithArray("positions",
			mcp.Description("Three positions as \"row,col\""),
			mcp.Items(map[string]any{"type": "string"}),
		),
		mcp.WithArray("cards",
			mcp.Description("Three card codes currently on the board"),
			mcp.Items(map[string]any{"type": "string"}),
		),
	), c.handleSubmitSet)

	c.mcpServer.AddTool(mcp.NewTool("add_three",
		mcp.WithDescription("Lay out three more cards, one per row"),
		sessionParam(),
	), c.handleAddThree)

	c.mcpServer.AddTool(mcp.NewTool("find_set",
		mcp.WithDescription("Reveal one set on the board, if there is one"),
		sessionParam(),
	), c.handleFindSet)

	c.mcpServer.AddTool(mcp.NewTool("action_history",
		mcp.WithDescription("List past actions in the session"),
		sessionParam(),
		mcp.WithNumber("page", mcp.Description("Page number, from 1"), mcp.Min(1)),
		mcp.WithNumber("limit", mcp.Description("Entries per page, up to 100"), mcp.Min(1), mcp.Max(100)),
		mcp.WithString("order", mcp.Description("asc or desc"), mcp.Enum("asc", "desc")),
	), c.handleActionHistory)

	// Local helpers
	c.mcpServer.AddTool(mcp.NewTool("game_instructions",
		mcp.WithDescription("Get the rules of Set and the card code legend"),
	), c.handleGameInstructions)

	c.mcpServer.AddTool(mcp.NewTool("describe_card",
		mcp.WithDescription("Spell out card codes. With exactly three codes, also say whether they form a set and why"),
		mcp.WithArray("cards",
			mcp.Required(),
			mcp.Description("One or more card codes such as \"GTD2\""),
			mcp.Items(map[string]any{"type": "string"}),
		),
	), c.handleDescribeCard)
}

// GetMCPServer returns the underlying MCP server for serving
func (c *Client) GetMCPServer() *server.MCPServer {
	return c.mcpServer
}

// apiError is the error body the REST API returns.
type apiError struct {
	Error string `json:"error"`
	Code  int    `json:"code"`
}

func (c *Client) apiCall(ctx context.Context, method, path string, body interface{}, result interface{}) error {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reqBody = bytes.NewBuffer(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var errResp apiError
		if json.NewDecoder(resp.Body).Decode(&errResp) == nil && errResp.Error != "" {
			return errors.New(errResp.Error)
		}
		return fmt.Errorf("API error: %d", resp.StatusCode)
	}

	if result != nil {
		return json.NewDecoder(resp.Body).Decode(result)
	}
	return nil
}

func sessionPath(sessionID, action string) string {
	p := "/api/sessions/" + url.PathEscape(sessionID)
	if action != "" {
		p += "/" + action
	}
	return p
}

// Tool handlers

func (c *Client) handleCreateSession(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var session service.SessionInfo
	if err := c.apiCall(ctx, "POST", "/api/sessions", nil, &session); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result := fmt.Sprintf("Created session: %s\n\n%s", session.ID, formatGameState(session.GameState))
	return mcp.NewToolResultText(result), nil
}

func (c *Client) handleListSessions(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var response struct {
		Count    int                    `json:"count"`
		Sessions []*service.SessionInfo `json:"sessions"`
	}
	if err := c.apiCall(ctx, "GET", "/api/sessions", nil, &response); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	if len(response.Sessions) == 0 {
		return mcp.NewToolResultText("No active sessions"), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Active sessions (%d):\n", response.Count)
	for _, s := range response.Sessions {
		b.WriteString("- " + formatSessionInfo(s) + "\n")
	}
	return mcp.NewToolResultText(b.String()), nil
}

func (c *Client) handleGetSession(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, err := request.RequireString("session_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var session service.SessionInfo
	if err := c.apiCall(ctx, "GET", sessionPath(sessionID, ""), nil, &session); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(formatSessionInfo(&session) + "\n\n" + formatGameState(session.GameState)), nil
}

func (c *Client) handleGameState(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, err := request.RequireString("session_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var state engine.GameState
	if err := c.apiCall(ctx, "GET", sessionPath(sessionID, "state"), nil, &state); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(formatGameState(&state)), nil
}

func (c *Client) handleNewGame(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return c.boardAction(ctx, request, "new-game")
}

func (c *Client) handleAddThree(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return c.boardAction(ctx, request, "add3")
}

func (c *Client) boardAction(ctx context.Context, request mcp.CallToolRequest, action string) (*mcp.CallToolResult, error) {
	sessionID, err := request.RequireString("session_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var result service.ActionResult
	if err := c.apiCall(ctx, "POST", sessionPath(sessionID, action), nil, &result); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(result.Message + "\n\n" + formatGameState(result.GameState)), nil
}

func (c *Client) handleSelectCard(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return c.selection(ctx, request, "select")
}

func (c *Client) handleDeselectCard(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return c.selection(ctx, request, "deselect")
}

func (c *Client) selection(ctx context.Context, request mcp.CallToolRequest, action string) (*mcp.CallToolResult, error) {
	sessionID, err := request.RequireString("session_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	row, err := request.RequireInt("row")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	col, err := request.RequireInt("col")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var result service.SelectionResult
	body := engine.Position{Row: row, Col: col}
	if err := c.apiCall(ctx, "POST", sessionPath(sessionID, action), body, &result); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	text := fmt.Sprintf("%s. %d of %d selected", result.Message, result.NumSelected, engine.SelectionSize)
	if result.ReadyToTest {
		text += ", ready for test_selection"
	}
	return mcp.NewToolResultText(text + "\n\n" + formatGameState(result.GameState)), nil
}

func (c *Client) handleTestSelection(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, err := request.RequireString("session_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var result service.TestResult
	if err := c.apiCall(ctx, "POST", sessionPath(sessionID, "test"), nil, &result); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(formatTestResult(&result)), nil
}

type submitArgs struct {
	SessionID string   `json:"session_id"`
	Positions []string `json:"positions"`
	Cards     []string `json:"cards"`
}

func (c *Client) handleSubmitSet(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var args submitArgs
	if err := request.BindArguments(&args); err != nil {
		return mcp.NewToolResultErrorFromErr("invalid submit_set arguments", err), nil
	}
	if args.SessionID == "" {
		return mcp.NewToolResultError("session_id is required"), nil
	}

	var positions []engine.Position
	switch {
	case len(args.Positions) > 0 && len(args.Cards) > 0:
		return mcp.NewToolResultError("give either positions or cards, not both"), nil
	case len(args.Positions) > 0:
		for _, p := range args.Positions {
			pos, err := parsePosition(p)
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			positions = append(positions, pos)
		}
	case len(args.Cards) > 0:
		var state engine.GameState
		if err := c.apiCall(ctx, "GET", sessionPath(args.SessionID, "state"), nil, &state); err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		for _, code := range args.Cards {
			pos, err := locateCard(&state, code)
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			positions = append(positions, pos)
		}
	default:
		return mcp.NewToolResultError("positions or cards is required"), nil
	}

	var result service.TestResult
	body := map[string]interface{}{"positions": positions}
	if err := c.apiCall(ctx, "POST", sessionPath(args.SessionID, "submit"), body, &result); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(formatTestResult(&result)), nil
}

func (c *Client) handleFindSet(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, err := request.RequireString("session_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var result service.HintResult
	if err := c.apiCall(ctx, "GET", sessionPath(sessionID, "hint"), nil, &result); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	text := result.Message
	if result.Found {
		text += fmt.Sprintf("\n%d set(s) on the board. One of them:\n", result.SetsCount)
		for _, cell := range result.Cells {
			text += fmt.Sprintf("  (%d,%d) %s  %s\n", cell.Row, cell.Col, cell.Card.Code(), cell.Card.Describe())
		}
	}
	return mcp.NewToolResultText(text), nil
}

func (c *Client) handleActionHistory(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, err := request.RequireString("session_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	query := url.Values{}
	if page := request.GetInt("page", 0); page > 0 {
		query.Set("page", strconv.Itoa(page))
	}
	if limit := request.GetInt("limit", 0); limit > 0 {
		query.Set("limit", strconv.Itoa(limit))
	}
	if order := request.GetString("order", ""); order != "" {
		query.Set("order", order)
	}
	path := sessionPath(sessionID, "history")
	if len(query) > 0 {
		path += "?" + query.Encode()
	}

	var history service.HistoryResponse
	if err := c.apiCall(ctx, "GET", path, nil, &history); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(formatHistory(&history)), nil
}

func (c *Client) handleGameInstructions(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(instructions), nil
}

func (c *Client) handleDescribeCard(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	codes := request.GetStringSlice("cards", nil)
	if len(codes) == 0 {
		return mcp.NewToolResultError("cards is required"), nil
	}

	cards := make([]engine.Card, len(codes))
	var b strings.Builder
	for i, code := range codes {
		card, err := engine.ParseCard(code)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		cards[i] = card
		fmt.Fprintf(&b, "%s: %s\n", card.Code(), card.Describe())
	}

	if len(cards) == engine.SelectionSize {
		verdicts := engine.Explain(cards[0], cards[1], cards[2])
		if engine.IsSet(cards[0], cards[1], cards[2]) {
			b.WriteString("\nThese three cards form a set.\n")
		} else {
			b.WriteString("\nThese three cards do NOT form a set.\n")
		}
		b.WriteString(formatVerdicts(verdicts))
	}
	return mcp.NewToolResultText(b.String()), nil
}

// parsePosition reads "row,col".
func parsePosition(s string) (engine.Position, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 2 {
		return engine.Position{}, fmt.Errorf("position %q must look like \"row,col\"", s)
	}
	row, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return engine.Position{}, fmt.Errorf("position %q: bad row", s)
	}
	col, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil {
		return engine.Position{}, fmt.Errorf("position %q: bad column", s)
	}
	return engine.Position{Row: row, Col: col}, nil
}

// locateCard finds a card on the board by its code.
func locateCard(state *engine.GameState, code string) (engine.Position, error) {
	card, err := engine.ParseCard(code)
	if err != nil {
		return engine.Position{}, err
	}
	for _, cell := range state.Cells {
		if cell.Card == card {
			return cell.Position(), nil
		}
	}
	return engine.Position{}, fmt.Errorf("card %s is not on the board", card.Code())
}
