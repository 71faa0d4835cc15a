package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// Client is a thin MCP client that proxies admin operations to the REST
// API.
type Client struct {
	baseURL    string
	httpClient *http.Client
	mcpServer  *server.MCPServer
}

// NewClient creates a new MCP client targeting the REST API at baseURL.
func NewClient(baseURL string) *Client {
	c := &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}

	c.initMCPServer()
	return c
}

// initMCPServer initializes the MCP server with all tools.
func (c *Client) initMCPServer() {
	c.mcpServer = server.NewMCPServer(
		"Cosmic Orbiters Relay Hub",
		"1.0.0",
		server.WithToolCapabilities(true),
		server.WithInstructions(`Cosmic Orbiters Relay Hub - MCP Interface

This is a thin client that proxies all requests to the relay hub's REST API.

The hub relays messages between four roles of a multiplayer party game:
the presentation server, players, handheld controllers, and stream viewers.
These tools drive the admin role: inspect the hub and control the game
lifecycle (create -> start -> end).

AVAILABLE TOOLS:
- hub_status: Current session status, config, roster, and connection counts
- create_game: Create a game (inline config payload or stored preset)
- start_game: Start the current game
- end_game: End the current game
- kick_player: Ask the presentation server to drop one player
- list_configs: List stored configuration presets`),
	)

	c.registerTools()
}

// registerTools registers all MCP tools.
func (c *Client) registerTools() {
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "hub_status",
		Description: "Get the hub's current session status, config, roster, and connection counts",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleStatus)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "create_game",
		Description: "Create a game as the admin role. Pass either a stored preset id or an inline JSON config payload to forward to the server and player roles.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"config_id": map[string]interface{}{
					"type":        "string",
					"description": "Id of a stored preset to forward (optional)",
				},
				"payload": map[string]interface{}{
					"type":        "object",
					"description": "Inline config payload to forward verbatim (optional)",
				},
			},
		},
	}, c.handleCreate)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "start_game",
		Description: "Start the current game; players logging in from now on receive an immediate start signal",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"payload": map[string]interface{}{
					"type":        "object",
					"description": "Payload forwarded with the start signal (optional)",
				},
			},
		},
	}, c.handleStart)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "end_game",
		Description: "End the current game (the session returns to created)",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"payload": map[string]interface{}{
					"type":        "object",
					"description": "Payload forwarded with the end signal (optional)",
				},
			},
		},
	}, c.handleEnd)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "kick_player",
		Description: "Forward a kick request for one player to the presentation server",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"player_id": map[string]interface{}{
					"type":        "string",
					"description": "Normalized id of the player to kick",
				},
				"reason": map[string]interface{}{
					"type":        "string",
					"description": "Human-readable reason (optional)",
				},
			},
			Required: []string{"player_id"},
		},
	}, c.handleKick)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "list_configs",
		Description: "List stored game configuration presets",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleListConfigs)
}

// GetMCPServer returns the underlying MCP server for serving.
func (c *Client) GetMCPServer() *server.MCPServer {
	return c.mcpServer
}

// apiCall performs one REST request against the hub.
func (c *Client) apiCall(method, path string, body interface{}, result interface{}) error {
	url := c.baseURL + path

	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reqBody = bytes.NewBuffer(data)
	}

	req, err := http.NewRequest(method, url, reqBody)
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
		var errResp map[string]string
		json.NewDecoder(resp.Body).Decode(&errResp)
		if msg, ok := errResp["error"]; ok {
			return fmt.Errorf("%s", msg)
		}
		return fmt.Errorf("API error: %d", resp.StatusCode)
	}

	if result != nil {
		return json.NewDecoder(resp.Body).Decode(result)
	}
	return nil
}

// hubSnapshot mirrors the /api/status response shape.
type hubSnapshot struct {
	Status  string            `json:"status"`
	Config  json.RawMessage   `json:"config,omitempty"`
	Players []json.RawMessage `json:"players"`
	Counts  map[string]int    `json:"connections"`
}

// formatSnapshot renders a snapshot for tool output.
func formatSnapshot(snap *hubSnapshot) string {
	status := snap.Status
	if status == "" {
		status = "none"
	}

	result := fmt.Sprintf("Game status: %s\n", status)
	if len(snap.Config) > 0 {
		result += fmt.Sprintf("Config: %s\n", snap.Config)
	} else {
		result += "Config: (none)\n"
	}

	result += fmt.Sprintf("Players (%d):\n", len(snap.Players))
	for _, p := range snap.Players {
		result += fmt.Sprintf("  - %s\n", p)
	}

	result += "Connections:\n"
	for _, role := range []string{"server", "admin", "stream", "player"} {
		result += fmt.Sprintf("  %s: %d\n", role, snap.Counts[role])
	}
	return result
}

// Tool handlers

func (c *Client) handleStatus(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var snap hubSnapshot
	if err := c.apiCall("GET", "/api/status", nil, &snap); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(formatSnapshot(&snap)), nil
}

func (c *Client) handleCreate(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, _ := request.Params.Arguments.(map[string]interface{})
	configID, _ := args["config_id"].(string)
	payload, _ := args["payload"].(map[string]interface{})

	body := map[string]interface{}{}
	if configID != "" {
		body["config_id"] = configID
	} else if payload != nil {
		body = payload
	}

	var snap hubSnapshot
	if err := c.apiCall("POST", "/api/game", body, &snap); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText("Game created\n\n" + formatSnapshot(&snap)), nil
}

func (c *Client) handleStart(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, _ := request.Params.Arguments.(map[string]interface{})
	payload, _ := args["payload"].(map[string]interface{})
	if payload == nil {
		payload = map[string]interface{}{}
	}

	var snap hubSnapshot
	if err := c.apiCall("POST", "/api/game/start", payload, &snap); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText("Game started\n\n" + formatSnapshot(&snap)), nil
}

func (c *Client) handleEnd(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, _ := request.Params.Arguments.(map[string]interface{})
	payload, _ := args["payload"].(map[string]interface{})
	if payload == nil {
		payload = map[string]interface{}{}
	}

	var snap hubSnapshot
	if err := c.apiCall("POST", "/api/game/end", payload, &snap); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText("Game ended\n\n" + formatSnapshot(&snap)), nil
}

func (c *Client) handleKick(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, _ := request.Params.Arguments.(map[string]interface{})
	playerID, _ := args["player_id"].(string)
	reason, _ := args["reason"].(string)

	body := map[string]string{"i": playerID}
	if reason != "" {
		body["reason"] = reason
	}

	if err := c.apiCall("POST", "/api/kick", body, nil); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Kick forwarded for player %s", playerID)), nil
}

func (c *Client) handleListConfigs(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var configs []struct {
		ConfigID string `json:"config_id"`
		Filename string `json:"filename"`
		Name     string `json:"name"`
	}
	if err := c.apiCall("GET", "/api/configs", nil, &configs); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	if len(configs) == 0 {
		return mcp.NewToolResultText("No presets stored"), nil
	}

	result := fmt.Sprintf("Stored presets (%d):\n\n", len(configs))
	for _, cfg := range configs {
		result += fmt.Sprintf("- %s (%s): %s\n", cfg.ConfigID, cfg.Filename, cfg.Name)
	}
	return mcp.NewToolResultText(result), nil
}
