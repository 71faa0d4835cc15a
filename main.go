// Command cosmic-orbiters starts the Cosmic Orbiters relay hub.
//
// It supports two modes:
//  1. "serve" (default) – runs the HTTP server exposing the game channels,
//     REST API, static client files, and an /mcp HTTP endpoint
//  2. "mcp" – runs an MCP stdio server and spins up an internal HTTP API
//     if none is available
//
// Flags control host/port, the preset directory, the static client
// directory, debug logging, and optional ngrok tunneling for easy external
// access during development.
package main

import (
	"context"
	"encoding/json"
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

	"github.com/joho/godotenv"
	"github.com/mark3labs/mcp-go/server"
	"github.com/thebelin/cosmic-orbiters/api"
	"github.com/thebelin/cosmic-orbiters/game/config"
	"github.com/thebelin/cosmic-orbiters/game/hub"
	"github.com/thebelin/cosmic-orbiters/transport/mcp"
	"github.com/urfave/cli/v3"
	"golang.ngrok.com/ngrok"
	ngrokConfig "golang.ngrok.com/ngrok/config"
)

// Version information
const (
	Version = "1.0.0"
	AppName = "Cosmic Orbiters Relay Hub"
)

// options carries the resolved command-line configuration.
type options struct {
	host        string
	port        int
	configDir   string
	staticDir   string
	debug       bool
	ngrok       bool
	ngrokAuth   string
	ngrokDomain string
}

func optionsFromCommand(cmd *cli.Command) options {
	return options{
		host:        cmd.String("host"),
		port:        int(cmd.Int("port")),
		configDir:   cmd.String("config-dir"),
		staticDir:   cmd.String("static-dir"),
		debug:       cmd.Bool("debug"),
		ngrok:       cmd.Bool("ngrok"),
		ngrokAuth:   cmd.String("ngrok-auth"),
		ngrokDomain: cmd.String("ngrok-domain"),
	}
}

func main() {
	// Load .env file if it exists (ignore error if not found)
	if err := godotenv.Load(); err != nil {
		if !os.IsNotExist(err) {
			log.Printf("Warning: Error loading .env file: %v", err)
		}
	} else {
		log.Println("Loaded environment variables from .env file")
	}

	cmd := &cli.Command{
		Name:    "cosmic-orbiters",
		Usage:   "realtime relay hub for the Cosmic Orbiters party game",
		Version: Version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "host",
				Value: "localhost",
				Usage: "HTTP server host",
			},
			&cli.IntFlag{
				Name:  "port",
				Value: 8080,
				Usage: "HTTP server port",
			},
			&cli.StringFlag{
				Name:    "config-dir",
				Value:   "configs",
				Usage:   "Directory containing game configuration presets",
				Sources: cli.EnvVars("CONFIG_DIR"),
			},
			&cli.StringFlag{
				Name:    "static-dir",
				Value:   "static",
				Usage:   "Directory containing the static game clients",
				Sources: cli.EnvVars("STATIC_DIR"),
			},
			&cli.BoolFlag{
				Name:  "debug",
				Usage: "Enable debug logging",
			},
			&cli.BoolFlag{
				Name:    "ngrok",
				Usage:   "Enable ngrok tunnel",
				Sources: cli.EnvVars("NGROK_ENABLED"),
			},
			&cli.StringFlag{
				Name:    "ngrok-auth",
				Usage:   "Ngrok auth token",
				Sources: cli.EnvVars("NGROK_AUTHTOKEN", "NGROK_AUTH_TOKEN"),
			},
			&cli.StringFlag{
				Name:    "ngrok-domain",
				Usage:   "Custom ngrok domain (optional)",
				Sources: cli.EnvVars("NGROK_DOMAIN"),
			},
		},
		Commands: []*cli.Command{
			{
				Name:  "serve",
				Usage: "Run the HTTP server with game channels, REST API, and MCP endpoint (default)",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return runHTTPServer(optionsFromCommand(cmd.Root()))
				},
			},
			{
				Name:    "mcp",
				Aliases: []string{"stdio-mcp"},
				Usage:   "Run an MCP stdio server, reusing an external hub or starting an internal one",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return runStdioMCP(optionsFromCommand(cmd.Root()))
				},
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			return runHTTPServer(optionsFromCommand(cmd))
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		log.Fatalf("%s failed: %v", AppName, err)
	}
}

// buildHandler wires the hub, preset manager, API server, and /mcp endpoint
// into one HTTP handler. The MCP client proxies to baseURL so the tools and
// the REST surface stay the same code path.
func buildHandler(opts options, baseURL string) (http.Handler, error) {
	configManager, err := config.NewManager(opts.configDir)
	if err != nil {
		return nil, fmt.Errorf("failed to create config manager: %w", err)
	}

	h := hub.New()
	apiServer := api.NewServer(h, configManager, opts.staticDir)
	mcpClient := mcp.NewClient(baseURL)

	mainRouter := http.NewServeMux()
	mainRouter.Handle("/", apiServer)
	mainRouter.HandleFunc("/mcp", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != "POST" {
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

		w.Header().Set("Content-Type", "application/json")
		responseData, err := json.Marshal(response)
		if err != nil {
			http.Error(w, "Failed to marshal response", http.StatusInternalServerError)
			return
		}
		w.Write(responseData)
	})

	return mainRouter, nil
}

// runHTTPServer starts the HTTP server with the five game channels, REST
// API, static clients, and an /mcp proxy endpoint. If ngrok is enabled it
// also provisions a public tunnel serving the same handler.
func runHTTPServer(opts options) error {
	if opts.debug {
		log.SetFlags(log.LstdFlags | log.Lshortfile)
	} else {
		log.SetFlags(log.LstdFlags)
	}

	log.Printf("Starting %s v%s", AppName, Version)

	addr := fmt.Sprintf("%s:%d", opts.host, opts.port)
	mainRouter, err := buildHandler(opts, fmt.Sprintf("http://%s", addr))
	if err != nil {
		return err
	}

	httpServer := &http.Server{
		Addr:         addr,
		Handler:      mainRouter,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()

		log.Printf("HTTP server listening on %s", addr)
		log.Printf("REST API: http://%s/api", addr)
		log.Printf("Game channels: ws://%s/server /player /controls /stream /secure", addr)
		log.Printf("MCP endpoint: http://%s/mcp", addr)

		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("HTTP server failed: %v", err)
		}
	}()

	if opts.ngrok {
		wg.Add(1)
		go func() {
			defer wg.Done()
			runNgrokTunnel(ctx, opts, mainRouter)
		}()
	}

	sig := <-stop
	log.Printf("Received signal: %v. Shutting down...", sig)
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("HTTP server shutdown error: %v", err)
	}

	wg.Wait()
	log.Println("Server stopped")
	return nil
}

// runNgrokTunnel serves the handler through a public ngrok endpoint until
// the context is cancelled.
func runNgrokTunnel(ctx context.Context, opts options, handler http.Handler) {
	if opts.ngrokAuth == "" {
		log.Println("WARNING: Ngrok enabled but no auth token provided (use --ngrok-auth or NGROK_AUTHTOKEN)")
		return
	}

	log.Println("Starting ngrok tunnel...")

	var tunnel ngrokConfig.Tunnel
	if opts.ngrokDomain != "" {
		tunnel = ngrokConfig.HTTPEndpoint(ngrokConfig.WithDomain(opts.ngrokDomain))
		log.Printf("Using custom ngrok domain: %s", opts.ngrokDomain)
	} else {
		tunnel = ngrokConfig.HTTPEndpoint()
	}

	tun, err := ngrok.Listen(ctx,
		tunnel,
		ngrok.WithAuthtoken(opts.ngrokAuth),
	)
	if err != nil {
		log.Printf("Failed to start ngrok tunnel: %v", err)
		return
	}
	defer func() {
		if err := tun.Close(); err != nil {
			log.Printf("Failed to close ngrok tunnel: %v", err)
		}
	}()

	ngrokURL := tun.URL()
	log.Printf("Ngrok tunnel established: %s", ngrokURL)
	log.Printf("  REST API (ngrok): %s/api", ngrokURL)
	log.Printf("  Game channels (ngrok): %s/server etc.", ngrokURL)
	log.Printf("  Game UI (ngrok): %s/", ngrokURL)

	if err := http.Serve(tun, handler); err != nil && err != http.ErrServerClosed {
		log.Printf("Ngrok server error: %v", err)
	}
	log.Println("Ngrok tunnel closed")
}

// runStdioMCP runs an MCP stdio server. It tries to reuse an external hub
// at the configured host/port; if unavailable, it starts an internal HTTP
// server bound to a random loopback port and targets that.
func runStdioMCP(opts options) error {
	externalURL := fmt.Sprintf("http://%s:%d", opts.host, opts.port)
	log.Printf("Checking for external hub at %s...", externalURL)

	var baseURL string
	testClient := &http.Client{Timeout: 2 * time.Second}
	resp, err := testClient.Get(externalURL + "/api/status")
	if err == nil && resp.StatusCode < 500 {
		resp.Body.Close()
		log.Printf("External hub found at %s, using it for MCP", externalURL)
		baseURL = externalURL
	} else {
		log.Printf("No external hub found, starting internal HTTP server")

		listener, err := net.Listen("tcp", "127.0.0.1:0")
		if err != nil {
			return fmt.Errorf("failed to get available port: %w", err)
		}

		internalAddr := listener.Addr().String()
		baseURL = fmt.Sprintf("http://%s", internalAddr)
		log.Printf("Starting internal HTTP server on %s for MCP stdio", internalAddr)

		handler, err := buildHandler(opts, baseURL)
		if err != nil {
			return err
		}

		httpServer := &http.Server{Handler: handler}
		go func() {
			if err := httpServer.Serve(listener); err != nil && err != http.ErrServerClosed {
				log.Printf("Internal HTTP server error: %v", err)
			}
		}()

		// Give the listener a moment before the first tool call lands.
		time.Sleep(100 * time.Millisecond)
	}

	mcpClient := mcp.NewClient(baseURL)

	log.Println("MCP stdio server ready")
	if err := server.ServeStdio(mcpClient.GetMCPServer()); err != nil {
		return fmt.Errorf("MCP stdio server error: %w", err)
	}
	return nil
}
