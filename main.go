package main

import (
	"flag"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	webview "github.com/webview/webview_go"
	"go.uber.org/zap"

	"github.com/kartoza/citylens/internal/config"
	"github.com/kartoza/citylens/internal/server"
)

var version = "dev"

func main() {
	port := flag.Int("port", 8080, "HTTP server port")
	dataDir := flag.String("data-dir", "", "Directory for the SQLite stores")
	configPath := flag.String("config", "", "Path to a YAML config file")
	headless := flag.Bool("headless", false, "Run in headless mode (no GUI window)")
	verbose := flag.Bool("verbose", false, "Enable debug logging")
	showVersion := flag.Bool("version", false, "Show version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Printf("CityLens v%s\n", version)
		os.Exit(0)
	}

	// API keys arrive through the environment; a .env file next to the
	// binary is the supported way to set them
	_ = godotenv.Load()

	logCfg := zap.NewProductionConfig()
	if *verbose {
		logCfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	}
	logger, err := logCfg.Build()
	if err != nil {
		fmt.Fprintf(os.Stderr, "could not build logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Fatal("loading configuration", zap.Error(err))
	}
	cfg.Version = version

	// Explicit flags beat the config file and environment
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "port":
			cfg.Port = *port
		case "data-dir":
			cfg.DataDir = *dataDir
		}
	})

	// Find an available port (try up to 10 ports starting from the requested one)
	availablePort, err := findAvailablePort(cfg.Port, 10)
	if err != nil {
		logger.Fatal("no available port", zap.Error(err))
	}
	if availablePort != cfg.Port {
		logger.Info("port in use, moving",
			zap.Int("requested", cfg.Port), zap.Int("using", availablePort))
		cfg.Port = availablePort
	}

	logger.Info("CityLens starting",
		zap.String("version", version),
		zap.Int("port", cfg.Port),
		zap.String("data_dir", cfg.DataDir),
		zap.String("assistant_provider", cfg.Assistant.Provider))

	srv, err := server.New(cfg, logger)
	if err != nil {
		logger.Fatal("creating server", zap.Error(err))
	}

	// Graceful shutdown on SIGINT/SIGTERM
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	// Start server in background
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	serverURL := fmt.Sprintf("http://localhost:%d", cfg.Port)
	if !waitForServer(serverURL, 10*time.Second) {
		logger.Warn("server may not be ready", zap.String("url", serverURL))
	}

	if *headless {
		// Headless mode: wait for signal or error
		select {
		case err := <-errCh:
			if err != nil {
				logger.Fatal("server error", zap.Error(err))
			}
		case sig := <-stop:
			logger.Info("shutting down", zap.String("signal", sig.String()))
			if err := srv.Stop(); err != nil {
				logger.Error("shutdown error", zap.Error(err))
			}
		}
		return
	}

	// GUI mode: open embedded WebView window
	w := webview.New(false)
	defer w.Destroy()

	w.SetTitle("CityLens")
	w.SetSize(1280, 800, webview.HintNone)
	w.Navigate(serverURL)

	// When the webview window closes, shut down the server
	go func() {
		select {
		case err := <-errCh:
			if err != nil {
				logger.Error("server error", zap.Error(err))
			}
		case sig := <-stop:
			logger.Info("shutting down", zap.String("signal", sig.String()))
			w.Terminate()
		}
	}()

	// Run blocks until the window is closed
	w.Run()

	logger.Info("window closed, shutting down server")
	if err := srv.Stop(); err != nil {
		logger.Error("shutdown error", zap.Error(err))
	}
}

// waitForServer polls until the server is accepting connections
func waitForServer(url string, timeout time.Duration) bool {
	addr := url[len("http://"):]
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		conn, err := net.DialTimeout("tcp", addr, 500*time.Millisecond)
		if err == nil {
			conn.Close()
			return true
		}
		time.Sleep(100 * time.Millisecond)
	}
	return false
}

// findAvailablePort finds an available port, starting from the given port.
// If the port is in use, it tries subsequent ports up to maxAttempts times.
func findAvailablePort(startPort int, maxAttempts int) (int, error) {
	for i := 0; i < maxAttempts; i++ {
		port := startPort + i
		addr := fmt.Sprintf(":%d", port)
		listener, err := net.Listen("tcp", addr)
		if err == nil {
			listener.Close()
			return port, nil
		}
	}
	return 0, fmt.Errorf("no available port found after %d attempts starting from %d", maxAttempts, startPort)
}
