package main

import (
	"context"
	"flag"
	"fmt"
	"io/fs"
	"log"
	"net/http"
	"os"
	"os/exec"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/felo/email-organizer/internal/auth"
	"github.com/felo/email-organizer/internal/config"
	"github.com/felo/email-organizer/internal/db"
	"github.com/felo/email-organizer/internal/extract"
	"github.com/felo/email-organizer/internal/handlers"
	"github.com/felo/email-organizer/web"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

func main() {
	envFile := flag.String("env-file", "", "Path to env file")
	noBrowser := flag.Bool("no-browser", false, "Do not open the browser on startup")
	flag.Parse()

	cfg, err := config.Load(*envFile)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		// keep serving so the error is shown in the browser
		log.Printf("Configuration error: %v", err)
	}

	database, err := db.Open(cfg.DBPath)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer database.Close()

	ctx := context.Background()

	var model extract.Model
	if cfg.GeminiAPIKey != "" {
		m, err := extract.NewGeminiModel(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
		if err != nil {
			log.Fatalf("Failed to create Gemini client: %v", err)
		}
		model = m
		log.Printf("Using model %s", cfg.GeminiModel)
	}

	var gate handlers.SignInGate
	if cfg.GoogleClientID != "" {
		g, err := auth.NewGate(ctx, cfg.GoogleClientID, cfg.GoogleClientSecret, cfg.PublicURL+"/auth/callback")
		if err != nil {
			log.Fatalf("Failed to create sign-in gate: %v", err)
		}
		gate = g
		if g.OAuthEnabled() {
			log.Printf("OAuth redirect sign-in enabled")
		}
	}

	h := handlers.New(database, cfg, gate, extract.New(model))
	if err := h.LoadTemplates(web.Assets); err != nil {
		log.Fatalf("Failed to load templates: %v", err)
	}

	r, err := newRouter(h)
	if err != nil {
		log.Fatalf("Failed to set up routes: %v", err)
	}

	// No write timeout: an extraction runs until the model answers
	srv := &http.Server{
		Addr:        cfg.Address(),
		Handler:     r,
		ReadTimeout: 30 * time.Second,
		IdleTimeout: 60 * time.Second,
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		log.Printf("Starting server on %s", cfg.URL())
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	if !*noBrowser {
		time.Sleep(500 * time.Millisecond) // Give server time to start
		if err := openBrowser(cfg.PublicURL); err != nil {
			log.Printf("Failed to open browser: %v", err)
			log.Printf("Please open your browser and navigate to: %s", cfg.PublicURL)
		}
	}

	<-sigChan
	log.Println("Shutting down gracefully...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}

	log.Println("Server stopped")
}

// newRouter wires the handlers and embedded static files into a chi router
func newRouter(h *handlers.Handlers) (chi.Router, error) {
	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))

	r.Get("/", h.Index)
	r.Post("/organize", h.Organize)
	r.Post("/sort", h.SetSort)
	r.Post("/emails/delete", h.DeleteEmail)
	r.Get("/api/result", h.Result)

	r.Post("/auth/google", h.SignInGoogle)
	r.Get("/auth/login", h.Login)
	r.Get("/auth/callback", h.OAuthCallback)
	r.Post("/auth/signout", h.SignOut)

	staticFS, err := fs.Sub(web.Assets, "static")
	if err != nil {
		return nil, fmt.Errorf("failed to get static files: %w", err)
	}
	r.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.FS(staticFS))))

	return r, nil
}

// openBrowser opens the default browser to the specified URL
func openBrowser(url string) error {
	var cmd *exec.Cmd

	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	default:
		cmd = exec.Command("xdg-open", url)
	}

	return cmd.Start()
}
