package controllers

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	logger "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/rios0rios0/bulkimport/internal/domain/commands"
	"github.com/rios0rios0/bulkimport/internal/domain/entities"
)

const (
	readHeaderTimeout = 10 * time.Second
	shutdownTimeout   = 30 * time.Second
)

// ServeController handles the "serve" subcommand (HTTP API).
type ServeController struct {
	batch     commands.Batch
	discovery commands.Discovery
}

// NewServeController creates a new ServeController.
func NewServeController(batch commands.Batch, discovery commands.Discovery) *ServeController {
	return &ServeController{batch: batch, discovery: discovery}
}

// GetBind returns the Cobra command metadata for the serve controller.
func (it *ServeController) GetBind() entities.ControllerBind {
	return entities.ControllerBind{
		Use:   "serve",
		Short: "Serve the bulk import HTTP API",
		Long: `Serve the bulk import HTTP API.

POST /imports?dryRun=<bool> imports a batch of repositories into the
software catalog. GET /organizations, /organizations/{org}/repositories
and /repositories list what the configured providers can see.`,
	}
}

// Execute starts the HTTP server and blocks until SIGINT or SIGTERM.
func (it *ServeController) Execute(cmd *cobra.Command, _ []string) {
	settings, err := loadSettings(cmd)
	if err != nil {
		logger.Error(err)
		return
	}
	if address, _ := cmd.Flags().GetString("address"); address != "" {
		settings.Server.Address = address
	}

	gin.SetMode(gin.ReleaseMode)
	server := &http.Server{
		Addr: settings.Server.Address,
		Handler: NewRouter(RouterDeps{
			Imports:   NewImportsHandler(it.batch, settings),
			Discovery: NewDiscoveryHandler(it.discovery, settings),
		}),
		ReadHeaderTimeout: readHeaderTimeout,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	serveErr := make(chan error, 1)
	go func() {
		logger.Infof("Listening on %s", settings.Server.Address)
		if listenErr := server.ListenAndServe(); listenErr != nil && !errors.Is(listenErr, http.ErrServerClosed) {
			serveErr <- listenErr
		}
		close(serveErr)
	}()

	select {
	case listenErr := <-serveErr:
		if listenErr != nil {
			logger.Errorf("Server failed: %v", listenErr)
		}
		return
	case <-ctx.Done():
	}

	logger.Info("Shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if shutdownErr := server.Shutdown(shutdownCtx); shutdownErr != nil {
		logger.Errorf("Graceful shutdown failed: %v", shutdownErr)
	}
}

// AddFlags adds the serve-specific flags to the given Cobra command.
func (it *ServeController) AddFlags(cmd *cobra.Command) {
	cmd.Flags().String("address", "", "Listen address (overrides server.address)")
}
