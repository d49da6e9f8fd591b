package controllers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	logger "github.com/sirupsen/logrus"

	"github.com/rios0rios0/bulkimport/internal/domain/commands"
	"github.com/rios0rios0/bulkimport/internal/domain/entities"
)

// ImportsHandler serves POST /imports.
type ImportsHandler struct {
	command  commands.Batch
	settings *entities.Settings
}

// NewImportsHandler creates a new ImportsHandler.
func NewImportsHandler(command commands.Batch, settings *entities.Settings) *ImportsHandler {
	return &ImportsHandler{command: command, settings: settings}
}

// Create imports the submitted batch and answers 202 with one status per
// item, in request order. An empty or malformed batch is rejected with 400.
func (it *ImportsHandler) Create(c *gin.Context) {
	dryRun, err := strconv.ParseBool(c.DefaultQuery("dryRun", "false"))
	if err != nil {
		c.JSON(http.StatusBadRequest, errorBody("dryRun must be a boolean"))
		return
	}

	var requests []entities.ImportRequest
	if bindErr := c.ShouldBindJSON(&requests); bindErr != nil {
		c.JSON(http.StatusBadRequest, errorBody("malformed import batch: "+bindErr.Error()))
		return
	}

	results, err := it.command.Execute(c.Request.Context(), it.settings, requests, dryRun)
	switch {
	case errors.Is(err, entities.ErrEmptyBatch), errors.Is(err, entities.ErrInvalidImportRequest):
		c.JSON(http.StatusBadRequest, errorBody(err.Error()))
		return
	case err != nil:
		logger.Errorf("Import batch failed: %v", err)
		c.JSON(http.StatusInternalServerError, errorBody(err.Error()))
		return
	}

	c.JSON(http.StatusAccepted, results)
}
