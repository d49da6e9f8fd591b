package controllers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/rios0rios0/bulkimport/internal/domain/commands"
	"github.com/rios0rios0/bulkimport/internal/domain/entities"
)

// DiscoveryHandler serves the read-only organization and repository listings.
// A listing answers 200 when at least one provider answered and 500 when none did.
type DiscoveryHandler struct {
	command  commands.Discovery
	settings *entities.Settings
}

// NewDiscoveryHandler creates a new DiscoveryHandler.
func NewDiscoveryHandler(command commands.Discovery, settings *entities.Settings) *DiscoveryHandler {
	return &DiscoveryHandler{command: command, settings: settings}
}

func (it *DiscoveryHandler) ListOrganizations(c *gin.Context) {
	opts, ok := listOptions(c)
	if !ok {
		return
	}
	result, err := it.command.ListOrganizations(c.Request.Context(), it.settings, opts)
	respond(c, result, err)
}

func (it *DiscoveryHandler) ListOrganizationRepositories(c *gin.Context) {
	it.listRepositories(c, c.Param("org"))
}

func (it *DiscoveryHandler) ListRepositories(c *gin.Context) {
	it.listRepositories(c, "")
}

func (it *DiscoveryHandler) listRepositories(c *gin.Context, org string) {
	opts, ok := listOptions(c)
	if !ok {
		return
	}
	result, err := it.command.ListRepositories(c.Request.Context(), it.settings, org, opts)
	respond(c, result, err)
}

func respond[T any](c *gin.Context, result commands.DiscoveryResult[T], err error) {
	if result.Items == nil {
		result.Items = []T{}
	}
	if result.Errors == nil {
		result.Errors = []string{}
	}
	if err != nil {
		if len(result.Errors) == 0 {
			result.Errors = []string{err.Error()}
		}
		c.JSON(http.StatusInternalServerError, result)
		return
	}
	c.JSON(http.StatusOK, result)
}

// listOptions reads search, page and per_page. It answers 400 itself when a
// number does not parse.
func listOptions(c *gin.Context) (entities.ListOptions, bool) {
	opts := entities.ListOptions{Search: c.Query("search")}
	for name, target := range map[string]*int{"page": &opts.Page, "per_page": &opts.PerPage} {
		raw := c.Query(name)
		if raw == "" {
			continue
		}
		value, err := strconv.Atoi(raw)
		if err != nil || value < 0 {
			c.JSON(http.StatusBadRequest, errorBody(name+" must be a non-negative integer"))
			return entities.ListOptions{}, false
		}
		*target = value
	}
	return opts, true
}
