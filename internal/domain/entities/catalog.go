package entities

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"regexp"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	catalogAPIVersion       = "backstage.io/v1alpha1"
	defaultEntityKind       = "Component"
	defaultEntityNamespace  = "default"
	defaultComponentType    = "other"
	defaultLifecycle        = "unknown"
	maxEntityNameLength     = 63
	ManagedByLocationKey    = "backstage.io/managed-by-location"
	ManagedByOriginLocation = "backstage.io/managed-by-origin-location"
)

var invalidEntityNameChars = regexp.MustCompile(`[^A-Za-z0-9_.-]+`)

// EntityMetadata is the part of a catalog entity used for conflict checks and refreshes.
type EntityMetadata struct {
	Name        string            `json:"name"                  yaml:"name"`
	Namespace   string            `json:"namespace,omitempty"   yaml:"namespace,omitempty"`
	Annotations map[string]string `json:"annotations,omitempty" yaml:"annotations,omitempty"`
}

// CatalogEntity is a catalog entity as returned by the catalog or parsed from a metadata file.
type CatalogEntity struct {
	APIVersion string         `json:"apiVersion"     yaml:"apiVersion"`
	Kind       string         `json:"kind"           yaml:"kind"`
	Metadata   EntityMetadata `json:"metadata"       yaml:"metadata"`
	Spec       map[string]any `json:"spec,omitempty" yaml:"spec,omitempty"`
}

// Ref is the "kind:namespace/name" reference of the entity.
func (e CatalogEntity) Ref() string {
	namespace := e.Metadata.Namespace
	if namespace == "" {
		namespace = defaultEntityNamespace
	}
	return strings.ToLower(fmt.Sprintf("%s:%s/%s", e.Kind, namespace, e.Metadata.Name))
}

// ManagedByLocation is the location target the entity was ingested from, without the "url:" prefix.
func (e CatalogEntity) ManagedByLocation() string {
	location := e.Metadata.Annotations[ManagedByLocationKey]
	return strings.TrimPrefix(location, "url:")
}

// LocationResult is the outcome of a location registration.
type LocationResult struct {
	Exists   bool
	Entities []CatalogEntity
}

// EntityQueryResult is a page of catalog entities.
type EntityQueryResult struct {
	Items      []CatalogEntity
	TotalItems int
}

// EntityFilter is an AND-combined set of field=value catalog filters.
type EntityFilter map[string]string

// String renders the filter in the catalog query syntax, keys sorted.
func (f EntityFilter) String() string {
	keys := make([]string, 0, len(f))
	for key := range f {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, key := range keys {
		parts = append(parts, key+"="+f[key])
	}
	return strings.Join(parts, ",")
}

// SanitizeEntityName turns a repository name into a valid catalog entity name.
func SanitizeEntityName(name string) string {
	sanitized := invalidEntityNameChars.ReplaceAllString(name, "-")
	sanitized = strings.Trim(sanitized, "-_.")
	if len(sanitized) > maxEntityNameLength {
		sanitized = strings.Trim(sanitized[:maxEntityNameLength], "-_.")
	}
	return sanitized
}

// CatalogInfoInput carries what is needed to synthesize a default metadata file.
type CatalogInfoInput struct {
	EntityName        string
	Repository        Repository
	ProjectSlugKey    string
	CodeOwnersAsOwner bool
}

// NewCatalogInfo renders the default catalog-info.yaml for a repository. When
// the CODEOWNERS file owns the entity, spec.owner is left out so the catalog
// resolves it from CODEOWNERS.
func NewCatalogInfo(input CatalogInfoInput) (string, error) {
	name := input.EntityName
	if name == "" {
		name = SanitizeEntityName(input.Repository.Name)
	}

	spec := map[string]any{
		"type":      defaultComponentType,
		"lifecycle": defaultLifecycle,
	}
	if !input.CodeOwnersAsOwner {
		spec["owner"] = input.Repository.Organization
	}

	entity := CatalogEntity{
		APIVersion: catalogAPIVersion,
		Kind:       defaultEntityKind,
		Metadata: EntityMetadata{
			Name:        name,
			Annotations: map[string]string{input.ProjectSlugKey: input.Repository.FullName()},
		},
		Spec: spec,
	}

	var buf bytes.Buffer
	encoder := yaml.NewEncoder(&buf)
	encoder.SetIndent(2) //nolint:mnd // catalog files use two-space indentation
	if err := encoder.Encode(entity); err != nil {
		return "", fmt.Errorf("failed to render catalog info: %w", err)
	}
	if err := encoder.Close(); err != nil {
		return "", fmt.Errorf("failed to render catalog info: %w", err)
	}
	return buf.String(), nil
}

// ParseCatalogInfo decodes every entity document of a metadata file.
// Documents without a kind or a name are skipped.
func ParseCatalogInfo(content string) ([]CatalogEntity, error) {
	decoder := yaml.NewDecoder(strings.NewReader(content))

	var parsed []CatalogEntity
	for {
		var entity CatalogEntity
		err := decoder.Decode(&entity)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to parse catalog info: %w", err)
		}
		if entity.Kind == "" || entity.Metadata.Name == "" {
			continue
		}
		parsed = append(parsed, entity)
	}
	return parsed, nil
}
