// Package catalog describes, per role, which document types a company can
// upload and which of them gate marketplace participation.
package catalog

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/chantierdirect/backend/internal/models"
)

//go:embed default_catalog.yaml
var defaultCatalog []byte

// ErrInvalidCatalog is returned when a catalog file fails validation
var ErrInvalidCatalog = errors.New("invalid document catalog")

// Requirement describes one document type for a role
type Requirement struct {
	Type        models.DocumentType `yaml:"type" json:"type"`
	Required    bool                `yaml:"required" json:"required"`
	Label       string              `yaml:"label" json:"label"`
	Description string              `yaml:"description" json:"description"`
}

// Catalog maps each role to its ordered requirements. It is built once at
// startup and never mutated afterwards.
type Catalog struct {
	roles map[models.Role][]Requirement
}

type catalogFile struct {
	Roles map[string][]Requirement `yaml:"roles"`
}

// Default returns the catalog embedded in the binary
func Default() (*Catalog, error) {
	return Load(bytes.NewReader(defaultCatalog))
}

// LoadFile reads a catalog from a YAML file
func LoadFile(path string) (*Catalog, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open catalog: %w", err)
	}
	defer f.Close()
	return Load(f)
}

// Load parses and validates a YAML catalog
func Load(r io.Reader) (*Catalog, error) {
	var file catalogFile
	if err := yaml.NewDecoder(r).Decode(&file); err != nil {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}

	roles := make(map[models.Role][]Requirement, len(file.Roles))
	for name, reqs := range file.Roles {
		role := models.Role(name)
		if !role.Valid() {
			return nil, fmt.Errorf("%w: unknown role %q", ErrInvalidCatalog, name)
		}
		seen := make(map[models.DocumentType]bool, len(reqs))
		for _, req := range reqs {
			if !req.Type.Known() {
				return nil, fmt.Errorf("%w: unknown document type %q for role %s", ErrInvalidCatalog, req.Type, role)
			}
			if seen[req.Type] {
				return nil, fmt.Errorf("%w: duplicate document type %s for role %s", ErrInvalidCatalog, req.Type, role)
			}
			seen[req.Type] = true
		}
		roles[role] = append([]Requirement(nil), reqs...)
	}

	return &Catalog{roles: roles}, nil
}

// Requirements returns every requirement for a role, in catalog order
func (c *Catalog) Requirements(role models.Role) []Requirement {
	return append([]Requirement(nil), c.roles[role]...)
}

// RequiredTypesForRole returns the mandatory document types for a role, in
// catalog order. Roles without mandatory documents get an empty slice.
func (c *Catalog) RequiredTypesForRole(role models.Role) []models.DocumentType {
	var types []models.DocumentType
	for _, req := range c.roles[role] {
		if req.Required {
			types = append(types, req.Type)
		}
	}
	return types
}

// Lookup finds the requirement for a document type within a role
func (c *Catalog) Lookup(role models.Role, docType models.DocumentType) (Requirement, bool) {
	for _, req := range c.roles[role] {
		if req.Type == docType {
			return req, true
		}
	}
	return Requirement{}, false
}

// Roles returns the roles present in the catalog
func (c *Catalog) Roles() []models.Role {
	roles := make([]models.Role, 0, len(c.roles))
	for _, role := range []models.Role{models.RoleSousTraitant, models.RoleDonneurOrdre, models.RoleAdmin} {
		if _, ok := c.roles[role]; ok {
			roles = append(roles, role)
		}
	}
	return roles
}
