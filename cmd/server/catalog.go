package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/chantierdirect/backend/internal/catalog"
	"github.com/chantierdirect/backend/internal/config"
)

var catalogFile string

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Print the document catalog in effect",
	Long: `Load the document catalog (CATALOG_PATH, --file or the built-in default),
validate it and print the requirements of every role.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		path := catalogFile
		if path == "" {
			path = config.LoadConfig().CatalogPath
		}
		c, err := loadCatalog(path)
		if err != nil {
			return err
		}

		out := make(map[string][]catalog.Requirement)
		for _, role := range c.Roles() {
			out[string(role)] = c.Requirements(role)
		}
		data, err := yaml.Marshal(map[string]interface{}{"roles": out})
		if err != nil {
			return fmt.Errorf("error encoding catalog: %w", err)
		}
		_, err = cmd.OutOrStdout().Write(data)
		return err
	},
}

func init() {
	catalogCmd.Flags().StringVarP(&catalogFile, "file", "f", "", "catalog YAML file to validate instead of CATALOG_PATH")
}

func loadCatalog(path string) (*catalog.Catalog, error) {
	if path == "" {
		return catalog.Default()
	}
	return catalog.LoadFile(path)
}
