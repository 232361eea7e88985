// config-schema-generator writes altsync.schema.json at the module root from
// the config.Config struct.
package main

import (
	"log"
	"os"

	"github.com/grovetools/altsync/pkg/config"
)

func main() {
	data, err := config.SchemaJSON()
	if err != nil {
		log.Fatalf("Error marshaling schema: %v", err)
	}

	if err := os.WriteFile("altsync.schema.json", data, 0644); err != nil {
		log.Fatalf("Error writing schema file: %v", err)
	}

	log.Printf("Successfully generated config schema at altsync.schema.json")
}
