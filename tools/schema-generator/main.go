package main

import (
	"encoding/json"
	"flag"
	"log"
	"os"
	"path/filepath"

	"github.com/grovetools/vigil/config"
	"github.com/grovetools/vigil/logging"
	"github.com/invopop/jsonschema"
)

func main() {
	outputDir := flag.String("out", "../schema", "directory receiving the generated schemas")
	flag.Parse()

	schemaBytes, err := config.GenerateSchema()
	if err != nil {
		log.Fatalf("Error generating schema: %v", err)
	}

	if err := os.MkdirAll(*outputDir, 0755); err != nil {
		log.Fatalf("Error creating schema directory: %v", err)
	}

	outputPath := filepath.Join(*outputDir, "vigil.schema.json")
	if err := os.WriteFile(outputPath, schemaBytes, 0644); err != nil {
		log.Fatalf("Error writing schema file: %v", err)
	}
	log.Printf("Successfully generated config schema at %s", outputPath)

	// The logging section is an extension and validated on its own.
	r := &jsonschema.Reflector{
		AllowAdditionalProperties: true,
		ExpandedStruct:            true,
		FieldNameTag:              "yaml",
	}
	logSchema := r.Reflect(&logging.Config{})
	logSchema.Title = "vigil logging configuration"
	logSchema.Description = "Schema for the 'logging' section of vigil.yml."
	logSchema.Required = nil

	data, err := json.MarshalIndent(logSchema, "", "  ")
	if err != nil {
		log.Fatalf("Error marshaling logging schema: %v", err)
	}
	loggingPath := filepath.Join(*outputDir, "logging.schema.json")
	if err := os.WriteFile(loggingPath, data, 0644); err != nil {
		log.Fatalf("Error writing logging schema: %v", err)
	}
	log.Printf("Successfully generated logging schema at %s", loggingPath)
}
