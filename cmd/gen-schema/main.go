// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Command gen-schema writes the JSON Schema for the pgcreds config file.
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/samber/oops"
	"github.com/spf13/pflag"

	"github.com/holomush/pgcreds/internal/config"
)

func main() {
	outPath := pflag.StringP("output", "o", filepath.Join("schemas", "config.schema.json"), "schema output path")
	pflag.Parse()

	if err := writeSchema(*outPath); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Generated %s\n", *outPath)
}

func writeSchema(outPath string) error {
	schema, err := config.GenerateSchema()
	if err != nil {
		return oops.With("operation", "generate schema").Wrap(err)
	}

	if err := os.MkdirAll(filepath.Dir(outPath), 0o750); err != nil {
		return oops.With("path", outPath).Wrap(err)
	}

	if err := os.WriteFile(outPath, append(schema, '\n'), 0o600); err != nil {
		return oops.With("path", outPath).Wrap(err)
	}
	return nil
}
