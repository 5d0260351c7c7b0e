package config_test

import (
	"fmt"
	"log"

	"github.com/ajitpratap0/jsoncol/pkg/config"
)

// ExampleDefault demonstrates the defaults of a conversion.
func ExampleDefault() {
	cfg := config.Default()

	fmt.Printf("Block Size: %d\n", cfg.Encoding.BlockSize)
	fmt.Printf("Compression: %s\n", cfg.Output.Compression)
	fmt.Printf("Output: %s\n", cfg.Output.Path)

	// Output:
	// Block Size: 128
	// Compression: uncompressed
	// Output: output_0.jcol
}

// ExampleConfig_Validate shows how to validate a configuration before
// using it.
func ExampleConfig_Validate() {
	cfg := config.Default()
	cfg.Encoding.BlockSize = 4096
	cfg.Encoding.EnableDictionary = true
	cfg.Output.Compression = "high-ratio"

	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}
	fmt.Println("Configuration is valid!")

	cfg.Output.Compression = "lzo"
	fmt.Println(cfg.Validate() != nil)

	// Output:
	// Configuration is valid!
	// true
}
