// Package config handles loading and validating the bridge configuration.
//
// This package manages:
//   - Loading configuration from YAML files
//   - Overriding with environment variables
//   - Validation of required fields
//   - Default value handling
//
// Security Considerations:
//   - Cloud credentials and the JWT secret should be set via environment
//     variables (GRAYLOGIC_ELECTROLUX_API_KEY, GRAYLOGIC_ELECTROLUX_TOKEN,
//     GRAYLOGIC_JWT_SECRET)
//   - The config file should have restricted permissions (0600)
//
// Usage:
//
//	cfg, err := config.Load("configs/config.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(cfg.Site.Name)
package config
