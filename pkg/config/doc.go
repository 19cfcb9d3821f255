// Package config loads application configuration from environment variables
// into annotated Go structs.
//
// It combines github.com/joho/godotenv (optional .env file loading) with
// github.com/caarlos0/env/v11 (struct tag parsing) behind a small generic API:
//
//	type PostgresConfig struct {
//	    ConnectionString string `env:"PG_CONN_URL,required"`
//	    MaxOpenConns     int32  `env:"PG_MAX_OPEN_CONNS" envDefault:"10"`
//	}
//
//	var cfg PostgresConfig
//	if err := config.Load(&cfg); err != nil {
//	    // handle error
//	}
//
// The default .env file is loaded at most once per process; a missing file is
// not an error. MustLoad panics on failure and is intended for configuration
// the process cannot start without.
package config
