// Package config loads environment variables into typed configuration structs.
//
// Structs describe their variables with caarlos0/env tags and live next to the
// package they configure (queue.Config, pg.Config, email.Config, ...). A .env
// file in the working directory is read once, if present. Each struct type is
// parsed once per process and cached:
//
//	var cfg queue.Config
//	if err := config.Load(&cfg); err != nil {
//		return err
//	}
package config
