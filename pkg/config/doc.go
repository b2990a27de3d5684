// Package config loads environment-based configuration structs.
//
// Configuration is declared as struct tags and parsed once at startup:
//
//	type SMTPConfig struct {
//	    Host string `env:"SMTP_HOST,required"`
//	    Port int    `env:"SMTP_PORT" envDefault:"587"`
//	}
//
//	var cfg SMTPConfig
//	if err := config.Load(&cfg); err != nil {
//	    // handle error
//	}
//
// A .env file in the working directory is loaded once, if present, before
// the first parse. Missing .env files are not an error.
package config
