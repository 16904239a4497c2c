// Command aictl trains, compares and queries sport models against the local
// store, without the HTTP service.
//
// Usage:
//
//	aictl train --sport football --algo logistic --file matches.csv
//	aictl compare --sport football
//	aictl select random_forest --sport football
//	aictl predict --sport football --strength-a 80 --strength-b 70
//	aictl ingest --competition 43 --season 3
//	aictl report --sport football --out reports
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	_ = godotenv.Load(".env")
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
