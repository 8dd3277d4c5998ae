package config

import (
	"flag"
	"io"
	"os"

	"github.com/dmitrijs2005/pixkeeper/internal/flagx"
)

// serverFlags lists every flag parseFlags understands; anything else in
// os.Args (subcommands, -c, -env-file) is filtered out first.
var serverFlags = []string{"-a", "-d", "-u", "-p", "-b", "-g", "-e", "-m", "-l"}

// parseFlags populates selected Config fields from command-line flags.
//
//	-a string   HTTP bind address (e.g., ":8080")
//	-d string   PostgreSQL DSN
//	-u string   S3 root user
//	-p string   S3 root password
//	-b string   S3 bucket name
//	-g string   S3 region
//	-e string   S3 base endpoint (e.g., "http://127.0.0.1:9000/")
//	-m string   signup mode: moderated | invite
//	-l string   log level
func parseFlags(config *Config) error {
	args := flagx.FilterArgs(os.Args[1:], serverFlags)

	fs := flag.NewFlagSet("pixkeeper", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.StringVar(&config.HTTPAddr, "a", config.HTTPAddr, "address and port to run server")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.S3RootUser, "u", config.S3RootUser, "S3 root user")
	fs.StringVar(&config.S3RootPassword, "p", config.S3RootPassword, "S3 root password")
	fs.StringVar(&config.S3Bucket, "b", config.S3Bucket, "S3 bucket")
	fs.StringVar(&config.S3Region, "g", config.S3Region, "S3 region")
	fs.StringVar(&config.S3BaseEndpoint, "e", config.S3BaseEndpoint, "S3 base endpoint")
	fs.StringVar(&config.SignupMode, "m", config.SignupMode, "signup mode (moderated|invite)")
	fs.StringVar(&config.LogLevel, "l", config.LogLevel, "log level")

	return fs.Parse(args)
}

// ValueFlags lists every flag the config layers read that takes a value.
func ValueFlags() []string {
	out := append([]string{}, serverFlags...)
	return append(out, "-c", "-config", "-env-file")
}
