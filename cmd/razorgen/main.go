// Command razorgen generates C# classes from Razor templates.
package main

import (
	"errors"
	"io/fs"
	"log/slog"
	"os"

	"github.com/alecthomas/kong"
	"github.com/joho/godotenv"
)

var version = "dev"

func main() {
	// Values from .env become defaults for the RAZORGEN_* flags.
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		slog.Warn("Failed to load .env", "error", err)
	}

	var cli CLI
	kctx := kong.Parse(&cli,
		kong.Name("razorgen"),
		kong.Description("Generate C# classes from Razor templates."),
		kong.UsageOnError(),
		kong.Vars{"version": version},
	)

	if err := kctx.Run(&cli); err != nil {
		slog.Error("razorgen failed", "error", err)
		os.Exit(1)
	}
}
