package main

import (
	"github.com/alecthomas/kong"

	"github.com/sansio/corpusctl/cmd/corpusctl/commands"
)

// version is overridden at build time via -ldflags.
var version = "dev"

func main() {
	var cli commands.CLI
	ctx := kong.Parse(&cli,
		kong.Name("corpusctl"),
		kong.Description("Toolchain for the sans-I/O documentation corpus: build, lint, link check, serve."),
		kong.Vars{"version": version},
		kong.UsageOnError(),
	)
	ctx.FatalIfErrorf(ctx.Run(&commands.Global{}, &cli))
}
