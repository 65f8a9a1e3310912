package main

import (
	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/docbake/cmd/docbake/commands"
	"git.home.luguber.info/inful/docbake/internal/foundation/errors"
	"git.home.luguber.info/inful/docbake/internal/version"
)

func main() {
	cli := &commands.CLI{}
	parser := kong.Parse(cli,
		kong.Name("docbake"),
		kong.Description("Copy static assets and content attachments into a site output folder."),
		kong.UsageOnError(),
		kong.Vars{"version": version.String()},
	)

	err := parser.Run(&commands.Global{}, cli)
	errors.NewCLIErrorAdapter(cli.Verbose, nil).HandleError(err)
}
