package commands

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"git.home.luguber.info/inful/docbake/internal/asset"
	"git.home.luguber.info/inful/docbake/internal/config"
	"git.home.luguber.info/inful/docbake/internal/metrics"
)

// CopyCmd implements the 'copy' command.
type CopyCmd struct {
	SourceFlags `embed:""`
}

func (c *CopyCmd) Run(g *Global, root *CLI) error {
	cfg, err := loadConfig(root, c.SourceFlags)
	if err != nil {
		return err
	}
	logger := configureLogging(g, cfg, root.Verbose)
	return RunCopy(cfg, logger, metrics.NoopRecorder{}, os.Stderr)
}

// RunCopy performs one full copy run and writes every failure to out.
func RunCopy(cfg *config.Config, logger *slog.Logger, rec metrics.Recorder, out io.Writer) error {
	a := asset.New(cfg, asset.WithLogger(logger), asset.WithRecorder(rec))
	res := a.Run()
	for _, e := range res.Errors {
		_, _ = fmt.Fprintf(out, "error: %v\n", e)
	}
	return a.Err()
}
