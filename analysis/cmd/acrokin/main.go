// Package main processes the relax and movement trials of one subject.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/edaniels/golog"
	"go.viam.com/utils"

	"github.com/trampolinelab/acrokin/analysis"
	"github.com/trampolinelab/acrokin/config"
)

var logger = golog.NewDevelopmentLogger("acrokin")

func main() {
	utils.ContextualMain(mainWithArgs, logger)
}

// Arguments for the command.
type Arguments struct {
	ConfigFile string `flag:"0,required,usage=subject config file"`
	Strict     bool   `flag:"strict,usage=fail on the first matrix that is not a proper rotation"`
	Parallel   int    `flag:"parallel,usage=maximum number of trials processed at once"`
	Debug      bool   `flag:"debug"`
}

func mainWithArgs(ctx context.Context, args []string, logger golog.Logger) error {
	var argsParsed Arguments
	if err := utils.ParseFlags(args, &argsParsed); err != nil {
		return err
	}
	if argsParsed.Debug {
		logger = golog.NewDebugLogger("acrokin")
	}

	cfg, err := config.Read(argsParsed.ConfigFile, logger)
	if err != nil {
		return err
	}
	if argsParsed.Parallel > 0 {
		cfg.MaxParallelTrials = argsParsed.Parallel
	}

	summary, err := analysis.Run(ctx, cfg, argsParsed.Strict, logger)
	if summary != nil {
		fmt.Fprintln(os.Stdout, summary.String())
	}
	return err
}
