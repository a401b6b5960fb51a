package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/mrbonezy/wtm/config"
	"github.com/mrbonezy/wtm/lock"
	"github.com/mrbonezy/wtm/logging"
	"github.com/mrbonezy/wtm/preview"
	"github.com/mrbonezy/wtm/removal"
	"github.com/mrbonezy/wtm/selector"
	"github.com/mrbonezy/wtm/ui"
	"github.com/mrbonezy/wtm/worktree"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const (
	selectorHeader = "🌲 Git Worktree Manager | Tips: ^prefix for start match, 'exact for exact match"
	selectorPrompt = "🔍 Select worktree > "
)

var (
	selectFn = selector.Run
	getwd    = os.Getwd
)

type options struct {
	preview    bool
	action     string
	query      string
	selectOne  bool
	yes        bool
	configPath string
	logFile    string
}

func newRootCommand(args []string, stdout io.Writer, stderr io.Writer) *cobra.Command {
	var opts options
	var showVersion bool
	root := &cobra.Command{
		Use:           "wtm-select",
		Short:         "Pick a git worktree to cd into or remove",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if showVersion {
				fmt.Fprintln(stdout, currentVersion())
				return nil
			}
			cfg, err := config.Load(opts.configPath)
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("action") {
				opts.action = cfg.DefaultAction
			}
			if !cmd.Flags().Changed("preview") {
				opts.preview = cfg.Preview
			}
			if opts.logFile != "" {
				cfg.LogFile = opts.logFile
			}
			return runSelect(cmd.Context(), opts, cfg, stdout, stderr)
		},
	}
	flags := root.Flags()
	flags.BoolVarP(&showVersion, "version", "v", false, "Print wtm-select version and exit")
	flags.BoolVarP(&opts.preview, "preview", "p", false, "Show preview panel")
	flags.StringVarP(&opts.action, "action", "a", config.ActionCD, "Action on the selected worktree (cd|remove)")
	flags.StringVarP(&opts.query, "query", "q", "", "Initial query")
	flags.BoolVarP(&opts.selectOne, "select-1", "1", false, "Select without prompting when exactly one worktree matches")
	flags.BoolVarP(&opts.yes, "yes", "y", false, "Remove without asking for confirmation")
	flags.StringVar(&opts.configPath, "config", "", "Config file (default $HOME/.wtm/config.yaml)")
	flags.StringVar(&opts.logFile, "debug-log", "", "Write debug logs to this file")

	if len(args) > 1 {
		root.SetArgs(args[1:])
	} else {
		root.SetArgs([]string{})
	}
	root.SetOut(stdout)
	root.SetErr(stderr)
	return root
}

func runSelect(ctx context.Context, opts options, cfg config.Config, stdout io.Writer, stderr io.Writer) error {
	if opts.action != config.ActionCD && opts.action != config.ActionRemove {
		fmt.Fprintf(stderr, "Unknown action: %s\n", opts.action)
		return nil
	}

	level := cfg.LogLevel
	if opts.logFile != "" {
		level = "debug"
	}
	logger, closeLog, err := logging.New(logging.Config{FilePath: cfg.LogFile, Level: level})
	if err != nil {
		return err
	}
	defer closeLog()

	dir, err := getwd()
	if err != nil {
		return err
	}
	refs, err := worktree.Locate(dir, logger.Named("locate"))
	if err != nil {
		return err
	}
	logger.Info("located worktrees", zap.String("dir", dir), zap.Int("count", len(refs)))

	gen := preview.Generator{
		BaseRefs: cfg.BaseRefs,
		Timeout:  cfg.PreviewTimeout,
		Log:      logger.Named("preview"),
	}
	index := worktree.NewIndex()
	items := make(chan selector.Item, len(refs))
	go worktree.Stream(ctx, refs, worktree.Builder{Previewer: gen}, index, items, time.Now, logger.Named("collect"))

	picked, err := selectFn(ctx, items, selector.Options{
		Query:     opts.query,
		SelectOne: opts.selectOne,
		Preview:   opts.preview,
		Header:    selectorHeader,
		Columns:   ui.ColumnHeader(),
		Prompt:    selectorPrompt,
		Output:    stderr,
	})
	if err != nil {
		return err
	}
	if picked == nil {
		logger.Debug("nothing selected")
		return nil
	}
	ref, ok := index.Resolve(picked)
	if !ok {
		return fmt.Errorf("selected entry %q is not a known worktree", picked.Text())
	}

	switch opts.action {
	case config.ActionRemove:
		return removeWorktree(ctx, opts, cfg, ref, stderr, logger.Named("remove"))
	default:
		fmt.Fprintln(stdout, ref.Path)
		return nil
	}
}

func removeWorktree(ctx context.Context, opts options, cfg config.Config, ref worktree.Ref, stderr io.Writer, logger *zap.Logger) error {
	locks, err := lock.NewManager()
	if err != nil {
		return err
	}
	r := removal.Remover{Locks: locks, Stderr: stderr, Log: logger}
	if !opts.yes && cfg.ShouldConfirmRemove() {
		r.Confirm = removal.Prompt(ctx, os.Stdin, stderr, os.Getenv("ACCESSIBLE") != "")
	}
	if err := r.Remove(ref.Branch, ref.Path); err != nil {
		if errors.Is(err, removal.ErrAborted) {
			fmt.Fprintln(stderr, "Aborted.")
			return nil
		}
		return err
	}
	return nil
}
