// Command build fetches every post from WordPress and writes the static blog.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/meghashyamc/wpstatic/config"
	"github.com/meghashyamc/wpstatic/db/kvdb"
	"github.com/meghashyamc/wpstatic/db/searchdb"
	"github.com/meghashyamc/wpstatic/logger"
	"github.com/meghashyamc/wpstatic/services/build"
	"github.com/meghashyamc/wpstatic/site"
	"github.com/meghashyamc/wpstatic/wordpress"
)

const (
	exitOK      = 0
	exitFailure = 1
	exitUsage   = 2
)

func main() {
	godotenv.Load()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	cancel()
	os.Exit(code)
}

func run(ctx context.Context, args []string, stdout io.Writer, stderr io.Writer) int {
	flags := flag.NewFlagSet("build", flag.ContinueOnError)
	flags.SetOutput(stderr)
	env := flags.String("env", "", "config environment (defaults to $ENV, then local)")
	limit := flags.Int("limit", 0, "process at most this many posts; 0 processes all")
	check := flags.Bool("check", false, "only check that the WordPress API is reachable")
	if err := flags.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return exitOK
		}
		return exitUsage
	}
	if *limit < 0 || flags.NArg() > 0 {
		fmt.Fprintln(stderr, "usage: build [-env name] [-limit n] [-check]")
		return exitUsage
	}

	cfg, err := config.Load(*env)
	if err != nil {
		fmt.Fprintf(stderr, "failed to load config: %s\n", err)
		return exitFailure
	}
	log := logger.NewWithOptions(stderr, cfg.GetLogLevel(), cfg.GetLogFormat())

	if cfg.GetWordPressURL() == "" {
		fmt.Fprintln(stderr, "no WordPress URL configured; set wordpress.url or WORDPRESS_URL")
		return exitUsage
	}
	client := wordpress.NewClient(log, cfg.GetWordPressURL(), cfg.GetPostsPerPage(), cfg.GetMaxPages(), cfg.GetFetchTimeout())

	if *check {
		if err := client.CheckConnection(ctx); err != nil {
			fmt.Fprintf(stderr, "cannot reach %s: %s\n", cfg.GetWordPressURL(), err)
			return exitFailure
		}
		fmt.Fprintf(stdout, "connected to %s\n", cfg.GetWordPressURL())
		return exitOK
	}

	result, err := runBuild(ctx, log, cfg, client, *limit)
	if err != nil {
		fmt.Fprintf(stderr, "build failed: %s\n", err)
		return exitFailure
	}

	fmt.Fprintf(stdout, "built %d posts (%d images) into %s\n", result.Posts, result.Images, result.OutputDir)
	return exitOK
}

func runBuild(ctx context.Context, log logger.Logger, cfg *config.Config, client *wordpress.Client, limit int) (*build.Result, error) {
	kvDB, err := kvdb.New(log, cfg)
	if err != nil {
		return nil, err
	}
	defer kvDB.Close()

	searchDB, err := searchdb.New(log, cfg)
	if err != nil {
		return nil, err
	}
	defer searchDB.Close()

	renderer, err := site.New(cfg.GetSite(), cfg.GetAuthor())
	if err != nil {
		return nil, err
	}

	opts := build.OptionsFromConfig(cfg)
	opts.Limit = limit

	builder := build.NewBuilder(log, client, kvDB, searchDB, renderer, opts)
	return builder.Run(ctx, uuid.NewString())
}
