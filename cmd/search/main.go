// Command search is an interactive front end to the blog search index. Each
// input line is the current content of the search box; lines starting with a
// colon are commands.
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"sync"

	"github.com/joho/godotenv"
	"github.com/meghashyamc/wpstatic/config"
	"github.com/meghashyamc/wpstatic/db"
	"github.com/meghashyamc/wpstatic/logger"
	"github.com/meghashyamc/wpstatic/services/search"
	"github.com/meghashyamc/wpstatic/site"
)

const (
	exitOK      = 0
	exitFailure = 1
	exitUsage   = 2
)

const help = `commands:
  <text>            search as you type
  :category <slug>  posts in a category
  :tag <slug>       posts with a tag
  :related <id>     posts related to a post
  :all              every post
  :clear            clear the search
  :quit             exit`

func main() {
	godotenv.Load()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	code := run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr)
	cancel()
	os.Exit(code)
}

func run(ctx context.Context, args []string, stdin io.Reader, stdout io.Writer, stderr io.Writer) int {
	flags := flag.NewFlagSet("search", flag.ContinueOnError)
	flags.SetOutput(stderr)
	env := flags.String("env", "", "config environment (defaults to $ENV, then local)")
	index := flags.String("index", "", "index file path or URL (defaults to search.index_source)")
	if err := flags.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return exitOK
		}
		return exitUsage
	}

	cfg, err := config.Load(*env)
	if err != nil {
		fmt.Fprintf(stderr, "failed to load config: %s\n", err)
		return exitFailure
	}
	log := logger.NewWithOptions(stderr, cfg.GetLogLevel(), cfg.GetLogFormat())

	location := *index
	if location == "" {
		location = cfg.GetSearchIndexSource()
	}
	if location == "" {
		fmt.Fprintln(stderr, "no index given; use -index or set search.index_source")
		return exitUsage
	}

	renderer, err := site.New(cfg.GetSite(), cfg.GetAuthor())
	if err != nil {
		fmt.Fprintf(stderr, "failed to parse templates: %s\n", err)
		return exitFailure
	}

	controller := search.NewController(log, renderer, cfg.GetDebounce(), cfg.GetMinQueryLength())
	defer controller.Close()

	out := &printer{w: stdout}
	controller.OnRender(out.view)

	if err := controller.Load(ctx, db.NewSource(location)); err != nil {
		fmt.Fprintf(stderr, "search disabled: %s\n", err)
		return exitFailure
	}

	fmt.Fprintln(stdout, help)
	repl(controller, stdin, out)
	return exitOK
}

func repl(controller *search.Controller, stdin io.Reader, out *printer) {
	scanner := bufio.NewScanner(stdin)
	for scanner.Scan() {
		line := scanner.Text()
		if !strings.HasPrefix(line, ":") {
			controller.Input(line)
			continue
		}

		// Commands act on a settled search box.
		controller.Flush()

		command, argument, _ := strings.Cut(strings.TrimPrefix(line, ":"), " ")
		argument = strings.TrimSpace(argument)
		switch command {
		case "quit", "q":
			return
		case "all":
			controller.ShowAll()
		case "clear":
			controller.Clear()
		case "category":
			controller.FilterByCategory(argument)
		case "tag":
			controller.FilterByTag(argument)
		case "related":
			related(controller, argument, out)
		default:
			out.line(help)
		}
	}
	controller.Flush()
}

func related(controller *search.Controller, argument string, out *printer) {
	id, err := strconv.Atoi(argument)
	if err != nil {
		out.line("usage: :related <id>")
		return
	}

	post, ok := controller.Post(id)
	if !ok {
		out.line(fmt.Sprintf("no post with id %d", id))
		return
	}

	posts, _, err := controller.Related(post.ID, post.CategorySlug, search.DefaultRelatedLimit)
	if err != nil {
		out.line(err.Error())
		return
	}
	out.line(fmt.Sprintf("Related to %q:", post.Title))
	out.posts(posts)
}

// printer serialises writes from the debounce timer and the input loop.
type printer struct {
	mu sync.Mutex
	w  io.Writer
}

func (p *printer) view(view search.View) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if view.Message != "" {
		fmt.Fprintln(p.w, view.Message)
	}
	p.writePosts(view.Posts)
}

func (p *printer) posts(posts []db.Post) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.writePosts(posts)
}

func (p *printer) line(s string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprintln(p.w, s)
}

func (p *printer) writePosts(posts []db.Post) {
	for _, post := range posts {
		fmt.Fprintf(p.w, "  [%d] %s (%s) %s\n", post.ID, post.Title, post.Category, post.URL)
	}
}
