// gh-issues lists the issues of a GitHub repository through the paginated
// fetch engine.
//
// With --bulk (the default) issue titles are read from the listing pages, so
// the whole listing costs one request per page. With --bulk=false every issue
// fetches its own JSON, which shows what bulk materialization saves.
//
// Settings come from the environment or a .env file: GITHUB_TOKEN,
// GITHUB_API_URL, USER_AGENT, REDIS_URL, PER_PAGE, LOG_LEVEL, METRICS_ADDR and
// friends. Redis holds the ETag cache and the shared rate-limit state.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"iter"
	"net/url"
	"os"
	"os/signal"
	"syscall"

	"github.com/jcabi/jcabi-github-sub002/pkg/client"
	"github.com/jcabi/jcabi-github-sub002/pkg/config"
	"github.com/jcabi/jcabi-github-sub002/pkg/github"
	"github.com/jcabi/jcabi-github-sub002/pkg/logging"
	"github.com/jcabi/jcabi-github-sub002/pkg/metrics"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/pflag"
)

type options struct {
	Repo    github.Coordinates
	State   string
	PerPage int
	Bulk    bool
	Limit   int
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return
		}
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdout io.Writer) error {
	cfg := config.Load()

	opts, err := parseFlags(args, cfg.PerPage)
	if err != nil {
		return err
	}
	cfg.PerPage = opts.PerPage
	if err := cfg.Validate(); err != nil {
		return err
	}

	logging.Setup(logging.Config{
		Level:  logging.LogLevel(cfg.LogLevel),
		Pretty: cfg.LogPretty,
		Output: os.Stderr,
	})
	logger := logging.NewLogger(logging.ComponentCLI)

	redisOpts, err := cfg.RedisOptions()
	if err != nil {
		return err
	}
	redisClient := redis.NewClient(redisOpts)
	defer redisClient.Close()

	if err := redisClient.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("connect to redis at %s: %w", redisOpts.Addr, err)
	}

	clientCfg := client.DefaultConfig(redisClient, cfg.UserAgent)
	clientCfg.BaseURL = cfg.GitHubURL
	clientCfg.Token = cfg.GitHubToken
	clientCfg.Timeout = cfg.HTTPTimeout
	clientCfg.MaxRetries = cfg.MaxRetries

	ghClient, err := client.New(clientCfg)
	if err != nil {
		return fmt.Errorf("create client: %w", err)
	}
	defer ghClient.Close()

	if cfg.MetricsAddr != "" {
		metricsCtx, cancel := context.WithCancel(ctx)
		defer cancel()
		go func() {
			if err := metrics.Serve(metricsCtx, cfg.MetricsAddr, logger); err != nil {
				logger.Error().Err(err).Msg("Metrics server failed")
			}
		}()
	}

	gh, err := github.New(ghClient, github.Config{
		BaseURL: cfg.GitHubURL,
		PerPage: opts.PerPage,
	})
	if err != nil {
		return err
	}

	logger.Debug().
		Str("repo", opts.Repo.String()).
		Str("state", opts.State).
		Bool("bulk", opts.Bulk).
		Msg("Listing issues")

	count, err := listIssues(ctx, gh.Repo(opts.Repo).Issues(), opts, stdout)
	fmt.Fprintf(stdout, "%d issues, %d requests\n", count, ghClient.Requests())
	return err
}

func parseFlags(args []string, defaultPerPage int) (options, error) {
	var (
		opts options
		repo string
	)

	flagSet := pflag.NewFlagSet("gh-issues", pflag.ContinueOnError)
	flagSet.StringVar(&repo, "repo", "", "repository as owner/name (required)")
	flagSet.StringVar(&opts.State, "state", "open", "issue state: open, closed or all")
	flagSet.IntVar(&opts.PerPage, "per-page", defaultPerPage, "listing page size (1-100)")
	flagSet.BoolVar(&opts.Bulk, "bulk", true, "read issue JSON from the listing pages")
	flagSet.IntVar(&opts.Limit, "limit", 0, "stop after this many issues (0 = all)")

	if err := flagSet.Parse(args); err != nil {
		return options{}, err
	}

	if extra := flagSet.Args(); len(extra) > 0 {
		return options{}, fmt.Errorf("unexpected argument: %s", extra[0])
	}

	if repo == "" {
		return options{}, fmt.Errorf("--repo is required")
	}
	coords, err := github.ParseCoordinates(repo)
	if err != nil {
		return options{}, err
	}
	opts.Repo = coords

	switch opts.State {
	case "open", "closed", "all":
	default:
		return options{}, fmt.Errorf("--state must be open, closed or all (got %q)", opts.State)
	}

	if opts.Limit < 0 {
		return options{}, fmt.Errorf("--limit must be >= 0 (got %d)", opts.Limit)
	}

	return opts, nil
}

// listIssues prints "#<number> <title>" per issue and returns how many were
// printed. Lines already written stay written when the listing fails.
func listIssues(ctx context.Context, issues *github.Issues, opts options, w io.Writer) (int, error) {
	params := url.Values{"state": {opts.State}}

	var seq iter.Seq2[github.Issue, error]
	if opts.Bulk {
		seq = issues.Bulk(params).All(ctx)
	} else {
		seq = issues.Iterate(params).All(ctx)
	}

	count := 0
	for issue, err := range seq {
		if err != nil {
			return count, fmt.Errorf("list issues of %s: %w", opts.Repo, err)
		}

		title, err := github.NewSmartIssue(issue).Title(ctx)
		if err != nil {
			return count, fmt.Errorf("read issue #%d: %w", issue.Number(), err)
		}

		fmt.Fprintf(w, "#%d %s\n", issue.Number(), title)
		count++

		if opts.Limit > 0 && count >= opts.Limit {
			break
		}
	}

	return count, nil
}
