package backoffice

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/evetabi/liquidation-roulette/internal/api/middleware"
	"github.com/shopspring/decimal"
)

// ErrUsage is returned for unknown commands or bad arguments.
var ErrUsage = errors.New("usage error")

const usage = `usage: backoffice [flags] <command> [args]

commands:
  health                         server status and counters
  protocols                      tracked protocols
  rounds                         open rounds
  round <id>                     round detail with odds
  bet <id>                       bet detail
  create [-duration 1h] [-min-bet 5]
                                 open a round (operator)
  resolve <id> <protocol=count>...
                                 settle a round (operator)
  token                          print a fresh operator token

flags:
`

// Options are the global flags shared by every command.
type Options struct {
	Addr     string
	Secret   string
	Subject  string
	TokenTTL time.Duration
	Timeout  time.Duration
}

// Run parses args and executes one command, writing tables to out.
// defaults seeds the global flags.
func Run(ctx context.Context, args []string, out io.Writer, defaults Options) error {
	opts := defaults
	fs := flag.NewFlagSet("backoffice", flag.ContinueOnError)
	fs.SetOutput(out)
	fs.StringVar(&opts.Addr, "addr", opts.Addr, "server base URL")
	fs.StringVar(&opts.Secret, "secret", opts.Secret, "operator JWT secret (mints a token per call)")
	fs.StringVar(&opts.Subject, "subject", opts.Subject, "operator name placed in the token")
	fs.DurationVar(&opts.TokenTTL, "token-ttl", opts.TokenTTL, "lifetime of minted tokens")
	fs.DurationVar(&opts.Timeout, "timeout", opts.Timeout, "HTTP timeout")
	fs.Usage = func() {
		fmt.Fprint(out, usage)
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%w: %v", ErrUsage, err)
	}

	rest := fs.Args()
	if len(rest) == 0 {
		fs.Usage()
		return ErrUsage
	}
	cmd, rest := rest[0], rest[1:]

	token := ""
	if opts.Secret != "" {
		var err error
		token, err = middleware.IssueOperatorToken(opts.Secret, opts.Subject, opts.TokenTTL)
		if err != nil {
			return err
		}
	}
	client := NewClient(opts.Addr, token, opts.Timeout)

	switch cmd {
	case "health":
		h, err := client.Health(ctx)
		if err != nil {
			return err
		}
		return RenderHealth(out, h)

	case "protocols":
		ps, err := client.Protocols(ctx)
		if err != nil {
			return err
		}
		return RenderProtocols(out, ps)

	case "rounds":
		rs, err := client.ListRounds(ctx)
		if err != nil {
			return err
		}
		return RenderRounds(out, rs)

	case "round":
		if len(rest) != 1 {
			return fmt.Errorf("%w: round <id>", ErrUsage)
		}
		r, err := client.GetRound(ctx, rest[0])
		if err != nil {
			return err
		}
		return RenderRound(out, r)

	case "bet":
		if len(rest) != 1 {
			return fmt.Errorf("%w: bet <id>", ErrUsage)
		}
		b, err := client.GetBet(ctx, rest[0])
		if err != nil {
			return err
		}
		return RenderBet(out, b)

	case "create":
		return runCreate(ctx, client, rest, out)

	case "resolve":
		if len(rest) < 2 {
			return fmt.Errorf("%w: resolve <id> <protocol=count>...", ErrUsage)
		}
		counts, err := ParseCounts(rest[1:])
		if err != nil {
			return err
		}
		s, err := client.Resolve(ctx, rest[0], counts)
		if err != nil {
			return err
		}
		return RenderSettlement(out, s)

	case "token":
		if token == "" {
			return fmt.Errorf("%w: -secret or OPERATOR_JWT_SECRET required", ErrUsage)
		}
		_, err := fmt.Fprintln(out, token)
		return err

	default:
		fs.Usage()
		return fmt.Errorf("%w: unknown command %q", ErrUsage, cmd)
	}
}

func runCreate(ctx context.Context, client *Client, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("create", flag.ContinueOnError)
	fs.SetOutput(out)
	duration := fs.Duration("duration", 0, "round length (server default when 0)")
	minBetStr := fs.String("min-bet", "", "minimum stake in USDC (server default when empty)")
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%w: %v", ErrUsage, err)
	}

	var minBet *decimal.Decimal
	if *minBetStr != "" {
		d, err := decimal.NewFromString(*minBetStr)
		if err != nil {
			return fmt.Errorf("%w: min-bet: %v", ErrUsage, err)
		}
		minBet = &d
	}

	r, err := client.CreateRound(ctx, *duration, minBet)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(out, "created round %s  minBet=%s  endsAt=%s\n",
		r.ID, r.MinBet.String(), r.EndsAt.UTC().Format(time.RFC3339))
	return err
}

// ParseCounts turns "protocol=count" pairs into an outcome map.
func ParseCounts(pairs []string) (map[string]int64, error) {
	counts := make(map[string]int64, len(pairs))
	for _, p := range pairs {
		id, n, ok := strings.Cut(p, "=")
		if !ok || id == "" {
			return nil, fmt.Errorf("%w: expected protocol=count, got %q", ErrUsage, p)
		}
		v, err := strconv.ParseInt(n, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: count for %s: %v", ErrUsage, id, err)
		}
		counts[id] = v
	}
	return counts, nil
}
