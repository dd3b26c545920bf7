package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"time"

	"finboard/internal/cli"
	"finboard/internal/config"
	"finboard/internal/sources/google"

	"github.com/google/subcommands"
	"github.com/google/uuid"
	"golang.org/x/oauth2"
)

type oauthInitCmd struct {
	port    string
	out     string
	timeout time.Duration
}

func (*oauthInitCmd) Name() string     { return "oauth-init" }
func (*oauthInitCmd) Synopsis() string { return "authorize read access to the spreadsheet with a Google account" }
func (*oauthInitCmd) Usage() string {
	return `finreport oauth-init [-port <port>] [-o <token file>]

  Runs the OAuth consent flow for the client in GOOGLE_OAUTH_CLIENT_JSON or
  GOOGLE_OAUTH_CLIENT_FILE and saves the token. The client must allow the
  redirect URI http://localhost:<port>/callback.
`
}

func (c *oauthInitCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.port, "port", "8085", "local port for the OAuth redirect")
	f.StringVar(&c.out, "o", "", "token file, defaults to GOOGLE_OAUTH_TOKEN_FILE or token.json")
	f.DurationVar(&c.timeout, "timeout", 5*time.Minute, "how long to wait for the authorization")
}

func (c *oauthInitCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	cli.LoadEnvFile()
	cfg := config.Load()
	oc, err := google.OAuthConfig(google.Credentials{
		OAuthClientJSON: cfg.GoogleOAuthClientJSON,
		OAuthClientFile: cfg.GoogleOAuthClientFile,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	oc.RedirectURL = "http://localhost:" + c.port + "/callback"

	out := c.out
	if out == "" {
		out = cfg.GoogleOAuthTokenFile
	}
	if out == "" {
		out = "token.json"
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	tok, err := authorize(ctx, oc, net.JoinHostPort("localhost", c.port))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	if err := google.SaveToken(out, tok); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	fmt.Printf("Saved token to %s\n", out)
	return subcommands.ExitSuccess
}

// authorize prints the consent URL, waits for the redirect on addr and
// exchanges the code.
func authorize(ctx context.Context, oc *oauth2.Config, addr string) (*oauth2.Token, error) {
	state := uuid.NewString()
	codeCh := make(chan string, 1)
	errCh := make(chan error, 1)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /callback", func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		switch {
		case q.Get("error") != "":
			http.Error(w, "OAuth error: "+q.Get("error"), http.StatusBadRequest)
			select {
			case errCh <- fmt.Errorf("authorization denied: %s", q.Get("error")):
			default:
			}
		case q.Get("state") != state:
			http.Error(w, "state mismatch", http.StatusBadRequest)
		default:
			fmt.Fprintln(w, "You may close this window and return to the terminal.")
			select {
			case codeCh <- q.Get("code"):
			default:
			}
		}
	})
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 10 * time.Second}
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("listen on %s: %w", addr, err)
	}
	go func() { _ = srv.Serve(ln) }()
	defer srv.Close()

	fmt.Printf("Open this URL to authorize:\n%s\n", oc.AuthCodeURL(state, oauth2.AccessTypeOffline))

	select {
	case code := <-codeCh:
		tok, err := oc.Exchange(ctx, code)
		if err != nil {
			return nil, fmt.Errorf("token exchange: %w", err)
		}
		return tok, nil
	case err := <-errCh:
		return nil, err
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, errors.New("authorization timed out")
		}
		return nil, errors.New("interrupted")
	}
}
