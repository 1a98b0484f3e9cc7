package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"llamero/internal/api"
	"llamero/internal/console"
	"llamero/internal/session"
	"llamero/internal/tui"
)

type cli struct {
	sess   *session.Manager
	client *api.Client
}

func (c *cli) run(command string, args []string) error {
	switch command {
	case "login":
		return c.login(args)
	case "logout":
		c.sess.Logout()
		fmt.Println("Signed out.")
		return nil
	case "whoami":
		return c.whoami()
	case "tokens":
		return c.tokens(args)
	case "backends":
		return c.backends()
	case "models":
		return c.models(args)
	case "run":
		return c.runAction(args)
	case "console":
		return c.console()
	default:
		return fmt.Errorf("unknown command %q", command)
	}
}

// login prints the identity-provider URL, then consumes the redirect fragment
// the operator pastes back. The fragment carries token and expires_in; it is
// consumed once and never stored verbatim.
func (c *cli) login(args []string) error {
	fs := flag.NewFlagSet("login", flag.ExitOnError)
	fragment := fs.String("fragment", "", "redirect fragment (token=...&expires_in=...), skips the prompt")
	if err := fs.Parse(args); err != nil {
		return err
	}

	input := *fragment
	if input == "" {
		fmt.Println("Open the following URL in a browser and sign in:")
		fmt.Println("  " + c.sess.LoginURL())
		fmt.Println("Then paste the fragment from the redirect URL (everything after '#'):")
		fmt.Print("> ")
		reader := bufio.NewReader(os.Stdin)
		line, err := reader.ReadString('\n')
		if err != nil {
			return fmt.Errorf("read fragment: %w", err)
		}
		input = strings.TrimSpace(line)
	}

	if !c.sess.ConsumeLoginFragment(input) {
		return fmt.Errorf("the pasted fragment carries no token")
	}

	c.sess.RefreshProfile(context.Background())
	if msg := c.sess.Err(); msg != "" {
		return fmt.Errorf("%s", msg)
	}
	if profile := c.sess.Profile(); profile != nil {
		fmt.Printf("Signed in as %s (%s)\n", profile.Email, profile.Role)
	} else {
		fmt.Println("Signed in.")
	}
	if expiry := c.sess.ExpiresAt(); !expiry.IsZero() {
		fmt.Printf("Session expires %s\n", expiry.UTC().Format(time.RFC3339))
	}
	return nil
}

func (c *cli) requireAuth() error {
	if !c.sess.IsAuthenticated() {
		return fmt.Errorf("not signed in; run 'llameroctl login' first")
	}
	return nil
}

func (c *cli) whoami() error {
	if err := c.requireAuth(); err != nil {
		return err
	}
	c.sess.RefreshProfile(context.Background())
	if msg := c.sess.Err(); msg != "" {
		return fmt.Errorf("%s", msg)
	}

	if profile := c.sess.Profile(); profile != nil {
		fmt.Printf("id:      %s\n", profile.ID)
		fmt.Printf("email:   %s\n", profile.Email)
		fmt.Printf("role:    %s\n", profile.Role)
		fmt.Printf("scopes:  %s\n", strings.Join(profile.Scopes, ", "))
		if len(profile.Groups) > 0 {
			fmt.Printf("groups:  %s\n", strings.Join(profile.Groups, ", "))
		}
	}
	// Decoded claims are display hints only; the control plane re-authorizes
	// every request regardless of what the token says.
	if who := c.sess.Claims(); who != nil {
		fmt.Printf("token:   type=%s sub=%s", who.Type, who.Sub)
		if who.ExpiresAt > 0 {
			fmt.Printf(" exp=%s", time.Unix(who.ExpiresAt, 0).UTC().Format(time.RFC3339))
		}
		fmt.Println()
	}
	return nil
}

func (c *cli) tokens(args []string) error {
	if err := c.requireAuth(); err != nil {
		return err
	}
	if len(args) == 0 {
		args = []string{"list"}
	}
	ctx := context.Background()

	switch args[0] {
	case "list":
		tokens, err := c.client.ListTokens(ctx)
		if err != nil {
			return err
		}
		if len(tokens) == 0 {
			fmt.Println("No personal access tokens.")
			return nil
		}
		for _, t := range tokens {
			state := "active"
			if t.Revoked {
				state = "revoked"
			}
			fmt.Printf("%s  %-20s %-8s expires=%s scopes=%s\n",
				t.ID, t.Name, state, orDash(t.ExpiresAt), strings.Join(t.Scopes, ","))
		}
		return nil

	case "create":
		fs := flag.NewFlagSet("tokens create", flag.ExitOnError)
		name := fs.String("name", "", "token name")
		ttl := fs.Duration("ttl", 30*24*time.Hour, "token lifetime")
		scopes := fs.String("scopes", "", "comma-separated scopes (defaults to your own)")
		if err := fs.Parse(args[1:]); err != nil {
			return err
		}
		req := api.CreateTokenRequest{Name: *name}
		if *ttl > 0 {
			seconds := int64(ttl.Seconds())
			// The control plane rejects sub-minute lifetimes.
			if seconds < 60 {
				seconds = 60
			}
			req.ExpiresIn = seconds
		}
		if *scopes != "" {
			req.Scopes = strings.Split(*scopes, ",")
		}
		issued, err := c.client.CreateToken(ctx, req)
		if err != nil {
			return err
		}
		fmt.Printf("Issued token %s (%s)\n", issued.ID, issued.Name)
		fmt.Println("Secret (shown exactly once, store it now):")
		fmt.Println("  " + issued.Token)
		return nil

	case "revoke":
		if len(args) < 2 {
			return fmt.Errorf("usage: llameroctl tokens revoke <id>")
		}
		if err := c.client.RevokeToken(ctx, args[1]); err != nil {
			return err
		}
		fmt.Println("Token revoked.")
		return nil

	default:
		return fmt.Errorf("unknown tokens subcommand %q", args[0])
	}
}

func (c *cli) backends() error {
	if err := c.requireAuth(); err != nil {
		return err
	}
	backends, err := c.client.ListBackends(context.Background())
	if err != nil {
		return err
	}
	if len(backends) == 0 {
		fmt.Println("No backends registered.")
		return nil
	}
	for _, b := range backends {
		health := "healthy"
		if !b.Healthy {
			health = "unreachable"
		}
		fmt.Printf("%-16s %-24s %-12s %5.0f ms  updated=%s\n",
			b.ID, b.Address, health, b.LatencyMS, orDash(b.UpdatedAt))
		if len(b.LoadedModels) > 0 {
			fmt.Printf("  loaded:    %s\n", strings.Join(b.LoadedModels, ", "))
		}
		if len(b.Models) > 0 {
			fmt.Printf("  available: %s\n", strings.Join(b.Models, ", "))
		}
	}
	return nil
}

// models prints the catalogue aggregated across the fleet, or one record when
// an id is given.
func (c *cli) models(args []string) error {
	if err := c.requireAuth(); err != nil {
		return err
	}
	ctx := context.Background()

	if len(args) > 0 {
		model, err := c.client.GetModel(ctx, args[0])
		if err != nil {
			return err
		}
		fmt.Printf("id:       %s\n", model.ID)
		fmt.Printf("owned by: %s\n", orDash(model.OwnedBy))
		if model.Created > 0 {
			fmt.Printf("created:  %s\n", time.Unix(model.Created, 0).UTC().Format(time.RFC3339))
		}
		return nil
	}

	models, err := c.client.ListModels(ctx)
	if err != nil {
		return err
	}
	if len(models) == 0 {
		fmt.Println("No models found.")
		return nil
	}
	for _, m := range models {
		created := "-"
		if m.Created > 0 {
			created = time.Unix(m.Created, 0).UTC().Format("2006-01-02")
		}
		fmt.Printf("%-40s %-16s %s\n", m.ID, orDash(m.OwnedBy), created)
	}
	return nil
}

func (c *cli) runAction(args []string) error {
	if err := c.requireAuth(); err != nil {
		return err
	}
	if len(args) == 0 {
		return fmt.Errorf("usage: llameroctl run <action> [flags]")
	}

	var action console.Action
	for _, candidate := range console.Actions {
		if string(candidate) == args[0] {
			action = candidate
			break
		}
	}
	if action == "" {
		return fmt.Errorf("unknown action %q", args[0])
	}

	fs := flag.NewFlagSet("run "+args[0], flag.ExitOnError)
	backendID := fs.String("backend", "", "target backend id")
	var fields console.Fields
	fs.StringVar(&fields.Model, "model", "", "model name")
	fs.StringVar(&fields.Source, "source", "", "source model (copy)")
	fs.StringVar(&fields.Destination, "destination", "", "destination model (copy)")
	fs.StringVar(&fields.Modelfile, "modelfile", "", "inline Modelfile contents (create)")
	fs.StringVar(&fields.System, "system", "", "system prompt override (show)")
	fs.StringVar(&fields.KeepAlive, "keep-alive", "", "keep_alive setting (create)")
	fs.StringVar(&fields.Quantize, "quantize", "", "quantization target (create)")
	fs.BoolVar(&fields.Force, "force", false, "force delete")
	if err := fs.Parse(args[1:]); err != nil {
		return err
	}

	dispatcher := console.NewDispatcher(c.client, c.sess)
	exec := dispatcher.Execute(context.Background(), action, *backendID, fields, func(chunk string) {
		fmt.Print(chunk)
	})
	if rejection := exec.Err(); rejection != "" {
		return fmt.Errorf("%s", rejection)
	}
	// Streamed output already went to stdout chunk by chunk.
	if !strings.HasSuffix(exec.Result(), "\n") {
		fmt.Println()
	}
	return nil
}

func (c *cli) console() error {
	if err := c.requireAuth(); err != nil {
		return err
	}
	model := tui.New(c.sess, c.client)
	_, err := tea.NewProgram(model, tea.WithAltScreen()).Run()
	return err
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
