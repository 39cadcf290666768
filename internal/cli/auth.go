package cli

import (
	"bufio"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/Makepad-fr/tada/internal/auth"
	"github.com/Makepad-fr/tada/internal/ui"
)

const authUsage = "usage: tada auth <login [token]|logout|status|whoami|token [-sub s] [-ttl d] [-save]>"

func (r *runner) doAuth(args []string) int {
	if len(args) == 0 {
		ui.Fail(r.errw, authUsage)
		return 2
	}
	s := auth.NewStore(r.cfg.Remote.CredentialsDir)
	switch args[0] {
	case "login":
		return r.doAuthLogin(s, args[1:])
	case "logout":
		return r.doAuthLogout(s)
	case "status":
		return r.doAuthStatus(s)
	case "whoami":
		return r.doAuthWhoAmI(s)
	case "token":
		return r.doAuthToken(s, args[1:])
	}
	ui.Fail(r.errw, authUsage)
	return 2
}

func (r *runner) doAuthLogin(s *auth.Store, args []string) int {
	var token string
	switch len(args) {
	case 0:
		fmt.Fprint(r.out, "Paste your token: ")
		line, err := bufio.NewReader(r.in).ReadString('\n')
		if err != nil && line == "" {
			ui.Fail(r.errw, "read token: "+err.Error())
			return 1
		}
		token = line
	case 1:
		token = args[0]
	default:
		ui.Fail(r.errw, "usage: tada auth login [token]")
		return 2
	}
	if err := s.Set(token, nil); err != nil {
		ui.Fail(r.errw, "save token: "+err.Error())
		return 1
	}
	ui.OK(r.out, "logged in")
	return 0
}

func (r *runner) doAuthLogout(s *auth.Store) int {
	ti, _ := s.Get()
	if ti != nil && ti.Source == "env" {
		ui.OK(r.out, "token is provided by "+s.EnvVar+" env var (nothing to delete)")
		return 0
	}
	if err := s.Delete(); err != nil {
		ui.Fail(r.errw, "logout: "+err.Error())
		return 1
	}
	ui.OK(r.out, "logged out")
	return 0
}

func (r *runner) doAuthStatus(s *auth.Store) int {
	ti, err := s.Get()
	if err != nil {
		ui.Fail(r.errw, "status: "+err.Error())
		return 1
	}
	if ti == nil {
		fmt.Fprintln(r.out, ui.Current().Muted.Render("not logged in"))
		fmt.Fprintln(r.out, "Run: tada auth login")
		return 0
	}
	fmt.Fprintf(r.out, "source: %s\n", ti.Source)
	if ti.ExpiresAt != nil {
		fmt.Fprintf(r.out, "expires: %s\n", ti.ExpiresAt.UTC().Format(time.RFC3339))
		if ti.ExpiresAt.Before(time.Now()) {
			fmt.Fprintln(r.out, ui.Current().Error.Render("token has expired"))
		}
	} else {
		fmt.Fprintln(r.out, "expires: (unknown)")
	}
	fmt.Fprintln(r.out, "env override: "+s.EnvVar)
	return 0
}

// whoami decodes a JWT locally without verifying it; opaque tokens print basic info.
func (r *runner) doAuthWhoAmI(s *auth.Store) int {
	ti, _ := s.Get()
	if ti == nil {
		ui.Fail(r.errw, "not logged in. Run: tada auth login")
		return 2
	}
	claims, err := auth.Claims(ti.Token)
	if err != nil {
		fmt.Fprintln(r.out, "Opaque token (cannot introspect locally).")
		fmt.Fprintln(r.out, "source:", ti.Source)
		return 0
	}
	keys := make([]string, 0, len(claims))
	for k := range claims {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	fmt.Fprintln(r.out, "JWT claims:")
	for _, k := range keys {
		fmt.Fprintf(r.out, "  %s: %v\n", k, claims[k])
	}
	return 0
}

// doAuthToken mints a token signed with the server secret.
func (r *runner) doAuthToken(s *auth.Store, args []string) int {
	fs := r.flags("auth token")
	secret := fs.String("secret", r.cfg.Server.JWTSecret, "HS256 signing secret")
	sub := fs.String("sub", "tada", "subject claim")
	ttl := fs.Duration("ttl", 24*time.Hour, "lifetime")
	save := fs.Bool("save", false, "store the token as the current login")
	if err := fs.Parse(args); err != nil {
		return parseCode(err)
	}
	if strings.TrimSpace(*secret) == "" {
		ui.Fail(r.errw, "token: no secret (set server.jwt_secret, TADA_JWT_SECRET or -secret)")
		return 2
	}
	token, err := auth.Mint(*secret, *sub, *ttl)
	if err != nil {
		ui.Fail(r.errw, "token: "+err.Error())
		return 1
	}
	if *save {
		if err := s.Set(token, nil); err != nil {
			ui.Fail(r.errw, "save token: "+err.Error())
			return 1
		}
		ui.OK(r.out, "logged in")
		return 0
	}
	fmt.Fprintln(r.out, token)
	return 0
}
