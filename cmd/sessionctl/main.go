// ABOUTME: Operator CLI for the sessiond session gateway
// ABOUTME: Manages registered servers, tenants, and the active session over HTTP

package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/fatih/color"
	"golang.org/x/term"
)

const banner = `
                _             _   _
 ___  ___  ___ (_) ___  _ __ | |_| |
/ __|/ _ \/ __|| |/ _ \| '_ \| __| |
\__ \  __/\__ \| | (_) | | | | |_| |
|___/\___||___/|_|\___/|_| |_|\__|_|
`

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	cmd := os.Args[1]
	args := os.Args[2:]

	if cmd == "help" || cmd == "-h" || cmd == "--help" {
		printUsage()
		return
	}

	cfg, err := loadConfig()
	if err != nil {
		color.Red("Error: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()
	client := newAPIClient(cfg.Daemon.URL, readToken(cfg.Daemon.TokenFile))

	switch cmd {
	case "login":
		err = cmdLogin(ctx, cfg, client)
	case "servers":
		err = cmdServers(ctx, client, args)
	case "tenants":
		err = cmdTenants(ctx, client)
	case "use":
		err = cmdUse(ctx, client, args)
	case "session":
		err = cmdSession(ctx, client)
	case "route":
		err = cmdRoute(ctx, client)
	case "signout":
		err = cmdSignOut(ctx, client)
	case "last-page":
		err = cmdLastPage(ctx, client, args)
	case "audit":
		err = cmdAudit(ctx, client, args)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", cmd)
		printUsage()
		os.Exit(1)
	}

	if err != nil {
		color.Red("Error: %v\n", err)
		os.Exit(1)
	}
}

func printUsage() {
	cyan := color.New(color.FgCyan)
	yellow := color.New(color.FgYellow)

	cyan.Print(banner)
	fmt.Println()
	fmt.Println("Usage: sessionctl <command> [args]")
	fmt.Println()
	yellow.Println("Commands:")
	fmt.Println("  login                       Authenticate against sessiond and save a token")
	fmt.Println("  servers                     List registered backend servers")
	fmt.Println("  servers add <code>          Register a backend server (prompts for credentials)")
	fmt.Println("  servers remove <code>       Remove a server and all its tenants")
	fmt.Println("  tenants                     List selectable tenants")
	fmt.Println("  use <code> <company-id>     Activate a tenant as the current session")
	fmt.Println("  session                     Show the current session")
	fmt.Println("  route                       Show the landing route for the current session")
	fmt.Println("  signout                     End the current session")
	fmt.Println("  last-page [path]            Show or set the remembered dashboard page")
	fmt.Println("  audit [--action a] [--server s] [--limit n]")
	fmt.Println("                              Show the audit log")
	fmt.Println()
	yellow.Println("Environment:")
	fmt.Println("  SESSIOND_URL        Daemon URL (default: http://127.0.0.1:8484)")
	fmt.Println("  SESSIONCTL_CONFIG   Config file path (default: ~/.config/sessionctl/config.toml)")
	fmt.Println()
}

// readToken loads the saved API token, if any.
func readToken(path string) string {
	data, err := os.ReadFile(path)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(data))
}

func cmdLogin(ctx context.Context, cfg *Config, client *apiClient) error {
	fmt.Print("Operator password: ")
	password, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Println()
	if err != nil {
		return fmt.Errorf("reading password: %w", err)
	}

	var resp struct {
		Token string `json:"token"`
	}
	if err := client.call(ctx, "POST", "/api/login", map[string]string{"password": string(password)}, &resp); err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(cfg.Daemon.TokenFile), 0700); err != nil {
		return fmt.Errorf("creating token directory: %w", err)
	}
	if err := os.WriteFile(cfg.Daemon.TokenFile, []byte(resp.Token), 0600); err != nil {
		return fmt.Errorf("writing token file: %w", err)
	}

	color.Green("Logged in. Token saved to %s\n", cfg.Daemon.TokenFile)
	return nil
}

func cmdServers(ctx context.Context, client *apiClient, args []string) error {
	// Default to list
	subcmd := "list"
	if len(args) > 0 {
		subcmd = args[0]
		args = args[1:]
	}

	switch subcmd {
	case "list":
		return serversList(ctx, client)
	case "add":
		if len(args) < 1 {
			return fmt.Errorf("usage: sessionctl servers add <code>")
		}
		return serversAdd(ctx, client, args[0])
	case "remove":
		if len(args) < 1 {
			return fmt.Errorf("usage: sessionctl servers remove <code>")
		}
		return serversRemove(ctx, client, args[0])
	default:
		return fmt.Errorf("unknown servers subcommand: %s", subcmd)
	}
}

func serversList(ctx context.Context, client *apiClient) error {
	var resp struct {
		Servers []struct {
			ServerCode  string `json:"server_code"`
			ServerURL   string `json:"server_url"`
			TenantCount int    `json:"tenant_count"`
		} `json:"servers"`
	}
	if err := client.call(ctx, "GET", "/api/servers", nil, &resp); err != nil {
		return err
	}

	if len(resp.Servers) == 0 {
		fmt.Println("No servers registered.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "CODE\tURL\tTENANTS")
	for _, s := range resp.Servers {
		fmt.Fprintf(w, "%s\t%s\t%d\n", s.ServerCode, s.ServerURL, s.TenantCount)
	}
	return w.Flush()
}

func serversAdd(ctx context.Context, client *apiClient, code string) error {
	reader := bufio.NewReader(os.Stdin)

	fmt.Print("Email: ")
	email, err := reader.ReadString('\n')
	if err != nil {
		return fmt.Errorf("reading email: %w", err)
	}
	email = strings.TrimSpace(email)

	fmt.Print("Password: ")
	password, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Println()
	if err != nil {
		return fmt.Errorf("reading password: %w", err)
	}

	req := map[string]string{
		"server_code": code,
		"email":       email,
		"password":    string(password),
	}
	var resp struct {
		Servers []struct {
			ServerCode  string `json:"server_code"`
			TenantCount int    `json:"tenant_count"`
		} `json:"servers"`
	}
	if err := client.call(ctx, "POST", "/api/servers", req, &resp); err != nil {
		return err
	}

	for _, s := range resp.Servers {
		if s.ServerCode == code {
			color.Green("Registered %s with %d tenant(s)\n", code, s.TenantCount)
			return nil
		}
	}
	color.Green("Registered %s\n", code)
	return nil
}

func serversRemove(ctx context.Context, client *apiClient, code string) error {
	var resp struct {
		Removed   int  `json:"removed"`
		SignedOut bool `json:"signed_out"`
	}
	if err := client.call(ctx, "DELETE", "/api/servers/"+code, nil, &resp); err != nil {
		return err
	}

	if resp.Removed == 0 {
		fmt.Printf("No tenants registered under %s.\n", code)
		return nil
	}
	color.Green("Removed %d tenant(s) under %s\n", resp.Removed, code)
	if resp.SignedOut {
		color.Yellow("The active session was on this server; you have been signed out.\n")
	}
	return nil
}

func cmdTenants(ctx context.Context, client *apiClient) error {
	var resp struct {
		Tenants []struct {
			ServerCode  string `json:"server_code"`
			CompanyID   int64  `json:"company_id"`
			CompanyName string `json:"company_name"`
			OTPEnabled  bool   `json:"otp_enabled"`
			Affiliate   bool   `json:"affiliate"`
		} `json:"tenants"`
	}
	if err := client.call(ctx, "GET", "/api/tenants", nil, &resp); err != nil {
		return err
	}

	if len(resp.Tenants) == 0 {
		fmt.Println("No tenants registered. Add a server first: sessionctl servers add <code>")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "SERVER\tCOMPANY ID\tNAME\tFLAGS")
	for _, t := range resp.Tenants {
		var flags []string
		if t.OTPEnabled {
			flags = append(flags, "otp")
		}
		if t.Affiliate {
			flags = append(flags, "affiliate")
		}
		fmt.Fprintf(w, "%s\t%d\t%s\t%s\n", t.ServerCode, t.CompanyID, t.CompanyName, strings.Join(flags, ","))
	}
	return w.Flush()
}

func cmdUse(ctx context.Context, client *apiClient, args []string) error {
	if len(args) < 2 {
		return fmt.Errorf("usage: sessionctl use <server-code> <company-id>")
	}
	companyID, err := strconv.ParseInt(args[1], 10, 64)
	if err != nil {
		return fmt.Errorf("company-id must be a number: %w", err)
	}

	req := map[string]any{"server_code": args[0], "company_id": companyID}
	var resp struct {
		RequiresSecondFactor bool   `json:"requires_second_factor"`
		SignedOut            bool   `json:"signed_out"`
		Route                string `json:"route"`
	}
	if err := client.call(ctx, "POST", "/api/session/tenant", req, &resp); err != nil {
		return err
	}

	switch {
	case resp.RequiresSecondFactor:
		color.Yellow("This tenant requires a one-time password. Complete the second factor in the dashboard.\n")
	case resp.SignedOut:
		color.Yellow("This account has no permitted sections; you have been signed out.\n")
	default:
		color.Green("Session active. Landing route: %s\n", resp.Route)
	}
	return nil
}

func cmdSession(ctx context.Context, client *apiClient) error {
	var resp struct {
		SignedIn      bool `json:"signed_in"`
		ActiveCompany *struct {
			CompanyID   int64  `json:"company_id"`
			CompanyName string `json:"company_name"`
			ServerCode  string `json:"server_code"`
		} `json:"active_company"`
		BaseURL  string `json:"base_url"`
		LastPage string `json:"last_page"`
	}
	if err := client.call(ctx, "GET", "/api/session", nil, &resp); err != nil {
		return err
	}

	cyan := color.New(color.FgCyan)
	fmt.Println()
	cyan.Println("  Session")
	cyan.Println("  -------")
	if resp.SignedIn && resp.ActiveCompany != nil {
		fmt.Printf("  Company:   %s (#%d)\n", resp.ActiveCompany.CompanyName, resp.ActiveCompany.CompanyID)
		fmt.Printf("  Server:    %s\n", resp.ActiveCompany.ServerCode)
	} else {
		fmt.Println("  Company:   (none)")
	}
	fmt.Printf("  Base URL:  %s\n", resp.BaseURL)
	if resp.LastPage != "" {
		fmt.Printf("  Last page: %s\n", resp.LastPage)
	}
	fmt.Println()
	return nil
}

func cmdRoute(ctx context.Context, client *apiClient) error {
	var resp struct {
		Route   string `json:"route"`
		SignOut bool   `json:"sign_out"`
	}
	if err := client.call(ctx, "GET", "/api/session/route", nil, &resp); err != nil {
		return err
	}
	if resp.SignOut {
		color.Yellow("No permitted sections; the session should be ended.\n")
		return nil
	}
	fmt.Println(resp.Route)
	return nil
}

func cmdSignOut(ctx context.Context, client *apiClient) error {
	if err := client.call(ctx, "DELETE", "/api/session", nil, nil); err != nil {
		return err
	}
	color.Green("Signed out.\n")
	return nil
}

func cmdLastPage(ctx context.Context, client *apiClient, args []string) error {
	if len(args) == 0 {
		var resp struct {
			LastPage string `json:"last_page"`
		}
		if err := client.call(ctx, "GET", "/api/session", nil, &resp); err != nil {
			return err
		}
		if resp.LastPage == "" {
			fmt.Println("(none)")
			return nil
		}
		fmt.Println(resp.LastPage)
		return nil
	}

	page := args[0]
	if err := client.call(ctx, "PUT", "/api/session/last-page", map[string]string{"page": page}, nil); err != nil {
		return err
	}
	color.Green("Last page set to %s\n", page)
	return nil
}

func cmdAudit(ctx context.Context, client *apiClient, args []string) error {
	query := ""
	appendParam := func(k, v string) {
		if query == "" {
			query = "?"
		} else {
			query += "&"
		}
		query += k + "=" + v
	}

	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "--action":
			if i+1 >= len(args) {
				return fmt.Errorf("--action requires a value")
			}
			appendParam("action", args[i+1])
			i++
		case "--server":
			if i+1 >= len(args) {
				return fmt.Errorf("--server requires a value")
			}
			appendParam("server_code", args[i+1])
			i++
		case "--limit":
			if i+1 >= len(args) {
				return fmt.Errorf("--limit requires a value")
			}
			appendParam("limit", args[i+1])
			i++
		default:
			return fmt.Errorf("unknown flag: %s", args[i])
		}
	}

	var resp struct {
		Entries []struct {
			Action     string    `json:"action"`
			ServerCode string    `json:"server_code"`
			CompanyID  *int64    `json:"company_id"`
			CreatedAt  time.Time `json:"created_at"`
		} `json:"entries"`
	}
	if err := client.call(ctx, "GET", "/api/audit"+query, nil, &resp); err != nil {
		return err
	}

	if len(resp.Entries) == 0 {
		fmt.Println("No audit entries.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "TIME\tACTION\tSERVER\tCOMPANY")
	for _, e := range resp.Entries {
		company := ""
		if e.CompanyID != nil {
			company = strconv.FormatInt(*e.CompanyID, 10)
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
			e.CreatedAt.Local().Format("2006-01-02 15:04:05"), e.Action, e.ServerCode, company)
	}
	return w.Flush()
}
