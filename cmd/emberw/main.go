// emberw is a command-line client for the Ember multi-chain wallet.
package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"syscall"

	"golang.org/x/term"

	"github.com/ember-tech/ember-wallet/config"
	"github.com/ember-tech/ember-wallet/internal/log"
	"github.com/ember-tech/ember-wallet/internal/session"
	"github.com/ember-tech/ember-wallet/internal/wallet"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	// Parse global flags that appear before the subcommand.
	dataDir := config.DefaultDataDir()
	networkID := ""

	args := os.Args[1:]
	for len(args) > 0 {
		switch {
		case args[0] == "--datadir" && len(args) > 1:
			dataDir = args[1]
			args = args[2:]
		case strings.HasPrefix(args[0], "--datadir="):
			dataDir = args[0][len("--datadir="):]
			args = args[1:]
		case args[0] == "--network" && len(args) > 1:
			networkID = args[1]
			args = args[2:]
		case strings.HasPrefix(args[0], "--network="):
			networkID = args[0][len("--network="):]
			args = args[1:]
		default:
			goto dispatch
		}
	}

dispatch:
	if len(args) == 0 {
		usage()
		os.Exit(1)
	}

	cfg, err := config.Load(filepath.Join(dataDir, "emberw.conf"))
	if err != nil {
		fatal("load config: %v", err)
	}
	cfg.DataDir = dataDir

	logFile := cfg.Log.File
	if logFile != "" && !filepath.IsAbs(logFile) {
		logFile = filepath.Join(cfg.LogsDir(), logFile)
	}
	if logFile != "" {
		if err := os.MkdirAll(filepath.Dir(logFile), 0755); err != nil {
			fatal("create logs directory: %v", err)
		}
	}
	if err := log.Init(cfg.Log.Level, cfg.Log.JSON, logFile); err != nil {
		fatal("init logging: %v", err)
	}

	ctx := context.Background()
	s := session.New(cfg)

	if networkID != "" {
		// Selecting the network before any account exists only records it;
		// history and balances load on unlock.
		if err := s.SwitchNetwork(ctx, networkID); err != nil {
			fatal("switch network: %v", err)
		}
	}

	cmd := args[0]
	cmdArgs := args[1:]

	switch cmd {
	case "new":
		cmdNew(ctx, s)
	case "balances":
		cmdBalances(ctx, s, cmdArgs)
	case "send":
		cmdSend(ctx, s, cmdArgs)
	case "history":
		cmdHistory(ctx, s, cmdArgs)
	case "networks":
		cmdNetworks(s)
	case "dapps":
		cmdDApps(s, cmdArgs)
	case "init-config":
		cmdInitConfig(cfg)
	case "help", "--help", "-h":
		usage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", cmd)
		usage()
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintf(os.Stderr, `Usage: emberw [global flags] <command> [flags]

Global flags:
  --datadir <path>    Data directory (default: ~/.ember-wallet)
  --network <id>      Network to operate on: ethereum (default), bsc, polygon

Commands:
  new                             Generate a new wallet and print its address
  balances [unlock flags]         Show balances across all networks
  send --to <addr> --amount <amt> [unlock flags]
                                  Send native currency on the selected network
  history [unlock flags]          Show recent transactions on the selected network
  networks                        List supported networks
  dapps [disconnect <origin>]     List dapp connections or revoke one
  init-config                     Write a default emberw.conf

Unlock flags (pick one; omitted = hidden prompt for the phrase):
  --mnemonic "<12 words>"         Recovery phrase
  --key <hex>                     Raw private key
`)
}

// unlock activates an account from --mnemonic/--key flags, falling back to
// a hidden prompt for the recovery phrase.
func unlock(ctx context.Context, s *session.Session, args []string) *wallet.Account {
	mnemonic := ""
	key := ""
	for i := 0; i < len(args); i++ {
		switch {
		case args[i] == "--mnemonic" && i+1 < len(args):
			mnemonic = args[i+1]
			i++
		case strings.HasPrefix(args[i], "--mnemonic="):
			mnemonic = args[i][len("--mnemonic="):]
		case args[i] == "--key" && i+1 < len(args):
			key = args[i+1]
			i++
		case strings.HasPrefix(args[i], "--key="):
			key = args[i][len("--key="):]
		}
	}

	switch {
	case key != "":
		acct, err := s.ImportPrivateKey(ctx, key)
		if err != nil {
			fatal("import key: %v", err)
		}
		return acct
	case mnemonic == "":
		secret, err := readSecret("Recovery phrase: ")
		if err != nil {
			fatal("read phrase: %v", err)
		}
		mnemonic = strings.TrimSpace(string(secret))
	}

	acct, err := s.ImportAccount(ctx, mnemonic)
	if err != nil {
		fatal("import wallet: %v", err)
	}
	return acct
}

// ── new ─────────────────────────────────────────────────────────────────

func cmdNew(ctx context.Context, s *session.Session) {
	acct, err := s.CreateAccount(ctx)
	if err != nil {
		fatal("%v", err)
	}

	fmt.Printf("Address:  %s\n", acct.Address.Hex())
	fmt.Println()
	fmt.Println("Recovery phrase (write it down, it is shown only once):")
	fmt.Printf("  %s\n", acct.Mnemonic)
}

// ── balances ────────────────────────────────────────────────────────────

func cmdBalances(ctx context.Context, s *session.Session, args []string) {
	acct := unlock(ctx, s, args)
	fmt.Printf("Account: %s\n\n", acct.Address.Hex())

	for _, n := range s.Networks() {
		bal := s.Balances().Get(n.ID)
		line := fmt.Sprintf("%-10s %s %s", n.Name, bal.Formatted, n.Symbol)
		if bal.USD != nil {
			line += fmt.Sprintf("  ($%.2f)", *bal.USD)
		}
		if err := s.Balances().LastErr(n.ID); err != nil {
			line += "  [unreachable]"
		}
		fmt.Println(line)
	}
}

// ── send ────────────────────────────────────────────────────────────────

func cmdSend(ctx context.Context, s *session.Session, args []string) {
	to := ""
	amount := ""
	rest := args[:0:0]
	for i := 0; i < len(args); i++ {
		switch {
		case args[i] == "--to" && i+1 < len(args):
			to = args[i+1]
			i++
		case strings.HasPrefix(args[i], "--to="):
			to = args[i][len("--to="):]
		case args[i] == "--amount" && i+1 < len(args):
			amount = args[i+1]
			i++
		case strings.HasPrefix(args[i], "--amount="):
			amount = args[i][len("--amount="):]
		default:
			rest = append(rest, args[i])
		}
	}
	if to == "" || amount == "" {
		fatal("Usage: emberw send --to <addr> --amount <amt>")
	}

	acct := unlock(ctx, s, rest)
	n := s.CurrentNetwork()

	pending, err := s.Send(ctx, to, amount)
	if err != nil {
		fatal("send: %v", err)
	}

	fmt.Printf("Sent %s %s on %s\n", amount, n.Symbol, n.Name)
	fmt.Printf("From:  %s\n", acct.Address.Hex())
	fmt.Printf("To:    %s\n", pending.To)
	fmt.Printf("Hash:  %s\n", pending.Hash)
	if n.ExplorerURL != "" {
		fmt.Printf("Track: %s/tx/%s\n", n.ExplorerURL, pending.Hash)
	}
}

// ── history ─────────────────────────────────────────────────────────────

func cmdHistory(ctx context.Context, s *session.Session, args []string) {
	acct := unlock(ctx, s, args)
	n := s.CurrentNetwork()

	entries := s.History()
	fmt.Printf("Account: %s (%s)\n\n", acct.Address.Hex(), n.Name)
	if len(entries) == 0 {
		fmt.Println("No recent transactions.")
		return
	}

	for _, e := range entries {
		direction := "recv"
		if strings.EqualFold(e.From, acct.Address.Hex()) {
			direction = "send"
		}
		ts := e.Timestamp.UTC().Format("2006-01-02 15:04:05 UTC")
		fmt.Printf("%s  %-4s  %s %s  [%s]\n", ts, direction, e.Value, n.Symbol, e.Status)
		fmt.Printf("    %s\n", e.Hash)
	}
}

// ── networks ────────────────────────────────────────────────────────────

func cmdNetworks(s *session.Session) {
	current := s.CurrentNetwork()
	for _, n := range s.Networks() {
		marker := " "
		if n.ID == current.ID {
			marker = "*"
		}
		fmt.Printf("%s %-10s %-8s chain-id %d  %s\n", marker, n.ID, n.Symbol, n.ChainID, n.RPCURL)
	}
}

// ── dapps ───────────────────────────────────────────────────────────────

func cmdDApps(s *session.Session, args []string) {
	if len(args) > 0 && args[0] == "disconnect" {
		if len(args) < 2 {
			fatal("Usage: emberw dapps disconnect <origin>")
		}
		s.DApps().Disconnect(args[1])
		fmt.Printf("Disconnected %s\n", args[1])
		return
	}

	for _, c := range s.DApps().All() {
		state := "disconnected"
		if c.Connected {
			state = "connected"
		}
		fmt.Printf("%-12s %-28s %s\n", state, c.Origin, strings.Join(c.Permissions, ","))
	}
}

// ── init-config ─────────────────────────────────────────────────────────

func cmdInitConfig(cfg *config.Config) {
	path := cfg.ConfigFile()
	if _, err := os.Stat(path); err == nil {
		fatal("config file already exists: %s", path)
	}
	if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
		fatal("create data directory: %v", err)
	}
	if err := config.WriteDefaultConfig(path); err != nil {
		fatal("write config: %v", err)
	}
	fmt.Printf("Wrote %s\n", path)
}

// ── Secret helper ───────────────────────────────────────────────────────

func readSecret(prompt string) ([]byte, error) {
	fmt.Fprint(os.Stderr, prompt)
	secret, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Fprintln(os.Stderr) // newline after hidden input
	if err != nil {
		return nil, err
	}
	return secret, nil
}

// ── Error helper ────────────────────────────────────────────────────────

func fatal(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "Error: "+format+"\n", args...)
	os.Exit(1)
}
