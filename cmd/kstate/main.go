// Command kstate is an interactive inspector for shared states: subscribe
// to a state, dump and poke its bytes through transactions, and watch the
// backing object for filesystem events caused by other processes.
package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/chzyer/readline"

	"github.com/CreditWorthy/kstate"
)

var exitFunc = os.Exit
var stderr io.Writer = os.Stderr

const prompt = "\033[32mkstate>\033[0m "

func main() {
	l, err := readline.NewEx(&readline.Config{
		Prompt:            prompt,
		HistoryFile:       os.TempDir() + "/.kstate-history.tmp",
		InterruptPrompt:   "^C",
		EOFPrompt:         "exit",
		HistorySearchFold: true,
	})
	if err != nil {
		fmt.Fprintf(stderr, "kstate: %v\n", err)
		exitFunc(1)
		return
	}
	defer l.Close()
	l.CaptureExitSignal()

	sess := newSession()
	defer sess.close()

	for {
		line, err := l.Readline()
		if err == readline.ErrInterrupt {
			if len(line) == 0 {
				break
			}
			continue
		} else if err == io.EOF {
			break
		} else if err != nil {
			fmt.Fprintf(stderr, "kstate: %v\n", err)
			break
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if line == "exit" || line == "quit" {
			break
		}

		out, err := sess.run(line)
		if err != nil {
			fmt.Fprintf(stderr, "kstate: %v (errno %d)\n", err, kstate.Errno(err))
			continue
		}
		if out != "" {
			fmt.Println(out)
		}
	}
}

// session is the REPL's world: at most one subscribed state and one open
// transaction at a time.
type session struct {
	state *kstate.State
	txn   *kstate.Transaction
}

func newSession() *session {
	return &session{state: kstate.NewState(), txn: kstate.NewTransaction()}
}

func (s *session) close() {
	s.txn.Close()
	s.state.Close()
}

var errUsage = errors.New("bad usage, try 'help'")

// run dispatches one command line and returns its output.
func (s *session) run(line string) (string, error) {
	args := strings.Fields(line)
	if len(args) == 0 {
		return "", nil
	}
	cmd, args := args[0], args[1:]

	switch cmd {
	case "help":
		return helpText, nil
	case "sub":
		return s.subscribe(args)
	case "unsub":
		s.state.Unsubscribe()
		return "unsubscribed", nil
	case "info":
		return s.state.String() + "\n" + s.txn.String(), nil
	case "dump":
		return s.dump(args)
	case "begin":
		return s.begin(args)
	case "set":
		return s.set(args)
	case "commit":
		if err := s.txn.Commit(); err != nil {
			return "", err
		}
		return "committed", nil
	case "abort":
		if err := s.txn.Abort(); err != nil {
			return "", err
		}
		return "aborted", nil
	case "unique":
		if len(args) != 1 {
			return "", errUsage
		}
		return kstate.UniqueName(args[0]), nil
	case "watch":
		return s.watch(args)
	default:
		return "", fmt.Errorf("unknown command %q: %w", cmd, errUsage)
	}
}

func (s *session) subscribe(args []string) (string, error) {
	if len(args) < 1 || len(args) > 2 {
		return "", errUsage
	}
	perms := kstate.Read | kstate.Write
	if len(args) == 2 {
		if args[1] != "ro" {
			return "", errUsage
		}
		perms = kstate.Read
	}
	if err := s.state.Subscribe(args[0], perms); err != nil {
		return "", err
	}
	return s.state.String(), nil
}

func (s *session) begin(args []string) (string, error) {
	if len(args) > 1 {
		return "", errUsage
	}
	perms := kstate.Read | kstate.Write
	if len(args) == 1 {
		if args[0] != "ro" {
			return "", errUsage
		}
		perms = kstate.Read
	}
	if err := s.txn.Start(s.state, perms); err != nil {
		return "", err
	}
	return s.txn.String(), nil
}

// dump shows the first n bytes (default 64) of the transaction's working
// buffer when one is open, else of the state's committed view.
func (s *session) dump(args []string) (string, error) {
	n := 64
	if len(args) == 1 {
		var err error
		n, err = strconv.Atoi(args[0])
		if err != nil || n <= 0 {
			return "", errUsage
		}
	} else if len(args) > 1 {
		return "", errUsage
	}

	b := s.txn.Bytes()
	if b == nil {
		b = s.state.Bytes()
	}
	if b == nil {
		return "", fmt.Errorf("nothing to dump: %w", kstate.ErrNotSubscribed)
	}
	if n > len(b) {
		n = len(b)
	}
	return strings.TrimRight(hexDump(b[:n]), "\n"), nil
}

// set writes hex bytes into the open transaction at an offset,
// e.g. `set 0 12345678`.
func (s *session) set(args []string) (string, error) {
	if len(args) != 2 {
		return "", errUsage
	}
	off, err := strconv.Atoi(args[0])
	if err != nil || off < 0 {
		return "", errUsage
	}
	data, err := decodeHex(args[1])
	if err != nil {
		return "", err
	}
	b := s.txn.Bytes()
	if b == nil {
		return "", kstate.ErrNotActive
	}
	if off+len(data) > len(b) {
		return "", fmt.Errorf("write of %d bytes at %d exceeds the %d-byte state", len(data), off, len(b))
	}
	copy(b[off:], data)
	return fmt.Sprintf("%d bytes at offset %d", len(data), off), nil
}

// watch follows the state's backing object for a few seconds and reports
// its filesystem events (see watchState); commits are not among them.
func (s *session) watch(args []string) (string, error) {
	secs := 10
	if len(args) == 1 {
		var err error
		secs, err = strconv.Atoi(args[0])
		if err != nil || secs <= 0 {
			return "", errUsage
		}
	} else if len(args) > 1 {
		return "", errUsage
	}
	if !s.state.IsSubscribed() {
		return "", kstate.ErrNotSubscribed
	}
	return "", watchState(s.state.Name(), time.Duration(secs)*time.Second, os.Stdout)
}

const helpText = `commands:
  sub <name> [ro]    subscribe to a state (creates it unless ro)
  unsub              unsubscribe
  info               show the current state and transaction
  dump [n]           hex dump the first n bytes (default 64)
  begin [ro]         start a transaction
  set <off> <hex>    write hex bytes into the open transaction
  commit             commit the open transaction
  abort              abort the open transaction
  unique <prefix>    generate a unique state name
  watch [secs]       report filesystem events on the state (default 10s)
  exit               leave`
