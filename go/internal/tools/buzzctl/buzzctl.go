package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/mcdev12/buzzwire/go/internal/api"
	"github.com/mcdev12/buzzwire/go/internal/serial"
	"github.com/mcdev12/buzzwire/go/internal/session"
)

const usage = `usage: buzzctl [-addr URL] <command> [args]

commands:
  state            print the current session snapshot
  start            start (or restart) a run
  stop             stop the race clock
  resume           resume the race clock
  finish           finish the current run
  name <player>    record the pending run under a name
  cancel           discard the pending run
  clear            clear the leaderboard
  ports            list serial ports on this machine
`

func main() {
	addr := flag.String("addr", "http://localhost:8080", "buzzwire server URL")
	timeout := flag.Duration("timeout", 5*time.Second, "request timeout")
	flag.Usage = func() { fmt.Fprint(os.Stderr, usage) }
	flag.Parse()

	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(2)
	}

	if flag.Arg(0) == "ports" {
		ports, err := serial.ListPorts()
		if err != nil {
			fmt.Fprintf(os.Stderr, "list ports: %v\n", err)
			os.Exit(1)
		}
		for _, p := range ports {
			fmt.Println(p)
		}
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	client := api.NewClient(http.DefaultClient, *addr)
	snap, err := dispatch(ctx, client, flag.Arg(0), flag.Args()[1:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", flag.Arg(0), err)
		os.Exit(1)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(snap); err != nil {
		fmt.Fprintf(os.Stderr, "encode snapshot: %v\n", err)
		os.Exit(1)
	}
}

func dispatch(ctx context.Context, client *api.Client, command string, args []string) (*session.Snapshot, error) {
	switch command {
	case "state":
		return client.GetState(ctx)
	case "start":
		return client.Start(ctx)
	case "stop":
		return client.StopClock(ctx)
	case "resume":
		return client.ResumeClock(ctx)
	case "finish":
		return client.Finish(ctx)
	case "name":
		if len(args) == 0 {
			return nil, fmt.Errorf("player name is required")
		}
		return client.SubmitName(ctx, strings.Join(args, " "))
	case "cancel":
		return client.CancelNaming(ctx)
	case "clear":
		return client.ClearLeaderboard(ctx)
	default:
		return nil, fmt.Errorf("unknown command %q", command)
	}
}
