// Command watchlist edits the persisted watchlist from scripts.
//
//	watchlist [-config path] list
//	watchlist [-config path] add|remove|toggle <coin-id>
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"crypto_dash/internal/app"
	"crypto_dash/internal/watchlist"
)

func main() {
	configPath := flag.String("config", app.DefaultConfigPath, "path to config.yaml")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: %s [-config path] list | add <id> | remove <id> | toggle <id>\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	bootstrap := app.NewBootstrap()
	if err := bootstrap.LoadConfig(*configPath); err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}
	if err := bootstrap.InitializeStore(); err != nil {
		fmt.Fprintln(os.Stderr, "storage:", err)
		os.Exit(1)
	}
	defer bootstrap.Close()

	if err := run(bootstrap.Watchlist, flag.Args(), os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, err)
		if errors.Is(err, errUsage) {
			flag.Usage()
		}
		bootstrap.Close()
		os.Exit(2)
	}
}

var errUsage = errors.New("invalid arguments")

func run(store watchlist.Store, args []string, out io.Writer) error {
	if len(args) == 0 {
		return errUsage
	}

	switch cmd := args[0]; cmd {
	case "list":
		for _, id := range store.List() {
			fmt.Fprintln(out, id)
		}
		return nil

	case "add", "remove", "toggle":
		if len(args) != 2 {
			return errUsage
		}
		id := args[1]

		var res watchlist.Outcome
		switch cmd {
		case "add":
			res = store.Add(id)
		case "remove":
			res = store.Remove(id)
		default:
			var watched bool
			if watched, res = store.Toggle(id); res.Err == nil {
				cmd = "remove"
				if watched {
					cmd = "add"
				}
			}
		}
		if res.Err != nil {
			return fmt.Errorf("%s %s: %w", cmd, id, res.Err)
		}
		if res.Changed {
			fmt.Fprintf(out, "%s: %s\n", cmd, id)
		} else {
			fmt.Fprintf(out, "%s: %s (unchanged)\n", cmd, id)
		}
		return nil
	}
	return errUsage
}
