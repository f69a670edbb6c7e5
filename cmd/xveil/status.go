package main

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/1broseidon/xveil/internal/ipc"
	"github.com/1broseidon/xveil/internal/runtimepath"
)

func runStatus(args []string) int {
	fs := flag.NewFlagSet("status", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	display := fs.String("display", os.Getenv("DISPLAY"), "display whose locker to query")
	jsonOut := fs.Bool("json", false, "print the raw status as JSON")
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}

	path, err := runtimepath.SocketPath(*display)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	st, err := ipc.NewClient(path).GetStatus()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	if *jsonOut {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(st); err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		return 0
	}

	fmt.Printf("State: %s\n", st.State)
	fmt.Printf("Display: %s (%d screens)\n", st.Display, st.Screens)
	if st.LockedSince > 0 {
		fmt.Printf("Locked since: %s\n", time.Unix(st.LockedSince, 0).Format(time.DateTime))
	}
	fmt.Printf("Failed attempts: %d\n", st.FailedAttempts)
	fmt.Printf("Filters: %s\n", st.Filters)
	fmt.Printf("PID: %d\n", st.PID)
	return 0
}
