// Command podcastctl submits one podcast generation request to a running
// server and prints the outcome.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/podcaststudio/server/internal/client/submit"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	fs := flag.NewFlagSet("podcastctl", flag.ContinueOnError)
	server := fs.String("server", envOr("PODCAST_SERVER_URL", "http://localhost:5000"), "podcast server base URL")
	topic := fs.String("topic", "", "podcast topic (prompted when empty)")
	style := fs.String("style", "conversational", "narration style")
	duration := fs.String("duration", "3", "target length in minutes")
	model := fs.String("model", "", "script model (server default when empty)")
	skipAudio := fs.Bool("skip-audio", false, "generate the script only")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	form := &flagForm{
		topic:     *topic,
		style:     *style,
		duration:  *duration,
		model:     *model,
		skipAudio: *skipAudio,
	}
	if form.topic == "" {
		if err := form.ask(ctx, surveyPrompter{}); err != nil {
			fmt.Fprintf(os.Stderr, "podcastctl: %v\n", err)
			return 1
		}
	}

	view := newTerminalView(os.Stdout, *server)
	outcome := submit.New(*server, form, view).HandleSubmit(ctx)
	return exitCode(os.Stderr, outcome)
}

// Exit codes: the server rejected the request, or it could not be reached
// or answered with something unreadable.
const (
	exitRejected    = 1
	exitUnreachable = 3
)

func exitCode(w io.Writer, outcome submit.Outcome) int {
	if outcome.State == submit.StateSuccess {
		return 0
	}
	var respErr *submit.ResponseError
	if errors.As(outcome.Err, &respErr) {
		fmt.Fprintf(w, "podcastctl: server answered HTTP %d\n", respErr.StatusCode)
		return exitRejected
	}
	return exitUnreachable
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
