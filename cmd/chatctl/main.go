// Package main is a one-shot command line client: it streams one answer
// to stdout, or lists models, or tests a profile's connection.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"golang.org/x/term"

	"chatstream/config"
	"chatstream/internal/chat"
	"chatstream/internal/codeblock"
	"chatstream/internal/core"
	"chatstream/internal/logging"
	"chatstream/internal/profiles"
	"chatstream/internal/version"
)

type options struct {
	profile    string
	listModels bool
	testConn   bool
	showCode   bool
}

func main() {
	var opts options
	flag.StringVar(&opts.profile, "profile", "", "Profile to use (default: the active profile)")
	flag.BoolVar(&opts.listModels, "models", false, "List the models of the profile and exit")
	flag.BoolVar(&opts.testConn, "test", false, "Test the connection of the profile and exit")
	flag.BoolVar(&opts.showCode, "code", false, "Print the extracted code blocks after the answer")
	versionFlag := flag.Bool("version", false, "Print version information")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: chatctl [flags] [prompt...]\n\nWithout a prompt argument the prompt is read from stdin.\n\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	if *versionFlag {
		fmt.Println(version.Info())
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, opts, flag.Args(), os.Stdin, os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context, opts options, args []string, stdin io.Reader, stdout io.Writer) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	logger := logging.New(os.Stderr, logging.Options{Format: cfg.Logging.Format, Level: cfg.Logging.Level})

	store, err := profiles.NewStore(cfg.CoreProfiles(), cfg.ActiveProfile)
	if err != nil {
		return err
	}
	service := chat.NewService(chat.NewClient(chat.WithLogger(logger)), store, nil, logger)

	switch {
	case opts.testConn:
		msg, err := service.Probe(ctx, opts.profile)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(stdout, msg)
		return err
	case opts.listModels:
		models, err := service.Models(ctx, opts.profile)
		if err != nil {
			return err
		}
		for _, m := range models {
			if _, err := fmt.Fprintln(stdout, m); err != nil {
				return err
			}
		}
		return nil
	}

	prompt, err := readPrompt(args, stdin)
	if err != nil {
		return err
	}

	messages := []core.Message{{Role: core.RoleUser, Content: prompt}}
	result, err := service.Stream(ctx, opts.profile, messages, chat.WriterSink{W: stdout})
	if result != nil {
		if !strings.HasSuffix(result.Text, "\n") {
			_, _ = fmt.Fprintln(stdout)
		}
		if opts.showCode {
			for i, block := range codeblock.Extract(result.Text) {
				_, _ = fmt.Fprintf(stdout, "\n--- code block %d ---\n%s\n", i+1, block)
			}
		}
	}
	return err
}

func readPrompt(args []string, stdin io.Reader) (string, error) {
	if len(args) > 0 {
		return strings.Join(args, " "), nil
	}
	if f, ok := stdin.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		fmt.Fprint(os.Stderr, "prompt (end with Ctrl-D): ")
	}
	data, err := io.ReadAll(stdin)
	if err != nil {
		return "", fmt.Errorf("failed to read prompt: %w", err)
	}
	prompt := strings.TrimSpace(string(data))
	if prompt == "" {
		return "", errors.New("empty prompt")
	}
	return prompt, nil
}
