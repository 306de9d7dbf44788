package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"margin/internal/api"
	"margin/internal/logging"
	"margin/internal/pagecache"
	"margin/internal/pdfview"
	"margin/internal/reader"
)

func newReadCommand(ctx *commandContext) *cobra.Command {
	var noOpen bool

	cmd := &cobra.Command{
		Use:   "read <id>",
		Short: "Open a paper and track reading progress interactively",
		Long: `Open a paper in the system PDF viewer and run an interactive session.
Page turns are cached locally at once and written to the daemon after a
quiet period; notes are saved on demand and flushed when the session
ends, even on Ctrl-C.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			client, err := ctx.authedClient()
			if err != nil {
				return err
			}

			sessionCtx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			id, err := resolvePaperID(sessionCtx, client, args[0])
			if err != nil {
				return err
			}
			paper, err := client.GetPaper(sessionCtx, id)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			viewer := pdfview.NewViewer(filepath.Join(cfg.Paths.CacheDir, "papers"), client, logging.NewNop())
			localPath, fetchErr := viewer.Fetch(sessionCtx, paper.ID, paper.URL)
			if fetchErr != nil {
				fmt.Fprintf(out, "Could not download the document: %v\n", fetchErr)
			} else if !noOpen {
				if openErr := viewer.Open(localPath); openErr != nil {
					fmt.Fprintf(out, "Could not open a viewer: %v\n", openErr)
				}
			}

			pageCount := paper.PageCount
			if pageCount == nil && localPath != "" {
				if pages, countErr := pdfview.PageCount(localPath); countErr == nil {
					pageCount = &pages
					if updated, updateErr := client.UpdatePaper(sessionCtx, paper.ID, api.UpdatePaperRequest{PageCount: &pages}); updateErr == nil {
						paper = updated
					}
				}
			}

			if paper.Status == "to_read" {
				reading := "reading"
				if updated, updateErr := client.UpdatePaper(sessionCtx, paper.ID, api.UpdatePaperRequest{Status: &reading}); updateErr == nil {
					paper = updated
				}
			}

			cache := pagecache.New(cfg.PageCachePath(), logging.NewNop())
			session := reader.NewSession(reader.SessionConfig{
				PaperID:    paper.ID,
				StartPage:  paper.CurrentPage,
				Notes:      stringValue(paper.Outcome),
				Store:      client,
				Cache:      cache,
				Dispatcher: client,
				Debounce:   cfg.PageSaveDebounce(),
				Logger:     logging.NewNop(),
			})

			fmt.Fprintf(out, "Reading %s\n", orDash(paper.Title))
			fmt.Fprintf(out, "Starting at page %d%s\n", session.Page(), pageSuffix(pageCount))
			fmt.Fprintln(out, "Commands: <page>, next, prev, notes [text], save, done, quit")

			suspends := make(chan os.Signal, 1)
			signal.Notify(suspends, syscall.SIGTSTP)
			defer signal.Stop(suspends)
			go watchSuspend(sessionCtx, suspends, func() {
				hideCtx, hideCancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer hideCancel()
				if err := session.Hidden(hideCtx); err != nil {
					fmt.Fprintf(out, "Warning: %v\n", err)
				}
			}, stopSelf)

			runREPL(sessionCtx, cmd.InOrStdin(), out, session, pageCount)

			closeCtx, closeCancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer closeCancel()
			if err := session.Close(closeCtx); err != nil {
				fmt.Fprintf(out, "Warning: %v\n", err)
			}
			client.FlushBeacon()
			fmt.Fprintf(out, "Session ended at page %d\n", session.Page())
			return nil
		},
	}
	cmd.Flags().BoolVar(&noOpen, "no-open", false, "Skip launching the system PDF viewer")
	return cmd
}

// watchSuspend handles Ctrl-Z as the session losing visibility: dirty
// notes are written through the durable path before the process stops.
// The notify registration keeps SIGTSTP from suspending on its own, so
// stop delivers an uncatchable SIGSTOP once the flush has run.
func watchSuspend(ctx context.Context, suspends <-chan os.Signal, flush func(), stop func()) {
	for {
		select {
		case <-ctx.Done():
			return
		case _, ok := <-suspends:
			if !ok {
				return
			}
			flush()
			stop()
		}
	}
}

func stopSelf() {
	_ = syscall.Kill(os.Getpid(), syscall.SIGSTOP)
}

// runREPL consumes commands until quit, EOF, or a signal. Input reading
// happens on its own goroutine so a signal interrupts a blocked read.
func runREPL(ctx context.Context, in io.Reader, out io.Writer, session *reader.Session, pageCount *int) {
	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			fmt.Fprintln(out, "\nInterrupted, saving...")
			return
		case line, ok := <-lines:
			if !ok {
				return
			}
			if quit := handleREPLLine(ctx, out, session, pageCount, line); quit {
				return
			}
		}
	}
}

func handleREPLLine(ctx context.Context, out io.Writer, session *reader.Session, pageCount *int, line string) bool {
	line = strings.TrimSpace(line)
	if line == "" {
		return false
	}

	if page, err := strconv.Atoi(line); err == nil {
		turnTo(out, session, page, pageCount)
		return false
	}

	command, rest, _ := strings.Cut(line, " ")
	switch command {
	case "next", "n":
		turnTo(out, session, session.Page()+1, pageCount)
	case "prev", "p":
		turnTo(out, session, session.Page()-1, pageCount)
	case "notes":
		if strings.TrimSpace(rest) == "" {
			fmt.Fprintf(out, "Notes: %s\n", session.Notes())
			return false
		}
		session.SetNotes(strings.TrimSpace(rest))
		fmt.Fprintln(out, "Notes updated (unsaved)")
	case "append":
		if strings.TrimSpace(rest) == "" {
			fmt.Fprintln(out, "Usage: append <text>")
			return false
		}
		existing := session.Notes()
		if existing == "" {
			session.SetNotes(strings.TrimSpace(rest))
		} else {
			session.SetNotes(existing + "\n" + strings.TrimSpace(rest))
		}
		fmt.Fprintln(out, "Notes updated (unsaved)")
	case "save":
		if err := session.SaveNotes(ctx); err != nil {
			fmt.Fprintf(out, "Save failed: %v\n", err)
			return false
		}
		fmt.Fprintf(out, "Notes saved at %s\n", session.NotesSavedAt().Format("15:04:05"))
	case "done":
		fmt.Fprintln(out, "Finishing up")
		return true
	case "quit", "q", "exit":
		return true
	default:
		fmt.Fprintf(out, "Unknown command %q\n", command)
	}
	return false
}

func turnTo(out io.Writer, session *reader.Session, page int, pageCount *int) {
	if pageCount != nil && page > *pageCount {
		page = *pageCount
	}
	current := session.TurnTo(page)
	fmt.Fprintf(out, "Page %d%s\n", current, pageSuffix(pageCount))
}

func pageSuffix(pageCount *int) string {
	if pageCount == nil {
		return ""
	}
	return fmt.Sprintf(" of %d", *pageCount)
}

func stringValue(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
