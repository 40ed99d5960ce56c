package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/saransh1220/notification-sync/internal/modules/notification/domain"
	"github.com/saransh1220/notification-sync/internal/modules/viewsync"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const watchHelp = `commands:
  filter <all|unread|TYPE>   change the filter (page resets to 1)
  search <term...>           search title and content (overrides the filter)
  clear                      clear the search term
  page <n>                   go to page n
  read <id>                  mark a notification as read
  refresh                    refetch the current page
  types                      reload the notification types
  help                       show this help
  quit                       exit`

var errQuit = errors.New("quit")

// syncWriter serializes snapshot output from push goroutines with command
// output from the input loop.
type syncWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (s *syncWriter) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.w.Write(p)
}

func newWatchCmd(a *app) *cobra.Command {
	var user, metricsAddr string

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Follow a live view and drive it from stdin",
		Long:  "Follow a live, paged view of a user's notifications.\n\n" + watchHelp,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			userID, err := parseUser(user)
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			out := &syncWriter{w: cmd.OutOrStdout()}

			if metricsAddr != "" {
				ln, err := net.Listen("tcp", metricsAddr)
				if err != nil {
					return fmt.Errorf("metrics listener: %w", err)
				}
				stop := serveMetrics(ln, a.registry, a.logger)
				defer stop()
			}

			stream := a.newStream(a)
			defer stream.Close()

			module := viewsync.NewModule(a.newClient(a), stream, viewsync.Config{
				UserID:   userID,
				PageSize: a.cfg.Client.PageSize,
				Backoff: viewsync.Backoff{
					Base: a.cfg.Client.ReconnectDelay,
					Max:  a.cfg.Client.ReconnectMaxDelay,
				},
				FailureThreshold: a.cfg.Client.ReconnectFailureThreshold,
				Logger:           a.logger,
				Metrics:          viewsync.NewMetrics(a.registry),
			})
			defer module.Close()

			session := module.Session()
			cancel := session.Watch(func(s viewsync.Snapshot) {
				if s.Loading {
					return
				}
				writeSnapshot(out, s)
			})
			defer cancel()

			if err := module.Start(ctx); err != nil {
				return err
			}
			return runCommands(ctx, cmd.InOrStdin(), out, session)
		},
	}

	userFlag(cmd, &user)
	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "serve view sync metrics on this address (e.g. :9100)")
	return cmd
}

// serveMetrics exposes g at /metrics on ln until the returned func is called.
func serveMetrics(ln net.Listener, g prometheus.Gatherer, logger *zap.Logger) func() {
	mux := http.NewServeMux()
	mux.Handle("GET /metrics", promhttp.HandlerFor(g, promhttp.HandlerOpts{}))
	srv := &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server failed", zap.Error(err))
		}
	}()
	logger.Info("serving metrics", zap.String("addr", ln.Addr().String()))

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			logger.Warn("metrics server shutdown", zap.Error(err))
		}
	}
}

// runCommands drives session from line-oriented input until EOF, quit, or
// ctx is done. Command errors are printed and the loop goes on.
func runCommands(ctx context.Context, in io.Reader, out io.Writer, session *viewsync.Session) error {
	lines := make(chan string)
	scanErr := make(chan error, 1)
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
		scanErr <- scanner.Err()
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case line, ok := <-lines:
			if !ok {
				select {
				case err := <-scanErr:
					return err
				default:
					return nil
				}
			}
			err := execute(ctx, session, out, line)
			if errors.Is(err, errQuit) {
				return nil
			}
			if err != nil {
				fmt.Fprintf(out, "error: %v\n", err)
			}
		}
	}
}

func execute(ctx context.Context, session *viewsync.Session, out io.Writer, line string) error {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return nil
	}
	name, args := strings.ToLower(fields[0]), fields[1:]

	switch name {
	case "filter":
		if len(args) != 1 {
			return errors.New("usage: filter <all|unread|TYPE>")
		}
		return session.SetFilter(ctx, domain.ParseFilter(args[0]))
	case "search":
		if len(args) == 0 {
			return errors.New("usage: search <term...>")
		}
		return session.SetSearchTerm(ctx, strings.Join(args, " "))
	case "clear":
		return session.SetSearchTerm(ctx, "")
	case "page":
		if len(args) != 1 {
			return errors.New("usage: page <n>")
		}
		n, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("invalid page %q", args[0])
		}
		return session.SetPage(ctx, n)
	case "read":
		if len(args) != 1 {
			return errors.New("usage: read <id>")
		}
		id, err := uuid.Parse(args[0])
		if err != nil {
			return fmt.Errorf("invalid notification id %q", args[0])
		}
		return session.MarkAsRead(ctx, id)
	case "refresh":
		return session.Refresh(ctx)
	case "types":
		return session.LoadTypes(ctx)
	case "help":
		fmt.Fprintln(out, watchHelp)
		return nil
	case "quit", "exit":
		return errQuit
	default:
		return fmt.Errorf("unknown command %q (try help)", name)
	}
}
