package main

import (
	"bytes"
	"context"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"html"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"time"

	"github.com/icgc-dcc/portal-pql"
	"github.com/icgc-dcc/portal-pql/parser"
	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
	"zombiezen.com/go/bass/sigterm"
)

//go:embed index.html
//go:embed app.js
var static embed.FS

const shutdownTimeout = 10 * time.Second

// playgroundFields are the field paths offered by /suggest.
var playgroundFields = []string{
	"donor.age",
	"donor.gender",
	"donor.primarySite",
	"donor.specimen",
	"donor.specimen.interval",
	"donor.specimen.type",
	"donor.survivalTime",
	"gene.id",
	"gene.symbol",
	"mutation.consequence",
	"project.id",
}

func main() {
	rootCommand := &cobra.Command{
		Use:   "pql-playground [options]",
		Short: "Serve an interactive Portal Query Language translator",
		Args:  cobra.NoArgs,

		DisableFlagsInUseLine: true,
		SilenceErrors:         true,
		SilenceUsage:          true,
	}
	addr := rootCommand.Flags().String("addr", ":8080", "address to listen on")
	logLevel := rootCommand.Flags().String("log-level", logrus.InfoLevel.String(), "minimum level of log messages")
	rootCommand.RunE = func(cmd *cobra.Command, args []string) error {
		level, err := logrus.ParseLevel(*logLevel)
		if err != nil {
			return err
		}
		logger := logrus.New()
		logger.SetLevel(level)
		return serve(cmd.Context(), logrus.NewEntry(logger), *addr)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), sigterm.Signals()...)
	err := rootCommand.ExecuteContext(ctx)
	cancel()
	if err != nil {
		fmt.Fprintf(os.Stderr, "pql-playground: %v\n", err)
		os.Exit(1)
	}
}

// serve runs the playground on addr until ctx is done.
func serve(ctx context.Context, log *logrus.Entry, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	log.Infof("Listening on %s", ln.Addr())
	return serveListener(ctx, log, ln)
}

// serveListener serves the playground on ln until ctx is done
// or the server fails, then waits for shutdown to finish.
func serveListener(ctx context.Context, log *logrus.Entry, ln net.Listener) error {
	e := newRouter(log)
	e.Listener = ln

	errGroup, ctx := errgroup.WithContext(ctx)
	errGroup.Go(func() error {
		<-ctx.Done()
		log.Infof("Shutting down")

		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return e.Shutdown(ctx)
	})
	errGroup.Go(func() error {
		if err := e.Start(""); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve playground: %w", err)
		}
		return nil
	})
	defer log.Infof("Stopped")

	return errGroup.Wait()
}

func newRouter(log *logrus.Entry) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(requestLogger(log), recoverer(log))

	e.FileFS("/", "index.html", static)
	e.FileFS("/app.js", "app.js", static)
	e.POST("/translate", translate)
	e.POST("/suggest", suggest)
	return e
}

func translate(c echo.Context) error {
	list, err := parser.Parse(c.FormValue("source"))
	buf := new(bytes.Buffer)
	if err != nil {
		buf.WriteString(`<div class="italic text-red-900">`)
		buf.WriteString(html.EscapeString(err.Error()))
		buf.WriteString("</div>")
		return c.HTMLBlob(http.StatusOK, buf.Bytes())
	}
	tree, err := json.MarshalIndent(list, "", "  ")
	if err != nil {
		return err
	}
	buf.WriteString(`<div class="font-mono bg-slate-300 text-black p-4">`)
	buf.WriteString(`<pre class="whitespace-pre-wrap"><code>`)
	buf.WriteString(html.EscapeString(pql.Serialize(list)))
	buf.WriteString("</code></pre>\n")
	buf.WriteString(`<pre class="mt-4 text-sm"><code>`)
	buf.WriteString(html.EscapeString(string(tree)))
	buf.WriteString("</code></pre>\n")
	buf.WriteString("</div>\n")
	return c.HTMLBlob(http.StatusOK, buf.Bytes())
}

func suggest(c echo.Context) error {
	ctx := &pql.AnalysisContext{
		Fields: playgroundFields,
	}
	source := c.FormValue("source")
	start, err := strconv.Atoi(c.FormValue("start"))
	if err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, "start: "+err.Error())
	}
	end, err := strconv.Atoi(c.FormValue("end"))
	if err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, "end: "+err.Error())
	}
	if start < 0 || start > end || end > len(source) {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, "cursor out of range")
	}
	completions := ctx.SuggestCompletions(source, parser.Span{
		Start: start,
		End:   end,
	})

	buf := new(bytes.Buffer)
	if len(completions) == 0 {
		buf.WriteString(`<li class="p-2">No completions.</li>`)
	} else {
		for _, comp := range completions {
			buf.WriteString(`<li class="p-2 hover:bg-white/25 has-[:focus]:bg-white/50 has-[:active]:bg-white/50"><a class="outline-none" href="#" data-action="analysis#fill" data-analysis-text-param="`)
			buf.WriteString(html.EscapeString(comp.Text))
			buf.WriteString(`" data-analysis-start-param="`)
			buf.WriteString(strconv.Itoa(comp.Span.Start))
			buf.WriteString(`" data-analysis-end-param="`)
			buf.WriteString(strconv.Itoa(comp.Span.End))
			buf.WriteString(`">`)
			buf.WriteString(html.EscapeString(comp.Label))
			buf.WriteString("</a></li>\n")
		}
	}
	return c.HTMLBlob(http.StatusOK, buf.Bytes())
}

// requestLogger logs one entry per request.
func requestLogger(log *logrus.Entry) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			if err != nil {
				// Let echo write the response so the logged status is accurate.
				c.Error(err)
			}
			entry := log.WithFields(logrus.Fields{
				"method":   c.Request().Method,
				"path":     c.Request().URL.Path,
				"status":   c.Response().Status,
				"duration": time.Since(start),
			})
			if err != nil {
				entry.WithError(err).Warn("Request failed")
			} else {
				entry.Debug("Request")
			}
			return nil
		}
	}
}

func recoverer(log *logrus.Entry) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) (err error) {
			defer func() {
				if r := recover(); r != nil {
					if r == http.ErrAbortHandler {
						panic(r)
					}
					err = fmt.Errorf("panic: %v", r)
					log.Errorf("%s %s: %v", c.Request().Method, c.Request().URL.Path, err)
				}
			}()
			return next(c)
		}
	}
}
