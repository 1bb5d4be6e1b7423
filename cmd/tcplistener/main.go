package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/Hill11235/scratch-http-server/internal/request"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

const defaultPort = 42069

var label = color.New(color.FgCyan).SprintFunc()

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		cancel()
		log.Fatal(err)
	}
}

func newRootCmd() *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:          "tcplistener",
		Short:        "Print every request read from a TCP port",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			listener, err := net.Listen("tcp", fmt.Sprintf(":%d", port))
			if err != nil {
				return err
			}
			go func() {
				<-cmd.Context().Done()
				listener.Close()
			}()
			return listen(listener, color.Output)
		},
	}
	cmd.Flags().IntVar(&port, "port", defaultPort, "port to listen on")

	return cmd
}

// listen prints each request accepted on listener to out until the listener
// is closed.
func listen(listener net.Listener, out io.Writer) error {
	var mu sync.Mutex
	for {
		conn, err := listener.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return nil
			}
			return err
		}

		go func(c net.Conn) {
			defer c.Close()

			req, raw, err := request.RequestFromReader(c)
			if err != nil {
				fmt.Fprintf(os.Stderr, "%s: %v\n", c.RemoteAddr(), err)
				return
			}

			mu.Lock()
			defer mu.Unlock()
			printRequest(out, c.RemoteAddr(), req, raw)
		}(conn)
	}
}

func printRequest(w io.Writer, remote net.Addr, req *request.Request, raw string) {
	fmt.Fprintf(w, "Connection from %s\n", remote)
	fmt.Fprintln(w, label("Raw request:"))
	fmt.Fprintf(w, "- %q\n", raw)
	fmt.Fprintln(w, label("Parsed:"))
	fmt.Fprintf(w, "- Method: %s\n", req.RequestLine.Method)
	fmt.Fprintf(w, "- Target: %s\n", req.RequestLine.RequestTarget)
	fmt.Fprintf(w, "- Version: %s\n", req.RequestLine.HttpVersion)
	fmt.Fprintf(w, "- Accept: %s\n", req.Accept)
}
