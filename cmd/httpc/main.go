//go:build unix

// Command httpc issues repeated GET /exec?query=... requests over one
// connection and reports the chunks and timing of each response.
package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/nczempin/httpc-direct/client"
	"github.com/nczempin/httpc-direct/transport"
)

type options struct {
	host       string
	port       int
	path       string
	query      string
	iterations int
	timeout    time.Duration
	bufferSize int
	transport  string
	waiter     string
	dev        bool
}

func main() {
	var o options
	flag.StringVar(&o.host, "host", "localhost", "server host, or socket path with -transport=unix")
	flag.IntVar(&o.port, "port", 9000, "server port")
	flag.StringVar(&o.path, "path", "/exec", "request path")
	flag.StringVar(&o.query, "query", "cpu limit 400000", "value of the query parameter")
	flag.IntVar(&o.iterations, "n", 10, "number of requests")
	flag.DurationVar(&o.timeout, "timeout", client.DefaultTimeout, "bound for each socket wait, negative waits forever")
	flag.IntVar(&o.bufferSize, "buffer", client.DefaultBufferSize, "request/response buffer size in bytes")
	flag.StringVar(&o.transport, "transport", "tcp", "socket backend: "+transportNames)
	flag.StringVar(&o.waiter, "waiter", "default", "readiness backend: "+waiterNames)
	flag.BoolVar(&o.dev, "dev", false, "human readable debug logging")
	flag.Parse()

	logger, err := newLogger(o.dev)
	if err != nil {
		fmt.Fprintf(os.Stderr, "httpc: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	if err := run(logger, o); err != nil {
		logger.Error("run failed", zap.Error(err))
		logger.Sync()
		os.Exit(1)
	}
}

func newLogger(dev bool) (*zap.Logger, error) {
	if dev {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

func run(logger *zap.Logger, o options) error {
	tr, err := newTransport(o.transport)
	if err != nil {
		return err
	}
	w, err := newWaiter(o.waiter)
	if err != nil {
		tr.Destroy()
		return err
	}

	opts := []client.Option{
		client.WithTransport(tr),
		client.WithTimeout(o.timeout),
		client.WithBufferSize(o.bufferSize),
		client.WithLogger(logger),
	}
	if w != nil {
		opts = append(opts, client.WithWaiter(w))
	}
	c, err := client.New(opts...)
	if err != nil {
		tr.Destroy()
		if w != nil {
			w.Close()
		}
		return err
	}
	defer c.Close()

	for i := 0; i < o.iterations; i++ {
		if err := exec(logger, c, o, i); err != nil {
			return err
		}
	}
	return nil
}

func exec(logger *zap.Logger, c *client.Client, o options, iteration int) error {
	start := time.Now()

	h, err := c.NewRequest().
		GET().
		URL(o.path).
		Query("query", o.query).
		Header("Accept", "gzip, deflate, br").
		Send(o.host, o.port)
	if err != nil {
		return err
	}
	if err := h.Await(); err != nil {
		return err
	}

	chunked, err := h.IsChunked()
	if err != nil {
		return err
	}

	var chunks, size int
	if chunked {
		for {
			chunk, err := h.Chunked().Recv()
			if err == io.EOF {
				break
			}
			if err != nil {
				return err
			}
			size += chunk.Len()
			if !chunk.Partial() {
				chunks++
			}
		}
	} else {
		// The body is not decoded; start the next request on a fresh socket.
		if err := c.Disconnect(); err != nil {
			return err
		}
	}

	logger.Info("response",
		zap.Int("iteration", iteration),
		zap.Int("status", h.StatusCode()),
		zap.Bool("chunked", chunked),
		zap.Int("chunks", chunks),
		zap.Int("bytes", size),
		zap.Duration("elapsed", time.Since(start)))
	return nil
}

func newTransport(name string) (transport.Transport, error) {
	switch name {
	case "tcp":
		return transport.NewTcpTransport(), nil
	case "unix":
		return transport.NewUnixTransport(), nil
	default:
		return platformTransport(name)
	}
}

// newWaiter returns nil for the platform default.
func newWaiter(name string) (transport.Waiter, error) {
	switch name {
	case "default":
		return nil, nil
	case "poll":
		return transport.NewPollWaiter(), nil
	default:
		return platformWaiter(name)
	}
}
