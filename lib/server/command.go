package server

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/exec"
	"strings"
	"sync"
	"time"

	"github.com/feedshot/feedshot/lib/utils"
	"github.com/ysmood/kit"
	"github.com/ysmood/leakless"
)

// ErrExited is returned when the server process exits before it's ready
var ErrExited = errors.New("server process exited before it's ready")

// CommandOptions to run an external server, such as "python -u -m http.server 8000"
type CommandOptions struct {
	Name string
	Args []string

	// Dir is the working dir of the process
	Dir string

	// Env is appended to the env of the current process
	Env []string

	// URL the process serves the page at
	URL string

	// Ready is the text the process prints once it accepts requests.
	// If it's empty, URL is polled until it responds.
	Ready string

	// Timeout to wait for the process to become ready, 0 means no timeout other than ctx
	Timeout time.Duration

	Logger utils.Logger
}

// Command starts the process and waits until it's ready.
// The process is guarded by leakless when the platform supports it, so it won't outlive
// the current process even if the current process crashes.
func Command(ctx context.Context, opts CommandOptions) (*Server, error) {
	if opts.Name == "" {
		return nil, errors.New("server command is empty")
	}
	if opts.URL == "" {
		return nil, errors.New("server command requires the url it serves")
	}
	if opts.Logger == nil {
		opts.Logger = utils.LoggerQuiet
	}
	if opts.Timeout > 0 {
		var cancel func()
		ctx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}

	var ll *leakless.Launcher
	var cmd *exec.Cmd

	if leakless.Support() {
		ll = leakless.New()
		cmd = ll.Command(opts.Name, opts.Args...)
	} else {
		cmd = exec.Command(opts.Name, opts.Args...)
	}

	cmd.Dir = opts.Dir
	cmd.Env = append(os.Environ(), opts.Env...)

	// stdout and stderr are merged, the reader must keep draining it until the process exits
	pr, pw := io.Pipe()
	cmd.Stdout = pw
	cmd.Stderr = pw

	if err := cmd.Start(); err != nil {
		return nil, err
	}

	exited := make(chan struct{})
	var exitErr error
	go func() {
		exitErr = cmd.Wait()
		_ = pw.Close()
		close(exited)
	}()

	ready := make(chan struct{})
	var readyOnce sync.Once
	setReady := func() { readyOnce.Do(func() { close(ready) }) }

	go func() {
		sc := bufio.NewScanner(pr)
		for sc.Scan() {
			line := sc.Text()
			opts.Logger.Println("[server]", line)
			if opts.Ready != "" && strings.Contains(line, opts.Ready) {
				setReady()
			}
		}
		_, _ = io.Copy(io.Discard, pr)
	}()

	pid := cmd.Process.Pid
	if ll != nil {
		select {
		case pid = <-ll.Pid():
			if ll.Err() != "" {
				kill(cmd, pid, exited)
				return nil, errors.New(ll.Err())
			}
		case <-exited:
			return nil, fmt.Errorf("%w: %v", ErrExited, exitErr)
		case <-ctx.Done():
			kill(cmd, pid, exited)
			return nil, ctx.Err()
		}
	}

	if opts.Ready == "" {
		go func() {
			err := kit.Retry(ctx, kit.BackoffSleeper(30*time.Millisecond, time.Second, nil), func() (bool, error) {
				return responds(ctx, opts.URL), nil
			})
			if err == nil {
				setReady()
			}
		}()
	}

	select {
	case <-ready:
	case <-exited:
		return nil, fmt.Errorf("%w: %v", ErrExited, exitErr)
	case <-ctx.Done():
		kill(cmd, pid, exited)
		return nil, fmt.Errorf("wait for server command %q: %w", opts.Name, ctx.Err())
	}

	opts.Logger.Println("[server] command ready", opts.Name, opts.URL)

	return &Server{
		URL: opts.URL,
		close: func() error {
			kill(cmd, pid, exited)
			opts.Logger.Println("[server] command stopped", opts.Name)
			return nil
		},
	}, nil
}

// kill the process tree of pid and the guard process, then wait for the exit
func kill(cmd *exec.Cmd, pid int, exited chan struct{}) {
	_ = kit.KillTree(pid)
	_ = cmd.Process.Kill()
	<-exited
}

func responds(ctx context.Context, u string) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return false
	}

	res, err := http.DefaultClient.Do(req)
	if err != nil {
		return false
	}
	_ = res.Body.Close()
	return true
}
