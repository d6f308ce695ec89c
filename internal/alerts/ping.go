package alerts

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"runtime"
	"strconv"
	"strings"
	"time"
	"unicode"
)

// PingResult is the outcome of a single echo request.
type PingResult struct {
	Alive  bool
	Output string
}

// Pinger sends one echo request to host. A nil error with Alive false means
// the host did not answer; an error means the check could not run.
type Pinger interface {
	Ping(ctx context.Context, host string, timeout time.Duration) (PingResult, error)
}

// PingFunc adapts a function to Pinger.
type PingFunc func(ctx context.Context, host string, timeout time.Duration) (PingResult, error)

func (f PingFunc) Ping(ctx context.Context, host string, timeout time.Duration) (PingResult, error) {
	return f(ctx, host, timeout)
}

// SystemPinger shells out to the platform ping binary.
type SystemPinger struct{}

// grace is added on top of the ping timeout before the process is killed.
const grace = 2 * time.Second

func (SystemPinger) Ping(ctx context.Context, host string, timeout time.Duration) (PingResult, error) {
	if err := validHost(host); err != nil {
		return PingResult{}, err
	}

	ctx, cancel := context.WithTimeout(ctx, timeout+grace)
	defer cancel()

	out, err := exec.CommandContext(ctx, "ping", pingArgs(runtime.GOOS, host, timeout)...).CombinedOutput()
	if err == nil {
		return PingResult{Alive: true, Output: string(out)}, nil
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) || ctx.Err() != nil {
		// ping ran and the host did not answer in time
		return PingResult{Alive: false, Output: string(out)}, nil
	}
	return PingResult{}, fmt.Errorf("ping execution failed: %w", err)
}

func pingArgs(goos, host string, timeout time.Duration) []string {
	if goos == "windows" {
		return []string{"-n", "1", "-w", strconv.FormatInt(timeout.Milliseconds(), 10), host}
	}
	secs := int(timeout.Round(time.Second) / time.Second)
	if secs < 1 {
		secs = 1
	}
	return []string{"-c", "1", "-W", strconv.Itoa(secs), host}
}

// validHost keeps the target from being read as a ping option.
func validHost(host string) error {
	if host == "" {
		return errors.New("ping target is empty")
	}
	if strings.HasPrefix(host, "-") || strings.IndexFunc(host, unicode.IsSpace) >= 0 {
		return fmt.Errorf("invalid ping target %q", host)
	}
	return nil
}
