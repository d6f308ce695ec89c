package redis

import (
	"context"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/MrSnakeDoc/linkus/internal/config"
	"github.com/MrSnakeDoc/linkus/internal/logger"
)

func validOptions(addr string) ConnectOptions {
	return ConnectOptions{
		Addr:           addr,
		DialTimeout:    50 * time.Millisecond,
		ConnectTimeout: 300 * time.Millisecond,
		RetryInterval:  20 * time.Millisecond,
		MaxWait:        50 * time.Millisecond,
		PingTimeout:    50 * time.Millisecond,
	}
}

func TestValidateOptions(t *testing.T) {
	cl := &connectionLogger{logger: logger.Nop()}
	tests := []struct {
		name   string
		mutate func(*ConnectOptions)
	}{
		{"empty addr", func(o *ConnectOptions) { o.Addr = "" }},
		{"connect timeout", func(o *ConnectOptions) { o.ConnectTimeout = 0 }},
		{"retry interval", func(o *ConnectOptions) { o.RetryInterval = 0 }},
		{"max wait", func(o *ConnectOptions) { o.MaxWait = -time.Second }},
		{"ping timeout", func(o *ConnectOptions) { o.PingTimeout = 0 }},
		{"warn threshold", func(o *ConnectOptions) { o.WarnThreshold = -1 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := validOptions("localhost:6379")
			tt.mutate(&opts)
			if err := cl.validateOptions(opts); err == nil {
				t.Error("validateOptions() expected error")
			}
		})
	}

	if err := cl.validateOptions(validOptions("localhost:6379")); err != nil {
		t.Errorf("validateOptions() error = %v", err)
	}
}

func freeAddr(t *testing.T) string {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	addr := l.Addr().String()
	_ = l.Close()
	return addr
}

func TestNewGivesUpAfterTimeout(t *testing.T) {
	start := time.Now()
	_, err := New(context.Background(), validOptions(freeAddr(t)), logger.Nop())
	if err == nil {
		t.Fatal("New() against a closed port should fail")
	}
	if !strings.Contains(err.Error(), "redis unavailable") {
		t.Errorf("error = %v", err)
	}
	if time.Since(start) > 3*time.Second {
		t.Errorf("New() took %v, want it bounded by ConnectTimeout", time.Since(start))
	}
}

func TestNewAbortsOnCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	opts := validOptions(freeAddr(t))
	opts.ConnectTimeout = time.Minute
	_, err := New(ctx, opts, logger.Nop())
	if err == nil || !strings.Contains(err.Error(), "aborted") {
		t.Errorf("New() error = %v, want aborted", err)
	}
}

func TestOptionsFromConfig(t *testing.T) {
	cfg := &config.Config{RedisAddr: "cache:6379", RedisDB: 2, RedisPoolSize: 5, RedisMaxWait: time.Second}
	opts := OptionsFromConfig(cfg)
	if opts.Addr != "cache:6379" || opts.RedisDB != 2 || opts.PoolSize != 5 || opts.MaxWait != time.Second {
		t.Errorf("OptionsFromConfig() = %+v", opts)
	}
}
