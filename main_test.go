package main

import (
	"net"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestGracefulShutdown_ClosesBackendsAfterDrain(t *testing.T) {
	var mu sync.Mutex
	var events []string
	record := func(e string) {
		mu.Lock()
		events = append(events, e)
		mu.Unlock()
	}

	started := make(chan struct{})
	server := &http.Server{
		Handler: http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			close(started)
			time.Sleep(100 * time.Millisecond)
			record("handler finished")
		}),
	}

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	go server.Serve(ln)

	go func() {
		resp, err := http.Get("http://" + ln.Addr().String() + "/")
		if err == nil {
			resp.Body.Close()
		}
	}()
	<-started

	// Shutdown must wait for the in-flight request before any backend
	// close runs.
	err = gracefulShutdown(server, func() error {
		record("backend closed")
		return nil
	})
	require.NoError(t, err)

	mu.Lock()
	defer mu.Unlock()
	require.Equal(t, []string{"handler finished", "backend closed"}, events)
}

func TestGracefulShutdown_RunsClosersInOrder(t *testing.T) {
	t.Parallel()

	var events []string
	err := gracefulShutdown(&http.Server{},
		func() error { events = append(events, "store"); return nil },
		func() error { events = append(events, "cache"); return nil },
	)
	require.NoError(t, err)
	require.Equal(t, []string{"store", "cache"}, events)
}
