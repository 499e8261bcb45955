package device

import (
	"context"
	"errors"
	"sync"

	"golang.org/x/sync/errgroup"
)

// DefaultBatchLimit bounds how many devices a batch addresses at once
const DefaultBatchLimit = 16

// Task is one unit of batch work against a single device
type Task func(ctx context.Context, c *Client) error

// Batch runs task against every client with at most limit in flight and
// returns each client's outcome keyed by address. A failing device never
// cancels its siblings; only ctx does. Clients sharing an address share one
// entry that joins all of their errors, so it is nil only if every one of
// them succeeded.
func Batch(ctx context.Context, clients []*Client, limit int, task Task) map[string]error {
	if limit <= 0 {
		limit = DefaultBatchLimit
	}

	results := make(map[string]error, len(clients))
	var mu sync.Mutex

	g := new(errgroup.Group)
	g.SetLimit(limit)
	for _, c := range clients {
		g.Go(func() error {
			err := ctx.Err()
			if err == nil {
				err = task(ctx, c)
			}
			mu.Lock()
			results[c.Addr()] = errors.Join(results[c.Addr()], err)
			mu.Unlock()
			// Per-device errors live in the map, not the group.
			return nil
		})
	}
	_ = g.Wait()
	return results
}

// ConnectAll connects to every address concurrently. Clients that connected
// are returned along with an error map, keyed by Client.Addr, covering
// every address. A repeated address gets a single client.
func ConnectAll(ctx context.Context, addrs []string, limit int, opts ...Option) ([]*Client, map[string]error) {
	clients := make([]*Client, 0, len(addrs))
	seen := make(map[string]bool, len(addrs))
	for _, a := range addrs {
		if seen[a] {
			continue
		}
		seen[a] = true
		clients = append(clients, New(a, opts...))
	}

	results := Batch(ctx, clients, limit, func(ctx context.Context, c *Client) error {
		_, err := c.Query(ctx)
		return err
	})

	connected := clients[:0]
	for _, c := range clients {
		if results[c.Addr()] == nil {
			connected = append(connected, c)
		} else {
			_ = c.Close()
		}
	}
	return connected, results
}
