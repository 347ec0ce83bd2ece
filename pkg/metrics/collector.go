package metrics

import (
	"context"
	"time"

	"github.com/unet-io/unet/pkg/storage"
)

// Collector periodically recomputes inventory gauges from storage, on
// the teacher's ticking-goroutine Collector pattern.
type Collector struct {
	store  storage.Store
	stopCh chan struct{}
}

// NewCollector creates a Collector bound to store.
func NewCollector(store storage.Store) *Collector {
	return &Collector{store: store, stopCh: make(chan struct{})}
}

// Start begins collecting metrics every 15 seconds, collecting once
// immediately on start.
func (c *Collector) Start() {
	ticker := time.NewTicker(15 * time.Second)
	go func() {
		c.Collect()
		for {
			select {
			case <-ticker.C:
				c.Collect()
			case <-c.stopCh:
				ticker.Stop()
				return
			}
		}
	}()
}

// Stop stops the collector.
func (c *Collector) Stop() {
	close(c.stopCh)
}

// Collect performs one collection pass, recomputing every gauge from
// storage. Exported so tests can call it synchronously instead of
// racing the ticker goroutine Start spawns.
func (c *Collector) Collect() {
	c.collectNodeMetrics()
	c.collectEntityCounts()
}

func (c *Collector) collectNodeMetrics() {
	page, err := c.store.ListNodes(context.Background(), storage.QueryOptions{})
	if err != nil {
		return
	}

	counts := map[string]map[string]int{}
	for _, n := range page.Items {
		role := string(n.Role)
		lifecycle := string(n.Lifecycle)
		if counts[role] == nil {
			counts[role] = map[string]int{}
		}
		counts[role][lifecycle]++
	}

	for role, lifecycles := range counts {
		for lifecycle, n := range lifecycles {
			NodesTotal.WithLabelValues(role, lifecycle).Set(float64(n))
		}
	}
}

func (c *Collector) collectEntityCounts() {
	counts, err := c.store.GetEntityCounts(context.Background())
	if err != nil {
		return
	}
	if n, ok := counts["links"]; ok {
		LinksTotal.Set(float64(n))
	}
	if n, ok := counts["locations"]; ok {
		LocationsTotal.Set(float64(n))
	}
}
