package logger

import (
	"context"
	"encoding/json"
	"fmt"
	"hash/fnv"
	"os"
	"sort"
	"sync"
	"time"
)

type Publisher interface {
	PublishMessage(ctx context.Context, topic string, payload interface{}) error
}

type CollectionConfig struct {
	TimeInterval   time.Duration // flush interval, default 30s
	CountThreshold int           // unique entries that force an early flush
	Topic          string
	Publisher      Publisher
	// IncludeWarnings also aggregates warn-level logs. Provider quota
	// exhaustion is logged at warn.
	IncludeWarnings bool
}

type AggregatedLogEntry struct {
	Level     string                 `json:"level"`
	Message   string                 `json:"message"`
	Fields    map[string]interface{} `json:"fields,omitempty"`
	Caller    string                 `json:"caller"`
	Count     int                    `json:"count"`
	FirstSeen time.Time              `json:"first_seen"`
	LastSeen  time.Time              `json:"last_seen"`
}

// LogCollector folds identical log lines into counted entries and ships
// them in batches. Publishing happens on the collector's own goroutine.
type LogCollector struct {
	config  CollectionConfig
	mu      sync.Mutex
	entries map[uint64]*AggregatedLogEntry
	flushCh chan struct{}
	stopCh  chan struct{}
	done    chan struct{}
	once    sync.Once
}

func NewLogCollector(config *CollectionConfig) *LogCollector {
	cfg := *config
	if cfg.TimeInterval <= 0 {
		cfg.TimeInterval = 30 * time.Second
	}

	c := &LogCollector{
		config:  cfg,
		entries: make(map[uint64]*AggregatedLogEntry),
		flushCh: make(chan struct{}, 1),
		stopCh:  make(chan struct{}),
		done:    make(chan struct{}),
	}
	go c.run()
	return c
}

func (c *LogCollector) AddLog(level, message string, fields map[string]interface{}, caller string) {
	now := time.Now()
	key := entryKey(level, message, fields, caller)

	c.mu.Lock()
	if e, ok := c.entries[key]; ok {
		e.Count++
		e.LastSeen = now
	} else {
		c.entries[key] = &AggregatedLogEntry{
			Level:     level,
			Message:   message,
			Fields:    fields,
			Caller:    caller,
			Count:     1,
			FirstSeen: now,
			LastSeen:  now,
		}
	}
	full := c.config.CountThreshold > 0 && len(c.entries) >= c.config.CountThreshold
	c.mu.Unlock()

	if full {
		select {
		case c.flushCh <- struct{}{}:
		default:
		}
	}
}

// entryKey hashes the identity of a log line. encoding/json sorts map keys,
// so equal field sets hash equally.
func entryKey(level, message string, fields map[string]interface{}, caller string) uint64 {
	h := fnv.New64a()
	_, _ = fmt.Fprintf(h, "%s\x00%s\x00%s\x00", level, message, caller)
	if len(fields) > 0 {
		b, _ := json.Marshal(fields)
		_, _ = h.Write(b)
	}
	return h.Sum64()
}

func (c *LogCollector) run() {
	defer close(c.done)

	ticker := time.NewTicker(c.config.TimeInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.flush()
		case <-c.flushCh:
			c.flush()
		case <-c.stopCh:
			c.flush()
			return
		}
	}
}

// take swaps out the pending entries, most frequent first.
func (c *LogCollector) take() []AggregatedLogEntry {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.entries) == 0 {
		return nil
	}
	batch := make([]AggregatedLogEntry, 0, len(c.entries))
	for _, e := range c.entries {
		batch = append(batch, *e)
	}
	c.entries = make(map[uint64]*AggregatedLogEntry)

	sort.Slice(batch, func(i, j int) bool {
		if batch[i].Count != batch[j].Count {
			return batch[i].Count > batch[j].Count
		}
		return batch[i].FirstSeen.Before(batch[j].FirstSeen)
	})
	return batch
}

func (c *LogCollector) flush() {
	batch := c.take()
	if batch == nil || c.config.Publisher == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := c.config.Publisher.PublishMessage(ctx, c.config.Topic, batch); err != nil {
		// The logger cannot log its own failures.
		fmt.Fprintf(os.Stderr, "log collector: publish %d entries: %v\n", len(batch), err)
	}
}

// Close flushes what is pending and stops the collector. It is idempotent.
func (c *LogCollector) Close() {
	c.once.Do(func() { close(c.stopCh) })
	<-c.done
}
