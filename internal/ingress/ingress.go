// Package ingress implements the UDP Ingress: packet normalization,
// per-source authentication cache, and a bounded worker pool
// dispatching to the Parser/Processor. The locked AuthCache uses the
// same locked-map-with-single-owner shape as the other per-server
// state in this collector. The worker pool partitions sources by an
// FNV hash of (ip, port) onto a fixed number of workers, so packets
// from one source always land on the same worker and are processed in
// arrival order, while cross-source work spreads across workers.
package ingress

import (
	"context"
	"fmt"
	"hash/fnv"
	"log/slog"
	"net"
	"strconv"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"telemetry-collector/internal/collectorerr"
	"telemetry-collector/internal/eventmodel"
	"telemetry-collector/internal/parser"
	"telemetry-collector/internal/store"
)

const (
	maxDatagramSize = 8192
	partitionQueueSize = 256
	workerCount        = 32
	shutdownGrace      = 5 * time.Second
)

// Processor is the narrow subset of processor.Processor the Ingress
// dispatches parsed events to.
type Processor interface {
	ProcessEvent(ctx context.Context, event *eventmodel.GameEvent) error
}

type authState int

const (
	authUnknown authState = iota
	authAuthorized
	authRejected
)

type sourceKey struct {
	ip   string
	port int
}

func (k sourceKey) String() string {
	return k.ip + ":" + strconv.Itoa(k.port)
}

func (k sourceKey) partition(n int) int {
	h := fnv.New32a()
	h.Write([]byte(k.String()))
	return int(h.Sum32()) % n
}

type datagram struct {
	key     sourceKey
	payload []byte
}

// authCache maps a UDP source to its resolved server id. Mutated only
// by the Ingress.
type authCache struct {
	mu      sync.RWMutex
	entries map[sourceKey]int64
}

func newAuthCache() *authCache {
	return &authCache{entries: make(map[sourceKey]int64)}
}

func (c *authCache) get(key sourceKey) (int64, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	serverID, ok := c.entries[key]
	return serverID, ok
}

func (c *authCache) set(key sourceKey, serverID int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = serverID
}

func (c *authCache) clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[sourceKey]int64)
}

// Ingress binds a UDP socket and dispatches parsed log lines to a
// Processor, serializing packets within one source while allowing
// cross-source concurrency across a fixed partition pool.
type Ingress struct {
	conn      *net.UDPConn
	parser    *parser.Parser
	processor Processor
	store     store.Store
	logger    *slog.Logger

	skipAuth bool
	game     string

	cache *authCache

	partitions []chan datagram
	group      *errgroup.Group

	stopOnce sync.Once
	stopping chan struct{}
}

// New builds an Ingress bound to the given Store/Processor/logger.
func New(s store.Store, p Processor, logger *slog.Logger, skipAuth bool, game string) *Ingress {
	return &Ingress{
		parser:    parser.New(),
		processor: p,
		store:     s,
		logger:    logger,
		skipAuth:  skipAuth,
		game:      game,
		cache:     newAuthCache(),
		stopping:  make(chan struct{}),
	}
}

// Serve binds the UDP socket on port, starts the worker partitions,
// and reads datagrams until ctx is canceled or Stop is called.
func (in *Ingress) Serve(ctx context.Context, port int) error {
	addr := &net.UDPAddr{Port: port}
	conn, err := net.ListenUDP("udp", addr)
	if err != nil {
		return collectorerr.Transport(fmt.Sprintf("failed to bind UDP port %d", port), err)
	}
	in.conn = conn

	group, groupCtx := errgroup.WithContext(ctx)
	in.group = group

	in.partitions = make([]chan datagram, workerCount)
	for i := range in.partitions {
		queue := make(chan datagram, partitionQueueSize)
		in.partitions[i] = queue
		group.Go(func() error {
			in.runWorker(groupCtx, queue)
			return nil
		})
	}

	buf := make([]byte, maxDatagramSize)
	for {
		select {
		case <-in.stopping:
			return nil
		case <-ctx.Done():
			in.Stop()
			return nil
		default:
		}

		n, peer, readErr := conn.ReadFromUDP(buf)
		if readErr != nil {
			select {
			case <-in.stopping:
				return nil
			default:
			}
			in.logger.Warn("udp read failed", "error", collectorerr.Transport("read", readErr))
			continue
		}

		payload := make([]byte, n)
		copy(payload, buf[:n])
		in.dispatch(sourceKey{ip: peer.IP.String(), port: peer.Port}, payload)
	}
}

// dispatch routes a datagram to the partition owning its source. The
// read loop never blocks on Store or Processor work.
func (in *Ingress) dispatch(key sourceKey, payload []byte) {
	queue := in.partitions[key.partition(len(in.partitions))]
	select {
	case queue <- datagram{key: key, payload: payload}:
	default:
		in.logger.Warn("partition queue full, dropping datagram", "source", key.String())
	}
}

// runWorker processes datagrams for every source hashed to this
// partition, preserving each source's arrival order, and runs each
// one through the authentication state machine.
func (in *Ingress) runWorker(ctx context.Context, queue chan datagram) {
	for dg := range queue {
		state, serverID := in.authenticate(ctx, dg.key)

		switch state {
		case authRejected:
			continue
		case authUnknown:
			// First-seen, newly-cached source: per legacy behavior, drop
			// this first line and only process subsequent lines.
			continue
		case authAuthorized:
			in.processLine(ctx, serverID, dg.payload)
		}
	}
}

// authenticate runs the three-state authentication machine: cached
// source, skip-auth auto-registration, or a server-address lookup.
func (in *Ingress) authenticate(ctx context.Context, key sourceKey) (authState, int64) {
	if serverID, ok := in.cache.get(key); ok {
		return authAuthorized, serverID
	}

	if in.skipAuth {
		serverID, err := in.store.AutoRegisterDevServer(ctx, key.ip, key.port, in.game)
		if err != nil {
			in.logger.Warn("failed to auto-register dev server", "source", key.String(), "error", err)
			return authRejected, 0
		}
		in.cache.set(key, serverID)
		return authAuthorized, serverID
	}

	serverID, _, ok, err := in.store.GetServerByAddress(ctx, key.ip, key.port)
	if err != nil {
		in.logger.Warn("server lookup failed", "source", key.String(), "error", err)
		return authRejected, 0
	}
	if !ok {
		in.logger.Warn("rejected datagram from unknown source", "source", key.String())
		return authRejected, 0
	}

	in.cache.set(key, serverID)
	return authUnknown, serverID
}

func (in *Ingress) processLine(ctx context.Context, serverID int64, payload []byte) {
	result := in.parser.Parse(serverID, payload)
	if !result.Success {
		in.logger.Debug("dropped unparseable datagram", "reason", result.Reason, "snippet", truncate(payload, 64))
		return
	}

	if err := in.processor.ProcessEvent(ctx, result.Event); err != nil {
		in.logger.Warn("event processing failed", "type", result.Event.Type, "error", err)
	}
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}

// Stop closes the socket and drains in-flight workers with a bounded
// grace period, then clears the AuthCache.
func (in *Ingress) Stop() {
	in.stopOnce.Do(func() {
		close(in.stopping)

		if in.conn != nil {
			in.conn.Close()
		}

		for _, queue := range in.partitions {
			close(queue)
		}

		if in.group != nil {
			done := make(chan struct{})
			go func() {
				in.group.Wait()
				close(done)
			}()

			select {
			case <-done:
			case <-time.After(shutdownGrace):
				in.logger.Warn("ingress shutdown grace period elapsed with workers still draining")
			}
		}

		in.cache.clear()
	})
}
