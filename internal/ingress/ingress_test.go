package ingress

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"

	"telemetry-collector/internal/eventmodel"
	"telemetry-collector/internal/store"
)

type mockStore struct {
	store.Store
	servers    map[string]int64
	autoRegErr error
}

func newMockStore() *mockStore {
	return &mockStore{servers: make(map[string]int64)}
}

func (m *mockStore) GetServerByAddress(ctx context.Context, ip string, port int) (int64, string, bool, error) {
	id, ok := m.servers[key(ip, port)]
	return id, "cs", ok, nil
}

func (m *mockStore) AutoRegisterDevServer(ctx context.Context, ip string, port int, game string) (int64, error) {
	if m.autoRegErr != nil {
		return 0, m.autoRegErr
	}
	id := int64(len(m.servers) + 1)
	m.servers[key(ip, port)] = id
	return id, nil
}

func key(ip string, port int) string {
	return fmt.Sprintf("%s:%d", ip, port)
}

type mockProcessor struct {
	events []*eventmodel.GameEvent
}

func (m *mockProcessor) ProcessEvent(ctx context.Context, event *eventmodel.GameEvent) error {
	m.events = append(m.events, event)
	return nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestAuthenticate_SkipAuthRegistersAndCaches(t *testing.T) {
	db := newMockStore()
	in := New(db, &mockProcessor{}, testLogger(), true, "cs")

	state, serverID := in.authenticate(context.Background(), sourceKey{ip: "10.0.0.1", port: 27015})
	if state != authAuthorized {
		t.Fatalf("state = %v, want authAuthorized", state)
	}
	if serverID == 0 {
		t.Error("serverID not assigned")
	}

	state2, serverID2 := in.authenticate(context.Background(), sourceKey{ip: "10.0.0.1", port: 27015})
	if state2 != authAuthorized || serverID2 != serverID {
		t.Errorf("second lookup = (%v, %d), want cached (authAuthorized, %d)", state2, serverID2, serverID)
	}
}

func TestAuthenticate_UnknownSourceFirstLineDropped(t *testing.T) {
	db := newMockStore()
	db.servers[key("10.0.0.2", 27015)] = 7
	in := New(db, &mockProcessor{}, testLogger(), false, "cs")

	state, serverID := in.authenticate(context.Background(), sourceKey{ip: "10.0.0.2", port: 27015})
	if state != authUnknown {
		t.Fatalf("first lookup state = %v, want authUnknown", state)
	}
	if serverID != 7 {
		t.Errorf("serverID = %d, want 7", serverID)
	}

	state2, serverID2 := in.authenticate(context.Background(), sourceKey{ip: "10.0.0.2", port: 27015})
	if state2 != authAuthorized || serverID2 != 7 {
		t.Errorf("second lookup = (%v, %d), want (authAuthorized, 7)", state2, serverID2)
	}
}

func TestAuthenticate_RejectsUnregisteredSource(t *testing.T) {
	db := newMockStore()
	in := New(db, &mockProcessor{}, testLogger(), false, "cs")

	state, _ := in.authenticate(context.Background(), sourceKey{ip: "10.0.0.3", port: 27015})
	if state != authRejected {
		t.Errorf("state = %v, want authRejected", state)
	}
}

func TestAuthenticate_AutoRegisterFailureRejects(t *testing.T) {
	db := newMockStore()
	db.autoRegErr = errors.New("boom")
	in := New(db, &mockProcessor{}, testLogger(), true, "cs")

	state, _ := in.authenticate(context.Background(), sourceKey{ip: "10.0.0.4", port: 27015})
	if state != authRejected {
		t.Errorf("state = %v, want authRejected on auto-register error", state)
	}
}

func TestDispatch_SameSourceRoutesToSamePartition(t *testing.T) {
	db := newMockStore()
	in := New(db, &mockProcessor{}, testLogger(), true, "cs")
	in.partitions = make([]chan datagram, workerCount)
	for i := range in.partitions {
		in.partitions[i] = make(chan datagram, 4)
	}

	key := sourceKey{ip: "10.0.0.5", port: 27015}
	in.dispatch(key, []byte("a"))
	in.dispatch(key, []byte("b"))

	idx := key.partition(len(in.partitions))
	if len(in.partitions[idx]) != 2 {
		t.Errorf("partition %d queue depth = %d, want 2", idx, len(in.partitions[idx]))
	}
}

func TestDispatch_FullQueueDropsDatagram(t *testing.T) {
	db := newMockStore()
	in := New(db, &mockProcessor{}, testLogger(), true, "cs")
	in.partitions = make([]chan datagram, workerCount)
	for i := range in.partitions {
		in.partitions[i] = make(chan datagram, 1)
	}

	key := sourceKey{ip: "10.0.0.6", port: 27015}
	in.dispatch(key, []byte("a"))
	in.dispatch(key, []byte("b")) // should be dropped, not block

	idx := key.partition(len(in.partitions))
	if len(in.partitions[idx]) != 1 {
		t.Errorf("partition queue depth = %d, want 1 (second datagram dropped)", len(in.partitions[idx]))
	}
}

func TestProcessLine_ForwardsParsedEventToProcessor(t *testing.T) {
	db := newMockStore()
	proc := &mockProcessor{}
	in := New(db, proc, testLogger(), true, "cs")

	line := `L 01/02/2026 - 15:04:05: "alice<2><STEAM_1:0:1><CT>" connected, address "1.2.3.4:27005"`
	in.processLine(context.Background(), 1, []byte(line))

	if len(proc.events) != 1 {
		t.Fatalf("forwarded events = %d, want 1", len(proc.events))
	}
}

func TestProcessLine_UnparseableLineNotForwarded(t *testing.T) {
	db := newMockStore()
	proc := &mockProcessor{}
	in := New(db, proc, testLogger(), true, "cs")

	in.processLine(context.Background(), 1, []byte("garbage"))

	if len(proc.events) != 0 {
		t.Errorf("forwarded events = %d, want 0 for unparseable line", len(proc.events))
	}
}
