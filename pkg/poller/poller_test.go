package poller

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/unet-io/unet/pkg/derived"
	"github.com/unet-io/unet/pkg/snmp"
)

// fakeClient stubs the SNMP wire exchange so scheduling logic can be
// tested without a live UDP session.
type fakeClient struct {
	mu        sync.Mutex
	getErr    error
	getCalls  int
	getValues map[string]snmp.Value
	walkErr   error
	walked    []snmp.OidValue
}

func (f *fakeClient) Get(ctx context.Context, cfg snmp.SessionConfig, oids []string) (map[string]snmp.Value, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.getCalls++
	if f.getErr != nil {
		return nil, f.getErr
	}
	return f.getValues, nil
}

func (f *fakeClient) Walk(ctx context.Context, cfg snmp.SessionConfig, startOid string) ([]snmp.OidValue, error) {
	if f.walkErr != nil {
		return nil, f.walkErr
	}
	return f.walked, nil
}

// fakeStore records what the poller persists.
type fakeStore struct {
	mu          sync.Mutex
	systemInfo  map[uuid.UUID]*derived.SystemInfo
	ifMetrics   map[uuid.UUID][]derived.InterfaceMetrics
	reachable   map[uuid.UUID]bool
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		systemInfo: map[uuid.UUID]*derived.SystemInfo{},
		ifMetrics:  map[uuid.UUID][]derived.InterfaceMetrics{},
		reachable:  map[uuid.UUID]bool{},
	}
}

func (s *fakeStore) PutSystemInfo(ctx context.Context, nodeID uuid.UUID, info *derived.SystemInfo) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.systemInfo[nodeID] = info
	return nil
}

func (s *fakeStore) PutInterfaceMetrics(ctx context.Context, nodeID uuid.UUID, metrics []derived.InterfaceMetrics) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ifMetrics[nodeID] = metrics
	return nil
}

func (s *fakeStore) PutNodeStatus(ctx context.Context, nodeID uuid.UUID, reachable bool, checkedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reachable[nodeID] = reachable
	return nil
}

func testSession(address string) snmp.SessionConfig {
	return snmp.DefaultSessionConfig(address, "public")
}

func TestRunSingleIterationPollsDueSystemTask(t *testing.T) {
	nodeID := uuid.New()
	client := &fakeClient{getValues: map[string]snmp.Value{
		snmp.SysName.OID(): {Kind: snmp.KindString, Str: "core-1"},
	}}
	store := newFakeStore()
	p := New(client, store, DefaultConfig())

	task := NewSystemTask(nodeID, "10.0.0.1", testSession, time.Minute)
	task.NextDue = time.Now().Add(-time.Second)
	p.AddTask(task)

	p.RunSingleIteration(context.Background())

	require.Equal(t, 1, client.getCalls)
	require.Equal(t, "core-1", store.systemInfo[nodeID].SysName)
	require.True(t, store.reachable[nodeID])
}

func TestRunSingleIterationSkipsNotYetDueTask(t *testing.T) {
	nodeID := uuid.New()
	client := &fakeClient{}
	store := newFakeStore()
	p := New(client, store, DefaultConfig())

	task := NewSystemTask(nodeID, "10.0.0.1", testSession, time.Hour)
	task.NextDue = time.Now().Add(time.Hour)
	p.AddTask(task)
	p.drainControl()

	p.mu.Lock()
	live := p.tasks[task.ID]
	p.mu.Unlock()
	require.NotNil(t, live)

	due := p.dueTasks()
	require.Empty(t, due)
}

func TestPollFailureIncrementsFailuresAndBacksOff(t *testing.T) {
	nodeID := uuid.New()
	client := &fakeClient{getErr: assertableError{}}
	store := newFakeStore()
	cfg := DefaultConfig()
	cfg.MaxRetries = 2
	p := New(client, store, cfg)

	task := NewSystemTask(nodeID, "10.0.0.1", testSession, time.Minute)
	task.NextDue = time.Now().Add(-time.Second)
	p.AddTask(task)

	before := time.Now()
	p.RunSingleIteration(context.Background())

	p.mu.Lock()
	live := p.tasks[task.ID]
	p.mu.Unlock()

	require.Equal(t, 1, live.ConsecutiveFailures)
	require.False(t, store.reachable[nodeID])
	require.True(t, live.NextDue.After(before.Add(task.Interval-time.Second)))
}

type assertableError struct{}

func (assertableError) Error() string { return "simulated snmp failure" }

func TestHealthCheckPrunesDisabledUnhealthyTasks(t *testing.T) {
	nodeID := uuid.New()
	client := &fakeClient{}
	store := newFakeStore()
	cfg := DefaultConfig()
	cfg.MaxRetries = 1
	p := New(client, store, cfg)

	task := NewSystemTask(nodeID, "10.0.0.1", testSession, time.Minute)
	p.AddTask(task)
	p.drainControl()

	p.mu.Lock()
	live := p.tasks[task.ID]
	live.ConsecutiveFailures = 1
	live.Enabled = false
	p.mu.Unlock()

	p.RunHealthCheckOnce()

	p.mu.Lock()
	_, exists := p.tasks[task.ID]
	p.mu.Unlock()
	require.False(t, exists, "disabled unhealthy task should have been pruned")
}

func TestHealthCheckKeepsEnabledUnhealthyTasks(t *testing.T) {
	nodeID := uuid.New()
	client := &fakeClient{}
	store := newFakeStore()
	cfg := DefaultConfig()
	cfg.MaxRetries = 1
	p := New(client, store, cfg)

	task := NewSystemTask(nodeID, "10.0.0.1", testSession, time.Minute)
	p.AddTask(task)
	p.drainControl()

	p.mu.Lock()
	live := p.tasks[task.ID]
	live.ConsecutiveFailures = 1
	p.mu.Unlock()

	p.RunHealthCheckOnce()

	p.mu.Lock()
	_, exists := p.tasks[task.ID]
	p.mu.Unlock()
	require.True(t, exists, "enabled unhealthy task should be retained for diagnosis")
}

func TestDisableTaskStopsItFromBeingDue(t *testing.T) {
	nodeID := uuid.New()
	client := &fakeClient{}
	store := newFakeStore()
	p := New(client, store, DefaultConfig())

	task := NewSystemTask(nodeID, "10.0.0.1", testSession, time.Minute)
	task.NextDue = time.Now().Add(-time.Second)
	id := p.AddTask(task)
	p.drainControl()

	p.DisableTask(id)
	p.drainControl()

	require.Empty(t, p.dueTasks())
}

func TestRemoveTaskDeletesIt(t *testing.T) {
	nodeID := uuid.New()
	client := &fakeClient{}
	store := newFakeStore()
	p := New(client, store, DefaultConfig())

	task := NewSystemTask(nodeID, "10.0.0.1", testSession, time.Minute)
	id := p.AddTask(task)
	p.drainControl()

	p.RemoveTask(id)
	p.drainControl()

	p.mu.Lock()
	_, exists := p.tasks[id]
	p.mu.Unlock()
	require.False(t, exists)
}

func TestInterfaceWalkPersistsMetricsPerIndex(t *testing.T) {
	nodeID := uuid.New()
	client := &fakeClient{walked: []snmp.OidValue{
		{Oid: snmp.IfInOctets.OID() + ".1", Value: snmp.Value{Kind: snmp.KindCounter32, Uint: 100}},
		{Oid: snmp.IfOutOctets.OID() + ".1", Value: snmp.Value{Kind: snmp.KindCounter32, Uint: 200}},
		{Oid: snmp.IfInOctets.OID() + ".2", Value: snmp.Value{Kind: snmp.KindCounter32, Uint: 50}},
	}}
	store := newFakeStore()
	p := New(client, store, DefaultConfig())

	task := NewInterfaceTask(nodeID, "10.0.0.1", testSession, time.Minute)
	task.NextDue = time.Now().Add(-time.Second)
	p.AddTask(task)

	p.RunSingleIteration(context.Background())

	metrics := store.ifMetrics[nodeID]
	require.Len(t, metrics, 2)
	byIndex := map[int]derived.InterfaceMetrics{}
	for _, m := range metrics {
		byIndex[m.IfIndex] = m
	}
	require.Equal(t, uint64(100), byIndex[1].IfInOctets)
	require.Equal(t, uint64(200), byIndex[1].IfOutOctets)
	require.Equal(t, uint64(50), byIndex[2].IfInOctets)
}

func TestBackoffScalesWithFailureCount(t *testing.T) {
	base := time.Minute
	require.Equal(t, base, backoff(base, 2.0, 0))
	require.Equal(t, 2*base, backoff(base, 2.0, 1))
	require.Equal(t, 4*base, backoff(base, 2.0, 2))
}
