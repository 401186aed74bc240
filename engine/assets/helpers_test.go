package assets

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/require"

	"github.com/spaghettifunk/anima-assets/engine/core"
	"github.com/spaghettifunk/anima-assets/engine/systems"
)

type energyBlast struct {
	HPDamage uint32 `toml:"hp_damage" hcl:"hp_damage,optional"`
	MPDamage uint32 `toml:"mp_damage" hcl:"mp_damage,optional"`
}

var (
	energyBlastID = core.MustTypeID("a016abff-623d-48cf-a6e4-e76e069fe843")
	uiLayoutID    = core.MustTypeID("d4adfc76-f5f4-40b0-8e28-8a51a12f5e46")
)

func init() {
	core.SetLogOutput(io.Discard)
}

// manualDispatcher holds jobs until the test runs them, which makes "the job
// has not completed yet" a deterministic state.
type manualDispatcher struct {
	mu     sync.Mutex
	jobs   []systems.Job
	closed bool
}

func (d *manualDispatcher) AddWorkNonBlocking(job systems.Job) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return systems.ErrJobSystemClosed
	}
	d.jobs = append(d.jobs, job)
	return nil
}

func (d *manualDispatcher) queued() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.jobs)
}

// runAll executes every queued job on the calling goroutine.
func (d *manualDispatcher) runAll() int {
	return d.runAllWith(context.Background())
}

// runAllWith is runAll with the context a worker pool hands its jobs.
func (d *manualDispatcher) runAllWith(ctx context.Context) int {
	d.mu.Lock()
	jobs := d.jobs
	d.jobs = nil
	d.mu.Unlock()

	for _, job := range jobs {
		runJob(ctx, job)
	}
	return len(jobs)
}

// runAt executes and dequeues the i-th queued job, so tests can finish jobs
// out of submission order.
func (d *manualDispatcher) runAt(i int) {
	d.mu.Lock()
	job := d.jobs[i]
	d.jobs = append(d.jobs[:i:i], d.jobs[i+1:]...)
	d.mu.Unlock()

	runJob(context.Background(), job)
}

func runJob(ctx context.Context, job systems.Job) {
	if err := job.Run(ctx); err != nil && job.OnFailure != nil {
		job.OnFailure(err)
	}
}

type testEnv struct {
	files    fstest.MapFS
	jobs     *manualDispatcher
	events   *core.EventBus
	loader   *Loader
	blasts   *AssetStorage[energyBlast]
	registry *Registry
}

func newTestEnv(t *testing.T, kinds ...*AssetKindDescriptor) *testEnv {
	t.Helper()

	env := &testEnv{
		files: fstest.MapFS{
			"energy_blast.toml": {Data: []byte("hp_damage = 10\nmp_damage = 5\n")},
			"big_blast.toml":    {Data: []byte("hp_damage = 99\nmp_damage = 1\n")},
			"blast.hcl":         {Data: []byte("hp_damage = 7\nmp_damage = 3\n")},
			"broken.toml":       {Data: []byte("hp_damage = \"ten\"\n")},
		},
		jobs:     &manualDispatcher{},
		events:   core.NewEventBus(),
		registry: NewRegistry(),
	}
	require.NoError(t, env.registry.Register(NewSerdeAssetKind[energyBlast](energyBlastID, "EnergyBlast", ".toml", ".hcl")))
	for _, k := range kinds {
		require.NoError(t, env.registry.Register(k))
	}

	l, err := NewLoader(env.registry, NewFSResolver(env.files), env.jobs, WithEventBus(env.events))
	require.NoError(t, err)
	env.loader = l

	env.blasts, err = StorageOf[energyBlast](l, energyBlastID)
	require.NoError(t, err)
	return env
}

// settle runs all queued jobs and then one processor tick.
func (env *testEnv) settle() {
	env.jobs.runAll()
	env.loader.Update()
}

var errProcess = errors.New("process refused")
