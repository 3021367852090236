package monitor

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/Aashish019/Client-Link-Monitor/internal/domain"
	"github.com/Aashish019/Client-Link-Monitor/internal/notify"
	"github.com/Aashish019/Client-Link-Monitor/internal/probe"
	"github.com/Aashish019/Client-Link-Monitor/internal/repo"
)

// Broadcaster pushes the current snapshot to connected observers.
type Broadcaster interface {
	Broadcast()
}

// SystemSampler reads host metrics.
type SystemSampler interface {
	Sample(ctx context.Context) (domain.SystemSnapshot, error)
}

// taskTimeout bounds supervised side-effect tasks (history appends,
// alert deliveries) so a hung store or webhook cannot pile up
// goroutines forever.
const taskTimeout = 15 * time.Second

type Options struct {
	ProbeInterval  time.Duration
	SystemInterval time.Duration
	ProbeTimeout   time.Duration
	Concurrency    int
}

// Monitor owns both scheduling loops: the slow probe round over every
// registered target and the fast host-metrics tick. It is the only
// writer of State's target rows and system snapshot.
type Monitor struct {
	log      *zap.Logger
	targets  repo.TargetStore
	history  repo.HistoryStore
	checker  probe.Checker
	notifier notify.Notifier
	sampler  SystemSampler
	state    *State
	hub      Broadcaster
	opts     Options

	// roundMu serializes probe rounds; a manual refresh landing while
	// the periodic round is in flight waits instead of interleaving.
	roundMu sync.Mutex
	kick    chan struct{}
	tasks   sync.WaitGroup

	// dnsDiag is swappable for tests.
	dnsDiag func(string) probe.DNSDiagnosis
}

func New(
	log *zap.Logger,
	targets repo.TargetStore,
	history repo.HistoryStore,
	checker probe.Checker,
	notifier notify.Notifier,
	sampler SystemSampler,
	state *State,
	hub Broadcaster,
	opts Options,
) *Monitor {
	if opts.ProbeInterval <= 0 {
		opts.ProbeInterval = 3 * time.Minute
	}
	if opts.SystemInterval <= 0 {
		opts.SystemInterval = time.Second
	}
	if opts.ProbeTimeout <= 0 {
		opts.ProbeTimeout = 10 * time.Second
	}
	if opts.Concurrency < 1 {
		opts.Concurrency = 1
	}
	return &Monitor{
		log:      log,
		targets:  targets,
		history:  history,
		checker:  checker,
		notifier: notifier,
		sampler:  sampler,
		state:    state,
		hub:      hub,
		opts:     opts,
		kick:     make(chan struct{}, 1),
		dnsDiag:  probe.DiagnoseDNS,
	}
}

// Start launches both loops. They exit when ctx is cancelled; call
// Wait afterwards to drain in-flight side-effect tasks.
func (m *Monitor) Start(ctx context.Context) {
	m.tasks.Add(2)
	go func() {
		defer m.tasks.Done()
		m.runProbeLoop(ctx)
	}()
	go func() {
		defer m.tasks.Done()
		m.runSystemLoop(ctx)
	}()
}

// Wait blocks until the loops and every supervised task have finished.
func (m *Monitor) Wait() { m.tasks.Wait() }

// KickRound schedules an out-of-band probe round without blocking the
// caller. Kicks arriving while one is already pending coalesce.
func (m *Monitor) KickRound() {
	select {
	case m.kick <- struct{}{}:
	default:
	}
}

func (m *Monitor) runProbeLoop(ctx context.Context) {
	t := time.NewTicker(m.opts.ProbeInterval)
	defer t.Stop()

	// immediate pass
	if err := m.RunProbeRound(ctx); err != nil {
		m.log.Warn("probe_round_error", zap.Error(err))
	}

	for {
		select {
		case <-ctx.Done():
			m.log.Info("probe_loop_stopped")
			return
		case <-t.C:
		case <-m.kick:
		}
		if err := m.RunProbeRound(ctx); err != nil {
			m.log.Warn("probe_round_error", zap.Error(err))
		}
	}
}

// RunProbeRound probes every registered target once, merges uptime
// stats, and publishes the combined list. The publish is all or
// nothing: any registry or history read failure aborts the round and
// the previous snapshot stays visible.
func (m *Monitor) RunProbeRound(ctx context.Context) error {
	m.roundMu.Lock()
	defer m.roundMu.Unlock()

	targets, err := m.targets.List(ctx)
	if err != nil {
		return fmt.Errorf("list targets: %w", err)
	}

	results := make([]domain.ProbeResult, len(targets))
	sem := make(chan struct{}, m.opts.Concurrency)
	var wg sync.WaitGroup

	for i, tgt := range targets {
		i, tgt := i, tgt
		sem <- struct{}{}
		wg.Add(1)
		go func() {
			defer func() { <-sem }()
			defer wg.Done()
			results[i] = m.probeOne(ctx, tgt)
		}()
	}
	wg.Wait()

	for i := range results {
		stats, err := m.history.UptimeStats(ctx, results[i].Name)
		if err != nil {
			return fmt.Errorf("uptime stats for %q: %w", results[i].Name, err)
		}
		results[i].Uptime = stats
	}

	// Down targets surface first; ties keep registry order.
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Status == domain.StatusDown && results[j].Status != domain.StatusDown
	})

	m.state.ReplaceTargets(results)
	m.hub.Broadcast()
	m.log.Info("round_complete", zap.Int("targets", len(results)))
	return nil
}

// probeOne checks a single target and hands its side effects (history
// append, down-edge alert) to supervised tasks so the round never
// blocks on a slow store or webhook.
func (m *Monitor) probeOne(ctx context.Context, tgt domain.Target) domain.ProbeResult {
	// Probes run to their own timeout. The caller's context must not
	// propagate cancellation here: a disconnected refresh request or a
	// shutdown signal landing mid-round would otherwise fail every
	// in-flight probe, classify healthy targets down, and fire phantom
	// down-edge alerts.
	cctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), m.opts.ProbeTimeout)
	defer cancel()

	out := m.checker.Check(cctx, tgt.URL)

	status := domain.StatusDown
	if out.Up {
		status = domain.StatusUp
	}
	res := domain.ProbeResult{
		Name:       tgt.Name,
		URL:        tgt.URL,
		Status:     status,
		StatusCode: out.StatusCode,
		Error:      out.Err,
		LatencyMS:  out.LatencyMS,
	}

	rec := &domain.CheckRecord{Name: tgt.Name, Status: status, CheckedAt: time.Now().UTC()}
	m.spawn("history_append", func(ctx context.Context) error {
		return m.history.Append(ctx, rec)
	})

	if m.state.Transition(tgt.Name, status) {
		detail := out.Err
		if detail == "" {
			detail = fmt.Sprintf("HTTP %d", out.StatusCode)
		}
		m.fireAlert(res, detail, out.StatusCode == 0)
	}

	m.log.Debug("probe_checked",
		zap.String("name", tgt.Name),
		zap.String("url", tgt.URL),
		zap.String("status", string(status)),
		zap.Int("status_code", out.StatusCode),
		zap.Float64("latency_ms", out.LatencyMS),
	)
	return res
}

// fireAlert delivers a down alert off the probe path. transport means
// the probe never got a response, which warrants a DNS diagnosis in
// the log.
func (m *Monitor) fireAlert(res domain.ProbeResult, detail string, transport bool) {
	m.log.Warn("target_down",
		zap.String("name", res.Name),
		zap.String("url", res.URL),
		zap.String("detail", detail),
	)
	m.spawn("alert", func(ctx context.Context) error {
		if transport && m.dnsDiag != nil {
			d := m.dnsDiag(res.URL)
			m.log.Info("dns_diagnosis",
				zap.String("name", res.Name),
				zap.String("host", d.Host),
				zap.String("class", d.Class),
			)
		}
		return m.notifier.Notify(ctx, notify.Alert{Name: res.Name, URL: res.URL, Detail: detail})
	})
}

// TriggerAlert fires the alert pipeline for one target on demand,
// regardless of its current status. The reason lands in the webhook
// payload's detail field.
func (m *Monitor) TriggerAlert(ctx context.Context, name, reason string) error {
	tgt, err := m.targets.Get(ctx, name)
	if err != nil {
		return err
	}
	m.log.Info("manual_alert",
		zap.String("name", tgt.Name),
		zap.String("reason", reason),
	)
	m.spawn("manual_alert", func(ctx context.Context) error {
		return m.notifier.Notify(ctx, notify.Alert{Name: tgt.Name, URL: tgt.URL, Detail: reason})
	})
	return nil
}

// ForgetTarget removes a deleted target from the live view at once,
// without waiting for the next round.
func (m *Monitor) ForgetTarget(name string) {
	m.state.DropTarget(name)
	m.hub.Broadcast()
}

func (m *Monitor) runSystemLoop(ctx context.Context) {
	t := time.NewTicker(m.opts.SystemInterval)
	defer t.Stop()

	m.sampleSystem(ctx)

	for {
		select {
		case <-ctx.Done():
			m.log.Info("system_loop_stopped")
			return
		case <-t.C:
			m.sampleSystem(ctx)
		}
	}
}

// sampleSystem replaces the system snapshot and broadcasts. A failed
// sample is logged and skipped; the previous snapshot stays visible
// until the next tick.
func (m *Monitor) sampleSystem(ctx context.Context) {
	snap, err := m.sampler.Sample(ctx)
	if err != nil {
		m.log.Warn("system_sample_error", zap.Error(err))
		return
	}
	m.state.SetSystem(snap)
	m.hub.Broadcast()
}

// spawn runs a short side-effect task in a supervised goroutine with
// its own timeout, detached from the probe context so a cancelled
// round still records its results. Failures surface in the log.
func (m *Monitor) spawn(name string, fn func(ctx context.Context) error) {
	m.tasks.Add(1)
	go func() {
		defer m.tasks.Done()
		ctx, cancel := context.WithTimeout(context.Background(), taskTimeout)
		defer cancel()
		if err := fn(ctx); err != nil {
			m.log.Warn("task_error", zap.String("task", name), zap.Error(err))
		}
	}()
}
