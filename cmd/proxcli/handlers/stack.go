package handlers

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/imamik/proxcli/internal/config"
	"github.com/imamik/proxcli/internal/log"
	"github.com/imamik/proxcli/internal/metrics"
	"github.com/imamik/proxcli/internal/orchestration"
	"github.com/imamik/proxcli/internal/platform/proxmox"
	"github.com/imamik/proxcli/internal/stack"
	"github.com/imamik/proxcli/internal/store"
	"github.com/imamik/proxcli/internal/ui"
	"github.com/imamik/proxcli/internal/util/naming"
)

const pushJob = "proxcli"

// StackOptions holds the flags shared by the stack commands.
type StackOptions struct {
	ConfigPath   string
	DefaultsPath string
	Output       string
	AutoApprove  bool
	Pushgateway  string
}

func (o StackOptions) paths() (string, string) {
	cfgPath, defaultsPath := o.ConfigPath, o.DefaultsPath
	if cfgPath == "" {
		cfgPath = config.DefaultConfigFilename
	}
	if defaultsPath == "" {
		defaultsPath = config.DefaultDefaultsFilename
	}
	return cfgPath, defaultsPath
}

// desiredStack loads the configured stack. When allowMissing is set an
// unknown stack yields nil instead of an error.
func desiredStack(name string, opts StackOptions, allowMissing bool) (*config.Stack, error) {
	cfg, err := loadStackConfig(opts.paths())
	if err != nil {
		return nil, err
	}
	s, err := cfg.Stack(name)
	if err != nil {
		var unknown *config.UnknownStackError
		if allowMissing && errors.As(err, &unknown) {
			return nil, nil
		}
		return nil, err
	}
	return s, nil
}

// session bundles what a reconciling command needs.
type session struct {
	client  proxmox.ClusterClient
	store   *store.Store
	rec     *orchestration.Reconciler
	metrics *metrics.Recorder
}

func newSession(ctx context.Context, component, name string) (*session, error) {
	st, err := openStore(ctx, log.WithComponent("store"))
	if err != nil {
		return nil, err
	}
	client, err := clusterClient()
	if err != nil {
		return nil, err
	}
	m := metrics.NewRecorder()
	rec := orchestration.NewReconciler(client, st,
		orchestration.WithLogger(log.WithStack(component, name)),
		orchestration.WithMetrics(m),
	)
	return &session{client: client, store: st, rec: rec, metrics: m}, nil
}

// pushMetrics sends the run's metrics to a Pushgateway if one is configured.
// Failures are logged, never returned.
func (s *session) pushMetrics(ctx context.Context, url string) {
	if url == "" {
		url = os.Getenv(metrics.PushgatewayEnv)
	}
	if url == "" {
		return
	}
	if err := s.metrics.Push(ctx, url, pushJob); err != nil {
		log.Logger.Warn().Err(err).Str("url", url).Msg("Failed to push metrics")
	}
}

// StackPlan computes and stores the plan of a stack, then prints it.
func StackPlan(ctx context.Context, name string, opts StackOptions) error {
	format, err := ui.ParseFormat(opts.Output)
	if err != nil {
		return err
	}
	desired, err := desiredStack(name, opts, false)
	if err != nil {
		return err
	}
	s, err := newSession(ctx, "plan", name)
	if err != nil {
		return err
	}
	plan, err := s.rec.Plan(ctx, name, desired)
	if err != nil {
		return err
	}
	return showPlan(ctx, s.client, name, plan, desired, format)
}

// StackShow prints the pending plan of a stack.
func StackShow(ctx context.Context, name string, opts StackOptions) error {
	format, err := ui.ParseFormat(opts.Output)
	if err != nil {
		return err
	}
	st, err := openStore(ctx, log.WithComponent("store"))
	if err != nil {
		return err
	}
	plan, ok, err := st.LoadPlan(ctx, name)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("stack %s: %w", name, orchestration.ErrNoPlan)
	}
	if format != ui.FormatText {
		return ui.Encode(stdout, format, plan)
	}

	desired, err := desiredStack(name, opts, true)
	if err != nil {
		return err
	}
	client, err := clusterClient()
	if err != nil {
		return err
	}
	return showPlan(ctx, client, name, plan, desired, format)
}

func showPlan(ctx context.Context, client proxmox.ClusterClient, name string, plan *stack.Plan, desired *config.Stack, format ui.Format) error {
	if format != ui.FormatText {
		return ui.Encode(stdout, format, plan)
	}
	view := ui.PlanView{Stack: name, Plan: plan, Desired: desired, GroupResources: map[string][]string{}}
	for _, group := range plan.HaGroups.Removed {
		resources, err := client.ListHaResources(ctx, naming.HaGroup(name, group))
		if err != nil {
			return fmt.Errorf("failed to list ha resources of %s: %w", group, err)
		}
		for _, res := range resources {
			view.GroupResources[group] = append(view.GroupResources[group], res.Name)
		}
	}
	printer().Plan(view)
	return nil
}

// StackApply applies the stored plan of a stack after confirmation.
func StackApply(ctx context.Context, name string, opts StackOptions) error {
	desired, err := desiredStack(name, opts, false)
	if err != nil {
		return err
	}
	s, err := newSession(ctx, "apply", name)
	if err != nil {
		return err
	}

	plan, ok, err := s.store.LoadPlan(ctx, name)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("stack %s: %w", name, orchestration.ErrNoPlan)
	}
	if !opts.AutoApprove {
		if err := showPlan(ctx, s.client, name, plan, desired, ui.FormatText); err != nil {
			return err
		}
	}
	ok, err = approve(ctx, opts.AutoApprove, fmt.Sprintf("Apply plan of stack %s?", name), plan.Summary())
	if err != nil {
		return err
	}
	if !ok {
		printer().Warn("Apply cancelled")
		return nil
	}

	result, err := s.rec.Apply(ctx, name, desired)
	if result != nil {
		printer().Result(result)
		s.pushMetrics(ctx, opts.Pushgateway)
	}
	return err
}

// StackDestroy removes every entity of a stack after confirmation.
// A stack missing from the document is destroyed from its recorded state.
func StackDestroy(ctx context.Context, name string, opts StackOptions) error {
	desired, err := desiredStack(name, opts, true)
	if err != nil {
		return err
	}
	s, err := newSession(ctx, "destroy", name)
	if err != nil {
		return err
	}
	if desired == nil {
		state, err := s.store.LoadState(ctx, name)
		if err != nil {
			return err
		}
		if state.IsEmpty() {
			return fmt.Errorf("stack %s: %w", name, orchestration.ErrUnknownStack)
		}
	}

	ok, err := approve(ctx, opts.AutoApprove,
		fmt.Sprintf("Destroy stack %s?", name),
		"Every VM and HA group of the stack is deleted. This cannot be undone.")
	if err != nil {
		return err
	}
	if !ok {
		printer().Warn("Destroy cancelled")
		return nil
	}

	result, err := s.rec.Destroy(ctx, name, desired)
	if result != nil {
		printer().Result(result)
		s.pushMetrics(ctx, opts.Pushgateway)
	}
	return err
}

// StackList prints the stacks that have recorded state or a pending plan.
func StackList(ctx context.Context, output string) error {
	format, err := ui.ParseFormat(output)
	if err != nil {
		return err
	}
	st, err := openStore(ctx, log.WithComponent("store"))
	if err != nil {
		return err
	}
	stacks, err := st.ListStacks(ctx)
	if err != nil {
		return err
	}
	if format != ui.FormatText {
		return ui.Encode(stdout, format, stacks)
	}

	rows := make([][]string, 0, len(stacks))
	for _, info := range stacks {
		rows = append(rows, []string{info.Name, yesNo(info.HasState), yesNo(info.HasPlan)})
	}
	printer().Table([]string{"STACK", "STATE", "PENDING PLAN"}, rows)
	return nil
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
