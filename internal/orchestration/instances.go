package orchestration

import (
	"context"
	"errors"
	"fmt"

	"github.com/imamik/proxcli/internal/config"
	"github.com/imamik/proxcli/internal/platform/proxmox"
	"github.com/imamik/proxcli/internal/stack"
	"github.com/imamik/proxcli/internal/util/naming"
	"github.com/imamik/proxcli/internal/util/retry"
	"github.com/imamik/proxcli/internal/util/tags"
)

var errCloneNotVisible = errors.New("cloned vm is not visible yet")

// immutableProperties cannot be changed on an existing VM.
var immutableProperties = []string{"clone", "full_clone", "disk_storage", "target", "disk_device"}

func (a *applier) removeInstances(ctx context.Context) {
	for _, name := range a.plan.Instances.Removed {
		a.do(ctx, KindInstance, name, ActionRemove, func(ctx context.Context) (bool, error) {
			return a.removeInstance(ctx, name)
		})
	}
}

func (a *applier) removeInstance(ctx context.Context, name string) (bool, error) {
	c := a.r.client
	remote := naming.Instance(a.stack, name)
	log := a.logger.With().Str("instance", remote).Logger()

	vm, found, err := c.GetVMByName(ctx, remote)
	if err != nil {
		return false, entityError("look up vm", err)
	}
	if !found {
		log.Warn().Msg("VM instance does not exist, skipping")
		return true, nil
	}

	if err := a.stop(ctx, vm); err != nil {
		return false, err
	}
	if err := c.DeleteHaResource(ctx, vm.ID); err != nil && !proxmox.IsNotFound(err) {
		log.Warn().Err(err).Msg("Failed to remove HA resource")
	}
	log.Info().Int("vmid", vm.ID).Msg("Removing VM instance")
	if err := c.DeleteVM(ctx, vm.ID, true); err != nil {
		return false, entityError("delete vm", err)
	}
	return false, nil
}

func (a *applier) addInstances(ctx context.Context) {
	for _, name := range a.plan.Instances.Added {
		a.do(ctx, KindInstance, name, ActionAdd, func(ctx context.Context) (bool, error) {
			return false, a.addInstance(ctx, name)
		})
	}
}

// addInstance clones the VM unless it already exists and then always
// configures it, so an interrupted creation is finished by the next apply.
func (a *applier) addInstance(ctx context.Context, name string) error {
	spec, ok := a.desired.Instances.Get(name)
	if !ok {
		return fmt.Errorf("instance %s is not part of the desired state", name)
	}
	c := a.r.client
	remote := naming.Instance(a.stack, name)
	log := a.logger.With().Str("instance", remote).Logger()

	props, err := a.r.properties(spec)
	if err != nil {
		return err
	}

	var vmid int
	vm, found, err := c.GetVMByName(ctx, remote)
	switch {
	case err != nil:
		return entityError("look up vm", err)
	case found:
		log.Info().Int("vmid", vm.ID).Msg("VM instance already exists, skipping clone")
		vmid = vm.ID
	default:
		opts := proxmox.CloneOptions{
			SourceID:    spec.Clone,
			Name:        remote,
			Description: naming.ManagedComment(a.stack),
			Full:        spec.FullClone,
			Target:      spec.Target,
		}
		if spec.FullClone {
			opts.Storage = spec.DiskStorage
		}
		log.Info().Int("template", spec.Clone).Bool("full", spec.FullClone).Msg("Cloning VM instance")
		if _, err := c.CloneVM(ctx, opts); err != nil {
			return entityError("clone", err)
		}
		if vmid, err = a.resolveVM(ctx, remote); err != nil {
			return entityError("resolve clone", err)
		}
	}

	if !props.IsZero() {
		log.Info().Int("vmid", vmid).Msg("Applying VM settings")
		if err := c.SetVMProperties(ctx, vmid, props); err != nil {
			return entityError("apply settings", err)
		}
	}
	if spec.DiskSize != "" {
		log.Info().Str("size", spec.DiskSize).Msg("Resizing boot disk")
		if err := c.ResizeDisk(ctx, vmid, spec.DiskDevice, spec.DiskSize); err != nil {
			return entityError("resize disk", err)
		}
	}
	if err := c.SetTags(ctx, vmid, spec.Tags, proxmox.TagsReplace); err != nil {
		return entityError("set tags", err)
	}
	if spec.HaGroup != "" {
		if err := a.bind(ctx, vmid, spec.HaGroup); err != nil {
			return entityError("bind ha group", err)
		}
	}
	return nil
}

// resolveVM waits until a freshly cloned VM shows up in the cluster listing.
func (a *applier) resolveVM(ctx context.Context, remote string) (int, error) {
	var vmid int
	err := retry.WithExponentialBackoff(ctx, func() error {
		vm, found, err := a.r.client.GetVMByName(ctx, remote)
		if err != nil {
			return retry.Fatal(err)
		}
		if !found {
			return errCloneNotVisible
		}
		vmid = vm.ID
		return nil
	},
		retry.WithMaxRetries(a.r.timeouts.RetryMaxAttempts),
		retry.WithInitialDelay(a.r.timeouts.RetryInitialDelay),
	)
	return vmid, err
}

func (a *applier) updateInstances(ctx context.Context) {
	for name, update := range a.plan.Instances.Updated.All() {
		a.do(ctx, KindInstance, name, ActionUpdate, func(ctx context.Context) (bool, error) {
			return false, a.updateInstance(ctx, name, update)
		})
	}
}

func (a *applier) updateInstance(ctx context.Context, name string, update stack.InstanceUpdate) error {
	spec, ok := a.desired.Instances.Get(name)
	if !ok {
		return fmt.Errorf("instance %s is not part of the desired state", name)
	}
	c := a.r.client
	remote := naming.Instance(a.stack, name)
	log := a.logger.With().Str("instance", remote).Logger()
	changed := update.Properties.Has

	for _, prop := range immutableProperties {
		if changed(prop) {
			log.Warn().Str("property", prop).Msg("Property cannot be changed on an existing VM, recreate the instance to apply it")
		}
	}

	props, err := a.r.changedProperties(spec, update.Properties)
	if err != nil {
		return err
	}

	vm, found, err := c.GetVMByName(ctx, remote)
	if err != nil {
		return entityError("look up vm", err)
	}
	if !found {
		return &proxmox.NotFoundError{Kind: "vm", Name: remote}
	}

	if err := a.stop(ctx, vm); err != nil {
		return err
	}

	if !update.Tags.IsEmpty() {
		// The live tag set is authoritative; tags added outside proxcli survive.
		newTags := tags.Apply(vm.Tags, update.Tags.Added, update.Tags.Removed)
		log.Info().Strs("tags", newTags).Msg("Updating tags")
		if err := c.SetTags(ctx, vm.ID, newTags, proxmox.TagsReplace); err != nil {
			return entityError("set tags", err)
		}
	}

	if !props.IsZero() {
		log.Info().Strs("properties", update.Properties.Keys()).Msg("Applying VM settings")
		if err := c.SetVMProperties(ctx, vm.ID, props); err != nil {
			return entityError("apply settings", err)
		}
	}

	if changed("ha_group") {
		if spec.HaGroup == "" {
			log.Info().Msg("Removing VM from HA")
			if err := c.DeleteHaResource(ctx, vm.ID); err != nil && !proxmox.IsNotFound(err) {
				return entityError("unbind ha group", err)
			}
		} else if err := a.bind(ctx, vm.ID, spec.HaGroup); err != nil {
			return entityError("bind ha group", err)
		}
	}

	if changed("disk_size") && spec.DiskSize != "" {
		log.Info().Str("size", spec.DiskSize).Msg("Resizing boot disk")
		if err := c.ResizeDisk(ctx, vm.ID, spec.DiskDevice, spec.DiskSize); err != nil {
			return entityError("resize disk", err)
		}
	}

	log.Info().Msg("Starting VM instance")
	if err := c.SetVMStatus(ctx, vm.ID, proxmox.ActionStart); err != nil {
		return entityError("start", err)
	}
	return nil
}

// stop powers a VM off and waits until it reports stopped.
func (a *applier) stop(ctx context.Context, vm *proxmox.VM) error {
	if vm.Status == proxmox.StatusStopped {
		return nil
	}
	a.logger.Info().Str("instance", vm.Name).Msg("Stopping VM instance")
	if err := a.r.client.SetVMStatus(ctx, vm.ID, proxmox.ActionStop); err != nil {
		return entityError("stop", err)
	}
	if err := a.r.client.WaitForStatus(ctx, vm.ID, proxmox.StatusStopped); err != nil {
		return entityError("wait for stopped", err)
	}
	return nil
}

// bind creates or updates the HA resource of vmid in the stack group,
// carrying the group's restart and relocate limits.
func (a *applier) bind(ctx context.Context, vmid int, group string) error {
	g, ok := a.desired.HaGroups.Get(group)
	if !ok {
		return fmt.Errorf("ha group %s is not part of the desired state", group)
	}
	res := proxmox.HaResource{
		VMID:        vmid,
		Group:       naming.HaGroup(a.stack, group),
		MaxRestart:  g.MaxRestart,
		MaxRelocate: g.MaxRelocate,
	}

	existing, err := a.r.client.ListHaResources(ctx, "")
	if err != nil {
		return err
	}
	for _, e := range existing {
		if e.VMID == vmid {
			a.logger.Info().Str("sid", e.SID).Str("ha_group", res.Group).Msg("Moving HA resource")
			return a.r.client.UpdateHaResource(ctx, res)
		}
	}
	a.logger.Info().Int("vmid", vmid).Str("ha_group", res.Group).Msg("Adding VM to HA group")
	return a.r.client.CreateHaResource(ctx, res)
}

// properties returns the settings of a new instance. The password and user
// are cloud-init settings.
func (r *Reconciler) properties(spec config.InstanceSpec) (proxmox.VMProperties, error) {
	props := proxmox.VMProperties{
		Cores:      spec.Cores,
		Memory:     spec.Memory,
		IPConfig:   spec.IPConfig,
		CIPassword: spec.Password,
		CIUser:     spec.User,
	}
	if spec.SSHKey != "" {
		key, err := r.sshKey(spec.SSHKey)
		if err != nil {
			return props, err
		}
		props.SSHKeys = key
	}
	return props, nil
}

// changedProperties returns the settings for the properties in changes.
func (r *Reconciler) changedProperties(spec config.InstanceSpec, changes stack.PropertyChanges) (proxmox.VMProperties, error) {
	var props proxmox.VMProperties
	if changes.Has("cores") {
		props.Cores = spec.Cores
	}
	if changes.Has("memory") {
		props.Memory = spec.Memory
	}
	if changes.Has("ipconfig") {
		props.IPConfig = spec.IPConfig
	}
	if changes.Has("password") {
		props.CIPassword = spec.Password
	}
	if changes.Has("user") {
		props.CIUser = spec.User
	}
	if changes.Has("sshkey") && spec.SSHKey != "" {
		key, err := r.sshKey(spec.SSHKey)
		if err != nil {
			return props, err
		}
		props.SSHKeys = key
	}
	return props, nil
}
