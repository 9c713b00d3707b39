package orchestration_test

import (
	"context"
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/imamik/proxcli/internal/config"
	"github.com/imamik/proxcli/internal/orchestration"
	"github.com/imamik/proxcli/internal/platform/proxmox"
	"github.com/imamik/proxcli/internal/store"
	testutil "github.com/imamik/proxcli/internal/testing"
)

var _ = Describe("Reconciler", func() {
	var (
		ctx     context.Context
		cluster *testutil.FakeCluster
		st      *store.Store
		rec     *orchestration.Reconciler
	)

	BeforeEach(func() {
		ctx = context.Background()
		cluster = testutil.NewFakeCluster().WithTemplate(9000, "debian-12", "template")
		st = store.New(store.NewFileBackend(GinkgoT().TempDir()))
		rec = orchestration.NewReconciler(cluster, st, orchestration.WithTimeouts(config.TestTimeouts()))
	})

	planAndApply := func(desired *config.Stack) (*orchestration.Result, error) {
		_, err := rec.Plan(ctx, "lab", desired)
		Expect(err).NotTo(HaveOccurred())
		return rec.Apply(ctx, "lab", desired)
	}

	Describe("removing a group while adding an instance", func() {
		BeforeEach(func() {
			old := testutil.NewStackBuilder().WithHaGroup("g", "pve1").Build()
			Expect(st.WriteState(ctx, "lab", old)).To(Succeed())

			cluster.
				WithHaGroup(proxmox.HaGroup{Name: "lab-g", Nodes: []string{"pve1"}}).
				WithVM(proxmox.VM{ID: 201, Name: "lab-a", Node: "pve1", Status: proxmox.StatusRunning}).
				WithVM(proxmox.VM{ID: 202, Name: "lab-b", Node: "pve1", Status: proxmox.StatusRunning}).
				WithHaResource(proxmox.HaResource{VMID: 201, Group: "lab-g", State: "started"}).
				WithHaResource(proxmox.HaResource{VMID: 202, Group: "lab-g", State: "started"})
		})

		It("unbinds both resources and deletes the group before creating the instance", func() {
			desired := testutil.NewStackBuilder().
				WithInstance("i", testutil.Instance(9000)).
				Build()

			result, err := planAndApply(desired)
			Expect(err).NotTo(HaveOccurred())
			Expect(result.Failures()).To(BeEmpty())

			calls := cluster.Calls()
			deleteA := testutil.IndexOf(calls, "DeleteHaResource lab-a")
			deleteB := testutil.IndexOf(calls, "DeleteHaResource lab-b")
			deleteGroup := testutil.IndexOf(calls, "DeleteHaGroup lab-g")
			clone := testutil.IndexOf(calls, "CloneVM lab-i")

			Expect(deleteA).To(BeNumerically(">=", 0))
			Expect(deleteB).To(BeNumerically(">=", 0))
			Expect(deleteGroup).To(BeNumerically(">", deleteA))
			Expect(deleteGroup).To(BeNumerically(">", deleteB))
			Expect(clone).To(BeNumerically(">", deleteGroup))

			_, exists := cluster.Group("lab-g")
			Expect(exists).To(BeFalse())
			_, exists = cluster.VM("lab-i")
			Expect(exists).To(BeTrue())
		})

		It("records the new state and consumes the plan", func() {
			desired := testutil.NewStackBuilder().
				WithInstance("i", testutil.Instance(9000)).
				Build()

			_, err := planAndApply(desired)
			Expect(err).NotTo(HaveOccurred())

			state, err := st.LoadState(ctx, "lab")
			Expect(err).NotTo(HaveOccurred())
			Expect(state.HaGroups.Len()).To(BeZero())
			Expect(state.Instances.Keys()).To(Equal([]string{"i"}))

			_, ok, err := st.LoadPlan(ctx, "lab")
			Expect(err).NotTo(HaveOccurred())
			Expect(ok).To(BeFalse())
		})
	})

	Describe("re-applying after a partial failure", func() {
		var desired *config.Stack

		BeforeEach(func() {
			desired = testutil.NewStackBuilder().
				WithHaGroup("prod", "pve1", "pve2").
				WithInstance("web", testutil.InstanceIn(9000, "prod", "web", "prod")).
				Build()
			cluster.FailOn("SetTags lab-web", nil)
		})

		It("reports the failed instance and keeps it out of the state", func() {
			result, err := planAndApply(desired)

			var applyErr *orchestration.ApplyError
			Expect(errors.As(err, &applyErr)).To(BeTrue())
			Expect(applyErr.Failures).To(HaveLen(1))
			Expect(applyErr.Failures[0].Name).To(Equal("web"))
			Expect(errors.Is(err, testutil.ErrInjected)).To(BeTrue())

			Expect(testutil.CallsWithPrefix(cluster.Calls(), "CreateHaResource")).To(BeEmpty())
			Expect(result.Outcomes).To(HaveLen(2))

			state, err := st.LoadState(ctx, "lab")
			Expect(err).NotTo(HaveOccurred())
			Expect(state.HaGroups.Keys()).To(Equal([]string{"prod"}))
			Expect(state.Instances.Len()).To(BeZero())
		})

		It("finishes the instance without cloning it again", func() {
			_, err := planAndApply(desired)
			Expect(err).To(HaveOccurred())
			Expect(cluster.VMCount()).To(Equal(1))

			cluster.ClearFailures()
			cluster.ResetCalls()

			plan, err := rec.Plan(ctx, "lab", desired)
			Expect(err).NotTo(HaveOccurred())
			Expect(plan.HaGroups.Added).To(BeEmpty())
			Expect(plan.Instances.Added).To(Equal([]string{"web"}))

			_, err = rec.Apply(ctx, "lab", desired)
			Expect(err).NotTo(HaveOccurred())

			calls := cluster.Calls()
			Expect(testutil.CallsWithPrefix(calls, "CloneVM")).To(BeEmpty())
			Expect(testutil.CallsWithPrefix(calls, "SetTags lab-web")).To(HaveLen(1))
			Expect(cluster.VMCount()).To(Equal(1))

			vm, _ := cluster.VM("lab-web")
			Expect(vm.Tags).To(Equal([]string{"web", "prod"}))
			res, bound := cluster.Resource("lab-web")
			Expect(bound).To(BeTrue())
			Expect(res.Group).To(Equal("lab-prod"))

			plan, err = rec.Plan(ctx, "lab", desired)
			Expect(err).NotTo(HaveOccurred())
			Expect(plan.IsEmpty()).To(BeTrue())
		})
	})

	Describe("updating an instance", func() {
		var old *config.Stack

		BeforeEach(func() {
			old = testutil.NewStackBuilder().
				WithInstance("db", testutil.InstanceIn(9000, "", "db", "old")).
				Build()
			_, err := planAndApply(old)
			Expect(err).NotTo(HaveOccurred())

			// a tag added by hand must survive the update
			vm, _ := cluster.VM("lab-db")
			Expect(cluster.SetTags(ctx, vm.ID, []string{"manual"}, proxmox.TagsAppend)).To(Succeed())
			Expect(cluster.SetVMStatus(ctx, vm.ID, proxmox.ActionStart)).To(Succeed())
			cluster.ResetCalls()
		})

		It("stops the VM, applies the tag delta to the live tags, resizes and starts it", func() {
			spec := testutil.InstanceIn(9000, "", "db", "new")
			spec.Cores = 4
			spec.DiskSize = "40G"
			desired := testutil.NewStackBuilder().WithInstance("db", spec).Build()

			_, err := planAndApply(desired)
			Expect(err).NotTo(HaveOccurred())

			Expect(cluster.Calls()).To(Equal([]string{
				"SetVMStatus lab-db stop",
				"WaitForStatus lab-db stopped",
				"SetTags lab-db db;manual;new",
				"SetVMProperties lab-db",
				"ResizeDisk lab-db 40G",
				"SetVMStatus lab-db start",
			}))

			cfg := cluster.Config("lab-db")
			Expect(cfg["cores"]).To(Equal(4))
			Expect(cfg["scsi0"]).To(ContainSubstring("size=40G"))
		})
	})
})
