package services

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"testing"

	"ajo/internal/core"
	"ajo/internal/log"
	"ajo/internal/storage"
)

type recordingDispatcher struct {
	mu    sync.Mutex
	calls []dispatchCall
	err   error
}

type dispatchCall struct {
	ids     []string
	channel Channel
	message string
	meta    ReminderMeta
}

func (r *recordingDispatcher) SendReminder(ctx context.Context, ids []string, ch Channel, msg string) (DispatchResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	meta, _ := ReminderMetaFrom(ctx)
	r.calls = append(r.calls, dispatchCall{ids: ids, channel: ch, message: msg, meta: meta})
	if r.err != nil {
		return DispatchResult{}, r.err
	}
	return DispatchResult{Ref: "ref-1", Accepted: ids, Channel: ch}, nil
}

// conflictRepo fails the first n saves with a version conflict.
type conflictRepo struct {
	*storage.MemoryRepository
	failures int
}

func (c *conflictRepo) SaveGroup(ctx context.Context, g *core.Group) error {
	if c.failures > 0 {
		c.failures--
		return storage.ErrVersionConflict
	}
	return c.MemoryRepository.SaveGroup(ctx, g)
}

func newTestService(t *testing.T, repo storage.Repository, disp ReminderDispatcher, today core.Date) *GroupService {
	t.Helper()
	logger := log.New(log.Config{Output: &bytes.Buffer{}, Component: log.ComponentGroups})
	return NewGroupService(repo, disp,
		WithLogger(logger),
		WithClock(func() core.Date { return today }))
}

func sampleInput() GroupInput {
	return GroupInput{
		Name:               "Lagos Market Traders",
		ContributionAmount: core.Money{Minor: 50000},
		Frequency:          core.Weekly,
		StartDate:          d(2024, 1, 1),
		TotalCycles:        4,
		Members: []MemberInput{
			{Name: "Adebayo Johnson", Contact: "+234 801 234 5678"},
			{Name: "Fatima Abdullahi", Contact: "+234 802 345 6789"},
		},
	}
}

func TestGroupService_CreateAndList(t *testing.T) {
	svc := newTestService(t, storage.NewMemoryRepository(), nil, d(2024, 1, 2))
	ctx := context.Background()

	g, err := svc.CreateGroup(ctx, sampleInput())
	if err != nil {
		t.Fatalf("CreateGroup() error = %v", err)
	}
	if g.ID == "" || len(g.Members) != 2 || g.Members[1].Order != 2 || g.Version != 1 {
		t.Errorf("unexpected group %+v", g)
	}

	list, err := svc.ListGroups(ctx, d(2024, 1, 2))
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 1 || list[0].CurrentCycle != 2 || list[0].MemberCount != 2 {
		t.Errorf("unexpected summaries %+v", list)
	}
}

func TestGroupService_CreateValidation(t *testing.T) {
	svc := newTestService(t, storage.NewMemoryRepository(), nil, d(2024, 1, 2))
	in := sampleInput()
	in.Name = ""
	in.Members = append(in.Members, MemberInput{Name: "", Contact: "x"})

	_, err := svc.CreateGroup(context.Background(), in)
	fields, ok := core.ValidationFields(err)
	if !ok {
		t.Fatalf("expected validation error, got %v", err)
	}
	if fields["groupName"] == "" || fields["member-2-name"] == "" {
		t.Errorf("unexpected fields %v", fields)
	}
}

func TestGroupService_PaymentsAndMembers(t *testing.T) {
	svc := newTestService(t, storage.NewMemoryRepository(), nil, d(2024, 1, 10))
	ctx := context.Background()
	g, _ := svc.CreateGroup(ctx, sampleInput())
	first := g.Members[0].ID

	rec, err := svc.RecordPayment(ctx, g.ID, PaymentInput{Cycle: 1, MemberID: first, PaidDate: dp(2024, 1, 1)})
	if err != nil {
		t.Fatalf("RecordPayment() error = %v", err)
	}
	if _, err := svc.RecordPayment(ctx, g.ID, PaymentInput{Cycle: 1, MemberID: first}); !errors.Is(err, core.ErrDuplicateRecord) {
		t.Errorf("duplicate error = %v", err)
	}
	if _, err := svc.UpdatePayment(ctx, g.ID, rec.ID, PaymentUpdate{PaidDateSet: true}); err != nil {
		t.Fatalf("UpdatePayment() error = %v", err)
	}

	m, err := svc.AddMember(ctx, g.ID, MemberInput{Name: "Chinedu", Contact: "c@example.com"})
	if err != nil || m.Order != 3 {
		t.Fatalf("AddMember() = %+v, %v", m, err)
	}
	if _, err := svc.ReorderMember(ctx, g.ID, m.ID, 1); err != nil {
		t.Fatal(err)
	}
	if err := svc.RemoveMember(ctx, g.ID, first); err != nil {
		t.Fatal(err)
	}

	stored, _ := svc.GetGroup(ctx, g.ID)
	if len(stored.Members) != 2 || stored.Version != 6 {
		t.Errorf("members=%d version=%d, want 2/6", len(stored.Members), stored.Version)
	}
	if MembersInOrder(stored)[0].ID != m.ID {
		t.Error("reordered member should be first")
	}
	if len(stored.Records) != 1 || stored.Records[0].IsPaid() {
		t.Errorf("expected one unpaid record, got %+v", stored.Records)
	}
}

func TestGroupService_UpdateGroupFreezesSchedule(t *testing.T) {
	ctx := context.Background()
	repo := storage.NewMemoryRepository()

	before := newTestService(t, repo, nil, d(2023, 12, 20))
	g, _ := before.CreateGroup(ctx, sampleInput())
	newStart := d(2024, 1, 3)
	updated, err := before.UpdateGroup(ctx, g.ID, GroupUpdate{StartDate: &newStart})
	if err != nil {
		t.Fatalf("UpdateGroup before start error = %v", err)
	}
	if !updated.StartDate.Equal(newStart) {
		t.Errorf("start date = %s", updated.StartDate)
	}

	after := newTestService(t, repo, nil, d(2024, 1, 10))
	monthly := core.Monthly
	_, err = after.UpdateGroup(ctx, g.ID, GroupUpdate{Frequency: &monthly})
	if fields, _ := core.ValidationFields(err); fields["frequency"] == "" {
		t.Errorf("expected frequency freeze, got %v", err)
	}

	name := "Renamed"
	if _, err := after.UpdateGroup(ctx, g.ID, GroupUpdate{Name: &name}); err != nil {
		t.Errorf("renaming should be allowed: %v", err)
	}

	if _, err := after.RecordPayment(ctx, g.ID, PaymentInput{Cycle: 3, MemberID: g.Members[0].ID}); err != nil {
		t.Fatal(err)
	}
	two := 2
	_, err = after.UpdateGroup(ctx, g.ID, GroupUpdate{TotalCycles: &two})
	if fields, _ := core.ValidationFields(err); fields["totalCycles"] == "" {
		t.Errorf("expected totalCycles error, got %v", err)
	}
}

func TestGroupService_UpdateGroupRejectsStartAfterPayments(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t, storage.NewMemoryRepository(), nil, d(2023, 12, 1))
	g, _ := svc.CreateGroup(ctx, sampleInput())
	if _, err := svc.RecordPayment(ctx, g.ID, PaymentInput{Cycle: 1, MemberID: g.Members[0].ID, PaidDate: dp(2024, 1, 2)}); err != nil {
		t.Fatal(err)
	}

	later := d(2024, 2, 1)
	_, err := svc.UpdateGroup(ctx, g.ID, GroupUpdate{StartDate: &later})
	if fields, _ := core.ValidationFields(err); fields["startDate"] == "" {
		t.Fatalf("expected startDate error, got %v", err)
	}
	stored, _ := svc.GetGroup(ctx, g.ID)
	if !stored.StartDate.Equal(d(2024, 1, 1)) {
		t.Errorf("start date changed to %s", stored.StartDate)
	}

	earlier := d(2023, 12, 25)
	if _, err := svc.UpdateGroup(ctx, g.ID, GroupUpdate{StartDate: &earlier}); err != nil {
		t.Errorf("moving start earlier should be allowed: %v", err)
	}
}

func TestGroupService_UpdatePaymentKeepsPaidDate(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t, storage.NewMemoryRepository(), nil, d(2024, 1, 10))
	g, _ := svc.CreateGroup(ctx, sampleInput())
	rec, err := svc.RecordPayment(ctx, g.ID, PaymentInput{Cycle: 1, MemberID: g.Members[0].ID, PaidDate: dp(2024, 1, 1)})
	if err != nil {
		t.Fatal(err)
	}

	amt := core.Money{Minor: 60000}
	got, err := svc.UpdatePayment(ctx, g.ID, rec.ID, PaymentUpdate{Amount: &amt})
	if err != nil {
		t.Fatalf("UpdatePayment() error = %v", err)
	}
	if !got.IsPaid() || !got.PaidDate.Equal(d(2024, 1, 1)) || got.Amount.Minor != 60000 {
		t.Errorf("amount-only edit = %+v", got)
	}

	got, err = svc.UpdatePayment(ctx, g.ID, rec.ID, PaymentUpdate{PaidDateSet: true})
	if err != nil {
		t.Fatal(err)
	}
	if got.IsPaid() || got.Amount.Minor != 60000 {
		t.Errorf("clearing paid date = %+v", got)
	}

	if _, err := svc.UpdatePayment(ctx, g.ID, "missing", PaymentUpdate{}); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("missing record error = %v", err)
	}
}

func TestGroupService_VersionConflictRetry(t *testing.T) {
	ctx := context.Background()
	repo := &conflictRepo{MemoryRepository: storage.NewMemoryRepository()}
	svc := newTestService(t, repo, nil, d(2024, 1, 10))
	g, _ := svc.CreateGroup(ctx, sampleInput())

	repo.failures = 1
	if _, err := svc.AddMember(ctx, g.ID, MemberInput{Name: "Retry", Contact: "r"}); err != nil {
		t.Fatalf("single conflict should be retried: %v", err)
	}

	repo.failures = 2
	_, err := svc.AddMember(ctx, g.ID, MemberInput{Name: "Again", Contact: "a"})
	if !errors.Is(err, storage.ErrVersionConflict) {
		t.Fatalf("expected conflict after retry, got %v", err)
	}
}

func TestGroupService_ConcurrentPayments(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t, storage.NewMemoryRepository(), nil, d(2024, 1, 10))
	in := sampleInput()
	in.TotalCycles = 20
	g, _ := svc.CreateGroup(ctx, in)

	var wg sync.WaitGroup
	errs := make(chan error, 20)
	for cycle := 1; cycle <= 20; cycle++ {
		wg.Add(1)
		go func(cycle int) {
			defer wg.Done()
			_, err := svc.RecordPayment(ctx, g.ID, PaymentInput{Cycle: cycle, MemberID: g.Members[0].ID})
			errs <- err
		}(cycle)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		if err != nil {
			t.Fatalf("concurrent RecordPayment error = %v", err)
		}
	}
	stored, _ := svc.GetGroup(ctx, g.ID)
	if len(stored.Records) != 20 {
		t.Errorf("records = %d, want 20 (lost update)", len(stored.Records))
	}
}

func TestGroupService_SendReminders(t *testing.T) {
	ctx := context.Background()
	disp := &recordingDispatcher{}
	svc := newTestService(t, storage.NewMemoryRepository(), disp, d(2024, 1, 10))
	g, _ := svc.CreateGroup(ctx, sampleInput())
	paid := g.Members[0].ID
	if _, err := svc.RecordPayment(ctx, g.ID, PaymentInput{Cycle: 1, MemberID: paid, PaidDate: dp(2024, 1, 1)}); err != nil {
		t.Fatal(err)
	}

	res, err := svc.SendReminders(ctx, g.ID, ReminderRequest{Cycle: 1, Channel: ChannelSMS, Template: TemplateGentle})
	if err != nil {
		t.Fatalf("SendReminders() error = %v", err)
	}
	if len(res.Accepted) != 1 || res.Accepted[0] != g.Members[1].ID {
		t.Errorf("expected only the overdue member, got %+v", res)
	}
	call := disp.calls[0]
	if call.meta.GroupID != g.ID || call.meta.Cycle != 1 || call.message == "" {
		t.Errorf("unexpected dispatch %+v", call)
	}

	_, err = svc.SendReminders(ctx, g.ID, ReminderRequest{Cycle: 1, Channel: ChannelSMS, Message: "hi", MemberIDs: []string{"ghost"}})
	if !errors.Is(err, core.ErrNotFound) {
		t.Errorf("unknown member error = %v", err)
	}

	disp.err = errors.New("broker down")
	_, err = svc.SendReminders(ctx, g.ID, ReminderRequest{Cycle: 1, Channel: ChannelCall, Message: "hi", MemberIDs: []string{paid}})
	if err == nil {
		t.Error("dispatcher failure should surface")
	}

	res, err = svc.SendReminders(ctx, g.ID, ReminderRequest{Cycle: 4, Channel: ChannelSMS, Message: "hi"})
	if err != nil || len(res.Accepted) != 0 {
		t.Errorf("no overdue members should dispatch nothing, got %+v, %v", res, err)
	}
}

func TestGroupService_DeleteGroup(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t, storage.NewMemoryRepository(), nil, d(2024, 1, 10))
	g, _ := svc.CreateGroup(ctx, sampleInput())
	if err := svc.DeleteGroup(ctx, g.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.GetGroup(ctx, g.ID); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("get after delete error = %v", err)
	}
}
