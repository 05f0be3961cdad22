package worker

import (
	"context"
	"errors"
	"testing"
	"time"

	"ajo/internal/amqp"
	"ajo/internal/core"
	"ajo/internal/storage"
)

type fakeNotifier struct {
	sent []Notification
	fail map[string]bool
}

func (f *fakeNotifier) Notify(_ context.Context, n Notification) error {
	if f.fail[n.MemberID] {
		return errors.New("gateway rejected")
	}
	f.sent = append(f.sent, n)
	return nil
}

func seedRepo(t *testing.T) storage.Repository {
	t.Helper()
	repo := storage.NewMemoryRepository()
	err := repo.CreateGroup(context.Background(), &core.Group{
		ID:                 "g1",
		Name:               "Traders",
		ContributionAmount: core.Money{Minor: 50000},
		Frequency:          core.Weekly,
		StartDate:          core.NewDate(2024, 1, 1),
		TotalCycles:        4,
		Members: []core.Member{
			{ID: "m1", Name: "Ada", Contact: "+234 800 000 0001", Order: 1},
			{ID: "m2", Name: "Bola", Contact: "+234 800 000 0002", Order: 2},
		},
	})
	if err != nil {
		t.Fatal(err)
	}
	return repo
}

func TestReminderWorker_ResolvesContacts(t *testing.T) {
	notifier := &fakeNotifier{}
	w := NewReminderWorker(seedRepo(t), notifier)
	msg := &amqp.ReminderMessage{
		ID: "r1", GroupID: "g1", Cycle: 2,
		MemberIDs: []string{"m1", "m2"},
		Channel:   "sms", Message: "Please pay", Timestamp: time.Now(),
	}

	if err := w.HandleReminderMessage(context.Background(), msg); err != nil {
		t.Fatalf("HandleReminderMessage() error = %v", err)
	}
	if len(notifier.sent) != 2 {
		t.Fatalf("sent = %d, want 2", len(notifier.sent))
	}
	if notifier.sent[1].Contact != "+234 800 000 0002" || notifier.sent[1].Cycle != 2 {
		t.Errorf("unexpected notification %+v", notifier.sent[1])
	}
}

func TestReminderWorker_PartialFailure(t *testing.T) {
	notifier := &fakeNotifier{fail: map[string]bool{"m2": true}}
	w := NewReminderWorker(seedRepo(t), notifier)
	msg := &amqp.ReminderMessage{ID: "r1", GroupID: "g1", MemberIDs: []string{"m1", "m2"}, Channel: "call", Message: "hi"}

	err := w.HandleReminderMessage(context.Background(), msg)
	if err == nil {
		t.Fatal("expected error when a recipient fails")
	}
	if len(notifier.sent) != 1 || notifier.sent[0].MemberID != "m1" {
		t.Errorf("other recipients should still be notified: %+v", notifier.sent)
	}
}

func TestReminderWorker_UnknownGroup(t *testing.T) {
	notifier := &fakeNotifier{}
	w := NewReminderWorker(nil, notifier)
	msg := &amqp.ReminderMessage{ID: "r1", GroupID: "missing", MemberIDs: []string{"m1"}, Channel: "sms", Message: "hi"}

	if err := w.HandleReminderMessage(context.Background(), msg); err != nil {
		t.Fatal(err)
	}
	if notifier.sent[0].Contact != "" || notifier.sent[0].MemberID != "m1" {
		t.Errorf("expected ID-only notification, got %+v", notifier.sent[0])
	}
}

func TestLogNotifier(t *testing.T) {
	if err := NewLogNotifier(nil).Notify(context.Background(), Notification{MemberID: "m1"}); err != nil {
		t.Fatal(err)
	}
}
