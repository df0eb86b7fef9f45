package services

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"krishi-backend/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAnnouncementUsers struct {
	users []*models.User
}

func (f *fakeAnnouncementUsers) List(ctx context.Context) ([]*models.User, error) {
	return f.users, nil
}

func (f *fakeAnnouncementUsers) ListByRole(ctx context.Context, role string) ([]*models.User, error) {
	var out []*models.User
	for _, u := range f.users {
		if u.Role == role {
			out = append(out, u)
		}
	}
	return out, nil
}

func (f *fakeAnnouncementUsers) GetByPhone(ctx context.Context, phone string) (*models.User, error) {
	for _, u := range f.users {
		if u.PhoneNumber == phone {
			return u, nil
		}
	}
	return nil, errors.New("no rows in result set")
}

type fakeReminderStore struct {
	pending []*models.Purchase
}

func (f *fakeReminderStore) ListPendingWithBalance(ctx context.Context) ([]*models.Purchase, error) {
	return f.pending, nil
}

type fakeAnnouncementNotifier struct {
	sent        []string // phone numbers
	reminders   map[string]int
	failPhones  map[string]bool
	lastBody    string
	lastBatches map[string][]*models.Purchase
}

func newFakeAnnouncementNotifier() *fakeAnnouncementNotifier {
	return &fakeAnnouncementNotifier{
		reminders:   make(map[string]int),
		failPhones:  make(map[string]bool),
		lastBatches: make(map[string][]*models.Purchase),
	}
}

func (f *fakeAnnouncementNotifier) ComposeAnnouncement(message, messageHindi string) string {
	if messageHindi == "" {
		messageHindi = message
	}
	return message + "\n" + messageHindi
}

func (f *fakeAnnouncementNotifier) SendAnnouncement(ctx context.Context, user *models.User, body string) error {
	if f.failPhones[user.PhoneNumber] {
		return errors.New("provider error")
	}
	f.sent = append(f.sent, user.PhoneNumber)
	f.lastBody = body
	return nil
}

func (f *fakeAnnouncementNotifier) SendPaymentReminder(ctx context.Context, user *models.User, purchases []*models.Purchase) error {
	if f.failPhones[user.PhoneNumber] {
		return errors.New("provider error")
	}
	f.reminders[user.PhoneNumber]++
	f.lastBatches[user.PhoneNumber] = purchases
	return nil
}

func TestBroadcastCountsFailures(t *testing.T) {
	users := &fakeAnnouncementUsers{users: []*models.User{
		{ID: 1, PhoneNumber: "9000000001", Role: models.RoleFarmer},
		{ID: 2, PhoneNumber: "9000000002", Role: models.RoleFarmer},
		{ID: 3, PhoneNumber: "", Role: models.RoleFarmer}, // no phone on record
	}}
	notifier := newFakeAnnouncementNotifier()
	notifier.failPhones["9000000002"] = true

	svc := NewAnnouncementService(users, &fakeReminderStore{}, notifier)

	resp, err := svc.Broadcast(context.Background(), &models.BroadcastRequest{Message: "New stock arrived"})
	require.NoError(t, err)

	assert.Equal(t, 3, resp.Stats.TotalUsers)
	assert.Equal(t, 1, resp.Stats.MessagesSent)
	assert.Equal(t, 2, resp.Stats.MessagesFailed)
	assert.True(t, strings.Contains(notifier.lastBody, "New stock arrived"))
}

func TestBroadcastTargetRole(t *testing.T) {
	users := &fakeAnnouncementUsers{users: []*models.User{
		{ID: 1, PhoneNumber: "9000000001", Role: models.RoleFarmer},
		{ID: 2, PhoneNumber: "9000000002", Role: models.RoleAdmin},
	}}
	notifier := newFakeAnnouncementNotifier()
	svc := NewAnnouncementService(users, &fakeReminderStore{}, notifier)

	resp, err := svc.Broadcast(context.Background(), &models.BroadcastRequest{
		Message:    "Admin only",
		TargetRole: models.RoleAdmin,
	})
	require.NoError(t, err)
	assert.Equal(t, 1, resp.Stats.TotalUsers)
	assert.Equal(t, []string{"9000000002"}, notifier.sent)
}

func TestBroadcastRequiresMessage(t *testing.T) {
	svc := NewAnnouncementService(&fakeAnnouncementUsers{}, &fakeReminderStore{}, newFakeAnnouncementNotifier())

	_, err := svc.Broadcast(context.Background(), &models.BroadcastRequest{})
	require.Error(t, err)
}

func TestPaymentRemindersGroupPerCustomer(t *testing.T) {
	users := &fakeAnnouncementUsers{users: []*models.User{
		{ID: 1, PhoneNumber: "9000000001", Name: "Ram Kumar"},
	}}
	now := time.Now()
	pending := &fakeReminderStore{pending: []*models.Purchase{
		{ID: 1, PhoneNumber: "9000000001", Name: "Ram Kumar", PurchaseDate: now, RemainingAmount: 500, PaymentStatus: models.PaymentPending},
		{ID: 2, PhoneNumber: "9000000001", Name: "Ram Kumar", PurchaseDate: now, RemainingAmount: 800, PaymentStatus: models.PaymentPending},
		{ID: 3, PhoneNumber: "9000000005", Name: "Sita Devi", PurchaseDate: now, RemainingAmount: 300, PaymentStatus: models.PaymentPending},
	}}
	notifier := newFakeAnnouncementNotifier()

	svc := NewAnnouncementService(users, pending, notifier)

	resp, err := svc.SendPaymentReminders(context.Background())
	require.NoError(t, err)

	// Two distinct customers, one message each
	assert.Equal(t, 2, resp.Stats.TotalUsers)
	assert.Equal(t, 2, resp.Stats.MessagesSent)
	assert.Equal(t, 1, notifier.reminders["9000000001"])
	assert.Len(t, notifier.lastBatches["9000000001"], 2)

	// Customer 9000000005 has no account but the ledger snapshot is enough
	assert.Equal(t, 1, notifier.reminders["9000000005"])
}

func TestPaymentRemindersCountMissingPhoneAsFailed(t *testing.T) {
	now := time.Now()
	pending := &fakeReminderStore{pending: []*models.Purchase{
		{ID: 1, PhoneNumber: "9000000001", Name: "Ram Kumar", PurchaseDate: now, RemainingAmount: 500, PaymentStatus: models.PaymentPending},
		{ID: 2, PhoneNumber: "", Name: "Walk In", PurchaseDate: now, RemainingAmount: 200, PaymentStatus: models.PaymentPending},
	}}
	notifier := newFakeAnnouncementNotifier()

	svc := NewAnnouncementService(&fakeAnnouncementUsers{}, pending, notifier)

	resp, err := svc.SendPaymentReminders(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, resp.Stats.TotalUsers)
	assert.Equal(t, 1, resp.Stats.MessagesSent)
	assert.Equal(t, 1, resp.Stats.MessagesFailed, "an unreachable purchase is a failed delivery")
}

func TestPaymentRemindersNothingPending(t *testing.T) {
	svc := NewAnnouncementService(&fakeAnnouncementUsers{}, &fakeReminderStore{}, newFakeAnnouncementNotifier())

	resp, err := svc.SendPaymentReminders(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, resp.Stats.TotalUsers)
}
