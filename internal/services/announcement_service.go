package services

import (
	"context"
	"errors"
	"log"

	"krishi-backend/internal/models"
)

type announcementUserStore interface {
	List(ctx context.Context) ([]*models.User, error)
	ListByRole(ctx context.Context, role string) ([]*models.User, error)
	GetByPhone(ctx context.Context, phoneNumber string) (*models.User, error)
}

type reminderStore interface {
	ListPendingWithBalance(ctx context.Context) ([]*models.Purchase, error)
}

type announcementNotifier interface {
	ComposeAnnouncement(message, messageHindi string) string
	SendAnnouncement(ctx context.Context, user *models.User, body string) error
	SendPaymentReminder(ctx context.Context, user *models.User, purchases []*models.Purchase) error
}

type AnnouncementService struct {
	Users     announcementUserStore
	Purchases reminderStore
	Notifier  announcementNotifier
}

func NewAnnouncementService(users announcementUserStore, purchases reminderStore, notifier announcementNotifier) *AnnouncementService {
	return &AnnouncementService{
		Users:     users,
		Purchases: purchases,
		Notifier:  notifier,
	}
}

// Broadcast sends a bilingual announcement to every user, or to one
// role when the request targets it. Delivery is best effort per user.
func (s *AnnouncementService) Broadcast(ctx context.Context, req *models.BroadcastRequest) (*models.BroadcastResponse, error) {
	if req.Message == "" {
		return nil, errors.New("message is required")
	}

	var users []*models.User
	var err error
	if req.TargetRole != "" {
		if req.TargetRole != models.RoleFarmer && req.TargetRole != models.RoleAdmin {
			return nil, errors.New("target role must be farmer or admin")
		}
		users, err = s.Users.ListByRole(ctx, req.TargetRole)
	} else {
		users, err = s.Users.List(ctx)
	}
	if err != nil {
		return nil, err
	}
	if len(users) == 0 {
		return nil, errors.New("no users found to send announcement")
	}

	body := s.Notifier.ComposeAnnouncement(req.Message, req.MessageHindi)

	stats := models.BroadcastStats{TotalUsers: len(users)}
	for _, user := range users {
		if user.PhoneNumber == "" {
			stats.MessagesFailed++
			continue
		}
		if err := s.Notifier.SendAnnouncement(ctx, user, body); err != nil {
			stats.MessagesFailed++
			continue
		}
		stats.MessagesSent++
	}

	return &models.BroadcastResponse{
		Message: "Announcement broadcast initiated",
		Stats:   stats,
	}, nil
}

// SendPaymentReminders sends one consolidated reminder per customer
// covering all their pending purchases with an outstanding balance.
func (s *AnnouncementService) SendPaymentReminders(ctx context.Context) (*models.BroadcastResponse, error) {
	pending, err := s.Purchases.ListPendingWithBalance(ctx)
	if err != nil {
		return nil, err
	}
	if len(pending) == 0 {
		return &models.BroadcastResponse{Message: "No pending payments found"}, nil
	}

	// Group purchases by customer phone so each gets a single message.
	// A purchase with no reachable number counts as a failed delivery.
	byPhone := make(map[string][]*models.Purchase)
	var order []string
	unreachable := 0
	for _, p := range pending {
		if p.PhoneNumber == "" {
			log.Printf("[Announcement] purchase %d has no phone number, counting as failed", p.ID)
			unreachable++
			continue
		}
		if _, ok := byPhone[p.PhoneNumber]; !ok {
			order = append(order, p.PhoneNumber)
		}
		byPhone[p.PhoneNumber] = append(byPhone[p.PhoneNumber], p)
	}

	stats := models.BroadcastStats{
		TotalUsers:     len(order) + unreachable,
		MessagesFailed: unreachable,
	}
	for _, phone := range order {
		purchases := byPhone[phone]
		user, err := s.Users.GetByPhone(ctx, phone)
		if err != nil {
			// Account deleted; the ledger snapshot still has the number
			user = &models.User{PhoneNumber: phone, Name: purchases[0].Name}
		}
		if err := s.Notifier.SendPaymentReminder(ctx, user, purchases); err != nil {
			stats.MessagesFailed++
			continue
		}
		stats.MessagesSent++
	}

	return &models.BroadcastResponse{
		Message: "Payment reminders sent",
		Stats:   stats,
	}, nil
}
