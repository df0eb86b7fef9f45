package services

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"strings"

	"krishi-backend/internal/metrics"
	"krishi-backend/internal/models"
	"krishi-backend/internal/repositories"
	"krishi-backend/internal/whatsapp"
)

const storeHeader = "🌾 Mithlesh Krishi Kendra Nawanagar | मिथलेश कृषि केंद्र नवानगर"

// NotificationService composes the bilingual store messages and delivers
// them over WhatsApp. Every attempt is recorded in message_logs; delivery
// failures are logged but never bubble up to the business operation that
// triggered them.
type NotificationService struct {
	Provider  whatsapp.Provider
	Logs      *repositories.MessageLogRepository
	ClientURL string
}

func NewNotificationService(provider whatsapp.Provider, logs *repositories.MessageLogRepository, clientURL string) *NotificationService {
	if clientURL == "" {
		clientURL = "http://localhost:5173"
	}
	return &NotificationService{
		Provider:  provider,
		Logs:      logs,
		ClientURL: clientURL,
	}
}

// rupees renders an amount the way the storefront shows it, without
// trailing zeros for whole-rupee values.
func rupees(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// send delivers one message and records the outcome. Returns the
// delivery error for callers that aggregate stats; most callers ignore it.
func (s *NotificationService) send(ctx context.Context, userID int, phone, msgType, body string) error {
	sendErr := s.Provider.SendMessage(phone, body)

	entry := &models.MessageLog{
		UserID:      userID,
		Phone:       phone,
		MessageType: msgType,
		Message:     body,
		Status:      models.MessageStatusSent,
	}
	if sendErr != nil {
		entry.Status = models.MessageStatusFailed
		entry.ErrorMessage = sendErr.Error()
		metrics.MessagesFailedTotal.WithLabelValues(msgType).Inc()
		log.Printf("[Notification] %s to %s failed: %v", msgType, phone, sendErr)
	} else {
		metrics.MessagesSentTotal.WithLabelValues(msgType).Inc()
	}

	if err := s.Logs.Create(ctx, entry); err != nil {
		log.Printf("[Notification] failed to record message log: %v", err)
	}

	return sendErr
}

func userIDOf(p *models.Purchase) int {
	if p.UserID != nil {
		return *p.UserID
	}
	return 0
}

// SendPurchaseConfirmation notifies a customer that a purchase was
// recorded against their account.
func (s *NotificationService) SendPurchaseConfirmation(ctx context.Context, user *models.User, p *models.Purchase) {
	var b strings.Builder
	b.WriteString(storeHeader + "\n\n")
	b.WriteString("Purchase Confirmation | खरीद पुष्टि\n")
	b.WriteString("SN: " + p.SN + "\n\n")

	if len(p.Items) > 0 {
		b.WriteString("Products | उत्पाद:\n")
		for _, item := range p.Items {
			fmt.Fprintf(&b, "- %s (×%d)\n", item.ProductName, item.Quantity)
		}
		b.WriteString("\n")
	}

	fmt.Fprintf(&b, "Total Amount | कुल राशि: ₹%s\n", rupees(p.TotalAmount))
	fmt.Fprintf(&b, "Deposit Amount | जमा राशि: ₹%s\n", rupees(p.DepositAmount))
	fmt.Fprintf(&b, "Remaining Amount | शेष राशि: ₹%s\n\n", rupees(p.RemainingAmount))
	b.WriteString("Check details online | ऑनलाइन विवरण देखें:\n")
	b.WriteString(s.ClientURL)

	s.send(ctx, userIDOf(p), user.PhoneNumber, models.MessageTypePurchaseConfirm, b.String())
}

// SendPaymentUpdate notifies a customer after a deposit or status change.
// depositDelta is the amount added in this update.
func (s *NotificationService) SendPaymentUpdate(ctx context.Context, user *models.User, p *models.Purchase, depositDelta float64) {
	var b strings.Builder
	b.WriteString(storeHeader + "\n\n")
	b.WriteString("Payment Update | भुगतान अपडेट\n")
	b.WriteString("SN: " + p.SN + "\n\n")
	fmt.Fprintf(&b, "Status | स्थिति: %s\n", p.PaymentStatus)
	fmt.Fprintf(&b, "Previous Deposit | पिछला जमा: ₹%s\n", rupees(p.DepositAmount-depositDelta))
	fmt.Fprintf(&b, "New Deposit | नया जमा: ₹%s\n", rupees(depositDelta))
	fmt.Fprintf(&b, "Total Deposit | कुल जमा: ₹%s\n", rupees(p.DepositAmount))
	fmt.Fprintf(&b, "Remaining Amount | शेष राशि: ₹%s\n\n", rupees(p.RemainingAmount))

	if p.RemainingAmount == 0 {
		b.WriteString("🎉 Payment Completed! | भुगतान पूरा हुआ!\n\n")
	} else {
		b.WriteString("Please clear your remaining payment. | कृपया शेष भुगतान करें।\n\n")
	}

	b.WriteString("Check details online | ऑनलाइन विवरण देखें:\n")
	b.WriteString(s.ClientURL)

	s.send(ctx, userIDOf(p), user.PhoneNumber, models.MessageTypePaymentUpdate, b.String())
}

// SendPaymentReminder sends one consolidated reminder covering all of a
// customer's outstanding purchases.
func (s *NotificationService) SendPaymentReminder(ctx context.Context, user *models.User, purchases []*models.Purchase) error {
	var b strings.Builder
	b.WriteString(storeHeader + "\n\n")
	b.WriteString("🔔 Payment Reminder | भुगतान अनुस्मारक\n\n")

	b.WriteString("हिंदी:\nप्रिय ग्राहक,\nआपके पास निम्नलिखित खरीद के लिए भुगतान बकाया है:\n\n")
	for _, p := range purchases {
		fmt.Fprintf(&b, "खरीद दिनांक: %s\n", p.PurchaseDate.Format("02/01/2006"))
		fmt.Fprintf(&b, "शेष राशि: ₹%s\n\n", rupees(p.RemainingAmount))
	}
	b.WriteString("कृपया अपना बकाया भुगतान करें।\n")
	fmt.Fprintf(&b, "विवरण देखें: %s\n\n", s.ClientURL)

	b.WriteString("English:\nDear Customer,\nYou have pending payments for the following purchases:\n\n")
	for _, p := range purchases {
		fmt.Fprintf(&b, "Purchase Date: %s\n", p.PurchaseDate.Format("02/01/2006"))
		fmt.Fprintf(&b, "Remaining Amount: ₹%s\n\n", rupees(p.RemainingAmount))
	}
	b.WriteString("Please clear your pending payments.\n")
	fmt.Fprintf(&b, "Check details at: %s\n", s.ClientURL)

	return s.send(ctx, user.ID, user.PhoneNumber, models.MessageTypePaymentReminder, b.String())
}

// ComposeAnnouncement builds the bilingual broadcast body once; the same
// body goes to every recipient.
func (s *NotificationService) ComposeAnnouncement(message, messageHindi string) string {
	if messageHindi == "" {
		messageHindi = message
	}
	var b strings.Builder
	b.WriteString(storeHeader + "\n\n")
	b.WriteString("📢 Announcement | घोषणा\n\n")
	fmt.Fprintf(&b, "English:\n%s\n\n", message)
	fmt.Fprintf(&b, "हिंदी:\n%s\n\n", messageHindi)
	b.WriteString("Visit us | हमसे मिलें:\n")
	b.WriteString(s.ClientURL)
	return b.String()
}

// SendAnnouncement delivers a pre-composed broadcast body to one user.
func (s *NotificationService) SendAnnouncement(ctx context.Context, user *models.User, body string) error {
	return s.send(ctx, user.ID, user.PhoneNumber, models.MessageTypeAnnouncement, body)
}

// SendResetCode delivers a password reset code.
func (s *NotificationService) SendResetCode(ctx context.Context, user *models.User, code string) error {
	var b strings.Builder
	b.WriteString(storeHeader + "\n\n")
	b.WriteString("Password Reset | पासवर्ड रीसेट\n\n")
	fmt.Fprintf(&b, "Your password reset code | आपका पासवर्ड रीसेट कोड: %s\n\n", code)
	b.WriteString("This code will expire in 1 hour | यह कोड 1 घंटे में समाप्त हो जाएगा\n\n")
	b.WriteString("Reset your password at | अपना पासवर्ड यहां रीसेट करें:\n")
	b.WriteString(s.ClientURL + "/reset-password\n\n")
	b.WriteString("If you didn't request this, please ignore this message.\n")
	b.WriteString("यदि आपने यह अनुरोध नहीं किया है, तो कृपया इस संदेश को अनदेखा करें।")

	return s.send(ctx, user.ID, user.PhoneNumber, models.MessageTypePasswordReset, b.String())
}

// SendPasswordUpdated confirms a completed password reset.
func (s *NotificationService) SendPasswordUpdated(ctx context.Context, user *models.User) {
	var b strings.Builder
	b.WriteString(storeHeader + "\n\n")
	b.WriteString("Password Updated | पासवर्ड अपडेट किया गया\n\n")
	b.WriteString("Your password has been successfully updated.\n")
	b.WriteString("आपका पासवर्ड सफलतापूर्वक अपडेट कर दिया गया है।\n\n")
	b.WriteString("You can now login with your new password.\n")
	b.WriteString("अब आप अपने नए पासवर्ड से लॉगिन कर सकते हैं।")

	s.send(ctx, user.ID, user.PhoneNumber, models.MessageTypePasswordUpdated, b.String())
}
