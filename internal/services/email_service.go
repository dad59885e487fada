package services

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/Abhishek-089/Hireoo-sub001/internal/models"
	"google.golang.org/api/gmail/v1"
	"google.golang.org/api/googleapi"
	"gorm.io/gorm"
)

type EmailService struct {
	DB          *gorm.DB
	LLMService  *LLMService
	GmailClient *gmail.Service
	Matches     *MatchService
}

func NewEmailService(db *gorm.DB, llm *LLMService, gmailSvc *gmail.Service, matches *MatchService) *EmailService {
	return &EmailService{
		DB:          db,
		LLMService:  llm,
		GmailClient: gmailSvc,
		Matches:     matches,
	}
}

// SendOutreach generates the cold email for a match, sends it through the
// connected mailbox and marks the match applied. Marking applied fires the
// counter trigger, so the daily slot is released here, not by this code.
func (s *EmailService) SendOutreach(ctx context.Context, userID uint, matchUUID string) (*models.OutreachEmail, error) {
	if s.GmailClient == nil {
		return nil, fmt.Errorf("gmail is not connected")
	}

	match, err := s.Matches.GetMatch(ctx, userID, matchUUID)
	if err != nil {
		return nil, err
	}
	if match.Applied {
		return nil, fmt.Errorf("outreach already sent for this match")
	}
	if match.RecruiterEmail == "" {
		return nil, fmt.Errorf("match has no recruiter email to send to")
	}

	var user models.User
	if err := s.DB.WithContext(ctx).First(&user, userID).Error; err != nil {
		return nil, fmt.Errorf("load user: %w", err)
	}

	subject, body, err := s.LLMService.GenerateOutreach(ctx, &user, match)
	if err != nil {
		return nil, fmt.Errorf("generate outreach: %w", err)
	}

	raw := buildRawMessage(match.RecruiterEmail, subject, body)
	sent, err := s.GmailClient.Users.Messages.Send("me", &gmail.Message{Raw: raw}).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("gmail send: %w", err)
	}

	outreach := &models.OutreachEmail{
		MatchID:        match.ID,
		UserID:         userID,
		GmailMessageID: sent.Id,
		ThreadID:       sent.ThreadId,
		Subject:        subject,
		Body:           body,
	}
	if err := s.DB.WithContext(ctx).Create(outreach).Error; err != nil {
		return nil, fmt.Errorf("save outreach record: %w", err)
	}

	if err := s.Matches.MarkApplied(ctx, userID, matchUUID); err != nil {
		// The mail is out; surface the bookkeeping failure rather than
		// pretending the send failed.
		return outreach, fmt.Errorf("outreach sent but match not marked applied: %w", err)
	}

	log.Printf("📤 Outreach sent for match %s (thread %s)", matchUUID, sent.ThreadId)
	return outreach, nil
}

// buildRawMessage assembles an RFC 2822 message and base64url-encodes it the
// way the Gmail API expects.
func buildRawMessage(to, subject, body string) string {
	var msg strings.Builder
	fmt.Fprintf(&msg, "To: %s\r\n", to)
	fmt.Fprintf(&msg, "Subject: %s\r\n", subject)
	msg.WriteString("MIME-Version: 1.0\r\n")
	msg.WriteString("Content-Type: text/plain; charset=\"UTF-8\"\r\n")
	msg.WriteString("\r\n")
	msg.WriteString(body)
	return base64.URLEncoding.EncodeToString([]byte(msg.String()))
}

// StartReplyWatcher starts the background polling that stamps RepliedAt on
// outreach threads when the recruiter answers.
func (s *EmailService) StartReplyWatcher() {
	if s.GmailClient == nil {
		log.Println("⚠️ Reply watcher disabled (no Gmail client). Check credentials.")
		return
	}

	ticker := time.NewTicker(1 * time.Minute)

	// Run immediately on startup
	go s.SyncReplies()

	go func() {
		for range ticker.C {
			s.SyncReplies()
		}
	}()
}

// SyncReplies is the main watcher cycle: pull new inbox messages (incremental
// when a history bookmark exists, full otherwise), dedup, and match them to
// outreach threads.
func (s *EmailService) SyncReplies() {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	log.Println("📧 Reply Watcher: starting sync cycle...")

	// The connected mailbox is a single account; its history bookmark lives
	// on the first user row, same as the rest of the Gmail state.
	var user models.User
	if err := s.DB.First(&user).Error; err != nil {
		log.Printf("Reply watcher: no user to sync for: %v", err)
		return
	}

	var messages []*gmail.Message
	var newHistoryID uint64
	var err error

	if user.LastHistoryID == 0 {
		log.Println("🆕 First run detected. Running full bootstrap sync...")
		messages, newHistoryID, err = s.performFullSync(ctx)
	} else {
		messages, newHistoryID, err = s.performIncrementalSync(ctx, user.LastHistoryID)
		if err != nil && isHistoryExpiredError(err) {
			log.Println("⚠️ History ID expired. Falling back to full sync.")
			messages, newHistoryID, err = s.performFullSync(ctx)
		}
	}
	if err != nil {
		log.Printf("❌ Reply sync failed: %v", err)
		return
	}

	processed := 0
	for _, msg := range messages {
		var count int64
		s.DB.Model(&models.ProcessedEmail{}).Where("id = ?", msg.Id).Count(&count)
		if count > 0 {
			continue
		}
		if s.processInboundMessage(ctx, msg) {
			processed++
		}
		s.DB.Create(&models.ProcessedEmail{ID: msg.Id})
	}

	if newHistoryID > user.LastHistoryID {
		s.updateUserHistoryID(user.ID, newHistoryID)
	}
	if processed > 0 {
		log.Printf("✅ Reply sync done: %d replies recorded.", processed)
	}
}

// processInboundMessage checks whether an inbound message belongs to one of
// our outreach threads and stamps RepliedAt on the first reply.
func (s *EmailService) processInboundMessage(ctx context.Context, msg *gmail.Message) bool {
	full, err := s.GmailClient.Users.Messages.Get("me", msg.Id).
		Format("metadata").Context(ctx).Do()
	if err != nil {
		log.Printf("Failed to fetch message %s: %v", msg.Id, err)
		return false
	}

	var outreach models.OutreachEmail
	err = s.DB.Where("thread_id = ? AND replied_at IS NULL", full.ThreadId).
		First(&outreach).Error
	if err != nil {
		return false // not one of ours, or already answered
	}
	// Our own sent message shares the thread; only count the other side.
	if full.Id == outreach.GmailMessageID {
		return false
	}

	now := time.Now().UTC()
	if err := s.DB.Model(&outreach).Update("replied_at", &now).Error; err != nil {
		log.Printf("Failed to record reply for thread %s: %v", full.ThreadId, err)
		return false
	}
	log.Printf("💬 Reply received on thread %s (match %d)", full.ThreadId, outreach.MatchID)
	return true
}

// performFullSync lists recent inbox messages and returns the mailbox's
// current history id as the new bookmark.
func (s *EmailService) performFullSync(ctx context.Context) ([]*gmail.Message, uint64, error) {
	profile, err := s.GmailClient.Users.GetProfile("me").Context(ctx).Do()
	if err != nil {
		return nil, 0, fmt.Errorf("get profile: %w", err)
	}

	resp, err := s.GmailClient.Users.Messages.List("me").
		LabelIds("INBOX").MaxResults(50).Context(ctx).Do()
	if err != nil {
		return nil, 0, fmt.Errorf("list messages: %w", err)
	}
	return resp.Messages, profile.HistoryId, nil
}

// performIncrementalSync walks the history log since the stored bookmark.
func (s *EmailService) performIncrementalSync(ctx context.Context, startHistoryID uint64) ([]*gmail.Message, uint64, error) {
	var messages []*gmail.Message
	newHistoryID := startHistoryID
	pageToken := ""

	for {
		call := s.GmailClient.Users.History.List("me").
			StartHistoryId(startHistoryID).
			HistoryTypes("messageAdded").
			Context(ctx)
		if pageToken != "" {
			call = call.PageToken(pageToken)
		}
		resp, err := call.Do()
		if err != nil {
			return nil, 0, err
		}

		for _, h := range resp.History {
			for _, added := range h.MessagesAdded {
				messages = append(messages, added.Message)
			}
		}
		if resp.HistoryId > newHistoryID {
			newHistoryID = resp.HistoryId
		}
		if resp.NextPageToken == "" {
			break
		}
		pageToken = resp.NextPageToken
	}
	return messages, newHistoryID, nil
}

// isHistoryExpiredError detects Gmail's 404 for history ids that are too old.
func isHistoryExpiredError(err error) bool {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		return apiErr.Code == 404
	}
	return false
}

func (s *EmailService) updateUserHistoryID(userID uint, historyID uint64) {
	if err := s.DB.Model(&models.User{}).Where("id = ?", userID).
		Update("last_history_id", historyID).Error; err != nil {
		log.Printf("Failed to update history bookmark: %v", err)
	}
}
