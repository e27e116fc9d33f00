package memory

import (
	"time"

	"github.com/prince62058/Unstop-Challange/internal/domain"
)

// 示例数据的固定基准时间，保证兜底数据在每次启动时一致。
var seedBase = time.Date(2025, 7, 14, 9, 0, 0, 0, time.UTC)

func ptrPriority(p domain.Priority) *domain.Priority    { return &p }
func ptrSentiment(s domain.Sentiment) *domain.Sentiment { return &s }
func ptrString(s string) *string                        { return &s }

// seed 写入 5 封示例邮件，覆盖两种优先级、三种情感和多个类别。
func (s *Store) seed() {
	emails := []domain.Email{
		{
			ID:          "sample-email-1",
			Sender:      "Sarah Johnson",
			SenderEmail: "sarah.johnson@example.com",
			Subject:     "Urgent: charged twice for my subscription",
			Body:        "I just noticed two identical charges on my card for this month's subscription. Please refund the duplicate immediately, this is unacceptable.",
			ReceivedAt:  seedBase,
			Priority:    ptrPriority(domain.PriorityUrgent),
			Sentiment:   ptrSentiment(domain.SentimentNegative),
			Category:    ptrString("Billing"),
			ExtractedInfo: domain.ExtractedInfo{
				domain.InfoIssueSummary:      "Duplicate subscription charge, refund requested",
				domain.InfoUrgencyIndicators: []interface{}{"immediately", "unacceptable"},
			},
			Status: domain.StatusProcessed,
		},
		{
			ID:          "sample-email-2",
			Sender:      "Miguel Alvarez",
			SenderEmail: "m.alvarez@example.com",
			Subject:     "Cannot reset my password",
			Body:        "The password reset link in the email keeps expiring before I can use it. Could you send me a fresh one or reset it manually?",
			ReceivedAt:  seedBase.Add(-45 * time.Minute),
			Priority:    ptrPriority(domain.PriorityNormal),
			Sentiment:   ptrSentiment(domain.SentimentNeutral),
			Category:    ptrString("Technical Support"),
			ExtractedInfo: domain.ExtractedInfo{
				domain.InfoIssueSummary: "Password reset link expires before use",
			},
			Status: domain.StatusProcessed,
		},
		{
			ID:          "sample-email-3",
			Sender:      "Emily Chen",
			SenderEmail: "emily.chen@example.com",
			Subject:     "Loving the new dashboard",
			Body:        "Just wanted to say the redesigned dashboard is fantastic. The new analytics view saves me hours every week. Keep it up!",
			ReceivedAt:  seedBase.Add(-2 * time.Hour),
			Priority:    ptrPriority(domain.PriorityNormal),
			Sentiment:   ptrSentiment(domain.SentimentPositive),
			Category:    ptrString("Feedback"),
			ExtractedInfo: domain.ExtractedInfo{
				domain.InfoIssueSummary:    "Positive feedback on dashboard redesign",
				domain.InfoProductMentions: []interface{}{"dashboard", "analytics view"},
			},
			Status: domain.StatusProcessed,
		},
		{
			ID:          "sample-email-4",
			Sender:      "David Okafor",
			SenderEmail: "d.okafor@example.com",
			Subject:     "Production API returning 500 errors",
			Body:        "Our integration has been failing since 3am with 500 responses from your API. This is blocking our entire checkout flow, we need help right now.",
			ReceivedAt:  seedBase.Add(-5 * time.Hour),
			Priority:    ptrPriority(domain.PriorityUrgent),
			Sentiment:   ptrSentiment(domain.SentimentNegative),
			Category:    ptrString("Technical Support"),
			ExtractedInfo: domain.ExtractedInfo{
				domain.InfoIssueSummary:      "API returning 500 errors, checkout blocked",
				domain.InfoProductMentions:   []interface{}{"API"},
				domain.InfoUrgencyIndicators: []interface{}{"blocking", "right now"},
			},
			Status: domain.StatusProcessed,
		},
		{
			ID:          "sample-email-5",
			Sender:      "Anna Kowalski",
			SenderEmail: "anna.k@example.com",
			Subject:     "Question about team plan limits",
			Body:        "Before we upgrade, could you clarify how many seats the team plan includes and whether unused seats roll over?",
			ReceivedAt:  seedBase.Add(-8 * time.Hour),
			Priority:    ptrPriority(domain.PriorityNormal),
			Sentiment:   ptrSentiment(domain.SentimentNeutral),
			Category:    ptrString("General"),
			ExtractedInfo: domain.ExtractedInfo{
				domain.InfoIssueSummary:         "Pre-sales question about team plan seats",
				domain.InfoCustomerRequirements: "Seat count and rollover policy for team plan",
			},
			Status: domain.StatusProcessed,
		},
	}

	for i := range emails {
		emails[i].CreatedAt = emails[i].ReceivedAt
		emails[i].UpdatedAt = emails[i].ReceivedAt
		e := emails[i]
		s.emails[e.ID] = &e
	}

	// 其中一封已回复并发送，使统计数据包含已解决样本
	sent := seedBase.Add(-90 * time.Minute)
	final := "Hi Emily, thank you so much for the kind words! We have shared your feedback with the team."
	response := domain.EmailResponse{
		ID:                "sample-response-1",
		EmailID:           "sample-email-3",
		GeneratedResponse: "Hi Emily, thank you so much for the kind words! We have shared your feedback with the team.",
		FinalResponse:     &final,
		Confidence:        92,
		Tone:              domain.ToneProfessional,
		IsEdited:          false,
		SentAt:            &sent,
		CreatedAt:         seedBase.Add(-100 * time.Minute),
		UpdatedAt:         sent,
	}
	s.responses[response.ID] = &response
	s.byEmailID[response.EmailID] = append(s.byEmailID[response.EmailID], response.ID)
}
