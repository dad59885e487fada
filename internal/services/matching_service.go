package services

import (
	"strings"

	"github.com/Abhishek-089/Hireoo-sub001/internal/dtos"
	"github.com/Abhishek-089/Hireoo-sub001/internal/models"
)

// MatchThreshold is the minimum score at which a captured post becomes a
// match worth an outreach slot.
const MatchThreshold = 2

type MatcherService struct{}

func NewMatcherService() *MatcherService {
	return &MatcherService{}
}

// ScorePost compares the user's profile keywords against the extracted post.
// One point per profile keyword found in the post's skills, plus one if the
// role title mentions a keyword. Dumb on purpose; the LLM already did the
// heavy lifting in extraction.
func (s *MatcherService) ScorePost(user *models.User, post *dtos.HiringPost) int {
	keywords := splitKeywords(user.ProfileKeywords)
	if len(keywords) == 0 {
		return 0
	}

	skills := make(map[string]bool, len(post.Skills))
	for _, sk := range post.Skills {
		skills[strings.ToLower(strings.TrimSpace(sk))] = true
	}
	titleLower := strings.ToLower(post.RoleTitle)

	score := 0
	for _, kw := range keywords {
		// SAFETY CHECK: skip very short keywords to avoid false positives.
		// "Go" or "R" would match almost any title.
		if len(kw) < 3 {
			if skills[kw] {
				score++
			}
			continue
		}
		if skills[kw] {
			score++
		}
		if strings.Contains(titleLower, kw) {
			score++
		}
	}
	return score
}

func splitKeywords(raw string) []string {
	var out []string
	for _, kw := range strings.Split(raw, ",") {
		kw = strings.ToLower(strings.TrimSpace(kw))
		if kw != "" {
			out = append(out, kw)
		}
	}
	return out
}
