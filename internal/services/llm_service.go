package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"

	"github.com/Abhishek-089/Hireoo-sub001/internal/dtos"
	"github.com/Abhishek-089/Hireoo-sub001/internal/models"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/googleai"
)

type LLMService struct {
	Client llms.Model
}

func NewLLMService(apiKey string) (*LLMService, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY is empty")
	}

	ctx := context.Background()
	llm, err := googleai.New(ctx,
		googleai.WithAPIKey(apiKey),
		googleai.WithDefaultModel("gemini-2.5-flash"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	return &LLMService{Client: llm}, nil
}

const hiringPostPrompt = `
You are an expert Hiring Post Extraction Agent. Your task is to analyze the provided raw HTML/Text of a social-network hiring post and extract structured data.

### INSTRUCTIONS:
1. **Analyze** the text to identify the hiring details.
2. **Ignore** reactions, comment threads, "suggested posts" and site chrome.
3. **Extract** the following fields strictly.
4. **Format** the output as valid JSON only. Do not wrap the output in markdown code blocks.

### OUTPUT SCHEMA:
{
    "company_name": "Name of the hiring company",
    "role_title": "Role being hired for (e.g., Senior Backend Engineer)",
    "location": "Location or 'Remote'",
    "recruiter_email": "Contact email if the post mentions one, otherwise null",
    "skills": ["Array", "of", "technologies", "mentioned"],
    "summary": "A short clean summary of the post. Remove HTML tags."
}

### CONSTRAINT:
If a piece of information is missing, set the value to null. Do not hallucinate or guess.

### RAW CONTENT:
%s
`

// ExtractHiringPost takes the raw captured post and returns structured fields.
func (s *LLMService) ExtractHiringPost(ctx context.Context, rawHTML string) (*dtos.HiringPost, error) {
	if len(rawHTML) > 20000 {
		rawHTML = rawHTML[:20000]
	}

	resp, err := llms.GenerateFromSinglePrompt(ctx, s.Client, fmt.Sprintf(hiringPostPrompt, rawHTML))
	if err != nil {
		return nil, err
	}

	var post dtos.HiringPost
	if err := json.Unmarshal([]byte(stripCodeFences(resp)), &post); err != nil {
		log.Printf("LLM returned non-JSON extraction output: %v", err)
		return nil, fmt.Errorf("failed to parse extraction output: %w", err)
	}
	return &post, nil
}

const outreachPrompt = `
You are a career outreach assistant writing a short cold email on behalf of a job seeker.

### CANDIDATE PROFILE KEYWORDS:
%s

### HIRING POST:
Company: %s
Role: %s
Summary: %s

### INSTRUCTIONS:
1. Write a concise, specific cold-outreach email (under 150 words) from the candidate to the recruiter.
2. Reference the role and one or two overlapping skills. No flattery, no filler.
3. Output valid JSON only, no markdown code blocks:
{"subject": "...", "body": "..."}
`

// GenerateOutreach produces the subject and body of the cold email for a match.
func (s *LLMService) GenerateOutreach(ctx context.Context, user *models.User, match *models.JobMatch) (subject, body string, err error) {
	prompt := fmt.Sprintf(outreachPrompt, user.ProfileKeywords, match.CompanyName, match.RoleTitle, match.Snippet)
	resp, err := llms.GenerateFromSinglePrompt(ctx, s.Client, prompt)
	if err != nil {
		return "", "", err
	}

	var out struct {
		Subject string `json:"subject"`
		Body    string `json:"body"`
	}
	if err := json.Unmarshal([]byte(stripCodeFences(resp)), &out); err != nil {
		return "", "", fmt.Errorf("failed to parse outreach output: %w", err)
	}
	if out.Subject == "" || out.Body == "" {
		return "", "", fmt.Errorf("outreach output missing subject or body")
	}
	return out.Subject, out.Body, nil
}

// stripCodeFences removes a markdown ```json fence if the model ignored the
// no-fences instruction, which it does often enough to matter.
func stripCodeFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
