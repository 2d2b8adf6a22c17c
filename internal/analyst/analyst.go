// Package analyst wraps the language-model calls: per-item moderation
// verdicts, follow-up chat, and removal reason drafting.
package analyst

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"modqueue/internal/protocol"
	"modqueue/internal/reddit"
)

const defaultModel = openai.GPT4oMini

// Verdict is the analyst's recommendation for one item.
type Verdict struct {
	Action     string `json:"action"`     // APPROVE, REMOVE, SKIP
	Reason     string `json:"reason"`
	Confidence int    `json:"confidence"` // 1..10
}

// Fallback is the verdict used when the model call fails or returns
// something unparseable: never act on content without a real analysis.
func Fallback(err error) Verdict {
	return Verdict{
		Action:     "APPROVE",
		Reason:     fmt.Sprintf("AI analysis unavailable (%v), defaulting to approve for safety", err),
		Confidence: 1,
	}
}

// completer is the slice of the OpenAI client the analyst uses.
type completer interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// Analyst issues moderation prompts against a chat model.
type Analyst struct {
	client completer
	model  string

	// rules holds per-subreddit guidance folded into the system prompt.
	rules map[string]string
}

// New creates an analyst for the given API key.
func New(apiKey string) *Analyst {
	return &Analyst{
		client: openai.NewClient(apiKey),
		model:  defaultModel,
		rules:  map[string]string{},
	}
}

// SetRules installs subreddit-specific moderation guidance. Keys are
// lowercase subreddit names.
func (a *Analyst) SetRules(rules map[string]string) {
	a.rules = rules
}

func (a *Analyst) subredditRules(subreddit string) string {
	if r, ok := a.rules[strings.ToLower(subreddit)]; ok {
		return "\n\nSubreddit-specific guidance:\n" + r
	}
	return ""
}

func describeItem(it reddit.Item) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Type: %s\nAuthor: u/%s\nScore: %d\n", it.Kind, it.Author, it.Score)
	if it.Title != "" {
		fmt.Fprintf(&b, "Title: %s\n", it.Title)
	}
	fmt.Fprintf(&b, "Content: %s\n", it.Body)
	for _, r := range it.UserReports {
		fmt.Fprintf(&b, "User report: %s (x%d)\n", r.Reason, r.Count)
	}
	for _, r := range it.ModReports {
		fmt.Fprintf(&b, "Mod report: %s (by %s)\n", r.Reason, r.Moderator)
	}
	if it.RemovalNote != "" {
		fmt.Fprintf(&b, "Previously removed: %s\n", it.RemovalNote)
	}
	return b.String()
}

func describeContext(ctx protocol.ItemContext) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Type: %s\nAuthor: u/%s\n", ctx.Kind, ctx.Author)
	if ctx.Title != "" {
		fmt.Fprintf(&b, "Title: %s\n", ctx.Title)
	}
	fmt.Fprintf(&b, "Content: %s\n", ctx.Content)
	if ctx.Action != "" {
		fmt.Fprintf(&b, "AI decision: %s (%s)\n", ctx.Action, ctx.Reason)
	}
	for _, r := range ctx.UserReports {
		fmt.Fprintf(&b, "User report: %s (x%d)\n", r.Reason, r.Count)
	}
	for _, r := range ctx.ModReports {
		fmt.Fprintf(&b, "Mod report: %s (by %s)\n", r.Reason, r.Moderator)
	}
	return b.String()
}

func (a *Analyst) complete(ctx context.Context, system, user string) (string, error) {
	resp, err := a.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: a.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: user},
		},
	})
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("empty completion")
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

const decideSystem = `You are an experienced Reddit moderator reviewing the modqueue for r/%s.
Evaluate the item against typical community rules and Reddit's content policy.%s
Respond with ONLY a JSON object:
{"action": "APPROVE" or "REMOVE", "reason": "one sentence", "confidence": 1-10}`

// Decide asks for a moderation verdict on one item.
func (a *Analyst) Decide(ctx context.Context, it reddit.Item) (Verdict, error) {
	system := fmt.Sprintf(decideSystem, it.Subreddit, a.subredditRules(it.Subreddit))
	out, err := a.complete(ctx, system, describeItem(it))
	if err != nil {
		return Verdict{}, err
	}
	return parseVerdict(out)
}

// parseVerdict extracts the JSON verdict, tolerating fenced or prefixed
// model output.
func parseVerdict(out string) (Verdict, error) {
	start := strings.Index(out, "{")
	end := strings.LastIndex(out, "}")
	if start < 0 || end <= start {
		return Verdict{}, fmt.Errorf("no JSON object in model output")
	}
	var v Verdict
	if err := json.Unmarshal([]byte(out[start:end+1]), &v); err != nil {
		return Verdict{}, fmt.Errorf("parse verdict: %w", err)
	}
	v.Action = strings.ToUpper(strings.TrimSpace(v.Action))
	if v.Action != "APPROVE" && v.Action != "REMOVE" && v.Action != "SKIP" {
		return Verdict{}, fmt.Errorf("unexpected action %q", v.Action)
	}
	if v.Confidence < 1 {
		v.Confidence = 1
	}
	if v.Confidence > 10 {
		v.Confidence = 10
	}
	return v, nil
}

const chatSystem = `You are an experienced Reddit moderator for r/%s discussing a moderation decision
with a fellow moderator. The item under discussion:

%s
Answer the moderator's question concisely.%s`

// Chat answers a moderator's follow-up question about one item.
func (a *Analyst) Chat(ctx context.Context, message string, ic protocol.ItemContext) (string, error) {
	system := fmt.Sprintf(chatSystem, ic.Subreddit, describeContext(ic), a.subredditRules(ic.Subreddit))
	return a.complete(ctx, system, message)
}

const reasonSystem = `You are a Reddit moderator for r/%s writing a removal reason that will be posted
publicly as a reply to the removed content. The item:

%s
Write a polite, firm removal message (2-3 sentences) citing the likely rule violation.
Address the author directly. Do not include a signature.%s`

// RemovalReason drafts a public removal message for one item.
func (a *Analyst) RemovalReason(ctx context.Context, ic protocol.ItemContext) (string, error) {
	system := fmt.Sprintf(reasonSystem, ic.Subreddit, describeContext(ic), a.subredditRules(ic.Subreddit))
	return a.complete(ctx, system, "Write the removal reason.")
}
