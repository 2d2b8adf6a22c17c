package analyst

import (
	"context"
	"strings"
	"testing"

	openai "github.com/sashabaranov/go-openai"

	"modqueue/internal/reddit"
)

// fakeCompleter returns a canned completion and records the request.
type fakeCompleter struct {
	reply string
	err   error
	last  openai.ChatCompletionRequest
}

func (f *fakeCompleter) CreateChatCompletion(_ context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	f.last = req
	if f.err != nil {
		return openai.ChatCompletionResponse{}, f.err
	}
	return openai.ChatCompletionResponse{
		Choices: []openai.ChatCompletionChoice{
			{Message: openai.ChatCompletionMessage{Content: f.reply}},
		},
	}, nil
}

func TestParseVerdict(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want Verdict
		ok   bool
	}{
		{"plain", `{"action":"REMOVE","reason":"spam","confidence":8}`, Verdict{"REMOVE", "spam", 8}, true},
		{"fenced", "```json\n{\"action\":\"approve\",\"reason\":\"fine\",\"confidence\":5}\n```", Verdict{"APPROVE", "fine", 5}, true},
		{"clamped", `{"action":"APPROVE","reason":"x","confidence":99}`, Verdict{"APPROVE", "x", 10}, true},
		{"prose", "I think this is fine.", Verdict{}, false},
		{"bad action", `{"action":"DELETE","reason":"x","confidence":5}`, Verdict{}, false},
	}

	for _, tc := range cases {
		got, err := parseVerdict(tc.in)
		if tc.ok && err != nil {
			t.Errorf("%s: %v", tc.name, err)
			continue
		}
		if !tc.ok {
			if err == nil {
				t.Errorf("%s: expected error, got %+v", tc.name, got)
			}
			continue
		}
		if got != tc.want {
			t.Errorf("%s: got %+v, want %+v", tc.name, got, tc.want)
		}
	}
}

func TestDecidePromptCarriesItemAndRules(t *testing.T) {
	fake := &fakeCompleter{reply: `{"action":"APPROVE","reason":"ok","confidence":7}`}
	a := &Analyst{client: fake, model: defaultModel, rules: map[string]string{
		"golang": "No surveys without mod approval.",
	}}

	v, err := a.Decide(context.Background(), reddit.Item{
		Subreddit:   "golang",
		Kind:        "comment",
		Author:      "alice",
		Body:        "check out my survey",
		UserReports: []reddit.Report{{Reason: "spam", Count: 2}},
	})
	if err != nil {
		t.Fatalf("Decide: %v", err)
	}
	if v.Action != "APPROVE" || v.Confidence != 7 {
		t.Errorf("verdict = %+v", v)
	}

	system := fake.last.Messages[0].Content
	if !strings.Contains(system, "r/golang") || !strings.Contains(system, "No surveys") {
		t.Errorf("system prompt missing subreddit or rules:\n%s", system)
	}
	user := fake.last.Messages[1].Content
	if !strings.Contains(user, "check out my survey") || !strings.Contains(user, "spam (x2)") {
		t.Errorf("user prompt missing item details:\n%s", user)
	}
}

func TestFallbackVerdict(t *testing.T) {
	v := Fallback(context.DeadlineExceeded)
	if v.Action != "APPROVE" || v.Confidence != 1 {
		t.Errorf("fallback = %+v", v)
	}
}
