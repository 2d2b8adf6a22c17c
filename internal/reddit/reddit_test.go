package reddit

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func testClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	c := NewClient("tok", "test-agent")
	c.base = srv.URL
	return c
}

func TestModqueueParsesBothKinds(t *testing.T) {
	body := `{"data":{"children":[
		{"kind":"t3","data":{"name":"t3_abc","title":"A post","author":"alice","score":5,
			"selftext":"body text","url":"https://example.com","created_utc":1700000000,
			"subreddit":"golang","user_reports":[["spam",2]],"mod_reports":[["rule 1","bob"]]}},
		{"kind":"t1","data":{"name":"t1_def","author":"carol","score":-1,"body":"a comment",
			"permalink":"/r/golang/comments/x/y","created_utc":1700000100,"subreddit":"golang"}}
	]}}`

	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "bearer tok" {
			t.Errorf("auth header = %q", got)
		}
		w.Write([]byte(body))
	}))

	items, err := c.Modqueue(context.Background(), "golang", 10)
	if err != nil {
		t.Fatalf("Modqueue: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("got %d items", len(items))
	}

	post := items[0]
	if post.Kind != "submission" || post.Fullname != "t3_abc" || post.Body != "body text" {
		t.Errorf("post = %+v", post)
	}
	if len(post.UserReports) != 1 || post.UserReports[0].Reason != "spam" || post.UserReports[0].Count != 2 {
		t.Errorf("user reports = %+v", post.UserReports)
	}
	if len(post.ModReports) != 1 || post.ModReports[0].Moderator != "bob" {
		t.Errorf("mod reports = %+v", post.ModReports)
	}

	comment := items[1]
	if comment.Kind != "comment" || comment.Body != "a comment" {
		t.Errorf("comment = %+v", comment)
	}
	if comment.URL != "https://www.reddit.com/r/golang/comments/x/y" {
		t.Errorf("comment url = %q", comment.URL)
	}
}

func TestUserReportStringCounts(t *testing.T) {
	reports := parseUserReports(json.RawMessage(`[["harassment","3"]]`))
	if len(reports) != 1 || reports[0].Count != 3 {
		t.Errorf("reports = %+v", reports)
	}
}

func TestApproveSendsFullname(t *testing.T) {
	var gotID string
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/approve" {
			t.Errorf("path = %s", r.URL.Path)
		}
		r.ParseForm()
		gotID = r.PostFormValue("id")
		w.Write([]byte(`{}`))
	}))

	if err := c.Approve(context.Background(), "t3_abc"); err != nil {
		t.Fatalf("Approve: %v", err)
	}
	if gotID != "t3_abc" {
		t.Errorf("id = %q", gotID)
	}
}

func TestErrorStatusSurfaced(t *testing.T) {
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "forbidden", http.StatusForbidden)
	}))

	if err := c.Remove(context.Background(), "t1_x"); err == nil {
		t.Error("expected an error for status 403")
	}
}
