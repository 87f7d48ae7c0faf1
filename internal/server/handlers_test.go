package server

import (
	"bubblerush/internal/metrics"
	"bubblerush/internal/session"
	"bubblerush/internal/sessions"
	"bubblerush/internal/wshub"
	"bufio"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"
)

func newTestServer(t *testing.T) (*Server, *httptest.Server) {
	t.Helper()
	collector := metrics.NewCollector()
	store := sessions.NewStore(session.DefaultConfig(), time.Hour, collector)

	tmpl, err := ParseTemplates("../../templates")
	if err != nil {
		t.Fatal(err)
	}

	srv := &Server{
		Sessions:          store,
		Tmpl:              tmpl,
		Metrics:           collector,
		DefaultDifficulty: 4,
	}

	ts := httptest.NewServer(srv.Routes())
	t.Cleanup(func() {
		ts.Close()
		store.Close()
	})
	return srv, ts
}

func newClientWithJar(t *testing.T) *http.Client {
	t.Helper()
	jar, err := cookiejar.New(nil)
	if err != nil {
		t.Fatal(err)
	}
	return &http.Client{
		Jar: jar,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
}

// createSession starts a game through the API and returns the session ID from the cookie.
func createSession(t *testing.T, client *http.Client, baseURL string, difficulty int) string {
	t.Helper()
	resp, err := client.PostForm(baseURL+"/sessions/create", url.Values{
		"difficulty": {fmt.Sprint(difficulty)},
	})
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusSeeOther {
		t.Fatalf("create status = %d, want %d", resp.StatusCode, http.StatusSeeOther)
	}

	u, _ := url.Parse(baseURL)
	for _, c := range client.Jar.Cookies(u) {
		if c.Name == sessionCookie {
			return c.Value
		}
	}
	t.Fatal("session_id cookie not set after create")
	return ""
}

func postClick(t *testing.T, client *http.Client, baseURL string, x, y int) wshub.ServerMessage {
	t.Helper()
	resp, err := client.PostForm(baseURL+"/play/click", url.Values{
		"x": {fmt.Sprint(x)},
		"y": {fmt.Sprint(y)},
	})
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("click status = %d, want %d", resp.StatusCode, http.StatusOK)
	}
	var msg wshub.ServerMessage
	if err := json.NewDecoder(resp.Body).Decode(&msg); err != nil {
		t.Fatal(err)
	}
	return msg
}

func TestHandleHome(t *testing.T) {
	_, ts := newTestServer(t)

	resp, err := http.Get(ts.URL + "/")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusOK)
	}
}

func TestHandleHome_RedirectsWithSession(t *testing.T) {
	_, ts := newTestServer(t)
	client := newClientWithJar(t)
	createSession(t, client, ts.URL, 5)

	resp, err := client.Get(ts.URL + "/")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusSeeOther {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusSeeOther)
	}
	if loc := resp.Header.Get("Location"); loc != "/play" {
		t.Errorf("Location = %q, want /play", loc)
	}
}

func TestHandleCreateSession(t *testing.T) {
	srv, ts := newTestServer(t)
	client := newClientWithJar(t)
	id := createSession(t, client, ts.URL, 6)

	sess := srv.Sessions.Get(id)
	if sess == nil {
		t.Fatal("session not stored")
	}
	snap, err := sess.Runner.Snapshot(t.Context())
	if err != nil {
		t.Fatal(err)
	}
	if snap.Difficulty != 6 {
		t.Errorf("Difficulty = %d, want 6", snap.Difficulty)
	}
}

func TestHandleCreateSession_InvalidDifficulty(t *testing.T) {
	srv, ts := newTestServer(t)
	client := newClientWithJar(t)

	resp, err := client.PostForm(ts.URL+"/sessions/create", url.Values{"difficulty": {"9"}})
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusBadRequest)
	}
	if n := len(srv.Sessions.List()); n != 0 {
		t.Errorf("sessions = %d, want 0", n)
	}
}

func TestHandlePlay(t *testing.T) {
	_, ts := newTestServer(t)
	client := newClientWithJar(t)

	resp, err := client.Get(ts.URL + "/play")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusSeeOther {
		t.Errorf("without session: status = %d, want %d", resp.StatusCode, http.StatusSeeOther)
	}

	createSession(t, client, ts.URL, 5)
	resp, err = client.Get(ts.URL + "/play")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("with session: status = %d, want %d", resp.StatusCode, http.StatusOK)
	}
}

func TestHandleClick_PlaceAndPop(t *testing.T) {
	_, ts := newTestServer(t)
	client := newClientWithJar(t)
	createSession(t, client, ts.URL, 4)

	for i := 0; i < 4; i++ {
		msg := postClick(t, client, ts.URL, 100+i*100, 100)
		if msg.Outcome != "placed" {
			t.Fatalf("placement %d: outcome = %q, want placed", i, msg.Outcome)
		}
	}

	msg := postClick(t, client, ts.URL, 100, 100)
	if msg.Outcome != "hit" {
		t.Errorf("outcome = %q, want hit", msg.Outcome)
	}
	if msg.State == nil || msg.State.Score != 1 {
		t.Errorf("state after hit = %+v, want score 1", msg.State)
	}
	if msg.State != nil && msg.State.State != "running" {
		t.Errorf("State = %q, want running", msg.State.State)
	}

	msg = postClick(t, client, ts.URL, 700, 500)
	if msg.Outcome != "miss" {
		t.Errorf("outcome = %q, want miss", msg.Outcome)
	}
}

func TestHandleClick_Overlap(t *testing.T) {
	_, ts := newTestServer(t)
	client := newClientWithJar(t)
	createSession(t, client, ts.URL, 4)

	postClick(t, client, ts.URL, 100, 100)
	msg := postClick(t, client, ts.URL, 110, 100)
	if msg.Outcome != "rejected" {
		t.Errorf("outcome = %q, want rejected", msg.Outcome)
	}
	if msg.Error != session.ErrPositionOverlap.Error() {
		t.Errorf("error = %q, want %q", msg.Error, session.ErrPositionOverlap.Error())
	}
	if msg.State == nil || len(msg.State.Targets) != 1 {
		t.Errorf("state = %+v, want 1 target", msg.State)
	}
}

func TestHandleClick_BadInput(t *testing.T) {
	_, ts := newTestServer(t)
	client := newClientWithJar(t)

	resp, err := client.PostForm(ts.URL+"/play/click", url.Values{"x": {"1"}, "y": {"1"}})
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("without session: status = %d, want %d", resp.StatusCode, http.StatusBadRequest)
	}

	createSession(t, client, ts.URL, 4)
	resp, err = client.PostForm(ts.URL+"/play/click", url.Values{"x": {"abc"}, "y": {"1"}})
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("bad x: status = %d, want %d", resp.StatusCode, http.StatusBadRequest)
	}
}

func TestHandleReset(t *testing.T) {
	_, ts := newTestServer(t)
	client := newClientWithJar(t)
	createSession(t, client, ts.URL, 4)
	postClick(t, client, ts.URL, 100, 100)

	resp, err := client.PostForm(ts.URL+"/play/reset", nil)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	var msg wshub.ServerMessage
	if err := json.NewDecoder(resp.Body).Decode(&msg); err != nil {
		t.Fatal(err)
	}
	if msg.State == nil {
		t.Fatal("reset reply has no state")
	}
	if len(msg.State.Targets) != 0 || msg.State.Round != 1 || msg.State.RemainingTime != 15 {
		t.Errorf("after reset = %+v", msg.State)
	}
	if msg.State.Difficulty != 4 {
		t.Errorf("Difficulty = %d, want 4 kept across reset", msg.State.Difficulty)
	}
}

func TestHandleDifficulty(t *testing.T) {
	_, ts := newTestServer(t)
	client := newClientWithJar(t)
	createSession(t, client, ts.URL, 4)

	post := func(d string) int {
		resp, err := client.PostForm(ts.URL+"/play/difficulty", url.Values{"difficulty": {d}})
		if err != nil {
			t.Fatal(err)
		}
		resp.Body.Close()
		return resp.StatusCode
	}

	if code := post("6"); code != http.StatusOK {
		t.Errorf("difficulty 6: status = %d, want %d", code, http.StatusOK)
	}
	if code := post("3"); code != http.StatusBadRequest {
		t.Errorf("difficulty 3: status = %d, want %d", code, http.StatusBadRequest)
	}
	if code := post("x"); code != http.StatusBadRequest {
		t.Errorf("difficulty x: status = %d, want %d", code, http.StatusBadRequest)
	}

	postClick(t, client, ts.URL, 100, 100)
	if code := post("5"); code != http.StatusConflict {
		t.Errorf("after placement: status = %d, want %d", code, http.StatusConflict)
	}
}

func TestHandleQuit(t *testing.T) {
	srv, ts := newTestServer(t)
	client := newClientWithJar(t)
	id := createSession(t, client, ts.URL, 5)

	resp, err := client.PostForm(ts.URL+"/play/quit", nil)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusSeeOther {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusSeeOther)
	}
	if srv.Sessions.Get(id) != nil {
		t.Error("session should be removed after quit")
	}

	u, _ := url.Parse(ts.URL)
	for _, c := range client.Jar.Cookies(u) {
		if c.Name == sessionCookie {
			t.Error("session_id cookie should be cleared")
		}
	}
}

func TestHandleState(t *testing.T) {
	_, ts := newTestServer(t)
	client := newClientWithJar(t)
	createSession(t, client, ts.URL, 5)

	resp, err := client.Get(ts.URL + "/play/state")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if ct := resp.Header.Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q, want application/json", ct)
	}

	var msg wshub.ServerMessage
	if err := json.NewDecoder(resp.Body).Decode(&msg); err != nil {
		t.Fatal(err)
	}
	if msg.State == nil || msg.State.State != "placement" || msg.State.Difficulty != 5 {
		t.Errorf("state = %+v", msg.State)
	}
}

func TestHandleEvents(t *testing.T) {
	_, ts := newTestServer(t)
	client := newClientWithJar(t)
	createSession(t, client, ts.URL, 4)

	resp, err := client.Get(ts.URL + "/play/events")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if ct := resp.Header.Get("Content-Type"); ct != "text/event-stream" {
		t.Errorf("Content-Type = %q, want text/event-stream", ct)
	}

	lines := make(chan string, 64)
	go func() {
		scanner := bufio.NewScanner(resp.Body)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
		close(lines)
	}()

	expect := func(want string) {
		t.Helper()
		timeout := time.After(2 * time.Second)
		for {
			select {
			case line, ok := <-lines:
				if !ok {
					t.Fatalf("stream closed before %q", want)
				}
				if line == want {
					return
				}
			case <-timeout:
				t.Fatalf("timed out waiting for %q", want)
			}
		}
	}

	expect("event: state")

	for i := 0; i < 4; i++ {
		postClick(t, client, ts.URL, 100+i*100, 100)
	}
	expect("event: transition")
}

func TestHandleHealth(t *testing.T) {
	_, ts := newTestServer(t)

	resp, err := http.Get(ts.URL + "/health")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	var body map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatal(err)
	}
	if body["status"] != "ok" {
		t.Errorf("status = %v, want ok", body["status"])
	}
}

func TestHandleMetrics(t *testing.T) {
	_, ts := newTestServer(t)
	client := newClientWithJar(t)
	createSession(t, client, ts.URL, 4)
	postClick(t, client, ts.URL, 100, 100)

	resp, err := http.Get(ts.URL + "/metrics")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	var sb strings.Builder
	scanner := bufio.NewScanner(resp.Body)
	for scanner.Scan() {
		sb.WriteString(scanner.Text())
		sb.WriteString("\n")
	}
	body := sb.String()
	if !strings.Contains(body, `bubblerush_clicks_total{outcome="placed"} 1`) {
		t.Errorf("metrics missing placed click counter:\n%s", body)
	}
	if !strings.Contains(body, "bubblerush_sessions_open 1") {
		t.Errorf("metrics missing open session gauge:\n%s", body)
	}
}

func TestSessionIsolation_TwoPlayers(t *testing.T) {
	_, ts := newTestServer(t)
	alice := newClientWithJar(t)
	bob := newClientWithJar(t)
	createSession(t, alice, ts.URL, 4)
	createSession(t, bob, ts.URL, 4)

	postClick(t, alice, ts.URL, 100, 100)
	msg := postClick(t, bob, ts.URL, 100, 100)
	if msg.Outcome != "placed" {
		t.Errorf("bob outcome = %q, want placed", msg.Outcome)
	}
	if msg.State == nil || len(msg.State.Targets) != 1 {
		t.Errorf("bob targets = %+v, want 1", msg.State)
	}
}
