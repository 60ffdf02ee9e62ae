package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/mossy-p/room-relay/internal/models"
	"github.com/mossy-p/room-relay/internal/signaling"
)

func login(t *testing.T, baseURL, user string) string {
	t.Helper()
	body := `{"username":"` + user + `","password":"pw"}`
	resp, err := http.Post(baseURL+"/api/auth/login", "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("login status=%d", resp.StatusCode)
	}
	var out models.LoginResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode login: %v", err)
	}
	if out.UserID != user || out.Token == "" {
		t.Fatalf("login=%+v", out)
	}
	return out.Token
}

func getJSON(t *testing.T, url string, v any) int {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("GET %s: %v", url, err)
	}
	defer resp.Body.Close()
	if v != nil && resp.StatusCode == http.StatusOK {
		if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
			t.Fatalf("decode %s: %v", url, err)
		}
	}
	return resp.StatusCode
}

// waitFor polls cond until it holds; REST reads are not ordered with the
// relay loop.
func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestRoomEndpoints(t *testing.T) {
	srv := newTestServer(t, testConfig())

	var list models.RoomList
	if code := getJSON(t, srv.URL+"/api/rooms", &list); code != http.StatusOK {
		t.Fatalf("status=%d", code)
	}
	if list.Rooms == nil || len(list.Rooms) != 0 {
		t.Fatalf("rooms=%v, want []", list.Rooms)
	}
	if code := getJSON(t, srv.URL+"/api/rooms/"+testRoom, nil); code != http.StatusNotFound {
		t.Fatalf("absent room status=%d, want 404", code)
	}

	a := srv.dial(t, "")
	expectRooms(t, a)
	send(t, a, `{"type":"join","payload":{"room":"`+testRoom+`"}}`)
	send(t, a, `{"type":"join","payload":{"room":"backstage"}}`)
	expectRooms(t, a, testRoom)
	expectRooms(t, a, testRoom)

	if code := getJSON(t, srv.URL+"/api/rooms", &list); code != http.StatusOK {
		t.Fatalf("status=%d", code)
	}
	if len(list.Rooms) != 1 || list.Rooms[0] != testRoom {
		t.Fatalf("rooms=%v, want [%s]", list.Rooms, testRoom)
	}

	var info models.RoomInfo
	if code := getJSON(t, srv.URL+"/api/rooms/backstage", &info); code != http.StatusOK {
		t.Fatalf("status=%d", code)
	}
	if info.PeerCount != 1 || info.Listed {
		t.Fatalf("info=%+v", info)
	}

	var stats models.Stats
	getJSON(t, srv.URL+"/health", &stats)
	if stats.Status != "ok" || stats.Peers != 1 || stats.Rooms != 2 {
		t.Fatalf("stats=%+v", stats)
	}

	_ = a.Close()
	waitFor(t, "room cleanup", func() bool {
		return getJSON(t, srv.URL+"/api/rooms/"+testRoom, nil) == http.StatusNotFound
	})
	waitFor(t, "connection cleanup", func() bool { return srv.conns.Len() == 0 })
}

func TestCreateRoomRequiresToken(t *testing.T) {
	srv := newTestServer(t, testConfig())

	resp, err := http.Post(srv.URL+"/api/rooms", "application/json", nil)
	if err != nil {
		t.Fatalf("POST: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("status=%d, want 401", resp.StatusCode)
	}

	req, _ := http.NewRequest(http.MethodPost, srv.URL+"/api/rooms", bytes.NewReader(nil))
	req.Header.Set("Authorization", "Bearer "+login(t, srv.URL, "bob"))
	resp, err = http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("POST: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("status=%d, want 201", resp.StatusCode)
	}
	var out models.CreateRoomResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !signaling.IsValidRoomID(string(out.RoomID)) {
		t.Fatalf("minted room %q is not listable", out.RoomID)
	}
}

func TestLoginRejectsBadBody(t *testing.T) {
	srv := newTestServer(t, testConfig())
	resp, err := http.Post(srv.URL+"/api/auth/login", "application/json", strings.NewReader(`{"username":""}`))
	if err != nil {
		t.Fatalf("POST: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status=%d, want 400", resp.StatusCode)
	}
}

func TestOriginFilter(t *testing.T) {
	srv := newTestServer(t, testConfig())

	for origin, want := range map[string]int{
		"http://allowed.example": http.StatusOK,
		"http://evil.example":    http.StatusForbidden,
		"":                       http.StatusOK,
	} {
		req, _ := http.NewRequest(http.MethodGet, srv.URL+"/health", nil)
		if origin != "" {
			req.Header.Set("Origin", origin)
		}
		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			t.Fatalf("GET: %v", err)
		}
		resp.Body.Close()
		if resp.StatusCode != want {
			t.Fatalf("origin %q status=%d, want %d", origin, resp.StatusCode, want)
		}
		if want == http.StatusOK && origin != "" && resp.Header.Get("Access-Control-Allow-Origin") != origin {
			t.Fatalf("missing CORS header for %q", origin)
		}
	}

	req, _ := http.NewRequest(http.MethodOptions, srv.URL+"/api/rooms", nil)
	req.Header.Set("Origin", "http://allowed.example")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("OPTIONS: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("preflight status=%d, want 204", resp.StatusCode)
	}
}
