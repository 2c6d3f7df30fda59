package server

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ezBadminton/gobeachtennis/beachtennis"
	"github.com/ezBadminton/gobeachtennis/internal/service"
	"github.com/ezBadminton/gobeachtennis/internal/store"
	"github.com/sirupsen/logrus"
)

func newTestHandler(t *testing.T) http.Handler {
	t.Helper()
	s, err := store.Open("sqlite", "file:"+t.Name()+"?mode=memory&cache=shared")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	opts := service.Options{
		QualifiersPerGroup:       2,
		AvoidSameGroupFirstRound: true,
		SaveRetries:              1,
		Rules:                    beachtennis.Standard,
	}
	progression := service.New(s, opts, logger)

	return New(progression, logger).Routes([]string{"*"})
}

func do(t *testing.T, h http.Handler, method, path string, body any) (int, map[string]any) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		switch b := body.(type) {
		case string:
			reader = bytes.NewBufferString(b)
		default:
			js, _ := json.Marshal(b)
			reader = bytes.NewReader(js)
		}
	}

	req := httptest.NewRequest(method, path, reader)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var decoded map[string]any
	_ = json.Unmarshal(rec.Body.Bytes(), &decoded)
	return rec.Code, decoded
}

func TestTournamentRoutes(t *testing.T) {
	h := newTestHandler(t)

	teams := [][]string{
		{"a1", "a2"}, {"b1", "b2"}, {"c1", "c2"},
		{"d1", "d2"}, {"e1", "e2"}, {"f1", "f2"},
	}
	status, body := do(t, h, "POST", "/tournaments/t1/groups", map[string]any{"teams": teams, "numGroups": 2})
	if status != http.StatusCreated {
		t.Fatalf("The group stage was not created: %v %v", status, body)
	}
	matches := body["matches"].([]any)
	if len(matches) != 6 {
		t.Fatal("Two groups of three did not get 6 matches")
	}

	status, _ = do(t, h, "POST", "/tournaments/t1/elimination", nil)
	if status != http.StatusConflict {
		t.Fatal("The elimination started with an unfinished group stage")
	}

	for i, m := range matches {
		id := m.(map[string]any)["id"].(string)

		if i == 0 {
			status, _ = do(t, h, "POST", "/matches/"+id+"/result", map[string]any{"score1": 6, "score2": 6})
			if status != http.StatusUnprocessableEntity {
				t.Fatal("A draw was not rejected")
			}
			status, _ = do(t, h, "POST", "/matches/"+id+"/result", map[string]any{"score1": 6})
			if status != http.StatusUnprocessableEntity {
				t.Fatal("A missing score was not rejected")
			}
			status, _ = do(t, h, "POST", "/matches/"+id+"/result", "{\"score1\": 6,")
			if status != http.StatusBadRequest {
				t.Fatal("Malformed JSON was not rejected")
			}
		}

		status, body = do(t, h, "POST", "/matches/"+id+"/result", map[string]any{"score1": 6, "score2": 2})
		if status != http.StatusOK {
			t.Fatalf("The result was not recorded: %v %v", status, body)
		}
		match := body["match"].(map[string]any)
		if match["completed"] != true || match["winnerSlot"] != "team1" {
			t.Fatal("The recorded match is not completed")
		}
	}

	id := matches[0].(map[string]any)["id"].(string)
	status, _ = do(t, h, "POST", "/matches/"+id+"/result", map[string]any{"score1": 2, "score2": 6})
	if status != http.StatusConflict {
		t.Fatal("A completed match was overwritten")
	}

	status, body = do(t, h, "GET", "/tournaments/t1/groups/rankings", nil)
	if status != http.StatusOK || len(body["rankings"].([]any)) != 2 {
		t.Fatal("The rankings of both groups were not returned")
	}

	status, body = do(t, h, "POST", "/tournaments/t1/elimination", map[string]any{"qualifiersPerGroup": 2})
	if status != http.StatusCreated {
		t.Fatalf("The elimination stage was not started: %v %v", status, body)
	}
	if body["size"] != float64(4) || len(body["rounds"].([]any)) != 2 {
		t.Fatal("Four qualifiers did not produce a bracket of 4")
	}

	status, body = do(t, h, "GET", "/tournaments/t1/elimination", nil)
	if status != http.StatusOK || body["champion"] != nil {
		t.Fatal("The bracket could not be loaded")
	}

	status, body = do(t, h, "DELETE", "/tournaments/t1/elimination", nil)
	if status != http.StatusOK || body["deleted"] != float64(3) {
		t.Fatal("The elimination stage was not reset")
	}

	status, _ = do(t, h, "GET", "/tournaments/t1/elimination", nil)
	if status != http.StatusNotFound {
		t.Fatal("The reset bracket was still returned")
	}
}

func TestRouteErrors(t *testing.T) {
	h := newTestHandler(t)

	status, _ := do(t, h, "POST", "/matches/unknown/result", map[string]any{"score1": 6, "score2": 2})
	if status != http.StatusNotFound {
		t.Fatal("A result for an unknown match did not return 404")
	}

	status, _ = do(t, h, "GET", "/tournaments/none/groups/rankings", nil)
	if status != http.StatusNotFound {
		t.Fatal("The rankings of a missing group stage did not return 404")
	}

	teams := [][]string{{"a1", "a2"}, {"a1", "a2"}}
	status, _ = do(t, h, "POST", "/tournaments/t1/groups", map[string]any{"teams": teams, "numGroups": 2})
	if status != http.StatusUnprocessableEntity {
		t.Fatal("Too many groups for the teams were not rejected")
	}

	teams = [][]string{{"a1", "a2"}, {"b1", "b2"}, {"a2", "a1"}}
	status, _ = do(t, h, "POST", "/tournaments/t1/groups", map[string]any{"teams": teams, "numGroups": 1})
	if status != http.StatusUnprocessableEntity {
		t.Fatal("A team entered twice was not rejected")
	}

	status, _ = do(t, h, "POST", "/tournaments/t1/groups", map[string]any{"teams": [][]string{{"a1"}}, "numGroups": 1})
	if status != http.StatusUnprocessableEntity {
		t.Fatal("A group stage with a single team passed validation")
	}

	status, _ = do(t, h, "POST", "/tournaments/t1/groups", map[string]any{"teams": [][]string{{"a1"}, {"b1"}}, "numGroups": 1, "extra": true})
	if status != http.StatusBadRequest {
		t.Fatal("An unknown field was accepted")
	}
}

func TestCORSPreflight(t *testing.T) {
	h := newTestHandler(t)

	req := httptest.NewRequest("OPTIONS", "/tournaments/t1/elimination", nil)
	req.Header.Set("Origin", "http://example.com")
	req.Header.Set("Access-Control-Request-Method", "POST")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Fatal("The preflight request was not allowed")
	}
}
