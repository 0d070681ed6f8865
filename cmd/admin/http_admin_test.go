package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"clay.game/internal/sim/engine"
	"clay.game/internal/sim/state"
	"clay.game/internal/transport/observer"
)

func testStateResponse() observer.StateResponse {
	return observer.StateResponse{
		ProtocolVersion: observer.Version,
		CatalogDigest:   "abc",
		State: &state.GameState{
			EraID:     "stone",
			CrewCount: 3,
			Resources: map[string]state.ResourceState{
				"food":      {Amount: 40, Cap: 100},
				"materials": {Amount: 12.5, Cap: 50},
			},
		},
		Derived: engine.Derived{
			RatesPerHour:  state.Amounts{"food": 10, "materials": -2},
			AvailableCrew: 2,
			Efficiency:    1,
		},
		Advisors: observer.Advisors{Project: "Start Fire next."},
	}
}

func TestFetchState(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/state" {
			http.NotFound(w, r)
			return
		}
		_ = json.NewEncoder(w).Encode(testStateResponse())
	}))
	defer srv.Close()

	b, err := fetchState(context.Background(), srv.Client(), srv.URL+"/")
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	var resp observer.StateResponse
	if err := json.Unmarshal(b, &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.State == nil || resp.State.EraID != "stone" {
		t.Fatalf("state=%+v", resp.State)
	}
}

func TestFetchState_ErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "forbidden", http.StatusForbidden)
	}))
	defer srv.Close()

	_, err := fetchState(context.Background(), srv.Client(), srv.URL)
	if err == nil || !strings.Contains(err.Error(), "forbidden") {
		t.Fatalf("err=%v", err)
	}
}

func TestWriteStateSummary(t *testing.T) {
	var buf bytes.Buffer
	if err := writeStateSummary(&buf, testStateResponse(), ""); err != nil {
		t.Fatalf("summary: %v", err)
	}
	out := buf.String()
	for _, want := range []string{"era=stone", "crew=2/3", "food", "40.00", "+10.00", "materials", "-2.00", "Start Fire next."} {
		if !strings.Contains(out, want) {
			t.Fatalf("missing %q in:\n%s", want, out)
		}
	}

	buf.Reset()
	if err := writeStateSummary(&buf, testStateResponse(), "materials"); err != nil {
		t.Fatalf("filtered: %v", err)
	}
	if strings.Contains(buf.String(), "40.00") {
		t.Fatalf("filter leaked food:\n%s", buf.String())
	}

	if err := writeStateSummary(&buf, testStateResponse(), "gold"); err == nil {
		t.Fatalf("expected unknown resource error")
	}
	if err := writeStateSummary(&buf, observer.StateResponse{}, ""); err == nil {
		t.Fatalf("expected missing state error")
	}
}
