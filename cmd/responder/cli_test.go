package main

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/HUSSAIN3DEL/telegram-bot-hussain/stats"
	"github.com/HUSSAIN3DEL/telegram-bot-hussain/triggers"
	"gopkg.in/yaml.v3"
)

func TestParseIDList(t *testing.T) {
	got, err := parseIDList([]string{"1,2", " 3 ", "2", "4 5"}, "auth.admin_ids")
	if err != nil {
		t.Fatalf("parseIDList() error = %v", err)
	}
	want := []int64{1, 2, 3, 4, 5}
	if len(got) != len(want) {
		t.Fatalf("parseIDList() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("parseIDList() = %v, want %v", got, want)
		}
	}
	if _, err := parseIDList([]string{"12,abc"}, "auth.admin_ids"); err == nil || !strings.Contains(err.Error(), "auth.admin_ids") {
		t.Fatalf("parseIDList() error = %v, want key in error", err)
	}
}

func sampleSummary() stats.Summary {
	return stats.Summary{
		StartTime:      time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
		UptimeDays:     3,
		TotalSenders:   2,
		TotalFires:     9,
		TextFires:      9,
		AvgFiresPerDay: 3,
		TopSenders: []triggers.SenderProfile{
			{ID: 42, DisplayName: "Ali", Username: "ali", UsageCount: 9},
		},
	}
}

func TestWriteSummaryFormats(t *testing.T) {
	var buf bytes.Buffer
	if err := writeSummary(&buf, sampleSummary(), "json"); err != nil {
		t.Fatalf("writeSummary(json) error = %v", err)
	}
	var decoded map[string]any
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("json output invalid: %v", err)
	}
	if decoded["total_fires"] != float64(9) {
		t.Fatalf("total_fires = %v, want 9", decoded["total_fires"])
	}

	buf.Reset()
	if err := writeSummary(&buf, sampleSummary(), "yaml"); err != nil {
		t.Fatalf("writeSummary(yaml) error = %v", err)
	}
	var y map[string]any
	if err := yaml.Unmarshal(buf.Bytes(), &y); err != nil {
		t.Fatalf("yaml output invalid: %v", err)
	}
	if y["uptime_days"] != 3 {
		t.Fatalf("uptime_days = %v, want 3", y["uptime_days"])
	}

	buf.Reset()
	if err := writeSummary(&buf, sampleSummary(), "text"); err != nil {
		t.Fatalf("writeSummary(text) error = %v", err)
	}
	for _, want := range []string{"Totals (8)", "avg_fires_per_day", "Ali (@ali)"} {
		if !strings.Contains(buf.String(), want) {
			t.Fatalf("text output missing %q:\n%s", want, buf.String())
		}
	}

	if err := writeSummary(&buf, sampleSummary(), "xml"); err == nil {
		t.Fatalf("writeSummary(xml) error = nil, want error")
	}
}

func TestBuildVersionString(t *testing.T) {
	v := buildVersion{Version: "v1.2.0", Commit: "0123456789abcdef", Modified: true, GoVersion: "go1.24.0"}
	if got, want := v.String(), "responder v1.2.0 (0123456789ab, modified) go1.24.0"; got != want {
		t.Fatalf("String() = %q, want %q", got, want)
	}
	v = buildVersion{Version: "dev", GoVersion: "go1.24.0"}
	if got, want := v.String(), "responder dev go1.24.0"; got != want {
		t.Fatalf("String() = %q, want %q", got, want)
	}
}
