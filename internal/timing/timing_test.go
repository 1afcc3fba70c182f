package timing

import (
	"encoding/json"
	"testing"
	"time"
)

func TestParseMs(t *testing.T) {
	tests := []struct {
		in   string
		want float64
	}{
		{"123ms", 123},
		{"1.5ms", 1.5},
		{"42", 42},
		{" 7 ms ", 7},
		{"< 1ms", 0},
		{"N/A", 0},
		{"", 0},
		{"fast", 0},
		{"-5ms", -5},
	}
	for _, tt := range tests {
		if got := ParseMs(tt.in); got != tt.want {
			t.Errorf("ParseMs(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestComputeBreakdown(t *testing.T) {
	p := Payload{
		TotalTimeMs:      200,
		TotalTimeSeconds: 0.2,
		Steps: Steps{
			Validation:         "20ms",
			DatabaseSubmission: "100ms",
			AIAnalysis:         "60ms",
			DatabaseStorage:    "20ms",
		},
	}

	bd := ComputeBreakdown(p)
	if bd.TotalMs != 200 || bd.TotalSeconds != 0.2 {
		t.Errorf("totals = %v / %v", bd.TotalMs, bd.TotalSeconds)
	}
	if len(bd.Steps) != 4 {
		t.Fatalf("got %d steps, want 4", len(bd.Steps))
	}

	wantPct := []float64{10, 50, 30, 10}
	wantName := []string{"Validation", "Database Submission", "AI Analysis", "Database Storage"}
	for i, s := range bd.Steps {
		if s.Name != wantName[i] {
			t.Errorf("step %d name = %q, want %q", i, s.Name, wantName[i])
		}
		if s.Percent != wantPct[i] {
			t.Errorf("step %q percent = %v, want %v", s.Name, s.Percent, wantPct[i])
		}
	}
}

func TestComputeBreakdownZeroTotal(t *testing.T) {
	p := Payload{Steps: Steps{Validation: "15ms", AIAnalysis: "85ms"}}

	for _, s := range ComputeBreakdown(p).Steps {
		if s.Percent != 0 {
			t.Errorf("step %q percent = %v with zero total", s.Name, s.Percent)
		}
	}
}

func TestComputeBreakdownBounds(t *testing.T) {
	tests := []struct {
		name    string
		payload Payload
	}{
		{
			name: "steps undercount the total",
			payload: Payload{
				TotalTimeMs: 1000,
				Steps:       Steps{Validation: "< 1ms", AIAnalysis: "400ms", DatabaseStorage: "N/A"},
			},
		},
		{
			name: "step exceeds the total",
			payload: Payload{
				TotalTimeMs: 100,
				Steps:       Steps{Validation: "500ms", AIAnalysis: "-20ms"},
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sum := 0.0
			for _, s := range ComputeBreakdown(tt.payload).Steps {
				if s.Percent < 0 || s.Percent > 100 {
					t.Errorf("step %q percent %v out of [0,100]", s.Name, s.Percent)
				}
				sum += s.Percent
			}
			if sum > 100 {
				t.Errorf("percent sum = %v, want <= 100", sum)
			}
		})
	}
}

func TestPayloadDecode(t *testing.T) {
	blob := `{
		"total_time_ms": 847.2,
		"total_time_seconds": 0.847,
		"steps": {
			"validation": "< 1ms",
			"database_submission": "12ms",
			"ai_analysis": "801ms",
			"database_storage": "34ms"
		},
		"agents_used": 3,
		"issues_found": 5
	}`

	var p Payload
	if err := json.Unmarshal([]byte(blob), &p); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if p.TotalTimeMs != 847.2 || p.AgentsUsed != 3 || p.IssuesFound != 5 {
		t.Errorf("payload = %+v", p)
	}
	if p.Steps.AIAnalysis != "801ms" || p.Steps.Validation != "< 1ms" {
		t.Errorf("steps = %+v", p.Steps)
	}
}

func TestFormatMs(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{0, "< 1ms"},
		{0.4, "< 1ms"},
		{1, "1ms"},
		{12, "12ms"},
		{2.7, "3ms"},
	}
	for _, tt := range tests {
		if got := FormatMs(tt.in); got != tt.want {
			t.Errorf("FormatMs(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestMs(t *testing.T) {
	if got := Ms(1500 * time.Millisecond); got != 1500 {
		t.Errorf("Ms = %v, want 1500", got)
	}
	if got := Ms(250 * time.Microsecond); got != 0.25 {
		t.Errorf("Ms = %v, want 0.25", got)
	}
}

func TestFormatDuration(t *testing.T) {
	if got := FormatDuration(42 * time.Millisecond); got != "42ms" {
		t.Errorf("FormatDuration = %q, want 42ms", got)
	}
	if got := FormatDuration(300 * time.Microsecond); got != "< 1ms" {
		t.Errorf("FormatDuration = %q, want < 1ms", got)
	}
}

func TestRows(t *testing.T) {
	p := Payload{
		TotalTimeMs: 80,
		Steps:       Steps{Validation: "20ms", AIAnalysis: "60ms"},
	}

	rows := Rows(p)
	if len(rows) != 4 {
		t.Fatalf("got %d rows, want 4", len(rows))
	}
	if rows[0][0] != "Validation" || rows[0][1] != "20ms" || rows[0][2] != "25.0%" {
		t.Errorf("validation row = %v", rows[0])
	}
	// Unreported steps display as N/A with a zero share.
	if rows[1][1] != "N/A" || rows[1][2] != "0.0%" {
		t.Errorf("missing step row = %v", rows[1])
	}
	if rows[2][2] != "75.0%" {
		t.Errorf("ai row = %v", rows[2])
	}
}
