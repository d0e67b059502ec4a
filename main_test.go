package main

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/goccy/go-json"

	"ai_recommendation/models"
)

func TestParseArgs(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		want    command
		wantErr string
	}{
		{"serve", []string{"serve"}, command{serve: true}, ""},
		{"user only", []string{"42"}, command{userID: 42, limit: 10}, ""},
		{"user and limit", []string{"42", "5"}, command{userID: 42, limit: 5}, ""},
		{"max limit", []string{"1", "100"}, command{userID: 1, limit: 100}, ""},
		{"no args", nil, command{}, "usage"},
		{"too many args", []string{"1", "2", "3"}, command{}, "usage"},
		{"serve with extra", []string{"serve", "1"}, command{}, "usage"},
		{"non numeric user", []string{"abc"}, command{}, "user_id must be an integer"},
		{"zero user", []string{"0"}, command{}, "user_id out of range"},
		{"user above int range", []string{"2147483648"}, command{}, "user_id out of range"},
		{"zero limit", []string{"1", "0"}, command{}, "limit must be between"},
		{"limit too large", []string{"1", "101"}, command{}, "limit must be between"},
		{"non numeric limit", []string{"1", "ten"}, command{}, "limit must be an integer"},
		{"empty limit", []string{"1", ""}, command{}, "limit must be an integer"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseArgs(tt.args, 10, 100)
			if tt.wantErr != "" {
				if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
					t.Fatalf("err = %v, want containing %q", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestFailWritesErrorPayload(t *testing.T) {
	var buf bytes.Buffer
	if code := fail(&buf, errors.New("boom")); code != 1 {
		t.Errorf("exit code = %d, want 1", code)
	}

	var payload models.ErrorPayload
	if err := json.Unmarshal(buf.Bytes(), &payload); err != nil {
		t.Fatalf("decode %q: %v", buf.String(), err)
	}
	if payload.Error != "boom" {
		t.Errorf("error = %q, want boom", payload.Error)
	}
}
