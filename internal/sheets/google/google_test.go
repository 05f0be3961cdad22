package google

import (
	"context"
	"strings"
	"testing"

	"ajo/internal/core"
)

func TestSheetTitle(t *testing.T) {
	tests := []struct {
		name  string
		group string
		want  string
	}{
		{"plain", "Lagos Traders", "2024-03-01 Lagos Traders"},
		{"forbidden chars", "A/B: [x]?", "2024-03-01 A-B- (x)"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SheetTitle(core.GroupReport{GroupName: tt.group, AsOf: core.NewDate(2024, 3, 1)})
			if got != tt.want {
				t.Errorf("SheetTitle() = %q, want %q", got, tt.want)
			}
		})
	}

	long := SheetTitle(core.GroupReport{GroupName: strings.Repeat("x", 200), AsOf: core.NewDate(2024, 3, 1)})
	if len(long) != maxSheetTitle {
		t.Errorf("long title length = %d, want %d", len(long), maxSheetTitle)
	}
}

func TestQuoteSheet(t *testing.T) {
	if got := quoteSheet("Ada's group"); got != "'Ada''s group'" {
		t.Errorf("quoteSheet() = %q", got)
	}
}

func TestNew_RequiresSpreadsheetAndCredentials(t *testing.T) {
	t.Setenv("GOOGLE_APPLICATION_CREDENTIALS", "")
	if _, err := New(context.Background(), Config{}); err == nil {
		t.Error("expected error without spreadsheet ID")
	}
	if _, err := New(context.Background(), Config{SpreadsheetID: "abc"}); err == nil {
		t.Error("expected error without credentials")
	}
	if _, err := New(context.Background(), Config{SpreadsheetID: "abc", CredentialsJSON: "{not json"}); err == nil {
		t.Error("expected error for malformed credentials")
	}
}
