package resolve

import (
	"testing"

	"github.com/SWASSFinance/uoking-sub001/pkg/types"
)

func legacyRow() *types.Row {
	row := types.NewRow("legacy_users")
	row.Set("UserID", types.Int(7))
	row.Set("Email_Address", types.String("Joe@X.com"))
	row.Set("user_email", types.Null())
	row.Set("name", types.String("  Joe  "))
	return row
}

func TestField(t *testing.T) {
	tests := []struct {
		name     string
		patterns []string
		want     types.Value
		wantOK   bool
	}{
		{"exact key", []string{"name"}, types.String("  Joe  "), true},
		{"case-insensitive exact", []string{"userid"}, types.Int(7), true},
		{"substring in record order", []string{"email"}, types.String("Joe@X.com"), true},
		{"earlier pattern wins", []string{"user_email", "email"}, types.Null(), true},
		{"later pattern used when earlier misses", []string{"phone", "name"}, types.String("  Joe  "), true},
		{"substring inside a longer key", []string{"mail_addr", "name"}, types.String("Joe@X.com"), true},
		{"no match", []string{"password", "pwd"}, types.Null(), false},
		{"table marker not matched by substring", []string{"table"}, types.Null(), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Field(legacyRow(), tt.patterns...)
			if ok != tt.wantOK {
				t.Fatalf("Field() ok = %v, want %v", ok, tt.wantOK)
			}
			if got != tt.want {
				t.Errorf("Field() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestFieldNilRecord(t *testing.T) {
	if _, ok := Field(nil, "email"); ok {
		t.Error("Field(nil) should not resolve")
	}
}

func TestText(t *testing.T) {
	row := legacyRow()
	if got := Text(row, "name"); got != "Joe" {
		t.Errorf("Text(name) = %q, want Joe", got)
	}
	if got := Text(row, "user_email"); got != "" {
		t.Errorf("Text(user_email) = %q, want empty", got)
	}
	if got := Text(row, "UserID"); got != "7" {
		t.Errorf("Text(UserID) = %q, want 7", got)
	}
}

func TestHasAny(t *testing.T) {
	row := legacyRow()
	if !HasAny(row, "mail") {
		t.Error("HasAny(mail) = false, want true")
	}
	if HasAny(row, "amount", "price") {
		t.Error("HasAny(amount, price) = true, want false")
	}
}
