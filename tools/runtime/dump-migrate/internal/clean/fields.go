package clean

import (
	"encoding/json"
	"math"
	"regexp"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/SWASSFinance/uoking-sub001/pkg/types"
)

var (
	emailPattern    = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	usernameLetters = regexp.MustCompile(`[^a-z0-9]`)
)

// dateLayouts are tried in order against string dates
var dateLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05.999999",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
	"01/02/2006 15:04:05",
	"01/02/2006 3:04:05 PM",
	"01/02/2006",
	"1/2/2006",
	time.RFC1123Z,
	time.RFC1123,
	"Jan 2, 2006",
	"2 Jan 2006",
}

// Email lowercases and trims s and reports whether the result looks like
// an address
func Email(s string) (string, bool) {
	email := strings.ToLower(strings.TrimSpace(s))
	return email, emailPattern.MatchString(email)
}

// containsAny reports whether s contains one of patterns, ignoring case
func containsAny(s string, patterns []string) bool {
	lower := strings.ToLower(s)
	for _, p := range patterns {
		if p != "" && strings.Contains(lower, strings.ToLower(p)) {
			return true
		}
	}
	return false
}

// Name keeps letters, digits, spaces, apostrophes and hyphens, capped at
// 50 characters
func Name(s string) string {
	var b strings.Builder
	for _, r := range strings.TrimSpace(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsSpace(r) || r == '\'' || r == '-' {
			b.WriteRune(r)
		}
	}
	return truncate(strings.TrimSpace(b.String()), 50)
}

func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}

// Date converts a legacy date value. Integers and floats are unix seconds.
// Zero dates, blanks and unknown formats report false.
func Date(v types.Value) (time.Time, bool) {
	switch v.Kind() {
	case types.KindInt:
		if v.Int64() <= 0 {
			return time.Time{}, false
		}
		return time.Unix(v.Int64(), 0).UTC(), true
	case types.KindFloat:
		if v.Float64() <= 0 {
			return time.Time{}, false
		}
		sec, frac := math.Modf(v.Float64())
		return time.Unix(int64(sec), int64(frac*1e9)).UTC(), true
	case types.KindString, types.KindRaw:
		s := strings.TrimSpace(v.Text())
		if s == "" || strings.HasPrefix(s, "0000-00-00") {
			return time.Time{}, false
		}
		for _, layout := range dateLayouts {
			if t, err := time.Parse(layout, s); err == nil {
				return t.UTC(), true
			}
		}
	}
	return time.Time{}, false
}

// Truthy interprets legacy flag columns
func Truthy(v types.Value) bool {
	switch v.Kind() {
	case types.KindInt:
		return v.Int64() != 0
	case types.KindFloat:
		return v.Float64() != 0
	case types.KindString, types.KindRaw:
		switch strings.ToLower(strings.TrimSpace(v.Text())) {
		case "1", "true", "t", "yes", "y", "on":
			return true
		}
	}
	return false
}

// Amount returns a positive finite amount
func Amount(v types.Value) (float64, bool) {
	if v.Kind() == types.KindString || v.Kind() == types.KindRaw {
		v = types.Raw(strings.TrimSpace(v.Text()))
	}
	f, ok := v.Number()
	if !ok || math.IsNaN(f) || math.IsInf(f, 0) || f <= 0 {
		return 0, false
	}
	return f, true
}

var userStatuses = map[string]string{
	"active": "active", "1": "active", "enabled": "active",
	"inactive": "suspended", "suspended": "suspended", "0": "suspended",
	"banned": "banned", "disabled": "banned",
}

// UserStatus maps a legacy account state to active, suspended or banned
func UserStatus(v types.Value) string {
	if s, ok := userStatuses[strings.ToLower(strings.TrimSpace(v.Text()))]; ok {
		return s
	}
	return "active"
}

var categories = map[string]int{
	"gold": 1, "items": 2, "item": 2, "service": 3, "services": 3, "refund": 4,
}

// Category maps a legacy category to a destination category id
func Category(v types.Value) int {
	if id, ok := categories[strings.ToLower(strings.TrimSpace(v.Text()))]; ok {
		return id
	}
	return 2
}

var transactionTypes = map[string]string{
	"purchase": "purchase", "buy": "purchase",
	"sale": "sale", "sell": "sale",
	"refund": "refund", "bonus": "bonus",
}

func TransactionType(v types.Value) string {
	if t, ok := transactionTypes[strings.ToLower(strings.TrimSpace(v.Text()))]; ok {
		return t
	}
	return "purchase"
}

var transactionStatuses = map[string]string{
	"completed": "completed", "complete": "completed", "success": "completed",
	"pending": "pending", "processing": "processing", "failed": "failed",
	"cancelled": "cancelled", "canceled": "cancelled", "refunded": "refunded",
}

func TransactionStatus(v types.Value) string {
	if s, ok := transactionStatuses[strings.ToLower(strings.TrimSpace(v.Text()))]; ok {
		return s
	}
	return "pending"
}

var deliveryStatuses = map[string]string{
	"1": "delivered", "true": "delivered", "delivered": "delivered",
	"0": "pending", "false": "pending", "pending": "pending",
	"in_progress": "in_progress", "failed": "failed",
}

func DeliveryStatus(v types.Value) string {
	if s, ok := deliveryStatuses[strings.ToLower(strings.TrimSpace(v.Text()))]; ok {
		return s
	}
	return "pending"
}

type item struct {
	Name     string `json:"name"`
	Quantity int    `json:"quantity"`
}

// Items passes JSON through and wraps anything else as a single item.
// NULL and blank give nil.
func Items(v types.Value) json.RawMessage {
	s := strings.TrimSpace(v.Text())
	if s == "" {
		return nil
	}
	if (v.Kind() == types.KindString || v.Kind() == types.KindRaw) && json.Valid([]byte(s)) {
		return json.RawMessage(s)
	}
	data, err := json.Marshal([]item{{Name: s, Quantity: 1}})
	if err != nil {
		return nil
	}
	return data
}

// CharacterNames splits a comma-separated list, dropping blanks
func CharacterNames(v types.Value) []string {
	var names []string
	for _, part := range strings.Split(v.Text(), ",") {
		if name := strings.TrimSpace(part); name != "" {
			names = append(names, name)
		}
	}
	return names
}

// deriveUsername builds a username from the email local part, then the
// person's name, then a placeholder
func deriveUsername(email, firstName, lastName, fallback string) string {
	username := strings.ToLower(email)
	if at := strings.IndexByte(username, '@'); at >= 0 {
		username = username[:at]
	}
	if len(username) < 3 && firstName != "" && lastName != "" {
		username = usernameLetters.ReplaceAllString(strings.ToLower(firstName+lastName), "")
	}
	if len(username) < 3 {
		username = "user" + fallback
	}
	return truncate(username, 20)
}
