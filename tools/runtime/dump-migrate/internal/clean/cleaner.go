package clean

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/SWASSFinance/uoking-sub001/pkg/types"
	"github.com/SWASSFinance/uoking-sub001/tools/runtime/dump-migrate/internal/resolve"
	"github.com/SWASSFinance/uoking-sub001/tools/runtime/dump-migrate/internal/store"
)

// Cleaner maps legacy rows onto destination records
type Cleaner struct {
	rules Rules
	now   func() time.Time
	newID func() string
}

func NewCleaner(rules Rules) *Cleaner {
	return &Cleaner{
		rules: rules,
		now:   time.Now,
		newID: uuid.NewString,
	}
}

// User cleans one legacy user row. Validation failures are *SkipError.
func (c *Cleaner) User(rec resolve.Record) (store.User, error) {
	p := c.rules.User

	email, ok := Email(resolve.Text(rec, p.Email...))
	if !ok {
		return store.User{}, skip(ReasonInvalidEmail, email)
	}
	if containsAny(email, c.rules.SpamEmailPatterns) {
		return store.User{}, skip(ReasonSpamEmail, email)
	}

	u := store.User{
		ID:          c.newID(),
		Email:       email,
		FirstName:   c.name(resolve.Text(rec, p.FirstName...)),
		LastName:    c.name(resolve.Text(rec, p.LastName...)),
		DiscordName: truncate(resolve.Text(rec, p.Discord...), 100),
		MainShard:   truncate(resolve.Text(rec, p.Shard...), 100),
		Status:      UserStatus(c.field(rec, p.Status)),
		CreatedAt:   c.dateOrNow(c.field(rec, p.CreatedAt)),
	}

	if v, ok := resolve.Field(rec, p.LegacyID...); ok {
		if id, ok := legacyID(v); ok {
			u.LegacyUserID = &id
		}
	}
	if v, ok := resolve.Field(rec, p.Characters...); ok {
		u.CharacterNames = CharacterNames(v)
	}
	if v, ok := resolve.Field(rec, p.Verified...); ok {
		u.EmailVerified = Truthy(v)
	}
	if v, ok := resolve.Field(rec, p.LastLogin...); ok {
		if t, ok := Date(v); ok {
			u.LastLoginAt = &t
		}
	}

	u.Username = truncate(resolve.Text(rec, p.Username...), 50)
	if len(u.Username) < 3 {
		fallback := u.ID[:8]
		if u.LegacyUserID != nil {
			fallback = strconv.FormatInt(*u.LegacyUserID, 10)
		}
		u.Username = deriveUsername(email, u.FirstName, u.LastName, fallback)
	}

	hash, err := c.password(resolve.Text(rec, p.Password...))
	if err != nil {
		return store.User{}, err
	}
	u.PasswordHash = hash

	return u, nil
}

// Transaction cleans one legacy transaction row. emailIndex maps lowercased
// email to destination user id.
func (c *Cleaner) Transaction(rec resolve.Record, emailIndex map[string]string) (store.Transaction, error) {
	p := c.rules.Transaction

	email := strings.ToLower(resolve.Text(rec, p.Email...))
	userID, ok := emailIndex[email]
	if !ok {
		return store.Transaction{}, skip(ReasonUnresolvedUser, email)
	}

	amount, ok := Amount(c.field(rec, p.Amount))
	if !ok {
		return store.Transaction{}, skip(ReasonInvalidAmount, resolve.Text(rec, p.Amount...))
	}

	currency := strings.ToUpper(resolve.Text(rec, p.Currency...))
	if len(currency) != 3 {
		currency = "USD"
	}

	return store.Transaction{
		ID:                c.newID(),
		UserID:            userID,
		CategoryID:        Category(c.field(rec, p.Category)),
		Type:              TransactionType(c.field(rec, p.Type)),
		Status:            TransactionStatus(c.field(rec, p.Status)),
		AmountUSD:         amount,
		Currency:          currency,
		PaymentMethod:     truncate(resolve.Text(rec, p.PaymentMethod...), 50),
		Shard:             truncate(resolve.Text(rec, p.Shard...), 100),
		CharacterName:     truncate(resolve.Text(rec, p.Character...), 100),
		DeliveryLocation:  resolve.Text(rec, p.Location...),
		Items:             Items(c.field(rec, p.Items)),
		PaymentProviderID: truncate(resolve.Text(rec, p.ProviderID...), 255),
		InternalReference: truncate(resolve.Text(rec, p.Reference...), 255),
		DeliveryStatus:    DeliveryStatus(c.field(rec, p.DeliveryStatus)),
		CustomerNotes:     resolve.Text(rec, p.CustomerNotes...),
		StaffNotes:        resolve.Text(rec, p.StaffNotes...),
		CreatedAt:         c.dateOrNow(c.field(rec, p.CreatedAt)),
	}, nil
}

func (c *Cleaner) field(rec resolve.Record, patterns []string) types.Value {
	v, _ := resolve.Field(rec, patterns...)
	return v
}

func (c *Cleaner) dateOrNow(v types.Value) time.Time {
	if t, ok := Date(v); ok {
		return t
	}
	return c.now().UTC()
}

// name cleans a person's name; spam gives ""
func (c *Cleaner) name(s string) string {
	if containsAny(s, c.rules.SpamNamePatterns) {
		return ""
	}
	return Name(s)
}

// password keeps existing bcrypt hashes and hashes anything else
func (c *Cleaner) password(raw string) (string, error) {
	switch {
	case strings.HasPrefix(raw, "$2y$"):
		return "$2b$" + raw[len("$2y$"):], nil
	case strings.HasPrefix(raw, "$2a$"), strings.HasPrefix(raw, "$2b$"):
		return raw, nil
	case raw == "":
		raw = "temp_" + c.newID()
	}

	if len(raw) > 72 {
		raw = raw[:72]
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(raw), c.rules.cost())
	if err != nil {
		return "", fmt.Errorf("bcrypt hash failed: %w", err)
	}
	return string(hash), nil
}

func legacyID(v types.Value) (int64, bool) {
	switch v.Kind() {
	case types.KindInt:
		return v.Int64(), true
	case types.KindString, types.KindRaw:
		id, err := strconv.ParseInt(strings.TrimSpace(v.Text()), 10, 64)
		return id, err == nil
	}
	return 0, false
}
