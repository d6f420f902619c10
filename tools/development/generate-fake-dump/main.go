package main

import (
	"bufio"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"golang.org/x/crypto/bcrypt"

	"github.com/SWASSFinance/uoking-sub001/pkg/dialect"
)

const (
	// Rows per INSERT statement, like mysqldump --extended-insert
	rowsPerInsert = 25

	// Time ranges
	maxMonthsBack = 60
)

var (
	shards         = []string{"Atlantic", "Pacific", "Europa", "Chesapeake", "Great Lakes", "Catskills"}
	paymentMethods = []string{"paypal", "stripe", "crypto", "giftcard"}
	orderStatuses  = []string{"completed", "pending", "failed", "refunded", "cancelled"}
	orderWeights   = []int{70, 12, 8, 6, 4}
	categories     = []string{"gold", "items", "accounts", "houses", "services"}
	locations      = []string{"Britain Bank", "Luna Bank", "Trinsic Bank", "In-game Trade"}
	spamDomains    = []string{"facebook.com", "yandex.ru"}
)

// options controls the volume and shape of the generated dump
type options struct {
	Users     int
	Orders    int
	News      int
	Seed      uint64
	BadRatio  float64 // share of users and orders that the cleaner should skip
	Reference time.Time
}

type legacyUser struct {
	ID             int64
	Email          string
	Username       string
	Password       string
	FirstName      string
	LastName       string
	Discord        string
	Shard          string
	CharacterNames string
	Status         string
	Verified       bool
	JoinedOn       time.Time
	LastLogin      *time.Time
}

type legacyOrder struct {
	ID            int64
	Email         string
	Amount        string
	Currency      string
	Status        string
	PaymentMethod string
	Category      string
	Shard         string
	Character     string
	Location      string
	Items         string
	PaymentID     string
	Notes         string
	AdminNotes    string
	Delivered     bool
	OrderDate     time.Time
}

type newsPost struct {
	ID        int64
	Title     string
	Body      string
	Author    string
	CreatedAt time.Time
}

func main() {
	dialectName := flag.String("dialect", "mysql", "SQL dialect: mysql, postgresql or sqlite")
	users := flag.Int("users", 200, "Number of legacy users")
	orders := flag.Int("orders", 800, "Number of legacy orders")
	news := flag.Int("news", 20, "Number of news posts")
	seed := flag.Uint64("seed", 0, "Random seed (0 = time based)")
	badRatio := flag.Float64("bad-ratio", 0.05, "Share of rows the migration should skip")
	output := flag.String("output", "", "Output file (default stdout)")
	flag.Parse()

	d, err := dialect.FromName(*dialectName)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		fmt.Fprintf(os.Stderr, "Supported dialects: mysql, postgresql, sqlite\n")
		os.Exit(1)
	}

	if *seed == 0 {
		*seed = uint64(time.Now().UnixNano())
	}

	var out io.Writer = os.Stdout
	if *output != "" {
		f, err := os.Create(*output)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		defer f.Close()
		out = f
	}

	w := bufio.NewWriter(out)
	err = generate(w, d, options{
		Users:     *users,
		Orders:    *orders,
		News:      *news,
		Seed:      *seed,
		BadRatio:  *badRatio,
		Reference: time.Now().UTC(),
	})
	if err == nil {
		err = w.Flush()
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// generate writes a complete legacy dump: header, DDL and extended INSERTs
func generate(w io.Writer, d dialect.Dialect, opts options) error {
	f := gofakeit.New(opts.Seed)

	users, err := generateUsers(f, opts)
	if err != nil {
		return err
	}
	orders := generateOrders(f, users, opts)
	news := generateNews(f, opts)

	var b strings.Builder
	writeHeader(&b, d, opts)
	writeDDL(&b, d)
	writeUsers(&b, d, users)
	writeOrders(&b, d, orders)
	writeNews(&b, d, news)
	if d.Name() == "mysql" {
		b.WriteString("\nSET FOREIGN_KEY_CHECKS = 1;\n")
	}

	_, err = io.WriteString(w, b.String())
	return err
}

func writeHeader(b *strings.Builder, d dialect.Dialect, opts options) {
	fmt.Fprintf(b, "-- Legacy shop dump generated %s\n", opts.Reference.Format(time.RFC3339))
	fmt.Fprintf(b, "-- dialect: %s, seed: %d\n\n", d.Name(), opts.Seed)
	if d.Name() == "mysql" {
		b.WriteString("/*!40101 SET NAMES utf8mb4 */;\n")
		b.WriteString("SET FOREIGN_KEY_CHECKS = 0;\n\n")
	}
}

func writeDDL(b *strings.Builder, d dialect.Dialect) {
	integer := d.TypeInteger()
	text := d.TypeText()
	ts := d.TypeTimestamp()
	varchar := d.TypeVarchar(255)
	boolean := d.TypeBoolean()

	tables := []struct {
		name    string
		columns []string
	}{
		{"legacy_users", []string{
			"id " + integer + " NOT NULL",
			"email " + varchar + " NOT NULL",
			"username " + varchar,
			"password " + varchar,
			"firstname " + varchar,
			"lastname " + varchar,
			"discord " + varchar,
			"shard " + varchar,
			"characters " + text,
			"status " + varchar,
			"email_verified " + boolean,
			"joinedon " + ts,
			"last_login " + ts,
			"PRIMARY KEY (id)",
		}},
		{"legacy_orders", []string{
			"id " + integer + " NOT NULL",
			"customer_email " + varchar,
			"amount " + d.TypeDecimal(10, 2),
			"currency " + d.TypeVarchar(3),
			"status " + varchar,
			"payment_method " + varchar,
			"category " + varchar,
			"shard " + varchar,
			"character_name " + varchar,
			"delivery_location " + varchar,
			"items " + text,
			"payment_id " + varchar,
			"notes " + text,
			"admin_notes " + text,
			"delivered " + boolean,
			"order_date " + ts,
			"PRIMARY KEY (id)",
		}},
		{"legacy_news", []string{
			"id " + integer + " NOT NULL",
			"title " + varchar,
			"body " + text,
			"author " + varchar,
			"created_at " + ts,
			"PRIMARY KEY (id)",
		}},
	}

	for _, table := range tables {
		fmt.Fprintf(b, "CREATE TABLE %s (\n  %s\n)", d.QuoteIdentifier(table.name), strings.Join(table.columns, ",\n  "))
		if opts := d.TableOptions(); opts != "" {
			b.WriteString(" " + opts)
		}
		b.WriteString(";\n\n")
	}
}

func generateUsers(f *gofakeit.Faker, opts options) ([]legacyUser, error) {
	users := make([]legacyUser, 0, opts.Users)
	seen := make(map[string]bool, opts.Users)

	for i := 0; i < opts.Users; i++ {
		first := f.FirstName()
		last := f.LastName()

		email := strings.ToLower(f.Email())
		for seen[email] {
			email = strings.ToLower(f.Username()) + "." + f.UUID()[:8] + "@" + f.DomainName()
		}
		seen[email] = true

		joined := randomTimeInPast(f, opts.Reference)
		user := legacyUser{
			ID:             int64(i + 1),
			Email:          email,
			Username:       f.Username(),
			FirstName:      first,
			LastName:       last,
			Discord:        f.Username() + "#" + fmt.Sprintf("%04d", f.Number(1, 9999)),
			Shard:          f.RandomString(shards),
			CharacterNames: characterNames(f, first),
			Status:         weightedChoice(f, []string{"active", "inactive", "banned"}, []int{85, 12, 3}),
			Verified:       f.Float64() < 0.8,
			JoinedOn:       joined,
		}
		if f.Float64() < 0.7 {
			login := randomTimeAfter(f, joined, opts.Reference)
			user.LastLogin = &login
		}

		password, err := legacyPassword(f)
		if err != nil {
			return nil, err
		}
		user.Password = password

		// rows the cleaner rejects
		if f.Float64() < opts.BadRatio {
			if f.Bool() {
				user.Email = strings.ReplaceAll(user.Email, "@", " at ")
			} else {
				user.Email = strings.Split(user.Email, "@")[0] + "@" + f.RandomString(spamDomains)
			}
		}

		users = append(users, user)
	}
	return users, nil
}

// legacyPassword mixes PHP-style $2y$ hashes, plaintext and empty passwords
func legacyPassword(f *gofakeit.Faker) (string, error) {
	switch roll := f.Float64(); {
	case roll < 0.75:
		hash, err := bcrypt.GenerateFromPassword([]byte(f.Password(true, true, true, false, false, 12)), bcrypt.MinCost)
		if err != nil {
			return "", fmt.Errorf("failed to hash password: %w", err)
		}
		return "$2y$" + strings.TrimPrefix(string(hash), "$2a$"), nil
	case roll < 0.95:
		return f.Password(true, true, true, false, false, 10), nil
	default:
		return "", nil
	}
}

func characterNames(f *gofakeit.Faker, first string) string {
	n := f.Number(0, 3)
	if n == 0 {
		return ""
	}
	names := make([]string, n)
	for i := range names {
		names[i] = f.RandomString([]string{"Lord", "Lady", "Sir", "Mage", "Smith"}) + " " + first
	}
	return strings.Join(names, ", ")
}

func generateOrders(f *gofakeit.Faker, users []legacyUser, opts options) []legacyOrder {
	orders := make([]legacyOrder, 0, opts.Orders)

	for i := 0; i < opts.Orders; i++ {
		var email, character string
		var after time.Time
		if len(users) > 0 {
			user := users[f.Number(0, len(users)-1)]
			email = strings.ToUpper(user.Email[:1]) + user.Email[1:]
			after = user.JoinedOn
			if names := strings.Split(user.CharacterNames, ", "); names[0] != "" {
				character = names[0]
			}
		} else {
			email = strings.ToLower(f.Email())
			after = opts.Reference.AddDate(0, -maxMonthsBack, 0)
		}

		status := weightedChoice(f, orderStatuses, orderWeights)
		order := legacyOrder{
			ID:            int64(i + 1),
			Email:         email,
			Amount:        fmt.Sprintf("%.2f", f.Price(1, 500)),
			Currency:      weightedChoice(f, []string{"USD", "usd", "EUR"}, []int{85, 10, 5}),
			Status:        status,
			PaymentMethod: f.RandomString(paymentMethods),
			Category:      f.RandomString(categories),
			Shard:         f.RandomString(shards),
			Character:     character,
			Location:      f.RandomString(locations),
			Items:         orderItems(f),
			PaymentID:     strings.ToUpper(strings.ReplaceAll(f.UUID(), "-", "")[:17]),
			Delivered:     status == "completed" && f.Float64() < 0.9,
			OrderDate:     randomTimeAfter(f, after, opts.Reference),
		}
		if f.Float64() < 0.2 {
			order.Notes = f.Sentence(8)
		}
		if f.Float64() < 0.1 {
			order.AdminNotes = "Delivered to " + order.Character + "'s pack"
		}

		if f.Float64() < opts.BadRatio {
			if f.Bool() {
				order.Amount = "0.00"
			} else {
				order.Email = "ghost." + f.UUID()[:8] + "@example.com"
			}
		}

		orders = append(orders, order)
	}
	return orders
}

// orderItems is either a JSON item list or a free-text description
func orderItems(f *gofakeit.Faker) string {
	if f.Bool() {
		return fmt.Sprintf("%dk gold", f.Number(1, 50)*100)
	}
	n := f.Number(1, 3)
	items := make([]string, n)
	for i := range items {
		items[i] = fmt.Sprintf(`{"name":%q,"quantity":%d}`, f.ProductName(), f.Number(1, 5))
	}
	return "[" + strings.Join(items, ",") + "]"
}

func generateNews(f *gofakeit.Faker, opts options) []newsPost {
	posts := make([]newsPost, 0, opts.News)
	for i := 0; i < opts.News; i++ {
		posts = append(posts, newsPost{
			ID:        int64(i + 1),
			Title:     f.Sentence(5),
			Body:      f.Paragraph(2, 3, 12, " "),
			Author:    f.Username(),
			CreatedAt: randomTimeInPast(f, opts.Reference),
		})
	}
	return posts
}

func writeUsers(b *strings.Builder, d dialect.Dialect, users []legacyUser) {
	b.WriteString("\n-- Users\n")
	columns := []string{"id", "email", "username", "password", "firstname", "lastname", "discord", "shard", "characters", "status", "email_verified", "joinedon", "last_login"}
	rows := make([]string, 0, len(users))
	for _, u := range users {
		lastLogin := d.FormatNull()
		if u.LastLogin != nil {
			lastLogin = d.FormatTimestamp(*u.LastLogin)
		}
		rows = append(rows, tuple(
			d.FormatInt(u.ID), d.FormatString(u.Email), d.FormatString(u.Username), d.FormatString(u.Password),
			d.FormatString(u.FirstName), d.FormatString(u.LastName), d.FormatString(u.Discord), d.FormatString(u.Shard),
			optionalString(d, u.CharacterNames), d.FormatString(u.Status), d.FormatBool(u.Verified),
			d.FormatTimestamp(u.JoinedOn), lastLogin,
		))
	}
	writeInserts(b, d, "legacy_users", columns, rows)
}

func writeOrders(b *strings.Builder, d dialect.Dialect, orders []legacyOrder) {
	b.WriteString("\n-- Orders\n")
	columns := []string{"id", "customer_email", "amount", "currency", "status", "payment_method", "category", "shard", "character_name", "delivery_location", "items", "payment_id", "notes", "admin_notes", "delivered", "order_date"}
	rows := make([]string, 0, len(orders))
	for _, o := range orders {
		rows = append(rows, tuple(
			d.FormatInt(o.ID), d.FormatString(o.Email), o.Amount, d.FormatString(o.Currency), d.FormatString(o.Status),
			d.FormatString(o.PaymentMethod), d.FormatString(o.Category), d.FormatString(o.Shard), optionalString(d, o.Character),
			d.FormatString(o.Location), d.FormatString(o.Items), d.FormatString(o.PaymentID), optionalString(d, o.Notes),
			optionalString(d, o.AdminNotes), d.FormatBool(o.Delivered), d.FormatTimestamp(o.OrderDate),
		))
	}
	writeInserts(b, d, "legacy_orders", columns, rows)
}

func writeNews(b *strings.Builder, d dialect.Dialect, posts []newsPost) {
	b.WriteString("\n-- News\n")
	columns := []string{"id", "title", "body", "author", "created_at"}
	rows := make([]string, 0, len(posts))
	for _, p := range posts {
		rows = append(rows, tuple(
			d.FormatInt(p.ID), d.FormatString(p.Title), d.FormatString(p.Body), d.FormatString(p.Author), d.FormatTimestamp(p.CreatedAt),
		))
	}
	writeInserts(b, d, "legacy_news", columns, rows)
}

// writeInserts emits one extended INSERT per rowsPerInsert rows, each on a
// single line
func writeInserts(b *strings.Builder, d dialect.Dialect, table string, columns []string, rows []string) {
	quoted := make([]string, len(columns))
	for i, c := range columns {
		quoted[i] = d.QuoteIdentifier(c)
	}
	prefix := fmt.Sprintf("INSERT INTO %s (%s) VALUES ", d.QuoteIdentifier(table), strings.Join(quoted, ", "))

	for start := 0; start < len(rows); start += rowsPerInsert {
		end := min(start+rowsPerInsert, len(rows))
		b.WriteString(prefix)
		b.WriteString(strings.Join(rows[start:end], ","))
		b.WriteString(";\n")
	}
}

func tuple(values ...string) string {
	return "(" + strings.Join(values, ",") + ")"
}

func optionalString(d dialect.Dialect, s string) string {
	if s == "" {
		return d.FormatNull()
	}
	return d.FormatString(s)
}

// Helper functions

func randomTimeInPast(f *gofakeit.Faker, ref time.Time) time.Time {
	return f.DateRange(ref.AddDate(0, -maxMonthsBack, 0), ref).UTC().Truncate(time.Second)
}

func randomTimeAfter(f *gofakeit.Faker, t, ref time.Time) time.Time {
	if !t.Before(ref) {
		return t
	}
	return f.DateRange(t, ref).UTC().Truncate(time.Second)
}

func weightedChoice(f *gofakeit.Faker, choices []string, weights []int) string {
	total := 0
	for _, w := range weights {
		total += w
	}
	rnd := f.Number(0, total-1)
	sum := 0
	for i, w := range weights {
		sum += w
		if rnd < sum {
			return choices[i]
		}
	}
	return choices[len(choices)-1]
}
