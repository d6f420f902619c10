// Package clean turns resolved legacy rows into destination records.
package clean

import "golang.org/x/crypto/bcrypt"

// DefaultBcryptCost is used for passwords that arrive in clear text
const DefaultBcryptCost = 12

// UserPatterns are the field-name patterns tried, in order, for each
// destination user column
type UserPatterns struct {
	Email      []string `yaml:"email"`
	Username   []string `yaml:"username"`
	Password   []string `yaml:"password"`
	FirstName  []string `yaml:"first_name"`
	LastName   []string `yaml:"last_name"`
	Discord    []string `yaml:"discord"`
	Shard      []string `yaml:"shard"`
	Characters []string `yaml:"characters"`
	Status     []string `yaml:"status"`
	Verified   []string `yaml:"verified"`
	CreatedAt  []string `yaml:"created_at"`
	LastLogin  []string `yaml:"last_login"`
	LegacyID   []string `yaml:"legacy_id"`
}

// TransactionPatterns are the field-name patterns for transaction columns
type TransactionPatterns struct {
	Email          []string `yaml:"email"`
	Amount         []string `yaml:"amount"`
	Category       []string `yaml:"category"`
	Type           []string `yaml:"type"`
	Status         []string `yaml:"status"`
	Currency       []string `yaml:"currency"`
	PaymentMethod  []string `yaml:"payment_method"`
	Shard          []string `yaml:"shard"`
	Character      []string `yaml:"character"`
	Location       []string `yaml:"location"`
	Items          []string `yaml:"items"`
	ProviderID     []string `yaml:"provider_id"`
	Reference      []string `yaml:"reference"`
	DeliveryStatus []string `yaml:"delivery_status"`
	CustomerNotes  []string `yaml:"customer_notes"`
	StaffNotes     []string `yaml:"staff_notes"`
	CreatedAt      []string `yaml:"created_at"`
}

// Rules configures a Cleaner
type Rules struct {
	User              UserPatterns        `yaml:"user"`
	Transaction       TransactionPatterns `yaml:"transaction"`
	SpamEmailPatterns []string            `yaml:"spam_email_patterns"`
	SpamNamePatterns  []string            `yaml:"spam_name_patterns"`
	BcryptCost        int                 `yaml:"bcrypt_cost"`
}

func DefaultRules() Rules {
	return Rules{
		User: UserPatterns{
			Email:      []string{"email", "user_email", "e_mail", "mail"},
			Username:   []string{"username", "user_name", "login", "name"},
			Password:   []string{"password", "pass", "pwd", "user_password"},
			FirstName:  []string{"first_name", "fname", "firstname"},
			LastName:   []string{"last_name", "lname", "lastname"},
			Discord:    []string{"discord", "discord_name", "discord_username"},
			Shard:      []string{"shard", "main_shard", "server"},
			Characters: []string{"characters", "character_names", "chars"},
			Status:     []string{"status", "account_status", "state"},
			Verified:   []string{"email_verified", "verified", "is_verified"},
			CreatedAt:  []string{"created_at", "date_created", "registration_date", "created", "joinedon"},
			LastLogin:  []string{"last_login", "last_login_date", "last_seen"},
			LegacyID:   []string{"userid", "user_id", "id"},
		},
		Transaction: TransactionPatterns{
			Email:          []string{"email", "user_email", "customer_email", "buyer_email"},
			Amount:         []string{"amount", "price", "total", "cost", "value"},
			Category:       []string{"category", "type", "item_type"},
			Type:           []string{"transaction_type", "type", "action"},
			Status:         []string{"status", "state", "transaction_status"},
			Currency:       []string{"currency"},
			PaymentMethod:  []string{"payment_method", "gateway", "method"},
			Shard:          []string{"shard", "server", "realm"},
			Character:      []string{"character", "character_name", "char_name"},
			Location:       []string{"location", "delivery_location"},
			Items:          []string{"items", "products", "description", "item_name"},
			ProviderID:     []string{"payment_id", "transaction_id", "external_id"},
			Reference:      []string{"order_id", "reference", "id"},
			DeliveryStatus: []string{"delivery_status", "delivered", "delivery_state"},
			CustomerNotes:  []string{"notes", "customer_notes", "comment"},
			StaffNotes:     []string{"admin_notes", "staff_notes", "internal_notes"},
			CreatedAt:      []string{"created_at", "date", "order_date", "timestamp"},
		},
		SpamEmailPatterns: []string{"facebook.com", "yandex.ru"},
		SpamNamePatterns:  []string{"intimate photos", "territoria-mexa"},
		BcryptCost:        DefaultBcryptCost,
	}
}

func (r Rules) cost() int {
	if r.BcryptCost < bcrypt.MinCost || r.BcryptCost > bcrypt.MaxCost {
		return DefaultBcryptCost
	}
	return r.BcryptCost
}
