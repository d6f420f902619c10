package migrate

import (
	"testing"
)

func TestSources(t *testing.T) {
	tests := []struct {
		name            string
		dump            string
		wantUsers       string
		wantTransaction string
	}{
		{
			name: "canonical collections",
			dump: "INSERT INTO `users` VALUES (1);\n" +
				"INSERT INTO `payments` (`amount`) VALUES (5);\n" +
				"INSERT INTO `orders` (`total`) VALUES (5);\n",
			wantUsers:       "users",
			wantTransaction: "orders",
		},
		{
			name: "fallback to look-alike tables",
			dump: "INSERT INTO `news` (`title`) VALUES ('up');\n" +
				"INSERT INTO `ecom_people` (`Email`,`Pwd`) VALUES ('a@b.com','x');\n" +
				"INSERT INTO `shop_log` (`Cost`) VALUES (3);\n",
			wantUsers:       "ecom_people",
			wantTransaction: "shop_log",
		},
		{
			name:            "nothing usable",
			dump:            "INSERT INTO `news` (`title`) VALUES ('up');\n",
			wantUsers:       "",
			wantTransaction: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := extractDump(t, tt.dump)

			got := ""
			if c := userSource(result); c != nil {
				got = c.Name()
			}
			if got != tt.wantUsers {
				t.Errorf("userSource() = %q, want %q", got, tt.wantUsers)
			}

			got = ""
			if c := transactionSource(result); c != nil {
				got = c.Name()
			}
			if got != tt.wantTransaction {
				t.Errorf("transactionSource() = %q, want %q", got, tt.wantTransaction)
			}
		})
	}
}
