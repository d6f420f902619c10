package migrate

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/SWASSFinance/uoking-sub001/tools/runtime/dump-migrate/internal/clean"
)

// Statistics tracks migration progress
type Statistics struct {
	StartTime time.Time
	EndTime   time.Time

	UserSource        string
	TransactionSource string

	UsersProcessed int
	UsersMigrated  int
	UsersSkipped   int

	TransactionsProcessed int
	TransactionsMigrated  int
	TransactionsSkipped   int
	UnresolvedUsers       int

	SkipReasons map[clean.SkipReason]int

	// ErrorCount counts every write error; Errors keeps the first few
	ErrorCount int
	Errors     []string
}

func (s *Statistics) recordSkip(reason clean.SkipReason) {
	if s.SkipReasons == nil {
		s.SkipReasons = make(map[clean.SkipReason]int)
	}
	s.SkipReasons[reason]++
	if reason == clean.ReasonUnresolvedUser {
		s.UnresolvedUsers++
	}
}

func (s *Statistics) recordError(limit int, format string, args ...any) {
	s.ErrorCount++
	if len(s.Errors) < limit {
		s.Errors = append(s.Errors, fmt.Sprintf(format, args...))
	}
}

const reportedErrors = 10

// WriteReport prints the final statistics block
func WriteReport(w io.Writer, s Statistics) {
	rule := strings.Repeat("=", 60)
	fmt.Fprintf(w, "\n%s\nMIGRATION COMPLETE - FINAL STATISTICS\n%s\n", rule, rule)
	fmt.Fprintf(w, "Users Processed: %d\n", s.UsersProcessed)
	fmt.Fprintf(w, "Users Migrated: %d\n", s.UsersMigrated)
	fmt.Fprintf(w, "Users Skipped: %d\n", s.UsersSkipped)
	fmt.Fprintf(w, "Transactions Processed: %d\n", s.TransactionsProcessed)
	fmt.Fprintf(w, "Transactions Migrated: %d\n", s.TransactionsMigrated)
	fmt.Fprintf(w, "Transactions Skipped: %d\n", s.TransactionsSkipped)
	fmt.Fprintf(w, "Unresolved Users: %d\n", s.UnresolvedUsers)

	if !s.EndTime.IsZero() {
		fmt.Fprintf(w, "Duration: %s\n", s.EndTime.Sub(s.StartTime).Round(time.Millisecond))
	}

	if s.ErrorCount == 0 {
		return
	}
	fmt.Fprintf(w, "\nErrors (%d):\n", s.ErrorCount)
	for i, msg := range s.Errors {
		if i == reportedErrors {
			break
		}
		fmt.Fprintf(w, "  - %s\n", msg)
	}
	if s.ErrorCount > reportedErrors {
		fmt.Fprintf(w, "  ... and %d more errors\n", s.ErrorCount-reportedErrors)
	}
}
