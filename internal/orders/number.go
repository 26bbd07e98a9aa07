package orders

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	orderNumberPrefix   = "TS"
	orderNumberAttempts = 5
)

// NewOrderNumber renders TS-YYYYMMDD-XXXXXX from the UTC placement date and six random characters.
func NewOrderNumber(now time.Time) string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))[:6]
	return fmt.Sprintf("%s-%s-%s", orderNumberPrefix, now.UTC().Format("20060102"), suffix)
}

func nextOrderNumber(ctx context.Context, repo Repository, now time.Time, generate func(time.Time) string) (string, error) {
	for attempt := 0; attempt < orderNumberAttempts; attempt++ {
		number := generate(now)
		exists, err := repo.OrderNumberExists(ctx, number)
		if err != nil {
			return "", err
		}
		if !exists {
			return number, nil
		}
	}
	return "", fmt.Errorf("order number space exhausted after %d attempts", orderNumberAttempts)
}
