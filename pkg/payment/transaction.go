// Package payment holds the identifiers shared between payment initiation and
// payment confirmation. Both sides must derive them the same way.
package payment

import (
	"fmt"
	"strings"

	"github.com/angelmondragon/storefront/pkg/types"
)

const transactionPrefix = "ORDER"

// TransactionUUID returns the gateway transaction identifier for an order
// placed by a user: ORDER_<orderID>_<userID>.
func TransactionUUID(orderID, userID types.ID) string {
	return transactionPrefix + "_" + orderID.String() + "_" + userID.String()
}

// ParseTransactionUUID splits a transaction identifier back into its order and user parts.
func ParseTransactionUUID(raw string) (types.ID, types.ID, error) {
	parts := strings.Split(strings.TrimSpace(raw), "_")
	if len(parts) != 3 || parts[0] != transactionPrefix || parts[1] == "" || parts[2] == "" {
		return "", "", fmt.Errorf("invalid transaction uuid %q", raw)
	}
	return types.ID(parts[1]), types.ID(parts[2]), nil
}
