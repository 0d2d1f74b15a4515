package broker

import (
	"fmt"
	"strings"

	"github.com/ravitejakamalapuram/copytradepro-sub014/internal/models"
)

// ValidationResult is the outcome of validating an order request.
type ValidationResult struct {
	IsValid bool
	Errors  []string
}

// Message joins the individual error messages for display.
func (v ValidationResult) Message() string {
	return strings.Join(v.Errors, "; ")
}

// ValidateOrderRequest checks an order request before any network call is
// attempted. Every absent or invalid required field appends one
// human-readable message.
func ValidateOrderRequest(req *models.OrderRequest) ValidationResult {
	var errs []string

	if req == nil {
		return ValidationResult{Errors: []string{"order request is required"}}
	}

	if strings.TrimSpace(req.Symbol) == "" {
		errs = append(errs, "symbol is required")
	}

	switch req.Action {
	case models.ActionBuy, models.ActionSell:
	case "":
		errs = append(errs, "action is required")
	default:
		errs = append(errs, fmt.Sprintf("action must be BUY or SELL, got %q", req.Action))
	}

	if req.Quantity <= 0 {
		errs = append(errs, "quantity must be greater than zero")
	}

	switch req.OrderType {
	case models.OrderTypeMarket, models.OrderTypeLimit, models.OrderTypeSLLimit, models.OrderTypeSLMarket:
	case "":
		errs = append(errs, "order type is required")
	default:
		errs = append(errs, fmt.Sprintf("unsupported order type %q", req.OrderType))
	}

	if req.OrderType.RequiresPrice() && req.Price <= 0 {
		errs = append(errs, fmt.Sprintf("price is required and must be positive for %s orders", req.OrderType))
	}
	if !req.OrderType.RequiresPrice() && req.Price < 0 {
		errs = append(errs, "price must not be negative")
	}

	if req.OrderType == models.OrderTypeSLLimit || req.OrderType == models.OrderTypeSLMarket {
		if req.TriggerPrice <= 0 {
			errs = append(errs, fmt.Sprintf("trigger price is required for %s orders", req.OrderType))
		}
	}

	if strings.TrimSpace(string(req.Exchange)) == "" {
		errs = append(errs, "exchange is required")
	}

	switch req.Product {
	case models.ProductCNC, models.ProductMIS, models.ProductNRML:
	case "":
		errs = append(errs, "product type is required")
	default:
		errs = append(errs, fmt.Sprintf("unsupported product type %q", req.Product))
	}

	switch req.Validity {
	case models.ValidityDay, models.ValidityIOC, models.ValidityGTD, "":
	default:
		errs = append(errs, fmt.Sprintf("validity must be DAY, IOC or GTD, got %q", req.Validity))
	}

	if strings.TrimSpace(req.AccountID) == "" {
		errs = append(errs, "account id is required")
	}

	return ValidationResult{IsValid: len(errs) == 0, Errors: errs}
}
