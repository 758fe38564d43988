package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Payment is a payment made by a guardian against one fee.
type Payment struct {
	ID                   string          `json:"id"`
	GuardianID           string          `json:"userId"`
	FeeID                string          `json:"feeId"`
	Amount               decimal.Decimal `json:"amount"`
	Method               PaymentMethod   `json:"method"`
	Status               PaymentStatus   `json:"status"`
	Details              *PaymentDetails `json:"paymentDetails,omitempty"`
	TransactionReference string          `json:"transactionReference"`
	PaymentDate          time.Time       `json:"paymentDate"`
}

// PaymentView is a payment joined with guardian and fee context.
type PaymentView struct {
	Payment
	GuardianName   string  `json:"userName,omitempty"`
	GuardianEmail  string  `json:"userEmail,omitempty"`
	FeeKind        FeeKind `json:"feeType"`
	FeeDescription *string `json:"feeDescription,omitempty"`
	DueDate        Date    `json:"dueDate"`
}

// CardDetails is the card data submitted with a credit card payment. Only
// the last four digits and expiry are ever persisted.
type CardDetails struct {
	CardNumber string `json:"cardNumber"`
	ExpiryDate string `json:"expiryDate"`
	CVV        string `json:"cvv"`
}

// BankDetails is the account data submitted with a bank transfer.
type BankDetails struct {
	BankName      string `json:"bankName"`
	AccountNumber string `json:"accountNumber"`
	AccountTitle  string `json:"accountTitle"`
}

// PaymentDetails is the stored method-specific blob.
type PaymentDetails struct {
	LastFour              string `json:"lastFour,omitempty"`
	ExpiryDate            string `json:"expiryDate,omitempty"`
	BankName              string `json:"bankName,omitempty"`
	AccountTitle          string `json:"accountTitle,omitempty"`
	AccountNumberLastFour string `json:"accountNumberLastFour,omitempty"`
}

// Scan implements the Scanner interface for the JSONB details column
func (d *PaymentDetails) Scan(value interface{}) error {
	switch v := value.(type) {
	case nil:
		return nil
	case []byte:
		return json.Unmarshal(v, d)
	case string:
		return json.Unmarshal([]byte(v), d)
	}
	return fmt.Errorf("cannot scan %T into PaymentDetails", value)
}

// Value implements the Valuer interface for the JSONB details column
func (d PaymentDetails) Value() (driver.Value, error) {
	b, err := json.Marshal(d)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}
