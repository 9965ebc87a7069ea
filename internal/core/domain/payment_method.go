package domain

import "strings"

// PaymentMethodKind tags the variant of a PaymentMethod for dispatch.
type PaymentMethodKind string

const (
	KindNone                 PaymentMethodKind = "NONE"
	KindCard                 PaymentMethodKind = "CARD"
	KindTokenizedCard        PaymentMethodKind = "TOKENIZED_CARD"
	KindMobileWallet         PaymentMethodKind = "MOBILE_WALLET"
	KindStoredCredential     PaymentMethodKind = "STORED_CREDENTIAL"
	KindECheck               PaymentMethodKind = "ECHECK"
	KindTransactionReference PaymentMethodKind = "TRANSACTION_REFERENCE"
)

// EncryptedMobileType names the wallet that sealed a mobile payload.
type EncryptedMobileType string

const (
	MobileApplePay   EncryptedMobileType = "APPLE_PAY"
	MobileGooglePay  EncryptedMobileType = "GOOGLE_PAY"
	MobileClickToPay EncryptedMobileType = "CLICK_TO_PAY"
)

// PaymentMethod is the funding instrument of a transaction. The builder only
// references it; the capability query decides which modifiers it can carry.
type PaymentMethod interface {
	Kind() PaymentMethodKind
	Supports(modifier TransactionModifier) bool
	// Reference is a non-sensitive handle sent as paymentMethodRef.
	Reference() string
}

// CreditCardData is a card entered by hand or read by a terminal.
type CreditCardData struct {
	Number         string
	ExpMonth       int
	ExpYear        int
	Cvn            string
	CardHolderName string
	CardPresent    bool
}

func (c *CreditCardData) Kind() PaymentMethodKind { return KindCard }

func (c *CreditCardData) Supports(modifier TransactionModifier) bool {
	return modifier == ModifierNone
}

func (c *CreditCardData) Reference() string {
	return maskTail(c.Number)
}

// TokenizedCard is a card stored at the gateway and addressed by token.
type TokenizedCard struct {
	Token          string
	ExpMonth       int
	ExpYear        int
	CardHolderName string
}

func (c *TokenizedCard) Kind() PaymentMethodKind { return KindTokenizedCard }

func (c *TokenizedCard) Supports(modifier TransactionModifier) bool {
	return modifier == ModifierNone
}

func (c *TokenizedCard) Reference() string { return c.Token }

// MobileWallet carries a digital wallet payload. With no cryptogram the token is
// a sealed wallet blob the gateway decrypts; with a cryptogram the token is a
// device PAN already decrypted by the merchant.
type MobileWallet struct {
	Token          string
	MobileType     EncryptedMobileType
	Cryptogram     string
	Eci            string
	ExpMonth       int
	ExpYear        int
	CardHolderName string
}

func (w *MobileWallet) Kind() PaymentMethodKind { return KindMobileWallet }

func (w *MobileWallet) Supports(modifier TransactionModifier) bool {
	switch modifier {
	case ModifierEncryptedMobile, ModifierDecryptedMobile:
		return true
	default:
		return false
	}
}

func (w *MobileWallet) Reference() string {
	if w.Cryptogram != "" {
		return maskTail(w.Token)
	}
	return string(w.MobileType)
}

// StoredCredential references a credential on file for merchant initiated payments.
type StoredCredential struct {
	CredentialID string
	Initiator    string
	Sequence     string
}

func (s *StoredCredential) Kind() PaymentMethodKind { return KindStoredCredential }

func (s *StoredCredential) Supports(modifier TransactionModifier) bool {
	return modifier == ModifierNone
}

func (s *StoredCredential) Reference() string { return s.CredentialID }

// ECheck is a bank account debited or credited by check-style transactions.
type ECheck struct {
	AccountNumber string
	RoutingNumber string
	AccountType   string
	CheckHolder   string
}

func (e *ECheck) Kind() PaymentMethodKind { return KindECheck }

func (e *ECheck) Supports(modifier TransactionModifier) bool {
	return modifier == ModifierNone
}

func (e *ECheck) Reference() string { return maskTail(e.AccountNumber) }

// TransactionReference points at a transaction already processed by a gateway.
// Follow-up operations use it instead of a funding instrument.
type TransactionReference struct {
	TransactionID string
	Gateway       string
	OriginalType  TransactionType
}

func (r *TransactionReference) Kind() PaymentMethodKind { return KindTransactionReference }

func (r *TransactionReference) Supports(modifier TransactionModifier) bool {
	return modifier == ModifierNone
}

func (r *TransactionReference) Reference() string { return r.TransactionID }

// KindOf returns the dispatch tag of pm, KindNone when absent.
func KindOf(pm PaymentMethod) PaymentMethodKind {
	if pm == nil {
		return KindNone
	}
	return pm.Kind()
}

func maskTail(number string) string {
	if len(number) <= 4 {
		return number
	}
	return strings.Repeat("*", len(number)-4) + number[len(number)-4:]
}
