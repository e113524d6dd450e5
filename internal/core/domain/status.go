package domain

import "strconv"

// StatusCode is the merchant-facing status taxonomy. Every callback and
// response body carries one of these codes. The numbering is frozen:
// merchant integrations switch on the exact values, so codes are never
// reused or renumbered.
type StatusCode int

const (
	StatusSuccess            StatusCode = 200
	StatusOTPInvalid         StatusCode = 201
	StatusDuplicateNumber    StatusCode = 202
	StatusInsufficientCredit StatusCode = 203
	StatusSignatureInvalid   StatusCode = 204
	StatusUserNotAllowed     StatusCode = 205
	StatusChargeFailed       StatusCode = 206
	StatusUserNotFound       StatusCode = 207
	StatusStoreNotFound      StatusCode = 208
	StatusNoPaymentCard      StatusCode = 209
	StatusUnexpected         StatusCode = 210
	StatusInvalidParameter   StatusCode = 211
	StatusStoreInactive      StatusCode = 212
	StatusTokenInvalid       StatusCode = 213
	StatusNotMobileOwner     StatusCode = 214
	StatusThirdParty         StatusCode = 215
	StatusExpired            StatusCode = 216
)

var statusMessages = map[StatusCode]string{
	StatusSuccess:            "Success",
	StatusOTPInvalid:         "OTP not valid",
	StatusDuplicateNumber:    "Duplicate invoice number",
	StatusInsufficientCredit: "Insufficient user balance",
	StatusSignatureInvalid:   "Signature not valid",
	StatusUserNotAllowed:     "User not allowed to transact",
	StatusChargeFailed:       "Cannot charge the payment method",
	StatusUserNotFound:       "User not found",
	StatusStoreNotFound:      "Store not found",
	StatusNoPaymentCard:      "No payment card found",
	StatusUnexpected:         "Unexpected error",
	StatusInvalidParameter:   "Invalid parameter",
	StatusStoreInactive:      "Store inactive, transaction rejected",
	StatusTokenInvalid:       "Token not valid",
	StatusNotMobileOwner:     "Not owner of mobile number",
	StatusThirdParty:         "Third party error",
	StatusExpired:            "Transaction expired",
}

// Code returns the wire form of the status. Historically the platform
// emitted status codes as strings, and merchant parsers depend on that.
func (s StatusCode) Code() string {
	return strconv.Itoa(int(s))
}

// Message returns the canonical human-readable message for the code.
func (s StatusCode) Message() string {
	if m, ok := statusMessages[s]; ok {
		return m
	}
	return statusMessages[StatusUnexpected]
}

// Success reports whether the code is the terminal success state.
func (s StatusCode) Success() bool {
	return s == StatusSuccess
}

// MarshalJSON emits the code as a JSON string, matching the legacy wire
// format ("200", "201", ...).
func (s StatusCode) MarshalJSON() ([]byte, error) {
	return []byte(`"` + s.Code() + `"`), nil
}

// UnmarshalJSON accepts both the string and the bare numeric form.
func (s *StatusCode) UnmarshalJSON(b []byte) error {
	str := string(b)
	if len(str) >= 2 && str[0] == '"' {
		str = str[1 : len(str)-1]
	}
	n, err := strconv.Atoi(str)
	if err != nil {
		return err
	}
	*s = StatusCode(n)
	return nil
}
