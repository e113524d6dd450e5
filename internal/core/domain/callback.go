package domain

import "encoding/json"

// Callback is the merchant-facing outcome payload. The same shape is
// returned synchronously to the caller and POSTed to the store's
// callback URL, for success and failure alike. Custom fields are echoed
// back at the top level of the JSON object.
type Callback struct {
	TransactionID     string
	TransactionNumber string
	Success           bool
	StatusCode        StatusCode
	StatusMessage     string
	GrossAmount       *int64
	RemainingCredit   *int64
	UserID            string
	Custom            map[string]string
}

// NewCallback builds the payload for a status code. The transaction
// number is echoed in its bare merchant-side form.
func NewCallback(number string, code StatusCode) Callback {
	return Callback{
		TransactionNumber: BareNumber(number),
		Success:           code.Success(),
		StatusCode:        code,
		StatusMessage:     code.Message(),
	}
}

// UnmarshalJSON restores a payload produced by MarshalJSON. Keys that
// are not fixed fields land back in Custom.
func (cb *Callback) UnmarshalJSON(b []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	take := func(key string, dst any) {
		if v, ok := raw[key]; ok {
			_ = json.Unmarshal(v, dst)
			delete(raw, key)
		}
	}
	take("transaction_id", &cb.TransactionID)
	take("transaction_number", &cb.TransactionNumber)
	take("success", &cb.Success)
	take("status_code", &cb.StatusCode)
	take("status_message", &cb.StatusMessage)
	take("gross_amount", &cb.GrossAmount)
	take("remainingCredit", &cb.RemainingCredit)
	take("userId", &cb.UserID)
	for k, v := range raw {
		var s string
		if err := json.Unmarshal(v, &s); err != nil {
			continue
		}
		if cb.Custom == nil {
			cb.Custom = make(map[string]string, len(raw))
		}
		cb.Custom[k] = s
	}
	return nil
}

// MarshalJSON flattens custom fields into the top-level object. Fixed
// keys win over colliding custom keys.
func (cb Callback) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, 8+len(cb.Custom))
	n := 0
	for k, v := range cb.Custom {
		if n >= MaxCustomFields {
			break
		}
		out[k] = v
		n++
	}
	out["transaction_id"] = cb.TransactionID
	out["transaction_number"] = cb.TransactionNumber
	out["success"] = cb.Success
	out["status_code"] = cb.StatusCode
	out["status_message"] = cb.StatusMessage
	if cb.GrossAmount != nil {
		out["gross_amount"] = *cb.GrossAmount
	}
	if cb.RemainingCredit != nil {
		out["remainingCredit"] = *cb.RemainingCredit
	}
	if cb.UserID != "" {
		out["userId"] = cb.UserID
	}
	return json.Marshal(out)
}
