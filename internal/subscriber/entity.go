// AngelaMos | 2026
// entity.go

package subscriber

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

type Subscriber struct {
	ID                 string     `db:"id"`
	Email              string     `db:"email"`
	FullName           *string    `db:"full_name"`
	CompanyName        *string    `db:"company_name"`
	Role               *string    `db:"role"`
	Source             string     `db:"source"`
	Status             string     `db:"status"`
	SubscribedAt       time.Time  `db:"subscribed_at"`
	ConfirmationToken  *string    `db:"confirmation_token"`
	ConfirmationSentAt *time.Time `db:"confirmation_sent_at"`
	ConfirmedAt        *time.Time `db:"confirmed_at"`
	ConfirmedTokenHash *string    `db:"confirmed_token_hash"`
	ConsentCopy        *string    `db:"consent_copy"`
	FormURL            *string    `db:"form_url"`
	Metadata           Metadata   `db:"metadata"`
	CreatedAt          time.Time  `db:"created_at"`
	UpdatedAt          time.Time  `db:"updated_at"`
}

func (s *Subscriber) IsConfirmed() bool {
	return s.Status == StatusConfirmed
}

func (s *Subscriber) IsPending() bool {
	return s.Status == StatusPending
}

const (
	StatusPending   = "pending"
	StatusConfirmed = "confirmed"
)

const DefaultSource = "website"

const (
	MetaUserAgent        = "user_agent"
	MetaReferrer         = "referrer"
	MetaIP               = "ip"
	MetaConfirmIP        = "confirm_ip"
	MetaConfirmUserAgent = "confirm_user_agent"
)

// Metadata is stored as a JSON object and only ever merged key by key.
type Metadata map[string]any

func (m Metadata) Value() (driver.Value, error) {
	if m == nil {
		return "{}", nil
	}
	b, err := json.Marshal(map[string]any(m))
	if err != nil {
		return nil, fmt.Errorf("marshal metadata: %w", err)
	}
	return string(b), nil
}

func (m *Metadata) Scan(src any) error {
	var raw []byte
	switch v := src.(type) {
	case nil:
		*m = Metadata{}
		return nil
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("scan metadata: unsupported type %T", src)
	}

	out := Metadata{}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &out); err != nil {
			return fmt.Errorf("scan metadata: %w", err)
		}
	}
	*m = out
	return nil
}
