// AngelaMos | 2026
// validate.go

package subscriber

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/carterperez-dev/templates/newsletter-api/internal/core"
)

var (
	ErrInvalidEmail    = fmt.Errorf("%w: invalid email address", core.ErrInvalidInput)
	ErrConsentRequired = fmt.Errorf("%w: consent required", core.ErrInvalidInput)
	ErrMissingToken    = fmt.Errorf("%w: missing confirmation token", core.ErrInvalidInput)
	ErrConfirmFailed   = errors.New("confirm subscription failed")
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// fieldAliases maps each canonical profile field to the payload keys
// accepted for it, highest priority first.
var fieldAliases = []struct {
	field string
	keys  []string
}{
	{field: "full_name", keys: []string{"full_name", "name"}},
	{field: "company_name", keys: []string{"company_name", "company"}},
	{field: "role", keys: []string{"role"}},
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	//nolint:errcheck // tag name is static and valid
	_ = v.RegisterValidation("subscriber_email", func(fl validator.FieldLevel) bool {
		return emailPattern.MatchString(fl.Field().String())
	})
	return v
}

// ParseSubscription normalizes a decoded JSON payload into a request.
// Email problems win over consent, consent over field limits.
func ParseSubscription(payload map[string]any) (*SubscriptionRequest, error) {
	email, _ := payload["email"].(string)
	consent, _ := payload["consent"].(bool)

	req := &SubscriptionRequest{
		Email:       strings.ToLower(strings.TrimSpace(email)),
		Consent:     consent,
		Source:      DefaultSource,
		ConsentCopy: optionalString(payload, "consent_copy"),
		FormURL:     optionalString(payload, "form_url"),
	}

	if source := optionalString(payload, "source"); source != nil {
		req.Source = *source
	}

	for _, alias := range fieldAliases {
		value := firstString(payload, alias.keys...)
		switch alias.field {
		case "full_name":
			req.FullName = value
		case "company_name":
			req.CompanyName = value
		case "role":
			req.Role = value
		}
	}

	err := validate.Struct(req)

	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) {
		for _, fe := range fieldErrs {
			if fe.StructField() == "Email" {
				return nil, ErrInvalidEmail
			}
		}
	} else if err != nil {
		return nil, fmt.Errorf("validate subscription: %w", err)
	}

	if !req.Consent {
		return nil, ErrConsentRequired
	}

	if err != nil {
		return nil, fmt.Errorf("%w: %s", core.ErrInvalidInput, fieldErrs[0].Field())
	}

	return req, nil
}

func ValidateToken(token string) (string, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return "", ErrMissingToken
	}
	return token, nil
}

func firstString(payload map[string]any, keys ...string) *string {
	for _, key := range keys {
		if v := optionalString(payload, key); v != nil {
			return v
		}
	}
	return nil
}

func optionalString(payload map[string]any, key string) *string {
	s, ok := payload[key].(string)
	if !ok {
		return nil
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}
