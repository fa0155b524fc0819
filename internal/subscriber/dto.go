// AngelaMos | 2026
// dto.go

package subscriber

import (
	"time"
)

type SubscriptionRequest struct {
	Email       string  `validate:"required,max=254,subscriber_email"`
	Consent     bool    `validate:"-"`
	FullName    *string `validate:"omitempty,max=200"`
	CompanyName *string `validate:"omitempty,max=200"`
	Role        *string `validate:"omitempty,max=200"`
	Source      string  `validate:"required,max=100"`
	ConsentCopy *string `validate:"omitempty,max=2000"`
	FormURL     *string `validate:"omitempty,max=2048"`
}

// RequestContext is what the transport layer knows about the caller.
type RequestContext struct {
	IP        string
	UserAgent string
	Referrer  string
}

type UpsertParams struct {
	ID          string
	Email       string
	FullName    *string
	CompanyName *string
	Role        *string
	Source      string
	Token       string
	ConsentCopy *string
	FormURL     *string
	Metadata    Metadata
	Now         time.Time
}

type ConfirmParams struct {
	Token    string
	Metadata Metadata
	Now      time.Time
}

type SubscribeResult struct {
	Subscriber *Subscriber
	EmailSent  bool
}

type ConfirmResult struct {
	Subscriber       *Subscriber
	AlreadyConfirmed bool
}

func intakeMetadata(rc RequestContext) Metadata {
	m := Metadata{}
	putIfSet(m, MetaUserAgent, rc.UserAgent)
	putIfSet(m, MetaReferrer, rc.Referrer)
	putIfSet(m, MetaIP, rc.IP)
	return m
}

func confirmMetadata(rc RequestContext) Metadata {
	m := Metadata{}
	putIfSet(m, MetaConfirmIP, rc.IP)
	putIfSet(m, MetaConfirmUserAgent, rc.UserAgent)
	return m
}

func putIfSet(m Metadata, key, value string) {
	if value != "" {
		m[key] = value
	}
}
