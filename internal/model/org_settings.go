// internal/model/org_settings.go
package model

import "time"

// OrgSettings is the per-organization send policy. One row per tenant.
type OrgSettings struct {
	OrgID                 int        `db:"org_id" json:"org_id"`
	SESRegion             string     `db:"ses_region" json:"ses_region"`
	SESAccessKeyEncrypted string     `db:"ses_access_key_encrypted" json:"-"`
	SESSecretKeyEncrypted string     `db:"ses_secret_key_encrypted" json:"-"`
	CRMTokenEncrypted     string     `db:"crm_token_encrypted" json:"-"`
	FromEmail             string     `db:"from_email" json:"from_email"`
	FromName              string     `db:"from_name" json:"from_name"`
	ReplyTo               string     `db:"reply_to" json:"reply_to"`
	ConfigurationSet      string     `db:"configuration_set" json:"configuration_set"`
	DailySendLimit        int        `db:"daily_send_limit" json:"daily_send_limit"`
	SendDelaySeconds      int        `db:"send_delay_seconds" json:"send_delay_seconds"`
	SendingEnabled        bool       `db:"sending_enabled" json:"sending_enabled"`
	SendsToday            int        `db:"sends_today" json:"sends_today"`
	SendsTodayDate        *time.Time `db:"sends_today_date" json:"sends_today_date,omitempty"`
	PostalAddress         string     `db:"postal_address" json:"postal_address"`
	SignatureHTML         string     `db:"signature_html" json:"signature_html"`
	SignatureText         string     `db:"signature_text" json:"signature_text"`
}
