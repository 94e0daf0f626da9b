package models

import (
	"errors"
	"time"

	"gorm.io/gorm"
)

const (
	SOURCE_CHANNEL_LIFF = "LIFF"
	SOURCE_CHANNEL_WEB  = "WEB"
)

// ErrConsentImmutable is returned by the GORM hooks when anything tries to
// change or remove a stored consent row.
var ErrConsentImmutable = errors.New("consent records are append-only")

// PdpaConsent is one recorded consent acknowledgment together with the audit
// metadata observed by the server.
type PdpaConsent struct {
	ID               uint64    `gorm:"primaryKey;autoIncrement" json:"id"`
	WpUserID         *string   `gorm:"type:varchar(64);index:idx_dn_pdpa_consent_wp_user_id" json:"wp_user_id"`
	LineUserID       *string   `gorm:"type:varchar(64);index:idx_dn_pdpa_consent_line_user_id" json:"line_user_id"`
	ConsentSessionID string    `gorm:"type:varchar(128);not null;uniqueIndex:uniq_consent_session_id" json:"consent_session_id"`
	ConsentVersion   string    `gorm:"type:varchar(64);not null" json:"consent_version"`
	RequiredConsent  uint8     `gorm:"type:tinyint(1);not null" json:"required_consent"`
	MarketingConsent uint8     `gorm:"type:tinyint(1);not null" json:"marketing_consent"`
	AcceptedAt       *string   `gorm:"type:datetime" json:"accepted_at"`
	ExpiresAt        *string   `gorm:"type:datetime" json:"expires_at"`
	SourceChannel    string    `gorm:"type:enum('LIFF','WEB');not null" json:"source_channel"`
	PagePath         string    `gorm:"type:varchar(255);not null" json:"page_path"`
	IPAddress        *string   `gorm:"type:varchar(45)" json:"ip_address"`
	UserAgent        string    `gorm:"type:varchar(500);not null" json:"user_agent"`
	CreatedAt        time.Time `gorm:"autoCreateTime" json:"created_at"`
}

// TableName keeps the table name used by the existing WordPress schema.
func (PdpaConsent) TableName() string {
	return "dn_pdpa_consent"
}

// BeforeUpdate prevents modification of consent records
func (*PdpaConsent) BeforeUpdate(tx *gorm.DB) error {
	return ErrConsentImmutable
}

// BeforeDelete prevents deletion of consent records
func (*PdpaConsent) BeforeDelete(tx *gorm.DB) error {
	return ErrConsentImmutable
}
