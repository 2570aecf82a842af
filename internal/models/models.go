// internal/models/models.go
package models

import "time"

// GuildSetup is the persisted music-channel configuration for one guild.
// At most one row exists per guild (upsert on GuildID).
type GuildSetup struct {
	ID              uint   `gorm:"primaryKey"`
	GuildID         string `gorm:"uniqueIndex;not null"`
	ChannelID       string `gorm:"not null"`
	PlayerMessageID string `gorm:"not null"`
	QueueMessageID  string `gorm:"not null"`
	Locale          string `gorm:"type:varchar(2);not null;default:'en'"`
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// HistoryEntry is one played track, append-only, newest read first.
// Rows are removed together with their GuildSetup.
type HistoryEntry struct {
	ID        uint       `gorm:"primaryKey"`
	GuildID   string     `gorm:"index;not null"`
	Guild     GuildSetup `gorm:"foreignKey:GuildID;references:GuildID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
	Author    string     `gorm:"not null"`
	Title     string     `gorm:"not null"`
	URI       string     `gorm:"type:text;not null"`
	CreatedAt time.Time
}
