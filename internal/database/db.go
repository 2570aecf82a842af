// internal/database/db.go
package database

import (
	"errors"
	"fmt"

	"discord-music-bot/internal/models"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const historyLimit = 20

type DB struct {
	*gorm.DB
}

func NewDB(host, user, password, dbname string, port int) (*DB, error) {
	dsn := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%d sslmode=disable TimeZone=UTC",
		host, user, password, dbname, port)

	gormDB, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, err
	}

	// Auto migrate
	if err := gormDB.AutoMigrate(
		&models.GuildSetup{},
		&models.HistoryEntry{},
	); err != nil {
		return nil, err
	}

	return &DB{gormDB}, nil
}

// AddGuildSetup upserts the music-channel configuration for a guild.
func (db *DB) AddGuildSetup(guildID, channelID, playerMessageID, queueMessageID, locale string) (*models.GuildSetup, error) {
	setup := &models.GuildSetup{
		GuildID:         guildID,
		ChannelID:       channelID,
		PlayerMessageID: playerMessageID,
		QueueMessageID:  queueMessageID,
		Locale:          locale,
	}

	err := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "guild_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"channel_id", "player_message_id", "queue_message_id", "locale"}),
	}).Create(setup).Error
	if err != nil {
		return nil, err
	}

	return setup, nil
}

func (db *DB) GetGuildSetup(guildID string) (*models.GuildSetup, error) {
	var setup models.GuildSetup

	err := db.Where("guild_id = ?", guildID).First(&setup).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return &setup, nil
}

func (db *DB) AllGuildSetups() ([]models.GuildSetup, error) {
	var setups []models.GuildSetup

	err := db.Find(&setups).Error
	return setups, err
}

// DeleteGuildSetup removes a guild's configuration; its history rows go with it.
func (db *DB) DeleteGuildSetup(guildID string) error {
	return db.Where("guild_id = ?", guildID).Delete(&models.GuildSetup{}).Error
}

func (db *DB) AddHistory(guildID, author, title, uri string) error {
	entry := &models.HistoryEntry{
		GuildID: guildID,
		Author:  author,
		Title:   title,
		URI:     uri,
	}

	return db.Create(entry).Error
}

func (db *DB) GetHistory(guildID string) ([]models.HistoryEntry, error) {
	var entries []models.HistoryEntry

	err := db.Where("guild_id = ?", guildID).
		Order("created_at DESC").
		Limit(historyLimit).
		Find(&entries).Error

	return entries, err
}
