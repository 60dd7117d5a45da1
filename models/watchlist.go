package models

import (
	"context"
	"time"

	"github.com/go-pg/pg/v10"
	uuid "github.com/satori/go.uuid"
)

type WatchlistItem struct {
	tableName struct{} `pg:"watchlist_item"`

	WatchlistItemID uuid.UUID `pg:"watchlist_item_id,pk,type:uuid,default:uuid_generate_v4()"`
	VisitorID       string    `pg:"visitor_id"`
	MediaType       string    `pg:"media_type"`
	RefID           int64     `pg:"ref_id"`
	Title           string    `pg:"title"`
	PosterPath      *string   `pg:"poster_path"`
	CreatedAt       time.Time `pg:"created_at,default:now()"`
}

func AddWatchlistItem(ctx context.Context, db *pg.DB, item *WatchlistItem) error {
	_, err := db.Model(item).
		OnConflict("(visitor_id, media_type, ref_id) DO NOTHING").
		Context(ctx).
		Insert()
	return err
}

func RemoveWatchlistItem(ctx context.Context, db *pg.DB, visitorID, mediaType string, refID int64) error {
	_, err := db.Model((*WatchlistItem)(nil)).
		Where("visitor_id = ?", visitorID).
		Where("media_type = ?", mediaType).
		Where("ref_id = ?", refID).
		Context(ctx).
		Delete()
	return err
}

func GetWatchlistByVisitor(ctx context.Context, db *pg.DB, visitorID string) ([]*WatchlistItem, error) {
	var items []*WatchlistItem
	err := db.Model(&items).
		Where("visitor_id = ?", visitorID).
		Order("created_at DESC").
		Context(ctx).
		Select()
	if err != nil {
		return nil, err
	}
	return items, nil
}

func HasWatchlistItem(ctx context.Context, db *pg.DB, visitorID, mediaType string, refID int64) (bool, error) {
	return db.Model((*WatchlistItem)(nil)).
		Where("visitor_id = ?", visitorID).
		Where("media_type = ?", mediaType).
		Where("ref_id = ?", refID).
		Context(ctx).
		Exists()
}
