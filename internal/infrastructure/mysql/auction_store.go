package mysql

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"auction-engine/internal/domain"

	_ "github.com/go-sql-driver/mysql"
)

// AuctionStore persists auctions with an optimistic-concurrency version
// column. Every write goes through CompareAndSwap: the auctions row update is
// guarded by `WHERE version = ?` and new bid rows are appended in the same
// transaction, so a stale writer changes nothing.
type AuctionStore struct {
	db *sql.DB
}

func NewAuctionStore(db *sql.DB) *AuctionStore {
	return &AuctionStore{db: db}
}

const auctionColumns = `
    id, seller_id, seller_name, product_name, product_description, category,
    item_condition, seller_location, brand, model, image_url, base_price,
    current_highest_bid, highest_bidder_id, highest_bidder_name,
    start_time, end_time, status, version, created_at, updated_at`

func (s *AuctionStore) Create(ctx context.Context, auction *domain.Auction) error {
	query := `
        INSERT INTO auctions (` + auctionColumns + `)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
    `
	_, err := s.db.ExecContext(ctx, query,
		auction.ID, auction.SellerID, auction.SellerName,
		auction.ProductName, auction.ProductDescription, auction.Category,
		auction.Condition, auction.SellerLocation, auction.Brand, auction.Model,
		auction.ImageURL, auction.BasePrice,
		auction.CurrentHighestBid, auction.HighestBidderID, auction.HighestBidderName,
		auction.StartTime, auction.EndTime, string(auction.Status), auction.Version,
		auction.CreatedAt, auction.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert auction: %w", err)
	}
	return nil
}

func (s *AuctionStore) Get(ctx context.Context, auctionID string) (*domain.Auction, error) {
	query := `SELECT ` + auctionColumns + ` FROM auctions WHERE id = ?`

	auction, err := scanAuction(s.db.QueryRowContext(ctx, query, auctionID))
	if err == sql.ErrNoRows {
		return nil, domain.ErrAuctionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select auction: %w", err)
	}

	history, err := s.bidHistory(ctx, auctionID)
	if err != nil {
		return nil, err
	}
	auction.BidHistory = history
	return auction, nil
}

func (s *AuctionStore) CompareAndSwap(ctx context.Context, auction *domain.Auction, expectedVersion int64, newBids ...domain.Bid) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
        UPDATE auctions
        SET current_highest_bid = ?, highest_bidder_id = ?, highest_bidder_name = ?,
            status = ?, updated_at = ?, version = version + 1
        WHERE id = ? AND version = ?
    `,
		auction.CurrentHighestBid, auction.HighestBidderID, auction.HighestBidderName,
		string(auction.Status), auction.UpdatedAt,
		auction.ID, expectedVersion)
	if err != nil {
		return fmt.Errorf("update auction: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return domain.ErrVersionConflict
	}

	for _, bid := range newBids {
		_, err := tx.ExecContext(ctx, `
            INSERT INTO bids (id, auction_id, bidder_id, bidder_name, amount, accepted_at)
            VALUES (?, ?, ?, ?, ?, ?)
        `, bid.ID, auction.ID, bid.BidderID, bid.BidderName, bid.Amount, bid.AcceptedAt)
		if err != nil {
			return fmt.Errorf("insert bid: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func (s *AuctionStore) ListActive(ctx context.Context, filter domain.ListFilter) ([]*domain.Auction, error) {
	query := `SELECT ` + auctionColumns + ` FROM auctions WHERE status = ?`
	args := []interface{}{string(domain.AuctionActive)}

	if filter.Category != "" {
		query += ` AND category = ?`
		args = append(args, filter.Category)
	}
	if filter.Search != "" {
		query += ` AND (product_name LIKE ? OR product_description LIKE ?)`
		pattern := "%" + filter.Search + "%"
		args = append(args, pattern, pattern)
	}

	query += ` ORDER BY end_time ASC`
	if filter.Limit > 0 {
		query += ` LIMIT ? OFFSET ?`
		args = append(args, filter.Limit, filter.Offset)
	}

	return s.queryAuctions(ctx, query, args...)
}

func (s *AuctionStore) ListEndedBefore(ctx context.Context, now time.Time) ([]*domain.Auction, error) {
	query := `SELECT ` + auctionColumns + ` FROM auctions
        WHERE status = ? AND end_time <= ? ORDER BY end_time ASC`
	return s.queryAuctions(ctx, query, string(domain.AuctionActive), now)
}

func (s *AuctionStore) queryAuctions(ctx context.Context, query string, args ...interface{}) ([]*domain.Auction, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("select auctions: %w", err)
	}
	defer rows.Close()

	var auctions []*domain.Auction
	for rows.Next() {
		auction, err := scanAuction(rows)
		if err != nil {
			return nil, fmt.Errorf("scan auction: %w", err)
		}
		auctions = append(auctions, auction)
	}
	return auctions, rows.Err()
}

func (s *AuctionStore) bidHistory(ctx context.Context, auctionID string) ([]domain.Bid, error) {
	query := `
        SELECT id, bidder_id, bidder_name, amount, accepted_at
        FROM bids WHERE auction_id = ?
        ORDER BY seq ASC
    `
	rows, err := s.db.QueryContext(ctx, query, auctionID)
	if err != nil {
		return nil, fmt.Errorf("select bids: %w", err)
	}
	defer rows.Close()

	var bids []domain.Bid
	for rows.Next() {
		var bid domain.Bid
		if err := rows.Scan(&bid.ID, &bid.BidderID, &bid.BidderName, &bid.Amount, &bid.AcceptedAt); err != nil {
			return nil, fmt.Errorf("scan bid: %w", err)
		}
		bids = append(bids, bid)
	}
	return bids, rows.Err()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanAuction(row rowScanner) (*domain.Auction, error) {
	var auction domain.Auction
	var status string

	err := row.Scan(
		&auction.ID, &auction.SellerID, &auction.SellerName,
		&auction.ProductName, &auction.ProductDescription, &auction.Category,
		&auction.Condition, &auction.SellerLocation, &auction.Brand, &auction.Model,
		&auction.ImageURL, &auction.BasePrice,
		&auction.CurrentHighestBid, &auction.HighestBidderID, &auction.HighestBidderName,
		&auction.StartTime, &auction.EndTime, &status, &auction.Version,
		&auction.CreatedAt, &auction.UpdatedAt)
	if err != nil {
		return nil, err
	}

	auction.Status = domain.AuctionStatus(status)
	return &auction, nil
}
