package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/jiljuapp/jilju/internal/adapters/postgres"
	"github.com/jiljuapp/jilju/internal/core/domain"
	"github.com/jiljuapp/jilju/internal/core/regions"
	"github.com/jiljuapp/jilju/internal/pkg/config"
)

// ---------------------------------------------------------------------------
// Manifest types
// ---------------------------------------------------------------------------

type Manifest struct {
	Source    string          `json:"source"`
	Merchants []MerchantEntry `json:"merchants"`
}

type MerchantEntry struct {
	Slug     string         `json:"slug"`
	Name     string         `json:"name"`
	Category string         `json:"category,omitempty"`
	Lat      float64        `json:"lat"`
	Lon      float64        `json:"lon"`
	Address  string         `json:"address,omitempty"`
	Phone    string         `json:"phone,omitempty"`
	Benefits []BenefitEntry `json:"benefits"`
}

type BenefitEntry struct {
	ID               string `json:"id"`
	Title            string `json:"title"`
	Kind             string `json:"kind"`
	DiscountPercent  int    `json:"discount_percent,omitempty"`
	DiscountAmount   int    `json:"discount_amount,omitempty"`
	GiftDescription  string `json:"gift_description,omitempty"`
	CouponTTLSeconds int    `json:"coupon_ttl_seconds,omitempty"`
	ValidFrom        string `json:"valid_from,omitempty"`
	ValidUntil       string `json:"valid_until,omitempty"`
	Inactive         bool   `json:"inactive,omitempty"`
}

// ---------------------------------------------------------------------------
// Main
// ---------------------------------------------------------------------------

func main() {
	cfg, err := config.Load("jilju-seed")
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	ctx := context.Background()

	db, err := postgres.New(ctx, cfg.Database.DSN())
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	defer db.Close()

	// Load manifest
	manifestPath := "seed.json"
	if len(os.Args) > 1 {
		manifestPath = os.Args[1]
	}

	data, err := os.ReadFile(manifestPath)
	if err != nil {
		log.Fatalf("read manifest: %v", err)
	}

	var manifest Manifest
	if err := json.Unmarshal(data, &manifest); err != nil {
		log.Fatalf("parse manifest: %v", err)
	}

	log.Printf("Jilju Seed — %d merchants from %s", len(manifest.Merchants), manifest.Source)

	// Filter merchants (optional CLI arg: slug list)
	slugFilter := map[string]bool{}
	if len(os.Args) > 2 {
		for _, s := range strings.Split(os.Args[2], ",") {
			slugFilter[strings.TrimSpace(s)] = true
		}
	}

	merchantRepo := postgres.NewMerchantRepo(db)
	benefitRepo := postgres.NewBenefitRepo(db)

	var wg sync.WaitGroup
	sem := make(chan struct{}, 4) // max 4 concurrent upserts

	for _, entry := range manifest.Merchants {
		if len(slugFilter) > 0 && !slugFilter[entry.Slug] {
			continue
		}

		wg.Add(1)
		go func(m MerchantEntry) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			if err := seedMerchant(ctx, merchantRepo, benefitRepo, m); err != nil {
				log.Printf("ERROR [%s]: %v", m.Slug, err)
			}
		}(entry)
	}

	wg.Wait()
	log.Println("seed complete")
}

// ---------------------------------------------------------------------------
// Per-merchant seeding
// ---------------------------------------------------------------------------

func seedMerchant(ctx context.Context, merchants *postgres.MerchantRepo, benefits *postgres.BenefitRepo, entry MerchantEntry) error {
	merchant := &domain.Merchant{
		Slug:     entry.Slug,
		Name:     entry.Name,
		Category: entry.Category,
		Location: domain.GeoPoint{Lat: entry.Lat, Lon: entry.Lon},
		Address:  entry.Address,
		Phone:    entry.Phone,
	}
	if err := merchants.Upsert(ctx, merchant); err != nil {
		return fmt.Errorf("upsert merchant: %w", err)
	}
	log.Printf("[%s] merchant_id=%s", entry.Slug, merchant.ID)

	batch := make([]domain.Benefit, 0, len(entry.Benefits))
	for _, be := range entry.Benefits {
		b, err := buildBenefit(merchant, be)
		if err != nil {
			log.Printf("[%s] benefit %s skipped: %v", entry.Slug, be.ID, err)
			continue
		}
		batch = append(batch, *b)
	}
	if len(batch) == 0 {
		return nil
	}
	if err := benefits.UpsertBatch(ctx, batch); err != nil {
		return fmt.Errorf("upsert benefits: %w", err)
	}

	log.Printf("[%s]   benefits: %d", entry.Slug, len(batch))
	return nil
}

func buildBenefit(merchant *domain.Merchant, entry BenefitEntry) (*domain.Benefit, error) {
	if entry.ID == "" || entry.Title == "" {
		return nil, fmt.Errorf("id and title are required")
	}

	kind := domain.BenefitKind(entry.Kind)
	switch kind {
	case domain.BenefitPercent, domain.BenefitAmount, domain.BenefitGift:
	default:
		return nil, fmt.Errorf("unknown kind %q", entry.Kind)
	}

	validFrom, err := parseDate(entry.ValidFrom, time.Now())
	if err != nil {
		return nil, fmt.Errorf("valid_from: %w", err)
	}
	validUntil, err := parseDate(entry.ValidUntil, time.Now().AddDate(0, 3, 0))
	if err != nil {
		return nil, fmt.Errorf("valid_until: %w", err)
	}

	b := &domain.Benefit{
		ID:              entry.ID,
		MerchantID:      merchant.ID,
		Title:           entry.Title,
		Kind:            kind,
		DiscountPercent: entry.DiscountPercent,
		DiscountAmount:  entry.DiscountAmount,
		GiftDescription: entry.GiftDescription,
		Location:        merchant.Location,
		CouponTTL:       time.Duration(entry.CouponTTLSeconds) * time.Second,
		ValidFrom:       validFrom,
		ValidUntil:      validUntil,
		Active:          !entry.Inactive,
	}

	if r := regions.Find(b.Location, regions.Table); r != nil {
		b.RegionID = r.ID
	}
	return b, nil
}

// parseDate accepts RFC 3339 or plain dates; empty falls back to the default.
func parseDate(s string, def time.Time) (time.Time, error) {
	if s == "" {
		return def, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02", s)
}
