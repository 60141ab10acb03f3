package pricing

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awscfg "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/pricing"
	"golang.org/x/time/rate"

	"github.com/sowdesk/sowdesk-backend/internal/tco/storage"
)

// FetchConfig bounds a pricing refresh. The AWS price list API is large;
// MaxRecords keeps a refresh from walking all of it.
type FetchConfig struct {
	MaxRecords     int
	RateLimit      rate.Limit
	BurstSize      int
	BackoffInitial time.Duration
	BackoffMax     time.Duration
	MaxRetries     int
}

func DefaultFetchConfig() FetchConfig {
	return FetchConfig{
		MaxRecords:     5000,
		RateLimit:      8,
		BurstSize:      16,
		BackoffInitial: 1 * time.Second,
		BackoffMax:     30 * time.Second,
		MaxRetries:     3,
	}
}

// priceAPI is the slice of the AWS pricing client the fetcher needs.
type priceAPI interface {
	GetProducts(ctx context.Context, in *pricing.GetProductsInput, opts ...func(*pricing.Options)) (*pricing.GetProductsOutput, error)
}

// AWSFetcher pulls on-demand EC2 prices for TCO estimates.
type AWSFetcher struct {
	client  priceAPI
	limiter *rate.Limiter
	cfg     FetchConfig
}

func NewAWSFetcher(client priceAPI, cfg FetchConfig) *AWSFetcher {
	if cfg.MaxRetries == 0 {
		cfg = DefaultFetchConfig()
	}
	return &AWSFetcher{
		client:  client,
		limiter: rate.NewLimiter(cfg.RateLimit, cfg.BurstSize),
		cfg:     cfg,
	}
}

// NewPricingClient builds the AWS pricing client. The pricing API only
// lives in a handful of regions; us-east-1 serves all price data.
func NewPricingClient(ctx context.Context) (*pricing.Client, error) {
	cfg, err := awscfg.LoadDefaultConfig(ctx, awscfg.WithRegion("us-east-1"))
	if err != nil {
		return nil, fmt.Errorf("aws config load: %w", err)
	}
	return pricing.NewFromConfig(cfg), nil
}

// Fetch walks the EC2 price list and returns parsed on-demand rows.
func (f *AWSFetcher) Fetch(ctx context.Context) ([]storage.ComputePriceRow, error) {
	input := &pricing.GetProductsInput{
		ServiceCode:   aws.String("AmazonEC2"),
		FormatVersion: aws.String("aws_v1"),
	}

	rows := make([]storage.ComputePriceRow, 0, 1024)
	var nextToken *string
	backoff := f.cfg.BackoffInitial

	for {
		if f.cfg.MaxRecords > 0 && len(rows) >= f.cfg.MaxRecords {
			break
		}

		if err := f.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limiter: %w", err)
		}

		input.NextToken = nextToken

		var resp *pricing.GetProductsOutput
		var err error
		for attempt := 0; attempt <= f.cfg.MaxRetries; attempt++ {
			resp, err = f.client.GetProducts(ctx, input)
			if err == nil {
				backoff = f.cfg.BackoffInitial
				break
			}
			if attempt == f.cfg.MaxRetries {
				return nil, fmt.Errorf("GetProducts failed after %d retries: %w", f.cfg.MaxRetries+1, err)
			}
			log.Printf("pricing: attempt %d failed: %v, retrying in %v", attempt+1, err, backoff)
			select {
			case <-time.After(backoff):
				backoff = time.Duration(float64(backoff) * 1.5)
				if backoff > f.cfg.BackoffMax {
					backoff = f.cfg.BackoffMax
				}
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}

		now := time.Now().UTC()
		for _, pl := range resp.PriceList {
			if f.cfg.MaxRecords > 0 && len(rows) >= f.cfg.MaxRecords {
				break
			}
			if row, ok := parsePriceListEntry(pl, now); ok {
				rows = append(rows, row)
			}
		}

		if resp.NextToken == nil || *resp.NextToken == "" {
			break
		}
		nextToken = resp.NextToken
	}

	return rows, nil
}

// parsePriceListEntry extracts an on-demand hourly price from one
// aws_v1 price list document. Entries without an hourly on-demand
// dimension (reserved, spot metadata, etc.) are skipped.
func parsePriceListEntry(raw string, fetchedAt time.Time) (storage.ComputePriceRow, bool) {
	var js map[string]interface{}
	if err := json.Unmarshal([]byte(raw), &js); err != nil {
		return storage.ComputePriceRow{}, false
	}

	prod, _ := js["product"].(map[string]interface{})
	attrs, _ := prod["attributes"].(map[string]interface{})
	if attrs == nil {
		return storage.ComputePriceRow{}, false
	}

	instanceType, _ := attrs["instanceType"].(string)
	region, _ := attrs["regionCode"].(string)
	if instanceType == "" || region == "" {
		return storage.ComputePriceRow{}, false
	}

	sku, _ := prod["sku"].(string)
	row := storage.ComputePriceRow{
		SKUID:        sku,
		Region:       region,
		InstanceType: instanceType,
		FetchedAt:    fetchedAt,
	}

	if v, ok := attrs["vcpu"].(string); ok {
		if n, err := strconv.Atoi(v); err == nil {
			row.VCPU = &n
		}
	}
	if m, ok := attrs["memory"].(string); ok {
		if gb, ok := parseMemoryGB(m); ok {
			row.MemoryGB = &gb
		}
	}

	terms, _ := js["terms"].(map[string]interface{})
	onDemand, _ := terms["OnDemand"].(map[string]interface{})
	for _, t := range onDemand {
		term, _ := t.(map[string]interface{})
		dims, _ := term["priceDimensions"].(map[string]interface{})
		for _, d := range dims {
			dim, _ := d.(map[string]interface{})
			unit, _ := dim["unit"].(string)
			if !strings.EqualFold(unit, "Hrs") {
				continue
			}
			ppu, _ := dim["pricePerUnit"].(map[string]interface{})
			usd, _ := ppu["USD"].(string)
			price, err := strconv.ParseFloat(usd, 64)
			if err != nil || price <= 0 {
				continue
			}
			row.PricePerHour = &price
			row.Currency = "USD"
			row.Unit = unit
			return row, true
		}
	}

	return storage.ComputePriceRow{}, false
}

func parseMemoryGB(s string) (float64, bool) {
	s = strings.TrimSpace(strings.TrimSuffix(strings.TrimSuffix(s, "GiB"), "GB"))
	s = strings.TrimSpace(s)
	gb, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return gb, true
}
