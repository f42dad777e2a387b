package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/tambula/dispatch/config"
	"github.com/tambula/dispatch/core/model"
	"github.com/tambula/dispatch/core/pricing"
	"github.com/tambula/dispatch/infra/logger"
	"github.com/tambula/dispatch/infra/postgres"
	"github.com/tambula/dispatch/infra/redisfeed"
)

var quoteFlags struct {
	pickupLat  float64
	pickupLng  float64
	dropoffLat float64
	dropoffLng float64
	service    string
	priority   string
}

var quoteCmd = &cobra.Command{
	Use:   "quote",
	Short: "Compute a one-shot price quote for a trip",
	RunE:  runQuote,
}

func init() {
	quoteCmd.Flags().Float64Var(&quoteFlags.pickupLat, "pickup-lat", 0, "pickup latitude")
	quoteCmd.Flags().Float64Var(&quoteFlags.pickupLng, "pickup-lng", 0, "pickup longitude")
	quoteCmd.Flags().Float64Var(&quoteFlags.dropoffLat, "dropoff-lat", 0, "dropoff latitude")
	quoteCmd.Flags().Float64Var(&quoteFlags.dropoffLng, "dropoff-lng", 0, "dropoff longitude")
	quoteCmd.Flags().StringVar(&quoteFlags.service, "service", string(model.ServiceTransport), "service type")
	quoteCmd.Flags().StringVar(&quoteFlags.priority, "priority", string(model.PriorityNormal), "request priority")
	rootCmd.AddCommand(quoteCmd)
}

func runQuote(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	log := logger.New("quote")
	var rules pricing.RulesStore
	if cfg.Postgres.DSN != "" {
		stores, err := postgres.Connect(ctx, cfg.Postgres)
		if err != nil {
			return err
		}
		defer stores.Close()
		rules = stores
	}
	counter := redisfeed.NewCounter(cfg.Redis)
	defer func() {
		if err := counter.Close(); err != nil {
			log.Errorf("counter close: %v", err)
		}
	}()

	req := model.DispatchRequest{
		Service:  model.ServiceType(quoteFlags.service),
		Priority: model.Priority(quoteFlags.priority),
		Pickup:   model.Coordinate{Lat: quoteFlags.pickupLat, Lng: quoteFlags.pickupLng},
	}
	if quoteFlags.dropoffLat != 0 || quoteFlags.dropoffLng != 0 {
		req.Destination = &model.Coordinate{Lat: quoteFlags.dropoffLat, Lng: quoteFlags.dropoffLng}
	}
	if err := req.Validate(); err != nil {
		return err
	}

	q := pricing.NewEngine(rules, counter, cfg.Pricing, log).Quote(ctx, req)
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(q)
}
