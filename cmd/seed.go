package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"helpdesk/internal/model/order"
	"helpdesk/internal/model/policy"
	"helpdesk/internal/server"
	"helpdesk/internal/service"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Insert demo orders and policies",
	Long: `Upsert one demo order per order status for user "demo-user"
and the refund, return and shipping policies in English and Malayalam.
Requires mongo.uri; without it the data would vanish when the command exits.`,
	RunE: runSeed,
}

func init() {
	rootCmd.AddCommand(seedCmd)
}

func runSeed(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}
	if cfg.Mongo.URI == "" {
		return fmt.Errorf("mongo.uri is required for seeding (set HELPDESK_MONGO_URI)")
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	deps := server.OpenDeps(ctx, cfg)
	defer deps.Close(context.Background())
	if deps.Mongo == nil {
		return fmt.Errorf("cannot connect to MongoDB at %s", cfg.Mongo.URI)
	}

	orders := service.NewOrderService(deps.Orders, deps.Returns, cfg.Support.ReturnWindow)
	demo := demoOrders(time.Now().UTC())
	if err := orders.SeedOrders(ctx, demo); err != nil {
		return err
	}

	var policyCache service.PolicyCache
	if deps.Redis != nil {
		policyCache = deps.Redis
	}
	policies := service.NewPolicyService(deps.Policies, policyCache, cfg.Support.PolicyCacheTTL)
	demoPolicies := demoPolicies()
	for _, p := range demoPolicies {
		if err := policies.UpsertPolicy(ctx, p); err != nil {
			return err
		}
	}

	log.Info().Int("orders", len(demo)).Int("policies", len(demoPolicies)).Msg("demo data seeded")
	return nil
}

func demoOrders(now time.Time) []*order.Order {
	at := func(d time.Duration) *time.Time {
		t := now.Add(-d)
		return &t
	}
	eta := now.Add(48 * time.Hour)

	return []*order.Order{
		{OrderID: "ORD-1001", UserID: "demo-user", Status: order.OrderStatusPlaced, CreatedAt: now.Add(-2 * time.Hour), EstimatedDelivery: &eta},
		{OrderID: "ORD-1002", UserID: "demo-user", Status: order.OrderStatusPacked, CreatedAt: now.Add(-26 * time.Hour), PackedAt: at(20 * time.Hour), EstimatedDelivery: &eta},
		{OrderID: "ORD-1003", UserID: "demo-user", Status: order.OrderStatusShipped, CreatedAt: now.Add(-50 * time.Hour), PackedAt: at(46 * time.Hour), ShippedAt: at(30 * time.Hour), TrackingNumber: "TRK1003KL", EstimatedDelivery: &eta},
		{OrderID: "ORD-1004", UserID: "demo-user", Status: order.OrderStatusOutForDelivery, CreatedAt: now.Add(-74 * time.Hour), PackedAt: at(70 * time.Hour), ShippedAt: at(50 * time.Hour), TrackingNumber: "TRK1004KL", EstimatedDelivery: at(-6 * time.Hour)},
		{OrderID: "ORD-1005", UserID: "demo-user", Status: order.OrderStatusDelivered, CreatedAt: now.Add(-5 * 24 * time.Hour), PackedAt: at(118 * time.Hour), ShippedAt: at(96 * time.Hour), DeliveredAt: at(48 * time.Hour), TrackingNumber: "TRK1005KL"},
		{OrderID: "ORD-1006", UserID: "demo-user", Status: order.OrderStatusDelivered, CreatedAt: now.Add(-20 * 24 * time.Hour), PackedAt: at(19 * 24 * time.Hour), ShippedAt: at(18 * 24 * time.Hour), DeliveredAt: at(15 * 24 * time.Hour), TrackingNumber: "TRK1006KL"},
		{OrderID: "ORD-1007", UserID: "demo-user", Status: order.OrderStatusCancelled, CreatedAt: now.Add(-10 * 24 * time.Hour)},
	}
}

func demoPolicies() []*policy.Policy {
	return []*policy.Policy{
		{
			PolicyType: "refund",
			ContentEN:  "Refunds are issued to the original payment method within 5-7 business days after the returned item is inspected.",
			ContentML:  "തിരികെ ലഭിച്ച ഉൽപ്പന്നം പരിശോധിച്ച ശേഷം 5-7 പ്രവൃത്തി ദിവസത്തിനുള്ളിൽ പണം തിരികെ നൽകും.",
		},
		{
			PolicyType: "return",
			ContentEN:  "Delivered items can be returned within 7 days if they are damaged, defective or unwanted.",
			ContentML:  "ഡെലിവറി കഴിഞ്ഞ് 7 ദിവസത്തിനുള്ളിൽ ഉൽപ്പന്നങ്ങൾ തിരികെ നൽകാം.",
		},
		{
			PolicyType: "shipping",
			ContentEN:  "Orders ship within 2 business days. Delivery across Kerala takes 3-5 days.",
			ContentML:  "ഓർഡറുകൾ 2 പ്രവൃത്തി ദിവസത്തിനുള്ളിൽ അയയ്ക്കും. കേരളത്തിൽ എവിടെയും 3-5 ദിവസത്തിനുള്ളിൽ ഡെലിവറി.",
		},
	}
}
