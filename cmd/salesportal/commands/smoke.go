package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/google/uuid"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/matheusmosca/sales-portal/internal/portal"
	"github.com/matheusmosca/sales-portal/pkg/client"
)

// NewSmokeCmd cria o comando smoke, que exercita o fluxo de venda numa API em execução
func NewSmokeCmd() *cobra.Command {
	smokeCmd := &cobra.Command{
		Use:   "smoke",
		Short: "Run a sale round trip against a running API",
		Long: `Creates a user and a product, sells, oversells, cancels and checks
that stock and totals match at every step. Leaves the created records behind.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			results := runSmoke(commandContext(cmd), apiClient(cmd))
			renderSmoke(cmd.OutOrStdout(), results)
			for _, r := range results {
				if r.Err != nil {
					return errors.New("smoke test failed")
				}
			}
			return nil
		},
	}
	smokeCmd.Flags().String("url", defaultAPIURL, "Base URL of the sales portal API")

	return smokeCmd
}

type smokeStep struct {
	Name string
	Err  error
}

func runSmoke(ctx context.Context, api *client.Client) []smokeStep {
	var (
		results []smokeStep
		user    *portal.User
		product *portal.Product
		sale    *portal.Sale
	)

	price := decimal.RequireFromString("45.90")

	steps := []struct {
		name string
		run  func() error
	}{
		{"health", func() error {
			_, err := api.Health(ctx)
			return err
		}},
		{"create user", func() (err error) {
			user, err = api.CreateUser(ctx, portal.CreateUserRequest{
				Name:  "Smoke Test",
				Email: "smoke-" + uuid.NewString() + "@example.com",
			})
			return err
		}},
		{"create product", func() (err error) {
			product, err = api.CreateProduct(ctx, portal.CreateProductRequest{
				Name:          "Smoke Product",
				Price:         &price,
				StockQuantity: 50,
			})
			return err
		}},
		{"sell 3 units", func() (err error) {
			sale, err = api.CreateSale(ctx, portal.CreateSaleRequest{
				UserID:    user.ID,
				ProductID: product.ID,
				Quantity:  3,
			})
			if err != nil {
				return err
			}
			if want := price.Mul(decimal.NewFromInt(3)); !sale.TotalPrice.Equal(want) {
				return fmt.Errorf("total_price %s, want %s", sale.TotalPrice, want)
			}
			return expectStock(ctx, api, product.ID, 47)
		}},
		{"oversell rejected", func() error {
			_, err := api.CreateSale(ctx, portal.CreateSaleRequest{
				UserID:    user.ID,
				ProductID: product.ID,
				Quantity:  1000,
			})
			var apiErr *client.APIError
			if !errors.As(err, &apiErr) || apiErr.StatusCode != http.StatusBadRequest {
				return fmt.Errorf("expected 400, got %v", err)
			}
			return expectStock(ctx, api, product.ID, 47)
		}},
		{"cancel sale", func() error {
			if err := api.CancelSale(ctx, sale.ID); err != nil {
				return err
			}
			return expectStock(ctx, api, product.ID, 50)
		}},
		{"second cancel is 404", func() error {
			err := api.CancelSale(ctx, sale.ID)
			var apiErr *client.APIError
			if !errors.As(err, &apiErr) || apiErr.StatusCode != http.StatusNotFound {
				return fmt.Errorf("expected 404, got %v", err)
			}
			return nil
		}},
		{"movements recorded", func() error {
			movements, err := api.ListMovements(ctx, product.ID)
			if err != nil {
				return err
			}
			if len(movements) != 3 {
				return fmt.Errorf("got %d movements, want 3", len(movements))
			}
			return nil
		}},
	}

	for _, step := range steps {
		err := step.run()
		results = append(results, smokeStep{Name: step.name, Err: err})
		if err != nil {
			break
		}
	}
	return results
}

func expectStock(ctx context.Context, api *client.Client, productID string, want int) error {
	product, err := api.GetProduct(ctx, productID)
	if err != nil {
		return err
	}
	if product.StockQuantity != want {
		return fmt.Errorf("stock %d, want %d", product.StockQuantity, want)
	}
	return nil
}

func renderSmoke(w io.Writer, results []smokeStep) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Step", "Result", "Detail"})
	for _, r := range results {
		if r.Err != nil {
			t.AppendRow(table.Row{r.Name, "❌ FAIL", r.Err.Error()})
			continue
		}
		t.AppendRow(table.Row{r.Name, "✅ OK", ""})
	}
	t.Render()
}
