package app

import (
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/vietanh2810/coffeeshop-api/internal/domain"
	"github.com/vietanh2810/coffeeshop-api/internal/repository"
	"github.com/vietanh2810/coffeeshop-api/internal/repository/dao"
	"github.com/vietanh2810/coffeeshop-api/internal/service"
)

var starterMenu = []domain.Product{
	{Name: "Espresso", Description: "Single shot, house blend", Price: decimal.NewFromInt(18000), Category: "Coffee", Stock: 100, IsAvailable: true},
	{Name: "Americano", Description: "Espresso with hot water", Price: decimal.NewFromInt(22000), Category: "Coffee", Stock: 100, IsAvailable: true},
	{Name: "Cafe Latte", Description: "Espresso with steamed milk", Price: decimal.NewFromInt(28000), Category: "Coffee", Stock: 100, IsAvailable: true},
	{Name: "Kopi Susu Gula Aren", Description: "Iced coffee, milk and palm sugar", Price: decimal.NewFromInt(25000), Category: "Coffee", Stock: 100, IsAvailable: true},
	{Name: "Matcha Latte", Description: "Japanese green tea with milk", Price: decimal.NewFromInt(30000), Category: "Non Coffee", Stock: 50, IsAvailable: true},
	{Name: "Chocolate", Description: "Hot or iced", Price: decimal.NewFromInt(26000), Category: "Non Coffee", Stock: 50, IsAvailable: true},
	{Name: "Croissant", Description: "Butter croissant", Price: decimal.NewFromInt(20000), Category: "Pastry", Stock: 20, IsAvailable: true},
	{Name: "Banana Bread", Description: "Sliced, baked daily", Price: decimal.NewFromInt(18000), Category: "Pastry", Stock: 20, IsAvailable: true},
}

func seedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Load a starter menu into an empty catalog",
		RunE: func(cmd *cobra.Command, _ []string) error {
			conf, err := loadConfig()
			if err != nil {
				return err
			}

			gdb, err := openDB(conf)
			if err != nil {
				return err
			}
			defer closeDB(gdb)

			if err = dao.InitTables(gdb); err != nil {
				return fmt.Errorf("dao.InitTables -> %w", err)
			}

			svc := service.NewProductService(repository.NewProductRepository(dao.NewProductDAO(gdb)))

			count, err := svc.Count(cmd.Context())
			if err != nil {
				return fmt.Errorf("svc.Count -> %w", err)
			}
			if count > 0 {
				zap.L().Info("catalog is not empty, nothing to seed", zap.Int64("products", count))
				return nil
			}

			for _, p := range starterMenu {
				if _, err = svc.Save(cmd.Context(), p); err != nil {
					return fmt.Errorf("svc.Save %q -> %w", p.Name, err)
				}
			}

			zap.L().Info("seeded starter menu", zap.Int("products", len(starterMenu)))

			return nil
		},
	}
}
