package seed

import (
	"bufio"
	"context"
	"math"
	"os"
	"strconv"
	"strings"

	"store-service/internal/service"

	"go.uber.org/zap"
)

// Products loads demo products from a CSV file (name,price,stock; price in
// decimal currency units). Lines that fail to parse or collide with an
// existing name are skipped.
func Products(ctx context.Context, catalog *service.ProductService, path string, logger *zap.Logger) {
	file, err := os.Open(path)
	if err != nil {
		logger.Warn("Failed to open seed file", zap.String("path", path), zap.Error(err))
		return
	}
	defer file.Close()

	var created, skipped int
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		tokens := strings.Split(scanner.Text(), ",")
		if len(tokens) != 3 {
			skipped++
			continue
		}

		name := strings.TrimSpace(tokens[0])
		price, priceErr := strconv.ParseFloat(strings.TrimSpace(tokens[1]), 64)
		stock, stockErr := strconv.Atoi(strings.TrimSpace(tokens[2]))
		if name == "" || priceErr != nil || stockErr != nil {
			skipped++
			continue
		}

		_, err := catalog.CreateProduct(ctx, service.ProductRequest{
			Name:      name,
			UnitPrice: int64(math.Round(price * 100)),
			Stock:     stock,
		})
		if err != nil {
			if err != service.ErrDuplicateName {
				logger.Warn("Failed to seed product", zap.String("name", name), zap.Error(err))
			}
			skipped++
			continue
		}
		created++
	}

	if err := scanner.Err(); err != nil {
		logger.Warn("Failed to read seed file", zap.String("path", path), zap.Error(err))
	}

	logger.Info("Seed finished",
		zap.String("path", path),
		zap.Int("created", created),
		zap.Int("skipped", skipped),
	)
}
