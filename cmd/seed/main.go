package main

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/onebite/onebite-backend/config"
	"github.com/onebite/onebite-backend/internal/app/model"
	"github.com/onebite/onebite-backend/internal/app/repository"
	"github.com/onebite/onebite-backend/internal/db"
	"github.com/xuri/excelize/v2"
)

// 데모 데이터 시드 도구
// XLSX 파일의 "users" 시트와 "splits" 시트를 읽어 DB에 넣는다.
//
// users 시트 컬럼: provider | provider_id | nickname | profile_image_url
// splits 시트 컬럼: author_provider_id | product_name | total_price | total_qty |
//                   split_count | image_url | latitude | longitude | address
func main() {
	if len(os.Args) < 2 {
		log.Fatal("Usage: go run cmd/seed/main.go <xlsx_file_path>")
	}

	filePath := os.Args[1]

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load config:", err)
	}

	if err := db.Initialize(&cfg.Database); err != nil {
		log.Fatal("Failed to connect to database:", err)
	}
	defer db.Close()

	userRepo := repository.NewUserRepository(db.GetDB())
	splitRepo := repository.NewSplitRepository(db.GetDB())

	fmt.Printf("Reading XLSX file: %s\n", filePath)
	f, err := excelize.OpenFile(filePath)
	if err != nil {
		log.Fatal("Failed to open XLSX file:", err)
	}
	defer f.Close()

	users, err := readUsers(f)
	if err != nil {
		log.Fatal("Failed to read users sheet:", err)
	}
	splits, err := readSplits(f)
	if err != nil {
		log.Fatal("Failed to read splits sheet:", err)
	}

	fmt.Printf("Users to import: %d, splits to import: %d\n", len(users), len(splits))

	fmt.Print("Do you want to proceed with the import? (yes/no): ")
	var confirm string
	fmt.Scanln(&confirm)
	if confirm != "yes" && confirm != "y" {
		fmt.Println("Import cancelled.")
		return
	}

	batchSize := 500
	if err := userRepo.BulkCreate(users, batchSize); err != nil {
		log.Fatal("Failed to bulk create users:", err)
	}

	// 방금 넣은 유저들의 provider_id → id 매핑을 만든 후 작성자 연결
	idByProviderID := make(map[string]uint, len(users))
	for _, u := range users {
		idByProviderID[u.ProviderID] = u.ID
	}

	imported := make([]model.SplitRequest, 0, len(splits))
	skipped := 0
	for _, s := range splits {
		authorID, ok := idByProviderID[s.authorProviderID]
		if !ok {
			skipped++
			continue
		}
		s.split.AuthorID = authorID
		imported = append(imported, s.split)
	}

	if err := splitRepo.BulkCreate(imported, batchSize); err != nil {
		log.Fatal("Failed to bulk create splits:", err)
	}

	fmt.Println("Import completed successfully!")
	fmt.Printf("Imported %d users, %d splits (skipped %d splits with unknown author)\n",
		len(users), len(imported), skipped)
}

func readUsers(f *excelize.File) ([]model.User, error) {
	rows, err := f.GetRows("users")
	if err != nil {
		return nil, fmt.Errorf("failed to read users sheet: %w", err)
	}

	var users []model.User
	seen := make(map[string]bool) // (provider, provider_id) 중복 제거
	for i, row := range rows {
		if i == 0 {
			continue // 헤더
		}
		if len(row) < 3 {
			continue
		}

		provider := model.AuthProvider(strings.ToUpper(strings.TrimSpace(row[0])))
		providerID := strings.TrimSpace(row[1])
		nickname := strings.TrimSpace(row[2])

		if !provider.IsValid() || providerID == "" || nickname == "" {
			continue
		}
		key := string(provider) + ":" + providerID
		if seen[key] {
			continue
		}
		seen[key] = true

		user := model.User{
			Provider:   provider,
			ProviderID: providerID,
			Nickname:   nickname,
		}
		if len(row) > 3 {
			user.ProfileImageURL = strings.TrimSpace(row[3])
		}
		users = append(users, user)
	}

	return users, nil
}

type seedSplit struct {
	authorProviderID string
	split            model.SplitRequest
}

func readSplits(f *excelize.File) ([]seedSplit, error) {
	rows, err := f.GetRows("splits")
	if err != nil {
		return nil, fmt.Errorf("failed to read splits sheet: %w", err)
	}

	var splits []seedSplit
	skipped := 0
	for i, row := range rows {
		if i == 0 {
			continue // 헤더
		}
		if len(row) < 9 {
			skipped++
			continue
		}

		totalPrice, err1 := strconv.Atoi(strings.TrimSpace(row[2]))
		totalQty, err2 := strconv.Atoi(strings.TrimSpace(row[3]))
		splitCount, err3 := strconv.Atoi(strings.TrimSpace(row[4]))
		lat, err4 := strconv.ParseFloat(strings.TrimSpace(row[6]), 64)
		lng, err5 := strconv.ParseFloat(strings.TrimSpace(row[7]), 64)
		if err1 != nil || err2 != nil || err3 != nil || err4 != nil || err5 != nil {
			skipped++
			continue
		}

		productName := strings.TrimSpace(row[1])
		if productName == "" || totalPrice < 1 || totalQty < 1 || splitCount < 2 {
			skipped++
			continue
		}
		if lat < -90 || lat > 90 || lng < -180 || lng > 180 {
			skipped++
			continue
		}

		splits = append(splits, seedSplit{
			authorProviderID: strings.TrimSpace(row[0]),
			split: model.SplitRequest{
				ProductName: productName,
				TotalPrice:  totalPrice,
				TotalQty:    totalQty,
				SplitCount:  splitCount,
				ImageURL:    strings.TrimSpace(row[5]),
				Latitude:    lat,
				Longitude:   lng,
				Address:     strings.TrimSpace(row[8]),
				Status:      model.SplitWaiting,
			},
		})
	}

	if skipped > 0 {
		fmt.Printf("Skipped %d invalid split rows\n", skipped)
	}
	return splits, nil
}
