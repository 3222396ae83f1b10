package seeders

import (
	"log"

	"github.com/cherop/pactpay/internal/repository"
	"github.com/cradoe/gopass"
	"github.com/shopspring/decimal"
)

// seedDemoAccounts creates a buyer and a seller account plus a draft
// contract between them, so a fresh environment has something to poke at.
// Re-running the seeder against a seeded database is a no-op.
func (seeder *Seeder) seedDemoAccounts() {
	accounts := []struct {
		Email    string
		Password string
	}{
		{Email: "seller@pactpay.test", Password: "S3ller-demo-pass!"},
		{Email: "buyer@pactpay.test", Password: "Buy3r-demo-pass!"},
	}

	ids := make(map[string]string, len(accounts))

	for _, account := range accounts {
		_, found, err := seeder.DB.User().GetByEmail(account.Email)
		if err != nil {
			log.Fatalf("Failed to look up seed account '%s': %v", account.Email, err)
		}
		if found {
			return
		}

		hashedPassword, err := gopass.Hash(account.Password)
		if err != nil {
			log.Fatalf("Failed to hash password for seed account '%s': %v", account.Email, err)
		}

		id, err := seeder.DB.User().Insert(&repository.User{
			Email:          account.Email,
			HashedPassword: hashedPassword,
		}, nil)
		if err != nil {
			log.Fatalf("Failed to insert seed account '%s': %v", account.Email, err)
		}

		ids[account.Email] = id
	}

	_, err := seeder.DB.Contract().Insert(&repository.Contract{
		SellerID: ids["seller@pactpay.test"],
		BuyerID:  ids["buyer@pactpay.test"],
		Title:    "Website redesign",
		Amount:   decimal.NewFromInt(250),
		Status:   repository.ContractStatusDraft,
	}, nil)
	if err != nil {
		log.Fatalf("Failed to insert seed contract: %v", err)
	}
}
