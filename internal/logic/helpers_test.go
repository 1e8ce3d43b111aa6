package logic

import (
	"testing"
	"time"

	"github.com/blues/ifs/internal/database"
	"github.com/blues/ifs/internal/model"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, database.Migrate(db))
	return db
}

func seedVerifiedCompany(t *testing.T, db *gorm.DB) *model.Company {
	t.Helper()
	company := &model.Company{
		Id:            model.NewId(),
		Name:          "Habesha Breweries",
		TinNumber:     model.NewId(),
		WalletAddress: "0x3000000000000000000000000000000000000007",
		Verified:      true,
	}
	require.NoError(t, db.Create(company).Error)
	return company
}

func seedCampaignAt(t *testing.T, db *gorm.DB, companyId string, status model.CampaignStatus) *model.Campaign {
	t.Helper()
	campaign := &model.Campaign{
		Id:               model.NewId(),
		CompanyId:        companyId,
		Title:            "Bottling line expansion",
		FundingGoal:      100000,
		MinInvestment:    100,
		Duration:         60,
		SuccessThreshold: 75,
		Status:           status,
	}
	if status == model.CampaignStatusActive {
		start := time.Now().AddDate(0, 0, -60)
		end := time.Now().AddDate(0, 0, -1)
		campaign.StartDate = &start
		campaign.EndDate = &end
	}
	require.NoError(t, db.Create(campaign).Error)
	return campaign
}

func pendingEvents(t *testing.T, db *gorm.DB, eventType model.OutboxEventType) []model.OutboxEvent {
	t.Helper()
	var events []model.OutboxEvent
	require.NoError(t, db.Where("event_type = ? AND status = ?",
		eventType, model.OutboxStatusPending).Find(&events).Error)
	return events
}
