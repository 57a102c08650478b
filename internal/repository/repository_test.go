package repository_test

import (
	"context"
	"encoding/json"
	"strconv"
	"testing"
	"time"

	"happymeter/internal/database/databasetest"
	"happymeter/internal/domain"
	"happymeter/internal/loyalty"
	"happymeter/internal/models"
	"happymeter/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

func seedProgram(t *testing.T, db *gorm.DB) models.LoyaltyProgram {
	t.Helper()
	p := models.LoyaltyProgram{OwnerID: 1, Name: "Cafe", IsActive: true}
	require.NoError(t, db.Create(&p).Error)
	return p
}

func TestEngineAgainstDatabase(t *testing.T) {
	db := databasetest.Open(t)
	ctx := context.Background()
	p := seedProgram(t, db)

	bronze := models.LoyaltyTier{ProgramID: p.ID, Name: "Bronze", RequiredVisits: 0, Order: 0}
	silver := models.LoyaltyTier{ProgramID: p.ID, Name: "Silver", RequiredVisits: 5, Order: 1}
	gold := models.LoyaltyTier{ProgramID: p.ID, Name: "Gold", RequiredVisits: 10, Order: 2}
	for _, tier := range []*models.LoyaltyTier{&bronze, &silver, &gold} {
		require.NoError(t, db.Create(tier).Error)
	}
	reward := models.LoyaltyReward{ProgramID: p.ID, Name: "Free coffee", IsActive: true}
	require.NoError(t, db.Create(&reward).Error)
	require.NoError(t, db.Create(&models.LoyaltyRule{
		ProgramID: p.ID, Trigger: domain.EventVisit, Conditions: datatypes.JSON(`{}`), RewardID: &reward.ID, IsActive: true,
	}).Error)
	cust := models.LoyaltyCustomer{ProgramID: p.ID, Phone: "+15550001", TotalVisits: 5, TierID: &bronze.ID}
	require.NoError(t, db.Create(&cust).Error)

	engine := loyalty.NewEngine(repository.NewLoyaltyStore(db), loyalty.Options{})
	res, err := engine.ProcessEvent(ctx, loyalty.EventContext{ProgramID: p.ID, CustomerID: cust.ID, Type: domain.EventVisit})
	require.NoError(t, err)
	require.Len(t, res.TriggeredRewards, 1)
	require.NotNil(t, res.NewTierID)
	assert.Equal(t, silver.ID, *res.NewTierID)

	var stored models.LoyaltyRedemption
	require.NoError(t, db.First(&stored, res.TriggeredRewards[0].ID).Error)
	assert.Equal(t, domain.RedemptionStatusPending, stored.Status)
	assert.Equal(t, res.TriggeredRewards[0].RedemptionCode, stored.RedemptionCode)
	assert.Equal(t, res.EventID, stored.EventID)

	var reloaded models.LoyaltyCustomer
	require.NoError(t, db.First(&reloaded, cust.ID).Error)
	assert.Equal(t, silver.ID, *reloaded.TierID)

	var ups []models.LoyaltyEvent
	require.NoError(t, db.Where("type = ?", domain.EventTierUp).Find(&ups).Error)
	require.Len(t, ups, 1)
	// datatypes.JSONMap decodes numbers as json.Number
	assert.Equal(t, json.Number(strconv.FormatUint(uint64(bronze.ID), 10)), ups[0].Metadata[domain.MetaOldTier])
	assert.Equal(t, json.Number(strconv.FormatUint(uint64(silver.ID), 10)), ups[0].Metadata[domain.MetaNewTier])

	// second event with the same visit count: no new tier event
	res, err = engine.ProcessEvent(ctx, loyalty.EventContext{ProgramID: p.ID, CustomerID: cust.ID, Type: domain.EventVisit})
	require.NoError(t, err)
	assert.Nil(t, res.NewTierID)
	var count int64
	db.Model(&models.LoyaltyEvent{}).Where("type = ?", domain.EventTierUp).Count(&count)
	assert.EqualValues(t, 1, count)
}

func TestEngineUnknownCustomerAgainstDatabase(t *testing.T) {
	db := databasetest.Open(t)
	p := seedProgram(t, db)

	engine := loyalty.NewEngine(repository.NewLoyaltyStore(db), loyalty.Options{})
	_, err := engine.ProcessEvent(context.Background(), loyalty.EventContext{ProgramID: p.ID, CustomerID: 999, Type: domain.EventCheckIn})
	assert.ErrorIs(t, err, loyalty.ErrCustomerNotFound)

	var count int64
	db.Model(&models.LoyaltyEvent{}).Count(&count)
	assert.EqualValues(t, 1, count)
}

func TestTransactionRollsBack(t *testing.T) {
	db := databasetest.Open(t)
	ctx := context.Background()
	p := seedProgram(t, db)
	cust := models.LoyaltyCustomer{ProgramID: p.ID, Phone: "1"}
	require.NoError(t, db.Create(&cust).Error)

	store := repository.NewLoyaltyStore(db)
	tierID := uint(42)
	err := store.Transaction(ctx, func(r loyalty.Repositories) error {
		require.NoError(t, r.Customers.UpdateCustomerTier(ctx, cust.ID, &tierID))
		return assert.AnError
	})
	assert.ErrorIs(t, err, assert.AnError)

	var reloaded models.LoyaltyCustomer
	require.NoError(t, db.First(&reloaded, cust.ID).Error)
	assert.Nil(t, reloaded.TierID)
}

func TestCustomerHistory(t *testing.T) {
	db := databasetest.Open(t)
	ctx := context.Background()
	p := seedProgram(t, db)
	repo := repository.NewCustomerRepository(db)

	cust, err := repo.FindOrCreate(ctx, p.ID, "+15550002", "Ada")
	require.NoError(t, err)
	again, err := repo.FindOrCreate(ctx, p.ID, "+15550002", "")
	require.NoError(t, err)
	assert.Equal(t, cust.ID, again.ID)
	assert.Equal(t, "Ada", again.Name)

	base := time.Date(2026, 10, 1, 10, 0, 0, 0, time.UTC)
	for i := 0; i < 12; i++ {
		require.NoError(t, repo.RecordVisit(ctx, cust, domain.VisitSourceQR, base.Add(time.Duration(i)*time.Hour)))
	}
	assert.Equal(t, 12, cust.TotalVisits)
	require.NotNil(t, cust.LastVisitAt)

	events := repository.NewEventRepository(db)
	for i, typ := range []string{domain.EventVisit, domain.EventSpend, domain.EventVisit} {
		require.NoError(t, events.CreateEvent(ctx, &models.LoyaltyEvent{
			ProgramID: p.ID, CustomerID: cust.ID, Type: typ, CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}))
	}

	h, err := repo.GetCustomerHistory(ctx, loyalty.HistoryQuery{ProgramID: p.ID, CustomerID: cust.ID, EventType: domain.EventVisit, VisitLimit: 10})
	require.NoError(t, err)
	assert.Equal(t, cust.ID, h.Customer.ID)
	require.Len(t, h.RecentVisits, 10)
	assert.True(t, h.RecentVisits[0].CreatedAt.After(h.RecentVisits[9].CreatedAt))
	require.Len(t, h.Events, 2)
	assert.True(t, h.Events[0].CreatedAt.After(h.Events[1].CreatedAt))

	_, err = repo.GetCustomerHistory(ctx, loyalty.HistoryQuery{ProgramID: p.ID, CustomerID: 12345, EventType: domain.EventVisit})
	assert.ErrorIs(t, err, loyalty.ErrCustomerNotFound)

	h, err = repo.GetCustomerHistory(ctx, loyalty.HistoryQuery{ProgramID: p.ID, CustomerID: cust.ID, EventType: domain.EventVisit, Since: base.Add(time.Minute)})
	require.NoError(t, err)
	require.Len(t, h.Events, 1)
	assert.True(t, h.Events[0].CreatedAt.Equal(base.Add(2*time.Minute)))
}

func TestCustomerLookupsAreScopedToProgram(t *testing.T) {
	db := databasetest.Open(t)
	ctx := context.Background()
	p := seedProgram(t, db)
	other := seedProgram(t, db)
	repo := repository.NewCustomerRepository(db)

	cust, err := repo.FindOrCreate(ctx, other.ID, "+15550003", "")
	require.NoError(t, err)

	_, err = repo.GetCustomerHistory(ctx, loyalty.HistoryQuery{ProgramID: p.ID, CustomerID: cust.ID, EventType: domain.EventVisit})
	assert.ErrorIs(t, err, loyalty.ErrCustomerNotFound)
	_, err = repo.GetCustomerForUpdate(ctx, p.ID, cust.ID)
	assert.ErrorIs(t, err, loyalty.ErrCustomerNotFound)

	got, err := repo.GetCustomerForUpdate(ctx, other.ID, cust.ID)
	require.NoError(t, err)
	assert.Equal(t, cust.ID, got.ID)
}

func TestEngineRejectsCustomerOfAnotherProgram(t *testing.T) {
	db := databasetest.Open(t)
	ctx := context.Background()
	p := seedProgram(t, db)
	other := seedProgram(t, db)

	require.NoError(t, db.Create(&models.LoyaltyTier{ProgramID: p.ID, Name: "Bronze", RequiredVisits: 0, Order: 0}).Error)
	cust := models.LoyaltyCustomer{ProgramID: other.ID, Phone: "+15550004", TotalVisits: 3}
	require.NoError(t, db.Create(&cust).Error)

	engine := loyalty.NewEngine(repository.NewLoyaltyStore(db), loyalty.Options{})
	_, err := engine.ProcessEvent(ctx, loyalty.EventContext{ProgramID: p.ID, CustomerID: cust.ID, Type: domain.EventVisit})
	assert.ErrorIs(t, err, loyalty.ErrCustomerNotFound)
	_, err = engine.ResolveTier(ctx, p.ID, cust.ID)
	assert.ErrorIs(t, err, loyalty.ErrCustomerNotFound)

	var reloaded models.LoyaltyCustomer
	require.NoError(t, db.First(&reloaded, cust.ID).Error)
	assert.Nil(t, reloaded.TierID)
	var ups int64
	db.Model(&models.LoyaltyEvent{}).Where("type = ?", domain.EventTierUp).Count(&ups)
	assert.Zero(t, ups)
}

func TestRecordVisitUnknownCustomer(t *testing.T) {
	db := databasetest.Open(t)
	repo := repository.NewCustomerRepository(db)
	err := repo.RecordVisit(context.Background(), &models.LoyaltyCustomer{ID: 77, ProgramID: 1}, domain.VisitSourceManual, time.Now())
	assert.ErrorIs(t, err, loyalty.ErrCustomerNotFound)
}

func TestListActiveRulesAndTiers(t *testing.T) {
	db := databasetest.Open(t)
	ctx := context.Background()
	p := seedProgram(t, db)
	other := seedProgram(t, db)

	rules := repository.NewRuleRepository(db)
	active := models.LoyaltyRule{ProgramID: p.ID, Trigger: domain.EventVisit, IsActive: true}
	require.NoError(t, rules.Create(ctx, &active))
	disabled := models.LoyaltyRule{ProgramID: p.ID, Trigger: domain.EventVisit, IsActive: true}
	require.NoError(t, rules.Create(ctx, &disabled))
	disabled.IsActive = false
	require.NoError(t, rules.Update(ctx, &disabled))
	require.NoError(t, rules.Create(ctx, &models.LoyaltyRule{ProgramID: other.ID, Trigger: domain.EventVisit, IsActive: true}))

	list, err := rules.ListActiveRules(ctx, p.ID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, active.ID, list[0].ID)

	tiers := repository.NewTierRepository(db)
	for _, tier := range []models.LoyaltyTier{
		{ProgramID: p.ID, Name: "Silver", RequiredVisits: 5, Order: 1},
		{ProgramID: p.ID, Name: "Gold", RequiredVisits: 10, Order: 2},
		{ProgramID: p.ID, Name: "Bronze", RequiredVisits: 0, Order: 0},
	} {
		tier := tier
		require.NoError(t, tiers.Create(ctx, &tier))
	}
	ordered, err := tiers.ListTiersDesc(ctx, p.ID)
	require.NoError(t, err)
	require.Len(t, ordered, 3)
	assert.Equal(t, []string{"Gold", "Silver", "Bronze"}, []string{ordered[0].Name, ordered[1].Name, ordered[2].Name})
}

func TestMarkRedeemedOnce(t *testing.T) {
	db := databasetest.Open(t)
	ctx := context.Background()
	repo := repository.NewRedemptionRepository(db)

	red := models.LoyaltyRedemption{ProgramID: 1, CustomerID: 2, RewardID: 3, RuleID: 4, Status: domain.RedemptionStatusPending, RedemptionCode: "ABCD1234"}
	require.NoError(t, repo.CreateRedemption(ctx, &red))

	got, err := repo.GetByCode(ctx, 1, "ABCD1234")
	require.NoError(t, err)
	assert.Equal(t, red.ID, got.ID)

	ok, err := repo.MarkRedeemed(ctx, red.ID, time.Now())
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = repo.MarkRedeemed(ctx, red.ID, time.Now())
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = repo.GetByCode(ctx, 2, "ABCD1234")
	var nf *loyalty.NotFoundError
	assert.ErrorAs(t, err, &nf)
}

func TestProgramAndRewardLookups(t *testing.T) {
	db := databasetest.Open(t)
	ctx := context.Background()
	programs := repository.NewProgramRepository(db)

	p := models.LoyaltyProgram{OwnerID: 9, Name: "Bakery", IsActive: true}
	require.NoError(t, programs.Create(ctx, &p))
	list, err := programs.ListByOwner(ctx, 9)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	_, err = programs.GetByID(ctx, 555)
	assert.ErrorIs(t, err, &loyalty.NotFoundError{Entity: "program"})

	rewards := repository.NewRewardRepository(db)
	rw := models.LoyaltyReward{ProgramID: p.ID, Name: "Croissant", IsActive: true}
	require.NoError(t, rewards.Create(ctx, &rw))
	require.NoError(t, rewards.UpdateImageURL(ctx, rw.ID, "https://img.example/c.png"))
	got, err := rewards.GetByID(ctx, p.ID, rw.ID)
	require.NoError(t, err)
	assert.Equal(t, "https://img.example/c.png", got.ImageURL)

	_, err = rewards.GetByID(ctx, p.ID+1, rw.ID)
	assert.ErrorIs(t, err, &loyalty.NotFoundError{Entity: "reward"})
}
