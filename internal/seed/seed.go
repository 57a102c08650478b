// Package seed loads demo loyalty programs from YAML.
package seed

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"happymeter/internal/domain"
	"happymeter/internal/models"
	"happymeter/internal/repository"

	"gopkg.in/yaml.v3"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Tier struct {
	Name           string `yaml:"name"`
	RequiredVisits int    `yaml:"required_visits"`
	Order          int    `yaml:"order"`
}

type Reward struct {
	Key         string `yaml:"key"`
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
}

type Rule struct {
	Name       string                 `yaml:"name"`
	Trigger    string                 `yaml:"trigger"`
	Conditions map[string]interface{} `yaml:"conditions"`
	Reward     string                 `yaml:"reward"`
	Inactive   bool                   `yaml:"inactive"`
}

type Program struct {
	Name    string   `yaml:"name"`
	Tiers   []Tier   `yaml:"tiers"`
	Rewards []Reward `yaml:"rewards"`
	Rules   []Rule   `yaml:"rules"`
}

// File is the root of a seed document.
type File struct {
	OwnerID  uint      `yaml:"owner_id"`
	Programs []Program `yaml:"programs"`
}

// Load reads and validates a seed file.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading seed %s: %w", path, err)
	}
	return Parse(data)
}

func Parse(data []byte) (*File, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing seed: %w", err)
	}
	if f.OwnerID == 0 {
		f.OwnerID = 1
	}
	if len(f.Programs) == 0 {
		return nil, fmt.Errorf("seed has no programs defined")
	}
	for _, p := range f.Programs {
		if p.Name == "" {
			return nil, fmt.Errorf("program name is required")
		}
		keys := make(map[string]bool, len(p.Rewards))
		for _, rw := range p.Rewards {
			if rw.Key == "" || rw.Name == "" {
				return nil, fmt.Errorf("program %q: reward key and name are required", p.Name)
			}
			keys[rw.Key] = true
		}
		for _, r := range p.Rules {
			if !domain.IsTriggerEventType(r.Trigger) {
				return nil, fmt.Errorf("program %q: rule %q: unknown trigger %q", p.Name, r.Name, r.Trigger)
			}
			if r.Reward != "" && !keys[r.Reward] {
				return nil, fmt.Errorf("program %q: rule %q: unknown reward %q", p.Name, r.Name, r.Reward)
			}
		}
	}
	return &f, nil
}

// Apply inserts every program of f in one transaction and returns the created programs.
func Apply(ctx context.Context, db *gorm.DB, f *File) ([]models.LoyaltyProgram, error) {
	var created []models.LoyaltyProgram
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		programs := repository.NewProgramRepository(tx)
		tiers := repository.NewTierRepository(tx)
		rewards := repository.NewRewardRepository(tx)
		rules := repository.NewRuleRepository(tx)

		for _, sp := range f.Programs {
			p := models.LoyaltyProgram{OwnerID: f.OwnerID, Name: sp.Name, IsActive: true}
			if err := programs.Create(ctx, &p); err != nil {
				return fmt.Errorf("program %q: %w", sp.Name, err)
			}
			for _, st := range sp.Tiers {
				t := models.LoyaltyTier{ProgramID: p.ID, Name: st.Name, RequiredVisits: st.RequiredVisits, Order: st.Order}
				if err := tiers.Create(ctx, &t); err != nil {
					return fmt.Errorf("tier %q: %w", st.Name, err)
				}
			}
			rewardIDs := make(map[string]uint, len(sp.Rewards))
			for _, srw := range sp.Rewards {
				rw := models.LoyaltyReward{ProgramID: p.ID, Name: srw.Name, Description: srw.Description, IsActive: true}
				if err := rewards.Create(ctx, &rw); err != nil {
					return fmt.Errorf("reward %q: %w", srw.Key, err)
				}
				rewardIDs[srw.Key] = rw.ID
			}
			for _, sr := range sp.Rules {
				cond, err := json.Marshal(sr.Conditions)
				if err != nil {
					return fmt.Errorf("rule %q conditions: %w", sr.Name, err)
				}
				if sr.Conditions == nil {
					cond = []byte("{}")
				}
				rule := models.LoyaltyRule{
					ProgramID:  p.ID,
					Name:       sr.Name,
					Trigger:    sr.Trigger,
					Conditions: datatypes.JSON(cond),
					IsActive:   true,
				}
				if id, ok := rewardIDs[sr.Reward]; ok {
					rule.RewardID = &id
				}
				if err := rules.Create(ctx, &rule); err != nil {
					return fmt.Errorf("rule %q: %w", sr.Name, err)
				}
				if sr.Inactive {
					rule.IsActive = false
					if err := rules.Update(ctx, &rule); err != nil {
						return fmt.Errorf("rule %q: %w", sr.Name, err)
					}
				}
			}
			created = append(created, p)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}
