package seed

import (
	"context"
	_ "embed"
	"fmt"
	"log/slog"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/tusharsharma89566/Edu-Learn/internal/models"
	"github.com/tusharsharma89566/Edu-Learn/internal/services"
)

//go:embed seed.yaml
var defaultFixtures []byte

type Admin struct {
	Username  string `yaml:"username"`
	Email     string `yaml:"email"`
	Password  string `yaml:"password"`
	FirstName string `yaml:"first_name"`
	LastName  string `yaml:"last_name"`
}

type FAQ struct {
	Question string `yaml:"question"`
	Answer   string `yaml:"answer"`
	Category string `yaml:"category"`
}

type Badge struct {
	Name             string  `yaml:"name"`
	Description      string  `yaml:"description"`
	BadgeType        string  `yaml:"badge_type"`
	Category         string  `yaml:"category"`
	Icon             string  `yaml:"icon"`
	Color            string  `yaml:"color"`
	Rarity           string  `yaml:"rarity"`
	CriteriaType     string  `yaml:"criteria_type"`
	CriteriaValue    float64 `yaml:"criteria_value"`
	PointsReward     int     `yaml:"points_reward"`
	ExperienceReward int     `yaml:"experience_reward"`
}

// Fixtures is the data written by the seed command
type Fixtures struct {
	Admin  Admin   `yaml:"admin"`
	FAQs   []FAQ   `yaml:"faqs"`
	Badges []Badge `yaml:"badges"`
}

// Result counts what Apply created
type Result struct {
	AdminCreated bool `json:"admin_created"`
	FAQs         int  `json:"faqs"`
	Badges       int  `json:"badges"`
}

// Default returns the embedded fixtures
func Default() (*Fixtures, error) {
	return Parse(defaultFixtures)
}

func Parse(data []byte) (*Fixtures, error) {
	var f Fixtures
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse seed fixtures: %w", err)
	}
	if f.Admin.Email == "" {
		return nil, fmt.Errorf("seed fixtures must define an admin email")
	}
	return &f, nil
}

// Seeder writes fixtures through the service layer so every row passes validation
type Seeder struct {
	auth         services.AuthService
	chatbot      services.ChatbotService
	gamification services.GamificationService
	logger       *slog.Logger
}

func NewSeeder(sm services.ServiceManager, logger *slog.Logger) *Seeder {
	return &Seeder{
		auth:         sm.Auth(),
		chatbot:      sm.Chatbot(),
		gamification: sm.Gamification(),
		logger:       logger,
	}
}

// Apply is idempotent: existing admin, FAQs and badges are left alone
func (s *Seeder) Apply(ctx context.Context, f *Fixtures) (*Result, error) {
	result := &Result{}

	admin, created, err := s.auth.EnsureUser(ctx, &services.RegisterRequest{
		Username:  f.Admin.Username,
		Email:     f.Admin.Email,
		Password:  f.Admin.Password,
		Role:      string(models.RoleAdmin),
		FirstName: f.Admin.FirstName,
		LastName:  f.Admin.LastName,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to seed admin: %w", err)
	}
	if admin.Role != models.RoleAdmin {
		return nil, fmt.Errorf("seed admin %s exists without the admin role", admin.Email)
	}
	result.AdminCreated = created

	existingFAQs, err := s.chatbot.ListFAQs(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list faqs: %w", err)
	}
	questions := make(map[string]bool, len(existingFAQs))
	for _, faq := range existingFAQs {
		questions[strings.ToLower(faq.Question)] = true
	}
	for _, faq := range f.FAQs {
		if questions[strings.ToLower(faq.Question)] {
			continue
		}
		if _, err := s.chatbot.CreateFAQ(ctx, &services.FAQRequest{
			Question: faq.Question,
			Answer:   faq.Answer,
			Category: faq.Category,
		}, admin.ID); err != nil {
			return nil, fmt.Errorf("failed to seed faq %q: %w", faq.Question, err)
		}
		result.FAQs++
	}

	existingBadges, err := s.gamification.ListBadges(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list badges: %w", err)
	}
	names := make(map[string]bool, len(existingBadges))
	for _, badge := range existingBadges {
		names[badge.Name] = true
	}
	for _, badge := range f.Badges {
		if names[badge.Name] {
			continue
		}
		if _, err := s.gamification.CreateBadge(ctx, &services.CreateBadgeRequest{
			Name:             badge.Name,
			Description:      badge.Description,
			BadgeType:        badge.BadgeType,
			Category:         badge.Category,
			Icon:             badge.Icon,
			Color:            badge.Color,
			Rarity:           badge.Rarity,
			CriteriaType:     badge.CriteriaType,
			CriteriaValue:    badge.CriteriaValue,
			PointsReward:     badge.PointsReward,
			ExperienceReward: badge.ExperienceReward,
		}, admin.ID); err != nil {
			return nil, fmt.Errorf("failed to seed badge %q: %w", badge.Name, err)
		}
		result.Badges++
	}

	s.logger.Info("Seed applied",
		"admin_created", result.AdminCreated,
		"faqs", result.FAQs,
		"badges", result.Badges,
	)
	return result, nil
}
